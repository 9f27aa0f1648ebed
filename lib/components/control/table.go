// Copyright (c) 2017 Darren Whitlen <darren@kiwiirc.com>
// released under the MIT license

package ircComponentControl

import (
	"bytes"
	"strings"

	"github.com/olekukonko/tablewriter"
)

/**
 * Table writer outputs to a Writer interface but we need a string.
 * This simply wraps the tablewriter.Table interface with a buffer
 * and adds a few helper functions
 */

type Table struct {
	*tablewriter.Table
	Out *bytes.Buffer
}

func NewTable() *Table {
	table := &Table{
		Out: new(bytes.Buffer),
	}
	table.Table = tablewriter.NewWriter(table.Out)
	return table
}

func (table *Table) RenderToString() string {
	table.Render()
	return table.Out.String()
}

// RenderToLines renders the table as one string per row of output.
func (table *Table) RenderToLines() []string {
	out := strings.Trim(table.RenderToString(), "\n")
	return strings.Split(out, "\n")
}
