package ircComponentLogger

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// FileMessageStore appends each channel's history to
// <path>/<network>/<channel>.log.
type FileMessageStore struct {
	mu      sync.Mutex
	logPath string
}

func NewFileMessageStore(path string) *FileMessageStore {
	return &FileMessageStore{logPath: path}
}

func (ds *FileMessageStore) Store(network string, channel string, line string) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	// Make sure the network directory exists
	logPath := filepath.Join(ds.logPath, network)
	if err := os.MkdirAll(logPath, 0700); err != nil {
		return errors.Wrap(err, "creating log directory")
	}
	filename := filepath.Join(logPath, logName(channel)+".log")

	f, err := os.OpenFile(filename, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0600)
	if err != nil {
		return errors.Wrapf(err, "opening %s", filename)
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", filename)
	}
	return f.Close()
}

// logName maps a channel name to a file name. Channel names are case
// insensitive and may contain slashes.
func logName(channel string) string {
	return strings.ReplaceAll(strings.ToLower(channel), string(filepath.Separator), "_")
}
