// Copyright (c) 2017 Darren Whitlen <darren@kiwiirc.com>
// released under the MIT license

package ircDataStoreBuntdb

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/c2nes/ircbot/lib"
	"github.com/pkg/errors"
	"github.com/tidwall/buntdb"
)

const (
	// 'version' of the database schema
	keySchemaVersion = "db.version"
	// latest schema of the db
	latestDbSchema = "1"

	// KeyProfile holds the JSON profile of a network.
	KeyProfile = "network.profile %s"
	// KeyChannel holds the JSON info of one stored channel of a network.
	KeyChannel = "network.channel %s %s"
)

type DataStore struct {
	ircbot.DataStoreInterface
	Db      *buntdb.DB
	Manager *ircbot.Manager
}

func (ds *DataStore) Init(manager *ircbot.Manager) error {
	ds.Manager = manager

	db, err := buntdb.Open(manager.Config.Datastore)
	if err != nil {
		return errors.Wrap(err, "Could not open DB")
	}
	ds.Db = db

	return ds.checkSchema()
}

// Setup prepares an empty database. It leaves existing data alone.
func (ds *DataStore) Setup() error {
	return ds.Db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Get(keySchemaVersion)
		if err == buntdb.ErrNotFound {
			_, _, err = tx.Set(keySchemaVersion, latestDbSchema, nil)
		}
		return err
	})
}

func (ds *DataStore) checkSchema() error {
	return ds.Db.View(func(tx *buntdb.Tx) error {
		version, err := tx.Get(keySchemaVersion)
		if err == buntdb.ErrNotFound {
			// not set up yet
			return nil
		}
		if err != nil {
			return err
		}
		if version != latestDbSchema {
			return errors.Errorf("Database schema is version %s, expected %s", version, latestDbSchema)
		}
		return nil
	})
}

func (ds *DataStore) Close() error {
	if ds.Db == nil {
		return nil
	}
	return ds.Db.Close()
}

func (ds *DataStore) GetProfile(network string) (*ircbot.Profile, error) {
	network, err := ircbot.NetworkName(network)
	if err != nil {
		return nil, err
	}

	profile := &ircbot.Profile{}
	err = ds.Db.View(func(tx *buntdb.Tx) error {
		value, err := tx.Get(fmt.Sprintf(KeyProfile, network))
		if err == buntdb.ErrNotFound {
			return ircbot.ErrNotFound
		}
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(value), profile)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "Could not load profile for %s", network)
	}

	profile.Network = network
	return profile, nil
}

func (ds *DataStore) SaveProfile(profile *ircbot.Profile) error {
	network, err := ircbot.NetworkName(profile.Network)
	if err != nil {
		return err
	}

	value, err := json.Marshal(profile)
	if err != nil {
		return err
	}

	return ds.Db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(fmt.Sprintf(KeyProfile, network), string(value), nil)
		return err
	})
}

func (ds *DataStore) GetChannels(network string) ([]ircbot.ChannelInfo, error) {
	network, err := ircbot.NetworkName(network)
	if err != nil {
		return nil, err
	}

	var channels []ircbot.ChannelInfo
	err = ds.Db.View(func(tx *buntdb.Tx) error {
		var loadErr error
		err := tx.AscendKeys(fmt.Sprintf(KeyChannel, network, "*"), func(key, value string) bool {
			var channel ircbot.ChannelInfo
			if loadErr = json.Unmarshal([]byte(value), &channel); loadErr != nil {
				loadErr = errors.Wrapf(loadErr, "Could not load channel %s", key)
				return false
			}
			channels = append(channels, channel)
			return true
		})
		if err != nil {
			return err
		}
		return loadErr
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(channels, func(i, j int) bool {
		return strings.ToLower(channels[i].Name) < strings.ToLower(channels[j].Name)
	})
	return channels, nil
}

func (ds *DataStore) SaveChannel(network string, channel ircbot.ChannelInfo) error {
	network, err := ircbot.NetworkName(network)
	if err != nil {
		return err
	}

	value, err := json.Marshal(channel)
	if err != nil {
		return err
	}

	return ds.Db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(channelKey(network, channel.Name), string(value), nil)
		return err
	})
}

func (ds *DataStore) DelChannel(network string, name string) error {
	network, err := ircbot.NetworkName(network)
	if err != nil {
		return err
	}

	return ds.Db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(channelKey(network, name))
		if err == buntdb.ErrNotFound {
			return ircbot.ErrNotFound
		}
		return err
	})
}

func channelKey(network, name string) string {
	return fmt.Sprintf(KeyChannel, network, strings.ToLower(name))
}
