package storage

import (
	"context"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	settingsBucket = []byte("settings")
	settingsKey    = []byte("device")
)

const boltOpenTimeout = 5 * time.Second

// BoltStore keeps settings under one key of a bbolt bucket.
type BoltStore struct {
	db *bolt.DB
}

// OpenBolt opens or creates the bbolt file at path.
func OpenBolt(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, filePermissions, &bolt.Options{Timeout: boltOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("opening bolt database %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(settingsBucket)
		return err
	})
	if err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("creating settings bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// Load reads the settings key.
func (s *BoltStore) Load(_ context.Context) ([]byte, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(settingsBucket).Get(settingsKey)
		if v == nil {
			return ErrNotFound
		}
		// v is only valid inside the transaction.
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Save writes the settings key.
func (s *BoltStore) Save(_ context.Context, data []byte) error {
	if data == nil {
		data = []byte{}
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(settingsBucket).Put(settingsKey, data)
	})
	if err != nil {
		return fmt.Errorf("writing settings key: %w", err)
	}
	return nil
}

// Remove deletes the settings key.
func (s *BoltStore) Remove(_ context.Context) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(settingsBucket).Delete(settingsKey)
	})
	if err != nil {
		return fmt.Errorf("deleting settings key: %w", err)
	}
	return nil
}

// Close closes the bbolt file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
