package storage

import (
	"context"
	"fmt"

	bolt "go.etcd.io/bbolt"
)

var (
	snapshotBucket = []byte("snapshots")
	currentKey     = []byte("current")
)

// BoltBackend keeps the snapshot in a local bolt database file.
type BoltBackend struct {
	db *bolt.DB
}

// OpenBolt opens (or creates) the database at path.
func OpenBolt(path string) (*BoltBackend, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("OpenBolt: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(snapshotBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("OpenBolt: create bucket: %w", err)
	}

	return &BoltBackend{db: db}, nil
}

// Close releases the database file.
func (b *BoltBackend) Close() error {
	return b.db.Close()
}

func (b *BoltBackend) Read(_ context.Context) ([]byte, error) {
	var data []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(snapshotBucket).Get(currentKey)
		if v == nil {
			return ErrNoSnapshot
		}
		// v is only valid inside the transaction.
		data = append([]byte(nil), v...)
		return nil
	})
	return data, err
}

func (b *BoltBackend) Write(_ context.Context, data []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(snapshotBucket).Put(currentKey, data)
	})
}
