package prefs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bolt keeps preferences in a bbolt file with one bucket per visitor.
type Bolt struct {
	db *bolt.DB
}

// OpenBolt opens or creates the bbolt file at path.
func OpenBolt(path string) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating bolt directory: %w", err)
	}
	bdb, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt db %s: %w", path, err)
	}
	return &Bolt{db: bdb}, nil
}

// Scope returns the KV of one visitor.
func (b *Bolt) Scope(visitorID string) KV {
	return &boltKV{db: b.db, bucket: []byte("visitor:" + visitorID)}
}

// Close closes the bolt file.
func (b *Bolt) Close() error { return b.db.Close() }

type boltKV struct {
	db     *bolt.DB
	bucket []byte
}

func (kv *boltKV) Get(_ context.Context, key string) (string, bool, error) {
	var (
		v  string
		ok bool
	)
	err := kv.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(kv.bucket)
		if b == nil {
			return nil
		}
		if raw := b.Get([]byte(key)); raw != nil {
			v, ok = string(raw), true
		}
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("reading preference %s: %w", key, err)
	}
	return v, ok, nil
}

func (kv *boltKV) Set(_ context.Context, key, value string) error {
	err := kv.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(kv.bucket)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("saving preference %s: %w", key, err)
	}
	return nil
}
