// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshnode Contributors

package attribute

import (
	"bytes"
	"context"

	"go.etcd.io/bbolt"

	"github.com/samber/oops"
)

var attributeBucket = []byte("attributes")

// Bolt is the default Store: an embedded bbolt database, the same
// storage family as the policy store, so a node can run with zero
// external dependencies when nothing calls for a shared attribute
// database across nodes.
type Bolt struct {
	db *bbolt.DB
}

var _ Store = (*Bolt)(nil)

// OpenBolt opens (creating if necessary) the bbolt file at path and
// ensures the attribute bucket exists.
func OpenBolt(path string) (*Bolt, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, oops.Code("STORAGE_ERROR").With("op", "open").Wrap(err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(attributeBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, oops.Code("STORAGE_ERROR").With("op", "init bucket").Wrap(err)
	}
	return &Bolt{db: db}, nil
}

// Close releases the underlying file and its mmap.
func (b *Bolt) Close() error {
	return b.db.Close()
}

func attrPrefix(identity string) []byte {
	return []byte(identity + ":")
}

func (b *Bolt) Get(ctx context.Context, identity string) (map[string][]byte, error) {
	done := make(chan error, 1)
	var attrs map[string][]byte
	go func() {
		done <- b.db.View(func(tx *bbolt.Tx) error {
			bucket := tx.Bucket(attributeBucket)
			prefix := attrPrefix(identity)
			c := bucket.Cursor()
			for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
				if attrs == nil {
					attrs = make(map[string][]byte)
				}
				name := string(k[len(prefix):])
				attrs[name] = append([]byte(nil), v...)
			}
			return nil
		})
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case err := <-done:
		if err != nil {
			return nil, oops.Code("STORAGE_ERROR").With("op", "get").With("identity", identity).Wrap(err)
		}
		return attrs, nil
	}
}

func (b *Bolt) Set(ctx context.Context, identity string, attrs map[string][]byte) error {
	done := make(chan error, 1)
	go func() {
		done <- b.db.Update(func(tx *bbolt.Tx) error {
			bucket := tx.Bucket(attributeBucket)
			prefix := attrPrefix(identity)

			c := bucket.Cursor()
			var stale [][]byte
			for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
				stale = append(stale, append([]byte(nil), k...))
			}
			for _, k := range stale {
				if err := bucket.Delete(k); err != nil {
					return err
				}
			}

			for name, value := range attrs {
				if err := bucket.Put([]byte(identity+":"+name), value); err != nil {
					return err
				}
			}
			return nil
		})
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return oops.Code("STORAGE_ERROR").With("op", "set").With("identity", identity).Wrap(err)
		}
		return nil
	}
}
