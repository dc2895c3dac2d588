// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshnode Contributors

package store

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"go.etcd.io/bbolt"
	"golang.org/x/sync/errgroup"

	"github.com/meshnode/abac/internal/abac/policy"
	"github.com/meshnode/abac/internal/abac/types"
)

var policyBucket = []byte("policies")

// Bolt is a disk-backed Store using an embedded, single-writer, mmap'd
// B+tree (go.etcd.io/bbolt): no server process, no replication, single
// node owns the file.
type Bolt struct {
	db *bbolt.DB
}

var _ Store = (*Bolt)(nil)

// OpenBolt opens (creating if necessary) the bbolt file at path and
// ensures the policy bucket exists.
func OpenBolt(path string) (*Bolt, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, errStorage("open", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(policyBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errStorage("init bucket", err)
	}
	return &Bolt{db: db}, nil
}

// Close releases the underlying file and its mmap.
func (b *Bolt) Close() error {
	return b.db.Close()
}

// runBlocking executes fn on its own goroutine and waits for either its
// completion or ctx's cancellation, keeping a synchronous disk call
// from starving a caller that wants to give up early. A cancelled
// caller returns before fn finishes; fn still runs to completion
// against the shared *bbolt.DB, it is just no longer awaited.
func runBlocking(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

func (b *Bolt) Get(ctx context.Context, r types.Resource, a types.Action) (*policy.Policy, error) {
	operationsTotal.WithLabelValues("get", "bbolt").Inc()
	var result *policy.Policy
	err := runBlocking(ctx, func() error {
		return b.db.View(func(tx *bbolt.Tx) error {
			bucket := tx.Bucket(policyBucket)
			v := bucket.Get([]byte(key(r, a)))
			if v == nil {
				return nil
			}
			var p policy.Policy
			if err := p.UnmarshalBinary(v); err != nil {
				return fmt.Errorf("store: decoding policy for %s: %w", key(r, a), err)
			}
			result = &p
			return nil
		})
	})
	if err != nil {
		return nil, errStorage("get", err)
	}
	return result, nil
}

func (b *Bolt) Set(ctx context.Context, r types.Resource, a types.Action, p policy.Policy) error {
	operationsTotal.WithLabelValues("set", "bbolt").Inc()
	data, err := p.MarshalBinary()
	if err != nil {
		return errStorage("set", err)
	}
	err = runBlocking(ctx, func() error {
		return b.db.Update(func(tx *bbolt.Tx) error {
			bucket := tx.Bucket(policyBucket)
			return bucket.Put([]byte(key(r, a)), data)
		})
	})
	if err != nil {
		return errStorage("set", err)
	}
	return nil
}

func (b *Bolt) Del(ctx context.Context, r types.Resource, a types.Action) error {
	operationsTotal.WithLabelValues("del", "bbolt").Inc()
	err := runBlocking(ctx, func() error {
		return b.db.Update(func(tx *bbolt.Tx) error {
			bucket := tx.Bucket(policyBucket)
			return bucket.Delete([]byte(key(r, a)))
		})
	})
	if err != nil {
		return errStorage("del", err)
	}
	return nil
}

// rawEntry is a key/value pair pulled off the cursor before decoding, so
// decoding can happen in parallel once the (necessarily sequential)
// cursor walk is done.
type rawEntry struct {
	action string
	data   []byte
}

// Policies scans every key prefixed "<resource>:" and decodes each
// policy. The prefix is seeked with its delimiter included so a
// resource like "/foo" never picks up entries belonging to a
// differently-named resource such as "/foo-2" that merely shares a
// textual prefix (types.Resource forbids ':' in a resource name, so the
// delimiter is unambiguous once included in the seek key).
func (b *Bolt) Policies(ctx context.Context, r types.Resource) (policy.PolicyList, error) {
	operationsTotal.WithLabelValues("policies", "bbolt").Inc()
	prefix := []byte(r.String() + ":")

	var raw []rawEntry
	err := runBlocking(ctx, func() error {
		return b.db.View(func(tx *bbolt.Tx) error {
			bucket := tx.Bucket(policyBucket)
			c := bucket.Cursor()
			for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
				actionStr := string(k[len(prefix):])
				raw = append(raw, rawEntry{action: actionStr, data: append([]byte(nil), v...)})
			}
			return nil
		})
	})
	if err != nil {
		return policy.PolicyList{}, errStorage("policies", err)
	}

	entries := make([]policy.Entry, len(raw))
	g, _ := errgroup.WithContext(ctx)
	for i, re := range raw {
		i, re := i, re
		g.Go(func() error {
			a, err := types.NewAction(re.action)
			if err != nil {
				slog.Warn("store: malformed action in policy key, skipping", "resource", r.String(), "action", re.action, "error", err)
				return nil
			}
			var p policy.Policy
			if err := p.UnmarshalBinary(re.data); err != nil {
				slog.Warn("store: malformed policy value, skipping", "resource", r.String(), "action", re.action, "error", err)
				return nil
			}
			entries[i] = policy.Entry{Action: a, Policy: p}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return policy.PolicyList{}, errStorage("policies", err)
	}

	compact := make([]policy.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Action.String() != "" {
			compact = append(compact, e)
		}
	}
	return policy.NewPolicyList(compact), nil
}
