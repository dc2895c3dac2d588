// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshnode Contributors

// Package attribute implements the identity attribute store collaborator
// the access gate consults before evaluating a policy. Identity
// attributes may live in per-node embedded storage or in a shared
// sibling database, so this package offers both an embedded default and
// a PostgreSQL-backed alternative behind the same interface.
package attribute

import "context"

// Store resolves the attribute bag registered for an identity. A nil
// map with a nil error means the identity has no attributes on record,
// which is not itself an error; the access gate denies such an identity
// for any non-constant policy.
type Store interface {
	Get(ctx context.Context, identity string) (map[string][]byte, error)
	Set(ctx context.Context, identity string, attrs map[string][]byte) error
}
