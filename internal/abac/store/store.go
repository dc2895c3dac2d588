// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshnode Contributors

// Package store implements the ABAC policy store: an interface with an
// in-memory backend for tests and single-process deployments, and a
// disk-backed backend for a node that must retain its policies across
// restarts without depending on any other service.
package store

import (
	"context"

	"github.com/meshnode/abac/internal/abac/policy"
	"github.com/meshnode/abac/internal/abac/types"
)

// Store is the policy store contract every backend implements. A nil
// *policy.Policy return from Get (with a nil error) means no policy is
// registered for that (Resource, Action) pair.
type Store interface {
	Get(ctx context.Context, r types.Resource, a types.Action) (*policy.Policy, error)
	Set(ctx context.Context, r types.Resource, a types.Action, p policy.Policy) error
	Del(ctx context.Context, r types.Resource, a types.Action) error
	Policies(ctx context.Context, r types.Resource) (policy.PolicyList, error)
}

func key(r types.Resource, a types.Action) string {
	return r.String() + ":" + a.String()
}
