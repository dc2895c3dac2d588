// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshnode Contributors

package store

import (
	"context"
	"sort"
	"sync"

	"github.com/meshnode/abac/internal/abac/policy"
	"github.com/meshnode/abac/internal/abac/types"
)

// Memory is an in-process Store backed by a nested map (Resource to
// Action to Policy) behind a single RWMutex. It never touches disk:
// restarting the process loses every policy, which is acceptable for
// tests and for a node whose policies are always re-seeded from
// elsewhere on startup.
type Memory struct {
	mu       sync.RWMutex
	policies map[string]map[string]policy.Policy
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{policies: make(map[string]map[string]policy.Policy)}
}

func (m *Memory) Get(_ context.Context, r types.Resource, a types.Action) (*policy.Policy, error) {
	operationsTotal.WithLabelValues("get", "memory").Inc()
	m.mu.RLock()
	defer m.mu.RUnlock()

	byAction, ok := m.policies[r.String()]
	if !ok {
		return nil, nil
	}
	p, ok := byAction[a.String()]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Memory) Set(_ context.Context, r types.Resource, a types.Action, p policy.Policy) error {
	operationsTotal.WithLabelValues("set", "memory").Inc()
	m.mu.Lock()
	defer m.mu.Unlock()

	byAction, ok := m.policies[r.String()]
	if !ok {
		byAction = make(map[string]policy.Policy)
		m.policies[r.String()] = byAction
	}
	byAction[a.String()] = p
	return nil
}

func (m *Memory) Del(_ context.Context, r types.Resource, a types.Action) error {
	operationsTotal.WithLabelValues("del", "memory").Inc()
	m.mu.Lock()
	defer m.mu.Unlock()

	byAction, ok := m.policies[r.String()]
	if !ok {
		return nil
	}
	delete(byAction, a.String())
	if len(byAction) == 0 {
		delete(m.policies, r.String())
	}
	return nil
}

func (m *Memory) Policies(_ context.Context, r types.Resource) (policy.PolicyList, error) {
	operationsTotal.WithLabelValues("policies", "memory").Inc()
	m.mu.RLock()
	defer m.mu.RUnlock()

	byAction, ok := m.policies[r.String()]
	if !ok {
		return policy.NewPolicyList(nil), nil
	}

	entries := make([]policy.Entry, 0, len(byAction))
	for actionStr, p := range byAction {
		a, err := types.NewAction(actionStr)
		if err != nil {
			return policy.PolicyList{}, errStorage("policies", err)
		}
		entries = append(entries, policy.Entry{Action: a, Policy: p})
	}
	// Map iteration order is random; sort for deterministic output, as
	// the Action/Policy ordering in PolicyList is observable to callers
	// (e.g. snapshot hashing, test assertions).
	sort.Slice(entries, func(i, j int) bool { return entries[i].Action.Less(entries[j].Action) })
	return policy.NewPolicyList(entries), nil
}
