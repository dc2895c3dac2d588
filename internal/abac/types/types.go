// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshnode Contributors

// Package types defines the shared newtypes for the ABAC policy store:
// Resource and Action. Both are non-empty strings that may not contain
// the ':' delimiter reserved for the disk-backed store's key encoding.
package types

import (
	"strings"

	"github.com/samber/oops"
)

// keyDelimiter is reserved for the disk store's "<resource>:<action>" key
// encoding (see the store package's key function) and may not appear in a Resource or Action.
const keyDelimiter = ":"

// Resource is an opaque, often path-shaped name of the object being
// accessed, e.g. "/foo/bar".
type Resource struct {
	value string
}

// Action is an opaque verb describing the attempted operation on a
// resource, e.g. "read", "handle_message".
type Action struct {
	value string
}

// NewResource validates and constructs a Resource.
func NewResource(s string) (Resource, error) {
	if err := validate("resource", s); err != nil {
		return Resource{}, err
	}
	return Resource{value: s}, nil
}

// NewAction validates and constructs an Action.
func NewAction(s string) (Action, error) {
	if err := validate("action", s); err != nil {
		return Action{}, err
	}
	return Action{value: s}, nil
}

func validate(kind, s string) error {
	if s == "" {
		return oops.Code("INVALID_" + strings.ToUpper(kind)).
			Errorf("%s must not be empty", kind)
	}
	if strings.Contains(s, keyDelimiter) {
		return oops.Code("INVALID_" + strings.ToUpper(kind)).
			With(kind, s).
			Errorf("%s must not contain the reserved delimiter %q", kind, keyDelimiter)
	}
	return nil
}

// String returns the underlying name.
func (r Resource) String() string { return r.value }

// String returns the underlying verb.
func (a Action) String() string { return a.value }

// Less reports whether r sorts before other in lexicographic order.
func (r Resource) Less(other Resource) bool { return r.value < other.value }

// Less reports whether a sorts before other in lexicographic order.
func (a Action) Less(other Action) bool { return a.value < other.value }

// Equal reports structural equality.
func (r Resource) Equal(other Resource) bool { return r.value == other.value }

// Equal reports structural equality.
func (a Action) Equal(other Action) bool { return a.value == other.value }
