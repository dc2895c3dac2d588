// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshnode Contributors

// Package policy implements the ABAC Policy and PolicyList types: a
// parsed boolean expression plus the CBOR wire encoding used to
// persist and transmit it.
package policy

import (
	"fmt"

	"github.com/meshnode/abac/internal/abac/dsl"
)

// CurrentSchemaVersion is written into every encoded Policy. A decoded
// Policy whose wire form predates the field (schema version 0) is
// treated as version 1 for backward compatibility.
const CurrentSchemaVersion uint8 = 1

// Policy wraps a parsed policy expression. The zero value is not valid;
// construct one with New or Parse.
type Policy struct {
	expression    dsl.Value
	schemaVersion uint8
}

// New wraps an already-parsed expression as a Policy at the current
// schema version.
func New(expr dsl.Value) Policy {
	return Policy{expression: expr, schemaVersion: CurrentSchemaVersion}
}

// Parse parses text and wraps the result as a Policy in one step. It
// rejects empty/comment-only input, since a policy with no expression
// cannot be evaluated.
func Parse(text string) (Policy, error) {
	v, err := dsl.Parse(text)
	if err != nil {
		return Policy{}, err
	}
	if v == nil {
		return Policy{}, fmt.Errorf("policy: expression text is empty")
	}
	return New(*v), nil
}

// Expression returns the policy's parsed expression.
func (p Policy) Expression() dsl.Value {
	return p.expression
}

// IsConstant reports whether the policy is a literal boolean, in which
// case its value can be used directly without resolving any attributes
// or building an environment at all.
func (p Policy) IsConstant() (value bool, ok bool) {
	if p.expression.Kind == dsl.KindBool {
		return p.expression.Bool, true
	}
	return false, false
}

// Evaluate runs the policy's expression against env. ok is false when
// evaluation fails (err is then non-nil) or when it succeeded but
// reduced to a non-boolean value (err is then nil) — the caller
// decides how to treat that (the access gate treats it as deny and
// logs it; it is never reported as an evaluation error, since a
// well-typed but non-boolean policy is a valid expression, just an
// unauthorized one by convention).
func (p Policy) Evaluate(env *dsl.Env) (result bool, ok bool, err error) {
	v, err := dsl.Eval(p.expression, env)
	if err != nil {
		return false, false, err
	}
	if v.Kind != dsl.KindBool {
		return false, false, nil
	}
	return v.Bool, true, nil
}

// String renders the policy as S-expression source text.
func (p Policy) String() string {
	return p.expression.String()
}
