// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshnode Contributors

package dsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) Value {
	t.Helper()
	v, err := Parse(src)
	require.NoError(t, err)
	require.NotNil(t, v)
	return *v
}

func TestEvalHappyPath(t *testing.T) {
	env := NewEnv().
		Put("subject.role", Str("admin")).
		Put("resource.tag", Seq(Str("a"), Str("b")))

	expr := mustParse(t, `(and (= subject.role "admin") (member? "b" resource.tag))`)
	v, err := Eval(expr, env)
	require.NoError(t, err)
	assert.Equal(t, Bool(true), v)
}

func TestEvalUnboundIdentifier(t *testing.T) {
	env := NewEnv()
	expr := mustParse(t, `(= subject.role "admin")`)
	_, err := Eval(expr, env)
	require.Error(t, err)
	var eerr *EvalError
	require.ErrorAs(t, err, &eerr)
	assert.Equal(t, Unbound, eerr.Kind)
	assert.Equal(t, "subject.role", eerr.Op)
}

func TestEvalTypeMismatch(t *testing.T) {
	env := NewEnv()
	expr := mustParse(t, `(and 1 true)`)
	_, err := Eval(expr, env)
	require.Error(t, err)
	var eerr *EvalError
	require.ErrorAs(t, err, &eerr)
	assert.Equal(t, TypeMismatch, eerr.Kind)
}

func TestEvalShortCircuitOr(t *testing.T) {
	// subject.flag is unbound: if `or` did not short-circuit on the
	// leading `true`, this would fail with Unbound.
	env := NewEnv()
	expr := mustParse(t, `(or true subject.flag)`)
	v, err := Eval(expr, env)
	require.NoError(t, err)
	assert.Equal(t, Bool(true), v)
}

func TestEvalShortCircuitAnd(t *testing.T) {
	env := NewEnv()
	expr := mustParse(t, `(and false subject.flag)`)
	v, err := Eval(expr, env)
	require.NoError(t, err)
	assert.Equal(t, Bool(false), v)
}

func TestEvalArithmetic(t *testing.T) {
	env := NewEnv()

	v, err := Eval(mustParse(t, `(+ 1 2 3)`), env)
	require.NoError(t, err)
	assert.Equal(t, Int(6), v)

	v, err = Eval(mustParse(t, `(+ 1 2.5)`), env)
	require.NoError(t, err)
	assert.Equal(t, Float(3.5), v)

	v, err = Eval(mustParse(t, `(* 2 3 4)`), env)
	require.NoError(t, err)
	assert.Equal(t, Int(24), v)

	_, err = Eval(mustParse(t, `(/ 1 0)`), env)
	require.Error(t, err)
	var eerr *EvalError
	require.ErrorAs(t, err, &eerr)
	assert.Equal(t, DivByZero, eerr.Kind)
}

func TestEvalIntegerOverflow(t *testing.T) {
	env := NewEnv()
	expr := List("+", Int(9223372036854775807), Int(1))
	_, err := Eval(expr, env)
	require.Error(t, err)
	var eerr *EvalError
	require.ErrorAs(t, err, &eerr)
	assert.Equal(t, Overflow, eerr.Kind)
}

func TestEvalComparisons(t *testing.T) {
	env := NewEnv()

	v, err := Eval(mustParse(t, `(< 1 2 3)`), env)
	require.NoError(t, err)
	assert.Equal(t, Bool(true), v)

	v, err = Eval(mustParse(t, `(< 1 3 2)`), env)
	require.NoError(t, err)
	assert.Equal(t, Bool(false), v)

	v, err = Eval(mustParse(t, `(< "a" "b")`), env)
	require.NoError(t, err)
	assert.Equal(t, Bool(true), v)

	_, err = Eval(mustParse(t, `(< 1 "a")`), env)
	require.Error(t, err)
}

func TestEvalIf(t *testing.T) {
	env := NewEnv().Put("subject.name", Str("alice"))

	v, err := Eval(mustParse(t, `(if (exists? subject.name) true false)`), env)
	require.NoError(t, err)
	assert.Equal(t, Bool(true), v)

	v, err = Eval(mustParse(t, `(if (exists? subject.missing) true false)`), env)
	require.NoError(t, err)
	assert.Equal(t, Bool(false), v)
}

func TestEvalMemberAndExists(t *testing.T) {
	env := NewEnv().Put("subject.name", Str("alice"))

	v, err := Eval(mustParse(t, `(member? "b" (list "a" "b" "c"))`), env)
	require.NoError(t, err)
	assert.Equal(t, Bool(true), v)

	v, err = Eval(mustParse(t, `(exists? subject.name)`), env)
	require.NoError(t, err)
	assert.Equal(t, Bool(true), v)

	v, err = Eval(mustParse(t, `(exists? subject.missing)`), env)
	require.NoError(t, err)
	assert.Equal(t, Bool(false), v)
}

func TestEvalDeterminism(t *testing.T) {
	env := NewEnv().
		Put("subject.role", Str("admin")).
		Put("resource.owner", Str("alice")).
		Put("subject.name", Str("alice"))

	expr := mustParse(t, `(or (= subject.role "admin") (= subject.name resource.owner))`)

	first, err := Eval(expr, env)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Eval(expr, env)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestEvalUnknownOperator(t *testing.T) {
	env := NewEnv()
	expr := List("frobnicate", Bool(true))
	_, err := Eval(expr, env)
	require.Error(t, err)
	var eerr *EvalError
	require.ErrorAs(t, err, &eerr)
	assert.Equal(t, UnknownOp, eerr.Kind)
}
