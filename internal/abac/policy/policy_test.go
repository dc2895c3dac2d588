// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshnode Contributors

package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshnode/abac/internal/abac/dsl"
	"github.com/meshnode/abac/internal/abac/types"
)

func TestPolicyIsConstant(t *testing.T) {
	p, err := Parse("true")
	require.NoError(t, err)
	v, ok := p.IsConstant()
	require.True(t, ok)
	assert.True(t, v)

	p, err = Parse(`(= subject.role "admin")`)
	require.NoError(t, err)
	_, ok = p.IsConstant()
	assert.False(t, ok)
}

func TestPolicyEvaluate(t *testing.T) {
	p, err := Parse(`(= subject.role "admin")`)
	require.NoError(t, err)

	env := dsl.NewEnv().Put("subject.role", dsl.Str("admin"))
	result, ok, err := p.Evaluate(env)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, result)
}

func TestPolicyEvaluateNonBoolean(t *testing.T) {
	p, err := Parse(`(+ 1 2)`)
	require.NoError(t, err)

	result, ok, err := p.Evaluate(dsl.NewEnv())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, result)
}

func TestPolicyEvaluateError(t *testing.T) {
	p, err := Parse(`subject.role`)
	require.NoError(t, err)

	_, _, err = p.Evaluate(dsl.NewEnv())
	require.Error(t, err)
}

func TestPolicyRoundTripCBOR(t *testing.T) {
	p, err := Parse(`(and (= subject.role "admin") (member? resource.tag (list "a" "b")))`)
	require.NoError(t, err)

	data, err := p.MarshalBinary()
	require.NoError(t, err)

	var decoded Policy
	require.NoError(t, decoded.UnmarshalBinary(data))

	assert.Equal(t, p.String(), decoded.String())
	assert.Equal(t, CurrentSchemaVersion, decoded.schemaVersion)
}

func TestPolicyListRoundTripCBOR(t *testing.T) {
	read, err := types.NewAction("read")
	require.NoError(t, err)
	write, err := types.NewAction("write")
	require.NoError(t, err)

	readPolicy, err := Parse("true")
	require.NoError(t, err)
	writePolicy, err := Parse(`(= subject.role "admin")`)
	require.NoError(t, err)

	list := NewPolicyList([]Entry{
		{Action: read, Policy: readPolicy},
		{Action: write, Policy: writePolicy},
	})

	data, err := list.MarshalBinary()
	require.NoError(t, err)

	var decoded PolicyList
	require.NoError(t, decoded.UnmarshalBinary(data))

	require.Len(t, decoded.Entries(), 2)
	assert.Equal(t, "read", decoded.Entries()[0].Action.String())
	assert.Equal(t, readPolicy.String(), decoded.Entries()[0].Policy.String())
	assert.Equal(t, "write", decoded.Entries()[1].Action.String())
	assert.Equal(t, writePolicy.String(), decoded.Entries()[1].Policy.String())
}

func TestPolicyDeterministicEncoding(t *testing.T) {
	p, err := Parse(`(and true false (list 1 2 3))`)
	require.NoError(t, err)

	a, err := p.MarshalBinary()
	require.NoError(t, err)
	b, err := p.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
