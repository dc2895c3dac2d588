// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshnode Contributors

package dsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmptyInput(t *testing.T) {
	for _, src := range []string{"", "   ", "\n\t", "; just a comment"} {
		v, err := Parse(src)
		require.NoError(t, err)
		assert.Nil(t, v)
	}
}

func TestParseScalars(t *testing.T) {
	cases := []struct {
		src  string
		want Value
	}{
		{`"hello"`, Str("hello")},
		{`"escaped \"quote\""`, Str(`escaped "quote"`)},
		{"42", Int(42)},
		{"-7", Int(-7)},
		{"3.14", Float(3.14)},
		{"true", Bool(true)},
		{"false", Bool(false)},
		{"subject.name", Ident("subject.name")},
	}
	for _, c := range cases {
		v, err := Parse(c.src)
		require.NoError(t, err, c.src)
		require.NotNil(t, v)
		assert.True(t, c.want.Equal(*v), "parsing %q: got %s", c.src, v.String())
	}
}

func TestParseListAndSeq(t *testing.T) {
	v, err := Parse(`(and true false)`)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, KindList, v.Kind)
	assert.Equal(t, "and", v.Head)
	assert.Len(t, v.Items, 2)

	v, err = Parse(`(list 1 2 3)`)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, KindSeq, v.Kind)
	assert.Len(t, v.Items, 3)
}

func TestParseRoundTrip(t *testing.T) {
	srcs := []string{
		`(and (= subject.role "admin") (member? resource.tag (list "a" "b")))`,
		`(if (exists? subject.name) true false)`,
		`42`,
		`"a string"`,
	}
	for _, src := range srcs {
		v, err := Parse(src)
		require.NoError(t, err)
		require.NotNil(t, v)

		v2, err := Parse(v.String())
		require.NoError(t, err, "re-parsing %q", v.String())
		require.NotNil(t, v2)
		assert.True(t, v.Equal(*v2), "round trip mismatch: %s vs %s", v.String(), v2.String())
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		src      string
		wantKind ParseErrorKind
	}{
		{"(and true", Unbalanced},
		{")", Unbalanced},
		{"(and true))", Unbalanced},
		{"()", EmptyList},
		{`"unterminated`, UnterminatedString},
		{`"bad \q escape"`, InvalidEscape},
		{"1.2.3", InvalidNumber},
		{"(1 2 3)", UnexpectedChar},
		{"@#$", UnexpectedChar},
	}
	for _, c := range cases {
		_, err := Parse(c.src)
		require.Error(t, err, c.src)
		var perr *ParseError
		require.ErrorAs(t, err, &perr, c.src)
		assert.Equal(t, c.wantKind, perr.Kind, "source %q", c.src)
	}
}

func TestParseComments(t *testing.T) {
	v, err := Parse("(and true false) ; trailing comment is pure trivia")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, KindList, v.Kind)

	v, err = Parse("; leading comment\n(and true false)")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, KindList, v.Kind)

	_, err = Parse("(and true false) (or true false)")
	require.Error(t, err) // a second expression after the first is trailing input, not trivia
}
