// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshnode Contributors

// Package dsl implements the ABAC policy expression language: the
// Value/AST model, the S-expression parser, the evaluation
// environment, and the tree-walking evaluator.
//
// A single tagged-variant type, Value, is used both as an AST node (as
// produced by the parser) and as a runtime value (as produced by the
// evaluator): the two never diverge in shape, only in which variants are
// still legal to see (Ident and List never survive evaluation).
package dsl

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind discriminates the variant a Value holds.
type Kind int

const (
	KindStr Kind = iota
	KindInt
	KindFloat
	KindBool
	KindIdent
	KindSeq
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindStr:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindIdent:
		return "identifier"
	case KindSeq:
		return "sequence"
	case KindList:
		return "list"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is the tagged-variant AST node / runtime value used throughout
// this package. Exactly one of the scalar fields is meaningful for a
// given Kind; Items holds either a Seq's elements or a List's
// arguments.
type Value struct {
	Kind  Kind
	Str   string
	Int   int64
	Float float64
	Bool  bool
	Ident string  // dotted identifier path, e.g. "subject.name"
	Items []Value // Seq elements, or List arguments
	Head  string  // List operator identifier; empty for non-List kinds
}

// --- Constructors ---

func Str(s string) Value   { return Value{Kind: KindStr, Str: s} }
func Int(i int64) Value    { return Value{Kind: KindInt, Int: i} }
func Float(f float64) Value { return Value{Kind: KindFloat, Float: f} }
func Bool(b bool) Value    { return Value{Kind: KindBool, Bool: b} }
func Ident(name string) Value { return Value{Kind: KindIdent, Ident: name} }

func Seq(items ...Value) Value {
	return Value{Kind: KindSeq, Items: append([]Value(nil), items...)}
}

func List(head string, args ...Value) Value {
	return Value{Kind: KindList, Head: head, Items: append([]Value(nil), args...)}
}

// --- Predicates ---

func (v Value) IsScalar() bool {
	switch v.Kind {
	case KindStr, KindInt, KindFloat, KindBool:
		return true
	default:
		return false
	}
}

// --- Equality ---

// Equal reports structural equality. Numeric cross-type comparison
// (Int vs Float) follows ordinary numeric value semantics.
func (v Value) Equal(other Value) bool {
	if v.Kind == KindInt && other.Kind == KindFloat {
		return float64(v.Int) == other.Float
	}
	if v.Kind == KindFloat && other.Kind == KindInt {
		return v.Float == float64(other.Int)
	}
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindStr:
		return v.Str == other.Str
	case KindInt:
		return v.Int == other.Int
	case KindFloat:
		return v.Float == other.Float
	case KindBool:
		return v.Bool == other.Bool
	case KindIdent:
		return v.Ident == other.Ident
	case KindSeq:
		if len(v.Items) != len(other.Items) {
			return false
		}
		for i := range v.Items {
			if !v.Items[i].Equal(other.Items[i]) {
				return false
			}
		}
		return true
	case KindList:
		if v.Head != other.Head || len(v.Items) != len(other.Items) {
			return false
		}
		for i := range v.Items {
			if !v.Items[i].Equal(other.Items[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// --- Display (S-expression printer) ---

// String renders v as the S-expression source text that would parse
// back to an equal value.
func (v Value) String() string {
	var b strings.Builder
	v.write(&b)
	return b.String()
}

func (v Value) write(b *strings.Builder) {
	switch v.Kind {
	case KindStr:
		b.WriteByte('"')
		writeEscaped(b, v.Str)
		b.WriteByte('"')
	case KindInt:
		b.WriteString(strconv.FormatInt(v.Int, 10))
	case KindFloat:
		// Plain decimal notation with a '.', since the lexer accepts
		// neither exponents nor an integer-looking float.
		s := strconv.FormatFloat(v.Float, 'f', -1, 64)
		if !strings.Contains(s, ".") && !math.IsInf(v.Float, 0) && !math.IsNaN(v.Float) {
			s += ".0"
		}
		b.WriteString(s)
	case KindBool:
		if v.Bool {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case KindIdent:
		b.WriteString(v.Ident)
	case KindSeq:
		b.WriteString("(list")
		for _, item := range v.Items {
			b.WriteByte(' ')
			item.write(b)
		}
		b.WriteByte(')')
	case KindList:
		b.WriteByte('(')
		b.WriteString(v.Head)
		for _, item := range v.Items {
			b.WriteByte(' ')
			item.write(b)
		}
		b.WriteByte(')')
	}
}

func writeEscaped(b *strings.Builder, s string) {
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteRune(r)
		}
	}
}

// Clone returns a deep copy of v. Scalars copy themselves cheaply;
// Seq/List copy their Items recursively, which is O(n) in the number of
// elements.
func (v Value) Clone() Value {
	if len(v.Items) == 0 {
		return v
	}
	items := make([]Value, len(v.Items))
	for i, item := range v.Items {
		items[i] = item.Clone()
	}
	clone := v
	clone.Items = items
	return clone
}
