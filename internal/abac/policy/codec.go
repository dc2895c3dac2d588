// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshnode Contributors

package policy

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/meshnode/abac/internal/abac/dsl"
	"github.com/meshnode/abac/internal/abac/types"
)

// encMode is shared across all Marshal calls so every encoding in the
// process uses the same deterministic, canonical CBOR options, so a given
// Policy always encodes to the same bytes.
var encMode = func() cbor.EncMode {
	m, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("policy: building canonical CBOR encoder: %v", err))
	}
	return m
}()

// wireValue is the CBOR map representation of a dsl.Value. Integer map
// keys keep the wire form compact and stable across Go versions.
type wireValue struct {
	Kind  uint8       `cbor:"0,keyasint"`
	Str   string      `cbor:"1,keyasint,omitempty"`
	Int   int64       `cbor:"2,keyasint,omitempty"`
	Float float64     `cbor:"3,keyasint,omitempty"`
	Bool  bool        `cbor:"4,keyasint,omitempty"`
	Ident string      `cbor:"5,keyasint,omitempty"`
	Items []wireValue `cbor:"6,keyasint,omitempty"`
	Head  string      `cbor:"7,keyasint,omitempty"`
}

func toWire(v dsl.Value) wireValue {
	w := wireValue{Kind: uint8(v.Kind)}
	switch v.Kind {
	case dsl.KindStr:
		w.Str = v.Str
	case dsl.KindInt:
		w.Int = v.Int
	case dsl.KindFloat:
		w.Float = v.Float
	case dsl.KindBool:
		w.Bool = v.Bool
	case dsl.KindIdent:
		w.Ident = v.Ident
	case dsl.KindSeq:
		w.Items = toWireSlice(v.Items)
	case dsl.KindList:
		w.Head = v.Head
		w.Items = toWireSlice(v.Items)
	}
	return w
}

func toWireSlice(items []dsl.Value) []wireValue {
	if len(items) == 0 {
		return nil
	}
	out := make([]wireValue, len(items))
	for i, item := range items {
		out[i] = toWire(item)
	}
	return out
}

func fromWire(w wireValue) (dsl.Value, error) {
	kind := dsl.Kind(w.Kind)
	switch kind {
	case dsl.KindStr:
		return dsl.Str(w.Str), nil
	case dsl.KindInt:
		return dsl.Int(w.Int), nil
	case dsl.KindFloat:
		return dsl.Float(w.Float), nil
	case dsl.KindBool:
		return dsl.Bool(w.Bool), nil
	case dsl.KindIdent:
		return dsl.Ident(w.Ident), nil
	case dsl.KindSeq:
		items, err := fromWireSlice(w.Items)
		if err != nil {
			return dsl.Value{}, err
		}
		return dsl.Seq(items...), nil
	case dsl.KindList:
		items, err := fromWireSlice(w.Items)
		if err != nil {
			return dsl.Value{}, err
		}
		if w.Head == "" {
			return dsl.Value{}, fmt.Errorf("policy: decoded list value has empty head")
		}
		return dsl.List(w.Head, items...), nil
	default:
		return dsl.Value{}, fmt.Errorf("policy: unknown wire value kind %d", w.Kind)
	}
}

func fromWireSlice(items []wireValue) ([]dsl.Value, error) {
	if len(items) == 0 {
		return nil, nil
	}
	out := make([]dsl.Value, len(items))
	for i, item := range items {
		v, err := fromWire(item)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// wirePolicy is the CBOR map form of a Policy: field 1 is the
// expression, field 2 is a schema version added so a future breaking
// change to the expression encoding can be detected before it is
// misread.
type wirePolicy struct {
	Expression    wireValue `cbor:"1,keyasint"`
	SchemaVersion uint8     `cbor:"2,keyasint,omitempty"`
}

// MarshalBinary encodes p as canonical CBOR.
func (p Policy) MarshalBinary() ([]byte, error) {
	w := wirePolicy{Expression: toWire(p.expression), SchemaVersion: p.schemaVersion}
	return encMode.Marshal(w)
}

// UnmarshalBinary decodes p from CBOR produced by MarshalBinary. A
// missing schema version field (schema version 0 on the wire) is
// treated as version 1, the version in force before the field existed.
func (p *Policy) UnmarshalBinary(data []byte) error {
	var w wirePolicy
	if err := cbor.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("policy: decoding CBOR: %w", err)
	}
	expr, err := fromWire(w.Expression)
	if err != nil {
		return err
	}
	version := w.SchemaVersion
	if version == 0 {
		version = 1
	}
	p.expression = expr
	p.schemaVersion = version
	return nil
}

// actionPolicyPair is a single (Action, Policy) entry in a PolicyList's
// wire form.
type actionPolicyPair struct {
	Action string     `cbor:"0,keyasint"`
	Policy wirePolicy `cbor:"1,keyasint"`
}

// PolicyList is an ordered collection of (Action, Policy) pairs, used to
// transmit or snapshot every policy registered for a single resource in
// one message.
type PolicyList struct {
	entries []Entry
}

// Entry pairs an action with the policy governing it.
type Entry struct {
	Action types.Action
	Policy Policy
}

// NewPolicyList wraps entries as a PolicyList, preserving order.
func NewPolicyList(entries []Entry) PolicyList {
	return PolicyList{entries: append([]Entry(nil), entries...)}
}

// Entries returns the list's (Action, Policy) pairs in order.
func (pl PolicyList) Entries() []Entry {
	return pl.entries
}

type wirePolicyList struct {
	Policies []actionPolicyPair `cbor:"1,keyasint"`
}

// MarshalBinary encodes pl as canonical CBOR.
func (pl PolicyList) MarshalBinary() ([]byte, error) {
	pairs := make([]actionPolicyPair, len(pl.entries))
	for i, e := range pl.entries {
		pairs[i] = actionPolicyPair{
			Action: e.Action.String(),
			Policy: wirePolicy{Expression: toWire(e.Policy.expression), SchemaVersion: e.Policy.schemaVersion},
		}
	}
	return encMode.Marshal(wirePolicyList{Policies: pairs})
}

// UnmarshalBinary decodes pl from CBOR produced by MarshalBinary.
func (pl *PolicyList) UnmarshalBinary(data []byte) error {
	var w wirePolicyList
	if err := cbor.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("policy: decoding CBOR policy list: %w", err)
	}
	entries := make([]Entry, len(w.Policies))
	for i, pair := range w.Policies {
		action, err := types.NewAction(pair.Action)
		if err != nil {
			return fmt.Errorf("policy: decoding policy list entry %d: %w", i, err)
		}
		expr, err := fromWire(pair.Policy.Expression)
		if err != nil {
			return fmt.Errorf("policy: decoding policy list entry %d: %w", i, err)
		}
		version := pair.Policy.SchemaVersion
		if version == 0 {
			version = 1
		}
		entries[i] = Entry{Action: action, Policy: Policy{expression: expr, schemaVersion: version}}
	}
	pl.entries = entries
	return nil
}
