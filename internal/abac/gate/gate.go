// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshnode Contributors

// Package gate implements the ABAC Access Gate: the per-(resource,
// action) authorization point that resolves a policy, augments the
// caller-provided environment with the requester's identity
// attributes, and asks the evaluator to reduce it to a verdict. Every
// branch fails closed.
package gate

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/meshnode/abac/internal/abac/attribute"
	"github.com/meshnode/abac/internal/abac/dsl"
	"github.com/meshnode/abac/internal/abac/message"
	"github.com/meshnode/abac/internal/abac/store"
	"github.com/meshnode/abac/internal/abac/types"
)

// Gate authorizes messages against the policy registered for one
// (resource, action) pair: one instance is built per protected
// operation and reused across many Authorize calls.
type Gate struct {
	resource   types.Resource
	action     types.Action
	policies   store.Store
	attributes attribute.Store
	baseEnv    *dsl.Env
	overwrite  bool
}

// Option configures a Gate at construction time.
type Option func(*Gate)

// WithOverwrite lets identity attributes replace an existing binding in
// the base environment, rather than the default write-once behavior
// that lets the caller seed authoritative values attributes cannot
// spoof.
func WithOverwrite(overwrite bool) Option {
	return func(g *Gate) { g.overwrite = overwrite }
}

// New constructs a Gate for one (resource, action) pair. baseEnv may be
// nil, in which case an empty Env is used.
func New(policies store.Store, attributes attribute.Store, r types.Resource, a types.Action, baseEnv *dsl.Env, opts ...Option) *Gate {
	if baseEnv == nil {
		baseEnv = dsl.NewEnv()
	}
	g := &Gate{
		resource:   r,
		action:     a,
		policies:   policies,
		attributes: attributes,
		baseEnv:    baseEnv,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Authorize runs the full authorization algorithm against msg and
// returns the verdict. It never returns an error: every failure mode
// (missing policy, missing identity, missing attributes, evaluation
// error, non-boolean result) is logged and reduces to deny.
func (g *Gate) Authorize(ctx context.Context, msg message.Message) bool {
	start := time.Now()
	logAttrs := []any{"resource", g.resource.String(), "action", g.action.String()}

	// Step 1: load the policy for (resource, action).
	p, err := g.policies.Get(ctx, g.resource, g.action)
	if err != nil {
		slog.WarnContext(ctx, "gate: policy store error, denying", append(logAttrs, "error", err)...)
		recordDecision(start, "deny")
		return false
	}
	if p == nil {
		slog.DebugContext(ctx, "gate: no policy found, denying", logAttrs...)
		recordDecision(start, "deny")
		return false
	}

	// Step 2: constant policies bypass environment assembly entirely.
	if b, ok := p.IsConstant(); ok {
		recordDecision(start, verdictLabel(b))
		return b
	}

	// Step 3: extract the peer identity from the message.
	identity, ok := message.ExtractPeerIdentity(msg)
	if !ok {
		slog.DebugContext(ctx, "gate: no peer identity in message, denying", logAttrs...)
		recordDecision(start, "deny")
		return false
	}
	logAttrs = append(logAttrs, "identity", identity)

	// Step 4: query the attribute store for that identity.
	attrs, err := g.attributes.Get(ctx, identity)
	if err != nil {
		slog.WarnContext(ctx, "gate: attribute store error, denying", append(logAttrs, "error", err)...)
		recordDecision(start, "deny")
		return false
	}
	if attrs == nil {
		slog.DebugContext(ctx, "gate: no attributes on record, denying", logAttrs...)
		recordDecision(start, "deny")
		return false
	}

	// Step 5: overlay subject.* attributes onto a clone of the base
	// environment, never mutating it.
	env := g.baseEnv.CloneOverlay()
	for k, v := range attrs {
		if strings.ContainsFunc(k, func(r rune) bool { return r == ' ' || r == '\t' || r == '\n' || r == '\r' }) {
			slog.WarnContext(ctx, "gate: attribute key contains whitespace, skipping", append(logAttrs, "key", k)...)
			continue
		}
		s, ok := decodeUTF8(v)
		if !ok {
			slog.WarnContext(ctx, "gate: attribute value is not valid UTF-8, skipping", append(logAttrs, "key", k)...)
			continue
		}
		key := "subject." + k
		if !g.overwrite && env.Contains(key) {
			slog.DebugContext(ctx, "gate: attribute already present, skipping", append(logAttrs, "key", k)...)
			continue
		}
		env.Put(key, dsl.Str(s))
	}

	// Step 6: evaluate and map the result.
	result, ok, err := p.Evaluate(env)
	if err != nil {
		kind := ""
		var evalErr *dsl.EvalError
		if errors.As(err, &evalErr) {
			kind = evalErr.Kind.String()
		}
		slog.WarnContext(ctx, "gate: policy evaluation failed, denying", append(logAttrs, "reason", "eval_error", "error", err, "kind", kind)...)
		recordDecision(start, "deny")
		return false
	}
	if !ok {
		slog.WarnContext(ctx, "gate: evaluation did not yield a boolean result, denying", append(logAttrs, "reason", "non_boolean", "expr", p.String())...)
		recordDecision(start, "deny")
		return false
	}

	slog.DebugContext(ctx, "gate: policy evaluated", append(logAttrs, "is_authorized", result)...)
	recordDecision(start, verdictLabel(result))
	return result
}

func verdictLabel(b bool) string {
	if b {
		return "allow"
	}
	return "deny"
}

// decodeUTF8 reports whether v is valid UTF-8 and returns it as a
// string if so.
func decodeUTF8(v []byte) (string, bool) {
	if !utf8.Valid(v) {
		return "", false
	}
	return string(v), true
}
