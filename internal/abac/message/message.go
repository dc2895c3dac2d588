// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshnode Contributors

// Package message is the smallest stand-in for the transport layer's
// message envelope (out of scope for this module): just enough surface
// for the access gate to pull a peer identity out of local metadata the
// way a secure channel would attach it, without pulling in any
// secure-channel or transport machinery this module does not own.
package message

// peerIdentityKey is the well-known LocalMetadata key a secure channel
// would populate with the verified identity of the message's sender.
const peerIdentityKey = "peer.identity"

// Message is a minimal envelope carrying metadata attached by whatever
// transport delivered it. LocalMetadata is local-only — it never
// travels over the wire itself, distinct from a message's wire payload.
type Message struct {
	LocalMetadata map[string]string
}

// New wraps metadata as a Message. A nil map is treated as empty.
func New(metadata map[string]string) Message {
	return Message{LocalMetadata: metadata}
}

// ExtractPeerIdentity reads the peer identity attached to msg's local
// metadata, reporting false if none is present — a missing identity is
// access denied, not an error.
func ExtractPeerIdentity(msg Message) (string, bool) {
	id, ok := msg.LocalMetadata[peerIdentityKey]
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// WithPeerIdentity returns a copy of msg with its peer identity set,
// used by callers assembling an outbound/test message.
func WithPeerIdentity(msg Message, identity string) Message {
	metadata := make(map[string]string, len(msg.LocalMetadata)+1)
	for k, v := range msg.LocalMetadata {
		metadata[k] = v
	}
	metadata[peerIdentityKey] = identity
	return Message{LocalMetadata: metadata}
}
