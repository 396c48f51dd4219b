// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package grant implements ephemeral-identity-gated delivery of
// redacted document views.
//
// A grant binds one recipient to one clearance-bound decryption
// result. Creating a grant mints a fresh X25519 key pair and an
// ephemeral identifier, re-encrypts the already-redacted view under
// a one-time symmetric key, and wraps that key to the recipient via
// an authenticated key agreement between the ephemeral private key
// and the recipient's public key. The ephemeral private key is
// discarded before Create returns: once gone, the wrapped content is
// unrecoverable even if long-term keys are later compromised. This
// is the module's forward-secrecy boundary.
//
// Grants are short lived. Every access must pass a liveness check
// (not expired, not over its view cap, not revoked); the check and
// the view-count increment are atomic with respect to concurrent
// access. There is no renewal: continued access after expiry
// requires a brand-new grant, which re-runs clearance verification
// upstream.
package grant

import (
	"time"

	"github.com/grailbio/clearance/classification"
	"github.com/grailbio/clearance/crypto/seal"
	"github.com/grailbio/clearance/section"
)

// A Recipient identifies the party a grant is minted for. Callers
// convert their credential schema into this type at the boundary;
// nothing in this package inspects credential shapes.
type Recipient struct {
	// LongTermID is the recipient's long-term identifier. It is
	// recorded on the grant for audit, but the ephemeral id is
	// deliberately unlinkable to it.
	LongTermID string
	// PublicKey is the recipient's X25519 public key, supplied and
	// authenticated by the caller.
	PublicKey *[32]byte
}

// An Identity is the stored state of one grant. Only ViewCount and
// the terminal Revoked flag are mutable; everything else is fixed at
// creation. The ephemeral private key is never part of the identity.
type Identity struct {
	// EphemeralID is fresh per grant and unlinkable to the
	// recipient's long-term identity.
	EphemeralID string
	// RecipientID is the recipient's long-term identifier.
	RecipientID string
	// DocumentID identifies the original encrypted package.
	DocumentID string
	// Level is the clearance the grant was issued at.
	Level classification.Level
	// RedactedSectionIDs lists the sections withheld at grant time.
	RedactedSectionIDs []string
	// PublicKey is the ephemeral public half minted for this grant.
	PublicKey [32]byte
	// CreatedAt and ExpiresAt bound the grant's lifetime. Both are
	// UTC, millisecond precision.
	CreatedAt time.Time
	ExpiresAt time.Time
	// MaxViews caps the number of accesses; zero means uncapped.
	MaxViews int
	// ViewCount is incremented on each successful access.
	ViewCount int
	// Revoked is terminal once set.
	Revoked bool
}

// A Reason explains why a grant failed its liveness check.
type Reason int

const (
	// ReasonNone indicates a valid grant.
	ReasonNone Reason = iota
	// Expired indicates the grant's TTL has elapsed.
	Expired
	// Exhausted indicates the view cap has been reached.
	Exhausted
	// Revoked indicates the grant was explicitly revoked.
	Revoked
	// NotFound indicates no grant exists under the given id.
	NotFound
)

// String returns a human-readable label for the reason.
func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "valid"
	case Expired:
		return "expired"
	case Exhausted:
		return "exhausted"
	case Revoked:
		return "revoked"
	case NotFound:
		return "not found"
	default:
		return "unknown"
	}
}

// Validity is the outcome of a liveness check. Expiry, exhaustion,
// and revocation are routine outcomes, so they are returned as data
// rather than errors; callers must branch on Valid.
type Validity struct {
	Valid  bool
	Reason Reason
}

// An Envelope is the wrapped content of one grant: the one-time
// symmetric key sealed to the recipient, plus the sealed view.
type Envelope struct {
	// WrappedKey is the one-time content key, sealed with an
	// authenticated X25519 key agreement between the ephemeral
	// private key and the recipient's public key.
	WrappedKey []byte
	// WrapNonce is the nonce under which WrappedKey was sealed.
	WrapNonce [24]byte
	// PayloadNonce is the nonce under which Payload was sealed.
	PayloadNonce []byte
	// Payload is the redacted view, sealed under the one-time key.
	Payload []byte
}

// An Artifact is the only data that crosses the network boundary to
// the recipient. The ephemeral private key is not part of it; the
// recipient unwraps with their own private key.
type Artifact struct {
	EphemeralID        string
	EphemeralPublicKey [32]byte
	Wrapped            Envelope
	ExpiresAt          time.Time
}

// A View is what the recipient recovers by opening an artifact: the
// sections their clearance permitted, plus the redaction list needed
// to render placeholders.
type View struct {
	DocumentID string               `json:"documentId"`
	Level      classification.Level `json:"clearanceLevel"`
	Sections   []section.Section    `json:"sections"`
	Redacted   []seal.Redaction     `json:"redactedSections"`
}
