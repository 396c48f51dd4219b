// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package grant

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/grailbio/clearance/crypto/seal"
	"github.com/grailbio/clearance/errors"
	"github.com/grailbio/clearance/log"
	"github.com/grailbio/clearance/ttlcache"
)

// terminalCacheTTL bounds how long terminal grant states are served
// from cache. Terminal states are permanent; the TTL only bounds
// memory, and a miss falls through to the store.
const terminalCacheTTL = time.Hour

// A Registry creates grants and enforces their liveness. The
// registry serializes the check-and-increment sequence on every
// access, so a view cap is enforced exactly even under concurrent
// requests for the same grant.
type Registry struct {
	store Store
	clock Clock

	mu sync.Mutex
	// terminal caches ephemeral id -> Reason for grants that have
	// reached a terminal state. Terminal states never revert, so a
	// cached entry can never produce a stale allow.
	terminal *ttlcache.Cache
}

// NewRegistry returns a registry over the given store. A nil clock
// defaults to SystemClock.
func NewRegistry(store Store, clock Clock) *Registry {
	if clock == nil {
		clock = SystemClock
	}
	return &Registry{
		store: store,
		clock: clock,
		// The cache evaluates deadlines against the registry's clock,
		// so cached terminal states survive under an injected clock.
		terminal: ttlcache.NewWithNow(terminalCacheTTL, clock.Now),
	}
}

// Params carries the inputs to Create.
type Params struct {
	Recipient  Recipient
	DocumentID string
	// Result is the clearance-bound decryption result to deliver:
	// only the sections the recipient's verified clearance permits.
	Result *seal.Result
	// TTL bounds the grant's lifetime; it must be positive.
	TTL time.Duration
	// MaxViews caps accesses; zero means uncapped.
	MaxViews int
}

// Create mints a grant: a fresh ephemeral identity and key pair
// bound to the recipient, the document, and the already-redacted
// view, with expiry now+TTL. The returned artifact is the only data
// that should cross the network to the recipient.
//
// Create is abortable through ctx up to the point the grant is
// persisted; once persisted the operation is committed, since the
// recipient-facing artifact may already be the only way to reach the
// content. Key-pair generation failure is fatal to the grant and
// leaves nothing persisted.
func (r *Registry) Create(ctx context.Context, p Params) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.E(errors.Canceled, "create grant", err)
	}
	if p.Recipient.PublicKey == nil {
		return nil, errors.E(errors.Invalid, "recipient public key is required")
	}
	if p.Result == nil {
		return nil, errors.E(errors.Invalid, "decryption result is required")
	}
	if p.TTL <= 0 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("invalid ttl %v", p.TTL))
	}
	if p.MaxViews < 0 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("invalid view cap %d", p.MaxViews))
	}

	ephemeralID := uuid.NewString()
	view := &View{
		DocumentID: p.DocumentID,
		Level:      p.Result.Level,
		Sections:   p.Result.Decrypted,
		Redacted:   p.Result.Redacted,
	}
	ephemeralPub, env, err := wrap(ephemeralID, view, p.Recipient.PublicKey)
	if err != nil {
		return nil, errors.E("create grant", err)
	}

	now := r.clock.Now().UTC().Truncate(time.Millisecond)
	identity := &Identity{
		EphemeralID: ephemeralID,
		RecipientID: p.Recipient.LongTermID,
		DocumentID:  p.DocumentID,
		Level:       p.Result.Level,
		PublicKey:   ephemeralPub,
		CreatedAt:   now,
		ExpiresAt:   now.Add(p.TTL).Truncate(time.Millisecond),
		MaxViews:    p.MaxViews,
	}
	for _, red := range p.Result.Redacted {
		identity.RedactedSectionIDs = append(identity.RedactedSectionIDs, red.SectionID)
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.E(errors.Canceled, "create grant", err)
	}
	if err := r.store.Put(identity); err != nil {
		// Nothing recipient-facing has been handed off yet; the
		// grant simply does not exist.
		return nil, errors.E("persist grant", err)
	}
	log.Debug.Printf("grant: created %s for document %s at %s, expires %s",
		ephemeralID, p.DocumentID, identity.Level, identity.ExpiresAt.Format(time.RFC3339))

	return &Artifact{
		EphemeralID:        ephemeralID,
		EphemeralPublicKey: ephemeralPub,
		Wrapped:            env,
		ExpiresAt:          identity.ExpiresAt,
	}, nil
}

// CheckValidity reports whether the grant under ephemeralID is live:
// not expired, not over its view cap, and not revoked. It does not
// consume a view. Routine failures (expiry is the common case) are
// data, not errors; the error return covers store failures only.
func (r *Registry) CheckValidity(ephemeralID string) (Validity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, v, err := r.load(ephemeralID)
	return v, err
}

// Access performs the liveness check and, if the grant is live,
// consumes one view. The check and the increment are atomic with
// respect to concurrent Access calls: with MaxViews=1, exactly one
// of two simultaneous requests succeeds.
func (r *Registry) Access(ephemeralID string) (Validity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	identity, v, err := r.load(ephemeralID)
	if err != nil || !v.Valid {
		return v, err
	}
	identity.ViewCount++
	if err := r.store.Put(identity); err != nil {
		return Validity{}, errors.E("record access", err)
	}
	if identity.MaxViews > 0 && identity.ViewCount >= identity.MaxViews {
		// The cap is now reached; subsequent checks are terminal.
		r.terminal.SetUntil(ephemeralID, Exhausted, r.clock.Now().Add(terminalCacheTTL))
	}
	return v, nil
}

// Revoke places the grant in its terminal revoked state. Revoke is
// idempotent: revoking an already-revoked, expired, or exhausted
// grant succeeds, and every subsequent check reports Revoked.
func (r *Registry) Revoke(ephemeralID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	identity, ok, err := r.store.Get(ephemeralID)
	if err != nil {
		return errors.E("revoke grant", err)
	}
	if !ok {
		return errors.E(errors.NotExist, fmt.Sprintf("no grant %s", ephemeralID))
	}
	if identity.Revoked {
		return nil
	}
	identity.Revoked = true
	if err := r.store.Put(identity); err != nil {
		return errors.E("revoke grant", err)
	}
	r.terminal.SetUntil(ephemeralID, Revoked, r.clock.Now().Add(terminalCacheTTL))
	log.Printf("grant: revoked %s", ephemeralID)
	return nil
}

// load fetches the identity and evaluates liveness. Callers hold
// r.mu. Revocation dominates expiry, which dominates exhaustion, so
// a revoked grant always reports Revoked regardless of prior state.
func (r *Registry) load(ephemeralID string) (*Identity, Validity, error) {
	if reason, ok := r.terminal.Get(ephemeralID); ok {
		return nil, Validity{Valid: false, Reason: reason.(Reason)}, nil
	}
	identity, ok, err := r.store.Get(ephemeralID)
	if err != nil {
		return nil, Validity{}, errors.E("load grant", err)
	}
	if !ok {
		return nil, Validity{Valid: false, Reason: NotFound}, nil
	}
	switch {
	case identity.Revoked:
		r.terminal.SetUntil(ephemeralID, Revoked, r.clock.Now().Add(terminalCacheTTL))
		return nil, Validity{Valid: false, Reason: Revoked}, nil
	case r.clock.Now().After(identity.ExpiresAt):
		r.terminal.SetUntil(ephemeralID, Expired, r.clock.Now().Add(terminalCacheTTL))
		return nil, Validity{Valid: false, Reason: Expired}, nil
	case identity.MaxViews > 0 && identity.ViewCount >= identity.MaxViews:
		return nil, Validity{Valid: false, Reason: Exhausted}, nil
	}
	return identity, Validity{Valid: true, Reason: ReasonNone}, nil
}
