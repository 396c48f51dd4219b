// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package grant

import "sync"

// A Store persists grant identities. Lookup is by ephemeral id only:
// the interface deliberately has no scan or prefix operation, so
// every identity has exactly one canonical lookup key.
//
// Implementations must be safe for concurrent use. The registry
// performs its own serialization of check-and-increment sequences,
// so a store need not provide transactional semantics beyond
// atomic Get and Put.
type Store interface {
	// Get returns the identity stored under the given ephemeral id.
	Get(ephemeralID string) (*Identity, bool, error)
	// Put stores the identity under its ephemeral id, replacing any
	// existing state.
	Put(identity *Identity) error
}

// A MemStore is an in-memory Store, suitable for tests and for
// embedding behind a persistence collaborator.
type MemStore struct {
	mu         sync.RWMutex
	identities map[string]Identity
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{identities: make(map[string]Identity)}
}

// Get implements Store. The returned identity is a copy; mutating it
// does not affect the store.
func (s *MemStore) Get(ephemeralID string) (*Identity, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	identity, ok := s.identities[ephemeralID]
	if !ok {
		return nil, false, nil
	}
	copy := identity
	return &copy, true, nil
}

// Put implements Store.
func (s *MemStore) Put(identity *Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities[identity.EphemeralID] = *identity
	return nil
}
