// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package keyring derives the per-document, per-clearance-level
// symmetric keys under which document sections are sealed.
//
// Each level's key is derived from the caller-supplied document
// secret with HKDF-SHA256, binding the level's ordinal into the info
// string:
//
//	key(L) = HKDF-SHA256(ikm=documentSecret, info="clearance/level-key:"+ordinal(L))
//
// Derivation is one-directional across levels: a level's key is a
// function of the document secret, never of another level's key, so
// possession of the CONFIDENTIAL key yields nothing about the SECRET
// key. A keyring is always bounded: DeriveUpTo materializes keys only
// at or below the requested level, so higher-level keys are never
// held in memory, even transiently, on a lower-clearance decrypt
// path.
package keyring

import (
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/grailbio/clearance/classification"
	"github.com/grailbio/clearance/errors"
	"golang.org/x/crypto/hkdf"
)

// KeySize is the size in bytes of a derived level key (AES-256).
const KeySize = 32

// KDFName names the derivation function, recorded in package keyring
// references.
const KDFName = "hkdf-sha256"

// hkdfInfo is the domain-separation prefix bound into every level-key
// derivation.
const hkdfInfo = "clearance/level-key:"

// Info returns the HKDF info string binding the given level into its
// key derivation.
func Info(level classification.Level) string {
	return fmt.Sprintf("%s%d", hkdfInfo, int(level))
}

// A Key is one derived level key.
type Key [KeySize]byte

// A Keyring holds the derived keys for one document, bounded at a
// maximum level. It never contains a key above its bound.
type Keyring struct {
	max  classification.Level
	keys map[classification.Level]Key
}

// Derive derives the key for a single clearance level from the
// document secret. It fails with kind Precondition if the secret is
// empty and kind Invalid if the level is not a defined level.
func Derive(documentSecret []byte, level classification.Level) (Key, error) {
	if len(documentSecret) == 0 {
		return Key{}, errors.E(errors.Precondition, "document secret is empty")
	}
	if !level.Valid() {
		return Key{}, errors.E(errors.Invalid, fmt.Sprintf("cannot derive key for %s", level))
	}
	r := hkdf.New(sha256.New, documentSecret, nil, []byte(Info(level)))
	var key Key
	if _, err := io.ReadFull(r, key[:]); err != nil {
		return Key{}, errors.E("level key derivation", err)
	}
	return key, nil
}

// DeriveUpTo derives keys for every level in levels that is at or
// below max, returning a keyring bounded at max. Levels above max are
// skipped entirely; their keys are never computed.
func DeriveUpTo(documentSecret []byte, max classification.Level, levels []classification.Level) (*Keyring, error) {
	if !max.Valid() {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("invalid keyring bound %s", max))
	}
	kr := &Keyring{
		max:  max,
		keys: make(map[classification.Level]Key),
	}
	for _, l := range levels {
		if !l.AtOrBelow(max) {
			continue
		}
		if _, ok := kr.keys[l]; ok {
			continue
		}
		key, err := Derive(documentSecret, l)
		if err != nil {
			return nil, err
		}
		kr.keys[l] = key
	}
	return kr, nil
}

// Max returns the keyring's level bound.
func (kr *Keyring) Max() classification.Level {
	return kr.max
}

// Key returns the derived key for the given level, if the keyring
// holds one.
func (kr *Keyring) Key(level classification.Level) (Key, bool) {
	key, ok := kr.keys[level]
	return key, ok
}

// Levels returns the levels for which the keyring holds keys, in
// ascending order.
func (kr *Keyring) Levels() []classification.Level {
	var out []classification.Level
	for _, l := range classification.Levels {
		if _, ok := kr.keys[l]; ok {
			out = append(out, l)
		}
	}
	return out
}

// Wipe zeroes all key material held by the keyring. The keyring is
// unusable afterwards.
func (kr *Keyring) Wipe() {
	for l, key := range kr.keys {
		for i := range key {
			key[i] = 0
		}
		kr.keys[l] = key
		delete(kr.keys, l)
	}
}
