// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package grant

import (
	"crypto/rand"
	"encoding/json"
	"io"

	"github.com/grailbio/clearance/errors"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/nacl/box"
)

var randomSource io.Reader = rand.Reader

// SetRandSource sets the source of random bytes and is intended
// primarily for testing purposes.
func SetRandSource(rd io.Reader) {
	randomSource = rd
}

// NewKeyPair generates an X25519 key pair. It is a convenience for
// recipients; the private half must stay on the side that will
// perform the unwrap.
func NewKeyPair() (publicKey, privateKey *[32]byte, err error) {
	return box.GenerateKey(rand.Reader)
}

// wrap seals view under a fresh one-time ChaCha20-Poly1305 key and
// wraps that key to the recipient with an authenticated X25519 key
// agreement under a freshly generated ephemeral key pair. The
// ephemeral private key and the one-time key are zeroed before wrap
// returns; only the ephemeral public half survives.
func wrap(ephemeralID string, view *View, recipientPub *[32]byte) (ephemeralPub [32]byte, env Envelope, err error) {
	payload, err := json.Marshal(view)
	if err != nil {
		return ephemeralPub, env, errors.E("encode view", err)
	}

	var key [32]byte
	if _, err := io.ReadFull(randomSource, key[:]); err != nil {
		return ephemeralPub, env, errors.E("generate content key", err)
	}
	defer zero(key[:])

	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return ephemeralPub, env, errors.E("new aead", err)
	}
	payloadNonce := make([]byte, chacha20poly1305.NonceSize)
	if _, err := io.ReadFull(randomSource, payloadNonce); err != nil {
		return ephemeralPub, env, errors.E("generate payload nonce", err)
	}
	sealed := aead.Seal(nil, payloadNonce, payload, []byte(ephemeralID))

	// Key-pair generation failure is fatal to the grant: no partial
	// identity is ever created.
	pub, priv, err := box.GenerateKey(randomSource)
	if err != nil {
		return ephemeralPub, env, errors.E("generate ephemeral key pair", err)
	}
	defer zero(priv[:])

	var wrapNonce [24]byte
	if _, err := io.ReadFull(randomSource, wrapNonce[:]); err != nil {
		return ephemeralPub, env, errors.E("generate wrap nonce", err)
	}
	wrapped := box.Seal(nil, key[:], &wrapNonce, recipientPub, priv)

	env = Envelope{
		WrappedKey:   wrapped,
		WrapNonce:    wrapNonce,
		PayloadNonce: payloadNonce,
		Payload:      sealed,
	}
	return *pub, env, nil
}

// Open recovers the view from an artifact using the recipient's
// private key. It is the recipient-side half of delivery and runs on
// whichever side holds the private key; nothing here is retained
// after return.
//
// Failures to authenticate, either of the wrapped key or of the
// sealed payload, are returned with kind Integrity and must be
// surfaced by callers: they may indicate an active attack.
func Open(artifact *Artifact, recipientPriv *[32]byte) (*View, error) {
	if artifact == nil {
		return nil, errors.E(errors.Invalid, "nil artifact")
	}
	if recipientPriv == nil {
		return nil, errors.E(errors.Invalid, "nil recipient private key")
	}

	key, ok := box.Open(nil, artifact.Wrapped.WrappedKey, &artifact.Wrapped.WrapNonce, &artifact.EphemeralPublicKey, recipientPriv)
	if !ok {
		return nil, errors.E(errors.Integrity, "failed to unwrap content key")
	}
	defer zero(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, errors.E("new aead", err)
	}
	payload, err := aead.Open(nil, artifact.Wrapped.PayloadNonce, artifact.Wrapped.Payload, []byte(artifact.EphemeralID))
	if err != nil {
		return nil, errors.E(errors.Integrity, "sealed view failed authentication", err)
	}

	var view View
	if err := json.Unmarshal(payload, &view); err != nil {
		return nil, errors.E(errors.Invalid, "decode view", err)
	}
	return &view, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
