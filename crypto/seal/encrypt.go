// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package seal

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/grailbio/clearance/classification"
	"github.com/grailbio/clearance/crypto/keyring"
	"github.com/grailbio/clearance/errors"
	"github.com/grailbio/clearance/section"
	"github.com/grailbio/clearance/traverse"
	"github.com/grailbio/clearance/writehash"
)

const (
	// nonceSize is the AES-GCM nonce size.
	nonceSize = 12
	// tagSize is the AES-GCM authentication tag size.
	tagSize = 16
)

var randomSource io.Reader = rand.Reader

// SetRandSource sets the source of random bytes and is intended
// primarily for testing purposes.
func SetRandSource(rd io.Reader) {
	randomSource = rd
}

// Encrypt seals each section of doc individually under the key for
// its own clearance level, derived from documentSecret, and
// assembles the encrypted package. Encrypt has no side effects
// beyond the returned package; it neither persists nor transmits.
//
// Every section is sealed under its own fresh random 96-bit nonce.
// Level keys are deterministic in the document secret, so nonce
// uniqueness must hold across Encrypt calls, not merely within one;
// per-section random nonces provide that for any number of
// re-encryptions. The package's document id is derived from the title
// and the ordered section ids, so re-encrypting the same logical
// document later yields the same id.
//
// Encrypt fails with kind Precondition if documentSecret is empty or
// any section is malformed (missing id, invalid clearance, duplicate
// id).
func Encrypt(doc section.Document, documentSecret []byte) (*Package, error) {
	if len(documentSecret) == 0 {
		return nil, errors.E(errors.Precondition, "document secret is empty")
	}
	if err := validateSections(doc.Sections); err != nil {
		return nil, err
	}

	levels := make([]classification.Level, len(doc.Sections))
	for i, s := range doc.Sections {
		levels[i] = s.Clearance
	}
	kr, err := keyring.DeriveUpTo(documentSecret, classification.TopSecret, levels)
	if err != nil {
		return nil, errors.E("encrypt", err)
	}
	defer kr.Wipe()

	pkg := &Package{
		DocumentID: documentID(doc),
		Sections:   make([]EncryptedSection, len(doc.Sections)),
		Metadata: Metadata{
			Title:   doc.Metadata.Title,
			Overall: classification.Max(levels...),
			Index:   make([]SectionRef, len(doc.Sections)),
		},
	}
	for _, l := range kr.Levels() {
		pkg.Keyring = append(pkg.Keyring, KeyRef{
			Level: l,
			KDF:   keyring.KDFName,
			Info:  keyring.Info(l),
		})
	}

	// Nonces are drawn sequentially so a deterministic test source
	// yields reproducible packages; the AEAD work itself runs in
	// parallel.
	nonces := make([]IV, len(doc.Sections))
	for i := range doc.Sections {
		nonce := make(IV, nonceSize)
		if _, err := io.ReadFull(randomSource, nonce); err != nil {
			return nil, errors.E("encrypt: read nonce", err)
		}
		nonces[i] = nonce
	}

	err = traverse.Parallel.Each(len(doc.Sections), func(i int) error {
		s := doc.Sections[i]
		key, ok := kr.Key(s.Clearance)
		if !ok {
			return errors.E(errors.Precondition, fmt.Sprintf("no key for level %s", s.Clearance))
		}
		aead, err := newAEAD(key)
		if err != nil {
			return err
		}
		sealed := aead.Seal(nil, nonces[i], s.Plaintext, sectionAAD(pkg.DocumentID, s.ID))
		split := len(sealed) - tagSize
		pkg.Sections[i] = EncryptedSection{
			SectionID:  s.ID,
			Clearance:  s.Clearance,
			Ordinal:    s.Ordinal,
			Ciphertext: Ciphertext(sealed[:split]),
			IV:         nonces[i],
			AuthTag:    AuthTag(sealed[split:]),
		}
		pkg.Metadata.Index[i] = SectionRef{
			SectionID: s.ID,
			Clearance: s.Clearance,
			Ordinal:   s.Ordinal,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pkg, nil
}

func validateSections(sections []section.Section) error {
	seen := make(map[string]bool, len(sections))
	for _, s := range sections {
		if s.ID == "" {
			return errors.E(errors.Precondition, fmt.Sprintf("section at ordinal %d has no id", s.Ordinal))
		}
		if !s.Clearance.Valid() {
			return errors.E(errors.Precondition, fmt.Sprintf("section %s has invalid clearance", s.ID))
		}
		if seen[s.ID] {
			return errors.E(errors.Precondition, fmt.Sprintf("duplicate section id %s", s.ID))
		}
		seen[s.ID] = true
	}
	return nil
}

// documentID derives a stable, content-derived identifier from the
// document title and the ordered section ids.
func documentID(doc section.Document) string {
	h := sha256.New()
	writehash.String(h, doc.Metadata.Title)
	for _, s := range doc.Sections {
		writehash.String(h, s.ID)
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// sectionAAD binds a sealed section to its document and section ids:
// swapping ciphertexts between sections fails authentication.
func sectionAAD(documentID, sectionID string) []byte {
	return []byte(documentID + "/" + sectionID)
}

func newAEAD(key keyring.Key) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, errors.E("new cipher", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.E("new gcm", err)
	}
	return aead, nil
}
