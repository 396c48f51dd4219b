// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package seal implements section-level document encryption under
// clearance-derived keys, and the clearance-bound decryption that
// yields a redaction-marked view.
//
// Encrypt seals each section of a parsed document individually with
// AES-256-GCM under the key for the section's own clearance level
// (see the keyring package for derivation). The resulting Package is
// immutable: re-encrypting the same logical document produces a new
// package with the same content-derived document id.
//
// DecryptForClearance opens a package for a requester at a given
// level. Only keys at or below the requester's level are ever
// derived. Sections above the level are reported as redactions with
// their level disclosed and their ciphertext untouched; sections that
// fail authentication are reported per-section as integrity failures
// rather than aborting the document.
//
// The requester level passed to DecryptForClearance is trusted as
// given: it must originate from a value the calling system itself
// verified (for example, from a validated credential), never from an
// unauthenticated client parameter.
package seal

import (
	"encoding/hex"
	"fmt"

	"github.com/grailbio/clearance/classification"
)

// A Ciphertext is a section's sealed content, excluding the
// authentication tag.
type Ciphertext []byte

// An IV is the nonce under which one section was sealed. An IV is
// drawn fresh at random for every seal: level keys persist across
// encryptions of a document, so uniqueness must hold across calls,
// and reuse under the same key is a fatal invariant violation.
type IV []byte

// An AuthTag is the integrity tag from authenticated encryption.
type AuthTag []byte

// An EncryptedSection is one sealed section. Ciphertext, IV, and
// AuthTag round-trip byte-exact through serialization.
type EncryptedSection struct {
	SectionID  string               `json:"sectionId"`
	Clearance  classification.Level `json:"clearance"`
	Ordinal    int                  `json:"ordinal"`
	Ciphertext Ciphertext           `json:"ciphertext"`
	IV         IV                   `json:"iv"`
	AuthTag    AuthTag              `json:"authTag"`
}

// A KeyRef names how one level's key is derived. It carries
// derivation parameters only, never key material: reconstructing the
// key requires the document secret, which is not part of the package.
type KeyRef struct {
	Level classification.Level `json:"level"`
	KDF   string               `json:"kdf"`
	Info  string               `json:"info"`
}

// A SectionRef locates one section within a package without exposing
// its content.
type SectionRef struct {
	SectionID string               `json:"sectionId"`
	Clearance classification.Level `json:"clearance"`
	Ordinal   int                  `json:"ordinal"`
}

// Metadata carries a package's document-level attributes. It never
// contains plaintext.
type Metadata struct {
	Title   string               `json:"title,omitempty"`
	Overall classification.Level `json:"overallClassification"`
	Index   []SectionRef         `json:"index"`
}

// A Package is the persisted and transmitted artifact produced by
// Encrypt. It is immutable once created.
type Package struct {
	// DocumentID is content-derived and stable across re-encryption
	// of the same logical document.
	DocumentID string             `json:"documentId"`
	Sections   []EncryptedSection `json:"encryptedSections"`
	Keyring    []KeyRef           `json:"keyring"`
	Metadata   Metadata           `json:"metadata"`
}

func marshalHex(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return []byte(`""`), nil
	}
	dst := make([]byte, hex.EncodedLen(len(b))+2)
	hex.Encode(dst[1:], b)
	// need to supply leading/trailing double quotes.
	dst[0], dst[len(dst)-1] = '"', '"'
	return dst, nil
}

func unmarshalHex(data []byte, name string) ([]byte, error) {
	// need to strip leading and trailing double quotes
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return nil, fmt.Errorf("%s is not quoted", name)
	}
	data = data[1 : len(data)-1]
	out := make([]byte, hex.DecodedLen(len(data)))
	if _, err := hex.Decode(out, data); err != nil {
		return nil, err
	}
	return out, nil
}

// MarshalJSON marshals a Ciphertext as a hex encoded string.
func (c Ciphertext) MarshalJSON() ([]byte, error) { return marshalHex(c) }

// UnmarshalJSON unmarshals a hex encoded string into a Ciphertext.
func (c *Ciphertext) UnmarshalJSON(data []byte) error {
	out, err := unmarshalHex(data, "Ciphertext")
	if err != nil {
		return err
	}
	*c = out
	return nil
}

// MarshalJSON marshals an IV as a hex encoded string.
func (iv IV) MarshalJSON() ([]byte, error) { return marshalHex(iv) }

// UnmarshalJSON unmarshals a hex encoded string into an IV.
func (iv *IV) UnmarshalJSON(data []byte) error {
	out, err := unmarshalHex(data, "IV")
	if err != nil {
		return err
	}
	*iv = out
	return nil
}

// MarshalJSON marshals an AuthTag as a hex encoded string.
func (t AuthTag) MarshalJSON() ([]byte, error) { return marshalHex(t) }

// UnmarshalJSON unmarshals a hex encoded string into an AuthTag.
func (t *AuthTag) UnmarshalJSON(data []byte) error {
	out, err := unmarshalHex(data, "AuthTag")
	if err != nil {
		return err
	}
	*t = out
	return nil
}
