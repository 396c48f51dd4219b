// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package seal

import (
	"fmt"
	"sort"

	"github.com/grailbio/clearance/classification"
	"github.com/grailbio/clearance/crypto/keyring"
	"github.com/grailbio/clearance/errors"
	"github.com/grailbio/clearance/log"
	"github.com/grailbio/clearance/section"
	"github.com/grailbio/clearance/traverse"
)

// A Redaction records one withheld section: its identity and its
// clearance level, never its content. No length or preview is
// disclosed.
type Redaction struct {
	SectionID string
	Clearance classification.Level
	Ordinal   int
}

// A Tampered records one accessible section whose authentication tag
// failed to verify. Err always has kind Integrity.
type Tampered struct {
	SectionID string
	Clearance classification.Level
	Ordinal   int
	Err       error
}

// A Result is the transient outcome of a clearance-bound decrypt. It
// is consumed immediately by rendering or delivery and never
// persisted. Decrypted, Redacted, and Tampered are each ordered by
// original ordinal, so a reconstructed view reads in document order
// with redaction placeholders interspersed correctly.
type Result struct {
	Decrypted []section.Section
	Redacted  []Redaction
	Tampered  []Tampered
	// Level is the requester clearance the result was computed for.
	Level classification.Level
}

// DecryptForClearance opens pkg for a requester holding level. The
// caller asserts that level was cryptographically verified elsewhere
// (for example via a signed credential check); this function trusts
// it as given and must never be fed an unauthenticated client
// parameter.
//
// Keys above level are never derived, even transiently. Sections
// above level are reported as redactions without touching their
// ciphertext. Sections whose authentication tag fails verification
// are reported in Result.Tampered with kind Integrity and logged;
// the failure never aborts the remaining sections and is never
// silently dropped.
//
// DecryptForClearance is deterministic: the same inputs always yield
// the same result.
func DecryptForClearance(pkg *Package, level classification.Level, documentSecret []byte) (*Result, error) {
	if pkg == nil {
		return nil, errors.E(errors.Invalid, "nil package")
	}
	if !level.Valid() {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("invalid requester level %d", int(level)))
	}
	if len(documentSecret) == 0 {
		return nil, errors.E(errors.Precondition, "document secret is empty")
	}

	levels := make([]classification.Level, len(pkg.Sections))
	for i, es := range pkg.Sections {
		levels[i] = es.Clearance
	}
	kr, err := keyring.DeriveUpTo(documentSecret, level, levels)
	if err != nil {
		return nil, errors.E("decrypt", err)
	}
	defer kr.Wipe()

	type slot struct {
		decrypted *section.Section
		redacted  *Redaction
		tampered  *Tampered
	}
	slots := make([]slot, len(pkg.Sections))
	err = traverse.Parallel.Each(len(pkg.Sections), func(i int) error {
		es := pkg.Sections[i]
		if !es.Clearance.AtOrBelow(level) {
			slots[i].redacted = &Redaction{
				SectionID: es.SectionID,
				Clearance: es.Clearance,
				Ordinal:   es.Ordinal,
			}
			return nil
		}
		key, ok := kr.Key(es.Clearance)
		if !ok {
			return errors.E(errors.Precondition, fmt.Sprintf("no key for level %s", es.Clearance))
		}
		aead, err := newAEAD(key)
		if err != nil {
			return err
		}
		sealed := make([]byte, 0, len(es.Ciphertext)+len(es.AuthTag))
		sealed = append(sealed, es.Ciphertext...)
		sealed = append(sealed, es.AuthTag...)
		plaintext, err := aead.Open(nil, es.IV, sealed, sectionAAD(pkg.DocumentID, es.SectionID))
		if err != nil {
			ierr := errors.E(errors.Integrity, fmt.Sprintf("section %s failed authentication", es.SectionID), err)
			log.Error.Printf("seal: %v", ierr)
			slots[i].tampered = &Tampered{
				SectionID: es.SectionID,
				Clearance: es.Clearance,
				Ordinal:   es.Ordinal,
				Err:       ierr,
			}
			return nil
		}
		slots[i].decrypted = &section.Section{
			ID:        es.SectionID,
			Clearance: es.Clearance,
			Ordinal:   es.Ordinal,
			Plaintext: plaintext,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &Result{Level: level}
	for _, s := range slots {
		switch {
		case s.decrypted != nil:
			result.Decrypted = append(result.Decrypted, *s.decrypted)
		case s.redacted != nil:
			result.Redacted = append(result.Redacted, *s.redacted)
		case s.tampered != nil:
			result.Tampered = append(result.Tampered, *s.tampered)
		}
	}
	sort.Slice(result.Decrypted, func(i, j int) bool { return result.Decrypted[i].Ordinal < result.Decrypted[j].Ordinal })
	sort.Slice(result.Redacted, func(i, j int) bool { return result.Redacted[i].Ordinal < result.Redacted[j].Ordinal })
	sort.Slice(result.Tampered, func(i, j int) bool { return result.Tampered[i].Ordinal < result.Tampered[j].Ordinal })
	return result, nil
}
