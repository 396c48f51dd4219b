// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package redact renders the outcome of a clearance-bound decrypt as
// a reading-order view in which withheld sections appear as opaque
// placeholders. A placeholder discloses only that a section of a
// given clearance exists at that position: never the ciphertext, and
// no hint of length or content.
package redact

import (
	"fmt"
	"sort"
	"strings"

	"github.com/grailbio/clearance/classification"
	"github.com/grailbio/clearance/crypto/seal"
)

// Placeholder returns the opaque marker rendered in place of a
// withheld section of the given level.
func Placeholder(level classification.Level) string {
	return fmt.Sprintf("[REDACTED %s]", level)
}

// tamperedMarker is rendered in place of a section whose
// authentication failed. The section is corrupted, not hidden, so
// the marker is distinct from a redaction.
const tamperedMarker = "[INTEGRITY FAILURE]"

type entry struct {
	ordinal int
	text    string
}

// Render produces a plain-text view of result in original document
// order, with decrypted content, redaction placeholders, and
// integrity-failure markers interspersed at their ordinals.
func Render(result *seal.Result) string {
	var entries []entry
	for _, s := range result.Decrypted {
		entries = append(entries, entry{s.Ordinal, string(s.Plaintext)})
	}
	for _, r := range result.Redacted {
		entries = append(entries, entry{r.Ordinal, Placeholder(r.Clearance)})
	}
	for _, t := range result.Tampered {
		entries = append(entries, entry{t.Ordinal, tamperedMarker})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ordinal < entries[j].ordinal })

	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(e.text)
	}
	return b.String()
}
