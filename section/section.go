// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package section defines the section model for clearance-marked
// documents and implements the parser that splits marked-up source
// into an ordered sequence of sections, each tagged with a clearance
// level.
package section

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/grailbio/clearance/classification"
	"github.com/grailbio/clearance/writehash"
)

// A Section is one contiguous unit of document content, tagged with
// the clearance level required to read it. Sections are immutable
// once created by the parser.
type Section struct {
	// ID is stable and unique within a document. It is derived from
	// the section's ordinal, clearance, and content, so re-parsing
	// byte-identical input yields byte-identical ids.
	ID string
	// Clearance is the level required to read this section.
	Clearance classification.Level
	// Ordinal is the section's position in the document, preserved
	// so that views can be reconstructed in reading order.
	Ordinal int
	// Plaintext is the section's content.
	Plaintext []byte
}

// Metadata carries document-level attributes derived at parse time.
type Metadata struct {
	// Title is the document's display title, if the markup declared
	// one.
	Title string
	// Overall is the document's overall classification: the maximum
	// clearance across all sections, or Unclassified for an empty
	// document.
	Overall classification.Level
}

// A Document is the parser's output: an ordered section list plus
// metadata.
type Document struct {
	Sections []Section
	Metadata Metadata
}

// sectionID derives the stable identifier for a section from its
// ordinal, clearance, and content.
func sectionID(ordinal int, clearance classification.Level, content []byte) string {
	h := sha256.New()
	writehash.Int(h, ordinal)
	writehash.Int(h, int(clearance))
	writehash.Bytes(h, content)
	return hex.EncodeToString(h.Sum(nil)[:12])
}

// newSection constructs a section with its derived id.
func newSection(ordinal int, clearance classification.Level, content []byte) Section {
	return Section{
		ID:        sectionID(ordinal, clearance, content),
		Clearance: clearance,
		Ordinal:   ordinal,
		Plaintext: content,
	}
}
