// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package section_test

import (
	"strings"
	"testing"

	"github.com/grailbio/clearance/classification"
	"github.com/grailbio/clearance/errors"
	"github.com/grailbio/clearance/section"
)

const markedDoc = `[title: Quarterly Threat Assessment]
Overview for all readers.

[clearance: CONFIDENTIAL]
Supplier names and contract values.
[/clearance]

[clearance: SECRET]
Source reporting summary.
[/clearance]

Closing remarks for all readers.
`

func TestParse(t *testing.T) {
	doc, err := section.Parse(markedDoc)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := doc.Metadata.Title, "Quarterly Threat Assessment"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if got, want := len(doc.Sections), 4; got != want {
		t.Fatalf("got %d sections, want %d", got, want)
	}
	wantLevels := []classification.Level{
		classification.Unclassified,
		classification.Confidential,
		classification.Secret,
		classification.Unclassified,
	}
	for i, s := range doc.Sections {
		if got, want := s.Clearance, wantLevels[i]; got != want {
			t.Errorf("section %d: got %s, want %s", i, got, want)
		}
		if got, want := s.Ordinal, i; got != want {
			t.Errorf("section %d: got ordinal %d, want %d", i, got, want)
		}
		if s.ID == "" {
			t.Errorf("section %d: empty id", i)
		}
	}
	if got, want := string(doc.Sections[1].Plaintext), "Supplier names and contract values."; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if got, want := doc.Metadata.Overall, classification.Secret; got != want {
		t.Errorf("got overall %s, want %s", got, want)
	}
}

func TestParseUnmarkedDefaults(t *testing.T) {
	doc, err := section.Parse("Just some text.\n\nAnd more text.")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(doc.Sections), 1; got != want {
		t.Fatalf("got %d sections, want %d", got, want)
	}
	if got, want := doc.Sections[0].Clearance, classification.Unclassified; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
	if got, want := doc.Metadata.Overall, classification.Unclassified; got != want {
		t.Errorf("got overall %s, want %s", got, want)
	}
}

func TestParseEmpty(t *testing.T) {
	doc, err := section.Parse("")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(doc.Sections), 0; got != want {
		t.Errorf("got %d sections, want %d", got, want)
	}
	if got, want := doc.Metadata.Overall, classification.Unclassified; got != want {
		t.Errorf("got overall %s, want %s", got, want)
	}
}

func TestParseStableIDs(t *testing.T) {
	first, err := section.Parse(markedDoc)
	if err != nil {
		t.Fatal(err)
	}
	second, err := section.Parse(markedDoc)
	if err != nil {
		t.Fatal(err)
	}
	for i := range first.Sections {
		if got, want := second.Sections[i].ID, first.Sections[i].ID; got != want {
			t.Errorf("section %d: got id %s, want %s", i, got, want)
		}
	}
	// Distinct content yields distinct ids.
	ids := map[string]bool{}
	for _, s := range first.Sections {
		if ids[s.ID] {
			t.Errorf("duplicate id %s", s.ID)
		}
		ids[s.ID] = true
	}
}

func TestParseErrors(t *testing.T) {
	for _, test := range []struct {
		name, markup, substr string
	}{
		{"unknown label", "[clearance: ULTRAVIOLET]\nx\n[/clearance]", "unrecognized clearance label"},
		{"nested", "[clearance: SECRET]\n[clearance: SECRET]\nx\n[/clearance]\n[/clearance]", "nested"},
		{"unmatched close", "x\n[/clearance]", "unmatched"},
		{"unterminated", "[clearance: SECRET]\nx", "unterminated"},
		{"repeated title", "[title: a]\n[title: b]", "repeated title"},
		{"title in block", "[clearance: SECRET]\n[title: a]\n[/clearance]", "title directive inside"},
	} {
		_, err := section.Parse(test.markup)
		if err == nil {
			t.Errorf("%s: expected an error", test.name)
			continue
		}
		if !errors.Is(errors.Invalid, err) {
			t.Errorf("%s: got kind %v, want Invalid", test.name, errors.Recover(err).Kind)
		}
		if !strings.Contains(err.Error(), test.substr) {
			t.Errorf("%s: error %q does not mention %q", test.name, err, test.substr)
		}
	}
}

func TestParseMarkerScope(t *testing.T) {
	// A marker applies only to its own block, not to siblings.
	doc, err := section.Parse("[clearance: TOP_SECRET]\nhidden\n[/clearance]\nvisible")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(doc.Sections), 2; got != want {
		t.Fatalf("got %d sections, want %d", got, want)
	}
	if got, want := doc.Sections[1].Clearance, classification.Unclassified; got != want {
		t.Errorf("sibling content: got %s, want %s", got, want)
	}
}
