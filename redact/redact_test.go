// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package redact_test

import (
	"strings"
	"testing"

	"github.com/grailbio/clearance/classification"
	"github.com/grailbio/clearance/crypto/seal"
	"github.com/grailbio/clearance/redact"
	"github.com/grailbio/clearance/section"
)

func TestRender(t *testing.T) {
	result := &seal.Result{
		Decrypted: []section.Section{
			{ID: "a", Clearance: classification.Unclassified, Ordinal: 0, Plaintext: []byte("Overview.")},
			{ID: "c", Clearance: classification.Confidential, Ordinal: 2, Plaintext: []byte("Details.")},
		},
		Redacted: []seal.Redaction{
			{SectionID: "b", Clearance: classification.Secret, Ordinal: 1},
			{SectionID: "d", Clearance: classification.TopSecret, Ordinal: 3},
		},
		Level: classification.Confidential,
	}
	view := redact.Render(result)
	want := "Overview.\n\n[REDACTED SECRET]\n\nDetails.\n\n[REDACTED TOP_SECRET]"
	if got := view; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderDisclosesOnlyLevel(t *testing.T) {
	result := &seal.Result{
		Redacted: []seal.Redaction{
			{SectionID: "secret-id-123", Clearance: classification.Secret, Ordinal: 0},
		},
		Level: classification.Unclassified,
	}
	view := redact.Render(result)
	if got, want := view, redact.Placeholder(classification.Secret); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if strings.Contains(view, "secret-id-123") {
		t.Error("placeholder leaks the section id")
	}
}

func TestRenderTampered(t *testing.T) {
	result := &seal.Result{
		Decrypted: []section.Section{
			{ID: "a", Ordinal: 0, Clearance: classification.Unclassified, Plaintext: []byte("ok")},
		},
		Tampered: []seal.Tampered{
			{SectionID: "b", Clearance: classification.Unclassified, Ordinal: 1},
		},
		Level: classification.Unclassified,
	}
	view := redact.Render(result)
	if !strings.Contains(view, "[INTEGRITY FAILURE]") {
		t.Errorf("got %q, want an integrity marker", view)
	}
	if !strings.HasPrefix(view, "ok") {
		t.Errorf("got %q, want the intact section first", view)
	}
}

func TestRenderEmpty(t *testing.T) {
	if got, want := redact.Render(&seal.Result{}), ""; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
