// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package section

import (
	"fmt"
	"strings"

	"github.com/grailbio/clearance/classification"
	"github.com/grailbio/clearance/errors"
)

// Markup grammar. A document is a sequence of lines. Three directives
// are recognized, each on a line of its own (surrounding whitespace
// ignored):
//
//	[title: Quarterly Threat Assessment]
//	[clearance: SECRET]
//	[/clearance]
//
// A [clearance: LABEL] directive opens a marked block that extends to
// the matching [/clearance]; the enclosed lines form one section at
// the named level. Marked blocks do not nest, and a marker applies
// only to its own block, never to siblings. Lines outside any marked
// block form unclassified sections, one per contiguous run. The
// recognized labels are exactly UNCLASSIFIED, CONFIDENTIAL, SECRET,
// and TOP_SECRET (case-insensitive); any other label is a parse
// error, never a silent default.

const (
	openPrefix  = "[clearance:"
	closeMarker = "[/clearance]"
	titlePrefix = "[title:"
)

// Parse splits markup into an ordered sequence of clearance-tagged
// sections and computes the document's overall classification as the
// maximum level present. Parse is a pure function: it performs no
// I/O, and re-parsing byte-identical input yields a byte-identical
// document, section ids included.
//
// Errors have kind Invalid: unbalanced or nested clearance markers,
// an unrecognized clearance label, or a repeated title directive.
func Parse(markup string) (Document, error) {
	var (
		doc      Document
		pending  []string // lines of the block being accumulated
		level    = classification.Unclassified
		inMarked bool
		sawTitle bool
	)
	flush := func() {
		content := strings.TrimSpace(strings.Join(pending, "\n"))
		pending = nil
		if content == "" {
			return
		}
		doc.Sections = append(doc.Sections, newSection(len(doc.Sections), level, []byte(content)))
	}

	lines := strings.Split(markup, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		switch {
		case strings.HasPrefix(lower, titlePrefix):
			if inMarked {
				return Document{}, parseErr(i, "title directive inside a clearance block")
			}
			if sawTitle {
				return Document{}, parseErr(i, "repeated title directive")
			}
			title, ok := directiveArg(trimmed, titlePrefix)
			if !ok {
				return Document{}, parseErr(i, "malformed title directive")
			}
			doc.Metadata.Title = title
			sawTitle = true
		case strings.HasPrefix(lower, openPrefix):
			if inMarked {
				return Document{}, parseErr(i, "nested clearance marker")
			}
			label, ok := directiveArg(trimmed, openPrefix)
			if !ok {
				return Document{}, parseErr(i, "malformed clearance marker")
			}
			parsed, err := classification.Parse(label)
			if err != nil {
				return Document{}, errors.E(errors.Invalid, fmt.Sprintf("line %d", i+1), err)
			}
			flush()
			level = parsed
			inMarked = true
		case lower == closeMarker:
			if !inMarked {
				return Document{}, parseErr(i, "unmatched closing clearance marker")
			}
			flush()
			level = classification.Unclassified
			inMarked = false
		default:
			pending = append(pending, line)
		}
	}
	if inMarked {
		return Document{}, errors.E(errors.Invalid, "unterminated clearance marker")
	}
	flush()

	levels := make([]classification.Level, len(doc.Sections))
	for i, s := range doc.Sections {
		levels[i] = s.Clearance
	}
	doc.Metadata.Overall = classification.Max(levels...)
	return doc, nil
}

// directiveArg extracts the argument of a directive line of the form
// prefix + arg + "]". The prefix match is case-insensitive; the
// argument is returned with surrounding whitespace trimmed.
func directiveArg(line, prefix string) (string, bool) {
	if !strings.HasSuffix(line, "]") {
		return "", false
	}
	body := line[len(prefix) : len(line)-1]
	return strings.TrimSpace(body), true
}

func parseErr(lineIdx int, msg string) error {
	return errors.E(errors.Invalid, fmt.Sprintf("line %d: %s", lineIdx+1, msg))
}
