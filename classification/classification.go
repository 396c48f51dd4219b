// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package classification defines the ordered clearance levels that
// gate read access to document sections. The numeric ordering of
// levels is the single source of truth for every access decision in
// this module; the string labels exist for display and for parsing
// document markup only.
package classification

import (
	"fmt"
	"strings"

	"github.com/grailbio/clearance/errors"
)

// A Level is an ordered sensitivity tier. A requester may access any
// section whose level is less than or equal to their verified level.
type Level int

const (
	// Unclassified is the lowest tier, and the default for content
	// that carries no explicit marking.
	Unclassified Level = 1 + iota
	// Confidential gates content whose disclosure could cause damage.
	Confidential
	// Secret gates content whose disclosure could cause serious
	// damage.
	Secret
	// TopSecret is the highest tier.
	TopSecret
)

// Levels lists all levels in ascending order.
var Levels = []Level{Unclassified, Confidential, Secret, TopSecret}

var labels = map[Level]string{
	Unclassified: "UNCLASSIFIED",
	Confidential: "CONFIDENTIAL",
	Secret:       "SECRET",
	TopSecret:    "TOP_SECRET",
}

// String returns the canonical display label for the level l.
func (l Level) String() string {
	if label, ok := labels[l]; ok {
		return label
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// Valid reports whether l is one of the four defined levels.
func (l Level) Valid() bool {
	_, ok := labels[l]
	return ok
}

// AtOrBelow reports whether l is accessible to a requester holding
// level have; that is, whether l <= have.
func (l Level) AtOrBelow(have Level) bool {
	return l <= have
}

// Parse returns the level named by the supplied label. Labels are
// matched case-insensitively against the four canonical labels. Any
// other token, including variant spellings such as "TOP SECRET", is
// an error with kind Invalid, never a silent default.
func Parse(label string) (Level, error) {
	norm := strings.ToUpper(strings.TrimSpace(label))
	for l, name := range labels {
		if name == norm {
			return l, nil
		}
	}
	return 0, errors.E(errors.Invalid, fmt.Sprintf("unrecognized clearance label %q", label))
}

// Max returns the maximum of the supplied levels, or Unclassified if
// none are supplied. Maximum is the only safe aggregate: a document's
// overall classification must protect its most sensitive section.
func Max(levels ...Level) Level {
	max := Unclassified
	for _, l := range levels {
		if l > max {
			max = l
		}
	}
	return max
}

// MarshalText marshals the level as its canonical label.
func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("cannot marshal %s", l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText unmarshals a clearance label into a level.
func (l *Level) UnmarshalText(data []byte) error {
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
