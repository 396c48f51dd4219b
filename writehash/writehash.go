// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package writehash provides a set of utility functions to hash
// common types into hashes. It backs the stable derivation of section
// and document identifiers: id computations write each contributing
// field through these helpers so that byte-identical input always
// produces byte-identical ids.
package writehash

import (
	"encoding/binary"
	"fmt"
	"hash"
	"io"
)

func must(n int, err error) {
	if err != nil {
		panic(fmt.Sprintf("writehash: hash.Write returned unexpected error: %v", err))
	}
}

// String encodes the string s into the hash h.
func String(h hash.Hash, s string) {
	must(io.WriteString(h, s))
}

// Bytes encodes the bytes b into the hash h.
func Bytes(h hash.Hash, b []byte) {
	must(h.Write(b))
}

// Int encodes the integer v into the hash h.
func Int(h hash.Hash, v int) {
	Uint64(h, uint64(v))
}

// Uint16 encodes the 16-bit unsigned integer v into the hash h.
func Uint16(h hash.Hash, v uint16) {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	must(h.Write(buf[:]))
}

// Uint32 encodes the 32-bit unsigned integer v into the hash h.
func Uint32(h hash.Hash, v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	must(h.Write(buf[:]))
}

// Uint64 encodes the 64-bit unsigned integer v into the hash h.
func Uint64(h hash.Hash, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	must(h.Write(buf[:]))
}

// Byte encodes the byte b into the hash h.
func Byte(h hash.Hash, b byte) {
	must(h.Write([]byte{b}))
}

// Rune encodes the rune r into the hash h.
func Rune(h hash.Hash, r rune) {
	Uint32(h, uint32(r))
}
