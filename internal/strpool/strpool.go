// Copyright (c) 2026 The ExterraGroup/scdatatools Authors. All rights
// reserved. Use of this source code is governed by a MIT-style license
// that can be found in the LICENSE file.

// Package strpool resolves offsets into a flat, NUL-terminated string
// region shared by the DCB and CryXmlB containers — DataCore's trailing
// text blob and CryXmlB's string_data block are both read the same way.
package strpool

import (
	"bytes"
	"errors"
	"unicode/utf8"
)

// Errors returned by StringAt.
var (
	// ErrInvalidString is returned when no NUL terminator is found before
	// the end of the pool.
	ErrInvalidString = errors.New("strpool: no terminator before end of pool")

	// ErrInvalidUTF8 is returned when the bytes between offset and the
	// terminator are not valid UTF-8.
	ErrInvalidUTF8 = errors.New("strpool: invalid utf-8")
)

// StringAt returns the NUL-terminated string starting at offset within
// pool. The string ends at the first zero byte at or after offset, never
// past len(pool). The result borrows pool's backing array; no copy is
// made beyond what the Go string conversion itself requires.
func StringAt(pool []byte, offset uint32) (string, error) {
	if uint64(offset) > uint64(len(pool)) {
		return "", ErrInvalidString
	}
	rel := bytes.IndexByte(pool[offset:], 0)
	if rel < 0 {
		return "", ErrInvalidString
	}
	raw := pool[offset : offset+uint32(rel)]
	if !utf8.Valid(raw) {
		return "", ErrInvalidUTF8
	}
	return string(raw), nil
}
