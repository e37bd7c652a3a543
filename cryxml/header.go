// Copyright (c) 2026 The ExterraGroup/scdatatools Authors. All rights
// reserved. Use of this source code is governed by a MIT-style license
// that can be found in the LICENSE file.

// Package cryxml decodes the CryXmlB tokenised-XML container — a
// header, a node table, an attribute table, a child-index table, and a
// trailing string pool — into a generic XML tree through a pluggable
// Builder, falling back to a standard XML parse for plain-text input.
package cryxml

import (
	"bytes"

	"github.com/ExterraGroup/scdatatools/internal/byteview"
)

// signature8 is the full 8-byte form of the CryXmlB file signature; some
// producers omit the trailing NUL, so a 7-byte prefix match also counts.
var signature8 = []byte("CryXmlB\x00")

const signature7 = "CryXmlB"

// IsCryXmlB reports whether data begins with the CryXmlB signature.
func IsCryXmlB(data []byte) bool {
	if len(data) >= 8 && bytes.Equal(data[:8], signature8) {
		return true
	}
	return len(data) >= 7 && string(data[:7]) == signature7
}

// header mirrors the fixed 44-byte CryXmlB file header.
type header struct {
	xmlSize              uint32
	nodeTableOffset      uint32
	nodeCount            uint32
	attributesTableOffset uint32
	attributesCount       uint32
	childTableOffset      uint32
	childTableCount       uint32
	stringDataOffset      uint32
	stringDataSize        uint32
}

const headerSize = 8 + 9*4 // signature + nine u32 fields

func readHeader(v *byteview.View) (header, error) {
	if _, err := v.NextBytes(8); err != nil { // signature, already validated by caller
		return header{}, err
	}

	var h header
	var err error
	next := func() uint32 {
		if err != nil {
			return 0
		}
		var val uint32
		val, err = v.NextUint32()
		return val
	}

	h.xmlSize = next()
	h.nodeTableOffset = next()
	h.nodeCount = next()
	h.attributesTableOffset = next()
	h.attributesCount = next()
	h.childTableOffset = next()
	h.childTableCount = next()
	h.stringDataOffset = next()
	h.stringDataSize = next()

	if err != nil {
		return header{}, err
	}
	return h, nil
}
