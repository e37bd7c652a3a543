// Copyright (c) 2026 The ExterraGroup/scdatatools Authors. All rights
// reserved. Use of this source code is governed by a MIT-style license
// that can be found in the LICENSE file.

// Package byteview memory-maps a file and hands out bounds-checked,
// zero-copy views into it. It is the shared foundation that the string
// pool, the CryXmlB decoder, and the DataCore Binary decoder all borrow
// their bytes from.
package byteview

import (
	"errors"
	"os"

	mmap "github.com/edsrzf/mmap-go"
)

// Errors returned by Open and View operations.
var (
	// ErrIO is returned when the underlying file cannot be opened or mapped.
	ErrIO = errors.New("byteview: io error")

	// ErrOutOfBounds is returned when a requested offset/length falls
	// outside the bounds of the mapping or view it is read against.
	ErrOutOfBounds = errors.New("byteview: out of bounds")
)

// Mapping owns a memory-mapped file. All Views derived from it stay valid
// for as long as the Mapping has not been closed.
type Mapping struct {
	data mmap.MMap
	f    *os.File
}

// Open memory-maps the file at path read-only.
func Open(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Join(ErrIO, err)
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, errors.Join(ErrIO, err)
	}

	return &Mapping{data: data, f: f}, nil
}

// FromBytes wraps an in-memory buffer as a Mapping, for callers that
// already have the file contents (e.g. tests, or data read from an
// archive entry) and don't want to go through the filesystem.
func FromBytes(data []byte) *Mapping {
	return &Mapping{data: data}
}

// Len returns the total number of bytes in the mapping.
func (m *Mapping) Len() int {
	return len(m.data)
}

// Bytes returns the full mapped region with no bounds narrowing. It
// exists for callers like p4k that must address archives larger than
// 4GiB, beyond View's uint32 offsets, and so do their own bounds
// checking in terms of uint64/int offsets.
func (m *Mapping) Bytes() []byte {
	return m.data
}

// View returns a bounds-checked, zero-copy view over the mapping's
// entire contents, with its cursor at offset 0.
func (m *Mapping) View() *View {
	return &View{data: m.data}
}

// Subslice returns a bounds-checked, zero-copy View over
// [offset, offset+length) of the mapping.
func (m *Mapping) Subslice(offset, length uint32) (*View, error) {
	end := uint64(offset) + uint64(length)
	if end > uint64(len(m.data)) {
		return nil, ErrOutOfBounds
	}
	return &View{data: m.data[offset:end]}, nil
}

// Close unmaps the region and closes the underlying file descriptor.
// Every View derived from this Mapping becomes invalid.
func (m *Mapping) Close() error {
	var err error
	if m.data != nil {
		err = m.data.Unmap()
	}
	if m.f != nil {
		if cerr := m.f.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
