// Copyright (c) 2026 The ExterraGroup/scdatatools Authors. All rights
// reserved. Use of this source code is governed by a MIT-style license
// that can be found in the LICENSE file.

// Package p4k reads the ZIP-dialect archive format used to ship a large
// space-simulation game's data files: a non-standard local-file-header
// magic, Zstandard entries signalled by a non-standard compression id,
// and optional fixed-key AES-CBC encryption per entry. Archives commonly
// exceed 4GiB, so offsets are tracked as uint64 throughout rather than
// going through the byteview package's uint32-bounded View.
package p4k

import (
	"encoding/binary"
	"fmt"

	"github.com/ExterraGroup/scdatatools/internal/byteview"
	"github.com/ExterraGroup/scdatatools/log"
)

const (
	localHeaderMagicStock = 0x04034b50 // "PK\x03\x04"
	localHeaderMagicP4K   = 0x14034b50 // "PK\x03\x14"
	centralDirSignature   = 0x02014b50 // "PK\x01\x02"
	eocdSignature         = 0x06054b50 // "PK\x05\x06"
	zip64LocatorSignature = 0x07064b50 // "PK\x06\x07"
	zip64EOCDSignature    = 0x06064b50 // "PK\x06\x06"

	compressStore   = 0
	compressDeflate = 8
	compressZstd    = 100

	zip64ExtraID = 0x0001

	sentinel32 = 0xFFFFFFFF
	sentinel16 = 0xFFFF

	// flagUnsupportedMask covers bit 5 (patched data) and bit 6 (strong
	// encryption), per §4.8.
	flagUnsupportedMask = 1<<5 | 1<<6
)

// defaultKey is the fixed 16-byte AES key the archive format uses when
// an entry's extra field signals encryption and the caller hasn't
// supplied an override.
var defaultKey = [16]byte{
	0x5E, 0x7A, 0x20, 0x02, 0x30, 0x2E, 0xEB, 0x1A,
	0x3B, 0xB6, 0x17, 0xC3, 0x0F, 0xDE, 0x1E, 0x47,
}

// Options configures an archive Open.
type Options struct {
	// Key overrides the default AES-CBC key. Must be exactly 16 bytes
	// when set.
	Key []byte

	Logger *log.Helper
}

func (o *Options) logger() *log.Helper {
	if o == nil || o.Logger == nil {
		return log.NewHelper(nil)
	}
	return o.Logger
}

func (o *Options) key() ([16]byte, error) {
	if o == nil || o.Key == nil {
		return defaultKey, nil
	}
	if len(o.Key) != 16 {
		return [16]byte{}, fmt.Errorf("p4k: key must be 16 bytes, got %d", len(o.Key))
	}
	var k [16]byte
	copy(k[:], o.Key)
	return k, nil
}

// Archive is a loaded P4K file: the owning memory map and the parsed
// central directory.
type Archive struct {
	mapping *byteview.Mapping
	data    []byte
	entries []*Entry
	key     [16]byte
	log     *log.Helper
}

// Open memory-maps path and parses its end-of-central-directory and
// central directory.
func Open(path string, opts *Options) (*Archive, error) {
	m, err := byteview.Open(path)
	if err != nil {
		return nil, fmt.Errorf("p4k: open %s: %w", path, err)
	}
	a, err := load(m, opts)
	if err != nil {
		m.Close()
		return nil, err
	}
	return a, nil
}

// OpenBytes parses an already in-memory P4K archive.
func OpenBytes(data []byte, opts *Options) (*Archive, error) {
	return load(byteview.FromBytes(data), opts)
}

func load(m *byteview.Mapping, opts *Options) (*Archive, error) {
	key, err := opts.key()
	if err != nil {
		return nil, err
	}
	logger := opts.logger()
	data := m.Bytes()

	eocdOffset, err := findEOCD(data)
	if err != nil {
		return nil, err
	}

	totalEntries, cdSize, cdOffset, err := readEOCD(data, eocdOffset)
	if err != nil {
		return nil, err
	}

	if totalEntries == sentinel16 || cdSize == sentinel32 || cdOffset == sentinel32 {
		totalEntries, cdSize, cdOffset, err = readZip64EOCD(data, eocdOffset)
		if err != nil {
			return nil, err
		}
	}

	entries, err := readCentralDirectory(data, cdOffset, cdSize, totalEntries)
	if err != nil {
		return nil, err
	}

	a := &Archive{mapping: m, data: data, entries: entries, key: key, log: logger}
	for _, e := range entries {
		e.archive = a
	}
	logger.Infof("p4k: loaded %d entries", len(entries))
	return a, nil
}

// Close unmaps the underlying file. Every Entry's Open stream must be
// closed before calling this.
func (a *Archive) Close() error {
	return a.mapping.Close()
}

// Entries returns every entry in central-directory order.
func (a *Archive) Entries() []*Entry {
	return a.entries
}

func u16At(data []byte, offset uint64) (uint16, error) {
	if offset+2 > uint64(len(data)) {
		return 0, ErrTruncatedArchive
	}
	return binary.LittleEndian.Uint16(data[offset:]), nil
}

func u32At(data []byte, offset uint64) (uint32, error) {
	if offset+4 > uint64(len(data)) {
		return 0, ErrTruncatedArchive
	}
	return binary.LittleEndian.Uint32(data[offset:]), nil
}

func u64At(data []byte, offset uint64) (uint64, error) {
	if offset+8 > uint64(len(data)) {
		return 0, ErrTruncatedArchive
	}
	return binary.LittleEndian.Uint64(data[offset:]), nil
}

// findEOCD scans backward from the end of the file for the
// end-of-central-directory signature, bounded by the maximum possible
// comment length (65535 bytes) plus the fixed 22-byte record size.
func findEOCD(data []byte) (uint64, error) {
	const fixedSize = 22
	const maxComment = 65535

	searchStart := 0
	if len(data) > fixedSize+maxComment {
		searchStart = len(data) - fixedSize - maxComment
	}
	for i := len(data) - fixedSize; i >= searchStart; i-- {
		if binary.LittleEndian.Uint32(data[i:]) == eocdSignature {
			return uint64(i), nil
		}
	}
	return 0, fmt.Errorf("p4k: end-of-central-directory record not found: %w", ErrTruncatedArchive)
}

func readEOCD(data []byte, offset uint64) (totalEntries uint32, cdSize, cdOffset uint64, err error) {
	// offset+10 is the total-entries-in-central-directory field; the
	// total-entries-on-this-disk field at offset+8 is ignored since P4K
	// archives are always single-volume.
	total, err := u16At(data, offset+10)
	if err != nil {
		return 0, 0, 0, err
	}
	size, err := u32At(data, offset+12)
	if err != nil {
		return 0, 0, 0, err
	}
	cdOff, err := u32At(data, offset+16)
	if err != nil {
		return 0, 0, 0, err
	}
	return uint32(total), uint64(size), uint64(cdOff), nil
}

// readZip64EOCD follows the ZIP64 end-of-central-directory locator,
// immediately preceding the EOCD record, to the full-width ZIP64 record
// and returns its 64-bit central-directory size and offset. Unlike the
// standard EOCD record, these are never truncated to uint32: P4K
// archives routinely exceed 4GiB, which is the entire reason this
// promotion path exists.
func readZip64EOCD(data []byte, eocdOffset uint64) (totalEntries uint32, cdSize, cdOffset uint64, err error) {
	if eocdOffset < 20 {
		return 0, 0, 0, fmt.Errorf("p4k: zip64 locator missing: %w", ErrTruncatedArchive)
	}
	locatorOffset := eocdOffset - 20
	sig, err := u32At(data, locatorOffset)
	if err != nil {
		return 0, 0, 0, err
	}
	if sig != zip64LocatorSignature {
		return 0, 0, 0, fmt.Errorf("p4k: zip64 locator signature mismatch: %w", ErrTruncatedArchive)
	}
	recordOffset, err := u64At(data, locatorOffset+8)
	if err != nil {
		return 0, 0, 0, err
	}
	sig, err = u32At(data, recordOffset)
	if err != nil {
		return 0, 0, 0, err
	}
	if sig != zip64EOCDSignature {
		return 0, 0, 0, fmt.Errorf("p4k: zip64 end-of-central-directory signature mismatch: %w", ErrTruncatedArchive)
	}
	total, err := u64At(data, recordOffset+32)
	if err != nil {
		return 0, 0, 0, err
	}
	size, err := u64At(data, recordOffset+40)
	if err != nil {
		return 0, 0, 0, err
	}
	off, err := u64At(data, recordOffset+48)
	if err != nil {
		return 0, 0, 0, err
	}
	return uint32(total), size, off, nil
}
