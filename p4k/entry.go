// Copyright (c) 2026 The ExterraGroup/scdatatools Authors. All rights
// reserved. Use of this source code is governed by a MIT-style license
// that can be found in the LICENSE file.

package p4k

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// encryptionFlagOffset is the byte offset, within an entry's raw extra
// field (not within any individual TLV sub-record), that signals
// AES-128-CBC encryption for the entry's payload when non-zero. This is
// a quirk of the archive format: the flag sits at a fixed absolute
// position in the extra field rather than in its own tagged sub-record.
const encryptionFlagOffset = 168

// Entry is one file recorded in a P4K archive's central directory.
type Entry struct {
	archive *Archive

	Name             string
	CompressMethod   uint16
	Flags            uint16
	CRC32            uint32
	CompressedSize   uint64
	UncompressedSize uint64
	LocalHeaderOffset uint64
	Encrypted        bool
}

func readCentralDirectory(data []byte, cdOffset, cdSize uint64, totalEntries uint32) ([]*Entry, error) {
	entries := make([]*Entry, 0, totalEntries)

	offset := cdOffset
	end := cdOffset + cdSize
	if end > uint64(len(data)) {
		return nil, fmt.Errorf("p4k: central directory extends past end of file: %w", ErrTruncatedArchive)
	}

	for i := uint32(0); i < totalEntries; i++ {
		e, consumed, err := readCentralDirectoryEntry(data, offset)
		if err != nil {
			return nil, fmt.Errorf("p4k: entry %d: %w", i, err)
		}
		entries = append(entries, e)
		offset += consumed
	}

	return entries, nil
}

func readCentralDirectoryEntry(data []byte, offset uint64) (*Entry, uint64, error) {
	sig, err := u32At(data, offset)
	if err != nil {
		return nil, 0, err
	}
	if sig != centralDirSignature {
		return nil, 0, fmt.Errorf("p4k: central directory signature mismatch at %d: %w", offset, ErrTruncatedArchive)
	}

	flags, err := u16At(data, offset+8)
	if err != nil {
		return nil, 0, err
	}
	if flags&flagUnsupportedMask != 0 {
		return nil, 0, fmt.Errorf("p4k: flags %#x: %w", flags, ErrUnsupportedFlag)
	}
	method, err := u16At(data, offset+10)
	if err != nil {
		return nil, 0, err
	}
	crc, err := u32At(data, offset+16)
	if err != nil {
		return nil, 0, err
	}
	compSize, err := u32At(data, offset+20)
	if err != nil {
		return nil, 0, err
	}
	uncompSize, err := u32At(data, offset+24)
	if err != nil {
		return nil, 0, err
	}
	nameLen, err := u16At(data, offset+28)
	if err != nil {
		return nil, 0, err
	}
	extraLen, err := u16At(data, offset+30)
	if err != nil {
		return nil, 0, err
	}
	commentLen, err := u16At(data, offset+32)
	if err != nil {
		return nil, 0, err
	}
	localOffset, err := u32At(data, offset+42)
	if err != nil {
		return nil, 0, err
	}

	const fixedSize = 46
	nameStart := offset + fixedSize
	nameEnd := nameStart + uint64(nameLen)
	extraStart := nameEnd
	extraEnd := extraStart + uint64(extraLen)
	commentEnd := extraEnd + uint64(commentLen)
	if commentEnd > uint64(len(data)) {
		return nil, 0, fmt.Errorf("p4k: entry name/extra/comment past end of file: %w", ErrTruncatedArchive)
	}

	name := string(data[nameStart:nameEnd])
	extra := data[extraStart:extraEnd]

	compressedSize := uint64(compSize)
	uncompressedSize := uint64(uncompSize)
	headerOffset := uint64(localOffset)

	zip64, err := parseZip64Extra(extra, uncompSize == sentinel32, compSize == sentinel32, localOffset == sentinel32)
	if err != nil {
		return nil, 0, err
	}
	if zip64.hasUncompressed {
		uncompressedSize = zip64.uncompressedSize
	}
	if zip64.hasCompressed {
		compressedSize = zip64.compressedSize
	}
	if zip64.hasOffset {
		headerOffset = zip64.headerOffset
	}

	encrypted := len(extra) > encryptionFlagOffset && extra[encryptionFlagOffset] != 0

	e := &Entry{
		Name:              name,
		CompressMethod:    method,
		Flags:             flags,
		CRC32:             crc,
		CompressedSize:    compressedSize,
		UncompressedSize:  uncompressedSize,
		LocalHeaderOffset: headerOffset,
		Encrypted:         encrypted,
	}
	return e, commentEnd - offset, nil
}

type zip64Fields struct {
	uncompressedSize, compressedSize, headerOffset    uint64
	hasUncompressed, hasCompressed, hasOffset          bool
}

// parseZip64Extra scans an entry's extra field for the ZIP64 extended
// information sub-record (tag 0x0001) and, for every field the caller
// says was sentineled in the fixed-size central directory record,
// reads the replacement 8-byte value. Per the ZIP64 spec the sub-record
// only carries the fields that were actually sentineled, in the fixed
// order uncompressed size, compressed size, header offset, disk start
// number — so the wanted fields are read, one 8-byte value each, in
// that relative order.
func parseZip64Extra(extra []byte, wantUncompressed, wantCompressed, wantOffset bool) (zip64Fields, error) {
	var out zip64Fields
	if !wantUncompressed && !wantCompressed && !wantOffset {
		return out, nil
	}

	pos := 0
	for pos+4 <= len(extra) {
		id := uint16(extra[pos]) | uint16(extra[pos+1])<<8
		size := uint16(extra[pos+2]) | uint16(extra[pos+3])<<8
		body := extra[pos+4:]
		if int(size) > len(body) {
			return out, fmt.Errorf("p4k: extra field sub-record past end: %w", ErrTruncatedArchive)
		}
		body = body[:size]
		if id == zip64ExtraID {
			bp := 0
			next := func() (uint64, error) {
				if bp+8 > len(body) {
					return 0, fmt.Errorf("p4k: zip64 extra record truncated: %w", ErrTruncatedArchive)
				}
				v := uint64(0)
				for i := 0; i < 8; i++ {
					v |= uint64(body[bp+i]) << (8 * i)
				}
				bp += 8
				return v, nil
			}
			if wantUncompressed {
				v, err := next()
				if err != nil {
					return out, err
				}
				out.uncompressedSize, out.hasUncompressed = v, true
			}
			if wantCompressed {
				v, err := next()
				if err != nil {
					return out, err
				}
				out.compressedSize, out.hasCompressed = v, true
			}
			if wantOffset {
				v, err := next()
				if err != nil {
					return out, err
				}
				out.headerOffset, out.hasOffset = v, true
			}
			return out, nil
		}
		pos += 4 + int(size)
	}
	return out, nil
}

// localHeaderPayloadOffset validates the entry's local file header
// (accepting either the stock or P4K-variant magic) and returns the
// absolute offset of the entry's compressed payload.
func (e *Entry) localHeaderPayloadOffset() (uint64, error) {
	data := e.archive.data
	sig, err := u32At(data, e.LocalHeaderOffset)
	if err != nil {
		return 0, err
	}
	if sig != localHeaderMagicStock && sig != localHeaderMagicP4K {
		return 0, fmt.Errorf("p4k: local header signature %#x at %d: %w", sig, e.LocalHeaderOffset, ErrBadLocalHeader)
	}
	nameLen, err := u16At(data, e.LocalHeaderOffset+26)
	if err != nil {
		return 0, err
	}
	extraLen, err := u16At(data, e.LocalHeaderOffset+28)
	if err != nil {
		return 0, err
	}
	const fixedSize = 30
	return e.LocalHeaderOffset + fixedSize + uint64(nameLen) + uint64(extraLen), nil
}

// Open returns a reader over the entry's decoded (decrypted, then
// decompressed) contents. CRC32 is not verified, matching this
// archive's policy of treating the stored checksum as advisory only.
func (e *Entry) Open() (io.ReadCloser, error) {
	payloadOffset, err := e.localHeaderPayloadOffset()
	if err != nil {
		return nil, err
	}
	data := e.archive.data
	end := payloadOffset + e.CompressedSize
	if end > uint64(len(data)) {
		return nil, fmt.Errorf("p4k: entry %q payload past end of file: %w", e.Name, ErrTruncatedArchive)
	}
	payload := data[payloadOffset:end]

	if e.Encrypted {
		payload, err = decryptCBC(e.archive.key, payload)
		if err != nil {
			return nil, fmt.Errorf("p4k: entry %q: %w", e.Name, err)
		}
	}

	switch e.CompressMethod {
	case compressStore:
		return io.NopCloser(bytes.NewReader(payload)), nil
	case compressZstd:
		zr, err := zstd.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("p4k: entry %q: %w: %v", e.Name, ErrDecompressError, err)
		}
		return &zstdReadCloser{zr}, nil
	default:
		return nil, fmt.Errorf("p4k: entry %q: compress method %d: %w", e.Name, e.CompressMethod, ErrDecompressError)
	}
}

// zstdReadCloser adapts *zstd.Decoder, whose Close returns no error, to
// io.ReadCloser.
type zstdReadCloser struct {
	d *zstd.Decoder
}

func (z *zstdReadCloser) Read(p []byte) (int, error) {
	n, err := z.d.Read(p)
	if err != nil && err != io.EOF {
		err = fmt.Errorf("%w: %v", ErrDecompressError, err)
	}
	return n, err
}

func (z *zstdReadCloser) Close() error { z.d.Close(); return nil }

func decryptCBC(key [16]byte, ciphertext []byte) ([]byte, error) {
	if len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext length %d not a multiple of block size", ErrDecryptError, len(ciphertext))
	}
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptError, err)
	}
	var iv [aes.BlockSize]byte
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv[:]).CryptBlocks(plaintext, ciphertext)
	return plaintext, nil
}
