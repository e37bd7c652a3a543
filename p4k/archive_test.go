package p4k

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/klauspost/compress/zstd"
)

// p4kBuilder assembles a synthetic P4K archive byte stream field by
// field, in wire order — no real game install is available to this
// test suite.
type p4kBuilder struct {
	buf bytes.Buffer
}

func (b *p4kBuilder) u16(v uint16) { binary.Write(&b.buf, binary.LittleEndian, v) }
func (b *p4kBuilder) u32(v uint32) { binary.Write(&b.buf, binary.LittleEndian, v) }
func (b *p4kBuilder) raw(p []byte) { b.buf.Write(p) }
func (b *p4kBuilder) pos() uint32  { return uint32(b.buf.Len()) }

type fileSpec struct {
	name      string
	payload   []byte // already compressed/encrypted, as it would sit on disk
	method    uint16
	encrypted bool
}

// buildArchive writes a minimal single-volume P4K archive containing
// files, using the P4K-variant local header magic, and returns the full
// byte stream. Every recorded CRC32 is left at 0, since this format
// disables CRC verification.
func buildArchive(t *testing.T, files []fileSpec) []byte {
	t.Helper()

	b := &p4kBuilder{}
	type placed struct {
		fileSpec
		localOffset uint32
	}
	var placedFiles []placed

	for _, f := range files {
		localOffset := b.pos()
		b.u32(localHeaderMagicP4K)
		b.u16(20)   // version needed
		b.u16(0)    // flags
		b.u16(f.method)
		b.u16(0) // mod time
		b.u16(0) // mod date
		b.u32(0) // crc32 (unverified)
		b.u32(uint32(len(f.payload)))
		b.u32(uint32(len(f.payload)))
		b.u16(uint16(len(f.name)))
		b.u16(0) // extra field length
		b.raw([]byte(f.name))
		b.raw(f.payload)
		placedFiles = append(placedFiles, placed{f, localOffset})
	}

	cdStart := b.pos()
	for _, f := range placedFiles {
		extra := make([]byte, 0)
		if f.encrypted {
			extra = make([]byte, encryptionFlagOffset+1)
			extra[encryptionFlagOffset] = 1
		}

		b.u32(centralDirSignature)
		b.u16(20) // version made by
		b.u16(20) // version needed
		b.u16(0)  // flags
		b.u16(f.method)
		b.u16(0) // mod time
		b.u16(0) // mod date
		b.u32(0) // crc32
		b.u32(uint32(len(f.payload)))
		b.u32(uint32(len(f.payload)))
		b.u16(uint16(len(f.name)))
		b.u16(uint16(len(extra)))
		b.u16(0) // comment length
		b.u16(0) // disk number start
		b.u16(0) // internal attrs
		b.u32(0) // external attrs
		b.u32(f.localOffset)
		b.raw([]byte(f.name))
		b.raw(extra)
	}
	cdSize := b.pos() - cdStart

	b.u32(eocdSignature)
	b.u16(0) // disk number
	b.u16(0) // disk with cd start
	b.u16(uint16(len(files)))
	b.u16(uint16(len(files)))
	b.u32(cdSize)
	b.u32(cdStart)
	b.u16(0) // comment length

	return b.buf.Bytes()
}

func TestArchiveStoredEntry(t *testing.T) {
	data := buildArchive(t, []fileSpec{
		{name: "a/b/c.txt", payload: []byte("xyz"), method: compressStore},
	})

	a, err := OpenBytes(data, nil)
	if err != nil {
		t.Fatalf("OpenBytes failed: %v", err)
	}
	entries := a.Entries()
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Name != "a/b/c.txt" {
		t.Errorf("Name = %q, want \"a/b/c.txt\"", e.Name)
	}

	r, err := e.Open()
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(got) != "xyz" {
		t.Errorf("contents = %q, want \"xyz\"", got)
	}
}

func zstdCompress(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := zstd.NewWriter(&buf)
	if err != nil {
		t.Fatalf("zstd.NewWriter failed: %v", err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("zstd write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zstd close failed: %v", err)
	}
	return buf.Bytes()
}

func encryptCBC(t *testing.T, key [16]byte, plaintext []byte) []byte {
	t.Helper()
	block, err := aes.NewCipher(key[:])
	if err != nil {
		t.Fatalf("aes.NewCipher failed: %v", err)
	}
	var iv [aes.BlockSize]byte
	ciphertext := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(block, iv[:]).CryptBlocks(ciphertext, plaintext)
	return ciphertext
}

// TestArchiveZstdRoundTrip exercises unencrypted zstd decompression: the
// decoder reads exactly CompressedSize bytes, so no block-alignment
// padding is involved here — that only matters once AES-CBC is also in
// play, covered separately below.
func TestArchiveZstdRoundTrip(t *testing.T) {
	plain := []byte("the quick brown fox jumps over the lazy dog, repeated for a larger frame")
	compressed := zstdCompress(t, plain)

	data := buildArchive(t, []fileSpec{
		{name: "data.zst", payload: compressed, method: compressZstd},
	})

	a, err := OpenBytes(data, nil)
	if err != nil {
		t.Fatalf("OpenBytes failed: %v", err)
	}
	r, err := a.Entries()[0].Open()
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(got) != string(plain) {
		t.Errorf("contents = %q, want %q", got, plain)
	}
}

// TestArchiveEncryptedRoundTrip exercises AES-128-CBC decryption using a
// stored (uncompressed) payload whose length is already block-aligned,
// keeping the AES and zstd concerns independent.
func TestArchiveEncryptedRoundTrip(t *testing.T) {
	plain := []byte("0123456789abcdef0123456789abcdef") // 32 bytes
	plain = plain[:32]                                    // trim to two full AES blocks
	ciphertext := encryptCBC(t, defaultKey, plain)

	data := buildArchive(t, []fileSpec{
		{name: "secret.bin", payload: ciphertext, method: compressStore, encrypted: true},
	})

	a, err := OpenBytes(data, nil)
	if err != nil {
		t.Fatalf("OpenBytes failed: %v", err)
	}
	r, err := a.Entries()[0].Open()
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(got) != string(plain) {
		t.Errorf("contents = %q, want %q", got, plain)
	}
}

func TestArchiveBitFlipYieldsDecompressError(t *testing.T) {
	plain := []byte("the quick brown fox")
	compressed := zstdCompress(t, plain)
	compressed[len(compressed)-1] ^= 0xFF

	data := buildArchive(t, []fileSpec{
		{name: "broken.bin", payload: compressed, method: compressZstd},
	})

	a, err := OpenBytes(data, nil)
	if err != nil {
		t.Fatalf("OpenBytes failed: %v", err)
	}
	r, err := a.Entries()[0].Open()
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()
	_, err = io.ReadAll(r)
	if err == nil {
		t.Fatalf("ReadAll succeeded, want error")
	}
	if !errors.Is(err, ErrDecompressError) {
		t.Errorf("err = %v, want wrapping ErrDecompressError", err)
	}
}

func TestArchiveMisalignedEncryptedSizeYieldsDecryptError(t *testing.T) {
	data := buildArchive(t, []fileSpec{
		{name: "odd.bin", payload: []byte("not a multiple of 16"), method: compressStore, encrypted: true},
	})

	a, err := OpenBytes(data, nil)
	if err != nil {
		t.Fatalf("OpenBytes failed: %v", err)
	}
	_, err = a.Entries()[0].Open()
	if err == nil {
		t.Fatalf("Open succeeded, want error")
	}
	if !errors.Is(err, ErrDecryptError) {
		t.Errorf("err = %v, want wrapping ErrDecryptError", err)
	}
}

// TestArchiveZip64ExtraPromotesSentineledSizes builds a central
// directory entry whose compressed/uncompressed size fields are the
// 0xFFFFFFFF sentinel and carries a ZIP64 extra sub-record with the
// real 8-byte sizes, and checks those are the values the Entry ends up
// reporting.
func TestArchiveZip64ExtraPromotesSentineledSizes(t *testing.T) {
	payload := []byte("xyz")

	b := &p4kBuilder{}
	localOffset := b.pos()
	b.u32(localHeaderMagicP4K)
	b.u16(20)
	b.u16(0)
	b.u16(compressStore)
	b.u16(0)
	b.u16(0)
	b.u32(0)
	b.u32(uint32(len(payload)))
	b.u32(uint32(len(payload)))
	b.u16(uint16(len("big.bin")))
	b.u16(0)
	b.raw([]byte("big.bin"))
	b.raw(payload)

	cdStart := b.pos()

	var extra bytes.Buffer
	binary.Write(&extra, binary.LittleEndian, uint16(zip64ExtraID))
	binary.Write(&extra, binary.LittleEndian, uint16(16)) // sub-record size: two 8-byte fields
	binary.Write(&extra, binary.LittleEndian, uint64(len(payload)))
	binary.Write(&extra, binary.LittleEndian, uint64(len(payload)))

	b.u32(centralDirSignature)
	b.u16(20)
	b.u16(20)
	b.u16(0)
	b.u16(compressStore)
	b.u16(0)
	b.u16(0)
	b.u32(0)
	b.u32(sentinel32) // compressed size sentinel
	b.u32(sentinel32) // uncompressed size sentinel
	b.u16(uint16(len("big.bin")))
	b.u16(uint16(extra.Len()))
	b.u16(0)
	b.u16(0)
	b.u16(0)
	b.u32(0)
	b.u32(localOffset)
	b.raw([]byte("big.bin"))
	b.raw(extra.Bytes())
	cdSize := b.pos() - cdStart

	b.u32(eocdSignature)
	b.u16(0)
	b.u16(0)
	b.u16(1)
	b.u16(1)
	b.u32(cdSize)
	b.u32(cdStart)
	b.u16(0)

	a, err := OpenBytes(b.buf.Bytes(), nil)
	if err != nil {
		t.Fatalf("OpenBytes failed: %v", err)
	}
	e := a.Entries()[0]
	if e.CompressedSize != uint64(len(payload)) {
		t.Errorf("CompressedSize = %d, want %d", e.CompressedSize, len(payload))
	}
	if e.UncompressedSize != uint64(len(payload)) {
		t.Errorf("UncompressedSize = %d, want %d", e.UncompressedSize, len(payload))
	}

	r, err := e.Open()
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("contents = %q, want %q", got, payload)
	}
}

func TestArchiveSearch(t *testing.T) {
	data := buildArchive(t, []fileSpec{
		{name: "Data/Libs/foo.xml", payload: []byte("a"), method: compressStore},
		{name: "Data/Libs/bar.txt", payload: []byte("b"), method: compressStore},
	})

	a, err := OpenBytes(data, nil)
	if err != nil {
		t.Fatalf("OpenBytes failed: %v", err)
	}

	matches, err := a.Search("*.xml", true)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 1 || matches[0].Name != "Data/Libs/foo.xml" {
		t.Errorf("Search(*.xml) = %v, want one match of foo.xml", matches)
	}

	matches, err = a.Search("data/libs/*.XML", false)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 1 {
		t.Errorf("case-insensitive Search = %v, want one match", matches)
	}
}
