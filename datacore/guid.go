package datacore

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// GUID is the raw 16-byte identifier wire type, keeping the same
// byte-reordering rule the source format applies: c = u16@0, b = u16@2,
// a = u32@4, followed by eight raw bytes [k,j,i,h,g,f,e,d].
//
// This is deliberately not google/uuid.UUID: the canonical string this
// format emits reorders fields in a way that doesn't correspond to
// RFC 4122's mixed-endian layout, so a library built around that layout
// would have to be fought rather than used.
type GUID [16]byte

// String formats the GUID per spec §6: "{a:08x}-{b:04x}-{c:04x}-{d:02x}{e:02x}-{f:02x}{g:02x}{h:02x}{i:02x}{j:02x}{k:02x}".
func (g GUID) String() string {
	c := uint16(g[0]) | uint16(g[1])<<8
	b := uint16(g[2]) | uint16(g[3])<<8
	a := uint32(g[4]) | uint32(g[5])<<8 | uint32(g[6])<<16 | uint32(g[7])<<24
	// The remaining eight raw bytes map to k,j,i,h,g,f,e,d in that order
	// — i.e. byte[8] is k, counting down to byte[15] which is d.
	k, j, i, h, gByte, f, e, d := g[8], g[9], g[10], g[11], g[12], g[13], g[14], g[15]
	return fmt.Sprintf("%08x-%04x-%04x-%02x%02x-%02x%02x%02x%02x%02x%02x",
		a, b, c, d, e, f, gByte, h, i, j, k)
}

// IsZero reports whether every byte of the GUID is zero.
func (g GUID) IsZero() bool {
	return g == GUID{}
}

// ParseGUID parses the canonical "aaaaaaaa-bbbb-cccc-dede-ffgghhiijjkk"
// string form produced by GUID.String back into raw wire bytes.
func ParseGUID(s string) (GUID, error) {
	hexOnly := strings.ReplaceAll(s, "-", "")
	raw, err := hex.DecodeString(hexOnly)
	if err != nil {
		return GUID{}, fmt.Errorf("datacore: parse guid %q: %w", s, err)
	}
	if len(raw) != 16 {
		return GUID{}, fmt.Errorf("datacore: parse guid %q: want 16 bytes, got %d", s, len(raw))
	}

	a := uint32(raw[0])<<24 | uint32(raw[1])<<16 | uint32(raw[2])<<8 | uint32(raw[3])
	b := uint16(raw[4])<<8 | uint16(raw[5])
	c := uint16(raw[6])<<8 | uint16(raw[7])
	d, e, f, gByte, h, i, j, k := raw[8], raw[9], raw[10], raw[11], raw[12], raw[13], raw[14], raw[15]

	var g GUID
	g[0], g[1] = byte(c), byte(c>>8)
	g[2], g[3] = byte(b), byte(b>>8)
	g[4], g[5], g[6], g[7] = byte(a), byte(a>>8), byte(a>>16), byte(a>>24)
	g[8], g[9], g[10], g[11] = k, j, i, h
	g[12], g[13], g[14], g[15] = gByte, f, e, d
	return g, nil
}

// readGUID reads a raw 16-byte GUID at offset from data.
func readGUID(data []byte, offset uint32) (GUID, error) {
	if uint64(offset)+16 > uint64(len(data)) {
		return GUID{}, ErrOutOfBounds
	}
	var g GUID
	copy(g[:], data[offset:offset+16])
	return g, nil
}
