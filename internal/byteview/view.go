package byteview

import "encoding/binary"

// View is a bounded, read-only slice of bytes with a logical cursor.
// Every read is range-checked against the view's length; multi-byte
// fields are always read unaligned, little-endian. A View never
// allocates or copies the bytes it was handed — it only narrows what
// portion of them is visible.
type View struct {
	data []byte
	pos  uint32
}

// NewView wraps an already-bounded byte slice (e.g. one borrowed from a
// decompressed archive entry) as a View.
func NewView(data []byte) *View {
	return &View{data: data}
}

// Len returns the number of bytes in the view.
func (v *View) Len() uint32 {
	return uint32(len(v.data))
}

// Pos returns the current cursor position.
func (v *View) Pos() uint32 {
	return v.pos
}

// Seek moves the cursor to an absolute offset. It does not itself fail
// on an out-of-bounds offset equal to Len (a cursor may legitimately
// rest at end-of-view); the next read will fail instead.
func (v *View) Seek(offset uint32) {
	v.pos = offset
}

// Bytes returns the full backing slice of the view, with no bounds
// applied beyond what the view itself was constructed with.
func (v *View) Bytes() []byte {
	return v.data
}

// Sub returns a bounds-checked sub-view of [offset, offset+length)
// relative to this view's own backing slice, independent of the cursor.
func (v *View) Sub(offset, length uint32) (*View, error) {
	end := uint64(offset) + uint64(length)
	if end > uint64(len(v.data)) {
		return nil, ErrOutOfBounds
	}
	return &View{data: v.data[offset:end]}, nil
}

// ReadBytes returns the size bytes starting at offset without moving the
// cursor.
func (v *View) ReadBytes(offset, size uint32) ([]byte, error) {
	end := uint64(offset) + uint64(size)
	if (end > uint64(offset)) != (size > 0) {
		return nil, ErrOutOfBounds
	}
	if end > uint64(len(v.data)) {
		return nil, ErrOutOfBounds
	}
	return v.data[offset:end], nil
}

// ReadUint8 reads a byte at offset.
func (v *View) ReadUint8(offset uint32) (uint8, error) {
	if uint64(offset)+1 > uint64(len(v.data)) {
		return 0, ErrOutOfBounds
	}
	return v.data[offset], nil
}

// ReadUint16 reads a little-endian uint16 at offset.
func (v *View) ReadUint16(offset uint32) (uint16, error) {
	if uint64(offset)+2 > uint64(len(v.data)) {
		return 0, ErrOutOfBounds
	}
	return binary.LittleEndian.Uint16(v.data[offset:]), nil
}

// ReadUint32 reads a little-endian uint32 at offset.
func (v *View) ReadUint32(offset uint32) (uint32, error) {
	if uint64(offset)+4 > uint64(len(v.data)) {
		return 0, ErrOutOfBounds
	}
	return binary.LittleEndian.Uint32(v.data[offset:]), nil
}

// ReadUint64 reads a little-endian uint64 at offset.
func (v *View) ReadUint64(offset uint32) (uint64, error) {
	if uint64(offset)+8 > uint64(len(v.data)) {
		return 0, ErrOutOfBounds
	}
	return binary.LittleEndian.Uint64(v.data[offset:]), nil
}

// Next* variants read at the cursor and advance it, for callers decoding
// a sequence of fixed-size fields left to right (the DCB instance
// decoder's dominant access pattern).

func (v *View) NextUint8() (uint8, error) {
	val, err := v.ReadUint8(v.pos)
	if err != nil {
		return 0, err
	}
	v.pos++
	return val, nil
}

func (v *View) NextUint16() (uint16, error) {
	val, err := v.ReadUint16(v.pos)
	if err != nil {
		return 0, err
	}
	v.pos += 2
	return val, nil
}

func (v *View) NextUint32() (uint32, error) {
	val, err := v.ReadUint32(v.pos)
	if err != nil {
		return 0, err
	}
	v.pos += 4
	return val, nil
}

func (v *View) NextUint64() (uint64, error) {
	val, err := v.ReadUint64(v.pos)
	if err != nil {
		return 0, err
	}
	v.pos += 8
	return val, nil
}

func (v *View) NextBytes(size uint32) ([]byte, error) {
	b, err := v.ReadBytes(v.pos, size)
	if err != nil {
		return nil, err
	}
	v.pos += size
	return b, nil
}
