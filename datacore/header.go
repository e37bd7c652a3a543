package datacore

import "github.com/ExterraGroup/scdatatools/internal/byteview"

// headerSize is the fixed size, in bytes, of the DCB file header: two
// leading u32 unknown/version fields, five u32 definition counts, four
// u16 unknowns, nineteen u32 value-pool counts, and two trailing u32
// fields (text_length, unknown6) — 28 u32 + 4 u16, field-for-field as
// laid out in the original decoder's header structure.
const headerSize = 28*4 + 4*2

// header mirrors the fixed-layout DCB file header. The several
// "unknown" fields are preserved verbatim and never validated, per the
// documented open question — their meaning is not established.
type header struct {
	unknown0 uint32
	version  uint32
	unknown1 uint16
	unknown2 uint16
	unknown3 uint16
	unknown4 uint16

	structureDefinitionCount   uint32
	propertyDefinitionCount    uint32
	enumDefinitionCount        uint32
	dataMappingDefinitionCount uint32
	recordDefinitionCount      uint32

	booleanCount      uint32
	int8Count         uint32
	int16Count        uint32
	int32Count        uint32
	int64Count        uint32
	uint8Count        uint32
	uint16Count       uint32
	uint32Count       uint32
	uint64Count       uint32
	floatCount        uint32
	doubleCount       uint32
	guidCount         uint32
	stringCount       uint32
	localeCount       uint32
	enumCount         uint32
	strongValueCount  uint32
	weakValueCount    uint32
	referenceCount    uint32
	enumOptionCount   uint32

	textLength uint32
	unknown6   uint32
}

func readHeader(v *byteview.View) (header, error) {
	var h header
	var err error
	next32 := func() uint32 {
		if err != nil {
			return 0
		}
		var val uint32
		val, err = v.NextUint32()
		return val
	}
	next16 := func() uint16 {
		if err != nil {
			return 0
		}
		var val uint16
		val, err = v.NextUint16()
		return val
	}

	h.unknown0 = next32()
	h.version = next32()
	h.unknown1 = next16()
	h.unknown2 = next16()
	h.unknown3 = next16()
	h.unknown4 = next16()
	h.structureDefinitionCount = next32()
	h.propertyDefinitionCount = next32()
	h.enumDefinitionCount = next32()
	h.dataMappingDefinitionCount = next32()
	h.recordDefinitionCount = next32()
	h.booleanCount = next32()
	h.int8Count = next32()
	h.int16Count = next32()
	h.int32Count = next32()
	h.int64Count = next32()
	h.uint8Count = next32()
	h.uint16Count = next32()
	h.uint32Count = next32()
	h.uint64Count = next32()
	h.floatCount = next32()
	h.doubleCount = next32()
	h.guidCount = next32()
	h.stringCount = next32()
	h.localeCount = next32()
	h.enumCount = next32()
	h.strongValueCount = next32()
	h.weakValueCount = next32()
	h.referenceCount = next32()
	h.enumOptionCount = next32()
	h.textLength = next32()
	h.unknown6 = next32()

	if err != nil {
		return header{}, err
	}
	return h, nil
}
