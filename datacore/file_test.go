package datacore

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"testing"
)

// dcbBuilder assembles a synthetic, well-formed DCB byte stream field by
// field, in wire order, for use as an in-memory test fixture — no real
// game installation is available to this test suite.
type dcbBuilder struct {
	buf bytes.Buffer
}

func (b *dcbBuilder) u16(v uint16) { binary.Write(&b.buf, binary.LittleEndian, v) }
func (b *dcbBuilder) u32(v uint32) { binary.Write(&b.buf, binary.LittleEndian, v) }
func (b *dcbBuilder) raw(p []byte) { b.buf.Write(p) }

func (b *dcbBuilder) header(h header) {
	b.u32(h.unknown0)
	b.u32(h.version)
	b.u16(h.unknown1)
	b.u16(h.unknown2)
	b.u16(h.unknown3)
	b.u16(h.unknown4)
	b.u32(h.structureDefinitionCount)
	b.u32(h.propertyDefinitionCount)
	b.u32(h.enumDefinitionCount)
	b.u32(h.dataMappingDefinitionCount)
	b.u32(h.recordDefinitionCount)
	b.u32(h.booleanCount)
	b.u32(h.int8Count)
	b.u32(h.int16Count)
	b.u32(h.int32Count)
	b.u32(h.int64Count)
	b.u32(h.uint8Count)
	b.u32(h.uint16Count)
	b.u32(h.uint32Count)
	b.u32(h.uint64Count)
	b.u32(h.floatCount)
	b.u32(h.doubleCount)
	b.u32(h.guidCount)
	b.u32(h.stringCount)
	b.u32(h.localeCount)
	b.u32(h.enumCount)
	b.u32(h.strongValueCount)
	b.u32(h.weakValueCount)
	b.u32(h.referenceCount)
	b.u32(h.enumOptionCount)
	b.u32(h.textLength)
	b.u32(h.unknown6)
}

func (b *dcbBuilder) structureDef(sd StructureDefinition) {
	b.u32(sd.NameOffset)
	b.u32(sd.ParentIndex)
	b.u16(sd.PropertyCount)
	b.u16(sd.FirstPropertyIndex)
	b.u32(sd.NodeType)
}

func (b *dcbBuilder) propertyDef(pd PropertyDefinition) {
	b.u32(pd.NameOffset)
	b.u16(pd.StructureIndex)
	b.u16(uint16(pd.DataType))
	b.u16(uint16(pd.ConversionType))
	b.u16(0) // padding
}

func (b *dcbBuilder) dataMapping(dm DataMappingDefinition) {
	b.u16(dm.StructureCount)
	b.u16(dm.StructureIndex)
}

func (b *dcbBuilder) record(r Record) {
	b.u32(r.NameOffset)
	b.u32(r.FilenameOffset)
	b.u32(r.StructureIndex)
	b.raw(r.ID[:])
	b.u16(r.InstanceIndex)
	b.u16(r.OtherIndex)
}

// buildSimpleStructureFile assembles spec worked example 1: a single
// structure S{a:Int32, b:StringRef} with one instance {a:7, b:"hello"},
// fronted by one record.
func buildSimpleStructureFile(t *testing.T) []byte {
	t.Helper()

	// String pool layout: "a\0b\0S\0hello\0file.txt\0"
	strPool := []byte("a\x00b\x00S\x00hello\x00file.txt\x00")
	const (
		offA    = 0
		offB    = 2
		offS    = 4
		offHello = 6
		offFile = 12
	)
	if len(strPool) != 21 {
		t.Fatalf("test string pool length = %d, want 21", len(strPool))
	}

	b := &dcbBuilder{}
	b.header(header{
		version:                    1,
		structureDefinitionCount:   1,
		propertyDefinitionCount:    2,
		dataMappingDefinitionCount: 1,
		recordDefinitionCount:      1,
		textLength:                 uint32(len(strPool)),
	})
	b.structureDef(StructureDefinition{NameOffset: offS, ParentIndex: noParent, PropertyCount: 2, FirstPropertyIndex: 0})
	b.propertyDef(PropertyDefinition{NameOffset: offA, DataType: DataTypeInt32, ConversionType: ConversionAttribute})
	b.propertyDef(PropertyDefinition{NameOffset: offB, DataType: DataTypeStringRef, ConversionType: ConversionAttribute})
	b.dataMapping(DataMappingDefinition{StructureCount: 1, StructureIndex: 0})
	b.record(Record{NameOffset: offS, FilenameOffset: offFile, StructureIndex: 0, ID: GUID{0x01}, InstanceIndex: 0})
	b.raw(strPool)
	// instance bytes: a=7 (int32), b=offset of "hello"
	b.u32(7)
	b.u32(offHello)

	return b.buf.Bytes()
}

func TestFileLoadAndDumpRecordJSON(t *testing.T) {
	data := buildSimpleStructureFile(t)

	f, err := NewBytes(data, nil)
	if err != nil {
		t.Fatalf("NewBytes failed: %v", err)
	}
	defer f.Close()

	records := f.Records()
	if len(records) != 1 {
		t.Fatalf("Records() = %d, want 1", len(records))
	}

	out, err := f.DumpRecordJSON(records[0])
	if err != nil {
		t.Fatalf("DumpRecordJSON failed: %v", err)
	}

	var got map[string]map[string]interface{}
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("json.Unmarshal failed: %v", err)
	}

	s, ok := got["S"]
	if !ok {
		t.Fatalf("DumpRecordJSON = %s, want top-level key \"S\"", out)
	}
	if a, _ := s["a"].(float64); a != 7 {
		t.Errorf("S.a = %v, want 7", s["a"])
	}
	if b, _ := s["b"].(string); b != "hello" {
		t.Errorf("S.b = %v, want \"hello\"", s["b"])
	}
}

func TestFileRecordByGUID(t *testing.T) {
	data := buildSimpleStructureFile(t)
	f, err := NewBytes(data, nil)
	if err != nil {
		t.Fatalf("NewBytes failed: %v", err)
	}
	defer f.Close()

	want := GUID{0x01}
	r := f.RecordByGUID(want)
	if r == nil {
		t.Fatalf("RecordByGUID(%s) = nil, want a match", want)
	}
	if r.ID != want {
		t.Errorf("RecordByGUID(%s).ID = %s", want, r.ID)
	}

	if f.RecordByGUID(GUID{0xFF}) != nil {
		t.Errorf("RecordByGUID(unknown) = non-nil, want nil")
	}
}

func TestFileSearchFilename(t *testing.T) {
	data := buildSimpleStructureFile(t)
	f, err := NewBytes(data, nil)
	if err != nil {
		t.Fatalf("NewBytes failed: %v", err)
	}
	defer f.Close()

	tests := []struct {
		glob string
		want int
	}{
		{"*.txt", 1},
		{"*.TXT", 1}, // case-insensitive by default
		{"FILE.txt", 1},
		{"*.xml", 0},
	}
	for _, tt := range tests {
		t.Run(tt.glob, func(t *testing.T) {
			got, err := f.SearchFilename(tt.glob, false)
			if err != nil {
				t.Fatalf("SearchFilename(%q) failed: %v", tt.glob, err)
			}
			if len(got) != tt.want {
				t.Errorf("SearchFilename(%q) = %d matches, want %d", tt.glob, len(got), tt.want)
			}
		})
	}
}
