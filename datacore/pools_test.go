package datacore

import (
	"encoding/json"
	"testing"
)

// buildPoolOrderFile assembles a structure with one Int8 array property
// and one Boolean array property, both backed by the shared value pools
// rather than inline instance bytes. This exercises the on-disk pool
// payload order directly: the int8 pool must be read before the boolean
// pool, even though the header lists booleanCount first.
func buildPoolOrderFile(t *testing.T) []byte {
	t.Helper()

	// String pool layout: "S2\0a8\0b1\0file2.txt\0"
	strPool := []byte("S2\x00a8\x00b1\x00file2.txt\x00")
	const (
		offS2   = 0
		offA8   = 3
		offB1   = 6
		offFile = 9
	)
	if len(strPool) != 19 {
		t.Fatalf("test string pool length = %d, want 19", len(strPool))
	}

	b := &dcbBuilder{}
	b.header(header{
		version:                    1,
		structureDefinitionCount:   1,
		propertyDefinitionCount:    2,
		dataMappingDefinitionCount: 1,
		recordDefinitionCount:      1,
		booleanCount:               2,
		int8Count:                  3,
		textLength:                 uint32(len(strPool)),
	})
	b.structureDef(StructureDefinition{NameOffset: offS2, ParentIndex: noParent, PropertyCount: 2, FirstPropertyIndex: 0})
	b.propertyDef(PropertyDefinition{NameOffset: offA8, DataType: DataTypeInt8, ConversionType: ConversionSimpleArray})
	b.propertyDef(PropertyDefinition{NameOffset: offB1, DataType: DataTypeBoolean, ConversionType: ConversionSimpleArray})
	b.dataMapping(DataMappingDefinition{StructureCount: 1, StructureIndex: 0})
	b.record(Record{NameOffset: offS2, FilenameOffset: offFile, StructureIndex: 0, ID: GUID{0x02}, InstanceIndex: 0})

	// Value pool payload: int8s first (10, -5, 3), then booleans (true,
	// false) — int-pool-first, not header-count order.
	b.raw([]byte{10, 0xFB, 3})
	b.raw([]byte{1, 0})

	// The string pool follows the value pools.
	b.raw(strPool)

	// Instance bytes: array(count, firstIndex) for each property, in
	// declared property order.
	b.u32(3)
	b.u32(0)
	b.u32(2)
	b.u32(0)

	return b.buf.Bytes()
}

func TestValuePoolsReadInPayloadOrder(t *testing.T) {
	data := buildPoolOrderFile(t)

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

	s, ok := got["S2"]
	if !ok {
		t.Fatalf("DumpRecordJSON = %s, want top-level key \"S2\"", out)
	}

	a8, ok := s["a8"].([]interface{})
	if !ok || len(a8) != 3 {
		t.Fatalf("S2.a8 = %v, want a 3-element array", s["a8"])
	}
	wantInts := []float64{10, -5, 3}
	for i, want := range wantInts {
		if got, _ := a8[i].(float64); got != want {
			t.Errorf("S2.a8[%d] = %v, want %v", i, a8[i], want)
		}
	}

	b1, ok := s["b1"].([]interface{})
	if !ok || len(b1) != 2 {
		t.Fatalf("S2.b1 = %v, want a 2-element array", s["b1"])
	}
	wantBools := []bool{true, false}
	for i, want := range wantBools {
		if got, _ := b1[i].(bool); got != want {
			t.Errorf("S2.b1[%d] = %v, want %v", i, b1[i], want)
		}
	}
}
