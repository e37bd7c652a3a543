package datacore

import (
	"errors"
	"testing"
)

func TestSchemaFullPropertiesInheritance(t *testing.T) {
	// Parent{x:Int8}, Child extends Parent{y:Int8} — spec worked example 2.
	properties := []PropertyDefinition{
		{NameOffset: 0, DataType: DataTypeInt8, ConversionType: ConversionAttribute}, // Parent.x
		{NameOffset: 1, DataType: DataTypeInt8, ConversionType: ConversionAttribute}, // Child.y
	}
	structures := []StructureDefinition{
		{NameOffset: 10, ParentIndex: noParent, PropertyCount: 1, FirstPropertyIndex: 0}, // 0: Parent
		{NameOffset: 11, ParentIndex: 0, PropertyCount: 1, FirstPropertyIndex: 1},         // 1: Child
	}
	s := newSchema(structures, properties, nil, nil)

	got, err := s.fullProperties(1)
	if err != nil {
		t.Fatalf("fullProperties(Child) failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("fullProperties(Child) = %d properties, want 2", len(got))
	}
	if got[0].NameOffset != 0 || got[1].NameOffset != 1 {
		t.Errorf("fullProperties(Child) order = %+v, want [Parent.x, Child.y]", got)
	}

	size, err := s.calculatedDataSize(1)
	if err != nil {
		t.Fatalf("calculatedDataSize(Child) failed: %v", err)
	}
	if size != 2 {
		t.Errorf("calculatedDataSize(Child) = %d, want 2", size)
	}
}

func TestSchemaCycleDetection(t *testing.T) {
	structures := []StructureDefinition{
		{NameOffset: 0, ParentIndex: 0}, // structure 0 is its own parent
	}
	s := newSchema(structures, nil, nil, nil)

	_, err := s.fullProperties(0)
	if !errors.Is(err, ErrSchemaCycle) {
		t.Fatalf("fullProperties(self-parent) error = %v, want ErrSchemaCycle", err)
	}
}

func TestSchemaCalculatedDataSizeClassEmbedding(t *testing.T) {
	// Inner{a:Int32}; Outer{b:Inner(Class), c:Int8}.
	properties := []PropertyDefinition{
		{NameOffset: 0, DataType: DataTypeInt32, ConversionType: ConversionAttribute},                      // Inner.a
		{NameOffset: 1, StructureIndex: 0, DataType: DataTypeClass, ConversionType: ConversionAttribute},    // Outer.b : Inner
		{NameOffset: 2, DataType: DataTypeInt8, ConversionType: ConversionAttribute},                       // Outer.c
	}
	structures := []StructureDefinition{
		{NameOffset: 10, ParentIndex: noParent, PropertyCount: 1, FirstPropertyIndex: 0}, // 0: Inner
		{NameOffset: 11, ParentIndex: noParent, PropertyCount: 2, FirstPropertyIndex: 1}, // 1: Outer
	}
	s := newSchema(structures, properties, nil, nil)

	size, err := s.calculatedDataSize(1)
	if err != nil {
		t.Fatalf("calculatedDataSize(Outer) failed: %v", err)
	}
	// Inner is 4 bytes (one Int32), plus Outer.c's 1 byte = 5.
	if size != 5 {
		t.Errorf("calculatedDataSize(Outer) = %d, want 5", size)
	}
}

func TestSchemaArrayConversionIsAlwaysPointerSized(t *testing.T) {
	properties := []PropertyDefinition{
		{NameOffset: 0, DataType: DataTypeInt32, ConversionType: ConversionSimpleArray},
		{NameOffset: 1, DataType: DataTypeStrongPointer, ConversionType: ConversionAttribute},
	}
	structures := []StructureDefinition{
		{NameOffset: 0, ParentIndex: noParent, PropertyCount: 2, FirstPropertyIndex: 0},
	}
	s := newSchema(structures, properties, nil, nil)

	size, err := s.calculatedDataSize(0)
	if err != nil {
		t.Fatalf("calculatedDataSize failed: %v", err)
	}
	if size != 16 {
		t.Errorf("calculatedDataSize = %d, want 16 (two 8-byte slots)", size)
	}
}
