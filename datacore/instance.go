package datacore

import (
	"fmt"
	"math"

	"github.com/ExterraGroup/scdatatools/internal/byteview"
)

// Kind tags the shape of a decoded property Value. The source format's
// dynamic, dictionary-backed property access is replaced here with this
// flat tag plus the matching field on Value — callers switch on Kind
// rather than walking a type hierarchy.
type Kind uint8

const (
	KindPrimitive Kind = iota
	KindGUID
	KindString
	KindEnumChoice
	KindReference
	KindPointer
	KindNestedInstance
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "Primitive"
	case KindGUID:
		return "GUID"
	case KindString:
		return "String"
	case KindEnumChoice:
		return "EnumChoice"
	case KindReference:
		return "Reference"
	case KindPointer:
		return "Pointer"
	case KindNestedInstance:
		return "NestedInstance"
	case KindArray:
		return "Array"
	default:
		return "Unknown"
	}
}

// PointerValue is a resolvable (structure_index, instance_index) handle,
// the decoded form of a strong/weak pointer or a Class array element.
type PointerValue struct {
	StructureIndex uint32
	InstanceIndex  uint32
}

// ArrayValue describes an array-conversion property without eagerly
// resolving its elements (§4.5's lazy-decode policy). For a Class array,
// Pointers holds every element's handle directly, since that cost is
// just a slice of index pairs. For every other data type, elements are
// resolved on demand with (*File).ArrayElement(arr, prop, i), which reads
// pool index FirstIndex+i.
type ArrayValue struct {
	DataType   DataType
	Count      uint32
	FirstIndex uint32
	Pointers   []PointerValue // non-nil only when DataType == DataTypeClass
}

// Value is the polymorphic result of decoding one property, per §4.6 and
// the design notes' tagged-variant guidance. Only the field matching Kind
// is meaningful.
type Value struct {
	Kind     Kind
	DataType DataType

	// Primitive holds the Go-native decoded value for KindPrimitive:
	// bool, int8, int16, int32, int64, uint8, uint16, uint32, uint64,
	// float32, or float64, matching DataType.
	Primitive interface{}

	GUID GUID

	// Str holds the resolved text for KindString (string-ref/locale-ref)
	// and the symbolic option name for KindEnumChoice.
	Str string

	Reference Reference

	// Pointer is nil for a null strong/weak pointer (KindPointer).
	Pointer *PointerValue

	Nested *StructureInstance

	Array *ArrayValue
}

// PropertyValue pairs a decoded Value with the property name and
// definition it came from.
type PropertyValue struct {
	Name  string
	Def   PropertyDefinition
	Value Value
}

// StructureInstance is a lightweight handle over one instance's byte
// range: the structure it was decoded as, plus a view bounded to exactly
// that structure's calculatedDataSize. It never owns heap-allocated
// per-property data; every Value it produces borrows from the
// instance's own view or from the file's shared pools.
type StructureInstance struct {
	file           *File
	structureIndex uint32
	view           *byteview.View
}

func newStructureInstance(f *File, structureIndex uint32, data []byte) *StructureInstance {
	return &StructureInstance{file: f, structureIndex: structureIndex, view: byteview.NewView(data)}
}

// StructureIndex returns the structure type this instance was decoded as.
func (si *StructureInstance) StructureIndex() uint32 {
	return si.structureIndex
}

// Properties decodes the instance's full, inherited property list, in
// declaration order, consuming the instance's view from offset zero.
// The final cursor position must equal the view's length, or the
// instance's declared size disagrees with what reading its properties
// actually consumed.
func (si *StructureInstance) Properties() ([]PropertyValue, error) {
	defs, err := si.file.schema.fullProperties(si.structureIndex)
	if err != nil {
		return nil, err
	}

	si.view.Seek(0)
	out := make([]PropertyValue, 0, len(defs))
	for _, def := range defs {
		val, err := si.file.readProperty(si.view, def)
		if err != nil {
			return nil, err
		}
		name, err := si.file.stringAt(def.NameOffset)
		if err != nil {
			return nil, err
		}
		out = append(out, PropertyValue{Name: name, Def: def, Value: val})
	}

	if si.view.Pos() != si.view.Len() {
		return nil, fmt.Errorf("datacore: structure %d: consumed %d of %d declared bytes: %w",
			si.structureIndex, si.view.Pos(), si.view.Len(), ErrSchemaError)
	}
	return out, nil
}

// readProperty implements the §4.6 case analysis over (conversion_type,
// data_type), consuming v's cursor by exactly the property's slot size.
func (f *File) readProperty(v *byteview.View, prop PropertyDefinition) (Value, error) {
	switch {
	case prop.ConversionType == ConversionAttribute &&
		(prop.DataType == DataTypeStrongPointer || prop.DataType == DataTypeWeakPointer):
		return f.readPointerAttribute(v, prop)

	case prop.ConversionType == ConversionAttribute && prop.DataType == DataTypeClass:
		return f.readClassAttribute(v, prop)

	case prop.ConversionType == ConversionAttribute:
		return f.readScalarAttribute(v, prop)

	case prop.ConversionType.IsArray():
		return f.readArray(v, prop)

	default:
		return Value{}, fmt.Errorf("datacore: conversion %s / data type %s: %w", prop.ConversionType, prop.DataType, ErrSchemaError)
	}
}

func (f *File) readPointerAttribute(v *byteview.View, prop PropertyDefinition) (Value, error) {
	structureIndex, err := v.NextUint32()
	if err != nil {
		return Value{}, err
	}
	instanceIndex, err := v.NextUint32()
	if err != nil {
		return Value{}, err
	}
	val := Value{Kind: KindPointer, DataType: prop.DataType}
	if structureIndex != noParent || instanceIndex != noParent {
		val.Pointer = &PointerValue{StructureIndex: structureIndex, InstanceIndex: instanceIndex}
	}
	return val, nil
}

func (f *File) readClassAttribute(v *byteview.View, prop PropertyDefinition) (Value, error) {
	target := uint32(prop.StructureIndex)
	size, err := f.schema.calculatedDataSize(target)
	if err != nil {
		return Value{}, err
	}
	data, err := v.NextBytes(size)
	if err != nil {
		return Value{}, err
	}
	return Value{
		Kind:     KindNestedInstance,
		DataType: prop.DataType,
		Nested:   newStructureInstance(f, target, data),
	}, nil
}

func (f *File) readScalarAttribute(v *byteview.View, prop PropertyDefinition) (Value, error) {
	switch prop.DataType {
	case DataTypeBoolean:
		b, err := v.NextUint8()
		return Value{Kind: KindPrimitive, DataType: prop.DataType, Primitive: b != 0}, err
	case DataTypeInt8:
		b, err := v.NextUint8()
		return Value{Kind: KindPrimitive, DataType: prop.DataType, Primitive: int8(b)}, err
	case DataTypeUInt8:
		b, err := v.NextUint8()
		return Value{Kind: KindPrimitive, DataType: prop.DataType, Primitive: b}, err
	case DataTypeInt16:
		b, err := v.NextUint16()
		return Value{Kind: KindPrimitive, DataType: prop.DataType, Primitive: int16(b)}, err
	case DataTypeUInt16:
		b, err := v.NextUint16()
		return Value{Kind: KindPrimitive, DataType: prop.DataType, Primitive: b}, err
	case DataTypeInt32:
		b, err := v.NextUint32()
		return Value{Kind: KindPrimitive, DataType: prop.DataType, Primitive: int32(b)}, err
	case DataTypeUInt32:
		b, err := v.NextUint32()
		return Value{Kind: KindPrimitive, DataType: prop.DataType, Primitive: b}, err
	case DataTypeInt64:
		b, err := v.NextUint64()
		return Value{Kind: KindPrimitive, DataType: prop.DataType, Primitive: int64(b)}, err
	case DataTypeUInt64:
		b, err := v.NextUint64()
		return Value{Kind: KindPrimitive, DataType: prop.DataType, Primitive: b}, err
	case DataTypeFloat:
		b, err := v.NextUint32()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindPrimitive, DataType: prop.DataType, Primitive: math.Float32frombits(b)}, nil
	case DataTypeDouble:
		b, err := v.NextUint64()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindPrimitive, DataType: prop.DataType, Primitive: math.Float64frombits(b)}, nil
	case DataTypeGUID:
		raw, err := v.NextBytes(16)
		if err != nil {
			return Value{}, err
		}
		var g GUID
		copy(g[:], raw)
		return Value{Kind: KindGUID, DataType: prop.DataType, GUID: g}, nil
	case DataTypeStringRef, DataTypeLocale:
		off, err := v.NextUint32()
		if err != nil {
			return Value{}, err
		}
		s, err := f.stringAt(off)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindString, DataType: prop.DataType, Str: s}, nil
	case DataTypeEnumChoice:
		choiceIndex, err := v.NextUint32()
		if err != nil {
			return Value{}, err
		}
		name, err := f.resolveEnumChoice(uint32(prop.StructureIndex), choiceIndex)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindEnumChoice, DataType: prop.DataType, Str: name}, nil
	case DataTypeReference:
		instanceIndex, err := v.NextUint32()
		if err != nil {
			return Value{}, err
		}
		raw, err := v.NextBytes(16)
		if err != nil {
			return Value{}, err
		}
		var g GUID
		copy(g[:], raw)
		return Value{
			Kind:      KindReference,
			DataType:  prop.DataType,
			Reference: Reference{InstanceIndex: instanceIndex, Value: g},
		}, nil
	default:
		return Value{}, fmt.Errorf("datacore: attribute data type %s: %w", prop.DataType, ErrSchemaError)
	}
}

func (f *File) readArray(v *byteview.View, prop PropertyDefinition) (Value, error) {
	count, err := v.NextUint32()
	if err != nil {
		return Value{}, err
	}
	firstIndex, err := v.NextUint32()
	if err != nil {
		return Value{}, err
	}

	arr := &ArrayValue{DataType: prop.DataType, Count: count, FirstIndex: firstIndex}
	if prop.DataType == DataTypeClass {
		pointers := make([]PointerValue, count)
		for i := range pointers {
			pointers[i] = PointerValue{
				StructureIndex: uint32(prop.StructureIndex),
				InstanceIndex:  firstIndex + uint32(i),
			}
		}
		arr.Pointers = pointers
	}
	return Value{Kind: KindArray, DataType: prop.DataType, Array: arr}, nil
}
