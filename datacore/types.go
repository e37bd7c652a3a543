// Copyright (c) 2026 The ExterraGroup/scdatatools Authors. All rights
// reserved. Use of this source code is governed by a MIT-style license
// that can be found in the LICENSE file.

// Package datacore decodes DataCore Binary (DCB) containers: a
// self-describing schema-plus-instance format holding a large table of
// typed records with cross-references, inheritance of property sets,
// arrays of heterogeneous pointers, and a shared string pool.
package datacore

// DataType is the 16-bit type code carried by a PropertyDefinition.
type DataType uint16

// Primitive/reference data type codes, per the wire format.
const (
	DataTypeBoolean      DataType = 0x0001
	DataTypeInt8         DataType = 0x0002
	DataTypeInt16        DataType = 0x0003
	DataTypeInt32        DataType = 0x0004
	DataTypeInt64        DataType = 0x0005
	DataTypeUInt8        DataType = 0x0006
	DataTypeUInt16       DataType = 0x0007
	DataTypeUInt32       DataType = 0x0008
	DataTypeUInt64       DataType = 0x0009
	DataTypeStringRef    DataType = 0x000A
	DataTypeFloat        DataType = 0x000B
	DataTypeDouble       DataType = 0x000C
	DataTypeLocale       DataType = 0x000D
	DataTypeGUID         DataType = 0x000E
	DataTypeEnumChoice   DataType = 0x000F
	DataTypeClass        DataType = 0x0010
	DataTypeStrongPointer DataType = 0x0110
	DataTypeWeakPointer  DataType = 0x0210
	DataTypeReference    DataType = 0x0310

	// dataTypeEnumOption only ever appears as a value-pool key, never as
	// a PropertyDefinition.DataType; it shares the StringRef wire layout.
	dataTypeEnumOption DataType = 0xFFFE
)

var dataTypeNames = map[DataType]string{
	DataTypeBoolean:       "Boolean",
	DataTypeInt8:          "Int8",
	DataTypeInt16:         "Int16",
	DataTypeInt32:         "Int32",
	DataTypeInt64:         "Int64",
	DataTypeUInt8:         "UInt8",
	DataTypeUInt16:        "UInt16",
	DataTypeUInt32:        "UInt32",
	DataTypeUInt64:        "UInt64",
	DataTypeStringRef:     "StringRef",
	DataTypeFloat:         "Float",
	DataTypeDouble:        "Double",
	DataTypeLocale:        "Locale",
	DataTypeGUID:          "GUID",
	DataTypeEnumChoice:    "EnumChoice",
	DataTypeClass:         "Class",
	DataTypeStrongPointer: "StrongPointer",
	DataTypeWeakPointer:   "WeakPointer",
	DataTypeReference:     "Reference",
	dataTypeEnumOption:    "EnumOption",
}

// String implements fmt.Stringer for DataType, following the same
// map-lookup idiom the teacher uses for ImageDirectoryEntry.String().
func (d DataType) String() string {
	if name, ok := dataTypeNames[d]; ok {
		return name
	}
	return "Unknown"
}

// primitiveSize returns the fixed wire size, in bytes, of a primitive or
// reference data type's Attribute slot. It is not valid for DataTypeClass,
// whose size is computed recursively from the target structure.
func (d DataType) primitiveSize() (uint32, bool) {
	switch d {
	case DataTypeInt8, DataTypeUInt8, DataTypeBoolean:
		return 1, true
	case DataTypeInt16, DataTypeUInt16:
		return 2, true
	case DataTypeInt32, DataTypeUInt32, DataTypeFloat,
		DataTypeStringRef, DataTypeLocale, DataTypeEnumChoice:
		return 4, true
	case DataTypeInt64, DataTypeUInt64, DataTypeDouble:
		return 8, true
	case DataTypeGUID:
		return 16, true
	case DataTypeReference:
		return 20, true
	case DataTypeStrongPointer, DataTypeWeakPointer:
		return 8, true
	default:
		return 0, false
	}
}

// ConversionType is the 16-bit code describing the shape of a property
// slot: scalar, or one of three array conversions.
type ConversionType uint16

const (
	ConversionAttribute    ConversionType = 0
	ConversionComplexArray ConversionType = 1
	ConversionSimpleArray  ConversionType = 2
	ConversionClassArray   ConversionType = 3
)

var conversionTypeNames = map[ConversionType]string{
	ConversionAttribute:    "Attribute",
	ConversionComplexArray: "ComplexArray",
	ConversionSimpleArray:  "SimpleArray",
	ConversionClassArray:   "ClassArray",
}

func (c ConversionType) String() string {
	if name, ok := conversionTypeNames[c]; ok {
		return name
	}
	return "Unknown"
}

// IsArray reports whether c is one of the three array conversions
// (ComplexArray, SimpleArray, ClassArray), as opposed to a scalar Attribute.
func (c ConversionType) IsArray() bool {
	return c == ConversionComplexArray || c == ConversionSimpleArray || c == ConversionClassArray
}

// noParent is the sentinel meaning "no parent structure" / "null pointer"
// wherever a 32-bit index field appears in the DCB wire format.
const noParent = 0xFFFFFFFF

// arrayPointerSize is the wire size of an array conversion's slot: a
// (count:u32, first_index:u32) pair.
const arrayPointerSize = 8
