package datacore

import (
	"fmt"

	"github.com/ExterraGroup/scdatatools/internal/byteview"
)

// StructureDefinition names a structure type, its optional parent (for
// property-set inheritance), and the slice of PropertyDefinition entries
// it declares directly (as opposed to the full, inherited list).
type StructureDefinition struct {
	NameOffset         uint32
	ParentIndex        uint32 // noParent (0xFFFFFFFF) if this structure has no parent
	PropertyCount      uint16
	FirstPropertyIndex uint16
	NodeType           uint32
}

// PropertyDefinition describes one slot of a structure instance.
//
// StructureIndex is overloaded by the wire format: for a Class-typed
// property (scalar or array), it names the embedded structure's type;
// for an EnumChoice-typed property it is read as the index of the
// EnumDefinition the choice is resolved against; for every other data
// type it is not read.
type PropertyDefinition struct {
	NameOffset     uint32
	StructureIndex uint16
	DataType       DataType
	ConversionType ConversionType
}

// EnumDefinition names an enumeration and the contiguous slice of the
// enum-option string pool holding its value names.
type EnumDefinition struct {
	NameOffset      uint32
	ValueCount      uint16
	FirstValueIndex uint16
}

// DataMappingDefinition says that the next StructureCount instance blobs
// in file order are instances of structure StructureIndex.
type DataMappingDefinition struct {
	StructureCount uint16
	StructureIndex uint16
}

func readStructureDefinitions(v *byteview.View, count uint32) ([]StructureDefinition, error) {
	out := make([]StructureDefinition, count)
	for i := range out {
		nameOffset, err := v.NextUint32()
		if err != nil {
			return nil, err
		}
		parentIndex, err := v.NextUint32()
		if err != nil {
			return nil, err
		}
		propertyCount, err := v.NextUint16()
		if err != nil {
			return nil, err
		}
		firstPropertyIndex, err := v.NextUint16()
		if err != nil {
			return nil, err
		}
		nodeType, err := v.NextUint32()
		if err != nil {
			return nil, err
		}
		out[i] = StructureDefinition{
			NameOffset:         nameOffset,
			ParentIndex:        parentIndex,
			PropertyCount:      propertyCount,
			FirstPropertyIndex: firstPropertyIndex,
			NodeType:           nodeType,
		}
	}
	return out, nil
}

func readPropertyDefinitions(v *byteview.View, count uint32) ([]PropertyDefinition, error) {
	out := make([]PropertyDefinition, count)
	for i := range out {
		nameOffset, err := v.NextUint32()
		if err != nil {
			return nil, err
		}
		structureIndex, err := v.NextUint16()
		if err != nil {
			return nil, err
		}
		dataType, err := v.NextUint16()
		if err != nil {
			return nil, err
		}
		conversionType, err := v.NextUint16()
		if err != nil {
			return nil, err
		}
		if _, err := v.NextUint16(); err != nil { // padding
			return nil, err
		}
		out[i] = PropertyDefinition{
			NameOffset:     nameOffset,
			StructureIndex: structureIndex,
			DataType:       DataType(dataType),
			ConversionType: ConversionType(conversionType),
		}
	}
	return out, nil
}

func readEnumDefinitions(v *byteview.View, count uint32) ([]EnumDefinition, error) {
	out := make([]EnumDefinition, count)
	for i := range out {
		nameOffset, err := v.NextUint32()
		if err != nil {
			return nil, err
		}
		valueCount, err := v.NextUint16()
		if err != nil {
			return nil, err
		}
		firstValueIndex, err := v.NextUint16()
		if err != nil {
			return nil, err
		}
		out[i] = EnumDefinition{NameOffset: nameOffset, ValueCount: valueCount, FirstValueIndex: firstValueIndex}
	}
	return out, nil
}

func readDataMappingDefinitions(v *byteview.View, count uint32) ([]DataMappingDefinition, error) {
	out := make([]DataMappingDefinition, count)
	for i := range out {
		structureCount, err := v.NextUint16()
		if err != nil {
			return nil, err
		}
		structureIndex, err := v.NextUint16()
		if err != nil {
			return nil, err
		}
		out[i] = DataMappingDefinition{StructureCount: structureCount, StructureIndex: structureIndex}
	}
	return out, nil
}

// schema holds the resolved definition tables and the caches needed to
// answer fullProperties/calculatedDataSize without re-walking a parent
// chain on every call — a Class-typed array property can otherwise
// revisit the same structure thousands of times across a large mapping.
type schema struct {
	structures   []StructureDefinition
	properties   []PropertyDefinition
	enums        []EnumDefinition
	dataMappings []DataMappingDefinition

	propsCache [][]PropertyDefinition
	// sizeCache[i] is -1 when unresolved, -2 while calculatedDataSize(i) is
	// on the call stack (a self-referencing Class chain), and the
	// resolved size otherwise.
	sizeCache []int64
}

const (
	sizeUnresolved = -1
	sizeComputing  = -2
)

func newSchema(structures []StructureDefinition, properties []PropertyDefinition, enums []EnumDefinition, dataMappings []DataMappingDefinition) *schema {
	s := &schema{
		structures:   structures,
		properties:   properties,
		enums:        enums,
		dataMappings: dataMappings,
		propsCache:   make([][]PropertyDefinition, len(structures)),
		sizeCache:    make([]int64, len(structures)),
	}
	for i := range s.sizeCache {
		s.sizeCache[i] = sizeUnresolved
	}
	return s
}

// fullProperties returns structureIndex's complete, inherited property
// list: its parent's full list, then its own slice, per §4.4. The parent
// chain must terminate within len(structures) hops or the schema is
// declared cyclic.
func (s *schema) fullProperties(structureIndex uint32) ([]PropertyDefinition, error) {
	if int(structureIndex) >= len(s.structures) {
		return nil, fmt.Errorf("datacore: structure index %d: %w", structureIndex, ErrOutOfBounds)
	}
	if cached := s.propsCache[structureIndex]; cached != nil {
		return cached, nil
	}

	var chain []uint32
	idx := structureIndex
	for {
		chain = append(chain, idx)
		if len(chain) > len(s.structures) {
			return nil, fmt.Errorf("datacore: structure %d: parent chain exceeds structure count: %w", structureIndex, ErrSchemaCycle)
		}
		parent := s.structures[idx].ParentIndex
		if parent == noParent {
			break
		}
		if int(parent) >= len(s.structures) {
			return nil, fmt.Errorf("datacore: structure %d: parent index %d: %w", idx, parent, ErrOutOfBounds)
		}
		idx = parent
	}

	var props []PropertyDefinition
	for i := len(chain) - 1; i >= 0; i-- {
		sd := s.structures[chain[i]]
		start := uint32(sd.FirstPropertyIndex)
		end := start + uint32(sd.PropertyCount)
		if end > uint32(len(s.properties)) {
			return nil, fmt.Errorf("datacore: structure %d: property range [%d:%d]: %w", chain[i], start, end, ErrOutOfBounds)
		}
		props = append(props, s.properties[start:end]...)
	}
	s.propsCache[structureIndex] = props
	return props, nil
}

// calculatedDataSize returns the fixed instance byte size of structureIndex,
// per the summation rule in §4.4.
func (s *schema) calculatedDataSize(structureIndex uint32) (uint32, error) {
	if int(structureIndex) >= len(s.sizeCache) {
		return 0, fmt.Errorf("datacore: structure index %d: %w", structureIndex, ErrOutOfBounds)
	}
	switch s.sizeCache[structureIndex] {
	case sizeComputing:
		return 0, fmt.Errorf("datacore: structure %d: size depends on itself: %w", structureIndex, ErrSchemaCycle)
	case sizeUnresolved:
		// fall through to compute below
	default:
		return uint32(s.sizeCache[structureIndex]), nil
	}

	s.sizeCache[structureIndex] = sizeComputing
	props, err := s.fullProperties(structureIndex)
	if err != nil {
		return 0, err
	}

	var size uint32
	for _, p := range props {
		switch {
		case p.ConversionType == ConversionAttribute && p.DataType == DataTypeClass:
			childSize, err := s.calculatedDataSize(uint32(p.StructureIndex))
			if err != nil {
				return 0, err
			}
			size += childSize
		case p.ConversionType == ConversionAttribute:
			sz, ok := p.DataType.primitiveSize()
			if !ok {
				return 0, fmt.Errorf("datacore: structure %d: property at name offset %d: data type %s: %w", structureIndex, p.NameOffset, p.DataType, ErrSchemaError)
			}
			size += sz
		default:
			// ComplexArray, SimpleArray, ClassArray: an 8-byte (count,
			// first_index) slot. (An Attribute StrongPointer/WeakPointer
			// takes the case above, where primitiveSize gives its 8-byte
			// (structure_index, instance_index) slot.)
			size += arrayPointerSize
		}
	}

	s.sizeCache[structureIndex] = int64(size)
	return size, nil
}
