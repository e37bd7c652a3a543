package datacore

import (
	"math"

	"github.com/ExterraGroup/scdatatools/internal/byteview"
)

// valuePools holds the nineteen flat, typed arrays that every instance
// property ultimately indexes into. They are read once, in the fixed
// payload order readValuePools uses (which differs from the order of the
// header's count fields), and never touched again except for positional
// lookup.
type valuePools struct {
	booleans []bool
	int8s    []int8
	int16s   []int16
	int32s   []int32
	int64s   []int64
	uint8s   []uint8
	uint16s  []uint16
	uint32s  []uint32
	uint64s  []uint64
	floats   []float32
	doubles  []float64
	guids    []GUID
	strings  []uint32 // string-ref pool: offsets into the trailing string pool
	locales  []uint32 // locale-ref pool: offsets into the trailing string pool
	enums    []uint32 // enum-choice pool: offsets into the trailing string pool
	strongs  []pointerRef
	weaks    []pointerRef
	refs     []Reference
	enumOpts []uint32 // enum-option-name pool: offsets into the trailing string pool
}

// pointerRef is the raw (structure_index, instance_index) pair shared by
// the strong-pointer and weak-pointer value pools.
type pointerRef struct {
	StructureIndex uint32
	InstanceIndex  uint32
}

// isNull reports whether both halves of the pair carry the null sentinel.
func (p pointerRef) isNull() bool {
	return p.StructureIndex == noParent && p.InstanceIndex == noParent
}

// Reference is a GUID-qualified pointer into another DCB file's record
// space: an instance index local to this file plus the GUID that should
// resolve against a record index (possibly this file's, possibly
// another's, per §4.6/§4.7).
type Reference struct {
	InstanceIndex uint32
	Value         GUID
}

func readValuePools(v *byteview.View, h header) (*valuePools, error) {
	p := &valuePools{}
	var err error

	// The payload layout does not follow the header's count-field order:
	// the signed/unsigned integer pools come first, with booleans
	// sandwiched between uint64 and float. See DESIGN.md.
	if p.int8s, err = readInt8Pool(v, h.int8Count); err != nil {
		return nil, err
	}
	if p.int16s, err = readInt16Pool(v, h.int16Count); err != nil {
		return nil, err
	}
	if p.int32s, err = readInt32Pool(v, h.int32Count); err != nil {
		return nil, err
	}
	if p.int64s, err = readInt64Pool(v, h.int64Count); err != nil {
		return nil, err
	}
	if p.uint8s, err = readUint8Pool(v, h.uint8Count); err != nil {
		return nil, err
	}
	if p.uint16s, err = readUint16Pool(v, h.uint16Count); err != nil {
		return nil, err
	}
	if p.uint32s, err = readUint32Pool(v, h.uint32Count); err != nil {
		return nil, err
	}
	if p.uint64s, err = readUint64Pool(v, h.uint64Count); err != nil {
		return nil, err
	}
	if p.booleans, err = readBoolPool(v, h.booleanCount); err != nil {
		return nil, err
	}
	if p.floats, err = readFloatPool(v, h.floatCount); err != nil {
		return nil, err
	}
	if p.doubles, err = readDoublePool(v, h.doubleCount); err != nil {
		return nil, err
	}
	if p.guids, err = readGUIDPool(v, h.guidCount); err != nil {
		return nil, err
	}
	if p.strings, err = readOffsetPool(v, h.stringCount); err != nil {
		return nil, err
	}
	if p.locales, err = readOffsetPool(v, h.localeCount); err != nil {
		return nil, err
	}
	if p.enums, err = readOffsetPool(v, h.enumCount); err != nil {
		return nil, err
	}
	if p.strongs, err = readPointerPool(v, h.strongValueCount); err != nil {
		return nil, err
	}
	if p.weaks, err = readPointerPool(v, h.weakValueCount); err != nil {
		return nil, err
	}
	if p.refs, err = readReferencePool(v, h.referenceCount); err != nil {
		return nil, err
	}
	if p.enumOpts, err = readOffsetPool(v, h.enumOptionCount); err != nil {
		return nil, err
	}

	return p, nil
}

func readBoolPool(v *byteview.View, count uint32) ([]bool, error) {
	out := make([]bool, count)
	for i := range out {
		b, err := v.NextUint8()
		if err != nil {
			return nil, err
		}
		out[i] = b != 0
	}
	return out, nil
}

func readInt8Pool(v *byteview.View, count uint32) ([]int8, error) {
	out := make([]int8, count)
	for i := range out {
		b, err := v.NextUint8()
		if err != nil {
			return nil, err
		}
		out[i] = int8(b)
	}
	return out, nil
}

func readInt16Pool(v *byteview.View, count uint32) ([]int16, error) {
	out := make([]int16, count)
	for i := range out {
		b, err := v.NextUint16()
		if err != nil {
			return nil, err
		}
		out[i] = int16(b)
	}
	return out, nil
}

func readInt32Pool(v *byteview.View, count uint32) ([]int32, error) {
	out := make([]int32, count)
	for i := range out {
		b, err := v.NextUint32()
		if err != nil {
			return nil, err
		}
		out[i] = int32(b)
	}
	return out, nil
}

func readInt64Pool(v *byteview.View, count uint32) ([]int64, error) {
	out := make([]int64, count)
	for i := range out {
		b, err := v.NextUint64()
		if err != nil {
			return nil, err
		}
		out[i] = int64(b)
	}
	return out, nil
}

func readUint8Pool(v *byteview.View, count uint32) ([]uint8, error) {
	out := make([]uint8, count)
	for i := range out {
		b, err := v.NextUint8()
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

func readUint16Pool(v *byteview.View, count uint32) ([]uint16, error) {
	out := make([]uint16, count)
	for i := range out {
		b, err := v.NextUint16()
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

func readUint32Pool(v *byteview.View, count uint32) ([]uint32, error) {
	out := make([]uint32, count)
	for i := range out {
		b, err := v.NextUint32()
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

func readUint64Pool(v *byteview.View, count uint32) ([]uint64, error) {
	out := make([]uint64, count)
	for i := range out {
		b, err := v.NextUint64()
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

func readFloatPool(v *byteview.View, count uint32) ([]float32, error) {
	out := make([]float32, count)
	for i := range out {
		b, err := v.NextUint32()
		if err != nil {
			return nil, err
		}
		out[i] = math.Float32frombits(b)
	}
	return out, nil
}

func readDoublePool(v *byteview.View, count uint32) ([]float64, error) {
	out := make([]float64, count)
	for i := range out {
		b, err := v.NextUint64()
		if err != nil {
			return nil, err
		}
		out[i] = math.Float64frombits(b)
	}
	return out, nil
}

func readGUIDPool(v *byteview.View, count uint32) ([]GUID, error) {
	out := make([]GUID, count)
	for i := range out {
		b, err := v.NextBytes(16)
		if err != nil {
			return nil, err
		}
		copy(out[i][:], b)
	}
	return out, nil
}

// readOffsetPool reads the string-ref, locale-ref, enum-choice, and
// enum-option-name pools, which are all a flat array of u32 string-pool
// offsets.
func readOffsetPool(v *byteview.View, count uint32) ([]uint32, error) {
	out := make([]uint32, count)
	for i := range out {
		b, err := v.NextUint32()
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

func readPointerPool(v *byteview.View, count uint32) ([]pointerRef, error) {
	out := make([]pointerRef, count)
	for i := range out {
		structureIndex, err := v.NextUint32()
		if err != nil {
			return nil, err
		}
		instanceIndex, err := v.NextUint32()
		if err != nil {
			return nil, err
		}
		out[i] = pointerRef{StructureIndex: structureIndex, InstanceIndex: instanceIndex}
	}
	return out, nil
}

func readReferencePool(v *byteview.View, count uint32) ([]Reference, error) {
	out := make([]Reference, count)
	for i := range out {
		instanceIndex, err := v.NextUint32()
		if err != nil {
			return nil, err
		}
		g, err := v.NextBytes(16)
		if err != nil {
			return nil, err
		}
		var guid GUID
		copy(guid[:], g)
		out[i] = Reference{InstanceIndex: instanceIndex, Value: guid}
	}
	return out, nil
}
