package cryxml

import "github.com/ExterraGroup/scdatatools/internal/byteview"

// node is one entry of the 28-byte node table. The trailing 4-byte
// "reserved" field is read and discarded: per the documented open
// question it is a producer/consumer mismatch with upstream
// documentation, treated as padding.
type node struct {
	tagOffset           uint32
	contentOffset       uint32
	attributeCount      uint16
	childCount          uint16
	parentIndex         uint32
	firstAttributeIndex uint32
	firstChildIndex     uint32
}

const rootParentIndex = 0xFFFFFFFF

func readNodes(v *byteview.View, count uint32) ([]node, error) {
	out := make([]node, count)
	for i := range out {
		tagOffset, err := v.NextUint32()
		if err != nil {
			return nil, err
		}
		contentOffset, err := v.NextUint32()
		if err != nil {
			return nil, err
		}
		attributeCount, err := v.NextUint16()
		if err != nil {
			return nil, err
		}
		childCount, err := v.NextUint16()
		if err != nil {
			return nil, err
		}
		parentIndex, err := v.NextUint32()
		if err != nil {
			return nil, err
		}
		firstAttributeIndex, err := v.NextUint32()
		if err != nil {
			return nil, err
		}
		firstChildIndex, err := v.NextUint32()
		if err != nil {
			return nil, err
		}
		if _, err := v.NextUint32(); err != nil { // reserved
			return nil, err
		}
		out[i] = node{
			tagOffset:           tagOffset,
			contentOffset:       contentOffset,
			attributeCount:      attributeCount,
			childCount:          childCount,
			parentIndex:         parentIndex,
			firstAttributeIndex: firstAttributeIndex,
			firstChildIndex:     firstChildIndex,
		}
	}
	return out, nil
}

// attribute is one entry of the 8-byte attribute table: a name offset
// and a value offset, both into the string pool.
type attribute struct {
	nameOffset  uint32
	valueOffset uint32
}

func readAttributes(v *byteview.View, count uint32) ([]attribute, error) {
	out := make([]attribute, count)
	for i := range out {
		nameOffset, err := v.NextUint32()
		if err != nil {
			return nil, err
		}
		valueOffset, err := v.NextUint32()
		if err != nil {
			return nil, err
		}
		out[i] = attribute{nameOffset: nameOffset, valueOffset: valueOffset}
	}
	return out, nil
}

func readChildTable(v *byteview.View, count uint32) ([]uint32, error) {
	out := make([]uint32, count)
	for i := range out {
		idx, err := v.NextUint32()
		if err != nil {
			return nil, err
		}
		out[i] = idx
	}
	return out, nil
}
