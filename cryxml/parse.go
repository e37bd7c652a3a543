package cryxml

import (
	"fmt"

	"github.com/ExterraGroup/scdatatools/internal/byteview"
	"github.com/ExterraGroup/scdatatools/internal/strpool"
)

// Parse decodes data through builder. If data carries the CryXmlB
// signature it is decoded as a tokenised binary document; if it instead
// starts with '<' it falls back to a standard XML parse through the same
// builder; any other leading byte fails with ErrBadSignature.
func Parse(data []byte, builder Builder) error {
	if IsCryXmlB(data) {
		return parseBinary(data, builder)
	}
	if len(data) > 0 && data[0] == '<' {
		return parseXML(data, builder)
	}
	return ErrBadSignature
}

// maxWalkDepth bounds the binary tree walk. The node/child-index tables
// are supposed to encode a tree rooted at node 0 (§3); this is a
// backstop against a malformed file whose child table cycles.
const maxWalkDepth = 4096

func parseBinary(data []byte, builder Builder) error {
	v := byteview.NewView(data)
	h, err := readHeader(v)
	if err != nil {
		return fmt.Errorf("cryxml: header: %w", err)
	}

	nodesView, err := v.Sub(h.nodeTableOffset, h.nodeCount*28)
	if err != nil {
		return fmt.Errorf("cryxml: node table: %w", err)
	}
	nodes, err := readNodes(nodesView, h.nodeCount)
	if err != nil {
		return fmt.Errorf("cryxml: node table: %w", err)
	}

	attrsView, err := v.Sub(h.attributesTableOffset, h.attributesCount*8)
	if err != nil {
		return fmt.Errorf("cryxml: attribute table: %w", err)
	}
	attrs, err := readAttributes(attrsView, h.attributesCount)
	if err != nil {
		return fmt.Errorf("cryxml: attribute table: %w", err)
	}

	childView, err := v.Sub(h.childTableOffset, h.childTableCount*4)
	if err != nil {
		return fmt.Errorf("cryxml: child-index table: %w", err)
	}
	childTable, err := readChildTable(childView, h.childTableCount)
	if err != nil {
		return fmt.Errorf("cryxml: child-index table: %w", err)
	}

	strings, err := v.ReadBytes(h.stringDataOffset, h.stringDataSize)
	if err != nil {
		return fmt.Errorf("cryxml: string pool: %w", err)
	}

	w := &walker{nodes: nodes, attrs: attrs, childTable: childTable, strings: strings, builder: builder}
	if len(nodes) == 0 {
		return nil
	}
	return w.walk(0, 0)
}

type walker struct {
	nodes      []node
	attrs      []attribute
	childTable []uint32
	strings    []byte
	builder    Builder
}

func (w *walker) stringAt(offset uint32) (string, error) {
	s, err := strpool.StringAt(w.strings, offset)
	if err != nil {
		return "", fmt.Errorf("cryxml: %w", errJoin(err))
	}
	return s, nil
}

// errJoin maps the shared strpool sentinels onto this package's own, so
// callers checking errors.Is against cryxml.ErrInvalidString don't need
// to know strpool is involved.
func errJoin(err error) error {
	switch err {
	case strpool.ErrInvalidString:
		return ErrInvalidString
	case strpool.ErrInvalidUTF8:
		return ErrInvalidString
	default:
		return err
	}
}

func (w *walker) walk(nodeIndex uint32, depth int) error {
	if depth > maxWalkDepth {
		return fmt.Errorf("cryxml: walk exceeds depth %d: %w", maxWalkDepth, ErrOutOfBounds)
	}
	if int(nodeIndex) >= len(w.nodes) {
		return fmt.Errorf("cryxml: node index %d: %w", nodeIndex, ErrOutOfBounds)
	}
	n := w.nodes[nodeIndex]

	tag, err := w.stringAt(n.tagOffset)
	if err != nil {
		return err
	}

	attrs := make([]Attr, n.attributeCount)
	for i := uint32(0); i < uint32(n.attributeCount); i++ {
		idx := n.firstAttributeIndex + i
		if int(idx) >= len(w.attrs) {
			return fmt.Errorf("cryxml: node %d attribute %d: %w", nodeIndex, idx, ErrOutOfBounds)
		}
		a := w.attrs[idx]
		name, err := w.stringAt(a.nameOffset)
		if err != nil {
			return err
		}
		value, err := w.stringAt(a.valueOffset)
		if err != nil {
			return err
		}
		attrs[i] = Attr{Name: name, Value: value}
	}

	if err := w.builder.StartElement(tag, attrs); err != nil {
		return err
	}

	content, err := w.stringAt(n.contentOffset)
	if err != nil {
		return err
	}
	if content != "" {
		if err := w.builder.Text(content); err != nil {
			return err
		}
	}

	for i := uint32(0); i < uint32(n.childCount); i++ {
		ci := n.firstChildIndex + i
		if int(ci) >= len(w.childTable) {
			return fmt.Errorf("cryxml: node %d child slot %d: %w", nodeIndex, ci, ErrOutOfBounds)
		}
		if err := w.walk(w.childTable[ci], depth+1); err != nil {
			return err
		}
	}

	return w.builder.EndElement(tag)
}
