package p4k

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// buildCryXmlPayload assembles a minimal single-element CryXmlB document
// ("<root/>"), matching the fixture style used across this module's
// synthetic test data.
func buildCryXmlPayload() []byte {
	var buf []byte
	u16 := func(v uint16) {
		var tmp [2]byte
		binary.LittleEndian.PutUint16(tmp[:], v)
		buf = append(buf, tmp[:]...)
	}
	u32 := func(v uint32) {
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], v)
		buf = append(buf, tmp[:]...)
	}

	// String pool: offset 0 is "root", offset 5 is the empty string (an
	// immediate NUL) used as the node's content.
	strPool := []byte("root\x00\x00")
	const contentOffset = 5

	const (
		hdrSize  = 8 + 9*4
		nodeSize = 28
	)
	nodeTableOffset := uint32(hdrSize)
	attrTableOffset := nodeTableOffset + nodeSize
	childTableOffset := attrTableOffset // zero attributes, zero children

	buf = append(buf, []byte("CryXmlB\x00")...)
	u32(0)
	u32(nodeTableOffset)
	u32(1) // node_count
	u32(attrTableOffset)
	u32(0) // attributes_count
	u32(childTableOffset)
	u32(0) // child_table_count
	u32(childTableOffset)
	u32(uint32(len(strPool)))

	u32(0)             // tag offset -> "root"
	u32(contentOffset) // content offset -> ""
	u16(0)             // attribute count
	u16(0)             // child count
	u32(rootParentIndexForTest)
	u32(0) // first attribute index
	u32(0) // first child index
	u32(0) // reserved

	buf = append(buf, strPool...)
	return buf
}

const rootParentIndexForTest = 0xFFFFFFFF

func TestExtractConvertCryXMLWritesSidecar(t *testing.T) {
	payload := buildCryXmlPayload()
	data := buildArchive(t, []fileSpec{
		{name: "entity.xml", payload: payload, method: compressStore},
	})

	a, err := OpenBytes(data, nil)
	if err != nil {
		t.Fatalf("OpenBytes failed: %v", err)
	}

	dir := t.TempDir()
	dest := filepath.Join(dir, "entity.xml")
	if err := a.Extract(a.Entries()[0], dest, &ExtractOptions{ConvertCryXML: true}); err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if _, err := os.Stat(dest); err != nil {
		t.Errorf("extracted file missing: %v", err)
	}
	sidecar := dest + ".json"
	sidecarData, err := os.ReadFile(sidecar)
	if err != nil {
		t.Fatalf("sidecar file missing: %v", err)
	}
	if len(sidecarData) == 0 {
		t.Errorf("sidecar file is empty")
	}
}

func TestExtractWithoutConvertSkipsSidecar(t *testing.T) {
	payload := buildCryXmlPayload()
	data := buildArchive(t, []fileSpec{
		{name: "entity.xml", payload: payload, method: compressStore},
	})

	a, err := OpenBytes(data, nil)
	if err != nil {
		t.Fatalf("OpenBytes failed: %v", err)
	}

	dir := t.TempDir()
	dest := filepath.Join(dir, "entity.xml")
	if err := a.Extract(a.Entries()[0], dest, nil); err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if _, err := os.Stat(dest + ".json"); err == nil {
		t.Errorf("sidecar file written when ConvertCryXML was not set")
	}
}
