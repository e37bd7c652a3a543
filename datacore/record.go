package datacore

import (
	"fmt"
	"path"
	"strings"

	"github.com/ExterraGroup/scdatatools/internal/byteview"
)

// Record is a named, GUID-identified top-level handle onto a structure
// instance. OtherIndex is read and kept but never interpreted: the
// source format doesn't use it either.
type Record struct {
	NameOffset     uint32
	FilenameOffset uint32
	StructureIndex uint32
	ID             GUID
	InstanceIndex  uint16
	OtherIndex     uint16
}

func readRecords(v *byteview.View, count uint32) ([]Record, error) {
	out := make([]Record, count)
	for i := range out {
		nameOffset, err := v.NextUint32()
		if err != nil {
			return nil, err
		}
		filenameOffset, err := v.NextUint32()
		if err != nil {
			return nil, err
		}
		structureIndex, err := v.NextUint32()
		if err != nil {
			return nil, err
		}
		idBytes, err := v.NextBytes(16)
		if err != nil {
			return nil, err
		}
		instanceIndex, err := v.NextUint16()
		if err != nil {
			return nil, err
		}
		otherIndex, err := v.NextUint16()
		if err != nil {
			return nil, err
		}
		var id GUID
		copy(id[:], idBytes)
		out[i] = Record{
			NameOffset:     nameOffset,
			FilenameOffset: filenameOffset,
			StructureIndex: structureIndex,
			ID:             id,
			InstanceIndex:  instanceIndex,
			OtherIndex:     otherIndex,
		}
	}
	return out, nil
}

// recordIndex is the GUID index built over the record table at load
// (§4.7). Filename search has no index: SearchFilename scans the record
// table on each call.
type recordIndex struct {
	byGUID map[GUID]*Record
}

func buildRecordIndex(records []Record) *recordIndex {
	idx := &recordIndex{byGUID: make(map[GUID]*Record, len(records))}
	for i := range records {
		idx.byGUID[records[i].ID] = &records[i]
	}
	return idx
}

// RecordByGUID returns the record with the given id, or nil if none
// matches.
func (f *File) RecordByGUID(id GUID) *Record {
	return f.recordIndex.byGUID[id]
}

// Records returns every record in the file, in table order.
func (f *File) Records() []Record {
	return f.records
}

// SearchFilename returns every record whose resolved filename matches
// glob, a shell-style pattern in which '*' and '?' also match '/'.
// Backslashes in both the pattern and the candidate filename are
// normalised to forward slashes first. Match is case-insensitive unless
// caseSensitive is true.
func (f *File) SearchFilename(glob string, caseSensitive bool) ([]*Record, error) {
	// path.Match never lets a wildcard cross '/', so separators are
	// swapped for NUL (which no pool string contains) on both sides.
	pattern := strings.ReplaceAll(filepath2slash(glob), "/", "\x00")
	if !caseSensitive {
		pattern = strings.ToLower(pattern)
	}

	var matches []*Record
	for i := range f.records {
		name, err := f.stringAt(f.records[i].FilenameOffset)
		if err != nil {
			return nil, fmt.Errorf("datacore: record %d filename: %w", i, err)
		}
		candidate := strings.ReplaceAll(filepath2slash(name), "/", "\x00")
		if !caseSensitive {
			candidate = strings.ToLower(candidate)
		}
		ok, err := path.Match(pattern, candidate)
		if err != nil {
			return nil, fmt.Errorf("datacore: bad glob %q: %w", glob, err)
		}
		if ok {
			matches = append(matches, &f.records[i])
		}
	}
	return matches, nil
}

func filepath2slash(s string) string {
	return strings.ReplaceAll(s, `\`, "/")
}
