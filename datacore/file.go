// Copyright (c) 2026 The ExterraGroup/scdatatools Authors. All rights
// reserved. Use of this source code is governed by a MIT-style license
// that can be found in the LICENSE file.

package datacore

import (
	"fmt"

	"github.com/ExterraGroup/scdatatools/internal/byteview"
	"github.com/ExterraGroup/scdatatools/internal/strpool"
	"github.com/ExterraGroup/scdatatools/log"
)

// Options configures a File load. A nil *Options (or a nil Logger field)
// is valid throughout this package; logging is always optional.
type Options struct {
	// Logger receives load-time diagnostics. Defaults to a discarding
	// logger when nil.
	Logger *log.Helper
}

func (o *Options) logger() *log.Helper {
	if o == nil || o.Logger == nil {
		return log.NewHelper(nil)
	}
	return o.Logger
}

// File is the top-level handle onto a loaded DCB container: the owning
// memory map, the resolved schema, the nineteen value pools, the string
// pool, and the record index. Every StructureInstance and Value it hands
// out borrows from this File's backing bytes and is valid only as long
// as the File remains open.
type File struct {
	mapping *byteview.Mapping
	header  header
	schema  *schema
	pools   *valuePools
	strings []byte

	records     []Record
	recordIndex *recordIndex

	tail []byte // the structure-instance-blobs region, by position from its start
	// instanceOffsets[structureIndex] holds, in instance-index order, each
	// instance's byte offset into tail.
	instanceOffsets [][]uint32

	log *log.Helper
}

// New memory-maps the file at path and loads it as a DCB container.
func New(path string, opts *Options) (*File, error) {
	m, err := byteview.Open(path)
	if err != nil {
		return nil, fmt.Errorf("datacore: open %s: %w", path, err)
	}
	f, err := load(m, opts)
	if err != nil {
		m.Close()
		return nil, err
	}
	return f, nil
}

// NewBytes loads data already held in memory (e.g. extracted from a P4K
// archive) as a DCB container, without touching the filesystem.
func NewBytes(data []byte, opts *Options) (*File, error) {
	return load(byteview.FromBytes(data), opts)
}

func load(m *byteview.Mapping, opts *Options) (*File, error) {
	logger := opts.logger()
	v := m.View()

	h, err := readHeader(v)
	if err != nil {
		return nil, fmt.Errorf("datacore: header: %w", err)
	}

	structures, err := readStructureDefinitions(v, h.structureDefinitionCount)
	if err != nil {
		return nil, fmt.Errorf("datacore: structure definitions: %w", err)
	}
	properties, err := readPropertyDefinitions(v, h.propertyDefinitionCount)
	if err != nil {
		return nil, fmt.Errorf("datacore: property definitions: %w", err)
	}
	enums, err := readEnumDefinitions(v, h.enumDefinitionCount)
	if err != nil {
		return nil, fmt.Errorf("datacore: enum definitions: %w", err)
	}
	dataMappings, err := readDataMappingDefinitions(v, h.dataMappingDefinitionCount)
	if err != nil {
		return nil, fmt.Errorf("datacore: data mapping definitions: %w", err)
	}
	records, err := readRecords(v, h.recordDefinitionCount)
	if err != nil {
		return nil, fmt.Errorf("datacore: record definitions: %w", err)
	}

	sch := newSchema(structures, properties, enums, dataMappings)

	pools, err := readValuePools(v, h)
	if err != nil {
		return nil, fmt.Errorf("datacore: value pools: %w", err)
	}

	strs, err := v.NextBytes(h.textLength)
	if err != nil {
		return nil, fmt.Errorf("datacore: string pool: %w", err)
	}

	tail := v.Bytes()[v.Pos():]

	instanceOffsets := make([][]uint32, len(structures))
	var cursor uint32
	for _, dm := range dataMappings {
		size, err := sch.calculatedDataSize(uint32(dm.StructureIndex))
		if err != nil {
			return nil, fmt.Errorf("datacore: data mapping for structure %d: %w", dm.StructureIndex, err)
		}
		for i := 0; i < int(dm.StructureCount); i++ {
			if int(dm.StructureIndex) >= len(instanceOffsets) {
				return nil, fmt.Errorf("datacore: data mapping structure index %d: %w", dm.StructureIndex, ErrOutOfBounds)
			}
			instanceOffsets[dm.StructureIndex] = append(instanceOffsets[dm.StructureIndex], cursor)
			cursor += size
		}
	}
	if uint64(cursor) > uint64(len(tail)) {
		return nil, fmt.Errorf("datacore: mapped instance region needs %d bytes, file has %d: %w", cursor, len(tail), ErrTruncated)
	}

	f := &File{
		mapping:         m,
		header:          h,
		schema:          sch,
		pools:           pools,
		strings:         strs,
		records:         records,
		recordIndex:     buildRecordIndex(records),
		tail:            tail,
		instanceOffsets: instanceOffsets,
		log:             logger,
	}
	logger.Infof("datacore: loaded %d records, %d structures", len(records), len(structures))
	return f, nil
}

// Close unmaps the underlying file. Every StructureInstance and Value
// obtained from f becomes invalid.
func (f *File) Close() error {
	return f.mapping.Close()
}

func (f *File) stringAt(offset uint32) (string, error) {
	return strpool.StringAt(f.strings, offset)
}

func (f *File) resolveEnumChoice(enumIndex, choiceOffset uint32) (string, error) {
	if int(enumIndex) >= len(f.schema.enums) {
		return "", fmt.Errorf("datacore: enum index %d: %w", enumIndex, ErrOutOfBounds)
	}
	def := f.schema.enums[enumIndex]
	lo := uint32(def.FirstValueIndex)
	hi := lo + uint32(def.ValueCount)
	if int(hi) > len(f.pools.enumOpts) {
		return "", fmt.Errorf("datacore: enum %d option range [%d,%d): %w", enumIndex, lo, hi, ErrOutOfBounds)
	}
	name, err := f.stringAt(choiceOffset)
	if err != nil {
		return "", err
	}
	for _, off := range f.pools.enumOpts[lo:hi] {
		if opt, err := f.stringAt(off); err == nil && opt == name {
			return name, nil
		}
	}
	return "", fmt.Errorf("datacore: enum choice %q is not an option of enum %d: %w", name, enumIndex, ErrSchemaError)
}

// instanceData returns the byte range for instance instanceIndex of
// structureIndex within the mapped instance region.
func (f *File) instanceData(structureIndex, instanceIndex uint32) ([]byte, error) {
	if int(structureIndex) >= len(f.instanceOffsets) {
		return nil, fmt.Errorf("datacore: structure index %d: %w", structureIndex, ErrOutOfBounds)
	}
	offsets := f.instanceOffsets[structureIndex]
	if int(instanceIndex) >= len(offsets) {
		return nil, fmt.Errorf("datacore: structure %d instance %d: %w", structureIndex, instanceIndex, ErrOutOfBounds)
	}
	size, err := f.schema.calculatedDataSize(structureIndex)
	if err != nil {
		return nil, err
	}
	start := offsets[instanceIndex]
	end := uint64(start) + uint64(size)
	if end > uint64(len(f.tail)) {
		return nil, fmt.Errorf("datacore: structure %d instance %d: %w", structureIndex, instanceIndex, ErrOutOfBounds)
	}
	return f.tail[start:end], nil
}

// Instance materialises the structure instance a record points to.
func (f *File) Instance(r Record) (*StructureInstance, error) {
	data, err := f.instanceData(r.StructureIndex, uint32(r.InstanceIndex))
	if err != nil {
		return nil, fmt.Errorf("datacore: record %d: %w", r.NameOffset, err)
	}
	return newStructureInstance(f, r.StructureIndex, data), nil
}

// Resolve materialises the structure instance a strong/weak pointer or
// Class-array element refers to. Returns nil if p is nil (a null
// pointer).
func (f *File) Resolve(p *PointerValue) (*StructureInstance, error) {
	if p == nil {
		return nil, nil
	}
	data, err := f.instanceData(p.StructureIndex, p.InstanceIndex)
	if err != nil {
		return nil, err
	}
	return newStructureInstance(f, p.StructureIndex, data), nil
}

// ArrayElement resolves element i (0-based) of a non-Class array value
// decoded from prop. Class arrays never need this: their elements are
// already materialised as PointerValue handles in ArrayValue.Pointers.
func (f *File) ArrayElement(arr *ArrayValue, prop PropertyDefinition, i uint32) (Value, error) {
	if i >= arr.Count {
		return Value{}, fmt.Errorf("datacore: array element %d of %d: %w", i, arr.Count, ErrOutOfBounds)
	}
	idx := arr.FirstIndex + i

	switch arr.DataType {
	case DataTypeBoolean:
		v, err := poolAt(f.pools.booleans, idx)
		return Value{Kind: KindPrimitive, DataType: arr.DataType, Primitive: v}, err
	case DataTypeInt8:
		v, err := poolAt(f.pools.int8s, idx)
		return Value{Kind: KindPrimitive, DataType: arr.DataType, Primitive: v}, err
	case DataTypeUInt8:
		v, err := poolAt(f.pools.uint8s, idx)
		return Value{Kind: KindPrimitive, DataType: arr.DataType, Primitive: v}, err
	case DataTypeInt16:
		v, err := poolAt(f.pools.int16s, idx)
		return Value{Kind: KindPrimitive, DataType: arr.DataType, Primitive: v}, err
	case DataTypeUInt16:
		v, err := poolAt(f.pools.uint16s, idx)
		return Value{Kind: KindPrimitive, DataType: arr.DataType, Primitive: v}, err
	case DataTypeInt32:
		v, err := poolAt(f.pools.int32s, idx)
		return Value{Kind: KindPrimitive, DataType: arr.DataType, Primitive: v}, err
	case DataTypeUInt32:
		v, err := poolAt(f.pools.uint32s, idx)
		return Value{Kind: KindPrimitive, DataType: arr.DataType, Primitive: v}, err
	case DataTypeInt64:
		v, err := poolAt(f.pools.int64s, idx)
		return Value{Kind: KindPrimitive, DataType: arr.DataType, Primitive: v}, err
	case DataTypeUInt64:
		v, err := poolAt(f.pools.uint64s, idx)
		return Value{Kind: KindPrimitive, DataType: arr.DataType, Primitive: v}, err
	case DataTypeFloat:
		v, err := poolAt(f.pools.floats, idx)
		return Value{Kind: KindPrimitive, DataType: arr.DataType, Primitive: v}, err
	case DataTypeDouble:
		v, err := poolAt(f.pools.doubles, idx)
		return Value{Kind: KindPrimitive, DataType: arr.DataType, Primitive: v}, err
	case DataTypeGUID:
		v, err := poolAt(f.pools.guids, idx)
		return Value{Kind: KindGUID, DataType: arr.DataType, GUID: v}, err
	case DataTypeStringRef:
		off, err := poolAt(f.pools.strings, idx)
		if err != nil {
			return Value{}, err
		}
		s, err := f.stringAt(off)
		return Value{Kind: KindString, DataType: arr.DataType, Str: s}, err
	case DataTypeLocale:
		off, err := poolAt(f.pools.locales, idx)
		if err != nil {
			return Value{}, err
		}
		s, err := f.stringAt(off)
		return Value{Kind: KindString, DataType: arr.DataType, Str: s}, err
	case DataTypeEnumChoice:
		choiceIndex, err := poolAt(f.pools.enums, idx)
		if err != nil {
			return Value{}, err
		}
		name, err := f.resolveEnumChoice(uint32(prop.StructureIndex), choiceIndex)
		return Value{Kind: KindEnumChoice, DataType: arr.DataType, Str: name}, err
	case DataTypeStrongPointer:
		v, err := poolAt(f.pools.strongs, idx)
		if err != nil {
			return Value{}, err
		}
		val := Value{Kind: KindPointer, DataType: arr.DataType}
		if !v.isNull() {
			val.Pointer = &PointerValue{StructureIndex: v.StructureIndex, InstanceIndex: v.InstanceIndex}
		}
		return val, nil
	case DataTypeWeakPointer:
		v, err := poolAt(f.pools.weaks, idx)
		if err != nil {
			return Value{}, err
		}
		val := Value{Kind: KindPointer, DataType: arr.DataType}
		if !v.isNull() {
			val.Pointer = &PointerValue{StructureIndex: v.StructureIndex, InstanceIndex: v.InstanceIndex}
		}
		return val, nil
	case DataTypeReference:
		v, err := poolAt(f.pools.refs, idx)
		return Value{Kind: KindReference, DataType: arr.DataType, Reference: v}, err
	default:
		return Value{}, fmt.Errorf("datacore: array element data type %s: %w", arr.DataType, ErrSchemaError)
	}
}

func poolAt[T any](pool []T, index uint32) (T, error) {
	var zero T
	if int(index) >= len(pool) {
		return zero, ErrOutOfBounds
	}
	return pool[index], nil
}
