package datacore

import (
	"encoding/json"
	"fmt"
)

// maxDumpDepth guards against a malformed or adversarial instance graph
// that isn't actually a DAG; per §4.7 the graph is a DAG in practice, so
// this limit is a backstop rather than an expected code path.
const maxDumpDepth = 64

// DumpRecordJSON serialises r's instance graph to JSON, mirroring the
// property graph per the policy in §4.7: scalars and strings serialise
// directly, GUIDs and enum choices to their canonical/symbolic string,
// references resolve inline when their GUID is a known record, pointers
// and nested instances become a single-key {structure_name: properties}
// object, and arrays become JSON arrays.
func (f *File) DumpRecordJSON(r Record) ([]byte, error) {
	v, err := f.dumpRecord(r, 0)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(v, "", "  ")
}

func (f *File) dumpRecord(r Record, depth int) (interface{}, error) {
	inst, err := f.Instance(r)
	if err != nil {
		return nil, err
	}
	return f.dumpInstance(inst, depth)
}

func (f *File) dumpInstance(si *StructureInstance, depth int) (interface{}, error) {
	if depth > maxDumpDepth {
		return nil, fmt.Errorf("datacore: instance graph exceeds depth %d: %w", maxDumpDepth, ErrSchemaError)
	}

	props, err := si.Properties()
	if err != nil {
		return nil, err
	}

	obj := make(map[string]interface{}, len(props))
	for _, pv := range props {
		val, err := f.dumpValue(pv.Value, pv.Def, depth)
		if err != nil {
			return nil, fmt.Errorf("datacore: property %q: %w", pv.Name, err)
		}
		obj[pv.Name] = val
	}

	name, err := f.structureName(si.structureIndex)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{name: obj}, nil
}

func (f *File) dumpValue(v Value, def PropertyDefinition, depth int) (interface{}, error) {
	switch v.Kind {
	case KindPrimitive:
		return v.Primitive, nil
	case KindGUID:
		return v.GUID.String(), nil
	case KindString, KindEnumChoice:
		return v.Str, nil
	case KindReference:
		if target := f.recordIndex.byGUID[v.Reference.Value]; target != nil {
			return f.dumpRecord(*target, depth+1)
		}
		// Unresolvable GUID: the source record isn't present in this
		// file's record table. Surface the raw reference instead of
		// failing the whole dump.
		return map[string]interface{}{
			"instance_index": v.Reference.InstanceIndex,
			"id":              v.Reference.Value.String(),
		}, nil
	case KindPointer:
		if v.Pointer == nil {
			return nil, nil
		}
		inst, err := f.Resolve(v.Pointer)
		if err != nil {
			return nil, err
		}
		return f.dumpInstance(inst, depth+1)
	case KindNestedInstance:
		return f.dumpInstance(v.Nested, depth+1)
	case KindArray:
		return f.dumpArray(v.Array, def, depth)
	default:
		return nil, fmt.Errorf("datacore: value kind %v: %w", v.Kind, ErrSchemaError)
	}
}

func (f *File) dumpArray(arr *ArrayValue, def PropertyDefinition, depth int) (interface{}, error) {
	out := make([]interface{}, arr.Count)
	for i := uint32(0); i < arr.Count; i++ {
		if arr.DataType == DataTypeClass {
			inst, err := f.Resolve(&arr.Pointers[i])
			if err != nil {
				return nil, err
			}
			v, err := f.dumpInstance(inst, depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = v
			continue
		}

		el, err := f.ArrayElement(arr, def, i)
		if err != nil {
			return nil, err
		}
		v, err := f.dumpValue(el, def, depth)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *File) structureName(structureIndex uint32) (string, error) {
	if int(structureIndex) >= len(f.schema.structures) {
		return "", fmt.Errorf("datacore: structure index %d: %w", structureIndex, ErrOutOfBounds)
	}
	return f.stringAt(f.schema.structures[structureIndex].NameOffset)
}
