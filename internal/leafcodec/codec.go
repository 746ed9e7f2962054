// Package leafcodec implements spec.md §4.1: encoding and decoding each
// GBF leaf kind to/from a flat little-endian byte blob. Dispatch is keyed
// on the "kind" string exactly as it is stored in the header's field
// table, mirroring the teacher's DatatypeClass switch
// (internal/core/datatype.go in the HDF5 reference).
package leafcodec

import (
	"github.com/scigolib/gbf"
	"github.com/scigolib/gbf/internal/gbferrs"
)

// Encoded is the flat byte-blob representation of one leaf, plus the
// descriptive fields the header's field table records alongside it.
type Encoded struct {
	Kind     string
	Class    string
	Shape    []uint64
	Complex  bool
	Encoding string
	Raw      []byte
}

// Encode dispatches on v.Kind() and produces the raw byte blob plus the
// descriptive tags the writer stores in the field table.
func Encode(v *gbf.Value) (Encoded, error) {
	switch v.Kind() {
	case gbf.KindStruct:
		if !v.IsEmptyStruct() {
			return Encoded{}, gbferrs.UnsupportedError("non-leaf struct reached the leaf encoder")
		}
		return encodeEmptyStruct()
	case gbf.KindNumeric:
		return encodeNumeric(v)
	case gbf.KindLogical:
		return encodeLogical(v)
	case gbf.KindChar:
		return encodeChar(v)
	case gbf.KindString:
		return encodeString(v)
	case gbf.KindDateTime:
		return encodeDateTime(v)
	case gbf.KindDuration:
		return encodeDuration(v)
	case gbf.KindCalendarDuration:
		return encodeCalendarDuration(v)
	case gbf.KindCategorical:
		return encodeCategorical(v)
	default:
		return Encoded{}, gbferrs.UnsupportedError("unknown value kind " + string(v.Kind()))
	}
}

// Decode dispatches on kind and reconstructs a Value from its raw bytes.
// When validate is true, categorical codes outside [0, len(categories)]
// are rejected (spec.md §9 Open Question: the reference decoder tolerates
// them, but validating reads should not).
func Decode(kind, class string, shape []uint64, complex bool, raw []byte, validate bool) (*gbf.Value, error) {
	switch kind {
	case "struct":
		return decodeEmptyStruct(shape, raw)
	case "numeric":
		return decodeNumeric(class, shape, complex, raw)
	case "logical":
		return decodeLogical(shape, raw)
	case "char":
		return decodeChar(shape, raw)
	case "string":
		return decodeString(shape, raw)
	case "datetime":
		return decodeDateTime(shape, raw)
	case "duration":
		return decodeDuration(shape, raw)
	case "calendar_duration":
		return decodeCalendarDuration(shape, raw)
	case "categorical":
		v, err := decodeCategorical(shape, raw)
		if err != nil {
			return nil, err
		}
		if validate {
			if err := gbf.ValidateCategorical(v); err != nil {
				return nil, err
			}
		}
		return v, nil
	default:
		return nil, gbferrs.FormatError("unknown field kind "+kind, nil)
	}
}
