package leafcodec

import (
	"github.com/scigolib/gbf"
	"github.com/scigolib/gbf/internal/gbferrs"
)

func encodeEmptyStruct() (Encoded, error) {
	return Encoded{
		Kind:     "struct",
		Shape:    []uint64{1, 1},
		Encoding: "empty-scalar-struct",
		Raw:      nil,
	}, nil
}

func decodeEmptyStruct(shape []uint64, raw []byte) (*gbf.Value, error) {
	if len(raw) != 0 {
		return nil, gbferrs.FieldSizeMismatch("struct", 0, uint64(len(raw)))
	}
	return gbf.NewEmptyStruct(), nil
}
