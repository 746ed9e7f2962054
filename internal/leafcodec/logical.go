package leafcodec

import (
	"github.com/scigolib/gbf"
	"github.com/scigolib/gbf/internal/gbferrs"
	"github.com/scigolib/gbf/internal/utils"
)

func encodeLogical(v *gbf.Value) (Encoded, error) {
	return Encoded{
		Kind:     "logical",
		Shape:    v.Shape(),
		Encoding: "bool-u8",
		Raw:      append([]byte(nil), v.LogicalData()...),
	}, nil
}

func decodeLogical(shape []uint64, raw []byte) (*gbf.Value, error) {
	n, err := utils.ElementCount(shape)
	if err != nil {
		return nil, gbferrs.FormatError("logical: invalid shape", err)
	}
	if uint64(len(raw)) != n {
		return nil, gbferrs.FieldSizeMismatch("logical", n, uint64(len(raw)))
	}
	return gbf.NewLogical(shape, raw)
}
