package leafcodec

import (
	"encoding/binary"

	"github.com/scigolib/gbf"
	"github.com/scigolib/gbf/internal/gbferrs"
	"github.com/scigolib/gbf/internal/utils"
)

func encodeChar(v *gbf.Value) (Encoded, error) {
	data := v.CharData()
	raw := make([]byte, len(data)*2)
	for i, u := range data {
		binary.LittleEndian.PutUint16(raw[i*2:], u)
	}
	return Encoded{
		Kind:     "char",
		Shape:    v.Shape(),
		Encoding: "utf16-le",
		Raw:      raw,
	}, nil
}

func decodeChar(shape []uint64, raw []byte) (*gbf.Value, error) {
	n, err := utils.ElementCount(shape)
	if err != nil {
		return nil, gbferrs.FormatError("char: invalid shape", err)
	}
	want := n * 2
	if uint64(len(raw)) != want {
		return nil, gbferrs.FieldSizeMismatch("char", want, uint64(len(raw)))
	}

	data := make([]uint16, n)
	for i := range data {
		data[i] = binary.LittleEndian.Uint16(raw[i*2:])
	}
	return gbf.NewChar(shape, data)
}
