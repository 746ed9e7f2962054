package leafcodec

import (
	"encoding/binary"

	"github.com/scigolib/gbf"
	"github.com/scigolib/gbf/internal/gbferrs"
	"github.com/scigolib/gbf/internal/utils"
)

func encodeDuration(v *gbf.Value) (Encoded, error) {
	raw := make([]byte, 0, len(v.IsNaN())+len(v.Ms())*8)
	for _, nan := range v.IsNaN() {
		if nan {
			raw = append(raw, 1)
		} else {
			raw = append(raw, 0)
		}
	}
	for _, ms := range v.Ms() {
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], uint64(ms))
		raw = append(raw, tmp[:]...)
	}

	return Encoded{
		Kind:     "duration",
		Shape:    v.Shape(),
		Encoding: "ms-i64+nan-mask",
		Raw:      raw,
	}, nil
}

func decodeDuration(shape []uint64, raw []byte) (*gbf.Value, error) {
	n, err := utils.ElementCount(shape)
	if err != nil {
		return nil, gbferrs.FormatError("duration: invalid shape", err)
	}

	want := n + n*8
	if uint64(len(raw)) != want {
		return nil, gbferrs.FieldSizeMismatch("duration", want, uint64(len(raw)))
	}

	isNaN := make([]bool, n)
	pos := 0
	for i := uint64(0); i < n; i++ {
		isNaN[i] = raw[pos] != 0
		pos++
	}
	ms := make([]int64, n)
	for i := uint64(0); i < n; i++ {
		ms[i] = int64(binary.LittleEndian.Uint64(raw[pos:]))
		pos += 8
	}

	return gbf.NewDuration(shape, isNaN, ms)
}
