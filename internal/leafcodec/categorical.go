package leafcodec

import (
	"encoding/binary"
	"unicode/utf8"

	"github.com/scigolib/gbf"
	"github.com/scigolib/gbf/internal/gbferrs"
	"github.com/scigolib/gbf/internal/utils"
)

func encodeCategorical(v *gbf.Value) (Encoded, error) {
	categories := v.Categories()

	raw := appendUint32(nil, uint32(len(categories)))
	for _, c := range categories {
		raw = appendUint32(raw, uint32(len(c)))
		raw = append(raw, []byte(c)...)
	}
	for _, code := range v.Codes() {
		raw = appendUint32(raw, code)
	}

	return Encoded{
		Kind:     "categorical",
		Shape:    v.Shape(),
		Encoding: "cats-utf8+codes-u32",
		Raw:      raw,
	}, nil
}

func decodeCategorical(shape []uint64, raw []byte) (*gbf.Value, error) {
	n, err := utils.ElementCount(shape)
	if err != nil {
		return nil, gbferrs.FormatError("categorical: invalid shape", err)
	}
	if len(raw) < 4 {
		return nil, gbferrs.FormatError("categorical: truncated category count", nil)
	}

	nCats := binary.LittleEndian.Uint32(raw)
	pos := 4

	categories := make([]string, nCats)
	for i := uint32(0); i < nCats; i++ {
		if pos+4 > len(raw) {
			return nil, gbferrs.FormatError("categorical: truncated category length", nil)
		}
		length := binary.LittleEndian.Uint32(raw[pos:])
		pos += 4
		if pos+int(length) > len(raw) {
			return nil, gbferrs.FormatError("categorical: truncated category bytes", nil)
		}
		b := raw[pos : pos+int(length)]
		pos += int(length)
		if !utf8.Valid(b) {
			return nil, gbferrs.FormatError("categorical: invalid UTF-8", nil)
		}
		categories[i] = string(b)
	}

	want := pos + int(n)*4
	if len(raw) != want {
		return nil, gbferrs.FieldSizeMismatch("categorical", uint64(want), uint64(len(raw)))
	}

	codes := make([]uint32, n)
	for i := uint64(0); i < n; i++ {
		codes[i] = binary.LittleEndian.Uint32(raw[pos:])
		pos += 4
	}

	return gbf.NewCategorical(shape, categories, codes)
}
