package leafcodec

import (
	"encoding/binary"
	"unicode/utf8"

	"github.com/scigolib/gbf"
	"github.com/scigolib/gbf/internal/gbferrs"
	"github.com/scigolib/gbf/internal/utils"
)

func encodeString(v *gbf.Value) (Encoded, error) {
	data := v.StringData()

	var raw []byte
	for _, s := range data {
		if s == nil {
			raw = append(raw, 1) // miss_flag
			raw = appendUint32(raw, 0)
			continue
		}
		raw = append(raw, 0) // miss_flag
		b := []byte(*s)
		raw = appendUint32(raw, uint32(len(b)))
		raw = append(raw, b...)
	}

	return Encoded{
		Kind:     "string",
		Shape:    v.Shape(),
		Encoding: "nullable-utf8-len-prefixed",
		Raw:      raw,
	}, nil
}

func decodeString(shape []uint64, raw []byte) (*gbf.Value, error) {
	n, err := utils.ElementCount(shape)
	if err != nil {
		return nil, gbferrs.FormatError("string: invalid shape", err)
	}

	out := make([]*string, n)
	pos := 0
	for i := uint64(0); i < n; i++ {
		if pos+5 > len(raw) {
			return nil, gbferrs.FormatError("string: truncated element header", nil)
		}
		missFlag := raw[pos]
		length := binary.LittleEndian.Uint32(raw[pos+1:])
		pos += 5

		if pos+int(length) > len(raw) {
			return nil, gbferrs.FormatError("string: truncated payload", nil)
		}
		elemBytes := raw[pos : pos+int(length)]
		pos += int(length) // decoder must skip len bytes regardless of miss_flag

		if missFlag != 0 {
			out[i] = nil
			continue
		}

		if !utf8.Valid(elemBytes) {
			return nil, gbferrs.FormatError("string: invalid UTF-8", nil)
		}
		s := string(elemBytes)
		out[i] = &s
	}

	if pos != len(raw) {
		return nil, gbferrs.FieldSizeMismatch("string", uint64(pos), uint64(len(raw)))
	}

	return gbf.NewString(shape, out)
}

func appendUint32(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}
