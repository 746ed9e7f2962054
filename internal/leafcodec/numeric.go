package leafcodec

import (
	"github.com/scigolib/gbf"
	"github.com/scigolib/gbf/internal/gbferrs"
	"github.com/scigolib/gbf/internal/utils"
)

func encodeNumeric(v *gbf.Value) (Encoded, error) {
	raw := append([]byte(nil), v.RealLE()...)
	if v.IsComplex() {
		raw = append(raw, v.ImagLE()...)
	}

	return Encoded{
		Kind:     "numeric",
		Class:    string(v.NumericClass()),
		Shape:    v.Shape(),
		Complex:  v.IsComplex(),
		Encoding: numericEncodingTag(v.IsComplex()),
		Raw:      raw,
	}, nil
}

func numericEncodingTag(complex bool) string {
	if complex {
		return "real-le+imag-le"
	}
	return "real-le"
}

func decodeNumeric(class string, shape []uint64, complex bool, raw []byte) (*gbf.Value, error) {
	bpe, err := gbf.BytesPerElement(gbf.NumericClass(class))
	if err != nil {
		return nil, err
	}

	n, err := utils.ElementCount(shape)
	if err != nil {
		return nil, gbferrs.FormatError("numeric: invalid shape", err)
	}

	want := n * uint64(bpe)
	if complex {
		want *= 2
	}
	if uint64(len(raw)) != want {
		return nil, gbferrs.FieldSizeMismatch("numeric", want, uint64(len(raw)))
	}

	realLen := n * uint64(bpe)
	realLE := raw[:realLen]
	var imagLE []byte
	if complex {
		imagLE = raw[realLen:]
	}

	return gbf.NewNumeric(gbf.NumericClass(class), shape, complex, realLE, imagLE)
}
