package leafcodec

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scigolib/gbf"
)

func f64le(vals ...float64) []byte {
	raw := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint64(raw[i*8:], math.Float64bits(v))
	}
	return raw
}

func TestNumericRoundTrip_Real(t *testing.T) {
	shape := []uint64{3, 3}
	raw := f64le(1, 4, 7, 2, 5, 8, 3, 6, 9)
	v, err := gbf.NewNumeric(gbf.ClassDouble, shape, false, raw, nil)
	require.NoError(t, err)

	enc, err := Encode(v)
	require.NoError(t, err)
	require.Equal(t, "numeric", enc.Kind)
	require.Equal(t, "double", enc.Class)
	require.False(t, enc.Complex)
	require.Equal(t, raw, enc.Raw)

	decoded, err := Decode(enc.Kind, enc.Class, enc.Shape, enc.Complex, enc.Raw, true)
	require.NoError(t, err)
	require.Equal(t, raw, decoded.RealLE())
	require.Equal(t, shape, decoded.Shape())
}

func TestNumericRoundTrip_Complex(t *testing.T) {
	shape := []uint64{2}
	real := f64le(1, 2)
	imag := f64le(3, 4)
	v, err := gbf.NewNumeric(gbf.ClassDouble, shape, true, real, imag)
	require.NoError(t, err)

	enc, err := Encode(v)
	require.NoError(t, err)
	require.Equal(t, append(append([]byte{}, real...), imag...), enc.Raw)

	decoded, err := Decode(enc.Kind, enc.Class, enc.Shape, enc.Complex, enc.Raw, true)
	require.NoError(t, err)
	require.Equal(t, real, decoded.RealLE())
	require.Equal(t, imag, decoded.ImagLE())
}

func TestNumericZeroShape(t *testing.T) {
	for _, shape := range [][]uint64{{0, 0}, {0, 3}, {3, 0}} {
		v, err := gbf.NewNumeric(gbf.ClassDouble, shape, false, nil, nil)
		require.NoError(t, err)
		enc, err := Encode(v)
		require.NoError(t, err)
		require.Len(t, enc.Raw, 0)

		decoded, err := Decode(enc.Kind, enc.Class, enc.Shape, enc.Complex, enc.Raw, true)
		require.NoError(t, err)
		require.Len(t, decoded.RealLE(), 0)
	}
}

func TestNumericDecode_SizeMismatch(t *testing.T) {
	_, err := Decode("numeric", "double", []uint64{3}, false, make([]byte, 10), true)
	require.Error(t, err)
}

func TestLogicalRoundTrip(t *testing.T) {
	v, err := gbf.NewLogical([]uint64{4}, []byte{1, 0, 1, 1})
	require.NoError(t, err)

	enc, err := Encode(v)
	require.NoError(t, err)
	require.Equal(t, "bool-u8", enc.Encoding)

	decoded, err := Decode(enc.Kind, enc.Class, enc.Shape, enc.Complex, enc.Raw, true)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 0, 1, 1}, decoded.LogicalData())
}

func TestCharRoundTrip(t *testing.T) {
	data := []uint16{'h', 'i', 0x4e2d}
	v, err := gbf.NewChar([]uint64{3}, data)
	require.NoError(t, err)

	enc, err := Encode(v)
	require.NoError(t, err)
	require.Len(t, enc.Raw, 6)

	decoded, err := Decode(enc.Kind, enc.Class, enc.Shape, enc.Complex, enc.Raw, true)
	require.NoError(t, err)
	require.Equal(t, data, decoded.CharData())
}

func TestStringRoundTrip_WithNulls(t *testing.T) {
	a, b := "hello", ""
	data := []*string{&a, nil, &b}
	v, err := gbf.NewString([]uint64{3}, data)
	require.NoError(t, err)

	enc, err := Encode(v)
	require.NoError(t, err)

	decoded, err := Decode(enc.Kind, enc.Class, enc.Shape, enc.Complex, enc.Raw, true)
	require.NoError(t, err)
	out := decoded.StringData()
	require.Equal(t, "hello", *out[0])
	require.Nil(t, out[1])
	require.Equal(t, "", *out[2])
}

func TestStringDecode_InvalidUTF8(t *testing.T) {
	raw := []byte{0, 3, 0, 0, 0, 0xff, 0xfe, 0xfd}
	_, err := Decode("string", "", []uint64{1}, false, raw, true)
	require.Error(t, err)
}

func TestDateTimeRoundTrip_WithTZ(t *testing.T) {
	tz := "UTC"
	locale := "en_US"
	format := "yyyy-MM-dd"
	v, err := gbf.NewDateTime([]uint64{2}, &tz, &locale, &format,
		[]bool{false, true}, []int16{2024, 2025}, []uint8{1, 2}, []uint8{15, 20}, []int32{1000, 2000})
	require.NoError(t, err)

	enc, err := Encode(v)
	require.NoError(t, err)
	require.Equal(t, "dt:tz-ymd+msday+nat-mask+tz+locale+format", enc.Encoding)

	decoded, err := Decode(enc.Kind, enc.Class, enc.Shape, enc.Complex, enc.Raw, true)
	require.NoError(t, err)
	require.Equal(t, "UTC", *decoded.TZ())
	require.Equal(t, "en_US", *decoded.Locale())
	require.Equal(t, "yyyy-MM-dd", *decoded.Format())
	require.Equal(t, []bool{false, true}, decoded.IsNaT())
	require.Equal(t, []int16{2024, 2025}, decoded.Year())
	require.Equal(t, []uint8{1, 2}, decoded.Month())
	require.Equal(t, []uint8{15, 20}, decoded.Day())
	require.Equal(t, []int32{1000, 2000}, decoded.MsDay())
}

func TestDateTimeRoundTrip_Naive(t *testing.T) {
	v, err := gbf.NewDateTime([]uint64{1}, nil, nil, nil,
		[]bool{false}, []int16{2024}, []uint8{1}, []uint8{1}, []int32{0})
	require.NoError(t, err)

	enc, err := Encode(v)
	require.NoError(t, err)
	require.Equal(t, "dt:naive-ymd+msday+nat-mask+locale+format", enc.Encoding)

	decoded, err := Decode(enc.Kind, enc.Class, enc.Shape, enc.Complex, enc.Raw, true)
	require.NoError(t, err)
	require.Nil(t, decoded.TZ())
}

func TestDurationRoundTrip(t *testing.T) {
	v, err := gbf.NewDuration([]uint64{2}, []bool{false, true}, []int64{1000, 0})
	require.NoError(t, err)

	enc, err := Encode(v)
	require.NoError(t, err)
	require.Equal(t, "ms-i64+nan-mask", enc.Encoding)

	decoded, err := Decode(enc.Kind, enc.Class, enc.Shape, enc.Complex, enc.Raw, true)
	require.NoError(t, err)
	require.Equal(t, []bool{false, true}, decoded.IsNaN())
	require.Equal(t, []int64{1000, 0}, decoded.Ms())
}

func TestCalendarDurationRoundTrip(t *testing.T) {
	v, err := gbf.NewCalendarDuration([]uint64{1}, []bool{false}, []int32{1}, []int32{15}, []int64{3600000})
	require.NoError(t, err)

	enc, err := Encode(v)
	require.NoError(t, err)
	require.Equal(t, "mask+months-i32+days-i32+time-ms-i64", enc.Encoding)

	decoded, err := Decode(enc.Kind, enc.Class, enc.Shape, enc.Complex, enc.Raw, true)
	require.NoError(t, err)
	require.Equal(t, []int32{1}, decoded.Months())
	require.Equal(t, []int32{15}, decoded.Days())
	require.Equal(t, []int64{3600000}, decoded.TimeMs())
}

func TestCategoricalRoundTrip(t *testing.T) {
	v, err := gbf.NewCategorical([]uint64{3}, []string{"red", "green", "blue"}, []uint32{1, 0, 3})
	require.NoError(t, err)

	enc, err := Encode(v)
	require.NoError(t, err)
	require.Equal(t, "cats-utf8+codes-u32", enc.Encoding)

	decoded, err := Decode(enc.Kind, enc.Class, enc.Shape, enc.Complex, enc.Raw, true)
	require.NoError(t, err)
	require.Equal(t, []string{"red", "green", "blue"}, decoded.Categories())
	require.Equal(t, []uint32{1, 0, 3}, decoded.Codes())
}

func TestCategoricalDecode_OutOfRange_ValidateRejects(t *testing.T) {
	v, err := gbf.NewCategorical([]uint64{1}, []string{"red"}, []uint32{5})
	require.NoError(t, err) // construction itself doesn't range-check

	enc, err := Encode(v)
	require.NoError(t, err)

	_, err = Decode(enc.Kind, enc.Class, enc.Shape, enc.Complex, enc.Raw, true)
	require.Error(t, err)

	tolerant, err := Decode(enc.Kind, enc.Class, enc.Shape, enc.Complex, enc.Raw, false)
	require.NoError(t, err)
	require.Equal(t, uint32(5), tolerant.Codes()[0])
}

func TestEmptyStructRoundTrip(t *testing.T) {
	v := gbf.NewEmptyStruct()

	enc, err := Encode(v)
	require.NoError(t, err)
	require.Equal(t, "struct", enc.Kind)
	require.Equal(t, []uint64{1, 1}, enc.Shape)
	require.Equal(t, "empty-scalar-struct", enc.Encoding)
	require.Len(t, enc.Raw, 0)

	decoded, err := Decode(enc.Kind, enc.Class, enc.Shape, enc.Complex, enc.Raw, true)
	require.NoError(t, err)
	require.True(t, decoded.IsEmptyStruct())
}

func TestEncode_NonLeafStructRejected(t *testing.T) {
	inner, err := gbf.NewLogical([]uint64{1}, []byte{1})
	require.NoError(t, err)
	s, err := gbf.NewStruct(map[string]*gbf.Value{"a": inner})
	require.NoError(t, err)

	_, err = Encode(s)
	require.Error(t, err)
}
