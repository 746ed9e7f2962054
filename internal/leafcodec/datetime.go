package leafcodec

import (
	"encoding/binary"
	"unicode/utf8"

	"github.com/scigolib/gbf"
	"github.com/scigolib/gbf/internal/gbferrs"
	"github.com/scigolib/gbf/internal/utils"
)

const (
	dtFlagTZPresent     = 1 << 0
	dtFlagFormatPresent = 1 << 1
	dtFlagNaive         = 1 << 2
	dtFlagLocalePresent = 1 << 3
)

func encodeDateTime(v *gbf.Value) (Encoded, error) {
	var flags byte
	if v.TZ() != nil {
		flags |= dtFlagTZPresent
	} else {
		flags |= dtFlagNaive
	}
	if v.Format() != nil {
		flags |= dtFlagFormatPresent
	}
	if v.Locale() != nil {
		flags |= dtFlagLocalePresent
	}

	raw := []byte{flags}
	raw = appendOptionalString(raw, v.TZ())
	raw = appendOptionalString(raw, v.Locale())
	raw = appendOptionalString(raw, v.Format())

	for _, nat := range v.IsNaT() {
		if nat {
			raw = append(raw, 1)
		} else {
			raw = append(raw, 0)
		}
	}
	for _, y := range v.Year() {
		var tmp [2]byte
		binary.LittleEndian.PutUint16(tmp[:], uint16(y))
		raw = append(raw, tmp[:]...)
	}
	raw = append(raw, v.Month()...)
	raw = append(raw, v.Day()...)
	for _, ms := range v.MsDay() {
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], uint32(ms))
		raw = append(raw, tmp[:]...)
	}

	return Encoded{
		Kind:     "datetime",
		Shape:    v.Shape(),
		Encoding: dateTimeEncodingTag(v.TZ() != nil),
		Raw:      raw,
	}, nil
}

func dateTimeEncodingTag(tzPresent bool) string {
	if tzPresent {
		return "dt:tz-ymd+msday+nat-mask+tz+locale+format"
	}
	return "dt:naive-ymd+msday+nat-mask+locale+format"
}

func appendOptionalString(raw []byte, s *string) []byte {
	if s == nil {
		return appendUint32(raw, 0)
	}
	b := []byte(*s)
	raw = appendUint32(raw, uint32(len(b)))
	return append(raw, b...)
}

func readOptionalString(raw []byte, pos int, present bool) (*string, int, error) {
	if pos+4 > len(raw) {
		return nil, pos, gbferrs.FormatError("datetime: truncated string length", nil)
	}
	length := binary.LittleEndian.Uint32(raw[pos:])
	pos += 4
	if pos+int(length) > len(raw) {
		return nil, pos, gbferrs.FormatError("datetime: truncated string payload", nil)
	}
	b := raw[pos : pos+int(length)]
	pos += int(length)

	if !present {
		return nil, pos, nil
	}
	if !utf8.Valid(b) {
		return nil, pos, gbferrs.FormatError("datetime: invalid UTF-8", nil)
	}
	s := string(b)
	return &s, pos, nil
}

func decodeDateTime(shape []uint64, raw []byte) (*gbf.Value, error) {
	n, err := utils.ElementCount(shape)
	if err != nil {
		return nil, gbferrs.FormatError("datetime: invalid shape", err)
	}
	if len(raw) < 1 {
		return nil, gbferrs.FormatError("datetime: missing flags byte", nil)
	}

	flags := raw[0]
	tzPresent := flags&dtFlagTZPresent != 0
	fmtPresent := flags&dtFlagFormatPresent != 0
	localePresent := flags&dtFlagLocalePresent != 0
	pos := 1

	tz, pos, err := readOptionalString(raw, pos, tzPresent)
	if err != nil {
		return nil, err
	}
	locale, pos, err := readOptionalString(raw, pos, localePresent)
	if err != nil {
		return nil, err
	}
	format, pos, err := readOptionalString(raw, pos, fmtPresent)
	if err != nil {
		return nil, err
	}

	if uint64(len(raw)-pos) < n {
		return nil, gbferrs.FormatError("datetime: truncated nat mask", nil)
	}
	isNaT := make([]bool, n)
	for i := uint64(0); i < n; i++ {
		isNaT[i] = raw[pos] != 0
		pos++
	}

	if uint64(len(raw)-pos) < n*2 {
		return nil, gbferrs.FormatError("datetime: truncated year array", nil)
	}
	year := make([]int16, n)
	for i := uint64(0); i < n; i++ {
		year[i] = int16(binary.LittleEndian.Uint16(raw[pos:]))
		pos += 2
	}

	if uint64(len(raw)-pos) < n {
		return nil, gbferrs.FormatError("datetime: truncated month array", nil)
	}
	month := append([]uint8(nil), raw[pos:pos+int(n)]...)
	pos += int(n)

	if uint64(len(raw)-pos) < n {
		return nil, gbferrs.FormatError("datetime: truncated day array", nil)
	}
	day := append([]uint8(nil), raw[pos:pos+int(n)]...)
	pos += int(n)

	if uint64(len(raw)-pos) < n*4 {
		return nil, gbferrs.FormatError("datetime: truncated ms_day array", nil)
	}
	msDay := make([]int32, n)
	for i := uint64(0); i < n; i++ {
		msDay[i] = int32(binary.LittleEndian.Uint32(raw[pos:]))
		pos += 4
	}

	if pos != len(raw) {
		return nil, gbferrs.FieldSizeMismatch("datetime", uint64(pos), uint64(len(raw)))
	}

	return gbf.NewDateTime(shape, tz, locale, format, isNaT, year, month, day, msDay)
}
