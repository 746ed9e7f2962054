package leafcodec

import (
	"encoding/binary"

	"github.com/scigolib/gbf"
	"github.com/scigolib/gbf/internal/gbferrs"
	"github.com/scigolib/gbf/internal/utils"
)

func encodeCalendarDuration(v *gbf.Value) (Encoded, error) {
	n := uint64(len(v.IsMissing()))
	raw := make([]byte, 0, n+n*4+n*4+n*8)

	for _, missing := range v.IsMissing() {
		if missing {
			raw = append(raw, 1)
		} else {
			raw = append(raw, 0)
		}
	}
	for _, m := range v.Months() {
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], uint32(m))
		raw = append(raw, tmp[:]...)
	}
	for _, d := range v.Days() {
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], uint32(d))
		raw = append(raw, tmp[:]...)
	}
	for _, t := range v.TimeMs() {
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], uint64(t))
		raw = append(raw, tmp[:]...)
	}

	return Encoded{
		Kind:     "calendar_duration",
		Shape:    v.Shape(),
		Encoding: "mask+months-i32+days-i32+time-ms-i64",
		Raw:      raw,
	}, nil
}

func decodeCalendarDuration(shape []uint64, raw []byte) (*gbf.Value, error) {
	n, err := utils.ElementCount(shape)
	if err != nil {
		return nil, gbferrs.FormatError("calendar_duration: invalid shape", err)
	}

	want := n + n*4 + n*4 + n*8
	if uint64(len(raw)) != want {
		return nil, gbferrs.FieldSizeMismatch("calendar_duration", want, uint64(len(raw)))
	}

	pos := 0
	isMissing := make([]bool, n)
	for i := uint64(0); i < n; i++ {
		isMissing[i] = raw[pos] != 0
		pos++
	}
	months := make([]int32, n)
	for i := uint64(0); i < n; i++ {
		months[i] = int32(binary.LittleEndian.Uint32(raw[pos:]))
		pos += 4
	}
	days := make([]int32, n)
	for i := uint64(0); i < n; i++ {
		days[i] = int32(binary.LittleEndian.Uint32(raw[pos:]))
		pos += 4
	}
	timeMs := make([]int64, n)
	for i := uint64(0); i < n; i++ {
		timeMs[i] = int64(binary.LittleEndian.Uint64(raw[pos:]))
		pos += 8
	}

	return gbf.NewCalendarDuration(shape, isMissing, months, days, timeMs)
}
