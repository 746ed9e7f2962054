// Package header implements spec.md §6's header JSON model: the field
// table and top-level metadata that precedes a GBF file's payload.
// Encoding/decoding uses json-iterator/go in its standard-library-
// compatible configuration, grounded on the header (de)serialization
// style of the teacher's superblock parsing (superblock.go) combined
// with the JSON-tag conventions of the example pack's service configs.
package header

import (
	"fmt"
	"math"

	jsoniter "github.com/json-iterator/go"

	"github.com/scigolib/gbf/internal/gbferrs"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FieldEntry describes one leaf in the header's field table.
type FieldEntry struct {
	Name        string      `json:"name"`
	Kind        string      `json:"kind"`
	Class       string      `json:"class,omitempty"`
	Shape       []FlexUint  `json:"shape"`
	Complex     bool        `json:"complex"`
	Encoding    string      `json:"encoding"`
	Compression string      `json:"compression"`
	Offset      FlexUint    `json:"offset"`
	CSize       FlexUint    `json:"csize"`
	USize       FlexUint    `json:"usize"`
	CRC32       FlexUint    `json:"crc32"`
}

// ShapeUint64 returns the field's shape as plain uint64s.
func (f FieldEntry) ShapeUint64() []uint64 {
	out := make([]uint64, len(f.Shape))
	for i, s := range f.Shape {
		out[i] = uint64(s)
	}
	return out
}

// Header is the top-level JSON document stored between the 8-byte
// magic + 4-byte length prefix and the payload (spec.md §6).
type Header struct {
	Format          string       `json:"format"`
	Magic           string       `json:"magic"`
	Version         FlexUint     `json:"version"`
	Endianness      string       `json:"endianness"`
	Order           string       `json:"order"`
	Root            string       `json:"root"`
	CreatedUTC      string       `json:"created_utc"`
	ProducerVersion string       `json:"producer_version"`
	Fields          []FieldEntry `json:"fields"`
	PayloadStart    FlexUint     `json:"payload_start"`
	FileSize        FlexUint     `json:"file_size"`
	HeaderCRC32Hex  string       `json:"header_crc32_hex"`
}

// Marshal encodes h as compact JSON (no trailing newline — callers
// append the mandated '\n' terminator themselves per spec.md §6).
func Marshal(h *Header) ([]byte, error) {
	b, err := json.Marshal(h)
	if err != nil {
		return nil, gbferrs.FormatError("header: marshal failed", err)
	}
	return b, nil
}

// MarshalPretty encodes h as indented JSON, for write_file's
// pretty_header option.
func MarshalPretty(h *Header) ([]byte, error) {
	b, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return nil, gbferrs.FormatError("header: marshal failed", err)
	}
	return b, nil
}

// Unmarshal parses header JSON bytes (without the trailing newline).
func Unmarshal(raw []byte) (*Header, error) {
	var h Header
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, gbferrs.FormatError("header: malformed JSON", err)
	}
	return &h, nil
}

// FlexUint is a uint64 that tolerates spec.md §6's "numeric-looking
// strings and floating-point values... coerce to integer, clamping
// negatives to 0" parsing rule on unmarshal, while marshaling back out
// as a plain JSON number.
type FlexUint uint64

func (f FlexUint) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%d", uint64(f))), nil
}

func (f *FlexUint) UnmarshalJSON(data []byte) error {
	var asNumber jsoniter.Number
	if err := json.Unmarshal(data, &asNumber); err == nil {
		return f.setFromNumber(string(asNumber))
	}

	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		return f.setFromNumber(asString)
	}

	return gbferrs.FormatError("header: field is neither numeric nor numeric-looking string", nil)
}

func (f *FlexUint) setFromNumber(s string) error {
	if fl, err := parseFloat(s); err == nil {
		if fl < 0 {
			fl = 0
		}
		if fl > math.MaxUint64 {
			return gbferrs.UnsupportedError("header: numeric field exceeds uint64 range")
		}
		*f = FlexUint(uint64(fl))
		return nil
	}
	return gbferrs.FormatError("header: could not parse numeric field "+s, nil)
}

func parseFloat(s string) (float64, error) {
	var v float64
	_, err := fmt.Sscanf(s, "%g", &v)
	if err != nil {
		return 0, err
	}
	return v, nil
}
