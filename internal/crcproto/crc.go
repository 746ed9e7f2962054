// Package crcproto implements the GBF CRC-32 protocol: a plain field
// checksum, and a header checksum computed over the header JSON with its
// own CRC field blanked out (spec.md §4.4).
package crcproto

import (
	"hash/crc32"
	"regexp"
)

// FieldCRC computes the CRC-32 (IEEE 802.3 polynomial, reflected) of a
// field's raw (uncompressed) bytes. A stored value of 0 means "not
// computed"; callers decide whether to store it. A field whose actual
// CRC-32 is 0 is therefore stored as if no CRC had been computed.
func FieldCRC(raw []byte) uint32 {
	return crc32.ChecksumIEEE(raw)
}

// precisePattern matches the canonical encoder's own whitespace exactly:
// "header_crc32_hex"<ws>:<ws>"<8 hex>"
var precisePattern = regexp.MustCompile(`"header_crc32_hex"(\s*):(\s*)"[0-9a-fA-F]{8}"`)

// fallbackPattern is the generic fallback when the precise pattern (tuned
// to the canonical serializer's whitespace) doesn't match, e.g. a header
// produced by a different JSON formatting profile.
var fallbackPattern = regexp.MustCompile(`"header_crc32_hex"\s*:\s*"[^"]*"`)

// Placeholder is the 8 zero-hex-digit value substituted for the real CRC
// before hashing, and the value a brand-new (not-yet-closed) header uses.
const Placeholder = "00000000"

// blankCRCField replaces the header_crc32_hex value with the placeholder,
// preserving surrounding whitespace when the precise pattern matches.
func blankCRCField(headerJSON []byte) []byte {
	if precisePattern.Match(headerJSON) {
		return precisePattern.ReplaceAll(headerJSON, []byte(`"header_crc32_hex"$1:$2"`+Placeholder+`"`))
	}
	return fallbackPattern.ReplaceAll(headerJSON, []byte(`"header_crc32_hex":"`+Placeholder+`"`))
}

// HeaderCRC computes the CRC-32 of the header bytes (header JSON plus its
// trailing newline, exactly as they will be written to disk) with the
// header_crc32_hex field value textually substituted by eight '0' digits.
func HeaderCRC(headerBytesWithTrailingNewline []byte) uint32 {
	blanked := blankCRCField(headerBytesWithTrailingNewline)
	return crc32.ChecksumIEEE(blanked)
}
