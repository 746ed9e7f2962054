// Package gbferrs provides the typed error kinds surfaced by the GBF codec.
package gbferrs

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Kind classifies a GBF error so callers can branch with errors.As without
// string matching.
type Kind uint8

const (
	KindIO Kind = iota
	KindFormat
	KindUnsupported
	KindHeaderCRC
	KindFileSize
	KindFieldOutOfBounds
	KindFieldSizeMismatch
	KindFieldCRC
	KindDecompression
	KindVarNotFound
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindFormat:
		return "format"
	case KindUnsupported:
		return "unsupported"
	case KindHeaderCRC:
		return "header_crc_mismatch"
	case KindFileSize:
		return "file_size_mismatch"
	case KindFieldOutOfBounds:
		return "field_out_of_bounds"
	case KindFieldSizeMismatch:
		return "field_size_mismatch"
	case KindFieldCRC:
		return "field_crc_mismatch"
	case KindDecompression:
		return "decompression_failed"
	case KindVarNotFound:
		return "var_not_found"
	default:
		return "unknown"
	}
}

// Error is the single error type produced by the codec. Context carries the
// human-readable description, Cause (if any) the underlying error.
type Error struct {
	Kind    Kind
	Context string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Context
	}
	return fmt.Sprintf("%s: %v", e.Context, e.Cause)
}

// Unwrap provides compatibility with errors.Unwrap/errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Wrap creates a contextual error of the given kind.
func Wrap(kind Kind, context string, cause error) error {
	if cause == nil && context == "" {
		return nil
	}
	return &Error{Kind: kind, Context: context, Cause: cause}
}

// IOError wraps an underlying OS error.
func IOError(context string, cause error) error {
	return Wrap(KindIO, context, cause)
}

// FormatError reports malformed framing: bad magic, invalid header length,
// malformed JSON, truncated payload, path collisions, dotted keys, etc.
func FormatError(context string, cause error) error {
	return Wrap(KindFormat, context, cause)
}

// UnsupportedError reports a well-formed but unsupported request: unknown
// numeric class, over-limit field size, non-leaf struct reaching the leaf
// encoder, platform size overflow.
func UnsupportedError(context string) error {
	return Wrap(KindUnsupported, context, nil)
}

// HeaderCRCMismatch reports a stored header CRC that does not match the
// recomputed value.
func HeaderCRCMismatch(expected, got string) error {
	return &Error{
		Kind:    KindHeaderCRC,
		Context: fmt.Sprintf("header CRC mismatch: expected %s, got %s", expected, got),
	}
}

// FileSizeMismatch reports a stored file_size that does not match the
// actual file size on disk.
func FileSizeMismatch(expected, got uint64) error {
	return &Error{
		Kind: KindFileSize,
		Context: fmt.Sprintf("file size mismatch: header declares %s, file is %s",
			humanize.IBytes(expected), humanize.IBytes(got)),
	}
}

// FieldOutOfBounds reports a field whose offset+csize extends past the
// payload's actual length.
func FieldOutOfBounds(name string, offset, csize, payloadLen uint64) error {
	return &Error{
		Kind: KindFieldOutOfBounds,
		Context: fmt.Sprintf("field %q out of bounds: offset=%s csize=%s payload_len=%s",
			name, humanize.IBytes(offset), humanize.IBytes(csize), humanize.IBytes(payloadLen)),
	}
}

// FieldSizeMismatch reports a decoded field whose byte length does not
// match the header's declared usize/csize.
func FieldSizeMismatch(name string, expected, got uint64) error {
	return &Error{
		Kind: KindFieldSizeMismatch,
		Context: fmt.Sprintf("field %q size mismatch: expected %s, got %s",
			name, humanize.IBytes(expected), humanize.IBytes(got)),
	}
}

// FieldCRCMismatch reports a field whose recomputed CRC-32 does not match
// the stored value.
func FieldCRCMismatch(name string, expected, got uint32) error {
	return &Error{
		Kind:    KindFieldCRC,
		Context: fmt.Sprintf("field %q CRC mismatch: expected %08x, got %08x", name, expected, got),
	}
}

// DecompressionFailed reports a zlib stream that failed to inflate, or that
// exceeded its output cap.
func DecompressionFailed(name, message string) error {
	return &Error{
		Kind:    KindDecompression,
		Context: fmt.Sprintf("field %q decompression failed: %s", name, message),
	}
}

// VarNotFound reports that read_var found no exact or prefix match.
func VarNotFound(path string) error {
	return &Error{
		Kind:    KindVarNotFound,
		Context: fmt.Sprintf("variable %q not found", path),
	}
}
