// Package gbfwriter implements spec.md §4.5: flatten a Value tree,
// encode and compress each leaf, close the header by fixed point, and
// atomically replace the destination file. It generalizes the
// teacher's Create/FileWriter allocate-write-flush-close-reopen
// pattern (file_write.go, internal/writer/writer.go) to GBF's flat
// header-plus-payload container.
package gbfwriter

import (
	"time"

	"github.com/scigolib/gbf"
	"github.com/scigolib/gbf/internal/compress"
	"github.com/scigolib/gbf/internal/crcproto"
	"github.com/scigolib/gbf/internal/gbferrs"
	"github.com/scigolib/gbf/internal/gbfio"
	"github.com/scigolib/gbf/internal/header"
	"github.com/scigolib/gbf/internal/leafcodec"
	"github.com/scigolib/gbf/internal/treepath"
)

// magic is the 8-byte file signature, spec.md §6.
var magic = [8]byte{'G', 'R', 'E', 'D', 'B', 'I', 'N', 0}

const maxClosureIterations = 10

// Options controls how WriteFile encodes and serializes a value.
type Options struct {
	CompressionMode  compress.Mode
	CompressionLevel int
	CRC              bool
	PrettyHeader     bool
	ProducerVersion  string
}

type preparedField struct {
	name        string
	kind        string
	class       string
	shape       []uint64
	complexFlag bool
	encoding    string
	compression string
	stored      []byte
	usize       uint64
	crc         uint32
}

// WriteFile serializes root to path following spec.md §4.5's eight
// steps: flatten, encode+compress each leaf, assign offsets, close the
// header by fixed point, then write to a temp file in the destination
// directory and atomically replace path.
func WriteFile(path string, root *gbf.Value, opts Options) error {
	rootKind := "struct"
	if !root.IsStruct() || root.IsEmptyStruct() {
		rootKind = "single"
	}

	leaves, err := treepath.Flatten(root)
	if err != nil {
		return err
	}

	fields, err := prepareFields(leaves, opts)
	if err != nil {
		return err
	}

	hdr := buildHeader(rootKind, fields, opts)
	headerBytes, err := closeHeader(hdr, opts.PrettyHeader)
	if err != nil {
		return err
	}

	return writeAtomic(path, headerBytes, fields)
}

func prepareFields(leaves []treepath.PathValue, opts Options) ([]preparedField, error) {
	fields := make([]preparedField, 0, len(leaves))
	for _, leaf := range leaves {
		if leaf.Value.Kind() == gbf.KindCategorical {
			if err := gbf.ValidateCategorical(leaf.Value); err != nil {
				return nil, err
			}
		}

		enc, err := leafcodec.Encode(leaf.Value)
		if err != nil {
			return nil, err
		}

		usize := uint64(len(enc.Raw))
		var crc uint32
		if opts.CRC {
			crc = crcproto.FieldCRC(enc.Raw)
		}

		stored := enc.Raw
		compression := "none"
		if compress.Decide(opts.CompressionMode, enc.Kind, enc.Class, enc.Raw) {
			compressed, err := compress.Compress(enc.Raw, opts.CompressionLevel)
			if err != nil {
				return nil, err
			}
			if len(compressed) < len(enc.Raw) {
				stored = compressed
				compression = "zlib"
			}
		}

		fields = append(fields, preparedField{
			name:        leaf.Path,
			kind:        enc.Kind,
			class:       enc.Class,
			shape:       enc.Shape,
			complexFlag: enc.Complex,
			encoding:    enc.Encoding,
			compression: compression,
			stored:      stored,
			usize:       usize,
			crc:         crc,
		})
	}
	return fields, nil
}

func assignOffsets(fields []preparedField) []uint64 {
	offsets := make([]uint64, len(fields))
	var cursor uint64
	for i, f := range fields {
		offsets[i] = cursor
		cursor += uint64(len(f.stored))
	}
	return offsets
}

func buildHeader(rootKind string, fields []preparedField, opts Options) *header.Header {
	offsets := assignOffsets(fields)

	entries := make([]header.FieldEntry, len(fields))
	for i, f := range fields {
		shape := make([]uint64, len(f.shape))
		copy(shape, f.shape)
		entries[i] = header.FieldEntry{
			Name:        f.name,
			Kind:        f.kind,
			Class:       f.class,
			Shape:       flexShape(shape),
			Complex:     f.complexFlag,
			Encoding:    f.encoding,
			Compression: f.compression,
			Offset:      header.FlexUint(offsets[i]),
			CSize:       header.FlexUint(len(f.stored)),
			USize:       header.FlexUint(f.usize),
			CRC32:       header.FlexUint(f.crc),
		}
	}

	producer := opts.ProducerVersion
	if producer == "" {
		producer = gbf.ProducerVersion
	}

	return &header.Header{
		Format:          "GBF",
		Magic:           "GREDBIN",
		Version:         1,
		Endianness:      "little",
		Order:           "column-major",
		Root:            rootKind,
		CreatedUTC:      time.Now().UTC().Format("2006-01-02T15:04:05Z"),
		ProducerVersion: producer,
		Fields:          entries,
		HeaderCRC32Hex:  crcproto.Placeholder,
	}
}

// closeHeader implements spec.md §4.5 step 6: iterate serialize →
// compute header CRC (with the CRC field blanked) → recompute
// payload_start/file_size until nothing changes, or give up after
// maxClosureIterations (the format guarantees convergence within far
// fewer).
func closeHeader(hdr *header.Header, pretty bool) ([]byte, error) {
	var payloadLen uint64
	for _, f := range hdr.Fields {
		payloadLen += uint64(f.CSize)
	}

	var prevBytes []byte
	var prevPayloadStart, prevFileSize uint64

	for i := 0; i < maxClosureIterations; i++ {
		raw, err := marshalHeader(hdr, pretty)
		if err != nil {
			return nil, err
		}
		withNewline := append(raw, '\n')

		crc := crcproto.HeaderCRC(withNewline)
		hdr.HeaderCRC32Hex = hexUpper(crc)

		payloadStart := uint64(8+4) + uint64(len(withNewline))
		fileSize := payloadStart + payloadLen

		hdr.PayloadStart = header.FlexUint(payloadStart)
		hdr.FileSize = header.FlexUint(fileSize)

		finalRaw, err := marshalHeader(hdr, pretty)
		if err != nil {
			return nil, err
		}
		finalWithNewline := append(finalRaw, '\n')

		if bytesEqual(finalWithNewline, prevBytes) && payloadStart == prevPayloadStart && fileSize == prevFileSize {
			return finalWithNewline, nil
		}
		prevBytes = finalWithNewline
		prevPayloadStart = payloadStart
		prevFileSize = fileSize
	}

	return nil, gbferrs.FormatError("header fixed-point closure did not converge", nil)
}

func marshalHeader(hdr *header.Header, pretty bool) ([]byte, error) {
	if pretty {
		return header.MarshalPretty(hdr)
	}
	return header.Marshal(hdr)
}

// writeAtomic implements spec.md §4.5 steps 7–8: magic, header_len,
// header bytes, then field payloads in offset order, all handed to
// gbfio.WriteAtomic for uuid-named-temp-then-replace persistence.
func writeAtomic(path string, headerBytes []byte, fields []preparedField) error {
	frames := make([][]byte, 0, len(fields)+3)
	frames = append(frames, magic[:], uint32LE(uint32(len(headerBytes))), headerBytes)
	for _, field := range fields {
		frames = append(frames, field.stored)
	}
	return gbfio.WriteAtomic(path, frames...)
}

func uint32LE(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func hexUpper(v uint32) string {
	const digits = "0123456789ABCDEF"
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = digits[v&0xF]
		v >>= 4
	}
	return string(b)
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func flexShape(shape []uint64) []header.FlexUint {
	out := make([]header.FlexUint, len(shape))
	for i, s := range shape {
		out[i] = header.FlexUint(s)
	}
	return out
}
