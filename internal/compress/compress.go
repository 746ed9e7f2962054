// Package compress implements GBF's per-field compression policy (spec.md
// §4.3): a threshold + entropy-sample decision, and zlib encode/decode with
// a bounded output cap. The zlib codec is klauspost/compress/zlib, a
// drop-in, faster implementation of the same wire format as stdlib
// compress/zlib.
package compress

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/scigolib/gbf/internal/gbferrs"
)

// Mode selects the compression policy applied at encode time.
type Mode uint8

const (
	// ModeNever never compresses.
	ModeNever Mode = iota
	// ModeAlways compresses whenever raw size >= 1 KiB.
	ModeAlways
	// ModeAuto compresses when raw size crosses the Always threshold,
	// numeric float payloads additionally clear a 64 KiB floor, and the
	// sampled byte entropy suggests the data is compressible.
	ModeAuto
)

const (
	alwaysThreshold   = 1024             // 1 KiB
	floatFloor        = 64 * 1024        // 64 KiB
	entropySampleSize = 4096             // bytes sampled for the ratio check
	entropyRatioCap   = 0.95             // skip compression above this ratio
	// MaxFieldCap is the hard decompression output cap (spec: 16 GiB).
	MaxFieldCap = 16 * 1024 * 1024 * 1024
)

// isFloatClass reports whether class is one of the floating-point numeric
// classes that the Auto heuristic treats specially.
func isFloatClass(kind, class string) bool {
	return kind == "numeric" && (class == "double" || class == "single")
}

// uniqueByteRatio samples up to entropySampleSize bytes from the front of
// data and returns the fraction of the 256 possible byte values observed
// in that sample. This is the cheap proxy spec.md §4.3 calls the "entropy
// heuristic".
func uniqueByteRatio(data []byte) float64 {
	n := len(data)
	if n > entropySampleSize {
		n = entropySampleSize
	}
	if n == 0 {
		return 0
	}

	var seen [256]bool
	unique := 0
	for _, b := range data[:n] {
		if !seen[b] {
			seen[b] = true
			unique++
		}
	}
	return float64(unique) / 256
}

// Decide reports whether a field should be compressed under mode, given
// its kind/class (as they appear in the header's field table) and raw
// bytes.
func Decide(mode Mode, kind, class string, raw []byte) bool {
	switch mode {
	case ModeNever:
		return false
	case ModeAlways:
		return len(raw) >= alwaysThreshold
	case ModeAuto:
		if len(raw) < alwaysThreshold {
			return false
		}
		if isFloatClass(kind, class) && len(raw) < floatFloor {
			return false
		}
		return uniqueByteRatio(raw) <= entropyRatioCap
	default:
		return false
	}
}

// Compress zlib-compresses raw at the given level (0-9, -1 for the
// library's own default). Returned bytes are only used by the caller if
// strictly smaller than raw, per the "keep only if strictly smaller" rule.
func Compress(raw []byte, level int) ([]byte, error) {
	var buf bytes.Buffer

	w, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, gbferrs.IOError("zlib writer creation failed", err)
	}
	if _, err := w.Write(raw); err != nil {
		_ = w.Close()
		return nil, gbferrs.IOError("zlib compression failed", err)
	}
	if err := w.Close(); err != nil {
		return nil, gbferrs.IOError("zlib close failed", err)
	}

	return buf.Bytes(), nil
}

// Decompress inflates a zlib stream, capping output at min(usize,
// MaxFieldCap) bytes. Reading one byte past the cap is reported as an
// error (DecompressionFailed), per spec.md §4.3.
func Decompress(name string, compressed []byte, usize uint64) ([]byte, error) {
	cap64 := usize
	if cap64 > MaxFieldCap {
		cap64 = MaxFieldCap
	}

	r, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, gbferrs.DecompressionFailed(name, err.Error())
	}
	defer func() { _ = r.Close() }()

	limited := io.LimitReader(r, int64(cap64)+1)
	out, err := io.ReadAll(limited)
	if err != nil {
		return nil, gbferrs.DecompressionFailed(name, err.Error())
	}
	if uint64(len(out)) > cap64 {
		return nil, gbferrs.DecompressionFailed(name, "decompressed size exceeds cap")
	}

	return out, nil
}
