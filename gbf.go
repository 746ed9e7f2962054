package gbf

import (
	"path/filepath"

	"github.com/scigolib/gbf/internal/gbfreader"
	"github.com/scigolib/gbf/internal/gbfwriter"
	"github.com/scigolib/gbf/internal/header"
)

// defaultExt is appended to a path with no extension, matching the
// Rust reference's convention that a bare name names a ".gbf" file.
const defaultExt = ".gbf"

// Header is the on-disk header record: format/version metadata plus
// the field table. Aliased from internal/header so external callers
// of ReadHeaderOnly/Summary never need to import an internal package.
type Header = header.Header

// FieldEntry describes one field's on-disk placement and codec
// metadata within a Header's field table.
type FieldEntry = header.FieldEntry

func normalizePath(path string) string {
	if filepath.Ext(path) == "" {
		return path + defaultExt
	}
	return path
}

// WriteFile serializes root to path, creating or atomically replacing
// the destination file. If path has no extension, ".gbf" is appended.
func WriteFile(path string, root *Value, opts ...WriteOption) error {
	cfg := newWriteConfig(opts)
	return gbfwriter.WriteFile(normalizePath(path), root, cfg.toInternal())
}

// ReadFile reads and reassembles the entire value tree stored at path.
func ReadFile(path string, opts ReadOptions) (*Value, error) {
	return gbfreader.ReadFile(normalizePath(path), opts.toInternal())
}

// ReadVar reads a single named field (exact match on its dotted path)
// or the subtree rooted at a dotted path prefix.
func ReadVar(path, name string, opts ReadOptions) (*Value, error) {
	return gbfreader.ReadVar(normalizePath(path), name, opts.toInternal())
}

// ReadHeaderOnly parses and optionally validates path's header without
// reading any field payload. It returns the parsed header, the
// header_len value from the file's length prefix, and the raw header
// JSON bytes (without the trailing newline).
func ReadHeaderOnly(path string, opts ReadOptions) (*Header, uint64, []byte, error) {
	return gbfreader.ReadHeaderOnly(normalizePath(path), opts.toInternal())
}

// SummaryStats is a small header-only digest: field count, total
// payload bytes, and the realized compression ratio. Grounded on the
// Rust reference's gbin.rs summary helper (the inspector TUI around it
// is out of scope, the pure computation over header metadata is not).
type SummaryStats struct {
	FieldCount       int
	TotalCSize       uint64
	TotalUSize       uint64
	CompressionRatio float64
}

// Summary computes header-only statistics from an already-parsed
// Header, with no additional file I/O.
func Summary(hdr *Header) SummaryStats {
	stats := SummaryStats{FieldCount: len(hdr.Fields)}
	for _, f := range hdr.Fields {
		stats.TotalCSize += uint64(f.CSize)
		stats.TotalUSize += uint64(f.USize)
	}
	if stats.TotalUSize > 0 {
		stats.CompressionRatio = float64(stats.TotalCSize) / float64(stats.TotalUSize)
	}
	return stats
}
