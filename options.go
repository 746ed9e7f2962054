package gbf

import (
	"github.com/scigolib/gbf/internal/compress"
	"github.com/scigolib/gbf/internal/gbfreader"
	"github.com/scigolib/gbf/internal/gbfwriter"
)

// ProducerVersion is stamped into every written file's header
// producer_version field, analogous to how the teacher embeds a
// format/library version in its superblock.
const ProducerVersion = "gbf-go/0.1.0"

// writeConfig accumulates WriteOption settings before being translated
// into gbfwriter.Options. Mirrors the teacher's FileWriterOption
// pattern (rebalancing_options.go) generalized from B-tree tuning
// knobs to GBF's compression/CRC/header knobs.
type writeConfig struct {
	mode            compress.Mode
	level           int
	crc             bool
	prettyHeader    bool
	producerVersion string
}

// WriteOption configures WriteFile's encoding behavior.
type WriteOption func(*writeConfig)

// WithCompressionMode selects Never/Always/Auto. Default is ModeAuto.
func WithCompressionMode(mode compress.Mode) WriteOption {
	return func(c *writeConfig) { c.mode = mode }
}

// WithCompression is a convenience wrapper equivalent to
// WithCompressionMode(ModeAlways) when enabled is true, or
// WithCompressionMode(ModeNever) when false.
func WithCompression(enabled bool) WriteOption {
	return func(c *writeConfig) {
		if enabled {
			c.mode = compress.ModeAlways
		} else {
			c.mode = compress.ModeNever
		}
	}
}

// WithCompressionLevel sets the zlib compression level (klauspost/compress
// accepts stdlib's 0-9 range plus -1/-2 sentinels; 0 stores without
// compressing). Default is -1.
func WithCompressionLevel(level int) WriteOption {
	return func(c *writeConfig) { c.level = level }
}

// WithCRC enables per-field CRC-32 computation and storage.
func WithCRC(enabled bool) WriteOption {
	return func(c *writeConfig) { c.crc = enabled }
}

// WithPrettyHeader serializes the header JSON indented rather than
// compact. Either profile is internally consistent; mixing them across
// writers of the same file is a caller error, not a format one.
func WithPrettyHeader(enabled bool) WriteOption {
	return func(c *writeConfig) { c.prettyHeader = enabled }
}

// WithProducerVersion overrides the default ProducerVersion stamped
// into the header, mainly useful for tests that pin an exact string.
func WithProducerVersion(version string) WriteOption {
	return func(c *writeConfig) { c.producerVersion = version }
}

func newWriteConfig(opts []WriteOption) writeConfig {
	cfg := writeConfig{
		mode:            compress.ModeAuto,
		level:           -1,
		producerVersion: ProducerVersion,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func (c writeConfig) toInternal() gbfwriter.Options {
	return gbfwriter.Options{
		CompressionMode:  c.mode,
		CompressionLevel: c.level,
		CRC:              c.crc,
		PrettyHeader:     c.prettyHeader,
		ProducerVersion:  c.producerVersion,
	}
}

// ReadOptions controls validation behavior for the read side. Unlike
// writing, reading has exactly one toggle, so it's a plain struct
// rather than a functional-option set (spec §6's read option bag is
// just `{validate}`).
type ReadOptions struct {
	Validate bool
}

func (o ReadOptions) toInternal() gbfreader.Options {
	return gbfreader.Options{Validate: o.Validate}
}
