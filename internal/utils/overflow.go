package utils

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// CheckMultiplyOverflow checks if multiplying two uint64 values would overflow.
// Returns an error if overflow would occur.
func CheckMultiplyOverflow(a, b uint64) error {
	if a == 0 || b == 0 {
		return nil // No overflow when either is zero
	}

	if a > math.MaxUint64/b {
		return fmt.Errorf("multiplication overflow: %d * %d exceeds uint64 max", a, b)
	}

	return nil
}

// SafeMultiply multiplies two uint64 values and returns the result if no overflow occurs.
// Returns 0 and an error if overflow would occur.
func SafeMultiply(a, b uint64) (uint64, error) {
	if err := CheckMultiplyOverflow(a, b); err != nil {
		return 0, err
	}
	return a * b, nil
}

// SafeAdd adds two uint64 values and returns the result if no overflow occurs.
// Returns 0 and an error if a+b would wrap past math.MaxUint64, mirroring the
// checked_add_u64 calls the Rust reference makes around offset/size
// arithmetic before indexing into a file.
func SafeAdd(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, fmt.Errorf("addition overflow: %d + %d exceeds uint64 max", a, b)
	}
	return a + b, nil
}

// SafeSubtract subtracts b from a and returns the result if a >= b.
// Returns 0 and an error on underflow.
func SafeSubtract(a, b uint64) (uint64, error) {
	if b > a {
		return 0, fmt.Errorf("subtraction underflow: %d - %d would be negative", a, b)
	}
	return a - b, nil
}

// ElementCount computes the product of a shape's dimensions, returning 0 if
// any dimension is 0 (per GBF's "0 if any dim is 0" shape rule).
func ElementCount(shape []uint64) (uint64, error) {
	n := uint64(1)
	for _, dim := range shape {
		if dim == 0 {
			return 0, nil
		}

		var err error
		n, err = SafeMultiply(n, dim)
		if err != nil {
			return 0, fmt.Errorf("shape element count overflow: %w", err)
		}
	}
	return n, nil
}

// ValidateBufferSize validates that a buffer size is within reasonable limits.
// maxSize parameter allows different limits for different use cases.
func ValidateBufferSize(size, maxSize uint64, description string) error {
	if size > maxSize {
		return fmt.Errorf("%s: size %s exceeds maximum %s",
			description, humanize.IBytes(size), humanize.IBytes(maxSize))
	}

	return nil
}

// Size limits of the container format. The reader checks header_len
// against MaxHeaderSize; per-field sizes are checked against
// compress.MaxFieldCap, which has the same value as MaxFieldSize.
const (
	// MaxHeaderSize bounds the header_len field (spec: header_len <= 64 MiB).
	MaxHeaderSize = 64 * 1024 * 1024

	// MaxFieldSize bounds a single field's csize/usize (spec: <= 16 GiB).
	MaxFieldSize = 16 * 1024 * 1024 * 1024
)
