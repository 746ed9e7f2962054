package compress

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecide_Never(t *testing.T) {
	require.False(t, Decide(ModeNever, "numeric", "double", bytes.Repeat([]byte{0}, 100000)))
}

func TestDecide_Always(t *testing.T) {
	require.False(t, Decide(ModeAlways, "numeric", "int32", make([]byte, 100)))
	require.True(t, Decide(ModeAlways, "numeric", "int32", make([]byte, 2000)))
}

func TestDecide_AutoFloatFloor(t *testing.T) {
	// Below the float floor: never compress even though >= 1 KiB, all zero bytes.
	small := make([]byte, 2000)
	require.False(t, Decide(ModeAuto, "numeric", "double", small))

	// Above the float floor, all-zero (low entropy): should compress.
	large := make([]byte, 100000)
	require.True(t, Decide(ModeAuto, "numeric", "double", large))
}

func TestDecide_AutoHighEntropySkipped(t *testing.T) {
	data := make([]byte, 100000)
	rng := rand.New(rand.NewSource(1))
	_, _ = rng.Read(data)

	require.False(t, Decide(ModeAuto, "numeric", "double", data))
}

func TestDecide_AutoNonFloatIgnoresFloatFloor(t *testing.T) {
	data := make([]byte, 2000) // all zero, below float floor but not a float class
	require.True(t, Decide(ModeAuto, "numeric", "int8", data))
}

func TestCompressDecompressRoundTrip(t *testing.T) {
	raw := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog "), 200)

	compressed, err := Compress(raw, 6)
	require.NoError(t, err)
	require.Less(t, len(compressed), len(raw))

	out, err := Decompress("field", compressed, uint64(len(raw)))
	require.NoError(t, err)
	require.Equal(t, raw, out)
}

func TestDecompress_CapExceeded(t *testing.T) {
	raw := bytes.Repeat([]byte("a"), 10000)
	compressed, err := Compress(raw, 6)
	require.NoError(t, err)

	_, err = Decompress("field", compressed, 10)
	require.Error(t, err)
}

func TestDecompress_CorruptedStream(t *testing.T) {
	raw := bytes.Repeat([]byte("corruption test data "), 50)
	compressed, err := Compress(raw, 6)
	require.NoError(t, err)

	corrupted := append([]byte(nil), compressed...)
	corrupted[len(corrupted)/2] ^= 0xFF

	_, err = Decompress("field", corrupted, uint64(len(raw)))
	require.Error(t, err)
}
