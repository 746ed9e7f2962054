package gbfwriter

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scigolib/gbf"
	"github.com/scigolib/gbf/internal/compress"
	"github.com/scigolib/gbf/internal/header"
)

func sampleRoot(t *testing.T) *gbf.Value {
	t.Helper()
	data := make([]byte, 8*2048)
	for i := range data {
		data[i] = byte(i % 251)
	}
	v, err := gbf.NewNumeric(gbf.ClassDouble, []uint64{2048}, false, data, nil)
	require.NoError(t, err)
	root, err := gbf.NewStruct(map[string]*gbf.Value{"x": v})
	require.NoError(t, err)
	return root
}

func TestWriteFile_ProducesWellFormedContainer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.gbf")

	err := WriteFile(path, sampleRoot(t), Options{
		CompressionMode: compress.ModeNever,
		CRC:             true,
	})
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, len(raw) > 12)

	require.Equal(t, []byte("GREDBIN\x00"), raw[:8])
	headerLen := binary.LittleEndian.Uint32(raw[8:12])
	require.True(t, headerLen >= 2)

	headerBytes := raw[12 : 12+headerLen]
	require.Equal(t, byte('\n'), headerBytes[len(headerBytes)-1])

	hdr, err := header.Unmarshal(headerBytes[:len(headerBytes)-1])
	require.NoError(t, err)
	require.Equal(t, "struct", hdr.Root)
	require.Len(t, hdr.Fields, 1)
	require.Equal(t, "x", hdr.Fields[0].Name)
	require.Equal(t, uint64(12)+uint64(headerLen), uint64(hdr.PayloadStart))
	require.Equal(t, uint64(len(raw)), uint64(hdr.FileSize))
	require.NotEqual(t, "00000000", hdr.HeaderCRC32Hex)
}

func TestWriteFile_CompressionAuto_ShrinksRepetitiveData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.gbf")

	zeros := make([]byte, 8*20000)
	v, err := gbf.NewNumeric(gbf.ClassDouble, []uint64{20000}, false, zeros, nil)
	require.NoError(t, err)

	err = WriteFile(path, v, Options{CompressionMode: compress.ModeAuto, CompressionLevel: -1})
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Less(t, info.Size(), int64(len(zeros)))
}

func TestWriteFile_SingleRoot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.gbf")

	v, err := gbf.NewLogical([]uint64{3}, []byte{1, 0, 1})
	require.NoError(t, err)

	require.NoError(t, WriteFile(path, v, Options{CompressionMode: compress.ModeNever}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	headerLen := binary.LittleEndian.Uint32(raw[8:12])
	hdr, err := header.Unmarshal(raw[12 : 12+headerLen-1])
	require.NoError(t, err)
	require.Equal(t, "single", hdr.Root)
	require.Equal(t, "data", hdr.Fields[0].Name)
}

func TestWriteFile_AtomicReplace_OverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.gbf")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	v, err := gbf.NewLogical([]uint64{1}, []byte{1})
	require.NoError(t, err)
	require.NoError(t, WriteFile(path, v, Options{}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(raw), "GREDBIN\x00"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1) // no leftover temp file
}
