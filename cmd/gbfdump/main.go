// Command gbfdump prints a GBF file's header summary and, optionally,
// a hex dump of an arbitrary byte range — a debugging aid, not a
// product CLI, mirroring the teacher's own cmd/dump_hdf5.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/scigolib/gbf"
)

func main() {
	validate := flag.Bool("validate", true, "validate header CRC/file_size/payload_start")
	hexOffset := flag.Int64("hex-offset", -1, "if set, hex-dump raw bytes starting at this file offset")
	hexLength := flag.Int("hex-length", 128, "number of bytes to hex-dump")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		fmt.Println("Usage: gbfdump [flags] <file.gbf>")
		flag.PrintDefaults()
		return
	}
	path := args[0]

	hdr, headerLen, _, err := gbf.ReadHeaderOnly(path, gbf.ReadOptions{Validate: *validate})
	if err != nil {
		log.Fatalf("failed to read header: %v", err)
	}

	stats := gbf.Summary(hdr)
	fmt.Printf("format:           %s v%d\n", hdr.Format, hdr.Version)
	fmt.Printf("root:             %s\n", hdr.Root)
	fmt.Printf("created_utc:      %s\n", hdr.CreatedUTC)
	fmt.Printf("producer_version: %s\n", hdr.ProducerVersion)
	fmt.Printf("header_len:       %d\n", headerLen)
	fmt.Printf("payload_start:    %d\n", hdr.PayloadStart)
	fmt.Printf("file_size:        %d\n", hdr.FileSize)
	fmt.Printf("header_crc32_hex: %s\n", hdr.HeaderCRC32Hex)
	fmt.Printf("fields:           %d (payload %d bytes, compressed %d bytes, ratio %.3f)\n",
		stats.FieldCount, stats.TotalUSize, stats.TotalCSize, stats.CompressionRatio)

	for _, f := range hdr.Fields {
		fmt.Printf("  %-32s kind=%-18s class=%-8s shape=%v offset=%d csize=%d usize=%d compression=%s\n",
			f.Name, f.Kind, f.Class, f.ShapeUint64(), uint64(f.Offset), uint64(f.CSize), uint64(f.USize), f.Compression)
	}

	if *hexOffset >= 0 {
		hexDump(path, *hexOffset, *hexLength)
	}
}

func hexDump(path string, offset int64, length int) {
	f, err := os.Open(path) //nolint:gosec // caller-supplied debug target
	if err != nil {
		log.Fatalf("failed to open file: %v", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		log.Fatalf("failed to stat file: %v", err)
	}
	fileSize := info.Size()

	if offset >= fileSize {
		log.Fatalf("offset %d beyond file size %d", offset, fileSize)
	}
	remaining := fileSize - offset
	readLength := int64(length)
	if readLength > remaining {
		readLength = remaining
	}

	buf := make([]byte, readLength)
	n, err := f.ReadAt(buf, offset)
	if err != nil {
		log.Printf("read error: %v (read %d of %d bytes)", err, n, readLength)
	}

	fmt.Printf("\nhex dump of %d bytes at offset 0x%x (%d):\n", n, offset, offset)
	for i := 0; i < n; i += 16 {
		end := i + 16
		if end > n {
			end = n
		}
		chunk := buf[i:end]

		fmt.Printf("%08x: ", offset+int64(i))
		for j := 0; j < 16; j++ {
			if j < len(chunk) {
				fmt.Printf("%02x ", chunk[j])
			} else {
				fmt.Print("   ")
			}
			if j == 7 {
				fmt.Print(" ")
			}
		}
		fmt.Print(" |")
		for _, b := range chunk {
			if b >= 32 && b <= 126 {
				fmt.Printf("%c", b)
			} else {
				fmt.Print(".")
			}
		}
		fmt.Println("|")
	}
}
