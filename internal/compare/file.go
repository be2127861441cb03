package compare

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
)

var gzipMagic = []byte{0x1f, 0x8b}

// readContent returns the file content, decompressed when it carries the
// gzip magic bytes. A corrupt gzip stream falls back to the raw bytes.
func readContent(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(data, gzipMagic) {
		return data, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return data, nil
	}
	defer func() { _ = zr.Close() }()
	plain, err := io.ReadAll(zr)
	if err != nil {
		return data, nil
	}
	return plain, nil
}

// compareFiles compares the (decompressed) contents of two files.
func compareFiles(expected, actual string) (bool, string) {
	want, err := readContent(expected)
	if err != nil {
		return false, fmt.Sprintf("reading expected file: %v", err)
	}
	got, err := readContent(actual)
	if err != nil {
		return false, fmt.Sprintf("reading actual file: %v", err)
	}
	if bytes.Equal(want, got) {
		return true, ""
	}
	return false, fmt.Sprintf("file contents differ: %s (xxh64 %016x, %d bytes) vs %s (xxh64 %016x, %d bytes)",
		expected, xxhash.Sum64(want), len(want), actual, xxhash.Sum64(got), len(got))
}
