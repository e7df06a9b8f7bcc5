package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
)

// sampleBytes bounds how much of the source file is read from each end. Two
// files agreeing on prefix, suffix, and byte size are treated as identical
// input for caching purposes; this is a cache key, not a cryptographic
// identity.
const sampleBytes = 1 << 20

// Input derives a stable content fingerprint for a media file from a bounded
// prefix and suffix of its bytes plus its total size. Reading the whole file
// would dominate pipeline startup on multi-hour recordings.
func Input(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("stat input: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("input %q is a directory", path)
	}
	size := info.Size()

	h := sha256.New()
	_, _ = h.Write([]byte(strconv.FormatInt(size, 10)))
	_, _ = h.Write([]byte{0})

	if _, err := io.CopyN(h, file, min64(size, sampleBytes)); err != nil && err != io.EOF {
		return "", fmt.Errorf("hash prefix: %w", err)
	}

	if size > sampleBytes {
		offset := size - sampleBytes
		if offset < sampleBytes {
			offset = sampleBytes
		}
		if offset < size {
			if _, err := file.Seek(offset, io.SeekStart); err != nil {
				return "", fmt.Errorf("seek suffix: %w", err)
			}
			_, _ = h.Write([]byte{0})
			if _, err := io.Copy(h, file); err != nil {
				return "", fmt.Errorf("hash suffix: %w", err)
			}
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
