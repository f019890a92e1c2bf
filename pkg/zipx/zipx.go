// Package zipx holds the archive-level checks and transforms the service runs
// on uploaded and exported DOCX payloads: magic-byte validation, zip-bomb
// inspection against the central directory, and in-memory recompression.
package zipx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// Magic is the ZIP local file header every DOCX starts with.
var Magic = []byte{0x50, 0x4B, 0x03, 0x04}

var (
	// ErrNotZip reports a payload whose first bytes are not a ZIP header.
	ErrNotZip = errors.New("not a zip archive")
	// ErrInvalidArchive reports a payload with a ZIP header but no readable
	// central directory.
	ErrInvalidArchive = errors.New("invalid or truncated archive")
	// ErrBomb reports an archive whose declared expansion is implausible.
	ErrBomb = errors.New("archive expansion limit exceeded")
)

// CheckMagic verifies the payload begins with the ZIP local file header.
func CheckMagic(data []byte) error {
	if len(data) < len(Magic) || !bytes.Equal(data[:len(Magic)], Magic) {
		return ErrNotZip
	}
	return nil
}

// InspectLimits bounds what Inspect accepts.
type InspectLimits struct {
	// MaxTotalUncompressed caps the sum of declared uncompressed entry sizes.
	MaxTotalUncompressed uint64
	// MaxEntryRatio caps uncompressed/compressed per entry, applied only
	// above RatioFloor so tiny highly-compressible entries pass.
	MaxEntryRatio uint64
	// RatioFloor is the uncompressed size below which the ratio check is
	// skipped.
	RatioFloor uint64
}

// DefaultLimits are the service defaults: 250 MiB total, 100:1 per entry
// beyond a 1 MiB floor.
var DefaultLimits = InspectLimits{
	MaxTotalUncompressed: 250 << 20,
	MaxEntryRatio:        100,
	RatioFloor:           1 << 20,
}

// Inspect walks the archive central directory without extracting anything and
// rejects archives whose declared expansion exceeds the limits.
func Inspect(data []byte, limits InspectLimits) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}

	var total uint64
	for _, f := range zr.File {
		total += f.UncompressedSize64
		if total > limits.MaxTotalUncompressed {
			return fmt.Errorf("%w: declared size exceeds %d bytes", ErrBomb, limits.MaxTotalUncompressed)
		}
		if f.UncompressedSize64 > limits.RatioFloor && f.CompressedSize64 > 0 {
			if f.UncompressedSize64/f.CompressedSize64 > limits.MaxEntryRatio {
				return fmt.Errorf("%w: entry %q ratio exceeds %d:1", ErrBomb, f.Name, limits.MaxEntryRatio)
			}
		}
	}
	return nil
}

// Recompress rewrites the archive with maximum-compression deflate entries,
// preserving entry names and contents byte-for-byte. The whole operation is
// in-memory.
func Recompress(data []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}

	var out bytes.Buffer
	zw := zip.NewWriter(&out)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.BestCompression)
	})

	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open entry %q: %w", f.Name, err)
		}
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: f.Modified,
		})
		if err != nil {
			rc.Close()
			return nil, fmt.Errorf("create entry %q: %w", f.Name, err)
		}
		if _, err := io.Copy(w, rc); err != nil {
			rc.Close()
			return nil, fmt.Errorf("copy entry %q: %w", f.Name, err)
		}
		rc.Close()
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	return out.Bytes(), nil
}
