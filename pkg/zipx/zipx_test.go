package zipx

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildArchive(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestCheckMagic(t *testing.T) {
	archive := buildArchive(t, map[string]string{"a.txt": "hello"})
	assert.NoError(t, CheckMagic(archive))

	png := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A}
	assert.ErrorIs(t, CheckMagic(png), ErrNotZip)

	assert.ErrorIs(t, CheckMagic(nil), ErrNotZip)
	assert.ErrorIs(t, CheckMagic([]byte{0x50, 0x4B}), ErrNotZip)
}

func TestInspectBareHeader(t *testing.T) {
	// A payload that is only the 4 magic bytes passes the magic check but
	// has no central directory.
	header := []byte{0x50, 0x4B, 0x03, 0x04}
	require.NoError(t, CheckMagic(header))
	assert.ErrorIs(t, Inspect(header, DefaultLimits), ErrInvalidArchive)
}

func TestInspectTotalSizeLimit(t *testing.T) {
	archive := buildArchive(t, map[string]string{"big.bin": string(bytes.Repeat([]byte{'x'}, 4096))})
	err := Inspect(archive, InspectLimits{MaxTotalUncompressed: 1024, MaxEntryRatio: 100, RatioFloor: 1 << 20})
	assert.ErrorIs(t, err, ErrBomb)
}

func TestInspectRatioLimit(t *testing.T) {
	// 8 MiB of zeros deflates to a few KiB: far past 100:1 over a 1 MiB floor.
	archive := buildArchive(t, map[string]string{"zeros.bin": string(make([]byte, 8<<20))})
	err := Inspect(archive, DefaultLimits)
	assert.ErrorIs(t, err, ErrBomb)
}

func TestInspectAcceptsOrdinaryArchive(t *testing.T) {
	archive := buildArchive(t, map[string]string{
		"word/document.xml": "<doc>some document text</doc>",
		"other.txt":         "more content",
	})
	assert.NoError(t, Inspect(archive, DefaultLimits))
}

func TestRecompressPreservesEntries(t *testing.T) {
	entries := map[string]string{
		"word/document.xml":   "<doc>" + string(bytes.Repeat([]byte("repetitive content "), 200)) + "</doc>",
		"[Content_Types].xml": "<Types/>",
	}
	archive := buildArchive(t, entries)

	out, err := Recompress(archive)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(out), int64(len(out)))
	require.NoError(t, err)
	require.Len(t, zr.File, len(entries))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		got, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		assert.Equal(t, entries[f.Name], string(got), "entry %s must survive byte-for-byte", f.Name)
	}
}

func TestRecompressShrinksStoredArchive(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.CreateHeader(&zip.FileHeader{Name: "data.xml", Method: zip.Store})
	require.NoError(t, err)
	_, err = w.Write(bytes.Repeat([]byte("redundant redundant "), 500))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	out, err := Recompress(buf.Bytes())
	require.NoError(t, err)
	assert.Less(t, len(out), buf.Len())
}

func TestRecompressRejectsGarbage(t *testing.T) {
	_, err := Recompress([]byte("not an archive at all"))
	assert.ErrorIs(t, err, ErrInvalidArchive)
}
