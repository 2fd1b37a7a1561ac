package backup

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kjk/appregistry/regstore"
	"github.com/kjk/appregistry/require"
)

func TestCompressionForPath(t *testing.T) {
	tests := []struct {
		path string
		exp  Compression
	}{
		{"settings.txt", None},
		{"settings", None},
		{"settings.txt.gz", Gzip},
		{"settings.txt.GZ", Gzip},
		{"settings.zst", Zstd},
		{"settings.zstd", Zstd},
		{"dir.br/settings.txt.br", Brotli},
	}
	for _, test := range tests {
		require.Equal(t, test.exp, CompressionForPath(test.path), test.path)
	}
}

func TestCompressRoundtrip(t *testing.T) {
	d := []byte(strings.Repeat("BookName:s The Book\nPrice:q 1000\n", 100))
	for _, c := range []Compression{None, Gzip, Zstd, Brotli} {
		compressed, err := Compress(c, d)
		require.NoError(t, err, c.String())
		if c != None {
			require.True(t, len(compressed) < len(d), c.String())
		}
		got, err := Decompress(c, compressed)
		require.NoError(t, err, c.String())
		require.Equal(t, d, got, c.String())
	}
}

func TestDecompressInvalid(t *testing.T) {
	_, err := Decompress(Gzip, []byte("not gzip"))
	require.Error(t, err)
	_, err = Decompress(Zstd, []byte("not zstd"))
	require.Error(t, err)
}

func TestExportImport(t *testing.T) {
	src := regstore.NewMemoryStore()
	path := "Software/Consto/Tests/Settings"
	entries := regstore.Entries{
		"BookKind": regstore.DWordValue(1),
		"BookName": regstore.StringValue("WPF入門"),
		"Price":    regstore.QWordValue(3000),
		"Blob":     regstore.BinaryValue([]byte{0, 1, 2, '\n'}),
	}
	require.NoError(t, regstore.WriteAll(src, path, entries))

	dir := t.TempDir()
	for _, name := range []string{"settings.txt", "settings.txt.gz", "settings.zst", "settings.txt.br"} {
		dstPath := filepath.Join(dir, name)
		n, err := Export(src, path, dstPath)
		require.NoError(t, err, name)
		require.Equal(t, 4, n)

		dst := regstore.NewMemoryStore()
		n, err = Import(dst, path, dstPath)
		require.NoError(t, err, name)
		require.Equal(t, 4, n)
		got, ok := dst.Entries(path)
		require.True(t, ok)
		require.Equal(t, entries, got, name)
	}

	d, err := os.ReadFile(filepath.Join(dir, "settings.txt"))
	require.NoError(t, err)
	require.True(t, strings.Contains(string(d), "BookKind:d 1\n"))
}

func TestExportMissingLocation(t *testing.T) {
	s := regstore.NewMemoryStore()
	_, err := Export(s, "Software/Nope", filepath.Join(t.TempDir(), "x.txt"))
	require.ErrorIs(t, err, regstore.ErrNotExist)
}

func TestImportInvalid(t *testing.T) {
	dir := t.TempDir()
	s := regstore.NewMemoryStore()
	_, err := Import(s, "Software/Consto", filepath.Join(dir, "missing.txt"))
	require.Error(t, err)

	path := filepath.Join(dir, "bad.txt.gz")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0644))
	_, err = Import(s, "Software/Consto", path)
	require.Error(t, err)
}
