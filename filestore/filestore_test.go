package filestore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kjk/appregistry/regstore"
	"github.com/kjk/appregistry/regstore/storetest"
	"github.com/kjk/appregistry/require"
)

func TestStore(t *testing.T) {
	s := New(t.TempDir())
	storetest.Run(t, s)
}

func TestValuesFile(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	path := "Software/Consto/Tests/Settings"
	k, err := s.Open(path, true)
	require.NoError(t, err)
	require.NoError(t, k.SetValue("BookName", regstore.StringValue("The Book")))
	require.NoError(t, k.SetValue("BookKind", regstore.DWordValue(1)))
	require.NoError(t, k.Close())

	filePath := filepath.Join(dir, "Software", "Consto", "Tests", "Settings", ValuesFileName)
	d, err := os.ReadFile(filePath)
	require.NoError(t, err)
	require.Equal(t, "BookKind:d 1\nBookName:s The Book\n", string(d))

	// no temporary files left behind
	files, err := os.ReadDir(filepath.Dir(filePath))
	require.NoError(t, err)
	require.Len(t, files, 1)
}

func TestCreateEmptyLocation(t *testing.T) {
	s := New(t.TempDir())
	k, err := s.Open("Software/a/b/c", true)
	require.NoError(t, err)
	require.NoError(t, k.Close())

	k, err = s.Open("Software/a/b/c", false)
	require.NoError(t, err)
	names, err := k.ValueNames()
	require.NoError(t, err)
	require.Len(t, names, 0)
	require.NoError(t, k.Close())
}

func TestInvalidPaths(t *testing.T) {
	s := New(t.TempDir())
	for _, path := range []string{"", "Software/../x", "Software//x", "Software/./x", `Software/a\b`} {
		_, err := s.Open(path, true)
		require.ErrorIs(t, err, ErrInvalidPath, path)
	}
	_, err := New("").Open("Software/a", true)
	require.Error(t, err)
}

func TestCorruptedValuesFile(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	locDir, err := s.LocationDir("Software/x")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(locDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(locDir, ValuesFileName), []byte("garbage"), 0644))
	_, err = s.Open("Software/x", false)
	require.Error(t, err)
}

func TestWriteFileAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, WriteFileAtomically(path, []byte("one")))
	require.NoError(t, WriteFileAtomically(path, []byte("two")))
	d, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "two", string(d))

	err = WriteFileAtomically(filepath.Join(t.TempDir(), "missing", "f.txt"), nil)
	require.Error(t, err)
	err = WriteFileAtomically(t.TempDir()+string(filepath.Separator), nil)
	require.Error(t, err)
}
