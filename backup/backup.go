// Package backup exports a location of a regstore.Store to a file and
// imports it back.
//
// The file has the same format as regstore.Entries.Marshal(), optionally
// compressed based on file extension (see CompressionForPath).
package backup

import (
	"fmt"
	"os"

	"github.com/kjk/appregistry/filestore"
	"github.com/kjk/appregistry/log"
	"github.com/kjk/appregistry/regstore"
)

// Export writes all entries of location path in s to dstPath.
// Returns number of exported entries.
func Export(s regstore.Store, path string, dstPath string) (int, error) {
	entries, err := regstore.ReadAll(s, path)
	if err != nil {
		return 0, err
	}
	d, err := entries.Marshal()
	if err != nil {
		return 0, err
	}
	c := CompressionForPath(dstPath)
	d, err = Compress(c, d)
	if err != nil {
		return 0, fmt.Errorf("compressing with %s: %w", c, err)
	}
	if err = filestore.WriteFileAtomically(dstPath, d); err != nil {
		return 0, err
	}
	log.Verbosef("backup.Export: %d entries of '%s' to '%s'\n", len(entries), path, dstPath)
	return len(entries), nil
}

// Import writes all entries from srcPath into location path in s,
// creating the location if needed. Entries not in srcPath are left as is.
// Returns number of imported entries.
func Import(s regstore.Store, path string, srcPath string) (int, error) {
	d, err := os.ReadFile(srcPath)
	if err != nil {
		return 0, err
	}
	c := CompressionForPath(srcPath)
	d, err = Decompress(c, d)
	if err != nil {
		return 0, fmt.Errorf("decompressing '%s' with %s: %w", srcPath, c, err)
	}
	entries, err := regstore.UnmarshalEntries(d)
	if log.IfErrf(err, "backup.Import: parsing '%s' failed with '%s'\n", srcPath, err) {
		return 0, fmt.Errorf("parsing '%s': %w", srcPath, err)
	}
	if err = regstore.WriteAll(s, path, entries); err != nil {
		return 0, err
	}
	log.Verbosef("backup.Import: %d entries from '%s' to '%s'\n", len(entries), srcPath, path)
	return len(entries), nil
}
