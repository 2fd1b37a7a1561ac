package filestore

import (
	"errors"
	"os"
	"path/filepath"
)

// WriteFileAtomically writes data to a temporary file in the directory
// of path and renames it to path. Either the old or the new content
// is visible, never a partial write.
// Some references:
// - https://www.slideshare.net/nan1nan1/eat-my-data
// - https://lwn.net/Articles/457667/
func WriteFileAtomically(path string, data []byte) (err error) {
	dir, fName := filepath.Split(path)
	if fName == "" {
		return &os.PathError{Op: "open", Path: path, Err: os.ErrInvalid}
	}
	if dir == "" {
		dir = "."
	}
	tmpFile, err := os.CreateTemp(dir, fName)
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	didRename := false
	defer func() {
		if !didRename {
			// ignoring error on this one
			_ = os.Remove(tmpPath)
		}
	}()

	_, errWrite := tmpFile.Write(data)
	// https://www.joeshaw.org/dont-defer-close-on-writable-files/
	errSync := tmpFile.Sync()
	errClose := tmpFile.Close()
	if err = errors.Join(errWrite, errSync, errClose); err != nil {
		return err
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return err
	}
	didRename = true
	// for extra protection against crashes elsewhere,
	// sync directory after rename
	if fdir, _ := os.Open(dir); fdir != nil {
		// ignore errors as those are a nice have, not must have
		_ = fdir.Sync()
		_ = fdir.Close()
	}
	return nil
}
