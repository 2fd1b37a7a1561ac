// Package filestore implements regstore.Store on a local file system.
//
// Each location is a directory (Dir/Software/Consto/Tests/Settings)
// with entries in values.txt in regstore.Entries format.
// values.txt is re-written atomically when a modified key is closed.
package filestore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kjk/appregistry/regpath"
	"github.com/kjk/appregistry/regstore"
)

const ValuesFileName = "values.txt"

var ErrInvalidPath = errors.New("invalid location path")

type Store struct {
	// Dir is the root directory of all locations. Use "." for current directory.
	Dir string

	// serializes flushes of locations
	mu sync.Mutex
}

var _ regstore.Store = &Store{}

func New(dir string) *Store {
	return &Store{Dir: dir}
}

// LocationDir returns directory where location path is stored
func (s *Store) LocationDir(path string) (string, error) {
	if s.Dir == "" {
		return "", fmt.Errorf("directory is not set. For current directory, use '.'")
	}
	segments := regpath.Split(path)
	if len(segments) == 0 {
		return "", fmt.Errorf("%w: '%s'", ErrInvalidPath, path)
	}
	parts := []string{s.Dir}
	for _, seg := range segments {
		if seg == "" || seg == "." || seg == ".." || strings.ContainsAny(seg, `/\`) {
			return "", fmt.Errorf("%w: '%s'", ErrInvalidPath, path)
		}
		parts = append(parts, seg)
	}
	return filepath.Join(parts...), nil
}

func (s *Store) Open(path string, writable bool) (regstore.Key, error) {
	dir, err := s.LocationDir(path)
	if err != nil {
		return nil, err
	}
	filePath := filepath.Join(dir, ValuesFileName)
	d, err := os.ReadFile(filePath)
	exists := err == nil
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if !exists && !writable {
		return nil, fmt.Errorf("%w: %s", regstore.ErrNotExist, path)
	}
	entries, err := regstore.UnmarshalEntries(d)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	k := &regstore.BufferedKey{
		Entries: entries,
	}
	if !writable {
		return k, nil
	}
	if !exists {
		if err = os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
		// creates values.txt even if nothing is written
		k.Dirty = true
	}
	k.Flush = func(e regstore.Entries) error {
		d, err := e.Marshal()
		if err != nil {
			return err
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		return WriteFileAtomically(filePath, d)
	}
	return k, nil
}
