package regstore

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotExist is returned when opening a location that doesn't exist
	// in read-only mode
	ErrNotExist = errors.New("location does not exist")
	// ErrReadOnly is returned by SetValue on a key opened read-only
	ErrReadOnly = errors.New("key is read-only")
	// ErrClosed is returned by calls on a closed key
	ErrClosed = errors.New("key is closed")
	// ErrAbsentValue is returned by SetValue given a value of KindNone
	ErrAbsentValue = errors.New("can't store absent value")
)

// Store is a hierarchical namespace of locations.
type Store interface {
	// Open opens a location. If writable is true, the location is created
	// if it doesn't exist. Otherwise it fails with ErrNotExist.
	Open(path string, writable bool) (Key, error)
}

// Key is an open location.
type Key interface {
	// SetValue creates or over-writes an entry
	SetValue(name string, v Value) error
	// GetValue returns stored value of an entry or def if it doesn't exist
	GetValue(name string, def Value) (Value, error)
	// ValueNames returns sorted names of all entries
	ValueNames() ([]string, error)
	// Close releases the key. It can be called multiple times.
	Close() error
}

// ValidateName checks that name can be used as an entry name
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("entry name is empty")
	}
	if strings.ContainsAny(name, ":\n") {
		return fmt.Errorf("entry name '%s' can't contain ':' or newlines", name)
	}
	return nil
}

// ReadAll reads all entries of a location. It fails with ErrNotExist
// if the location doesn't exist.
func ReadAll(s Store, path string) (Entries, error) {
	k, err := s.Open(path, false)
	if err != nil {
		return nil, err
	}
	defer k.Close()
	names, err := k.ValueNames()
	if err != nil {
		return nil, err
	}
	res := Entries{}
	for _, name := range names {
		v, err := k.GetValue(name, Value{})
		if err != nil {
			return nil, err
		}
		if !v.IsAbsent() {
			res[name] = v
		}
	}
	return res, nil
}

// WriteAll writes entries into a location, creating it if needed
func WriteAll(s Store, path string, entries Entries) (err error) {
	k, err := s.Open(path, true)
	if err != nil {
		return err
	}
	defer func() {
		if errClose := k.Close(); err == nil {
			err = errClose
		}
	}()
	for _, name := range entries.Names() {
		if err = k.SetValue(name, entries[name]); err != nil {
			return err
		}
	}
	return nil
}
