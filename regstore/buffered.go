package regstore

import "sync"

// BufferedKey is a Key over in-memory Entries. Backends that store a whole
// location as a single blob (a file, an object) read it on Open and write
// it back from Flush when the key is closed.
type BufferedKey struct {
	Entries Entries
	// Flush is called by Close if the key was modified (or Dirty was set
	// by the backend e.g. for a newly created location).
	// nil Flush means the key is read-only.
	Flush func(Entries) error
	Dirty bool

	closed bool
	mu     sync.Mutex
}

var _ Key = &BufferedKey{}

func (k *BufferedKey) SetValue(name string, v Value) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if v.IsAbsent() {
		return ErrAbsentValue
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return ErrClosed
	}
	if k.Flush == nil {
		return ErrReadOnly
	}
	if k.Entries == nil {
		k.Entries = Entries{}
	}
	if prev, ok := k.Entries[name]; ok && prev.Equal(v) {
		return nil
	}
	k.Entries[name] = v.Clone()
	k.Dirty = true
	return nil
}

func (k *BufferedKey) GetValue(name string, def Value) (Value, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return Value{}, ErrClosed
	}
	if v, ok := k.Entries[name]; ok {
		return v.Clone(), nil
	}
	return def, nil
}

func (k *BufferedKey) ValueNames() ([]string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return nil, ErrClosed
	}
	return k.Entries.Names(), nil
}

func (k *BufferedKey) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return nil
	}
	k.closed = true
	if k.Flush == nil || !k.Dirty {
		return nil
	}
	return k.Flush(k.Entries)
}
