package regstore

import (
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store intended for tests and examples.
// Writes are visible to other keys immediately.
type MemoryStore struct {
	mu        sync.RWMutex
	locations map[string]Entries
}

var _ Store = &MemoryStore{}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{locations: map[string]Entries{}}
}

func (s *MemoryStore) Open(path string, writable bool) (Key, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locations == nil {
		s.locations = map[string]Entries{}
	}
	if _, ok := s.locations[path]; !ok {
		if !writable {
			return nil, ErrNotExist
		}
		s.locations[path] = Entries{}
	}
	return &memoryKey{store: s, path: path, writable: writable}, nil
}

// Entries returns a copy of entries of a location
func (s *MemoryStore) Entries(path string) (Entries, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.locations[path]
	if !ok {
		return nil, false
	}
	return e.Clone(), true
}

// Paths returns sorted paths of all locations
func (s *MemoryStore) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []string
	for path := range s.locations {
		res = append(res, path)
	}
	sort.Strings(res)
	return res
}

type memoryKey struct {
	store    *MemoryStore
	path     string
	writable bool
	closed   bool
}

func (k *memoryKey) SetValue(name string, v Value) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if v.IsAbsent() {
		return ErrAbsentValue
	}
	if k.closed {
		return ErrClosed
	}
	if !k.writable {
		return ErrReadOnly
	}
	s := k.store
	s.mu.Lock()
	s.locations[k.path][name] = v.Clone()
	s.mu.Unlock()
	return nil
}

func (k *memoryKey) GetValue(name string, def Value) (Value, error) {
	if k.closed {
		return Value{}, ErrClosed
	}
	s := k.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.locations[k.path][name]; ok {
		return v.Clone(), nil
	}
	return def, nil
}

func (k *memoryKey) ValueNames() ([]string, error) {
	if k.closed {
		return nil, ErrClosed
	}
	s := k.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.locations[k.path].Names(), nil
}

func (k *memoryKey) Close() error {
	k.closed = true
	return nil
}
