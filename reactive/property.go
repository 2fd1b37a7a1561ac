// Package reactive has Property, a value that notifies subscribers
// when it changes.
//
// Settings structs can hold *Property[T] fields; registry.Unwrapping saves
// and loads their Value.
package reactive

import "sync"

type Property[T comparable] struct {
	// Name is informational, usually the name of the field holding the property
	Name  string
	Value T

	mu     sync.Mutex
	nextID int
	subs   map[int]func(p *Property[T], old T)
}

func New[T comparable](name string, value T) *Property[T] {
	return &Property[T]{
		Name:  name,
		Value: value,
	}
}

func (p *Property[T]) Get() T {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Value
}

// Set changes the value and, if it's different, calls subscribers.
// Subscribers are called synchronously, in no particular order, after
// the value changed.
func (p *Property[T]) Set(v T) {
	p.mu.Lock()
	old := p.Value
	if old == v {
		p.mu.Unlock()
		return
	}
	p.Value = v
	fns := make([]func(*Property[T], T), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(p, old)
	}
}

// Subscribe registers fn to be called after the value changes.
// Call the returned function to unsubscribe.
func (p *Property[T]) Subscribe(fn func(p *Property[T], old T)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.subs == nil {
		p.subs = map[int]func(*Property[T], T){}
	}
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}
