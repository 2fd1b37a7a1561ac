package registry

import (
	"reflect"

	"github.com/kjk/appregistry/regstore"
)

// Strategy decides how a value is taken out of and put into a field.
// Registry calls it for every field of a settings struct.
type Strategy interface {
	// Extract returns the value to store for field f of item.
	// Returns false if there's nothing to store (the entry is not written).
	Extract(f *Field, item reflect.Value) (reflect.Value, bool)
	// Inject stores v loaded from the store in field f of item
	Inject(f *Field, item reflect.Value, v regstore.Value) error
}

// Direct reads and writes fields directly.
// A nil pointer field has no value to store.
type Direct struct{}

var _ Strategy = Direct{}

func (Direct) Extract(f *Field, item reflect.Value) (reflect.Value, bool) {
	v := f.Value(item)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	return v, true
}

func (Direct) Inject(f *Field, item reflect.Value, v regstore.Value) error {
	return Assign(f.Value(item), v)
}

// Unwrapping stores the Value of wrapper fields (like reactive.Property)
// instead of the wrapper itself. Other fields are handled like Direct.
// The wrapper must already exist: it's not allocated on Inject.
type Unwrapping struct {
	Direct
}

var _ Strategy = Unwrapping{}

func (s Unwrapping) Extract(f *Field, item reflect.Value) (reflect.Value, bool) {
	if !f.IsWrapper {
		return s.Direct.Extract(f, item)
	}
	slot, ok := f.Slot(item)
	if !ok {
		return reflect.Value{}, false
	}
	if slot.Kind() == reflect.Pointer {
		if slot.IsNil() {
			return reflect.Value{}, false
		}
		slot = slot.Elem()
	}
	return slot, true
}

func (s Unwrapping) Inject(f *Field, item reflect.Value, v regstore.Value) error {
	if !f.IsWrapper {
		return s.Direct.Inject(f, item, v)
	}
	slot, ok := f.Slot(item)
	if !ok {
		return nil
	}
	return Assign(slot, v)
}

// StrategyFuncs is a Strategy made of functions.
// A nil function falls back to Direct.
type StrategyFuncs struct {
	ExtractFunc func(f *Field, item reflect.Value) (reflect.Value, bool)
	InjectFunc  func(f *Field, item reflect.Value, v regstore.Value) error
}

var _ Strategy = StrategyFuncs{}

func (s StrategyFuncs) Extract(f *Field, item reflect.Value) (reflect.Value, bool) {
	if s.ExtractFunc == nil {
		return Direct{}.Extract(f, item)
	}
	return s.ExtractFunc(f, item)
}

func (s StrategyFuncs) Inject(f *Field, item reflect.Value, v regstore.Value) error {
	if s.InjectFunc == nil {
		return Direct{}.Inject(f, item, v)
	}
	return s.InjectFunc(f, item, v)
}
