package registry

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/kjk/appregistry/log"
	"github.com/kjk/appregistry/regpath"
	"github.com/kjk/appregistry/regstore"
)

var (
	// ErrNullArgument is returned by Save given a nil item
	ErrNullArgument = errors.New("registry: item is nil")
	// ErrStoreUnavailable is returned when the store location can't be opened
	ErrStoreUnavailable = errors.New("registry: failed to open store location")
	// ErrUnsupportedType is returned for settings types that are not structs
	// and for values that can't be stored
	ErrUnsupportedType = errors.New("registry: unsupported type")
	// ErrTypeMismatch is returned by Load when a stored value can't be
	// converted to the type of the field
	ErrTypeMismatch = errors.New("registry: type mismatch")
)

// Defaulter is implemented by settings types that need non-zero defaults.
// Load calls SetDefaults on a new value before reading the store.
type Defaulter interface {
	SetDefaults()
}

// Registry saves and loads settings structs. Settings of type T are stored
// at regpath.Path(organization, application, <name of T>), one entry per field.
type Registry struct {
	organization string
	application  string
	store        regstore.Store
	strategy     Strategy
}

type Option func(*Registry)

// WithStrategy sets the strategy used to extract and inject field values.
// The default is Direct.
func WithStrategy(s Strategy) Option {
	return func(r *Registry) {
		r.strategy = s
	}
}

func New(organization, application string, store regstore.Store, opts ...Option) *Registry {
	r := &Registry{
		organization: organization,
		application:  application,
		store:        store,
		strategy:     Direct{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) Organization() string {
	return r.organization
}

func (r *Registry) Application() string {
	return r.application
}

func (r *Registry) Store() regstore.Store {
	return r.store
}

// PathFor returns store location of settings of type t
func (r *Registry) PathFor(t reflect.Type) string {
	return regpath.Path(r.organization, r.application, t.Name())
}

// PathOf returns store location of settings of type T
func PathOf[T any](r *Registry) string {
	return r.PathFor(reflect.TypeFor[T]())
}

func (r *Registry) open(path string, writable bool) (regstore.Key, error) {
	if r.store == nil {
		return nil, fmt.Errorf("%w: %s: no store", ErrStoreUnavailable, path)
	}
	k, err := r.store.Open(path, writable)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, path, err)
	}
	return k, nil
}

// Save writes every field of item for which the strategy has a value.
// Entries of fields without a value are left as they are.
func Save[T any](r *Registry, item *T) (err error) {
	if item == nil {
		return ErrNullArgument
	}
	t := reflect.TypeFor[T]()
	fields, err := FieldsOf(t)
	if err != nil {
		return err
	}
	path := r.PathFor(t)
	k, err := r.open(path, true)
	if err != nil {
		return err
	}
	defer func() {
		if errClose := k.Close(); err == nil && errClose != nil {
			err = fmt.Errorf("registry: save %s: %w", path, errClose)
		}
	}()

	v := reflect.ValueOf(item).Elem()
	nWritten := 0
	for _, f := range fields {
		fv, ok := r.strategy.Extract(f, v)
		if !ok {
			log.Verbosef("registry: save %s: no value for %s\n", path, f.Name)
			continue
		}
		sv, err := Encode(fv)
		if err != nil {
			return fmt.Errorf("registry: save %s.%s: %w", t.Name(), f.Name, err)
		}
		if sv.IsAbsent() {
			continue
		}
		if err = k.SetValue(f.Name, sv); err != nil {
			return fmt.Errorf("registry: save %s.%s: %w", t.Name(), f.Name, err)
		}
		nWritten++
	}
	log.Event("registry.save", "path", path, "fields", len(fields), "written", nWritten)
	return nil
}

// Load creates a new T (see Defaulter) and sets every field that has
// an entry in the store. Other fields keep their defaults.
// Fails with ErrStoreUnavailable if the location doesn't exist.
func Load[T any](r *Registry) (res *T, err error) {
	t := reflect.TypeFor[T]()
	fields, err := FieldsOf(t)
	if err != nil {
		return nil, err
	}
	path := r.PathFor(t)
	k, err := r.open(path, false)
	if err != nil {
		return nil, err
	}
	defer func() {
		if errClose := k.Close(); err == nil && errClose != nil {
			res = nil
			err = fmt.Errorf("registry: load %s: %w", path, errClose)
		}
	}()

	item := newDefault[T]()
	v := reflect.ValueOf(item).Elem()
	nLoaded := 0
	for _, f := range fields {
		var def regstore.Value
		if fv, ok := r.strategy.Extract(f, v); ok {
			// a default we can't encode is as good as no default
			def, _ = Encode(fv)
		}
		sv, err := k.GetValue(f.Name, def)
		if err != nil {
			return nil, fmt.Errorf("registry: load %s.%s: %w", t.Name(), f.Name, err)
		}
		if sv.IsAbsent() {
			continue
		}
		if err := r.strategy.Inject(f, v, sv); err != nil {
			return nil, fmt.Errorf("registry: load %s.%s: %w", t.Name(), f.Name, err)
		}
		nLoaded++
	}
	log.Event("registry.load", "path", path, "fields", len(fields), "loaded", nLoaded)
	return item, nil
}

func newDefault[T any]() *T {
	res := new(T)
	if d, ok := any(res).(Defaulter); ok {
		d.SetDefaults()
	}
	return res
}
