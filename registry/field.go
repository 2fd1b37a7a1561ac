package registry

import (
	"encoding"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/kjk/appregistry/log"
	"github.com/kjk/appregistry/regstore"
)

// Field describes a settings field that is saved as a single entry
type Field struct {
	// Name of the entry. Field name unless renamed with `registry:"name"` tag
	Name string
	// Index is the index sequence for reflect.Value.FieldByIndex
	Index []int
	// Type is the declared type of the field
	Type reflect.Type
	// IsEnum is true if the stored payload (the field or, for wrappers,
	// its Value) is an enum i.e. a defined integer type
	IsEnum bool
	// IsWrapper is true if the field is a generic container with a single
	// type parameter holding the payload in a field called Value
	IsWrapper bool

	// index of Value field in the wrapper struct
	valueIndex int
}

// Value returns the field of item (which must be a struct value of the type
// the field was built for)
func (f *Field) Value(item reflect.Value) reflect.Value {
	return item.FieldByIndex(f.Index)
}

// Slot returns the payload slot of a wrapper field.
// Returns false if the wrapper is a nil pointer or the field is not a wrapper.
func (f *Field) Slot(item reflect.Value) (reflect.Value, bool) {
	if !f.IsWrapper {
		return reflect.Value{}, false
	}
	w := f.Value(item)
	if w.Kind() == reflect.Pointer {
		if w.IsNil() {
			return reflect.Value{}, false
		}
		w = w.Elem()
	}
	return w.Field(f.valueIndex), true
}

func (f *Field) String() string {
	return fmt.Sprintf("%s %s", f.Name, f.Type)
}

var (
	fieldsCache sync.Map // reflect.Type => []*Field

	textMarshalerType   = reflect.TypeFor[encoding.TextMarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// Fields returns descriptors of fields of T that are saved and loaded
func Fields[T any]() ([]*Field, error) {
	return FieldsOf(reflect.TypeFor[T]())
}

// FieldsOf returns descriptors of fields of struct type t.
// Exported fields of supported types are included, others are silently
// skipped. The result is cached and must not be modified.
func FieldsOf(t reflect.Type) ([]*Field, error) {
	if v, ok := fieldsCache.Load(t); ok {
		return v.([]*Field), nil
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %v is not a struct", ErrUnsupportedType, t)
	}
	var res []*Field
	seen := map[string]string{}
	for _, sf := range reflect.VisibleFields(t) {
		if sf.Anonymous || !sf.IsExported() {
			continue
		}
		if throughEmbeddedPointer(t, sf.Index) {
			log.Verbosef("registry: skipping %s.%s: promoted through embedded pointer\n", t.Name(), sf.Name)
			continue
		}
		name := sf.Name
		if tag, ok := sf.Tag.Lookup("registry"); ok {
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}
		if err := regstore.ValidateName(name); err != nil {
			return nil, fmt.Errorf("%w: field %s of %s: %w", ErrUnsupportedType, sf.Name, t, err)
		}
		f := &Field{
			Name:  name,
			Index: sf.Index,
			Type:  sf.Type,
		}
		payload := sf.Type
		if idx, ok := wrapperValueIndex(sf.Type); ok {
			f.IsWrapper = true
			f.valueIndex = idx
			payload = derefType(sf.Type).Field(idx).Type
		}
		if !isSupported(payload) {
			log.Verbosef("registry: skipping %s.%s: unsupported type %s\n", t.Name(), sf.Name, sf.Type)
			continue
		}
		if prev, ok := seen[name]; ok {
			return nil, fmt.Errorf("%w: fields %s and %s of %s use the same entry name '%s'", ErrUnsupportedType, prev, sf.Name, t, name)
		}
		seen[name] = sf.Name
		f.IsEnum = isEnum(derefType(payload))
		res = append(res, f)
	}
	v, _ := fieldsCache.LoadOrStore(t, res)
	return v.([]*Field), nil
}

func throughEmbeddedPointer(t reflect.Type, index []int) bool {
	for _, i := range index[:len(index)-1] {
		sf := t.Field(i)
		if sf.Type.Kind() == reflect.Pointer {
			return true
		}
		t = sf.Type
	}
	return false
}

func derefType(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Pointer {
		return t.Elem()
	}
	return t
}

// wrapperValueIndex returns index of Value field if t (or *t) is a struct
// instantiated from a generic type with a single type argument,
// e.g. reactive.Property[int]
func wrapperValueIndex(t reflect.Type) (int, bool) {
	t = derefType(t)
	if t.Kind() != reflect.Struct {
		return 0, false
	}
	if typeArgsCount(t.Name()) != 1 {
		return 0, false
	}
	sf, ok := t.FieldByName("Value")
	if !ok || !sf.IsExported() || len(sf.Index) != 1 {
		return 0, false
	}
	return sf.Index[0], true
}

// typeArgsCount returns number of type arguments in the name of
// an instantiated generic type e.g. 2 for "Pair[int,map[string]int]"
func typeArgsCount(name string) int {
	start := strings.IndexByte(name, '[')
	if start <= 0 || !strings.HasSuffix(name, "]") {
		return 0
	}
	args := name[start+1 : len(name)-1]
	if args == "" {
		return 0
	}
	n := 1
	depth := 0
	for _, c := range args {
		switch c {
		case '[', '(', '{':
			depth++
		case ']', ')', '}':
			depth--
		case ',':
			if depth == 0 {
				n++
			}
		}
	}
	return n
}

// enum is a defined type with an integer kind that fits in 32 bits
// (or int, uint), e.g. `type BookType int` or os.FileMode
func isEnum(t reflect.Type) bool {
	if t.Name() == "" || t.PkgPath() == "" {
		return false
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return true
	}
	return false
}

func isTextType(t reflect.Type) bool {
	return t.Implements(textMarshalerType) && reflect.PointerTo(t).Implements(textUnmarshalerType)
}

func isSupported(t reflect.Type) bool {
	t = derefType(t)
	if isEnum(t) || isTextType(t) {
		return true
	}
	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	case reflect.Slice:
		return t.Elem().Kind() == reflect.Uint8
	}
	return false
}
