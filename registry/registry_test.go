package registry

import (
	"errors"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/kjk/appregistry/reactive"
	"github.com/kjk/appregistry/regstore"
	"github.com/kjk/appregistry/require"
)

const (
	companyName     = "Consto"
	applicationName = "Tests"
)

type BookType int

const (
	Magazine BookType = iota
	Paperback
)

type Settings struct {
	BookKind BookType
	BookName string
	Price    int
}

type SomeMode int

const (
	ModeA SomeMode = iota
	ModeB
)

type ReactiveSettings struct {
	BookKind *reactive.Property[BookType]
	BookName *reactive.Property[string]
	Price    *reactive.Property[int]

	SomeNumber int
	SomeText   string
	SomeMode   SomeMode
}

func (s *ReactiveSettings) SetDefaults() {
	s.BookKind = reactive.New("BookKind", Magazine)
	s.BookName = reactive.New("BookName", "")
	s.Price = reactive.New("Price", 0)
}

func newReactiveSettings() *ReactiveSettings {
	s := &ReactiveSettings{}
	s.SetDefaults()
	return s
}

func requireReactiveEqual(t *testing.T, exp, got *ReactiveSettings) {
	t.Helper()
	require.Equal(t, exp.BookKind.Value, got.BookKind.Value)
	require.Equal(t, exp.BookName.Value, got.BookName.Value)
	require.Equal(t, exp.Price.Value, got.Price.Value)
	require.Equal(t, exp.SomeNumber, got.SomeNumber)
	require.Equal(t, exp.SomeText, got.SomeText)
	require.Equal(t, exp.SomeMode, got.SomeMode)
}

func TestSaveLoad(t *testing.T) {
	store := regstore.NewMemoryStore()
	r := New(companyName, applicationName, store)
	settings := &Settings{BookKind: Paperback, BookName: "The Book", Price: 1000}
	require.NoError(t, Save(r, settings))

	loaded, err := Load[Settings](r)
	require.NoError(t, err)
	require.Equal(t, settings, loaded)

	path := PathOf[Settings](r)
	require.Equal(t, "Software/Consto/Tests/Settings", path)
	e, ok := store.Entries(path)
	require.True(t, ok)
	require.Equal(t, regstore.Entries{
		"BookKind": regstore.DWordValue(1),
		"BookName": regstore.StringValue("The Book"),
		"Price":    regstore.QWordValue(1000),
	}, e)
}

func TestSaveIsIdempotent(t *testing.T) {
	store := regstore.NewMemoryStore()
	r := New(companyName, applicationName, store)
	settings := &Settings{BookKind: Paperback, BookName: "The Book", Price: 1000}
	require.NoError(t, Save(r, settings))
	e1, _ := store.Entries(PathOf[Settings](r))
	require.NoError(t, Save(r, settings))
	e2, _ := store.Entries(PathOf[Settings](r))
	require.Equal(t, e1, e2)
}

func TestReactiveSaveLoad(t *testing.T) {
	store := regstore.NewMemoryStore()
	r := New(companyName, applicationName, store, WithStrategy(Unwrapping{}))

	settings := newReactiveSettings()
	settings.BookKind.Value = Paperback
	settings.BookName.Value = "WPF入門"
	settings.Price.Value = 3000
	settings.SomeNumber = 123
	settings.SomeText = "something"
	settings.SomeMode = ModeB
	require.NoError(t, Save(r, settings))

	loaded, err := Load[ReactiveSettings](r)
	require.NoError(t, err)
	requireReactiveEqual(t, settings, loaded)

	e, _ := store.Entries(PathOf[ReactiveSettings](r))
	require.Equal(t, regstore.Entries{
		"BookKind":   regstore.DWordValue(1),
		"BookName":   regstore.StringValue("WPF入門"),
		"Price":      regstore.QWordValue(3000),
		"SomeNumber": regstore.QWordValue(123),
		"SomeText":   regstore.StringValue("something"),
		"SomeMode":   regstore.DWordValue(1),
	}, e)
}

func TestUnwrappingIsolation(t *testing.T) {
	store := regstore.NewMemoryStore()
	r := New(companyName, applicationName, store, WithStrategy(Unwrapping{}))

	settings := newReactiveSettings()
	settings.BookName.Name = "renamed"
	settings.BookName.Value = "x"
	require.NoError(t, Save(r, settings))

	e, _ := store.Entries(PathOf[ReactiveSettings](r))
	for _, v := range e {
		require.NotEqual(t, "renamed", v.Str)
	}

	loaded, err := Load[ReactiveSettings](r)
	require.NoError(t, err)
	// Name comes from SetDefaults, not from the store
	require.Equal(t, "BookName", loaded.BookName.Name)
	require.Equal(t, "x", loaded.BookName.Value)
}

func TestUnwrappingNilWrapper(t *testing.T) {
	store := regstore.NewMemoryStore()
	r := New(companyName, applicationName, store, WithStrategy(Unwrapping{}))

	settings := newReactiveSettings()
	settings.Price.Value = 10
	require.NoError(t, Save(r, settings))

	// nil wrapper: nothing to save, previous entry stays
	settings.Price = nil
	settings.SomeNumber = 5
	require.NoError(t, Save(r, settings))
	e, _ := store.Entries(PathOf[ReactiveSettings](r))
	require.Equal(t, regstore.QWordValue(10), e["Price"])
	require.Equal(t, regstore.QWordValue(5), e["SomeNumber"])
}

func TestDirectStrategyRejectsWrappers(t *testing.T) {
	r := New(companyName, applicationName, regstore.NewMemoryStore())
	err := Save(r, newReactiveSettings())
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestSaveNil(t *testing.T) {
	store := regstore.NewMemoryStore()
	r := New(companyName, applicationName, store)
	err := Save[Settings](r, nil)
	require.ErrorIs(t, err, ErrNullArgument)
	require.Len(t, store.Paths(), 0)
}

func TestLoadMissingLocation(t *testing.T) {
	r := New(companyName, applicationName, regstore.NewMemoryStore())
	_, err := Load[Settings](r)
	require.ErrorIs(t, err, ErrStoreUnavailable)
	require.ErrorIs(t, err, regstore.ErrNotExist)

	r = New(companyName, applicationName, nil)
	_, err = Load[Settings](r)
	require.ErrorIs(t, err, ErrStoreUnavailable)
	require.ErrorIs(t, Save(r, &Settings{}), ErrStoreUnavailable)
}

func TestDefaultFallback(t *testing.T) {
	store := regstore.NewMemoryStore()
	r := New(companyName, applicationName, store)
	path := PathOf[ReactiveSettings](r)
	require.NoError(t, regstore.WriteAll(store, path, regstore.Entries{
		"SomeText": regstore.StringValue("only this"),
	}))

	r = New(companyName, applicationName, store, WithStrategy(Unwrapping{}))
	loaded, err := Load[ReactiveSettings](r)
	require.NoError(t, err)
	exp := newReactiveSettings()
	exp.SomeText = "only this"
	requireReactiveEqual(t, exp, loaded)
	require.Equal(t, "Price", loaded.Price.Name)
}

type withPointers struct {
	Nickname *string
	Limit    *int32
	Kind     *BookType
}

func TestAbsentFieldSkip(t *testing.T) {
	store := regstore.NewMemoryStore()
	r := New(companyName, applicationName, store)

	name := "bob"
	kind := Paperback
	require.NoError(t, Save(r, &withPointers{Nickname: &name, Kind: &kind}))
	require.NoError(t, Save(r, &withPointers{}))

	e, _ := store.Entries(PathOf[withPointers](r))
	require.Equal(t, regstore.Entries{
		"Nickname": regstore.StringValue("bob"),
		"Kind":     regstore.DWordValue(1),
	}, e)

	loaded, err := Load[withPointers](r)
	require.NoError(t, err)
	require.Equal(t, "bob", *loaded.Nickname)
	require.Equal(t, Paperback, *loaded.Kind)
	require.Nil(t, loaded.Limit)
}

func TestStrategyFuncs(t *testing.T) {
	store := regstore.NewMemoryStore()
	skipPrice := StrategyFuncs{
		ExtractFunc: func(f *Field, item reflect.Value) (reflect.Value, bool) {
			if f.Name == "Price" {
				return reflect.Value{}, false
			}
			return Direct{}.Extract(f, item)
		},
	}
	r := New(companyName, applicationName, store, WithStrategy(skipPrice))
	require.NoError(t, Save(r, &Settings{BookName: "a", Price: 5}))
	e, _ := store.Entries(PathOf[Settings](r))
	_, ok := e["Price"]
	require.False(t, ok)
	require.Len(t, e, 2)

	errInject := errors.New("inject failed")
	failing := StrategyFuncs{
		InjectFunc: func(f *Field, item reflect.Value, v regstore.Value) error {
			return errInject
		},
	}
	r = New(companyName, applicationName, store, WithStrategy(failing))
	_, err := Load[Settings](r)
	require.ErrorIs(t, err, errInject)
}

func TestTypeMismatch(t *testing.T) {
	store := regstore.NewMemoryStore()
	r := New(companyName, applicationName, store)
	require.NoError(t, regstore.WriteAll(store, PathOf[Settings](r), regstore.Entries{
		"Price": regstore.BinaryValue([]byte{1}),
	}))
	_, err := Load[Settings](r)
	require.ErrorIs(t, err, ErrTypeMismatch)
}

func TestNotAStruct(t *testing.T) {
	r := New(companyName, applicationName, regstore.NewMemoryStore())
	n := 5
	require.ErrorIs(t, Save(r, &n), ErrUnsupportedType)
	_, err := Load[int](r)
	require.ErrorIs(t, err, ErrUnsupportedType)
}

type Base struct {
	Theme string
}

type allKinds struct {
	Base
	Enabled  bool
	Small    int8
	Port     uint16
	Big      uint64
	Ratio    float64
	Scale    float32
	Icon     []byte
	Timeout  time.Duration
	Created  time.Time
	Color    string `registry:"Colour"`
	Ignored  string `registry:"-"`
	Tags     []string
	internal int
}

func TestAllKindsRoundtrip(t *testing.T) {
	store := regstore.NewMemoryStore()
	r := New(companyName, applicationName, store)
	v := &allKinds{
		Base:    Base{Theme: "dark"},
		Enabled: true,
		Small:   -3,
		Port:    8080,
		Big:     18446744073709551615,
		Ratio:   0.1,
		Scale:   1.5,
		Icon:    []byte{0, 1, 2},
		Timeout: 3 * time.Second,
		Created: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Color:   "red",
		Ignored: "not saved",
		Tags:    []string{"a"},
	}
	require.NoError(t, Save(r, v))
	e, _ := store.Entries(PathOf[allKinds](r))
	require.Equal(t, regstore.StringValue("red"), e["Colour"])
	require.Equal(t, regstore.DWordValue(1), e["Enabled"])
	require.Equal(t, regstore.StringValue("2024-05-01T10:00:00Z"), e["Created"])
	_, ok := e["Ignored"]
	require.False(t, ok)
	_, ok = e["Tags"]
	require.False(t, ok)

	loaded, err := Load[allKinds](r)
	require.NoError(t, err)
	require.True(t, v.Created.Equal(loaded.Created))
	v.Created = time.Time{}
	loaded.Created = time.Time{}
	v.Ignored = ""
	v.Tags = nil
	require.Equal(t, v, loaded)
}

type UserID int

type permissions struct {
	Mode  os.FileMode
	Owner UserID
	Group UserID
}

func TestWideEnumsRoundtrip(t *testing.T) {
	store := regstore.NewMemoryStore()
	r := New(companyName, applicationName, store)
	v := &permissions{Mode: os.ModeDir | 0755, Owner: 5e9, Group: -1}
	require.NoError(t, Save(r, v))

	e, _ := store.Entries(PathOf[permissions](r))
	require.Equal(t, regstore.KindDWord, e["Mode"].Kind)
	require.Equal(t, regstore.QWordValue(5e9), e["Owner"])
	require.Equal(t, regstore.DWordValue(-1), e["Group"])

	loaded, err := Load[permissions](r)
	require.NoError(t, err)
	require.Equal(t, v, loaded)
	require.True(t, loaded.Mode.IsDir())
}
