package regstore_test

import (
	"testing"

	"github.com/kjk/appregistry/regstore"
	"github.com/kjk/appregistry/regstore/storetest"
	"github.com/kjk/appregistry/require"
)

func TestMemoryStore(t *testing.T) {
	s := regstore.NewMemoryStore()
	storetest.Run(t, s)
	require.Equal(t, []string{"Software/Consto/Tests/Basics"}, s.Paths())
	e, ok := s.Entries("Software/Consto/Tests/Basics")
	require.True(t, ok)
	require.Equal(t, regstore.KindDWord, e["Kind"].Kind)
	_, ok = s.Entries("missing")
	require.False(t, ok)
}

func TestMemoryStoreZeroValue(t *testing.T) {
	var s regstore.MemoryStore
	k, err := s.Open("a", true)
	require.NoError(t, err)
	require.NoError(t, k.SetValue("n", regstore.QWordValue(1)))
	require.NoError(t, k.Close())
}

func TestReadWriteAll(t *testing.T) {
	s := regstore.NewMemoryStore()
	_, err := regstore.ReadAll(s, "p")
	require.ErrorIs(t, err, regstore.ErrNotExist)
	e := regstore.Entries{"a": regstore.StringValue("x"), "b": regstore.QWordValue(2)}
	require.NoError(t, regstore.WriteAll(s, "p", e))
	got, err := regstore.ReadAll(s, "p")
	require.NoError(t, err)
	require.Equal(t, e, got)
}

func TestBufferedKey(t *testing.T) {
	var flushed regstore.Entries
	nFlush := 0
	k := &regstore.BufferedKey{
		Entries: regstore.Entries{"a": regstore.StringValue("x")},
		Flush: func(e regstore.Entries) error {
			nFlush++
			flushed = e.Clone()
			return nil
		},
	}
	// writing the same value doesn't dirty the key
	require.NoError(t, k.SetValue("a", regstore.StringValue("x")))
	require.False(t, k.Dirty)
	require.NoError(t, k.SetValue("b", regstore.DWordValue(3)))
	require.True(t, k.Dirty)
	require.NoError(t, k.Close())
	require.NoError(t, k.Close())
	require.Equal(t, 1, nFlush)
	require.Equal(t, regstore.Entries{"a": regstore.StringValue("x"), "b": regstore.DWordValue(3)}, flushed)
	_, err := k.GetValue("a", regstore.Value{})
	require.ErrorIs(t, err, regstore.ErrClosed)

	ro := &regstore.BufferedKey{Entries: regstore.Entries{}}
	require.ErrorIs(t, ro.SetValue("a", regstore.StringValue("x")), regstore.ErrReadOnly)
	require.NoError(t, ro.Close())
}
