// Package storetest has conformance checks for regstore.Store implementations
package storetest

import (
	"testing"

	"github.com/kjk/appregistry/regstore"
	"github.com/kjk/appregistry/require"
)

// Run checks that s behaves like a Store: read-only open of a missing
// location fails, entries written through one key are visible through
// the next one, closed and read-only keys reject writes.
func Run(t *testing.T, s regstore.Store) {
	t.Helper()
	path := "Software/Consto/Tests/Basics"
	_, err := s.Open(path, false)
	require.ErrorIs(t, err, regstore.ErrNotExist)

	k, err := s.Open(path, true)
	require.NoError(t, err)
	require.NoError(t, k.SetValue("Name", regstore.StringValue("The Book")))
	require.NoError(t, k.SetValue("Kind", regstore.DWordValue(1)))
	require.NoError(t, k.SetValue("Blob", regstore.BinaryValue([]byte{1, 2, 3})))
	require.ErrorIs(t, k.SetValue("Nothing", regstore.Value{}), regstore.ErrAbsentValue)
	require.Error(t, k.SetValue("", regstore.StringValue("v")))
	require.NoError(t, k.Close())
	require.NoError(t, k.Close())
	require.ErrorIs(t, k.SetValue("Name", regstore.StringValue("x")), regstore.ErrClosed)

	k, err = s.Open(path, false)
	require.NoError(t, err)
	defer k.Close()
	names, err := k.ValueNames()
	require.NoError(t, err)
	require.Equal(t, []string{"Blob", "Kind", "Name"}, names)

	v, err := k.GetValue("Name", regstore.StringValue("default"))
	require.NoError(t, err)
	require.Equal(t, regstore.StringValue("The Book"), v)
	v, err = k.GetValue("Missing", regstore.QWordValue(5))
	require.NoError(t, err)
	require.Equal(t, regstore.QWordValue(5), v)
	v, err = k.GetValue("Missing", regstore.Value{})
	require.NoError(t, err)
	require.True(t, v.IsAbsent())
	require.ErrorIs(t, k.SetValue("Name", regstore.StringValue("x")), regstore.ErrReadOnly)
}

