package require

import (
	"errors"
	"fmt"
	"testing"

	"github.com/alecthomas/assert"
)

// this is a subset of github.com/stretchr/testify/require
// on top of github.com/alecthomas/assert and only the functions I use

func failNow(t testing.TB) {
	t.Helper()
	if t.Failed() {
		t.FailNow()
	}
}

// formatMsg builds a message from msgAndArgs, the first argument
// being a format string
func formatMsg(msgAndArgs ...interface{}) string {
	if len(msgAndArgs) == 0 {
		return ""
	}
	if format, ok := msgAndArgs[0].(string); ok {
		if len(msgAndArgs) == 1 {
			return format
		}
		return fmt.Sprintf(format, msgAndArgs[1:]...)
	}
	return fmt.Sprint(msgAndArgs...)
}

// Len asserts that the specified object has specific length.
//
//	require.Len(t, names, 3)
func Len(t testing.TB, object interface{}, length int, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Len(t, object, length, msgAndArgs...)
	failNow(t)
}

// Nil asserts that the specified object is nil.
func Nil(t testing.TB, object interface{}, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Nil(t, object, msgAndArgs...)
	failNow(t)
}

// NotNil asserts that the specified object is not nil.
func NotNil(t testing.TB, object interface{}, msgAndArgs ...interface{}) {
	t.Helper()
	assert.NotNil(t, object, msgAndArgs...)
	failNow(t)
}

// NoError asserts that a function returned no error (i.e. `nil`).
func NoError(t testing.TB, err error, msgAndArgs ...interface{}) {
	t.Helper()
	assert.NoError(t, err, msgAndArgs...)
	failNow(t)
}

// Error asserts that a function returned an error (i.e. not `nil`).
func Error(t testing.TB, err error, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Error(t, err, msgAndArgs...)
	failNow(t)
}

// ErrorIs asserts that errors.Is(err, target) is true.
//
//	require.ErrorIs(t, err, registry.ErrNullArgument)
func ErrorIs(t testing.TB, err error, target error, msgAndArgs ...interface{}) {
	t.Helper()
	if errors.Is(err, target) {
		return
	}
	msg := formatMsg(msgAndArgs...)
	if msg != "" {
		msg = ": " + msg
	}
	t.Errorf("error '%v' is not '%v'%s", err, target, msg)
	t.FailNow()
}

// Equal asserts that two objects are equal.
//
//	require.Equal(t, 123, 123)
func Equal(t testing.TB, expected interface{}, actual interface{}, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Equal(t, expected, actual, msgAndArgs...)
	failNow(t)
}

// NotEqual asserts that the specified values are NOT equal.
func NotEqual(t testing.TB, expected interface{}, actual interface{}, msgAndArgs ...interface{}) {
	t.Helper()
	assert.NotEqual(t, expected, actual, msgAndArgs...)
	failNow(t)
}

// True asserts that the specified value is true.
func True(t testing.TB, value bool, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, value, msgAndArgs...)
	failNow(t)
}

// False asserts that the specified value is false.
func False(t testing.TB, value bool, msgAndArgs ...interface{}) {
	t.Helper()
	assert.False(t, value, msgAndArgs...)
	failNow(t)
}
