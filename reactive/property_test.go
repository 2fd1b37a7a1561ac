package reactive

import (
	"testing"

	"github.com/kjk/appregistry/require"
)

func TestProperty(t *testing.T) {
	p := New("Price", 0)
	require.Equal(t, "Price", p.Name)

	var changes []int
	unsubscribe := p.Subscribe(func(p *Property[int], old int) {
		changes = append(changes, old, p.Value)
	})
	p.Set(3000)
	// same value doesn't notify
	p.Set(3000)
	require.Equal(t, []int{0, 3000}, changes)
	require.Equal(t, 3000, p.Get())

	unsubscribe()
	p.Set(1)
	require.Len(t, changes, 2)
	require.Equal(t, 1, p.Get())
}

func TestPropertyZeroValue(t *testing.T) {
	var p Property[string]
	n := 0
	p.Subscribe(func(*Property[string], string) { n++ })
	p.Set("WPF入門")
	require.Equal(t, 1, n)
	require.Equal(t, "WPF入門", p.Get())
}
