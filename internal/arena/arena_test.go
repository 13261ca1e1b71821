package arena

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPool_AllocReturnsDistinctAddresses(t *testing.T) {
	p := New[int](2, 4)
	a := p.Alloc(0)
	b := p.Alloc(0)
	require.NotSame(t, a, b)
	require.Equal(t, 2, p.Len(0))
	require.Equal(t, 0, p.Len(1))
	require.Equal(t, 4, p.Cap())
}

func TestPool_AllocExhaustedPanics(t *testing.T) {
	p := New[int](1, 2)
	p.Alloc(0)
	p.Alloc(0)

	// the panic value is a fresh pointer, so it is compared by value
	// (require.PanicsWithValue would compare pointer identity).
	var recovered any
	func() {
		defer func() { recovered = recover() }()
		p.Alloc(0)
	}()
	require.Equal(t, &ExhaustedError{ThreadID: 0, Capacity: 2}, recovered)
}

func TestExhaustedError_Error(t *testing.T) {
	err := &ExhaustedError{ThreadID: 3, Capacity: 10}
	require.Contains(t, err.Error(), "thread 3")
	require.Contains(t, err.Error(), "10-item")
}
