package hostenv

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault_HWRandPerThreadSequenceDiffersAndAdvances(t *testing.T) {
	d := NewDefault(2)

	a1 := d.HWRand(0)
	a2 := d.HWRand(0)
	require.NotEqual(t, a1, a2, "repeated calls for the same thread must advance its generator")

	b1 := d.HWRand(1)
	require.NotEqual(t, a1, b1, "different threads seed from different state")
}

func TestDefault_HWTimeNonDecreasing(t *testing.T) {
	d := NewDefault(1)
	prev := d.HWTime()
	for i := 0; i < 100; i++ {
		next := d.HWTime()
		require.GreaterOrEqual(t, next, prev)
		prev = next
	}
}
