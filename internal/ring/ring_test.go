package ring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapIndex_StaysInBounds(t *testing.T) {
	const n = 5
	for start := 0; start < n; start++ {
		for k := 0; k < 3*n; k++ {
			i := WrapIndex(start, k, n)
			require.GreaterOrEqual(t, i, 0)
			require.Less(t, i, n)
		}
	}
}

func TestWrapIndex_VisitsEveryIndexOnce(t *testing.T) {
	const n = 4
	start := 2
	seen := make(map[int]bool, n)
	for k := 0; k < n; k++ {
		seen[WrapIndex(start, k, n)] = true
	}
	require.Len(t, seen, n)
}

func TestMax(t *testing.T) {
	require.Equal(t, 5, Max(5, 3))
	require.Equal(t, 5, Max(3, 5))
	require.Equal(t, 5, Max(5, 5))
}
