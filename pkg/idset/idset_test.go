package idset_test

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/escrowd/pkg/idset"
)

func TestSet(t *testing.T) {
	t.Run("add_remove", func(t *testing.T) {
		s := idset.New()
		require.True(t, s.Add(1))
		require.True(t, s.Add(2))
		require.True(t, s.Add(3))
		require.False(t, s.Add(2))
		require.Equal(t, 3, s.Len())

		require.True(t, s.Remove(1))
		require.False(t, s.Remove(1))
		require.False(t, s.Contains(1))
		require.True(t, s.Contains(2))
		require.True(t, s.Contains(3))
		require.ElementsMatch(t, []uint64{2, 3}, s.IDs())

		require.True(t, s.Remove(3))
		require.True(t, s.Remove(2))
		require.Zero(t, s.Len())
		require.Empty(t, s.IDs())
	})

	t.Run("clone", func(t *testing.T) {
		s := idset.New()
		s.Add(10)
		cp := s.Clone()
		cp.Add(11)
		cp.Remove(10)
		require.True(t, s.Contains(10))
		require.False(t, s.Contains(11))
	})

	t.Run("random_ops", func(t *testing.T) {
		r := rand.New(rand.NewSource(42))
		s := idset.New()
		expected := map[uint64]struct{}{}

		for i := 0; i < 5000; i++ {
			id := uint64(r.Intn(200))
			if r.Intn(2) == 0 {
				_, present := expected[id]
				require.Equal(t, !present, s.Add(id))
				expected[id] = struct{}{}
			} else {
				_, present := expected[id]
				require.Equal(t, present, s.Remove(id))
				delete(expected, id)
			}
		}

		ids := s.IDs()
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		expectedIDs := make([]uint64, 0, len(expected))
		for id := range expected {
			expectedIDs = append(expectedIDs, id)
		}
		sort.Slice(expectedIDs, func(i, j int) bool {
			return expectedIDs[i] < expectedIDs[j]
		})
		require.Equal(t, expectedIDs, ids)
	})
}
