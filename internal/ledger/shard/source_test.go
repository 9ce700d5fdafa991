package shard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flightsurety/pkg/domain"
)

func TestAssign_DistinctAndInRange(t *testing.T) {
	src := NewNonceSource([]byte("genesis"))
	for i := range 500 {
		account := domain.AddressFromSeed(string(rune('a' + i%26)))
		idx := Assign(src, account)
		for j, v := range idx {
			assert.Less(t, v, Count)
			for k := j + 1; k < len(idx); k++ {
				require.NotEqual(t, v, idx[k], "indexes must be pairwise distinct: %v", idx)
			}
		}
	}
}

func TestAssign_SkipsCollisions(t *testing.T) {
	src := NewSequence(7, 7, 7, 2, 7, 2, 9)
	assert.Equal(t, [3]uint8{7, 2, 9}, Assign(src, domain.AddressFromSeed("oracle")))
}

func TestAssign_FallsBackWhenSourceIsStuck(t *testing.T) {
	src := NewSequence(4)
	assert.Equal(t, [3]uint8{4, 0, 1}, Assign(src, domain.AddressFromSeed("oracle")))
}

func TestSequence_ReducesModCount(t *testing.T) {
	src := NewSequence(13, 25)
	assert.Equal(t, uint8(3), src.Next(""))
	assert.Equal(t, uint8(5), src.Next(""))
	assert.Equal(t, uint8(3), src.Next(""), "sequence cycles")
}

func TestNonceSource(t *testing.T) {
	t.Run("is deterministic for the same seed", func(t *testing.T) {
		a, b := NewNonceSource([]byte("seed")), NewNonceSource([]byte("seed"))
		account := domain.AddressFromSeed("oracle")
		for range 20 {
			assert.Equal(t, a.Next(account), b.Next(account))
		}
	})

	t.Run("nonce wraps after the limit", func(t *testing.T) {
		src := NewNonceSource(nil)
		for range NonceWrap {
			src.Next("")
		}
		assert.Equal(t, NonceWrap, src.Nonce())
		src.Next("")
		assert.Equal(t, uint64(0), src.Nonce())
	})
}
