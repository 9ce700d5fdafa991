package gate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flightsurety/pkg/domain"
)

func TestMemoryGate(t *testing.T) {
	ctx := context.Background()
	app := domain.AddressFromSeed("dapp")
	other := domain.AddressFromSeed("other")
	g := NewMemory(app)

	t.Run("starts operational", func(t *testing.T) {
		ok, err := g.IsOperational(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("authorizes only listed clients", func(t *testing.T) {
		ok, _ := g.IsAuthorized(ctx, app)
		assert.True(t, ok)
		ok, _ = g.IsAuthorized(ctx, other)
		assert.False(t, ok)
		ok, _ = g.IsAuthorized(ctx, "")
		assert.False(t, ok, "anonymous callers are never authorized")
	})

	t.Run("admin changes take effect", func(t *testing.T) {
		require.NoError(t, g.SetOperational(ctx, false))
		ok, _ := g.IsOperational(ctx)
		assert.False(t, ok)

		require.NoError(t, g.Authorize(ctx, other))
		require.NoError(t, g.Revoke(ctx, app))
		clients, err := g.Clients(ctx)
		require.NoError(t, err)
		assert.Equal(t, []domain.Address{other}, clients)
	})
}
