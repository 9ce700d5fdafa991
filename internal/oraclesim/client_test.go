package oraclesim

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwttoken "flightsurety/internal/jwt_token"
	"flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
	"flightsurety/pkg/platform/httputil"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	tokens := jwttoken.NewJWTService("k", jwttoken.DefaultIssuer, jwttoken.DefaultAudience)
	return NewClient(srv.URL+"/", tokens, domain.AddressFromSeed("oracle-sim"), time.Minute, srv.Client())
}

func TestClient(t *testing.T) {
	ctx := context.Background()
	reporter := domain.AddressFromSeed("oracle-1")

	t.Run("retries rate limited calls", func(t *testing.T) {
		var calls atomic.Int32
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many requests"))
				return
			}
			assert.Contains(t, r.Header.Get("Authorization"), "Bearer ")
			httputil.WriteJSON(w, http.StatusOK, map[string][3]uint8{"indexes": {4, 5, 6}})
		})

		indexes, err := c.GetMyIndexes(ctx, reporter)
		require.NoError(t, err)
		assert.Equal(t, []uint8{4, 5, 6}, indexes)
		assert.EqualValues(t, 2, calls.Load())
	})

	t.Run("rejections come back coded and are not retried", func(t *testing.T) {
		var calls atomic.Int32
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			httputil.WriteError(w, dErrors.New(dErrors.CodeConflict, "oracle already registered"))
		})

		_, err := c.RegisterOracle(ctx, reporter, 1)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
		assert.EqualValues(t, 1, calls.Load())
	})

	t.Run("non envelope failures are internal", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := c.GetMyIndexes(ctx, reporter)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	})

	t.Run("unreachable ledger is unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()
		tokens := jwttoken.NewJWTService("k", jwttoken.DefaultIssuer, jwttoken.DefaultAudience)
		c := NewClient(srv.URL, tokens, domain.AddressFromSeed("oracle-sim"), time.Minute, nil)

		_, err := c.GetMyIndexes(ctx, reporter)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	})
}
