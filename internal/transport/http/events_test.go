package httptransport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwttoken "flightsurety/internal/jwt_token"
	"flightsurety/internal/notify"
	"flightsurety/pkg/domain"
)

func dialEvents(t *testing.T, srv *httptest.Server, query string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	tokens := jwttoken.NewJWTService("k", jwttoken.DefaultIssuer, jwttoken.DefaultAudience)
	token, err := tokens.GenerateAccessToken(domain.AddressFromSeed("watcher"), dapp, time.Hour)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/events" + query
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	return websocket.DefaultDialer.Dial(url, header)
}

func readEvent(t *testing.T, conn *websocket.Conn) notify.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	e, err := notify.Decode(data)
	require.NoError(t, err)
	return e
}

func TestEventStream(t *testing.T) {
	ctx := context.Background()

	t.Run("streams notifications matching the filter", func(t *testing.T) {
		hub := notify.NewHub(8)
		_, router := newScaffold(t, WithEventStream(hub))
		srv := httptest.NewServer(router)
		defer srv.Close()

		conn, _, err := dialEvents(t, srv, "?types=status_confirmed,insurance_credited")
		require.NoError(t, err)
		defer conn.Close()
		require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)

		require.NoError(t, hub.Deliver(ctx, notify.Event{Type: notify.EventConfirmationRequested, Flight: "ND1309"}))
		require.NoError(t, hub.Deliver(ctx, notify.Event{Type: notify.EventStatusConfirmed, Flight: "ND1309", Status: 20}))

		got := readEvent(t, conn)
		assert.Equal(t, notify.EventStatusConfirmed, got.Type)
		assert.EqualValues(t, 20, got.Status)
	})

	t.Run("closing the client releases the subscription", func(t *testing.T) {
		hub := notify.NewHub(8)
		_, router := newScaffold(t, WithEventStream(hub))
		srv := httptest.NewServer(router)
		defer srv.Close()

		conn, _, err := dialEvents(t, srv, "")
		require.NoError(t, err)
		require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)

		require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
		conn.Close()
		assert.Eventually(t, func() bool { return hub.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("unknown type is rejected before the upgrade", func(t *testing.T) {
		_, router := newScaffold(t, WithEventStream(notify.NewHub(8)))
		srv := httptest.NewServer(router)
		defer srv.Close()

		_, resp, err := dialEvents(t, srv, "?types=boarding")
		require.ErrorIs(t, err, websocket.ErrBadHandshake)
		require.NotNil(t, resp)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("route is absent without a stream", func(t *testing.T) {
		_, router := newScaffold(t)
		srv := httptest.NewServer(router)
		defer srv.Close()

		_, resp, err := dialEvents(t, srv, "")
		require.Error(t, err)
		require.NotNil(t, resp)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
