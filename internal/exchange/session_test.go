package exchange

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
)

func newEchoWSServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			typ, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(typ, msg); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

func TestSessionConnectAndDisconnect(t *testing.T) {
	srv := newEchoWSServer(t)

	s := NewSession(wsURL(srv.URL), nil, nil, nil, nil)
	require.NoError(t, s.Connect(context.Background()))
	assert.True(t, s.Connected())

	s.Disconnect()
	assert.False(t, s.Connected())
}

func TestSessionConnectIsIdempotent(t *testing.T) {
	srv := newEchoWSServer(t)

	s := NewSession(wsURL(srv.URL), nil, nil, nil, nil)
	require.NoError(t, s.Connect(context.Background()))
	require.NoError(t, s.Connect(context.Background()), "connecting an already-connected session is a no-op")
	s.Disconnect()
}

func TestSessionWriteRoundTripsThroughEchoServer(t *testing.T) {
	srv := newEchoWSServer(t)

	received := make(chan []byte, 1)
	s := NewSession(wsURL(srv.URL), nil, func(msg []byte) {
		received <- msg
	}, nil, nil)
	require.NoError(t, s.Connect(context.Background()))
	defer s.Disconnect()

	require.NoError(t, s.Write([]byte("ping")))

	select {
	case msg := <-received:
		assert.Equal(t, "ping", string(msg))
	case <-time.After(time.Second):
		t.Fatal("did not receive echoed message in time")
	}
}

func TestSessionConnectBadURLFails(t *testing.T) {
	s := NewSession("ws://127.0.0.1:0/does-not-exist", nil, nil, nil, nil)
	err := s.Connect(context.Background())
	assert.Error(t, err)
	assert.False(t, s.Connected())
}
