package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpool/arbiq/internal/xerrors"
)

func TestRESTClientDoSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/ping", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	rc := NewRESTClient("BINANCE", srv.URL, NoopSigner{}, nil)
	data, err := rc.Do(context.Background(), http.MethodGet, "/v1/ping", nil, false)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(data))
}

func TestRESTClientDoFailsFastDuringCooldown(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rc := NewRESTClient("BINANCE", srv.URL, NoopSigner{}, nil)
	rc.Cooldown.Trigger(time.Minute)

	_, err := rc.Do(context.Background(), http.MethodGet, "/v1/ping", nil, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, xerrors.ErrCooldown)
	assert.False(t, called, "a call in cooldown must never reach the network")
}

func TestRESTClientDoTriggersCooldownOn429(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "120")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	rc := NewRESTClient("BINANCE", srv.URL, NoopSigner{}, nil)
	_, err := rc.Do(context.Background(), http.MethodGet, "/v1/order", nil, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, xerrors.ErrRateLimited)
	assert.True(t, rc.Cooldown.Active())
}

func TestRESTClientDoTriggersCooldownOnOrderRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":-1,"msg":"bad symbol"}`))
	}))
	defer srv.Close()

	rc := NewRESTClient("BINANCE", srv.URL, NoopSigner{}, nil)
	_, err := rc.Do(context.Background(), http.MethodPost, "/v1/order", map[string]string{"symbol": "BTCUSDT"}, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, xerrors.ErrOrderRejected)
	assert.True(t, rc.Cooldown.Active())
}

func TestRESTClientDoSignsAndSetsHeaders(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("X-API-KEY")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rc := NewRESTClient("BINANCE", srv.URL, HMACSigner{APIKey: "my-key", APISecret: "my-secret"}, nil)
	_, err := rc.Do(context.Background(), http.MethodPost, "/v1/order", map[string]string{"symbol": "BTCUSDT"}, true)
	require.NoError(t, err)
	assert.Equal(t, "my-key", gotAuth)
}
