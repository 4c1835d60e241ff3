package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpool/arbiq/internal/exchange"
	"github.com/brightpool/arbiq/internal/orderbook"
	"github.com/brightpool/arbiq/internal/pair"
	"github.com/brightpool/arbiq/internal/timer"
	"github.com/brightpool/arbiq/internal/venue"
	"github.com/brightpool/arbiq/pkg/log"
)

func TestNewUnknownVenueErrors(t *testing.T) {
	books := orderbook.NewManager(nil, nil, 50)
	timers := timer.NewService(log.Nop())
	t.Cleanup(timers.Close)

	_, err := New(venue.Unknown, []pair.ID{pair.BTC_USDT}, books, timers, exchange.NoopSigner{}, log.Nop())
	require.Error(t, err)
}

func TestNewRegistryBuildsOneClientPerVenue(t *testing.T) {
	books := orderbook.NewManager(nil, nil, 50)
	timers := timer.NewService(log.Nop())
	t.Cleanup(timers.Close)

	cfg := map[venue.ID][]pair.ID{
		venue.Binance: {pair.BTC_USDT},
		venue.Kraken:  {pair.BTC_USDT},
	}
	reg, err := NewRegistry(cfg, books, timers, nil, log.Nop())
	require.NoError(t, err)

	assert.Len(t, reg.All(), 2)

	c, ok := reg.Client(venue.Binance)
	require.True(t, ok)
	assert.Equal(t, venue.Binance, c.Venue())

	_, ok = reg.Client(venue.OKX)
	assert.False(t, ok)
}

func TestNewRegistrySignerForOverridesNoop(t *testing.T) {
	books := orderbook.NewManager(nil, nil, 50)
	timers := timer.NewService(log.Nop())
	t.Cleanup(timers.Close)

	called := false
	signerFor := func(v venue.ID) exchange.Signer {
		called = true
		return exchange.NoopSigner{}
	}

	cfg := map[venue.ID][]pair.ID{venue.Bybit: {pair.BTC_USDT}}
	_, err := NewRegistry(cfg, books, timers, signerFor, log.Nop())
	require.NoError(t, err)
	assert.True(t, called)
}
