package pair

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpool/arbiq/internal/venue"
)

func TestAllListsEveryRegisteredPairInOrder(t *testing.T) {
	assert.Equal(t, []ID{BTC_USDT, ETH_USDT, SOL_USDT}, All())
}

func TestLookupKnownAndUnknown(t *testing.T) {
	m, ok := Lookup(BTC_USDT)
	require.True(t, ok)
	assert.Equal(t, "BTC/USDT", m.Symbol)

	_, ok = Lookup(Unknown)
	assert.False(t, ok)
}

func TestVenueSymbolKnownAndUnknown(t *testing.T) {
	sym, ok := BTC_USDT.VenueSymbol(venue.Binance)
	require.True(t, ok)
	assert.Equal(t, "BTCUSDT", sym)

	sym, ok = BTC_USDT.VenueSymbol(venue.Kraken)
	require.True(t, ok)
	assert.Equal(t, "BTC/USD", sym)

	_, ok = Unknown.VenueSymbol(venue.Binance)
	assert.False(t, ok)
}

func TestFromSymbolRoundTrips(t *testing.T) {
	for _, id := range All() {
		m, ok := Lookup(id)
		require.True(t, ok)
		got, ok := FromSymbol(m.Symbol)
		assert.True(t, ok)
		assert.Equal(t, id, got)
	}
}

func TestFromSymbolUnknown(t *testing.T) {
	_, ok := FromSymbol("NOPE/NOPE")
	assert.False(t, ok)
}

func TestFromVenueSymbolRoundTrips(t *testing.T) {
	id, ok := FromVenueSymbol(venue.OKX, "ETH-USDT")
	require.True(t, ok)
	assert.Equal(t, ETH_USDT, id)
}

func TestFromVenueSymbolUnknown(t *testing.T) {
	id, ok := FromVenueSymbol(venue.Binance, "NOT-A-SYMBOL")
	assert.False(t, ok)
	assert.Equal(t, Unknown, id)
}

func TestStringKnownAndUnknown(t *testing.T) {
	assert.Equal(t, "BTC/USDT", BTC_USDT.String())
	assert.Equal(t, "UNKNOWN_PAIR", Unknown.String())
}
