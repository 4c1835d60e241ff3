// Package pair is the static trading-pair registry (spec component C2): a
// closed enumerant of canonical pairs plus per-pair metadata, including the
// venue-specific symbol spelling each exchange expects on the wire.
package pair

import "github.com/brightpool/arbiq/internal/venue"

// ID identifies a canonical trading pair. The zero value is Unknown.
type ID int

const (
	Unknown ID = iota
	BTC_USDT
	ETH_USDT
	SOL_USDT
)

// Meta holds the static, per-pair data the rest of the engine reads: the
// canonical display symbol, the two legs, the decimal precision Kraken's
// checksum formatting requires, and the venue-specific symbol spelling.
type Meta struct {
	ID             ID
	Symbol         string // canonical display form, e.g. "BTC/USDT"
	Base           string
	Quote          string
	PricePrecision int32 // decimal digits used when formatting the Kraken checksum string
	VenueSymbols   map[venue.ID]string
}

var registry = map[ID]Meta{
	BTC_USDT: {
		ID:             BTC_USDT,
		Symbol:         "BTC/USDT",
		Base:           "BTC",
		Quote:          "USDT",
		PricePrecision: 1,
		VenueSymbols: map[venue.ID]string{
			venue.Binance: "BTCUSDT",
			venue.Kraken:  "BTC/USD",
			venue.Bybit:   "BTCUSDT",
			venue.Crypto:  "BTC-PERP",
			venue.KuCoin:  "BTC-USDT",
			venue.OKX:     "BTC-USDT",
		},
	},
	ETH_USDT: {
		ID:             ETH_USDT,
		Symbol:         "ETH/USDT",
		Base:           "ETH",
		Quote:          "USDT",
		PricePrecision: 2,
		VenueSymbols: map[venue.ID]string{
			venue.Binance: "ETHUSDT",
			venue.Kraken:  "ETH/USD",
			venue.Bybit:   "ETHUSDT",
			venue.Crypto:  "ETH-PERP",
			venue.KuCoin:  "ETH-USDT",
			venue.OKX:     "ETH-USDT",
		},
	},
	SOL_USDT: {
		ID:             SOL_USDT,
		Symbol:         "SOL/USDT",
		Base:           "SOL",
		Quote:          "USDT",
		PricePrecision: 3,
		VenueSymbols: map[venue.ID]string{
			venue.Binance: "SOLUSDT",
			venue.Kraken:  "SOL/USD",
			venue.Bybit:   "SOLUSDT",
			venue.Crypto:  "SOL-PERP",
			venue.KuCoin:  "SOL-USDT",
			venue.OKX:     "SOL-USDT",
		},
	},
}

var symbolToID = func() map[string]ID {
	m := make(map[string]ID, len(registry))
	for id, meta := range registry {
		m[meta.Symbol] = id
	}
	return m
}()

// All returns every registered pair id, in registry order.
func All() []ID {
	ids := make([]ID, 0, len(registry))
	for _, id := range []ID{BTC_USDT, ETH_USDT, SOL_USDT} {
		if _, ok := registry[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Lookup returns the metadata for a pair id.
func Lookup(id ID) (Meta, bool) {
	m, ok := registry[id]
	return m, ok
}

// VenueSymbol returns the wire symbol a venue expects for this pair.
func (id ID) VenueSymbol(v venue.ID) (string, bool) {
	m, ok := registry[id]
	if !ok {
		return "", false
	}
	s, ok := m.VenueSymbols[v]
	return s, ok
}

// FromSymbol resolves a canonical display symbol back to its id.
func FromSymbol(symbol string) (ID, bool) {
	id, ok := symbolToID[symbol]
	return id, ok
}

// FromVenueSymbol resolves a venue's wire symbol back to the canonical pair
// id. Returns Unknown, false if no registered pair maps to it.
func FromVenueSymbol(v venue.ID, venueSymbol string) (ID, bool) {
	for id, meta := range registry {
		if meta.VenueSymbols[v] == venueSymbol {
			return id, true
		}
	}
	return Unknown, false
}

func (id ID) String() string {
	if m, ok := registry[id]; ok {
		return m.Symbol
	}
	return "UNKNOWN_PAIR"
}
