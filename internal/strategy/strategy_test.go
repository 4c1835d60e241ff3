package strategy

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpool/arbiq/internal/order"
	"github.com/brightpool/arbiq/internal/orderbook"
	"github.com/brightpool/arbiq/internal/pair"
	"github.com/brightpool/arbiq/internal/timer"
	"github.com/brightpool/arbiq/internal/venue"
	"github.com/brightpool/arbiq/pkg/log"
)

type recordingForwarder struct {
	mu   sync.Mutex
	opps []order.Opportunity
}

func (f *recordingForwarder) HandleOpportunity(opp order.Opportunity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opps = append(f.opps, opp)
}

func (f *recordingForwarder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.opps)
}

func newTestStrategy(t *testing.T) (*Strategy, *orderbook.Manager, *recordingForwarder) {
	t.Helper()
	venues := []venue.ID{venue.Binance, venue.Kraken}
	pairs := []pair.ID{pair.BTC_USDT}
	books := orderbook.NewManager(venues, pairs, 50)
	fwd := &recordingForwarder{}
	timers := timer.NewService(log.Nop())
	t.Cleanup(timers.Close)

	cfg := DefaultConfig()
	s := New(cfg, venues, pairs, books, timers, fwd, log.Nop())
	return s, books, fwd
}

func setBook(t *testing.T, books *orderbook.Manager, v venue.ID, p pair.ID, bidPrice, bidQty, askPrice, askQty string) {
	t.Helper()
	books.Book(v, p).SetBestBidAsk(
		decimal.RequireFromString(bidPrice),
		decimal.RequireFromString(bidQty),
		decimal.RequireFromString(askPrice),
		decimal.RequireFromString(askQty),
	)
}

func TestScanPairForwardsOpportunityAboveExecutionMargin(t *testing.T) {
	s, books, fwd := newTestStrategy(t)

	setBook(t, books, venue.Binance, pair.BTC_USDT, "99", "1", "100", "1")
	setBook(t, books, venue.Kraken, pair.BTC_USDT, "103", "1", "104", "1")

	s.scanPair(pair.BTC_USDT)

	require.Equal(t, 1, fwd.count())
	assert.Equal(t, venue.Binance, fwd.opps[0].BuyVenue)
	assert.Equal(t, venue.Kraken, fwd.opps[0].SellVenue)
}

func TestScanPairBelowTraceableMarginDoesNothing(t *testing.T) {
	s, books, fwd := newTestStrategy(t)

	setBook(t, books, venue.Binance, pair.BTC_USDT, "99", "1", "100", "1")
	setBook(t, books, venue.Kraken, pair.BTC_USDT, "100.01", "1", "100.02", "1")

	s.scanPair(pair.BTC_USDT)

	assert.Equal(t, 0, fwd.count())
}

func TestScanPairAnomalousSpreadIsRejected(t *testing.T) {
	s, books, fwd := newTestStrategy(t)

	setBook(t, books, venue.Binance, pair.BTC_USDT, "99", "1", "100", "1")
	setBook(t, books, venue.Kraken, pair.BTC_USDT, "300", "1", "301", "1")

	s.scanPair(pair.BTC_USDT)

	assert.Equal(t, 0, fwd.count())
	// Both directions of this venue pair exceed the sanity band, so the
	// scan rejects two anomalous spreads, not one.
	assert.Equal(t, int64(2), s.AnomalyCount())
}

func TestScanPairOnlyForwardsWhenBestImproves(t *testing.T) {
	s, books, fwd := newTestStrategy(t)

	setBook(t, books, venue.Binance, pair.BTC_USDT, "99", "1", "100", "1")
	setBook(t, books, venue.Kraken, pair.BTC_USDT, "102", "1", "103", "1")
	s.scanPair(pair.BTC_USDT)
	require.Equal(t, 1, fwd.count())

	// Same (not strictly better) spread should not forward again.
	s.scanPair(pair.BTC_USDT)
	assert.Equal(t, 1, fwd.count())
}

func TestDecayTimerResetsBestSeen(t *testing.T) {
	s, books, fwd := newTestStrategy(t)

	setBook(t, books, venue.Binance, pair.BTC_USDT, "99", "1", "100", "1")
	setBook(t, books, venue.Kraken, pair.BTC_USDT, "102", "1", "103", "1")
	s.scanPair(pair.BTC_USDT)
	require.Equal(t, 1, fwd.count())

	s.onDecayTimer(0, nil)
	s.scanPair(pair.BTC_USDT)

	// After a decay reset the same spread counts as an improvement again.
	assert.Equal(t, 2, fwd.count())
}

func TestOnBookUpdateScansOnlyAffectedPair(t *testing.T) {
	s, books, fwd := newTestStrategy(t)

	setBook(t, books, venue.Binance, pair.BTC_USDT, "99", "1", "100", "1")
	setBook(t, books, venue.Kraken, pair.BTC_USDT, "102", "1", "103", "1")

	s.onBookUpdate(venue.Binance, pair.BTC_USDT)

	assert.Equal(t, 1, fwd.count())
}

func TestOnScanTimerCoversAllConfiguredPairs(t *testing.T) {
	s, books, fwd := newTestStrategy(t)

	setBook(t, books, venue.Binance, pair.BTC_USDT, "99", "1", "100", "1")
	setBook(t, books, venue.Kraken, pair.BTC_USDT, "102", "1", "103", "1")

	s.onScanTimer(0, nil)

	assert.Equal(t, 1, fwd.count())
}
