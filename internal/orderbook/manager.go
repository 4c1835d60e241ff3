package orderbook

import (
	"sync"

	"github.com/brightpool/arbiq/internal/pair"
	"github.com/brightpool/arbiq/internal/venue"
	"github.com/shopspring/decimal"
)

// UpdateCallback is invoked once per BEST_CHANGED outcome, after the
// manager's lock has been released (spec §4.3: "invoke the registered
// on_update(venue, pair) callback outside the lock").
type UpdateCallback func(v venue.ID, p pair.ID)

// Manager holds one Book per (venue, pair) combination, pre-initialized
// for every pair this process tracks, per spec component C4. Grounded on
// internal/orderbook/orderbookmanager.go's per-venue manager plus
// original_source/src/orderbook.h's OrderBookManager (nested
// unordered_map<ExchangeId, unordered_map<TradingPair, OrderBook>>).
type Manager struct {
	mu    sync.RWMutex
	books map[venue.ID]map[pair.ID]*Book

	cbMu sync.RWMutex
	cb   UpdateCallback

	maxDepth int
}

// NewManager pre-creates a book for every (venue, pair) combination the
// caller supplies. Combinations not supplied are created lazily on first
// reference, per spec §3's "created lazily on first reference" lifecycle
// note, which applies to any pair added after startup.
func NewManager(venues []venue.ID, pairs []pair.ID, maxDepth int) *Manager {
	m := &Manager{
		books:    make(map[venue.ID]map[pair.ID]*Book),
		maxDepth: maxDepth,
	}
	for _, v := range venues {
		m.books[v] = make(map[pair.ID]*Book)
		for _, p := range pairs {
			m.books[v][p] = New(maxDepth)
		}
	}
	return m
}

// SetUpdateCallback registers the single consumer of BEST_CHANGED events.
// Spec §4.3: "Exactly one callback is registered (the strategy)."
func (m *Manager) SetUpdateCallback(cb UpdateCallback) {
	m.cbMu.Lock()
	m.cb = cb
	m.cbMu.Unlock()
}

// Book returns the book for (venue, pair), creating it lazily if this is
// the first reference.
func (m *Manager) Book(v venue.ID, p pair.ID) *Book {
	m.mu.RLock()
	if byPair, ok := m.books[v]; ok {
		if b, ok := byPair[p]; ok {
			m.mu.RUnlock()
			return b
		}
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	byPair, ok := m.books[v]
	if !ok {
		byPair = make(map[pair.ID]*Book)
		m.books[v] = byPair
	}
	if b, ok := byPair[p]; ok {
		return b
	}
	b := New(m.maxDepth)
	byPair[p] = b
	return b
}

// ApplyUpdate forwards a book mutation to the right book and fires the
// update callback outside any lock when the top of book changed.
func (m *Manager) ApplyUpdate(v venue.ID, p pair.ID, bidsDelta, asksDelta []PriceLevel, isSnapshot bool) (UpdateOutcome, error) {
	b := m.Book(v, p)
	outcome, err := b.Update(bidsDelta, asksDelta, isSnapshot)
	if err != nil {
		return outcome, err
	}
	if outcome == BestChanged {
		m.fire(v, p)
	}
	return outcome, nil
}

// ApplyBestBidAsk forwards a top-of-book-only replacement (venues that
// stream BBO rather than a full ladder) and fires the update callback when
// it changed the top of book.
func (m *Manager) ApplyBestBidAsk(v venue.ID, p pair.ID, bidPrice, bidQty, askPrice, askQty decimal.Decimal) {
	b := m.Book(v, p)
	if b.SetBestBidAsk(bidPrice, bidQty, askPrice, askQty) == BestChanged {
		m.fire(v, p)
	}
}

func (m *Manager) fire(v venue.ID, p pair.ID) {
	m.cbMu.RLock()
	cb := m.cb
	m.cbMu.RUnlock()
	if cb != nil {
		cb(v, p)
	}
}

// Pairs returns every tracked (venue, pair) combination.
func (m *Manager) Pairs() []struct {
	Venue venue.ID
	Pair  pair.ID
} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []struct {
		Venue venue.ID
		Pair  pair.ID
	}
	for v, byPair := range m.books {
		for p := range byPair {
			out = append(out, struct {
				Venue venue.ID
				Pair  pair.ID
			}{Venue: v, Pair: p})
		}
	}
	return out
}
