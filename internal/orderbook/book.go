// Package orderbook implements the per-venue-per-pair order book (spec
// component C3) and the manager that owns all of them (C4).
//
// The sorted-ladder representation (decimal-keyed treemap for each side)
// and the BestPrices-style accessors are grounded on
// internal/orderbook/orderbook.go's BookArray/AskBookArray/BidBookArray in
// the teacher repo and original_source/src/orderbook.h's OrderBook class.
// The Kraken checksum algorithm in checksum.go is a direct translation of
// original_source/src/api_kraken.cpp's formatPrice/formatQty/
// buildChecksumString/computeChecksum.
package orderbook

import (
	"sync"
	"time"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/shopspring/decimal"
)

// PriceLevel is one resting price/quantity pair. Quantity == 0 in a delta
// means "remove this level"; quantity > 0 means "insert or overwrite".
type PriceLevel struct {
	Price decimal.Decimal
	Qty   decimal.Decimal
}

// UpdateOutcome reports what Update did to the top of book.
type UpdateOutcome int

const (
	UnchangedBest UpdateOutcome = iota
	BestChanged
	UpdateError
)

func (o UpdateOutcome) String() string {
	switch o {
	case BestChanged:
		return "BEST_CHANGED"
	case UpdateError:
		return "ERROR"
	default:
		return "UNCHANGED_BEST"
	}
}

func ascComparator(a, b interface{}) int {
	return a.(decimal.Decimal).Cmp(b.(decimal.Decimal))
}

func descComparator(a, b interface{}) int {
	return b.(decimal.Decimal).Cmp(a.(decimal.Decimal))
}

// Book is a two-sided sorted ladder for one (venue, pair). All accessors
// take a read lock; Update/SetBestBidAsk take a write lock. Zero value is
// not usable; use New.
type Book struct {
	mu sync.RWMutex

	bids *treemap.Map // descending by price: First() == best bid
	asks *treemap.Map // ascending by price: First() == best ask

	lastUpdate      time.Time
	lastUpdateID    int64
	hasSnapshot     bool
	subscribed      bool
	maxDepth        int
	checksumSamples int64
}

// New constructs an empty book with the given max ladder depth.
func New(maxDepth int) *Book {
	return &Book{
		bids:     treemap.NewWith(descComparator),
		asks:     treemap.NewWith(ascComparator),
		maxDepth: maxDepth,
	}
}

func cloneMap(src *treemap.Map, comparator func(a, b interface{}) int) *treemap.Map {
	dst := treemap.NewWith(comparator)
	it := src.Iterator()
	for it.Next() {
		dst.Put(it.Key(), it.Value())
	}
	return dst
}

func applyDeltas(base *treemap.Map, comparator func(a, b interface{}) int, deltas []PriceLevel) *treemap.Map {
	out := cloneMap(base, comparator)
	for _, d := range deltas {
		if d.Qty.IsZero() || d.Qty.IsNegative() {
			out.Remove(d.Price)
		} else {
			out.Put(d.Price, d.Qty)
		}
	}
	return out
}

func truncateWorst(m *treemap.Map, maxDepth int) {
	if maxDepth <= 0 {
		return
	}
	for m.Size() > maxDepth {
		k, _ := m.Max() // Max() under the map's own comparator ordering is the last-iterated, i.e. the worst level for both our comparators
		m.Remove(k)
	}
}

func bestOf(m *treemap.Map) (decimal.Decimal, decimal.Decimal, bool) {
	k, v := m.Min()
	if k == nil {
		return decimal.Zero, decimal.Zero, false
	}
	return k.(decimal.Decimal), v.(decimal.Decimal), true
}

// Update applies either a full snapshot (isSnapshot=true, both slices are
// the complete ladder) or an incremental delta (isSnapshot=false, entries
// with qty==0 remove a level). See spec §4.2 for the full contract.
func (b *Book) Update(bidsDelta, asksDelta []PriceLevel, isSnapshot bool) (UpdateOutcome, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var newBids, newAsks *treemap.Map
	if isSnapshot {
		newBids = treemap.NewWith(descComparator)
		for _, lvl := range bidsDelta {
			if lvl.Qty.IsPositive() {
				newBids.Put(lvl.Price, lvl.Qty)
			}
		}
		newAsks = treemap.NewWith(ascComparator)
		for _, lvl := range asksDelta {
			if lvl.Qty.IsPositive() {
				newAsks.Put(lvl.Price, lvl.Qty)
			}
		}
	} else {
		newBids = applyDeltas(b.bids, descComparator, bidsDelta)
		newAsks = applyDeltas(b.asks, ascComparator, asksDelta)
	}

	if newBids.Empty() && newAsks.Empty() {
		return UnchangedBest, nil
	}

	bestBid, _, haveBid := bestOf(newBids)
	bestAsk, _, haveAsk := bestOf(newAsks)
	if haveBid && haveAsk && bestBid.GreaterThanOrEqual(bestAsk) {
		return UpdateError, nil
	}

	oldBestBid, oldBestBidQty, hadBid := bestOf(b.bids)
	oldBestAsk, oldBestAskQty, hadAsk := bestOf(b.asks)

	truncateWorst(newBids, b.maxDepth)
	truncateWorst(newAsks, b.maxDepth)

	b.bids = newBids
	b.asks = newAsks
	b.lastUpdate = time.Now()

	newBestBid, newBestBidQty, haveNewBid := bestOf(b.bids)
	newBestAsk, newBestAskQty, haveNewAsk := bestOf(b.asks)

	changed := hadBid != haveNewBid || hadAsk != haveNewAsk
	if !changed && haveNewBid && hadBid {
		changed = !oldBestBid.Equal(newBestBid) || !oldBestBidQty.Equal(newBestBidQty)
	}
	if !changed && haveNewAsk && hadAsk {
		changed = !oldBestAsk.Equal(newBestAsk) || !oldBestAskQty.Equal(newBestAskQty)
	}

	if changed {
		return BestChanged, nil
	}
	return UnchangedBest, nil
}

// SetBestBidAsk replaces the book with a single top-of-book level on each
// side, for venues that stream only BBO (spec §4.2).
func (b *Book) SetBestBidAsk(bidPrice, bidQty, askPrice, askQty decimal.Decimal) UpdateOutcome {
	b.mu.Lock()
	defer b.mu.Unlock()

	oldBestBid, oldBestBidQty, hadBid := bestOf(b.bids)
	oldBestAsk, oldBestAskQty, hadAsk := bestOf(b.asks)

	b.bids = treemap.NewWith(descComparator)
	if bidQty.IsPositive() {
		b.bids.Put(bidPrice, bidQty)
	}
	b.asks = treemap.NewWith(ascComparator)
	if askQty.IsPositive() {
		b.asks.Put(askPrice, askQty)
	}
	b.lastUpdate = time.Now()

	changed := hadBid != bidQty.IsPositive() || hadAsk != askQty.IsPositive()
	if !changed && hadBid {
		changed = !oldBestBid.Equal(bidPrice) || !oldBestBidQty.Equal(bidQty)
	}
	if !changed && hadAsk {
		changed = !oldBestAsk.Equal(askPrice) || !oldBestAskQty.Equal(askQty)
	}
	if changed {
		return BestChanged
	}
	return UnchangedBest
}

// SetLastUpdateID records the venue-reported sequence number of the last
// accepted mutation.
func (b *Book) SetLastUpdateID(id int64) {
	b.mu.Lock()
	b.lastUpdateID = id
	b.mu.Unlock()
}

// LastUpdateID returns the last accepted sequence number, or 0.
func (b *Book) LastUpdateID() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastUpdateID
}

// SetHasSnapshot marks whether an initial snapshot has been accepted.
func (b *Book) SetHasSnapshot(v bool) {
	b.mu.Lock()
	b.hasSnapshot = v
	b.mu.Unlock()
}

func (b *Book) HasSnapshot() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.hasSnapshot
}

func (b *Book) SetSubscribed(v bool) {
	b.mu.Lock()
	b.subscribed = v
	b.mu.Unlock()
}

func (b *Book) Subscribed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.subscribed
}

func (b *Book) LastUpdate() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastUpdate
}

// BestBid/BestAsk return (price, ok); ok is false if that side is empty.
func (b *Book) BestBid() (decimal.Decimal, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	p, _, ok := bestOf(b.bids)
	return p, ok
}

func (b *Book) BestAsk() (decimal.Decimal, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	p, _, ok := bestOf(b.asks)
	return p, ok
}

func (b *Book) BestBidQty() (decimal.Decimal, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, q, ok := bestOf(b.bids)
	return q, ok
}

func (b *Book) BestAskQty() (decimal.Decimal, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, q, ok := bestOf(b.asks)
	return q, ok
}

func (b *Book) WorstBid() (decimal.Decimal, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	k, _ := b.bids.Max()
	if k == nil {
		return decimal.Zero, false
	}
	return k.(decimal.Decimal), true
}

func (b *Book) WorstAsk() (decimal.Decimal, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	k, _ := b.asks.Max()
	if k == nil {
		return decimal.Zero, false
	}
	return k.(decimal.Decimal), true
}

// SnapshotBids/SnapshotAsks return atomic copies of each ladder in sorted
// order (bids descending, asks ascending), for handing to downstream
// consumers without holding the book's lock.
func (b *Book) SnapshotBids() []PriceLevel {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return snapshotOf(b.bids)
}

func (b *Book) SnapshotAsks() []PriceLevel {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return snapshotOf(b.asks)
}

func snapshotOf(m *treemap.Map) []PriceLevel {
	out := make([]PriceLevel, 0, m.Size())
	it := m.Iterator()
	for it.Next() {
		out = append(out, PriceLevel{Price: it.Key().(decimal.Decimal), Qty: it.Value().(decimal.Decimal)})
	}
	return out
}
