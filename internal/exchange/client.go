package exchange

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/brightpool/arbiq/internal/order"
	"github.com/brightpool/arbiq/internal/orderbook"
	"github.com/brightpool/arbiq/internal/pair"
	"github.com/brightpool/arbiq/internal/timer"
	"github.com/brightpool/arbiq/internal/venue"
	"github.com/brightpool/arbiq/pkg/log"
)

// Client is the capability set every venue variant implements, replacing
// the teacher's VenueClient<-ApiBinance/Kraken/... inheritance hierarchy
// per spec §9: "represent as a capability set ... with a concrete variant
// per venue."
type Client interface {
	Venue() venue.ID
	Connect(ctx context.Context) error
	Disconnect()
	SubscribeOrderBook() error
	Resubscribe(pairs []pair.ID) error
	GetOrderBookSnapshot(ctx context.Context, p pair.ID) error
	PlaceOrder(ctx context.Context, o *order.Order) error
	CancelOrder(ctx context.Context, o *order.Order) error
	GetBalance(ctx context.Context, asset string) (decimal.Decimal, error)
}

// SymbolState is the per (venue, pair) feed-reconciliation state, spec §3.
type SymbolState struct {
	mu                   sync.Mutex
	Subscribed           bool
	HasSnapshot          bool
	LastUpdateID         int64
	FirstUpdateProcessed bool
}

func (s *SymbolState) MarkSubscribed() {
	s.mu.Lock()
	s.Subscribed = true
	s.mu.Unlock()
}

func (s *SymbolState) MarkSnapshot(updateID int64) {
	s.mu.Lock()
	s.HasSnapshot = true
	s.LastUpdateID = updateID
	s.FirstUpdateProcessed = false
	s.mu.Unlock()
}

// AcceptUpdate reports whether an incremental update with the given id
// should be applied: only if a snapshot has been accepted and the id is
// strictly greater than the last applied one (spec §4.4's receive-loop
// table). On acceptance it advances LastUpdateID.
func (s *SymbolState) AcceptUpdate(updateID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.HasSnapshot {
		return false
	}
	if updateID <= s.LastUpdateID {
		return false
	}
	s.LastUpdateID = updateID
	s.FirstUpdateProcessed = true
	return true
}

func (s *SymbolState) Snapshot() SymbolState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SymbolState{Subscribed: s.Subscribed, HasSnapshot: s.HasSnapshot, LastUpdateID: s.LastUpdateID, FirstUpdateProcessed: s.FirstUpdateProcessed}
}

// Base holds the plumbing every venue variant composes: the shared
// WebSocket session, REST client, order book manager handle, timer
// service handle, logger, and per-pair symbol state. Venue-specific code
// (frame shapes, message dispatch, REST endpoints) is layered on top.
type Base struct {
	VenueID venue.ID
	Pairs   []pair.ID
	Manager *orderbook.Manager
	Timers  *timer.Service
	Log     log.Logger

	Session *Session
	REST    *RESTClient

	symbolsMu sync.RWMutex
	symbols   map[pair.ID]*SymbolState
}

// NewBase constructs the shared plumbing for one venue client instance.
func NewBase(v venue.ID, pairs []pair.ID, mgr *orderbook.Manager, timers *timer.Service, logger log.Logger) *Base {
	if logger == nil {
		logger = log.Nop()
	}
	b := &Base{
		VenueID: v,
		Pairs:   pairs,
		Manager: mgr,
		Timers:  timers,
		Log:     logger.With(log.String("venue", v.String())),
		symbols: make(map[pair.ID]*SymbolState, len(pairs)),
	}
	for _, p := range pairs {
		b.symbols[p] = &SymbolState{}
	}
	return b
}

func (b *Base) Venue() venue.ID { return b.VenueID }

// SymbolState returns the feed-reconciliation state for a pair, creating
// it lazily if this venue client was not pre-configured with it.
func (b *Base) SymbolState(p pair.ID) *SymbolState {
	b.symbolsMu.RLock()
	s, ok := b.symbols[p]
	b.symbolsMu.RUnlock()
	if ok {
		return s
	}
	b.symbolsMu.Lock()
	defer b.symbolsMu.Unlock()
	if s, ok := b.symbols[p]; ok {
		return s
	}
	s = &SymbolState{}
	b.symbols[p] = s
	return s
}

func (b *Base) Disconnect() {
	if b.Session != nil {
		b.Session.Disconnect()
	}
}
