// Package order defines the Order/Opportunity/AcceptedOpportunity data
// model shared by the strategy (C7) and execution manager (C8), and the
// order state lattice spec §3/§8 require to be monotone.
//
// Grounded on original_source/src/order.h (Order, OrderHistoryEntry) and
// order_mgr.h (AcceptedOpportunity, OpportunityHistoryEntry), translated
// from raw-pointer/global-singleton C++ to explicit ids and injected
// managers per spec §9's "Source patterns requiring re-architecture".
package order

import (
	"sync"
	"time"

	"github.com/brightpool/arbiq/internal/pair"
	"github.com/brightpool/arbiq/internal/venue"
	"github.com/shopspring/decimal"
)

// Side is which leg of an opportunity an order represents.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Sell {
		return "SELL"
	}
	return "BUY"
}

// State is a point in the order lattice. Ordering is significant: spec §8
// requires progression to be monotone across
// NEW < PLACED < PARTIALLY_EXECUTED < {EXECUTED, CANCELLED, TIMEOUT}.
// PLACED is this repo's resolution of spec §9's open question about
// splitting "venue accepted the request" from "venue filled it": Execute
// moves NEW->PLACED optimistically; a later venue fill event moves
// PLACED->EXECUTED.
type State int

const (
	StateNew State = iota
	StatePlaced
	StatePartiallyExecuted
	StateExecuted
	StateCancelled
	StateTimeout
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StatePlaced:
		return "PLACED"
	case StatePartiallyExecuted:
		return "PARTIALLY_EXECUTED"
	case StateExecuted:
		return "EXECUTED"
	case StateCancelled:
		return "CANCELLED"
	case StateTimeout:
		return "TIMEOUT"
	default:
		return "UNKNOWN"
	}
}

// AtLeastExecuted reports whether a state is EXECUTED or a terminal state
// reached only after execution could have happened. Used by the execution
// manager's "other <= EXECUTED" / "other >= EXECUTED" checks (spec §4.6).
func (s State) AtLeastExecuted() bool {
	return s >= StateExecuted
}

// HistoryEntry records one state transition: original_source/src/order.h's
// OrderHistoryEntry, including the microseconds-since-request latency
// field the C++ original computes from (now - tsRequested) at transition
// time, not from the previous transition.
type HistoryEntry struct {
	Timestamp          time.Time
	State              State
	MicrosSinceRequest int64
}

// Order is one leg (buy or sell) of an accepted opportunity.
type Order struct {
	mu sync.Mutex

	ID                uint64
	ClientOrderID     string // google/uuid-generated, attached to the REST request
	Venue             venue.ID
	Pair              pair.ID
	Side              Side
	LimitPrice        decimal.Decimal
	Quantity          decimal.Decimal
	ExecutedQuantity  decimal.Decimal
	ExecutedPrice     decimal.Decimal
	OrderIDAtExchange string
	State             State
	RequestedAt       time.Time
	History           []HistoryEntry
}

// New constructs an order in state NEW, with RequestedAt stamped now.
func New(id uint64, clientOrderID string, v venue.ID, p pair.ID, side Side, price, qty decimal.Decimal) *Order {
	o := &Order{
		ID:               id,
		ClientOrderID:    clientOrderID,
		Venue:            v,
		Pair:             p,
		Side:             side,
		LimitPrice:       price,
		Quantity:         qty,
		ExecutedQuantity: decimal.Zero,
		ExecutedPrice:    decimal.Zero,
		State:            StateNew,
		RequestedAt:      time.Now(),
	}
	o.appendHistory(StateNew)
	return o
}

func (o *Order) appendHistory(s State) {
	now := time.Now()
	o.History = append(o.History, HistoryEntry{
		Timestamp:          now,
		State:              s,
		MicrosSinceRequest: now.Sub(o.RequestedAt).Microseconds(),
	})
}

// SetState transitions the order to a new state and records history.
// Callers are responsible for only calling this with states that keep the
// lattice monotone; the execution manager enforces that, not Order itself,
// to keep this type free of cross-component policy.
func (o *Order) SetState(s State) {
	o.mu.Lock()
	o.State = s
	o.appendHistory(s)
	o.mu.Unlock()
}

// Execute optimistically moves NEW->PLACED: the venue accepted the
// request. Mirrors original_source/src/order_mgr.cpp calling execute()
// immediately after order creation, before any venue confirmation.
func (o *Order) Execute() {
	o.SetState(StatePlaced)
}

// Fill records a (possibly partial) execution report from the venue.
func (o *Order) Fill(executedQty, executedPrice decimal.Decimal, full bool) {
	o.mu.Lock()
	o.ExecutedQuantity = executedQty
	o.ExecutedPrice = executedPrice
	o.mu.Unlock()
	if full {
		o.SetState(StateExecuted)
	} else {
		o.SetState(StatePartiallyExecuted)
	}
}

// Cancel moves the order to CANCELLED.
func (o *Order) Cancel() {
	o.SetState(StateCancelled)
}

// TimeOut moves the order to TIMEOUT.
func (o *Order) TimeOut() {
	o.SetState(StateTimeout)
}

// Snapshot returns a copy-out of the current state, safe to hand to
// another goroutine without sharing the Order's lock (spec §9: "replace
// raw pointers into map entries with ids plus copy-out accessors").
func (o *Order) Snapshot() Order {
	o.mu.Lock()
	defer o.mu.Unlock()
	cp := *o
	cp.History = append([]HistoryEntry(nil), o.History...)
	return cp
}

func (o *Order) CurrentState() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.State
}
