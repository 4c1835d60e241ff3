package order

import (
	"sync"
	"time"

	"github.com/brightpool/arbiq/internal/pair"
	"github.com/brightpool/arbiq/internal/venue"
	"github.com/brightpool/arbiq/internal/timer"
	"github.com/shopspring/decimal"
)

// sanityBandMultiplier is the "neither price is >= 2x the other" feasibility
// bound from spec §3.
var sanityBandMultiplier = decimal.NewFromInt(2)

// Opportunity is a detected cross-venue spread, per spec §3.
type Opportunity struct {
	BuyVenue  venue.ID
	SellVenue venue.ID
	Pair      pair.ID
	Amount    decimal.Decimal
	BuyPrice  decimal.Decimal
	SellPrice decimal.Decimal
	T         time.Time
}

// ProfitPct is (sell - buy) / buy * 100.
func (o Opportunity) ProfitPct() decimal.Decimal {
	if o.BuyPrice.IsZero() {
		return decimal.Zero
	}
	return o.SellPrice.Sub(o.BuyPrice).Div(o.BuyPrice).Mul(decimal.NewFromInt(100))
}

// Feasible re-checks spec §3's invariant: both prices > 0, amount > 0,
// buy < sell, and neither price is >= 2x the other. The C++ original's
// isOpportunityFeasible was a stub that always returned true
// (original_source/src/order_mgr.cpp); this repo implements the real
// check spec.md promotes to an explicit invariant.
func (o Opportunity) Feasible() bool {
	if o.BuyPrice.LessThanOrEqual(decimal.Zero) || o.SellPrice.LessThanOrEqual(decimal.Zero) {
		return false
	}
	if o.Amount.LessThanOrEqual(decimal.Zero) {
		return false
	}
	if !o.BuyPrice.LessThan(o.SellPrice) {
		return false
	}
	hi, lo := o.SellPrice, o.BuyPrice
	if hi.LessThan(lo) {
		hi, lo = lo, hi
	}
	if hi.GreaterThanOrEqual(lo.Mul(sanityBandMultiplier)) {
		return false
	}
	return true
}

// OpportunityState is a point in the accepted-opportunity lifecycle, spec
// §3/§4.6.
type OpportunityState int

const (
	OppAccepted OpportunityState = iota
	OppExecuting
	OppPartiallyExecuted
	OppCancelling
	OppCancelled
	OppExecutedAsPlanned
	OppExecutionTimeout
)

func (s OpportunityState) String() string {
	switch s {
	case OppAccepted:
		return "ACCEPTED"
	case OppExecuting:
		return "EXECUTING"
	case OppPartiallyExecuted:
		return "PARTIALLY_EXECUTED"
	case OppCancelling:
		return "CANCELLING"
	case OppCancelled:
		return "CANCELLED"
	case OppExecutedAsPlanned:
		return "EXECUTED_AS_PLANNED"
	case OppExecutionTimeout:
		return "EXECUTION_TIMEOUT"
	default:
		return "UNKNOWN"
	}
}

// AtLeastExecutedAsPlanned matches spec §4.6's "once the opportunity state
// is >= EXECUTED_AS_PLANNED, cancel the timeout timer".
func (s OpportunityState) AtLeastExecutedAsPlanned() bool {
	return s >= OppExecutedAsPlanned
}

// OpportunityAction is the side effect the execution manager decides to
// perform after a state transition, per spec §4.6.
type OpportunityAction int

const (
	ActionNone OpportunityAction = iota
	ActionPlace
	ActionCancel
)

func (a OpportunityAction) String() string {
	switch a {
	case ActionPlace:
		return "PLACE"
	case ActionCancel:
		return "CANCEL"
	default:
		return "NONE"
	}
}

// OppHistoryEntry records one opportunity-state transition, capturing the
// current state of both legs at transition time — mirrors
// original_source/src/order_mgr.cpp's AcceptedOpportunity::setState, which
// snapshots buy/sell order state into each history entry.
type OppHistoryEntry struct {
	Timestamp time.Time
	State     OpportunityState
	BuyState  State
	SellState State
}

// AcceptedOpportunity is an Opportunity the execution manager has decided
// to act on: original_source/src/order_mgr.h's AcceptedOpportunity.
type AcceptedOpportunity struct {
	mu sync.Mutex

	ID             uint64
	Opportunity    Opportunity
	BuyOrderID     uint64
	SellOrderID    uint64
	State          OpportunityState
	TimeoutTimerID timer.ID
	History        []OppHistoryEntry
}

// NewAcceptedOpportunity constructs an AcceptedOpportunity in state
// ACCEPTED.
func NewAcceptedOpportunity(id uint64, opp Opportunity) *AcceptedOpportunity {
	a := &AcceptedOpportunity{ID: id, Opportunity: opp, State: OppAccepted}
	a.appendHistory(OppAccepted, StateNew, StateNew)
	return a
}

func (a *AcceptedOpportunity) appendHistory(s OpportunityState, buyState, sellState State) {
	a.History = append(a.History, OppHistoryEntry{
		Timestamp: time.Now(),
		State:     s,
		BuyState:  buyState,
		SellState: sellState,
	})
}

// SetState transitions the opportunity and records the current buy/sell
// order states alongside it. Callers pass the current leg states because
// AcceptedOpportunity does not hold references to the Order objects
// themselves (spec §9: "replace raw pointers ... with ids").
func (a *AcceptedOpportunity) SetState(s OpportunityState, buyState, sellState State) {
	a.mu.Lock()
	a.State = s
	a.appendHistory(s, buyState, sellState)
	a.mu.Unlock()
}

func (a *AcceptedOpportunity) CurrentState() OpportunityState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.State
}

// Snapshot returns a copy-out of the accepted opportunity's state.
func (a *AcceptedOpportunity) Snapshot() AcceptedOpportunity {
	a.mu.Lock()
	defer a.mu.Unlock()
	cp := *a
	cp.History = append([]OppHistoryEntry(nil), a.History...)
	return cp
}
