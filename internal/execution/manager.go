// Package execution implements the execution manager (spec component C8),
// the two-leg accept/place/cancel state machine spec §4.6 calls "the
// hardest state machine". Grounded on
// original_source/src/order_mgr.{h,cpp}: handleOpportunity,
// handleAction(PLACE/CANCEL), handleOrderStateChange's full transition
// table, and handleOpportunityTimeout's three scenarios, translated from
// raw-pointer/global-singleton C++ (OrderManager::m_idToOrder,
// m_idToOpportunity, m_orderToOpportunity keyed by int) to explicit ids
// plus copy-out accessors over an injected venue-client resolver, per spec
// §9's "Source patterns requiring re-architecture".
package execution

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brightpool/arbiq/internal/exchange"
	"github.com/brightpool/arbiq/internal/order"
	"github.com/brightpool/arbiq/internal/timer"
	"github.com/brightpool/arbiq/internal/venue"
	"github.com/brightpool/arbiq/internal/xerrors"
	"github.com/brightpool/arbiq/pkg/eventbus"
	"github.com/brightpool/arbiq/pkg/log"
	"github.com/brightpool/arbiq/pkg/message"
)

// ClientResolver looks up the venue client used to place/cancel orders. The
// registry.Registry satisfies this.
type ClientResolver interface {
	Client(v venue.ID) (exchange.Client, bool)
}

// Config holds the execution manager's tunables, grounded on
// original_source/src/config.h's OPPORTUNITY_TIMEOUT_MS and
// ORDER_TEST_STATE_CHANGE_DELAY_MS/the 80%-chance simulated fill in
// order.cpp's Order::execute().
type Config struct {
	OpportunityTimeout time.Duration

	// SimulationMode arms a probabilistic fill timer after PLACE instead
	// of waiting for a real venue fill event (spec §4.6: "For simulation
	// mode an 80% probability timer simulates post-placement state
	// change").
	SimulationMode          bool
	SimulatedFillProbability float64
	SimulatedFillDelay      time.Duration
}

// DefaultConfig mirrors the C++ original's constants.
func DefaultConfig() Config {
	return Config{
		OpportunityTimeout:       5 * time.Second,
		SimulationMode:           true,
		SimulatedFillProbability: 0.8,
		SimulatedFillDelay:       500 * time.Millisecond,
	}
}

// Manager is the execution state machine. One mutex protects the id
// counters and the three maps; per-order/per-opportunity mutations use
// their own finer mutex (order.Order, order.AcceptedOpportunity already
// carry one each); callbacks from the timer service run outside this
// mutex, per spec §5's concurrency model.
type Manager struct {
	cfg      Config
	timers   *timer.Service
	clients  ClientResolver
	log      log.Logger
	bus      eventbus.Bus

	mu               sync.Mutex
	nextOrderID      uint64
	nextOppID        uint64
	orders           map[uint64]*order.Order
	opportunities    map[uint64]*order.AcceptedOpportunity
	orderToOpp       map[uint64]uint64
}

// New constructs an execution manager with no singleton state: every
// collaborator is injected, per spec §9.
func New(cfg Config, timers *timer.Service, clients ClientResolver, logger log.Logger) *Manager {
	if logger == nil {
		logger = log.Nop()
	}
	return &Manager{
		cfg:           cfg,
		timers:        timers,
		clients:       clients,
		log:           logger.With(log.String("subsystem", "execution")),
		orders:        make(map[uint64]*order.Order),
		opportunities: make(map[uint64]*order.AcceptedOpportunity),
		orderToOpp:    make(map[uint64]uint64),
	}
}

// SetEventBus attaches an optional in-process event bus: once set, every
// opportunity acceptance/resolution and order state change is published
// on eventbus.TopicOpportunity/TopicOrder for observers (pkg/telemetry,
// the monitoring API) to pick up, per spec §9's "inject explicitly"
// decoupling of the core path from optional observers. A nil bus (the
// default) makes publishing a no-op.
func (m *Manager) SetEventBus(bus eventbus.Bus) {
	m.bus = bus
}

func (m *Manager) publishOpportunity(acc order.AcceptedOpportunity) {
	if m.bus == nil {
		return
	}
	if err := m.bus.Publish(eventbus.TopicOpportunity, message.Message{
		ID:        fmt.Sprintf("opp-%d", acc.ID),
		Type:      "opportunity_update",
		Source:    "execution",
		CreatedAt: time.Now().UnixNano(),
		Data:      acc,
	}); err != nil {
		m.log.Error("publish opportunity event", log.Err(err))
	}
}

func (m *Manager) publishOrder(o order.Order) {
	if m.bus == nil {
		return
	}
	if err := m.bus.Publish(eventbus.TopicOrder, message.Message{
		ID:        fmt.Sprintf("order-%d", o.ID),
		Type:      "order_state_change",
		Source:    "execution",
		CreatedAt: time.Now().UnixNano(),
		Data:      o,
	}); err != nil {
		m.log.Error("publish order event", log.Err(err))
	}
}

// HandleOpportunity accepts a strategy-forwarded opportunity: re-checks
// feasibility, creates the AcceptedOpportunity, arms the timeout timer, and
// performs action PLACE. Mirrors order_mgr.cpp's handleOpportunity.
func (m *Manager) HandleOpportunity(opp order.Opportunity) {
	if !opp.Feasible() {
		m.log.Warn("opportunity not feasible, dropped",
			log.String("pair", opp.Pair.String()),
			log.String("buy_venue", opp.BuyVenue.String()),
			log.String("sell_venue", opp.SellVenue.String()))
		return
	}

	m.mu.Lock()
	m.nextOppID++
	id := m.nextOppID
	accOpp := order.NewAcceptedOpportunity(id, opp)
	m.opportunities[id] = accOpp
	m.mu.Unlock()

	m.log.Info("accepted opportunity",
		log.Int64("opp_id", int64(id)),
		log.String("pair", opp.Pair.String()),
		log.String("profit_pct", opp.ProfitPct().StringFixed(4)))
	m.publishOpportunity(accOpp.Snapshot())

	timerID := m.timers.Add(m.cfg.OpportunityTimeout, timer.TypeOpportunityTimeout, false, m.onOpportunityTimeout, id)
	accOpp.TimeoutTimerID = timerID

	m.handleAction(order.ActionPlace, id)
}

func (m *Manager) getOpportunity(id uint64) *order.AcceptedOpportunity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opportunities[id]
}

func (m *Manager) getOrder(id uint64) *order.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[id]
}

// handleAction performs PLACE (create both legs, map order->opp, execute
// each) or CANCEL (cancel every leg not yet at/past EXECUTED), mirroring
// order_mgr.cpp's handleAction.
func (m *Manager) handleAction(action order.OpportunityAction, oppID uint64) {
	accOpp := m.getOpportunity(oppID)
	if accOpp == nil {
		m.log.Error("handleAction: opportunity not found", log.Int64("opp_id", int64(oppID)))
		return
	}
	opp := accOpp.Opportunity

	switch action {
	case order.ActionPlace:
		m.placeBothLegs(accOpp, opp)
	case order.ActionCancel:
		m.cancelOutstandingLegs(accOpp, opp)
	default:
		m.log.Error("unhandled action", log.String("action", action.String()), log.Int64("opp_id", int64(oppID)))
	}
}

func (m *Manager) placeBothLegs(accOpp *order.AcceptedOpportunity, opp order.Opportunity) {
	m.mu.Lock()
	if accOpp.BuyOrderID != 0 || accOpp.SellOrderID != 0 {
		m.mu.Unlock()
		m.log.Error("place called on opportunity that already has orders", log.Int64("opp_id", int64(accOpp.ID)))
		return
	}
	m.nextOrderID++
	buyID := m.nextOrderID
	buyOrder := order.New(buyID, newClientOrderID(buyID), opp.BuyVenue, opp.Pair, order.Buy, opp.BuyPrice, opp.Amount)
	m.orders[buyID] = buyOrder
	m.orderToOpp[buyID] = accOpp.ID
	accOpp.BuyOrderID = buyID

	m.nextOrderID++
	sellID := m.nextOrderID
	sellOrder := order.New(sellID, newClientOrderID(sellID), opp.SellVenue, opp.Pair, order.Sell, opp.SellPrice, opp.Amount)
	m.orders[sellID] = sellOrder
	m.orderToOpp[sellID] = accOpp.ID
	accOpp.SellOrderID = sellID
	m.mu.Unlock()

	m.log.Info("placed both legs",
		log.Int64("opp_id", int64(accOpp.ID)),
		log.Int64("buy_order_id", int64(buyID)),
		log.Int64("sell_order_id", int64(sellID)))

	m.executeLeg(buyOrder)
	m.executeLeg(sellOrder)
}

// executeLeg issues the venue REST order request, which (on success)
// optimistically transitions the order NEW->PLACED (order.Execute, called
// inside the client's PlaceOrder implementation). In simulation mode it
// then arms a probabilistic timer to simulate the eventual fill
// confirmation arriving from the venue (spec §4.6).
func (m *Manager) executeLeg(o *order.Order) {
	client, ok := m.clients.Client(o.Venue)
	if !ok {
		m.log.Error("no client for venue", log.String("venue", o.Venue.String()))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.PlaceOrder(ctx, o); err != nil {
		m.log.Error("place order failed", log.Int64("order_id", int64(o.ID)), log.Err(err))
		return
	}

	if m.cfg.SimulationMode && rand.Float64() < m.cfg.SimulatedFillProbability {
		orderID := o.ID
		m.timers.Add(m.cfg.SimulatedFillDelay, timer.TypeSimulatedFill, false, func(timer.ID, interface{}) {
			m.simulateFill(orderID)
		}, nil)
	}
}

func (m *Manager) simulateFill(orderID uint64) {
	o := m.getOrder(orderID)
	if o == nil {
		return
	}
	if o.CurrentState().AtLeastExecuted() {
		return
	}
	o.Fill(o.Quantity, o.LimitPrice, true)
	m.HandleOrderStateChange(orderID, order.StateExecuted)
}

func (m *Manager) cancelOutstandingLegs(accOpp *order.AcceptedOpportunity, opp order.Opportunity) {
	if accOpp.BuyOrderID == 0 || accOpp.SellOrderID == 0 {
		m.log.Error("cancel called on opportunity with no orders", log.Int64("opp_id", int64(accOpp.ID)))
		return
	}
	m.cancelLegIfOutstanding(accOpp.BuyOrderID, opp.BuyVenue)
	m.cancelLegIfOutstanding(accOpp.SellOrderID, opp.SellVenue)
}

func (m *Manager) cancelLegIfOutstanding(orderID uint64, v venue.ID) {
	o := m.getOrder(orderID)
	if o == nil {
		m.log.Error("cancel: order not found", log.Int64("order_id", int64(orderID)))
		return
	}
	if o.CurrentState().AtLeastExecuted() {
		m.log.Debug("leg already executed, tolerating cancel no-op", log.Int64("order_id", int64(orderID)))
		return
	}
	client, ok := m.clients.Client(v)
	if !ok {
		m.log.Error("no client for venue", log.String("venue", v.String()))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.CancelOrder(ctx, o); err != nil {
		m.log.Error("cancel order failed", log.Int64("order_id", int64(orderID)), log.Err(err))
		return
	}
	o.Cancel()
}

// HandleOrderStateChange applies the spec §4.6 transition table: the new
// state has already been applied to the order (by Fill/Cancel/TimeOut); this
// derives the opportunity-level transition and action from both legs'
// current states.
func (m *Manager) HandleOrderStateChange(orderID uint64, newState order.State) {
	m.mu.Lock()
	oppID, ok := m.orderToOpp[orderID]
	m.mu.Unlock()
	if !ok {
		m.log.Error("order not mapped to an opportunity", log.Int64("order_id", int64(orderID)))
		return
	}
	accOpp := m.getOpportunity(oppID)
	if accOpp == nil {
		m.log.Error("opportunity not found", log.Int64("opp_id", int64(oppID)))
		return
	}

	buyOrder := m.getOrder(accOpp.BuyOrderID)
	sellOrder := m.getOrder(accOpp.SellOrderID)
	if buyOrder == nil || sellOrder == nil {
		m.log.Error("order missing for opportunity", log.Int64("opp_id", int64(oppID)))
		return
	}
	buyState := buyOrder.CurrentState()
	sellState := sellOrder.CurrentState()

	action := order.ActionNone

	switch {
	case buyState == order.StateNew && sellState == order.StateNew:
		m.log.Error("state change observed with both legs still NEW (impossible after placement)",
			log.Int64("opp_id", int64(oppID)))
		accOpp.SetState(order.OppCancelled, buyState, sellState)

	case buyState == order.StateExecuted && sellState == order.StateExecuted:
		accOpp.SetState(order.OppExecutedAsPlanned, buyState, sellState)
		m.timers.Stop(accOpp.TimeoutTimerID)

	case (buyState == order.StatePartiallyExecuted && (!sellState.AtLeastExecuted() || sellState == order.StateExecuted)) ||
		(sellState == order.StatePartiallyExecuted && (!buyState.AtLeastExecuted() || buyState == order.StateExecuted)):
		accOpp.SetState(order.OppPartiallyExecuted, buyState, sellState)

	case buyState == order.StateCancelled || sellState == order.StateCancelled:
		if !buyState.AtLeastExecuted() || !sellState.AtLeastExecuted() {
			accOpp.SetState(order.OppCancelling, buyState, sellState)
			action = order.ActionCancel
			m.timers.Stop(accOpp.TimeoutTimerID)
		} else {
			accOpp.SetState(order.OppCancelled, buyState, sellState)
			m.timers.Stop(accOpp.TimeoutTimerID)
		}

	case buyState == order.StateTimeout || sellState == order.StateTimeout:
		if !buyState.AtLeastExecuted() || !sellState.AtLeastExecuted() {
			action = order.ActionCancel
		} else {
			accOpp.SetState(order.OppPartiallyExecuted, buyState, sellState)
		}

	default:
		m.log.Warn("unhandled order state combination",
			log.Int64("opp_id", int64(oppID)),
			log.String("buy_state", buyState.String()),
			log.String("sell_state", sellState.String()))
	}

	if changed := m.getOrder(orderID); changed != nil {
		m.publishOrder(changed.Snapshot())
	}
	m.publishOpportunity(accOpp.Snapshot())

	if accOpp.CurrentState().AtLeastExecutedAsPlanned() {
		m.timers.Stop(accOpp.TimeoutTimerID)
		profit := accOpp.Opportunity.SellPrice.Sub(accOpp.Opportunity.BuyPrice).Mul(accOpp.Opportunity.Amount)
		m.log.Info("opportunity executed as planned", log.Int64("opp_id", int64(oppID)), log.String("profit", profit.StringFixed(4)))
		return
	}

	if action != order.ActionNone {
		m.handleAction(action, oppID)
	}
}

// onOpportunityTimeout examines both legs and resolves one of the three
// scenarios spec §4.6 names: both-NEW (pre-placement stuck, cancel both),
// both-at-least-EXECUTED (race with completion, no action), or otherwise
// (mark EXECUTION_TIMEOUT and cancel). Mirrors
// order_mgr.cpp's handleOpportunityTimeout.
func (m *Manager) onOpportunityTimeout(id timer.ID, data interface{}) {
	oppID, ok := data.(uint64)
	if !ok {
		m.log.Error("opportunity timeout fired with unexpected data")
		return
	}
	accOpp := m.getOpportunity(oppID)
	if accOpp == nil {
		m.log.Error("opportunity timeout: opportunity not found", log.Int64("opp_id", int64(oppID)))
		return
	}
	buyOrder := m.getOrder(accOpp.BuyOrderID)
	sellOrder := m.getOrder(accOpp.SellOrderID)
	if buyOrder == nil || sellOrder == nil {
		m.log.Error("opportunity timeout without orders", log.Int64("opp_id", int64(oppID)))
		return
	}
	buyState := buyOrder.CurrentState()
	sellState := sellOrder.CurrentState()

	action := order.ActionNone
	scenario := 0
	switch {
	case buyState == order.StateNew && sellState == order.StateNew:
		scenario = 1
		action = order.ActionCancel
	case buyState.AtLeastExecuted() && sellState.AtLeastExecuted():
		scenario = 2
	default:
		scenario = 3
		action = order.ActionCancel
	}

	if scenario == 3 {
		accOpp.SetState(order.OppExecutionTimeout, buyState, sellState)
	}
	m.log.Info("opportunity timeout", log.Int64("opp_id", int64(oppID)), log.Int("scenario", scenario))
	m.publishOpportunity(accOpp.Snapshot())

	if action != order.ActionNone {
		m.handleAction(action, oppID)
	}
}

// Opportunities returns a copy-out snapshot of every accepted opportunity,
// for read-only consumers such as the monitoring API (spec §9's copy-out
// accessor pattern, not a live reference into the manager's maps).
func (m *Manager) Opportunities() []order.AcceptedOpportunity {
	m.mu.Lock()
	accs := make([]*order.AcceptedOpportunity, 0, len(m.opportunities))
	for _, acc := range m.opportunities {
		accs = append(accs, acc)
	}
	m.mu.Unlock()

	out := make([]order.AcceptedOpportunity, len(accs))
	for i, acc := range accs {
		out[i] = acc.Snapshot()
	}
	return out
}

// Order returns a copy-out snapshot of one order by id.
func (m *Manager) Order(id uint64) (order.Order, bool) {
	o := m.getOrder(id)
	if o == nil {
		return order.Order{}, false
	}
	return o.Snapshot(), true
}

// Opportunity returns a copy-out snapshot of one accepted opportunity by id.
func (m *Manager) Opportunity(id uint64) (order.AcceptedOpportunity, bool) {
	acc := m.getOpportunity(id)
	if acc == nil {
		return order.AcceptedOpportunity{}, false
	}
	return acc.Snapshot(), true
}

func newClientOrderID(orderID uint64) string {
	return uuid.NewString()
}
