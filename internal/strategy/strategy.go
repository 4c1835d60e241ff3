// Package strategy implements the arbitrage strategy (spec component C7):
// per pair, scans every unordered venue pair in both directions, tracks a
// best-seen opportunity per direction, and forwards anything crossing
// MIN_EXECUTION_MARGIN to the execution manager. Registered as the order
// book manager's update callback.
//
// Grounded on original_source/src/strategy.{h,cpp} (Opportunity type,
// bestOpportunity1/2 fields, the reset-timer constructor wiring) and
// domain/strategy/strategy.go's injected-dependency shape (strategy holds
// references to its collaborators rather than reaching into globals). This
// replaces the teacher's OnKLineUpdate-driven candle strategy interface,
// which has no place in a book-update-driven arbitrage engine.
package strategy

import (
	"sync"
	"time"

	"github.com/brightpool/arbiq/internal/order"
	"github.com/brightpool/arbiq/internal/orderbook"
	"github.com/brightpool/arbiq/internal/pair"
	"github.com/brightpool/arbiq/internal/timer"
	"github.com/brightpool/arbiq/internal/venue"
	"github.com/brightpool/arbiq/pkg/log"
	"github.com/shopspring/decimal"
)

// sanityBandMultiplier: reject a direction as anomalous if the higher price
// is 2x the lower one or more, per spec §4.5 step 3.
var sanityBandMultiplier = decimal.NewFromInt(2)

// ExecutionForwarder is the execution manager's acceptance entry point;
// the strategy depends on this narrow interface rather than the concrete
// manager type, per spec §9's "injected dependencies only" guidance.
type ExecutionForwarder interface {
	HandleOpportunity(opp order.Opportunity)
}

// direction is one of the two ways to arbitrage an unordered venue pair.
type direction struct {
	buy, sell venue.ID
}

// slot tracks the best-seen opportunity for one (pair, direction), reset
// to zero periodically by the decay timer (spec §4.5 step 6).
type slot struct {
	mu   sync.Mutex
	best order.Opportunity
	set  bool
}

func (s *slot) updateIfBetter(o order.Opportunity) (order.Opportunity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set || o.ProfitPct().GreaterThan(s.best.ProfitPct()) {
		s.best = o
		s.set = true
		return o, true
	}
	return s.best, false
}

func (s *slot) reset() {
	s.mu.Lock()
	s.best = order.Opportunity{}
	s.set = false
	s.mu.Unlock()
}

// Config holds the strategy's tunables, grounded on
// original_source/src/config.h's MIN_TRACEABLE_MARGIN / MIN_EXECUTION_MARGIN
// / BEST_SEEN_OPPORTUNITY_RESET_INTERVAL_MS / full-scan-interval constants.
type Config struct {
	MinTraceableMargin    decimal.Decimal
	MinExecutionMargin    decimal.Decimal
	BestSeenResetInterval time.Duration
	FullScanInterval      time.Duration
}

// DefaultConfig mirrors the C++ original's defaults (spec §4.5: "60s").
func DefaultConfig() Config {
	return Config{
		MinTraceableMargin:    decimal.NewFromFloat(0.05),
		MinExecutionMargin:    decimal.NewFromFloat(0.3),
		BestSeenResetInterval: 60 * time.Second,
		FullScanInterval:      5 * time.Second,
	}
}

// Strategy owns best_opp_dir1/best_opp_dir2 per pair (spec §4.5).
type Strategy struct {
	cfg      Config
	manager  *orderbook.Manager
	timers   *timer.Service
	executor ExecutionForwarder
	log      log.Logger
	venues   []venue.ID
	pairs    []pair.ID

	slotsMu sync.RWMutex
	slots   map[pair.ID][]*slot // always exactly 2 entries per pair: dir1, dir2

	anomaliesMu sync.Mutex
	anomalies   int64
}

// New constructs a strategy over the given venues/pairs, pre-creating two
// direction slots per pair. Call Start to arm the decay and full-scan
// timers and register the order book callback.
func New(cfg Config, venues []venue.ID, pairs []pair.ID, mgr *orderbook.Manager, timers *timer.Service, executor ExecutionForwarder, logger log.Logger) *Strategy {
	if logger == nil {
		logger = log.Nop()
	}
	s := &Strategy{
		cfg:      cfg,
		manager:  mgr,
		timers:   timers,
		executor: executor,
		log:      logger.With(log.String("subsystem", "strategy")),
		venues:   venues,
		pairs:    pairs,
		slots:    make(map[pair.ID][]*slot, len(pairs)),
	}
	for _, p := range pairs {
		s.slots[p] = []*slot{{}, {}}
	}
	return s
}

// Start registers this strategy as the manager's update callback and arms
// the two periodic timers spec §4.5 describes.
func (s *Strategy) Start() {
	s.manager.SetUpdateCallback(s.onBookUpdate)
	s.timers.Add(s.cfg.BestSeenResetInterval, timer.TypeOpportunityDecay, true, s.onDecayTimer, nil)
	s.timers.Add(s.cfg.FullScanInterval, timer.TypeStrategyScan, true, s.onScanTimer, nil)
}

// onBookUpdate is the order book manager's BEST_CHANGED callback: re-scan
// only the pair that changed (spec §4.5's "on every update" path).
func (s *Strategy) onBookUpdate(v venue.ID, p pair.ID) {
	s.scanPair(p)
}

// onScanTimer drives a full scan of every configured pair independent of
// update callbacks, "to rescue missed notifications" (spec §4.5).
func (s *Strategy) onScanTimer(id timer.ID, data interface{}) {
	for _, p := range s.pairs {
		s.scanPair(p)
	}
}

// onDecayTimer zeros every pair's best-seen opportunities, preventing stale
// maxima from continuing to look "better" than a currently-evaporated
// spread (spec §4.5 step 6, §5's liveness note).
func (s *Strategy) onDecayTimer(id timer.ID, data interface{}) {
	s.slotsMu.RLock()
	defer s.slotsMu.RUnlock()
	for _, pairSlots := range s.slots {
		for _, sl := range pairSlots {
			sl.reset()
		}
	}
}

// scanPair evaluates both directions for every unordered venue pair
// trading this pair, per spec §4.5 steps 1-5.
func (s *Strategy) scanPair(p pair.ID) {
	s.slotsMu.RLock()
	pairSlots, ok := s.slots[p]
	s.slotsMu.RUnlock()
	if !ok {
		return
	}

	for i := 0; i < len(s.venues); i++ {
		for j := i + 1; j < len(s.venues); j++ {
			a, b := s.venues[i], s.venues[j]
			s.evaluateDirection(p, pairSlots[0], direction{buy: a, sell: b})
			s.evaluateDirection(p, pairSlots[1], direction{buy: b, sell: a})
		}
	}
}

func (s *Strategy) evaluateDirection(p pair.ID, sl *slot, dir direction) {
	buyBook := s.manager.Book(dir.buy, p)
	sellBook := s.manager.Book(dir.sell, p)

	buyPrice, haveBuy := buyBook.BestAsk()
	buyQty, _ := buyBook.BestAskQty()
	sellPrice, haveSell := sellBook.BestBid()
	sellQty, _ := sellBook.BestBidQty()
	if !haveBuy || !haveSell {
		return
	}

	if s.isAnomalous(buyPrice, sellPrice) {
		s.countAnomaly(p, dir)
		return
	}

	amount := buyQty
	if sellQty.LessThan(amount) {
		amount = sellQty
	}

	opp := order.Opportunity{
		BuyVenue:  dir.buy,
		SellVenue: dir.sell,
		Pair:      p,
		Amount:    amount,
		BuyPrice:  buyPrice,
		SellPrice: sellPrice,
		T:         time.Now(),
	}
	if !opp.Feasible() {
		return
	}

	profit := opp.ProfitPct()
	if profit.LessThanOrEqual(s.cfg.MinTraceableMargin) {
		return
	}

	s.log.Debug("opportunity traced",
		log.String("pair", p.String()),
		log.String("buy_venue", dir.buy.String()),
		log.String("sell_venue", dir.sell.String()),
		log.String("profit_pct", profit.StringFixed(4)))

	best, improved := sl.updateIfBetter(opp)
	if !improved {
		return
	}

	if best.ProfitPct().GreaterThan(s.cfg.MinExecutionMargin) && s.executor != nil {
		s.executor.HandleOpportunity(best)
	}
}

// isAnomalous rejects a direction whose higher price is at least 2x the
// lower one, or where either price is non-positive (spec §4.5 step 3).
func (s *Strategy) isAnomalous(buyPrice, sellPrice decimal.Decimal) bool {
	if buyPrice.LessThanOrEqual(decimal.Zero) || sellPrice.LessThanOrEqual(decimal.Zero) {
		return true
	}
	hi, lo := buyPrice, sellPrice
	if lo.GreaterThan(hi) {
		hi, lo = lo, hi
	}
	return hi.GreaterThanOrEqual(lo.Mul(sanityBandMultiplier))
}

func (s *Strategy) countAnomaly(p pair.ID, dir direction) {
	s.anomaliesMu.Lock()
	s.anomalies++
	n := s.anomalies
	s.anomaliesMu.Unlock()
	s.log.Debug("anomalous price spread rejected",
		log.String("pair", p.String()),
		log.String("buy_venue", dir.buy.String()),
		log.String("sell_venue", dir.sell.String()),
		log.Int64("anomaly_count", n))
}

// AnomalyCount returns the running count of rejected anomalous spreads,
// surfaced by the monitoring API.
func (s *Strategy) AnomalyCount() int64 {
	s.anomaliesMu.Lock()
	defer s.anomaliesMu.Unlock()
	return s.anomalies
}
