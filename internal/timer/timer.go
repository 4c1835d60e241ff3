// Package timer implements the deadline-ordered scheduler (spec component
// C1) used by every other component: venue clients (reconnect backoff,
// snapshot validity, KuCoin ping), the arbitrage strategy (periodic scan,
// best-opportunity decay) and the execution manager (opportunity timeout).
//
// The shape — an ordered-by-deadline structure plus a single dispatch loop
// that re-arms periodic timers at prevDeadline+interval rather than
// now+interval — follows original_source/src/timers.h's TimersMgr; the
// concrete data structure is container/heap rather than a std::map, which
// is the idiomatic Go equivalent and needs no extra dependency.
package timer

import (
	"container/heap"
	"sync"
	"time"

	"github.com/brightpool/arbiq/pkg/log"
)

// Type classifies a timer for logging/metrics, mirroring
// original_source/src/timer_types.h's TimerType enum.
type Type int

const (
	TypeUnknown Type = iota
	TypeBalanceCheck
	TypeOrderCheck
	TypePriceCheck
	TypeSnapshotValidity
	TypeOpportunityTimeout
	TypeOpportunityDecay
	TypeReconnect
	TypeVenuePing
	TypeStrategyScan
	TypeSimulatedFill
)

func (t Type) String() string {
	switch t {
	case TypeBalanceCheck:
		return "BALANCE_CHECK"
	case TypeOrderCheck:
		return "ORDER_CHECK"
	case TypePriceCheck:
		return "PRICE_CHECK"
	case TypeSnapshotValidity:
		return "SNAPSHOT_VALIDITY"
	case TypeOpportunityTimeout:
		return "OPPORTUNITY_TIMEOUT"
	case TypeOpportunityDecay:
		return "OPPORTUNITY_DECAY"
	case TypeReconnect:
		return "RECONNECT"
	case TypeVenuePing:
		return "VENUE_PING"
	case TypeStrategyScan:
		return "STRATEGY_SCAN"
	case TypeSimulatedFill:
		return "SIMULATED_FILL"
	default:
		return "UNKNOWN"
	}
}

// Callback receives the firing timer's id and the opaque user data passed
// to Add. It runs on the dispatcher goroutine, outside any Service lock.
type Callback func(id ID, data interface{})

// ID is a monotonically increasing timer handle.
type ID uint64

type entry struct {
	id       ID
	deadline time.Time
	interval time.Duration
	periodic bool
	typ      Type
	cb       Callback
	data     interface{}
	index    int // heap index, maintained by container/heap
}

type entryHeap []*entry

func (h entryHeap) Len() int            { return len(h) }
func (h entryHeap) Less(i, j int) bool  { return h[i].deadline.Before(h[j].deadline) }
func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index, h[j].index = i, j
}
func (h *entryHeap) Push(x interface{}) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// SlowCallbackThreshold above which a fired callback's runtime is logged as
// a latency anomaly.
const SlowCallbackThreshold = 50 * time.Millisecond

// Service is the deadline-ordered timer dispatcher. A single goroutine
// sleeps to the next deadline and fires due entries in deadline order;
// callbacks run outside the Service's lock, per spec §5's "callbacks run
// outside it" rule.
type Service struct {
	log log.Logger

	mu      sync.Mutex
	heap    entryHeap
	byID    map[ID]*entry
	nextID  ID
	wake    chan struct{}
	closeCh chan struct{}
	closed  bool
	wg      sync.WaitGroup
}

// NewService constructs and starts the dispatcher goroutine.
func NewService(logger log.Logger) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	s := &Service{
		log:     logger.With(log.String("subsystem", "timer")),
		byID:    make(map[ID]*entry),
		wake:    make(chan struct{}, 1),
		closeCh: make(chan struct{}),
	}
	s.wg.Add(1)
	go s.run()
	return s
}

// Add schedules a one-shot (periodic=false) or repeating (periodic=true)
// callback to fire after delay, then every interval thereafter. For
// one-shot timers interval is ignored after the first fire. Returns a
// monotonically increasing id.
func (s *Service) Add(delay time.Duration, typ Type, periodic bool, cb Callback, data interface{}) ID {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	e := &entry{
		id:       id,
		deadline: time.Now().Add(delay),
		interval: delay,
		periodic: periodic,
		typ:      typ,
		cb:       cb,
		data:     data,
	}
	s.byID[id] = e
	heap.Push(&s.heap, e)
	s.mu.Unlock()

	s.nudge()
	return id
}

// Stop cancels a timer. No-op if the id is unknown or already fired;
// idempotent, and safe to call from inside the timer's own callback.
func (s *Service) Stop(id ID) {
	s.mu.Lock()
	e, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.byID, id)
	if e.index >= 0 {
		heap.Remove(&s.heap, e.index)
	}
	s.mu.Unlock()
}

// Close stops the dispatcher goroutine. Safe to call once; subsequent
// calls are no-ops.
func (s *Service) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	close(s.closeCh)
	s.wg.Wait()
}

func (s *Service) nudge() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Service) run() {
	defer s.wg.Done()
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		s.mu.Lock()
		var sleep time.Duration
		if len(s.heap) == 0 {
			sleep = time.Hour
		} else {
			sleep = time.Until(s.heap[0].deadline)
			if sleep < 0 {
				sleep = 0
			}
		}
		s.mu.Unlock()

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(sleep)

		select {
		case <-s.closeCh:
			return
		case <-timer.C:
			s.fireDue()
		case <-s.wake:
			// loop again; sleep duration is recomputed against the new heap top
		}
	}
}

func (s *Service) fireDue() {
	now := time.Now()
	for {
		s.mu.Lock()
		if len(s.heap) == 0 || s.heap[0].deadline.After(now) {
			s.mu.Unlock()
			return
		}
		e := heap.Pop(&s.heap).(*entry)
		delete(s.byID, e.id)

		if e.periodic {
			next := &entry{
				id:       e.id,
				deadline: e.deadline.Add(e.interval), // prev_deadline + interval, not now + interval
				interval: e.interval,
				periodic: true,
				typ:      e.typ,
				cb:       e.cb,
				data:     e.data,
			}
			// A stalled dispatcher could leave next.deadline still in the
			// past; catch it up without drift accumulation.
			for !next.deadline.After(now) {
				next.deadline = next.deadline.Add(e.interval)
			}
			s.byID[next.id] = next
			heap.Push(&s.heap, next)
		}
		s.mu.Unlock()

		lateBy := now.Sub(e.deadline)
		if lateBy > time.Millisecond {
			s.log.Debug("timer fired late", log.Int64("timer_id", int64(e.id)), log.String("type", e.typ.String()), log.Duration("late_by", lateBy))
		}

		start := time.Now()
		e.cb(e.id, e.data)
		if elapsed := time.Since(start); elapsed > SlowCallbackThreshold {
			s.log.Warn("slow timer callback", log.Int64("timer_id", int64(e.id)), log.String("type", e.typ.String()), log.Duration("elapsed", elapsed))
		}
	}
}
