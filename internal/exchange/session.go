// Package exchange holds the machinery every venue client variant shares:
// WebSocket session lifecycle (connect/reconnect/write-pump), HTTP
// rate-limit cooldown, and the Client capability-set interface. Concrete
// per-venue behavior (subscribe frame shapes, message parsing, REST
// signing) lives in internal/exchange/<venue>.
//
// Session is grounded on pkg/exchange/binance/ws.go's WSConnection
// (connect/readLoop/writeLoop/reconnect shape), generalized so every venue
// variant composes one Session rather than each reimplementing it — spec
// §9: "shared machinery ... lives in one reusable module that each variant
// composes."
package exchange

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/brightpool/arbiq/internal/xerrors"
	"github.com/brightpool/arbiq/pkg/log"
)

// MessageHandler processes one inbound text frame.
type MessageHandler func(msg []byte)

// ErrorHandler is notified of transport failures (spec's TransportFailure
// kind); the venue variant decides whether/how to react beyond the
// Session's own automatic reconnect.
type ErrorHandler func(err error)

// Session owns one WebSocket connection: single-writer FIFO write pump,
// read loop, and reconnect-with-resubscribe. Spec §4.4 "Common contract":
// connect/disconnect/write are implemented here; subscribe/resubscribe
// compose this plus venue-specific frame building.
type Session struct {
	url    string
	log    log.Logger
	dialer *websocket.Dialer

	mu          sync.RWMutex
	conn        *websocket.Conn
	connected   bool
	shouldStop  bool
	reconnectMu sync.Mutex
	reconnectN  int

	writeCh chan []byte
	closeCh chan struct{}

	onMessage   MessageHandler
	onError     ErrorHandler
	onReconnect func() // re-issue subscriptions; spec §4.4: "all subscriptions must be re-issued"

	reconnectInterval time.Duration
	maxReconnects      int
	pingInterval       time.Duration
}

// SessionOption configures a Session.
type SessionOption func(*Session)

func WithReconnectInterval(d time.Duration) SessionOption {
	return func(s *Session) { s.reconnectInterval = d }
}

func WithMaxReconnects(n int) SessionOption {
	return func(s *Session) { s.maxReconnects = n }
}

// WithPingInterval sets how often the write pump sends a protocol-level
// ping frame. Venues that require a custom ping payload (KuCoin) instead
// disable this (0) and drive their own ping timer via internal/timer.
func WithPingInterval(d time.Duration) SessionOption {
	return func(s *Session) { s.pingInterval = d }
}

// NewSession constructs a Session bound to a WebSocket URL. It does not
// connect until Connect is called.
func NewSession(wsURL string, logger log.Logger, onMessage MessageHandler, onError ErrorHandler, onReconnect func(), opts ...SessionOption) *Session {
	if logger == nil {
		logger = log.Nop()
	}
	s := &Session{
		url:               wsURL,
		log:               logger,
		dialer:            websocket.DefaultDialer,
		writeCh:           make(chan []byte, 256),
		closeCh:           make(chan struct{}),
		onMessage:         onMessage,
		onError:           onError,
		onReconnect:       onReconnect,
		reconnectInterval: 2 * time.Second,
		maxReconnects:     0, // 0 == unbounded; spec allows "the source uses immediate reconnect"
		pingInterval:      30 * time.Second,
	}
	return s
}

// Connect performs the TLS WebSocket handshake and starts the read loop
// and write pump.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.connected {
		s.mu.Unlock()
		return nil
	}
	if _, err := url.Parse(s.url); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: parse url: %v", xerrors.ErrTransportFailure, err)
	}

	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: dial: %v", xerrors.ErrTransportFailure, err)
	}
	s.conn = conn
	s.connected = true
	s.shouldStop = false
	s.mu.Unlock()

	go s.readLoop()
	go s.writeLoop()
	return nil
}

// Disconnect closes the socket, stops the reader, and signals the write
// pump to exit; frames still queued for writing are not flushed before the
// socket closes. Book state is preserved across reconnects (spec
// §5) since books live in the orderbook.Manager, not the Session.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return
	}
	s.shouldStop = true
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	s.connected = false
	select {
	case s.closeCh <- struct{}{}:
	default:
	}
}

func (s *Session) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// Write enqueues a frame on the single-writer FIFO (spec §4.4 "Write
// pump"). Returns ErrTransportFailure if the queue is full for too long.
func (s *Session) Write(frame []byte) error {
	select {
	case s.writeCh <- frame:
		return nil
	case <-time.After(5 * time.Second):
		return fmt.Errorf("%w: write queue full", xerrors.ErrTransportFailure)
	}
}

func (s *Session) readLoop() {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("panic in read loop", log.Any("panic", r))
		}
	}()
	for {
		s.mu.RLock()
		stop := s.shouldStop
		conn := s.conn
		s.mu.RUnlock()
		if stop {
			return
		}
		if conn == nil {
			time.Sleep(100 * time.Millisecond)
			continue
		}
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			s.handleTransportError(err)
			continue
		}
		if s.onMessage != nil {
			s.onMessage(msg)
		}
	}
}

func (s *Session) writeLoop() {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("panic in write loop", log.Any("panic", r))
		}
	}()
	var ticker *time.Ticker
	var tickC <-chan time.Time
	if s.pingInterval > 0 {
		ticker = time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		tickC = ticker.C
	}
	for {
		select {
		case <-s.closeCh:
			return
		case frame := <-s.writeCh:
			s.mu.RLock()
			conn := s.conn
			s.mu.RUnlock()
			if conn == nil {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.handleTransportError(err)
			}
		case <-tickC:
			s.mu.RLock()
			conn := s.conn
			s.mu.RUnlock()
			if conn == nil {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.handleTransportError(err)
			}
		}
	}
}

func (s *Session) handleTransportError(err error) {
	s.mu.Lock()
	if s.shouldStop {
		s.mu.Unlock()
		return
	}
	s.connected = false
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	s.mu.Unlock()

	s.log.Warn("transport failure", log.Err(err))
	if s.onError != nil {
		s.onError(fmt.Errorf("%w: %v", xerrors.ErrTransportFailure, err))
	}
	go s.reconnect()
}

func (s *Session) reconnect() {
	if !s.reconnectMu.TryLock() {
		return
	}
	defer s.reconnectMu.Unlock()

	attempt := 0
	for {
		s.mu.RLock()
		stop := s.shouldStop
		s.mu.RUnlock()
		if stop {
			return
		}
		if s.maxReconnects > 0 && attempt >= s.maxReconnects {
			s.log.Error("max reconnect attempts reached")
			return
		}
		attempt++
		time.Sleep(s.reconnectInterval)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := s.Connect(ctx)
		cancel()
		if err == nil {
			s.log.Info("reconnected", log.Int("attempt", attempt))
			if s.onReconnect != nil {
				s.onReconnect()
			}
			return
		}
		s.log.Warn("reconnect attempt failed", log.Int("attempt", attempt), log.Err(err))
	}
}
