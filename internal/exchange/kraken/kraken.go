// Package kraken implements the venue client variant for Kraken: full
// depth ladder delivered entirely over the v2 WebSocket "book" channel
// (snapshot on subscribe, incremental updates thereafter), each carrying a
// CRC32 checksum for integrity (spec §4.2). Grounded on
// original_source/src/api_kraken.cpp for the checksum algorithm (see
// internal/orderbook/checksum.go, a direct translation) and
// pkg/exchange/binance/ws.go for the session shape every variant reuses
// via internal/exchange.Session.
package kraken

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/brightpool/arbiq/internal/exchange"
	"github.com/brightpool/arbiq/internal/order"
	"github.com/brightpool/arbiq/internal/orderbook"
	"github.com/brightpool/arbiq/internal/pair"
	"github.com/brightpool/arbiq/internal/timer"
	"github.com/brightpool/arbiq/internal/venue"
	"github.com/brightpool/arbiq/internal/xerrors"
	"github.com/brightpool/arbiq/pkg/log"
)

const (
	wsURL   = "wss://ws.kraken.com/ws/v2"
	restURL = "https://api.kraken.com"

	// checksumSampleEvery validates one in every N book updates, since
	// recomputing the checksum over the top 10 levels is comparatively
	// expensive (spec §4.2).
	checksumSampleEvery = 20
)

type Client struct {
	*exchange.Base
}

func New(pairs []pair.ID, mgr *orderbook.Manager, timers *timer.Service, signer exchange.Signer, logger log.Logger) *Client {
	base := exchange.NewBase(venue.Kraken, pairs, mgr, timers, logger)
	c := &Client{Base: base}
	base.REST = exchange.NewRESTClient("kraken", restURL, signer, logger)
	base.Session = exchange.NewSession(wsURL, logger, c.handleMessage, c.handleTransportError, c.onReconnect)
	return c
}

func (c *Client) Connect(ctx context.Context) error {
	if err := c.Session.Connect(ctx); err != nil {
		return err
	}
	return c.SubscribeOrderBook()
}

func (c *Client) onReconnect() {
	if err := c.SubscribeOrderBook(); err != nil {
		c.Log.Error("resubscribe after reconnect failed", log.Err(err))
	}
}

type subscribeParams struct {
	Channel string   `json:"channel"`
	Symbol  []string `json:"symbol"`
}

type subscribeFrame struct {
	Method string          `json:"method"`
	Params subscribeParams `json:"params"`
}

func (c *Client) symbols() []string {
	out := make([]string, 0, len(c.Pairs))
	for _, p := range c.Pairs {
		if s, ok := p.VenueSymbol(venue.Kraken); ok {
			out = append(out, s)
		}
	}
	return out
}

// SubscribeOrderBook snapshots arrive inline on subscription for Kraken
// (spec §4.4: "no-op for venues whose snapshot arrives inline on
// subscription (Kraken, Bybit)"), so this is the only bootstrap needed.
func (c *Client) SubscribeOrderBook() error {
	syms := c.symbols()
	if len(syms) == 0 {
		return nil
	}
	frame := subscribeFrame{Method: "subscribe", Params: subscribeParams{Channel: "book", Symbol: syms}}
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return c.Session.Write(data)
}

func (c *Client) Resubscribe(pairs []pair.ID) error {
	syms := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if s, ok := p.VenueSymbol(venue.Kraken); ok {
			syms = append(syms, s)
		}
	}
	if len(syms) == 0 {
		return nil
	}
	unsub, _ := json.Marshal(subscribeFrame{Method: "unsubscribe", Params: subscribeParams{Channel: "book", Symbol: syms}})
	if err := c.Session.Write(unsub); err != nil {
		return err
	}
	sub, _ := json.Marshal(subscribeFrame{Method: "subscribe", Params: subscribeParams{Channel: "book", Symbol: syms}})
	return c.Session.Write(sub)
}

// GetOrderBookSnapshot is a no-op for Kraken: the snapshot arrives inline
// on the book-channel subscribe response, per spec §4.4.
func (c *Client) GetOrderBookSnapshot(ctx context.Context, p pair.ID) error {
	return nil
}

// bookLevel decodes price/qty as json.Number rather than float64: spec §9
// warns against going through binary floating point when building the
// checksum buffer, and decimal.NewFromFloat would round-trip through one.
// json.Number preserves the wire's exact decimal text.
type bookLevel struct {
	Price json.Number `json:"price"`
	Qty   json.Number `json:"qty"`
}

type bookData struct {
	Symbol   string      `json:"symbol"`
	Bids     []bookLevel `json:"bids"`
	Asks     []bookLevel `json:"asks"`
	Checksum uint32      `json:"checksum"`
}

type bookMessage struct {
	Channel string     `json:"channel"`
	Type    string     `json:"type"`
	Data    []bookData `json:"data"`
	Method  string     `json:"method"`
	Success *bool      `json:"success"`
}

func levelsFromBook(raw []bookLevel) []orderbook.PriceLevel {
	out := make([]orderbook.PriceLevel, 0, len(raw))
	for _, l := range raw {
		price, err1 := decimal.NewFromString(l.Price.String())
		qty, err2 := decimal.NewFromString(l.Qty.String())
		if err1 != nil || err2 != nil {
			continue
		}
		out = append(out, orderbook.PriceLevel{Price: price, Qty: qty})
	}
	return out
}

func (c *Client) handleMessage(raw []byte) {
	var msg bookMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.Log.Debug("unparseable message", log.Err(err))
		return
	}
	if msg.Method == "subscribe" {
		if msg.Success != nil && *msg.Success {
			for _, p := range c.Pairs {
				c.SymbolState(p).MarkSubscribed()
			}
		}
		return
	}
	if msg.Channel == "heartbeat" {
		return
	}
	if msg.Channel != "book" {
		c.Log.Debug("unknown message shape", log.String("channel", msg.Channel))
		return
	}
	for _, d := range msg.Data {
		c.applyBookData(msg.Type, d)
	}
}

func (c *Client) applyBookData(msgType string, d bookData) {
	p, ok := pair.FromVenueSymbol(venue.Kraken, d.Symbol)
	if !ok {
		c.Log.Debug("unknown symbol", log.String("symbol", d.Symbol))
		return
	}
	isSnapshot := msgType == "snapshot"
	bids := levelsFromBook(d.Bids)
	asks := levelsFromBook(d.Asks)

	outcome, err := c.Manager.ApplyUpdate(venue.Kraken, p, bids, asks, isSnapshot)
	if err != nil || outcome == orderbook.UpdateError {
		c.Log.Warn("book crossed, dropping update", log.String("pair", p.String()))
		return
	}
	_ = outcome

	book := c.Manager.Book(venue.Kraken, p)
	if isSnapshot {
		book.SetHasSnapshot(true)
		c.SymbolState(p).MarkSnapshot(0)
	}

	if book.ChecksumSampleDue(checksumSampleEvery) {
		meta, ok := pair.Lookup(p)
		if !ok {
			return
		}
		valid, computed := book.Validate(meta.PricePrecision, d.Checksum)
		if !valid {
			c.Log.Warn("checksum mismatch, resubscribing",
				log.String("pair", p.String()),
				log.Uint32("expected", d.Checksum),
				log.Uint32("computed", computed))
			if err := c.Resubscribe([]pair.ID{p}); err != nil {
				c.Log.Error("resubscribe after checksum mismatch failed", log.Err(err))
			}
		}
	}
}

func (c *Client) handleTransportError(err error) {
	c.Log.Warn("kraken transport error", log.Err(err))
}

func (c *Client) PlaceOrder(ctx context.Context, o *order.Order) error {
	sym, ok := o.Pair.VenueSymbol(venue.Kraken)
	if !ok {
		return fmt.Errorf("%w: %s", xerrors.ErrUnknownSymbol, o.Pair)
	}
	side := "buy"
	if o.Side == order.Sell {
		side = "sell"
	}
	params := map[string]string{
		"pair":      sym,
		"type":      side,
		"ordertype": "limit",
		"price":     o.LimitPrice.StringFixed(8),
		"volume":    o.Quantity.StringFixed(8),
		"userref":   o.ClientOrderID,
	}
	_, err := c.REST.Do(ctx, http.MethodPost, "/0/private/AddOrder", params, true)
	if err != nil {
		return err
	}
	o.Execute()
	return nil
}

func (c *Client) CancelOrder(ctx context.Context, o *order.Order) error {
	_, err := c.REST.Do(ctx, http.MethodPost, "/0/private/CancelOrder", map[string]string{
		"txid": o.OrderIDAtExchange,
	}, true)
	return err
}

func (c *Client) GetBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	data, err := c.REST.Do(ctx, http.MethodPost, "/0/private/Balance", nil, true)
	if err != nil {
		return decimal.Zero, err
	}
	var resp struct {
		Result map[string]string `json:"result"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", xerrors.ErrProtocolMalformed, err)
	}
	if v, ok := resp.Result[asset]; ok {
		return decimal.NewFromString(v)
	}
	return decimal.Zero, nil
}
