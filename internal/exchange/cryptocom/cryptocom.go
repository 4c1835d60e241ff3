// Package cryptocom implements the venue client variant for Crypto.com
// Exchange: top-of-book only (spec §9 Open Question #2), subscribed via the
// ticker.<instrument> channel, with the server-driven heartbeat-echo
// protocol Crypto.com requires in place of a client ping. Grounded on
// pkg/exchange/binance/ws.go for the session shape and spec §4.4's
// "public/respond-heartbeat" requirement.
package cryptocom

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

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
	wsURL   = "wss://stream.crypto.com/exchange/v1/market"
	restURL = "https://api.crypto.com/exchange/v1"
)

type Client struct {
	*exchange.Base
	reqID int
}

func New(pairs []pair.ID, mgr *orderbook.Manager, timers *timer.Service, signer exchange.Signer, logger log.Logger) *Client {
	base := exchange.NewBase(venue.Crypto, pairs, mgr, timers, logger)
	c := &Client{Base: base, reqID: 1}
	base.REST = exchange.NewRESTClient("cryptocom", restURL, signer, logger)
	base.REST.RateLimitHeaderParser = parseRateLimitHeaders
	base.Session = exchange.NewSession(wsURL, logger, c.handleMessage, c.handleTransportError, c.onReconnect)
	return c
}

// parseRateLimitHeaders uses Crypto.com's own documented header, fixing the
// teacher's copy-pasted Binance header name (spec §9).
func parseRateLimitHeaders(h http.Header) (remaining, limit int, ok bool) {
	r := h.Get("X-Ratelimit-Remaining")
	l := h.Get("X-Ratelimit-Limit")
	if r == "" || l == "" {
		return 0, 0, false
	}
	rn, err1 := strconv.Atoi(r)
	ln, err2 := strconv.Atoi(l)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return rn, ln, true
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
	Channels []string `json:"channels"`
}

type reqFrame struct {
	ID     int             `json:"id"`
	Method string          `json:"method"`
	Params subscribeParams `json:"params,omitempty"`
}

func (c *Client) nextID() int {
	c.reqID++
	return c.reqID
}

func (c *Client) channels() []string {
	out := make([]string, 0, len(c.Pairs))
	for _, p := range c.Pairs {
		if s, ok := p.VenueSymbol(venue.Crypto); ok {
			out = append(out, "ticker."+s)
		}
	}
	return out
}

// SubscribeOrderBook subscribes to the ticker channel, whose payload
// carries current best bid/ask (this venue is top-of-book only).
func (c *Client) SubscribeOrderBook() error {
	channels := c.channels()
	if len(channels) == 0 {
		return nil
	}
	data, err := json.Marshal(reqFrame{ID: c.nextID(), Method: "subscribe", Params: subscribeParams{Channels: channels}})
	if err != nil {
		return err
	}
	return c.Session.Write(data)
}

func (c *Client) Resubscribe(pairs []pair.ID) error {
	channels := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if s, ok := p.VenueSymbol(venue.Crypto); ok {
			channels = append(channels, "ticker."+s)
		}
	}
	if len(channels) == 0 {
		return nil
	}
	unsub, _ := json.Marshal(reqFrame{ID: c.nextID(), Method: "unsubscribe", Params: subscribeParams{Channels: channels}})
	if err := c.Session.Write(unsub); err != nil {
		return err
	}
	sub, _ := json.Marshal(reqFrame{ID: c.nextID(), Method: "subscribe", Params: subscribeParams{Channels: channels}})
	return c.Session.Write(sub)
}

func (c *Client) GetOrderBookSnapshot(ctx context.Context, p pair.ID) error {
	return nil
}

type tickerEntry struct {
	Instrument string `json:"i"`
	BestBid    string `json:"b"`
	BestBidQty string `json:"bs"`
	BestAsk    string `json:"k"`
	BestAskQty string `json:"ks"`
}

type tickerResult struct {
	Channel      string        `json:"channel"`
	Subscription string        `json:"subscription"`
	Data         []tickerEntry `json:"data"`
}

type rpcFrame struct {
	ID     *int            `json:"id"`
	Method string          `json:"method"`
	Code   *int            `json:"code"`
	Result json.RawMessage `json:"result"`
}

func (c *Client) handleMessage(raw []byte) {
	var f rpcFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		c.Log.Debug("unparseable message", log.Err(err))
		return
	}
	if f.Method == "public/heartbeat" {
		c.respondHeartbeat(f.ID)
		return
	}
	if f.Method == "subscribe" {
		if f.Code != nil && *f.Code == 0 {
			for _, p := range c.Pairs {
				c.SymbolState(p).MarkSubscribed()
			}
		}
		return
	}
	if len(f.Result) == 0 {
		return
	}
	var res tickerResult
	if err := json.Unmarshal(f.Result, &res); err != nil || res.Channel != "ticker" {
		return
	}
	for _, d := range res.Data {
		c.applyTicker(d)
	}
}

// respondHeartbeat echoes Crypto.com's server-driven heartbeat via
// public/respond-heartbeat, per spec §4.4: the exchange expects this echo
// in place of a client-initiated WS ping.
func (c *Client) respondHeartbeat(id *int) {
	if id == nil {
		return
	}
	data, _ := json.Marshal(struct {
		ID     int    `json:"id"`
		Method string `json:"method"`
	}{ID: *id, Method: "public/respond-heartbeat"})
	if err := c.Session.Write(data); err != nil {
		c.Log.Warn("heartbeat echo failed", log.Err(err))
	}
}

func (c *Client) applyTicker(d tickerEntry) {
	p, ok := pair.FromVenueSymbol(venue.Crypto, d.Instrument)
	if !ok {
		c.Log.Debug("unknown symbol", log.String("symbol", d.Instrument))
		return
	}
	bid, err1 := decimal.NewFromString(d.BestBid)
	bidQty, err2 := decimal.NewFromString(d.BestBidQty)
	ask, err3 := decimal.NewFromString(d.BestAsk)
	askQty, err4 := decimal.NewFromString(d.BestAskQty)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return
	}
	c.Manager.ApplyBestBidAsk(venue.Crypto, p, bid, bidQty, ask, askQty)
	c.SymbolState(p).MarkSnapshot(0)
}

func (c *Client) handleTransportError(err error) {
	c.Log.Warn("crypto.com transport error", log.Err(err))
}

func (c *Client) PlaceOrder(ctx context.Context, o *order.Order) error {
	sym, ok := o.Pair.VenueSymbol(venue.Crypto)
	if !ok {
		return fmt.Errorf("%w: %s", xerrors.ErrUnknownSymbol, o.Pair)
	}
	side := "BUY"
	if o.Side == order.Sell {
		side = "SELL"
	}
	params := map[string]string{
		"instrument_name": sym,
		"side":            side,
		"type":            "LIMIT",
		"price":           o.LimitPrice.StringFixed(8),
		"quantity":        o.Quantity.StringFixed(8),
		"client_oid":      o.ClientOrderID,
	}
	_, err := c.REST.Do(ctx, http.MethodPost, "/private/create-order", params, true)
	if err != nil {
		return err
	}
	o.Execute()
	return nil
}

func (c *Client) CancelOrder(ctx context.Context, o *order.Order) error {
	_, err := c.REST.Do(ctx, http.MethodPost, "/private/cancel-order", map[string]string{
		"client_oid": o.ClientOrderID,
	}, true)
	return err
}

func (c *Client) GetBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	data, err := c.REST.Do(ctx, http.MethodPost, "/private/user-balance", nil, true)
	if err != nil {
		return decimal.Zero, err
	}
	var resp struct {
		Result struct {
			Data []struct {
				Currency  string `json:"instrument_name"`
				Available string `json:"available"`
			} `json:"data"`
		} `json:"result"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", xerrors.ErrProtocolMalformed, err)
	}
	for _, b := range resp.Result.Data {
		if b.Currency == asset {
			return decimal.NewFromString(b.Available)
		}
	}
	return decimal.Zero, nil
}
