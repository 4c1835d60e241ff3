// Package kucoin implements the venue client variant for KuCoin: top-of-book
// only (spec §9 Open Question #2), with the two-step bootstrap KuCoin
// requires before any WebSocket connection — POST a bullet-token endpoint
// over REST, then dial the server-provided endpoint URL with that token —
// and a timer-driven ping at the server-provided interval rather than the
// shared Session's generic ping (spec §4.4 "KuCoin bootstrap (special
// case)"). Grounded on pkg/exchange/binance/ws.go for the session shape.
package kucoin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

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

const restURL = "https://api.kucoin.com"

type Client struct {
	*exchange.Base

	connectID string
	pingTimer timer.ID
}

func New(pairs []pair.ID, mgr *orderbook.Manager, timers *timer.Service, signer exchange.Signer, logger log.Logger) *Client {
	base := exchange.NewBase(venue.KuCoin, pairs, mgr, timers, logger)
	c := &Client{Base: base}
	base.REST = exchange.NewRESTClient("kucoin", restURL, signer, logger)
	base.REST.RateLimitHeaderParser = parseRateLimitHeaders
	return c
}

func parseRateLimitHeaders(h http.Header) (remaining, limit int, ok bool) {
	r := h.Get("Gw-Ratelimit-Remaining")
	l := h.Get("Gw-Ratelimit-Limit")
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

type bulletResponse struct {
	Code string `json:"code"`
	Data struct {
		Token           string `json:"token"`
		InstanceServers []struct {
			Endpoint      string `json:"endpoint"`
			PingInterval  int64  `json:"pingInterval"`
			PingTimeout   int64  `json:"pingTimeout"`
		} `json:"instanceServers"`
	} `json:"data"`
}

// Connect performs KuCoin's bullet-token bootstrap over REST, then dials
// the returned endpoint with the token appended as a query parameter, and
// finally arms a timer-driven ping at the server-provided interval (spec
// §4.4: KuCoin requires a custom ping payload '{"type":"ping"}' rather than
// a protocol-level WS ping frame, so the shared Session's ping is disabled).
func (c *Client) Connect(ctx context.Context) error {
	data, err := c.REST.Do(ctx, http.MethodPost, "/api/v1/bullet-public", nil, false)
	if err != nil {
		return fmt.Errorf("bullet-token bootstrap: %w", err)
	}
	var resp bulletResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("%w: %v", xerrors.ErrProtocolMalformed, err)
	}
	if resp.Code != "200000" || len(resp.Data.InstanceServers) == 0 {
		return fmt.Errorf("%w: bullet-token response code %s", xerrors.ErrProtocolMalformed, resp.Code)
	}
	srv := resp.Data.InstanceServers[0]
	c.connectID = fmt.Sprintf("arbiq-%d", time.Now().UnixNano())
	wsURL := fmt.Sprintf("%s?token=%s&connectId=%s", srv.Endpoint, resp.Data.Token, c.connectID)

	c.Session = exchange.NewSession(wsURL, c.Log, c.handleMessage, c.handleTransportError, c.onReconnect,
		exchange.WithPingInterval(0))
	if err := c.Session.Connect(ctx); err != nil {
		return err
	}

	pingInterval := time.Duration(srv.PingInterval) * time.Millisecond
	if pingInterval <= 0 {
		pingInterval = 18 * time.Second
	}
	c.pingTimer = c.Timers.Add(pingInterval, timer.TypeVenuePing, true, c.sendPing, nil)

	return c.SubscribeOrderBook()
}

func (c *Client) sendPing(id timer.ID, data interface{}) {
	frame, _ := json.Marshal(struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	}{ID: c.connectID, Type: "ping"})
	if err := c.Session.Write(frame); err != nil {
		c.Log.Warn("ping failed", log.Err(err))
	}
}

func (c *Client) Disconnect() {
	if c.pingTimer != 0 {
		c.Timers.Stop(c.pingTimer)
	}
	c.Base.Disconnect()
}

func (c *Client) onReconnect() {
	if err := c.SubscribeOrderBook(); err != nil {
		c.Log.Error("resubscribe after reconnect failed", log.Err(err))
	}
}

type subscribeFrame struct {
	ID             string `json:"id"`
	Type           string `json:"type"`
	Topic          string `json:"topic"`
	PrivateChannel bool   `json:"privateChannel"`
	Response       bool   `json:"response"`
}

func (c *Client) topic() string {
	syms := make([]string, 0, len(c.Pairs))
	for _, p := range c.Pairs {
		if s, ok := p.VenueSymbol(venue.KuCoin); ok {
			syms = append(syms, s)
		}
	}
	topic := "/spotMarket/level1:"
	for i, s := range syms {
		if i > 0 {
			topic += ","
		}
		topic += s
	}
	return topic
}

// SubscribeOrderBook subscribes to KuCoin's level1 (best bid/ask) channel,
// consistent with this client's top-of-book scope.
func (c *Client) SubscribeOrderBook() error {
	if len(c.Pairs) == 0 {
		return nil
	}
	frame := subscribeFrame{ID: fmt.Sprintf("%d", time.Now().UnixNano()), Type: "subscribe", Topic: c.topic(), Response: true}
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return c.Session.Write(data)
}

func (c *Client) Resubscribe(pairs []pair.ID) error {
	return c.SubscribeOrderBook()
}

func (c *Client) GetOrderBookSnapshot(ctx context.Context, p pair.ID) error {
	return nil
}

type level1Data struct {
	Symbol    string `json:"symbol"`
	BestBid   string `json:"bestBid"`
	BestBidSize string `json:"bestBidSize"`
	BestAsk   string `json:"bestAsk"`
	BestAskSize string `json:"bestAskSize"`
}

type tunnelMessage struct {
	Type    string          `json:"type"`
	Topic   string          `json:"topic"`
	Subject string          `json:"subject"`
	Data    json.RawMessage `json:"data"`
	ID      string          `json:"id"`
}

func (c *Client) handleMessage(raw []byte) {
	var msg tunnelMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.Log.Debug("unparseable message", log.Err(err))
		return
	}
	switch msg.Type {
	case "welcome":
		return
	case "pong":
		return
	case "ack":
		for _, p := range c.Pairs {
			c.SymbolState(p).MarkSubscribed()
		}
		return
	case "message":
		var d level1Data
		if err := json.Unmarshal(msg.Data, &d); err != nil {
			c.Log.Warn("malformed level1 payload", log.Err(err))
			return
		}
		c.applyLevel1(d)
	}
}

func (c *Client) applyLevel1(d level1Data) {
	p, ok := pair.FromVenueSymbol(venue.KuCoin, d.Symbol)
	if !ok {
		c.Log.Debug("unknown symbol", log.String("symbol", d.Symbol))
		return
	}
	bid, err1 := decimal.NewFromString(d.BestBid)
	bidQty, err2 := decimal.NewFromString(d.BestBidSize)
	ask, err3 := decimal.NewFromString(d.BestAsk)
	askQty, err4 := decimal.NewFromString(d.BestAskSize)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return
	}
	c.Manager.ApplyBestBidAsk(venue.KuCoin, p, bid, bidQty, ask, askQty)
	c.SymbolState(p).MarkSnapshot(0)
}

func (c *Client) handleTransportError(err error) {
	c.Log.Warn("kucoin transport error", log.Err(err))
}

func (c *Client) PlaceOrder(ctx context.Context, o *order.Order) error {
	sym, ok := o.Pair.VenueSymbol(venue.KuCoin)
	if !ok {
		return fmt.Errorf("%w: %s", xerrors.ErrUnknownSymbol, o.Pair)
	}
	side := "buy"
	if o.Side == order.Sell {
		side = "sell"
	}
	params := map[string]string{
		"clientOid": o.ClientOrderID,
		"symbol":    sym,
		"side":      side,
		"type":      "limit",
		"price":     o.LimitPrice.StringFixed(8),
		"size":      o.Quantity.StringFixed(8),
	}
	_, err := c.REST.Do(ctx, http.MethodPost, "/api/v1/orders", params, true)
	if err != nil {
		return err
	}
	o.Execute()
	return nil
}

func (c *Client) CancelOrder(ctx context.Context, o *order.Order) error {
	_, err := c.REST.Do(ctx, http.MethodDelete, "/api/v1/order/client-order/"+o.ClientOrderID, nil, true)
	return err
}

func (c *Client) GetBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	data, err := c.REST.Do(ctx, http.MethodGet, "/api/v1/accounts", map[string]string{"currency": asset, "type": "trade"}, true)
	if err != nil {
		return decimal.Zero, err
	}
	var resp struct {
		Data []struct {
			Currency  string `json:"currency"`
			Available string `json:"available"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", xerrors.ErrProtocolMalformed, err)
	}
	for _, b := range resp.Data {
		if b.Currency == asset {
			return decimal.NewFromString(b.Available)
		}
	}
	return decimal.Zero, nil
}
