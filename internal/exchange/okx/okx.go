// Package okx implements the venue client variant for OKX: top-of-book
// only via the bbo-tbt channel (OKX's own best-bid-offer tick-by-tick feed,
// spec §9 Open Question #2). An update whose seqId is lower than the last
// one seen for its pair is dropped; gaps in seqId are not detected.
// Grounded on pkg/exchange/binance/ws.go for the session shape.
package okx

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
	wsURL   = "wss://ws.okx.com:8443/ws/v5/public"
	restURL = "https://www.okx.com"
)

type Client struct {
	*exchange.Base

	lastSeq map[pair.ID]int64
}

func New(pairs []pair.ID, mgr *orderbook.Manager, timers *timer.Service, signer exchange.Signer, logger log.Logger) *Client {
	base := exchange.NewBase(venue.OKX, pairs, mgr, timers, logger)
	c := &Client{Base: base, lastSeq: make(map[pair.ID]int64)}
	base.REST = exchange.NewRESTClient("okx", restURL, signer, logger)
	base.REST.RateLimitHeaderParser = parseRateLimitHeaders
	base.Session = exchange.NewSession(wsURL, logger, c.handleMessage, c.handleTransportError, c.onReconnect)
	return c
}

func parseRateLimitHeaders(h http.Header) (remaining, limit int, ok bool) {
	r := h.Get("OK-ACCESS-RATELIMIT-REMAINING")
	l := h.Get("OK-ACCESS-RATELIMIT-LIMIT")
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

type argSpec struct {
	Channel string `json:"channel"`
	InstID  string `json:"instId"`
}

type opFrame struct {
	Op   string    `json:"op"`
	Args []argSpec `json:"args"`
}

func (c *Client) args() []argSpec {
	out := make([]argSpec, 0, len(c.Pairs))
	for _, p := range c.Pairs {
		if s, ok := p.VenueSymbol(venue.OKX); ok {
			out = append(out, argSpec{Channel: "bbo-tbt", InstID: s})
		}
	}
	return out
}

func (c *Client) SubscribeOrderBook() error {
	args := c.args()
	if len(args) == 0 {
		return nil
	}
	data, err := json.Marshal(opFrame{Op: "subscribe", Args: args})
	if err != nil {
		return err
	}
	return c.Session.Write(data)
}

func (c *Client) Resubscribe(pairs []pair.ID) error {
	args := make([]argSpec, 0, len(pairs))
	for _, p := range pairs {
		if s, ok := p.VenueSymbol(venue.OKX); ok {
			args = append(args, argSpec{Channel: "bbo-tbt", InstID: s})
		}
	}
	if len(args) == 0 {
		return nil
	}
	unsub, _ := json.Marshal(opFrame{Op: "unsubscribe", Args: args})
	if err := c.Session.Write(unsub); err != nil {
		return err
	}
	sub, _ := json.Marshal(opFrame{Op: "subscribe", Args: args})
	return c.Session.Write(sub)
}

func (c *Client) GetOrderBookSnapshot(ctx context.Context, p pair.ID) error {
	return nil
}

type bboLevel = [4]string // [price, qty, deprecated, orderCount]

type bboData struct {
	InstID string      `json:"instId"`
	Bids   []bboLevel  `json:"bids"`
	Asks   []bboLevel  `json:"asks"`
	SeqID  int64       `json:"seqId"`
}

type wsMessage struct {
	Event string          `json:"event"`
	Code  string          `json:"code"`
	Arg   *argSpec        `json:"arg"`
	Data  []bboData       `json:"data"`
}

func (c *Client) handleMessage(raw []byte) {
	var msg wsMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.Log.Debug("unparseable message", log.Err(err))
		return
	}
	if msg.Event == "subscribe" {
		for _, p := range c.Pairs {
			c.SymbolState(p).MarkSubscribed()
		}
		return
	}
	if msg.Event == "error" {
		c.Log.Warn("okx rejected subscribe", log.String("code", msg.Code))
		return
	}
	if msg.Arg == nil || msg.Arg.Channel != "bbo-tbt" {
		return
	}
	for _, d := range msg.Data {
		c.applyBBO(d)
	}
}

func (c *Client) applyBBO(d bboData) {
	p, ok := pair.FromVenueSymbol(venue.OKX, d.InstID)
	if !ok {
		c.Log.Debug("unknown symbol", log.String("symbol", d.InstID))
		return
	}
	if last, seen := c.lastSeq[p]; seen && d.SeqID > 0 && d.SeqID < last {
		c.Log.Debug("stale seqId dropped", log.String("pair", p.String()), log.Int64("seq_id", d.SeqID))
		return
	}
	c.lastSeq[p] = d.SeqID

	bid, bidQty, haveBid := bestFromLevel(d.Bids)
	ask, askQty, haveAsk := bestFromLevel(d.Asks)
	if !haveBid || !haveAsk {
		return
	}
	c.Manager.ApplyBestBidAsk(venue.OKX, p, bid, bidQty, ask, askQty)
	c.SymbolState(p).MarkSnapshot(d.SeqID)
}

func bestFromLevel(levels []bboLevel) (decimal.Decimal, decimal.Decimal, bool) {
	if len(levels) == 0 {
		return decimal.Zero, decimal.Zero, false
	}
	price, err1 := decimal.NewFromString(levels[0][0])
	qty, err2 := decimal.NewFromString(levels[0][1])
	if err1 != nil || err2 != nil {
		return decimal.Zero, decimal.Zero, false
	}
	return price, qty, true
}

func (c *Client) handleTransportError(err error) {
	c.Log.Warn("okx transport error", log.Err(err))
}

func (c *Client) PlaceOrder(ctx context.Context, o *order.Order) error {
	sym, ok := o.Pair.VenueSymbol(venue.OKX)
	if !ok {
		return fmt.Errorf("%w: %s", xerrors.ErrUnknownSymbol, o.Pair)
	}
	side := "buy"
	if o.Side == order.Sell {
		side = "sell"
	}
	params := map[string]string{
		"instId":  sym,
		"tdMode":  "cash",
		"side":    side,
		"ordType": "limit",
		"px":      o.LimitPrice.StringFixed(8),
		"sz":      o.Quantity.StringFixed(8),
		"clOrdId": o.ClientOrderID,
	}
	_, err := c.REST.Do(ctx, http.MethodPost, "/api/v5/trade/order", params, true)
	if err != nil {
		return err
	}
	o.Execute()
	return nil
}

func (c *Client) CancelOrder(ctx context.Context, o *order.Order) error {
	sym, ok := o.Pair.VenueSymbol(venue.OKX)
	if !ok {
		return fmt.Errorf("%w: %s", xerrors.ErrUnknownSymbol, o.Pair)
	}
	_, err := c.REST.Do(ctx, http.MethodPost, "/api/v5/trade/cancel-order", map[string]string{
		"instId":  sym,
		"clOrdId": o.ClientOrderID,
	}, true)
	return err
}

func (c *Client) GetBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	data, err := c.REST.Do(ctx, http.MethodGet, "/api/v5/account/balance", map[string]string{"ccy": asset}, true)
	if err != nil {
		return decimal.Zero, err
	}
	var resp struct {
		Data []struct {
			Details []struct {
				Ccy     string `json:"ccy"`
				AvailBal string `json:"availBal"`
			} `json:"details"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", xerrors.ErrProtocolMalformed, err)
	}
	for _, acct := range resp.Data {
		for _, d := range acct.Details {
			if d.Ccy == asset {
				return decimal.NewFromString(d.AvailBal)
			}
		}
	}
	return decimal.Zero, nil
}
