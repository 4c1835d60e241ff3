// Package binance implements the venue client variant for Binance: full
// depth ladder with snapshot bootstrap over REST plus incremental updates
// over WebSocket. Grounded on pkg/exchange/binance/{client.go,ws.go,
// config.go} for the REST/WS shape and internal/orderbook/orderbook.go for
// the partial/total update reconciliation this replaces (that file drove
// Binance depth via the adshao/go-binance/v2 SDK; this package speaks the
// raw frame shapes itself, per spec §9).
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
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
	wsURL   = "wss://stream.binance.com/ws/stream"
	restURL = "https://api.binance.com"
)

// Client is the Binance venue client.
type Client struct {
	*exchange.Base
}

// New constructs a Binance client for the given pairs.
func New(pairs []pair.ID, mgr *orderbook.Manager, timers *timer.Service, signer exchange.Signer, logger log.Logger) *Client {
	base := exchange.NewBase(venue.Binance, pairs, mgr, timers, logger)
	c := &Client{Base: base}
	base.REST = exchange.NewRESTClient("binance", restURL, signer, logger)
	base.REST.RateLimitHeaderParser = parseRateLimitHeaders
	base.Session = exchange.NewSession(wsURL, logger, c.handleMessage, c.handleTransportError, c.onReconnect,
		exchange.WithReconnectInterval(time.Second))
	return c
}

// parseRateLimitHeaders reads Binance's documented weight header (spec §9:
// each venue uses its own documented header, not a copy-pasted one).
func parseRateLimitHeaders(h http.Header) (remaining, limit int, ok bool) {
	used := h.Get("X-MBX-USED-WEIGHT-1M")
	if used == "" {
		return 0, 0, false
	}
	n, err := strconv.Atoi(used)
	if err != nil {
		return 0, 0, false
	}
	const weightLimit = 6000
	return weightLimit - n, weightLimit, true
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

type subscribeFrame struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int       `json:"id"`
}

func streamName(symbol string) string {
	return strings.ToLower(symbol) + "@depth@100ms"
}

// SubscribeOrderBook issues one SUBSCRIBE frame for all configured pairs,
// then bootstraps each via REST (spec §4.4: Binance provides a REST depth
// snapshot).
func (c *Client) SubscribeOrderBook() error {
	params := make([]string, 0, len(c.Pairs))
	for _, p := range c.Pairs {
		sym, ok := p.VenueSymbol(venue.Binance)
		if !ok {
			continue
		}
		params = append(params, streamName(sym))
	}
	if len(params) == 0 {
		return nil
	}
	frame := subscribeFrame{Method: "SUBSCRIBE", Params: params, ID: 1}
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	if err := c.Session.Write(data); err != nil {
		return err
	}
	for _, p := range c.Pairs {
		go func(p pair.ID) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := c.GetOrderBookSnapshot(ctx, p); err != nil {
				c.Log.Error("snapshot bootstrap failed", log.String("pair", p.String()), log.Err(err))
			}
		}(p)
	}
	return nil
}

func (c *Client) Resubscribe(pairs []pair.ID) error {
	params := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if sym, ok := p.VenueSymbol(venue.Binance); ok {
			params = append(params, streamName(sym))
		}
	}
	if len(params) == 0 {
		return nil
	}
	unsub, _ := json.Marshal(subscribeFrame{Method: "UNSUBSCRIBE", Params: params, ID: 2})
	if err := c.Session.Write(unsub); err != nil {
		return err
	}
	sub, _ := json.Marshal(subscribeFrame{Method: "SUBSCRIBE", Params: params, ID: 3})
	return c.Session.Write(sub)
}

type depthSnapshotResponse struct {
	LastUpdateID int64      `json:"lastUpdateId"`
	Bids         [][]string `json:"bids"`
	Asks         [][]string `json:"asks"`
}

func levelsFromStrings(raw [][]string) []orderbook.PriceLevel {
	out := make([]orderbook.PriceLevel, 0, len(raw))
	for _, lvl := range raw {
		if len(lvl) != 2 {
			continue
		}
		price, err1 := decimal.NewFromString(lvl[0])
		qty, err2 := decimal.NewFromString(lvl[1])
		if err1 != nil || err2 != nil {
			continue
		}
		out = append(out, orderbook.PriceLevel{Price: price, Qty: qty})
	}
	return out
}

// GetOrderBookSnapshot bootstraps a pair's book via GET /api/v3/depth.
func (c *Client) GetOrderBookSnapshot(ctx context.Context, p pair.ID) error {
	sym, ok := p.VenueSymbol(venue.Binance)
	if !ok {
		return fmt.Errorf("%w: %s", xerrors.ErrUnknownSymbol, p)
	}
	data, err := c.REST.Do(ctx, http.MethodGet, "/api/v3/depth", map[string]string{
		"symbol": sym,
		"limit":  "100",
	}, false)
	if err != nil {
		return err
	}
	var resp depthSnapshotResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("%w: %v", xerrors.ErrProtocolMalformed, err)
	}
	bids := levelsFromStrings(resp.Bids)
	asks := levelsFromStrings(resp.Asks)
	if _, err := c.Manager.ApplyUpdate(venue.Binance, p, bids, asks, true); err != nil {
		return err
	}
	st := c.SymbolState(p)
	st.MarkSnapshot(resp.LastUpdateID)
	c.Manager.Book(venue.Binance, p).SetLastUpdateID(resp.LastUpdateID)
	c.Manager.Book(venue.Binance, p).SetHasSnapshot(true)
	return nil
}

type depthUpdateEvent struct {
	EventType string     `json:"e"`
	Symbol    string     `json:"s"`
	FirstID   int64      `json:"U"`
	FinalID   int64      `json:"u"`
	Bids      [][]string `json:"b"`
	Asks      [][]string `json:"a"`
}

type genericFrame struct {
	Result interface{} `json:"result"`
	ID     *int        `json:"id"`
	Event  string      `json:"e"`
}

func (c *Client) handleMessage(raw []byte) {
	var gf genericFrame
	if err := json.Unmarshal(raw, &gf); err != nil {
		c.Log.Debug("unparseable message", log.Err(err))
		return
	}
	if gf.ID != nil && gf.Result == nil {
		// subscribe ack: {"result":null,"id":1}
		for _, p := range c.Pairs {
			c.SymbolState(p).MarkSubscribed()
		}
		return
	}
	if gf.Event != "depthUpdate" {
		c.Log.Debug("unknown message shape", log.String("event", gf.Event))
		return
	}
	var ev depthUpdateEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		c.Log.Warn("malformed depth update", log.Err(err))
		return
	}
	p, ok := pair.FromVenueSymbol(venue.Binance, ev.Symbol)
	if !ok {
		c.Log.Debug("unknown symbol", log.String("symbol", ev.Symbol))
		return
	}
	st := c.SymbolState(p)
	if !st.AcceptUpdate(ev.FinalID) {
		c.Log.Debug("sequence regression dropped", log.String("pair", p.String()), log.Int64("final_id", ev.FinalID))
		return
	}
	bids := levelsFromStrings(ev.Bids)
	asks := levelsFromStrings(ev.Asks)
	outcome, err := c.Manager.ApplyUpdate(venue.Binance, p, bids, asks, false)
	if err != nil || outcome == orderbook.UpdateError {
		c.Log.Warn("book crossed, dropping update", log.String("pair", p.String()))
		return
	}
	_ = outcome
	c.Manager.Book(venue.Binance, p).SetLastUpdateID(ev.FinalID)
}

func (c *Client) handleTransportError(err error) {
	c.Log.Warn("binance transport error", log.Err(err))
}

func (c *Client) PlaceOrder(ctx context.Context, o *order.Order) error {
	sym, ok := o.Pair.VenueSymbol(venue.Binance)
	if !ok {
		return fmt.Errorf("%w: %s", xerrors.ErrUnknownSymbol, o.Pair)
	}
	side := "BUY"
	if o.Side == order.Sell {
		side = "SELL"
	}
	params := map[string]string{
		"symbol":           sym,
		"side":             side,
		"type":             "LIMIT",
		"timeInForce":      "GTC",
		"quantity":         o.Quantity.StringFixed(8),
		"price":            o.LimitPrice.StringFixed(8),
		"newClientOrderId": o.ClientOrderID,
	}
	_, err := c.REST.Do(ctx, http.MethodPost, "/api/v3/order", params, true)
	if err != nil {
		return err
	}
	o.Execute()
	return nil
}

func (c *Client) CancelOrder(ctx context.Context, o *order.Order) error {
	sym, ok := o.Pair.VenueSymbol(venue.Binance)
	if !ok {
		return fmt.Errorf("%w: %s", xerrors.ErrUnknownSymbol, o.Pair)
	}
	_, err := c.REST.Do(ctx, http.MethodDelete, "/api/v3/order", map[string]string{
		"symbol":            sym,
		"origClientOrderId": o.ClientOrderID,
	}, true)
	return err
}

func (c *Client) GetBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	data, err := c.REST.Do(ctx, http.MethodGet, "/api/v3/account", nil, true)
	if err != nil {
		return decimal.Zero, err
	}
	var resp struct {
		Balances []struct {
			Asset string `json:"asset"`
			Free  string `json:"free"`
		} `json:"balances"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", xerrors.ErrProtocolMalformed, err)
	}
	for _, b := range resp.Balances {
		if b.Asset == asset {
			return decimal.NewFromString(b.Free)
		}
	}
	return decimal.Zero, nil
}

// NewClientOrderID generates a fresh client order id (google/uuid), the
// same format the execution manager assigns to every order it places.
func NewClientOrderID() string {
	return uuid.NewString()
}
