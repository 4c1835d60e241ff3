package monitor

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpool/arbiq/internal/execution"
	"github.com/brightpool/arbiq/internal/exchange"
	"github.com/brightpool/arbiq/internal/orderbook"
	"github.com/brightpool/arbiq/internal/pair"
	"github.com/brightpool/arbiq/internal/timer"
	"github.com/brightpool/arbiq/internal/venue"
	"github.com/brightpool/arbiq/pkg/log"
)

type stubResolver struct{}

func (stubResolver) Client(venue.ID) (exchange.Client, bool) { return nil, false }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	books := orderbook.NewManager([]venue.ID{venue.Binance, venue.Kraken}, []pair.ID{pair.BTC_USDT}, 50)
	_, err := books.Book(venue.Binance, pair.BTC_USDT).Update(
		[]orderbook.PriceLevel{{Price: decimal.NewFromInt(100), Qty: decimal.NewFromInt(1)}},
		[]orderbook.PriceLevel{{Price: decimal.NewFromInt(101), Qty: decimal.NewFromInt(1)}},
		true,
	)
	require.NoError(t, err)

	timers := timer.NewService(log.Nop())
	exec := execution.New(execution.DefaultConfig(), timers, stubResolver{}, log.Nop())

	return New("127.0.0.1:0", books, exec, log.Nop())
}

func TestGetBookReturnsSnapshot(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/books/BINANCE/BTC%2FUSDT", nil)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"best_bid":"100"`)
	assert.Contains(t, rec.Body.String(), `"best_ask":"101"`)
}

func TestGetBookUnknownVenue(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/books/NOPE/BTC%2FUSDT", nil)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListOpportunitiesEmpty(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/opportunities", nil)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestGetOpportunityNotFound(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/opportunities/999", nil)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetOrderNotFound(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/orders/1", nil)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetOrderBadID(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/orders/not-a-number", nil)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
