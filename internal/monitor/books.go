package monitor

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brightpool/arbiq/internal/orderbook"
	"github.com/brightpool/arbiq/internal/pair"
	"github.com/brightpool/arbiq/internal/venue"
)

type booksHandler struct {
	books *orderbook.Manager
}

func newBooksHandler(rg *gin.RouterGroup, books *orderbook.Manager) *booksHandler {
	h := &booksHandler{books: books}
	rg.GET("/books", h.listBooks)
	rg.GET("/books/:venue/:pair", h.getBook)
	return h
}

// PriceLevelView is the JSON shape for one ladder level.
type PriceLevelView struct {
	Price string `json:"price"`
	Qty   string `json:"qty"`
}

// BookView is the JSON shape returned for a single (venue, pair) book.
type BookView struct {
	Venue     string           `json:"venue"`
	Pair      string           `json:"pair"`
	BestBid   string           `json:"best_bid,omitempty"`
	BestAsk   string           `json:"best_ask,omitempty"`
	Bids      []PriceLevelView `json:"bids"`
	Asks      []PriceLevelView `json:"asks"`
	UpdatedAt int64            `json:"updated_at_unix_ms"`
}

// @Summary List tracked books
// @Description Return every (venue, pair) combination this process tracks
// @Produce json
// @Success 200 {array} string
// @Router /v1/books [get]
func (h *booksHandler) listBooks(c *gin.Context) {
	pairs := h.books.Pairs()
	out := make([]string, 0, len(pairs))
	for _, vp := range pairs {
		out = append(out, vp.Venue.String()+"/"+vp.Pair.String())
	}
	c.JSON(http.StatusOK, out)
}

// @Summary Get a book snapshot
// @Description Return the best bid/ask and the full bid and ask ladders for one venue/pair
// @Produce json
// @Param venue path string true "venue, e.g. BINANCE"
// @Param pair path string true "pair, e.g. BTC/USDT"
// @Success 200 {object} BookView
// @Failure 400 {object} map[string]string
// @Router /v1/books/{venue}/{pair} [get]
func (h *booksHandler) getBook(c *gin.Context) {
	v, ok := venue.Parse(c.Param("venue"))
	if !ok {
		writeError(c, http.StatusBadRequest, errUnknownVenue(c.Param("venue")))
		return
	}
	p, ok := pair.FromSymbol(c.Param("pair"))
	if !ok {
		writeError(c, http.StatusBadRequest, errUnknownPair(c.Param("pair")))
		return
	}

	b := h.books.Book(v, p)
	view := BookView{
		Venue:     v.String(),
		Pair:      p.String(),
		Bids:      toLevelViews(b.SnapshotBids()),
		Asks:      toLevelViews(b.SnapshotAsks()),
		UpdatedAt: b.LastUpdate().UnixMilli(),
	}
	if bid, ok := b.BestBid(); ok {
		view.BestBid = bid.String()
	}
	if ask, ok := b.BestAsk(); ok {
		view.BestAsk = ask.String()
	}
	c.JSON(http.StatusOK, view)
}

func toLevelViews(levels []orderbook.PriceLevel) []PriceLevelView {
	out := make([]PriceLevelView, len(levels))
	for i, lvl := range levels {
		out[i] = PriceLevelView{Price: lvl.Price.String(), Qty: lvl.Qty.String()}
	}
	return out
}

func errUnknownVenue(s string) error {
	return fmt.Errorf("monitor: unknown venue %q", s)
}

func errUnknownPair(s string) error {
	return fmt.Errorf("monitor: unknown pair %q", s)
}
