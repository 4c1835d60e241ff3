package monitor

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brightpool/arbiq/internal/execution"
	"github.com/brightpool/arbiq/internal/order"
)

type executionHandler struct {
	exec *execution.Manager
}

func newExecutionHandler(rg *gin.RouterGroup, exec *execution.Manager) *executionHandler {
	h := &executionHandler{exec: exec}
	rg.GET("/opportunities", h.listOpportunities)
	rg.GET("/opportunities/:id", h.getOpportunity)
	rg.GET("/orders/:id", h.getOrder)
	return h
}

// OpportunityView is the JSON shape for one accepted opportunity.
type OpportunityView struct {
	ID          uint64    `json:"id"`
	Pair        string    `json:"pair"`
	BuyVenue    string    `json:"buy_venue"`
	SellVenue   string    `json:"sell_venue"`
	Amount      string    `json:"amount"`
	BuyPrice    string    `json:"buy_price"`
	SellPrice   string    `json:"sell_price"`
	ProfitPct   string    `json:"profit_pct"`
	State       string    `json:"state"`
	BuyOrderID  uint64    `json:"buy_order_id"`
	SellOrderID uint64    `json:"sell_order_id"`
	DetectedAt  time.Time `json:"detected_at"`
}

func toOpportunityView(acc order.AcceptedOpportunity) OpportunityView {
	opp := acc.Opportunity
	return OpportunityView{
		ID:          acc.ID,
		Pair:        opp.Pair.String(),
		BuyVenue:    opp.BuyVenue.String(),
		SellVenue:   opp.SellVenue.String(),
		Amount:      opp.Amount.String(),
		BuyPrice:    opp.BuyPrice.String(),
		SellPrice:   opp.SellPrice.String(),
		ProfitPct:   opp.ProfitPct().StringFixed(4),
		State:       acc.State.String(),
		BuyOrderID:  acc.BuyOrderID,
		SellOrderID: acc.SellOrderID,
		DetectedAt:  opp.T,
	}
}

// @Summary List accepted opportunities
// @Description Return every opportunity the execution manager has accepted, oldest first
// @Produce json
// @Success 200 {array} OpportunityView
// @Router /v1/opportunities [get]
func (h *executionHandler) listOpportunities(c *gin.Context) {
	accs := h.exec.Opportunities()
	sort.Slice(accs, func(i, j int) bool { return accs[i].ID < accs[j].ID })
	out := make([]OpportunityView, len(accs))
	for i, acc := range accs {
		out[i] = toOpportunityView(acc)
	}
	c.JSON(http.StatusOK, out)
}

// @Summary Get an accepted opportunity
// @Produce json
// @Param id path int true "opportunity id"
// @Success 200 {object} OpportunityView
// @Failure 404 {object} map[string]string
// @Router /v1/opportunities/{id} [get]
func (h *executionHandler) getOpportunity(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	acc, ok := h.exec.Opportunity(id)
	if !ok {
		notFound(c, "opportunity")
		return
	}
	c.JSON(http.StatusOK, toOpportunityView(acc))
}

// OrderView is the JSON shape for one order leg.
type OrderView struct {
	ID               uint64    `json:"id"`
	Venue            string    `json:"venue"`
	Pair             string    `json:"pair"`
	Side             string    `json:"side"`
	State            string    `json:"state"`
	LimitPrice       string    `json:"limit_price"`
	Quantity         string    `json:"quantity"`
	ExecutedQuantity string    `json:"executed_quantity"`
	ExecutedPrice    string    `json:"executed_price"`
	RequestedAt      time.Time `json:"requested_at"`
}

// @Summary Get an order
// @Produce json
// @Param id path int true "order id"
// @Success 200 {object} OrderView
// @Failure 404 {object} map[string]string
// @Router /v1/orders/{id} [get]
func (h *executionHandler) getOrder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	o, ok := h.exec.Order(id)
	if !ok {
		notFound(c, "order")
		return
	}
	c.JSON(http.StatusOK, OrderView{
		ID:               o.ID,
		Venue:            o.Venue.String(),
		Pair:             o.Pair.String(),
		Side:             o.Side.String(),
		State:            o.State.String(),
		LimitPrice:       o.LimitPrice.String(),
		Quantity:         o.Quantity.String(),
		ExecutedQuantity: o.ExecutedQuantity.String(),
		ExecutedPrice:    o.ExecutedPrice.String(),
		RequestedAt:      o.RequestedAt,
	})
}
