package order

import (
	"testing"
	"time"

	"github.com/brightpool/arbiq/internal/pair"
	"github.com/brightpool/arbiq/internal/venue"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOpportunity(buy, sell string) Opportunity {
	return Opportunity{
		BuyVenue:  venue.Binance,
		SellVenue: venue.Kraken,
		Pair:      pair.BTC_USDT,
		Amount:    decimal.NewFromInt(1),
		BuyPrice:  decimal.RequireFromString(buy),
		SellPrice: decimal.RequireFromString(sell),
		T:         time.Now(),
	}
}

func TestProfitPct(t *testing.T) {
	opp := newTestOpportunity("100", "101")
	assert.True(t, opp.ProfitPct().Equal(decimal.NewFromInt(1)))
}

func TestProfitPctZeroBuyPrice(t *testing.T) {
	opp := newTestOpportunity("0", "101")
	assert.True(t, opp.ProfitPct().IsZero())
}

func TestFeasibleRejectsNonPositivePrices(t *testing.T) {
	opp := newTestOpportunity("0", "101")
	assert.False(t, opp.Feasible())
}

func TestFeasibleRejectsBuyNotLessThanSell(t *testing.T) {
	opp := newTestOpportunity("101", "100")
	assert.False(t, opp.Feasible())
}

func TestFeasibleRejectsOutOfSanityBand(t *testing.T) {
	opp := newTestOpportunity("100", "201")
	assert.False(t, opp.Feasible())
}

func TestFeasibleAccepts(t *testing.T) {
	opp := newTestOpportunity("100", "101")
	assert.True(t, opp.Feasible())
}

func TestAcceptedOpportunityLifecycle(t *testing.T) {
	opp := newTestOpportunity("100", "101")
	acc := NewAcceptedOpportunity(1, opp)
	require.Len(t, acc.History, 1)
	assert.Equal(t, OppAccepted, acc.CurrentState())

	acc.SetState(OppExecuting, StatePlaced, StatePlaced)
	assert.Equal(t, OppExecuting, acc.CurrentState())
	require.Len(t, acc.History, 2)
	assert.Equal(t, StatePlaced, acc.History[1].BuyState)
}

func TestAtLeastExecutedAsPlanned(t *testing.T) {
	assert.False(t, OppAccepted.AtLeastExecutedAsPlanned())
	assert.False(t, OppCancelling.AtLeastExecutedAsPlanned())
	assert.True(t, OppExecutedAsPlanned.AtLeastExecutedAsPlanned())
	assert.True(t, OppExecutionTimeout.AtLeastExecutedAsPlanned())
}

func TestAcceptedOpportunitySnapshotIndependent(t *testing.T) {
	opp := newTestOpportunity("100", "101")
	acc := NewAcceptedOpportunity(1, opp)
	snap := acc.Snapshot()
	acc.SetState(OppCancelled, StateCancelled, StateCancelled)
	assert.Equal(t, OppAccepted, snap.State)
	assert.Equal(t, OppCancelled, acc.CurrentState())
}
