package order

import (
	"testing"

	"github.com/brightpool/arbiq/internal/pair"
	"github.com/brightpool/arbiq/internal/venue"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder() *Order {
	return New(1, "cid-1", venue.Binance, pair.BTC_USDT, Buy, decimal.NewFromInt(100), decimal.NewFromInt(2))
}

func TestNewOrderStartsAtNew(t *testing.T) {
	o := newTestOrder()
	assert.Equal(t, StateNew, o.CurrentState())
	require.Len(t, o.History, 1)
	assert.Equal(t, StateNew, o.History[0].State)
}

func TestExecuteMovesToPlaced(t *testing.T) {
	o := newTestOrder()
	o.Execute()
	assert.Equal(t, StatePlaced, o.CurrentState())
}

func TestFillFullMovesToExecuted(t *testing.T) {
	o := newTestOrder()
	o.Execute()
	o.Fill(decimal.NewFromInt(2), decimal.NewFromInt(100), true)
	assert.Equal(t, StateExecuted, o.CurrentState())
	snap := o.Snapshot()
	assert.True(t, snap.ExecutedQuantity.Equal(decimal.NewFromInt(2)))
}

func TestFillPartialMovesToPartiallyExecuted(t *testing.T) {
	o := newTestOrder()
	o.Execute()
	o.Fill(decimal.NewFromInt(1), decimal.NewFromInt(100), false)
	assert.Equal(t, StatePartiallyExecuted, o.CurrentState())
}

func TestCancelAndTimeout(t *testing.T) {
	o := newTestOrder()
	o.Cancel()
	assert.Equal(t, StateCancelled, o.CurrentState())

	o2 := newTestOrder()
	o2.TimeOut()
	assert.Equal(t, StateTimeout, o2.CurrentState())
}

func TestAtLeastExecuted(t *testing.T) {
	assert.False(t, StateNew.AtLeastExecuted())
	assert.False(t, StatePlaced.AtLeastExecuted())
	assert.False(t, StatePartiallyExecuted.AtLeastExecuted())
	assert.True(t, StateExecuted.AtLeastExecuted())
	assert.True(t, StateCancelled.AtLeastExecuted())
	assert.True(t, StateTimeout.AtLeastExecuted())
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	o := newTestOrder()
	o.Execute()
	snap := o.Snapshot()
	o.Fill(decimal.NewFromInt(2), decimal.NewFromInt(100), true)
	assert.Equal(t, StatePlaced, snap.State, "snapshot must not observe later mutations")
	assert.Equal(t, StateExecuted, o.CurrentState())
}

func TestHistoryAccumulatesEveryTransition(t *testing.T) {
	o := newTestOrder()
	o.Execute()
	o.Fill(decimal.NewFromInt(1), decimal.NewFromInt(100), false)
	o.Fill(decimal.NewFromInt(2), decimal.NewFromInt(100), true)
	require.Len(t, o.History, 4)
	assert.Equal(t, []State{StateNew, StatePlaced, StatePartiallyExecuted, StateExecuted}, historyStates(o))
}

func historyStates(o *Order) []State {
	out := make([]State, len(o.History))
	for i, h := range o.History {
		out[i] = h.State
	}
	return out
}
