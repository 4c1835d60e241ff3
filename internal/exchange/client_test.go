package exchange

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpool/arbiq/internal/pair"
	"github.com/brightpool/arbiq/internal/venue"
)

func TestSymbolStateAcceptUpdateRequiresSnapshotFirst(t *testing.T) {
	var s SymbolState
	assert.False(t, s.AcceptUpdate(5))
}

func TestSymbolStateAcceptUpdateOrdering(t *testing.T) {
	var s SymbolState
	s.MarkSnapshot(10)

	assert.False(t, s.AcceptUpdate(10), "update id must be strictly greater than the snapshot id")
	assert.False(t, s.AcceptUpdate(9))

	assert.True(t, s.AcceptUpdate(11))
	assert.Equal(t, int64(11), s.Snapshot().LastUpdateID)
	assert.True(t, s.Snapshot().FirstUpdateProcessed)

	assert.True(t, s.AcceptUpdate(12))
	assert.False(t, s.AcceptUpdate(12), "a repeated id must not be re-accepted")
}

func TestSymbolStateMarkSnapshotResetsFirstUpdateProcessed(t *testing.T) {
	var s SymbolState
	s.MarkSnapshot(10)
	s.AcceptUpdate(11)
	require.True(t, s.Snapshot().FirstUpdateProcessed)

	s.MarkSnapshot(20)
	assert.False(t, s.Snapshot().FirstUpdateProcessed)
	assert.Equal(t, int64(20), s.Snapshot().LastUpdateID)
}

func TestSymbolStateSnapshotIsIndependentCopy(t *testing.T) {
	var s SymbolState
	s.MarkSnapshot(1)
	snap := s.Snapshot()

	s.AcceptUpdate(2)
	assert.Equal(t, int64(1), snap.LastUpdateID, "earlier snapshot must not observe later mutation")
	assert.Equal(t, int64(2), s.Snapshot().LastUpdateID)
}

func TestBaseSymbolStateLazyCreation(t *testing.T) {
	b := NewBase(venue.Binance, []pair.ID{pair.BTC_USDT}, nil, nil, nil)

	pre := b.SymbolState(pair.BTC_USDT)
	require.NotNil(t, pre)

	// ETH_USDT was not in the configured pair list; SymbolState must still
	// create and cache state for it on first access.
	lazy1 := b.SymbolState(pair.ETH_USDT)
	lazy2 := b.SymbolState(pair.ETH_USDT)
	assert.Same(t, lazy1, lazy2)
}

func TestBaseVenue(t *testing.T) {
	b := NewBase(venue.Kraken, nil, nil, nil, nil)
	assert.Equal(t, venue.Kraken, b.Venue())
}

func TestBaseDisconnectNilSessionIsNoop(t *testing.T) {
	b := NewBase(venue.Kraken, nil, nil, nil, nil)
	assert.NotPanics(t, func() {
		b.Disconnect()
	})
}
