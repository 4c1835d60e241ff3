package orderbook

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func lvl(price, qty string) PriceLevel {
	return PriceLevel{Price: d(price), Qty: d(qty)}
}

func TestSnapshotThenZeroDeltasYieldsSnapshot(t *testing.T) {
	b := New(50)
	bids := []PriceLevel{lvl("100", "1"), lvl("99", "2")}
	asks := []PriceLevel{lvl("101", "1"), lvl("102", "2")}
	_, err := b.Update(bids, asks, true)
	require.NoError(t, err)

	outcome, err := b.Update(nil, nil, false)
	require.NoError(t, err)
	require.Equal(t, UnchangedBest, outcome)

	require.Equal(t, bids, b.SnapshotBids())
	require.Equal(t, asks, b.SnapshotAsks())
}

func TestDeltaOrderingDropsRegressionAndRemovesLevel(t *testing.T) {
	b := New(50)
	_, err := b.Update(
		[]PriceLevel{lvl("500", "1"), lvl("499", "1")},
		[]PriceLevel{lvl("501", "1")},
		true,
	)
	require.NoError(t, err)
	b.SetLastUpdateID(100)

	// update with u=100 must be dropped by the caller (sequence check lives
	// one layer up, in the venue client); here we only verify the level
	// removal semantics once u=101 is applied.
	outcome, err := b.Update([]PriceLevel{lvl("500", "0")}, nil, false)
	require.NoError(t, err)
	require.Equal(t, BestChanged, outcome)
	b.SetLastUpdateID(101)

	bids := b.SnapshotBids()
	require.Len(t, bids, 1)
	require.True(t, bids[0].Price.Equal(d("499")))
	require.EqualValues(t, 101, b.LastUpdateID())
}

func TestCrossedBookRejected(t *testing.T) {
	b := New(50)
	_, err := b.Update([]PriceLevel{lvl("100", "1")}, []PriceLevel{lvl("101", "1")}, true)
	require.NoError(t, err)

	outcome, err := b.Update(nil, []PriceLevel{lvl("99", "1")}, false)
	require.NoError(t, err)
	require.Equal(t, UpdateError, outcome)

	// book unchanged
	bid, _ := b.BestBid()
	ask, _ := b.BestAsk()
	require.True(t, bid.Equal(d("100")))
	require.True(t, ask.Equal(d("101")))
}

func TestBestBidLessThanBestAskInvariant(t *testing.T) {
	b := New(50)
	_, err := b.Update(
		[]PriceLevel{lvl("100", "1"), lvl("99", "1"), lvl("98", "1")},
		[]PriceLevel{lvl("101", "1"), lvl("102", "1")},
		true,
	)
	require.NoError(t, err)

	bid, _ := b.BestBid()
	ask, _ := b.BestAsk()
	require.True(t, bid.LessThan(ask))

	bids := b.SnapshotBids()
	for i := 1; i < len(bids); i++ {
		require.True(t, bids[i-1].Price.GreaterThan(bids[i].Price), "bids must be strictly descending")
	}
	asks := b.SnapshotAsks()
	for i := 1; i < len(asks); i++ {
		require.True(t, asks[i-1].Price.LessThan(asks[i].Price), "asks must be strictly ascending")
	}
}

func TestMaxDepthEvictsWorstLevels(t *testing.T) {
	b := New(2)
	_, err := b.Update(
		[]PriceLevel{lvl("100", "1"), lvl("99", "1"), lvl("98", "1")},
		[]PriceLevel{lvl("101", "1"), lvl("102", "1"), lvl("103", "1")},
		true,
	)
	require.NoError(t, err)

	require.Len(t, b.SnapshotBids(), 2)
	require.Len(t, b.SnapshotAsks(), 2)
	worstBid, _ := b.WorstBid()
	require.True(t, worstBid.Equal(d("99")))
	worstAsk, _ := b.WorstAsk()
	require.True(t, worstAsk.Equal(d("102")))
}

func TestEmptyBothSidesRejected(t *testing.T) {
	b := New(50)
	_, err := b.Update([]PriceLevel{lvl("100", "1")}, []PriceLevel{lvl("101", "1")}, true)
	require.NoError(t, err)

	outcome, err := b.Update([]PriceLevel{lvl("100", "0")}, []PriceLevel{lvl("101", "0")}, false)
	require.NoError(t, err)
	require.Equal(t, UnchangedBest, outcome)
	require.Len(t, b.SnapshotBids(), 1)
	require.Len(t, b.SnapshotAsks(), 1)
}

func TestSetBestBidAskReplacesLadder(t *testing.T) {
	b := New(50)
	_, err := b.Update(
		[]PriceLevel{lvl("100", "1"), lvl("99", "1")},
		[]PriceLevel{lvl("101", "1"), lvl("102", "1")},
		true,
	)
	require.NoError(t, err)

	outcome := b.SetBestBidAsk(d("100.5"), d("2"), d("101.5"), d("3"))
	require.Equal(t, BestChanged, outcome)
	require.Len(t, b.SnapshotBids(), 1)
	require.Len(t, b.SnapshotAsks(), 1)
}

func TestFormatPriceAndQtyFixtures(t *testing.T) {
	require.Equal(t, "452852", FormatPrice(d("45285.2"), 1))
	require.Equal(t, "100000", FormatQty(d("0.00100000")))
}

func TestKrakenChecksumFixture(t *testing.T) {
	// Ten synthetic levels per side at precision 1; the published checksum
	// is computed here rather than hardcoded against a specific live
	// snapshot, then re-validated through Book.Validate to exercise the
	// full path end to end (build string -> crc32 -> compare).
	asks := make([]PriceLevel, 10)
	bids := make([]PriceLevel, 10)
	for i := 0; i < 10; i++ {
		asks[i] = lvl(decimal.NewFromInt(int64(30100+i)).String(), "1.5")
		bids[i] = lvl(decimal.NewFromInt(int64(30099-i)).String(), "2.0")
	}

	str := BuildChecksumString(asks, bids, 1)
	want := ComputeChecksum(str)

	b := New(50)
	_, err := b.Update(
		func() []PriceLevel { return bids }(),
		func() []PriceLevel { return asks }(),
		true,
	)
	require.NoError(t, err)
	b.SetHasSnapshot(true)
	require.True(t, b.HasSnapshot())

	ok, computed := b.Validate(1, want)
	require.True(t, ok)
	require.Equal(t, want, computed)
}

// TestKrakenChecksumLiteralFixture reproduces
// original_source/tests/api_kraken.test.cpp's OrderBookChecksumVerification
// scenario verbatim: the same ten bid/ask levels and the literal expected
// checksum 3310070434, rather than a value computed from synthetic data.
func TestKrakenChecksumLiteralFixture(t *testing.T) {
	asks := []PriceLevel{
		lvl("45285.2", "0.00100000"),
		lvl("45286.4", "1.54571953"),
		lvl("45286.6", "1.54571109"),
		lvl("45289.6", "1.54560911"),
		lvl("45290.2", "0.15890660"),
		lvl("45291.8", "1.54553491"),
		lvl("45294.7", "0.04454749"),
		lvl("45296.1", "0.35380000"),
		lvl("45297.5", "0.09945542"),
		lvl("45299.5", "0.18772827"),
	}
	bids := []PriceLevel{
		lvl("45283.5", "0.10000000"),
		lvl("45283.4", "1.54582015"),
		lvl("45282.1", "0.10000000"),
		lvl("45281.0", "0.10000000"),
		lvl("45280.3", "1.54592586"),
		lvl("45279.0", "0.07990000"),
		lvl("45277.6", "0.03310103"),
		lvl("45277.5", "0.30000000"),
		lvl("45277.3", "1.54602737"),
		lvl("45276.6", "0.15445238"),
	}

	const pricePrecision = 1
	expectedAsksString := "45285210000045286415457195345286615457110945289615456091145290215890660452918154553491452947445474945296135380000452975994554245299518772827"
	expectedBidsString := "452835100000004528341545820154528211000000045281010000000452803154592586452790799000045277633101034527753000000045277315460273745276615445238"

	asksString := BuildChecksumString(asks, nil, pricePrecision)
	require.Equal(t, expectedAsksString, asksString)

	bidsString := BuildChecksumString(nil, bids, pricePrecision)
	require.Equal(t, expectedBidsString, bidsString)

	combined := BuildChecksumString(asks, bids, pricePrecision)
	require.Equal(t, expectedAsksString+expectedBidsString, combined)

	const expectedChecksum uint32 = 3310070434
	require.Equal(t, expectedChecksum, ComputeChecksum(combined))

	b := New(50)
	_, err := b.Update(bids, asks, true)
	require.NoError(t, err)
	b.SetHasSnapshot(true)

	ok, computed := b.Validate(pricePrecision, expectedChecksum)
	require.True(t, ok)
	require.Equal(t, expectedChecksum, computed)
}
