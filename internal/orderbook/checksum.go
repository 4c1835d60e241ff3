package orderbook

import (
	"hash/crc32"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// checksumDepth is the number of levels per side folded into the Kraken
// integrity checksum (spec §4.2: "top-10 asks ... then top-10 bids").
const checksumDepth = 10

// formatDecimalAsInteger renders a decimal at a fixed number of fractional
// digits, strips the decimal point, then strips leading zeros — exactly
// original_source/src/api_kraken.cpp's formatPrice/formatQty. Both steps
// must happen on the decimal string form; going through binary floating
// point here would silently corrupt the checksum (spec §9 Design Notes).
func formatDecimalAsInteger(d decimal.Decimal, scale int32) string {
	s := d.StringFixed(scale)
	s = strings.Replace(s, ".", "", 1)
	s = strings.TrimLeft(s, "0")
	if s == "" {
		s = "0"
	}
	return s
}

// FormatPrice formats a price at the pair's configured checksum precision.
func FormatPrice(price decimal.Decimal, precision int32) string {
	return formatDecimalAsInteger(price, precision)
}

// FormatQty formats a quantity at Kraken's fixed 8-decimal precision.
func FormatQty(qty decimal.Decimal) string {
	return formatDecimalAsInteger(qty, 8)
}

// BuildChecksumString concatenates the top checksumDepth asks (ascending,
// i.e. best-first) followed by the top checksumDepth bids (descending,
// best-first), each level rendered as formatPrice‖formatQty.
func BuildChecksumString(asks, bids []PriceLevel, pricePrecision int32) string {
	var sb strings.Builder
	for i := 0; i < checksumDepth && i < len(asks); i++ {
		sb.WriteString(FormatPrice(asks[i].Price, pricePrecision))
		sb.WriteString(FormatQty(asks[i].Qty))
	}
	for i := 0; i < checksumDepth && i < len(bids); i++ {
		sb.WriteString(FormatPrice(bids[i].Price, pricePrecision))
		sb.WriteString(FormatQty(bids[i].Qty))
	}
	return sb.String()
}

// ComputeChecksum is CRC32(seed 0) over the checksum string's bytes.
func ComputeChecksum(s string) uint32 {
	return crc32.ChecksumIEEE([]byte(s))
}

// Validate rebuilds the checksum string from the book's current top-10
// levels on each side and compares it against the venue-reported value.
// Validation is sampled by the caller (spec §4.2: "expensive"); this just
// performs one comparison.
func (b *Book) Validate(pricePrecision int32, received uint32) (bool, uint32) {
	asks := b.SnapshotAsks()
	bids := b.SnapshotBids()
	computed := ComputeChecksum(BuildChecksumString(asks, bids, pricePrecision))
	return computed == received, computed
}

// ChecksumSampleDue reports whether the Nth update (1-indexed) should be
// checksum-validated, sampling every n updates.
func (b *Book) ChecksumSampleDue(every int64) bool {
	if every <= 0 {
		every = 1
	}
	b.mu.Lock()
	b.checksumSamples++
	due := b.checksumSamples%every == 0
	b.mu.Unlock()
	return due
}

// parseFormattedInt parses a FormatPrice/FormatQty result back into an
// integer. Nothing in the module calls it.
func parseFormattedInt(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
