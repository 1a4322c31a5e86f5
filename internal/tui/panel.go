package tui

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/irfndi/tokenscope/internal/format"
	"github.com/irfndi/tokenscope/internal/models"
)

// Row is one labelled line of the token data panel.
type Row struct {
	Label string
	Value string
}

// SnapshotRows lays out a market snapshot for display. Missing figures render
// as N/A, or $0 for the compact amounts.
func SnapshotRows(s models.MarketSnapshot) []Row {
	price := models.NotAvailableValue
	if _, ok := models.ParseAmount(s.PriceUSD); ok {
		price = "$" + s.PriceUSD
	}

	change := models.NotAvailableValue
	if d, ok := s.PriceChange(); ok {
		change = fmt.Sprintf("%s (%s)", format.Percent(d), s.Trend())
	}

	volume, volumeOK := s.Volume()
	liquidity, liquidityOK := s.Liquidity()
	marketCap, marketCapOK := s.MarketCap()

	return []Row{
		{"Symbol", s.Symbol},
		{"Price", price},
		{"24h Change", change},
		{"Volume 24h", format.Compact(volume, volumeOK, "$")},
		{"Liquidity", format.Compact(liquidity, liquidityOK, "$")},
		{"Market Cap", format.Compact(marketCap, marketCapOK, "$")},
		{"Venue", format.Label(s.VenueID)},
		{"Volume Score", scoreText(volume, volumeOK, models.VolumeScoreThreshold)},
		{"MCap Score", scoreText(marketCap, marketCapOK, models.MarketCapScoreThreshold)},
	}
}

// RenderSnapshot renders the panel as aligned plain text.
func RenderSnapshot(s models.MarketSnapshot) string {
	var b strings.Builder
	for _, row := range SnapshotRows(s) {
		fmt.Fprintf(&b, "%-13s %s\n", row.Label, row.Value)
	}
	return b.String()
}

func scoreText(v decimal.Decimal, ok bool, threshold decimal.Decimal) string {
	if !ok {
		return models.NotAvailableValue
	}
	return fmt.Sprintf("%d/100", format.Score(v, threshold))
}
