package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/irfndi/tokenscope/internal/models"
)

func TestSnapshotRows(t *testing.T) {
	rows := SnapshotRows(models.MarketSnapshot{
		Symbol:            "BONK",
		PriceUSD:          "0.000021",
		Volume24h:         "12500000",
		LiquidityUSD:      "2500",
		PriceChange24hPct: "-5.2",
		MarketCapUSD:      "50000000",
		VenueID:           "raydium",
	})

	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[row.Label] = row.Value
	}

	assert.Equal(t, "BONK", values["Symbol"])
	assert.Equal(t, "$0.000021", values["Price"])
	assert.Equal(t, "-5.20% (Down)", values["24h Change"])
	assert.Equal(t, "$12.5M", values["Volume 24h"])
	assert.Equal(t, "$2.5K", values["Liquidity"])
	assert.Equal(t, "$50.0M", values["Market Cap"])
	assert.Equal(t, "Raydium", values["Venue"])
	assert.Equal(t, "100/100", values["Volume Score"])
	assert.Equal(t, "50/100", values["MCap Score"])
}

func TestSnapshotRows_Fallbacks(t *testing.T) {
	rows := SnapshotRows(models.MarketSnapshot{
		Symbol:            models.UnknownValue,
		PriceUSD:          models.NotAvailableValue,
		Volume24h:         models.NotAvailableValue,
		LiquidityUSD:      models.NotAvailableValue,
		PriceChange24hPct: models.NotAvailableValue,
		MarketCapUSD:      models.NotAvailableValue,
		VenueID:           models.UnknownValue,
	})

	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[row.Label] = row.Value
	}

	assert.Equal(t, "N/A", values["Price"])
	assert.Equal(t, "N/A", values["24h Change"])
	assert.Equal(t, "$0", values["Volume 24h"])
	assert.Equal(t, "$0", values["Market Cap"])
	assert.Equal(t, "Unknown", values["Venue"])
	assert.Equal(t, "N/A", values["Volume Score"])
}

func TestRenderSnapshot(t *testing.T) {
	out := RenderSnapshot(models.MarketSnapshot{
		Symbol:            "TKEN",
		PriceUSD:          "1.5",
		PriceChange24hPct: "3",
		VenueID:           "orca",
	})

	assert.Contains(t, out, "Symbol        TKEN\n")
	assert.Contains(t, out, "24h Change    +3.00% (Up)\n")
	assert.Contains(t, out, "Venue         Orca\n")
}
