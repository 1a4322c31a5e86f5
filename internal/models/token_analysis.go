package models

import (
	"github.com/shopspring/decimal"
)

// Fallback values substituted when the market-data provider omits a field.
const (
	UnknownValue      = "Unknown"
	NotAvailableValue = "N/A"
)

// Trend labels derived from the 24h price change.
const (
	TrendUp      = "Up"
	TrendDown    = "Down"
	TrendUnknown = NotAvailableValue
)

// Thresholds used by the token data panel scores.
var (
	VolumeScoreThreshold    = decimal.NewFromInt(10_000_000)
	MarketCapScoreThreshold = decimal.NewFromInt(100_000_000)
)

// AnalysisRequest is the inbound body for an analysis call.
type AnalysisRequest struct {
	TokenIdentifier string `json:"tokenIdentifier"`
	UserPrompt      string `json:"userPrompt,omitempty"`
}

// MarketSnapshot is the normalized projection of the first trading pair returned
// by the market-data provider. Every field is always populated; missing values
// carry UnknownValue or NotAvailableValue.
type MarketSnapshot struct {
	Symbol            string `json:"symbol"`
	PriceUSD          string `json:"priceUsd"`
	Volume24h         string `json:"volume24h"`
	LiquidityUSD      string `json:"liquidityUsd"`
	PriceChange24hPct string `json:"priceChange24hPct"`
	MarketCapUSD      string `json:"marketCapUsd"`
	VenueID           string `json:"venueId"`
}

// AnalysisResult is the outcome of one successful orchestration call.
type AnalysisResult struct {
	NarrativeText string         `json:"analysis"`
	Snapshot      MarketSnapshot `json:"marketSnapshot"`
}

// ErrorResponse is the body returned with every non-2xx analysis response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Trend returns TrendUp for a non-negative 24h change, TrendDown for a negative
// one and TrendUnknown when the change is not available.
func (s MarketSnapshot) Trend() string {
	change, ok := ParseAmount(s.PriceChange24hPct)
	if !ok {
		return TrendUnknown
	}
	if change.IsNegative() {
		return TrendDown
	}
	return TrendUp
}

// Volume returns the 24h volume as a decimal, if available.
func (s MarketSnapshot) Volume() (decimal.Decimal, bool) {
	return ParseAmount(s.Volume24h)
}

// Liquidity returns the USD liquidity as a decimal, if available.
func (s MarketSnapshot) Liquidity() (decimal.Decimal, bool) {
	return ParseAmount(s.LiquidityUSD)
}

// MarketCap returns the USD market cap as a decimal, if available.
func (s MarketSnapshot) MarketCap() (decimal.Decimal, bool) {
	return ParseAmount(s.MarketCapUSD)
}

// PriceChange returns the 24h price change percentage as a decimal, if available.
func (s MarketSnapshot) PriceChange() (decimal.Decimal, bool) {
	return ParseAmount(s.PriceChange24hPct)
}

// ParseAmount parses a snapshot numeric field. Fallback markers and malformed
// values report false.
func ParseAmount(v string) (decimal.Decimal, bool) {
	if v == "" || v == NotAvailableValue || v == UnknownValue {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
