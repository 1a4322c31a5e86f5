package marketdata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/tokenscope/internal/logging"
	"github.com/irfndi/tokenscope/internal/models"
)

// ProviderName identifies the market-data provider in errors and logs.
const ProviderName = "market-data"

const (
	DefaultBaseURL = "https://api.dexscreener.com"
	DefaultTimeout = 15 * time.Second

	tokensPath = "/latest/dex/tokens/{address}"
)

// ErrNoPairs is returned when the provider knows no tradable pair for the token.
var ErrNoPairs = errors.New("no trading pairs found for token")

// StatusError reports a non-success HTTP status from the provider.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("market data provider returned status %d", e.StatusCode)
}

// Client looks tokens up on a DexScreener-compatible API.
type Client struct {
	client *resty.Client
	logger logrus.FieldLogger
}

// NewClient creates a client against baseURL. Zero values fall back to the
// public DexScreener endpoint and DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration, logger logrus.FieldLogger) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logging.Discard()
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	client.SetTimeout(timeout)
	client.SetHeader("Accept", "application/json")

	return &Client{
		client: client,
		logger: logging.WithComponent(logger, "marketdata"),
	}
}

type tokensResponse struct {
	Pairs []json.RawMessage `json:"pairs"`
}

// LookupToken fetches the trading pairs for address and projects the first
// one into a snapshot. The first pair is treated as authoritative.
func (c *Client) LookupToken(ctx context.Context, address string) (models.MarketSnapshot, error) {
	log := logging.WithToken(c.logger, address)

	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("address", address).
		Get(tokensPath)
	if err != nil {
		log.WithError(err).Warn("Market data request failed")
		return models.MarketSnapshot{}, fmt.Errorf("market data request failed: %w", err)
	}

	if !resp.IsSuccess() {
		log.WithField("status", resp.StatusCode()).Warn("Market data provider returned an error status")
		return models.MarketSnapshot{}, &StatusError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	var body tokensResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return models.MarketSnapshot{}, fmt.Errorf("failed to parse market data response: %w", err)
	}
	if len(body.Pairs) == 0 {
		log.Info("No trading pairs found")
		return models.MarketSnapshot{}, ErrNoPairs
	}

	log.WithField("pairs", len(body.Pairs)).Debug("Market data fetched")
	return Project(body.Pairs[0]), nil
}

// Project maps one raw pair record into a MarketSnapshot. It never fails:
// anything missing or of the wrong shape takes the field's fallback value.
func Project(raw json.RawMessage) models.MarketSnapshot {
	var pair map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&pair); err != nil {
		pair = nil
	}

	return models.MarketSnapshot{
		Symbol:            text(lookup(pair, "baseToken", "symbol"), models.UnknownValue),
		PriceUSD:          number(lookup(pair, "priceUsd")),
		Volume24h:         number(lookup(pair, "volume", "h24")),
		LiquidityUSD:      number(lookup(pair, "liquidity", "usd")),
		PriceChange24hPct: number(lookup(pair, "priceChange", "h24")),
		MarketCapUSD:      number(lookup(pair, "marketCap")),
		VenueID:           text(lookup(pair, "dexId"), models.UnknownValue),
	}
}

func lookup(obj map[string]interface{}, path ...string) interface{} {
	var cur interface{} = obj
	for _, key := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}

func text(v interface{}, fallback string) string {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

// number accepts JSON numbers and numeric strings; the provider sends prices
// as strings and volumes as numbers.
func number(v interface{}) string {
	var s string
	switch n := v.(type) {
	case json.Number:
		s = n.String()
	case string:
		s = strings.TrimSpace(n)
	default:
		return models.NotAvailableValue
	}
	if _, ok := models.ParseAmount(s); !ok {
		return models.NotAvailableValue
	}
	return s
}
