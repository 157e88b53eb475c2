package okx

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"PulseGate/internal/domain/models"
	drepo "PulseGate/internal/domain/repository"
	"PulseGate/internal/service/ratelimit"
	xhttp "PulseGate/pkg/http"
	xlogger "PulseGate/pkg/logger"
)

// Client implements a MarketSource backed by the OKX v5 REST API.
type Client struct {
	baseURL string
	http    *xhttp.Client
	limiter *ratelimit.Limiter
	maxRPS  float64
	logger  *xlogger.Logger
	warm    PriceWarmCache
}

// PriceWarmCache supplies a recent live price when one is available.
type PriceWarmCache interface {
	LastPrice(instID string) (float64, bool)
}

// New creates an OKX REST market source.
func New(baseURL string, timeout time.Duration, maxRPS float64, logger *xlogger.Logger, warm PriceWarmCache) *Client {
	return &Client{
		baseURL: baseURL,
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
		limiter: ratelimit.New(),
		maxRPS:  maxRPS,
		logger:  logger,
		warm:    warm,
	}
}

// OKX v5 wraps every payload in {code, msg, data[]} with string numerics.
type tickerRow struct {
	InstID string `json:"instId"`
	Last   string `json:"last"`
}

type fundingRow struct {
	InstID      string `json:"instId"`
	FundingRate string `json:"fundingRate"`
}

type oiRow struct {
	InstID string `json:"instId"`
	OI     string `json:"oi"`
}

type instrumentRow struct {
	InstID    string `json:"instId"`
	InstType  string `json:"instType"`
	State     string `json:"state"`
	SettleCcy string `json:"settleCcy"`
}

type tickerResp struct {
	Code string      `json:"code"`
	Msg  string      `json:"msg"`
	Data []tickerRow `json:"data"`
}

type fundingResp struct {
	Code string       `json:"code"`
	Msg  string       `json:"msg"`
	Data []fundingRow `json:"data"`
}

type oiResp struct {
	Code string  `json:"code"`
	Msg  string  `json:"msg"`
	Data []oiRow `json:"data"`
}

type instrumentsResp struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data []instrumentRow `json:"data"`
}

// FetchMetrics returns (price, funding, open interest) for one instrument.
// Funding and open interest are optional: a failed sub-request or an
// unparseable numeric leaves the field nil. Price is mandatory.
func (c *Client) FetchMetrics(ctx context.Context, instID string) (*drepo.PerpMetrics, error) {
	price, fromStream, err := c.price(ctx, instID)
	if err != nil {
		return nil, err
	}

	m := &drepo.PerpMetrics{Price: price}

	var funding fundingResp
	if err := c.get(ctx, "/api/v5/public/funding-rate", map[string][]string{"instId": {instID}}, &funding); err != nil {
		c.logger.Warn("funding rate fetch failed", xlogger.String("inst", instID), xlogger.Error(err))
	} else if len(funding.Data) > 0 {
		m.FundingRate = parseOptFloat(funding.Data[0].FundingRate)
	}

	var oi oiResp
	if err := c.get(ctx, "/api/v5/public/open-interest", map[string][]string{"instId": {instID}}, &oi); err != nil {
		c.logger.Warn("open interest fetch failed", xlogger.String("inst", instID), xlogger.Error(err))
	} else if len(oi.Data) > 0 {
		m.OpenInterest = parseOptFloat(oi.Data[0].OI)
	}

	if fromStream {
		c.logger.Debug("price served from stream warm cache", xlogger.String("inst", instID))
	}
	return m, nil
}

// price prefers the websocket warm cache and falls back to the REST ticker.
func (c *Client) price(ctx context.Context, instID string) (float64, bool, error) {
	if c.warm != nil {
		if p, ok := c.warm.LastPrice(instID); ok {
			return p, true, nil
		}
	}

	var ticker tickerResp
	if err := c.get(ctx, "/api/v5/market/ticker", map[string][]string{"instId": {instID}}, &ticker); err != nil {
		return 0, false, fmt.Errorf("ticker %s: %w", instID, err)
	}
	if len(ticker.Data) == 0 {
		return 0, false, fmt.Errorf("ticker %s: empty response", instID)
	}
	p, err := strconv.ParseFloat(ticker.Data[0].Last, 64)
	if err != nil {
		return 0, false, fmt.Errorf("ticker %s: bad last price %q", instID, ticker.Data[0].Last)
	}
	return p, false, nil
}

// Instruments fetches the full SWAP listing.
func (c *Client) Instruments(ctx context.Context) ([]models.Instrument, error) {
	var resp instrumentsResp
	if err := c.get(ctx, "/api/v5/public/instruments", map[string][]string{"instType": {"SWAP"}}, &resp); err != nil {
		return nil, fmt.Errorf("instruments: %w", err)
	}
	out := make([]models.Instrument, 0, len(resp.Data))
	for _, row := range resp.Data {
		out = append(out, models.Instrument{
			InstID:    row.InstID,
			InstType:  row.InstType,
			State:     row.State,
			SettleCcy: row.SettleCcy,
		})
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, query map[string][]string, dest interface{}) error {
	c.limiter.Wait(ctx, "okx", c.maxRPS, c.maxRPS)
	if err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + path,
		QueryParams: query,
	}, dest); err != nil {
		return err
	}
	if code := respCode(dest); code != "" && code != "0" {
		return fmt.Errorf("okx api code %s", code)
	}
	return nil
}

func respCode(dest interface{}) string {
	switch v := dest.(type) {
	case *tickerResp:
		return v.Code
	case *fundingResp:
		return v.Code
	case *oiResp:
		return v.Code
	case *instrumentsResp:
		return v.Code
	default:
		return ""
	}
}

// parseOptFloat parses an exchange numeric string, nil on failure. Empty
// strings are the usual way OKX encodes "no data".
func parseOptFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
