// Package market fetches structured company and price attributes from
// the market-data provider. Attributes the provider cannot supply are
// normalised to the literal "N/A" rather than omitted, matching what the
// analysis prompt expects.
package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"llm-workbench/internal/backend"
	"llm-workbench/internal/config"
	"llm-workbench/internal/models"
)

const notAvailable = "N/A"

// ErrEmptyTicker indicates a blank ticker symbol; detected locally
// before any network call.
var ErrEmptyTicker = errors.New("ticker symbol must not be empty")

// Client queries the configured market-data endpoint.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient constructs a market-data client from configuration.
func NewClient(cfg config.MarketConfig, client *http.Client) (*Client, error) {
	if client == nil {
		return nil, errors.New("http client must not be nil")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		return nil, errors.New("base url must not be empty")
	}

	return &Client{baseURL: baseURL, client: client}, nil
}

// Quote fetches the attribute record for a ticker symbol.
func (c *Client) Quote(ctx context.Context, ticker string) (models.StockRecord, error) {
	symbol := strings.ToUpper(strings.TrimSpace(ticker))
	if symbol == "" {
		return models.StockRecord{}, ErrEmptyTicker
	}

	quoteURL := fmt.Sprintf("%s/quote?symbol=%s", c.baseURL, url.QueryEscape(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, quoteURL, nil)
	if err != nil {
		return models.StockRecord{}, fmt.Errorf("construct quote request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return models.StockRecord{}, &backend.APIError{Message: fmt.Sprintf("quote request for %s: %v", symbol, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return models.StockRecord{}, &backend.APIError{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("quote lookup for %s failed", symbol),
		}
	}

	var info quoteInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return models.StockRecord{}, &backend.APIError{Message: "decode quote response: " + err.Error()}
	}

	return info.toRecord(symbol), nil
}

// quoteInfo mirrors the provider's flat attribute payload. Every field is
// optional; pointers distinguish absent numbers from zero values.
type quoteInfo struct {
	LongName            string   `json:"longName"`
	IndustryDisp        string   `json:"industryDisp"`
	SectorDisp          string   `json:"sectorDisp"`
	LongBusinessSummary string   `json:"longBusinessSummary"`
	CurrentPrice        *float64 `json:"currentPrice"`
	FiftyTwoWeekHigh    *float64 `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow     *float64 `json:"fiftyTwoWeekLow"`
	FiftyDayAverage     *float64 `json:"fiftyDayAverage"`
	TwoHundredDayAvg    *float64 `json:"twoHundredDayAverage"`
	MarketCap           *float64 `json:"marketCap"`
	TrailingPE          *float64 `json:"trailingPE"`
	PriceToBook         *float64 `json:"priceToBook"`
	RevenueGrowth       *float64 `json:"revenueGrowth"`
	EarningsGrowth      *float64 `json:"earningsGrowth"`
	RecommendationKey   string   `json:"recommendationKey"`
	TargetMeanPrice     *float64 `json:"targetMeanPrice"`
	Beta                *float64 `json:"beta"`
}

func (q quoteInfo) toRecord(symbol string) models.StockRecord {
	return models.StockRecord{
		Symbol: symbol,
		Company: models.CompanyInfo{
			Name:     orNA(q.LongName),
			Industry: orNA(q.IndustryDisp),
			Sector:   orNA(q.SectorDisp),
			Summary:  orNA(q.LongBusinessSummary),
		},
		Price: models.PriceData{
			CurrentPrice:     numOrNA(q.CurrentPrice),
			FiftyTwoWeekHigh: numOrNA(q.FiftyTwoWeekHigh),
			FiftyTwoWeekLow:  numOrNA(q.FiftyTwoWeekLow),
			FiftyDayAverage:  numOrNA(q.FiftyDayAverage),
			TwoHundredDayAvg: numOrNA(q.TwoHundredDayAvg),
		},
		Financials: models.Financials{
			MarketCap:      numOrNA(q.MarketCap),
			PERatio:        numOrNA(q.TrailingPE),
			PriceToBook:    numOrNA(q.PriceToBook),
			RevenueGrowth:  numOrNA(q.RevenueGrowth),
			EarningsGrowth: numOrNA(q.EarningsGrowth),
		},
		Analysis: models.AnalystView{
			Recommendation:  orNA(q.RecommendationKey),
			TargetMeanPrice: numOrNA(q.TargetMeanPrice),
			Beta:            numOrNA(q.Beta),
		},
	}
}

func orNA(value string) string {
	if strings.TrimSpace(value) == "" {
		return notAvailable
	}
	return value
}

func numOrNA(value *float64) string {
	if value == nil {
		return notAvailable
	}
	return strconv.FormatFloat(*value, 'f', -1, 64)
}
