package models

// Message represents a single conversational message sent to the chat backend.
type Message struct {
	Role    string
	Content string
}

// SamplingParams fixes the sampling knobs for one completion request.
type SamplingParams struct {
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// CompletionRequest is the canonical representation of a single
// text-generation request. Constructed fresh per call, never persisted.
type CompletionRequest struct {
	Model    string
	Prompt   string
	Sampling SamplingParams
}

// ComparisonEntry holds the outcome for one model in a comparison.
// Exactly one of Text or Err is meaningful; a failed entry keeps its
// position so callers can render results side by side in request order.
type ComparisonEntry struct {
	Model string
	Text  string
	Err   error
}

// ComparisonResult is the ordered outcome of a multi-model comparison.
// Entry order always matches the order models were requested in,
// independent of completion order.
type ComparisonResult struct {
	ID      string
	Prompt  string
	Entries []ComparisonEntry
}

// Failed reports whether any entry in the comparison carries an error.
func (r ComparisonResult) Failed() bool {
	for _, entry := range r.Entries {
		if entry.Err != nil {
			return true
		}
	}
	return false
}

// StockRecord mirrors the structured attributes fetched from the
// market-data provider. Unavailable attributes hold the literal "N/A"
// rather than being omitted.
type StockRecord struct {
	Symbol     string
	Company    CompanyInfo
	Price      PriceData
	Financials Financials
	Analysis   AnalystView
}

// CompanyInfo describes the listed company.
type CompanyInfo struct {
	Name     string
	Industry string
	Sector   string
	Summary  string
}

// PriceData holds spot and moving-average price attributes.
type PriceData struct {
	CurrentPrice     string
	FiftyTwoWeekHigh string
	FiftyTwoWeekLow  string
	FiftyDayAverage  string
	TwoHundredDayAvg string
}

// Financials holds fundamental metrics.
type Financials struct {
	MarketCap      string
	PERatio        string
	PriceToBook    string
	RevenueGrowth  string
	EarningsGrowth string
}

// AnalystView holds consensus analyst attributes.
type AnalystView struct {
	Recommendation  string
	TargetMeanPrice string
	Beta            string
}
