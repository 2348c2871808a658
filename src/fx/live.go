package fx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/finanzas/backend/src/logger"
	"golang.org/x/net/publicsuffix"
)

// liveRateResponse matches the exchangerate.host historical endpoint.
type liveRateResponse struct {
	Success bool               `json:"success"`
	Rates   map[string]float64 `json:"rates"`
}

// LiveProvider fetches daily rates from an external HTTP API. The client
// keeps a cookie jar because some rate providers gate repeated anonymous
// requests behind session cookies.
type LiveProvider struct {
	baseURL    string
	httpClient http.Client
	fallback   RateProvider
}

// NewLiveProvider builds the HTTP-backed provider. fallback may be nil;
// when set it is consulted whenever the remote lookup fails.
func NewLiveProvider(baseURL string, fallback RateProvider) *LiveProvider {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		logger.L.Error("Failed to create cookie jar", "error", err)
	}

	return &LiveProvider{
		baseURL: baseURL,
		httpClient: http.Client{
			Jar:     jar,
			Timeout: 20 * time.Second,
		},
		fallback: fallback,
	}
}

func (p *LiveProvider) Rate(from, to string, on time.Time) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	rate, err := p.fetchRate(from, to, on)
	if err == nil {
		return rate, nil
	}
	logger.L.Warn("Live exchange rate lookup failed", "from", from, "to", to, "date", on.Format("2006-01-02"), "error", err)

	if p.fallback != nil {
		return p.fallback.Rate(from, to, on)
	}
	return decimal.Zero, ErrRateUnavailable
}

func (p *LiveProvider) fetchRate(from, to string, on time.Time) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/%s?base=%s&symbols=%s", p.baseURL, on.Format("2006-01-02"), from, to)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to call rate API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("rate API returned non-OK status %d for %s/%s", resp.StatusCode, from, to)
	}

	var data liveRateResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode rate API response: %w", err)
	}

	value, ok := data.Rates[to]
	if !ok || value == 0 {
		return decimal.Zero, ErrRateUnavailable
	}
	return decimal.NewFromFloat(value), nil
}
