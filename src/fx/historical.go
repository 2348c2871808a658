package fx

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/finanzas/backend/src/logger"
)

// historicalRates is the on-disk shape of the rates file: a flat list of
// dated observations, one per (from, to) pair.
type historicalRates struct {
	Observations []rateObservation `json:"observations"`
}

type rateObservation struct {
	Date string `json:"date"` // YYYY-MM-DD
	From string `json:"from"`
	To   string `json:"to"`
	Rate string `json:"rate"`
}

// HistoricalProvider serves rates from a JSON file loaded once at startup.
// When the exact date is missing it falls back to the most recent earlier
// observation, which the engine reports as a stale-rate warning.
type HistoricalProvider struct {
	// observations per from|to pair, sorted by date ascending
	byPair map[string][]rateObservation
}

func NewHistoricalProvider(filePath string) (*HistoricalProvider, error) {
	logger.L.Info("Loading historical exchange rates", "path", filePath)
	file, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading historical exchange rate file '%s': %w", filePath, err)
	}

	var data historicalRates
	if err := json.Unmarshal(file, &data); err != nil {
		return nil, fmt.Errorf("error unmarshalling historical exchange rates from '%s': %w", filePath, err)
	}

	p := &HistoricalProvider{byPair: make(map[string][]rateObservation)}
	for _, obs := range data.Observations {
		key := obs.From + "|" + obs.To
		p.byPair[key] = append(p.byPair[key], obs)
	}
	for key := range p.byPair {
		obs := p.byPair[key]
		sort.Slice(obs, func(i, j int) bool { return obs[i].Date < obs[j].Date })
	}

	logger.L.Info("Historical exchange rates loaded successfully.", "path", filePath, "observationCount", len(data.Observations))
	return p, nil
}

func (p *HistoricalProvider) Rate(from, to string, on time.Time) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	dateStr := on.Format("2006-01-02")
	obs := p.byPair[from+"|"+to]
	if len(obs) == 0 {
		// Try the inverse pair before giving up.
		inverse := p.byPair[to+"|"+from]
		if len(inverse) == 0 {
			logger.L.Warn("Exchange rate pair not found", "from", from, "to", to)
			return decimal.Zero, ErrRateUnavailable
		}
		rate, err := pickRate(inverse, dateStr)
		if err != nil {
			return decimal.Zero, err
		}
		if rate.IsZero() {
			return decimal.Zero, ErrRateUnavailable
		}
		return decimal.NewFromInt(1).DivRound(rate, 12), nil
	}

	return pickRate(obs, dateStr)
}

// pickRate returns the observation on dateStr, or the most recent earlier one.
func pickRate(obs []rateObservation, dateStr string) (decimal.Decimal, error) {
	idx := sort.Search(len(obs), func(i int) bool { return obs[i].Date > dateStr })
	if idx == 0 {
		logger.L.Warn("No exchange rate on or before date", "date", dateStr)
		return decimal.Zero, ErrRateUnavailable
	}
	chosen := obs[idx-1]
	rate, err := decimal.NewFromString(chosen.Rate)
	if err != nil {
		logger.L.Warn("Invalid exchange rate value in data", "date", chosen.Date, "value", chosen.Rate, "error", err)
		return decimal.Zero, fmt.Errorf("invalid exchange rate value for %s on %s: %w", chosen.From, chosen.Date, err)
	}
	return rate, nil
}
