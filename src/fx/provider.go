package fx

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrRateUnavailable means no rate could be found for the requested pair
// and date, not even an earlier one. Callers treat this as a warning: the
// transaction persists in its native currency.
var ErrRateUnavailable = errors.New("exchange rate unavailable")

// RateProvider supplies the conversion rate between two currencies on a
// given date. Implementations may consult a historical file, a remote API,
// or a cache in front of either.
type RateProvider interface {
	Rate(from, to string, on time.Time) (decimal.Decimal, error)
}

// Convert applies a rate to an integer minor-unit amount, truncating
// toward zero like every other monetary computation in the system.
func Convert(amount int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).Mul(rate).IntPart()
}
