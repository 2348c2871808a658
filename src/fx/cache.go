package fx

import (
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/username/finanzas/backend/src/logger"
)

// CachedProvider memoizes another provider's answers. Entries are keyed
// (from, to, date); historical rates never change, so a hit is always safe.
type CachedProvider struct {
	inner RateProvider
	cache *cache.Cache
}

func NewCachedProvider(inner RateProvider, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		inner: inner,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (p *CachedProvider) Rate(from, to string, on time.Time) (decimal.Decimal, error) {
	key := fmt.Sprintf("%s|%s|%s", from, to, on.Format("2006-01-02"))
	if cached, found := p.cache.Get(key); found {
		return cached.(decimal.Decimal), nil
	}

	rate, err := p.inner.Rate(from, to, on)
	if err != nil {
		return decimal.Zero, err
	}

	p.cache.Set(key, rate, cache.DefaultExpiration)
	logger.L.Debug("Cached exchange rate", "key", key, "rate", rate.String())
	return rate, nil
}
