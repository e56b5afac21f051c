package advisor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/LeonardoBeccarini/irrigation_advisor/internal/model/entities"
)

type cachedForecast struct {
	forecast  entities.WeatherForecast
	fetchedAt time.Time
}

// ForecastCache keeps the last forecast per field for a TTL.
type ForecastCache struct {
	provider ForecastProvider
	ttl      time.Duration
	now      func() time.Time

	mu      sync.RWMutex
	entries map[string]cachedForecast
}

func NewForecastCache(p ForecastProvider, ttl time.Duration) *ForecastCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ForecastCache{
		provider: p,
		ttl:      ttl,
		now:      time.Now,
		entries:  make(map[string]cachedForecast),
	}
}

// Get returns the cached forecast for a field if it has not expired.
func (c *ForecastCache) Get(fieldID string) (entities.WeatherForecast, bool) {
	c.mu.RLock()
	e, ok := c.entries[fieldID]
	c.mu.RUnlock()
	if !ok || c.now().Sub(e.fetchedAt) >= c.ttl {
		return entities.WeatherForecast{}, false
	}
	return e.forecast, true
}

// Refresh fetches the forecast for today and stores it.
func (c *ForecastCache) Refresh(ctx context.Context, f entities.Field) (entities.WeatherForecast, error) {
	if !f.HasLocation() {
		return entities.WeatherForecast{}, fmt.Errorf("field %s has no location", f.ID)
	}
	now := c.now()
	w, err := c.provider.Forecast(ctx, f.Latitude, f.Longitude, now)
	if err != nil {
		return entities.WeatherForecast{}, fmt.Errorf("forecast for field %s: %w", f.ID, err)
	}
	c.mu.Lock()
	c.entries[f.ID] = cachedForecast{forecast: w, fetchedAt: now}
	c.mu.Unlock()
	return w, nil
}

// Forecast serves from the cache and falls back to the provider on a miss.
func (c *ForecastCache) Forecast(ctx context.Context, f entities.Field) (entities.WeatherForecast, error) {
	if w, ok := c.Get(f.ID); ok {
		return w, nil
	}
	return c.Refresh(ctx, f)
}
