package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"github.com/LeonardoBeccarini/irrigation_advisor/internal/model/entities"
	"github.com/LeonardoBeccarini/irrigation_advisor/internal/observability/metrics"
)

const defaultOWMBaseURL = "https://api.openweathermap.org/data/3.0/onecall"

var (
	ErrMissingAPIKey = errors.New("forecast: missing api key")
	ErrNoDailyData   = errors.New("forecast: no daily data")
)

// ForecastProvider returns the daily forecast for a location.
type ForecastProvider interface {
	Forecast(ctx context.Context, lat, lon float64, day time.Time) (entities.WeatherForecast, error)
}

type owmDaily struct {
	Dt   int64 `json:"dt"`
	Temp struct {
		Day float64 `json:"day"`
		Min float64 `json:"min"`
		Max float64 `json:"max"`
	} `json:"temp"`
	Humidity  float64 `json:"humidity"`
	WindSpeed float64 `json:"wind_speed"`
	Pop       float64 `json:"pop"`
	Rain      float64 `json:"rain"`
}

type owmResp struct {
	Daily []owmDaily `json:"daily"`
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string { return fmt.Sprintf("owm status %d: %s", e.code, e.body) }

// OWMClient reads the One Call daily forecast. Calls go through a circuit
// breaker and are retried with exponential backoff; client errors other than
// 429 are not retried.
type OWMClient struct {
	apiKey     string
	baseURL    string
	http       *http.Client
	breaker    *gobreaker.CircuitBreaker
	maxRetries uint64
	initial    time.Duration
}

type OWMOption func(*OWMClient)

func WithBaseURL(u string) OWMOption { return func(c *OWMClient) { c.baseURL = u } }

func WithHTTPClient(h *http.Client) OWMOption { return func(c *OWMClient) { c.http = h } }

// WithRetry sets the number of retries after the first attempt and the
// initial backoff interval.
func WithRetry(maxRetries int, initial time.Duration) OWMOption {
	return func(c *OWMClient) {
		if maxRetries >= 0 {
			c.maxRetries = uint64(maxRetries)
		}
		if initial > 0 {
			c.initial = initial
		}
	}
}

func NewOWMClient(key string, opts ...OWMOption) *OWMClient {
	c := &OWMClient{
		apiKey:     key,
		baseURL:    defaultOWMBaseURL,
		http:       &http.Client{Timeout: 5 * time.Second},
		maxRetries: 3,
		initial:    500 * time.Millisecond,
	}
	for _, o := range opts {
		o(c)
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     "openweather",
		Interval: time.Minute,
		Timeout:  2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return c
}

func (c *OWMClient) BreakerState() gobreaker.State { return c.breaker.State() }

// Forecast implementa ForecastProvider: sceglie il giorno più vicino a day.
func (c *OWMClient) Forecast(ctx context.Context, lat, lon float64, day time.Time) (entities.WeatherForecast, error) {
	if c.apiKey == "" {
		return entities.WeatherForecast{}, ErrMissingAPIKey
	}

	var out owmResp
	op := func() error {
		_, err := c.breaker.Execute(func() (interface{}, error) {
			return nil, c.fetch(ctx, lat, lon, &out)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return backoff.Permanent(err)
		}
		var se *statusError
		if errors.As(err, &se) && se.code >= 400 && se.code < 500 && se.code != http.StatusTooManyRequests {
			return backoff.Permanent(err)
		}
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.initial
	bo.MaxInterval = 5 * time.Second
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, c.maxRetries), ctx)); err != nil {
		metrics.IncForecastFetch(metrics.ResultError)
		return entities.WeatherForecast{}, err
	}
	if len(out.Daily) == 0 {
		metrics.IncForecastFetch(metrics.ResultError)
		return entities.WeatherForecast{}, ErrNoDailyData
	}
	metrics.IncForecastFetch(metrics.ResultSuccess)

	d := nearestDay(out.Daily, day)
	return entities.WeatherForecast{
		RainProbability: d.Pop * 100,
		RainAmountMM:    d.Rain,
		Temperature:     d.Temp.Day,
		Humidity:        d.Humidity,
		WindSpeed:       d.WindSpeed,
	}, nil
}

func (c *OWMClient) fetch(ctx context.Context, lat, lon float64, out *owmResp) error {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("exclude", "current,minutely,hourly,alerts")
	q.Set("units", "metric")
	q.Set("appid", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return backoff.Permanent(err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return &statusError{code: resp.StatusCode, body: string(b)}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// nearestDay picks the daily entry whose UTC date is closest to day.
func nearestDay(days []owmDaily, day time.Time) owmDaily {
	u := day.UTC()
	target := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	chosen := days[0]
	minDelta := time.Duration(1<<63 - 1)
	for _, d := range days {
		t := time.Unix(d.Dt, 0).UTC()
		date := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		delta := target.Sub(date)
		if delta < 0 {
			delta = -delta
		}
		if delta < minDelta {
			minDelta = delta
			chosen = d
		}
	}
	return chosen
}
