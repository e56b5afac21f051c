package advisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"

	"github.com/LeonardoBeccarini/irrigation_advisor/internal/model/entities"
)

func dailyJSON(days ...time.Time) string {
	out := `{"daily":[`
	for i, d := range days {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf(`{"dt":%d,"temp":{"day":%d,"min":10,"max":30},"humidity":55,"wind_speed":3.5,"pop":0.5,"rain":%d}`,
			d.Unix(), 20+i, i)
	}
	return out + `]}`
}

func TestOWMForecastMapping(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		_, _ = w.Write([]byte(dailyJSON(testNow.Add(-24*time.Hour), testNow.Add(2*time.Hour), testNow.Add(26*time.Hour))))
	}))
	defer srv.Close()

	c := NewOWMClient("k", WithBaseURL(srv.URL), WithRetry(0, time.Millisecond))
	w, err := c.Forecast(context.Background(), 41.9, 12.5, testNow)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	want := entities.WeatherForecast{RainProbability: 50, RainAmountMM: 1, Temperature: 21, Humidity: 55, WindSpeed: 3.5}
	if w != want {
		t.Fatalf("forecast = %+v, want %+v", w, want)
	}
	if query == "" || !strings.Contains(query, "appid=k") || !strings.Contains(query, "units=metric") {
		t.Fatalf("query = %s", query)
	}
}

func TestOWMForecastErrors(t *testing.T) {
	if _, err := NewOWMClient("").Forecast(context.Background(), 1, 1, testNow); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("err = %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"daily":[]}`))
	}))
	defer srv.Close()
	c := NewOWMClient("k", WithBaseURL(srv.URL), WithRetry(0, time.Millisecond))
	if _, err := c.Forecast(context.Background(), 1, 1, testNow); !errors.Is(err, ErrNoDailyData) {
		t.Fatalf("err = %v, want ErrNoDailyData", err)
	}
}

func TestOWMClientErrorNotRetried(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewOWMClient("k", WithBaseURL(srv.URL), WithRetry(3, time.Millisecond))
	_, err := c.Forecast(context.Background(), 1, 1, testNow)
	var se *statusError
	if !errors.As(err, &se) || se.code != http.StatusUnauthorized {
		t.Fatalf("err = %v", err)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("hits = %d, want 1", hits)
	}
}

func TestOWMServerErrorRetriedThenBreakerOpens(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "oops", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewOWMClient("k", WithBaseURL(srv.URL), WithRetry(3, time.Millisecond))
	if _, err := c.Forecast(context.Background(), 1, 1, testNow); err == nil {
		t.Fatal("expected error")
	}
	if atomic.LoadInt32(&hits) != 4 {
		t.Fatalf("hits = %d, want 4 (1 + 3 retries)", hits)
	}

	// fifth consecutive failure trips the breaker
	_, err := c.Forecast(context.Background(), 1, 1, testNow)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("err = %v, want open breaker", err)
	}
	if atomic.LoadInt32(&hits) != 5 {
		t.Fatalf("hits = %d, want 5", hits)
	}
	if c.BreakerState() != gobreaker.StateOpen {
		t.Fatalf("state = %v", c.BreakerState())
	}

	if _, err := c.Forecast(context.Background(), 1, 1, testNow); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("err = %v", err)
	}
	if atomic.LoadInt32(&hits) != 5 {
		t.Fatalf("open breaker still reached the server, hits = %d", hits)
	}
}

func TestNearestDay(t *testing.T) {
	days := []owmDaily{
		{Dt: testNow.Add(-48 * time.Hour).Unix(), Rain: 1},
		{Dt: testNow.Add(24 * time.Hour).Unix(), Rain: 2},
		{Dt: testNow.Add(72 * time.Hour).Unix(), Rain: 3},
	}
	if got := nearestDay(days, testNow.Add(30*time.Hour)); got.Rain != 2 {
		t.Fatalf("nearest = %+v", got)
	}
	if got := nearestDay(days, testNow.Add(-100*time.Hour)); got.Rain != 1 {
		t.Fatalf("nearest = %+v", got)
	}
}
