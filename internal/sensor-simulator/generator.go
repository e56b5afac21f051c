package sensor_simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/LeonardoBeccarini/irrigation_advisor/internal/model/entities"
	"github.com/LeonardoBeccarini/irrigation_advisor/internal/model/messages"
)

// ====== Tunables ======
const (
	// gainPerMin: +0.6% per minuto quando l'irrigazione è attiva (in [0..1]).
	gainPerMin = 0.006

	// defaultSeed: valore di seed se SoilGrids non è disponibile.
	defaultSeed = 0.45

	// fetch singola all'avvio; NON chiamare ad ogni tick.
	defaultSoilGridsURL = "https://rest.isric.org/soilgrids/v2.0/properties/query?lat=%f&lon=%f&property=wv0010"
)

// DataGenerator mantiene lo stato della moisture e produce letture complete
// del suolo; gli altri valori oscillano attorno ai default.
type DataGenerator struct {
	mu           sync.Mutex
	seeded       bool
	last         time.Time
	moisture     float64 // [0..1]
	decayPerMin  float64
	pendingBoost float64

	baseline   entities.SoilReading
	rng        *rand.Rand
	now        func() time.Time
	httpClient *http.Client
	soilGrids  string
}

// NewDataGenerator crea un generatore; decayPerMin è la costante di decadimento
// esponenziale a irrigazione spenta (ln2/half-life in minuti).
func NewDataGenerator(decayPerMin float64, seed int64) *DataGenerator {
	return &DataGenerator{
		decayPerMin: math.Max(0, decayPerMin),
		baseline:    entities.DefaultSoilReading(),
		rng:         rand.New(rand.NewSource(seed)),
		now:         func() time.Time { return time.Now().UTC() },
		httpClient:  &http.Client{Timeout: 8 * time.Second},
		soilGrids:   defaultSoilGridsURL,
	}
}

// SeedFromSoilGrids fa una sola fetch a SoilGrids; se fallisce usa defaultSeed.
func (g *DataGenerator) SeedFromSoilGrids(ctx context.Context, lat, lon float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.seeded {
		return nil
	}

	seed := defaultSeed
	var err error
	if lat != 0 || lon != 0 {
		var m float64
		if m, err = g.fetchSoilMoisture(ctx, lat, lon); err == nil {
			seed = m
		}
	}
	g.seedLocked(seed)
	return err
}

func (g *DataGenerator) seedLocked(seed float64) {
	g.moisture = clamp01(seed + g.pendingBoost)
	g.pendingBoost = 0
	g.last = g.now()
	g.seeded = true
}

// Next aggiorna lo stato e restituisce una lettura aggregata.
func (g *DataGenerator) Next(fieldID, sensorID string, irrigating bool) messages.SensorData {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.seeded {
		g.seedLocked(defaultSeed)
	}
	now := g.now()
	dtMin := math.Max(0, now.Sub(g.last).Minutes())
	if irrigating {
		g.moisture = clamp01(g.moisture + gainPerMin*dtMin)
	} else {
		g.moisture = clamp01(g.moisture * math.Exp(-g.decayPerMin*dtMin))
	}
	g.last = now

	soil := g.baseline
	soil.Moisture = math.Round(g.moisture*1000) / 10 // percentuale, un decimale
	soil.PH = round1(soil.PH + g.jitter(0.2))
	soil.Nitrogen = round1(soil.Nitrogen + g.jitter(15))
	soil.Phosphorus = round1(soil.Phosphorus + g.jitter(5))
	soil.Potassium = round1(soil.Potassium + g.jitter(20))
	soil.Temperature = round1(soil.Temperature + g.jitter(2))

	return messages.SensorData{
		FieldID:    fieldID,
		SensorID:   sensorID,
		Soil:       soil,
		Aggregated: true,
		Timestamp:  now,
	}
}

// ApplyIrrigation accumula un boost se il generatore non è ancora seedato;
// dopo il seed l'aumento avviene mentre l'irrigazione è attiva.
func (g *DataGenerator) ApplyIrrigation(d time.Duration) {
	if g == nil || d <= 0 {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.seeded {
		g.pendingBoost += gainPerMin * d.Minutes()
	}
}

// Moisture returns the current state in percent.
func (g *DataGenerator) Moisture() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.moisture * 100
}

func (g *DataGenerator) jitter(span float64) float64 {
	return (g.rng.Float64()*2 - 1) * span
}

// ===== SoilGrids =====

type statusError struct{ code int }

func (e statusError) Error() string { return fmt.Sprintf("soilgrids HTTP %d", e.code) }

func (g *DataGenerator) fetchSoilMoisture(ctx context.Context, lat, lon float64) (float64, error) {
	url := fmt.Sprintf(g.soilGrids, lat, lon)
	var out float64

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", "irrigation-sensor-simulator/1.0")
		resp, err := g.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return statusError{resp.StatusCode}
		default:
			return backoff.Permanent(statusError{resp.StatusCode})
		}

		var parsed any
		if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&parsed); err != nil {
			return backoff.Permanent(err)
		}
		m := extractMoisture(parsed)
		if m < 0 {
			return backoff.Permanent(fmt.Errorf("soilgrids: moisture field not found"))
		}
		out = normalizeWV(m)
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 600 * time.Millisecond
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, 1), ctx)); err != nil {
		return -1, err
	}
	return out, nil
}

// extractMoisture cerca il primo valore di wv0010 in
// {"properties":{"layers":[{"depths":[{"values":{"Q0.5":270}}]}]}}
// (anche sotto "features"[0]).
func extractMoisture(v any) float64 {
	m, ok := v.(map[string]any)
	if !ok {
		return -1
	}
	if feats, ok := m["features"].([]any); ok && len(feats) > 0 {
		if f0, ok := feats[0].(map[string]any); ok {
			if x := extractMoisture(f0); x >= 0 {
				return x
			}
		}
	}
	props, ok := m["properties"].(map[string]any)
	if !ok {
		return -1
	}
	layers, _ := props["layers"].([]any)
	if len(layers) == 0 {
		return -1
	}
	l0, _ := layers[0].(map[string]any)
	depths, _ := l0["depths"].([]any)
	if len(depths) == 0 {
		return -1
	}
	d0, _ := depths[0].(map[string]any)
	vals, _ := d0["values"].(map[string]any)
	for _, k := range []string{"Q0.5", "mean", "Q0.95", "Q0.05"} {
		if f, ok := entities.ToF64(vals[k]); ok {
			return f
		}
	}
	return -1
}

// normalizeWV porta i valori wv**** (millesimi di m3/m3, es. 270) in [0..1].
func normalizeWV(x float64) float64 {
	if x > 1.5 {
		x = x / 1000.0
	}
	return clamp01(x)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func round1(x float64) float64 { return math.Round(x*10) / 10 }
