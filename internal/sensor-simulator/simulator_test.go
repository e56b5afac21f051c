package sensor_simulator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/LeonardoBeccarini/irrigation_advisor/internal/model/entities"
	"github.com/LeonardoBeccarini/irrigation_advisor/internal/model/messages"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newClockedGenerator(decay float64) (*DataGenerator, *time.Time) {
	g := NewDataGenerator(decay, 1)
	now := t0
	g.now = func() time.Time { return now }
	return g, &now
}

func TestGeneratorDecayAndGain(t *testing.T) {
	g, now := newClockedGenerator(0.01)

	first := g.Next("f1", "s1", false)
	if first.Soil.Moisture != 45 || !first.Aggregated || first.FieldID != "f1" {
		t.Fatalf("first reading = %+v", first)
	}

	*now = now.Add(60 * time.Minute)
	dry := g.Next("f1", "s1", false)
	if dry.Soil.Moisture >= first.Soil.Moisture {
		t.Fatalf("moisture did not decay: %v -> %v", first.Soil.Moisture, dry.Soil.Moisture)
	}

	*now = now.Add(30 * time.Minute)
	wet := g.Next("f1", "s1", true)
	if wet.Soil.Moisture <= dry.Soil.Moisture {
		t.Fatalf("moisture did not rise while irrigating: %v -> %v", dry.Soil.Moisture, wet.Soil.Moisture)
	}
	if wet.Soil.PH < 6.3 || wet.Soil.PH > 6.7 {
		t.Fatalf("ph jitter out of range: %v", wet.Soil.PH)
	}
}

func TestGeneratorPendingBoost(t *testing.T) {
	g, _ := newClockedGenerator(0)
	g.ApplyIrrigation(10 * time.Minute)
	sd := g.Next("f", "s", false)
	if sd.Soil.Moisture != 51 {
		t.Fatalf("moisture = %v, want 51 (45 + 10min boost)", sd.Soil.Moisture)
	}
}

func TestSeedFromSoilGrids(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"properties":{"layers":[{"name":"wv0010","depths":[{"values":{"Q0.5":270}}]}]}}`))
	}))
	defer srv.Close()

	g, _ := newClockedGenerator(0)
	g.soilGrids = srv.URL + "/?lat=%f&lon=%f"
	if err := g.SeedFromSoilGrids(context.Background(), 41.5, 12.3); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if atomic.LoadInt32(&hits) != 2 {
		t.Fatalf("hits = %d, want retry after 503", hits)
	}
	if m := g.Moisture(); m < 26.99 || m > 27.01 {
		t.Fatalf("moisture = %v, want 27", m)
	}
}

func TestSeedFromSoilGridsFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	g, _ := newClockedGenerator(0)
	g.soilGrids = srv.URL + "/?lat=%f&lon=%f"
	if err := g.SeedFromSoilGrids(context.Background(), 1, 1); err == nil {
		t.Fatal("expected error")
	}
	if m := g.Moisture(); m < 44.99 || m > 45.01 {
		t.Fatalf("moisture = %v, want default seed", m)
	}
}

func TestExtractMoisture(t *testing.T) {
	var v any
	_ = json.Unmarshal([]byte(`{"features":[{"properties":{"layers":[{"depths":[{"values":{"mean":"310"}}]}]}}]}`), &v)
	if got := normalizeWV(extractMoisture(v)); got != 0.31 {
		t.Fatalf("got %v", got)
	}
	if extractMoisture(map[string]any{"properties": map[string]any{}}) != -1 {
		t.Fatal("missing layers should give -1")
	}
}

type fakePublisher struct {
	mu     sync.Mutex
	topics []string
	data   []messages.SensorData
}

func (p *fakePublisher) PublishJSON(topic string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.data = append(p.data, v.(messages.SensorData))
	return nil
}

type fakeMessage struct {
	mqtt.Message
	topic   string
	payload []byte
}

func (m fakeMessage) Topic() string   { return m.topic }
func (m fakeMessage) Payload() []byte { return m.payload }

func decisionMsg(t *testing.T, field, sensor string, advice entities.Advice, minutes float64) fakeMessage {
	t.Helper()
	evt := messages.IrrigationDecisionEvent{
		FieldID:  field,
		SensorID: sensor,
		Decision: messages.DecisionRecord{
			Decision:        advice,
			Recommendations: messages.Recommendations{IrrigationDurationMinutes: minutes},
		},
	}
	b, err := json.Marshal(evt)
	if err != nil {
		t.Fatal(err)
	}
	return fakeMessage{topic: "event/irrigationDecision/" + field + "/" + sensor, payload: b}
}

func TestSimulatorPublishesAndIrrigates(t *testing.T) {
	pub := &fakePublisher{}
	g, _ := newClockedGenerator(0)
	sim := NewSensorSimulator(pub, g, "f1", "s1")

	if err := sim.Tick(); err != nil {
		t.Fatal(err)
	}
	if pub.topics[0] != "sensor/aggregated/f1/s1" || pub.data[0].SensorID != "s1" {
		t.Fatalf("published %v %+v", pub.topics, pub.data)
	}

	if err := sim.HandleDecision("", decisionMsg(t, "f1", "s1", entities.AdviceHold, 0)); err != nil {
		t.Fatal(err)
	}
	if sim.Irrigating() {
		t.Fatal("HOLD must not start irrigation")
	}
	if err := sim.HandleDecision("", decisionMsg(t, "f2", "s1", entities.AdviceIrrigate, 30)); err != nil {
		t.Fatal(err)
	}
	if sim.Irrigating() {
		t.Fatal("decision for another field applied")
	}
	if err := sim.HandleDecision("", decisionMsg(t, "f1", "s1", entities.AdviceIrrigate, 30)); err != nil {
		t.Fatal(err)
	}
	if !sim.Irrigating() {
		t.Fatal("IRRIGATE not applied")
	}

	if err := sim.HandleDecision("", fakeMessage{topic: "x", payload: []byte("{")}); err == nil {
		t.Fatal("bad payload accepted")
	}
}

func TestSimulatorIrrigationEnds(t *testing.T) {
	g, _ := newClockedGenerator(0)
	sim := NewSensorSimulator(&fakePublisher{}, g, "f1", "s1")
	sim.irrigate(20 * time.Millisecond)
	deadline := time.Now().Add(2 * time.Second)
	for sim.Irrigating() {
		if time.Now().After(deadline) {
			t.Fatal("irrigation never stopped")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
