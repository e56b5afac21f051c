package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/LeonardoBeccarini/irrigation_advisor/internal/model/entities"
	"github.com/LeonardoBeccarini/irrigation_advisor/internal/model/messages"
)

type fakeMessage struct {
	mqtt.Message
	topic   string
	payload []byte
}

func (m fakeMessage) Topic() string   { return m.topic }
func (m fakeMessage) Payload() []byte { return m.payload }

type publishedEvent struct {
	topic string
	evt   messages.IrrigationDecisionEvent
}

type fakePublisher struct {
	mu     sync.Mutex
	err    error
	events []publishedEvent
}

func (p *fakePublisher) PublishJSON(topic string, v any) error {
	if p.err != nil {
		return p.err
	}
	evt, ok := v.(messages.IrrigationDecisionEvent)
	if !ok {
		return errors.New("unexpected payload type")
	}
	p.mu.Lock()
	p.events = append(p.events, publishedEvent{topic: topic, evt: evt})
	p.mu.Unlock()
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type fakeForecaster struct {
	w     entities.WeatherForecast
	err   error
	calls int
}

func (f *fakeForecaster) Forecast(_ context.Context, _ entities.Field) (entities.WeatherForecast, error) {
	f.calls++
	return f.w, f.err
}

func testFields() map[string]entities.Field {
	return map[string]entities.Field{
		"f1": {ID: "f1", CropType: "tomato", GrowthStage: entities.StageVegetative, FieldCapacity: 100},
		"f2": {ID: "f2", CropType: "tomato", GrowthStage: entities.StageVegetative, FieldCapacity: 100, Latitude: 41.9, Longitude: 12.5},
	}
}

func reading(t *testing.T, fieldID, sensorID string, moisture float64, aggregated bool) []byte {
	t.Helper()
	b, err := json.Marshal(map[string]any{
		"field_id":   fieldID,
		"sensor_id":  sensorID,
		"soil":       map[string]any{"soil_moisture": moisture},
		"aggregated": aggregated,
	})
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func newTestController(t *testing.T, pub *fakePublisher, fc Forecaster, cfg ControllerConfig) *Controller {
	t.Helper()
	c, err := NewController(newTestService(), pub, fc, testFields(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestControllerPublishesDecision(t *testing.T) {
	pub := &fakePublisher{}
	c := newTestController(t, pub, nil, ControllerConfig{})

	msg := fakeMessage{topic: "sensor/aggregated/f1/s1", payload: reading(t, "f1", "s1", 50, true)}
	if err := c.HandleAggregated("sensor/aggregated/#", msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if pub.count() != 1 {
		t.Fatalf("published %d events", pub.count())
	}
	got := pub.events[0]
	if got.topic != "event/irrigationDecision/f1/s1" {
		t.Fatalf("topic = %s", got.topic)
	}
	if got.evt.FieldID != "f1" || got.evt.SensorID != "s1" || got.evt.Decision.Decision != entities.AdviceIrrigate {
		t.Fatalf("event = %+v", got.evt)
	}

	// QoS1 redelivery of the same payload
	if err := c.HandleAggregated("sensor/aggregated/#", msg); err != nil {
		t.Fatal(err)
	}
	if pub.count() != 1 {
		t.Fatalf("duplicate was republished")
	}
}

func TestControllerRespectsNextCheck(t *testing.T) {
	pub := &fakePublisher{}
	c := newTestController(t, pub, nil, ControllerConfig{RespectNextCheck: true})
	now := testNow
	c.now = func() time.Time { return now }

	handle := func(m float64) {
		t.Helper()
		msg := fakeMessage{topic: "sensor/aggregated/f1/s1", payload: reading(t, "f1", "s1", m, true)}
		if err := c.HandleAggregated("", msg); err != nil {
			t.Fatal(err)
		}
	}

	handle(50)
	next, ok := c.NextCheck("f1", "s1")
	if !ok || !next.Equal(testNow.Add(12*time.Hour)) {
		t.Fatalf("next check = %v %v", next, ok)
	}

	now = testNow.Add(time.Hour)
	handle(51)
	if pub.count() != 1 {
		t.Fatalf("reading before next check was analysed")
	}

	now = testNow.Add(13 * time.Hour)
	handle(52)
	if pub.count() != 2 {
		t.Fatalf("reading after next check was skipped")
	}
}

func TestControllerIgnoresReadings(t *testing.T) {
	pub := &fakePublisher{}
	c := newTestController(t, pub, nil, ControllerConfig{})

	cases := []fakeMessage{
		{topic: "sensor/aggregated/f1/s1", payload: reading(t, "f1", "s1", 50, false)},
		{topic: "sensor/aggregated/zz/s1", payload: reading(t, "zz", "s1", 50, true)},
		{topic: "sensor/aggregated/f1/s1", payload: []byte(`not json`)},
	}
	for _, m := range cases {
		if err := c.HandleAggregated("", m); err != nil {
			t.Fatalf("handle %s: %v", m.payload, err)
		}
	}
	if pub.count() != 0 {
		t.Fatalf("published %d events for ignored readings", pub.count())
	}
}

func TestControllerIDsFromTopic(t *testing.T) {
	pub := &fakePublisher{}
	c := newTestController(t, pub, nil, ControllerConfig{DecisionTopic: "decisions/{field}/{sensor}"})

	msg := fakeMessage{topic: "sensor/aggregated/f1/s9", payload: []byte(`{"soil":{"soil_moisture":70},"aggregated":true}`)}
	if err := c.HandleAggregated("", msg); err != nil {
		t.Fatal(err)
	}
	if pub.count() != 1 || pub.events[0].topic != "decisions/f1/s9" {
		t.Fatalf("events = %+v", pub.events)
	}
	if pub.events[0].evt.Decision.Decision != entities.AdviceHold {
		t.Fatalf("decision = %s", pub.events[0].evt.Decision.Decision)
	}
}

func TestControllerUsesForecast(t *testing.T) {
	pub := &fakePublisher{}
	rainy := entities.DefaultWeatherForecast()
	rainy.RainProbability = 85
	rainy.RainAmountMM = 12
	fc := &fakeForecaster{w: rainy}
	c := newTestController(t, pub, fc, ControllerConfig{})

	// f1 has no location: defaults, forecaster not called
	_ = c.HandleAggregated("", fakeMessage{topic: "sensor/aggregated/f1/s1", payload: reading(t, "f1", "s1", 50, true)})
	if fc.calls != 0 {
		t.Fatalf("forecaster called for field without location")
	}

	_ = c.HandleAggregated("", fakeMessage{topic: "sensor/aggregated/f2/s1", payload: reading(t, "f2", "s1", 50, true)})
	if fc.calls != 1 {
		t.Fatalf("forecaster calls = %d", fc.calls)
	}
	last := pub.events[len(pub.events)-1].evt.Decision
	if last.Decision != entities.AdviceHold || last.Analysis.Weather.Status != entities.WeatherHeavyRain {
		t.Fatalf("decision = %s weather = %s", last.Decision, last.Analysis.Weather.Status)
	}
}

func TestControllerForecastErrorFallsBack(t *testing.T) {
	pub := &fakePublisher{}
	c := newTestController(t, pub, &fakeForecaster{err: errors.New("owm down")}, ControllerConfig{})

	if err := c.HandleAggregated("", fakeMessage{topic: "sensor/aggregated/f2/s1", payload: reading(t, "f2", "s1", 50, true)}); err != nil {
		t.Fatal(err)
	}
	if got := pub.events[0].evt.Decision; got.Decision != entities.AdviceIrrigate || got.Analysis.Weather.Temperature != 25 {
		t.Fatalf("fallback weather not used: %+v", got.Analysis.Weather)
	}
}

func TestControllerPublishError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker gone")}
	c := newTestController(t, pub, nil, ControllerConfig{RespectNextCheck: true})
	msg := fakeMessage{topic: "sensor/aggregated/f1/s1", payload: reading(t, "f1", "s1", 50, true)}
	if err := c.HandleAggregated("", msg); err == nil {
		t.Fatal("publish error not returned")
	}
	if _, ok := c.NextCheck("f1", "s1"); ok {
		t.Fatal("next check stored for an unpublished decision")
	}

	// QoS1 redelivery after the broker recovers
	pub.err = nil
	if err := c.HandleAggregated("", msg); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if pub.count() != 1 || pub.events[0].evt.Decision.Decision != entities.AdviceIrrigate {
		t.Fatalf("redelivery not published, events = %+v", pub.events)
	}
	if _, ok := c.NextCheck("f1", "s1"); !ok {
		t.Fatal("next check missing after publish")
	}
}

func TestNewControllerRequiresDeps(t *testing.T) {
	if _, err := NewController(nil, &fakePublisher{}, nil, nil, ControllerConfig{}); err == nil {
		t.Fatal("nil service accepted")
	}
	if _, err := NewController(newTestService(), nil, nil, nil, ControllerConfig{}); err == nil {
		t.Fatal("nil publisher accepted")
	}
}
