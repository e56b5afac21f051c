package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/LeonardoBeccarini/irrigation_advisor/internal/model/entities"
	"github.com/LeonardoBeccarini/irrigation_advisor/internal/model/messages"
	"github.com/LeonardoBeccarini/irrigation_advisor/internal/observability/metrics"
	"github.com/LeonardoBeccarini/irrigation_advisor/pkg/dedup"
)

const DefaultDecisionTopic = "event/irrigationDecision/{field}/{sensor}"

// DecisionPublisher is satisfied by rabbitmq.Publisher.
type DecisionPublisher interface {
	PublishJSON(topic string, v any) error
}

// Forecaster is satisfied by ForecastCache.
type Forecaster interface {
	Forecast(ctx context.Context, f entities.Field) (entities.WeatherForecast, error)
}

type ControllerConfig struct {
	DecisionTopic    string        // template with {field} and {sensor}
	RespectNextCheck bool          // skip readings until the previous decision's next check
	DedupTTL         time.Duration // window for dropping QoS1 redeliveries
	ForecastTimeout  time.Duration
}

// Controller turns aggregated sensor readings into published decisions.
type Controller struct {
	svc       *Service
	publisher DecisionPublisher
	forecasts Forecaster
	fields    map[string]entities.Field
	cfg       ControllerConfig
	deduper   *dedup.Deduper
	now       func() time.Time

	mu        sync.Mutex
	nextCheck map[string]time.Time // key = field|sensor
}

func NewController(svc *Service, pub DecisionPublisher, forecasts Forecaster, fields map[string]entities.Field, cfg ControllerConfig) (*Controller, error) {
	if svc == nil {
		return nil, errors.New("controller: service is nil")
	}
	if pub == nil {
		return nil, errors.New("controller: publisher is nil")
	}
	if strings.TrimSpace(cfg.DecisionTopic) == "" {
		cfg.DecisionTopic = DefaultDecisionTopic
	}
	if cfg.DedupTTL <= 0 {
		cfg.DedupTTL = 10 * time.Minute
	}
	if cfg.ForecastTimeout <= 0 {
		cfg.ForecastTimeout = 5 * time.Second
	}
	return &Controller{
		svc:       svc,
		publisher: pub,
		forecasts: forecasts,
		fields:    fields,
		cfg:       cfg,
		deduper:   dedup.New(cfg.DedupTTL, 20000),
		now:       time.Now,
		nextCheck: make(map[string]time.Time),
	}, nil
}

// HandleAggregated is the rabbitmq.Handler for sensor/aggregated/#.
func (c *Controller) HandleAggregated(_ string, msg mqtt.Message) error {
	// dedup prima dell'unmarshal: scarta redelivery QoS1 identiche
	id := dedup.Key(msg.Topic(), msg.Payload())
	if !c.deduper.ShouldProcess(id) {
		metrics.IncMQTTMessage(metrics.MessageDuplicate)
		return nil
	}

	sd := messages.NewSensorData()
	if err := json.Unmarshal(msg.Payload(), &sd); err != nil {
		metrics.IncMQTTMessage(metrics.MessageIgnored)
		log.Printf("controller: bad payload topic=%s err=%v", msg.Topic(), err)
		return nil
	}
	if !sd.Aggregated {
		metrics.IncMQTTMessage(metrics.MessageIgnored)
		return nil
	}
	fieldID, sensorID := idsFromTopic(msg.Topic(), sd.FieldID, sd.SensorID)

	field, ok := c.fields[fieldID]
	if !ok {
		metrics.IncMQTTMessage(metrics.MessageIgnored)
		log.Printf("controller: unknown field %s (sensor %s)", fieldID, sensorID)
		return nil
	}

	k := key(fieldID, sensorID)
	now := c.now()
	if c.cfg.RespectNextCheck {
		c.mu.Lock()
		until, have := c.nextCheck[k]
		c.mu.Unlock()
		if have && now.Before(until) {
			metrics.IncMQTTMessage(metrics.MessageSkipped)
			log.Printf("controller: skip %s/%s until %s", fieldID, sensorID, until.Format(time.RFC3339))
			return nil
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.ForecastTimeout)
	defer cancel()
	weather := c.weatherFor(ctx, field)

	capacity := field.FieldCapacity
	req := messages.AdviceRequest{
		SoilData:      &sd.Soil,
		WeatherData:   &weather,
		CropType:      field.CropType,
		GrowthStage:   field.GrowthStage,
		FieldCapacity: &capacity,
	}
	rec, err := c.svc.AdviseFor(ctx, Meta{Source: SourceMQTT, FieldID: fieldID, SensorID: sensorID}, req)
	if err != nil {
		c.deduper.Forget(id)
		metrics.IncMQTTMessage(metrics.MessageIgnored)
		return fmt.Errorf("advise %s/%s: %w", fieldID, sensorID, err)
	}

	topic := strings.NewReplacer("{field}", fieldID, "{sensor}", sensorID).Replace(c.cfg.DecisionTopic)
	evt := messages.IrrigationDecisionEvent{FieldID: fieldID, SensorID: sensorID, Decision: rec}
	if err := c.publisher.PublishJSON(topic, evt); err != nil {
		// la redelivery deve poter ripubblicare
		c.deduper.Forget(id)
		log.Printf("controller: publish decision error: %v", err)
		return err
	}

	c.mu.Lock()
	c.nextCheck[k] = now.Add(time.Duration(rec.Recommendations.NextCheckHours) * time.Hour)
	c.mu.Unlock()
	metrics.IncMQTTMessage(metrics.MessageProcessed)
	log.Printf("decision: %s/%s moisture=%.1f%% decision=%s amount=%.1fmm next=%dh topic=%s",
		fieldID, sensorID, sd.Soil.Moisture, rec.Decision, rec.Recommendations.IrrigationAmountMM,
		rec.Recommendations.NextCheckHours, topic)
	return nil
}

// NextCheck returns when the field/sensor pair will be analysed again.
func (c *Controller) NextCheck(fieldID, sensorID string) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.nextCheck[key(fieldID, sensorID)]
	return t, ok
}

func (c *Controller) weatherFor(ctx context.Context, f entities.Field) entities.WeatherForecast {
	if c.forecasts == nil || !f.HasLocation() {
		return entities.DefaultWeatherForecast()
	}
	w, err := c.forecasts.Forecast(ctx, f)
	if err != nil {
		log.Printf("controller: weather error for %s: %v (using defaults)", f.ID, err)
		return entities.DefaultWeatherForecast()
	}
	return w
}

// idsFromTopic prefers the payload ids and falls back to the topic
// sensor/aggregated/{field}/{sensor}.
func idsFromTopic(topic, fieldID, sensorID string) (string, string) {
	parts := strings.Split(topic, "/")
	if fieldID == "" && len(parts) >= 3 {
		fieldID = parts[2]
	}
	if sensorID == "" && len(parts) >= 4 {
		sensorID = parts[3]
	}
	return fieldID, sensorID
}

func key(fid, sid string) string { return fid + "|" + sid }
