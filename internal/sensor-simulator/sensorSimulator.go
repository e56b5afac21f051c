package sensor_simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/LeonardoBeccarini/irrigation_advisor/internal/model/entities"
	"github.com/LeonardoBeccarini/irrigation_advisor/internal/model/messages"
	"github.com/LeonardoBeccarini/irrigation_advisor/pkg/dedup"
)

const DefaultReadingTopic = "sensor/aggregated/{field}/{sensor}"

// Publisher is satisfied by rabbitmq.Publisher.
type Publisher interface {
	PublishJSON(topic string, v any) error
}

// SensorSimulator pubblica letture aggregate per un sensore e applica le
// decisioni IRRIGATE ricevute dall'advisor.
type SensorSimulator struct {
	fieldID  string
	sensorID string
	topic    string

	mu         sync.Mutex
	irrigating bool
	timer      *time.Timer // single timer

	generator *DataGenerator
	publisher Publisher
	deduper   *dedup.Deduper
}

func NewSensorSimulator(pub Publisher, gen *DataGenerator, fieldID, sensorID string) *SensorSimulator {
	return &SensorSimulator{
		fieldID:   fieldID,
		sensorID:  sensorID,
		topic:     strings.NewReplacer("{field}", fieldID, "{sensor}", sensorID).Replace(DefaultReadingTopic),
		generator: gen,
		publisher: pub,
		deduper:   dedup.New(2*time.Minute, 10000), // TTL e cap
	}
}

func (s *SensorSimulator) Topic() string { return s.topic }

// Start pubblica una lettura ogni interval finché ctx non termina.
func (s *SensorSimulator) Start(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			if s.timer != nil {
				s.timer.Stop()
			}
			s.mu.Unlock()
			return
		case <-t.C:
			if err := s.Tick(); err != nil {
				log.Printf("sensor: publish error: %v", err)
			}
		}
	}
}

// Tick genera e pubblica una lettura.
func (s *SensorSimulator) Tick() error {
	sd := s.generator.Next(s.fieldID, s.sensorID, s.Irrigating())
	log.Printf("sensor: pub field=%s sensor=%s moisture=%.1f%% irrigating=%v",
		sd.FieldID, sd.SensorID, sd.Soil.Moisture, s.Irrigating())
	return s.publisher.PublishJSON(s.topic, sd)
}

func (s *SensorSimulator) Irrigating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.irrigating
}

// HandleDecision è il rabbitmq.Handler per event/irrigationDecision/{field}/{sensor}.
func (s *SensorSimulator) HandleDecision(_ string, msg mqtt.Message) error {
	// redelivery QoS1 ha lo stesso payload → stessa chiave
	if !s.deduper.ShouldProcess(dedup.Key(msg.Topic(), msg.Payload())) {
		return nil
	}

	var evt messages.IrrigationDecisionEvent
	if err := json.Unmarshal(msg.Payload(), &evt); err != nil {
		return fmt.Errorf("invalid IrrigationDecisionEvent: %w", err)
	}
	if evt.FieldID != s.fieldID || evt.SensorID != s.sensorID {
		return nil
	}
	if evt.Decision.Decision != entities.AdviceIrrigate {
		return nil
	}
	d := time.Duration(evt.Decision.Recommendations.IrrigationDurationMinutes * float64(time.Minute))
	s.irrigate(d)
	return nil
}

func (s *SensorSimulator) irrigate(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.irrigating = true
	s.generator.ApplyIrrigation(d)
	log.Printf("sensor: %s/%s irrigating for %s", s.fieldID, s.sensorID, d)

	s.timer = time.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.irrigating = false
		s.timer = nil
		log.Printf("sensor: %s/%s irrigation done", s.fieldID, s.sensorID)
	})
}
