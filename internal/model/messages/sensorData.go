package messages

import (
	"time"

	"github.com/LeonardoBeccarini/irrigation_advisor/internal/model/entities"
)

// SensorData holds both real-time and aggregated readings published on MQTT.
type SensorData struct {
	FieldID    string               `json:"field_id"`
	SensorID   string               `json:"sensor_id"`
	Soil       entities.SoilReading `json:"soil"`
	Aggregated bool                 `json:"aggregated"`
	Timestamp  time.Time            `json:"timestamp"`
}

// NewSensorData returns a message whose soil values default as SoilReading does,
// so payloads without a "soil" object still decode to a usable reading.
func NewSensorData() SensorData {
	return SensorData{Soil: entities.DefaultSoilReading()}
}
