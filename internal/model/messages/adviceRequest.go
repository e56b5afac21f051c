package messages

import (
	"strings"

	"github.com/LeonardoBeccarini/irrigation_advisor/internal/model/entities"
)

const (
	DefaultCropType      = "default"
	DefaultGrowthStage   = entities.StageVegetative
	DefaultFieldCapacity = 100.0
)

// AdviceRequest is the payload accepted by the HTTP, gRPC and MQTT surfaces.
// Both records are required; their inner fields default when missing.
type AdviceRequest struct {
	SoilData      *entities.SoilReading     `json:"soil_data" validate:"required"`
	WeatherData   *entities.WeatherForecast `json:"weather_data" validate:"required"`
	CropType      string                    `json:"crop_type,omitempty"`
	GrowthStage   string                    `json:"growth_stage,omitempty"`
	FieldCapacity *float64                  `json:"field_capacity,omitempty" validate:"omitempty,gt=0"`
}

// Params carries the per-call parameters of an analysis.
type Params struct {
	CropType      string
	GrowthStage   string
	FieldCapacity float64
}

func DefaultParams() Params {
	return Params{
		CropType:      DefaultCropType,
		GrowthStage:   DefaultGrowthStage,
		FieldCapacity: DefaultFieldCapacity,
	}
}

// Params resolves the request parameters, applying defaults for absent ones.
func (r AdviceRequest) Params() Params {
	p := DefaultParams()
	if strings.TrimSpace(r.CropType) != "" {
		p.CropType = r.CropType
	}
	if strings.TrimSpace(r.GrowthStage) != "" {
		p.GrowthStage = r.GrowthStage
	}
	if r.FieldCapacity != nil {
		p.FieldCapacity = *r.FieldCapacity
	}
	return p
}
