package messages

import (
	"time"

	"github.com/LeonardoBeccarini/irrigation_advisor/internal/model/entities"
)

// DecisionRecord is the result of one analysis. It is built once and then
// only copied; Clone gives callers their own slices.
type DecisionRecord struct {
	ID              string               `json:"id"`
	Timestamp       time.Time            `json:"timestamp"`
	Decision        entities.Advice      `json:"decision"`
	Confidence      int                  `json:"confidence"`
	Crop            string               `json:"crop"`
	GrowthStage     string               `json:"growth_stage"`
	Analysis        Analysis             `json:"analysis"`
	Alerts          []entities.AlertType `json:"alerts"`
	Reasons         []string             `json:"reasons"`
	Recommendations Recommendations      `json:"recommendations"`
}

type Analysis struct {
	Soil               SoilAnalysis               `json:"soil"`
	Weather            WeatherAnalysis            `json:"weather"`
	Evapotranspiration EvapotranspirationAnalysis `json:"evapotranspiration"`
}

type SoilAnalysis struct {
	Moisture       float64                 `json:"moisture"`
	MoistureStatus entities.MoistureStatus `json:"moisture_status"`
	PH             float64                 `json:"ph"`
	Temperature    float64                 `json:"temperature"`
	Nutrients      NutrientAnalysis        `json:"nutrients"`
}

type NutrientAnalysis struct {
	Nitrogen   float64                 `json:"nitrogen"`
	Phosphorus float64                 `json:"phosphorus"`
	Potassium  float64                 `json:"potassium"`
	Status     entities.NutrientStatus `json:"status"`
}

type WeatherAnalysis struct {
	Temperature     float64                `json:"temperature"`
	Humidity        float64                `json:"humidity"`
	RainProbability float64                `json:"rain_probability"`
	RainAmount      float64                `json:"rain_amount"`
	WindSpeed       float64                `json:"wind_speed"`
	Status          entities.WeatherStatus `json:"status"`
}

type EvapotranspirationAnalysis struct {
	DailyETMM     float64                `json:"daily_et_mm"`
	WaterLossRate entities.WaterLossRate `json:"water_loss_rate"`
}

type Recommendations struct {
	IrrigationAmountMM        float64 `json:"irrigation_amount_mm"`
	IrrigationDurationMinutes float64 `json:"irrigation_duration_minutes"`
	NextCheckHours            int     `json:"next_check_hours"`
}

// HasAlert reports whether t is among the record's alerts.
func (r DecisionRecord) HasAlert(t entities.AlertType) bool {
	for _, a := range r.Alerts {
		if a == t {
			return true
		}
	}
	return false
}

func (r DecisionRecord) Clone() DecisionRecord {
	out := r
	out.Alerts = append([]entities.AlertType(nil), r.Alerts...)
	out.Reasons = append([]string(nil), r.Reasons...)
	if out.Alerts == nil {
		out.Alerts = []entities.AlertType{}
	}
	if out.Reasons == nil {
		out.Reasons = []string{}
	}
	return out
}
