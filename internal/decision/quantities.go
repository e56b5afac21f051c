package decision

import (
	"math"

	"github.com/LeonardoBeccarini/irrigation_advisor/internal/model/entities"
)

const (
	// CropCoefficient scales the reference ET to crop ET.
	CropCoefficient = 1.2
	// FlowRateMMPerHour is the nominal application rate of the irrigation line.
	FlowRateMMPerHour = 10.0
)

// EstimateET is a simplified Hargreaves-style daily ET in mm, scaled by the
// stage factor and the crop coefficient. Negative wind is read as calm and the
// result never goes below zero.
func EstimateET(w entities.WeatherForecast, stageFactor float64) float64 {
	wind := math.Max(w.WindSpeed, 0)
	et0 := 0.0023 * (w.Temperature + 17.8) * (w.Temperature - w.Humidity/10) * math.Sqrt(wind)
	return math.Max(0, et0*stageFactor*CropCoefficient)
}

// WaterLoss bands a daily ET value: below 3 low, up to 7 moderate, above high.
func WaterLoss(etMM float64) entities.WaterLossRate {
	switch {
	case etMM < 3:
		return entities.WaterLossLow
	case etMM <= 7:
		return entities.WaterLossModerate
	default:
		return entities.WaterLossHigh
	}
}

// IrrigationAmount is the water in mm needed to lift moisture to the crop's
// optimal maximum, given the field capacity in mm. It is zero when the soil is
// already at or above that level.
func IrrigationAmount(moisture float64, crop entities.CropProfile, fieldCapacity float64) float64 {
	deficit := crop.MoistureOptimalMax - moisture
	return math.Max(0, deficit/100*fieldCapacity)
}

// IrrigationDuration converts an amount in mm to minutes at FlowRateMMPerHour.
func IrrigationDuration(amountMM float64) float64 {
	return amountMM / FlowRateMMPerHour * 60
}

// NextCheckHours is the recheck interval for an advice.
func NextCheckHours(advice entities.Advice, weather entities.WeatherStatus) int {
	switch {
	case advice == entities.AdviceAlert:
		return 2
	case advice == entities.AdviceIrrigate:
		return 12
	case weather.Rainy():
		return 6
	default:
		return 24
	}
}
