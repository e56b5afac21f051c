package decision

import (
	"fmt"

	"github.com/LeonardoBeccarini/irrigation_advisor/internal/model/entities"
)

// Input is what every check sees for one analysis.
type Input struct {
	Soil    entities.SoilReading
	Weather entities.WeatherForecast
	Crop    entities.CropProfile
	Stage   string
}

// Check inspects one analysis and raises alerts on a. Checks run in order,
// built-in ones first, so reasons keep a stable order.
type Check func(in Input, a *Alerts)

// Alerts accumulates alert tags and human readable reasons.
type Alerts struct {
	tags    []entities.AlertType
	reasons []string
}

// Raise records an alert and its formatted reason. A tag raised twice is
// kept once, at its first position; the reason is always appended.
func (a *Alerts) Raise(t entities.AlertType, format string, args ...any) {
	if !a.Has(t) {
		a.tags = append(a.tags, t)
	}
	a.reasons = append(a.reasons, fmt.Sprintf(format, args...))
}

// Note appends a reason without an alert tag.
func (a *Alerts) Note(format string, args ...any) {
	a.reasons = append(a.reasons, fmt.Sprintf(format, args...))
}

func (a *Alerts) Has(t entities.AlertType) bool {
	for _, x := range a.tags {
		if x == t {
			return true
		}
	}
	return false
}

func (a *Alerts) Tags() []entities.AlertType {
	return append([]entities.AlertType{}, a.tags...)
}

func (a *Alerts) Reasons() []string {
	return append([]string{}, a.reasons...)
}

// BuiltinChecks returns the moisture, rain, nutrient, pH and temperature
// checks in evaluation order.
func BuiltinChecks() []Check {
	return []Check{checkMoisture, checkRain, checkNutrients, checkPH, checkSoilTemperature}
}

func checkMoisture(in Input, a *Alerts) {
	m := in.Soil.Moisture
	switch {
	case m < in.Crop.MoistureCriticalMin:
		a.Raise(entities.AlertLowMoisture, "Critical: Moisture at %.1f%% (min: %g%%)", m, in.Crop.MoistureCriticalMin)
	case m > in.Crop.MoistureCriticalMax:
		a.Raise(entities.AlertHighMoisture, "Critical: Moisture at %.1f%% (max: %g%%)", m, in.Crop.MoistureCriticalMax)
	}
}

func checkRain(in Input, a *Alerts) {
	if in.Weather.RainProbability > 60 {
		a.Raise(entities.AlertRainExpected, "Rain expected: %g%% chance, %.1fmm",
			in.Weather.RainProbability, in.Weather.RainAmountMM)
	}
}

func checkNutrients(in Input, a *Alerts) {
	s, c := in.Soil, in.Crop
	if s.Nitrogen < c.NitrogenMin {
		a.Raise(entities.AlertNutrientDeficiency, "Low nitrogen: %.1f mg/kg (min: %g)", s.Nitrogen, c.NitrogenMin)
	}
	if s.Phosphorus < c.PhosphorusMin {
		a.Raise(entities.AlertNutrientDeficiency, "Low phosphorus: %.1f mg/kg (min: %g)", s.Phosphorus, c.PhosphorusMin)
	}
	if s.Potassium < c.PotassiumMin {
		a.Raise(entities.AlertNutrientDeficiency, "Low potassium: %.1f mg/kg (min: %g)", s.Potassium, c.PotassiumMin)
	}
}

func checkPH(in Input, a *Alerts) {
	ph := in.Soil.PH
	if ph < in.Crop.PHOptimalMin || ph > in.Crop.PHOptimalMax {
		a.Raise(entities.AlertPHImbalance, "pH imbalance: %.1f (optimal: %.1f-%.1f)", ph, in.Crop.PHOptimalMin, in.Crop.PHOptimalMax)
	}
}

func checkSoilTemperature(in Input, a *Alerts) {
	t := in.Soil.Temperature
	if t < in.Crop.TempOptimalMin || t > in.Crop.TempOptimalMax {
		a.Raise(entities.AlertExtremeTemperature, "Soil temp: %.1f°C (optimal: %g-%g°C)", t, in.Crop.TempOptimalMin, in.Crop.TempOptimalMax)
	}
}
