package decision

import "github.com/LeonardoBeccarini/irrigation_advisor/internal/model/entities"

// ClassifyMoisture grades moisture against the crop bounds. Only the optimal
// bounds scale with the growth stage factor; the critical ones are absolute.
func ClassifyMoisture(moisture float64, crop entities.CropProfile, stage string) entities.MoistureStatus {
	factor := crop.StageFactor(stage)
	optimalMin := crop.MoistureOptimalMin * factor
	optimalMax := crop.MoistureOptimalMax * factor

	switch {
	case moisture < crop.MoistureCriticalMin:
		return entities.MoistureCriticallyLow
	case moisture < optimalMin:
		return entities.MoistureLow
	case moisture <= optimalMax:
		return entities.MoistureOptimal
	case moisture <= crop.MoistureCriticalMax:
		return entities.MoistureHigh
	default:
		return entities.MoistureCriticallyHigh
	}
}

// ClassifyWeather maps a forecast to a coarse category, rain first.
func ClassifyWeather(w entities.WeatherForecast) entities.WeatherStatus {
	switch {
	case w.RainProbability > 70:
		return entities.WeatherHeavyRain
	case w.RainProbability > 40:
		return entities.WeatherRainLikely
	case w.Temperature > 35:
		return entities.WeatherExtremeHeat
	case w.Temperature < 5:
		return entities.WeatherExtremeCold
	default:
		return entities.WeatherNormal
	}
}

// ClassifyNutrients is ADEQUATE when N, P and K all meet the crop minimums and
// DEFICIENT otherwise. BORDERLINE is never produced here.
func ClassifyNutrients(soil entities.SoilReading, crop entities.CropProfile) entities.NutrientStatus {
	nOK := soil.Nitrogen >= crop.NitrogenMin
	pOK := soil.Phosphorus >= crop.PhosphorusMin
	kOK := soil.Potassium >= crop.PotassiumMin
	if nOK && pOK && kOK {
		return entities.NutrientAdequate
	}
	return entities.NutrientDeficient
}
