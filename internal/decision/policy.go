package decision

import "github.com/LeonardoBeccarini/irrigation_advisor/internal/model/entities"

// Decide applies the decision rules in order; the first match wins.
//
//  1. critically low or high moisture      -> ALERT
//  2. sensor malfunction alert             -> ALERT
//  3. rain in the forecast                 -> HOLD
//  4. optimal or high moisture             -> HOLD
//  5. rain probability above 60%           -> HOLD
//  6. low moisture, rain probability < 30% -> IRRIGATE
//  7. anything else                        -> HOLD
func Decide(moisture entities.MoistureStatus, weather entities.WeatherStatus, rainProbability float64, alerts []entities.AlertType) entities.Advice {
	if moisture.Critical() {
		return entities.AdviceAlert
	}
	for _, a := range alerts {
		if a == entities.AlertSensorMalfunction {
			return entities.AdviceAlert
		}
	}
	switch {
	case weather.Rainy():
		return entities.AdviceHold
	case moisture == entities.MoistureOptimal || moisture == entities.MoistureHigh:
		return entities.AdviceHold
	case rainProbability > 60:
		return entities.AdviceHold
	case moisture == entities.MoistureLow && rainProbability < 30:
		return entities.AdviceIrrigate
	default:
		return entities.AdviceHold
	}
}
