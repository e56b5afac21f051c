package entities

// Advice is the outcome of one analysis.
type Advice string

const (
	AdviceIrrigate Advice = "IRRIGATE"
	AdviceHold     Advice = "HOLD"
	AdviceAlert    Advice = "ALERT"
)

// AlertType tags a condition raised while analysing a reading.
type AlertType string

const (
	AlertLowMoisture        AlertType = "LOW_MOISTURE"
	AlertHighMoisture       AlertType = "HIGH_MOISTURE"
	AlertNutrientDeficiency AlertType = "NUTRIENT_DEFICIENCY"
	AlertPHImbalance        AlertType = "PH_IMBALANCE"
	AlertExtremeTemperature AlertType = "EXTREME_TEMPERATURE"
	AlertRainExpected       AlertType = "RAIN_EXPECTED"
	// AlertSensorMalfunction is not raised by the built-in checks. A sensor
	// health check can raise it and the policy turns it into ALERT.
	AlertSensorMalfunction AlertType = "SENSOR_MALFUNCTION"
)

type MoistureStatus string

const (
	MoistureCriticallyLow  MoistureStatus = "CRITICALLY_LOW"
	MoistureLow            MoistureStatus = "LOW"
	MoistureOptimal        MoistureStatus = "OPTIMAL"
	MoistureHigh           MoistureStatus = "HIGH"
	MoistureCriticallyHigh MoistureStatus = "CRITICALLY_HIGH"
)

// Critical reports whether the status is outside the critical bounds.
func (m MoistureStatus) Critical() bool {
	return m == MoistureCriticallyLow || m == MoistureCriticallyHigh
}

type WeatherStatus string

const (
	WeatherHeavyRain   WeatherStatus = "HEAVY_RAIN_EXPECTED"
	WeatherRainLikely  WeatherStatus = "RAIN_LIKELY"
	WeatherExtremeHeat WeatherStatus = "EXTREME_HEAT"
	WeatherExtremeCold WeatherStatus = "EXTREME_COLD"
	WeatherNormal      WeatherStatus = "NORMAL"
)

// Rainy reports whether the forecast is one of the two rain categories.
func (w WeatherStatus) Rainy() bool {
	return w == WeatherHeavyRain || w == WeatherRainLikely
}

type NutrientStatus string

const (
	NutrientAdequate  NutrientStatus = "ADEQUATE"
	NutrientDeficient NutrientStatus = "DEFICIENT"
	// NutrientBorderline is reserved; the N/P/K classifier only yields
	// ADEQUATE or DEFICIENT.
	NutrientBorderline NutrientStatus = "BORDERLINE"
)

// WaterLossRate is the qualitative band of the daily ET estimate.
type WaterLossRate string

const (
	WaterLossLow      WaterLossRate = "low"
	WaterLossModerate WaterLossRate = "moderate"
	WaterLossHigh     WaterLossRate = "high"
)
