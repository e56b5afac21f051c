package entities

import "encoding/json"

// WeatherForecast is the short-range forecast used for a decision.
type WeatherForecast struct {
	RainProbability float64 `json:"rain_probability"` // 0..100
	RainAmountMM    float64 `json:"rain_amount_mm"`
	Temperature     float64 `json:"temperature"` // °C
	Humidity        float64 `json:"humidity"`    // %
	WindSpeed       float64 `json:"wind_speed"`
}

func DefaultWeatherForecast() WeatherForecast {
	return WeatherForecast{
		RainProbability: 0,
		RainAmountMM:    0,
		Temperature:     25,
		Humidity:        60,
		WindSpeed:       5,
	}
}

func (w *WeatherForecast) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	out := DefaultWeatherForecast()
	for key, dst := range map[string]*float64{
		"rain_probability": &out.RainProbability,
		"rain_amount_mm":   &out.RainAmountMM,
		"temperature":      &out.Temperature,
		"humidity":         &out.Humidity,
		"wind_speed":       &out.WindSpeed,
	} {
		if err := numberField(m, "weather_data", key, dst); err != nil {
			return err
		}
	}
	*w = out
	return nil
}
