package entities

import "encoding/json"

// SoilReading is one set of soil sensor values. Fields missing from the
// payload keep the defaults of DefaultSoilReading.
type SoilReading struct {
	Moisture    float64 `json:"soil_moisture"` // %
	PH          float64 `json:"ph"`
	Nitrogen    float64 `json:"nitrogen"`   // mg/kg
	Phosphorus  float64 `json:"phosphorus"` // mg/kg
	Potassium   float64 `json:"potassium"`  // mg/kg
	Temperature float64 `json:"temperature"`
}

func DefaultSoilReading() SoilReading {
	return SoilReading{
		Moisture:    50,
		PH:          6.5,
		Nitrogen:    100,
		Phosphorus:  40,
		Potassium:   150,
		Temperature: 22,
	}
}

// UnmarshalJSON accepts numbers or numeric strings; null and absent keys fall back to defaults.
func (s *SoilReading) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	out := DefaultSoilReading()
	for key, dst := range map[string]*float64{
		"soil_moisture": &out.Moisture,
		"ph":            &out.PH,
		"nitrogen":      &out.Nitrogen,
		"phosphorus":    &out.Phosphorus,
		"potassium":     &out.Potassium,
		"temperature":   &out.Temperature,
	} {
		if err := numberField(m, "soil_data", key, dst); err != nil {
			return err
		}
	}
	*s = out
	return nil
}
