package entities

// Field represents a tract of land growing a particular crop. The MQTT
// controller uses it to turn a sensor reading into an advice request.
type Field struct {
	ID            string  `json:"id"`
	CropType      string  `json:"crop_type"`      // e.g. "tomato", "maize"
	GrowthStage   string  `json:"growth_stage"`   // key into the crop stage factors
	FieldCapacity float64 `json:"field_capacity"` // water holding capacity used for the dose
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
}

// HasLocation reports whether a forecast can be fetched for the field.
func (f Field) HasLocation() bool {
	return f.Latitude != 0 || f.Longitude != 0
}
