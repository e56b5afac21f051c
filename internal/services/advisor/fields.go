package advisor

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/LeonardoBeccarini/irrigation_advisor/internal/model/entities"
	"github.com/LeonardoBeccarini/irrigation_advisor/internal/model/messages"
)

// LoadFields reads the field configuration:
//
//	{"field1": {"crop_type": "tomato", "growth_stage": "flowering",
//	            "field_capacity": 120, "latitude": 41.9, "longitude": 12.5}}
//
// Numbers may also be strings ("41,9" included). Missing crop, stage and
// capacity take the request defaults.
func LoadFields(path string) (map[string]entities.Field, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// map[string]map[string]any per tollerare numeri come stringhe
	var m map[string]map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	out := make(map[string]entities.Field, len(m))
	for id, rec := range m {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("field with empty id in %s", path)
		}
		f := entities.Field{
			ID:            id,
			CropType:      messages.DefaultCropType,
			GrowthStage:   messages.DefaultGrowthStage,
			FieldCapacity: messages.DefaultFieldCapacity,
		}
		if v, ok := rec["crop_type"].(string); ok && strings.TrimSpace(v) != "" {
			f.CropType = v
		}
		if v, ok := rec["growth_stage"].(string); ok && strings.TrimSpace(v) != "" {
			f.GrowthStage = v
		}
		if v, ok := entities.ToF64(rec["field_capacity"]); ok {
			if v <= 0 {
				return nil, fmt.Errorf("field %s: field_capacity must be positive, got %g", id, v)
			}
			f.FieldCapacity = v
		}
		if v, ok := entities.ToF64(rec["latitude"]); ok {
			f.Latitude = v
		}
		if v, ok := entities.ToF64(rec["longitude"]); ok {
			f.Longitude = v
		}
		out[id] = f
	}
	return out, nil
}
