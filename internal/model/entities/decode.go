package entities

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// numberField writes m[key] into dst when present and not null.
// Numeric strings ("6,5" included) are accepted as sensors often send them.
func numberField(m map[string]any, record, key string, dst *float64) error {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	f, ok := ToF64(v)
	if !ok {
		return fmt.Errorf("%s.%s: not a number: %v", record, key, v)
	}
	*dst = f
	return nil
}

// ToF64 converts JSON-decoded numbers and numeric strings to float64.
// NaN and infinities are not numbers here.
func ToF64(v any) (float64, bool) {
	f, ok := toF64(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toF64(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(t), ",", "."), 64)
		if err == nil {
			return f, true
		}
	}
	return 0, false
}
