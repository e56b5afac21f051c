package advisor

import (
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/LeonardoBeccarini/irrigation_advisor/internal/model/messages"
)

const decisionMeasurement = "irrigation_decision"

// DecisionToPoint normalizza un DecisionRecord in un punto InfluxDB.
func DecisionToPoint(meta Meta, rec messages.DecisionRecord) *write.Point {
	source := meta.Source
	if source == "" {
		source = "unknown"
	}
	tags := map[string]string{
		"decision":        string(rec.Decision),
		"crop":            rec.Crop,
		"growth_stage":    rec.GrowthStage,
		"moisture_status": string(rec.Analysis.Soil.MoistureStatus),
		"weather_status":  string(rec.Analysis.Weather.Status),
		"nutrient_status": string(rec.Analysis.Soil.Nutrients.Status),
		"source":          source,
	}
	if meta.FieldID != "" {
		tags["field_id"] = meta.FieldID
	}
	if meta.SensorID != "" {
		tags["sensor_id"] = meta.SensorID
	}

	fields := map[string]interface{}{
		"moisture":                rec.Analysis.Soil.Moisture,
		"et_daily_mm":             rec.Analysis.Evapotranspiration.DailyETMM,
		"irrigation_amount_mm":    rec.Recommendations.IrrigationAmountMM,
		"irrigation_duration_min": rec.Recommendations.IrrigationDurationMinutes,
		"next_check_hours":        int64(rec.Recommendations.NextCheckHours),
		"alert_count":             int64(len(rec.Alerts)),
	}
	return influxdb2.NewPoint(decisionMeasurement, tags, fields, rec.Timestamp)
}
