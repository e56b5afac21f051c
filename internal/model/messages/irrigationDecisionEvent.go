package messages

// IrrigationDecisionEvent is published by the advisor for every reading it analysed.
type IrrigationDecisionEvent struct {
	FieldID  string         `json:"field_id"`
	SensorID string         `json:"sensor_id"`
	Decision DecisionRecord `json:"decision"`
}
