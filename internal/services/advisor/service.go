package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/LeonardoBeccarini/irrigation_advisor/internal/decision"
	"github.com/LeonardoBeccarini/irrigation_advisor/internal/model/entities"
	"github.com/LeonardoBeccarini/irrigation_advisor/internal/model/messages"
	"github.com/LeonardoBeccarini/irrigation_advisor/internal/observability/metrics"
)

// ErrInvalidRequest marks requests rejected at the boundary.
var ErrInvalidRequest = errors.New("invalid advice request")

const (
	SourceHTTP = "http"
	SourceGRPC = "grpc"
	SourceMQTT = "mqtt"
)

// Meta says where a request came from; field and sensor are set for MQTT readings.
type Meta struct {
	Source   string
	FieldID  string
	SensorID string
}

// Sink receives every produced record. Failures are logged, never returned
// to the caller.
type Sink interface {
	Name() string
	Record(ctx context.Context, meta Meta, rec messages.DecisionRecord) error
}

// CropSummary is the public view of a crop profile.
type CropSummary struct {
	Name          string   `json:"name"`
	MoistureRange string   `json:"moisture_range"`
	PHRange       string   `json:"ph_range"`
	TempRange     string   `json:"temp_range"`
	Stages        []string `json:"stages"`
}

type Service struct {
	engine   *decision.Engine
	validate *validator.Validate
	sinks    []Sink
}

func NewService(engine *decision.Engine, sinks ...Sink) *Service {
	metrics.Init()
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Service{
		engine:   engine,
		validate: v,
		sinks:    sinks,
	}
}

// DecodeAdviceRequest parses a JSON request body. Undecodable input wraps
// ErrInvalidRequest.
func DecodeAdviceRequest(raw []byte) (messages.AdviceRequest, error) {
	var req messages.AdviceRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return req, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return req, nil
}

// Advise runs one HTTP-originated analysis.
func (s *Service) Advise(ctx context.Context, req messages.AdviceRequest) (messages.DecisionRecord, error) {
	return s.AdviseFor(ctx, Meta{Source: SourceHTTP}, req)
}

// AdviseFor validates req, runs the engine and fans the record out to the sinks.
func (s *Service) AdviseFor(ctx context.Context, meta Meta, req messages.AdviceRequest) (messages.DecisionRecord, error) {
	start := time.Now()
	if err := s.validate.Struct(req); err != nil {
		metrics.ObserveAdvice(meta.Source, metrics.ResultInvalid, time.Since(start))
		return messages.DecisionRecord{}, fmt.Errorf("%w: %s", ErrInvalidRequest, describeValidation(err))
	}

	rec := s.engine.Analyze(*req.SoilData, *req.WeatherData, req.Params())

	metrics.ObserveAdvice(meta.Source, metrics.ResultSuccess, time.Since(start))
	alerts := make([]string, 0, len(rec.Alerts))
	for _, a := range rec.Alerts {
		alerts = append(alerts, string(a))
	}
	metrics.ObserveDecision(string(rec.Decision), rec.Crop, alerts)
	metrics.SetDecisionLogSize(s.engine.Log().Len())

	for _, sink := range s.sinks {
		if err := sink.Record(ctx, meta, rec); err != nil {
			metrics.IncSinkError(sink.Name())
			log.Printf("advisor: sink=%s record=%s err=%v", sink.Name(), rec.ID, err)
		}
	}
	return rec, nil
}

// History returns the latest limit records, most recent last, and the log size.
func (s *Service) History(limit int) ([]messages.DecisionRecord, int) {
	l := s.engine.Log()
	return l.Recent(limit), l.Len()
}

func (s *Service) Crops() map[string]CropSummary {
	reg := s.engine.Registry()
	out := make(map[string]CropSummary)
	for _, key := range reg.Keys() {
		out[key] = summarize(reg.Lookup(key))
	}
	return out
}

func summarize(c entities.CropProfile) CropSummary {
	return CropSummary{
		Name:          c.Name,
		MoistureRange: fmt.Sprintf("%g-%g%%", c.MoistureOptimalMin, c.MoistureOptimalMax),
		PHRange:       fmt.Sprintf("%.1f-%.1f", c.PHOptimalMin, c.PHOptimalMax),
		TempRange:     fmt.Sprintf("%g-%g°C", c.TempOptimalMin, c.TempOptimalMax),
		Stages:        c.GrowthStageFactor.Stages(),
	}
}

// describeValidation flattens validator errors into one line naming the JSON fields.
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, "missing required field "+fe.Field())
		case "gt":
			parts = append(parts, fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
