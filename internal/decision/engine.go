package decision

import (
	"time"

	"github.com/google/uuid"

	"github.com/LeonardoBeccarini/irrigation_advisor/internal/model/entities"
	"github.com/LeonardoBeccarini/irrigation_advisor/internal/model/messages"
)

// Confidence is reported on every record; the rule set has no scoring.
const Confidence = 100

// Engine turns a soil reading and a forecast into a DecisionRecord.
// Its configuration is fixed at construction, so Analyze is safe for
// concurrent use as long as the Log is.
type Engine struct {
	registry *Registry
	log      Log
	checks   []Check
	now      func() time.Time
	newID    func() string
}

type Option func(*Engine)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDs overrides the record ID generator.
func WithIDs(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// WithChecks appends checks that run after the built-in ones.
func WithChecks(checks ...Check) Option {
	return func(e *Engine) { e.checks = append(e.checks, checks...) }
}

// NewEngine wires an engine. A nil registry means the built-in table and a nil
// log means a fresh MemoryLog.
func NewEngine(reg *Registry, log Log, opts ...Option) *Engine {
	if reg == nil {
		reg = DefaultRegistry()
	}
	if log == nil {
		log = NewMemoryLog()
	}
	e := &Engine{
		registry: reg,
		log:      log,
		checks:   BuiltinChecks(),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) Registry() *Registry { return e.registry }
func (e *Engine) Log() Log             { return e.log }

// Analyze evaluates one reading, appends the record to the log and returns it.
// It never fails: missing inputs have already been defaulted by the caller.
func (e *Engine) Analyze(soil entities.SoilReading, weather entities.WeatherForecast, p messages.Params) messages.DecisionRecord {
	crop := e.registry.Lookup(p.CropType)
	stageFactor := crop.StageFactor(p.GrowthStage)

	moistureStatus := ClassifyMoisture(soil.Moisture, crop, p.GrowthStage)
	weatherStatus := ClassifyWeather(weather)
	nutrientStatus := ClassifyNutrients(soil, crop)

	alerts := &Alerts{}
	in := Input{Soil: soil, Weather: weather, Crop: crop, Stage: p.GrowthStage}
	for _, check := range e.checks {
		check(in, alerts)
	}

	advice := Decide(moistureStatus, weatherStatus, weather.RainProbability, alerts.Tags())
	et := EstimateET(weather, stageFactor)

	var amount, duration float64
	if advice == entities.AdviceIrrigate {
		amount = IrrigationAmount(soil.Moisture, crop, p.FieldCapacity)
		duration = IrrigationDuration(amount)
		alerts.Note("Recommended irrigation: %.1fmm for %.0f minutes", amount, duration)
	}

	rec := messages.DecisionRecord{
		ID:          e.newID(),
		Timestamp:   e.now(),
		Decision:    advice,
		Confidence:  Confidence,
		Crop:        crop.Name,
		GrowthStage: p.GrowthStage,
		Analysis: messages.Analysis{
			Soil: messages.SoilAnalysis{
				Moisture:       soil.Moisture,
				MoistureStatus: moistureStatus,
				PH:             soil.PH,
				Temperature:    soil.Temperature,
				Nutrients: messages.NutrientAnalysis{
					Nitrogen:   soil.Nitrogen,
					Phosphorus: soil.Phosphorus,
					Potassium:  soil.Potassium,
					Status:     nutrientStatus,
				},
			},
			Weather: messages.WeatherAnalysis{
				Temperature:     weather.Temperature,
				Humidity:        weather.Humidity,
				RainProbability: weather.RainProbability,
				RainAmount:      weather.RainAmountMM,
				WindSpeed:       weather.WindSpeed,
				Status:          weatherStatus,
			},
			Evapotranspiration: messages.EvapotranspirationAnalysis{
				DailyETMM:     et,
				WaterLossRate: WaterLoss(et),
			},
		},
		Alerts:  alerts.Tags(),
		Reasons: alerts.Reasons(),
		Recommendations: messages.Recommendations{
			IrrigationAmountMM:        amount,
			IrrigationDurationMinutes: duration,
			NextCheckHours:            NextCheckHours(advice, weatherStatus),
		},
	}
	e.log.Append(rec)
	return rec.Clone()
}
