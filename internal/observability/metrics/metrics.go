package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "irrigation_"

	ResultSuccess = "success"
	ResultInvalid = "invalid"
	ResultError   = "error"

	// MQTT delivery outcomes.
	MessageProcessed = "processed"
	MessageDuplicate = "duplicate"
	MessageSkipped   = "skipped"
	MessageIgnored   = "ignored"
)

var (
	registerOnce sync.Once

	adviceRequests *prometheus.CounterVec
	adviceLatency  *prometheus.HistogramVec

	decisionsTotal *prometheus.CounterVec
	alertsTotal    *prometheus.CounterVec
	decisionLog    prometheus.Gauge

	forecastFetches *prometheus.CounterVec
	mqttMessages    *prometheus.CounterVec
	sinkErrors      *prometheus.CounterVec
)

// Init registers the advisor metrics on the default registry. Safe to call
// more than once.
func Init() {
	registerOnce.Do(func() {
		adviceRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "advice_requests_total",
				Help: "Advice requests by source and result",
			},
			[]string{"source", "result"},
		)
		adviceLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "advice_latency_seconds",
				Help:    "Advice latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		)
		decisionsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "decisions_total",
				Help: "Decisions produced by advice and crop",
			},
			[]string{"decision", "crop"},
		)
		alertsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alerts_total",
				Help: "Alert tags raised by type",
			},
			[]string{"alert"},
		)
		decisionLog = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "decision_log_records",
				Help: "Records held by the decision log",
			},
		)
		forecastFetches = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "forecast_fetch_total",
				Help: "Forecast provider calls by result",
			},
			[]string{"result"},
		)
		mqttMessages = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "mqtt_messages_total",
				Help: "Sensor messages by outcome",
			},
			[]string{"outcome"},
		)
		sinkErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "sink_errors_total",
				Help: "Decision sink failures by sink",
			},
			[]string{"sink"},
		)

		prometheus.MustRegister(
			adviceRequests,
			adviceLatency,
			decisionsTotal,
			alertsTotal,
			decisionLog,
			forecastFetches,
			mqttMessages,
			sinkErrors,
		)
	})
}

// ObserveAdvice records one advice call.
func ObserveAdvice(source, result string, duration time.Duration) {
	if source == "" {
		source = "unknown"
	}
	if result == "" {
		result = ResultSuccess
	}
	if adviceRequests != nil {
		adviceRequests.WithLabelValues(source, result).Inc()
	}
	if adviceLatency != nil {
		adviceLatency.WithLabelValues(source).Observe(duration.Seconds())
	}
}

// ObserveDecision counts a produced decision and its alert tags.
func ObserveDecision(decision, crop string, alerts []string) {
	if decisionsTotal != nil {
		decisionsTotal.WithLabelValues(decision, crop).Inc()
	}
	if alertsTotal != nil {
		for _, a := range alerts {
			alertsTotal.WithLabelValues(a).Inc()
		}
	}
}

func SetDecisionLogSize(n int) {
	if decisionLog != nil {
		decisionLog.Set(float64(n))
	}
}

func IncForecastFetch(result string) {
	if result == "" {
		result = ResultSuccess
	}
	if forecastFetches != nil {
		forecastFetches.WithLabelValues(result).Inc()
	}
}

func IncMQTTMessage(outcome string) {
	if mqttMessages != nil {
		mqttMessages.WithLabelValues(outcome).Inc()
	}
}

func IncSinkError(sink string) {
	if sink == "" {
		sink = "unknown"
	}
	if sinkErrors != nil {
		sinkErrors.WithLabelValues(sink).Inc()
	}
}
