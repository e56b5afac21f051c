package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const version = "1.0.0"

type Config struct {
	HTTPPort string
	GRPCPort string

	CropProfilesPath string // YAML, optional
	FieldsPath       string // JSON, optional: senza campi niente MQTT controller

	// MQTT (RabbitMQ mqtt plugin); vuoto = disabilitato
	MQTTHost         string
	MQTTPort         int
	MQTTUser         string
	MQTTPassword     string
	ClientID         string
	AggregatedTopic  string
	DecisionTopic    string
	RespectNextCheck bool
	DedupTTL         time.Duration

	// InfluxDB; vuoto = disabilitato
	InfluxURL    string
	InfluxToken  string
	InfluxOrg    string
	InfluxBucket string
	BatchSize    int
	FlushEvery   time.Duration

	// OpenWeather
	OWMAPIKey       string
	OWMBaseURL      string
	ForecastTTL     time.Duration
	ForecastRefresh time.Duration

	ReadinessGrace time.Duration
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// envDuration accetta "90s", "5m" oppure un numero di secondi.
func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}

// loadConfig reads .env (if present) and then the environment.
func loadConfig() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPPort: env("PORT", "5000"),
		GRPCPort: env("GRPC_PORT", "50051"),

		CropProfilesPath: env("CROP_PROFILES_PATH", ""),
		FieldsPath:       env("FIELDS_CONFIG_PATH", ""),

		MQTTHost:         env("RABBITMQ_HOST", ""),
		MQTTPort:         envInt("RABBITMQ_PORT", 1883),
		MQTTUser:         env("RABBITMQ_USER", "guest"),
		MQTTPassword:     env("RABBITMQ_PASSWORD", "guest"),
		ClientID:         fmt.Sprintf("IrrigationAdvisor-%s", env("HOSTNAME", "local")),
		AggregatedTopic:  env("AGGREGATED_SUB_TOPIC", "sensor/aggregated/#"),
		DecisionTopic:    env("DECISION_TOPIC_TEMPLATE", "event/irrigationDecision/{field}/{sensor}"),
		RespectNextCheck: envBool("RESPECT_NEXT_CHECK", true),
		DedupTTL:         envDuration("DEDUP_TTL", 10*time.Minute),

		InfluxURL:    env("INFLUX_URL", ""),
		InfluxToken:  env("INFLUX_TOKEN", ""),
		InfluxOrg:    env("INFLUX_ORG", "sdcc"),
		InfluxBucket: env("INFLUX_BUCKET", "decisions"),
		BatchSize:    envInt("WRITE_BATCH_SIZE", 10),
		FlushEvery:   time.Duration(envInt("WRITE_FLUSH_INTERVAL_MS", 200)) * time.Millisecond,

		OWMAPIKey:       env("OWM_API_KEY", ""),
		OWMBaseURL:      env("OWM_BASE_URL", ""),
		ForecastTTL:     envDuration("FORECAST_TTL", time.Hour),
		ForecastRefresh: envDuration("FORECAST_REFRESH_INTERVAL", 30*time.Minute),

		ReadinessGrace: envDuration("READINESS_GRACE", 5*time.Second),
	}
	if cfg.BatchSize <= 0 {
		return cfg, fmt.Errorf("WRITE_BATCH_SIZE must be positive, got %d", cfg.BatchSize)
	}
	if cfg.MQTTHost != "" && cfg.FieldsPath == "" {
		return cfg, fmt.Errorf("RABBITMQ_HOST set but FIELDS_CONFIG_PATH is empty")
	}
	return cfg, nil
}
