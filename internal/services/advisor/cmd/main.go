package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"google.golang.org/grpc"

	"github.com/LeonardoBeccarini/irrigation_advisor/internal/decision"
	"github.com/LeonardoBeccarini/irrigation_advisor/internal/services/advisor"
	"github.com/LeonardoBeccarini/irrigation_advisor/pkg/rabbitmq"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// === Engine ===
	reg, err := decision.LoadRegistry(cfg.CropProfilesPath)
	if err != nil {
		log.Fatalf("crop profiles: %v", err)
	}
	engine := decision.NewEngine(reg, decision.NewMemoryLog())
	log.Printf("advisor: %d crop profiles loaded", len(reg.Keys()))

	// === InfluxDB (opzionale) ===
	var sinks []advisor.Sink
	var writer *advisor.InfluxWriter
	if cfg.InfluxURL != "" {
		opts := influxdb2.DefaultOptions().
			SetBatchSize(uint(cfg.BatchSize)).
			SetFlushInterval(uint(cfg.FlushEvery.Milliseconds()))
		influx := influxdb2.NewClientWithOptions(cfg.InfluxURL, cfg.InfluxToken, opts)
		defer influx.Close()
		writer = advisor.NewInfluxWriter(influx.WriteAPI(cfg.InfluxOrg, cfg.InfluxBucket))
		sinks = append(sinks, writer)
		log.Printf("advisor: influx sink url=%s bucket=%s", cfg.InfluxURL, cfg.InfluxBucket)
	}

	svc := advisor.NewService(engine, sinks...)

	// === Forecast (opzionale) ===
	var forecasts advisor.Forecaster
	var cache *advisor.ForecastCache
	if cfg.OWMAPIKey != "" {
		var owmOpts []advisor.OWMOption
		if cfg.OWMBaseURL != "" {
			owmOpts = append(owmOpts, advisor.WithBaseURL(cfg.OWMBaseURL))
		}
		cache = advisor.NewForecastCache(advisor.NewOWMClient(cfg.OWMAPIKey, owmOpts...), cfg.ForecastTTL)
		forecasts = cache
	}

	// === MQTT controller (opzionale) ===
	var conn advisor.Connectivity
	if cfg.MQTTHost != "" {
		fields, err := advisor.LoadFields(cfg.FieldsPath)
		if err != nil {
			log.Fatalf("fields config: %v", err)
		}
		client, err := rabbitmq.Connect(ctx, rabbitmq.Config{
			Host:     cfg.MQTTHost,
			Port:     cfg.MQTTPort,
			User:     cfg.MQTTUser,
			Password: cfg.MQTTPassword,
			ClientID: cfg.ClientID,
		})
		if err != nil {
			log.Fatalf("MQTT connect failed: %v", err)
		}
		conn = client

		ctrl, err := advisor.NewController(svc, rabbitmq.NewPublisher(client), forecasts, fields, advisor.ControllerConfig{
			DecisionTopic:    cfg.DecisionTopic,
			RespectNextCheck: cfg.RespectNextCheck,
			DedupTTL:         cfg.DedupTTL,
		})
		if err != nil {
			log.Fatalf("controller init: %v", err)
		}
		if err := rabbitmq.NewConsumer(client, ctrl.HandleAggregated, cfg.AggregatedTopic).Subscribe(ctx); err != nil {
			log.Fatalf("subscribe %s: %v", cfg.AggregatedTopic, err)
		}
		log.Printf("advisor: MQTT controller running sub=%s fields=%d", cfg.AggregatedTopic, len(fields))

		if cache != nil {
			sched := advisor.NewRefreshScheduler(cache, fields, cfg.ForecastRefresh)
			if err := sched.Start(); err != nil {
				log.Fatalf("forecast scheduler: %v", err)
			}
			defer sched.Stop()
		}
	}

	// === HTTP ===
	mux := advisor.NewHTTPMux(svc,
		advisor.NewHealthHandler(conn, writer, version),
		advisor.NewReadyHandler(conn, writer, cfg.ReadinessGrace),
	)
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Printf("advisor: HTTP listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	// === gRPC ===
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		log.Fatalf("grpc listen: %v", err)
	}
	grpcServer := grpc.NewServer()
	advisor.RegisterAdvisorServer(grpcServer, advisor.NewGRPCServer(svc))
	go func() {
		log.Printf("advisor: gRPC listening on %s", lis.Addr())
		if err := grpcServer.Serve(lis); err != nil {
			log.Printf("grpc server stopped: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("advisor: shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	grpcServer.GracefulStop()
	writer.Flush()
}
