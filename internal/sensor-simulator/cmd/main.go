package main

import (
	"context"
	"flag"
	"log"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	sensorSimulator "github.com/LeonardoBeccarini/irrigation_advisor/internal/sensor-simulator"
	"github.com/LeonardoBeccarini/irrigation_advisor/pkg/rabbitmq"
)

func main() {
	sensorID := flag.String("sensor-id", "sensor1", "unique sensor identifier")
	fieldID := flag.String("field-id", "field1", "unique field identifier")
	clientID := flag.String("client-id", "sensorPublisher1", "MQTT client ID")
	host := flag.String("host", "localhost", "MQTT broker host")
	port := flag.Int("port", 1883, "MQTT broker port")
	interval := flag.Duration("interval", 10*time.Second, "publish interval")
	halfLife := flag.Duration("half-life", 2*time.Hour, "moisture half life without irrigation")
	lat := flag.Float64("lat", 41.51109, "latitude")
	lon := flag.Float64("lon", 12.37007, "longitude")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := rabbitmq.Connect(ctx, rabbitmq.Config{
		Host:     *host,
		Port:     *port,
		User:     "guest",
		Password: "guest",
		ClientID: *clientID,
	})
	if err != nil {
		log.Fatal(err)
	}

	decay := math.Log(2) / halfLife.Minutes()
	gen := sensorSimulator.NewDataGenerator(decay, time.Now().UnixNano())
	if err := gen.SeedFromSoilGrids(ctx, *lat, *lon); err != nil {
		log.Printf("sensor: soilgrids seed failed, using default: %v", err)
	}

	sim := sensorSimulator.NewSensorSimulator(rabbitmq.NewPublisher(client), gen, *fieldID, *sensorID)
	decisions := strings.NewReplacer("{field}", *fieldID, "{sensor}", *sensorID).
		Replace("event/irrigationDecision/{field}/{sensor}")
	if err := rabbitmq.NewConsumer(client, sim.HandleDecision, decisions).Subscribe(ctx); err != nil {
		log.Fatalf("subscribe %s: %v", decisions, err)
	}

	log.Printf("sensor: simulator running pub=%s sub=%s every %s", sim.Topic(), decisions, *interval)
	sim.Start(ctx, *interval)
}
