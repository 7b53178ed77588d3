// Command seed generates realistic sensor readings and submits them to a
// running advisor instance, either through the REST API or by publishing to
// the Kafka source topic when -brokers is set.
//
// Usage:
//
//	go run ./cmd/seed -api-url http://localhost:8080 -count 8
//	go run ./cmd/seed -brokers localhost:9092 -topic sensor-readings -count 8
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"time"

	kafkaadapter "github.com/tillhouse/agro-advisor/internal/adapter/kafka"
	"github.com/tillhouse/agro-advisor/internal/config"
	"github.com/tillhouse/agro-advisor/internal/domain"
)

// scenario bounds readings to a recognizable field condition.
type scenario struct {
	name     string
	moisture [2]float64
	temp     [2]float64
	humidity [2]float64
}

var scenarios = []scenario{
	{name: "normal", moisture: [2]float64{60, 75}, temp: [2]float64{20, 26}, humidity: [2]float64{60, 75}},
	{name: "drought", moisture: [2]float64{25, 40}, temp: [2]float64{30, 38}, humidity: [2]float64{30, 45}},
	{name: "overwater", moisture: [2]float64{85, 95}, temp: [2]float64{18, 24}, humidity: [2]float64{80, 95}},
	{name: "hot_day", moisture: [2]float64{45, 60}, temp: [2]float64{32, 40}, humidity: [2]float64{35, 50}},
	{name: "cold_night", moisture: [2]float64{55, 70}, temp: [2]float64{8, 15}, humidity: [2]float64{70, 85}},
}

var cropTypes = []string{"tomato", "lettuce", "wheat", "corn"}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	apiURL := flag.String("api-url", "http://localhost:8080", "base URL of the advisor API")
	brokers := flag.String("brokers", "", "comma-separated Kafka brokers; publishes to Kafka instead of the API")
	topic := flag.String("topic", "sensor-readings", "Kafka source topic (with -brokers)")
	count := flag.Int("count", 8, "number of readings to generate")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed for reproducible data")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))
	readings := make([]domain.SensorReading, 0, *count)
	for i := 0; i < *count; i++ {
		readings = append(readings, generateReading(rng, scenarios[i%len(scenarios)]))
	}

	if *brokers != "" {
		return publishToKafka(*brokers, *topic, readings)
	}
	return submitToAPI(*apiURL, readings)
}

// generateReading draws a reading uniformly from the scenario's ranges,
// rounded to one decimal like real gateway firmware reports.
func generateReading(rng *rand.Rand, sc scenario) domain.SensorReading {
	return domain.SensorReading{
		SoilMoisture: roundTo1(uniform(rng, sc.moisture)),
		Temperature:  roundTo1(uniform(rng, sc.temp)),
		Humidity:     roundTo1(uniform(rng, sc.humidity)),
		Location:     domain.DefaultLocation,
		CropType:     cropTypes[rng.Intn(len(cropTypes))],
	}
}

func submitToAPI(baseURL string, readings []domain.SensorReading) error {
	endpoint := strings.TrimRight(baseURL, "/") + "/api/sensor-data"
	client := &http.Client{Timeout: 10 * time.Second}

	success := 0
	for i, reading := range readings {
		payload, err := json.Marshal(reading)
		if err != nil {
			return fmt.Errorf("marshal reading: %w", err)
		}

		resp, err := client.Post(endpoint, "application/json", bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("post reading %d: %w", i+1, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			log.Printf("[%d/%d] rejected (%d): %s", i+1, len(readings), resp.StatusCode, bytes.TrimSpace(body))
			continue
		}

		var result struct {
			Recommendations struct {
				IrrigationAction string `json:"irrigation_action"`
				AlertLevel       string `json:"alert_level"`
			} `json:"recommendations"`
		}
		if err := json.Unmarshal(body, &result); err != nil {
			return fmt.Errorf("decode response %d: %w", i+1, err)
		}

		log.Printf("[%d/%d] %s moisture=%.1f temp=%.1f humidity=%.1f -> irrigation=%s alert=%s",
			i+1, len(readings), reading.CropType,
			reading.SoilMoisture, reading.Temperature, reading.Humidity,
			result.Recommendations.IrrigationAction, result.Recommendations.AlertLevel)
		success++
	}

	log.Printf("submitted %d/%d readings to %s", success, len(readings), endpoint)
	return nil
}

func publishToKafka(brokers, topic string, readings []domain.SensorReading) error {
	cfg := &config.Config{
		KafkaBrokers:     strings.Split(brokers, ","),
		KafkaSourceTopic: topic,
	}
	writer := kafkaadapter.NewWriter(cfg, slog.Default())
	defer writer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := writer.PublishBatch(ctx, readings); err != nil {
		return fmt.Errorf("publish readings: %w", err)
	}
	log.Printf("published %d readings to topic %s", len(readings), topic)
	return nil
}

func uniform(rng *rand.Rand, bounds [2]float64) float64 {
	return bounds[0] + rng.Float64()*(bounds[1]-bounds[0])
}

func roundTo1(v float64) float64 {
	return math.Round(v*10) / 10
}
