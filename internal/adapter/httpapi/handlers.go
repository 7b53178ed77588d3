package httpapi

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/tillhouse/agro-advisor/internal/adapter/sqlite"
	"github.com/tillhouse/agro-advisor/internal/domain"
)

const (
	defaultQueryLimit = 10
	maxQueryLimit     = 1000
	statsWindow       = 100
)

// handleSubmitReading stores a reading, runs the decision engine, stores the
// resulting recommendation, and returns both records.
func (s *Server) handleSubmitReading(w http.ResponseWriter, r *http.Request) {
	reading, ok := s.decodeReading(w, r)
	if !ok {
		return
	}

	analysis := domain.Analyze(reading, reading.CropType)
	s.metrics.AnalysesPerformed.Inc()

	stored, rec, err := s.store.RecordAnalysis(r.Context(), reading, analysis)
	if err != nil {
		s.logger.Error("record analysis failed", "error", err)
		writeError(w, http.StatusInternalServerError, "error processing sensor data")
		return
	}
	s.metrics.ReadingsIngested.Inc()
	s.metrics.Recommendations.WithLabelValues(string(analysis.Alerts.Level)).Inc()

	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"sensor_data":     stored,
		"recommendations": rec,
	})
}

// handleAnalyze runs the decision engine without persisting anything,
// for what-if scenarios.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	reading, ok := s.decodeReading(w, r)
	if !ok {
		return
	}

	analysis := domain.Analyze(reading, reading.CropType)
	s.metrics.AnalysesPerformed.Inc()

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"analysis": analysis,
		"input":    reading,
	})
}

func (s *Server) handleLatestReadings(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	readings, err := s.store.LatestReadings(r.Context(), limit)
	if err != nil {
		s.logger.Error("latest readings query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "error fetching sensor data")
		return
	}
	if readings == nil {
		readings = []sqlite.Reading{}
	}
	writeJSON(w, http.StatusOK, readings)
}

func (s *Server) handleReadingByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid reading id")
		return
	}

	reading, err := s.store.ReadingByID(r.Context(), id)
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "sensor data not found")
		return
	}
	if err != nil {
		s.logger.Error("reading query failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "error fetching sensor data")
		return
	}
	writeJSON(w, http.StatusOK, reading)
}

func (s *Server) handleLatestRecommendations(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	recs, err := s.store.LatestRecommendations(r.Context(), limit)
	if err != nil {
		s.logger.Error("latest recommendations query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "error fetching recommendations")
		return
	}
	if recs == nil {
		recs = []sqlite.Recommendation{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleCrops(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"crops":   domain.Profiles(),
	})
}

// handleStats summarizes the most recent readings and recommendations:
// measurement averages plus recommendation counts per alert level.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	readings, err := s.store.LatestReadings(r.Context(), statsWindow)
	if err != nil {
		s.logger.Error("stats readings query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "error calculating statistics")
		return
	}
	recs, err := s.store.LatestRecommendations(r.Context(), statsWindow)
	if err != nil {
		s.logger.Error("stats recommendations query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "error calculating statistics")
		return
	}

	var avgMoisture, avgTemp, avgHumidity float64
	if len(readings) > 0 {
		for _, rd := range readings {
			avgMoisture += rd.SoilMoisture
			avgTemp += rd.Temperature
			avgHumidity += rd.Humidity
		}
		n := float64(len(readings))
		avgMoisture = roundTo2(avgMoisture / n)
		avgTemp = roundTo2(avgTemp / n)
		avgHumidity = roundTo2(avgHumidity / n)
	}

	alertCounts := map[string]int{"none": 0, "warning": 0, "critical": 0}
	for _, rec := range recs {
		alertCounts[rec.AlertLevel]++
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":               true,
		"total_readings":        len(readings),
		"total_recommendations": len(recs),
		"averages": map[string]float64{
			"soil_moisture": avgMoisture,
			"temperature":   avgTemp,
			"humidity":      avgHumidity,
		},
		"alert_counts": alertCounts,
	})
}

// decodeReading parses and validates the reading payload, writing a 400 and
// returning ok=false on any caller error. The engine only ever sees
// validated input.
func (s *Server) decodeReading(w http.ResponseWriter, r *http.Request) (domain.SensorReading, bool) {
	var reading domain.SensorReading
	if err := json.NewDecoder(r.Body).Decode(&reading); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return reading, false
	}
	reading = reading.WithDefaults()
	if err := reading.Validate(); err != nil {
		s.metrics.ReadingsRejected.Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return reading, false
	}
	return reading, true
}

func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultQueryLimit, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > maxQueryLimit {
		writeError(w, http.StatusBadRequest, "limit must be an integer between 1 and 1000")
		return 0, false
	}
	return limit, true
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
