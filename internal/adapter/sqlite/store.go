// Package sqlite persists sensor readings and the recommendations derived
// from them, for later review through the query endpoints.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	_ "github.com/mattn/go-sqlite3"

	"github.com/tillhouse/agro-advisor/internal/domain"
)

// ErrNotFound indicates the requested row does not exist.
var ErrNotFound = errors.New("not found")

// timeLayout is RFC 3339 with fixed-width nanoseconds so stored TEXT
// timestamps sort lexicographically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS sensor_readings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp TEXT NOT NULL,
	soil_moisture REAL NOT NULL,
	temperature REAL NOT NULL,
	humidity REAL NOT NULL,
	location TEXT NOT NULL DEFAULT 'Field-1'
);
CREATE INDEX IF NOT EXISTS idx_readings_timestamp ON sensor_readings(timestamp);

CREATE TABLE IF NOT EXISTS recommendations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp TEXT NOT NULL,
	reading_id INTEGER NOT NULL,
	irrigation_action TEXT NOT NULL,
	irrigation_amount REAL NOT NULL,
	irrigation_reasoning TEXT NOT NULL,
	fertilizer_action TEXT NOT NULL,
	fertilizer_type TEXT,
	fertilizer_reasoning TEXT NOT NULL,
	alert_level TEXT NOT NULL,
	alert_message TEXT
);
CREATE INDEX IF NOT EXISTS idx_recommendations_timestamp ON recommendations(timestamp);
`

// Reading is a persisted sensor observation.
type Reading struct {
	ID           int64     `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	SoilMoisture float64   `json:"soil_moisture"`
	Temperature  float64   `json:"temperature"`
	Humidity     float64   `json:"humidity"`
	Location     string    `json:"location"`
}

// Recommendation is a persisted advisory, flattened for storage and review.
// AlertMessage holds the alert messages joined with " | ", empty when none
// were triggered.
type Recommendation struct {
	ID                  int64     `json:"id"`
	Timestamp           time.Time `json:"timestamp"`
	ReadingID           int64     `json:"reading_id"`
	IrrigationAction    string    `json:"irrigation_action"`
	IrrigationAmount    float64   `json:"irrigation_amount"`
	IrrigationReasoning string    `json:"irrigation_reasoning"`
	FertilizerAction    string    `json:"fertilizer_action"`
	FertilizerType      string    `json:"fertilizer_type,omitempty"`
	FertilizerReasoning string    `json:"fertilizer_reasoning"`
	AlertLevel          string    `json:"alert_level"`
	AlertMessage        string    `json:"alert_message,omitempty"`
}

// Store is a SQLite-backed repository for readings and recommendations.
type Store struct {
	db    *sql.DB
	clock clockwork.Clock
}

// New opens (creating if necessary) the database at path and ensures the
// schema exists. Row timestamps come from clock.
func New(path string, clock clockwork.Clock) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, clock: clock}, nil
}

// RecordAnalysis persists a reading and its recommendation in one
// transaction so review queries never see one without the other.
func (s *Store) RecordAnalysis(ctx context.Context, reading domain.SensorReading, analysis domain.Analysis) (Reading, Recommendation, error) {
	var r Reading
	var rec Recommendation

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return r, rec, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if r, err = s.insertReading(ctx, tx, reading); err != nil {
		return r, rec, err
	}
	if rec, err = s.insertRecommendation(ctx, tx, r.ID, analysis); err != nil {
		return r, rec, err
	}
	if err := tx.Commit(); err != nil {
		return r, rec, fmt.Errorf("commit: %w", err)
	}
	return r, rec, nil
}

// RecordBatch persists multiple reading/analysis pairs in one transaction.
// Either every pair lands or none do, which keeps Kafka offset commits safe
// to replay.
func (s *Store) RecordBatch(ctx context.Context, readings []domain.SensorReading, analyses []domain.Analysis) error {
	if len(readings) != len(analyses) {
		return fmt.Errorf("mismatched batch: %d readings, %d analyses", len(readings), len(analyses))
	}
	if len(readings) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for i := range readings {
		r, err := s.insertReading(ctx, tx, readings[i])
		if err != nil {
			return err
		}
		if _, err := s.insertRecommendation(ctx, tx, r.ID, analyses[i]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) insertReading(ctx context.Context, tx *sql.Tx, reading domain.SensorReading) (Reading, error) {
	now := s.clock.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO sensor_readings (timestamp, soil_moisture, temperature, humidity, location)
		 VALUES (?, ?, ?, ?, ?)`,
		now.Format(timeLayout), reading.SoilMoisture, reading.Temperature, reading.Humidity, reading.Location,
	)
	if err != nil {
		return Reading{}, fmt.Errorf("insert reading: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Reading{}, fmt.Errorf("reading insert id: %w", err)
	}
	return Reading{
		ID:           id,
		Timestamp:    now,
		SoilMoisture: reading.SoilMoisture,
		Temperature:  reading.Temperature,
		Humidity:     reading.Humidity,
		Location:     reading.Location,
	}, nil
}

func (s *Store) insertRecommendation(ctx context.Context, tx *sql.Tx, readingID int64, analysis domain.Analysis) (Recommendation, error) {
	now := s.clock.Now().UTC()
	alertMessage := strings.Join(analysis.Alerts.Messages, " | ")

	res, err := tx.ExecContext(ctx,
		`INSERT INTO recommendations (
			timestamp, reading_id,
			irrigation_action, irrigation_amount, irrigation_reasoning,
			fertilizer_action, fertilizer_type, fertilizer_reasoning,
			alert_level, alert_message
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		now.Format(timeLayout), readingID,
		string(analysis.Irrigation.Action), analysis.Irrigation.Amount, analysis.Irrigation.Reasoning,
		string(analysis.Fertilizer.Action), nullIfEmpty(analysis.Fertilizer.Type), analysis.Fertilizer.Reasoning,
		string(analysis.Alerts.Level), nullIfEmpty(alertMessage),
	)
	if err != nil {
		return Recommendation{}, fmt.Errorf("insert recommendation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Recommendation{}, fmt.Errorf("recommendation insert id: %w", err)
	}
	return Recommendation{
		ID:                  id,
		Timestamp:           now,
		ReadingID:           readingID,
		IrrigationAction:    string(analysis.Irrigation.Action),
		IrrigationAmount:    analysis.Irrigation.Amount,
		IrrigationReasoning: analysis.Irrigation.Reasoning,
		FertilizerAction:    string(analysis.Fertilizer.Action),
		FertilizerType:      analysis.Fertilizer.Type,
		FertilizerReasoning: analysis.Fertilizer.Reasoning,
		AlertLevel:          string(analysis.Alerts.Level),
		AlertMessage:        alertMessage,
	}, nil
}

// LatestReadings returns the most recent readings, newest first.
func (s *Store) LatestReadings(ctx context.Context, limit int) ([]Reading, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp, soil_moisture, temperature, humidity, location
		 FROM sensor_readings ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer rows.Close()

	var readings []Reading
	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

// ReadingByID returns a single reading, or ErrNotFound.
func (s *Store) ReadingByID(ctx context.Context, id int64) (Reading, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, timestamp, soil_moisture, temperature, humidity, location
		 FROM sensor_readings WHERE id = ?`, id)

	r, err := scanReading(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Reading{}, ErrNotFound
	}
	return r, err
}

// LatestRecommendations returns the most recent recommendations, newest first.
func (s *Store) LatestRecommendations(ctx context.Context, limit int) ([]Recommendation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp, reading_id,
			irrigation_action, irrigation_amount, irrigation_reasoning,
			fertilizer_action, fertilizer_type, fertilizer_reasoning,
			alert_level, alert_message
		 FROM recommendations ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recommendations: %w", err)
	}
	defer rows.Close()

	var recs []Recommendation
	for rows.Next() {
		var rec Recommendation
		var ts string
		var fertType, alertMessage sql.NullString
		if err := rows.Scan(
			&rec.ID, &ts, &rec.ReadingID,
			&rec.IrrigationAction, &rec.IrrigationAmount, &rec.IrrigationReasoning,
			&rec.FertilizerAction, &fertType, &rec.FertilizerReasoning,
			&rec.AlertLevel, &alertMessage,
		); err != nil {
			return nil, fmt.Errorf("scan recommendation: %w", err)
		}
		rec.Timestamp, err = parseTimestamp(ts)
		if err != nil {
			return nil, err
		}
		rec.FertilizerType = fertType.String
		rec.AlertMessage = alertMessage.String
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReading(row rowScanner) (Reading, error) {
	var r Reading
	var ts string
	if err := row.Scan(&r.ID, &ts, &r.SoilMoisture, &r.Temperature, &r.Humidity, &r.Location); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r, err
		}
		return r, fmt.Errorf("scan reading: %w", err)
	}
	var err error
	r.Timestamp, err = parseTimestamp(ts)
	return r, err
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
