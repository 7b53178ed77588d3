package domain

import "fmt"

// DefaultLocation is assigned when a reading arrives without a location.
const DefaultLocation = "Field-1"

// SensorReading is one observation from a field sensor cluster.
type SensorReading struct {
	SoilMoisture float64 `json:"soil_moisture"` // percentage, 0–100
	Temperature  float64 `json:"temperature"`   // °C, -20–60
	Humidity     float64 `json:"humidity"`      // percentage, 0–100
	Location     string  `json:"location,omitempty"`
	CropType     string  `json:"crop_type,omitempty"`
}

// Validate checks the reading against the supported measurement ranges.
// Callers must validate before invoking the engine; the rules assume
// in-range numeric input.
func (r SensorReading) Validate() error {
	if r.SoilMoisture < 0 || r.SoilMoisture > 100 {
		return fmt.Errorf("soil_moisture %.1f out of range [0, 100]", r.SoilMoisture)
	}
	if r.Temperature < -20 || r.Temperature > 60 {
		return fmt.Errorf("temperature %.1f out of range [-20, 60]", r.Temperature)
	}
	if r.Humidity < 0 || r.Humidity > 100 {
		return fmt.Errorf("humidity %.1f out of range [0, 100]", r.Humidity)
	}
	return nil
}

// WithDefaults returns a copy of the reading with empty envelope fields
// filled in.
func (r SensorReading) WithDefaults() SensorReading {
	if r.Location == "" {
		r.Location = DefaultLocation
	}
	if r.CropType == "" {
		r.CropType = DefaultCropType
	}
	return r
}
