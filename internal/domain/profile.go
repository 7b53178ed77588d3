package domain

import "strings"

// Range is an inclusive [Min, Max] band for a measured quantity.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v falls inside the band, bounds included.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// CropProfile defines the optimal growing conditions for a crop type.
type CropProfile struct {
	Name        string `json:"name"`
	Moisture    Range  `json:"optimal_moisture"`    // soil moisture percentage
	Temperature Range  `json:"optimal_temperature"` // degrees Celsius
	Humidity    Range  `json:"optimal_humidity"`    // relative humidity percentage
}

// DefaultCropType is the registry key used when no crop type is given.
const DefaultCropType = "default"

// cropProfiles is the fixed profile registry. Profiles are never mutated at
// runtime; new crops are added here.
var cropProfiles = map[string]CropProfile{
	"tomato":  {Name: "Tomato", Moisture: Range{60, 80}, Temperature: Range{18, 27}, Humidity: Range{60, 80}},
	"lettuce": {Name: "Lettuce", Moisture: Range{70, 85}, Temperature: Range{15, 20}, Humidity: Range{60, 75}},
	"wheat":   {Name: "Wheat", Moisture: Range{40, 60}, Temperature: Range{15, 25}, Humidity: Range{50, 70}},
	"corn":    {Name: "Corn", Moisture: Range{50, 70}, Temperature: Range{20, 30}, Humidity: Range{60, 80}},
	"default": {Name: "Default Crop", Moisture: Range{50, 75}, Temperature: Range{18, 28}, Humidity: Range{60, 80}},
}

// ResolveProfile looks up a crop profile by identifier, case-insensitively.
// Unknown identifiers, including the empty string, resolve to the default
// profile; resolution never fails.
func ResolveProfile(cropType string) CropProfile {
	if p, ok := cropProfiles[strings.ToLower(cropType)]; ok {
		return p
	}
	return cropProfiles[DefaultCropType]
}

// Profiles returns a copy of the registry keyed by crop identifier, for
// display surfaces such as the crops endpoint.
func Profiles() map[string]CropProfile {
	out := make(map[string]CropProfile, len(cropProfiles))
	for id, p := range cropProfiles {
		out[id] = p
	}
	return out
}
