package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// defaultProfile: moisture 50–75, temperature 18–28, humidity 60–80.
func defaultProfile() CropProfile {
	return ResolveProfile("default")
}

func reading(moisture, temp, humidity float64) SensorReading {
	return SensorReading{SoilMoisture: moisture, Temperature: temp, Humidity: humidity}
}

func TestEvaluateIrrigation_Water(t *testing.T) {
	t.Run("base deficit", func(t *testing.T) {
		// 10-point deficit at 0.5 L/m² per point, no adjustments.
		rec := EvaluateIrrigation(reading(40, 20, 70), defaultProfile())

		assert.Equal(t, IrrigationWater, rec.Action)
		assert.Equal(t, 5.0, rec.Amount)
		assert.Equal(t, "Soil moisture (40.0%) is below optimal range (50.0-75.0%).", rec.Reasoning)
	})

	t.Run("heat adjustment", func(t *testing.T) {
		// 10°C above t_max=28 → ×1.5.
		rec := EvaluateIrrigation(reading(40, 38, 70), defaultProfile())

		assert.Equal(t, IrrigationWater, rec.Action)
		assert.Equal(t, 7.5, rec.Amount)
		assert.Contains(t, rec.Reasoning, "Temperature (38.0°C) is above optimal, increasing water need by 50%")
	})

	t.Run("low humidity adjustment", func(t *testing.T) {
		rec := EvaluateIrrigation(reading(40, 20, 30), defaultProfile())

		assert.Equal(t, IrrigationWater, rec.Action)
		assert.Equal(t, 6.0, rec.Amount)
		assert.Contains(t, rec.Reasoning, "Low humidity (30.0%) increases evaporation, adjusting water amount by 20%")
	})

	t.Run("both adjustments in fixed order", func(t *testing.T) {
		// 5.0 × 1.5 × 1.2 = 9.0; clause order: deficit, temperature, humidity.
		rec := EvaluateIrrigation(reading(40, 38, 30), defaultProfile())

		require.Equal(t, IrrigationWater, rec.Action)
		assert.Equal(t, 9.0, rec.Amount)
		assert.Equal(t,
			"Soil moisture (40.0%) is below optimal range (50.0-75.0%). "+
				"Temperature (38.0°C) is above optimal, increasing water need by 50%. "+
				"Low humidity (30.0%) increases evaporation, adjusting water amount by 20%.",
			rec.Reasoning)
	})

	t.Run("amount rounded to two decimals", func(t *testing.T) {
		// Deficit 11 → base 5.5, ×1.15 heat (3°C excess), ×1.2 humidity
		// = 7.59 after rounding.
		rec := EvaluateIrrigation(reading(39, 31, 30), defaultProfile())

		assert.Equal(t, 7.59, rec.Amount)
	})

	t.Run("monotonic in deficit", func(t *testing.T) {
		prev := 0.0
		for m := 49.0; m >= 10; m -= 5 {
			rec := EvaluateIrrigation(reading(m, 20, 70), defaultProfile())
			require.Equal(t, IrrigationWater, rec.Action)
			assert.Greater(t, rec.Amount, prev, "moisture %.1f", m)
			prev = rec.Amount
		}
	})
}

func TestEvaluateIrrigation_Reduce(t *testing.T) {
	rec := EvaluateIrrigation(reading(80, 20, 70), defaultProfile())

	assert.Equal(t, IrrigationReduce, rec.Action)
	assert.Equal(t, 0.0, rec.Amount)
	assert.Equal(t,
		"Soil moisture (80.0%) is above optimal range (50.0-75.0%). "+
			"Excess water can lead to root rot and nutrient leaching.",
		rec.Reasoning)
}

func TestEvaluateIrrigation_NoAction(t *testing.T) {
	for _, m := range []float64{50, 60, 75} {
		rec := EvaluateIrrigation(reading(m, 20, 70), defaultProfile())

		assert.Equal(t, IrrigationNoAction, rec.Action, "moisture %.1f", m)
		assert.Equal(t, 0.0, rec.Amount)
		assert.Contains(t, rec.Reasoning, "is within optimal range")
		assert.Contains(t, rec.Reasoning, "No irrigation needed.")
	}
}

func TestEvaluateFertilizer(t *testing.T) {
	tests := []struct {
		name       string
		reading    SensorReading
		action     FertilizerAction
		fertType   string
		reasonPart string
	}{
		{
			name:       "optimal conditions apply balanced NPK",
			reading:    reading(60, 24, 70),
			action:     FertilizerApply,
			fertType:   "NPK 10-10-10 (Balanced)",
			reasonPart: "Conditions are optimal for fertilizer application: moisture at 60.0%, temperature at 24.0°C",
		},
		{
			name:       "moisture too low for uptake",
			reading:    reading(30, 24, 70),
			action:     FertilizerNoAction,
			reasonPart: "Soil moisture (30.0%) is too low for effective nutrient uptake. Irrigate before applying fertilizer.",
		},
		{
			name:       "temperature too low for nutrient activity",
			reading:    reading(60, 10, 70),
			action:     FertilizerNoAction,
			reasonPart: "Temperature (10.0°C) is too low for active nutrient uptake.",
		},
		{
			name:       "marginal conditions monitor",
			reading:    reading(45, 24, 70), // above uptake floor (35) but below band
			action:     FertilizerNoAction,
			reasonPart: "Monitor conditions before fertilizing.",
		},
		{
			name:       "in band but too hot monitors",
			reading:    reading(60, 32, 70),
			action:     FertilizerNoAction,
			reasonPart: "Monitor conditions before fertilizing.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := EvaluateFertilizer(tt.reading, defaultProfile())

			assert.Equal(t, tt.action, rec.Action)
			assert.Equal(t, tt.fertType, rec.Type)
			assert.Contains(t, rec.Reasoning, tt.reasonPart)
		})
	}
}

func TestEvaluateFertilizer_MoistureCheckWinsOverTemperature(t *testing.T) {
	// Both blockers present: the moisture check short-circuits first.
	rec := EvaluateFertilizer(reading(30, 10, 70), defaultProfile())

	require.Equal(t, FertilizerNoAction, rec.Action)
	assert.Contains(t, rec.Reasoning, "too low for effective nutrient uptake")
	assert.NotContains(t, rec.Reasoning, "active nutrient uptake")
}

func TestEvaluateAlerts(t *testing.T) {
	tests := []struct {
		name     string
		reading  SensorReading
		level    AlertLevel
		messages int
		contains string
	}{
		{
			name:     "no stress",
			reading:  reading(60, 24, 70),
			level:    AlertNone,
			messages: 0,
		},
		{
			name:     "critical drought",
			reading:  reading(20, 24, 70),
			level:    AlertCritical,
			messages: 1,
			contains: "Severe drought risk!",
		},
		{
			name:     "drought warning",
			reading:  reading(30, 24, 70),
			level:    AlertWarning,
			messages: 1,
			contains: "Drought risk detected",
		},
		{
			name:     "critical overwatering", // > 75 × 1.3 = 97.5
			reading:  reading(98, 24, 70),
			level:    AlertCritical,
			messages: 1,
			contains: "Overwatering detected!",
		},
		{
			name:     "overwatering warning", // > 75 × 1.1 = 82.5
			reading:  reading(85, 24, 70),
			level:    AlertWarning,
			messages: 1,
			contains: "Reduce irrigation",
		},
		{
			name:     "heat stress",
			reading:  reading(60, 34, 70),
			level:    AlertWarning,
			messages: 1,
			contains: "High temperature stress (34.0°C)",
		},
		{
			name:     "cold stress",
			reading:  reading(60, 10, 70),
			level:    AlertWarning,
			messages: 1,
			contains: "Low temperature (10.0°C) may slow growth",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alerts := EvaluateAlerts(tt.reading, defaultProfile())

			assert.Equal(t, tt.level, alerts.Level)
			require.Len(t, alerts.Messages, tt.messages)
			if tt.contains != "" {
				assert.Contains(t, alerts.Messages[0], tt.contains)
			}
		})
	}
}

func TestEvaluateAlerts_HeatDoesNotDowngradeCritical(t *testing.T) {
	// Critical drought plus heat stress: the temperature branch only
	// escalates from "none" and must not touch the critical level.
	alerts := EvaluateAlerts(reading(20, 34, 70), defaultProfile())

	assert.Equal(t, AlertCritical, alerts.Level)
	require.Len(t, alerts.Messages, 2)
	assert.Contains(t, alerts.Messages[0], "Severe drought risk!")
	assert.Contains(t, alerts.Messages[1], "High temperature stress")
}

func TestEvaluateAlerts_CombinedStressForcesCritical(t *testing.T) {
	// m < m_min, t > t_max, h < 50 → unconditional critical override.
	alerts := EvaluateAlerts(reading(40, 35, 30), defaultProfile())

	assert.Equal(t, AlertCritical, alerts.Level)
	require.NotEmpty(t, alerts.Messages)
	assert.Contains(t, alerts.Messages[len(alerts.Messages)-1], "Multiple stress factors detected")
}

func TestEvaluateAlerts_MessageOrderIsStable(t *testing.T) {
	// Drought warning (m=40 is not < 35, so no drought message) — pick a
	// reading that trips drought, heat, and combined stress together.
	alerts := EvaluateAlerts(reading(24, 35, 30), defaultProfile())

	require.Len(t, alerts.Messages, 3)
	assert.Contains(t, alerts.Messages[0], "Severe drought risk!")
	assert.Contains(t, alerts.Messages[1], "High temperature stress")
	assert.Contains(t, alerts.Messages[2], "Multiple stress factors detected")
	assert.Equal(t, AlertCritical, alerts.Level)
}

func TestAnalyze_ComposesAllRules(t *testing.T) {
	// Drought scenario against the tomato profile (moisture 60–80).
	analysis := Analyze(reading(30, 30, 40), "tomato")

	assert.Equal(t, IrrigationWater, analysis.Irrigation.Action)
	assert.Positive(t, analysis.Irrigation.Amount)
	assert.Equal(t, FertilizerNoAction, analysis.Fertilizer.Action)
	assert.Equal(t, AlertCritical, analysis.Alerts.Level)
}

func TestAnalyze_Deterministic(t *testing.T) {
	r := reading(37.3, 33.8, 41.2)

	first := Analyze(r, "corn")
	second := Analyze(r, "corn")

	assert.Equal(t, first, second)
}
