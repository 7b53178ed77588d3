package domain

import (
	"fmt"
	"math"
)

const (
	// litersPerDeficitPoint converts a soil-moisture deficit (percentage
	// points below the range floor) into an irrigation amount in L/m².
	litersPerDeficitPoint = 0.5

	// heatAdjustmentPerDegree raises the irrigation amount by 5% for every
	// degree Celsius above the optimal temperature range.
	heatAdjustmentPerDegree = 0.05

	// lowHumidityFactor is the flat evaporation surcharge applied when
	// relative humidity drops below lowHumidityThreshold.
	lowHumidityFactor    = 1.2
	lowHumidityThreshold = 50.0

	// balancedNPK is the general-growth formulation recommended when
	// conditions are optimal.
	balancedNPK = "NPK 10-10-10 (Balanced)"
)

// Analyze resolves the crop profile and evaluates the irrigation,
// fertilizer, and alert rules against the reading. Each rule is a pure
// function of the reading and profile; identical inputs yield identical
// output, reasoning text included.
func Analyze(reading SensorReading, cropType string) Analysis {
	profile := ResolveProfile(cropType)
	return Analysis{
		Irrigation: EvaluateIrrigation(reading, profile),
		Fertilizer: EvaluateFertilizer(reading, profile),
		Alerts:     EvaluateAlerts(reading, profile),
	}
}

// EvaluateIrrigation decides whether to water based on soil moisture against
// the profile band, with temperature and humidity amount adjustments. The
// three moisture branches are mutually exclusive and exhaustive.
func EvaluateIrrigation(reading SensorReading, profile CropProfile) IrrigationRecommendation {
	moisture := reading.SoilMoisture
	band := profile.Moisture

	switch {
	case moisture < band.Min:
		deficit := band.Min - moisture
		amount := deficit * litersPerDeficitPoint

		parts := []string{fmt.Sprintf(
			"Soil moisture (%.1f%%) is below optimal range (%.1f-%.1f%%)",
			moisture, band.Min, band.Max,
		)}

		if reading.Temperature > profile.Temperature.Max {
			excess := reading.Temperature - profile.Temperature.Max
			adjustment := 1 + excess*heatAdjustmentPerDegree
			amount *= adjustment
			parts = append(parts, fmt.Sprintf(
				"Temperature (%.1f°C) is above optimal, increasing water need by %.0f%%",
				reading.Temperature, (adjustment-1)*100,
			))
		}

		if reading.Humidity < lowHumidityThreshold {
			amount *= lowHumidityFactor
			parts = append(parts, fmt.Sprintf(
				"Low humidity (%.1f%%) increases evaporation, adjusting water amount by 20%%",
				reading.Humidity,
			))
		}

		return IrrigationRecommendation{
			Action:    IrrigationWater,
			Amount:    roundTo2(amount),
			Reasoning: joinReasoning(parts),
		}

	case moisture > band.Max:
		parts := []string{
			fmt.Sprintf(
				"Soil moisture (%.1f%%) is above optimal range (%.1f-%.1f%%)",
				moisture, band.Min, band.Max,
			),
			"Excess water can lead to root rot and nutrient leaching",
		}
		return IrrigationRecommendation{
			Action:    IrrigationReduce,
			Amount:    0,
			Reasoning: joinReasoning(parts),
		}

	default:
		reasoning := fmt.Sprintf(
			"Soil moisture (%.1f%%) is within optimal range (%.1f-%.1f%%)",
			moisture, band.Min, band.Max,
		)
		return IrrigationRecommendation{
			Action:    IrrigationNoAction,
			Amount:    0,
			Reasoning: reasoning + ". No irrigation needed.",
		}
	}
}

// EvaluateFertilizer decides whether fertilizing is worthwhile. Checks
// short-circuit in order: moisture adequacy for uptake, temperature floor
// for nutrient activity, then the optimal band for application.
func EvaluateFertilizer(reading SensorReading, profile CropProfile) FertilizerRecommendation {
	moisture := reading.SoilMoisture
	band := profile.Moisture
	tempBand := profile.Temperature

	if moisture < band.Min*0.7 {
		parts := []string{
			fmt.Sprintf("Soil moisture (%.1f%%) is too low for effective nutrient uptake", moisture),
			"Irrigate before applying fertilizer",
		}
		return FertilizerRecommendation{
			Action:    FertilizerNoAction,
			Reasoning: joinReasoning(parts),
		}
	}

	if reading.Temperature < tempBand.Min-5 {
		return FertilizerRecommendation{
			Action: FertilizerNoAction,
			Reasoning: joinReasoning([]string{fmt.Sprintf(
				"Temperature (%.1f°C) is too low for active nutrient uptake",
				reading.Temperature,
			)}),
		}
	}

	if band.Contains(moisture) && tempBand.Contains(reading.Temperature) {
		parts := []string{
			fmt.Sprintf(
				"Conditions are optimal for fertilizer application: moisture at %.1f%%, temperature at %.1f°C",
				moisture, reading.Temperature,
			),
			"Balanced NPK (10-10-10) recommended for general growth",
		}
		return FertilizerRecommendation{
			Action:    FertilizerApply,
			Type:      balancedNPK,
			Reasoning: joinReasoning(parts),
		}
	}

	// Moisture is adequate for uptake but the reading sits outside the
	// optimal band: hold off rather than apply under marginal conditions.
	return FertilizerRecommendation{
		Action:    FertilizerNoAction,
		Reasoning: "Monitor conditions before fertilizing.",
	}
}

// EvaluateAlerts accumulates stress messages across all checks. Unlike the
// other rules nothing short-circuits between check groups, and the level is
// the last value assigned in this exact order, not a running maximum: the
// drought-warning branch assigns unconditionally while the overwatering and
// temperature branches escalate only from "none". The trailing
// combined-stress check forces "critical" regardless of prior assignments.
// Do not reorder.
func EvaluateAlerts(reading SensorReading, profile CropProfile) AlertAssessment {
	moisture := reading.SoilMoisture
	band := profile.Moisture
	tempBand := profile.Temperature

	level := AlertNone
	var messages []string

	if moisture < band.Min*0.5 {
		messages = append(messages, fmt.Sprintf(
			"CRITICAL: Severe drought risk! Soil moisture (%.1f%%) is critically low. Immediate irrigation required.",
			moisture,
		))
		level = AlertCritical
	} else if moisture < band.Min*0.7 {
		messages = append(messages, fmt.Sprintf(
			"WARNING: Drought risk detected. Soil moisture (%.1f%%) is approaching critical levels.",
			moisture,
		))
		level = AlertWarning
	}

	if moisture > band.Max*1.3 {
		messages = append(messages, fmt.Sprintf(
			"CRITICAL: Overwatering detected! Soil moisture (%.1f%%) is excessively high. Risk of root rot and nutrient leaching.",
			moisture,
		))
		level = AlertCritical
	} else if moisture > band.Max*1.1 {
		messages = append(messages, fmt.Sprintf(
			"WARNING: Soil moisture (%.1f%%) is above optimal. Reduce irrigation.",
			moisture,
		))
		if level == AlertNone {
			level = AlertWarning
		}
	}

	if reading.Temperature > tempBand.Max+5 {
		messages = append(messages, fmt.Sprintf(
			"WARNING: High temperature stress (%.1f°C). Consider shade cloth or additional irrigation.",
			reading.Temperature,
		))
		if level == AlertNone {
			level = AlertWarning
		}
	} else if reading.Temperature < tempBand.Min-5 {
		messages = append(messages, fmt.Sprintf(
			"WARNING: Low temperature (%.1f°C) may slow growth. Consider frost protection if below 0°C.",
			reading.Temperature,
		))
		if level == AlertNone {
			level = AlertWarning
		}
	}

	if moisture < band.Min && reading.Temperature > tempBand.Max && reading.Humidity < lowHumidityThreshold {
		messages = append(messages,
			"CRITICAL: Multiple stress factors detected (low moisture, high temp, low humidity). Immediate action required!",
		)
		level = AlertCritical
	}

	return AlertAssessment{Level: level, Messages: messages}
}

// roundTo2 rounds to two decimal places, matching the precision persisted
// and asserted on downstream.
func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
