// Package domain implements the crop advisory decision engine.
//
// # Inputs
//
// A SensorReading carries three field measurements:
//
//	Soil moisture:  volumetric percentage, 0–100
//	Temperature:    degrees Celsius, -20–60
//	Humidity:       relative percentage, 0–100
//
// Readings outside these ranges are rejected by the transport layers via
// [SensorReading.Validate]; the engine itself assumes validated input and
// never returns an error.
//
// # Crop profiles
//
// Each crop has a profile of optimal moisture, temperature, and humidity
// ranges. Profiles are process-wide immutable lookup data; unknown or empty
// crop identifiers resolve to the "default" profile (see [ResolveProfile]).
//
// # Rules
//
// [Analyze] composes three independent rules over a reading and a profile:
//
//	Irrigation: moisture below range → water, 0.5 L/m² per percentage point
//	  of deficit, +5% per °C above the optimal temperature range, +20% flat
//	  when humidity < 50%. Above range → reduce. In range → no action.
//	Fertilizer: short-circuiting checks — moisture < 70% of the range floor
//	  blocks uptake; temperature more than 5°C below the range floor blocks
//	  nutrient activity; both readings inside their optimal bands → apply
//	  balanced NPK; anything else → monitor.
//	Alerts: every check runs on every call, accumulating messages. The level
//	  is the last value assigned in evaluation order, not a maximum — the
//	  drought-warning branch assigns unconditionally while the overwatering
//	  and temperature branches only escalate from "none", and the final
//	  combined-stress check forces "critical". Reordering the checks changes
//	  observable behavior.
//
// Every recommendation carries human-readable reasoning built from ordered
// clause fragments joined with ". " and a trailing period. Amounts are
// rounded to two decimals and clause text is formatted to one decimal place,
// so identical inputs produce byte-identical output.
package domain
