// Package rules implements threshold-based detection over vehicle sensor
// readings. Detection runs before any AI diagnosis: an ordered table of
// threshold rules is evaluated against a snapshot and every crossed bound
// produces its own violation.
package rules

import (
	"github.com/autosentience/vigil/internal/models"
)

// Rule is a single threshold check on one sensor parameter.
// Min and Max are both optional and evaluated independently; a rule with
// both bounds fires when the value is outside the [Min, Max] band.
type Rule struct {
	Parameter string          `yaml:"parameter"`
	Min       *float64        `yaml:"min"`
	Max       *float64        `yaml:"max"`
	Severity  models.Severity `yaml:"severity"`
	Message   string          `yaml:"message"`
}

func f(v float64) *float64 { return &v }

// DefaultRules returns the built-in ordered threshold table.
// Multiple rules per parameter at different severities are intentional:
// both fire independently when both bounds are crossed.
func DefaultRules() []Rule {
	return []Rule{
		// Engine temperature
		{Parameter: models.ParamEngineTemp, Max: f(110), Severity: models.SeverityHigh, Message: "Engine temperature critically high"},
		{Parameter: models.ParamEngineTemp, Max: f(100), Severity: models.SeverityMedium, Message: "Engine temperature above normal"},

		// Battery voltage
		{Parameter: models.ParamBatteryVoltage, Min: f(11.5), Severity: models.SeverityMedium, Message: "Battery voltage low"},
		{Parameter: models.ParamBatteryVoltage, Min: f(11.0), Severity: models.SeverityHigh, Message: "Battery voltage critically low"},

		// Engine RPM
		{Parameter: models.ParamEngineRPM, Max: f(6500), Severity: models.SeverityHigh, Message: "Engine RPM dangerously high"},
		{Parameter: models.ParamEngineRPM, Max: f(6000), Severity: models.SeverityMedium, Message: "Engine RPM above recommended range"},

		// Coolant temperature
		{Parameter: models.ParamCoolantTemp, Max: f(105), Severity: models.SeverityHigh, Message: "Coolant temperature critically high"},
		{Parameter: models.ParamCoolantTemp, Max: f(95), Severity: models.SeverityMedium, Message: "Coolant temperature above normal"},

		// Oil pressure
		{Parameter: models.ParamOilPressure, Min: f(20), Severity: models.SeverityCritical, Message: "Oil pressure critically low - immediate attention required"},
		{Parameter: models.ParamOilPressure, Min: f(30), Severity: models.SeverityHigh, Message: "Oil pressure low"},

		// Tyre pressures
		{Parameter: models.ParamTyrePressureFL, Min: f(28), Max: f(40), Severity: models.SeverityMedium, Message: "Front left tyre pressure abnormal"},
		{Parameter: models.ParamTyrePressureFR, Min: f(28), Max: f(40), Severity: models.SeverityMedium, Message: "Front right tyre pressure abnormal"},
		{Parameter: models.ParamTyrePressureRL, Min: f(28), Max: f(40), Severity: models.SeverityMedium, Message: "Rear left tyre pressure abnormal"},
		{Parameter: models.ParamTyrePressureRR, Min: f(28), Max: f(40), Severity: models.SeverityMedium, Message: "Rear right tyre pressure abnormal"},

		// Fuel level
		{Parameter: models.ParamFuelLevel, Min: f(10), Severity: models.SeverityLow, Message: "Fuel level low"},
		{Parameter: models.ParamFuelLevel, Min: f(5), Severity: models.SeverityMedium, Message: "Fuel level critically low"},

		// Transmission temperature
		{Parameter: models.ParamTransmissionTemp, Max: f(100), Severity: models.SeverityHigh, Message: "Transmission temperature critically high"},
		{Parameter: models.ParamTransmissionTemp, Max: f(90), Severity: models.SeverityMedium, Message: "Transmission temperature above normal"},
	}
}
