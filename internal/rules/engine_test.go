package rules

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autosentience/vigil/internal/models"
)

func TestDetect_AllParametersAbsent(t *testing.T) {
	engine := NewEngine(DefaultRules())

	result := engine.Detect(&models.SensorReading{VehicleID: "VIN-1"})

	assert.False(t, result.HasViolations)
	assert.Empty(t, result.Violations)
	assert.Nil(t, result.HighestSeverity)
}

func TestDetect_NormalReading(t *testing.T) {
	engine := NewEngine(DefaultRules())

	result := engine.Detect(&models.SensorReading{
		VehicleID:      "VIN-1",
		EngineTemp:     models.Float(90),
		EngineRPM:      models.Float(2000),
		BatteryVoltage: models.Float(13.5),
		FuelLevel:      models.Float(75),
		OilPressure:    models.Float(40),
		TyrePressureFL: models.Float(32),
		TyrePressureFR: models.Float(32),
		TyrePressureRL: models.Float(32),
		TyrePressureRR: models.Float(32),
	})

	assert.False(t, result.HasViolations)
	assert.Nil(t, result.HighestSeverity)
}

// Overlapping thresholds on the same parameter fire independently:
// engine_temp=125 crosses both the 100 MEDIUM and 110 HIGH ceilings.
func TestDetect_OverlappingEngineTempRules(t *testing.T) {
	engine := NewEngine(DefaultRules())

	result := engine.Detect(&models.SensorReading{
		VehicleID:      "VIN-1",
		EngineTemp:     models.Float(125),
		BatteryVoltage: models.Float(13.5),
	})

	require.Len(t, result.Violations, 2)
	require.NotNil(t, result.HighestSeverity)
	assert.Equal(t, models.SeverityHigh, *result.HighestSeverity)

	// Table order: the 110 HIGH rule precedes the 100 MEDIUM rule.
	assert.Equal(t, models.SeverityHigh, result.Violations[0].Severity)
	assert.Equal(t, 110.0, result.Violations[0].Threshold)
	assert.Equal(t, models.SeverityMedium, result.Violations[1].Severity)
	assert.Equal(t, 100.0, result.Violations[1].Threshold)

	for _, v := range result.Violations {
		assert.Equal(t, "engine_temp_threshold", v.RuleName)
		assert.Equal(t, 125.0, v.CurrentValue)
	}
}

func TestDetect_OilPressureBothFloorsCrossed(t *testing.T) {
	engine := NewEngine(DefaultRules())

	result := engine.Detect(&models.SensorReading{
		VehicleID:   "VIN-1",
		OilPressure: models.Float(10),
	})

	require.Len(t, result.Violations, 2)
	require.NotNil(t, result.HighestSeverity)
	assert.Equal(t, models.SeverityCritical, *result.HighestSeverity)

	assert.Equal(t, 20.0, result.Violations[0].Threshold)
	assert.Equal(t, models.SeverityCritical, result.Violations[0].Severity)
	assert.Equal(t, 30.0, result.Violations[1].Threshold)
	assert.Equal(t, models.SeverityHigh, result.Violations[1].Severity)
}

func TestDetect_CriticalAlwaysWins(t *testing.T) {
	engine := NewEngine(DefaultRules())

	// LOW fuel, MEDIUM tyre, CRITICAL oil pressure.
	result := engine.Detect(&models.SensorReading{
		VehicleID:      "VIN-1",
		FuelLevel:      models.Float(8),
		TyrePressureFL: models.Float(22),
		OilPressure:    models.Float(15),
	})

	require.NotNil(t, result.HighestSeverity)
	assert.Equal(t, models.SeverityCritical, *result.HighestSeverity)
}

func TestDetect_BandRuleMinAndMax(t *testing.T) {
	engine := NewEngine(DefaultRules())

	low := engine.Detect(&models.SensorReading{VehicleID: "VIN-1", TyrePressureFL: models.Float(25)})
	require.Len(t, low.Violations, 1)
	assert.Equal(t, 28.0, low.Violations[0].Threshold)

	high := engine.Detect(&models.SensorReading{VehicleID: "VIN-1", TyrePressureFL: models.Float(45)})
	require.Len(t, high.Violations, 1)
	assert.Equal(t, 40.0, high.Violations[0].Threshold)

	inBand := engine.Detect(&models.SensorReading{VehicleID: "VIN-1", TyrePressureFL: models.Float(32)})
	assert.False(t, inBand.HasViolations)
}

func TestDetect_NaNTreatedAsAbsent(t *testing.T) {
	engine := NewEngine(DefaultRules())

	result := engine.Detect(&models.SensorReading{
		VehicleID:  "VIN-1",
		EngineTemp: models.Float(math.NaN()),
	})

	assert.False(t, result.HasViolations)
}

func TestDetect_ViolationCountMatchesCrossedBounds(t *testing.T) {
	engine := NewEngine(DefaultRules())

	// engine_temp=125 crosses 2 rules, battery=10.5 crosses 2 rules,
	// oil=10 crosses 2 rules, fuel=4 crosses 2 rules.
	result := engine.Detect(&models.SensorReading{
		VehicleID:      "VIN-1",
		EngineTemp:     models.Float(125),
		BatteryVoltage: models.Float(10.5),
		OilPressure:    models.Float(10),
		FuelLevel:      models.Float(4),
	})

	assert.Len(t, result.Violations, 8)
}

func TestFormatViolations(t *testing.T) {
	assert.Equal(t, "No rule violations detected.", FormatViolations(nil))

	formatted := FormatViolations([]models.RuleViolation{
		{Message: "Engine temperature critically high", Parameter: "engine_temp", CurrentValue: 125, Threshold: 110, Severity: models.SeverityHigh},
	})
	assert.Contains(t, formatted, "engine_temp = 125")
	assert.Contains(t, formatted, "threshold: 110")
	assert.Contains(t, formatted, "severity: HIGH")
}

func TestRecommendedAction(t *testing.T) {
	assert.Contains(t, RecommendedAction(models.SeverityCritical), "IMMEDIATE ACTION REQUIRED")
	assert.Contains(t, RecommendedAction(models.SeverityHigh), "24-48 hours")
	assert.Contains(t, RecommendedAction(models.SeverityMedium), "7 days")
	assert.Contains(t, RecommendedAction(models.SeverityLow), "Monitor")
	assert.Equal(t, "Continue normal operation", RecommendedAction(models.Severity("UNKNOWN")))
}
