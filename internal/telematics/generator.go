// Package telematics simulates a vehicle telemetry feed. The generator
// produces plausible sensor snapshots per scenario and the runner drives
// a full ingestion-detection-workflow cycle, useful without real vehicles
// or a database.
package telematics

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/autosentience/vigil/internal/models"
)

// Scenario selects the kind of telemetry to synthesize.
type Scenario string

const (
	ScenarioNormal          Scenario = "NORMAL"
	ScenarioOverheat        Scenario = "OVERHEAT"
	ScenarioBatteryLow      Scenario = "BATTERY_LOW"
	ScenarioOilPressureLow  Scenario = "OIL_PRESSURE_LOW"
	ScenarioTyrePressureLow Scenario = "TYRE_PRESSURE_LOW"
	// ScenarioReset generates normal telemetry and resolves all open
	// alerts for the vehicle before running.
	ScenarioReset Scenario = "RESET"
)

// ParseScenario validates a scenario name.
func ParseScenario(s string) (Scenario, error) {
	switch Scenario(s) {
	case ScenarioNormal, ScenarioOverheat, ScenarioBatteryLow,
		ScenarioOilPressureLow, ScenarioTyrePressureLow, ScenarioReset:
		return Scenario(s), nil
	}
	return "", fmt.Errorf("unknown scenario %q", s)
}

// Generator synthesizes sensor readings. The random source is injected
// so simulations can be made deterministic.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator over the given random source.
func NewGenerator(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

// Generate produces one reading for the scenario. Baselines are healthy
// cruising values with noise; fault scenarios push a single parameter
// past its threshold the way a real failure would present.
func (g *Generator) Generate(vehicleID string, scenario Scenario) *models.SensorReading {
	tyre := round1(32 + g.noise(1))

	reading := &models.SensorReading{
		VehicleID:      vehicleID,
		Timestamp:      time.Now().UTC(),
		EngineTemp:     models.Float(round1(90 + g.noise(5))),
		EngineRPM:      models.Float(math.Round(2000 + g.noise(250))),
		BatteryVoltage: models.Float(round1(13.5 + g.noise(0.5))),
		FuelLevel:      models.Float(math.Round(75 - g.rng.Float64()*5)),
		Speed:          models.Float(math.Round(60 + g.noise(10))),
		OilPressure:    models.Float(round1(40 + g.noise(2.5))),
		TyrePressureFL: models.Float(tyre),
		TyrePressureFR: models.Float(tyre),
		TyrePressureRL: models.Float(tyre),
		TyrePressureRR: models.Float(tyre),
	}

	switch scenario {
	case ScenarioOverheat:
		reading.EngineTemp = models.Float(round1(125 + g.rng.Float64()*10))
	case ScenarioBatteryLow:
		reading.BatteryVoltage = models.Float(round1(11.2 - g.rng.Float64()*0.5))
	case ScenarioOilPressureLow:
		reading.OilPressure = models.Float(round1(10 + g.rng.Float64()*5))
	case ScenarioTyrePressureLow:
		reading.TyrePressureFL = models.Float(round1(18 + g.rng.Float64()*2))
	}

	return reading
}

// noise returns a uniform value in [-spread, spread).
func (g *Generator) noise(spread float64) float64 {
	return g.rng.Float64()*2*spread - spread
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
