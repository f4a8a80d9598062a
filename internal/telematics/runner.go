package telematics

import (
	"context"
	"fmt"

	"github.com/autosentience/vigil/internal/logging"
	"github.com/autosentience/vigil/internal/models"
	"github.com/autosentience/vigil/internal/rules"
	"github.com/autosentience/vigil/internal/store"
	"github.com/autosentience/vigil/internal/workflow"
)

// Runner drives one simulated telemetry cycle: generate, store, detect,
// then run the agent workflow.
type Runner struct {
	generator    *Generator
	engine       *rules.Engine
	store        store.Store
	orchestrator *workflow.Orchestrator
	logger       *logging.Logger
}

// NewRunner assembles a simulation runner.
func NewRunner(generator *Generator, engine *rules.Engine, st store.Store, orchestrator *workflow.Orchestrator) *Runner {
	return &Runner{
		generator:    generator,
		engine:       engine,
		store:        st,
		orchestrator: orchestrator,
		logger:       logging.GetLogger("telematics"),
	}
}

// Run executes one scenario cycle for a vehicle and returns the workflow
// result.
func (r *Runner) Run(ctx context.Context, vehicleID string, scenario Scenario) (*workflow.Result, error) {
	effective := scenario
	if scenario == ScenarioReset {
		effective = ScenarioNormal
		if err := r.resolveOpenAlerts(ctx, vehicleID); err != nil {
			return nil, err
		}
	}

	reading := r.generator.Generate(vehicleID, effective)
	if err := r.store.InsertReading(ctx, reading); err != nil {
		return nil, fmt.Errorf("failed to store simulated reading: %w", err)
	}

	detection := r.engine.Detect(reading)
	r.logger.InfoWithFields("simulated reading generated",
		logging.Field("vehicle_id", vehicleID),
		logging.Field("scenario", string(scenario)),
		logging.Field("violations", len(detection.Violations)),
	)

	existing, err := r.store.OpenAlerts(ctx, vehicleID)
	if err != nil {
		r.logger.WarnWithFields("failed to fetch open alerts",
			logging.Field("vehicle_id", vehicleID),
			logging.Field("error", err.Error()),
		)
	}

	return r.orchestrator.Execute(ctx, workflow.Input{
		VehicleID:      vehicleID,
		SensorData:     reading,
		Violations:     detection.Violations,
		ExistingAlerts: existing,
	})
}

func (r *Runner) resolveOpenAlerts(ctx context.Context, vehicleID string) error {
	open, err := r.store.OpenAlerts(ctx, vehicleID)
	if err != nil {
		return fmt.Errorf("failed to fetch open alerts: %w", err)
	}
	for _, a := range open {
		if _, err := r.store.UpdateAlertStatus(ctx, a.ID, models.AlertResolved); err != nil {
			return fmt.Errorf("failed to resolve alert %s: %w", a.ID, err)
		}
	}
	return nil
}
