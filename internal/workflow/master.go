package workflow

import (
	"context"
	"fmt"

	"github.com/autosentience/vigil/internal/agents"
	"github.com/autosentience/vigil/internal/inference"
	"github.com/autosentience/vigil/internal/logging"
	"github.com/autosentience/vigil/internal/models"
)

const masterSystemPrompt = `You are the Master AI Agent orchestrating an automotive predictive maintenance system. Your role is to analyze situations and determine the optimal next actions.

CRITICAL RULES:
1. Always return valid JSON in the exact format specified
2. Coordinate sub-agents effectively
3. Prioritize user safety and vehicle health
4. Make clear, actionable decisions
5. Consider cost-benefit of actions

Your response must be a JSON object with these exact fields:
{
  "action": string (primary action to take),
  "next_steps": string[] (ordered list of steps),
  "should_create_alert": boolean,
  "should_notify_user": boolean,
  "should_book_service": boolean,
  "priority": "low" | "medium" | "high" | "critical",
  "reasoning": string (decision-making logic),
  "confidence": number (0.0 to 1.0)
}`

const masterTemperature = 0.5

// Priority is the master agent's urgency classification.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func (p Priority) valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// MasterInput is the situation presented to the master agent.
type MasterInput struct {
	VehicleID      string
	SensorData     *models.SensorReading
	Violations     []models.RuleViolation
	ExistingAlerts []models.Alert
}

// MasterDecision is the high-level plan for the rest of the workflow.
type MasterDecision struct {
	agents.Output
	NextSteps         []string `json:"next_steps"`
	ShouldCreateAlert bool     `json:"should_create_alert"`
	ShouldNotifyUser  bool     `json:"should_notify_user"`
	ShouldBookService bool     `json:"should_book_service"`
	Priority          Priority `json:"priority"`
	Fallback          bool     `json:"fallback,omitempty"`
}

type masterWire struct {
	agents.Output
	NextSteps         []string `json:"next_steps"`
	ShouldCreateAlert *bool    `json:"should_create_alert"`
	ShouldNotifyUser  bool     `json:"should_notify_user"`
	ShouldBookService bool     `json:"should_book_service"`
	Priority          Priority `json:"priority"`
}

func (w *masterWire) validate() error {
	if w.Action == "" {
		return fmt.Errorf("missing action")
	}
	if w.ShouldCreateAlert == nil {
		return fmt.Errorf("missing should_create_alert")
	}
	if !w.Priority.valid() {
		return fmt.Errorf("missing or invalid priority %q", w.Priority)
	}
	return nil
}

// MasterAgent decides which workflow branches to take for a reading.
type MasterAgent struct {
	client inference.Client
	logger *logging.Logger
}

// NewMasterAgent creates a master agent backed by the given client.
func NewMasterAgent(client inference.Client) *MasterAgent {
	return &MasterAgent{
		client: client,
		logger: logging.GetLogger("workflow.master"),
	}
}

// Run decides the plan for the current situation. Never fails.
func (a *MasterAgent) Run(ctx context.Context, input MasterInput) *MasterDecision {
	r := input.SensorData

	violationLines := ""
	for _, v := range input.Violations {
		violationLines += fmt.Sprintf("- %s: %s\n", v.Severity, v.Message)
	}

	prompt := fmt.Sprintf(`Analyze this vehicle situation and determine the best course of action:

VEHICLE ID: %s

SENSOR DATA SUMMARY:
- Engine Temp: %s°C
- Engine RPM: %s
- Battery: %sV
- Fuel Level: %s%%
- Speed: %s km/h
- Oil Pressure: %s PSI
- Tyre Pressure (FL): %s PSI

RULE VIOLATIONS (%d):
%s
EXISTING ALERTS: %d open alerts

Determine the optimal next actions in JSON format.`,
		input.VehicleID,
		fmtGauge(r.EngineTemp),
		fmtGauge(r.EngineRPM),
		fmtGauge(r.BatteryVoltage),
		fmtGauge(r.FuelLevel),
		fmtGauge(r.Speed),
		fmtGauge(r.OilPressure),
		fmtGauge(r.TyrePressureFL),
		len(input.Violations),
		violationLines,
		len(input.ExistingAlerts),
	)

	raw, err := a.client.Complete(ctx, prompt, masterSystemPrompt, masterTemperature)
	if err == nil {
		var wire masterWire
		if err = inference.DecodeJSON(raw, &wire); err == nil {
			if err = wire.validate(); err == nil {
				return &MasterDecision{
					Output:            wire.Output,
					NextSteps:         wire.NextSteps,
					ShouldCreateAlert: *wire.ShouldCreateAlert,
					ShouldNotifyUser:  wire.ShouldNotifyUser,
					ShouldBookService: wire.ShouldBookService,
					Priority:          wire.Priority,
				}
			}
		}
	}

	a.logger.WarnWithFields("master agent degraded to fallback",
		logging.Field("vehicle_id", input.VehicleID),
		logging.Field("error", err.Error()),
	)
	return a.fallback(input)
}

// fallback plans from the violation list alone: alert whenever any rule
// fired, notify and book only for HIGH or CRITICAL.
func (a *MasterAgent) fallback(input MasterInput) *MasterDecision {
	hasViolations := len(input.Violations) > 0
	hasCritical := false
	hasHigh := false
	for _, v := range input.Violations {
		switch v.Severity {
		case models.SeverityCritical:
			hasCritical = true
		case models.SeverityHigh:
			hasHigh = true
		}
	}

	priority := PriorityLow
	switch {
	case hasCritical:
		priority = PriorityCritical
	case hasHigh:
		priority = PriorityHigh
	case hasViolations:
		priority = PriorityMedium
	}

	action := "Continue monitoring"
	nextSteps := []string{"Continue normal monitoring"}
	if hasViolations {
		action = "Create alert and notify user"
		nextSteps = []string{
			"Run diagnosis agent",
			"Create alert",
			"Notify user",
			"Recommend service booking",
		}
	}

	return &MasterDecision{
		Output: agents.Output{
			Action:     action,
			Reasoning:  "Fallback decision logic based on rule violations",
			Confidence: 0.6,
		},
		NextSteps:         nextSteps,
		ShouldCreateAlert: hasViolations,
		ShouldNotifyUser:  hasCritical || hasHigh,
		ShouldBookService: hasCritical || hasHigh,
		Priority:          priority,
		Fallback:          true,
	}
}

// fmtGauge renders an optional gauge value, "N/A" when absent.
func fmtGauge(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%g", *v)
}
