package agents

import (
	"context"
	"fmt"

	"github.com/autosentience/vigil/internal/inference"
	"github.com/autosentience/vigil/internal/logging"
	"github.com/autosentience/vigil/internal/models"
)

const rcaSystemPrompt = `You are an expert Root Cause Analysis (RCA) AI agent for automotive systems. Your role is to identify root causes, contributing factors, and provide Corrective and Preventive Actions (CAPA).

CRITICAL RULES:
1. Always return valid JSON in the exact format specified
2. Identify the true root cause, not just symptoms
3. Consider multiple contributing factors
4. Provide actionable CAPA recommendations
5. Include preventive measures to avoid recurrence

Your response must be a JSON object with these exact fields:
{
  "root_cause": string (the fundamental cause),
  "contributing_factors": string[] (list of factors that contributed),
  "capa_recommendations": string[] (corrective and preventive actions),
  "preventive_measures": string[] (how to prevent in future),
  "action": string (summary),
  "reasoning": string (your RCA methodology),
  "confidence": number (0.0 to 1.0)
}`

// RCAInput carries the alert under analysis plus optional history.
type RCAInput struct {
	VehicleID      string
	Alert          *models.Alert
	SimilarAlerts  int
	RecentReadings []models.SensorReading
}

// RCAResult is the root cause analysis report.
type RCAResult struct {
	Output
	RootCause           string   `json:"root_cause"`
	ContributingFactors []string `json:"contributing_factors"`
	CAPARecommendations []string `json:"capa_recommendations"`
	PreventiveMeasures  []string `json:"preventive_measures"`
	Fallback            bool     `json:"fallback,omitempty"`
}

type rcaWire struct {
	Output
	RootCause           string   `json:"root_cause"`
	ContributingFactors []string `json:"contributing_factors"`
	CAPARecommendations []string `json:"capa_recommendations"`
	PreventiveMeasures  []string `json:"preventive_measures"`
}

func (w *rcaWire) validate() error {
	if w.RootCause == "" {
		return fmt.Errorf("missing root_cause")
	}
	if len(w.CAPARecommendations) == 0 {
		return fmt.Errorf("missing capa_recommendations")
	}
	return nil
}

// RCAAgent produces root cause analysis and CAPA reports for alerts.
type RCAAgent struct {
	client inference.Client
	logger *logging.Logger
}

// NewRCAAgent creates an RCA agent backed by the given client.
func NewRCAAgent(client inference.Client) *RCAAgent {
	return &RCAAgent{
		client: client,
		logger: logging.GetLogger("agents.rca"),
	}
}

// Run performs root cause analysis for an alert. Never fails.
func (a *RCAAgent) Run(ctx context.Context, input RCAInput) *RCAResult {
	history := ""
	if input.SimilarAlerts > 0 || len(input.RecentReadings) > 0 {
		history = fmt.Sprintf(`
HISTORICAL CONTEXT:
- Similar alerts in past: %d
- Recent sensor trends: %d readings available
`, input.SimilarAlerts, len(input.RecentReadings))
	}

	prompt := fmt.Sprintf(`Perform Root Cause Analysis for this vehicle issue:

VEHICLE ID: %s
ALERT: %s
SEVERITY: %s
DESCRIPTION: %s
DIAGNOSIS: %s
%s
Provide comprehensive RCA with CAPA in JSON format.`,
		input.VehicleID,
		input.Alert.Title,
		input.Alert.Severity,
		input.Alert.Description,
		input.Alert.Diagnosis,
		history,
	)

	raw, err := a.client.Complete(ctx, prompt, rcaSystemPrompt, temperatureRCA)
	if err == nil {
		var wire rcaWire
		if err = inference.DecodeJSON(raw, &wire); err == nil {
			if err = wire.validate(); err == nil {
				return &RCAResult{
					Output:              wire.Output,
					RootCause:           wire.RootCause,
					ContributingFactors: wire.ContributingFactors,
					CAPARecommendations: wire.CAPARecommendations,
					PreventiveMeasures:  wire.PreventiveMeasures,
				}
			}
		}
	}

	a.logger.WarnWithFields("rca agent degraded to fallback",
		logging.Field("vehicle_id", input.VehicleID),
		logging.Field("error", err.Error()),
	)
	return a.fallback(input)
}

// fallback reports the alert title as the primary cause with generic CAPA.
func (a *RCAAgent) fallback(input RCAInput) *RCAResult {
	return &RCAResult{
		Output: Output{
			Action:     "RCA completed",
			Reasoning:  "Fallback RCA due to AI service unavailability",
			Confidence: 0.5,
		},
		RootCause: fmt.Sprintf("Primary issue: %s", input.Alert.Title),
		ContributingFactors: []string{
			"Sensor threshold violation detected",
			"Possible component wear or malfunction",
		},
		CAPARecommendations: []string{
			"Conduct thorough inspection of affected system",
			"Replace or repair faulty components",
			"Verify all sensor readings post-repair",
		},
		PreventiveMeasures: []string{
			"Schedule regular preventive maintenance",
			"Monitor sensor trends proactively",
			"Follow manufacturer service intervals",
		},
		Fallback: true,
	}
}
