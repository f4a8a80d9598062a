package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/autosentience/vigil/internal/inference"
	"github.com/autosentience/vigil/internal/logging"
	"github.com/autosentience/vigil/internal/models"
	"github.com/autosentience/vigil/internal/rules"
)

const diagnosisSystemPrompt = `You are an expert automotive diagnostic AI agent. Your role is to analyze vehicle sensor data and rule violations to provide accurate fault diagnosis.

CRITICAL RULES:
1. Always return valid JSON in the exact format specified
2. Never hallucinate or make up information
3. Base diagnosis only on provided sensor data and violations
4. Provide actionable recommendations
5. Estimate costs conservatively (in USD)

Your response must be a JSON object with these exact fields:
{
  "fault_detected": boolean,
  "fault_type": string (e.g., "ENGINE_OVERHEAT", "BATTERY_LOW"),
  "severity": "LOW" | "MEDIUM" | "HIGH" | "CRITICAL",
  "diagnosis": string (detailed technical diagnosis),
  "recommended_action": string (clear action for user),
  "estimated_cost": number (USD, null if not applicable),
  "action": string (summary of diagnosis),
  "reasoning": string (your diagnostic reasoning),
  "confidence": number (0.0 to 1.0)
}`

// DiagnosisInput is the context the diagnosis agent reasons over.
type DiagnosisInput struct {
	VehicleID  string
	SensorData *models.SensorReading
	Violations []models.RuleViolation
}

// DiagnosisResult is the diagnosis agent's decision.
type DiagnosisResult struct {
	Output
	FaultDetected     bool            `json:"fault_detected"`
	FaultType         string          `json:"fault_type,omitempty"`
	Severity          models.Severity `json:"severity"`
	Diagnosis         string          `json:"diagnosis"`
	RecommendedAction string          `json:"recommended_action"`
	EstimatedCost     *float64        `json:"estimated_cost,omitempty"`
	Fallback          bool            `json:"fallback,omitempty"`
}

// diagnosisWire is the decoded model response before validation.
// Pointer discriminators distinguish absent fields from zero values.
type diagnosisWire struct {
	Output
	FaultDetected     *bool           `json:"fault_detected"`
	FaultType         string          `json:"fault_type"`
	Severity          models.Severity `json:"severity"`
	Diagnosis         string          `json:"diagnosis"`
	RecommendedAction string          `json:"recommended_action"`
	EstimatedCost     *float64        `json:"estimated_cost"`
}

func (w *diagnosisWire) validate() error {
	if w.FaultDetected == nil {
		return fmt.Errorf("missing fault_detected")
	}
	if !w.Severity.Valid() {
		return fmt.Errorf("missing or invalid severity %q", w.Severity)
	}
	if w.Diagnosis == "" {
		return fmt.Errorf("missing diagnosis")
	}
	return nil
}

// DiagnosisAgent analyzes violations and produces a fault diagnosis.
type DiagnosisAgent struct {
	client inference.Client
	logger *logging.Logger
}

// NewDiagnosisAgent creates a diagnosis agent backed by the given client.
func NewDiagnosisAgent(client inference.Client) *DiagnosisAgent {
	return &DiagnosisAgent{
		client: client,
		logger: logging.GetLogger("agents.diagnosis"),
	}
}

// Run produces a diagnosis for the given violations. Inference failures
// degrade to the deterministic fallback; Run never fails.
func (a *DiagnosisAgent) Run(ctx context.Context, input DiagnosisInput) *DiagnosisResult {
	prompt := fmt.Sprintf(`Analyze the following vehicle sensor data and rule violations:

VEHICLE ID: %s

SENSOR DATA:
%s

RULE VIOLATIONS:
%s

Provide a comprehensive diagnosis in JSON format.`,
		input.VehicleID,
		mustJSON(input.SensorData),
		rules.FormatViolations(input.Violations),
	)

	raw, err := a.client.Complete(ctx, prompt, diagnosisSystemPrompt, temperatureDiagnosis)
	if err == nil {
		var wire diagnosisWire
		if err = inference.DecodeJSON(raw, &wire); err == nil {
			if err = wire.validate(); err == nil {
				return &DiagnosisResult{
					Output:            wire.Output,
					FaultDetected:     *wire.FaultDetected,
					FaultType:         wire.FaultType,
					Severity:          wire.Severity,
					Diagnosis:         wire.Diagnosis,
					RecommendedAction: wire.RecommendedAction,
					EstimatedCost:     wire.EstimatedCost,
				}
			}
		}
	}

	a.logger.WarnWithFields("diagnosis agent degraded to fallback",
		logging.Field("vehicle_id", input.VehicleID),
		logging.Field("error", err.Error()),
	)
	return a.fallback(input)
}

// fallback derives a diagnosis from the violation set alone.
func (a *DiagnosisAgent) fallback(input DiagnosisInput) *DiagnosisResult {
	severity, ok := models.MaxSeverity(input.Violations)
	if !ok {
		severity = models.SeverityLow
	}

	faultType := "UNKNOWN"
	if len(input.Violations) > 0 {
		faultType = strings.ToUpper(input.Violations[0].Parameter)
	}

	messages := make([]string, 0, len(input.Violations))
	for _, v := range input.Violations {
		messages = append(messages, v.Message)
	}

	return &DiagnosisResult{
		Output: Output{
			Action:     "Fault diagnosis completed",
			Reasoning:  "Fallback diagnosis due to AI service unavailability",
			Confidence: fallbackConfidence,
		},
		FaultDetected:     len(input.Violations) > 0,
		FaultType:         faultType,
		Severity:          severity,
		Diagnosis:         fmt.Sprintf("Detected %d rule violation(s). %s", len(input.Violations), strings.Join(messages, ". ")),
		RecommendedAction: "Schedule service inspection to diagnose and resolve issues.",
		Fallback:          true,
	}
}
