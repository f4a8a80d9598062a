package agents

import (
	"context"
	"fmt"

	"github.com/autosentience/vigil/internal/inference"
	"github.com/autosentience/vigil/internal/logging"
	"github.com/autosentience/vigil/internal/models"
	"github.com/autosentience/vigil/internal/rules"
)

const uebaSystemPrompt = `You are a security-focused UEBA (User and Entity Behavior Analytics) AI agent for automotive systems. Your role is to detect anomalous behavior and security threats.

CRITICAL RULES:
1. Always return valid JSON in the exact format specified
2. Identify deviations from normal behavior patterns
3. Assess risk levels accurately
4. Flag genuine security concerns
5. Minimize false positives

Your response must be a JSON object with these exact fields:
{
  "anomaly_detected": boolean,
  "risk_level": "LOW" | "MEDIUM" | "HIGH" | "CRITICAL",
  "risk_score": number (0.0 to 100.0),
  "suspicious_patterns": string[] (list of anomalous behaviors),
  "recommended_action": string,
  "action": string (summary),
  "reasoning": string (security analysis reasoning),
  "confidence": number (0.0 to 1.0)
}`

// UEBAInput carries behavior context for security analysis. Behavior
// maps are free-form: the workflow passes a summary of the actions the
// other agents just took.
type UEBAInput struct {
	VehicleID        string
	EventType        string
	CurrentBehavior  map[string]interface{}
	BaselineBehavior map[string]interface{}
	Violations       []models.RuleViolation
}

// UEBAResult is the security agent's assessment.
type UEBAResult struct {
	Output
	AnomalyDetected    bool            `json:"anomaly_detected"`
	RiskLevel          models.Severity `json:"risk_level"`
	RiskScore          float64         `json:"risk_score"`
	SuspiciousPatterns []string        `json:"suspicious_patterns"`
	RecommendedAction  string          `json:"recommended_action,omitempty"`
	Fallback           bool            `json:"fallback,omitempty"`
}

type uebaWire struct {
	Output
	AnomalyDetected    *bool           `json:"anomaly_detected"`
	RiskLevel          models.Severity `json:"risk_level"`
	RiskScore          float64         `json:"risk_score"`
	SuspiciousPatterns []string        `json:"suspicious_patterns"`
	RecommendedAction  string          `json:"recommended_action"`
}

func (w *uebaWire) validate() error {
	if w.AnomalyDetected == nil {
		return fmt.Errorf("missing anomaly_detected")
	}
	if !w.RiskLevel.Valid() {
		return fmt.Errorf("missing or invalid risk_level %q", w.RiskLevel)
	}
	return nil
}

// UEBAAgent watches for behavior anomalies that could indicate a
// cyber-physical attack rather than ordinary wear.
type UEBAAgent struct {
	client inference.Client
	logger *logging.Logger
}

// NewUEBAAgent creates a UEBA agent backed by the given client.
func NewUEBAAgent(client inference.Client) *UEBAAgent {
	return &UEBAAgent{
		client: client,
		logger: logging.GetLogger("agents.ueba"),
	}
}

// Run performs a security assessment of the vehicle's behavior. Never fails.
func (a *UEBAAgent) Run(ctx context.Context, input UEBAInput) *UEBAResult {
	baseline := "No baseline available - first-time analysis"
	if len(input.BaselineBehavior) > 0 {
		baseline = "BASE BEHAVIOR:\n" + mustJSON(input.BaselineBehavior)
	}

	violationCtx := ""
	if len(input.Violations) > 0 {
		violationCtx = fmt.Sprintf(`
ACTIVE VIOLATIONS (CRITICAL CONTEXT):
%s
NOTE: Critical physical violations (like extreme overheat) WITHOUT prior degradation MAY indicate a cyber-physical attack (e.g. sensor spoofing or actuator hack).
`, rules.FormatViolations(input.Violations))
	}

	prompt := fmt.Sprintf(`Analyze this vehicle behavior for security anomalies:

VEHICLE ID: %s
EVENT TYPE: %s

CURRENT BEHAVIOR:
%s

%s
%s
Perform UEBA analysis and provide security assessment in JSON format.`,
		input.VehicleID,
		input.EventType,
		mustJSON(input.CurrentBehavior),
		baseline,
		violationCtx,
	)

	raw, err := a.client.Complete(ctx, prompt, uebaSystemPrompt, temperatureUEBA)
	if err == nil {
		var wire uebaWire
		if err = inference.DecodeJSON(raw, &wire); err == nil {
			if err = wire.validate(); err == nil {
				return &UEBAResult{
					Output:             wire.Output,
					AnomalyDetected:    *wire.AnomalyDetected,
					RiskLevel:          wire.RiskLevel,
					RiskScore:          wire.RiskScore,
					SuspiciousPatterns: wire.SuspiciousPatterns,
					RecommendedAction:  wire.RecommendedAction,
				}
			}
		}
	}

	a.logger.WarnWithFields("ueba agent degraded to fallback",
		logging.Field("vehicle_id", input.VehicleID),
		logging.Field("error", err.Error()),
	)
	return a.fallback()
}

func (a *UEBAAgent) fallback() *UEBAResult {
	return &UEBAResult{
		Output: Output{
			Action:     "Security monitoring completed",
			Reasoning:  "Fallback UEBA analysis due to AI service unavailability",
			Confidence: 0.5,
		},
		AnomalyDetected:    false,
		RiskLevel:          models.SeverityLow,
		RiskScore:          10,
		SuspiciousPatterns: []string{},
		Fallback:           true,
	}
}
