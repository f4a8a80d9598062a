package agents

import (
	"context"
	"fmt"

	"github.com/autosentience/vigil/internal/inference"
	"github.com/autosentience/vigil/internal/logging"
	"github.com/autosentience/vigil/internal/models"
)

const engagementSystemPrompt = `You are a friendly and professional customer engagement AI agent for an automotive maintenance system. Your role is to communicate vehicle issues to users in a clear, reassuring manner.

CRITICAL RULES:
1. Always return valid JSON in the exact format specified
2. Use simple, non-technical language that anyone can understand
3. Be reassuring but honest about severity
4. Provide clear next steps
5. Determine if immediate user contact is needed

Your response must be a JSON object with these exact fields:
{
  "message": string (user-friendly explanation),
  "tone": "informative" | "urgent" | "reassuring",
  "should_call_user": boolean,
  "action": string (summary),
  "reasoning": string (why this communication approach),
  "confidence": number (0.0 to 1.0)
}`

// Tone classifies the register of a user-facing message.
type Tone string

const (
	ToneInformative Tone = "informative"
	ToneUrgent      Tone = "urgent"
	ToneReassuring  Tone = "reassuring"
)

func (t Tone) valid() bool {
	switch t {
	case ToneInformative, ToneUrgent, ToneReassuring:
		return true
	}
	return false
}

// EngagementInput is the alert context to communicate to the user.
type EngagementInput struct {
	VehicleID string
	Alert     *models.Alert
	UserName  string
}

// EngagementResult is the engagement agent's decision.
type EngagementResult struct {
	Output
	Message        string `json:"message"`
	Tone           Tone   `json:"tone"`
	ShouldCallUser bool   `json:"should_call_user"`
	Fallback       bool   `json:"fallback,omitempty"`
}

type engagementWire struct {
	Output
	Message        string `json:"message"`
	Tone           Tone   `json:"tone"`
	ShouldCallUser *bool  `json:"should_call_user"`
}

func (w *engagementWire) validate() error {
	if w.Message == "" {
		return fmt.Errorf("missing message")
	}
	if !w.Tone.valid() {
		return fmt.Errorf("missing or invalid tone %q", w.Tone)
	}
	return nil
}

// EngagementAgent prepares user-facing communication about an alert.
type EngagementAgent struct {
	client inference.Client
	logger *logging.Logger
}

// NewEngagementAgent creates an engagement agent backed by the given client.
func NewEngagementAgent(client inference.Client) *EngagementAgent {
	return &EngagementAgent{
		client: client,
		logger: logging.GetLogger("agents.engagement"),
	}
}

// Run prepares the user notification for an alert. Never fails.
func (a *EngagementAgent) Run(ctx context.Context, input EngagementInput) *EngagementResult {
	cost := "TBD"
	if input.Alert.EstimatedCost != nil {
		cost = fmt.Sprintf("$%g", *input.Alert.EstimatedCost)
	}
	userLine := ""
	if input.UserName != "" {
		userLine = "USER NAME: " + input.UserName + "\n"
	}

	prompt := fmt.Sprintf(`Create a user-friendly message about this vehicle alert:

VEHICLE ID: %s
ALERT TITLE: %s
SEVERITY: %s
DESCRIPTION: %s
DIAGNOSIS: %s
RECOMMENDED ACTION: %s
ESTIMATED COST: %s

%sGenerate an appropriate message for the user in JSON format.`,
		input.VehicleID,
		input.Alert.Title,
		input.Alert.Severity,
		input.Alert.Description,
		input.Alert.Diagnosis,
		input.Alert.RecommendedAction,
		cost,
		userLine,
	)

	raw, err := a.client.Complete(ctx, prompt, engagementSystemPrompt, temperatureEngagement)
	if err == nil {
		var wire engagementWire
		if err = inference.DecodeJSON(raw, &wire); err == nil {
			if err = wire.validate(); err == nil {
				shouldCall := false
				if wire.ShouldCallUser != nil {
					shouldCall = *wire.ShouldCallUser
				}
				return &EngagementResult{
					Output:         wire.Output,
					Message:        wire.Message,
					Tone:           wire.Tone,
					ShouldCallUser: shouldCall,
				}
			}
		}
	}

	a.logger.WarnWithFields("engagement agent degraded to fallback",
		logging.Field("vehicle_id", input.VehicleID),
		logging.Field("error", err.Error()),
	)
	return a.fallback(input)
}

// fallback templates a notification from the alert fields.
func (a *EngagementAgent) fallback(input EngagementInput) *EngagementResult {
	severity := input.Alert.Severity
	tone := ToneInformative
	if severity == models.SeverityCritical {
		tone = ToneUrgent
	}

	return &EngagementResult{
		Output: Output{
			Action:     "User notification prepared",
			Reasoning:  "Fallback message due to AI service unavailability",
			Confidence: fallbackConfidence,
		},
		Message:        fmt.Sprintf("We've detected an issue with your vehicle: %s. %s", input.Alert.Title, input.Alert.RecommendedAction),
		Tone:           tone,
		ShouldCallUser: severity == models.SeverityCritical || severity == models.SeverityHigh,
		Fallback:       true,
	}
}
