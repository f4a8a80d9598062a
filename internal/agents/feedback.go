package agents

import (
	"context"
	"fmt"

	"github.com/autosentience/vigil/internal/inference"
	"github.com/autosentience/vigil/internal/logging"
)

const feedbackSystemPrompt = `You are a customer feedback AI agent. Your role is to simulate the collection of post-service feedback and update vehicle records.

CRITICAL RULES:
1. Always return valid JSON in the exact format specified
2. Simulate realistic customer sentiment based on service outcome
3. Extract qualitative insights

Your response must be a JSON object with these exact fields:
{
  "satisfaction_score": number (1-10),
  "qualitative_feedback": string (simulated customer comment),
  "record_updated": boolean,
  "action": string (summary),
  "reasoning": string (why this score/feedback),
  "confidence": number (0.0 to 1.0)
}`

// FeedbackInput identifies the completed service to collect feedback on.
type FeedbackInput struct {
	VehicleID      string
	ServiceID      string
	ServiceOutcome string // success, failure or pending
}

// FeedbackResult is the feedback agent's simulated customer response.
type FeedbackResult struct {
	Output
	SatisfactionScore   int    `json:"satisfaction_score"`
	QualitativeFeedback string `json:"qualitative_feedback"`
	RecordUpdated       bool   `json:"record_updated"`
	Fallback            bool   `json:"fallback,omitempty"`
}

type feedbackWire struct {
	Output
	SatisfactionScore   *int   `json:"satisfaction_score"`
	QualitativeFeedback string `json:"qualitative_feedback"`
	RecordUpdated       bool   `json:"record_updated"`
}

func (w *feedbackWire) validate() error {
	if w.SatisfactionScore == nil {
		return fmt.Errorf("missing satisfaction_score")
	}
	if *w.SatisfactionScore < 1 || *w.SatisfactionScore > 10 {
		return fmt.Errorf("satisfaction_score %d out of range", *w.SatisfactionScore)
	}
	if w.QualitativeFeedback == "" {
		return fmt.Errorf("missing qualitative_feedback")
	}
	return nil
}

// FeedbackAgent collects post-service customer feedback.
type FeedbackAgent struct {
	client inference.Client
	logger *logging.Logger
}

// NewFeedbackAgent creates a feedback agent backed by the given client.
func NewFeedbackAgent(client inference.Client) *FeedbackAgent {
	return &FeedbackAgent{
		client: client,
		logger: logging.GetLogger("agents.feedback"),
	}
}

// Run simulates feedback collection for a service. Never fails.
func (a *FeedbackAgent) Run(ctx context.Context, input FeedbackInput) *FeedbackResult {
	prompt := fmt.Sprintf(`Simulate feedback collection for this service:

SERVICE ID: %s
OUTCOME: %s

Generate simulated feedback in JSON format.`,
		input.ServiceID,
		input.ServiceOutcome,
	)

	raw, err := a.client.Complete(ctx, prompt, feedbackSystemPrompt, temperatureFeedback)
	if err == nil {
		var wire feedbackWire
		if err = inference.DecodeJSON(raw, &wire); err == nil {
			if err = wire.validate(); err == nil {
				return &FeedbackResult{
					Output:              wire.Output,
					SatisfactionScore:   *wire.SatisfactionScore,
					QualitativeFeedback: wire.QualitativeFeedback,
					RecordUpdated:       wire.RecordUpdated,
				}
			}
		}
	}

	a.logger.WarnWithFields("feedback agent degraded to fallback",
		logging.Field("vehicle_id", input.VehicleID),
		logging.Field("error", err.Error()),
	)
	return a.fallback()
}

func (a *FeedbackAgent) fallback() *FeedbackResult {
	return &FeedbackResult{
		Output: Output{
			Action:     "Feedback recorded (fallback)",
			Reasoning:  "Fallback feedback due to AI service unavailability",
			Confidence: 0.5,
		},
		SatisfactionScore:   8,
		QualitativeFeedback: "Service was okay, but took longer than expected.",
		RecordUpdated:       true,
		Fallback:            true,
	}
}
