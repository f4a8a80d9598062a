package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/autosentience/vigil/internal/inference"
	"github.com/autosentience/vigil/internal/logging"
	"github.com/autosentience/vigil/internal/models"
)

const schedulingSystemPrompt = `You are a service scheduling AI agent for an automotive maintenance system. Your role is to determine optimal service scheduling based on alert severity and service requirements.

CRITICAL RULES:
1. Always return valid JSON in the exact format specified
2. CRITICAL and HIGH severity issues should be scheduled within 1-3 days
3. MEDIUM severity within 1-2 weeks
4. LOW severity within a month
5. Suggest realistic appointment dates (YYYY-MM-DD format)

Your response must be a JSON object with these exact fields:
{
  "booking_recommended": boolean,
  "suggested_dates": array of strings (YYYY-MM-DD),
  "service_type": string,
  "urgency": "immediate" | "soon" | "routine",
  "estimated_duration_minutes": number,
  "action": string (summary),
  "reasoning": string (scheduling rationale),
  "confidence": number (0.0 to 1.0)
}`

// SchedulingInput is the alert context used to propose a service booking.
type SchedulingInput struct {
	VehicleID string
	Alert     *models.Alert
	// Now anchors suggested dates; zero means time.Now().
	Now time.Time
}

// SchedulingResult is the scheduling agent's decision.
type SchedulingResult struct {
	Output
	BookingRecommended bool     `json:"booking_recommended"`
	SuggestedDates     []string `json:"suggested_dates"`
	ServiceType        string   `json:"service_type"`
	Urgency            string   `json:"urgency"`
	EstimatedDuration  int      `json:"estimated_duration_minutes"`
	Fallback           bool     `json:"fallback,omitempty"`
}

type schedulingWire struct {
	Output
	BookingRecommended *bool    `json:"booking_recommended"`
	SuggestedDates     []string `json:"suggested_dates"`
	ServiceType        string   `json:"service_type"`
	Urgency            string   `json:"urgency"`
	EstimatedDuration  int      `json:"estimated_duration_minutes"`
}

func (w *schedulingWire) validate() error {
	if w.BookingRecommended == nil {
		return fmt.Errorf("missing booking_recommended")
	}
	if w.ServiceType == "" {
		return fmt.Errorf("missing service_type")
	}
	return nil
}

// SchedulingAgent proposes service appointments for an alert.
type SchedulingAgent struct {
	client inference.Client
	logger *logging.Logger
}

// NewSchedulingAgent creates a scheduling agent backed by the given client.
func NewSchedulingAgent(client inference.Client) *SchedulingAgent {
	return &SchedulingAgent{
		client: client,
		logger: logging.GetLogger("agents.scheduling"),
	}
}

// Run proposes booking details for an alert. Never fails.
func (a *SchedulingAgent) Run(ctx context.Context, input SchedulingInput) *SchedulingResult {
	now := input.Now
	if now.IsZero() {
		now = time.Now()
	}

	prompt := fmt.Sprintf(`Determine service scheduling for this vehicle alert:

VEHICLE ID: %s
ALERT TYPE: %s
SEVERITY: %s
DIAGNOSIS: %s
RECOMMENDED ACTION: %s
TODAY'S DATE: %s

Provide scheduling recommendation in JSON format.`,
		input.VehicleID,
		input.Alert.AlertType,
		input.Alert.Severity,
		input.Alert.Diagnosis,
		input.Alert.RecommendedAction,
		now.Format("2006-01-02"),
	)

	raw, err := a.client.Complete(ctx, prompt, schedulingSystemPrompt, temperatureScheduling)
	if err == nil {
		var wire schedulingWire
		if err = inference.DecodeJSON(raw, &wire); err == nil {
			if err = wire.validate(); err == nil {
				return &SchedulingResult{
					Output:             wire.Output,
					BookingRecommended: *wire.BookingRecommended,
					SuggestedDates:     wire.SuggestedDates,
					ServiceType:        wire.ServiceType,
					Urgency:            wire.Urgency,
					EstimatedDuration:  wire.EstimatedDuration,
				}
			}
		}
	}

	a.logger.WarnWithFields("scheduling agent degraded to fallback",
		logging.Field("vehicle_id", input.VehicleID),
		logging.Field("error", err.Error()),
	)
	return a.fallback(input, now)
}

// fallback recommends booking for HIGH and CRITICAL alerts within the
// next three days.
func (a *SchedulingAgent) fallback(input SchedulingInput, now time.Time) *SchedulingResult {
	severity := input.Alert.Severity
	recommended := severity == models.SeverityHigh || severity == models.SeverityCritical

	urgency := "routine"
	switch severity {
	case models.SeverityCritical:
		urgency = "immediate"
	case models.SeverityHigh:
		urgency = "soon"
	}

	dates := []string{}
	if recommended {
		for i := 1; i <= 3; i++ {
			dates = append(dates, now.AddDate(0, 0, i).Format("2006-01-02"))
		}
	}

	return &SchedulingResult{
		Output: Output{
			Action:     "Service scheduling evaluated",
			Reasoning:  "Fallback scheduling due to AI service unavailability",
			Confidence: fallbackConfidence,
		},
		BookingRecommended: recommended,
		SuggestedDates:     dates,
		ServiceType:        strings.ReplaceAll(strings.ToLower(input.Alert.AlertType), "_", " ") + " service",
		Urgency:            urgency,
		EstimatedDuration:  60,
		Fallback:           true,
	}
}
