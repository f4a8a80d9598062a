package agents

import (
	"context"
	"fmt"

	"github.com/autosentience/vigil/internal/inference"
	"github.com/autosentience/vigil/internal/logging"
	"github.com/autosentience/vigil/internal/models"
)

const manufacturingSystemPrompt = `You are a Manufacturing Quality Insights AI agent. Your role is to analyze aggregated failure data and RCA reports to suggest product design improvements and reduce recurring defects.

CRITICAL RULES:
1. Always return valid JSON in the exact format specified
2. Focus on systemic issues and design flaws
3. Suggest actionable engineering improvements
4. Link failures to specific components

Your response must be a JSON object with these exact fields:
{
  "design_improvements": string[] (engineering suggestions),
  "defect_reduction_strategies": string[] (process improvements),
  "affected_components": string[] (list of components),
  "action": string (summary),
  "reasoning": string (analysis logic),
  "confidence": number (0.0 to 1.0)
}`

// ManufacturingInput aggregates recent failures for quality analysis.
type ManufacturingInput struct {
	VehicleID          string
	AggregatedFailures []models.RuleViolation
	FailureCounts      map[string]int
}

// ManufacturingResult is the manufacturing quality agent's report.
type ManufacturingResult struct {
	Output
	DesignImprovements        []string `json:"design_improvements"`
	DefectReductionStrategies []string `json:"defect_reduction_strategies"`
	AffectedComponents        []string `json:"affected_components"`
	Fallback                  bool     `json:"fallback,omitempty"`
}

type manufacturingWire struct {
	Output
	DesignImprovements        []string `json:"design_improvements"`
	DefectReductionStrategies []string `json:"defect_reduction_strategies"`
	AffectedComponents        []string `json:"affected_components"`
}

func (w *manufacturingWire) validate() error {
	if len(w.DesignImprovements) == 0 {
		return fmt.Errorf("missing design_improvements")
	}
	return nil
}

// ManufacturingAgent turns recurring failures into engineering insight.
type ManufacturingAgent struct {
	client inference.Client
	logger *logging.Logger
}

// NewManufacturingAgent creates a manufacturing quality agent backed by
// the given client.
func NewManufacturingAgent(client inference.Client) *ManufacturingAgent {
	return &ManufacturingAgent{
		client: client,
		logger: logging.GetLogger("agents.manufacturing"),
	}
}

// Run analyzes failure data for design improvements. Never fails.
func (a *ManufacturingAgent) Run(ctx context.Context, input ManufacturingInput) *ManufacturingResult {
	failures := input.AggregatedFailures
	if len(failures) > 5 {
		failures = failures[:5]
	}

	prompt := fmt.Sprintf(`Analyze these failures and RCA reports for manufacturing insights:

FAILURES SUMMARY:
%s

FAILURE COUNTS BY TYPE:
%s

Provide manufacturing quality insights in JSON format.`,
		mustJSON(failures),
		mustJSON(input.FailureCounts),
	)

	raw, err := a.client.Complete(ctx, prompt, manufacturingSystemPrompt, temperatureManufacturing)
	if err == nil {
		var wire manufacturingWire
		if err = inference.DecodeJSON(raw, &wire); err == nil {
			if err = wire.validate(); err == nil {
				return &ManufacturingResult{
					Output:                    wire.Output,
					DesignImprovements:        wire.DesignImprovements,
					DefectReductionStrategies: wire.DefectReductionStrategies,
					AffectedComponents:        wire.AffectedComponents,
				}
			}
		}
	}

	a.logger.WarnWithFields("manufacturing agent degraded to fallback",
		logging.Field("vehicle_id", input.VehicleID),
		logging.Field("error", err.Error()),
	)
	return a.fallback()
}

func (a *ManufacturingAgent) fallback() *ManufacturingResult {
	return &ManufacturingResult{
		Output: Output{
			Action:     "Insights generated (fallback)",
			Reasoning:  "Fallback insights due to AI service unavailability",
			Confidence: 0.5,
		},
		DesignImprovements:        []string{"Investigate component durability"},
		DefectReductionStrategies: []string{"Increase quality control sampling"},
		AffectedComponents:        []string{"Unknown"},
		Fallback:                  true,
	}
}
