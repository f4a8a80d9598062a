package rules

import (
	"fmt"
	"math"
	"strings"

	"github.com/autosentience/vigil/internal/models"
)

// Engine evaluates an ordered threshold-rule table against sensor readings.
// Detection is a pure function: no side effects, no error paths.
type Engine struct {
	rules []Rule
}

// NewEngine creates an engine over the given ordered rule table.
// Pass DefaultRules() for the built-in thresholds.
func NewEngine(rules []Rule) *Engine {
	return &Engine{rules: rules}
}

// Rules returns the engine's rule table in evaluation order.
func (e *Engine) Rules() []Rule {
	return e.rules
}

// Detect evaluates every rule against the reading, in table order.
// Absent parameters skip their rules; NaN values are treated as absent.
// Min and max bounds are checked independently and the bound that fires
// records its own threshold. Violations are not deduplicated per
// parameter: two rules on the same parameter both fire when both of
// their bounds are crossed.
func (e *Engine) Detect(reading *models.SensorReading) models.RuleDetectionResult {
	var violations []models.RuleViolation

	for _, rule := range e.rules {
		value, ok := reading.Param(rule.Parameter)
		if !ok || math.IsNaN(value) {
			continue
		}

		violated := false
		threshold := 0.0

		if rule.Min != nil && value < *rule.Min {
			violated = true
			threshold = *rule.Min
		}
		if rule.Max != nil && value > *rule.Max {
			violated = true
			threshold = *rule.Max
		}

		if violated {
			violations = append(violations, models.RuleViolation{
				RuleName:     rule.Parameter + "_threshold",
				Parameter:    rule.Parameter,
				CurrentValue: value,
				Threshold:    threshold,
				Severity:     rule.Severity,
				Message:      rule.Message,
			})
		}
	}

	result := models.RuleDetectionResult{
		Violations:    violations,
		HasViolations: len(violations) > 0,
	}
	if highest, ok := models.MaxSeverity(violations); ok {
		result.HighestSeverity = &highest
	}
	return result
}

// FormatViolations renders a violation set as the line-per-violation
// summary used in diagnosis prompts and alert descriptions.
func FormatViolations(violations []models.RuleViolation) string {
	if len(violations) == 0 {
		return "No rule violations detected."
	}

	lines := make([]string, 0, len(violations))
	for _, v := range violations {
		lines = append(lines, fmt.Sprintf("- %s: %s = %g (threshold: %g, severity: %s)",
			v.Message, v.Parameter, v.CurrentValue, v.Threshold, v.Severity))
	}
	return strings.Join(lines, "\n")
}

// RecommendedAction maps a severity to the default user guidance.
func RecommendedAction(severity models.Severity) string {
	switch severity {
	case models.SeverityCritical:
		return "IMMEDIATE ACTION REQUIRED - Stop vehicle safely and call for assistance"
	case models.SeverityHigh:
		return "Schedule service appointment within 24-48 hours"
	case models.SeverityMedium:
		return "Schedule service appointment within 7 days"
	case models.SeverityLow:
		return "Monitor condition and schedule service at next convenient time"
	default:
		return "Continue normal operation"
	}
}
