package models

// RuleViolation records a single threshold breach on one sensor parameter.
// Created by the rule engine; read-only afterward.
type RuleViolation struct {
	RuleName     string   `json:"rule_name"`
	Parameter    string   `json:"parameter"`
	CurrentValue float64  `json:"current_value"`
	Threshold    float64  `json:"threshold"`
	Severity     Severity `json:"severity"`
	Message      string   `json:"message"`
}

// RuleDetectionResult aggregates the violations from one detection pass.
// Violations preserve rule-table evaluation order.
type RuleDetectionResult struct {
	Violations      []RuleViolation `json:"violations"`
	HasViolations   bool            `json:"has_violations"`
	HighestSeverity *Severity       `json:"highest_severity"`
}
