package models

// Severity classifies the impact of a rule violation or alert.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// severityRank orders severities from least to most severe.
var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// Rank returns the ordinal position of the severity (LOW < MEDIUM < HIGH < CRITICAL).
// Unknown severities rank below LOW.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return -1
}

// Valid reports whether s is one of the four known severities.
func (s Severity) Valid() bool {
	_, ok := severityRank[s]
	return ok
}

// MaxSeverity returns the highest-ranked severity among violations.
// Ties keep the first-seen value. Returns ("", false) when the slice is empty.
func MaxSeverity(violations []RuleViolation) (Severity, bool) {
	var highest Severity
	found := false
	for _, v := range violations {
		if !found || v.Severity.Rank() > highest.Rank() {
			highest = v.Severity
			found = true
		}
	}
	return highest, found
}
