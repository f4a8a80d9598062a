// Package agents implements the decision units of the maintenance
// pipeline. Each agent wraps exactly one inference call: it renders a
// deterministic prompt, asks the model for a JSON decision, validates the
// discriminating fields, and on any failure computes a deterministic
// fallback from the same input. Agents never return an error to the
// orchestrator; a degraded decision carries Fallback=true and a
// confidence no higher than 0.6.
package agents

import "encoding/json"

// Output is the base contract every agent decision satisfies.
type Output struct {
	Action     string  `json:"action"`
	Reasoning  string  `json:"reasoning"`
	Confidence float64 `json:"confidence"`
}

// fallbackConfidence is the confidence assigned to deterministic
// fallback decisions, distinguishable from AI-derived confidences.
const fallbackConfidence = 0.6

// Fixed sampling temperatures per agent.
const (
	temperatureDiagnosis     = 0.5
	temperatureEngagement    = 0.7
	temperatureScheduling    = 0.5
	temperatureDataAnalysis  = 0.4
	temperatureFeedback      = 0.6
	temperatureManufacturing = 0.5
	temperatureUEBA          = 0.4
	temperatureRCA           = 0.6
)

// mustJSON renders v for prompt interpolation. Prompt rendering never
// fails for the input types agents use; a marshal error degrades to "{}".
func mustJSON(v interface{}) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}
