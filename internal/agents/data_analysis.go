package agents

import (
	"context"
	"fmt"

	"github.com/autosentience/vigil/internal/inference"
	"github.com/autosentience/vigil/internal/logging"
	"github.com/autosentience/vigil/internal/models"
)

const dataAnalysisSystemPrompt = `You are an expert automotive data analysis AI agent. Your role is to analyze real-time sensor data and historical trends to detect anomalies and forecast needs.

CRITICAL RULES:
1. Always return valid JSON in the exact format specified
2. Detect subtle patterns indicating early failure signs
3. Forecast service demand based on usage patterns
4. Be precise with anomaly detection

Your response must be a JSON object with these exact fields:
{
  "anomalies_detected": boolean,
  "predicted_maintenance_needs": string[] (list of likely upcoming issues),
  "demand_forecast": [
    {
      "service_type": string,
      "predicted_volume": "low" | "medium" | "high",
      "timeframe": string
    }
  ],
  "action": string (summary),
  "reasoning": string (analysis logic),
  "confidence": number (0.0 to 1.0)
}`

// DemandForecast is a projected service demand entry.
type DemandForecast struct {
	ServiceType     string `json:"service_type"`
	PredictedVolume string `json:"predicted_volume"`
	Timeframe       string `json:"timeframe"`
}

// DataAnalysisInput carries the reading plus recent history for trend
// analysis.
type DataAnalysisInput struct {
	VehicleID      string
	SensorData     *models.SensorReading
	RecentReadings []models.SensorReading
}

// DataAnalysisResult is the data analysis agent's assessment.
type DataAnalysisResult struct {
	Output
	AnomaliesDetected         bool             `json:"anomalies_detected"`
	PredictedMaintenanceNeeds []string         `json:"predicted_maintenance_needs"`
	DemandForecast            []DemandForecast `json:"demand_forecast"`
	Fallback                  bool             `json:"fallback,omitempty"`
}

type dataAnalysisWire struct {
	Output
	AnomaliesDetected         *bool            `json:"anomalies_detected"`
	PredictedMaintenanceNeeds []string         `json:"predicted_maintenance_needs"`
	DemandForecast            []DemandForecast `json:"demand_forecast"`
}

func (w *dataAnalysisWire) validate() error {
	if w.AnomaliesDetected == nil {
		return fmt.Errorf("missing anomalies_detected")
	}
	return nil
}

// DataAnalysisAgent looks for trends and early failure signs across
// recent readings.
type DataAnalysisAgent struct {
	client inference.Client
	logger *logging.Logger
}

// NewDataAnalysisAgent creates a data analysis agent backed by the given client.
func NewDataAnalysisAgent(client inference.Client) *DataAnalysisAgent {
	return &DataAnalysisAgent{
		client: client,
		logger: logging.GetLogger("agents.data_analysis"),
	}
}

// Run analyzes the reading against recent history. Never fails.
func (a *DataAnalysisAgent) Run(ctx context.Context, input DataAnalysisInput) *DataAnalysisResult {
	history := input.RecentReadings
	if len(history) > 5 {
		history = history[:5]
	}

	prompt := fmt.Sprintf(`Analyze this vehicle data for anomalies and forecast needs:

VEHICLE ID: %s

SENSOR DATA:
%s

MAINTENANCE HISTORY SUMMARY:
%s

Provide data analysis and forecasting in JSON format.`,
		input.VehicleID,
		mustJSON(input.SensorData),
		mustJSON(history),
	)

	raw, err := a.client.Complete(ctx, prompt, dataAnalysisSystemPrompt, temperatureDataAnalysis)
	if err == nil {
		var wire dataAnalysisWire
		if err = inference.DecodeJSON(raw, &wire); err == nil {
			if err = wire.validate(); err == nil {
				return &DataAnalysisResult{
					Output:                    wire.Output,
					AnomaliesDetected:         *wire.AnomaliesDetected,
					PredictedMaintenanceNeeds: wire.PredictedMaintenanceNeeds,
					DemandForecast:            wire.DemandForecast,
				}
			}
		}
	}

	a.logger.WarnWithFields("data analysis agent degraded to fallback",
		logging.Field("vehicle_id", input.VehicleID),
		logging.Field("error", err.Error()),
	)
	return a.fallback()
}

func (a *DataAnalysisAgent) fallback() *DataAnalysisResult {
	return &DataAnalysisResult{
		Output: Output{
			Action:     "Data analysis completed (fallback)",
			Reasoning:  "Fallback analysis due to AI service unavailability",
			Confidence: 0.5,
		},
		AnomaliesDetected:         false,
		PredictedMaintenanceNeeds: []string{},
		DemandForecast:            []DemandForecast{},
		Fallback:                  true,
	}
}
