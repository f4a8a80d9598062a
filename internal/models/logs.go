package models

import (
	"encoding/json"
	"time"
)

// AgentType identifies which decision unit produced a log row.
type AgentType string

const (
	AgentMaster        AgentType = "MASTER"
	AgentDiagnosis     AgentType = "DIAGNOSIS"
	AgentEngagement    AgentType = "ENGAGEMENT"
	AgentScheduling    AgentType = "SCHEDULING"
	AgentDataAnalysis  AgentType = "DATA_ANALYSIS"
	AgentFeedback      AgentType = "FEEDBACK"
	AgentManufacturing AgentType = "MANUFACTURING"
	AgentUEBA          AgentType = "UEBA"
	AgentRCA           AgentType = "RCA"
)

// AgentLog records one agent decision for auditability.
type AgentLog struct {
	ID        string    `json:"id"`
	VehicleID string    `json:"vehicle_id,omitempty"`
	AgentType AgentType `json:"agent_type"`
	Action    string    `json:"action"`

	InputData  json.RawMessage `json:"input_data,omitempty"`
	Decision   json.RawMessage `json:"decision,omitempty"`
	Reasoning  string          `json:"reasoning,omitempty"`
	Confidence float64         `json:"confidence_score"`

	AlertID   string `json:"alert_id,omitempty"`
	BookingID string `json:"booking_id,omitempty"`

	ExecutionTimeMs int64     `json:"execution_time_ms,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// UEBALog records a behavior-analytics assessment of one workflow execution.
// One row is written per orchestrator run regardless of outcome.
type UEBALog struct {
	ID        string `json:"id"`
	VehicleID string `json:"vehicle_id,omitempty"`

	EventType string `json:"event_type"`

	RiskLevel       Severity `json:"risk_level"`
	RiskScore       float64  `json:"risk_score"`
	AnomalyDetected bool     `json:"anomaly_detected"`

	DetectionMethod string          `json:"detection_method,omitempty"`
	CurrentBehavior json.RawMessage `json:"current_behavior,omitempty"`

	ActionTaken string    `json:"action_taken,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
