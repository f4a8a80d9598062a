package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autosentience/vigil/internal/models"
	"github.com/autosentience/vigil/internal/store"
)

// failingClient simulates a fully unavailable inference backend.
type failingClient struct{}

func (failingClient) Complete(ctx context.Context, prompt, systemPrompt string, temperature float64) (string, error) {
	return "", errors.New("inference unavailable")
}

func (failingClient) Model() string { return "unavailable" }

func overheatInput() Input {
	return Input{
		VehicleID: "VH-001",
		SensorData: &models.SensorReading{
			ID:         "reading-1",
			VehicleID:  "VH-001",
			EngineTemp: models.Float(125),
		},
		Violations: []models.RuleViolation{
			{
				RuleName:     "engine_temp_threshold",
				Parameter:    "engine_temp",
				CurrentValue: 125,
				Threshold:    110,
				Severity:     models.SeverityHigh,
				Message:      "Engine temperature critically high",
			},
		},
	}
}

func TestExecuteValidatesInput(t *testing.T) {
	o := New(failingClient{}, store.NewMemory(), nil)

	_, err := o.Execute(context.Background(), Input{SensorData: &models.SensorReading{}})
	assert.Error(t, err)

	_, err = o.Execute(context.Background(), Input{VehicleID: "VH-001"})
	assert.Error(t, err)
}

func TestExecuteDegradesFullyWhenInferenceDown(t *testing.T) {
	mem := store.NewMemory()
	o := New(failingClient{}, mem, nil)

	result, err := o.Execute(context.Background(), overheatInput())
	require.NoError(t, err)
	require.NotNil(t, result)

	// Every stage ran on its fallback.
	require.NotNil(t, result.DataAnalysis)
	assert.True(t, result.DataAnalysis.Fallback)
	require.NotNil(t, result.MasterDecision)
	assert.True(t, result.MasterDecision.Fallback)
	assert.True(t, result.MasterDecision.ShouldCreateAlert)
	assert.Equal(t, PriorityHigh, result.MasterDecision.Priority)

	require.NotNil(t, result.Diagnosis)
	assert.True(t, result.Diagnosis.FaultDetected)
	require.NotNil(t, result.Engagement)
	require.NotNil(t, result.Scheduling)
	assert.True(t, result.Scheduling.BookingRecommended)
	require.NotNil(t, result.UEBA)
	require.NotNil(t, result.Feedback)
	require.NotNil(t, result.Manufacturing)

	// The alert was persisted with a real id.
	require.NotNil(t, result.Alert)
	assert.NotEqual(t, placeholderAlertID, result.Alert.ID)
	saved, err := mem.AlertByID(context.Background(), result.Alert.ID)
	require.NoError(t, err)
	assert.Equal(t, "ENGINE_TEMP", saved.AlertType)
	assert.Equal(t, models.SeverityHigh, saved.Severity)
	assert.Equal(t, "reading-1", saved.SensorReadingID)

	// Security log is always written.
	ueba := mem.UEBALogs()
	require.Len(t, ueba, 1)
	assert.Equal(t, "AGENT_WORKFLOW_EXECUTION", ueba[0].EventType)
	assert.Equal(t, "AI_BEHAVIOR_ANALYSIS", ueba[0].DetectionMethod)
	assert.Equal(t, "LOG_ONLY", ueba[0].ActionTaken)

	// Master, diagnosis and CAPA audit rows.
	logs := mem.AgentLogs()
	types := make([]models.AgentType, 0, len(logs))
	for _, l := range logs {
		types = append(types, l.AgentType)
	}
	assert.Contains(t, types, models.AgentMaster)
	assert.Contains(t, types, models.AgentDiagnosis)
	assert.Contains(t, types, models.AgentRCA)

	assert.GreaterOrEqual(t, result.ExecutionTimeMs, int64(0))
}

func TestExecuteNoViolationsSkipsGatedStages(t *testing.T) {
	mem := store.NewMemory()
	o := New(failingClient{}, mem, nil)

	input := Input{
		VehicleID:  "VH-001",
		SensorData: &models.SensorReading{VehicleID: "VH-001", EngineTemp: models.Float(90)},
	}
	result, err := o.Execute(context.Background(), input)
	require.NoError(t, err)

	assert.False(t, result.MasterDecision.ShouldCreateAlert)
	assert.Equal(t, PriorityLow, result.MasterDecision.Priority)
	assert.Nil(t, result.Diagnosis)
	assert.Nil(t, result.Alert)
	assert.Nil(t, result.Engagement)
	assert.Nil(t, result.Scheduling)
	assert.Nil(t, result.Feedback)
	assert.Nil(t, result.Manufacturing)

	// Monitoring-only runs still leave a security log.
	require.NotNil(t, result.UEBA)
	assert.Len(t, mem.UEBALogs(), 1)

	open, err := mem.OpenAlerts(context.Background(), "VH-001")
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestExecuteRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	o := New(failingClient{}, store.NewMemory(), NewMetrics(reg))

	_, err := o.Execute(context.Background(), overheatInput())
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["vigil_workflow_executions_total"])
	assert.True(t, names["vigil_workflow_fallbacks_total"])
	assert.True(t, names["vigil_workflow_alerts_created_total"])
	assert.True(t, names["vigil_workflow_duration_seconds"])
}

func TestMasterFallbackPriorityLadder(t *testing.T) {
	agent := NewMasterAgent(failingClient{})

	tests := []struct {
		name       string
		severities []models.Severity
		want       Priority
	}{
		{"no violations", nil, PriorityLow},
		{"medium only", []models.Severity{models.SeverityMedium}, PriorityMedium},
		{"high", []models.Severity{models.SeverityMedium, models.SeverityHigh}, PriorityHigh},
		{"critical wins", []models.Severity{models.SeverityHigh, models.SeverityCritical}, PriorityCritical},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			violations := make([]models.RuleViolation, 0, len(tc.severities))
			for _, s := range tc.severities {
				violations = append(violations, models.RuleViolation{Severity: s, Message: "m"})
			}
			decision := agent.Run(context.Background(), MasterInput{
				VehicleID:  "VH-001",
				SensorData: &models.SensorReading{},
				Violations: violations,
			})

			assert.True(t, decision.Fallback)
			assert.Equal(t, tc.want, decision.Priority)
			assert.Equal(t, len(violations) > 0, decision.ShouldCreateAlert)
		})
	}
}

func TestMasterParsesValidResponse(t *testing.T) {
	client := &scriptedClient{response: `{
		"action": "Create alert and notify user",
		"next_steps": ["Run diagnosis agent", "Create alert"],
		"should_create_alert": true,
		"should_notify_user": true,
		"should_book_service": false,
		"priority": "high",
		"reasoning": "Sustained overheat trend",
		"confidence": 0.9
	}`}
	agent := NewMasterAgent(client)

	decision := agent.Run(context.Background(), MasterInput{
		VehicleID:  "VH-001",
		SensorData: &models.SensorReading{EngineTemp: models.Float(125)},
	})

	assert.False(t, decision.Fallback)
	assert.True(t, decision.ShouldCreateAlert)
	assert.Equal(t, PriorityHigh, decision.Priority)
	assert.Equal(t, 0.5, client.lastTemp)
}

type scriptedClient struct {
	response string
	lastTemp float64
}

func (c *scriptedClient) Complete(ctx context.Context, prompt, systemPrompt string, temperature float64) (string, error) {
	c.lastTemp = temperature
	return c.response, nil
}

func (c *scriptedClient) Model() string { return "scripted" }
