package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autosentience/vigil/internal/models"
)

func TestMemoryReadingRoundTrip(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	_, err := s.LatestReading(ctx, "VH-001")
	assert.ErrorIs(t, err, ErrNotFound)

	first := &models.SensorReading{VehicleID: "VH-001", EngineTemp: models.Float(90)}
	second := &models.SensorReading{VehicleID: "VH-001", EngineTemp: models.Float(120)}
	other := &models.SensorReading{VehicleID: "VH-002", EngineTemp: models.Float(85)}

	require.NoError(t, s.InsertReading(ctx, first))
	require.NoError(t, s.InsertReading(ctx, other))
	require.NoError(t, s.InsertReading(ctx, second))

	assert.NotEmpty(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	latest, err := s.LatestReading(ctx, "VH-001")
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)

	recent, err := s.RecentReadings(ctx, "VH-001", 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, second.ID, recent[0].ID)

	limited, err := s.RecentReadings(ctx, "VH-001", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestMemoryAlertLifecycle(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	a := &models.Alert{
		VehicleID: "VH-001",
		AlertType: "ENGINE_OVERHEAT",
		Severity:  models.SeverityHigh,
		Title:     "ENGINE_OVERHEAT",
	}
	require.NoError(t, s.InsertAlert(ctx, a))
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, models.AlertOpen, a.Status)

	got, err := s.AlertByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Title, got.Title)

	open, err := s.OpenAlerts(ctx, "VH-001")
	require.NoError(t, err)
	assert.Len(t, open, 1)

	updated, err := s.UpdateAlertStatus(ctx, a.ID, models.AlertAcknowledged)
	require.NoError(t, err)
	require.NotNil(t, updated.AcknowledgedAt)
	firstAck := *updated.AcknowledgedAt

	// Re-applying a status must not move the original stamp.
	updated, err = s.UpdateAlertStatus(ctx, a.ID, models.AlertInProgress)
	require.NoError(t, err)
	assert.Equal(t, firstAck, *updated.AcknowledgedAt)
	assert.Nil(t, updated.ResolvedAt)

	updated, err = s.UpdateAlertStatus(ctx, a.ID, models.AlertResolved)
	require.NoError(t, err)
	require.NotNil(t, updated.ResolvedAt)
	firstResolved := *updated.ResolvedAt

	updated, err = s.UpdateAlertStatus(ctx, a.ID, models.AlertResolved)
	require.NoError(t, err)
	assert.Equal(t, models.AlertResolved, updated.Status)
	assert.Equal(t, firstResolved, *updated.ResolvedAt)

	open, err = s.OpenAlerts(ctx, "VH-001")
	require.NoError(t, err)
	assert.Empty(t, open)

	_, err = s.UpdateAlertStatus(ctx, "missing", models.AlertResolved)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryListAlertsFilters(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	require.NoError(t, s.InsertAlert(ctx, &models.Alert{VehicleID: "VH-001", AlertType: "ENGINE_OVERHEAT", Severity: models.SeverityHigh, Title: "a"}))
	require.NoError(t, s.InsertAlert(ctx, &models.Alert{VehicleID: "VH-001", AlertType: "BATTERY_LOW", Severity: models.SeverityMedium, Title: "b"}))
	require.NoError(t, s.InsertAlert(ctx, &models.Alert{VehicleID: "VH-002", AlertType: "ENGINE_OVERHEAT", Severity: models.SeverityCritical, Title: "c"}))

	all, err := s.ListAlerts(ctx, AlertFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byVehicle, err := s.ListAlerts(ctx, AlertFilter{VehicleID: "VH-001"})
	require.NoError(t, err)
	assert.Len(t, byVehicle, 2)

	bySeverity, err := s.ListAlerts(ctx, AlertFilter{Severity: models.SeverityCritical})
	require.NoError(t, err)
	require.Len(t, bySeverity, 1)
	assert.Equal(t, "c", bySeverity[0].Title)

	limited, err := s.ListAlerts(ctx, AlertFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	severe, err := s.AlertsBySeverity(ctx, "VH-001", []models.Severity{models.SeverityHigh, models.SeverityCritical})
	require.NoError(t, err)
	require.Len(t, severe, 1)
	assert.Equal(t, "a", severe[0].Title)

	n, err := s.CountAlertsByType(ctx, "VH-001", "ENGINE_OVERHEAT")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMemoryLogsAndBookings(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	b := &models.Booking{VehicleID: "VH-001", ServiceType: "engine service", Status: models.BookingPending}
	require.NoError(t, s.InsertBooking(ctx, b))
	assert.NotEmpty(t, b.ID)

	require.NoError(t, s.InsertAgentLog(ctx, &models.AgentLog{VehicleID: "VH-001", AgentType: models.AgentMaster, Action: "Create alert"}))
	require.NoError(t, s.InsertUEBALog(ctx, &models.UEBALog{VehicleID: "VH-001", EventType: "AGENT_WORKFLOW_EXECUTION", RiskLevel: models.SeverityLow}))

	logs := s.AgentLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, models.AgentMaster, logs[0].AgentType)

	ueba := s.UEBALogs()
	require.Len(t, ueba, 1)
	assert.False(t, ueba[0].CreatedAt.IsZero())
}
