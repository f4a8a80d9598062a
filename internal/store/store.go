// Package store persists readings, alerts, bookings and agent audit
// logs. Two implementations exist: Postgres for deployments and Memory
// for simulation and tests.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/autosentience/vigil/internal/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// AlertFilter narrows ListAlerts. Zero values mean no constraint.
type AlertFilter struct {
	VehicleID string
	Status    models.AlertStatus
	Severity  models.Severity
	Limit     int
}

// Store is the persistence contract shared by the API server, the
// workflow orchestrator and the telematics runner.
type Store interface {
	// Readings.
	InsertReading(ctx context.Context, r *models.SensorReading) error
	LatestReading(ctx context.Context, vehicleID string) (*models.SensorReading, error)
	RecentReadings(ctx context.Context, vehicleID string, limit int) ([]models.SensorReading, error)

	// Alerts.
	InsertAlert(ctx context.Context, a *models.Alert) error
	AlertByID(ctx context.Context, id string) (*models.Alert, error)
	OpenAlerts(ctx context.Context, vehicleID string) ([]models.Alert, error)
	ListAlerts(ctx context.Context, filter AlertFilter) ([]models.Alert, error)
	AlertsBySeverity(ctx context.Context, vehicleID string, severities []models.Severity) ([]models.Alert, error)
	CountAlertsByType(ctx context.Context, vehicleID, alertType string) (int, error)
	UpdateAlertStatus(ctx context.Context, id string, status models.AlertStatus) (*models.Alert, error)

	// Bookings and audit logs.
	InsertBooking(ctx context.Context, b *models.Booking) error
	InsertAgentLog(ctx context.Context, l *models.AgentLog) error
	InsertUEBALog(ctx context.Context, l *models.UEBALog) error
}

// applyStatusTimestamps stamps lifecycle timestamps for a status
// transition. Re-applying a status never overwrites an earlier stamp.
func applyStatusTimestamps(a *models.Alert, status models.AlertStatus, now time.Time) {
	switch status {
	case models.AlertAcknowledged, models.AlertInProgress:
		if a.AcknowledgedAt == nil {
			t := now
			a.AcknowledgedAt = &t
		}
	case models.AlertResolved, models.AlertClosed:
		if a.ResolvedAt == nil {
			t := now
			a.ResolvedAt = &t
		}
	}
	a.Status = status
	a.UpdatedAt = now
}
