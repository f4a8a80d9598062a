package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/autosentience/vigil/internal/models"
)

// Memory is an in-process Store used by the simulator and tests. All
// methods are safe for concurrent use.
type Memory struct {
	mu sync.RWMutex

	readings  []models.SensorReading
	alerts    map[string]*models.Alert
	bookings  map[string]*models.Booking
	agentLogs []models.AgentLog
	uebaLogs  []models.UEBALog
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		alerts:   make(map[string]*models.Alert),
		bookings: make(map[string]*models.Booking),
	}
}

func (m *Memory) InsertReading(_ context.Context, r *models.SensorReading) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = r.CreatedAt
	}
	m.readings = append(m.readings, *r)
	return nil
}

func (m *Memory) LatestReading(_ context.Context, vehicleID string) (*models.SensorReading, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.readings) - 1; i >= 0; i-- {
		if m.readings[i].VehicleID == vehicleID {
			r := m.readings[i]
			return &r, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) RecentReadings(_ context.Context, vehicleID string, limit int) ([]models.SensorReading, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.SensorReading, 0, limit)
	for i := len(m.readings) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if m.readings[i].VehicleID == vehicleID {
			out = append(out, m.readings[i])
		}
	}
	return out, nil
}

func (m *Memory) InsertAlert(_ context.Context, a *models.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	if a.Status == "" {
		a.Status = models.AlertOpen
	}
	cp := *a
	m.alerts[a.ID] = &cp
	return nil
}

func (m *Memory) AlertByID(_ context.Context, id string) (*models.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.alerts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *Memory) OpenAlerts(ctx context.Context, vehicleID string) ([]models.Alert, error) {
	return m.ListAlerts(ctx, AlertFilter{VehicleID: vehicleID, Status: models.AlertOpen})
}

func (m *Memory) ListAlerts(_ context.Context, filter AlertFilter) ([]models.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Alert, 0)
	for _, a := range m.alerts {
		if filter.VehicleID != "" && a.VehicleID != filter.VehicleID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.Severity != "" && a.Severity != filter.Severity {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *Memory) AlertsBySeverity(_ context.Context, vehicleID string, severities []models.Severity) ([]models.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	want := make(map[models.Severity]bool, len(severities))
	for _, s := range severities {
		want[s] = true
	}

	out := make([]models.Alert, 0)
	for _, a := range m.alerts {
		if a.VehicleID == vehicleID && want[a.Severity] {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) CountAlertsByType(_ context.Context, vehicleID, alertType string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, a := range m.alerts {
		if a.VehicleID == vehicleID && a.AlertType == alertType {
			n++
		}
	}
	return n, nil
}

func (m *Memory) UpdateAlertStatus(_ context.Context, id string, status models.AlertStatus) (*models.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.alerts[id]
	if !ok {
		return nil, ErrNotFound
	}
	applyStatusTimestamps(a, status, time.Now().UTC())
	cp := *a
	return &cp, nil
}

func (m *Memory) InsertBooking(_ context.Context, b *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
	cp := *b
	m.bookings[b.ID] = &cp
	return nil
}

func (m *Memory) InsertAgentLog(_ context.Context, l *models.AgentLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	m.agentLogs = append(m.agentLogs, *l)
	return nil
}

func (m *Memory) InsertUEBALog(_ context.Context, l *models.UEBALog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	m.uebaLogs = append(m.uebaLogs, *l)
	return nil
}

// AgentLogs returns a copy of all recorded agent logs, newest last.
func (m *Memory) AgentLogs() []models.AgentLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.AgentLog, len(m.agentLogs))
	copy(out, m.agentLogs)
	return out
}

// UEBALogs returns a copy of all recorded UEBA logs, newest last.
func (m *Memory) UEBALogs() []models.UEBALog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.UEBALog, len(m.uebaLogs))
	copy(out, m.uebaLogs)
	return out
}
