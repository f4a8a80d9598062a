package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/autosentience/vigil/internal/models"
)

const readingColumns = `id, vehicle_id, timestamp, engine_temp, engine_rpm, engine_load,
	battery_voltage, battery_current, fuel_level, fuel_pressure, transmission_temp,
	tyre_pressure_fl, tyre_pressure_fr, tyre_pressure_rl, tyre_pressure_rr,
	coolant_temp, oil_pressure, speed, odometer, created_at`

const alertColumns = `id, vehicle_id, alert_type, severity, title, description, diagnosis,
	recommended_action, estimated_cost, status, acknowledged_at, resolved_at,
	sensor_reading_id, created_at, updated_at`

// Postgres is the pgx-backed Store.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects a pool to the given DSN and verifies it with a ping.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) InsertReading(ctx context.Context, r *models.SensorReading) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = r.CreatedAt
	}

	query := `
	INSERT INTO sensor_readings (` + readingColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`

	_, err := p.pool.Exec(ctx, query,
		r.ID, r.VehicleID, r.Timestamp,
		r.EngineTemp, r.EngineRPM, r.EngineLoad,
		r.BatteryVoltage, r.BatteryCurrent,
		r.FuelLevel, r.FuelPressure, r.TransmissionTemp,
		r.TyrePressureFL, r.TyrePressureFR, r.TyrePressureRL, r.TyrePressureRR,
		r.CoolantTemp, r.OilPressure, r.Speed, r.Odometer,
		r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert reading: %w", err)
	}
	return nil
}

func scanReading(row pgx.Row) (*models.SensorReading, error) {
	var r models.SensorReading
	err := row.Scan(
		&r.ID, &r.VehicleID, &r.Timestamp,
		&r.EngineTemp, &r.EngineRPM, &r.EngineLoad,
		&r.BatteryVoltage, &r.BatteryCurrent,
		&r.FuelLevel, &r.FuelPressure, &r.TransmissionTemp,
		&r.TyrePressureFL, &r.TyrePressureFR, &r.TyrePressureRL, &r.TyrePressureRR,
		&r.CoolantTemp, &r.OilPressure, &r.Speed, &r.Odometer,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (p *Postgres) LatestReading(ctx context.Context, vehicleID string) (*models.SensorReading, error) {
	query := `
	SELECT ` + readingColumns + `
	FROM sensor_readings
	WHERE vehicle_id = $1
	ORDER BY timestamp DESC
	LIMIT 1`

	r, err := scanReading(p.pool.QueryRow(ctx, query, vehicleID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest reading: %w", err)
	}
	return r, nil
}

func (p *Postgres) RecentReadings(ctx context.Context, vehicleID string, limit int) ([]models.SensorReading, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
	SELECT ` + readingColumns + `
	FROM sensor_readings
	WHERE vehicle_id = $1
	ORDER BY timestamp DESC
	LIMIT $2`

	rows, err := p.pool.Query(ctx, query, vehicleID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent readings: %w", err)
	}
	defer rows.Close()

	out := make([]models.SensorReading, 0, limit)
	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (p *Postgres) InsertAlert(ctx context.Context, a *models.Alert) error {
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

	query := `
	INSERT INTO alerts (` + alertColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := p.pool.Exec(ctx, query,
		a.ID, a.VehicleID, a.AlertType, a.Severity, a.Title,
		a.Description, a.Diagnosis, a.RecommendedAction, a.EstimatedCost,
		a.Status, a.AcknowledgedAt, a.ResolvedAt,
		nullIfEmpty(a.SensorReadingID), a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}
	return nil
}

func scanAlert(row pgx.Row) (*models.Alert, error) {
	var a models.Alert
	var sensorReadingID *string
	err := row.Scan(
		&a.ID, &a.VehicleID, &a.AlertType, &a.Severity, &a.Title,
		&a.Description, &a.Diagnosis, &a.RecommendedAction, &a.EstimatedCost,
		&a.Status, &a.AcknowledgedAt, &a.ResolvedAt,
		&sensorReadingID, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if sensorReadingID != nil {
		a.SensorReadingID = *sensorReadingID
	}
	return &a, nil
}

func (p *Postgres) AlertByID(ctx context.Context, id string) (*models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id = $1`

	a, err := scanAlert(p.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query alert: %w", err)
	}
	return a, nil
}

func (p *Postgres) OpenAlerts(ctx context.Context, vehicleID string) ([]models.Alert, error) {
	return p.ListAlerts(ctx, AlertFilter{VehicleID: vehicleID, Status: models.AlertOpen})
}

func (p *Postgres) ListAlerts(ctx context.Context, filter AlertFilter) ([]models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE 1=1`
	args := []interface{}{}

	if filter.VehicleID != "" {
		args = append(args, filter.VehicleID)
		query += fmt.Sprintf(" AND vehicle_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Severity != "" {
		args = append(args, filter.Severity)
		query += fmt.Sprintf(" AND severity = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	out := make([]models.Alert, 0)
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (p *Postgres) AlertsBySeverity(ctx context.Context, vehicleID string, severities []models.Severity) ([]models.Alert, error) {
	query := `
	SELECT ` + alertColumns + `
	FROM alerts
	WHERE vehicle_id = $1 AND severity = ANY($2)
	ORDER BY created_at DESC`

	levels := make([]string, 0, len(severities))
	for _, s := range severities {
		levels = append(levels, string(s))
	}

	rows, err := p.pool.Query(ctx, query, vehicleID, levels)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts by severity: %w", err)
	}
	defer rows.Close()

	out := make([]models.Alert, 0)
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (p *Postgres) CountAlertsByType(ctx context.Context, vehicleID, alertType string) (int, error) {
	var n int
	err := p.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM alerts WHERE vehicle_id = $1 AND alert_type = $2`,
		vehicleID, alertType,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count alerts: %w", err)
	}
	return n, nil
}

func (p *Postgres) UpdateAlertStatus(ctx context.Context, id string, status models.AlertStatus) (*models.Alert, error) {
	a, err := p.AlertByID(ctx, id)
	if err != nil {
		return nil, err
	}
	applyStatusTimestamps(a, status, time.Now().UTC())

	query := `
	UPDATE alerts
	SET status = $2, acknowledged_at = $3, resolved_at = $4, updated_at = $5
	WHERE id = $1`

	_, err = p.pool.Exec(ctx, query, a.ID, a.Status, a.AcknowledgedAt, a.ResolvedAt, a.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update alert status: %w", err)
	}
	return a, nil
}

func (p *Postgres) InsertBooking(ctx context.Context, b *models.Booking) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now

	query := `
	INSERT INTO bookings (
		id, vehicle_id, alert_id, service_type, scheduled_date, scheduled_time,
		service_center, customer_name, customer_phone, issue_description,
		status, confirmation_number, estimated_duration, estimated_cost,
		created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err := p.pool.Exec(ctx, query,
		b.ID, b.VehicleID, nullIfEmpty(b.AlertID), b.ServiceType,
		b.ScheduledDate, b.ScheduledTime, b.ServiceCenter,
		b.CustomerName, b.CustomerPhone, b.IssueDescription,
		b.Status, b.ConfirmationNumber, b.EstimatedDuration, b.EstimatedCost,
		b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	return nil
}

func (p *Postgres) InsertAgentLog(ctx context.Context, l *models.AgentLog) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}

	query := `
	INSERT INTO agent_logs (
		id, vehicle_id, agent_type, action, input_data, decision, reasoning,
		confidence_score, alert_id, booking_id, execution_time_ms, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := p.pool.Exec(ctx, query,
		l.ID, nullIfEmpty(l.VehicleID), l.AgentType, l.Action,
		l.InputData, l.Decision, l.Reasoning, l.Confidence,
		nullIfEmpty(l.AlertID), nullIfEmpty(l.BookingID),
		l.ExecutionTimeMs, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert agent log: %w", err)
	}
	return nil
}

func (p *Postgres) InsertUEBALog(ctx context.Context, l *models.UEBALog) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}

	query := `
	INSERT INTO ueba_logs (
		id, vehicle_id, event_type, risk_level, risk_score, anomaly_detected,
		detection_method, current_behavior, action_taken, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := p.pool.Exec(ctx, query,
		l.ID, nullIfEmpty(l.VehicleID), l.EventType,
		l.RiskLevel, l.RiskScore, l.AnomalyDetected,
		l.DetectionMethod, l.CurrentBehavior, l.ActionTaken, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ueba log: %w", err)
	}
	return nil
}

// nullIfEmpty maps empty-string foreign keys to SQL NULL.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
