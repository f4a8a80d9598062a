package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/autosentience/vigil/internal/agents"
	"github.com/autosentience/vigil/internal/logging"
	"github.com/autosentience/vigil/internal/models"
	"github.com/autosentience/vigil/internal/store"
	"github.com/autosentience/vigil/internal/workflow"
)

// envelope is the common success response shape.
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Count   *int        `json:"count,omitempty"`
}

func count(n int) *int { return &n }

func decodeBody(r *http.Request, out interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(out)
}

// handleIngest accepts sensor readings (POST) and serves recent ones (GET).
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleIngestPost(w, r)
	case http.MethodGet:
		s.handleIngestGet(w, r)
	default:
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	}
}

func (s *Server) handleIngestPost(w http.ResponseWriter, r *http.Request) {
	var reading models.SensorReading
	if err := decodeBody(r, &reading); err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body")
		return
	}
	if reading.VehicleID == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "vehicle_id is required")
		return
	}
	reading.ID = ""

	if err := s.store.InsertReading(r.Context(), &reading); err != nil {
		s.logger.ErrorWithErr("failed to store sensor data", err)
		WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "failed to store sensor data")
		return
	}

	_ = WriteCreated(w, envelope{
		Success: true,
		Data:    reading,
		Message: "Sensor data ingested successfully",
	})
}

func (s *Server) handleIngestGet(w http.ResponseWriter, r *http.Request) {
	vehicleID := r.URL.Query().Get("vehicle_id")
	if vehicleID == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "vehicle_id parameter is required")
		return
	}
	limit := queryInt(r, "limit", 10)

	readings, err := s.store.RecentReadings(r.Context(), vehicleID, limit)
	if err != nil {
		s.logger.ErrorWithErr("failed to fetch sensor data", err)
		WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "failed to fetch sensor data")
		return
	}

	_ = WriteSuccess(w, envelope{Success: true, Data: readings, Count: count(len(readings))})
}

// predictResponse is the analysis payload for one vehicle.
type predictResponse struct {
	VehicleID         string                 `json:"vehicle_id"`
	AnomaliesDetected bool                   `json:"anomalies_detected"`
	Message           string                 `json:"message,omitempty"`
	SensorReadingID   string                 `json:"sensor_reading_id,omitempty"`
	Violations        []models.RuleViolation `json:"violations,omitempty"`
	AlertsCreated     []models.Alert         `json:"alerts_created,omitempty"`
	Workflow          *workflow.Result       `json:"workflow,omitempty"`
	ExecutionTimeMs   int64                  `json:"execution_time_ms"`
}

// handlePredict runs rule detection on the latest reading and, when
// violations are found, drives the full agent workflow.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var body struct {
		VehicleID string `json:"vehicle_id"`
	}
	if err := decodeBody(r, &body); err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body")
		return
	}
	if body.VehicleID == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "vehicle_id is required")
		return
	}

	reading, err := s.store.LatestReading(r.Context(), body.VehicleID)
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "No sensor data found for vehicle")
		return
	}
	if err != nil {
		s.logger.ErrorWithErr("failed to fetch latest reading", err)
		WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "failed to fetch sensor data")
		return
	}

	detection := s.engine.Detect(reading)
	if !detection.HasViolations {
		_ = WriteSuccess(w, envelope{Success: true, Data: predictResponse{
			VehicleID:         body.VehicleID,
			AnomaliesDetected: false,
			Message:           "All systems normal",
			SensorReadingID:   reading.ID,
			ExecutionTimeMs:   time.Since(start).Milliseconds(),
		}})
		return
	}

	existing, err := s.store.OpenAlerts(r.Context(), body.VehicleID)
	if err != nil {
		s.logger.WarnWithFields("failed to fetch open alerts",
			logging.Field("vehicle_id", body.VehicleID),
			logging.Field("error", err.Error()),
		)
	}

	result, err := s.orchestrator.Execute(r.Context(), workflow.Input{
		VehicleID:      body.VehicleID,
		SensorData:     reading,
		Violations:     detection.Violations,
		ExistingAlerts: existing,
	})
	if err != nil {
		s.logger.ErrorWithErr("workflow execution failed", err)
		WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	created := []models.Alert{}
	if result.Alert != nil {
		created = append(created, *result.Alert)
	}

	_ = WriteSuccess(w, envelope{Success: true, Data: predictResponse{
		VehicleID:         body.VehicleID,
		AnomaliesDetected: true,
		SensorReadingID:   reading.ID,
		Violations:        detection.Violations,
		AlertsCreated:     created,
		Workflow:          result,
		ExecutionTimeMs:   time.Since(start).Milliseconds(),
	}})
}

// handleAlerts dispatches the alert collection endpoints.
func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleAlertsGet(w, r)
	case http.MethodPost:
		s.handleAlertsPost(w, r)
	case http.MethodPatch:
		s.handleAlertsPatch(w, r)
	case http.MethodDelete:
		s.handleAlertsDelete(w, r)
	default:
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	}
}

func (s *Server) handleAlertsGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.AlertFilter{
		VehicleID: q.Get("vehicle_id"),
		Status:    models.AlertStatus(strings.ToUpper(q.Get("status"))),
		Severity:  models.Severity(strings.ToUpper(q.Get("severity"))),
		Limit:     queryInt(r, "limit", 50),
	}

	alerts, err := s.store.ListAlerts(r.Context(), filter)
	if err != nil {
		s.logger.ErrorWithErr("failed to fetch alerts", err)
		WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "failed to fetch alerts")
		return
	}

	_ = WriteSuccess(w, envelope{Success: true, Data: alerts, Count: count(len(alerts))})
}

func (s *Server) handleAlertsPost(w http.ResponseWriter, r *http.Request) {
	var alert models.Alert
	if err := decodeBody(r, &alert); err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body")
		return
	}
	if alert.VehicleID == "" || alert.AlertType == "" || alert.Severity == "" || alert.Title == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			"vehicle_id, alert_type, severity and title are required")
		return
	}
	if !alert.Severity.Valid() {
		WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid severity value")
		return
	}
	alert.ID = ""
	alert.Status = models.AlertOpen

	if err := s.store.InsertAlert(r.Context(), &alert); err != nil {
		s.logger.ErrorWithErr("failed to create alert", err)
		WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "failed to create alert")
		return
	}

	_ = WriteCreated(w, envelope{Success: true, Data: alert, Message: "Alert created successfully"})
}

func (s *Server) handleAlertsPatch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AlertID string             `json:"alert_id"`
		Status  models.AlertStatus `json:"status"`
	}
	if err := decodeBody(r, &body); err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body")
		return
	}
	if body.AlertID == "" || body.Status == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "alert_id and status are required")
		return
	}
	if !body.Status.Valid() {
		WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid status value")
		return
	}

	alert, err := s.store.UpdateAlertStatus(r.Context(), body.AlertID, body.Status)
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "Alert not found")
		return
	}
	if err != nil {
		s.logger.ErrorWithErr("failed to update alert", err)
		WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "failed to update alert")
		return
	}

	_ = WriteSuccess(w, envelope{Success: true, Data: alert, Message: "Alert updated successfully"})
}

// handleAlertsDelete archives an alert; rows are never removed.
func (s *Server) handleAlertsDelete(w http.ResponseWriter, r *http.Request) {
	alertID := r.URL.Query().Get("alert_id")
	if alertID == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "alert_id parameter is required")
		return
	}

	alert, err := s.store.UpdateAlertStatus(r.Context(), alertID, models.AlertClosed)
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "Alert not found")
		return
	}
	if err != nil {
		s.logger.ErrorWithErr("failed to archive alert", err)
		WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "failed to archive alert")
		return
	}

	_ = WriteSuccess(w, envelope{Success: true, Data: alert, Message: "Alert archived successfully"})
}

// handleRCA generates a root cause analysis report for an alert, found
// either by id or as the most recent high-severity alert of a vehicle.
func (s *Server) handleRCA(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var body struct {
		AlertID   string `json:"alert_id"`
		VehicleID string `json:"vehicle_id"`
	}
	if err := decodeBody(r, &body); err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body")
		return
	}
	if body.AlertID == "" && body.VehicleID == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Either alert_id or vehicle_id is required")
		return
	}

	var alert *models.Alert
	if body.AlertID != "" {
		a, err := s.store.AlertByID(r.Context(), body.AlertID)
		if errors.Is(err, store.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "Alert not found")
			return
		}
		if err != nil {
			s.logger.ErrorWithErr("failed to fetch alert", err)
			WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "failed to fetch alert")
			return
		}
		alert = a
	} else {
		candidates, err := s.store.AlertsBySeverity(r.Context(), body.VehicleID,
			[]models.Severity{models.SeverityHigh, models.SeverityCritical})
		if err != nil {
			s.logger.ErrorWithErr("failed to fetch alerts", err)
			WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "failed to fetch alerts")
			return
		}
		if len(candidates) == 0 {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "No high-severity alerts found for vehicle")
			return
		}
		alert = &candidates[0]
	}

	similar, err := s.store.CountAlertsByType(r.Context(), alert.VehicleID, alert.AlertType)
	if err != nil {
		s.logger.WarnWithFields("failed to count similar alerts",
			logging.Field("error", err.Error()))
	}
	recent, err := s.store.RecentReadings(r.Context(), alert.VehicleID, 10)
	if err != nil {
		s.logger.WarnWithFields("failed to fetch recent readings",
			logging.Field("error", err.Error()))
	}

	rca := s.rcaAgent.Run(r.Context(), agents.RCAInput{
		VehicleID:      alert.VehicleID,
		Alert:          alert,
		SimilarAlerts:  similar,
		RecentReadings: recent,
	})

	decision, _ := json.Marshal(rca)
	if err := s.store.InsertAgentLog(r.Context(), &models.AgentLog{
		VehicleID:       alert.VehicleID,
		AgentType:       models.AgentRCA,
		Action:          "RCA report generated",
		Decision:        decision,
		Reasoning:       rca.Reasoning,
		Confidence:      rca.Confidence,
		AlertID:         alert.ID,
		ExecutionTimeMs: time.Since(start).Milliseconds(),
	}); err != nil {
		s.logger.WarnWithFields("failed to persist rca log",
			logging.Field("error", err.Error()))
	}

	_ = WriteSuccess(w, envelope{Success: true, Data: map[string]interface{}{
		"alert":             alert,
		"rca":               rca,
		"execution_time_ms": time.Since(start).Milliseconds(),
	}})
}

// handleBook creates a service booking.
func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	var booking models.Booking
	if err := decodeBody(r, &booking); err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body")
		return
	}
	if booking.VehicleID == "" || booking.ServiceType == "" ||
		booking.ScheduledDate == "" || booking.ScheduledTime == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			"vehicle_id, service_type, scheduled_date and scheduled_time are required")
		return
	}

	booking.ID = ""
	booking.Status = models.BookingPending
	booking.ConfirmationNumber = newConfirmationNumber()

	if err := s.store.InsertBooking(r.Context(), &booking); err != nil {
		s.logger.ErrorWithErr("failed to create booking", err)
		WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "failed to create booking")
		return
	}

	decision, _ := json.Marshal(map[string]string{
		"booking_id":          booking.ID,
		"confirmation_number": booking.ConfirmationNumber,
	})
	if err := s.store.InsertAgentLog(r.Context(), &models.AgentLog{
		VehicleID:  booking.VehicleID,
		AgentType:  models.AgentScheduling,
		Action:     "Service booking created",
		Decision:   decision,
		Reasoning:  "User requested service booking",
		Confidence: 1.0,
		BookingID:  booking.ID,
	}); err != nil {
		s.logger.WarnWithFields("failed to persist booking log",
			logging.Field("error", err.Error()))
	}

	_ = WriteCreated(w, envelope{Success: true, Data: booking, Message: "Booking created successfully"})
}

func newConfirmationNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return "BK-" + strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + suffix
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
