package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autosentience/vigil/internal/models"
	"github.com/autosentience/vigil/internal/rules"
	"github.com/autosentience/vigil/internal/store"
)

// failingClient simulates an unavailable inference backend; every agent
// degrades to its fallback, which the API must still serve with 200.
type failingClient struct{}

func (failingClient) Complete(ctx context.Context, prompt, systemPrompt string, temperature float64) (string, error) {
	return "", errors.New("inference unavailable")
}

func (failingClient) Model() string { return "unavailable" }

func newTestServer() (*Server, *store.Memory) {
	mem := store.NewMemory()
	srv := New(0, mem, rules.NewEngine(rules.DefaultRules()), failingClient{})
	return srv, mem
}

func doJSON(t *testing.T, h http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIngestValidation(t *testing.T) {
	srv, _ := newTestServer()
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/ingest", map[string]interface{}{"engine_temp": 90})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/ingest", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIngestRoundTrip(t *testing.T) {
	srv, _ := newTestServer()
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/ingest", map[string]interface{}{
		"vehicle_id":  "VH-001",
		"engine_temp": 92.5,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/ingest?vehicle_id=VH-001", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool                   `json:"success"`
		Data    []models.SensorReading `json:"data"`
		Count   int                    `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Equal(t, 1, resp.Count)
	require.NotNil(t, resp.Data[0].EngineTemp)
	assert.Equal(t, 92.5, *resp.Data[0].EngineTemp)
}

func TestPredictNoSensorData(t *testing.T) {
	srv, _ := newTestServer()

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/predict", map[string]string{"vehicle_id": "VH-404"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPredictRequiresVehicleID(t *testing.T) {
	srv, _ := newTestServer()

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/predict", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPredictAllSystemsNormal(t *testing.T) {
	srv, mem := newTestServer()

	require.NoError(t, mem.InsertReading(context.Background(), &models.SensorReading{
		VehicleID:  "VH-001",
		EngineTemp: models.Float(90),
		FuelLevel:  models.Float(60),
	}))

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/predict", map[string]string{"vehicle_id": "VH-001"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			AnomaliesDetected bool   `json:"anomalies_detected"`
			Message           string `json:"message"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Data.AnomaliesDetected)
	assert.Equal(t, "All systems normal", resp.Data.Message)

	// No workflow ran, so no alerts and no security log.
	open, err := mem.OpenAlerts(context.Background(), "VH-001")
	require.NoError(t, err)
	assert.Empty(t, open)
	assert.Empty(t, mem.UEBALogs())
}

func TestPredictDegradedWorkflowStillSucceeds(t *testing.T) {
	srv, mem := newTestServer()

	require.NoError(t, mem.InsertReading(context.Background(), &models.SensorReading{
		VehicleID:   "VH-001",
		EngineTemp:  models.Float(125),
		OilPressure: models.Float(10),
	}))

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/predict", map[string]string{"vehicle_id": "VH-001"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			AnomaliesDetected bool                   `json:"anomalies_detected"`
			Violations        []models.RuleViolation `json:"violations"`
			AlertsCreated     []models.Alert         `json:"alerts_created"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Data.AnomaliesDetected)
	// engine_temp crosses both thresholds, oil_pressure crosses both.
	assert.Len(t, resp.Data.Violations, 4)
	require.Len(t, resp.Data.AlertsCreated, 1)

	open, err := mem.OpenAlerts(context.Background(), "VH-001")
	require.NoError(t, err)
	assert.Len(t, open, 1)
	assert.Len(t, mem.UEBALogs(), 1)
}

func TestAlertsCRUD(t *testing.T) {
	srv, _ := newTestServer()
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/alerts", map[string]interface{}{"vehicle_id": "VH-001"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/alerts", map[string]interface{}{
		"vehicle_id": "VH-001",
		"alert_type": "ENGINE_OVERHEAT",
		"severity":   "EXTREME",
		"title":      "t",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/alerts", map[string]interface{}{
		"vehicle_id": "VH-001",
		"alert_type": "ENGINE_OVERHEAT",
		"severity":   "HIGH",
		"title":      "Engine overheat detected",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Data models.Alert `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.Data.ID)
	assert.Equal(t, models.AlertOpen, created.Data.Status)

	rec = doJSON(t, h, http.MethodGet, "/api/alerts?vehicle_id=VH-001&severity=high", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Equal(t, 1, listed.Count)

	rec = doJSON(t, h, http.MethodPatch, "/api/alerts", map[string]string{
		"alert_id": created.Data.ID,
		"status":   "SLEEPING",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPatch, "/api/alerts", map[string]string{
		"alert_id": "missing",
		"status":   "ACKNOWLEDGED",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodPatch, "/api/alerts", map[string]string{
		"alert_id": created.Data.ID,
		"status":   "ACKNOWLEDGED",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var patched struct {
		Data models.Alert `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &patched))
	assert.Equal(t, models.AlertAcknowledged, patched.Data.Status)
	assert.NotNil(t, patched.Data.AcknowledgedAt)

	rec = doJSON(t, h, http.MethodDelete, "/api/alerts?alert_id="+created.Data.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var archived struct {
		Data models.Alert `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &archived))
	assert.Equal(t, models.AlertClosed, archived.Data.Status)
	assert.NotNil(t, archived.Data.ResolvedAt)
}

func TestRCAEndpoint(t *testing.T) {
	srv, mem := newTestServer()
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/rca", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/rca", map[string]string{"alert_id": "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/rca", map[string]string{"vehicle_id": "VH-001"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	alert := &models.Alert{
		VehicleID: "VH-001",
		AlertType: "ENGINE_OVERHEAT",
		Severity:  models.SeverityHigh,
		Title:     "ENGINE_OVERHEAT",
		Diagnosis: "Coolant system degradation",
	}
	require.NoError(t, mem.InsertAlert(context.Background(), alert))

	// Inference is down, so the report is the deterministic fallback.
	rec = doJSON(t, h, http.MethodPost, "/api/rca", map[string]string{"vehicle_id": "VH-001"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			RCA struct {
				RootCause string `json:"root_cause"`
				Fallback  bool   `json:"fallback"`
			} `json:"rca"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Data.RCA.Fallback)
	assert.Equal(t, "Primary issue: ENGINE_OVERHEAT", resp.Data.RCA.RootCause)

	logs := mem.AgentLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, models.AgentRCA, logs[0].AgentType)
	assert.Equal(t, alert.ID, logs[0].AlertID)
}

func TestBookEndpoint(t *testing.T) {
	srv, mem := newTestServer()
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/book", map[string]string{"vehicle_id": "VH-001"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/book", map[string]string{
		"vehicle_id":     "VH-001",
		"service_type":   "engine inspection",
		"scheduled_date": "2026-03-02",
		"scheduled_time": "10:00",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data models.Booking `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.BookingPending, resp.Data.Status)
	assert.True(t, strings.HasPrefix(resp.Data.ConfirmationNumber, "BK-"))

	logs := mem.AgentLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, models.AgentScheduling, logs[0].AgentType)
	assert.Equal(t, resp.Data.ID, logs[0].BookingID)
}

func TestHealthAndMetrics(t *testing.T) {
	srv, _ := newTestServer()
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer()

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/predict", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer()

	req := httptest.NewRequest(http.MethodOptions, "/api/predict", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
