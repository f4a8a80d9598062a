// Package workflow runs the agent pipeline for one sensor reading: data
// analysis, the master decision, then the gated diagnosis, engagement,
// scheduling, security and quality stages. The pipeline degrades rather
// than fails: agent errors produce fallback decisions and persistence
// errors are logged and swallowed. Only invalid input returns an error.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/autosentience/vigil/internal/agents"
	"github.com/autosentience/vigil/internal/inference"
	"github.com/autosentience/vigil/internal/logging"
	"github.com/autosentience/vigil/internal/models"
	"github.com/autosentience/vigil/internal/store"
)

// placeholderAlertID stands in when alert persistence fails; downstream
// stages still run against the unsaved alert.
const placeholderAlertID = "temp-alert-id"

// Input is one reading plus the violations already detected for it.
type Input struct {
	VehicleID      string
	SensorData     *models.SensorReading
	Violations     []models.RuleViolation
	ExistingAlerts []models.Alert
}

// Result collects every stage decision of one execution. Stages append;
// they never rewrite decisions made by earlier stages.
type Result struct {
	DataAnalysis   *agents.DataAnalysisResult `json:"data_analysis"`
	MasterDecision *MasterDecision            `json:"master_decision"`

	Diagnosis  *agents.DiagnosisResult  `json:"diagnosis,omitempty"`
	Alert      *models.Alert            `json:"alert,omitempty"`
	Engagement *agents.EngagementResult `json:"engagement,omitempty"`
	Scheduling *agents.SchedulingResult `json:"scheduling,omitempty"`

	UEBA *agents.UEBAResult `json:"ueba"`

	Feedback      *agents.FeedbackResult      `json:"feedback,omitempty"`
	Manufacturing *agents.ManufacturingResult `json:"manufacturing,omitempty"`

	ExecutionTimeMs int64 `json:"execution_time_ms"`
}

// Orchestrator wires the agents to the store and drives the pipeline.
type Orchestrator struct {
	store   store.Store
	metrics *Metrics
	logger  *logging.Logger

	master        *MasterAgent
	dataAnalysis  *agents.DataAnalysisAgent
	diagnosis     *agents.DiagnosisAgent
	engagement    *agents.EngagementAgent
	scheduling    *agents.SchedulingAgent
	feedback      *agents.FeedbackAgent
	manufacturing *agents.ManufacturingAgent
	ueba          *agents.UEBAAgent
}

// New creates an orchestrator. metrics may be nil when observability is
// not wired (one-shot commands, tests).
func New(client inference.Client, st store.Store, metrics *Metrics) *Orchestrator {
	return &Orchestrator{
		store:   st,
		metrics: metrics,
		logger:  logging.GetLogger("workflow"),

		master:        NewMasterAgent(client),
		dataAnalysis:  agents.NewDataAnalysisAgent(client),
		diagnosis:     agents.NewDiagnosisAgent(client),
		engagement:    agents.NewEngagementAgent(client),
		scheduling:    agents.NewSchedulingAgent(client),
		feedback:      agents.NewFeedbackAgent(client),
		manufacturing: agents.NewManufacturingAgent(client),
		ueba:          agents.NewUEBAAgent(client),
	}
}

// Execute runs the full pipeline for one reading. The only errors it
// returns are input validation failures; everything downstream degrades.
func (o *Orchestrator) Execute(ctx context.Context, input Input) (*Result, error) {
	if input.VehicleID == "" {
		return nil, fmt.Errorf("vehicle id is required")
	}
	if input.SensorData == nil {
		return nil, fmt.Errorf("sensor data is required")
	}

	start := time.Now()
	if o.metrics != nil {
		o.metrics.ExecutionsTotal.Inc()
		defer func() {
			o.metrics.Duration.Observe(time.Since(start).Seconds())
		}()
	}

	o.logger.InfoWithFields("executing agent workflow",
		logging.Field("vehicle_id", input.VehicleID),
		logging.Field("violations", len(input.Violations)),
	)

	result := &Result{}

	// Data analysis always runs first; its anomaly signal is carried
	// into the security stage's behavior context.
	history, err := o.store.RecentReadings(ctx, input.VehicleID, 5)
	if err != nil {
		o.logger.WarnWithFields("failed to load reading history",
			logging.Field("vehicle_id", input.VehicleID),
			logging.Field("error", err.Error()),
		)
	}
	result.DataAnalysis = o.dataAnalysis.Run(ctx, agents.DataAnalysisInput{
		VehicleID:      input.VehicleID,
		SensorData:     input.SensorData,
		RecentReadings: history,
	})
	o.countFallback("data_analysis", result.DataAnalysis.Fallback)

	result.MasterDecision = o.master.Run(ctx, MasterInput{
		VehicleID:      input.VehicleID,
		SensorData:     input.SensorData,
		Violations:     input.Violations,
		ExistingAlerts: input.ExistingAlerts,
	})
	o.countFallback("master", result.MasterDecision.Fallback)
	o.logAgent(ctx, &models.AgentLog{
		VehicleID:  input.VehicleID,
		AgentType:  models.AgentMaster,
		Action:     result.MasterDecision.Action,
		InputData:  rawJSON(map[string]interface{}{"violations": input.Violations}),
		Decision:   rawJSON(result.MasterDecision),
		Reasoning:  result.MasterDecision.Reasoning,
		Confidence: result.MasterDecision.Confidence,
	})

	if result.MasterDecision.ShouldCreateAlert && len(input.Violations) > 0 {
		o.runAlertBranch(ctx, input, result)
	}

	// Security monitoring always runs, watching the decisions the
	// agents themselves just made.
	result.UEBA = o.ueba.Run(ctx, agents.UEBAInput{
		VehicleID: input.VehicleID,
		EventType: "AGENT_WORKFLOW_EXECUTION",
		CurrentBehavior: map[string]interface{}{
			"master_action":           result.MasterDecision.Action,
			"data_analysis_anomalies": result.DataAnalysis.AnomaliesDetected,
		},
		Violations: input.Violations,
	})
	o.countFallback("ueba", result.UEBA.Fallback)

	if err := o.store.InsertUEBALog(ctx, &models.UEBALog{
		VehicleID:       input.VehicleID,
		EventType:       "AGENT_WORKFLOW_EXECUTION",
		RiskLevel:       result.UEBA.RiskLevel,
		RiskScore:       result.UEBA.RiskScore,
		AnomalyDetected: result.UEBA.AnomalyDetected,
		DetectionMethod: "AI_BEHAVIOR_ANALYSIS",
		CurrentBehavior: rawJSON(map[string]interface{}{"master_action": result.MasterDecision.Action}),
		ActionTaken:     "LOG_ONLY",
	}); err != nil {
		o.logger.WarnWithFields("failed to persist ueba log",
			logging.Field("vehicle_id", input.VehicleID),
			logging.Field("error", err.Error()),
		)
	}

	if result.Diagnosis != nil && result.Diagnosis.FaultDetected {
		o.runQualityBranch(ctx, input, result)
	}

	result.ExecutionTimeMs = time.Since(start).Milliseconds()
	return result, nil
}

// runAlertBranch runs diagnosis and, when a fault is confirmed, persists
// the alert and runs engagement and scheduling against it.
func (o *Orchestrator) runAlertBranch(ctx context.Context, input Input, result *Result) {
	result.Diagnosis = o.diagnosis.Run(ctx, agents.DiagnosisInput{
		VehicleID:  input.VehicleID,
		SensorData: input.SensorData,
		Violations: input.Violations,
	})
	o.countFallback("diagnosis", result.Diagnosis.Fallback)
	o.logAgent(ctx, &models.AgentLog{
		VehicleID:  input.VehicleID,
		AgentType:  models.AgentDiagnosis,
		Action:     result.Diagnosis.Action,
		Decision:   rawJSON(result.Diagnosis),
		Reasoning:  result.Diagnosis.Reasoning,
		Confidence: result.Diagnosis.Confidence,
	})

	if !result.Diagnosis.FaultDetected {
		return
	}

	faultType := result.Diagnosis.FaultType
	if faultType == "" {
		faultType = "GENERAL_FAULT"
	}
	alert := &models.Alert{
		ID:                placeholderAlertID,
		VehicleID:         input.VehicleID,
		AlertType:         faultType,
		Severity:          result.Diagnosis.Severity,
		Title:             faultType,
		Description:       result.Diagnosis.Diagnosis,
		Diagnosis:         result.Diagnosis.Diagnosis,
		RecommendedAction: result.Diagnosis.RecommendedAction,
		EstimatedCost:     result.Diagnosis.EstimatedCost,
		Status:            models.AlertOpen,
		SensorReadingID:   input.SensorData.ID,
	}

	persisted := *alert
	persisted.ID = ""
	if err := o.store.InsertAlert(ctx, &persisted); err != nil {
		o.logger.ErrorWithErr("failed to persist alert", err)
	} else {
		alert.ID = persisted.ID
		alert.CreatedAt = persisted.CreatedAt
		alert.UpdatedAt = persisted.UpdatedAt
		if o.metrics != nil {
			o.metrics.AlertsCreated.Inc()
		}
	}
	result.Alert = alert

	result.Engagement = o.engagement.Run(ctx, agents.EngagementInput{
		VehicleID: input.VehicleID,
		Alert:     alert,
	})
	o.countFallback("engagement", result.Engagement.Fallback)

	result.Scheduling = o.scheduling.Run(ctx, agents.SchedulingInput{
		VehicleID: input.VehicleID,
		Alert:     alert,
	})
	o.countFallback("scheduling", result.Scheduling.Fallback)
}

// runQualityBranch closes the loop after a confirmed fault: feedback and
// manufacturing insight run concurrently, both depending only on the
// diagnosis.
func (o *Orchestrator) runQualityBranch(ctx context.Context, input Input, result *Result) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		result.Feedback = o.feedback.Run(gctx, agents.FeedbackInput{
			VehicleID:      input.VehicleID,
			ServiceID:      "simulated-service-id",
			ServiceOutcome: "success",
		})
		return nil
	})
	g.Go(func() error {
		result.Manufacturing = o.manufacturing.Run(gctx, agents.ManufacturingInput{
			VehicleID:          input.VehicleID,
			AggregatedFailures: input.Violations,
			FailureCounts:      map[string]int{result.Diagnosis.FaultType: 1},
		})
		return nil
	})
	_ = g.Wait() // agents never return errors

	o.countFallback("feedback", result.Feedback.Fallback)
	o.countFallback("manufacturing", result.Manufacturing.Fallback)

	alertID := ""
	if result.Alert != nil && result.Alert.ID != placeholderAlertID {
		alertID = result.Alert.ID
	}
	o.logAgent(ctx, &models.AgentLog{
		VehicleID:  input.VehicleID,
		AgentType:  models.AgentRCA,
		Action:     "GENERATE_CAPA_REPORT",
		InputData:  rawJSON(map[string]interface{}{"diagnosis": result.Diagnosis}),
		Decision:   rawJSON(result.Manufacturing),
		Reasoning:  result.Manufacturing.Reasoning,
		Confidence: 0.85,
		AlertID:    alertID,
	})
}

// logAgent persists an audit row; failures are logged and swallowed.
func (o *Orchestrator) logAgent(ctx context.Context, l *models.AgentLog) {
	if err := o.store.InsertAgentLog(ctx, l); err != nil {
		o.logger.WarnWithFields("failed to persist agent log",
			logging.Field("agent_type", string(l.AgentType)),
			logging.Field("error", err.Error()),
		)
	}
}

func (o *Orchestrator) countFallback(stage string, fallback bool) {
	if fallback && o.metrics != nil {
		o.metrics.FallbacksTotal.WithLabelValues(stage).Inc()
	}
}

// rawJSON renders v for an audit column; marshal failures degrade to null.
func rawJSON(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("null")
	}
	return b
}
