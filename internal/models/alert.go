package models

import "time"

// AlertStatus tracks the lifecycle of an alert. CLOSED is terminal and
// acts as a soft delete; alerts are never removed from the store.
type AlertStatus string

const (
	AlertOpen         AlertStatus = "OPEN"
	AlertAcknowledged AlertStatus = "ACKNOWLEDGED"
	AlertInProgress   AlertStatus = "IN_PROGRESS"
	AlertResolved     AlertStatus = "RESOLVED"
	AlertClosed       AlertStatus = "CLOSED"
)

// Valid reports whether s is a known alert status.
func (s AlertStatus) Valid() bool {
	switch s {
	case AlertOpen, AlertAcknowledged, AlertInProgress, AlertResolved, AlertClosed:
		return true
	}
	return false
}

// Alert is a persisted fault record created when the diagnosis agent
// confirms a fault.
type Alert struct {
	ID        string   `json:"id"`
	VehicleID string   `json:"vehicle_id"`
	AlertType string   `json:"alert_type"`
	Severity  Severity `json:"severity"`
	Title     string   `json:"title"`

	Description       string   `json:"description,omitempty"`
	Diagnosis         string   `json:"diagnosis,omitempty"`
	RecommendedAction string   `json:"recommended_action,omitempty"`
	EstimatedCost     *float64 `json:"estimated_cost,omitempty"`

	Status         AlertStatus `json:"status"`
	AcknowledgedAt *time.Time  `json:"acknowledged_at,omitempty"`
	ResolvedAt     *time.Time  `json:"resolved_at,omitempty"`

	SensorReadingID string `json:"sensor_reading_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BookingStatus tracks the lifecycle of a service booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingInService BookingStatus = "IN_SERVICE"
	BookingCompleted BookingStatus = "COMPLETED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// Booking is a scheduled service appointment, usually created from a
// scheduling-agent recommendation.
type Booking struct {
	ID        string `json:"id"`
	VehicleID string `json:"vehicle_id"`
	AlertID   string `json:"alert_id,omitempty"`

	ServiceType   string `json:"service_type"`
	ScheduledDate string `json:"scheduled_date"`
	ScheduledTime string `json:"scheduled_time"`
	ServiceCenter string `json:"service_center,omitempty"`

	CustomerName  string `json:"customer_name,omitempty"`
	CustomerPhone string `json:"customer_phone,omitempty"`

	IssueDescription string `json:"issue_description,omitempty"`

	Status             BookingStatus `json:"status"`
	ConfirmationNumber string        `json:"confirmation_number,omitempty"`

	EstimatedDuration int      `json:"estimated_duration,omitempty"`
	EstimatedCost     *float64 `json:"estimated_cost,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
