package models

import "time"

// Sensor parameter names used by the rule engine and telematics producers.
const (
	ParamEngineTemp       = "engine_temp"
	ParamEngineRPM        = "engine_rpm"
	ParamEngineLoad       = "engine_load"
	ParamBatteryVoltage   = "battery_voltage"
	ParamBatteryCurrent   = "battery_current"
	ParamFuelLevel        = "fuel_level"
	ParamFuelPressure     = "fuel_pressure"
	ParamTransmissionTemp = "transmission_temp"
	ParamTyrePressureFL   = "tyre_pressure_fl"
	ParamTyrePressureFR   = "tyre_pressure_fr"
	ParamTyrePressureRL   = "tyre_pressure_rl"
	ParamTyrePressureRR   = "tyre_pressure_rr"
	ParamCoolantTemp      = "coolant_temp"
	ParamOilPressure      = "oil_pressure"
	ParamSpeed            = "speed"
	ParamOdometer         = "odometer"
)

// SensorReading is a single snapshot of vehicle sensor values.
// Any parameter may be absent; absent parameters are skipped by the
// rule engine rather than treated as violations.
type SensorReading struct {
	ID        string    `json:"id"`
	VehicleID string    `json:"vehicle_id"`
	Timestamp time.Time `json:"timestamp"`

	EngineTemp       *float64 `json:"engine_temp,omitempty"`
	EngineRPM        *float64 `json:"engine_rpm,omitempty"`
	EngineLoad       *float64 `json:"engine_load,omitempty"`
	BatteryVoltage   *float64 `json:"battery_voltage,omitempty"`
	BatteryCurrent   *float64 `json:"battery_current,omitempty"`
	FuelLevel        *float64 `json:"fuel_level,omitempty"`
	FuelPressure     *float64 `json:"fuel_pressure,omitempty"`
	TransmissionTemp *float64 `json:"transmission_temp,omitempty"`
	TyrePressureFL   *float64 `json:"tyre_pressure_fl,omitempty"`
	TyrePressureFR   *float64 `json:"tyre_pressure_fr,omitempty"`
	TyrePressureRL   *float64 `json:"tyre_pressure_rl,omitempty"`
	TyrePressureRR   *float64 `json:"tyre_pressure_rr,omitempty"`
	CoolantTemp      *float64 `json:"coolant_temp,omitempty"`
	OilPressure      *float64 `json:"oil_pressure,omitempty"`
	Speed            *float64 `json:"speed,omitempty"`
	Odometer         *float64 `json:"odometer,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Param returns the value of a named sensor parameter and whether it is present.
func (r *SensorReading) Param(name string) (float64, bool) {
	var p *float64
	switch name {
	case ParamEngineTemp:
		p = r.EngineTemp
	case ParamEngineRPM:
		p = r.EngineRPM
	case ParamEngineLoad:
		p = r.EngineLoad
	case ParamBatteryVoltage:
		p = r.BatteryVoltage
	case ParamBatteryCurrent:
		p = r.BatteryCurrent
	case ParamFuelLevel:
		p = r.FuelLevel
	case ParamFuelPressure:
		p = r.FuelPressure
	case ParamTransmissionTemp:
		p = r.TransmissionTemp
	case ParamTyrePressureFL:
		p = r.TyrePressureFL
	case ParamTyrePressureFR:
		p = r.TyrePressureFR
	case ParamTyrePressureRL:
		p = r.TyrePressureRL
	case ParamTyrePressureRR:
		p = r.TyrePressureRR
	case ParamCoolantTemp:
		p = r.CoolantTemp
	case ParamOilPressure:
		p = r.OilPressure
	case ParamSpeed:
		p = r.Speed
	case ParamOdometer:
		p = r.Odometer
	}
	if p == nil {
		return 0, false
	}
	return *p, true
}

// Float is a convenience constructor for optional sensor values.
func Float(v float64) *float64 {
	return &v
}
