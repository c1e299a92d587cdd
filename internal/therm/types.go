package therm

import "errors"

// Domain errors for the stepping loop.
var (
	// ErrEmergencyStop marks the expected terminal outcome of a run whose
	// peak temperature crossed the emergency threshold. It is not a
	// software fault; partial results remain valid.
	ErrEmergencyStop = errors.New("therm: emergency temperature threshold exceeded")
)

// EventKind identifies a discrete state transition during a run.
type EventKind int

const (
	EventRotation EventKind = iota + 1
	EventMicrobialDeath
	EventEmergencyStop
	EventSolverFailure
)

func (k EventKind) String() string {
	switch k {
	case EventRotation:
		return "rotation"
	case EventMicrobialDeath:
		return "microbial death"
	case EventEmergencyStop:
		return "emergency stop"
	case EventSolverFailure:
		return "solver failure"
	default:
		return "event"
	}
}

// Event is a structured record of a state transition, emitted through the
// observer interface instead of printed by the core.
type Event struct {
	Kind     EventKind
	Time     float64 // [s]
	TempC    float64 // peak temperature at the event [°C]
	Rotation int     // rotation ordinal, rotation events only
	Err      error   // solver-failure events only
}

// Sample is the per-step statistics record handed to observers and metrics.
// Temperatures are in Celsius.
type Sample struct {
	Time         float64 // [s]
	TMax         float64
	TMin         float64
	TAvg         float64
	QGen         float64 // [W/m³]
	QEvap        float64 // [W/m³]
	MoistureLoss float64 // cumulative [kg/m³]
	Rotating     bool
}

// Observer receives per-step samples and discrete events during a run.
type Observer interface {
	OnStep(s Sample)
	OnEvent(e Event)
}

// Metric accumulates a scalar over the run.
type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

// SnapshotWriter persists full temperature-field snapshots at the save
// interval, independent of the step cadence.
type SnapshotWriter interface {
	WriteSnapshot(t float64, tempC []float64) error
}

// Result collects the run's time series and terminal flags. Series indices
// align across all slices.
type Result struct {
	Vessel string `json:"vessel"`

	Times        []float64 `json:"times_hours"`
	TMax         []float64 `json:"t_max_celsius"`
	TMin         []float64 `json:"t_min_celsius"`
	TAvg         []float64 `json:"t_avg_celsius"`
	QGen         []float64 `json:"heat_generation_w_m3"`
	QEvap        []float64 `json:"evaporative_cooling_w_m3"`
	MoistureLoss []float64 `json:"moisture_loss_kg_m3"`

	MaxTempReached  float64  `json:"max_temp_reached_celsius"`
	ThermalDeath    bool     `json:"thermal_death_occurred"`
	DeathTimeHours  *float64 `json:"death_time_hours"`
	EmergencyStop   bool     `json:"emergency_stop_occurred"`
	AbortTimeHours  *float64 `json:"abort_time_hours"`
	Rotations       int      `json:"total_rotations"`
	StepsTaken      int      `json:"steps_taken"`
	FinalMoisturePc float64  `json:"final_moisture_loss_percent"`

	Metrics map[string]float64 `json:"metrics,omitempty"`
}
