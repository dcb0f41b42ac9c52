package plan

// Step is one interval of a structured workout. Steps are fixed at plan
// selection time; either a duration or a distance bounds the step, and a step
// with neither is open-ended and only advances manually.
type Step struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"` // warmup, work, recovery, cooldown, free
	DurationSec *float64 `json:"duration_sec,omitempty"`
	DistanceM   *float64 `json:"distance_m,omitempty"`
	Target      *Target  `json:"target,omitempty"`
}

// Target is the intensity a step asks for, as a range or a center value.
type Target struct {
	Kind   string   `json:"kind"` // power, heart_rate, cadence, speed
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
	Target *float64 `json:"target,omitempty"`
	Unit   string   `json:"unit,omitempty"`
}

// ComplianceStatus reports where a live value sits against a step target.
type ComplianceStatus string

const (
	ComplianceInRange ComplianceStatus = "in_range"
	ComplianceBelow   ComplianceStatus = "below"
	ComplianceAbove   ComplianceStatus = "above"
	ComplianceNoData  ComplianceStatus = "no_data"
)

// Progress is the live view of the plan the snapshot carries.
type Progress struct {
	StepIndex    int              `json:"step_index"`
	StepCount    int              `json:"step_count"`
	StepProgress float64          `json:"step_progress"` // 0..1
	CanAdvance   bool             `json:"can_advance"`
	Finished     bool             `json:"finished"`
	Compliance   ComplianceStatus `json:"compliance"`
	Step         *Step            `json:"step,omitempty"`
}
