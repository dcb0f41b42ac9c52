package plan

// targetTolerance is the band around a center target that still counts as
// compliant: +/-10%.
const targetTolerance = 0.10

// Runner advances through an ordered step sequence. All progress is measured
// in session moving time (or moving distance), never wall clock, so pauses
// cannot shorten an interval.
type Runner struct {
	steps             []Step
	stepIndex         int
	stepStartMoving   float64
	stepStartDistance float64
	finished          bool
}

// NewRunner selects a plan at the given moving time. An empty step list is a
// plan that is already finished.
func NewRunner(steps []Step, movingSeconds, distanceM float64) *Runner {
	return &Runner{
		steps:             steps,
		stepStartMoving:   movingSeconds,
		stepStartDistance: distanceM,
		finished:          len(steps) == 0,
	}
}

func (r *Runner) Finished() bool { return r.finished }

func (r *Runner) StepIndex() int { return r.stepIndex }

// Current returns the active step, or nil once the plan is finished.
func (r *Runner) Current() *Step {
	if r.finished {
		return nil
	}
	return &r.steps[r.stepIndex]
}

// StepProgress is the 0..1 completion ratio of the current step. Open-ended
// steps have no denominator and always report 0.
func (r *Runner) StepProgress(movingSeconds, distanceM float64) float64 {
	step := r.Current()
	if step == nil {
		return 0
	}
	switch {
	case step.DurationSec != nil && *step.DurationSec > 0:
		return clamp((movingSeconds - r.stepStartMoving) / *step.DurationSec)
	case step.DistanceM != nil && *step.DistanceM > 0:
		return clamp((distanceM - r.stepStartDistance) / *step.DistanceM)
	default:
		return 0
	}
}

// CheckAdvance auto-advances the current step when its fixed duration (or
// distance) is complete. Open-ended steps never auto-advance. Returns true
// when a step boundary was crossed.
func (r *Runner) CheckAdvance(movingSeconds, distanceM float64) bool {
	step := r.Current()
	if step == nil {
		return false
	}
	bounded := (step.DurationSec != nil && *step.DurationSec > 0) ||
		(step.DistanceM != nil && *step.DistanceM > 0)
	if !bounded {
		return false
	}
	if r.StepProgress(movingSeconds, distanceM) < 1 {
		return false
	}
	r.Advance(movingSeconds, distanceM)
	return true
}

// Advance moves to the next step, resetting the step origin to the current
// moving time. Past the last step the plan is terminally finished.
func (r *Runner) Advance(movingSeconds, distanceM float64) {
	if r.finished {
		return
	}
	r.stepIndex++
	r.stepStartMoving = movingSeconds
	r.stepStartDistance = distanceM
	if r.stepIndex >= len(r.steps) {
		r.stepIndex = len(r.steps)
		r.finished = true
	}
}

// Skip is a manual advance; identical semantics.
func (r *Runner) Skip(movingSeconds, distanceM float64) {
	r.Advance(movingSeconds, distanceM)
}

// Compliance reports where a live metric value sits against the current step
// target. A missing value is "no data", not a failure.
func (r *Runner) Compliance(value *float64) ComplianceStatus {
	step := r.Current()
	if step == nil || step.Target == nil {
		return ComplianceNoData
	}
	if value == nil {
		return ComplianceNoData
	}
	t := step.Target

	if t.Target != nil {
		lo := *t.Target * (1 - targetTolerance)
		hi := *t.Target * (1 + targetTolerance)
		switch {
		case *value < lo:
			return ComplianceBelow
		case *value > hi:
			return ComplianceAbove
		default:
			return ComplianceInRange
		}
	}

	if t.Min != nil && *value < *t.Min {
		return ComplianceBelow
	}
	if t.Max != nil && *value > *t.Max {
		return ComplianceAbove
	}
	return ComplianceInRange
}

// Snapshot assembles the live plan view.
func (r *Runner) Snapshot(movingSeconds, distanceM float64, liveValue *float64) Progress {
	p := Progress{
		StepIndex:  r.stepIndex,
		StepCount:  len(r.steps),
		Finished:   r.finished,
		Compliance: r.Compliance(liveValue),
	}
	if step := r.Current(); step != nil {
		p.Step = step
		p.StepProgress = r.StepProgress(movingSeconds, distanceM)
		p.CanAdvance = true
	}
	return p
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
