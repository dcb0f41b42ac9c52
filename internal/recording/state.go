package recording

import (
	"errors"
	"time"
)

// State is the lifecycle position of a recording session.
type State string

const (
	StatePending   State = "pending"
	StateRecording State = "recording"
	StatePaused    State = "paused"
	// finishing means teardown happened but the final flush has not succeeded
	// yet; Finish may be retried from here until it does.
	StateFinishing State = "finishing"
	StateFinished  State = "finished"
	StateAbandoned State = "abandoned"
)

// ErrInvalidTransition is returned for lifecycle calls that are not legal from
// the current state. The session is left untouched.
var ErrInvalidTransition = errors.New("invalid state transition")

// timeState is the pause-aware time model. Transitions produce a new value
// instead of mutating fields, so the moving <= elapsed invariant holds by
// construction: moving time is elapsed time minus completed pauses minus the
// currently open pause.
type timeState struct {
	startedAt   time.Time
	pausedAccum time.Duration
	pauseStart  time.Time // zero unless currently paused
}

func startedTimeState(now time.Time) timeState {
	return timeState{startedAt: now}
}

func (ts timeState) paused() bool { return !ts.pauseStart.IsZero() }

func (ts timeState) pause(now time.Time) timeState {
	ts.pauseStart = now
	return ts
}

func (ts timeState) resume(now time.Time) timeState {
	ts.pausedAccum += now.Sub(ts.pauseStart)
	ts.pauseStart = time.Time{}
	return ts
}

func (ts timeState) Elapsed(now time.Time) time.Duration {
	if ts.startedAt.IsZero() {
		return 0
	}
	return now.Sub(ts.startedAt)
}

func (ts timeState) Moving(now time.Time) time.Duration {
	moving := ts.Elapsed(now) - ts.pausedAccum
	if ts.paused() {
		moving -= now.Sub(ts.pauseStart)
	}
	if moving < 0 {
		return 0
	}
	return moving
}
