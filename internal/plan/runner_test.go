package plan

import "testing"

func f(v float64) *float64 { return &v }

func TestTimedStepAutoAdvance(t *testing.T) {
	r := NewRunner([]Step{
		{ID: "s1", Type: "work", DurationSec: f(60)},
		{ID: "s2", Type: "recovery", DurationSec: f(30)},
	}, 100, 0)

	if r.CheckAdvance(159.9, 0) {
		t.Fatalf("advanced before the step duration elapsed")
	}
	if !r.CheckAdvance(160, 0) {
		t.Fatalf("did not advance at exactly 60s of moving time")
	}
	if r.StepIndex() != 1 {
		t.Fatalf("unexpected step index %d", r.StepIndex())
	}

	// second step origin is the moving time at the advance
	if got := r.StepProgress(175, 0); got != 0.5 {
		t.Fatalf("expected progress 0.5, got %v", got)
	}
}

func TestPauseDoesNotAdvanceStep(t *testing.T) {
	r := NewRunner([]Step{{ID: "s1", DurationSec: f(60)}}, 0, 0)

	// moving time frozen at 30s across any number of ticks: no advance
	for i := 0; i < 10; i++ {
		if r.CheckAdvance(30, 0) {
			t.Fatalf("advanced while moving time was frozen")
		}
	}
	if got := r.StepProgress(30, 0); got != 0.5 {
		t.Fatalf("expected progress 0.5 during pause, got %v", got)
	}
}

func TestOpenEndedStepRequiresManualAdvance(t *testing.T) {
	r := NewRunner([]Step{{ID: "free", Type: "free"}, {ID: "s2", DurationSec: f(10)}}, 0, 0)

	if r.CheckAdvance(10000, 0) {
		t.Fatalf("open-ended step auto-advanced")
	}
	snap := r.Snapshot(10000, 0, nil)
	if !snap.CanAdvance {
		t.Fatalf("open-ended step must always allow manual advance")
	}

	r.Skip(10000, 0)
	if r.StepIndex() != 1 {
		t.Fatalf("skip did not advance")
	}
}

func TestDistanceStep(t *testing.T) {
	r := NewRunner([]Step{{ID: "d1", DistanceM: f(1000)}}, 0, 500)

	if got := r.StepProgress(0, 1000); got != 0.5 {
		t.Fatalf("expected distance progress 0.5, got %v", got)
	}
	if !r.CheckAdvance(0, 1500) {
		t.Fatalf("distance step did not advance at target distance")
	}
}

func TestPlanFinishesTerminally(t *testing.T) {
	r := NewRunner([]Step{{ID: "s1", DurationSec: f(10)}}, 0, 0)

	if !r.CheckAdvance(10, 0) {
		t.Fatalf("expected advance")
	}
	if !r.Finished() {
		t.Fatalf("plan not finished after last step")
	}
	if r.Current() != nil {
		t.Fatalf("finished plan still has a current step")
	}

	// no wraparound
	r.Advance(20, 0)
	if r.StepIndex() != 1 || !r.Finished() {
		t.Fatalf("finished plan moved: index %d", r.StepIndex())
	}
}

func TestComplianceCenterTarget(t *testing.T) {
	r := NewRunner([]Step{{ID: "s1", DurationSec: f(60), Target: &Target{Kind: "power", Target: f(200)}}}, 0, 0)

	if got := r.Compliance(f(200)); got != ComplianceInRange {
		t.Fatalf("exact target not in range: %v", got)
	}
	if got := r.Compliance(f(219)); got != ComplianceInRange {
		t.Fatalf("within +10%% not in range: %v", got)
	}
	if got := r.Compliance(f(221)); got != ComplianceAbove {
		t.Fatalf("above tolerance not flagged: %v", got)
	}
	if got := r.Compliance(f(179)); got != ComplianceBelow {
		t.Fatalf("below tolerance not flagged: %v", got)
	}
}

func TestComplianceMinMaxAndNoData(t *testing.T) {
	r := NewRunner([]Step{{ID: "s1", Target: &Target{Kind: "heart_rate", Min: f(120), Max: f(150)}}}, 0, 0)

	if got := r.Compliance(f(135)); got != ComplianceInRange {
		t.Fatalf("mid-range not in range: %v", got)
	}
	if got := r.Compliance(f(119)); got != ComplianceBelow {
		t.Fatalf("below min not flagged: %v", got)
	}
	if got := r.Compliance(f(151)); got != ComplianceAbove {
		t.Fatalf("above max not flagged: %v", got)
	}
	if got := r.Compliance(nil); got != ComplianceNoData {
		t.Fatalf("missing metric must be no_data, got %v", got)
	}
}
