package recording

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/deancochran/gradientpeak-sub006/internal/buffer"
	"github.com/deancochran/gradientpeak-sub006/internal/chunk"
	"github.com/deancochran/gradientpeak-sub006/internal/plan"
	"github.com/deancochran/gradientpeak-sub006/internal/sensor"
	"github.com/deancochran/gradientpeak-sub006/internal/shared/clock"
	"github.com/deancochran/gradientpeak-sub006/internal/shared/geo"
)

// Tunables are the engine knobs a session is created with.
type Tunables struct {
	GPSAccuracyCeilingM float64
	FlushInterval       time.Duration
	SnapshotInterval    time.Duration
	ForceFlushCap       int
	RollingWindowSec    int
}

func DefaultTunables() Tunables {
	return Tunables{
		GPSAccuracyCeilingM: 50,
		FlushInterval:       5 * time.Second,
		SnapshotInterval:    time.Second,
		ForceFlushCap:       1000,
		RollingWindowSec:    60,
	}
}

// LiveMetric is the rolling-window view of one metric in a snapshot.
type LiveMetric struct {
	Last float64 `json:"last"`
	Avg  float64 `json:"avg"`
	Max  float64 `json:"max"`
	Min  float64 `json:"min"`
}

// Snapshot is the periodic read-only view consumers subscribe to. Consumers
// never reach into session internals.
type Snapshot struct {
	RecordingID    string                       `json:"recording_id"`
	State          State                        `json:"state"`
	ElapsedSeconds float64                      `json:"elapsed_seconds"`
	MovingSeconds  float64                      `json:"moving_seconds"`
	DistanceM      float64                      `json:"distance_m"`
	Live           map[sensor.Metric]LiveMetric `json:"live_metrics"`
	Plan           *plan.Progress               `json:"plan,omitempty"`
}

// Session owns all mutable recording state: the state machine, the rolling
// buffers, the chunk accumulator, and the optional plan runner. One mutex
// serializes every mutation; sensor callbacks, GPS fixes, the snapshot tick
// and the flush tick all funnel through it.
type Session struct {
	mu sync.Mutex

	ID     string
	UserID string

	state State
	times timeState

	clk     clock.Clock
	tun     Tunables
	decoder *sensor.Decoder
	rings   map[sensor.Metric]*buffer.Ring
	acc     *chunk.Accumulator
	sink    chunk.Sink

	runner    *plan.Runner
	distanceM float64
	lastFix   *sensor.Location

	// frozen at finish/abandon so terminal sessions stop accruing time
	finalElapsed time.Duration
	finalMoving  time.Duration

	stop    chan struct{}
	stopped bool

	onSnapshot func(Snapshot)
	checkpoint func(Checkpoint)
}

func NewSession(id, userID string, sink chunk.Sink, clk clock.Clock, tun Tunables) *Session {
	return &Session{
		ID:      id,
		UserID:  userID,
		state:   StatePending,
		clk:     clk,
		tun:     tun,
		decoder: sensor.NewDecoder(),
		rings:   map[sensor.Metric]*buffer.Ring{},
		sink:    sink,
		stop:    make(chan struct{}),
	}
}

// OnSnapshot registers the observer the 1Hz tick publishes through.
func (s *Session) OnSnapshot(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSnapshot = fn
}

// OnCheckpoint registers the periodic state-snapshot writer used for crash
// recovery.
func (s *Session) OnCheckpoint(fn func(Checkpoint)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkpoint = fn
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Closeable reports whether the caller may tear the session down without an
// explicit finish or abandon first.
func (s *Session) Closeable() bool {
	switch s.State() {
	case StatePending, StateFinished, StateAbandoned:
		return true
	default:
		return false
	}
}

// Start transitions pending -> recording, initializes the time model and the
// accumulator, and launches the tick loop.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePending {
		return ErrInvalidTransition
	}
	now := s.clk.Now()
	s.state = StateRecording
	s.times = startedTimeState(now)
	s.acc = chunk.NewAccumulator(s.ID, s.tun.ForceFlushCap, now.UnixMilli())

	go s.run()
	return nil
}

// Pause stops moving-time accrual. Sensor and GPS ingestion keep flowing while
// paused so the record stays complete; only moving time, plan progression and
// distance accumulation freeze.
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRecording {
		return ErrInvalidTransition
	}
	s.state = StatePaused
	s.times = s.times.pause(s.clk.Now())
	return nil
}

func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePaused {
		return ErrInvalidTransition
	}
	s.state = StateRecording
	s.times = s.times.resume(s.clk.Now())
	return nil
}

// Finish stops the tick loop and synchronously flushes every buffered sample.
// The final flush must succeed before the session counts as finished: if it
// fails, the samples stay requeued, the session parks in finishing, and the
// caller retries Finish until storage recovers (or gives up via Abandon).
func (s *Session) Finish(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateRecording, StatePaused:
		now := s.clk.Now()
		if s.times.paused() {
			s.times = s.times.resume(now)
		}
		s.state = StateFinishing
		s.finalElapsed = s.times.Elapsed(now)
		s.finalMoving = s.times.Moving(now)
		s.teardownLocked()
	case StateFinishing:
		// retrying a failed final flush
	default:
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	s.mu.Unlock()

	if err := s.flush(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.state = StateFinished
	s.mu.Unlock()
	return nil
}

// Abandon stops the tick loop, discards buffered samples and deletes every
// chunk already persisted for this recording.
func (s *Session) Abandon(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateRecording, StatePaused:
		now := s.clk.Now()
		if s.times.paused() {
			s.times = s.times.resume(now)
		}
		s.finalElapsed = s.times.Elapsed(now)
		s.finalMoving = s.times.Moving(now)
		s.teardownLocked()
	case StateFinishing:
		// giving up on a final flush that keeps failing; finals already frozen
	default:
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	s.state = StateAbandoned
	s.mu.Unlock()

	return s.sink.DeleteChunks(ctx, s.ID)
}

// teardownLocked cancels the timers; callers hold the mutex. Tick callbacks
// observe the terminal state and become no-ops even if one is already running.
func (s *Session) teardownLocked() {
	if !s.stopped {
		s.stopped = true
		close(s.stop)
	}
}

// IngestPayload decodes a raw characteristic payload and routes the resulting
// readings through validation into the rolling buffers and the accumulator.
func (s *Session) IngestPayload(characteristic string, payload []byte, deviceID string, timestampMs int64) {
	readings := s.decoder.Decode(characteristic, payload, deviceID, timestampMs)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ingestingLocked() {
		return
	}
	for _, r := range readings {
		if err := sensor.Validate(r); err != nil {
			log.Printf("recording %s: discarding reading: %v", s.ID, err)
			continue
		}
		s.acceptLocked(r)
	}
}

// IngestLocation applies the accuracy gate, then feeds altitude and speed into
// their metric streams and accumulates haversine distance between consecutive
// accepted fixes. Fixes during pause are recorded but add no distance.
func (s *Session) IngestLocation(loc sensor.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ingestingLocked() {
		return
	}
	if !loc.AccurateEnough(s.tun.GPSAccuracyCeilingM) {
		log.Printf("recording %s: rejecting gps fix, accuracy %.0fm over ceiling", s.ID, *loc.Accuracy)
		return
	}

	if s.lastFix != nil && s.state == StateRecording {
		deltaM := geo.HaversineKm(s.lastFix.Lat, s.lastFix.Lng, loc.Lat, loc.Lng) * 1000
		s.distanceM += deltaM
		s.acceptLocked(sensor.Reading{Metric: sensor.MetricDistance, Value: s.distanceM, Timestamp: loc.Timestamp})
	}
	fix := loc
	s.lastFix = &fix

	if loc.Altitude != nil {
		s.acceptLocked(sensor.Reading{Metric: sensor.MetricAltitude, Value: *loc.Altitude, Timestamp: loc.Timestamp})
	}
	if loc.Speed != nil {
		r := sensor.Reading{Metric: sensor.MetricSpeed, Value: *loc.Speed, Timestamp: loc.Timestamp}
		if sensor.Validate(r) == nil {
			s.acceptLocked(r)
		}
	}
}

func (s *Session) ingestingLocked() bool {
	return s.state == StateRecording || s.state == StatePaused
}

func (s *Session) acceptLocked(r sensor.Reading) {
	ring, ok := s.rings[r.Metric]
	if !ok {
		ring = buffer.NewRing(s.tun.RollingWindowSec*2, s.tun.RollingWindowSec, s.clk)
		s.rings[r.Metric] = ring
	}
	ring.Add(r.Value, r.Timestamp)
	s.acc.Add(r)
}

// SelectPlan attaches a step sequence, starting at the current moving time.
func (s *Session) SelectPlan(steps []plan.Step) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateFinished || s.state == StateAbandoned {
		return ErrInvalidTransition
	}
	now := s.clk.Now()
	s.runner = plan.NewRunner(steps, s.times.Moving(now).Seconds(), s.distanceM)
	return nil
}

// AdvancePlan is the manual advance/skip entry point.
func (s *Session) AdvancePlan() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runner == nil {
		return ErrNoPlan
	}
	now := s.clk.Now()
	s.runner.Skip(s.times.Moving(now).Seconds(), s.distanceM)
	return nil
}

// PlanProgress returns the live plan view, or nil when no plan is selected.
func (s *Session) PlanProgress() *plan.Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.planProgressLocked()
}

func (s *Session) planProgressLocked() *plan.Progress {
	if s.runner == nil {
		return nil
	}
	now := s.clk.Now()
	p := s.runner.Snapshot(s.times.Moving(now).Seconds(), s.distanceM, s.targetValueLocked())
	return &p
}

// targetValueLocked looks up the live value the current step's target is
// denominated in.
func (s *Session) targetValueLocked() *float64 {
	step := s.runner.Current()
	if step == nil || step.Target == nil {
		return nil
	}
	ring, ok := s.rings[sensor.Metric(step.Target.Kind)]
	if !ok {
		return nil
	}
	latest, ok := ring.Latest()
	if !ok {
		return nil
	}
	return &latest.Value
}

// Tick is the 1Hz step: recompute times, run plan auto-advance on moving
// time, evict stale ring samples, and emit a snapshot. No I/O happens here.
func (s *Session) Tick() {
	s.mu.Lock()
	if s.state != StateRecording && s.state != StatePaused {
		s.mu.Unlock()
		return
	}
	now := s.clk.Now()
	moving := s.times.Moving(now).Seconds()

	if s.runner != nil && s.state == StateRecording {
		s.runner.CheckAdvance(moving, s.distanceM)
	}
	for _, ring := range s.rings {
		ring.Cleanup()
	}
	snap := s.snapshotLocked(now)
	observer := s.onSnapshot
	s.mu.Unlock()

	if observer != nil {
		observer(snap)
	}
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(s.clk.Now())
}

func (s *Session) snapshotLocked(now time.Time) Snapshot {
	live := map[sensor.Metric]LiveMetric{}
	for metric, ring := range s.rings {
		latest, ok := ring.Latest()
		if !ok {
			continue
		}
		avg, _ := ring.Average()
		max, _ := ring.Max()
		min, _ := ring.Min()
		live[metric] = LiveMetric{Last: latest.Value, Avg: avg, Max: max, Min: min}
	}
	elapsed, moving := s.timesLocked(now)
	return Snapshot{
		RecordingID:    s.ID,
		State:          s.state,
		ElapsedSeconds: elapsed.Seconds(),
		MovingSeconds:  moving.Seconds(),
		DistanceM:      s.distanceM,
		Live:           live,
		Plan:           s.planProgressLocked(),
	}
}

// timesLocked returns live times for active sessions and the frozen values
// once teardown happened.
func (s *Session) timesLocked(now time.Time) (elapsed, moving time.Duration) {
	switch s.state {
	case StateFinishing, StateFinished, StateAbandoned:
		return s.finalElapsed, s.finalMoving
	default:
		return s.times.Elapsed(now), s.times.Moving(now)
	}
}

// flush drains the accumulator and writes the batch. On failure the samples
// are requeued and retried next cycle; the chunk index only advances after a
// durable write.
func (s *Session) flush(ctx context.Context) error {
	s.mu.Lock()
	acc := s.acc
	s.mu.Unlock()
	if acc == nil {
		return nil
	}

	now := s.clk.Now()
	chunks := acc.Flush(now.UnixMilli())
	if chunks == nil {
		s.writeCheckpoint(now)
		return nil
	}
	if err := s.sink.InsertChunks(ctx, chunks); err != nil {
		acc.Requeue(chunks)
		return err
	}
	acc.Commit(now.UnixMilli())
	s.writeCheckpoint(now)
	return nil
}

// FlushNow is the overflow path: called when a metric buffer hits its cap.
func (s *Session) FlushNow(ctx context.Context) error {
	return s.flush(ctx)
}

func (s *Session) writeCheckpoint(now time.Time) {
	s.mu.Lock()
	fn := s.checkpoint
	cp := s.checkpointLocked(now)
	s.mu.Unlock()
	if fn != nil {
		fn(cp)
	}
}

func (s *Session) checkpointLocked(now time.Time) Checkpoint {
	cp := Checkpoint{
		RecordingID:   s.ID,
		UserID:        s.UserID,
		State:         s.state,
		StartedAtMs:   s.times.startedAt.UnixMilli(),
		PausedAccumMs: s.times.pausedAccum.Milliseconds(),
		DistanceM:     s.distanceM,
		UpdatedAtMs:   now.UnixMilli(),
	}
	if s.times.paused() {
		cp.PauseStartMs = s.times.pauseStart.UnixMilli()
	}
	if s.acc != nil {
		cp.ChunkIndex = s.acc.ChunkIndex()
	}
	return cp
}

// run is the timer loop: a snapshot tick, a flush tick, and an overflow check
// piggybacked on the snapshot tick. The loop exits when teardown closes the
// stop channel; flushes never block snapshot emission.
func (s *Session) run() {
	snapTicker := time.NewTicker(s.tun.SnapshotInterval)
	flushTicker := time.NewTicker(s.tun.FlushInterval)
	defer snapTicker.Stop()
	defer flushTicker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-snapTicker.C:
			s.Tick()
			s.mu.Lock()
			overflow := s.acc != nil && s.acc.NeedsFlush()
			s.mu.Unlock()
			if overflow {
				if err := s.FlushNow(context.Background()); err != nil {
					log.Printf("recording %s: overflow flush failed: %v", s.ID, err)
				}
			}
		case <-flushTicker.C:
			if err := s.flush(context.Background()); err != nil {
				log.Printf("recording %s: flush failed, will retry: %v", s.ID, err)
			}
		}
	}
}

// MovingSeconds returns the current moving time, frozen once terminal.
func (s *Session) MovingSeconds() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, moving := s.timesLocked(s.clk.Now())
	return moving.Seconds()
}

// DistanceM returns the accumulated GPS distance.
func (s *Session) DistanceM() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.distanceM
}
