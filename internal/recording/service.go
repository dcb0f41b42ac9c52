package recording

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/deancochran/gradientpeak-sub006/internal/chunk"
	"github.com/deancochran/gradientpeak-sub006/internal/db"
	"github.com/deancochran/gradientpeak-sub006/internal/metrics"
	"github.com/deancochran/gradientpeak-sub006/internal/plan"
	"github.com/deancochran/gradientpeak-sub006/internal/profile"
	"github.com/deancochran/gradientpeak-sub006/internal/sensor"
	"github.com/deancochran/gradientpeak-sub006/internal/shared/clock"
	"github.com/deancochran/gradientpeak-sub006/internal/stream"
	"github.com/deancochran/gradientpeak-sub006/internal/trainingload"
)

var (
	ErrNotFound = errors.New("recording not found")
	ErrNoPlan   = errors.New("no plan selected")
)

// Recording is the persisted view of a session row.
type Recording struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	State     State     `json:"state"`
	StartedAt time.Time `json:"started_at,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Service owns the registry of in-memory sessions and their persisted rows.
// One session per recording id; the engine assumes a single active recording
// per user, which the caller enforces at the app layer.
type Service struct {
	db          db.Querier
	chunks      *chunk.Store
	hub         *stream.Hub
	profiles    *profile.Service
	loads       *trainingload.Service
	checkpoints CheckpointStore
	clk         clock.Clock
	tun         Tunables

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewService(q db.Querier, chunks *chunk.Store, hub *stream.Hub, profiles *profile.Service,
	loads *trainingload.Service, checkpoints CheckpointStore, clk clock.Clock, tun Tunables) *Service {
	return &Service{
		db:          q,
		chunks:      chunks,
		hub:         hub,
		profiles:    profiles,
		loads:       loads,
		checkpoints: checkpoints,
		clk:         clk,
		tun:         tun,
		sessions:    map[string]*Session{},
	}
}

// Create inserts a pending recording row and registers its session.
func (s *Service) Create(ctx context.Context, userID string) (Recording, error) {
	rec := Recording{ID: uuid.NewString(), UserID: userID, State: StatePending}
	row := s.db.QueryRow(ctx, `
		INSERT INTO recordings (id, user_id, state)
		VALUES ($1,$2,$3)
		RETURNING created_at
	`, rec.ID, rec.UserID, string(rec.State))
	if err := row.Scan(&rec.CreatedAt); err != nil {
		return Recording{}, err
	}

	session := NewSession(rec.ID, userID, s.chunks, s.clk, s.tun)
	session.OnSnapshot(func(snap Snapshot) {
		if s.hub == nil {
			return
		}
		payload, err := json.Marshal(snap)
		if err != nil {
			return
		}
		s.hub.Broadcast(snap.RecordingID, payload)
	})
	session.OnCheckpoint(func(cp Checkpoint) {
		if s.checkpoints == nil {
			return
		}
		if err := s.checkpoints.Save(context.Background(), cp); err != nil {
			log.Printf("recording %s: checkpoint write failed: %v", cp.RecordingID, err)
		}
	})

	s.mu.Lock()
	s.sessions[rec.ID] = session
	s.mu.Unlock()
	return rec, nil
}

func (s *Service) session(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return session, nil
}

// Start begins recording and stamps the row.
func (s *Service) Start(ctx context.Context, id string) error {
	session, err := s.session(id)
	if err != nil {
		return err
	}
	if err := session.Start(); err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `UPDATE recordings SET state=$2, started_at=now() WHERE id=$1`,
		id, string(StateRecording))
	return err
}

func (s *Service) Pause(ctx context.Context, id string) error {
	return s.transition(ctx, id, StatePaused, (*Session).Pause)
}

func (s *Service) Resume(ctx context.Context, id string) error {
	return s.transition(ctx, id, StateRecording, (*Session).Resume)
}

func (s *Service) transition(ctx context.Context, id string, to State, fn func(*Session) error) error {
	session, err := s.session(id)
	if err != nil {
		return err
	}
	if err := fn(session); err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `UPDATE recordings SET state=$2 WHERE id=$1`, id, string(to))
	return err
}

// Finish flushes, summarizes the accumulated streams against the athlete
// profile, persists the finalized artifact, and feeds its TSS into the
// training-load history.
func (s *Service) Finish(ctx context.Context, id string) (metrics.Summary, error) {
	session, err := s.session(id)
	if err != nil {
		return metrics.Summary{}, err
	}
	if err := session.Finish(ctx); err != nil {
		return metrics.Summary{}, err
	}

	summary, err := s.summarize(ctx, session)
	if err != nil {
		return metrics.Summary{}, err
	}

	payload, err := json.Marshal(summary)
	if err != nil {
		return metrics.Summary{}, err
	}
	if _, err := s.db.Exec(ctx, `UPDATE recordings SET state=$2, summary=$3 WHERE id=$1`,
		id, string(StateFinished), payload); err != nil {
		return metrics.Summary{}, err
	}

	if summary.TrainingStress != nil && s.loads != nil {
		if err := s.loads.Append(ctx, session.UserID, s.clk.Now(), *summary.TrainingStress); err != nil {
			log.Printf("recording %s: training load append failed: %v", id, err)
		}
	}
	if s.checkpoints != nil {
		_ = s.checkpoints.Delete(ctx, id)
	}
	s.evict(id)
	return summary, nil
}

// Abandon discards the session: chunks deleted, no artifact emitted.
func (s *Service) Abandon(ctx context.Context, id string) error {
	session, err := s.session(id)
	if err != nil {
		return err
	}
	if err := session.Abandon(ctx); err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, `UPDATE recordings SET state=$2 WHERE id=$1`,
		id, string(StateAbandoned)); err != nil {
		return err
	}
	if s.checkpoints != nil {
		_ = s.checkpoints.Delete(ctx, id)
	}
	s.evict(id)
	return nil
}

// Drain flushes the buffers of every session that cannot be torn down cleanly,
// bounding a graceful shutdown's data loss to the samples that arrive after it.
// Sessions stay open; a restarted process finalizes them via RecoverInterrupted.
func (s *Service) Drain(ctx context.Context) {
	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.mu.Unlock()

	for _, session := range sessions {
		if session.Closeable() {
			continue
		}
		if err := session.FlushNow(ctx); err != nil {
			log.Printf("recording %s: shutdown flush failed: %v", session.ID, err)
		}
	}
}

func (s *Service) evict(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// IngestPayload routes a raw BLE notification into the session.
func (s *Service) IngestPayload(id, characteristic string, payload []byte, deviceID string, timestampMs int64) error {
	session, err := s.session(id)
	if err != nil {
		return err
	}
	session.IngestPayload(characteristic, payload, deviceID, timestampMs)
	return nil
}

func (s *Service) IngestLocation(id string, loc sensor.Location) error {
	session, err := s.session(id)
	if err != nil {
		return err
	}
	session.IngestLocation(loc)
	return nil
}

func (s *Service) Snapshot(id string) (Snapshot, error) {
	session, err := s.session(id)
	if err != nil {
		return Snapshot{}, err
	}
	return session.Snapshot(), nil
}

func (s *Service) SelectPlan(id string, steps []plan.Step) error {
	session, err := s.session(id)
	if err != nil {
		return err
	}
	return session.SelectPlan(steps)
}

func (s *Service) AdvancePlan(id string) error {
	session, err := s.session(id)
	if err != nil {
		return err
	}
	return session.AdvancePlan()
}

func (s *Service) PlanProgress(id string) (*plan.Progress, error) {
	session, err := s.session(id)
	if err != nil {
		return nil, err
	}
	progress := session.PlanProgress()
	if progress == nil {
		return nil, ErrNoPlan
	}
	return progress, nil
}

// Summary loads the finalized artifact of a finished recording.
func (s *Service) Summary(ctx context.Context, id string) (metrics.Summary, error) {
	var payload []byte
	row := s.db.QueryRow(ctx, `SELECT summary FROM recordings WHERE id=$1 AND state=$2`,
		id, string(StateFinished))
	if err := row.Scan(&payload); err != nil {
		return metrics.Summary{}, fmt.Errorf("load summary: %w", err)
	}
	var summary metrics.Summary
	if err := json.Unmarshal(payload, &summary); err != nil {
		return metrics.Summary{}, err
	}
	return summary, nil
}

// summarize reads the persisted streams back and derives the final metrics.
func (s *Service) summarize(ctx context.Context, session *Session) (metrics.Summary, error) {
	var streams metrics.Streams
	var err error

	streams.Power, streams.PowerTimes, err = s.chunks.MetricValues(ctx, session.ID, sensor.MetricPower)
	if err != nil {
		return metrics.Summary{}, err
	}
	streams.HeartRate, streams.HeartTimes, err = s.chunks.MetricValues(ctx, session.ID, sensor.MetricHeartRate)
	if err != nil {
		return metrics.Summary{}, err
	}
	streams.Altitude, _, err = s.chunks.MetricValues(ctx, session.ID, sensor.MetricAltitude)
	if err != nil {
		return metrics.Summary{}, err
	}
	streams.Speed, _, err = s.chunks.MetricValues(ctx, session.ID, sensor.MetricSpeed)
	if err != nil {
		return metrics.Summary{}, err
	}
	streams.MovingSeconds = session.MovingSeconds()
	streams.DistanceM = session.DistanceM()

	var athlete profile.Profile
	if s.profiles != nil {
		if athlete, err = s.profiles.Get(ctx, session.UserID); err != nil {
			return metrics.Summary{}, err
		}
	}
	return metrics.Summarize(streams, athlete, s.clk.Now()), nil
}

// RecoverInterrupted finalizes sessions a crashed process left in a
// non-terminal state: whatever chunks reached storage are summarized with the
// checkpointed moving time, and the row is closed out.
func (s *Service) RecoverInterrupted(ctx context.Context) error {
	rows, err := s.db.Query(ctx, `SELECT id, user_id FROM recordings WHERE state IN ($1,$2)`,
		string(StateRecording), string(StatePaused))
	if err != nil {
		return err
	}
	defer rows.Close()

	type orphan struct{ id, userID string }
	var orphans []orphan
	for rows.Next() {
		var o orphan
		if err := rows.Scan(&o.id, &o.userID); err != nil {
			return err
		}
		orphans = append(orphans, o)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, o := range orphans {
		if err := s.recoverOne(ctx, o.id, o.userID); err != nil {
			log.Printf("recording %s: recovery failed: %v", o.id, err)
		}
	}
	return nil
}

func (s *Service) recoverOne(ctx context.Context, id, userID string) error {
	var movingSeconds float64
	if s.checkpoints != nil {
		if cp, ok, err := s.checkpoints.Load(ctx, id); err == nil && ok {
			movingSeconds = float64(cp.MovingMs()) / 1000
		}
	}

	var streams metrics.Streams
	var err error
	streams.Power, streams.PowerTimes, err = s.chunks.MetricValues(ctx, id, sensor.MetricPower)
	if err != nil {
		return err
	}
	streams.HeartRate, streams.HeartTimes, err = s.chunks.MetricValues(ctx, id, sensor.MetricHeartRate)
	if err != nil {
		return err
	}
	streams.Altitude, _, err = s.chunks.MetricValues(ctx, id, sensor.MetricAltitude)
	if err != nil {
		return err
	}
	streams.MovingSeconds = movingSeconds

	var athlete profile.Profile
	if s.profiles != nil {
		if athlete, err = s.profiles.Get(ctx, userID); err != nil {
			return err
		}
	}
	summary := metrics.Summarize(streams, athlete, s.clk.Now())

	payload, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, `UPDATE recordings SET state=$2, summary=$3 WHERE id=$1`,
		id, string(StateFinished), payload); err != nil {
		return err
	}
	if s.checkpoints != nil {
		_ = s.checkpoints.Delete(ctx, id)
	}
	return nil
}
