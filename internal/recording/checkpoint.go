package recording

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Checkpoint is the periodically persisted state snapshot that lets a
// restarted process finalize an interrupted session instead of silently
// losing its tail. Unflushed samples are still lost; the checkpoint bounds
// the loss to one flush interval.
type Checkpoint struct {
	RecordingID   string  `json:"recording_id"`
	UserID        string  `json:"user_id"`
	State         State   `json:"state"`
	StartedAtMs   int64   `json:"started_at_ms"`
	PausedAccumMs int64   `json:"paused_accum_ms"`
	PauseStartMs  int64   `json:"pause_start_ms,omitempty"`
	ChunkIndex    uint32  `json:"chunk_index"`
	DistanceM     float64 `json:"distance_m"`
	UpdatedAtMs   int64   `json:"updated_at_ms"`
}

// MovingMs derives the moving time the checkpoint witnessed.
func (c Checkpoint) MovingMs() int64 {
	moving := c.UpdatedAtMs - c.StartedAtMs - c.PausedAccumMs
	if c.PauseStartMs > 0 {
		moving -= c.UpdatedAtMs - c.PauseStartMs
	}
	if moving < 0 {
		return 0
	}
	return moving
}

// CheckpointStore persists checkpoints outside the process.
type CheckpointStore interface {
	Save(ctx context.Context, cp Checkpoint) error
	Load(ctx context.Context, recordingID string) (Checkpoint, bool, error)
	Delete(ctx context.Context, recordingID string) error
}

const checkpointTTL = 24 * time.Hour

// RedisCheckpoints stores checkpoints as JSON values with a TTL; a session
// that neither finished nor checkpointed for a day is stale by any measure.
type RedisCheckpoints struct {
	redis *redis.Client
}

func NewRedisCheckpoints(client *redis.Client) *RedisCheckpoints {
	return &RedisCheckpoints{redis: client}
}

func checkpointKey(recordingID string) string {
	return "recording:" + recordingID + ":checkpoint"
}

func (r *RedisCheckpoints) Save(ctx context.Context, cp Checkpoint) error {
	if r.redis == nil {
		return nil
	}
	payload, err := json.Marshal(cp)
	if err != nil {
		return err
	}
	return r.redis.Set(ctx, checkpointKey(cp.RecordingID), payload, checkpointTTL).Err()
}

func (r *RedisCheckpoints) Load(ctx context.Context, recordingID string) (Checkpoint, bool, error) {
	if r.redis == nil {
		return Checkpoint{}, false, nil
	}
	payload, err := r.redis.Get(ctx, checkpointKey(recordingID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Checkpoint{}, false, nil
		}
		return Checkpoint{}, false, err
	}
	var cp Checkpoint
	if err := json.Unmarshal(payload, &cp); err != nil {
		return Checkpoint{}, false, err
	}
	return cp, true, nil
}

func (r *RedisCheckpoints) Delete(ctx context.Context, recordingID string) error {
	if r.redis == nil {
		return nil
	}
	return r.redis.Del(ctx, checkpointKey(recordingID)).Err()
}
