package chunk

import (
	"context"
	"fmt"

	"github.com/deancochran/gradientpeak-sub006/internal/db"
	"github.com/deancochran/gradientpeak-sub006/internal/sensor"
)

// Sink is the persistence boundary the flusher writes through. The Postgres
// store below is the production implementation; tests substitute fakes.
type Sink interface {
	InsertChunks(ctx context.Context, chunks []Chunk) error
	DeleteChunks(ctx context.Context, recordingID string) error
}

// Store persists chunks in Postgres with sample arrays as BYTEA blobs.
type Store struct {
	db db.Querier
}

func NewStore(q db.Querier) *Store {
	return &Store{db: q}
}

// InsertChunks writes a flush batch in a single round trip.
func (s *Store) InsertChunks(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	sql := `INSERT INTO chunks (recording_id, metric, chunk_index, start_time_ms, end_time_ms, sample_count, values_blob, timestamps_blob) VALUES `
	args := make([]any, 0, len(chunks)*8)
	for i, c := range chunks {
		if i > 0 {
			sql += ","
		}
		base := i * 8
		sql += fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8)
		args = append(args, c.RecordingID, string(c.Metric), c.ChunkIndex,
			c.StartTime, c.EndTime, c.SampleCount,
			EncodeFloats(c.Values), EncodeTimes(c.Timestamps))
	}

	if _, err := s.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert chunks: %w", err)
	}
	return nil
}

// DeleteChunks removes every chunk of an abandoned recording.
func (s *Store) DeleteChunks(ctx context.Context, recordingID string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM chunks WHERE recording_id=$1`, recordingID); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	return nil
}

// Chunks loads all chunks of a recording ordered by metric and index.
func (s *Store) Chunks(ctx context.Context, recordingID string) ([]Chunk, error) {
	rows, err := s.db.Query(ctx, `
		SELECT recording_id, metric, chunk_index, start_time_ms, end_time_ms, sample_count, values_blob, timestamps_blob
		FROM chunks WHERE recording_id=$1
		ORDER BY metric, chunk_index
	`, recordingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		var metric string
		var valuesBlob, timesBlob []byte
		if err := rows.Scan(&c.RecordingID, &metric, &c.ChunkIndex, &c.StartTime, &c.EndTime, &c.SampleCount, &valuesBlob, &timesBlob); err != nil {
			return nil, err
		}
		c.Metric = sensor.Metric(metric)
		if c.Values, err = DecodeFloats(valuesBlob); err != nil {
			return nil, err
		}
		if c.Timestamps, err = DecodeTimes(timesBlob); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// MetricValues concatenates one metric's samples across all chunks, in
// chunk-index order. The metrics engine consumes streams in this form.
func (s *Store) MetricValues(ctx context.Context, recordingID string, metric sensor.Metric) ([]float64, []int64, error) {
	rows, err := s.db.Query(ctx, `
		SELECT values_blob, timestamps_blob
		FROM chunks WHERE recording_id=$1 AND metric=$2
		ORDER BY chunk_index
	`, recordingID, string(metric))
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var values []float64
	var timestamps []int64
	for rows.Next() {
		var valuesBlob, timesBlob []byte
		if err := rows.Scan(&valuesBlob, &timesBlob); err != nil {
			return nil, nil, err
		}
		vs, err := DecodeFloats(valuesBlob)
		if err != nil {
			return nil, nil, err
		}
		ts, err := DecodeTimes(timesBlob)
		if err != nil {
			return nil, nil, err
		}
		values = append(values, vs...)
		timestamps = append(timestamps, ts...)
	}
	return values, timestamps, rows.Err()
}
