package chunk

import "github.com/deancochran/gradientpeak-sub006/internal/sensor"

// Chunk is an immutable, time-bounded batch of one metric's samples. It is the
// unit of persistence and of upload by the (external) sync pipeline.
type Chunk struct {
	RecordingID string        `json:"recording_id"`
	Metric      sensor.Metric `json:"metric"`
	ChunkIndex  uint32        `json:"chunk_index"`
	StartTime   int64         `json:"start_time_ms"`
	EndTime     int64         `json:"end_time_ms"`
	Values      []float64     `json:"values"`
	Timestamps  []int64       `json:"timestamps"`
	SampleCount int           `json:"sample_count"`
}
