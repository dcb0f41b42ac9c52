package chunk

import (
	"sync"

	"github.com/deancochran/gradientpeak-sub006/internal/sensor"
)

// retainFactor bounds how much unflushed data one metric may retain while the
// store keeps failing: beyond retainFactor * forceFlushCap samples the oldest
// are dropped.
const retainFactor = 4

// Accumulator buffers readings per metric between flushes. Flushes are driven
// by the session's flush timer, by a per-metric size cap, or explicitly on
// stop. A failed flush re-queues its samples so transient storage errors lose
// nothing.
type Accumulator struct {
	mu          sync.Mutex
	recordingID string
	cap         int

	pending    map[sensor.Metric][]sensor.Reading
	chunkIndex uint32
	lastFlush  int64 // end time of the previous flush, unix ms
	dropped    int
}

func NewAccumulator(recordingID string, forceFlushCap int, startMs int64) *Accumulator {
	if forceFlushCap <= 0 {
		forceFlushCap = 1000
	}
	return &Accumulator{
		recordingID: recordingID,
		cap:         forceFlushCap,
		pending:     map[sensor.Metric][]sensor.Reading{},
		lastFlush:   startMs,
	}
}

func (a *Accumulator) Add(r sensor.Reading) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending[r.Metric] = append(a.pending[r.Metric], r)
}

// NeedsFlush reports whether any metric's pending buffer has hit the size cap.
func (a *Accumulator) NeedsFlush() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, buf := range a.pending {
		if len(buf) >= a.cap {
			return true
		}
	}
	return false
}

func (a *Accumulator) PendingCount(metric sensor.Metric) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending[metric])
}

// Dropped returns how many samples were discarded by the retention cap.
func (a *Accumulator) Dropped() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dropped
}

// Flush drains the pending buffers into one chunk per non-empty metric, all
// sharing the next chunk index. The swap is atomic with respect to Add: new
// readings land in fresh buffers while the caller writes the batch out.
func (a *Accumulator) Flush(nowMs int64) []Chunk {
	a.mu.Lock()
	defer a.mu.Unlock()

	var chunks []Chunk
	for metric, buf := range a.pending {
		if len(buf) == 0 {
			continue
		}
		values := make([]float64, len(buf))
		timestamps := make([]int64, len(buf))
		for i, r := range buf {
			values[i] = r.Value
			timestamps[i] = r.Timestamp
		}
		chunks = append(chunks, Chunk{
			RecordingID: a.recordingID,
			Metric:      metric,
			ChunkIndex:  a.chunkIndex,
			StartTime:   a.lastFlush,
			EndTime:     nowMs,
			Values:      values,
			Timestamps:  timestamps,
			SampleCount: len(buf),
		})
	}
	if len(chunks) == 0 {
		return nil
	}

	a.pending = map[sensor.Metric][]sensor.Reading{}
	return chunks
}

// Commit marks a flushed batch as durably written: the index advances and the
// chunk window moves forward. Only called after a successful store insert, so
// an index is never reused.
func (a *Accumulator) Commit(nowMs int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.chunkIndex++
	a.lastFlush = nowMs
}

// Requeue puts a failed batch back in front of whatever arrived since the
// flush, then enforces the retention cap per metric, dropping oldest first.
func (a *Accumulator) Requeue(chunks []Chunk) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, c := range chunks {
		restored := make([]sensor.Reading, 0, c.SampleCount+len(a.pending[c.Metric]))
		for i := range c.Values {
			restored = append(restored, sensor.Reading{
				Metric:    c.Metric,
				Value:     c.Values[i],
				Timestamp: c.Timestamps[i],
			})
		}
		restored = append(restored, a.pending[c.Metric]...)

		limit := retainFactor * a.cap
		if len(restored) > limit {
			a.dropped += len(restored) - limit
			restored = restored[len(restored)-limit:]
		}
		a.pending[c.Metric] = restored
	}
}

// ChunkIndex returns the next index to be assigned; used for checkpointing.
func (a *Accumulator) ChunkIndex() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.chunkIndex
}
