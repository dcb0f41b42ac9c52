package buffer

import (
	"sync"
	"time"

	"github.com/deancochran/gradientpeak-sub006/internal/shared/clock"
)

// aggregate cache TTL; live displays poll far faster than samples arrive.
const cacheTTL = 100 * time.Millisecond

// Sample is one (value, timestamp) pair held by a ring.
type Sample struct {
	Value     float64
	Timestamp int64 // unix ms
}

// Ring is a fixed-capacity rolling window of samples for one metric. It backs
// live metric display and short-horizon calculations; long-term storage goes
// through the chunk accumulator instead.
type Ring struct {
	mu        sync.Mutex
	clk       clock.Clock
	capacity  int
	windowSec int

	samples []Sample
	head    int
	size    int

	cached   aggregates
	cachedAt time.Time
	dirty    bool
}

type aggregates struct {
	avg, min, max float64
	count         int
}

func NewRing(capacity, windowSec int, clk clock.Clock) *Ring {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ring{
		clk:       clk,
		capacity:  capacity,
		windowSec: windowSec,
		samples:   make([]Sample, capacity),
		dirty:     true,
	}
}

// Add appends a sample, evicting the oldest when full, and invalidates the
// aggregate cache.
func (r *Ring) Add(value float64, timestampMs int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := (r.head + r.size) % r.capacity
	r.samples[idx] = Sample{Value: value, Timestamp: timestampMs}
	if r.size < r.capacity {
		r.size++
	} else {
		r.head = (r.head + 1) % r.capacity
	}
	r.dirty = true
}

func (r *Ring) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

func (r *Ring) Average() (float64, bool) {
	a := r.refresh()
	if a.count == 0 {
		return 0, false
	}
	return a.avg, true
}

func (r *Ring) Max() (float64, bool) {
	a := r.refresh()
	if a.count == 0 {
		return 0, false
	}
	return a.max, true
}

func (r *Ring) Min() (float64, bool) {
	a := r.refresh()
	if a.count == 0 {
		return 0, false
	}
	return a.min, true
}

// Latest returns the most recently added sample.
func (r *Ring) Latest() (Sample, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.size == 0 {
		return Sample{}, false
	}
	return r.samples[(r.head+r.size-1)%r.capacity], true
}

// Recent returns values whose timestamps fall within the trailing window,
// oldest first. Used for smoothing and short-horizon averages.
func (r *Ring) Recent(seconds int) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.clk.Now().UnixMilli() - int64(seconds)*1000
	out := make([]float64, 0, r.size)
	for i := 0; i < r.size; i++ {
		s := r.samples[(r.head+i)%r.capacity]
		if s.Timestamp >= cutoff {
			out = append(out, s.Value)
		}
	}
	return out
}

// Cleanup drops samples older than the configured window. Run periodically,
// independent of display refresh, to bound the time span held in memory.
func (r *Ring) Cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.clk.Now().UnixMilli() - int64(r.windowSec)*1000
	for r.size > 0 {
		oldest := r.samples[r.head]
		if oldest.Timestamp >= cutoff {
			break
		}
		r.head = (r.head + 1) % r.capacity
		r.size--
		r.dirty = true
	}
}

// refresh recomputes aggregates when the cache is stale or invalidated.
func (r *Ring) refresh() aggregates {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clk.Now()
	if !r.dirty && now.Sub(r.cachedAt) < cacheTTL {
		return r.cached
	}

	var a aggregates
	var sum float64
	for i := 0; i < r.size; i++ {
		v := r.samples[(r.head+i)%r.capacity].Value
		if a.count == 0 {
			a.min, a.max = v, v
		} else {
			if v < a.min {
				a.min = v
			}
			if v > a.max {
				a.max = v
			}
		}
		sum += v
		a.count++
	}
	if a.count > 0 {
		a.avg = sum / float64(a.count)
	}

	r.cached = a
	r.cachedAt = now
	r.dirty = false
	return a
}
