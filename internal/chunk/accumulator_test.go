package chunk

import (
	"testing"

	"github.com/deancochran/gradientpeak-sub006/internal/sensor"
)

func addN(a *Accumulator, metric sensor.Metric, n int, startTs int64) {
	for i := 0; i < n; i++ {
		a.Add(sensor.Reading{Metric: metric, Value: float64(i), Timestamp: startTs + int64(i)*1000})
	}
}

func TestAccumulatorForceFlushAtCap(t *testing.T) {
	a := NewAccumulator("rec-1", 1000, 0)
	addN(a, sensor.MetricPower, 999, 0)
	if a.NeedsFlush() {
		t.Fatalf("flush forced below cap")
	}
	addN(a, sensor.MetricPower, 501, 999000)
	if !a.NeedsFlush() {
		t.Fatalf("expected forced flush at cap")
	}

	chunks := a.Flush(1500000)
	if len(chunks) != 1 {
		t.Fatalf("expected one chunk, got %d", len(chunks))
	}
	if chunks[0].SampleCount != 1500 {
		t.Fatalf("sample count must match buffered count at flush time, got %d", chunks[0].SampleCount)
	}
}

func TestAccumulatorChunkIndexPerCycle(t *testing.T) {
	a := NewAccumulator("rec-1", 1000, 0)
	a.Add(sensor.Reading{Metric: sensor.MetricPower, Value: 200, Timestamp: 1000})
	a.Add(sensor.Reading{Metric: sensor.MetricHeartRate, Value: 140, Timestamp: 1000})

	chunks := a.Flush(5000)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	// both metrics of one cycle share the index
	if chunks[0].ChunkIndex != 0 || chunks[1].ChunkIndex != 0 {
		t.Fatalf("first cycle must use index 0: %+v", chunks)
	}
	a.Commit(5000)

	a.Add(sensor.Reading{Metric: sensor.MetricPower, Value: 210, Timestamp: 6000})
	next := a.Flush(10000)
	if next[0].ChunkIndex != 1 {
		t.Fatalf("expected index 1 after commit, got %d", next[0].ChunkIndex)
	}
	if next[0].StartTime != 5000 {
		t.Fatalf("chunk window must start at previous flush end, got %d", next[0].StartTime)
	}
}

func TestAccumulatorEmptyFlush(t *testing.T) {
	a := NewAccumulator("rec-1", 1000, 0)
	if chunks := a.Flush(5000); chunks != nil {
		t.Fatalf("expected no chunks from empty flush")
	}
	if a.ChunkIndex() != 0 {
		t.Fatalf("index advanced without a commit")
	}
}

func TestAccumulatorRequeueRetainsData(t *testing.T) {
	a := NewAccumulator("rec-1", 1000, 0)
	addN(a, sensor.MetricPower, 10, 0)

	chunks := a.Flush(10000)
	// store failed: nothing committed, data comes back
	a.Requeue(chunks)

	if a.PendingCount(sensor.MetricPower) != 10 {
		t.Fatalf("requeue lost samples: %d", a.PendingCount(sensor.MetricPower))
	}
	if a.ChunkIndex() != 0 {
		t.Fatalf("index must not advance on failure")
	}

	retry := a.Flush(20000)
	if retry[0].SampleCount != 10 || retry[0].ChunkIndex != 0 {
		t.Fatalf("retry must reuse the uncommitted index: %+v", retry[0])
	}
}

func TestAccumulatorRequeueOrdersBeforeNewSamples(t *testing.T) {
	a := NewAccumulator("rec-1", 1000, 0)
	a.Add(sensor.Reading{Metric: sensor.MetricPower, Value: 1, Timestamp: 1000})
	chunks := a.Flush(2000)

	a.Add(sensor.Reading{Metric: sensor.MetricPower, Value: 2, Timestamp: 3000})
	a.Requeue(chunks)

	retry := a.Flush(4000)
	if retry[0].Values[0] != 1 || retry[0].Values[1] != 2 {
		t.Fatalf("requeued samples must precede new ones: %v", retry[0].Values)
	}
}

func TestAccumulatorDropOldestUnderSustainedFailure(t *testing.T) {
	cap := 100
	a := NewAccumulator("rec-1", cap, 0)

	// keep failing: repeatedly flush and requeue while new data arrives
	addN(a, sensor.MetricPower, cap*retainFactor, 0)
	chunks := a.Flush(1000000)
	addN(a, sensor.MetricPower, 50, 2000000)
	a.Requeue(chunks)

	limit := retainFactor * cap
	if got := a.PendingCount(sensor.MetricPower); got != limit {
		t.Fatalf("retention cap not enforced: %d > %d", got, limit)
	}
	if a.Dropped() != 50 {
		t.Fatalf("expected 50 dropped samples, got %d", a.Dropped())
	}
}

func TestCodecRoundTrip(t *testing.T) {
	values := []float64{0, 1.5, -3.25, 250.125, 1e-9}
	timestamps := []int64{0, 1000, 2000, 4000, 8000}

	gotV, err := DecodeFloats(EncodeFloats(values))
	if err != nil {
		t.Fatalf("decode floats: %v", err)
	}
	for i := range values {
		if gotV[i] != values[i] {
			t.Fatalf("value %d changed: %v != %v", i, gotV[i], values[i])
		}
	}

	gotT, err := DecodeTimes(EncodeTimes(timestamps))
	if err != nil {
		t.Fatalf("decode times: %v", err)
	}
	for i := range timestamps {
		if gotT[i] != timestamps[i] {
			t.Fatalf("timestamp %d changed", i)
		}
	}

	if _, err := DecodeFloats([]byte{1, 2, 3}); err == nil {
		t.Fatalf("expected error for misaligned blob")
	}
}
