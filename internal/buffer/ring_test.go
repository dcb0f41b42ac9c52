package buffer

import (
	"testing"
	"time"

	"github.com/deancochran/gradientpeak-sub006/internal/shared/clock"
)

func TestRingNeverExceedsCapacity(t *testing.T) {
	clk := clock.NewFake(time.Unix(1000, 0))
	r := NewRing(5, 60, clk)

	for i := 0; i < 20; i++ {
		r.Add(float64(i), clk.Now().UnixMilli())
	}
	if r.Size() != 5 {
		t.Fatalf("expected size 5, got %d", r.Size())
	}

	// holds the newest 5 values
	min, _ := r.Min()
	if min != 15 {
		t.Fatalf("expected oldest retained value 15, got %v", min)
	}
}

func TestRingAggregates(t *testing.T) {
	clk := clock.NewFake(time.Unix(1000, 0))
	r := NewRing(10, 60, clk)

	if _, ok := r.Average(); ok {
		t.Fatalf("empty ring reported an average")
	}

	for _, v := range []float64{100, 200, 300} {
		r.Add(v, clk.Now().UnixMilli())
	}
	if avg, _ := r.Average(); avg != 200 {
		t.Fatalf("expected avg 200, got %v", avg)
	}
	if max, _ := r.Max(); max != 300 {
		t.Fatalf("expected max 300, got %v", max)
	}
	if min, _ := r.Min(); min != 100 {
		t.Fatalf("expected min 100, got %v", min)
	}
}

func TestRingCacheInvalidatedOnAdd(t *testing.T) {
	clk := clock.NewFake(time.Unix(1000, 0))
	r := NewRing(10, 60, clk)

	r.Add(100, clk.Now().UnixMilli())
	if avg, _ := r.Average(); avg != 100 {
		t.Fatalf("expected avg 100, got %v", avg)
	}

	// within the cache TTL, but Add must invalidate
	r.Add(300, clk.Now().UnixMilli())
	if avg, _ := r.Average(); avg != 200 {
		t.Fatalf("expected avg 200 after add, got %v", avg)
	}
}

func TestRingRecentWindow(t *testing.T) {
	clk := clock.NewFake(time.Unix(1000, 0))
	r := NewRing(100, 120, clk)

	r.Add(1, clk.Now().UnixMilli())
	clk.Advance(40 * time.Second)
	r.Add(2, clk.Now().UnixMilli())
	clk.Advance(20 * time.Second)
	r.Add(3, clk.Now().UnixMilli())

	recent := r.Recent(30)
	if len(recent) != 2 || recent[0] != 2 || recent[1] != 3 {
		t.Fatalf("unexpected recent window: %v", recent)
	}
}

func TestRingCleanupDropsOldSamples(t *testing.T) {
	clk := clock.NewFake(time.Unix(1000, 0))
	r := NewRing(100, 60, clk)

	r.Add(1, clk.Now().UnixMilli())
	clk.Advance(90 * time.Second)
	r.Add(2, clk.Now().UnixMilli())

	r.Cleanup()
	if r.Size() != 1 {
		t.Fatalf("expected 1 sample after cleanup, got %d", r.Size())
	}
	latest, _ := r.Latest()
	if latest.Value != 2 {
		t.Fatalf("wrong sample survived cleanup: %+v", latest)
	}
}
