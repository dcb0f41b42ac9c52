package sensor

import "fmt"

// Physiological / hardware plausibility bounds. Readings outside these are
// discarded at the ingestion boundary and never reach a buffer.
var bounds = map[Metric]struct{ min, max float64 }{
	MetricHeartRate: {0, 220},
	MetricPower:     {0, 2000},
	MetricCadence:   {0, 300},
	MetricSpeed:     {0, 30},
}

// Validate reports why a reading is implausible, or nil if it should be accepted.
// Metrics without a configured bound (distance, altitude) are always accepted.
func Validate(r Reading) error {
	b, ok := bounds[r.Metric]
	if !ok {
		return nil
	}
	switch r.Metric {
	case MetricHeartRate, MetricPower:
		// strictly positive: a zero is a dropout, not a measurement
		if r.Value <= b.min || r.Value > b.max {
			return fmt.Errorf("%s %.1f outside (%.0f, %.0f]", r.Metric, r.Value, b.min, b.max)
		}
	default:
		if r.Value < b.min || r.Value >= b.max {
			return fmt.Errorf("%s %.1f outside [%.0f, %.0f)", r.Metric, r.Value, b.min, b.max)
		}
	}
	return nil
}
