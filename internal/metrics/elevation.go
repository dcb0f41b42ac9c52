package metrics

// Smoothing and noise parameters for barometer/GPS altitude streams.
const (
	elevationSmoothWindow   = 5   // samples
	elevationNoiseThreshold = 1.0 // meters; smaller deltas are jitter
)

// ElevationGain accumulates ascent and descent from an altitude stream. The
// stream is smoothed with a short moving average first, and only deltas over
// the noise threshold count, so GPS altitude jitter does not inflate totals.
func ElevationGain(altitude []float64) (gain, loss float64) {
	smoothed := smooth(altitude, elevationSmoothWindow)
	if len(smoothed) < 2 {
		return 0, 0
	}

	last := smoothed[0]
	for _, v := range smoothed[1:] {
		delta := v - last
		if delta >= elevationNoiseThreshold {
			gain += delta
			last = v
		} else if delta <= -elevationNoiseThreshold {
			loss += -delta
			last = v
		}
	}
	return gain, loss
}

// smooth applies a trailing moving average of up to window samples.
func smooth(values []float64, window int) []float64 {
	if len(values) == 0 || window <= 1 {
		return values
	}
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		n := window
		if i+1 < window {
			n = i + 1
		} else if i >= window {
			sum -= values[i-window]
		}
		out[i] = sum / float64(n)
	}
	return out
}
