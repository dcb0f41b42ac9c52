package metrics

import "math"

const (
	secondsPerHour = 3600.0
	npWindow       = 30 // samples, ~30s at 1Hz
)

// NormalizedPower computes the 4th-power-weighted rolling average of a power
// stream. Streams shorter than the rolling window fall back to the simple
// average; an empty stream has no NP.
func NormalizedPower(power []float64) (float64, bool) {
	if len(power) == 0 {
		return 0, false
	}
	if len(power) < npWindow {
		return average(power), true
	}

	sum := 0.0
	for i := 0; i < npWindow; i++ {
		sum += power[i]
	}

	fourthTotal := 0.0
	count := 0
	for i := npWindow - 1; i < len(power); i++ {
		if i >= npWindow {
			sum += power[i] - power[i-npWindow]
		}
		rolling := sum / float64(npWindow)
		fourthTotal += math.Pow(rolling, 4)
		count++
	}
	return math.Pow(fourthTotal/float64(count), 0.25), true
}

// IntensityFactor is NP relative to FTP. No FTP, no IF.
func IntensityFactor(np, ftp float64) (float64, bool) {
	if ftp <= 0 || np <= 0 {
		return 0, false
	}
	return np / ftp, true
}

// TrainingStress is IF² x moving hours x 100. An hour at threshold scores 100.
func TrainingStress(intensityFactor, movingSeconds float64) (float64, bool) {
	if intensityFactor <= 0 || movingSeconds <= 0 {
		return 0, false
	}
	return intensityFactor * intensityFactor * (movingSeconds / secondsPerHour) * 100, true
}

// VariabilityIndex is NP over average power; 1.0 means perfectly steady.
func VariabilityIndex(np, avgPower float64) (float64, bool) {
	if avgPower <= 0 || np <= 0 {
		return 0, false
	}
	return np / avgPower, true
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func maxValue(values []float64) float64 {
	max := 0.0
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	return max
}
