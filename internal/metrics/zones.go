package metrics

// ZoneTime is time spent in one intensity zone.
type ZoneTime struct {
	Zone       string  `json:"zone"`
	MinPct     float64 `json:"min_pct"`
	MaxPct     float64 `json:"max_pct"`
	Seconds    float64 `json:"seconds"`
	Percentage float64 `json:"percentage"`
}

type zoneBoundary struct {
	name string
	min  float64 // % of threshold, inclusive
	max  float64 // exclusive
}

// Coggan power zones as % of FTP and the common 5-zone HR model as % of LTHR.
var (
	powerZones = []zoneBoundary{
		{"Z1 Active Recovery", 0, 55},
		{"Z2 Endurance", 55, 76},
		{"Z3 Tempo", 76, 91},
		{"Z4 Threshold", 91, 106},
		{"Z5 VO2max", 106, 121},
		{"Z6 Anaerobic", 121, 151},
		{"Z7 Neuromuscular", 151, 10000},
	}
	hrZones = []zoneBoundary{
		{"Z1 Recovery", 0, 81},
		{"Z2 Aerobic", 81, 90},
		{"Z3 Tempo", 90, 94},
		{"Z4 Threshold", 94, 100},
		{"Z5 VO2max", 100, 10000},
	}
)

// TimeInPowerZones buckets a power stream into FTP-relative zones. Each
// sample contributes the gap to the next sample's timestamp; the last sample
// contributes one second. The zone times sum to the stream's covered duration.
func TimeInPowerZones(values []float64, timestamps []int64, ftp float64) []ZoneTime {
	if ftp <= 0 {
		return nil
	}
	return timeInZones(values, timestamps, ftp, powerZones)
}

// TimeInHRZones buckets a heart-rate stream into LTHR-relative zones.
func TimeInHRZones(values []float64, timestamps []int64, thresholdHR float64) []ZoneTime {
	if thresholdHR <= 0 {
		return nil
	}
	return timeInZones(values, timestamps, thresholdHR, hrZones)
}

func timeInZones(values []float64, timestamps []int64, threshold float64, zones []zoneBoundary) []ZoneTime {
	if len(values) == 0 || len(values) != len(timestamps) {
		return nil
	}

	seconds := make([]float64, len(zones))
	total := 0.0
	for i, v := range values {
		var dt float64
		if i+1 < len(timestamps) {
			dt = float64(timestamps[i+1]-timestamps[i]) / 1000.0
			if dt < 0 {
				dt = 0
			}
		} else {
			dt = 1
		}
		pct := v / threshold * 100
		for zi, z := range zones {
			if pct >= z.min && pct < z.max {
				seconds[zi] += dt
				total += dt
				break
			}
		}
	}
	if total == 0 {
		return nil
	}

	out := make([]ZoneTime, 0, len(zones))
	for i, z := range zones {
		out = append(out, ZoneTime{
			Zone:       z.name,
			MinPct:     z.min,
			MaxPct:     z.max,
			Seconds:    seconds[i],
			Percentage: seconds[i] / total * 100,
		})
	}
	return out
}
