package metrics

import (
	"time"

	"github.com/deancochran/gradientpeak-sub006/internal/profile"
)

// Streams carries the accumulated per-metric samples a finalized recording is
// summarized from.
type Streams struct {
	Power         []float64
	PowerTimes    []int64
	HeartRate     []float64
	HeartTimes    []int64
	Altitude      []float64
	Speed         []float64
	DistanceM     float64
	MovingSeconds float64
}

// Summary is the finalized artifact of a recording. Pointer fields are nil
// when the inputs to derive them (FTP, LTHR, weight, DOB) were unavailable.
type Summary struct {
	MovingSeconds   float64    `json:"moving_seconds"`
	DistanceM       float64    `json:"distance_m"`
	AvgPower        *float64   `json:"avg_power_watts,omitempty"`
	MaxPower        *float64   `json:"max_power_watts,omitempty"`
	NormalizedPower *float64   `json:"normalized_power_watts,omitempty"`
	IntensityFactor *float64   `json:"intensity_factor,omitempty"`
	TrainingStress  *float64   `json:"training_stress_score,omitempty"`
	Variability     *float64   `json:"variability_index,omitempty"`
	AvgHeartRate    *float64   `json:"avg_heart_rate_bpm,omitempty"`
	MaxHeartRate    *float64   `json:"max_heart_rate_bpm,omitempty"`
	ElevationGainM  float64    `json:"elevation_gain_m"`
	ElevationLossM  float64    `json:"elevation_loss_m"`
	Calories        float64    `json:"calories"`
	PowerZones      []ZoneTime `json:"power_zones,omitempty"`
	HRZones         []ZoneTime `json:"hr_zones,omitempty"`
}

// Summarize derives every metric the available streams and profile allow.
// Missing profile fields degrade their metric to absent, never to an error.
func Summarize(s Streams, p profile.Profile, now time.Time) Summary {
	out := Summary{
		MovingSeconds: s.MovingSeconds,
		DistanceM:     s.DistanceM,
	}

	var avgPower, avgHR float64
	if len(s.Power) > 0 {
		avgPower = average(s.Power)
		maxP := maxValue(s.Power)
		out.AvgPower = &avgPower
		out.MaxPower = &maxP

		if np, ok := NormalizedPower(s.Power); ok {
			out.NormalizedPower = &np
			if vi, ok := VariabilityIndex(np, avgPower); ok {
				out.Variability = &vi
			}
			if p.FTPWatts != nil {
				if intensity, ok := IntensityFactor(np, *p.FTPWatts); ok {
					out.IntensityFactor = &intensity
					if tss, ok := TrainingStress(intensity, s.MovingSeconds); ok {
						out.TrainingStress = &tss
					}
				}
				out.PowerZones = TimeInPowerZones(s.Power, s.PowerTimes, *p.FTPWatts)
			}
		}
	}

	if len(s.HeartRate) > 0 {
		avgHR = average(s.HeartRate)
		maxHR := maxValue(s.HeartRate)
		out.AvgHeartRate = &avgHR
		out.MaxHeartRate = &maxHR
		if p.ThresholdHR != nil {
			out.HRZones = TimeInHRZones(s.HeartRate, s.HeartTimes, *p.ThresholdHR)
		}
	}

	out.ElevationGainM, out.ElevationLossM = ElevationGain(s.Altitude)

	var weight, age float64
	if p.WeightKg != nil {
		weight = *p.WeightKg
	}
	if p.DOB != nil {
		age = now.Sub(*p.DOB).Hours() / 24 / 365.25
	}
	out.Calories = Calories(avgPower, avgHR, weight, age, s.MovingSeconds)

	return out
}
