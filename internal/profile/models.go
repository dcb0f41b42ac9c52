package profile

import "time"

// Profile holds the athlete thresholds the metrics engine reads. Every field
// except the id is optional; a missing field degrades the metrics that need
// it rather than failing the computation.
type Profile struct {
	UserID      string     `json:"user_id"`
	FTPWatts    *float64   `json:"ftp_watts,omitempty"`
	ThresholdHR *float64   `json:"threshold_hr_bpm,omitempty"`
	WeightKg    *float64   `json:"weight_kg,omitempty"`
	DOB         *time.Time `json:"dob,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
