package sensor

// Metric identifies a recorded data stream.
type Metric string

const (
	MetricHeartRate Metric = "heart_rate"
	MetricPower     Metric = "power"
	MetricCadence   Metric = "cadence"
	MetricSpeed     Metric = "speed"
	MetricDistance  Metric = "distance"
	MetricAltitude  Metric = "altitude"
)

// Reading is a single decoded sensor sample. Readings are never persisted
// individually, only batched into chunks.
type Reading struct {
	Metric    Metric   `json:"metric"`
	Value     float64  `json:"value"`
	Timestamp int64    `json:"timestamp_ms"`
	DeviceID  string   `json:"device_id"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
}

// Location is a raw GPS fix as delivered by the platform location provider.
type Location struct {
	Lat       float64  `json:"lat"`
	Lng       float64  `json:"lng"`
	Altitude  *float64 `json:"altitude,omitempty"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
	Speed     *float64 `json:"speed,omitempty"`
	Timestamp int64    `json:"timestamp_ms"`
}

// AccurateEnough reports whether the fix passes the accuracy ceiling.
// Fixes without an accuracy estimate are accepted.
func (l Location) AccurateEnough(ceilingMeters float64) bool {
	if l.Accuracy == nil {
		return true
	}
	return *l.Accuracy <= ceilingMeters
}
