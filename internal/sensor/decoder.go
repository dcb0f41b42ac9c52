package sensor

import (
	"encoding/binary"
	"strings"
	"sync"
)

// Bluetooth GATT characteristic UUIDs for the supported fitness profiles.
const (
	CharHeartRateMeasurement = "00002a37-0000-1000-8000-00805f9b34fb"
	CharCyclingPower         = "00002a63-0000-1000-8000-00805f9b34fb"
	CharRSCMeasurement       = "00002a53-0000-1000-8000-00805f9b34fb"
	CharCSCMeasurement       = "00002a5b-0000-1000-8000-00805f9b34fb"
)

const (
	hrFlagFormat16   = 0x01
	cscFlagWheelRevs = 0x01
	cscFlagCrankRevs = 0x02
)

// Decoder turns raw characteristic payloads into typed readings. Decoding is
// stateless except for CSC cadence, which needs the previous cumulative crank
// counter per device to derive a rate.
type Decoder struct {
	mu    sync.Mutex
	crank map[string]crankState
}

type crankState struct {
	revs      uint16
	eventTime uint16
	valid     bool
}

func NewDecoder() *Decoder {
	return &Decoder{crank: map[string]crankState{}}
}

// Decode dispatches on characteristic UUID. Malformed or short payloads yield
// no readings rather than an error; ingestion must never fail on a bad packet.
func (d *Decoder) Decode(characteristic string, payload []byte, deviceID string, timestampMs int64) []Reading {
	switch normalizeUUID(characteristic) {
	case "2a37":
		return decodeHeartRate(payload, deviceID, timestampMs)
	case "2a63":
		return decodeCyclingPower(payload, deviceID, timestampMs)
	case "2a53":
		return decodeRSC(payload, deviceID, timestampMs)
	case "2a5b":
		return d.decodeCSC(payload, deviceID, timestampMs)
	default:
		return nil
	}
}

// normalizeUUID reduces both 16-bit and full 128-bit UUID forms to the short
// hex assigned number ("2a37").
func normalizeUUID(u string) string {
	u = strings.ToLower(strings.TrimSpace(u))
	if len(u) == 36 {
		u = u[:8]
	}
	u = strings.TrimPrefix(u, "0000")
	return u
}

// decodeHeartRate reads the Heart Rate Measurement characteristic: flags byte,
// then an 8-bit value, or a 16-bit little-endian value when flag bit 0 is set.
func decodeHeartRate(payload []byte, deviceID string, ts int64) []Reading {
	if len(payload) < 2 {
		return nil
	}
	var bpm float64
	if payload[0]&hrFlagFormat16 != 0 {
		if len(payload) < 3 {
			return nil
		}
		bpm = float64(binary.LittleEndian.Uint16(payload[1:3]))
	} else {
		bpm = float64(payload[1])
	}
	return []Reading{{Metric: MetricHeartRate, Value: bpm, Timestamp: ts, DeviceID: deviceID}}
}

// decodeCyclingPower reads instantaneous power: 2 flag bytes, then sint16 LE watts.
func decodeCyclingPower(payload []byte, deviceID string, ts int64) []Reading {
	if len(payload) < 4 {
		return nil
	}
	watts := int16(binary.LittleEndian.Uint16(payload[2:4]))
	return []Reading{{Metric: MetricPower, Value: float64(watts), Timestamp: ts, DeviceID: deviceID}}
}

// decodeRSC reads Running Speed and Cadence: flags byte, uint16 LE speed in
// 1/256 m/s, uint8 cadence in steps/min.
func decodeRSC(payload []byte, deviceID string, ts int64) []Reading {
	if len(payload) < 4 {
		return nil
	}
	speed := float64(binary.LittleEndian.Uint16(payload[1:3])) / 256.0
	cadence := float64(payload[3])
	return []Reading{
		{Metric: MetricSpeed, Value: speed, Timestamp: ts, DeviceID: deviceID},
		{Metric: MetricCadence, Value: cadence, Timestamp: ts, DeviceID: deviceID},
	}
}

// decodeCSC reads Cycling Speed and Cadence. The characteristic carries
// cumulative counters, not rates: crank RPM is derived from the delta of two
// consecutive readings against the 1/1024 s event time, so the first reading
// from a device produces nothing.
func (d *Decoder) decodeCSC(payload []byte, deviceID string, ts int64) []Reading {
	if len(payload) < 1 {
		return nil
	}
	flags := payload[0]
	offset := 1
	if flags&cscFlagWheelRevs != 0 {
		// uint32 cumulative wheel revs + uint16 event time
		offset += 6
	}
	if flags&cscFlagCrankRevs == 0 {
		return nil
	}
	if len(payload) < offset+4 {
		return nil
	}
	revs := binary.LittleEndian.Uint16(payload[offset : offset+2])
	eventTime := binary.LittleEndian.Uint16(payload[offset+2 : offset+4])

	d.mu.Lock()
	prev, ok := d.crank[deviceID]
	d.crank[deviceID] = crankState{revs: revs, eventTime: eventTime, valid: true}
	d.mu.Unlock()

	if !ok || !prev.valid {
		return nil
	}

	// Both counters wrap at 16 bits; unsigned subtraction handles rollover.
	deltaRevs := revs - prev.revs
	deltaTime := eventTime - prev.eventTime
	if deltaTime == 0 || deltaRevs == 0 {
		return nil
	}
	seconds := float64(deltaTime) / 1024.0
	rpm := float64(deltaRevs) / seconds * 60.0
	return []Reading{{Metric: MetricCadence, Value: rpm, Timestamp: ts, DeviceID: deviceID}}
}
