package sensor

import "testing"

func TestDecodeHeartRate8And16Bit(t *testing.T) {
	d := NewDecoder()

	r8 := d.Decode(CharHeartRateMeasurement, []byte{0x00, 150}, "hrm-1", 1000)
	if len(r8) != 1 || r8[0].Metric != MetricHeartRate || r8[0].Value != 150 {
		t.Fatalf("unexpected 8-bit decode: %+v", r8)
	}

	r16 := d.Decode("2a37", []byte{0x01, 150, 0x00}, "hrm-1", 2000)
	if len(r16) != 1 || r16[0].Value != 150 {
		t.Fatalf("unexpected 16-bit decode: %+v", r16)
	}

	// same logical value must decode identically in both formats
	if r8[0].Value != r16[0].Value {
		t.Fatalf("format mismatch: %v vs %v", r8[0].Value, r16[0].Value)
	}
}

func TestDecodeHeartRateShortPayload(t *testing.T) {
	d := NewDecoder()
	if got := d.Decode("2a37", []byte{0x01, 150}, "hrm-1", 0); got != nil {
		t.Fatalf("expected no reading for truncated 16-bit payload, got %+v", got)
	}
	if got := d.Decode("2a37", []byte{}, "hrm-1", 0); got != nil {
		t.Fatalf("expected no reading for empty payload")
	}
}

func TestDecodeCyclingPower(t *testing.T) {
	d := NewDecoder()
	// flags 0x0000, power 250W LE
	got := d.Decode(CharCyclingPower, []byte{0x00, 0x00, 0xFA, 0x00}, "pm-1", 0)
	if len(got) != 1 || got[0].Metric != MetricPower || got[0].Value != 250 {
		t.Fatalf("unexpected power decode: %+v", got)
	}
	if d.Decode("2a63", []byte{0x00, 0x00, 0xFA}, "pm-1", 0) != nil {
		t.Fatalf("expected no reading for short power payload")
	}
}

func TestDecodeRSC(t *testing.T) {
	d := NewDecoder()
	// speed 3.0 m/s = 768/256, cadence 180 spm
	got := d.Decode("2a53", []byte{0x00, 0x00, 0x03, 180}, "pod-1", 0)
	if len(got) != 2 {
		t.Fatalf("expected speed+cadence, got %+v", got)
	}
	if got[0].Metric != MetricSpeed || got[0].Value != 3.0 {
		t.Fatalf("unexpected speed: %+v", got[0])
	}
	if got[1].Metric != MetricCadence || got[1].Value != 180 {
		t.Fatalf("unexpected cadence: %+v", got[1])
	}
}

func TestDecodeCSCCadenceRate(t *testing.T) {
	d := NewDecoder()

	// crank-only payload: flags 0x02, revs, event time (1/1024 s)
	first := d.Decode("2a5b", cscCrankPayload(100, 0), "csc-1", 0)
	if first != nil {
		t.Fatalf("first cumulative reading must not produce cadence, got %+v", first)
	}

	// +90 revs over 60 s (61440/1024) => 90 rpm
	got := d.Decode("2a5b", cscCrankPayload(190, 61440), "csc-1", 60000)
	if len(got) != 1 || got[0].Metric != MetricCadence {
		t.Fatalf("expected cadence reading, got %+v", got)
	}
	if got[0].Value < 89.9 || got[0].Value > 90.1 {
		t.Fatalf("expected ~90 rpm, got %v", got[0].Value)
	}
}

func TestDecodeCSCCounterWraparound(t *testing.T) {
	d := NewDecoder()
	d.Decode("2a5b", cscCrankPayload(65530, 65000), "csc-2", 0)

	// revs wrap 65530 -> 4 (delta 10), event time wraps too (delta 6144 = 6 s) => 100 rpm
	got := d.Decode("2a5b", cscCrankPayload(4, 5608), "csc-2", 6000)
	if len(got) != 1 {
		t.Fatalf("expected cadence after wraparound, got %+v", got)
	}
	if got[0].Value < 99 || got[0].Value > 101 {
		t.Fatalf("expected ~100 rpm across wraparound, got %v", got[0].Value)
	}
}

func TestDecodeCSCSkipsWheelData(t *testing.T) {
	d := NewDecoder()
	// wheel (6 bytes) + crank data present
	payload := []byte{0x03, 1, 0, 0, 0, 0, 0, 100, 0, 0, 0}
	d.Decode("2a5b", payload, "csc-3", 0)
	got := d.Decode("2a5b", []byte{0x03, 2, 0, 0, 0, 0, 0, 160, 0, 0, 0xF0}, "csc-3", 60000)
	if len(got) != 1 || got[0].Metric != MetricCadence {
		t.Fatalf("expected cadence with wheel data present, got %+v", got)
	}
}

func TestDecodeUnknownCharacteristic(t *testing.T) {
	d := NewDecoder()
	if got := d.Decode("2abc", []byte{1, 2, 3}, "x", 0); got != nil {
		t.Fatalf("expected nil for unknown characteristic")
	}
}

func TestValidateBounds(t *testing.T) {
	if err := Validate(Reading{Metric: MetricHeartRate, Value: 150}); err != nil {
		t.Fatalf("valid hr rejected: %v", err)
	}
	if err := Validate(Reading{Metric: MetricHeartRate, Value: 0}); err == nil {
		t.Fatalf("zero hr accepted")
	}
	if err := Validate(Reading{Metric: MetricHeartRate, Value: 221}); err == nil {
		t.Fatalf("hr over 220 accepted")
	}
	if err := Validate(Reading{Metric: MetricPower, Value: 2001}); err == nil {
		t.Fatalf("power over 2000 accepted")
	}
	if err := Validate(Reading{Metric: MetricAltitude, Value: -50}); err != nil {
		t.Fatalf("unbounded metric rejected: %v", err)
	}
}

func TestLocationAccuracyGate(t *testing.T) {
	acc := 80.0
	loc := Location{Lat: 1, Lng: 1, Accuracy: &acc}
	if loc.AccurateEnough(50) {
		t.Fatalf("inaccurate fix accepted")
	}
	acc = 10
	if !loc.AccurateEnough(50) {
		t.Fatalf("accurate fix rejected")
	}
	if !(Location{Lat: 1, Lng: 1}).AccurateEnough(50) {
		t.Fatalf("fix without accuracy rejected")
	}
}

func cscCrankPayload(revs, eventTime uint16) []byte {
	return []byte{0x02, byte(revs), byte(revs >> 8), byte(eventTime), byte(eventTime >> 8)}
}
