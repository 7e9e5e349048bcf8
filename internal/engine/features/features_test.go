package features

import (
	"BotSpectra/internal/model"
	"math"
	"reflect"
	"testing"
)

func benignRecord() model.TrafficRecord {
	return model.TrafficRecord{
		Timestamp:     "2024-01-15T14:32:15Z",
		SourceIP:      "192.168.1.100",
		DestinationIP: "8.8.8.8",
		Protocol:      "TCP",
		PacketSize:    1200,
		Flags:         "ACK",
		Duration:      2.5,
		Bytes:         15000,
		Packets:       120,
	}
}

func floodRecord() model.TrafficRecord {
	return model.TrafficRecord{
		SourceIP:   "10.0.0.66",
		Protocol:   "TCP",
		PacketSize: 30,
		Flags:      "SYN,FIN",
		Duration:   1,
		Bytes:      200000,
		Packets:    2000,
	}
}

func TestExtract_BenignRow(t *testing.T) {
	v := Extract(benignRecord())

	want := model.FeatureVector{1200.0 / 1500, 2.5, 1.5, 1.2, 1, 48, 6000, 0}
	for i := range want {
		if math.Abs(v[i]-want[i]) > 1e-9 {
			t.Errorf("feature %d: expected %v, got %v", i, want[i], v[i])
		}
	}
}

func TestExtract_FloodRowScoreIsCapped(t *testing.T) {
	r := floodRecord()
	score := SuspicionScore(r)
	if math.Abs(score-1.0) > 1e-9 || score > 1.0 {
		t.Fatalf("Expected capped score of 1.0, got %v", score)
	}

	want := []string{PatternHighPacketRate, PatternSmallPackets, PatternHighBandwidth, PatternTCPFlags}
	if got := SuspiciousPatterns(r); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected patterns %v, got %v", want, got)
	}
}

func TestRates_ZeroDuration(t *testing.T) {
	for _, d := range []float64{0, -1} {
		r := floodRecord()
		r.Duration = d
		if PacketRate(r) != 0 || ByteRate(r) != 0 {
			t.Errorf("duration %v: expected zero rates, got %v and %v", d, PacketRate(r), ByteRate(r))
		}
		v := Extract(r)
		if v[model.FeaturePacketRate] != 0 || v[model.FeatureByteRate] != 0 {
			t.Errorf("duration %v: expected zero rate features", d)
		}
	}
}

func TestSuspicionScore_AlwaysInRange(t *testing.T) {
	// Walk every combination of the four triggering conditions.
	for mask := 0; mask < 16; mask++ {
		r := benignRecord()
		r.Duration = 1
		r.Packets = 10
		r.Bytes = 1000
		if mask&1 != 0 {
			r.Packets = 5000
		}
		if mask&2 != 0 {
			r.PacketSize = 1500
		}
		if mask&4 != 0 {
			r.Bytes = 500000
		}
		if mask&8 != 0 {
			r.Flags = "SYN|FIN|PSH"
		}

		score := SuspicionScore(r)
		if score < 0 || score > 1 {
			t.Errorf("mask %04b: score %v out of range", mask, score)
		}

		patterns := SuspiciousPatterns(r)
		bits := 0
		for m := mask; m != 0; m &= m - 1 {
			bits++
		}
		if len(patterns) != bits {
			t.Errorf("mask %04b: expected %d patterns, got %v", mask, bits, patterns)
		}
		if (score == 0) != (len(patterns) == 0) {
			t.Errorf("mask %04b: score %v disagrees with patterns %v", mask, score, patterns)
		}
	}
}

func TestSuspiciousPatterns_LargePacketsAndNeverNil(t *testing.T) {
	r := benignRecord()
	if got := SuspiciousPatterns(r); got == nil || len(got) != 0 {
		t.Errorf("Expected empty non-nil slice, got %#v", got)
	}
	r.PacketSize = 1401
	if got := SuspiciousPatterns(r); !reflect.DeepEqual(got, []string{PatternLargePackets}) {
		t.Errorf("Expected large packet label, got %v", got)
	}
}

func TestProtocolIndicator(t *testing.T) {
	cases := map[string]float64{"TCP": 1, "UDP": 0.5, "ICMP": 0, "tcp": 0, "": 0}
	for proto, want := range cases {
		if got := ProtocolIndicator(proto); got != want {
			t.Errorf("%q: expected %v, got %v", proto, want, got)
		}
	}
}
