// Package features derives the numeric feature vector used for classification.
package features

import (
	"BotSpectra/internal/model"
	"math"
	"strings"
)

// Thresholds for the suspicion heuristics.
const (
	HighPacketRate = 1000.0   // packets per second
	HighByteRate   = 100000.0 // bytes per second
	MinPacketSize  = 64
	MaxPacketSize  = 1400
)

// Normalization scales for the first four vector entries.
const (
	packetSizeScale = 1500.0
	bytesScale      = 10000.0
	packetsScale    = 100.0
)

// Pattern labels reported by SuspiciousPatterns.
const (
	PatternHighPacketRate = "High packet rate"
	PatternSmallPackets   = "Unusually small packets"
	PatternLargePackets   = "Unusually large packets"
	PatternHighBandwidth  = "High bandwidth usage"
	PatternTCPFlags       = "Suspicious TCP flags"
)

// Extract maps one record to its feature vector.
func Extract(r model.TrafficRecord) model.FeatureVector {
	var v model.FeatureVector
	v[model.FeaturePacketSize] = float64(r.PacketSize) / packetSizeScale
	v[model.FeatureDuration] = r.Duration
	v[model.FeatureBytes] = float64(r.Bytes) / bytesScale
	v[model.FeaturePackets] = float64(r.Packets) / packetsScale
	v[model.FeatureProtocol] = ProtocolIndicator(r.Protocol)
	v[model.FeaturePacketRate] = PacketRate(r)
	v[model.FeatureByteRate] = ByteRate(r)
	v[model.FeatureSuspicion] = SuspicionScore(r)
	return v
}

// ExtractAll maps every record to its feature vector, preserving order.
func ExtractAll(records []model.TrafficRecord) []model.FeatureVector {
	vectors := make([]model.FeatureVector, len(records))
	for i, r := range records {
		vectors[i] = Extract(r)
	}
	return vectors
}

// ProtocolIndicator encodes TCP as 1, UDP as 0.5 and anything else as 0.
func ProtocolIndicator(protocol string) float64 {
	switch protocol {
	case "TCP":
		return 1
	case "UDP":
		return 0.5
	default:
		return 0
	}
}

// PacketRate returns packets per second, or 0 when the duration is not positive.
func PacketRate(r model.TrafficRecord) float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.Packets) / r.Duration
}

// ByteRate returns bytes per second, or 0 when the duration is not positive.
func ByteRate(r model.TrafficRecord) float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.Bytes) / r.Duration
}

type check struct {
	hit    func(r model.TrafficRecord) bool
	weight float64
	labels func(r model.TrafficRecord) []string
}

// checks is shared by SuspicionScore and SuspiciousPatterns so the score and
// the labels always fire on the same conditions.
var checks = []check{
	{
		hit:    func(r model.TrafficRecord) bool { return PacketRate(r) > HighPacketRate },
		weight: 0.3,
		labels: func(model.TrafficRecord) []string { return []string{PatternHighPacketRate} },
	},
	{
		hit:    func(r model.TrafficRecord) bool { return r.PacketSize < MinPacketSize || r.PacketSize > MaxPacketSize },
		weight: 0.2,
		labels: func(r model.TrafficRecord) []string {
			if r.PacketSize < MinPacketSize {
				return []string{PatternSmallPackets}
			}
			return []string{PatternLargePackets}
		},
	},
	{
		hit:    func(r model.TrafficRecord) bool { return ByteRate(r) > HighByteRate },
		weight: 0.3,
		labels: func(model.TrafficRecord) []string { return []string{PatternHighBandwidth} },
	},
	{
		hit:    func(r model.TrafficRecord) bool { return strings.Contains(r.Flags, "SYN") && strings.Contains(r.Flags, "FIN") },
		weight: 0.2,
		labels: func(model.TrafficRecord) []string { return []string{PatternTCPFlags} },
	},
}

// SuspicionScore adds the weight of every triggered heuristic, capped at 1.
func SuspicionScore(r model.TrafficRecord) float64 {
	score := 0.0
	for _, c := range checks {
		if c.hit(r) {
			score += c.weight
		}
	}
	return math.Min(score, 1.0)
}

// SuspiciousPatterns lists the triggered heuristics as readable labels.
func SuspiciousPatterns(r model.TrafficRecord) []string {
	patterns := []string{}
	for _, c := range checks {
		if c.hit(r) {
			patterns = append(patterns, c.labels(r)...)
		}
	}
	return patterns
}
