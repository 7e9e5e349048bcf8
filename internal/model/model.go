package model

import "time"

// TrafficRecord holds one summarized row of network traffic as read from an
// uploaded file. Timestamps are kept verbatim as supplied by the source.
type TrafficRecord struct {
	Timestamp     string  `json:"timestamp"`
	SourceIP      string  `json:"sourceIP"`
	DestinationIP string  `json:"destinationIP"`
	Protocol      string  `json:"protocol"`
	PacketSize    int     `json:"packetSize"`
	Flags         string  `json:"flags"`
	Duration      float64 `json:"duration"`
	Bytes         int     `json:"bytes"`
	Packets       int     `json:"packets"`
}

// Positions inside a FeatureVector.
const (
	FeaturePacketSize = iota
	FeatureDuration
	FeatureBytes
	FeaturePackets
	FeatureProtocol
	FeaturePacketRate
	FeatureByteRate
	FeatureSuspicion

	FeatureCount
)

// FeatureVector is the fixed-width numeric input handed to a Classifier.
type FeatureVector [FeatureCount]float64

// Status is the disposition assigned to a classified record.
type Status string

const (
	StatusSafe       Status = "safe"
	StatusMonitoring Status = "monitoring"
	StatusBlocked    Status = "blocked"
)

// ResultFeatures is the per-record feature summary shown next to a result.
type ResultFeatures struct {
	PacketRate           float64        `json:"packetRate"`
	ByteRate             float64        `json:"byteRate"`
	ProtocolDistribution map[string]int `json:"protocolDistribution"`
	SuspiciousPatterns   []string       `json:"suspiciousPatterns"`
}

// ClassificationResult is the display form of one classified record.
type ClassificationResult struct {
	ID         string         `json:"id"`
	Device     string         `json:"device"`
	Threat     string         `json:"threat"`
	Confidence int            `json:"confidence"`
	Status     Status         `json:"status"`
	Timestamp  string         `json:"timestamp"`
	Features   ResultFeatures `json:"features"`
}

// AnalysisStats summarizes a result set. Accuracy is synthetic.
type AnalysisStats struct {
	TotalDevices    int     `json:"totalDevices"`
	ThreatsBlocked  int     `json:"threatsBlocked"`
	UnderMonitoring int     `json:"underMonitoring"`
	CleanDevices    int     `json:"cleanDevices"`
	ProcessingTime  int64   `json:"processingTime"` // milliseconds
	Accuracy        float64 `json:"accuracy"`
}

// Threats returns the number of results that are not safe.
func (s AnalysisStats) Threats() int {
	return s.ThreatsBlocked + s.UnderMonitoring
}

// Analysis is the envelope written by the JSON exporter.
type Analysis struct {
	Timestamp time.Time              `json:"timestamp"`
	Stats     *AnalysisStats         `json:"stats"`
	Results   []ClassificationResult `json:"results"`
}
