// Package results turns classified records into display results.
package results

import (
	"BotSpectra/internal/engine/features"
	"BotSpectra/internal/model"
	"fmt"
	"strconv"
	"strings"
)

// ThreatLabels is indexed by class index.
var ThreatLabels = []string{
	"Clean Traffic",
	"DDoS Botnet",
	"Mirai Variant",
	"Bashlite Botnet",
	"Suspicious Traffic",
}

// UnknownThreat labels class indices outside ThreatLabels.
const UnknownThreat = "Unknown Threat"

// DeviceTypes is the pool device names are drawn from.
var DeviceTypes = []string{
	"Smart Camera",
	"IoT Sensor",
	"Smart Thermostat",
	"Security Camera",
	"Smart Light Hub",
	"Router",
	"Smart TV",
}

// Confidence is drawn from [MinConfidence, MinConfidence+ConfidenceSpan).
const (
	MinConfidence     = 70
	ConfidenceSpan    = 30
	BlockedConfidence = 85
)

// Assemble pairs every record with its class index.
func Assemble(records []model.TrafficRecord, classes []int, rnd model.Random) ([]model.ClassificationResult, error) {
	if len(records) != len(classes) {
		return nil, fmt.Errorf("got %d class indices for %d records", len(classes), len(records))
	}

	out := make([]model.ClassificationResult, len(records))
	for i, r := range records {
		class := classes[i]
		confidence := MinConfidence + rnd.IntN(ConfidenceSpan)
		out[i] = model.ClassificationResult{
			ID:         fmt.Sprintf("detection-%d", i+1),
			Device:     DeviceName(r.SourceIP),
			Threat:     ThreatLabel(class),
			Confidence: confidence,
			Status:     StatusFor(class, confidence),
			Timestamp:  r.Timestamp,
			Features: model.ResultFeatures{
				PacketRate:           features.PacketRate(r),
				ByteRate:             features.ByteRate(r),
				ProtocolDistribution: map[string]int{r.Protocol: 1},
				SuspiciousPatterns:   features.SuspiciousPatterns(r),
			},
		}
	}
	return out, nil
}

// ThreatLabel names a class index.
func ThreatLabel(class int) string {
	if class < 0 || class >= len(ThreatLabels) {
		return UnknownThreat
	}
	return ThreatLabels[class]
}

// StatusFor derives the status of a result from its class and confidence.
func StatusFor(class, confidence int) model.Status {
	if class <= 0 {
		return model.StatusSafe
	}
	if confidence > BlockedConfidence {
		return model.StatusBlocked
	}
	return model.StatusMonitoring
}

// DeviceName derives a stable device label from an IP address. The octets
// are summed and the sum selects both the device type and its number. Parts
// that are not unsigned 32-bit numbers count as zero.
func DeviceName(ip string) string {
	var sum uint64
	for _, part := range strings.Split(ip, ".") {
		if n, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32); err == nil {
			sum += n
		}
	}
	return fmt.Sprintf("%s #%d", DeviceTypes[sum%uint64(len(DeviceTypes))], sum%99+1)
}
