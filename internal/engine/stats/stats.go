// Package stats aggregates classification results into summary figures.
package stats

import (
	"BotSpectra/internal/model"
	"math"
	"time"
)

// Compute summarizes results. elapsed is the caller-measured processing
// time. Accuracy is a synthetic figure in [95, 99.9); nothing is measured.
func Compute(results []model.ClassificationResult, elapsed time.Duration, rnd model.Random) model.AnalysisStats {
	devices := make(map[string]struct{}, len(results))
	var s model.AnalysisStats
	for _, r := range results {
		devices[r.Device] = struct{}{}
		switch r.Status {
		case model.StatusBlocked:
			s.ThreatsBlocked++
		case model.StatusMonitoring:
			s.UnderMonitoring++
		default:
			s.CleanDevices++
		}
	}
	s.TotalDevices = len(devices)
	s.ProcessingTime = elapsed.Milliseconds()
	s.Accuracy = math.Min(95+rnd.Float64()*4, 99.9)
	return s
}

// FilterByConfidence keeps the results whose confidence reaches threshold.
func FilterByConfidence(results []model.ClassificationResult, threshold int) []model.ClassificationResult {
	kept := make([]model.ClassificationResult, 0, len(results))
	for _, r := range results {
		if r.Confidence >= threshold {
			kept = append(kept, r)
		}
	}
	return kept
}
