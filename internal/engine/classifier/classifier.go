// Package classifier provides the placeholder traffic classifier. It stands
// in for a trained model behind the model.Classifier interface and makes
// its decisions with simple rules and injected randomness.
package classifier

import (
	"BotSpectra/internal/config"
	"BotSpectra/internal/engine/features"
	"BotSpectra/internal/model"
	"context"
	"fmt"
	"log"
	"time"
)

// Decision thresholds applied to a feature vector. Rates are normalized
// against the suspicion heuristics before comparison.
const (
	SuspicionThreshold  = 0.7
	PacketRateThreshold = 0.8
	ByteRateThreshold   = 0.9
)

// ThreatClasses is the number of threat classes the rule stub can emit.
const ThreatClasses = 3

// RuleClassifier implements model.Classifier with a rule and a dice roll.
type RuleClassifier struct {
	model     string
	batchSize int
	latency   time.Duration
	rnd       model.Random
}

// New creates a RuleClassifier from its configuration.
func New(cfg config.ClassifierConfig, rnd model.Random) (*RuleClassifier, error) {
	latency, err := config.ParseDuration(cfg.Latency)
	if err != nil {
		return nil, fmt.Errorf("invalid classifier latency: %w", err)
	}
	if rnd == nil {
		return nil, fmt.Errorf("classifier requires a random source")
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = config.DefaultBatchSize
	}
	name := cfg.Model
	if name == "" {
		name = config.DefaultModel
	}
	return &RuleClassifier{model: name, batchSize: batchSize, latency: latency, rnd: rnd}, nil
}

// Name returns the configured model label.
func (c *RuleClassifier) Name() string {
	return c.model
}

// Predict returns one class index per vector. Work is done in batches and
// the context is checked between batches and during the simulated latency.
func (c *RuleClassifier) Predict(ctx context.Context, vectors []model.FeatureVector) ([]int, error) {
	if c.latency > 0 {
		timer := time.NewTimer(c.latency)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}

	classes := make([]int, len(vectors))
	for start := 0; start < len(vectors); start += c.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+c.batchSize, len(vectors))
		for i := start; i < end; i++ {
			classes[i] = c.classify(vectors[i])
		}
	}
	log.Printf("Classifier '%s' labeled %d vectors in batches of %d", c.model, len(vectors), c.batchSize)
	return classes, nil
}

func (c *RuleClassifier) classify(v model.FeatureVector) int {
	if IsSuspicious(v) {
		return 1 + c.rnd.IntN(ThreatClasses)
	}
	return 0
}

// IsSuspicious reports whether a vector takes the threat branch of the rule.
func IsSuspicious(v model.FeatureVector) bool {
	packetRate := v[model.FeaturePacketRate] / features.HighPacketRate
	byteRate := v[model.FeatureByteRate] / features.HighByteRate
	return v[model.FeatureSuspicion] > SuspicionThreshold ||
		packetRate > PacketRateThreshold ||
		byteRate > ByteRateThreshold
}
