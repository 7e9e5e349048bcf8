// Package processor chains the parser, feature extractor, classifier,
// result assembler and aggregator into one analysis pass.
package processor

import (
	"BotSpectra/internal/engine/features"
	"BotSpectra/internal/engine/parser"
	"BotSpectra/internal/engine/results"
	"BotSpectra/internal/engine/stats"
	"BotSpectra/internal/model"
	"context"
	"errors"
	"fmt"
	"time"
)

// Processor runs the analysis stages. It is not safe for concurrent use
// because the random source is shared between stages.
type Processor struct {
	classifier model.Classifier
	rnd        model.Random
	now        func() time.Time
}

// New creates a Processor.
func New(classifier model.Classifier, rnd model.Random) *Processor {
	return &Processor{classifier: classifier, rnd: rnd, now: time.Now}
}

// Parse reads the records of an uploaded file.
func (p *Processor) Parse(name string, data []byte) ([]model.TrafficRecord, error) {
	records, err := parser.Parse(name, data, parser.Options{Random: p.rnd, Now: p.now})
	if err != nil {
		return nil, wrap(err)
	}
	return records, nil
}

// Extract computes the feature vector of every record.
func (p *Processor) Extract(records []model.TrafficRecord) []model.FeatureVector {
	return features.ExtractAll(records)
}

// Classify runs the classifier and assembles one result per record.
func (p *Processor) Classify(ctx context.Context, records []model.TrafficRecord, vectors []model.FeatureVector) ([]model.ClassificationResult, error) {
	classes, err := p.classifier.Predict(ctx, vectors)
	if err != nil {
		return nil, wrap(err)
	}
	out, err := results.Assemble(records, classes, p.rnd)
	if err != nil {
		return nil, wrap(err)
	}
	return out, nil
}

// Summarize aggregates results.
func (p *Processor) Summarize(res []model.ClassificationResult, elapsed time.Duration) model.AnalysisStats {
	return stats.Compute(res, elapsed, p.rnd)
}

// wrap keeps taxonomy and cancellation errors and folds everything else
// into ErrProcessingFailed.
func wrap(err error) error {
	for _, known := range []error{
		model.ErrUnsupportedFormat,
		model.ErrMalformedInput,
		model.ErrOversizedFile,
		model.ErrProcessingFailed,
		context.Canceled,
		context.DeadlineExceeded,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", model.ErrProcessingFailed, err)
}
