package model

import "context"

// Classifier assigns a class index to every feature vector. Index 0 means
// clean traffic; any positive index is a threat class.
type Classifier interface {
	Predict(ctx context.Context, vectors []FeatureVector) ([]int, error)
	Name() string
}

// Random is the source of randomness used for synthetic defaults,
// confidences and the stub classifier. *math/rand/v2.Rand satisfies it.
type Random interface {
	Float64() float64
	IntN(n int) int
}
