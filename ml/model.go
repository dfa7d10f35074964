package ml

import (
	"context"

	"churnserve/data"
)

// Classifier is a binary classifier over encoded feature vectors. Probabilities
// are for class 1.
type Classifier interface {
	Fit(X [][]float64, y []int) error
	Predict(X [][]float64) ([]int, error)
	PredictProba(X [][]float64) ([]float64, error)
}

// Prediction is the outcome for one record.
type Prediction struct {
	Class       int     `json:"churn_prediction"`
	Probability float64 `json:"churn_probability"`
	Label       string  `json:"churn_label"`
}

// ModelProvider scores one validated record.
type ModelProvider interface {
	PredictRecord(ctx context.Context, record data.Record) (Prediction, error)
}

var (
	_ Classifier    = (*RandomForest)(nil)
	_ Classifier    = (*DecisionTree)(nil)
	_ ModelProvider = (*Artifact)(nil)
)
