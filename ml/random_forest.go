package ml

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// RandomForest averages the leaf probabilities of bagged CART trees.
// Trees are grown one after another; tree i draws from seed RandomState+i so a
// fit is reproducible for a given RandomState.
type RandomForest struct {
	NEstimators     int             `json:"n_estimators"`
	MaxDepth        int             `json:"max_depth"`
	MinSamplesSplit int             `json:"min_samples_split"`
	MaxFeatures     int             `json:"max_features"`
	Bootstrap       bool            `json:"bootstrap"`
	RandomState     int64           `json:"random_state"`
	NFeatures       int             `json:"n_features"`
	Trees           []*DecisionTree `json:"trees"`
}

type RandomForestOption func(*RandomForest)

func WithNEstimators(n int) RandomForestOption { return func(rf *RandomForest) { rf.NEstimators = n } }
func WithMaxDepth(d int) RandomForestOption     { return func(rf *RandomForest) { rf.MaxDepth = d } }
func WithBootstrap(b bool) RandomForestOption   { return func(rf *RandomForest) { rf.Bootstrap = b } }
func WithRandomState(s int64) RandomForestOption {
	return func(rf *RandomForest) { rf.RandomState = s }
}
func WithMinSamplesSplit(n int) RandomForestOption {
	return func(rf *RandomForest) { rf.MinSamplesSplit = n }
}

// WithMaxFeatures fixes the features tried per split; 0 means sqrt(width).
func WithMaxFeatures(n int) RandomForestOption { return func(rf *RandomForest) { rf.MaxFeatures = n } }

func NewRandomForest(opts ...RandomForestOption) *RandomForest {
	rf := &RandomForest{
		NEstimators:     100,
		MinSamplesSplit: 2,
		Bootstrap:       true,
		RandomState:     42,
	}
	for _, o := range opts {
		o(rf)
	}
	return rf
}

func (rf *RandomForest) Fit(X [][]float64, y []int) error {
	if len(X) == 0 {
		return errors.New("randomforest: empty X")
	}
	n := len(X)
	if len(y) != n {
		return errors.New("randomforest: X and y length mismatch")
	}
	if rf.NEstimators <= 0 {
		return errors.New("randomforest: n_estimators must be positive")
	}

	rf.NFeatures = len(X[0])
	maxFeatures := rf.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = int(math.Sqrt(float64(rf.NFeatures)))
	}
	if maxFeatures < 1 {
		maxFeatures = 1
	}

	trees := make([]*DecisionTree, rf.NEstimators)
	for i := range trees {
		rng := rand.New(rand.NewSource(rf.RandomState + int64(i)))
		rows := make([]int, n)
		for j := range rows {
			if rf.Bootstrap {
				rows[j] = rng.Intn(n)
			} else {
				rows[j] = j
			}
		}
		tree := &DecisionTree{
			MaxDepth:        rf.MaxDepth,
			MinSamplesSplit: rf.MinSamplesSplit,
			MaxFeatures:     maxFeatures,
		}
		if err := tree.fitRows(X, y, rows, rng); err != nil {
			return fmt.Errorf("randomforest: tree %d: %w", i, err)
		}
		trees[i] = tree
	}
	rf.Trees = trees
	return nil
}

// PredictProba returns the probability of class 1 for every row.
func (rf *RandomForest) PredictProba(X [][]float64) ([]float64, error) {
	if len(rf.Trees) == 0 {
		return nil, ErrNotFitted
	}
	proba := make([]float64, len(X))
	for i, x := range X {
		if len(x) != rf.NFeatures {
			return nil, fmt.Errorf("%w: forest expects %d features, got %d", ErrWidthMismatch, rf.NFeatures, len(x))
		}
		var sum float64
		for _, tree := range rf.Trees {
			p, err := tree.PredictOne(x)
			if err != nil {
				return nil, err
			}
			sum += p
		}
		proba[i] = sum / float64(len(rf.Trees))
	}
	return proba, nil
}

func (rf *RandomForest) Predict(X [][]float64) ([]int, error) {
	proba, err := rf.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return threshold(proba), nil
}
