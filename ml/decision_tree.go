package ml

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// DecisionTree is a binary CART classifier grown with Gini impurity. Nodes are
// stored flat; children are referenced by absolute index.
type DecisionTree struct {
	MaxDepth        int        `json:"max_depth"`
	MinSamplesSplit int        `json:"min_samples_split"`
	MaxFeatures     int        `json:"max_features"`
	NFeatures       int        `json:"n_features"`
	Nodes           []TreeNode `json:"nodes"`
}

// TreeNode holds a split (FeatureIdx, Threshold) or, for leaves, only the
// share of positive samples that reached it.
type TreeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	Positive   float64 `json:"positive"`
	Samples    int     `json:"samples"`
	IsLeaf     bool    `json:"is_leaf"`
}

// NewDecisionTree returns a tree with unlimited depth that considers every
// feature at each split. maxDepth <= 0 means unlimited.
func NewDecisionTree(maxDepth int) *DecisionTree {
	return &DecisionTree{MaxDepth: maxDepth, MinSamplesSplit: 2}
}

func (dt *DecisionTree) Fit(X [][]float64, y []int) error {
	rows := make([]int, len(X))
	for i := range rows {
		rows[i] = i
	}
	return dt.fitRows(X, y, rows, rand.New(rand.NewSource(0)))
}

// fitRows grows the tree on a multiset of row indices; repeated indices act as
// sample weights, which is how bootstrap samples reach the tree.
func (dt *DecisionTree) fitRows(X [][]float64, y []int, rows []int, rng *rand.Rand) error {
	if len(X) == 0 || len(y) == 0 {
		return errors.New("features or labels empty")
	}
	if len(X) != len(y) {
		return errors.New("features and labels size mismatch")
	}
	if len(rows) == 0 {
		return errors.New("no rows to fit")
	}
	for _, label := range y {
		if label != 0 && label != 1 {
			return fmt.Errorf("labels must be 0 or 1, got %d", label)
		}
	}
	if dt.MinSamplesSplit < 2 {
		dt.MinSamplesSplit = 2
	}

	dt.NFeatures = len(X[0])
	dt.Nodes = dt.Nodes[:0]
	dt.grow(X, y, rows, 0, rng)
	return nil
}

func (dt *DecisionTree) grow(X [][]float64, y []int, rows []int, depth int, rng *rand.Rand) int {
	positives := countPositive(y, rows)
	idx := len(dt.Nodes)
	dt.Nodes = append(dt.Nodes, TreeNode{
		FeatureIdx: -1,
		LeftChild:  -1,
		RightChild: -1,
		Positive:   float64(positives) / float64(len(rows)),
		Samples:    len(rows),
		IsLeaf:     true,
	})

	if positives == 0 || positives == len(rows) || len(rows) < dt.MinSamplesSplit {
		return idx
	}
	if dt.MaxDepth > 0 && depth >= dt.MaxDepth {
		return idx
	}

	feature, threshold, ok := dt.findBestSplit(X, y, rows, rng)
	if !ok {
		return idx
	}

	left := make([]int, 0, len(rows))
	right := make([]int, 0, len(rows))
	for _, row := range rows {
		if X[row][feature] <= threshold {
			left = append(left, row)
		} else {
			right = append(right, row)
		}
	}

	leftIdx := dt.grow(X, y, left, depth+1, rng)
	rightIdx := dt.grow(X, y, right, depth+1, rng)

	node := &dt.Nodes[idx]
	node.FeatureIdx = feature
	node.Threshold = threshold
	node.LeftChild = leftIdx
	node.RightChild = rightIdx
	node.IsLeaf = false
	return idx
}

// findBestSplit visits features in random order and stops once MaxFeatures
// non-constant features have been evaluated. Constant features do not count.
func (dt *DecisionTree) findBestSplit(X [][]float64, y []int, rows []int, rng *rand.Rand) (int, float64, bool) {
	maxFeatures := dt.MaxFeatures
	if maxFeatures <= 0 || maxFeatures > dt.NFeatures {
		maxFeatures = dt.NFeatures
	}

	n := len(rows)
	total := countPositive(y, rows)
	sorted := make([]int, n)

	bestFeature := -1
	bestThreshold := 0.0
	bestImpurity := math.MaxFloat64
	visited := 0

	for _, feature := range rng.Perm(dt.NFeatures) {
		if visited >= maxFeatures {
			break
		}
		copy(sorted, rows)
		sort.Slice(sorted, func(a, b int) bool {
			return X[sorted[a]][feature] < X[sorted[b]][feature]
		})
		if X[sorted[0]][feature] == X[sorted[n-1]][feature] {
			continue
		}
		visited++

		leftPositive := 0
		for i := 0; i < n-1; i++ {
			if y[sorted[i]] == 1 {
				leftPositive++
			}
			current := X[sorted[i]][feature]
			next := X[sorted[i+1]][feature]
			if current == next {
				continue
			}
			impurity := weightedGini(leftPositive, i+1, total-leftPositive, n-i-1)
			if impurity < bestImpurity {
				bestImpurity = impurity
				bestFeature = feature
				bestThreshold = midpoint(current, next)
			}
		}
	}
	if bestFeature == -1 {
		return -1, 0, false
	}
	return bestFeature, bestThreshold, true
}

func midpoint(a, b float64) float64 {
	m := a + (b-a)/2
	if m >= b {
		return a
	}
	return m
}

func weightedGini(leftPositive, leftCount, rightPositive, rightCount int) float64 {
	total := float64(leftCount + rightCount)
	return (float64(leftCount)*gini(leftPositive, leftCount) + float64(rightCount)*gini(rightPositive, rightCount)) / total
}

func gini(positive, count int) float64 {
	if count == 0 {
		return 0
	}
	p := float64(positive) / float64(count)
	return 2 * p * (1 - p)
}

func countPositive(y []int, rows []int) int {
	count := 0
	for _, row := range rows {
		count += y[row]
	}
	return count
}

// PredictOne returns the positive-class share of the leaf reached by x.
func (dt *DecisionTree) PredictOne(x []float64) (float64, error) {
	if len(dt.Nodes) == 0 {
		return 0, ErrNotFitted
	}
	if len(x) != dt.NFeatures {
		return 0, fmt.Errorf("%w: tree expects %d features, got %d", ErrWidthMismatch, dt.NFeatures, len(x))
	}
	idx := 0
	for {
		node := dt.Nodes[idx]
		if node.IsLeaf {
			return node.Positive, nil
		}
		if x[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx <= 0 || idx >= len(dt.Nodes) {
			return 0, errors.New("invalid tree state")
		}
	}
}

func (dt *DecisionTree) PredictProba(X [][]float64) ([]float64, error) {
	proba := make([]float64, len(X))
	for i, x := range X {
		p, err := dt.PredictOne(x)
		if err != nil {
			return nil, err
		}
		proba[i] = p
	}
	return proba, nil
}

func (dt *DecisionTree) Predict(X [][]float64) ([]int, error) {
	proba, err := dt.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return threshold(proba), nil
}

// threshold maps positive-class probabilities to labels; a tie goes to 0.
func threshold(proba []float64) []int {
	labels := make([]int, len(proba))
	for i, p := range proba {
		if p > 0.5 {
			labels[i] = 1
		}
	}
	return labels
}

func (dt *DecisionTree) Depth() int {
	if len(dt.Nodes) == 0 {
		return 0
	}
	var walk func(idx int) int
	walk = func(idx int) int {
		node := dt.Nodes[idx]
		if node.IsLeaf {
			return 0
		}
		return 1 + max(walk(node.LeftChild), walk(node.RightChild))
	}
	return walk(0)
}
