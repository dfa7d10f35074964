package pipeline

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"

	"churnserve/data"
)

var ErrBadTarget = errors.New("bad target column")

type SplitConfig struct {
	Target        string
	PositiveLabel string
	TestSize      float64
	Seed          int64
}

// LabelEncoder maps the two target values to {0, 1}. The positive label is
// configured, never inferred from value order.
type LabelEncoder struct {
	Positive string `json:"positive"`
	Negative string `json:"negative"`
}

// FitLabelEncoder checks that col holds exactly two distinct values, one of
// them positive.
func FitLabelEncoder(col *data.Column, positive string) (LabelEncoder, error) {
	seen := make(map[string]bool)
	for i := 0; i < col.Len(); i++ {
		value, err := targetValue(col, i)
		if err != nil {
			return LabelEncoder{}, err
		}
		seen[value] = true
	}
	if !seen[positive] {
		return LabelEncoder{}, fmt.Errorf("%w: positive label %q not present", ErrBadTarget, positive)
	}
	if len(seen) != 2 {
		return LabelEncoder{}, fmt.Errorf("%w: expected 2 distinct values, got %d", ErrBadTarget, len(seen))
	}
	enc := LabelEncoder{Positive: positive}
	for value := range seen {
		if value != positive {
			enc.Negative = value
		}
	}
	return enc, nil
}

func (e LabelEncoder) Encode(col *data.Column) ([]int, error) {
	labels := make([]int, col.Len())
	for i := range labels {
		value, err := targetValue(col, i)
		if err != nil {
			return nil, err
		}
		switch value {
		case e.Positive:
			labels[i] = 1
		case e.Negative:
			labels[i] = 0
		default:
			return nil, fmt.Errorf("%w: unknown label %q at row %d", ErrBadTarget, value, i)
		}
	}
	return labels, nil
}

func (e LabelEncoder) Decode(label int) string {
	if label == 1 {
		return e.Positive
	}
	return e.Negative
}

func targetValue(col *data.Column, i int) (string, error) {
	if col.IsNull(i) {
		return "", fmt.Errorf("%w: missing value at row %d", ErrBadTarget, i)
	}
	if col.Kind == data.Numeric {
		return strconv.FormatFloat(col.Numbers[i], 'g', -1, 64), nil
	}
	return col.Texts[i], nil
}

// Split is a stratified train/test partition. Numeric and Categorical hold the
// feature partition computed on the full feature set before splitting; the
// transformer must be built from these, never from a partition.
type Split struct {
	TrainX      *data.Frame
	TestX       *data.Frame
	TrainY      []int
	TestY       []int
	TrainRows   []int
	TestRows    []int
	Numeric     []string
	Categorical []string
	Labels      LabelEncoder
}

// SplitFrame encodes the target and splits a cleaned frame.
func SplitFrame(frame *data.Frame, cfg SplitConfig) (*Split, error) {
	targetCol, err := frame.Column(cfg.Target)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadTarget, err)
	}
	labels, err := FitLabelEncoder(targetCol, cfg.PositiveLabel)
	if err != nil {
		return nil, err
	}
	y, err := labels.Encode(targetCol)
	if err != nil {
		return nil, err
	}

	features := frame.Drop(cfg.Target)
	numeric := features.NamesByKind(data.Numeric)
	categorical := features.NamesByKind(data.Categorical)

	trainRows, testRows, err := StratifiedIndices(y, cfg.TestSize, cfg.Seed)
	if err != nil {
		return nil, err
	}

	return &Split{
		TrainX:      features.Take(trainRows),
		TestX:       features.Take(testRows),
		TrainY:      pick(y, trainRows),
		TestY:       pick(y, testRows),
		TrainRows:   trainRows,
		TestRows:    testRows,
		Numeric:     numeric,
		Categorical: categorical,
		Labels:      labels,
	}, nil
}

// StratifiedIndices shuffles each class with a seeded source and assigns
// ceil(testSize*n) rows to the test side, apportioned across classes by
// largest remainder. Both index lists come back sorted.
func StratifiedIndices(y []int, testSize float64, seed int64) (train, test []int, err error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, fmt.Errorf("test size must be in (0, 1), got %v", testSize)
	}
	n := len(y)
	nTest := int(math.Ceil(testSize * float64(n)))
	if n < 2 || nTest < 1 || nTest >= n {
		return nil, nil, fmt.Errorf("cannot split %d rows with test size %v", n, testSize)
	}

	byClass := make(map[int][]int)
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}
	classes := make([]int, 0, len(byClass))
	for class, rows := range byClass {
		if len(rows) < 2 {
			return nil, nil, fmt.Errorf("class %d has %d row(s); stratification needs at least 2", class, len(rows))
		}
		classes = append(classes, class)
	}
	sort.Ints(classes)
	if nTest < len(classes) || n-nTest < len(classes) {
		return nil, nil, fmt.Errorf("partitions of %d and %d rows cannot hold %d classes", n-nTest, nTest, len(classes))
	}

	quota := apportion(classes, byClass, nTest, n)

	rng := rand.New(rand.NewSource(seed))
	for _, class := range classes {
		rows := append([]int(nil), byClass[class]...)
		rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })
		test = append(test, rows[:quota[class]]...)
		train = append(train, rows[quota[class]:]...)
	}
	sort.Ints(train)
	sort.Ints(test)
	return train, test, nil
}

func apportion(classes []int, byClass map[int][]int, nTest, n int) map[int]int {
	type share struct {
		class int
		rest  float64
	}
	quota := make(map[int]int, len(classes))
	shares := make([]share, 0, len(classes))
	assigned := 0
	for _, class := range classes {
		exact := float64(nTest) * float64(len(byClass[class])) / float64(n)
		quota[class] = int(math.Floor(exact))
		assigned += quota[class]
		shares = append(shares, share{class: class, rest: exact - math.Floor(exact)})
	}
	sort.SliceStable(shares, func(i, j int) bool { return shares[i].rest > shares[j].rest })
	for i := 0; assigned < nTest; i = (i + 1) % len(shares) {
		class := shares[i].class
		if quota[class] < len(byClass[class])-1 {
			quota[class]++
			assigned++
		}
	}
	return quota
}

func pick(values []int, rows []int) []int {
	out := make([]int, len(rows))
	for i, row := range rows {
		out[i] = values[row]
	}
	return out
}
