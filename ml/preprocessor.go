package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"churnserve/data"
)

// MissingCategory replaces null categorical cells before encoding.
const MissingCategory = "missing"

// HandleUnknownIgnore encodes a category not seen during Fit as all zeros.
const HandleUnknownIgnore = "ignore"

var (
	ErrNotFitted     = errors.New("model not fitted")
	ErrWidthMismatch = errors.New("feature width mismatch")
)

type NumericStats struct {
	Column string  `json:"column"`
	Median float64 `json:"median"`
	Mean   float64 `json:"mean"`
	Scale  float64 `json:"scale"`
}

type CategoryVocabulary struct {
	Column     string   `json:"column"`
	Categories []string `json:"categories"`
}

// Transformer is the fit-then-apply feature pipeline: numeric columns are
// median-imputed then standardized, categorical columns are filled with
// MissingCategory then one-hot encoded. Output is the numeric block followed
// by the categorical blocks, each in the column order given to the builder.
//
// All statistics come from the frame passed to Fit. After Fit the output width
// never changes. A fitted Transformer is read-only and safe for concurrent use.
type Transformer struct {
	NumericColumns     []string             `json:"numeric_columns"`
	CategoricalColumns []string             `json:"categorical_columns"`
	Numeric            []NumericStats       `json:"numeric"`
	Categorical        []CategoryVocabulary `json:"categorical"`
	HandleUnknown      string               `json:"handle_unknown"`
	Fitted             bool                 `json:"fitted"`

	lookup []map[string]int
}

// BuildTransformer routes columns to the numeric or categorical branch.
func BuildTransformer(numeric, categorical []string) *Transformer {
	return &Transformer{
		NumericColumns:     append([]string(nil), numeric...),
		CategoricalColumns: append([]string(nil), categorical...),
		HandleUnknown:      HandleUnknownIgnore,
	}
}

func (t *Transformer) Fit(frame *data.Frame) error {
	if frame.Rows() == 0 {
		return errors.New("cannot fit transformer on an empty frame")
	}

	numeric := make([]NumericStats, 0, len(t.NumericColumns))
	for _, name := range t.NumericColumns {
		col, err := frame.Column(name)
		if err != nil {
			return err
		}
		if col.Kind != data.Numeric {
			return fmt.Errorf("column %q: expected numeric, got %s", name, col.Kind)
		}
		numeric = append(numeric, fitNumeric(col))
	}

	categorical := make([]CategoryVocabulary, 0, len(t.CategoricalColumns))
	for _, name := range t.CategoricalColumns {
		col, err := frame.Column(name)
		if err != nil {
			return err
		}
		if col.Kind != data.Categorical {
			return fmt.Errorf("column %q: expected categorical, got %s", name, col.Kind)
		}
		categorical = append(categorical, fitCategorical(col))
	}

	t.Numeric = numeric
	t.Categorical = categorical
	t.Fitted = true
	t.buildLookup()
	return nil
}

func fitNumeric(col *data.Column) NumericStats {
	present := make([]float64, 0, len(col.Numbers))
	for _, v := range col.Numbers {
		if !math.IsNaN(v) {
			present = append(present, v)
		}
	}
	median := medianOf(present)

	imputed := make([]float64, len(col.Numbers))
	for i, v := range col.Numbers {
		if math.IsNaN(v) {
			v = median
		}
		imputed[i] = v
	}
	mean, std := stat.PopMeanStdDev(imputed, nil)
	scale := std
	if !(scale > 10*epsilon) {
		scale = 1
	}
	return NumericStats{Column: col.Name, Median: median, Mean: mean, Scale: scale}
}

const epsilon = 2.220446049250313e-16

func fitCategorical(col *data.Column) CategoryVocabulary {
	seen := make(map[string]bool)
	for i, v := range col.Texts {
		if col.Nulls[i] {
			v = MissingCategory
		}
		seen[v] = true
	}
	categories := make([]string, 0, len(seen))
	for v := range seen {
		categories = append(categories, v)
	}
	sort.Strings(categories)
	return CategoryVocabulary{Column: col.Name, Categories: categories}
}

func medianOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func (t *Transformer) buildLookup() {
	t.lookup = make([]map[string]int, len(t.Categorical))
	for i, vocab := range t.Categorical {
		index := make(map[string]int, len(vocab.Categories))
		for j, category := range vocab.Categories {
			index[category] = j
		}
		t.lookup[i] = index
	}
}

// UnmarshalJSON restores a persisted transformer with its category index.
func (t *Transformer) UnmarshalJSON(b []byte) error {
	type plain Transformer
	var decoded plain
	if err := json.Unmarshal(b, &decoded); err != nil {
		return err
	}
	*t = Transformer(decoded)
	t.buildLookup()
	return nil
}

// Width is the number of output features.
func (t *Transformer) Width() int {
	width := len(t.Numeric)
	for _, vocab := range t.Categorical {
		width += len(vocab.Categories)
	}
	return width
}

// FeatureNames lists output features as num__<col> and cat__<col>_<category>.
func (t *Transformer) FeatureNames() []string {
	names := make([]string, 0, t.Width())
	for _, stats := range t.Numeric {
		names = append(names, "num__"+stats.Column)
	}
	for _, vocab := range t.Categorical {
		for _, category := range vocab.Categories {
			names = append(names, "cat__"+vocab.Column+"_"+category)
		}
	}
	return names
}

// Transform applies the fitted statistics. Extra columns in frame are ignored.
func (t *Transformer) Transform(frame *data.Frame) ([][]float64, error) {
	if !t.Fitted {
		return nil, ErrNotFitted
	}

	rows := frame.Rows()
	width := t.Width()
	out := make([][]float64, rows)
	backing := make([]float64, rows*width)
	for i := range out {
		out[i] = backing[i*width : (i+1)*width : (i+1)*width]
	}

	for j, stats := range t.Numeric {
		col, err := frame.Column(stats.Column)
		if err != nil {
			return nil, err
		}
		if col.Kind != data.Numeric {
			return nil, fmt.Errorf("column %q: expected numeric, got %s", stats.Column, col.Kind)
		}
		for i, v := range col.Numbers {
			if math.IsNaN(v) {
				v = stats.Median
			}
			out[i][j] = (v - stats.Mean) / stats.Scale
		}
	}

	offset := len(t.Numeric)
	for j, vocab := range t.Categorical {
		col, err := frame.Column(vocab.Column)
		if err != nil {
			return nil, err
		}
		if col.Kind != data.Categorical {
			return nil, fmt.Errorf("column %q: expected categorical, got %s", vocab.Column, col.Kind)
		}
		index := t.lookup[j]
		for i, v := range col.Texts {
			if col.Nulls[i] {
				v = MissingCategory
			}
			if k, ok := index[v]; ok {
				out[i][offset+k] = 1
			}
		}
		offset += len(vocab.Categories)
	}
	return out, nil
}
