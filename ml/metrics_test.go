package ml

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreBinaryMetrics(t *testing.T) {
	yTrue := []int{1, 1, 0, 0, 1, 0}
	yPred := []int{1, 0, 0, 1, 1, 0}

	metrics, err := Score(yTrue, yPred, nil)
	require.NoError(t, err)

	assert.InDelta(t, 4.0/6.0, metrics["accuracy"], 1e-12)
	assert.InDelta(t, 2.0/3.0, metrics["precision"], 1e-12)
	assert.InDelta(t, 2.0/3.0, metrics["recall"], 1e-12)
	assert.InDelta(t, 2.0/3.0, metrics["f1"], 1e-12)
	_, hasAUC := metrics["roc_auc"]
	assert.False(t, hasAUC, "roc_auc needs probability scores")
}

func TestScorePositiveClassIsOne(t *testing.T) {
	// predicting everything as 0 must give zero precision and recall for class 1
	metrics, err := Score([]int{1, 0, 1}, []int{0, 0, 0}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, metrics["precision"])
	assert.Equal(t, 0.0, metrics["recall"])
	assert.Equal(t, 0.0, metrics["f1"])
}

func TestRocAUC(t *testing.T) {
	auc, err := RocAUC([]int{1, 0, 1, 0}, []float64{0.1, 0.35, 0.4, 0.8})
	require.NoError(t, err)
	assert.InDelta(t, 0.25, auc, 1e-12)

	auc, err = RocAUC([]int{0, 0, 1, 1}, []float64{0.1, 0.2, 0.8, 0.9})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, auc, 1e-12)

	metrics, err := Score([]int{1, 1}, []int{1, 1}, []float64{0.9, 0.8})
	require.NoError(t, err)
	_, hasAUC := metrics["roc_auc"]
	assert.False(t, hasAUC, "single-class input leaves roc_auc undefined")
}

func TestSaveMetricsWritesIndentedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models", "metrics.json")
	require.NoError(t, SaveMetrics(path, Metrics{"accuracy": 1, "f1": 0.5}))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(content), "\n    \"accuracy\": 1"))

	var decoded map[string]float64
	require.NoError(t, json.Unmarshal(content, &decoded))
	assert.Equal(t, 0.5, decoded["f1"])
}

func TestConfusionMatrixRejectsBadInput(t *testing.T) {
	_, err := ConfusionMatrix([]int{1}, []int{1, 0})
	assert.Error(t, err)
	_, err = ConfusionMatrix([]int{2}, []int{1})
	assert.Error(t, err)
}
