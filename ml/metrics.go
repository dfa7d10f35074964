package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// Metrics maps metric names to values. It is informational and never read back
// at inference time.
type Metrics map[string]float64

// Confusion counts outcomes with 1 as the positive (churn) class.
type Confusion struct {
	TP int `json:"tp"`
	FP int `json:"fp"`
	TN int `json:"tn"`
	FN int `json:"fn"`
}

func ConfusionMatrix(yTrue, yPred []int) (Confusion, error) {
	if len(yTrue) != len(yPred) {
		return Confusion{}, fmt.Errorf("length mismatch: %d true vs %d predicted", len(yTrue), len(yPred))
	}
	var c Confusion
	for i, truth := range yTrue {
		switch {
		case truth == 1 && yPred[i] == 1:
			c.TP++
		case truth == 0 && yPred[i] == 1:
			c.FP++
		case truth == 0 && yPred[i] == 0:
			c.TN++
		case truth == 1 && yPred[i] == 0:
			c.FN++
		default:
			return Confusion{}, fmt.Errorf("labels must be 0 or 1 at index %d", i)
		}
	}
	return c, nil
}

// Score computes accuracy, precision, recall and f1, plus roc_auc when proba is
// non-nil and both classes are present. Undefined ratios are reported as 0.
func Score(yTrue, yPred []int, proba []float64) (Metrics, error) {
	if len(yTrue) == 0 {
		return nil, errors.New("no samples to score")
	}
	c, err := ConfusionMatrix(yTrue, yPred)
	if err != nil {
		return nil, err
	}

	precision := ratio(c.TP, c.TP+c.FP)
	recall := ratio(c.TP, c.TP+c.FN)
	f1 := 0.0
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	metrics := Metrics{
		"accuracy":  ratio(c.TP+c.TN, len(yTrue)),
		"precision": precision,
		"recall":    recall,
		"f1":        f1,
	}

	if proba != nil {
		auc, err := RocAUC(yTrue, proba)
		switch {
		case err == nil:
			metrics["roc_auc"] = auc
		case errors.Is(err, errSingleClass):
		default:
			return nil, err
		}
	}
	return metrics, nil
}

var errSingleClass = errors.New("roc auc is undefined with a single class")

// RocAUC integrates the ROC curve of scores against the positive class.
func RocAUC(yTrue []int, scores []float64) (float64, error) {
	if len(yTrue) != len(scores) {
		return 0, fmt.Errorf("length mismatch: %d labels vs %d scores", len(yTrue), len(scores))
	}
	y := append([]float64(nil), scores...)
	classes := make([]bool, len(yTrue))
	positives := 0
	for i, label := range yTrue {
		classes[i] = label == 1
		positives += label
	}
	if positives == 0 || positives == len(yTrue) {
		return 0, errSingleClass
	}

	stat.SortWeightedLabeled(y, classes, nil)
	tpr, fpr, _ := stat.ROC(nil, y, classes, nil)
	return integrate.Trapezoidal(fpr, tpr), nil
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// SaveMetrics overwrites path with the metrics as indented JSON.
func SaveMetrics(path string, metrics Metrics) error {
	payload, err := json.MarshalIndent(metrics, "", "    ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(payload, '\n'), 0o644)
}
