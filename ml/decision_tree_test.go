package ml

import "testing"

func TestDecisionTreeTrainPredict(t *testing.T) {
	features := [][]float64{
		{0.1, 0.2},
		{0.2, 0.1},
		{0.9, 0.8},
		{0.8, 0.9},
	}
	labels := []int{0, 0, 1, 1}

	model := NewDecisionTree(2)
	if err := model.Fit(features, labels); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := model.Predict([][]float64{{0.15, 0.15}, {0.85, 0.85}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0] != 0 || got[1] != 1 {
		t.Fatalf("expected [0 1], got %v", got)
	}
	if model.Depth() != 1 {
		t.Fatalf("expected a single split, got depth %d", model.Depth())
	}
}

func TestDecisionTreeThresholdIsMidpoint(t *testing.T) {
	model := NewDecisionTree(0)
	if err := model.Fit([][]float64{{1}, {3}}, []int{0, 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model.Nodes[0].Threshold != 2 {
		t.Fatalf("expected threshold 2, got %v", model.Nodes[0].Threshold)
	}
}

func TestDecisionTreeLeafProbability(t *testing.T) {
	// identical features cannot be split, so the root leaf keeps the class share
	model := NewDecisionTree(0)
	if err := model.Fit([][]float64{{1}, {1}, {1}, {1}}, []int{1, 0, 1, 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, err := model.PredictOne([]float64{1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != 0.75 {
		t.Fatalf("expected 0.75, got %v", p)
	}
}

func TestDecisionTreeErrors(t *testing.T) {
	model := NewDecisionTree(0)
	if _, err := model.PredictOne([]float64{1}); err == nil {
		t.Fatal("expected error for untrained model")
	}
	if err := model.Fit([][]float64{{1}}, []int{2}); err == nil {
		t.Fatal("expected error for non-binary label")
	}
	if err := model.Fit([][]float64{{1}, {2}}, []int{0, 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := model.PredictOne([]float64{1, 2}); err == nil {
		t.Fatal("expected width mismatch error")
	}
}
