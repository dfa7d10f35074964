package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"churnserve/data"
	"churnserve/db"
	"churnserve/ml"
)

// Churners have short tenure, low charges and monthly contracts; one new
// customer has a blank TotalCharges the cleaner must turn into 0.
const separableCSV = `customerID,tenure,TotalCharges,Contract,Churn
c01,1, ,Month-to-month,Yes
c02,2,45.5,Month-to-month,Yes
c03,3,70.1,Month-to-month,Yes
c04,2,60.0,Month-to-month,Yes
c05,1,20.2,Month-to-month,Yes
c06,60,5000.0,Two year,No
c07,55,4800.5,Two year,No
c08,70,6100.0,Two year,No
c09,65,5900.0,Two year,No
c10,58,5200.3,Two year,No
`

func csvSource(t *testing.T) Source {
	t.Helper()
	return func(ctx context.Context) (*data.Frame, error) {
		return data.ReadCSV(strings.NewReader(separableCSV))
	}
}

func testTrainingConfig(dir string) TrainingConfig {
	return TrainingConfig{
		Target:             "Churn",
		IDColumn:           "customerID",
		PositiveLabel:      "Yes",
		NumericTextColumns: []string{"TotalCharges"},
		TestSize:           0.2,
		Seed:               42,
		NEstimators:        20,
		MinSamplesSplit:    2,
		ModelPath:          filepath.Join(dir, "models", "model.json"),
		MetricsPath:        filepath.Join(dir, "models", "metrics.json"),
	}
}

type failingRecorder struct{ calls int }

func (f *failingRecorder) RecordRun(context.Context, db.Run) (string, error) {
	f.calls++
	return "", errors.New("disk full")
}

func TestTrainerRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	cfg := testTrainingConfig(dir)
	trainer := NewTrainer(cfg, WithSource(csvSource(t)))

	result, err := trainer.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StagePersisted, trainer.Stage())

	assert.Equal(t, 8, result.TrainRows)
	assert.Equal(t, 2, result.TestRows)
	assert.Equal(t, 1.0, result.Metrics["accuracy"])
	for _, name := range []string{"accuracy", "precision", "recall", "f1", "roc_auc"} {
		assert.Contains(t, result.Metrics, name)
	}
	assert.Equal(t, 1, result.Confusion.TP)
	assert.Equal(t, 1, result.Confusion.TN)
	assert.Empty(t, result.RunID, "no run store configured")

	content, err := os.ReadFile(cfg.MetricsPath)
	require.NoError(t, err)
	var saved map[string]float64
	require.NoError(t, json.Unmarshal(content, &saved))
	assert.Equal(t, map[string]float64(result.Metrics), saved)

	artifact, err := ml.LoadArtifact(cfg.ModelPath)
	require.NoError(t, err)
	assert.Equal(t, [2]string{"No", "Yes"}, artifact.Labels)
	assert.Equal(t, []string{"tenure", "TotalCharges"}, artifact.Transformer.NumericColumns)
	assert.Equal(t, []string{"Contract"}, artifact.Transformer.CategoricalColumns)

	rec := data.NewRecord()
	rec.Numbers["tenure"] = 2
	rec.Numbers["TotalCharges"] = 50
	rec.Texts["Contract"] = "Month-to-month"
	pred, err := artifact.PredictRecord(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, "Yes", pred.Label)
	assert.Greater(t, pred.Probability, 0.5)
}

func TestTrainerRunIsReproducible(t *testing.T) {
	first, err := NewTrainer(testTrainingConfig(t.TempDir()), WithSource(csvSource(t))).Run(context.Background())
	require.NoError(t, err)
	second, err := NewTrainer(testTrainingConfig(t.TempDir()), WithSource(csvSource(t))).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Metrics, second.Metrics)
	assert.Equal(t, first.Artifact.Forest.Trees, second.Artifact.Forest.Trees)
}

func TestTrainerRecordsRuns(t *testing.T) {
	dir := t.TempDir()
	store, err := db.Open(filepath.Join(dir, "runs.db"))
	require.NoError(t, err)
	defer store.Close()

	result, err := NewTrainer(testTrainingConfig(dir), WithSource(csvSource(t)), WithRunRecorder(store)).
		Run(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, result.RunID)

	runs, err := store.RecentRuns(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, result.RunID, runs[0].ID)
	assert.Equal(t, 1.0, runs[0].Metrics["accuracy"])
}

func TestTrainerRunRecorderFailureIsNotFatal(t *testing.T) {
	recorder := &failingRecorder{}
	cfg := testTrainingConfig(t.TempDir())
	result, err := NewTrainer(cfg, WithSource(csvSource(t)), WithRunRecorder(recorder)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, recorder.calls)
	assert.Empty(t, result.RunID)
	assert.FileExists(t, cfg.ModelPath)
}

func TestTrainerStopsAtFailingStage(t *testing.T) {
	dir := t.TempDir()
	cfg := testTrainingConfig(dir)

	broken := NewTrainer(cfg, WithSource(func(context.Context) (*data.Frame, error) {
		return nil, errors.New("connection refused")
	}))
	_, err := broken.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, StageInit, broken.Stage())

	cfg.Target = "Churned"
	badTarget := NewTrainer(cfg, WithSource(csvSource(t)))
	_, err = badTarget.Run(context.Background())
	assert.ErrorIs(t, err, ErrBadTarget)
	assert.Equal(t, StageCleaned, badTarget.Stage())
	assert.NoFileExists(t, cfg.ModelPath)
	assert.NoFileExists(t, cfg.MetricsPath)
}
