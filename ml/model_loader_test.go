package ml

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"churnserve/data"
)

func fittedArtifact(t *testing.T) *Artifact {
	t.Helper()
	frame, err := data.NewFrame(
		data.NewNumericColumn("tenure", []float64{1, 2, 3, 40, 50, 60}),
		data.NewCategoricalColumn("Contract",
			[]string{"Month-to-month", "Month-to-month", "Month-to-month", "Two year", "Two year", "Two year"}, nil),
	)
	require.NoError(t, err)

	artifact := NewArtifact(
		BuildTransformer([]string{"tenure"}, []string{"Contract"}),
		NewRandomForest(WithNEstimators(10)),
		"No", "Yes",
	)
	require.NoError(t, artifact.Fit(frame, []int{1, 1, 1, 0, 0, 0}))
	return artifact
}

func TestArtifactSaveLoadPredictsIdentically(t *testing.T) {
	artifact := fittedArtifact(t)
	path := filepath.Join(t.TempDir(), "models", "model.json")
	require.NoError(t, artifact.Save(path))

	loaded, err := LoadArtifact(path)
	require.NoError(t, err)

	rec := data.NewRecord()
	rec.Numbers["tenure"] = 2
	rec.Texts["Contract"] = "Month-to-month"

	want, err := artifact.PredictRecord(context.Background(), rec)
	require.NoError(t, err)
	got, err := loaded.PredictRecord(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 1, got.Class)
	assert.Equal(t, "Yes", got.Label)
}

func TestArtifactPredictRecordUnseenCategory(t *testing.T) {
	artifact := fittedArtifact(t)

	rec := data.NewRecord()
	rec.Numbers["tenure"] = 55
	rec.Texts["Contract"] = "One year"

	pred, err := artifact.PredictRecord(context.Background(), rec)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pred.Probability, 0.0)
	assert.LessOrEqual(t, pred.Probability, 1.0)
	assert.Equal(t, pred.Class == 1, pred.Label == "Yes")
}

func TestLoadArtifactRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadArtifact(filepath.Join(dir, "absent.json"))
	assert.True(t, os.IsNotExist(err))

	garbage := filepath.Join(dir, "garbage.json")
	require.NoError(t, os.WriteFile(garbage, []byte("{not json"), 0o600))
	_, err = LoadArtifact(garbage)
	assert.Error(t, err)

	future := filepath.Join(dir, "future.json")
	require.NoError(t, os.WriteFile(future, []byte(`{"format_version": 99}`), 0o600))
	_, err = LoadArtifact(future)
	assert.Error(t, err)
}

func TestSaveUnfittedArtifact(t *testing.T) {
	artifact := NewArtifact(BuildTransformer(nil, nil), NewRandomForest(), "No", "Yes")
	assert.ErrorIs(t, artifact.Save(filepath.Join(t.TempDir(), "m.json")), ErrNotFitted)
}
