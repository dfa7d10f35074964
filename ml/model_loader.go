package ml

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"churnserve/data"
)

// ArtifactFormatVersion is bumped whenever the persisted layout changes.
const ArtifactFormatVersion = 1

// Artifact is the unit of deployment: the fitted transformer, the forest and
// the label names, persisted and loaded together. The forest's input width is
// tied to the transformer's vocabulary, so the parts are never shipped apart.
type Artifact struct {
	FormatVersion int           `json:"format_version"`
	CreatedAt     time.Time     `json:"created_at"`
	Labels        [2]string     `json:"labels"`
	Transformer   *Transformer  `json:"transformer"`
	Forest        *RandomForest `json:"forest"`
}

// NewArtifact composes an unfitted transformer and forest. labels[1] is the
// positive class.
func NewArtifact(transformer *Transformer, forest *RandomForest, negative, positive string) *Artifact {
	return &Artifact{
		FormatVersion: ArtifactFormatVersion,
		Labels:        [2]string{negative, positive},
		Transformer:   transformer,
		Forest:        forest,
	}
}

// Fit learns transformer statistics and the forest from the same training frame.
func (a *Artifact) Fit(frame *data.Frame, y []int) error {
	if frame.Rows() != len(y) {
		return fmt.Errorf("frame has %d rows but %d labels", frame.Rows(), len(y))
	}
	if err := a.Transformer.Fit(frame); err != nil {
		return fmt.Errorf("fit transformer: %w", err)
	}
	X, err := a.Transformer.Transform(frame)
	if err != nil {
		return fmt.Errorf("transform training frame: %w", err)
	}
	if err := a.Forest.Fit(X, y); err != nil {
		return fmt.Errorf("fit forest: %w", err)
	}
	a.CreatedAt = time.Now().UTC()
	return nil
}

func (a *Artifact) PredictProba(frame *data.Frame) ([]float64, error) {
	X, err := a.Transformer.Transform(frame)
	if err != nil {
		return nil, err
	}
	return a.Forest.PredictProba(X)
}

func (a *Artifact) Predict(frame *data.Frame) ([]int, error) {
	proba, err := a.PredictProba(frame)
	if err != nil {
		return nil, err
	}
	return threshold(proba), nil
}

// PredictRecord wraps one record as a single-row frame and scores it.
func (a *Artifact) PredictRecord(ctx context.Context, record data.Record) (Prediction, error) {
	if err := ctx.Err(); err != nil {
		return Prediction{}, err
	}
	frame, err := data.FrameFromRecords(a.Transformer.NumericColumns, a.Transformer.CategoricalColumns, record)
	if err != nil {
		return Prediction{}, err
	}
	proba, err := a.PredictProba(frame)
	if err != nil {
		return Prediction{}, err
	}
	class := threshold(proba)[0]
	return Prediction{
		Class:       class,
		Probability: proba[0],
		Label:       a.Labels[class],
	}, nil
}

// Save writes the artifact atomically: a crash leaves either the old file or
// the new one, never a partial write.
func (a *Artifact) Save(path string) error {
	if a.Transformer == nil || !a.Transformer.Fitted || a.Forest == nil || len(a.Forest.Trees) == 0 {
		return ErrNotFitted
	}
	payload, err := json.Marshal(a)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// LoadArtifact reads and checks a persisted artifact.
func LoadArtifact(path string) (*Artifact, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var artifact Artifact
	if err := json.Unmarshal(payload, &artifact); err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", path, err)
	}
	if artifact.FormatVersion != ArtifactFormatVersion {
		return nil, fmt.Errorf("artifact %s has format version %d, want %d", path, artifact.FormatVersion, ArtifactFormatVersion)
	}
	if artifact.Transformer == nil || !artifact.Transformer.Fitted || artifact.Forest == nil || len(artifact.Forest.Trees) == 0 {
		return nil, fmt.Errorf("artifact %s: %w", path, ErrNotFitted)
	}
	if width := artifact.Transformer.Width(); width != artifact.Forest.NFeatures {
		return nil, fmt.Errorf("artifact %s: %w: transformer emits %d, forest expects %d", path, ErrWidthMismatch, width, artifact.Forest.NFeatures)
	}
	return &artifact, nil
}
