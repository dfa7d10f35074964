package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"churnserve/config"
	"churnserve/data"
	"churnserve/db"
	"churnserve/ml"
)

// Stage 训练流程所处的阶段
type Stage string

const (
	StageInit      Stage = "init"
	StageLoaded    Stage = "data_loaded"
	StageCleaned   Stage = "cleaned"
	StageSplit     Stage = "split"
	StageBuilt     Stage = "pipeline_built"
	StageFitted    Stage = "fitted"
	StageEvaluated Stage = "evaluated"
	StagePersisted Stage = "persisted"
)

// TrainingConfig 训练配置
type TrainingConfig struct {
	DataURL            string
	RawPath            string
	Target             string
	IDColumn           string
	PositiveLabel      string
	NumericTextColumns []string
	TestSize           float64
	Seed               int64
	NEstimators        int
	MaxDepth           int
	MinSamplesSplit    int
	ModelPath          string
	MetricsPath        string
}

// TrainingConfigFrom 从全局配置构造训练配置
func TrainingConfigFrom(cfg *config.Config) TrainingConfig {
	return TrainingConfig{
		DataURL:            cfg.Data.URL,
		RawPath:            cfg.Data.RawPath,
		Target:             cfg.Data.TargetColumn,
		IDColumn:           cfg.Data.IDColumn,
		PositiveLabel:      cfg.Data.PositiveLabel,
		NumericTextColumns: cfg.Data.NumericTextColumns,
		TestSize:           cfg.Training.TestSize,
		Seed:               cfg.Training.RandomState,
		NEstimators:        cfg.Training.NEstimators,
		MaxDepth:           cfg.Training.MaxDepth,
		MinSamplesSplit:    cfg.Training.MinSamplesSplit,
		ModelPath:          cfg.Model.Path,
		MetricsPath:        cfg.Model.MetricsPath,
	}
}

func (c TrainingConfig) validate() error {
	if c.Target == "" {
		return errors.New("target column is required")
	}
	if c.ModelPath == "" || c.MetricsPath == "" {
		return errors.New("model and metrics paths are required")
	}
	if c.NEstimators <= 0 {
		return errors.New("n_estimators must be positive")
	}
	return nil
}

// RunRecorder 保存训练历史
type RunRecorder interface {
	RecordRun(ctx context.Context, run db.Run) (string, error)
}

// Source 提供原始数据表
type Source func(ctx context.Context) (*data.Frame, error)

// Result 一次训练的产出
type Result struct {
	RunID     string
	Metrics   ml.Metrics
	Confusion ml.Confusion
	Artifact  *ml.Artifact
	TrainRows int
	TestRows  int
	Duration  time.Duration
}

// Trainer 训练流程：加载、清洗、切分、构建、拟合、评估、持久化，依次执行，
// 任一阶段失败即终止，不重试。
type Trainer struct {
	config TrainingConfig
	source Source
	runs   RunRecorder
	client *http.Client

	stage Stage
}

type TrainerOption func(*Trainer)

// WithSource 替换数据来源（默认为下载并读取 CSV）
func WithSource(source Source) TrainerOption {
	return func(t *Trainer) { t.source = source }
}

// WithRunRecorder 训练完成后记录训练历史
func WithRunRecorder(runs RunRecorder) TrainerOption {
	return func(t *Trainer) { t.runs = runs }
}

func WithHTTPClient(client *http.Client) TrainerOption {
	return func(t *Trainer) { t.client = client }
}

// NewTrainer 创建训练器
func NewTrainer(cfg TrainingConfig, opts ...TrainerOption) *Trainer {
	t := &Trainer{
		config: cfg,
		client: &http.Client{Timeout: 5 * time.Minute},
		stage:  StageInit,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.source == nil {
		t.source = func(ctx context.Context) (*data.Frame, error) {
			return data.Load(ctx, t.client, t.config.DataURL, t.config.RawPath)
		}
	}
	return t
}

// Stage 返回最近一次完成的阶段
func (t *Trainer) Stage() Stage { return t.stage }

func (t *Trainer) advance(stage Stage, fields ...zap.Field) {
	t.stage = stage
	zap.L().Info("training stage complete", append([]zap.Field{zap.String("stage", string(stage))}, fields...)...)
}

// Run 执行完整训练流程。模型文件先于指标文件写出；训练历史写入失败只记录日志。
func (t *Trainer) Run(ctx context.Context) (*Result, error) {
	if err := t.config.validate(); err != nil {
		return nil, err
	}
	started := time.Now()
	t.stage = StageInit

	frame, err := t.source(ctx)
	if err != nil {
		return nil, fmt.Errorf("load data: %w", err)
	}
	t.advance(StageLoaded, zap.Int("rows", frame.Rows()), zap.Int("columns", frame.Width()))

	cleaner := NewDataCleaner(t.config.IDColumn, t.config.NumericTextColumns...)
	frame = cleaner.Clean(frame)
	t.advance(StageCleaned, zap.Int64("corrected", cleaner.Stats().Corrected))

	split, err := SplitFrame(frame, SplitConfig{
		Target:        t.config.Target,
		PositiveLabel: t.config.PositiveLabel,
		TestSize:      t.config.TestSize,
		Seed:          t.config.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("split data: %w", err)
	}
	t.advance(StageSplit,
		zap.Int("train_rows", len(split.TrainY)),
		zap.Int("test_rows", len(split.TestY)),
		zap.Strings("numeric", split.Numeric),
		zap.Strings("categorical", split.Categorical),
	)

	forestOpts := []ml.RandomForestOption{
		ml.WithNEstimators(t.config.NEstimators),
		ml.WithMaxDepth(t.config.MaxDepth),
		ml.WithRandomState(t.config.Seed),
	}
	if t.config.MinSamplesSplit > 0 {
		forestOpts = append(forestOpts, ml.WithMinSamplesSplit(t.config.MinSamplesSplit))
	}
	artifact := ml.NewArtifact(
		ml.BuildTransformer(split.Numeric, split.Categorical),
		ml.NewRandomForest(forestOpts...),
		split.Labels.Negative,
		split.Labels.Positive,
	)
	t.advance(StageBuilt)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := artifact.Fit(split.TrainX, split.TrainY); err != nil {
		return nil, fmt.Errorf("fit model: %w", err)
	}
	t.advance(StageFitted, zap.Int("features", artifact.Transformer.Width()))

	metrics, confusion, err := evaluate(artifact, split)
	if err != nil {
		return nil, fmt.Errorf("evaluate model: %w", err)
	}
	t.advance(StageEvaluated,
		zap.Any("metrics", metrics),
		zap.Int("tp", confusion.TP),
		zap.Int("fp", confusion.FP),
		zap.Int("tn", confusion.TN),
		zap.Int("fn", confusion.FN),
	)

	if err := artifact.Save(t.config.ModelPath); err != nil {
		return nil, fmt.Errorf("save model: %w", err)
	}
	if err := ml.SaveMetrics(t.config.MetricsPath, metrics); err != nil {
		return nil, fmt.Errorf("save metrics: %w", err)
	}
	t.advance(StagePersisted,
		zap.String("model_path", t.config.ModelPath),
		zap.String("metrics_path", t.config.MetricsPath),
	)

	result := &Result{
		Metrics:   metrics,
		Confusion: confusion,
		Artifact:  artifact,
		TrainRows: len(split.TrainY),
		TestRows:  len(split.TestY),
		Duration:  time.Since(started),
	}
	if t.runs != nil {
		id, err := t.runs.RecordRun(ctx, db.Run{
			ModelPath: t.config.ModelPath,
			Metrics:   metrics,
			TrainRows: result.TrainRows,
			TestRows:  result.TestRows,
			Duration:  result.Duration,
		})
		if err != nil {
			zap.L().Warn("failed to record training run", zap.Error(err))
		} else {
			result.RunID = id
		}
	}
	return result, nil
}

func evaluate(artifact *ml.Artifact, split *Split) (ml.Metrics, ml.Confusion, error) {
	proba, err := artifact.PredictProba(split.TestX)
	if err != nil {
		return nil, ml.Confusion{}, err
	}
	pred, err := artifact.Predict(split.TestX)
	if err != nil {
		return nil, ml.Confusion{}, err
	}
	metrics, err := ml.Score(split.TestY, pred, proba)
	if err != nil {
		return nil, ml.Confusion{}, err
	}
	confusion, err := ml.ConfusionMatrix(split.TestY, pred)
	if err != nil {
		return nil, ml.Confusion{}, err
	}
	return metrics, confusion, nil
}
