package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Run is one completed training run.
type Run struct {
	ID        string             `json:"id"`
	ModelPath string             `json:"model_path"`
	Metrics   map[string]float64 `json:"metrics"`
	TrainRows int                `json:"train_rows"`
	TestRows  int                `json:"test_rows"`
	Duration  time.Duration      `json:"duration"`
	TrainedAt time.Time          `json:"trained_at"`
}

// RunStore keeps the training history in SQLite.
type RunStore struct {
	db *sql.DB
}

// Open opens (or creates) the run history database at path.
func Open(path string) (*RunStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open run store %s: %w", path, err)
	}
	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}
	return &RunStore{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
    CREATE TABLE IF NOT EXISTS training_log (
        id TEXT PRIMARY KEY,
        model_path TEXT NOT NULL,
        accuracy REAL,
        precision REAL,
        recall REAL,
        f1 REAL,
        roc_auc REAL,
        train_rows INTEGER,
        test_rows INTEGER,
        duration_ms INTEGER,
        trained_at DATETIME NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_training_log_trained_at ON training_log(trained_at);
    `)
	return err
}

// RecordRun inserts run, assigning an ID and timestamp when they are empty.
func (s *RunStore) RecordRun(ctx context.Context, run Run) (string, error) {
	if s == nil || s.db == nil {
		return "", errors.New("run store not initialized")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.TrainedAt.IsZero() {
		run.TrainedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
        INSERT INTO training_log (
            id, model_path, accuracy, precision, recall, f1, roc_auc,
            train_rows, test_rows, duration_ms, trained_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.ModelPath,
		metric(run.Metrics, "accuracy"),
		metric(run.Metrics, "precision"),
		metric(run.Metrics, "recall"),
		metric(run.Metrics, "f1"),
		metric(run.Metrics, "roc_auc"),
		run.TrainRows,
		run.TestRows,
		run.Duration.Milliseconds(),
		run.TrainedAt,
	)
	if err != nil {
		return "", fmt.Errorf("record run %s: %w", run.ID, err)
	}
	return run.ID, nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *RunStore) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("run store not initialized")
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, model_path, accuracy, precision, recall, f1, roc_auc,
               train_rows, test_rows, duration_ms, trained_at
        FROM training_log
        ORDER BY trained_at DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var run Run
		var accuracy, precision, recall, f1, auc sql.NullFloat64
		var durationMS int64
		if err := rows.Scan(&run.ID, &run.ModelPath, &accuracy, &precision, &recall, &f1, &auc,
			&run.TrainRows, &run.TestRows, &durationMS, &run.TrainedAt); err != nil {
			return nil, err
		}
		run.Duration = time.Duration(durationMS) * time.Millisecond
		run.Metrics = make(map[string]float64)
		for name, value := range map[string]sql.NullFloat64{
			"accuracy": accuracy, "precision": precision, "recall": recall, "f1": f1, "roc_auc": auc,
		} {
			if value.Valid {
				run.Metrics[name] = value.Float64
			}
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *RunStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func metric(metrics map[string]float64, name string) sql.NullFloat64 {
	value, ok := metrics[name]
	return sql.NullFloat64{Float64: value, Valid: ok}
}
