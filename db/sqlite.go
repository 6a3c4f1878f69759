package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Ledger records offline training runs. The serving path never opens it.
type Ledger struct {
	db *sql.DB
}

// TrainingRun is one row of the training_log table.
type TrainingRun struct {
	ID         int64
	ModelName  string
	ModelPath  string
	Accuracy   float64
	LogLoss    float64
	Boundary   sql.NullFloat64
	DataPoints int
	TrainedAt  time.Time
}

// OpenLedger opens (creating if needed) the sqlite ledger at path.
func OpenLedger(path string) (*Ledger, error) {
	database, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	query := `
    CREATE TABLE IF NOT EXISTS training_log (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        model_name VARCHAR(50) NOT NULL,
        model_path TEXT NOT NULL,
        accuracy REAL,
        log_loss REAL,
        boundary REAL,
        data_points INTEGER,
        trained_at DATETIME NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_training_log_trained_at ON training_log(trained_at);
    `
	if _, err := database.Exec(query); err != nil {
		database.Close()
		return nil, err
	}
	return &Ledger{db: database}, nil
}

// RecordTraining appends run and returns its row id.
func (l *Ledger) RecordTraining(ctx context.Context, run TrainingRun) (int64, error) {
	if run.ModelName == "" {
		return 0, errors.New("model name is required")
	}
	if run.TrainedAt.IsZero() {
		run.TrainedAt = time.Now().UTC()
	}

	result, err := l.db.ExecContext(ctx, `
        INSERT INTO training_log (model_name, model_path, accuracy, log_loss, boundary, data_points, trained_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ModelName, run.ModelPath, run.Accuracy, run.LogLoss, run.Boundary, run.DataPoints, run.TrainedAt)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// RecentTrainings returns up to limit runs, newest first.
func (l *Ledger) RecentTrainings(ctx context.Context, limit int) ([]TrainingRun, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := l.db.QueryContext(ctx, `
        SELECT id, model_name, model_path, accuracy, log_loss, boundary, data_points, trained_at
        FROM training_log
        ORDER BY trained_at DESC, id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []TrainingRun
	for rows.Next() {
		var run TrainingRun
		if err := rows.Scan(&run.ID, &run.ModelName, &run.ModelPath, &run.Accuracy, &run.LogLoss,
			&run.Boundary, &run.DataPoints, &run.TrainedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (l *Ledger) Close() error {
	return l.db.Close()
}
