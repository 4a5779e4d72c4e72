package batch

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PostgresRepo persists batch progress in the ingest_batches table, so
// progress survives restarts and is inspectable across replicas. All
// counter updates are single UPDATE statements; the database serializes
// concurrent completions.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Create(ctx context.Context, p *Progress) error {
	query := `INSERT INTO ingest_batches (id, total, status) VALUES ($1, $2, $3) RETURNING created_at`
	return r.db.QueryRowContext(ctx, query, p.BatchID, p.Total, string(p.Status)).Scan(&p.CreatedAt)
}

func (r *PostgresRepo) Get(ctx context.Context, batchID string) (*Progress, error) {
	query := `SELECT id, total, processed, current_tasks, percent_complete, status, error, failures, created_at
		FROM ingest_batches WHERE id = $1`
	return r.scanProgress(r.db.QueryRowContext(ctx, query, batchID))
}

func (r *PostgresRepo) TaskStarted(ctx context.Context, batchID string) error {
	query := `UPDATE ingest_batches SET current_tasks = current_tasks + 1 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, batchID)
	if err != nil {
		return err
	}
	return checkFound(res)
}

func (r *PostgresRepo) TaskFinished(ctx context.Context, batchID string, failure *Failure) (*Progress, error) {
	failuresJSON := []byte("[]")
	if failure != nil {
		var err error
		failuresJSON, err = json.Marshal([]Failure{*failure})
		if err != nil {
			return nil, fmt.Errorf("marshal failure: %w", err)
		}
	}

	// processed on the right-hand side refers to the pre-update value.
	query := `UPDATE ingest_batches
		SET processed = processed + 1,
		    current_tasks = current_tasks - 1,
		    percent_complete = (processed + 1)::float / total * 100,
		    failures = failures || $2::jsonb
		WHERE id = $1
		RETURNING id, total, processed, current_tasks, percent_complete, status, error, failures, created_at`
	return r.scanProgress(r.db.QueryRowContext(ctx, query, batchID, failuresJSON))
}

func (r *PostgresRepo) Finalize(ctx context.Context, batchID string, status Status, errMsg string) error {
	query := `UPDATE ingest_batches
		SET status = $2,
		    error = $3,
		    percent_complete = CASE WHEN $2 = 'completed' THEN 100.0 ELSE percent_complete END
		WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, batchID, string(status), errMsg)
	if err != nil {
		return err
	}
	return checkFound(res)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *PostgresRepo) scanProgress(row rowScanner) (*Progress, error) {
	p := &Progress{}
	var status string
	var failures []byte
	err := row.Scan(&p.BatchID, &p.Total, &p.Processed, &p.CurrentTasks, &p.PercentComplete,
		&status, &p.Error, &failures, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	p.Status = Status(status)
	if len(failures) > 0 {
		if err := json.Unmarshal(failures, &p.Failures); err != nil {
			return nil, fmt.Errorf("unmarshal failures: %w", err)
		}
	}
	return p, nil
}

func checkFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
