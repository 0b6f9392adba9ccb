package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLiteRunRepository implements RunRepository for SQLite.
type SQLiteRunRepository struct {
	db *sql.DB
}

func NewSQLiteRunRepository(db *sql.DB) *SQLiteRunRepository {
	return &SQLiteRunRepository{db: db}
}

func (r *SQLiteRunRepository) CreateRun(ctx context.Context, run Run) error {
	if run.Status == "" {
		run.Status = StatusRunning
	}
	query := `
		INSERT INTO runs (id, started_at, status, mode, workers, participants, objects, lights, texture_size, frames, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		run.ID, run.StartedAt.UTC(), run.Status, run.Mode, run.Workers, run.Participants,
		run.Objects, run.Lights, run.TextureSize, run.Frames, run.Detail,
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

func (r *SQLiteRunRepository) FinishRun(ctx context.Context, runID, status, detail string, at time.Time) error {
	query := `UPDATE runs SET status = ?, detail = ?, finished_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, status, detail, at.UTC(), runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, ErrRunNotFound)
	}
	return nil
}

const runColumns = `id, started_at, finished_at, status, mode, workers, participants, objects, lights, texture_size, frames, detail`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(s rowScanner) (Run, error) {
	var run Run
	var finished sql.NullTime
	err := s.Scan(
		&run.ID, &run.StartedAt, &finished, &run.Status, &run.Mode, &run.Workers,
		&run.Participants, &run.Objects, &run.Lights, &run.TextureSize, &run.Frames, &run.Detail,
	)
	if err != nil {
		return run, err
	}
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return run, nil
}

func (r *SQLiteRunRepository) GetRun(ctx context.Context, runID string) (*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = ?`
	run, err := scanRun(r.db.QueryRowContext(ctx, query, runID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get run %s: %w", runID, ErrRunNotFound)
		}
		return nil, err
	}
	return &run, nil
}

func (r *SQLiteRunRepository) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ---------------------------------------------------------
// SQLiteFrameRepository
// ---------------------------------------------------------

type SQLiteFrameRepository struct {
	db *sql.DB
}

func NewSQLiteFrameRepository(db *sql.DB) *SQLiteFrameRepository {
	return &SQLiteFrameRepository{db: db}
}

func (r *SQLiteFrameRepository) AppendFrame(ctx context.Context, timing FrameTiming) error {
	query := `
		INSERT INTO frame_timings (event_id, run_id, frame, duration_ns, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		timing.EventID, timing.RunID, timing.Frame, int64(timing.Duration), timing.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to append frame timing: %w", err)
	}
	return nil
}

func (r *SQLiteFrameRepository) GetFrames(ctx context.Context, runID string) ([]FrameTiming, error) {
	query := `SELECT event_id, run_id, frame, duration_ns, timestamp FROM frame_timings WHERE run_id = ? ORDER BY frame ASC`
	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var frames []FrameTiming
	for rows.Next() {
		var f FrameTiming
		var ns int64
		if err := rows.Scan(&f.EventID, &f.RunID, &f.Frame, &ns, &f.Timestamp); err != nil {
			return nil, err
		}
		f.Duration = time.Duration(ns)
		frames = append(frames, f)
	}
	return frames, rows.Err()
}
