package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle state of a build run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// RunStats summarises what a build produced.
type RunStats struct {
	Seeds       int `json:"seeds"`
	Units       int `json:"units"`
	Accepted    int `json:"accepted"`
	Rejected    int `json:"rejected"`
	Samples     int `json:"samples"`
	FailedSeeds int `json:"failed_seeds"`
}

// Run is one recorded build.
type Run struct {
	ID         string     `json:"id"`
	Status     RunStatus  `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Stats      RunStats   `json:"stats"`
	Error      string     `json:"error,omitempty"`
}

const runColumns = "id, status, started_at, finished_at, seeds, units, accepted, rejected, samples, failed_seeds, error_message"

// StartRun records a new running build with a fresh identifier.
func (s *Store) StartRun(ctx context.Context) (*Run, error) {
	run := &Run{ID: uuid.NewString(), Status: RunRunning, StartedAt: s.now().UTC()}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO build_runs (id, status, started_at) VALUES (?, ?, ?)`,
		run.ID, string(run.Status), run.StartedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("start run: %w", err)
	}
	return run, nil
}

// FinishRun persists the final state of a run. A nil runErr marks success;
// context cancellation marks the run cancelled.
func (s *Store) FinishRun(ctx context.Context, run *Run, runErr error) error {
	if run == nil {
		return errors.New("run is nil")
	}
	finished := s.now().UTC()
	run.FinishedAt = &finished
	switch {
	case runErr == nil:
		run.Status = RunSucceeded
	case errors.Is(runErr, context.Canceled), errors.Is(runErr, context.DeadlineExceeded):
		run.Status = RunCancelled
		run.Error = runErr.Error()
	default:
		run.Status = RunFailed
		run.Error = runErr.Error()
	}
	// The build context may already be cancelled; bookkeeping still lands.
	ctx = context.WithoutCancel(ensureContext(ctx))
	_, err := s.execWithRetry(ctx,
		`UPDATE build_runs
         SET status = ?, finished_at = ?, seeds = ?, units = ?, accepted = ?, rejected = ?,
             samples = ?, failed_seeds = ?, error_message = ?
         WHERE id = ?`,
		string(run.Status),
		nullableTime(run.FinishedAt),
		run.Stats.Seeds,
		run.Stats.Units,
		run.Stats.Accepted,
		run.Stats.Rejected,
		run.Stats.Samples,
		run.Stats.FailedSeeds,
		nullableString(run.Error),
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", run.ID, err)
	}
	return nil
}

// GetRun fetches a run by id, or nil when unknown.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+runColumns+` FROM build_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT `+runColumns+` FROM build_runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// ResetStaleRuns marks runs left in the running state by a crashed process as
// failed and returns how many were updated.
func (s *Store) ResetStaleRuns(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE build_runs SET status = ?, finished_at = ?, error_message = ? WHERE status = ?`,
		string(RunFailed), s.timestamp(), "interrupted", string(RunRunning),
	)
	if err != nil {
		return 0, fmt.Errorf("reset stale runs: %w", err)
	}
	return res.RowsAffected()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run         Run
		status      string
		startedRaw  string
		finishedRaw sql.NullString
		errorMsg    sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&status,
		&startedRaw,
		&finishedRaw,
		&run.Stats.Seeds,
		&run.Stats.Units,
		&run.Stats.Accepted,
		&run.Stats.Rejected,
		&run.Stats.Samples,
		&run.Stats.FailedSeeds,
		&errorMsg,
	); err != nil {
		return nil, err
	}
	run.Status = RunStatus(status)
	run.Error = errorMsg.String
	if started, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			run.FinishedAt = &finished
		}
	}
	return &run, nil
}
