package store

import (
	"context"
	"fmt"
	"math"

	"phrasebook/internal/identity"
	"phrasebook/internal/registry"
)

var _ registry.DurationSource = (*Store)(nil)

// RecordDuration stores the rendered duration of a sample, replacing any
// earlier value.
func (s *Store) RecordDuration(ctx context.Context, id identity.ID, seconds float64) error {
	if _, ok := identity.RoleOf(id); !ok {
		return fmt.Errorf("record duration: %q is not a sample identifier", id)
	}
	if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return fmt.Errorf("record duration: %v is not a positive duration", seconds)
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO sample_durations (sample_id, duration_seconds, recorded_at) VALUES (?, ?, ?)
         ON CONFLICT(sample_id) DO UPDATE SET duration_seconds = excluded.duration_seconds, recorded_at = excluded.recorded_at`,
		string(id), seconds, s.timestamp(),
	)
	if err != nil {
		return fmt.Errorf("record duration %s: %w", id, err)
	}
	return nil
}

// ForgetDuration removes a stored duration so the sample is rendered again.
func (s *Store) ForgetDuration(ctx context.Context, id identity.ID) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM sample_durations WHERE sample_id = ?`, string(id))
	if err != nil {
		return false, fmt.Errorf("forget duration %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Durations returns every stored duration.
func (s *Store) Durations(ctx context.Context) (map[identity.ID]float64, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT sample_id, duration_seconds FROM sample_durations`)
	if err != nil {
		return nil, fmt.Errorf("list durations: %w", err)
	}
	defer rows.Close()

	out := make(map[identity.ID]float64)
	for rows.Next() {
		var id string
		var seconds float64
		if err := rows.Scan(&id, &seconds); err != nil {
			return nil, fmt.Errorf("scan duration: %w", err)
		}
		out[identity.ID(id)] = seconds
	}
	return out, rows.Err()
}
