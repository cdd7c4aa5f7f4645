package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"phrasebook/internal/basket"
	"phrasebook/internal/curriculum"
)

// StoredBasket is a persisted basket with bookkeeping columns.
type StoredBasket struct {
	*basket.Basket
	ContentHash string
	RunID       string
	UpdatedAt   time.Time
}

const basketColumns = "unit_id, state, phrases_json, distribution, report_json, content_hash, run_id, updated_at"

// SaveBasket upserts the evaluated basket of a unit and reports whether its
// content or state changed since the last save.
func (s *Store) SaveBasket(ctx context.Context, runID string, b *basket.Basket) (bool, error) {
	if b == nil {
		return false, errors.New("basket is nil")
	}
	phrases, err := json.Marshal(b.Phrases)
	if err != nil {
		return false, fmt.Errorf("marshal phrases: %w", err)
	}
	distribution, err := json.Marshal(b.Distribution)
	if err != nil {
		return false, fmt.Errorf("marshal distribution: %w", err)
	}
	var report []byte
	if b.Report != nil {
		if report, err = json.Marshal(b.Report); err != nil {
			return false, fmt.Errorf("marshal report: %w", err)
		}
	}
	hash := contentHash(b.State, phrases)

	var previous string
	err = s.db.QueryRowContext(ensureContext(ctx), `SELECT content_hash FROM baskets WHERE unit_id = ?`, string(b.Unit)).Scan(&previous)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("read basket hash: %w", err)
	}

	_, err = s.execWithRetry(ctx,
		`INSERT INTO baskets (`+basketColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(unit_id) DO UPDATE SET
             state = excluded.state, phrases_json = excluded.phrases_json,
             distribution = excluded.distribution, report_json = excluded.report_json,
             content_hash = excluded.content_hash, run_id = excluded.run_id,
             updated_at = excluded.updated_at`,
		string(b.Unit),
		string(b.State),
		string(phrases),
		string(distribution),
		nullableString(string(report)),
		hash,
		nullableString(runID),
		s.timestamp(),
	)
	if err != nil {
		return false, fmt.Errorf("save basket %s: %w", b.Unit, err)
	}
	return previous != hash, nil
}

// GetBasket returns the stored basket of a unit, or nil when none exists.
func (s *Store) GetBasket(ctx context.Context, unit curriculum.UnitID) (*StoredBasket, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+basketColumns+` FROM baskets WHERE unit_id = ?`, string(unit))
	stored, err := scanBasket(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get basket: %w", err)
	}
	return stored, nil
}

// ListBaskets returns stored baskets ordered by unit id, optionally filtered
// by state.
func (s *Store) ListBaskets(ctx context.Context, states ...basket.State) ([]*StoredBasket, error) {
	query := `SELECT ` + basketColumns + ` FROM baskets`
	args := make([]any, 0, len(states))
	if len(states) > 0 {
		query += ` WHERE state IN (` + makePlaceholders(len(states)) + `)`
		for _, st := range states {
			args = append(args, string(st))
		}
	}
	query += ` ORDER BY unit_id`

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list baskets: %w", err)
	}
	defer rows.Close()

	var out []*StoredBasket
	for rows.Next() {
		stored, err := scanBasket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan basket: %w", err)
		}
		out = append(out, stored)
	}
	return out, rows.Err()
}

// BasketStats counts stored baskets per state.
func (s *Store) BasketStats(ctx context.Context) (map[basket.State]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT state, COUNT(1) FROM baskets GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("basket stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[basket.State]int)
	for rows.Next() {
		var state basket.State
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return nil, err
		}
		stats[state] = count
	}
	return stats, rows.Err()
}

// PruneBaskets removes baskets of units that are no longer part of the
// course and returns how many rows were deleted.
func (s *Store) PruneBaskets(ctx context.Context, keep []curriculum.UnitID) (int64, error) {
	if len(keep) == 0 {
		res, err := s.execWithRetry(ctx, `DELETE FROM baskets`)
		if err != nil {
			return 0, fmt.Errorf("prune baskets: %w", err)
		}
		return res.RowsAffected()
	}
	args := make([]any, len(keep))
	for i, unit := range keep {
		args[i] = string(unit)
	}
	res, err := s.execWithRetry(ctx, `DELETE FROM baskets WHERE unit_id NOT IN (`+makePlaceholders(len(keep))+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("prune baskets: %w", err)
	}
	return res.RowsAffected()
}

func scanBasket(scanner interface{ Scan(dest ...any) error }) (*StoredBasket, error) {
	var (
		unitID       string
		state        string
		phrasesJSON  string
		distribution string
		reportJSON   sql.NullString
		hash         string
		runID        sql.NullString
		updatedRaw   string
	)
	if err := scanner.Scan(&unitID, &state, &phrasesJSON, &distribution, &reportJSON, &hash, &runID, &updatedRaw); err != nil {
		return nil, err
	}
	b := &basket.Basket{Unit: curriculum.UnitID(unitID), State: basket.State(state)}
	if err := json.Unmarshal([]byte(phrasesJSON), &b.Phrases); err != nil {
		return nil, fmt.Errorf("decode phrases of %s: %w", unitID, err)
	}
	if err := json.Unmarshal([]byte(distribution), &b.Distribution); err != nil {
		return nil, fmt.Errorf("decode distribution of %s: %w", unitID, err)
	}
	if reportJSON.Valid {
		b.Report = &basket.Report{}
		if err := json.Unmarshal([]byte(reportJSON.String), b.Report); err != nil {
			return nil, fmt.Errorf("decode report of %s: %w", unitID, err)
		}
	}
	stored := &StoredBasket{Basket: b, ContentHash: hash, RunID: runID.String}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		stored.UpdatedAt = updated
	}
	return stored, nil
}

func contentHash(state basket.State, phrases []byte) string {
	h := sha256.New()
	_, _ = h.Write([]byte(state))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write(phrases)
	return hex.EncodeToString(h.Sum(nil))
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
