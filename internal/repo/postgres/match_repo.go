package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brianYuDesign/suggar-daddy-sub006/internal/domain/model"
)

var ErrMatchNotFound = errors.New("match not found")

// MatchRepo owns the canonical-pair match registry. The UNIQUE
// (user_low_id, user_high_id) constraint covers both statuses, so for any
// unordered pair at most one row ever exists.
type MatchRepo struct {
	pool *pgxpool.Pool
}

func NewMatchRepo(pool *pgxpool.Pool) *MatchRepo {
	return &MatchRepo{pool: pool}
}

type MatchRecord struct {
	ID         int64
	UserLowID  int64
	UserHighID int64
	Status     string
	MatchedAt  time.Time
}

// CreateIfAbsent canonicalizes the pair and inserts a new active match, or
// returns the existing row when one is already there. Concurrent triggers
// from opposite swipe directions converge on the same row through the
// uniqueness constraint; the caller sees created=false instead of a
// constraint violation.
func (r *MatchRepo) CreateIfAbsent(ctx context.Context, tx pgx.Tx, userID, targetID int64, now time.Time) (MatchRecord, bool, error) {
	if userID <= 0 || targetID <= 0 || userID == targetID {
		return MatchRecord{}, false, fmt.Errorf("invalid match payload")
	}
	if tx == nil {
		return MatchRecord{}, false, fmt.Errorf("transaction is required")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	low, high := model.CanonicalPair(userID, targetID)

	var rec MatchRecord
	err := tx.QueryRow(ctx, `
INSERT INTO matches (
	user_low_id,
	user_high_id,
	status,
	matched_at
) VALUES ($1, $2, 'active', $3)
ON CONFLICT (user_low_id, user_high_id) DO NOTHING
RETURNING id, user_low_id, user_high_id, status, matched_at
`, low, high, now.UTC()).Scan(
		&rec.ID,
		&rec.UserLowID,
		&rec.UserHighID,
		&rec.Status,
		&rec.MatchedAt,
	)
	if err == nil {
		return rec, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return MatchRecord{}, false, fmt.Errorf("create match: %w", err)
	}

	// Lost the insert to an existing row; return it instead.
	err = tx.QueryRow(ctx, `
SELECT id, user_low_id, user_high_id, status, matched_at
FROM matches
WHERE user_low_id = $1 AND user_high_id = $2
`, low, high).Scan(
		&rec.ID,
		&rec.UserLowID,
		&rec.UserHighID,
		&rec.Status,
		&rec.MatchedAt,
	)
	if err != nil {
		return MatchRecord{}, false, fmt.Errorf("load existing match: %w", err)
	}

	return rec, false, nil
}

func (r *MatchRepo) GetByID(ctx context.Context, tx pgx.Tx, matchID int64) (MatchRecord, error) {
	if matchID <= 0 {
		return MatchRecord{}, fmt.Errorf("invalid match id")
	}
	if tx == nil {
		return MatchRecord{}, fmt.Errorf("transaction is required")
	}

	var rec MatchRecord
	err := tx.QueryRow(ctx, `
SELECT id, user_low_id, user_high_id, status, matched_at
FROM matches
WHERE id = $1
FOR UPDATE
`, matchID).Scan(
		&rec.ID,
		&rec.UserLowID,
		&rec.UserHighID,
		&rec.Status,
		&rec.MatchedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MatchRecord{}, ErrMatchNotFound
		}
		return MatchRecord{}, fmt.Errorf("get match by id: %w", err)
	}

	return rec, nil
}

// MarkUnmatched flips the row to unmatched. The row is kept so that history
// and the pair-level uniqueness check survive.
func (r *MatchRepo) MarkUnmatched(ctx context.Context, tx pgx.Tx, matchID int64) error {
	if matchID <= 0 {
		return fmt.Errorf("invalid match id")
	}
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}

	result, err := tx.Exec(ctx, `
UPDATE matches
SET status = 'unmatched'
WHERE id = $1
`, matchID)
	if err != nil {
		return fmt.Errorf("mark match unmatched: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrMatchNotFound
	}

	return nil
}

// ListActivePage returns up to limit active matches for the user, newest
// first. With a cursor only rows strictly older than it qualify, so a row
// sitting exactly on the boundary is never served twice.
func (r *MatchRepo) ListActivePage(ctx context.Context, userID int64, limit int, cursor *time.Time) ([]MatchRecord, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}
	if limit <= 0 {
		limit = 50
	}
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	query := `
SELECT id, user_low_id, user_high_id, status, matched_at
FROM matches
WHERE (user_low_id = $1 OR user_high_id = $1)
	AND status = 'active'
`
	args := []any{userID}
	if cursor != nil {
		query += "	AND matched_at < $2\n"
		args = append(args, cursor.UTC())
	}
	query += fmt.Sprintf("ORDER BY matched_at DESC, id DESC\nLIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list active matches: %w", err)
	}
	defer rows.Close()

	items := make([]MatchRecord, 0, limit)
	for rows.Next() {
		var rec MatchRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.UserLowID,
			&rec.UserHighID,
			&rec.Status,
			&rec.MatchedAt,
		); err != nil {
			return nil, fmt.Errorf("scan active match: %w", err)
		}
		items = append(items, rec)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate active matches: %w", rows.Err())
	}

	return items, nil
}
