package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SwipeRepo is the append-only swipe ledger. Rows are never updated or
// deleted; the UNIQUE (swiper_id, swiped_id) constraint makes the first
// recorded decision permanent.
type SwipeRepo struct {
	pool *pgxpool.Pool
}

func NewSwipeRepo(pool *pgxpool.Pool) *SwipeRepo {
	return &SwipeRepo{pool: pool}
}

type SwipeRecord struct {
	ID        int64
	SwiperID  int64
	SwipedID  int64
	Action    string
	CreatedAt time.Time
}

type IncomingLikerRecord struct {
	SwiperID    int64
	DisplayName string
	AvatarURL   string
	Age         int
	LikedAt     time.Time
}

// Record persists a swipe decision. When a row for the ordered pair already
// exists the insert is a no-op and already is true; recorded history never
// changes after the first write.
func (r *SwipeRepo) Record(ctx context.Context, tx pgx.Tx, swiperID, swipedID int64, action string, now time.Time) (SwipeRecord, bool, error) {
	if swiperID <= 0 || swipedID <= 0 || strings.TrimSpace(action) == "" {
		return SwipeRecord{}, false, fmt.Errorf("invalid swipe payload")
	}
	if tx == nil {
		return SwipeRecord{}, false, fmt.Errorf("transaction is required")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var rec SwipeRecord
	err := tx.QueryRow(ctx, `
INSERT INTO swipes (
	swiper_id,
	swiped_id,
	action,
	created_at
) VALUES ($1, $2, $3, $4)
ON CONFLICT (swiper_id, swiped_id) DO NOTHING
RETURNING id, swiper_id, swiped_id, action, created_at
`, swiperID, swipedID, action, now.UTC()).Scan(
		&rec.ID,
		&rec.SwiperID,
		&rec.SwipedID,
		&rec.Action,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SwipeRecord{}, true, nil
		}
		return SwipeRecord{}, false, fmt.Errorf("record swipe: %w", err)
	}

	return rec, false, nil
}

// HasLikeFrom reports whether from has a recorded like or super-like toward
// to. This is the ledger fallback behind the bounded like index.
func (r *SwipeRepo) HasLikeFrom(ctx context.Context, fromID, toID int64) (bool, error) {
	if fromID <= 0 || toID <= 0 {
		return false, fmt.Errorf("invalid like lookup payload")
	}
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	var one int
	err := r.pool.QueryRow(ctx, `
SELECT 1
FROM swipes
WHERE swiper_id = $1 AND swiped_id = $2 AND action IN ('LIKE', 'SUPERLIKE')
LIMIT 1
`, fromID, toID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lookup reciprocal like: %w", err)
	}

	return true, nil
}

// ListSwipedIDs returns every user the swiper has already decided on; the
// deck generator excludes these from candidate selection.
func (r *SwipeRepo) ListSwipedIDs(ctx context.Context, swiperID int64) ([]int64, error) {
	if swiperID <= 0 {
		return nil, fmt.Errorf("invalid swiper id")
	}
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT swiped_id
FROM swipes
WHERE swiper_id = $1
`, swiperID)
	if err != nil {
		return nil, fmt.Errorf("list swiped ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan swiped id: %w", err)
		}
		ids = append(ids, id)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate swiped ids: %w", rows.Err())
	}

	return ids, nil
}

func (r *SwipeRepo) CountIncomingLikers(ctx context.Context, userID int64) (int, error) {
	if userID <= 0 {
		return 0, fmt.Errorf("invalid user id")
	}
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var count int
	if err := r.pool.QueryRow(ctx, `
SELECT COUNT(*)
FROM swipes s
JOIN profiles p ON p.user_id = s.swiper_id
WHERE
	s.swiped_id = $1
	AND s.action IN ('LIKE', 'SUPERLIKE')
	AND NOT EXISTS (
		SELECT 1
		FROM matches m
		WHERE m.user_low_id = LEAST(s.swiper_id, $1::bigint)
			AND m.user_high_id = GREATEST(s.swiper_id, $1::bigint)
	)
`, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count incoming likers: %w", err)
	}

	return count, nil
}

// ListIncomingLikers returns profiles that liked the user and are not yet
// matched with them, most recent first.
func (r *SwipeRepo) ListIncomingLikers(ctx context.Context, userID int64, limit int) ([]IncomingLikerRecord, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}
	if limit <= 0 {
		limit = 50
	}
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT
	s.swiper_id,
	COALESCE(p.display_name, ''),
	COALESCE(p.avatar_url, ''),
	COALESCE(DATE_PART('year', AGE(NOW(), p.birthdate::timestamp))::int, 0),
	s.created_at
FROM swipes s
JOIN profiles p ON p.user_id = s.swiper_id
WHERE
	s.swiped_id = $1
	AND s.action IN ('LIKE', 'SUPERLIKE')
	AND NOT EXISTS (
		SELECT 1
		FROM matches m
		WHERE m.user_low_id = LEAST(s.swiper_id, $1::bigint)
			AND m.user_high_id = GREATEST(s.swiper_id, $1::bigint)
	)
ORDER BY s.created_at DESC, s.id DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list incoming likers: %w", err)
	}
	defer rows.Close()

	items := make([]IncomingLikerRecord, 0, limit)
	for rows.Next() {
		var rec IncomingLikerRecord
		if err := rows.Scan(
			&rec.SwiperID,
			&rec.DisplayName,
			&rec.AvatarURL,
			&rec.Age,
			&rec.LikedAt,
		); err != nil {
			return nil, fmt.Errorf("scan incoming liker: %w", err)
		}
		items = append(items, rec)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate incoming likers: %w", rows.Err())
	}

	return items, nil
}
