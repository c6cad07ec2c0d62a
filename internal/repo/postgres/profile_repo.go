package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ProfileRepo is the adapter over the identity store's profile table. The
// engine only reads candidate attributes; profile writes belong to the
// identity service.
type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

type ProfileRecord struct {
	UserID       int64
	DisplayName  string
	Bio          string
	AvatarURL    string
	Photos       []string
	Birthdate    *time.Time
	LastActiveAt time.Time
}

// ListCandidates returns up to limit profiles eligible for the user's deck:
// everyone except the user and the excluded ids, most recently active first.
func (r *ProfileRepo) ListCandidates(ctx context.Context, excludeIDs []int64, selfID int64, limit int) ([]ProfileRecord, error) {
	if selfID <= 0 {
		return nil, fmt.Errorf("invalid self id")
	}
	if limit <= 0 {
		limit = 50
	}
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if excludeIDs == nil {
		excludeIDs = []int64{}
	}

	rows, err := r.pool.Query(ctx, `
SELECT
	user_id,
	COALESCE(display_name, ''),
	COALESCE(bio, ''),
	COALESCE(avatar_url, ''),
	COALESCE(photos, '{}'),
	birthdate,
	last_active_at
FROM profiles
WHERE user_id != $1
	AND NOT (user_id = ANY($2))
ORDER BY last_active_at DESC
LIMIT $3
`, selfID, excludeIDs, limit)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	items := make([]ProfileRecord, 0, limit)
	for rows.Next() {
		var rec ProfileRecord
		if err := rows.Scan(
			&rec.UserID,
			&rec.DisplayName,
			&rec.Bio,
			&rec.AvatarURL,
			&rec.Photos,
			&rec.Birthdate,
			&rec.LastActiveAt,
		); err != nil {
			return nil, fmt.Errorf("scan candidate profile: %w", err)
		}
		items = append(items, rec)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate candidates: %w", rows.Err())
	}

	return items, nil
}
