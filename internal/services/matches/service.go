package matches

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/brianYuDesign/suggar-daddy-sub006/internal/domain/enums"
	"github.com/brianYuDesign/suggar-daddy-sub006/internal/domain/model"
	"github.com/brianYuDesign/suggar-daddy-sub006/internal/events"
	pgrepo "github.com/brianYuDesign/suggar-daddy-sub006/internal/repo/postgres"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrDependenciesNil = errors.New("match dependencies are not configured")
)

type MatchStore interface {
	GetByID(ctx context.Context, tx pgx.Tx, matchID int64) (pgrepo.MatchRecord, error)
	MarkUnmatched(ctx context.Context, tx pgx.Tx, matchID int64) error
	ListActivePage(ctx context.Context, userID int64, limit int, cursor *time.Time) ([]pgrepo.MatchRecord, error)
}

type RemovalPublisher interface {
	PublishMatchRemoved(ev events.MatchRemoved) error
}

type Page struct {
	Matches    []model.Match
	NextCursor *time.Time
}

type UnmatchResult struct {
	Success bool
}

type Service struct {
	runTx        func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
	store        MatchStore
	publisher    RemovalPublisher
	defaultLimit int
	logger       *zap.Logger
}

func NewService(pool *pgxpool.Pool, store MatchStore, defaultLimit int, logger *zap.Logger) *Service {
	if defaultLimit <= 0 {
		defaultLimit = 50
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		store:        store,
		defaultLimit: defaultLimit,
		logger:       logger,
	}
	if pool != nil {
		s.runTx = func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
			return pgrepo.WithTx(ctx, pool, fn)
		}
	}
	return s
}

func (s *Service) AttachPublisher(publisher RemovalPublisher) {
	s.publisher = publisher
}

// List pages through the user's active matches, newest first. One extra row
// is fetched to decide whether another page exists; the cursor is the
// matched_at of the last returned row, and the next page starts strictly
// before it.
func (s *Service) List(ctx context.Context, userID int64, limit int, cursor *time.Time) (Page, error) {
	if userID <= 0 {
		return Page{}, ErrValidation
	}
	if s.store == nil {
		return Page{}, ErrDependenciesNil
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}

	rows, err := s.store.ListActivePage(ctx, userID, limit+1, cursor)
	if err != nil {
		return Page{}, fmt.Errorf("list active matches: %w", err)
	}

	page := Page{}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1].MatchedAt
		page.NextCursor = &last
	}

	page.Matches = make([]model.Match, 0, len(rows))
	for _, rec := range rows {
		page.Matches = append(page.Matches, model.Match{
			ID:         rec.ID,
			UserLowID:  rec.UserLowID,
			UserHighID: rec.UserHighID,
			Status:     enums.MatchStatus(rec.Status),
			MatchedAt:  rec.MatchedAt,
		})
	}
	return page, nil
}

// Unmatch soft-deletes a match on behalf of one of its participants. A
// missing match or a caller outside the pair reports success=false rather
// than an error, so retries stay harmless. Repeating an unmatch succeeds
// without publishing a second event.
func (s *Service) Unmatch(ctx context.Context, userID, matchID int64) (UnmatchResult, error) {
	if userID <= 0 || matchID <= 0 {
		return UnmatchResult{}, ErrValidation
	}
	if s.runTx == nil || s.store == nil {
		return UnmatchResult{}, ErrDependenciesNil
	}

	var (
		match   pgrepo.MatchRecord
		removed bool
		success bool
	)
	err := s.runTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		rec, getErr := s.store.GetByID(txCtx, tx, matchID)
		if getErr != nil {
			if errors.Is(getErr, pgrepo.ErrMatchNotFound) {
				return nil
			}
			return getErr
		}
		if rec.UserLowID != userID && rec.UserHighID != userID {
			return nil
		}

		match = rec
		success = true
		if rec.Status != string(enums.MatchStatusActive) {
			return nil
		}

		if markErr := s.store.MarkUnmatched(txCtx, tx, matchID); markErr != nil {
			return markErr
		}
		removed = true
		return nil
	})
	if err != nil {
		return UnmatchResult{}, fmt.Errorf("unmatch: %w", err)
	}

	if removed && s.publisher != nil {
		ev := events.MatchRemoved{
			MatchID:    match.ID,
			UserLowID:  match.UserLowID,
			UserHighID: match.UserHighID,
		}
		if err := s.publisher.PublishMatchRemoved(ev); err != nil {
			s.logger.Error("publish match removed event",
				zap.Int64("match_id", match.ID), zap.Error(err))
		}
	}

	return UnmatchResult{Success: success}, nil
}
