package swipes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/brianYuDesign/suggar-daddy-sub006/internal/domain/enums"
	"github.com/brianYuDesign/suggar-daddy-sub006/internal/events"
	pgrepo "github.com/brianYuDesign/suggar-daddy-sub006/internal/repo/postgres"
	ratesvc "github.com/brianYuDesign/suggar-daddy-sub006/internal/services/rate"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrDependenciesNil = errors.New("swipe dependencies are not configured")
)

type TooFastError struct {
	RetryAfterSec int64
}

func (e TooFastError) Error() string {
	return "too fast"
}

func (e TooFastError) RetryAfter() int64 {
	if e.RetryAfterSec <= 0 {
		return 1
	}
	return e.RetryAfterSec
}

func IsTooFast(err error) (*TooFastError, bool) {
	var tf TooFastError
	if errors.As(err, &tf) {
		return &tf, true
	}
	return nil, false
}

type SwipeStore interface {
	Record(ctx context.Context, tx pgx.Tx, swiperID, swipedID int64, action string, now time.Time) (pgrepo.SwipeRecord, bool, error)
	HasLikeFrom(ctx context.Context, fromID, toID int64) (bool, error)
}

type MatchStore interface {
	CreateIfAbsent(ctx context.Context, tx pgx.Tx, userID, targetID int64, now time.Time) (pgrepo.MatchRecord, bool, error)
}

// LikeIndex is the ephemeral mirror of outgoing likes. It is a shortcut
// only; a miss or an error always falls back to the ledger.
type LikeIndex interface {
	Register(ctx context.Context, userID, targetID int64) error
	Contains(ctx context.Context, userID, targetID int64) (bool, error)
}

type DeckCache interface {
	Clear(ctx context.Context, userID int64) error
}

type MatchPublisher interface {
	PublishMatchCreated(ev events.MatchCreated) error
}

type Result struct {
	AlreadyRecorded bool
	Matched         bool
	MatchID         *int64
}

// Service records swipe decisions and drives match detection. The ledger
// write and the match insert run in separate transactions: the decision
// commits first, then detection runs against committed state, and the
// conflict-safe match insert absorbs the race when both directions complete
// the pair concurrently.
type Service struct {
	runTx       func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
	ledger      SwipeStore
	matches     MatchStore
	likeIndex   LikeIndex
	decks       DeckCache
	publisher   MatchPublisher
	rateLimiter *ratesvc.Limiter
	logger      *zap.Logger
	now         func() time.Time
}

func NewService(pool *pgxpool.Pool, ledger SwipeStore, matches MatchStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		ledger:  ledger,
		matches: matches,
		logger:  logger,
		now:     time.Now,
	}
	if pool != nil {
		s.runTx = func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
			return pgrepo.WithTx(ctx, pool, fn)
		}
	}
	return s
}

// AttachLikeIndex, AttachDecks, AttachPublisher and AttachRateLimiter wire
// optional collaborators; the service degrades without them.
func (s *Service) AttachLikeIndex(index LikeIndex) {
	s.likeIndex = index
}

func (s *Service) AttachDecks(decks DeckCache) {
	s.decks = decks
}

func (s *Service) AttachPublisher(publisher MatchPublisher) {
	s.publisher = publisher
}

func (s *Service) AttachRateLimiter(limiter *ratesvc.Limiter) {
	s.rateLimiter = limiter
}

// Status reports the wait before the caller may swipe again, read without
// consuming a rate slot. Zero means swiping is allowed right now, which is
// also the answer when no limiter is attached.
func (s *Service) Status(ctx context.Context, userID int64) (int64, error) {
	if userID <= 0 {
		return 0, ErrValidation
	}
	if s.rateLimiter == nil {
		return 0, nil
	}

	retryAfter, err := s.rateLimiter.RetryAfterSwipe(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("read swipe rate state: %w", err)
	}
	return retryAfter, nil
}

// Submit records one swipe and reports whether it completed a match.
// Repeated swipes for the same ordered pair are no-ops and never re-trigger
// detection.
func (s *Service) Submit(ctx context.Context, swiperID, swipedID int64, action enums.SwipeAction) (Result, error) {
	if swiperID <= 0 || swipedID <= 0 || swiperID == swipedID || !action.Valid() {
		return Result{}, ErrValidation
	}

	if s.rateLimiter != nil {
		retryAfter, allowed, err := s.rateLimiter.AllowSwipe(ctx, swiperID)
		if err != nil {
			return Result{}, fmt.Errorf("check swipe rate: %w", err)
		}
		if !allowed {
			return Result{}, TooFastError{RetryAfterSec: retryAfter}
		}
	}

	if s.runTx == nil || s.ledger == nil || s.matches == nil {
		return Result{}, ErrDependenciesNil
	}

	now := s.now().UTC()

	var already bool
	err := s.runTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		_, dup, recordErr := s.ledger.Record(txCtx, tx, swiperID, swipedID, string(action), now)
		if recordErr != nil {
			return recordErr
		}
		already = dup
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("record swipe: %w", err)
	}

	if already {
		return Result{AlreadyRecorded: true}, nil
	}
	if !action.IsInterest() {
		return Result{}, nil
	}

	s.registerLike(ctx, swiperID, swipedID)

	mutual, err := s.hasMutualInterest(ctx, swiperID, swipedID)
	if err != nil {
		return Result{}, err
	}
	if !mutual {
		return Result{}, nil
	}

	var (
		match   pgrepo.MatchRecord
		created bool
	)
	err = s.runTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		rec, fresh, createErr := s.matches.CreateIfAbsent(txCtx, tx, swiperID, swipedID, s.now().UTC())
		if createErr != nil {
			return createErr
		}
		match, created = rec, fresh
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("create match: %w", err)
	}

	// A pair that unmatched stays unmatched; a later mutual like reuses the
	// terminal row and does not resurrect the match.
	if !created && match.Status != string(enums.MatchStatusActive) {
		return Result{}, nil
	}

	if created {
		s.afterMatchCreated(ctx, match)
	}

	matchID := match.ID
	return Result{Matched: true, MatchID: &matchID}, nil
}

// hasMutualInterest checks the like index first and confirms against the
// ledger on a miss. The index is never trusted to say "no".
func (s *Service) hasMutualInterest(ctx context.Context, swiperID, swipedID int64) (bool, error) {
	if s.likeIndex != nil {
		hit, err := s.likeIndex.Contains(ctx, swipedID, swiperID)
		if err != nil {
			s.logger.Warn("like index lookup failed, falling back to ledger",
				zap.Int64("user_id", swipedID), zap.Error(err))
		} else if hit {
			return true, nil
		}
	}

	mutual, err := s.ledger.HasLikeFrom(ctx, swipedID, swiperID)
	if err != nil {
		return false, fmt.Errorf("check reciprocal like: %w", err)
	}
	return mutual, nil
}

func (s *Service) registerLike(ctx context.Context, swiperID, swipedID int64) {
	if s.likeIndex == nil {
		return
	}
	if err := s.likeIndex.Register(ctx, swiperID, swipedID); err != nil {
		s.logger.Warn("register like in index",
			zap.Int64("swiper_id", swiperID), zap.Error(err))
	}
}

// afterMatchCreated runs the post-commit side effects. The match row is
// already durable; failures here are logged and never unwind it.
func (s *Service) afterMatchCreated(ctx context.Context, match pgrepo.MatchRecord) {
	if s.publisher != nil {
		ev := events.MatchCreated{
			MatchID:    match.ID,
			UserLowID:  match.UserLowID,
			UserHighID: match.UserHighID,
			MatchedAt:  match.MatchedAt,
		}
		if err := s.publisher.PublishMatchCreated(ev); err != nil {
			s.logger.Error("publish match created event",
				zap.Int64("match_id", match.ID), zap.Error(err))
		}
	}

	if s.decks != nil {
		for _, userID := range []int64{match.UserLowID, match.UserHighID} {
			if err := s.decks.Clear(ctx, userID); err != nil {
				s.logger.Warn("invalidate deck after match",
					zap.Int64("user_id", userID), zap.Error(err))
			}
		}
	}
}
