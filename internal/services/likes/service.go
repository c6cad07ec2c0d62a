package likes

import (
	"context"
	"errors"
	"fmt"
	"time"

	pgrepo "github.com/brianYuDesign/suggar-daddy-sub006/internal/repo/postgres"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrDependenciesNil = errors.New("likes dependencies are not configured")
)

const maxIncomingLimit = 100

type IncomingStore interface {
	CountIncomingLikers(ctx context.Context, userID int64) (int, error)
	ListIncomingLikers(ctx context.Context, userID int64, limit int) ([]pgrepo.IncomingLikerRecord, error)
}

type IncomingLiker struct {
	UserID      int64
	DisplayName string
	AvatarURL   string
	Age         int
	LikedAt     time.Time
}

type IncomingResult struct {
	TotalCount int
	Likers     []IncomingLiker
}

// Service answers "who liked me": users with a recorded like toward the
// caller and no match for the pair yet.
type Service struct {
	store        IncomingStore
	defaultLimit int
}

func NewService(store IncomingStore, defaultLimit int) *Service {
	if defaultLimit <= 0 {
		defaultLimit = 20
	}

	return &Service{
		store:        store,
		defaultLimit: defaultLimit,
	}
}

func (s *Service) Incoming(ctx context.Context, userID int64, limit int) (IncomingResult, error) {
	if userID <= 0 {
		return IncomingResult{}, ErrValidation
	}
	if s.store == nil {
		return IncomingResult{}, ErrDependenciesNil
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > maxIncomingLimit {
		limit = maxIncomingLimit
	}

	total, err := s.store.CountIncomingLikers(ctx, userID)
	if err != nil {
		return IncomingResult{}, fmt.Errorf("count incoming likers: %w", err)
	}

	result := IncomingResult{
		TotalCount: total,
		Likers:     []IncomingLiker{},
	}
	if total == 0 {
		return result, nil
	}

	records, err := s.store.ListIncomingLikers(ctx, userID, limit)
	if err != nil {
		return IncomingResult{}, fmt.Errorf("list incoming likers: %w", err)
	}

	result.Likers = make([]IncomingLiker, 0, len(records))
	for _, rec := range records {
		result.Likers = append(result.Likers, IncomingLiker{
			UserID:      rec.SwiperID,
			DisplayName: rec.DisplayName,
			AvatarURL:   rec.AvatarURL,
			Age:         rec.Age,
			LikedAt:     rec.LikedAt,
		})
	}
	return result, nil
}
