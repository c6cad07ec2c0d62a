package decks

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/brianYuDesign/suggar-daddy-sub006/internal/domain/model"
	pgrepo "github.com/brianYuDesign/suggar-daddy-sub006/internal/repo/postgres"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrDependenciesNil = errors.New("deck dependencies are not configured")
)

type DeckStore interface {
	Peek(ctx context.Context, userID int64, limit int) ([]model.Card, error)
	Append(ctx context.Context, userID int64, cards []model.Card, ttl time.Duration) error
	Consume(ctx context.Context, userID int64, served []model.Card, ttl time.Duration) error
	ServedIDs(ctx context.Context, userID int64) ([]int64, error)
	Clear(ctx context.Context, userID int64) error
}

type ProfileStore interface {
	ListCandidates(ctx context.Context, excludeIDs []int64, selfID int64, limit int) ([]pgrepo.ProfileRecord, error)
}

type SwipedStore interface {
	ListSwipedIDs(ctx context.Context, swiperID int64) ([]int64, error)
}

type Config struct {
	BatchSize    int
	DeckTTL      time.Duration
	DefaultLimit int
}

// Service serves each user a consumable deck of candidate cards. The deck
// lives in the cache with a bounded TTL; reads are destructive, so a card is
// handed out at most once per generation cycle. A cache outage degrades to
// reading candidates straight from the profile store, uncached; a profile
// store outage degrades to whatever is already cached, possibly nothing.
type Service struct {
	decks    DeckStore
	profiles ProfileStore
	ledger   SwipedStore
	cfg      Config
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(decks DeckStore, profiles ProfileStore, ledger SwipedStore, cfg Config, logger *zap.Logger) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.DeckTTL <= 0 {
		cfg.DeckTTL = 5 * time.Minute
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		decks:    decks,
		profiles: profiles,
		ledger:   ledger,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// GetCards returns up to limit cards from the user's deck, refilling it from
// the profile store when depleted. Served cards are consumed from the deck
// and excluded from refills for the rest of the generation cycle.
func (s *Service) GetCards(ctx context.Context, userID int64, limit int) ([]model.Card, error) {
	if userID <= 0 {
		return nil, ErrValidation
	}
	if s.decks == nil || s.profiles == nil || s.ledger == nil {
		return nil, ErrDependenciesNil
	}
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}
	if limit > s.cfg.BatchSize {
		limit = s.cfg.BatchSize
	}

	cards, err := s.decks.Peek(ctx, userID, limit)
	if err != nil {
		s.logger.Warn("deck cache unavailable, reading candidates directly",
			zap.Int64("user_id", userID), zap.Error(err))
		return s.directRead(ctx, userID, limit), nil
	}

	if len(cards) < limit {
		cards = s.refill(ctx, userID, limit, cards)
	}

	if len(cards) > limit {
		cards = cards[:limit]
	}
	if len(cards) == 0 {
		return []model.Card{}, nil
	}

	if err := s.decks.Consume(ctx, userID, cards, s.cfg.DeckTTL); err != nil {
		s.logger.Warn("consume served deck entries",
			zap.Int64("user_id", userID), zap.Error(err))
	}

	return cards, nil
}

// Invalidate drops the user's deck so the next request regenerates it.
func (s *Service) Invalidate(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return ErrValidation
	}
	if s.decks == nil {
		return ErrDependenciesNil
	}
	return s.decks.Clear(ctx, userID)
}

// refill appends a fresh candidate batch and re-reads the deck. Any failure
// along the way degrades to the cards already cached; an empty deck is a
// valid, recoverable answer.
func (s *Service) refill(ctx context.Context, userID int64, limit int, cached []model.Card) []model.Card {
	exclude, ok := s.excludedIDs(ctx, userID, cached)
	if !ok {
		return cached
	}

	candidates, err := s.profiles.ListCandidates(ctx, exclude, userID, s.cfg.BatchSize)
	if err != nil {
		s.logger.Warn("candidate query failed, serving cached deck",
			zap.Int64("user_id", userID), zap.Error(err))
		return cached
	}
	if len(candidates) == 0 {
		return cached
	}

	batch := make([]model.Card, 0, len(candidates))
	now := s.now().UTC()
	for _, p := range candidates {
		batch = append(batch, cardFromProfile(p, now))
	}

	if err := s.decks.Append(ctx, userID, batch, s.cfg.DeckTTL); err != nil {
		s.logger.Warn("append deck batch failed, serving batch uncached",
			zap.Int64("user_id", userID), zap.Error(err))
		return append(cached, batch...)
	}

	cards, err := s.decks.Peek(ctx, userID, limit)
	if err != nil {
		s.logger.Warn("re-read deck after refill",
			zap.Int64("user_id", userID), zap.Error(err))
		return cached
	}
	return cards
}

// directRead serves candidates straight from the profile store while the
// deck cache is unreachable. Nothing is cached or consumed, so the same
// candidates may reappear until the cache recovers; swiped users are still
// excluded.
func (s *Service) directRead(ctx context.Context, userID int64, limit int) []model.Card {
	swiped, err := s.ledger.ListSwipedIDs(ctx, userID)
	if err != nil {
		s.logger.Warn("swiped ids query failed during direct read",
			zap.Int64("user_id", userID), zap.Error(err))
		return []model.Card{}
	}

	candidates, err := s.profiles.ListCandidates(ctx, swiped, userID, limit)
	if err != nil {
		s.logger.Warn("candidate query failed during direct read",
			zap.Int64("user_id", userID), zap.Error(err))
		return []model.Card{}
	}

	now := s.now().UTC()
	cards := make([]model.Card, 0, len(candidates))
	for _, p := range candidates {
		cards = append(cards, cardFromProfile(p, now))
	}
	return cards
}

// excludedIDs gathers everyone ineligible for the refill batch: already
// swiped users from the ledger, candidates served earlier in this cycle,
// and cards still sitting in the deck.
func (s *Service) excludedIDs(ctx context.Context, userID int64, cached []model.Card) ([]int64, bool) {
	swiped, err := s.ledger.ListSwipedIDs(ctx, userID)
	if err != nil {
		s.logger.Warn("swiped ids query failed, serving cached deck",
			zap.Int64("user_id", userID), zap.Error(err))
		return nil, false
	}

	exclude := make([]int64, 0, len(swiped)+len(cached))
	exclude = append(exclude, swiped...)
	for _, card := range cached {
		exclude = append(exclude, card.ID)
	}

	served, err := s.decks.ServedIDs(ctx, userID)
	if err != nil {
		s.logger.Warn("served ids lookup failed, refilling without them",
			zap.Int64("user_id", userID), zap.Error(err))
	} else {
		exclude = append(exclude, served...)
	}

	return exclude, true
}

func cardFromProfile(p pgrepo.ProfileRecord, now time.Time) model.Card {
	card := model.Card{
		ID:          p.UserID,
		DisplayName: p.DisplayName,
		Bio:         p.Bio,
		AvatarURL:   p.AvatarURL,
		Photos:      p.Photos,
	}
	if p.Birthdate != nil {
		age := wholeYears(*p.Birthdate, now)
		card.Age = &age
	}
	return card
}

func wholeYears(birthdate, now time.Time) int {
	years := now.Year() - birthdate.Year()
	anniversary := birthdate.AddDate(years, 0, 0)
	if anniversary.After(now) {
		years--
	}
	if years < 0 {
		years = 0
	}
	return years
}
