package decks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/brianYuDesign/suggar-daddy-sub006/internal/domain/model"
	pgrepo "github.com/brianYuDesign/suggar-daddy-sub006/internal/repo/postgres"
	redrepo "github.com/brianYuDesign/suggar-daddy-sub006/internal/repo/redis"
)

type fakeProfiles struct {
	candidates []pgrepo.ProfileRecord
	calls      int
	lastExcl   []int64
	failErr    error
}

func (f *fakeProfiles) ListCandidates(_ context.Context, excludeIDs []int64, selfID int64, limit int) ([]pgrepo.ProfileRecord, error) {
	f.calls++
	f.lastExcl = excludeIDs
	if f.failErr != nil {
		return nil, f.failErr
	}

	excluded := make(map[int64]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = true
	}

	out := make([]pgrepo.ProfileRecord, 0, limit)
	for _, p := range f.candidates {
		if p.UserID == selfID || excluded[p.UserID] {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type fakeLedger struct {
	swiped  []int64
	failErr error
}

func (f *fakeLedger) ListSwipedIDs(_ context.Context, _ int64) ([]int64, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	return f.swiped, nil
}

type stubDeckStore struct {
	peekCards  []model.Card
	peekErr    error
	appendErr  error
	consumeErr error
	servedErr  error
}

func (s *stubDeckStore) Peek(_ context.Context, _ int64, _ int) ([]model.Card, error) {
	return s.peekCards, s.peekErr
}

func (s *stubDeckStore) Append(_ context.Context, _ int64, _ []model.Card, _ time.Duration) error {
	return s.appendErr
}

func (s *stubDeckStore) Consume(_ context.Context, _ int64, _ []model.Card, _ time.Duration) error {
	return s.consumeErr
}

func (s *stubDeckStore) ServedIDs(_ context.Context, _ int64) ([]int64, error) {
	return nil, s.servedErr
}

func (s *stubDeckStore) Clear(_ context.Context, _ int64) error {
	return nil
}

func profiles(ids ...int64) []pgrepo.ProfileRecord {
	out := make([]pgrepo.ProfileRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, pgrepo.ProfileRecord{
			UserID:      id,
			DisplayName: "user",
		})
	}
	return out
}

func newDeckEnv(t *testing.T) (*miniredis.Miniredis, *redrepo.DeckRepo) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, redrepo.NewDeckRepo(client)
}

func TestGetCardsServesEachCandidateOnce(t *testing.T) {
	_, deckRepo := newDeckEnv(t)
	store := &fakeProfiles{candidates: profiles(2, 3, 4, 5, 6)}
	service := NewService(deckRepo, store, &fakeLedger{}, Config{}, nil)

	ctx := context.Background()
	userID := int64(1)

	cards, err := service.GetCards(ctx, userID, 10)
	if err != nil {
		t.Fatalf("first get cards: %v", err)
	}
	if len(cards) != 5 {
		t.Fatalf("expected 5 cards, got %d", len(cards))
	}

	// Every candidate was served and consumed; the next request must not
	// re-serve any of them within the same generation cycle.
	cards, err = service.GetCards(ctx, userID, 10)
	if err != nil {
		t.Fatalf("second get cards: %v", err)
	}
	if len(cards) != 0 {
		t.Fatalf("expected empty deck on second read, got %d cards", len(cards))
	}
}

func TestGetCardsLimitSlicesDeck(t *testing.T) {
	_, deckRepo := newDeckEnv(t)
	store := &fakeProfiles{candidates: profiles(2, 3, 4, 5, 6)}
	service := NewService(deckRepo, store, &fakeLedger{}, Config{}, nil)

	ctx := context.Background()
	userID := int64(1)

	cards, err := service.GetCards(ctx, userID, 2)
	if err != nil {
		t.Fatalf("get cards: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(cards))
	}
	first, second := cards[0].ID, cards[1].ID

	cards, err = service.GetCards(ctx, userID, 2)
	if err != nil {
		t.Fatalf("second get cards: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("expected 2 more cards, got %d", len(cards))
	}
	for _, card := range cards {
		if card.ID == first || card.ID == second {
			t.Fatalf("card %d served twice", card.ID)
		}
	}
}

func TestGetCardsExcludesSwipedUsers(t *testing.T) {
	_, deckRepo := newDeckEnv(t)
	store := &fakeProfiles{candidates: profiles(2, 3, 4)}
	ledger := &fakeLedger{swiped: []int64{2, 4}}
	service := NewService(deckRepo, store, ledger, Config{}, nil)

	cards, err := service.GetCards(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("get cards: %v", err)
	}
	if len(cards) != 1 || cards[0].ID != 3 {
		t.Fatalf("expected only unswiped candidate 3, got %+v", cards)
	}
}

func TestGetCardsDegradesOnCandidateFailure(t *testing.T) {
	_, deckRepo := newDeckEnv(t)
	store := &fakeProfiles{failErr: errors.New("postgres down")}
	service := NewService(deckRepo, store, &fakeLedger{}, Config{}, nil)

	cards, err := service.GetCards(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("expected graceful degradation, got %v", err)
	}
	if len(cards) != 0 {
		t.Fatalf("expected empty deck, got %d cards", len(cards))
	}
}

func TestGetCardsDegradesOnLedgerFailure(t *testing.T) {
	_, deckRepo := newDeckEnv(t)
	store := &fakeProfiles{candidates: profiles(2, 3)}
	ledger := &fakeLedger{failErr: errors.New("postgres down")}
	service := NewService(deckRepo, store, ledger, Config{}, nil)

	cards, err := service.GetCards(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("expected graceful degradation, got %v", err)
	}
	if len(cards) != 0 {
		t.Fatalf("expected empty deck, got %d cards", len(cards))
	}
	if store.calls != 0 {
		t.Fatalf("refill must not run without the swiped id set")
	}
}

func TestGetCardsReadsDirectlyWhenCacheDown(t *testing.T) {
	cacheDown := errors.New("redis down")
	decks := &stubDeckStore{peekErr: cacheDown, appendErr: cacheDown, consumeErr: cacheDown, servedErr: cacheDown}
	store := &fakeProfiles{candidates: profiles(2, 3, 4)}
	ledger := &fakeLedger{swiped: []int64{3}}
	service := NewService(decks, store, ledger, Config{}, nil)

	cards, err := service.GetCards(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("expected direct read, got %v", err)
	}
	if store.calls != 1 {
		t.Fatalf("expected one candidate query, got %d", store.calls)
	}
	if len(cards) != 2 || cards[0].ID != 2 || cards[1].ID != 4 {
		t.Fatalf("expected unswiped candidates 2 and 4, got %+v", cards)
	}
}

func TestGetCardsServesBatchWhenAppendFails(t *testing.T) {
	decks := &stubDeckStore{appendErr: errors.New("redis write failed")}
	store := &fakeProfiles{candidates: profiles(2, 3)}
	service := NewService(decks, store, &fakeLedger{}, Config{}, nil)

	cards, err := service.GetCards(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("expected uncached batch, got %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("expected 2 cards despite append failure, got %d", len(cards))
	}
}

func TestInvalidateForcesRegeneration(t *testing.T) {
	mr, deckRepo := newDeckEnv(t)
	store := &fakeProfiles{candidates: profiles(2, 3, 4)}
	service := NewService(deckRepo, store, &fakeLedger{}, Config{}, nil)

	ctx := context.Background()
	userID := int64(1)

	if _, err := service.GetCards(ctx, userID, 1); err != nil {
		t.Fatalf("get cards: %v", err)
	}
	if store.calls != 1 {
		t.Fatalf("expected one refill, got %d", store.calls)
	}

	if err := service.Invalidate(ctx, userID); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if mr.Exists("cards:1") || mr.Exists("cards_served:1") {
		t.Fatalf("expected deck keys dropped")
	}

	cards, err := service.GetCards(ctx, userID, 10)
	if err != nil {
		t.Fatalf("get cards after invalidate: %v", err)
	}
	if store.calls != 2 {
		t.Fatalf("expected second refill after invalidate, got %d calls", store.calls)
	}
	if len(cards) != 3 {
		t.Fatalf("expected full candidate set after invalidate, got %d", len(cards))
	}
}

func TestWholeYears(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		birth time.Time
		want  int
	}{
		{"birthday passed", time.Date(1990, 3, 10, 0, 0, 0, 0, time.UTC), 36},
		{"birthday today", time.Date(1990, 8, 31, 0, 0, 0, 0, time.UTC), 36},
		{"birthday upcoming", time.Date(1990, 12, 1, 0, 0, 0, 0, time.UTC), 35},
		{"future birthdate clamps", time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := wholeYears(tc.birth, now); got != tc.want {
				t.Fatalf("wholeYears(%s) = %d, want %d", tc.birth.Format("2006-01-02"), got, tc.want)
			}
		})
	}
}
