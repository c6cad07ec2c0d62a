package matches

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/brianYuDesign/suggar-daddy-sub006/internal/domain/enums"
	"github.com/brianYuDesign/suggar-daddy-sub006/internal/events"
	pgrepo "github.com/brianYuDesign/suggar-daddy-sub006/internal/repo/postgres"
)

type memoryMatchStore struct {
	rows map[int64]pgrepo.MatchRecord
}

func newMemoryMatchStore() *memoryMatchStore {
	return &memoryMatchStore{rows: make(map[int64]pgrepo.MatchRecord)}
}

func (m *memoryMatchStore) add(id, low, high int64, status string, matchedAt time.Time) {
	m.rows[id] = pgrepo.MatchRecord{
		ID:         id,
		UserLowID:  low,
		UserHighID: high,
		Status:     status,
		MatchedAt:  matchedAt,
	}
}

func (m *memoryMatchStore) GetByID(_ context.Context, _ pgx.Tx, matchID int64) (pgrepo.MatchRecord, error) {
	rec, ok := m.rows[matchID]
	if !ok {
		return pgrepo.MatchRecord{}, pgrepo.ErrMatchNotFound
	}
	return rec, nil
}

func (m *memoryMatchStore) MarkUnmatched(_ context.Context, _ pgx.Tx, matchID int64) error {
	rec, ok := m.rows[matchID]
	if !ok {
		return pgrepo.ErrMatchNotFound
	}
	rec.Status = string(enums.MatchStatusUnmatched)
	m.rows[matchID] = rec
	return nil
}

func (m *memoryMatchStore) ListActivePage(_ context.Context, userID int64, limit int, cursor *time.Time) ([]pgrepo.MatchRecord, error) {
	out := make([]pgrepo.MatchRecord, 0)
	for _, rec := range m.rows {
		if rec.Status != string(enums.MatchStatusActive) {
			continue
		}
		if rec.UserLowID != userID && rec.UserHighID != userID {
			continue
		}
		if cursor != nil && !rec.MatchedAt.Before(*cursor) {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MatchedAt.Equal(out[j].MatchedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].MatchedAt.After(out[j].MatchedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type captureRemovals struct {
	removed []events.MatchRemoved
}

func (p *captureRemovals) PublishMatchRemoved(ev events.MatchRemoved) error {
	p.removed = append(p.removed, ev)
	return nil
}

func newTestService(store *memoryMatchStore) *Service {
	service := NewService(nil, store, 50, nil)
	service.runTx = func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
		return fn(ctx, nil)
	}
	return service
}

func TestListPaginatesWithoutOverlap(t *testing.T) {
	store := newMemoryMatchStore()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := int64(1); i <= 7; i++ {
		store.add(i, 1, i+1, string(enums.MatchStatusActive), base.Add(time.Duration(i)*time.Minute))
	}

	service := newTestService(store)
	ctx := context.Background()

	seen := make(map[int64]bool)
	var cursor *time.Time
	pages := 0
	for {
		page, err := service.List(ctx, 1, 3, cursor)
		if err != nil {
			t.Fatalf("list page %d: %v", pages+1, err)
		}
		pages++

		for i, match := range page.Matches {
			if seen[match.ID] {
				t.Fatalf("match %d returned twice", match.ID)
			}
			seen[match.ID] = true
			if i > 0 && page.Matches[i-1].MatchedAt.Before(match.MatchedAt) {
				t.Fatalf("page %d not in descending matched_at order", pages)
			}
		}

		if page.NextCursor == nil {
			break
		}
		cursor = page.NextCursor
	}

	if len(seen) != 7 {
		t.Fatalf("expected all 7 matches exactly once, got %d", len(seen))
	}
	if pages != 3 {
		t.Fatalf("expected 3 pages for 7 matches at limit 3, got %d", pages)
	}
}

func TestListOmitsCursorOnFinalPage(t *testing.T) {
	store := newMemoryMatchStore()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := int64(1); i <= 3; i++ {
		store.add(i, 2, i+10, string(enums.MatchStatusActive), base.Add(time.Duration(i)*time.Minute))
	}

	service := newTestService(store)
	page, err := service.List(context.Background(), 2, 3, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Matches) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(page.Matches))
	}
	if page.NextCursor != nil {
		t.Fatalf("expected no cursor when the page is not full plus one")
	}
}

func TestListSkipsUnmatchedRows(t *testing.T) {
	store := newMemoryMatchStore()
	now := time.Now().UTC()
	store.add(1, 1, 2, string(enums.MatchStatusActive), now)
	store.add(2, 1, 3, string(enums.MatchStatusUnmatched), now.Add(time.Minute))

	service := newTestService(store)
	page, err := service.List(context.Background(), 1, 10, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Matches) != 1 || page.Matches[0].ID != 1 {
		t.Fatalf("expected only the active match, got %+v", page.Matches)
	}
}

func TestUnmatchHappyPath(t *testing.T) {
	store := newMemoryMatchStore()
	store.add(5, 1, 2, string(enums.MatchStatusActive), time.Now().UTC())
	publisher := &captureRemovals{}

	service := newTestService(store)
	service.AttachPublisher(publisher)

	result, err := service.Unmatch(context.Background(), 2, 5)
	if err != nil {
		t.Fatalf("unmatch: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success")
	}
	if store.rows[5].Status != string(enums.MatchStatusUnmatched) {
		t.Fatalf("expected status flipped, got %q", store.rows[5].Status)
	}
	if len(publisher.removed) != 1 || publisher.removed[0].MatchID != 5 {
		t.Fatalf("expected one removal event, got %+v", publisher.removed)
	}
}

func TestUnmatchSoftFailures(t *testing.T) {
	store := newMemoryMatchStore()
	store.add(5, 1, 2, string(enums.MatchStatusActive), time.Now().UTC())

	service := newTestService(store)
	ctx := context.Background()

	cases := []struct {
		name    string
		userID  int64
		matchID int64
	}{
		{"missing match", 1, 99},
		{"caller not a participant", 7, 5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := service.Unmatch(ctx, tc.userID, tc.matchID)
			if err != nil {
				t.Fatalf("unmatch: %v", err)
			}
			if result.Success {
				t.Fatalf("expected soft failure")
			}
		})
	}

	if store.rows[5].Status != string(enums.MatchStatusActive) {
		t.Fatalf("soft failures must not mutate the match")
	}
}

func TestUnmatchIsIdempotent(t *testing.T) {
	store := newMemoryMatchStore()
	store.add(5, 1, 2, string(enums.MatchStatusActive), time.Now().UTC())
	publisher := &captureRemovals{}

	service := newTestService(store)
	service.AttachPublisher(publisher)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		result, err := service.Unmatch(ctx, 1, 5)
		if err != nil {
			t.Fatalf("unmatch #%d: %v", i+1, err)
		}
		if !result.Success {
			t.Fatalf("unmatch #%d expected success", i+1)
		}
	}

	if len(publisher.removed) != 1 {
		t.Fatalf("expected exactly one removal event, got %d", len(publisher.removed))
	}
}

func TestUnmatchValidation(t *testing.T) {
	service := newTestService(newMemoryMatchStore())
	if _, err := service.Unmatch(context.Background(), 0, 5); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
