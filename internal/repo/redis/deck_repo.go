package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	goredis "github.com/redis/go-redis/v9"

	"github.com/brianYuDesign/suggar-daddy-sub006/internal/domain/model"
)

const (
	deckPrefix   = "cards:"
	servedPrefix = "cards_served:"
)

// DeckRepo stores each user's card deck as a redis list that is consumed
// front-to-back, plus a companion set of recently served candidate ids so a
// refill inside the same generation cycle does not re-queue cards the user
// has already been shown. Both keys share the deck expiry.
type DeckRepo struct {
	client *goredis.Client
}

func NewDeckRepo(client *goredis.Client) *DeckRepo {
	return &DeckRepo{client: client}
}

// Peek reads up to limit cards from the front of the deck without removing
// them.
func (r *DeckRepo) Peek(ctx context.Context, userID int64, limit int) ([]model.Card, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	if userID <= 0 || limit <= 0 {
		return nil, fmt.Errorf("invalid deck peek payload")
	}

	raw, err := r.client.LRange(ctx, deckKey(userID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read deck: %w", err)
	}

	cards := make([]model.Card, 0, len(raw))
	for _, item := range raw {
		var card model.Card
		if err := json.Unmarshal([]byte(item), &card); err != nil {
			return nil, fmt.Errorf("decode deck entry: %w", err)
		}
		cards = append(cards, card)
	}

	return cards, nil
}

// Append pushes a generated batch onto the back of the deck and bounds the
// deck's lifetime.
func (r *DeckRepo) Append(ctx context.Context, userID int64, cards []model.Card, ttl time.Duration) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if userID <= 0 || ttl <= 0 {
		return fmt.Errorf("invalid deck append payload")
	}
	if len(cards) == 0 {
		return nil
	}

	values := make([]interface{}, 0, len(cards))
	for _, card := range cards {
		data, err := json.Marshal(card)
		if err != nil {
			return fmt.Errorf("encode deck entry: %w", err)
		}
		values = append(values, data)
	}

	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, deckKey(userID), values...)
	pipe.Expire(ctx, deckKey(userID), ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append deck batch: %w", err)
	}

	return nil
}

// Consume drops the first served entries from the deck and remembers the
// served candidate ids for the rest of the generation cycle.
func (r *DeckRepo) Consume(ctx context.Context, userID int64, served []model.Card, ttl time.Duration) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if userID <= 0 || ttl <= 0 {
		return fmt.Errorf("invalid deck consume payload")
	}
	if len(served) == 0 {
		return nil
	}

	ids := make([]interface{}, 0, len(served))
	for _, card := range served {
		ids = append(ids, card.ID)
	}

	pipe := r.client.TxPipeline()
	pipe.LTrim(ctx, deckKey(userID), int64(len(served)), -1)
	pipe.SAdd(ctx, servedKey(userID), ids...)
	pipe.Expire(ctx, servedKey(userID), ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("consume deck entries: %w", err)
	}

	return nil
}

// ServedIDs returns candidate ids served during the current generation
// cycle. The set expires with the deck, after which those candidates become
// eligible again.
func (r *DeckRepo) ServedIDs(ctx context.Context, userID int64) ([]int64, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}

	raw, err := r.client.SMembers(ctx, servedKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("read served ids: %w", err)
	}

	ids := make([]int64, 0, len(raw))
	for _, item := range raw {
		id, err := strconv.ParseInt(item, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse served id %q: %w", item, err)
		}
		ids = append(ids, id)
	}

	return ids, nil
}

// Clear wipes the user's deck and served-id set; the next card request
// regenerates from scratch.
func (r *DeckRepo) Clear(ctx context.Context, userID int64) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if userID <= 0 {
		return fmt.Errorf("invalid user id")
	}

	if err := r.client.Del(ctx, deckKey(userID), servedKey(userID)).Err(); err != nil {
		return fmt.Errorf("clear deck: %w", err)
	}

	return nil
}

func deckKey(userID int64) string {
	return deckPrefix + strconv.FormatInt(userID, 10)
}

func servedKey(userID int64) string {
	return servedPrefix + strconv.FormatInt(userID, 10)
}
