package events

import (
	"fmt"
	"time"
)

// Topics shared with the surrounding platform. The matched/unmatched topics
// feed the notification pipeline; user.updated comes from the identity
// service.
const (
	TopicMatchCreated   = "matching.matched"
	TopicMatchRemoved   = "matching.unmatched"
	TopicProfileUpdated = "user.updated"
)

// MatchCreated is published exactly once per match creation.
type MatchCreated struct {
	MatchID    int64     `json:"match_id"`
	UserLowID  int64     `json:"user_low_id"`
	UserHighID int64     `json:"user_high_id"`
	MatchedAt  time.Time `json:"matched_at"`
}

func (e MatchCreated) Validate() error {
	if e.MatchID <= 0 {
		return fmt.Errorf("match_id is required")
	}
	if e.UserLowID <= 0 || e.UserHighID <= 0 {
		return fmt.Errorf("both user ids are required")
	}
	if e.UserLowID >= e.UserHighID {
		return fmt.Errorf("user ids must be in canonical order")
	}
	if e.MatchedAt.IsZero() {
		return fmt.Errorf("matched_at is required")
	}
	return nil
}

// MatchRemoved is published when a participant unmatches.
type MatchRemoved struct {
	MatchID    int64 `json:"match_id"`
	UserLowID  int64 `json:"user_low_id"`
	UserHighID int64 `json:"user_high_id"`
}

func (e MatchRemoved) Validate() error {
	if e.MatchID <= 0 {
		return fmt.Errorf("match_id is required")
	}
	if e.UserLowID <= 0 || e.UserHighID <= 0 {
		return fmt.Errorf("both user ids are required")
	}
	return nil
}

// ProfileUpdated arrives when a user edits their own profile; the engine
// reacts by invalidating that user's deck.
type ProfileUpdated struct {
	UserID int64 `json:"user_id"`
}

func (e ProfileUpdated) Validate() error {
	if e.UserID <= 0 {
		return fmt.Errorf("user_id is required")
	}
	return nil
}
