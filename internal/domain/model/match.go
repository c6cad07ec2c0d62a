package model

import (
	"time"

	"github.com/brianYuDesign/suggar-daddy-sub006/internal/domain/enums"
)

// Match is the canonical record for an unordered user pair:
// UserLowID < UserHighID always holds, whichever direction completed it.
type Match struct {
	ID         int64             `json:"id"`
	UserLowID  int64             `json:"user_low_id"`
	UserHighID int64             `json:"user_high_id"`
	Status     enums.MatchStatus `json:"status"`
	MatchedAt  time.Time         `json:"matched_at"`
}

// CanonicalPair orders two user ids so both directions map to one key.
func CanonicalPair(a, b int64) (low, high int64) {
	if a > b {
		return b, a
	}
	return a, b
}
