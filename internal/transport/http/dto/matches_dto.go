package dto

import "time"

type MatchItem struct {
	ID        int64     `json:"id"`
	PartnerID int64     `json:"partner_id"`
	MatchedAt time.Time `json:"matched_at"`
}

type MatchesResponse struct {
	Matches    []MatchItem `json:"matches"`
	NextCursor *time.Time  `json:"next_cursor,omitempty"`
}

type UnmatchRequest struct {
	MatchID int64 `json:"match_id"`
}

type UnmatchResponse struct {
	Success bool `json:"success"`
}
