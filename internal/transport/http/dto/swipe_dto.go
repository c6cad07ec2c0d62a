package dto

type SwipeRequest struct {
	TargetID int64  `json:"target_id"`
	Action   string `json:"action"`
}

type SwipeStatusResponse struct {
	RetryAfterSec int64 `json:"retry_after_sec"`
}

type SwipeResponse struct {
	OK              bool   `json:"ok"`
	AlreadyRecorded bool   `json:"already_recorded"`
	Matched         bool   `json:"matched"`
	MatchID         *int64 `json:"match_id,omitempty"`
}
