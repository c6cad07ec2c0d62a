package dto

import "time"

type IncomingLikerItem struct {
	UserID      int64     `json:"user_id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Age         int       `json:"age,omitempty"`
	LikedAt     time.Time `json:"liked_at"`
}

type IncomingLikesResponse struct {
	TotalCount int                 `json:"total_count"`
	Likers     []IncomingLikerItem `json:"likers"`
}
