package model

// Card is the cache-only projection of a candidate profile served from a
// user's deck. It is regenerated on demand and never persisted.
type Card struct {
	ID          int64    `json:"id"`
	DisplayName string   `json:"display_name"`
	Bio         string   `json:"bio,omitempty"`
	AvatarURL   string   `json:"avatar_url,omitempty"`
	Photos      []string `json:"photos"`
	Age         *int     `json:"age,omitempty"`
}
