package dto

type CardItem struct {
	ID          int64    `json:"id"`
	DisplayName string   `json:"display_name"`
	Bio         string   `json:"bio,omitempty"`
	AvatarURL   string   `json:"avatar_url,omitempty"`
	Photos      []string `json:"photos,omitempty"`
	Age         *int     `json:"age,omitempty"`
}

type CardsResponse struct {
	Cards []CardItem `json:"cards"`
}
