package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/brianYuDesign/suggar-daddy-sub006/internal/services/auth"
	decksvc "github.com/brianYuDesign/suggar-daddy-sub006/internal/services/decks"
	"github.com/brianYuDesign/suggar-daddy-sub006/internal/transport/http/dto"
	httperrors "github.com/brianYuDesign/suggar-daddy-sub006/internal/transport/http/errors"
)

type CardsHandler struct {
	service *decksvc.Service
}

func NewCardsHandler(service *decksvc.Service) *CardsHandler {
	return &CardsHandler{service: service}
}

func (h *CardsHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "DECK_SERVICE_UNAVAILABLE", "deck service is unavailable")
		return
	}

	limit := parseIntOrDefault(r.URL.Query().Get("limit"), 0)
	cards, err := h.service.GetCards(r.Context(), identity.UserID, limit)
	if err != nil {
		if errors.Is(err, decksvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid cards request")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to load cards")
		return
	}

	items := make([]dto.CardItem, 0, len(cards))
	for _, card := range cards {
		items = append(items, dto.CardItem{
			ID:          card.ID,
			DisplayName: card.DisplayName,
			Bio:         card.Bio,
			AvatarURL:   card.AvatarURL,
			Photos:      card.Photos,
			Age:         card.Age,
		})
	}

	httperrors.Write(w, http.StatusOK, dto.CardsResponse{Cards: items})
}
