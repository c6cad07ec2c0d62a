package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/brianYuDesign/suggar-daddy-sub006/internal/services/auth"
	likessvc "github.com/brianYuDesign/suggar-daddy-sub006/internal/services/likes"
	"github.com/brianYuDesign/suggar-daddy-sub006/internal/transport/http/dto"
	httperrors "github.com/brianYuDesign/suggar-daddy-sub006/internal/transport/http/errors"
)

type LikesHandler struct {
	service *likessvc.Service
}

func NewLikesHandler(service *likessvc.Service) *LikesHandler {
	return &LikesHandler{service: service}
}

func (h *LikesHandler) Incoming(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "LIKES_SERVICE_UNAVAILABLE", "likes service is unavailable")
		return
	}

	limit := parseIntOrDefault(r.URL.Query().Get("limit"), 0)
	result, err := h.service.Incoming(r.Context(), identity.UserID, limit)
	if err != nil {
		if errors.Is(err, likessvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid likes request")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to load incoming likes")
		return
	}

	items := make([]dto.IncomingLikerItem, 0, len(result.Likers))
	for _, liker := range result.Likers {
		items = append(items, dto.IncomingLikerItem{
			UserID:      liker.UserID,
			DisplayName: liker.DisplayName,
			AvatarURL:   liker.AvatarURL,
			Age:         liker.Age,
			LikedAt:     liker.LikedAt,
		})
	}

	httperrors.Write(w, http.StatusOK, dto.IncomingLikesResponse{
		TotalCount: result.TotalCount,
		Likers:     items,
	})
}
