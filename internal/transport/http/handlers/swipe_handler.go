package handlers

import (
	"errors"
	"net/http"

	"github.com/brianYuDesign/suggar-daddy-sub006/internal/domain/enums"
	authsvc "github.com/brianYuDesign/suggar-daddy-sub006/internal/services/auth"
	swipesvc "github.com/brianYuDesign/suggar-daddy-sub006/internal/services/swipes"
	"github.com/brianYuDesign/suggar-daddy-sub006/internal/transport/http/dto"
	httperrors "github.com/brianYuDesign/suggar-daddy-sub006/internal/transport/http/errors"
)

type SwipeHandler struct {
	service *swipesvc.Service
}

func NewSwipeHandler(service *swipesvc.Service) *SwipeHandler {
	return &SwipeHandler{service: service}
}

// Status tells the client how long to wait before the next swipe without
// charging the rate windows.
func (h *SwipeHandler) Status(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "SWIPE_SERVICE_UNAVAILABLE", "swipe service is unavailable")
		return
	}

	retryAfter, err := h.service.Status(r.Context(), identity.UserID)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to read swipe status")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.SwipeStatusResponse{RetryAfterSec: retryAfter})
}

func (h *SwipeHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "SWIPE_SERVICE_UNAVAILABLE", "swipe service is unavailable")
		return
	}

	var req dto.SwipeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if req.TargetID <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "target_id is required")
		return
	}
	action, ok := enums.ParseSwipeAction(req.Action)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "unsupported action")
		return
	}

	result, err := h.service.Submit(r.Context(), identity.UserID, req.TargetID, action)
	if err != nil {
		switch {
		case errors.Is(err, swipesvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid swipe request")
		default:
			if tf, ok := swipesvc.IsTooFast(err); ok {
				httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
					Code:          "TOO_FAST",
					Message:       "too many swipes, slow down",
					RetryAfterSec: tf.RetryAfter(),
				})
				return
			}
			writeInternal(w, "INTERNAL_ERROR", "failed to process swipe")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.SwipeResponse{
		OK:              true,
		AlreadyRecorded: result.AlreadyRecorded,
		Matched:         result.Matched,
		MatchID:         result.MatchID,
	})
}
