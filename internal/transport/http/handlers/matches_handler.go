package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	authsvc "github.com/brianYuDesign/suggar-daddy-sub006/internal/services/auth"
	matchessvc "github.com/brianYuDesign/suggar-daddy-sub006/internal/services/matches"
	"github.com/brianYuDesign/suggar-daddy-sub006/internal/transport/http/dto"
	httperrors "github.com/brianYuDesign/suggar-daddy-sub006/internal/transport/http/errors"
)

type MatchesHandler struct {
	service *matchessvc.Service
}

func NewMatchesHandler(service *matchessvc.Service) *MatchesHandler {
	return &MatchesHandler{service: service}
}

func (h *MatchesHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MATCH_SERVICE_UNAVAILABLE", "match service is unavailable")
		return
	}

	limit := parseIntOrDefault(r.URL.Query().Get("limit"), 0)

	var cursor *time.Time
	if raw := strings.TrimSpace(r.URL.Query().Get("cursor")); raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			writeBadRequest(w, "VALIDATION_ERROR", "cursor must be an RFC3339 timestamp")
			return
		}
		cursor = &parsed
	}

	page, err := h.service.List(r.Context(), identity.UserID, limit, cursor)
	if err != nil {
		if errors.Is(err, matchessvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid matches request")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to load matches")
		return
	}

	items := make([]dto.MatchItem, 0, len(page.Matches))
	for _, match := range page.Matches {
		partnerID := match.UserLowID
		if partnerID == identity.UserID {
			partnerID = match.UserHighID
		}
		items = append(items, dto.MatchItem{
			ID:        match.ID,
			PartnerID: partnerID,
			MatchedAt: match.MatchedAt,
		})
	}

	httperrors.Write(w, http.StatusOK, dto.MatchesResponse{
		Matches:    items,
		NextCursor: page.NextCursor,
	})
}

func (h *MatchesHandler) Unmatch(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MATCH_SERVICE_UNAVAILABLE", "match service is unavailable")
		return
	}

	var req dto.UnmatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if req.MatchID <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "match_id is required")
		return
	}

	result, err := h.service.Unmatch(r.Context(), identity.UserID, req.MatchID)
	if err != nil {
		if errors.Is(err, matchessvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid unmatch request")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to unmatch")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.UnmatchResponse{Success: result.Success})
}
