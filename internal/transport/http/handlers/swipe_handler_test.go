package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	redrepo "github.com/brianYuDesign/suggar-daddy-sub006/internal/repo/redis"
	authsvc "github.com/brianYuDesign/suggar-daddy-sub006/internal/services/auth"
	ratesvc "github.com/brianYuDesign/suggar-daddy-sub006/internal/services/rate"
	swipesvc "github.com/brianYuDesign/suggar-daddy-sub006/internal/services/swipes"
)

func TestSwipeHandlerReturnsTooFastOnBurst(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	redisClient := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer func() { _ = redisClient.Close() }()

	rateLimiter := ratesvc.NewLimiter(redrepo.NewRateRepo(redisClient), 100, 2)
	svc := swipesvc.NewService(nil, nil, nil, nil)
	svc.AttachRateLimiter(rateLimiter)

	h := NewSwipeHandler(svc)

	for i := 0; i < 2; i++ {
		_ = performSwipeRequest(t, h, 1000+int64(i), "LIKE")
	}

	resp := performSwipeRequest(t, h, 1002, "LIKE")
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("unexpected status on third swipe: got %d want %d", resp.Code, http.StatusTooManyRequests)
	}

	var payload struct {
		Code          string `json:"code"`
		RetryAfterSec int64  `json:"retry_after_sec"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Code != "TOO_FAST" {
		t.Fatalf("unexpected error code: got %q want %q", payload.Code, "TOO_FAST")
	}
	if payload.RetryAfterSec <= 0 {
		t.Fatalf("expected positive retry_after_sec, got %d", payload.RetryAfterSec)
	}
}

func TestSwipeStatusReportsRetryAfterWithoutCharging(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	redisClient := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer func() { _ = redisClient.Close() }()

	rateLimiter := ratesvc.NewLimiter(redrepo.NewRateRepo(redisClient), 100, 2)
	svc := swipesvc.NewService(nil, nil, nil, nil)
	svc.AttachRateLimiter(rateLimiter)

	h := NewSwipeHandler(svc)

	status := func() int64 {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, "/v1/swipes/status", nil)
		req = req.WithContext(authsvc.WithIdentity(context.Background(), authsvc.Identity{
			UserID: 101,
			SID:    "sid-101",
			Role:   "user",
		}))
		rec := httptest.NewRecorder()
		h.Status(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("unexpected status code: got %d want %d", rec.Code, http.StatusOK)
		}
		var payload struct {
			RetryAfterSec int64 `json:"retry_after_sec"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		return payload.RetryAfterSec
	}

	if got := status(); got != 0 {
		t.Fatalf("expected no wait before any swipes, got %d", got)
	}

	for i := 0; i < 2; i++ {
		_ = performSwipeRequest(t, h, 2000+int64(i), "LIKE")
	}

	if got := status(); got <= 0 {
		t.Fatalf("expected positive wait after burst, got %d", got)
	}

	// Reading the status must not consume a slot: the wait stays bounded by
	// the ten second window no matter how often it is polled.
	if got := status(); got <= 0 || got > 10 {
		t.Fatalf("expected wait within the burst window, got %d", got)
	}
}

func TestSwipeHandlerRejectsAnonymousRequest(t *testing.T) {
	h := NewSwipeHandler(nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/swipes", bytes.NewReader([]byte(`{"target_id":2,"action":"LIKE"}`)))
	rec := httptest.NewRecorder()
	h.Handle(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSwipeHandlerValidation(t *testing.T) {
	svc := swipesvc.NewService(nil, nil, nil, nil)
	h := NewSwipeHandler(svc)

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"unknown field", `{"target_id":2,"action":"LIKE","admin":true}`},
		{"missing target", `{"action":"LIKE"}`},
		{"unsupported action", `{"target_id":2,"action":"WINK"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/swipes", bytes.NewReader([]byte(tc.body)))
			req = req.WithContext(authsvc.WithIdentity(context.Background(), authsvc.Identity{
				UserID: 101,
				SID:    "sid-101",
				Role:   "user",
			}))
			rec := httptest.NewRecorder()
			h.Handle(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func performSwipeRequest(t *testing.T, h *SwipeHandler, targetID int64, action string) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(map[string]any{
		"target_id": targetID,
		"action":    action,
	})
	if err != nil {
		t.Fatalf("marshal request body: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/swipes", bytes.NewReader(body))
	req = req.WithContext(authsvc.WithIdentity(context.Background(), authsvc.Identity{
		UserID: 101,
		SID:    "sid-101",
		Role:   "user",
	}))
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	return rec
}
