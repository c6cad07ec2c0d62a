package auth

import (
	"errors"
	"time"
)

var ErrUnauthorized = errors.New("unauthorized")

// AccessClaims is the verified content of a bearer token. Tokens are issued
// by the identity service; the engine only verifies them.
type AccessClaims struct {
	UserID    int64
	SID       string
	Role      string
	ExpiresAt time.Time
}
