package internal

import (
	"context"
	"time"
)

type ctxKey string

const contextUserKey ctxKey = "sessionUser"

// SessionUser is the authenticated caller resolved by the auth middleware.
type SessionUser struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Nama  string `json:"nama"`
	Role  string `json:"role"`
}

func UserFromContext(ctx context.Context) (*SessionUser, bool) {
	if ctx == nil {
		return nil, false
	}
	u, ok := ctx.Value(contextUserKey).(*SessionUser)
	return u, ok
}

func ContextWithUser(ctx context.Context, u *SessionUser) context.Context {
	return context.WithValue(ctx, contextUserKey, u)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
