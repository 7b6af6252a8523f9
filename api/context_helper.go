package api

import (
	"context"
	"time"

	"github.com/linesmerrill/secure-evidence-api/models"
)

// QueryTimeout is the default timeout for database queries
const QueryTimeout = 10 * time.Second

// WithQueryTimeout creates a context with query timeout
func WithQueryTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, QueryTimeout)
}

type contextKey int

const (
	userKey contextKey = iota
	principalKey
	requestIDKey
)

// principal is shared by pointer between middlewares that run before authentication and the
// handlers after it, so an outer middleware can learn who the caller turned out to be
type principal struct {
	user *models.User
}

func withPrincipal(ctx context.Context) (context.Context, *principal) {
	p := &principal{}
	return context.WithValue(ctx, principalKey, p), p
}

// WithUser stores the authenticated user on the context
func WithUser(ctx context.Context, u *models.User) context.Context {
	if p, ok := ctx.Value(principalKey).(*principal); ok {
		p.user = u
	}
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the authenticated user, or nil for anonymous requests
func UserFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}

// WithRequestID stores the request id on the context
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request id assigned by the logging middleware
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
