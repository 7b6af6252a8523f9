package api

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/linesmerrill/secure-evidence-api/databases"
	"github.com/linesmerrill/secure-evidence-api/models"
)

// AuditRecorder appends one audit row for every request through an audited route
type AuditRecorder struct {
	DB  databases.AuditLogDatabase
	Now func() time.Time

	wg sync.WaitGroup
}

// NewAuditRecorder returns a recorder writing to db
func NewAuditRecorder(db databases.AuditLogDatabase) *AuditRecorder {
	return &AuditRecorder{DB: db, Now: time.Now}
}

// Audit wraps a route so that a row with the given action is written once the handler has
// finished, whatever its outcome. The write never delays or alters the response.
// Audit must wrap the authentication middleware so unauthenticated calls are recorded too.
func (a *AuditRecorder) Audit(action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, caller := withPrincipal(r.Context())
			r = r.WithContext(ctx)

			entry := models.AuditLog{
				Action:    action,
				Details:   r.Method + " " + r.URL.RequestURI(),
				IPAddress: clientIP(r),
				UserAgent: r.UserAgent(),
				RequestID: RequestIDFromContext(ctx),
			}
			defer func() {
				if caller.user != nil {
					id := caller.user.ID
					entry.User = &id
				}
				entry.Timestamp = a.Now()
				a.record(entry)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func (a *AuditRecorder) record(entry models.AuditLog) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := WithQueryTimeout(context.Background())
		defer cancel()
		if err := a.DB.InsertOne(ctx, &entry); err != nil {
			zap.S().Errorw("failed to write audit log",
				"action", entry.Action,
				"details", entry.Details,
				"requestId", entry.RequestID,
				"error", err)
		}
	}()
}

// Wait blocks until every pending audit write has finished
func (a *AuditRecorder) Wait() {
	a.wg.Wait()
}

// clientIP returns the first X-Forwarded-For hop, falling back to the connection's address
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if ip := strings.TrimSpace(strings.Split(fwd, ",")[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
