// Package realtime pushes events to connected users over Socket.IO and plain WebSockets.
// Sessions are grouped by user id; every session of a user receives each push.
package realtime

import (
	"net/http"
	"strings"
)

// TokenParser verifies a bearer token and returns the user id it was issued for
type TokenParser interface {
	ParseToken(token string) (string, error)
}

// requestToken reads the token from the query string, falling back to the Authorization header
func requestToken(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

// originChecker allows requests without an Origin header and those from allowed origins
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(o, "/")] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}
