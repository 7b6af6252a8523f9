package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
)

// CORS allows credentialed cross-origin calls from the listed origins and answers preflight
// requests before they reach the router
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			allowed[o] = true
		}
	}

	// an empty AllowedOrigins list means any origin to gorilla, so the list is checked here
	cors := handlers.CORS(
		handlers.AllowedOriginValidator(func(origin string) bool { return allowed[origin] }),
		handlers.AllowCredentials(),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type", "X-Request-ID"}),
		handlers.MaxAge(600),
		handlers.OptionStatusCode(http.StatusNoContent),
	)

	return func(next http.Handler) http.Handler {
		h := cors(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Vary", "Origin")
			h.ServeHTTP(w, r)
		})
	}
}
