package api

import (
	"encoding/json"
	"net/http"

	"github.com/linesmerrill/secure-evidence-api/models"
)

// HealthCheckHandler reports that the process is up. It does not touch the database.
func HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(models.HealthCheckResponse{Alive: true})
}

// WriteJSON marshals v and writes it with the given status code
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"Response":{"Message":"failed to marshal response"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}
