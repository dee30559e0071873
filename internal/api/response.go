package api

import (
	"encoding/json"
	"net/http"

	"github.com/luca-finance/luca/internal/logger"
)

// Response is the JSON envelope for all API responses.
type Response struct {
	Data  any    `json:"data"`
	Error string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(Response{Data: data}); err != nil {
		log := logger.FromContext(r.Context())
		log.Warn().Err(err).Msg("encoding response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(Response{Error: msg}); err != nil {
		log := logger.FromContext(r.Context())
		log.Warn().Err(err).Msg("encoding response")
	}
}
