package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// errorResponse is the body of every error reply.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Debug().Err(err).Msg("failed to write response body")
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Code: status, Message: message})
}
