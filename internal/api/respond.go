package api

import (
	"encoding/json"
	"net/http"

	"github.com/netnav/netnav/internal/logger"
)

// respondWithJSON writes payload as a JSON response
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to marshal JSON response", nil, err)
		http.Error(w, `{"error":"Failed to marshal JSON response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// respondWithError writes {"error": message}
func respondWithError(w http.ResponseWriter, code int, message string) {
	if code >= http.StatusInternalServerError {
		logger.Warn("API error", logger.Fields{"status": code, "message": message})
	}
	respondWithJSON(w, code, map[string]string{"error": message})
}
