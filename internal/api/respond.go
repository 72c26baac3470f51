package api

import (
	"encoding/json"
	"log"
	"net/http"

	apperrors "parkease/internal/errors"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Printf("error encoding response: %v", err)
		}
	}
}

// writeError maps the domain error taxonomy onto distinct status codes so
// clients can tell "try another slot" (409) from "you may not do this" (403)
// from "gone" (404). Internal errors are logged and masked.
func writeError(w http.ResponseWriter, err error) {
	status := apperrors.StatusCode(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
		message = "internal server error"
	}
	writeJSON(w, status, map[string]string{"error": message})
}
