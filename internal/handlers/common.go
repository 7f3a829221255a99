package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"snapgram-backend/internal/services"
)

// maxUploadMemory is the part of a multipart form kept in memory; the rest
// spills to temporary files.
const maxUploadMemory = 8 << 20

// errorStatus maps user-facing service errors to HTTP status codes
var errorStatus = []struct {
	err    error
	status int
}{
	{services.ErrMissingFields, http.StatusBadRequest},
	{services.ErrEmailTaken, http.StatusBadRequest},
	{services.ErrUsernameTaken, http.StatusBadRequest},
	{services.ErrSelfFollow, http.StatusBadRequest},
	{services.ErrImageRequired, http.StatusBadRequest},
	{services.ErrTextRequired, http.StatusBadRequest},
	{services.ErrInvalidCredentials, http.StatusUnauthorized},
	{services.ErrUnauthenticated, http.StatusUnauthorized},
	{services.ErrNotPostAuthor, http.StatusForbidden},
	{services.ErrUserNotFound, http.StatusNotFound},
	{services.ErrPostNotFound, http.StatusNotFound},
	{services.ErrUpload, http.StatusInternalServerError},
	{services.ErrStorage, http.StatusInternalServerError},
}

// respondJSON sends body with the given status
func respondJSON(w http.ResponseWriter, statusCode int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// respondSuccess sends a success response with a message and optional payload fields
func respondSuccess(w http.ResponseWriter, statusCode int, message string, payload map[string]interface{}) {
	body := map[string]interface{}{"success": true}
	if message != "" {
		body["message"] = message
	}
	for k, v := range payload {
		body[k] = v
	}
	respondJSON(w, statusCode, body)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, map[string]interface{}{
		"success": false,
		"message": message,
	})
}

// respondServiceError answers with the message and status of the first known
// service error in err's chain. Anything else is reported as an internal error
// without details.
func respondServiceError(w http.ResponseWriter, err error) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			respondError(w, e.err.Error(), e.status)
			return
		}
	}
	respondError(w, "Internal server error", http.StatusInternalServerError)
}

// statusOf returns the status respondServiceError would use for err
func statusOf(err error) int {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}
