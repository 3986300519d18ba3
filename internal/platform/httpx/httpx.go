// Package httpx holds the JSON response conventions of the HTTP surface:
// a plain body for successes and an {"error": {code, message}} envelope for
// failures, with apperr codes mapped to statuses at this edge only.
package httpx

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"purityscan/backend/internal/platform/apperr"
)

// ErrorBody is the wire envelope for failures.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StatusOf maps an error classification to an HTTP status.
func StatusOf(code apperr.Code) int {
	switch code {
	case apperr.CodeUnauthenticated:
		return http.StatusUnauthorized
	case apperr.CodeUnauthorized:
		return http.StatusForbidden
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeValidation:
		return http.StatusBadRequest
	case apperr.CodeConflict:
		return http.StatusConflict
	case apperr.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON writes v as the JSON response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("http: writing response: %v", err)
	}
}

// WriteError writes err as the error envelope. Unclassified errors surface as
// a generic internal failure; their detail stays in the server log.
func WriteError(w http.ResponseWriter, err error) {
	code := apperr.CodeOf(err)
	message := "internal error"
	var e *apperr.Error
	if errors.As(err, &e) && code != apperr.CodeInternal {
		message = e.Message
	}
	if code == apperr.CodeInternal {
		log.Printf("http: internal error: %v", err)
	}
	WriteJSON(w, StatusOf(code), ErrorBody{Error: ErrorDetail{Code: string(code), Message: message}})
}
