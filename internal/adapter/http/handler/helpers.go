package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/iho/corebanking/internal/adapter/http/dto"
	"github.com/iho/corebanking/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error:   code,
		Message: message,
	})
}

// writeDomainError maps err onto a status and error code. Store failures
// are not described to the client.
func writeDomainError(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)
	status := mapDomainError(err)

	message := err.Error()
	switch kind {
	case domain.KindPersistence, domain.KindUnknown:
		message = "internal error"
	case domain.KindTimeout:
		message = "operation timed out, retry later"
	}

	code := kind.String()
	if kind == domain.KindUnknown {
		code = "internal"
	}

	writeError(w, status, code, message)
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindInsufficientFunds:
		return http.StatusUnprocessableEntity
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindTimeout:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads the request body into v and writes a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, domain.KindValidation.String(), "invalid request body: "+err.Error())
		return false
	}
	return true
}

// pathID parses the {id} URL parameter and writes a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := domain.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return uuid.Nil, false
	}
	return id, true
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}
