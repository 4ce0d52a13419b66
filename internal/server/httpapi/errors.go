package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"classwork_service/internal/domain"
	"classwork_service/internal/repository"
	"classwork_service/internal/service"
)

func mapErr(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrIncompleteAnswers),
		errors.Is(err, domain.ErrInvalidDueDate):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotLoggedIn):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrAlreadyGraded):
		return http.StatusConflict
	case errors.Is(err, service.ErrProfileIncomplete):
		return http.StatusUnprocessableEntity
	case errors.Is(err, repository.ErrIndexRequired):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errMessage keeps internal details out of responses except where the caller
// can act on them.
func errMessage(err error, status int) string {
	if status == http.StatusInternalServerError {
		return http.StatusText(status)
	}
	return err.Error()
}

func writeError(w http.ResponseWriter, err error) {
	status := mapErr(err)
	writeErrorJSON(w, status, errMessage(err, status))
}

func writeErrorJSON(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
