package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"terrain-profile-service/internal/domain"
	"terrain-profile-service/internal/services"

	"github.com/sirupsen/logrus"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).WithError(err).Warn("encode failed")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// statusFor maps a profile error to the response status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidCoordinate),
		errors.Is(err, services.ErrMalformedQuery),
		errors.Is(err, services.ErrNotPresent):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrLookupFailure),
		errors.Is(err, domain.ErrInsufficientSamples):
		return http.StatusBadGateway
	case errors.Is(err, services.ErrRequestInFlight):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
