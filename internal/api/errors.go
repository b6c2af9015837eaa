package api

import (
	"errors"
	"net/http"

	"github.com/clabrugere/go-bandits/internal/domain"
)

// statusFor maps the domain error taxonomy onto the HTTP status codes
// named by spec.md §6.2's closing paragraph: invalid UUID → 400,
// policy-level errors → 400, experiment not found → 404, actor unreachable
// or storage unavailable → 503, snapshot-write failure → 500.
func statusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var armNotFound *domain.ArmNotFoundError
	var sampling *domain.SamplingError
	switch {
	case errors.Is(err, domain.ErrInvalidUUID):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNoArmsAvailable),
		errors.As(err, &armNotFound),
		errors.As(err, &sampling):
		return http.StatusBadRequest
	}

	var notFound *domain.ExperimentNotFoundError
	if errors.As(err, &notFound) {
		return http.StatusNotFound
	}

	var unavailable *domain.ExperimentUnavailableError
	if errors.As(err, &unavailable) || errors.Is(err, domain.ErrStorageUnavailable) || errors.Is(err, domain.ErrNoPolicy) {
		return http.StatusServiceUnavailable
	}

	var ioErr *domain.IoError
	var serErr *domain.SerializationError
	if errors.As(err, &ioErr) || errors.As(err, &serErr) {
		return http.StatusInternalServerError
	}

	return http.StatusInternalServerError
}
