package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gridbooth/gridbooth/pkg/errors"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondError maps an error's code onto an HTTP status and sends the
// standard error body.
func respondError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	respondJSON(w, statusForCode(code), errorResponse{
		Error: errors.UserMessage(err),
		Code:  string(code),
	})
}

// statusForCode translates error codes into HTTP statuses. Upstream print
// service failures surface as gateway errors, everything unrecognized as a
// plain 500.
func statusForCode(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidRequest,
		errors.ErrCodeInvalidGrid, errors.ErrCodeInvalidLayout,
		errors.ErrCodeInvalidManifest, errors.ErrCodeInvalidName,
		errors.ErrCodeDecodeFailed:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound, errors.ErrCodeSessionNotFound:
		return http.StatusNotFound
	case errors.ErrCodeSessionExpired:
		return http.StatusGone
	case errors.ErrCodeRateLimited:
		return http.StatusServiceUnavailable
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodePrinter, errors.ErrCodeNetwork, errors.ErrCodeUnauthorized:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// formUint32 parses an optional numeric form field; empty means zero.
func formUint32(r *http.Request, name string) (uint32, error) {
	v := r.FormValue(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid %s", name)
	}
	return uint32(n), nil
}

// formFloat parses an optional float form field; empty means zero.
func formFloat(r *http.Request, name string) (float64, error) {
	v := r.FormValue(name)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid %s", name)
	}
	return f, nil
}

// formBool parses an optional boolean form field; empty means false.
func formBool(r *http.Request, name string) bool {
	b, err := strconv.ParseBool(r.FormValue(name))
	return err == nil && b
}
