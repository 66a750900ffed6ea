package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "fraudlens/pkg/domain-errors"
)

// Validatable is implemented by request types that validate and parse
// themselves after JSON decoding.
type Validatable interface {
	Validate() error
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// WriteError translates a domain error into a JSON error response. Internal
// errors omit the description so infrastructure details never leak to clients.
func WriteError(w http.ResponseWriter, err error) {
	code, status := classify(err)

	body := map[string]any{"error": string(code)}
	var de *dErrors.Error
	if errors.As(err, &de) {
		if code != dErrors.CodeInternal {
			body["error_description"] = de.Message
		}
		for k, v := range de.Details {
			body[k] = v
		}
	}

	WriteJSON(w, status, body)
}

func classify(err error) (dErrors.Code, int) {
	var de *dErrors.Error
	if !errors.As(err, &de) {
		return dErrors.CodeInternal, http.StatusInternalServerError
	}

	switch de.Code {
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput:
		return de.Code, http.StatusBadRequest
	case dErrors.CodeValidation:
		return de.Code, http.StatusUnprocessableEntity
	case dErrors.CodeUnauthorized:
		return de.Code, http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return de.Code, http.StatusForbidden
	case dErrors.CodeNotFound:
		return de.Code, http.StatusNotFound
	case dErrors.CodeConflict, dErrors.CodeInvariantViolation:
		return de.Code, http.StatusConflict
	case dErrors.CodeTimeout:
		return de.Code, http.StatusGatewayTimeout
	case dErrors.CodeUnavailable:
		return de.Code, http.StatusServiceUnavailable
	default:
		return dErrors.CodeInternal, http.StatusInternalServerError
	}
}

// DecodeAndPrepare decodes the request body into T and runs its validation.
// On failure it writes the error response and returns ok=false so handlers
// can return early. Request types validate through a pointer receiver.
func DecodeAndPrepare[T any, PT interface {
	Validatable
	*T
}](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	var req T

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if logger != nil {
			logger.WarnContext(ctx, "failed to decode request body",
				"request_id", requestID,
				"error", err,
			)
		}
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return nil, false
	}

	if err := PT(&req).Validate(); err != nil {
		if logger != nil {
			logger.WarnContext(ctx, "request validation failed",
				"request_id", requestID,
				"error", err,
			)
		}
		WriteError(w, err)
		return nil, false
	}

	return &req, true
}
