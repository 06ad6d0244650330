package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-blogfront/internal/apiclient"
)

type errorResponse struct {
	Error     string                       `json:"error"`
	Message   string                       `json:"message,omitempty"`
	RequestID string                       `json:"request_id,omitempty"`
	Retryable bool                         `json:"retryable,omitempty"`
	Details   []apiclient.ValidationDetail `json:"details,omitempty"`
}

func joinPath(base, suffix string) string {
	trimmedBase := strings.TrimSpace(base)
	trimmedSuffix := strings.TrimSpace(suffix)
	if trimmedBase == "" {
		if trimmedSuffix == "" {
			return "/"
		}
		return "/" + strings.Trim(trimmedSuffix, "/")
	}
	baseClean := "/" + strings.Trim(trimmedBase, "/")
	if trimmedSuffix == "" {
		return baseClean
	}
	if baseClean == "/" {
		return "/" + strings.Trim(trimmedSuffix, "/")
	}
	return baseClean + "/" + strings.Trim(trimmedSuffix, "/")
}

func decodeJSON(r *http.Request, target any, limit int64) error {
	if r == nil || r.Body == nil {
		return io.EOF
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(io.LimitReader(r.Body, limit))
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status, payload := mapError(err)
	writeJSON(w, status, payload)
}

// mapError converts upstream and local failures into a status and body.
// Upstream failures keep their status; status 0 (no response) becomes 502.
func mapError(err error) (int, errorResponse) {
	if err == nil {
		return http.StatusInternalServerError, errorResponse{Error: "unknown_error"}
	}

	if apiErr, ok := apiclient.AsErrorResponse(err); ok {
		status := apiErr.Status
		if status < http.StatusBadRequest || status > 599 {
			status = http.StatusBadGateway
		}
		return status, errorResponse{
			Error:     strings.ToLower(string(apiErr.Kind)),
			Message:   apiErr.Message,
			RequestID: apiErr.RequestID,
			Retryable: apiErr.Retryable(),
			Details:   apiErr.Details,
		}
	}

	if goerrors.IsCategory(err, goerrors.CategoryValidation) || goerrors.IsCategory(err, goerrors.CategoryBadInput) {
		return http.StatusBadRequest, errorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		}
	}

	return http.StatusInternalServerError, errorResponse{
		Error:   "internal_error",
		Message: err.Error(),
	}
}

func parseID(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, errors.New("id required")
	}
	id, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("id must be a positive integer")
	}
	return id, nil
}

func parseIntQuery(value string, defaultValue int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseBoolQuery(value string, defaultValue bool) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(trimmed)
	if err != nil {
		return defaultValue
	}
	return parsed
}
