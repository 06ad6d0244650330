package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// Kind tags an ErrorResponse with the error type reported by the backend or,
// when the backend sends none, the one derived from the HTTP status.
type Kind string

const (
	KindBadRequest   Kind = "BAD_REQUEST"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindForbidden    Kind = "FORBIDDEN"
	KindNotFound     Kind = "NOT_FOUND"
	KindConflict     Kind = "CONFLICT"
	KindValidation   Kind = "VALIDATION_ERROR"
	KindRateLimited  Kind = "RATE_LIMITED"
	KindServer       Kind = "SERVER_ERROR"
	KindHTTP         Kind = "HTTP_ERROR"
	KindNetwork      Kind = "NETWORK_ERROR"
	KindUnknown      Kind = "UNKNOWN_ERROR"
)

// Category is the coarse failure class UI layers branch on.
type Category string

const (
	CategoryNetwork      Category = "network"
	CategoryClient       Category = "http_client"
	CategoryServer       Category = "http_server"
	CategoryValidation   Category = "validation"
	CategoryUnauthorized Category = "unauthorized"
	CategoryBusiness     Category = "business"
	CategoryUnknown      Category = "unknown"
)

// StatusNetwork is the status carried by failures that never produced an
// HTTP response (DNS, connection refused, timeout, cancelled context).
const StatusNetwork = 0

const networkMessage = "Network connection failed, please check your connection"

var defaultMessages = map[int]string{
	http.StatusBadRequest:          "Invalid request parameters",
	http.StatusUnauthorized:        "Authentication required, please sign in",
	http.StatusForbidden:           "You do not have permission to perform this action",
	http.StatusNotFound:            "The requested resource was not found",
	http.StatusConflict:            "The resource conflicts with its current state",
	http.StatusUnprocessableEntity: "Request validation failed",
	http.StatusTooManyRequests:     "Too many requests, please try again later",
	http.StatusInternalServerError: "Internal server error",
	http.StatusBadGateway:          "Bad gateway",
	http.StatusServiceUnavailable:  "Service temporarily unavailable",
	http.StatusGatewayTimeout:      "Gateway timeout",
}

var statusKinds = map[int]Kind{
	http.StatusBadRequest:          KindBadRequest,
	http.StatusUnauthorized:        KindUnauthorized,
	http.StatusForbidden:           KindForbidden,
	http.StatusNotFound:            KindNotFound,
	http.StatusConflict:            KindConflict,
	http.StatusUnprocessableEntity: KindValidation,
	http.StatusTooManyRequests:     KindRateLimited,
}

// ValidationDetail is one field-level issue returned with a 400/422.
type ValidationDetail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Value   any    `json:"value,omitempty"`
}

// ErrorResponse is the normalised failure of a single API call. It is built
// once per failed attempt and not modified afterwards.
type ErrorResponse struct {
	Status    int                `json:"status"`
	Message   string             `json:"message"`
	Kind      Kind               `json:"error,omitempty"`
	Details   []ValidationDetail `json:"details,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
	Path      string             `json:"path"`
	Method    string             `json:"method,omitempty"`
	RequestID string             `json:"request_id,omitempty"`

	cause error
}

func (e *ErrorResponse) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.cause != nil {
		return fmt.Sprintf("%s %s (%d): %s: %v", e.Kind, e.Path, e.Status, e.Message, e.cause)
	}
	return fmt.Sprintf("%s %s (%d): %s", e.Kind, e.Path, e.Status, e.Message)
}

func (e *ErrorResponse) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Category classifies the failure by status and payload.
func (e *ErrorResponse) Category() Category {
	if e == nil {
		return CategoryUnknown
	}
	if e.Kind == KindUnknown {
		return CategoryUnknown
	}
	return categoryFor(e.Status, len(e.Details) > 0)
}

// Retryable reports whether re-issuing the request may succeed: server
// errors and network failures are, client errors are not.
func (e *ErrorResponse) Retryable() bool {
	if e == nil {
		return false
	}
	return e.Status == StatusNetwork || e.Status >= 500 && e.Status <= 599
}

// IsNetwork reports whether the request never reached the server.
func (e *ErrorResponse) IsNetwork() bool {
	return e != nil && e.Status == StatusNetwork
}

// withRequest returns a copy annotated with the request identity.
func (e *ErrorResponse) withRequest(method, requestID string) *ErrorResponse {
	copied := *e
	copied.Method = method
	copied.RequestID = requestID
	copied.Details = append([]ValidationDetail(nil), e.Details...)
	return &copied
}

// ToError converts the response into a go-errors value so it can travel
// through handlers that already speak that format.
func (e *ErrorResponse) ToError() *goerrors.Error {
	if e == nil {
		return nil
	}
	var out *goerrors.Error
	if e.cause != nil {
		out = goerrors.Wrap(e.cause, goCategory(e), e.Message)
	} else {
		out = goerrors.New(e.Message, goCategory(e))
	}
	metadata := map[string]any{
		"path":      e.Path,
		"category":  string(e.Category()),
		"retryable": e.Retryable(),
	}
	if e.Method != "" {
		metadata["method"] = e.Method
	}
	if e.RequestID != "" {
		metadata["request_id"] = e.RequestID
	}
	if len(e.Details) > 0 {
		metadata["details"] = e.Details
	}
	return out.WithCode(e.Status).WithTextCode(string(e.Kind)).WithMetadata(metadata)
}

func goCategory(e *ErrorResponse) goerrors.Category {
	switch e.Status {
	case StatusNetwork:
		return goerrors.CategoryExternal
	case http.StatusBadRequest:
		if len(e.Details) > 0 {
			return goerrors.CategoryValidation
		}
		return goerrors.CategoryBadInput
	case http.StatusUnauthorized:
		return goerrors.CategoryAuth
	case http.StatusForbidden:
		return goerrors.CategoryAuthz
	case http.StatusNotFound:
		return goerrors.CategoryNotFound
	case http.StatusConflict:
		return goerrors.CategoryConflict
	case http.StatusUnprocessableEntity:
		return goerrors.CategoryValidation
	case http.StatusTooManyRequests:
		return goerrors.CategoryRateLimit
	}
	if e.Status >= 500 && e.Status <= 599 {
		return goerrors.CategoryExternal
	}
	return goerrors.CategoryInternal
}

// AsErrorResponse extracts an *ErrorResponse from err.
func AsErrorResponse(err error) (*ErrorResponse, bool) {
	var resp *ErrorResponse
	if errors.As(err, &resp) {
		return resp, true
	}
	return nil, false
}

// KindForStatus returns the Kind derived from an HTTP status alone.
func KindForStatus(status int) Kind {
	if status == StatusNetwork {
		return KindNetwork
	}
	if kind, ok := statusKinds[status]; ok {
		return kind
	}
	if status >= 500 && status <= 599 {
		return KindServer
	}
	return KindHTTP
}

// DefaultMessage returns the human-readable fallback used when the server
// sends no message: the status-keyed default, then the HTTP status text.
func DefaultMessage(status int) string {
	if status == StatusNetwork {
		return networkMessage
	}
	if msg, ok := defaultMessages[status]; ok {
		return msg
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("Request failed with status %d", status)
}

func categoryFor(status int, hasDetails bool) Category {
	switch {
	case status == StatusNetwork:
		return CategoryNetwork
	case status == http.StatusUnauthorized:
		return CategoryUnauthorized
	case status == http.StatusUnprocessableEntity:
		return CategoryValidation
	case status == http.StatusBadRequest:
		if hasDetails {
			return CategoryValidation
		}
		return CategoryBusiness
	case status == http.StatusForbidden, status == http.StatusNotFound,
		status == http.StatusConflict, status == http.StatusTooManyRequests:
		return CategoryClient
	case status >= 400 && status <= 499:
		return CategoryBusiness
	case status >= 500 && status <= 599:
		return CategoryServer
	default:
		return CategoryUnknown
	}
}

type errorBody struct {
	Message   string          `json:"message"`
	Error     string          `json:"error"`
	Details   json.RawMessage `json:"details"`
	Timestamp string          `json:"timestamp"`
	Path      string          `json:"path"`
}

// Classify builds the ErrorResponse for a non-2xx response. body may be
// empty or not JSON at all; missing fields fall back to defaults.
func Classify(status int, body []byte, path string, now time.Time) *ErrorResponse {
	resp := &ErrorResponse{
		Status:    status,
		Kind:      KindForStatus(status),
		Timestamp: now,
		Path:      path,
	}

	var payload errorBody
	if len(strings.TrimSpace(string(body))) > 0 && json.Unmarshal(body, &payload) == nil {
		if msg := strings.TrimSpace(payload.Message); msg != "" {
			resp.Message = msg
		}
		if kind := strings.TrimSpace(payload.Error); kind != "" {
			resp.Kind = Kind(kind)
		}
		if p := strings.TrimSpace(payload.Path); p != "" {
			resp.Path = p
		}
		if ts, err := time.Parse(time.RFC3339, strings.TrimSpace(payload.Timestamp)); err == nil {
			resp.Timestamp = ts
		}
		resp.Details = decodeDetails(payload.Details)
	}

	if resp.Message == "" {
		resp.Message = DefaultMessage(status)
	}
	return resp
}

// NetworkError builds the status-0 response for a request that never got an
// HTTP answer.
func NetworkError(path string, cause error, now time.Time) *ErrorResponse {
	return &ErrorResponse{
		Status:    StatusNetwork,
		Message:   networkMessage,
		Kind:      KindNetwork,
		Timestamp: now,
		Path:      path,
		cause:     cause,
	}
}

// unknownError is used when a response arrived but could not be understood.
func unknownError(status int, path, message string, cause error, now time.Time) *ErrorResponse {
	return &ErrorResponse{
		Status:    status,
		Message:   message,
		Kind:      KindUnknown,
		Timestamp: now,
		Path:      path,
		cause:     cause,
	}
}

// decodeDetails accepts either a list of detail objects or a list of plain
// strings; anything else is dropped.
func decodeDetails(raw json.RawMessage) []ValidationDetail {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var details []ValidationDetail
	if err := json.Unmarshal(raw, &details); err == nil {
		return details
	}
	var messages []string
	if err := json.Unmarshal(raw, &messages); err == nil {
		details = make([]ValidationDetail, 0, len(messages))
		for _, msg := range messages {
			details = append(details, ValidationDetail{Message: msg})
		}
		return details
	}
	return nil
}
