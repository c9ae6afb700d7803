package shared

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/finlit/finlit-api/internal/platform/logger"
	"github.com/finlit/finlit-api/internal/redact"
)

// ErrorResponse is the body of every error response. Only Error is
// always set; the other fields describe rejected content.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"-"`
	TraceID string `json:"trace_id,omitempty"`

	// Violation is set when essential expenses would exceed the income.
	Violation *ViolationDetail `json:"violation,omitempty"`
	// Fields maps JSON field paths to their messages.
	Fields map[string][]string `json:"fields,omitempty"`
	// FormErrors maps the index of a rejected expense form to its field
	// messages.
	FormErrors    map[int]map[string][]string `json:"form_errors,omitempty"`
	NonFormErrors []string                    `json:"non_form_errors,omitempty"`
}

// ViolationDetail carries the totals of a budget violation and the
// amount essentials must shrink by, as two-decimal strings.
type ViolationDetail struct {
	EssentialTotal string `json:"essential_total"`
	MonthlyIncome  string `json:"monthly_income"`
	Excess         string `json:"excess"`
}

// ResponseOption customizes error responses.
type ResponseOption func(*responseOptions)

type responseOptions struct {
	elevateLogLevel bool
}

// WithElevatedLogLevel logs a 4xx response at WARN instead of DEBUG.
func WithElevatedLogLevel() ResponseOption {
	return func(opts *responseOptions) {
		opts.elevateLogLevel = true
	}
}

// RespondWithJSON writes data as JSON with the given status code.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.FromContextOrDefault(r.Context(), slog.Default()).
			Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// RespondWithError writes an error response with a plain message.
func RespondWithError(w http.ResponseWriter, r *http.Request, status int, message string) {
	RespondWithErrorAndLog(w, r, status, message, nil)
}

// RespondWithErrorAndLog writes an error response with a safe message and
// logs the redacted error. 5xx responses log at ERROR, 429 and elevated
// 4xx responses at WARN, everything else at DEBUG.
func RespondWithErrorAndLog(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	userMessage string,
	err error,
	opts ...ResponseOption,
) {
	RespondWithErrorBody(w, r, &ErrorResponse{Error: userMessage, Code: status}, err, opts...)
}

// RespondWithErrorBody writes body with status body.Code. The trace ID
// of the request is filled in.
func RespondWithErrorBody(
	w http.ResponseWriter,
	r *http.Request,
	body *ErrorResponse,
	err error,
	opts ...ResponseOption,
) {
	body.TraceID = GetTraceID(r.Context())

	var o responseOptions
	for _, opt := range opts {
		opt(&o)
	}

	level := slog.LevelDebug
	switch {
	case body.Code >= http.StatusInternalServerError:
		level = slog.LevelError
	case body.Code == http.StatusTooManyRequests,
		o.elevateLogLevel && body.Code >= http.StatusBadRequest:
		level = slog.LevelWarn
	}

	attrs := []slog.Attr{
		slog.String("trace_id", body.TraceID),
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method),
		slog.Int("status_code", body.Code),
		slog.String("user_message", body.Error),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("error", redact.Error(err)),
			slog.String("error_type", fmt.Sprintf("%T", err)))
	}
	logger.FromContextOrDefault(r.Context(), slog.Default()).
		LogAttrs(r.Context(), level, "API error response", attrs...)

	RespondWithJSON(w, r, body.Code, body)
}
