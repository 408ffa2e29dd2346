package httpapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// ErrorBody is the error envelope returned by every failing endpoint.
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type APIError struct {
	Error ErrorBody `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes the error envelope. Server-side statuses are logged
// with the request id so a client report can be matched to the log.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	if status >= http.StatusInternalServerError {
		logFailure(r, status, code, zap.String("message", message))
	}
	writeAPIError(w, r, status, code, message)
}

// WriteFailure answers 500 for err and logs the full error chain.
func WriteFailure(w http.ResponseWriter, r *http.Request, code string, err error) {
	logFailure(r, http.StatusInternalServerError, code, zap.Error(err))
	writeAPIError(w, r, http.StatusInternalServerError, code, err.Error())
}

func writeAPIError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	WriteJSON(w, status, APIError{Error: ErrorBody{
		Code:      code,
		Message:   message,
		RequestID: RequestIDFrom(r.Context()),
	}})
}

func logFailure(r *http.Request, status int, code string, field zap.Field) {
	zap.L().Error("request failed",
		zap.String("component", "httpapi"),
		zap.String("request_id", RequestIDFrom(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("code", code),
		field,
	)
}
