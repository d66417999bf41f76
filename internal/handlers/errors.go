package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"annoloom/internal/contextutil"
	"annoloom/internal/fileaccess"
	"annoloom/internal/service"
)

// CodeInvalidInput is the wire code for request validation failures.
const CodeInvalidInput = "INVALID_INPUT"

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failure. CurrentDigest is only set for conflicts.
type ErrorDetail struct {
	Code          string `json:"code"`
	Message       string `json:"message"`
	CurrentDigest string `json:"currentDigest,omitempty"`
}

// OKResponse acknowledges an operation without a payload.
type OKResponse struct {
	OK bool `json:"ok"`
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, code, message string) {
	writeJSON(ctx, w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// decodeJSON reads the request body into v, answering 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		ctx := r.Context()
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "invalid request body", "error", err)
		writeError(ctx, w, http.StatusBadRequest, CodeInvalidInput, "Invalid request body")
		return false
	}
	return true
}

// statusForCode maps file access codes to HTTP statuses.
func statusForCode(code fileaccess.Code) int {
	switch code {
	case fileaccess.CodeInvalidPath, fileaccess.CodeNotAFile:
		return http.StatusBadRequest
	case fileaccess.CodeNotFound:
		return http.StatusNotFound
	case fileaccess.CodeNonText:
		return http.StatusUnsupportedMediaType
	case fileaccess.CodeOverLimit:
		return http.StatusRequestEntityTooLarge
	case fileaccess.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// handleServiceError maps service and file access errors to HTTP responses.
func handleServiceError(ctx context.Context, w http.ResponseWriter, err error, defaultMsg string) {
	logger := contextutil.LoggerFromContext(ctx)

	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		logger.WarnContext(ctx, "validation error", "error", err)
		writeError(ctx, w, http.StatusBadRequest, CodeInvalidInput, validationErr.Error())
		return
	}
	if errors.Is(err, service.ErrInvalidInput) {
		writeError(ctx, w, http.StatusBadRequest, CodeInvalidInput, "Invalid input")
		return
	}
	if errors.Is(err, service.ErrNotFound) {
		writeError(ctx, w, http.StatusNotFound, string(fileaccess.CodeNotFound), "Annotation not found")
		return
	}

	var fileErr *fileaccess.Error
	if errors.As(err, &fileErr) && fileErr.Code != fileaccess.CodeInternal {
		logger.WarnContext(ctx, "file access error", "code", fileErr.Code, "error", err)
		msg := fileErr.Message
		if msg == "" {
			msg = string(fileErr.Code)
		}
		writeJSON(ctx, w, statusForCode(fileErr.Code), ErrorResponse{Error: ErrorDetail{
			Code:          string(fileErr.Code),
			Message:       msg,
			CurrentDigest: fileErr.CurrentDigest,
		}})
		return
	}

	logger.ErrorContext(ctx, "service error", "error", err)
	writeError(ctx, w, http.StatusInternalServerError, string(fileaccess.CodeInternal), defaultMsg)
}
