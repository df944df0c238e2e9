package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/diagnosis/guest-registry/internal/service"
	"github.com/diagnosis/guest-registry/pkg/logger"
)

// ErrorResponse is the single error shape of the RPC surface.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

const (
	CodeInvalidInput     = "INVALID_INPUT"
	CodeNotFound         = "GUEST_NOT_FOUND"
	CodeStoreError       = "STORE_ERROR"
	CodeAllocationFailed = "ROOM_ALLOCATION_FAILED"
	CodeInternalError    = "INTERNAL_ERROR"

	CodeIdempotencyConflict = "IDEMPOTENCY_CONFLICT"
)

// WriteJSON writes data with the given status.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// WriteError writes a structured JSON error response
func WriteError(w http.ResponseWriter, statusCode int, message string, code string) {
	WriteErrorWithDetails(w, statusCode, message, code, "")
}

// WriteErrorWithDetails writes a structured JSON error response with additional details
func WriteErrorWithDetails(w http.ResponseWriter, statusCode int, message, code, details string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	})
}

// FromError maps a service error onto status, code and message. Details carry
// the full error text so the store's own message survives for diagnostics.
func FromError(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, ErrorResponse{Error: service.ErrValidation.Error(), Code: CodeInvalidInput, Details: err.Error()}
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: service.ErrNotFound.Error(), Code: CodeNotFound, Details: err.Error()}
	case errors.Is(err, service.ErrStore):
		return http.StatusInternalServerError, ErrorResponse{Error: service.ErrStore.Error(), Code: CodeStoreError, Details: err.Error()}
	case errors.Is(err, service.ErrAllocation):
		return http.StatusServiceUnavailable, ErrorResponse{Error: service.ErrAllocation.Error(), Code: CodeAllocationFailed, Details: err.Error()}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: CodeInternalError}
	}
}

// ServiceError writes err in the uniform shape.
func ServiceError(w http.ResponseWriter, err error) {
	status, body := FromError(err)
	WriteJSON(w, status, body)
}

func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message, CodeInvalidInput)
}
