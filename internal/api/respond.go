package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"treasury-desk-go/internal/rates"
	"treasury-desk-go/internal/store"
	"treasury-desk-go/internal/workflow"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type envelope struct {
	Data interface{} `json:"data,omitempty"`
	Err  *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Data: data}); err != nil {
		zap.L().Error("Failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Err: &apiError{Message: message}}); err != nil {
		zap.L().Error("Failed to encode error response", zap.Error(err))
	}
}

// respondValidationError maps validator field errors into the error body
// so clients can surface them inline.
func respondValidationError(w http.ResponseWriter, err error) {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	fields := make(map[string]string, len(fieldErrors))
	for _, fe := range fieldErrors {
		fields[fe.Field()] = "failed " + fe.Tag() + " validation"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	if encErr := json.NewEncoder(w).Encode(envelope{Err: &apiError{
		Message: "request validation failed",
		Fields:  fields,
	}}); encErr != nil {
		zap.L().Error("Failed to encode validation error", zap.Error(encErr))
	}
}

// respondDomainError translates store, workflow and rate-table errors
// into HTTP statuses.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrAssetNotFound),
		errors.Is(err, store.ErrOrderNotFound),
		errors.Is(err, workflow.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrInsufficientReserve),
		errors.Is(err, store.ErrInsufficientBalance),
		errors.Is(err, store.ErrSupplyExceeded),
		errors.Is(err, store.ErrOrderNotPending),
		errors.Is(err, store.ErrAssetExists),
		errors.Is(err, workflow.ErrChannelBusy),
		errors.Is(err, workflow.ErrWrongState),
		errors.Is(err, workflow.ErrNotMultiParty):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrInvalidAction),
		errors.Is(err, workflow.ErrReasonRequired),
		errors.Is(err, workflow.ErrCodeNotSent),
		errors.Is(err, workflow.ErrCodeExpired),
		errors.Is(err, workflow.ErrCodeMismatch),
		errors.Is(err, rates.ErrUnknownSymbol),
		errors.Is(err, rates.ErrUnknownNetwork),
		errors.Is(err, rates.ErrUnknownRail),
		errors.Is(err, rates.ErrUnknownTier):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		zap.L().Error("Unhandled error", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "malformed JSON body: "+err.Error())
		return false
	}
	return true
}
