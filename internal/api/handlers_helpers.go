// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/taxidash/internal/database"
	"github.com/tomtom215/taxidash/internal/fare"
	"github.com/tomtom215/taxidash/internal/logging"
	"github.com/tomtom215/taxidash/internal/models"
	"github.com/tomtom215/taxidash/internal/validation"
)

// Error codes used in response envelopes.
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeQuery              = "QUERY_ERROR"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// maxBodyBytes caps request bodies; filters and fare requests are tiny.
const maxBodyBytes = 64 << 10

// sanitizeLogValue removes control characters from strings to prevent log injection attacks.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON sends a JSON response with proper headers
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Vary", "Accept-Encoding")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondSuccess wraps data in a success envelope.
func respondSuccess(w http.ResponseWriter, data interface{}, start time.Time, cached bool) {
	meta := models.Metadata{Timestamp: time.Now(), Cached: cached}
	if !cached {
		meta.QueryTimeMS = time.Since(start).Milliseconds()
	}
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: meta,
	})
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Error().Str("code", sanitizeLogValue(code)).Str("error", sanitizeLogValue(err.Error())).Msg("API Error")
	}

	respondJSON(w, status, &models.APIResponse{
		Status: "error",
		Data:   nil,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
		Error: &models.APIError{
			Code:    code,
			Message: message,
		},
	})
}

// respondAPIError sends a prebuilt APIError with a 400 status.
func respondAPIError(w http.ResponseWriter, apiErr *models.APIError) {
	respondJSON(w, http.StatusBadRequest, &models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now()},
		Error:    apiErr,
	})
}

// respondServiceError maps a service error onto a status code:
//
//	ErrDatasetUnavailable, ErrModelUnavailable  -> 503
//	ErrInvalidFilter, ErrInvalidZone            -> 400
//	ErrNoCentroids and anything else            -> 500
func respondServiceError(w http.ResponseWriter, operation string, err error) {
	switch {
	case errors.Is(err, database.ErrDatasetUnavailable),
		errors.Is(err, fare.ErrModelUnavailable):
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, err.Error(), err)
	case errors.Is(err, database.ErrInvalidFilter),
		errors.Is(err, fare.ErrInvalidZone):
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, err.Error(), nil)
	case errors.Is(err, database.ErrNoCentroids):
		respondError(w, http.StatusInternalServerError, ErrCodeQuery, err.Error(), err)
	default:
		respondError(w, http.StatusInternalServerError, ErrCodeQuery,
			fmt.Sprintf("Failed to compute %s", operation), err)
	}
}

// validateRequest validates a struct using go-playground/validator.
// Returns nil if validation passes, or a models.APIError if validation fails.
func validateRequest(v interface{}) *models.APIError {
	validationErr := validation.ValidateStruct(v)
	if validationErr == nil {
		return nil
	}

	apiErr := validationErr.ToAPIError()
	return &models.APIError{
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	}
}

// decodeJSONBody decodes an optional JSON body into dst. An empty body
// leaves dst untouched.
func decodeJSONBody(r *http.Request, dst interface{}) *models.APIError {
	if r.Body == nil {
		return nil
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return &models.APIError{Code: ErrCodeValidation, Message: "Failed to read request body"}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return &models.APIError{
			Code:    ErrCodeValidation,
			Message: "Invalid JSON body: " + err.Error(),
		}
	}
	return nil
}

// getIntParam extracts an integer query parameter with a default value.
// A present but malformed value is reported rather than silently defaulted.
func getIntParam(r *http.Request, key string, defaultValue int) (int, *models.APIError) {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return defaultValue, nil
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, &models.APIError{
			Code:    ErrCodeValidation,
			Message: fmt.Sprintf("%s must be an integer", key),
			Details: map[string]interface{}{"field": key, "value": value},
		}
	}
	return intValue, nil
}

// getStringParam returns a query parameter or defaultValue when absent.
func getStringParam(r *http.Request, key, defaultValue string) string {
	if value := strings.TrimSpace(r.URL.Query().Get(key)); value != "" {
		return value
	}
	return defaultValue
}
