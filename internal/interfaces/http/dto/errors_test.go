package dto

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeUnknown, http.StatusInternalServerError},
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeValidationRequired, http.StatusBadRequest},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeConflict, http.StatusConflict},
		{ErrCodeConcurrencyConflict, http.StatusConflict},
		{ErrCodeAlreadyProcessed, http.StatusConflict},
		{ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeInvalidInput, http.StatusBadRequest},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		// Unknown code should return 500
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"NOT_FOUND", ErrCodeNotFound},
		{"INVALID_INPUT", ErrCodeInvalidInput},
		{"INVALID_STATE", ErrCodeInvalidState},
		{"ALREADY_PROCESSED", ErrCodeAlreadyProcessed},
		{"CONFLICT", ErrCodeConflict},
		{"CONCURRENCY_CONFLICT", ErrCodeConcurrencyConflict},
		// API codes pass through unchanged
		{ErrCodeNotFound, ErrCodeNotFound},
		{"CUSTOM_ERROR", "CUSTOM_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeErrorCode(tt.input))
		})
	}
}

func TestDomainCodesHaveStatus(t *testing.T) {
	for domainCode, apiCode := range DomainErrorCodeMapping {
		t.Run(domainCode, func(t *testing.T) {
			_, ok := ErrorCodeHTTPStatus[apiCode]
			assert.True(t, ok, "%s should map to a known status", apiCode)
		})
	}
}

func TestNewErrorResponse(t *testing.T) {
	before := time.Now().UTC()
	resp := NewErrorResponse("ALREADY_PROCESSED", "transaction GD-20240501-00001 already has a buyback")
	after := time.Now().UTC()

	assert.False(t, resp.Success)
	assert.Nil(t, resp.Data)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeAlreadyProcessed, resp.Error.Code)
	assert.Empty(t, resp.Error.RequestID)
	assert.False(t, resp.Error.Timestamp.Before(before))
	assert.False(t, resp.Error.Timestamp.After(after))
}

func TestNewValidationErrorResponse(t *testing.T) {
	details := []ValidationDetail{
		{Field: "staff_id", Message: "This field is required"},
		{Field: "cash_amount", Message: "Must not be negative"},
	}

	resp := NewValidationErrorResponse("Request validation failed", "req-789", details)

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-789", resp.Error.RequestID)
	require.Len(t, resp.Error.Details, 2)
	assert.Equal(t, "cash_amount", resp.Error.Details[1].Field)
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]string{"a", "b"}, 41, 2, 20)

	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(41), resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.TotalPages)

	zero := NewSuccessResponseWithMeta(nil, 5, 1, 0)
	assert.Equal(t, 0, zero.Meta.TotalPages)
}

func TestErrorResponseJSON(t *testing.T) {
	resp := NewErrorResponseWithRequestID("NOT_FOUND", "product 42 not found", "req-test-123")

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, false, raw["success"])
	assert.NotContains(t, raw, "data")
	assert.NotContains(t, raw, "meta")

	errObj := raw["error"].(map[string]any)
	assert.Equal(t, ErrCodeNotFound, errObj["code"])
	assert.Equal(t, "req-test-123", errObj["request_id"])
	assert.NotContains(t, errObj, "details")
}
