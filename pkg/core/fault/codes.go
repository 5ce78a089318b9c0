// ============================================================================
// VoiceAgent - Automated Voice Survey Platform
// ============================================================================
//
// Package:     fault
// Description: Error code definitions for consistent classification
// Author:      Naeem Akhtar
// Created:     2026-08-12
// License:     MIT
// ============================================================================

package fault

import "net/http"

// Code classifies an error for handling, API responses and monitoring
type Code string

const (
	// Generic codes
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL"
	CodeNotFound     Code = "NOT_FOUND"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeTimeout      Code = "TIMEOUT"

	// Audio input
	CodeAudioDevice      Code = "AUDIO_DEVICE"
	CodeAudioBusy        Code = "AUDIO_BUSY"
	CodePermissionDenied Code = "PERMISSION_DENIED"

	// Database and storage
	CodeDatabaseError       Code = "DATABASE_ERROR"
	CodeConstraintViolation Code = "CONSTRAINT_VIOLATION"
	CodeDuplicateEntry      Code = "DUPLICATE_ENTRY"

	// Service and network
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"
	CodeNetworkError       Code = "NETWORK_ERROR"
	CodeExternalService    Code = "EXTERNAL_SERVICE_ERROR"
	CodeTelephony          Code = "TELEPHONY_ERROR"
	CodeRecognizer         Code = "RECOGNIZER_ERROR"

	// Configuration
	CodeConfigError   Code = "CONFIG_ERROR"
	CodeMissingConfig Code = "MISSING_CONFIG"
	CodeInvalidConfig Code = "INVALID_CONFIG"

	// Validation
	CodeValidationFailed Code = "VALIDATION_FAILED"
	CodeRequiredField    Code = "REQUIRED_FIELD"
	CodeValueOutOfRange  Code = "VALUE_OUT_OF_RANGE"
)

// String returns the string representation of the error code
func (c Code) String() string {
	return string(c)
}

// Category returns the high-level category of the error code
func (c Code) Category() string {
	switch c {
	case CodeAudioDevice, CodeAudioBusy, CodePermissionDenied:
		return "audio"
	case CodeDatabaseError, CodeConstraintViolation, CodeDuplicateEntry:
		return "database"
	case CodeServiceUnavailable, CodeNetworkError, CodeExternalService, CodeTelephony, CodeRecognizer:
		return "service"
	case CodeConfigError, CodeMissingConfig, CodeInvalidConfig:
		return "configuration"
	case CodeValidationFailed, CodeRequiredField, CodeValueOutOfRange:
		return "validation"
	default:
		return "generic"
	}
}

// HTTPStatus maps the code to an HTTP response status
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidInput, CodeValidationFailed, CodeRequiredField, CodeValueOutOfRange:
		return http.StatusBadRequest
	case CodePermissionDenied:
		return http.StatusForbidden
	case CodeDuplicateEntry, CodeConstraintViolation:
		return http.StatusConflict
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeServiceUnavailable, CodeAudioBusy:
		return http.StatusServiceUnavailable
	case CodeNetworkError, CodeExternalService, CodeTelephony, CodeRecognizer:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
