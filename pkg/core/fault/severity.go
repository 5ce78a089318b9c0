// ============================================================================
// VoiceAgent - Automated Voice Survey Platform
// ============================================================================
//
// Package:     fault
// Description: Error severity levels for prioritization and alerting
// Author:      Naeem Akhtar
// Created:     2026-08-12
// License:     MIT
// ============================================================================

package fault

// Severity represents the severity level of an error
type Severity int

const (
	// SeverityLow indicates a minor error that doesn't affect core functionality
	SeverityLow Severity = iota

	// SeverityMedium indicates an error that affects functionality but has workarounds
	SeverityMedium

	// SeverityHigh indicates a serious error that significantly impacts functionality
	SeverityHigh

	// SeverityCritical indicates an error that makes the service unusable
	SeverityCritical
)

// String returns the string representation of the severity level
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ShouldAlert returns true if this severity level should trigger alerts
func (s Severity) ShouldAlert() bool {
	return s >= SeverityHigh
}

// SeverityFromCode determines the default severity for an error code
func SeverityFromCode(code Code) Severity {
	switch code {
	case CodeServiceUnavailable:
		return SeverityCritical
	case CodeDatabaseError, CodeConfigError, CodeMissingConfig, CodeInvalidConfig:
		return SeverityHigh
	case CodeAudioDevice, CodeAudioBusy, CodePermissionDenied,
		CodeNetworkError, CodeExternalService, CodeTelephony, CodeRecognizer,
		CodeTimeout, CodeConstraintViolation, CodeDuplicateEntry:
		return SeverityMedium
	case CodeInvalidInput, CodeNotFound, CodeValidationFailed,
		CodeRequiredField, CodeValueOutOfRange:
		return SeverityLow
	default:
		return SeverityMedium
	}
}
