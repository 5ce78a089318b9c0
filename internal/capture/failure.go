// ============================================================================
// VoiceAgent - Automated Voice Survey Platform
// ============================================================================
//
// Package:     capture
// Description: Answer capture session - failure taxonomy
// Author:      Naeem Akhtar
// Created:     2026-08-12
// License:     MIT
// ============================================================================

package capture

import (
	"context"
	"errors"
	"net"

	"github.com/naeemakhtar23/voiceagent/pkg/core/fault"
)

// FailureKind identifies why a capture attempt ended without an answer
type FailureKind string

const (
	// FailureNoInputDevice - No usable microphone was found
	FailureNoInputDevice FailureKind = "no-input-device"

	// FailurePermissionDenied - Microphone access was refused
	FailurePermissionDenied FailureKind = "permission-denied"

	// FailureNetworkUnavailable - The network connection dropped mid-capture
	FailureNetworkUnavailable FailureKind = "network-unavailable"

	// FailureNoSpeech - The window closed without any speech
	FailureNoSpeech FailureKind = "no-speech-detected"

	// FailureUnclear - Speech arrived but was not a yes/no answer
	FailureUnclear FailureKind = "unclear-response"

	// FailureAborted - The session was cancelled on purpose, never user-visible
	FailureAborted FailureKind = "aborted-intentionally"

	// FailureServiceDown - The recognition service refused or dropped the stream
	FailureServiceDown FailureKind = "service-unavailable"
)

// String returns the string representation of the failure kind
func (k FailureKind) String() string {
	return string(k)
}

// UserMessage returns the message shown to the respondent for this failure.
// Aborted sessions have no message because they are never surfaced.
func (k FailureKind) UserMessage() string {
	switch k {
	case FailureNoInputDevice:
		return "No microphone was found. Check that an input device is connected and try again."
	case FailurePermissionDenied:
		return "Microphone access was denied. Allow microphone access in your settings and try again."
	case FailureNetworkUnavailable:
		return "The network connection was lost. Check your connection and try again."
	case FailureNoSpeech:
		return "No speech was detected. Please answer with yes or no."
	case FailureUnclear:
		return "The answer was not recognized as yes or no. Please try again."
	case FailureServiceDown:
		return "The speech service is currently unavailable. Please try again in a moment."
	default:
		return ""
	}
}

// UserVisible reports whether the failure may be shown to the respondent
func (k FailureKind) UserVisible() bool {
	return k != FailureAborted && k != ""
}

// Recoverable reports whether the caller should offer an immediate retry.
// Device and permission problems persist across attempts, so retrying
// without user action would fail the same way.
func (k FailureKind) Recoverable() bool {
	switch k {
	case FailureNoSpeech, FailureUnclear:
		return true
	default:
		return false
	}
}

// FaultCode maps the failure kind to an error code for the service edge
func (k FailureKind) FaultCode() fault.Code {
	switch k {
	case FailureNoInputDevice:
		return fault.CodeAudioDevice
	case FailurePermissionDenied:
		return fault.CodePermissionDenied
	case FailureNetworkUnavailable:
		return fault.CodeNetworkError
	case FailureServiceDown:
		return fault.CodeServiceUnavailable
	case FailureNoSpeech, FailureUnclear:
		return fault.CodeInvalidInput
	default:
		return fault.CodeInternal
	}
}

// FailureFromError classifies a pipeline error into a failure kind.
// Errors carrying a fault code are mapped directly; otherwise network
// errors map to network-unavailable and everything else to
// service-unavailable. A cancelled context counts as an intentional abort.
func FailureFromError(err error) FailureKind {
	if err == nil {
		return FailureServiceDown
	}

	switch fault.CodeOf(err) {
	case fault.CodeAudioDevice, fault.CodeAudioBusy:
		return FailureNoInputDevice
	case fault.CodePermissionDenied:
		return FailurePermissionDenied
	case fault.CodeNetworkError, fault.CodeTimeout:
		return FailureNetworkUnavailable
	case fault.CodeServiceUnavailable, fault.CodeRecognizer, fault.CodeExternalService:
		return FailureServiceDown
	}

	if errors.Is(err, context.Canceled) {
		return FailureAborted
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return FailureNetworkUnavailable
	}

	return FailureServiceDown
}
