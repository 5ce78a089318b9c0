// ============================================================================
// VoiceAgent - Automated Voice Survey Platform
// ============================================================================
//
// Package:     fault
// Description: Structured errors with codes, severity and detail context
// Author:      Naeem Akhtar
// Created:     2026-08-12
// License:     MIT
// ============================================================================

package fault

import (
	"errors"
	"fmt"
	"time"
)

// Error is a structured error carrying a classification code, a severity
// and optional detail context. It wraps a cause and remains compatible
// with errors.Is/errors.As through Unwrap.
type Error struct {
	message   string
	cause     error
	code      Code
	severity  Severity
	timestamp time.Time
	details   map[string]interface{}
}

// New creates a new Error with the given message
func New(message string) *Error {
	return &Error{
		message:   message,
		code:      CodeUnknown,
		severity:  SeverityMedium,
		timestamp: time.Now(),
	}
}

// Newf creates a new Error with a formatted message
func Newf(format string, args ...interface{}) *Error {
	return New(fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with additional context. Code and severity
// of a wrapped *Error are preserved; plain errors start at the defaults.
func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}

	wrapped := &Error{
		message:   message,
		cause:     err,
		code:      CodeUnknown,
		severity:  SeverityMedium,
		timestamp: time.Now(),
	}

	var fe *Error
	if errors.As(err, &fe) {
		wrapped.code = fe.code
		wrapped.severity = fe.severity
	}
	return wrapped
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, format string, args ...interface{}) *Error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

// Unwrap returns the wrapped cause
func (e *Error) Unwrap() error {
	return e.cause
}

// Message returns the message without the cause chain
func (e *Error) Message() string {
	return e.message
}

// Code returns the classification code
func (e *Error) Code() Code {
	return e.code
}

// Severity returns the severity level
func (e *Error) Severity() Severity {
	return e.severity
}

// Timestamp returns when the error was created
func (e *Error) Timestamp() time.Time {
	return e.timestamp
}

// Details returns the detail context map (may be nil)
func (e *Error) Details() map[string]interface{} {
	return e.details
}

// WithCode sets the classification code and adjusts severity to the
// code's default unless a severity was set explicitly before
func (e *Error) WithCode(code Code) *Error {
	e.code = code
	e.severity = SeverityFromCode(code)
	return e
}

// WithSeverity overrides the severity level
func (e *Error) WithSeverity(severity Severity) *Error {
	e.severity = severity
	return e
}

// WithDetail attaches a key-value detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.details == nil {
		e.details = make(map[string]interface{})
	}
	e.details[key] = value
	return e
}

// CodeOf extracts the classification code from any error. Plain errors
// report CodeUnknown; nil reports an empty code.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.code
	}
	return CodeUnknown
}

// IsCode reports whether any error in the chain carries the given code
func IsCode(err error, code Code) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.code == code
	}
	return false
}
