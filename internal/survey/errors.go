// ============================================================================
// VoiceAgent - Automated Voice Survey Platform
// ============================================================================
//
// Package:     survey
// Description: Error definitions for the survey engine
// Author:      Naeem Akhtar
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package survey

import "errors"

var (
	// Validation errors
	ErrMissingID     = errors.New("question set id is required")
	ErrMissingName   = errors.New("question set name is required")
	ErrNoQuestions   = errors.New("question set has no questions")
	ErrEmptyQuestion = errors.New("question text is empty")

	// Loading errors
	ErrSetNotFound = errors.New("question set not found")
	ErrInvalidYAML = errors.New("invalid YAML syntax")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionComplete = errors.New("session already completed")
)
