// ============================================================================
// VoiceAgent - Automated Voice Survey Platform
// ============================================================================
//
// Package:     capture
// Description: Answer capture session - transcript normalization
// Author:      Naeem Akhtar
// Created:     2026-08-12
// License:     MIT
// ============================================================================

package capture

import (
	"strings"
	"unicode"
)

// Answer is a resolved yes/no value
type Answer string

const (
	// AnswerYes - Affirmative answer
	AnswerYes Answer = "yes"

	// AnswerNo - Negative answer
	AnswerNo Answer = "no"
)

// Normalize lowercases and trims a transcript, drops punctuation and
// collapses runs of whitespace to single spaces.
func Normalize(text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))

	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Classify reports the answer contained in a transcript. A transcript
// containing "yes" anywhere counts as yes, otherwise one containing "no"
// anywhere counts as no. Repeated tokens ("yes yes") collapse into the
// single answer. The boolean is false when neither match applies.
func Classify(text string) (Answer, bool) {
	norm := Normalize(text)
	if norm == "" {
		return "", false
	}

	if strings.Contains(norm, "yes") {
		return AnswerYes, true
	}
	// TODO: match on word boundaries; plain substring matching classifies
	// transcripts like "sonora" or "notice" as a no answer.
	if strings.Contains(norm, "no") {
		return AnswerNo, true
	}

	return "", false
}

// IsExact reports whether the transcript normalizes to exactly "yes" or
// "no". Exact single-word answers are unambiguous and can be resolved
// without waiting for further speech.
func IsExact(text string) (Answer, bool) {
	switch Normalize(text) {
	case "yes":
		return AnswerYes, true
	case "no":
		return AnswerNo, true
	}
	return "", false
}
