// ============================================================================
// VoiceAgent - Automated Voice Survey Platform
// ============================================================================
//
// Package:     survey
// Description: Answer and intent classification for survey responses
// Author:      Naeem Akhtar
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package survey

import "strings"

// Intent is the interpreted meaning of a caller response
type Intent int

const (
	// IntentYes - An affirmative answer
	IntentYes Intent = iota

	// IntentNo - A negative answer
	IntentNo

	// IntentRepeat - The caller wants the question again
	IntentRepeat

	// IntentSkip - The caller wants to skip the question
	IntentSkip

	// IntentUnclear - The response could not be interpreted
	IntentUnclear

	// IntentTimeout - No response arrived at all
	IntentTimeout
)

// String returns the string representation of the intent
func (i Intent) String() string {
	switch i {
	case IntentYes:
		return "yes"
	case IntentNo:
		return "no"
	case IntentRepeat:
		return "repeat"
	case IntentSkip:
		return "skip"
	case IntentUnclear:
		return "unclear"
	case IntentTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Answer values stored for a question. Repeat has no answer value
// because a repeated question is not recorded.
const (
	AnswerYes     = "yes"
	AnswerNo      = "no"
	AnswerSkipped = "skipped"
	AnswerUnclear = "unclear"
	AnswerTimeout = "timeout"
)

// The keyword lists answers are matched against. Matching is by
// substring over the lowercased response, affirmative first.
var (
	yesWords = []string{
		"yes", "yeah", "yep", "correct", "right", "sure",
		"okay", "ok", "yup", "affirmative",
	}
	noWords = []string{
		"no", "nope", "nah", "incorrect", "wrong", "negative", "not",
	}
	repeatPhrases = []string{
		"repeat", "again", "say that again", "what was the question", "can you repeat",
	}
	skipPhrases = []string{
		"skip", "next", "pass", "move on", "continue",
	}
)

// Interpretation is the result of classifying one caller response
type Interpretation struct {
	Intent     Intent
	Answer     string
	Confidence float64
	Raw        string
}

// Interpret classifies a caller response. Speech takes precedence over
// keypad digits; with neither, the response is a timeout. The provided
// confidence is kept for recognized speech answers when positive,
// otherwise a default applies.
func Interpret(speech, digits string, confidence float64) Interpretation {
	if text := strings.TrimSpace(speech); text != "" {
		return interpretSpeech(text, confidence)
	}
	if d := strings.TrimSpace(digits); d != "" {
		return interpretDigits(d)
	}
	return Interpretation{Intent: IntentTimeout, Answer: AnswerTimeout, Confidence: 0}
}

// interpretSpeech matches the keyword lists in fixed order
func interpretSpeech(text string, confidence float64) Interpretation {
	lower := strings.ToLower(strings.TrimSpace(text))
	conf := confidence
	if conf <= 0 {
		conf = 0.9
	}

	if containsAny(lower, yesWords) {
		return Interpretation{Intent: IntentYes, Answer: AnswerYes, Confidence: conf, Raw: text}
	}
	if containsAny(lower, noWords) {
		return Interpretation{Intent: IntentNo, Answer: AnswerNo, Confidence: conf, Raw: text}
	}
	if containsAny(lower, repeatPhrases) {
		return Interpretation{Intent: IntentRepeat, Confidence: 0.8, Raw: text}
	}
	if containsAny(lower, skipPhrases) {
		return Interpretation{Intent: IntentSkip, Answer: AnswerSkipped, Confidence: 0.8, Raw: text}
	}
	return Interpretation{Intent: IntentUnclear, Answer: AnswerUnclear, Confidence: 0.3, Raw: text}
}

// interpretDigits maps keypad input: 1 is yes, 2 is no
func interpretDigits(digits string) Interpretation {
	switch digits {
	case "1":
		return Interpretation{Intent: IntentYes, Answer: AnswerYes, Confidence: 1.0, Raw: digits}
	case "2":
		return Interpretation{Intent: IntentNo, Answer: AnswerNo, Confidence: 1.0, Raw: digits}
	default:
		return Interpretation{Intent: IntentUnclear, Answer: AnswerUnclear, Confidence: 0.3, Raw: digits}
	}
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// Feedback returns the line spoken back to the caller after an answer
func Feedback(intent Intent) string {
	switch intent {
	case IntentYes:
		return "You said yes. Thank you."
	case IntentNo:
		return "You said no. Thank you."
	case IntentRepeat:
		return "Let me repeat the question."
	case IntentSkip:
		return "Okay, skipping that question."
	case IntentTimeout:
		return "I did not receive a response. Moving to the next question."
	default:
		return "I did not understand your response. Moving to the next question."
	}
}
