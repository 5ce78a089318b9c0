// ============================================================================
// VoiceAgent - Automated Voice Survey Platform
// ============================================================================
//
// Package:     survey
// Description: YAML question set definitions
// Author:      Naeem Akhtar
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package survey

import (
	"fmt"
	"strings"
	"time"
)

// Default spoken lines. A question set can override any of them.
const (
	DefaultGreeting = "Hello, this is an automated survey call. " +
		"I will ask you a few questions. Please answer with yes or no."
	DefaultReprompt   = "Please say yes or no, or press 1 for yes, 2 for no."
	DefaultNoResponse = "I did not receive a response. Moving to the next question."
	DefaultClosing    = "Thank you for answering all questions. " +
		"Your responses have been recorded. Goodbye!"
)

// QuestionSet is a survey definition loaded from YAML
type QuestionSet struct {
	// Core identification
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`

	// Spoken lines, defaulted when empty
	Greeting   string `yaml:"greeting,omitempty"`
	Reprompt   string `yaml:"reprompt,omitempty"`
	NoResponse string `yaml:"no_response,omitempty"`
	Closing    string `yaml:"closing,omitempty"`

	// The questions, asked in order
	Questions []Question `yaml:"questions"`

	// Internal tracking (not from YAML)
	SourceFile string    `yaml:"-"`
	LoadedAt   time.Time `yaml:"-"`
}

// Question is a single yes/no survey question
type Question struct {
	ID   string `yaml:"id,omitempty"`
	Text string `yaml:"text"`
}

// Defaults applies default values to the question set
func (q *QuestionSet) Defaults() {
	if q.Greeting == "" {
		q.Greeting = DefaultGreeting
	}
	if q.Reprompt == "" {
		q.Reprompt = DefaultReprompt
	}
	if q.NoResponse == "" {
		q.NoResponse = DefaultNoResponse
	}
	if q.Closing == "" {
		q.Closing = DefaultClosing
	}
	for i := range q.Questions {
		if q.Questions[i].ID == "" {
			q.Questions[i].ID = fmt.Sprintf("q%d", i+1)
		}
	}
}

// Validate checks if the question set is valid
func (q *QuestionSet) Validate() error {
	if q.ID == "" {
		return ErrMissingID
	}
	if q.Name == "" {
		return ErrMissingName
	}
	if len(q.Questions) == 0 {
		return ErrNoQuestions
	}
	for _, question := range q.Questions {
		if strings.TrimSpace(question.Text) == "" {
			return ErrEmptyQuestion
		}
	}
	return nil
}

// Prompt returns the spoken line for the question at the given index, in
// the form callers expect: "Question N. <text>"
func (q *QuestionSet) Prompt(index int) string {
	if index < 0 || index >= len(q.Questions) {
		return ""
	}
	return fmt.Sprintf("Question %d. %s", index+1, q.Questions[index].Text)
}

// Len returns the number of questions
func (q *QuestionSet) Len() int {
	return len(q.Questions)
}

// DefaultQuestionSet returns the built-in demo survey used when no
// question sets are configured
func DefaultQuestionSet() *QuestionSet {
	set := &QuestionSet{
		ID:          "health-check",
		Name:        "Health Check Survey",
		Description: "Short demo health survey",
		Questions: []Question{
			{Text: "Do you have health insurance?"},
			{Text: "Are you currently taking any medications?"},
			{Text: "Have you visited a doctor in the last 6 months?"},
		},
		LoadedAt: time.Now(),
	}
	set.Defaults()
	return set
}
