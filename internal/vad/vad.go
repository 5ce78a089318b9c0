// ============================================================================
// VoiceAgent - Automated Voice Survey Platform
// ============================================================================
//
// Package:     vad
// Description: Voice activity detection and speech edge tracking
// Author:      Naeem Akhtar
// Created:     2026-08-13
// License:     MIT
// ============================================================================

package vad

import (
	"time"
)

// Detector is the interface for voice activity detection
type Detector interface {
	// Process processes audio samples and returns whether speech is detected
	Process(samples []float32) (bool, error)

	// ProcessInt16 processes 16-bit integer samples
	ProcessInt16(samples []int16) (bool, error)

	// Close releases resources
	Close() error
}

// Config holds VAD configuration
type Config struct {
	// SampleRate is the audio sample rate (8000, 16000, 32000 or 48000)
	SampleRate int

	// Mode is the aggressiveness (0-3, higher filters more non-speech)
	Mode int

	// SilenceDuration is how long silence must last to mark end of speech
	SilenceDuration time.Duration

	// MinSpeechDuration debounces the start edge so short blips are ignored
	MinSpeechDuration time.Duration
}

// DefaultConfig returns default VAD configuration
func DefaultConfig() Config {
	return Config{
		SampleRate:        16000,
		Mode:              2,
		SilenceDuration:   800 * time.Millisecond,
		MinSpeechDuration: 200 * time.Millisecond,
	}
}

// Event is an edge in the speech signal
type Event int

const (
	// EventNone - No edge on this update
	EventNone Event = iota

	// EventSpeechStarted - Speech has persisted past the debounce
	EventSpeechStarted

	// EventSpeechEnded - Silence has persisted past the threshold
	EventSpeechEnded
)

// String returns the string representation of the event
func (e Event) String() string {
	switch e {
	case EventSpeechStarted:
		return "speech-started"
	case EventSpeechEnded:
		return "speech-ended"
	default:
		return "none"
	}
}

// State describes the current speech signal for display
type State struct {
	Speaking        bool
	SpeechDuration  time.Duration
	SilenceDuration time.Duration
}

// Tracker turns per-frame VAD decisions into speech start and end edges.
// A start edge fires once speech has persisted for the debounce period; an
// end edge fires once silence has persisted for the silence threshold.
// Not safe for concurrent use; drive it from a single frame loop.
type Tracker struct {
	cfg          Config
	speaking     bool
	speechSince  time.Time
	silenceSince time.Time
	segmentStart time.Time
}

// NewTracker creates a speech edge tracker
func NewTracker(cfg Config) *Tracker {
	if cfg.SilenceDuration <= 0 {
		cfg.SilenceDuration = DefaultConfig().SilenceDuration
	}
	if cfg.MinSpeechDuration < 0 {
		cfg.MinSpeechDuration = 0
	}
	return &Tracker{cfg: cfg}
}

// Update feeds one VAD decision and returns the edge it produced, if any
func (t *Tracker) Update(isSpeech bool) Event {
	now := time.Now()

	if isSpeech {
		if t.speechSince.IsZero() {
			t.speechSince = now
		}
		t.silenceSince = time.Time{}

		if !t.speaking && now.Sub(t.speechSince) >= t.cfg.MinSpeechDuration {
			t.speaking = true
			t.segmentStart = t.speechSince
			return EventSpeechStarted
		}
		return EventNone
	}

	t.speechSince = time.Time{}
	if t.silenceSince.IsZero() {
		t.silenceSince = now
	}

	if t.speaking && now.Sub(t.silenceSince) >= t.cfg.SilenceDuration {
		t.speaking = false
		return EventSpeechEnded
	}
	return EventNone
}

// State returns the current speech signal state
func (t *Tracker) State() State {
	now := time.Now()
	s := State{Speaking: t.speaking}
	if t.speaking && !t.segmentStart.IsZero() {
		s.SpeechDuration = now.Sub(t.segmentStart)
	}
	if !t.silenceSince.IsZero() {
		s.SilenceDuration = now.Sub(t.silenceSince)
	}
	return s
}

// Reset clears the tracker for a new capture
func (t *Tracker) Reset() {
	t.speaking = false
	t.speechSince = time.Time{}
	t.silenceSince = time.Time{}
	t.segmentStart = time.Time{}
}

// SetSilenceDuration updates the end-of-speech threshold
func (t *Tracker) SetSilenceDuration(d time.Duration) {
	if d > 0 {
		t.cfg.SilenceDuration = d
	}
}
