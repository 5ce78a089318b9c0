// ============================================================================
// VoiceAgent - Automated Voice Survey Platform
// ============================================================================
//
// Package:     recognizer
// Description: Streaming speech recognition interface
// Author:      Naeem Akhtar
// Created:     2026-08-13
// License:     MIT
// ============================================================================

package recognizer

import (
	"context"
)

// Recognizer opens streaming recognition sessions
type Recognizer interface {
	// Open starts a recognition stream for one capture attempt
	Open(ctx context.Context, cfg StreamConfig) (Stream, error)

	// Name identifies the engine
	Name() string
}

// Stream is one live recognition stream. Audio goes in as 16-bit
// little-endian PCM, events come out on the Events channel until it is
// closed after the stream ends.
type Stream interface {
	// Send writes one chunk of PCM audio to the service
	Send(pcm []byte) error

	// Flush asks the service to finalize whatever it currently holds
	// without closing the stream
	Flush() error

	// Events returns the event channel. Closed when the stream ends.
	Events() <-chan Event

	// Close ends the stream and releases the connection
	Close() error
}

// StreamConfig describes the audio contract for one stream
type StreamConfig struct {
	// SampleRate of the PCM audio
	SampleRate int

	// Channels is the channel count, normally 1
	Channels int

	// Language hint for the engine (e.g. "en")
	Language string

	// Model selects the engine model, empty for the engine default
	Model string

	// InterimResults requests partial transcripts while speech is ongoing
	InterimResults bool

	// VADEvents requests speech start and utterance end notifications
	VADEvents bool
}

// EventType identifies a recognition stream event
type EventType int

const (
	// EventTranscript - A partial or final transcript
	EventTranscript EventType = iota

	// EventSpeechStarted - The service heard the start of speech
	EventSpeechStarted

	// EventUtteranceEnd - The service decided the utterance is over
	EventUtteranceEnd

	// EventError - The stream failed
	EventError

	// EventClosed - The stream ended; no more events will follow
	EventClosed
)

// String returns the string representation of the event type
func (t EventType) String() string {
	switch t {
	case EventTranscript:
		return "transcript"
	case EventSpeechStarted:
		return "speech-started"
	case EventUtteranceEnd:
		return "utterance-end"
	case EventError:
		return "error"
	case EventClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Event is a single recognition stream event
type Event struct {
	Type       EventType
	Text       string
	Confidence float64
	IsFinal    bool
	Err        error
}
