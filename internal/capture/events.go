// ============================================================================
// VoiceAgent - Automated Voice Survey Platform
// ============================================================================
//
// Package:     capture
// Description: Answer capture session - event types
// Author:      Naeem Akhtar
// Created:     2026-08-12
// License:     MIT
// ============================================================================

package capture

import "time"

// eventKind identifies an event flowing through the session dispatcher
type eventKind int

const (
	evStart eventKind = iota
	evCancel
	evReadyExplicit
	evSoundDetected
	evSpeechStarted
	evSpeechEnded
	evInterim
	evFinal
	evStreamEnded
	evStreamError
	evFallbackTimer
	evSettleTimer
	evGraceTimer
	evOverallTimer
)

// String returns the string representation of the event kind
func (k eventKind) String() string {
	switch k {
	case evStart:
		return "start"
	case evCancel:
		return "cancel"
	case evReadyExplicit:
		return "ready"
	case evSoundDetected:
		return "sound"
	case evSpeechStarted:
		return "speech-started"
	case evSpeechEnded:
		return "speech-ended"
	case evInterim:
		return "interim"
	case evFinal:
		return "final"
	case evStreamEnded:
		return "stream-ended"
	case evStreamError:
		return "stream-error"
	case evFallbackTimer:
		return "fallback-timer"
	case evSettleTimer:
		return "settle-timer"
	case evGraceTimer:
		return "grace-timer"
	case evOverallTimer:
		return "overall-timer"
	default:
		return "unknown"
	}
}

// event is a single unit of work for the session dispatcher. Timer events
// carry the epoch of the arm that scheduled them so that stale timers can
// be dropped after a re-arm or cancel.
type event struct {
	kind    eventKind
	text    string
	conf    float64
	stage   int
	epoch   uint64
	failure FailureKind
	err     error
}

// timerID indexes the session timers
type timerID int

const (
	timerFallback timerID = iota
	timerSettle
	timerGrace
	timerOverall
	timerCount
)

// timerFor maps a timer event kind to its timer slot
func timerFor(kind eventKind) (timerID, bool) {
	switch kind {
	case evFallbackTimer:
		return timerFallback, true
	case evSettleTimer:
		return timerSettle, true
	case evGraceTimer:
		return timerGrace, true
	case evOverallTimer:
		return timerOverall, true
	}
	return 0, false
}

// Transcript is a recognition result forwarded to the session
type Transcript struct {
	Text       string
	Confidence float64
	IsFinal    bool
}

// Resolution is the successful outcome of a capture session
type Resolution struct {
	Answer     Answer
	Text       string
	Confidence float64
	Elapsed    time.Duration
}

// Failure is the unsuccessful outcome of a capture session. Message is
// the respondent-facing text and is empty for aborts.
type Failure struct {
	Kind    FailureKind
	Message string
	Err     error
}

// Callbacks receives session outcomes and progress. All callbacks are
// optional and are invoked outside the session lock, one at a time.
type Callbacks struct {
	OnReady    func(source ReadySource)
	OnInterim  func(t Transcript)
	OnResolved func(r Resolution)
	OnFailed   func(f Failure)
}
