// ============================================================================
// VoiceAgent - Automated Voice Survey Platform
// ============================================================================
//
// Package:     capture
// Description: Answer capture session - readiness race
// Author:      Naeem Akhtar
// Created:     2026-08-12
// License:     MIT
// ============================================================================

package capture

import "time"

// ReadySource identifies which signal marked the session as listening
type ReadySource int

const (
	// ReadyExplicit - The recognizer confirmed it is accepting audio
	ReadyExplicit ReadySource = iota

	// ReadySound - The input level crossed the audible threshold
	ReadySound

	// ReadyFallback - No signal arrived, readiness was assumed after a delay
	ReadyFallback
)

// String returns the string representation of the ready source
func (s ReadySource) String() string {
	switch s {
	case ReadyExplicit:
		return "explicit"
	case ReadySound:
		return "sound"
	case ReadyFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// readyRace latches the first readiness signal to arrive. Not every
// platform delivers an explicit ready signal, and sound can be heard
// before the signal lands, so whichever source fires first wins and all
// later offers lose. The caller is responsible for synchronization.
type readyRace struct {
	won    bool
	source ReadySource
	at     time.Time
}

// Offer reports whether the given source won the race. Only the first
// offer ever wins.
func (r *readyRace) Offer(source ReadySource) bool {
	if r.won {
		return false
	}
	r.won = true
	r.source = source
	r.at = time.Now()
	return true
}

// Won reports whether any source has won the race yet
func (r *readyRace) Won() bool {
	return r.won
}

// Source returns the winning source. Only meaningful after Won is true.
func (r *readyRace) Source() ReadySource {
	return r.source
}

// At returns when the race was won
func (r *readyRace) At() time.Time {
	return r.at
}
