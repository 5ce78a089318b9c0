// ============================================================================
// VoiceAgent - Automated Voice Survey Platform
// ============================================================================
//
// Package:     capture
// Description: Answer capture session - states and transitions
// Author:      Naeem Akhtar
// Created:     2026-08-12
// License:     MIT
// ============================================================================

package capture

// State represents the current state of an answer capture session
type State int

const (
	// StateIdle - Session created, capture not yet requested
	StateIdle State = iota

	// StateStarting - Audio input is being acquired, not yet ready
	StateStarting

	// StateListening - Input is live, waiting for a classifiable answer
	StateListening

	// StateResolving - A transcript is being classified
	StateResolving

	// StateResolved - A yes/no answer was produced (terminal)
	StateResolved

	// StateFailed - The attempt ended without an answer (terminal)
	StateFailed
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateListening:
		return "listening"
	case StateResolving:
		return "resolving"
	case StateResolved:
		return "resolved"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Icon returns an icon for the state
func (s State) Icon() string {
	switch s {
	case StateIdle:
		return "⏸"
	case StateStarting:
		return "⏳"
	case StateListening:
		return "🎤"
	case StateResolving:
		return "⚙️"
	case StateResolved:
		return "✅"
	case StateFailed:
		return "❌"
	default:
		return "?"
	}
}

// IsTerminal reports whether the state ends the session
func (s State) IsTerminal() bool {
	return s == StateResolved || s == StateFailed
}

// StateListener is called when the session state changes
type StateListener func(oldState, newState State)

// isValidTransition checks if a state transition is valid
func isValidTransition(from, to State) bool {
	// Define valid transitions
	validTransitions := map[State][]State{
		StateIdle:      {StateStarting, StateFailed},
		StateStarting:  {StateListening, StateFailed},
		StateListening: {StateResolving, StateFailed},
		StateResolving: {StateResolved, StateFailed},
		StateResolved:  {},
		StateFailed:    {},
	}

	validTargets, ok := validTransitions[from]
	if !ok {
		return false
	}

	for _, valid := range validTargets {
		if valid == to {
			return true
		}
	}

	return false
}
