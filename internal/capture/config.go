// ============================================================================
// VoiceAgent - Automated Voice Survey Platform
// ============================================================================
//
// Package:     capture
// Description: Answer capture session - timer configuration
// Author:      Naeem Akhtar
// Created:     2026-08-12
// License:     MIT
// ============================================================================

package capture

import "time"

// Config holds the capture timers. Each stage is measured from its own
// trigger: the overall timeout from Start, the grace stages from the end
// of speech, the interim settle from the most recent interim transcript,
// the readiness fallback from Start. The required ordering is
// InterimSettle < GraceInitial < GraceExtended < OverallTimeout.
type Config struct {
	// OverallTimeout is the hard ceiling for the whole attempt
	OverallTimeout time.Duration

	// GraceInitial is the post-speech delay before the pipeline is flushed
	GraceInitial time.Duration

	// GraceExtended is the post-speech delay before the pipeline is restarted
	GraceExtended time.Duration

	// InterimSettle is the quiet period after which a pending interim is classified
	InterimSettle time.Duration

	// ReadyFallback is the delay after which readiness is assumed
	ReadyFallback time.Duration

	// RestartSettle is the device release pause between back-to-back sessions
	RestartSettle time.Duration

	// SoundThreshold is the RMS level treated as audible sound
	SoundThreshold float64
}

// DefaultConfig returns the default capture timers
func DefaultConfig() Config {
	return Config{
		OverallTimeout: 15 * time.Second,
		GraceInitial:   2500 * time.Millisecond,
		GraceExtended:  4 * time.Second,
		InterimSettle:  2 * time.Second,
		ReadyFallback:  1500 * time.Millisecond,
		RestartSettle:  300 * time.Millisecond,
		SoundThreshold: 0.01,
	}
}

// withDefaults fills unset fields from the defaults
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.OverallTimeout <= 0 {
		c.OverallTimeout = d.OverallTimeout
	}
	if c.GraceInitial <= 0 {
		c.GraceInitial = d.GraceInitial
	}
	if c.GraceExtended <= 0 {
		c.GraceExtended = d.GraceExtended
	}
	if c.InterimSettle <= 0 {
		c.InterimSettle = d.InterimSettle
	}
	if c.ReadyFallback <= 0 {
		c.ReadyFallback = d.ReadyFallback
	}
	if c.RestartSettle <= 0 {
		c.RestartSettle = d.RestartSettle
	}
	if c.SoundThreshold <= 0 {
		c.SoundThreshold = d.SoundThreshold
	}
	return c
}
