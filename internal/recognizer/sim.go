// ============================================================================
// VoiceAgent - Automated Voice Survey Platform
// ============================================================================
//
// Package:     recognizer
// Description: Scripted recognizer for demo mode
// Author:      Naeem Akhtar
// Created:     2026-08-13
// License:     MIT
// ============================================================================

package recognizer

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/naeemakhtar23/voiceagent/pkg/core/logging"
)

// Simulated is a Recognizer that plays back scripted answers instead of
// recognizing audio. Demo mode uses it to run the full capture flow
// without a microphone or an API key.
type Simulated struct {
	mu      sync.Mutex
	answers []string
	delay   time.Duration
	next    int
	log     *logging.Logger
}

// NewSimulated creates a scripted recognizer. Each opened stream plays
// the next answer from the list, cycling when the list runs out. An
// empty answer simulates a stream that hears nothing.
func NewSimulated(answers []string, delay time.Duration) *Simulated {
	if len(answers) == 0 {
		answers = []string{"yes"}
	}
	if delay <= 0 {
		delay = 1200 * time.Millisecond
	}
	return &Simulated{
		answers: answers,
		delay:   delay,
		log:     logging.New("recognizer-sim"),
	}
}

// Name identifies the engine
func (s *Simulated) Name() string {
	return "simulated"
}

// Open starts a stream that speaks the next scripted answer
func (s *Simulated) Open(ctx context.Context, _ StreamConfig) (Stream, error) {
	s.mu.Lock()
	answer := s.answers[s.next%len(s.answers)]
	s.next++
	s.mu.Unlock()

	st := &simStream{
		events: make(chan Event, eventBuffer),
		done:   make(chan struct{}),
	}
	s.log.Debug("Simulated stream opened", "answer", answer)
	go st.play(ctx, answer, s.delay)
	return st, nil
}

// simStream replays one scripted answer
type simStream struct {
	events chan Event
	done   chan struct{}
	stop   sync.Once
}

// play emits the event sequence a real stream would produce
func (st *simStream) play(ctx context.Context, answer string, delay time.Duration) {
	defer close(st.events)

	if answer == "" {
		// silent caller, nothing ever comes back
		st.wait(ctx, 24*time.Hour)
		st.emit(ctx, Event{Type: EventClosed})
		return
	}

	if !st.wait(ctx, delay) {
		st.emit(ctx, Event{Type: EventClosed})
		return
	}
	st.emit(ctx, Event{Type: EventSpeechStarted})

	// interim results arrive word by word
	words := strings.Fields(answer)
	partial := ""
	for _, w := range words {
		if partial != "" {
			partial += " "
		}
		partial += w
		if !st.wait(ctx, 120*time.Millisecond) {
			st.emit(ctx, Event{Type: EventClosed})
			return
		}
		st.emit(ctx, Event{Type: EventTranscript, Text: partial, Confidence: 0.72})
	}

	if !st.wait(ctx, 250*time.Millisecond) {
		st.emit(ctx, Event{Type: EventClosed})
		return
	}
	st.emit(ctx, Event{Type: EventTranscript, Text: answer, Confidence: 0.96, IsFinal: true})
	st.emit(ctx, Event{Type: EventUtteranceEnd})

	// keep the stream open until the session closes it
	st.wait(ctx, 24*time.Hour)
	st.emit(ctx, Event{Type: EventClosed})
}

// wait sleeps unless the stream or context ends first
func (st *simStream) wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-st.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// emit delivers an event unless the stream has been closed
func (st *simStream) emit(ctx context.Context, ev Event) {
	select {
	case st.events <- ev:
	case <-st.done:
	case <-ctx.Done():
	}
}

// Send accepts and discards audio
func (st *simStream) Send(_ []byte) error {
	return nil
}

// Flush is a no-op for scripted streams
func (st *simStream) Flush() error {
	return nil
}

// Events returns the event channel
func (st *simStream) Events() <-chan Event {
	return st.events
}

// Close ends the stream
func (st *simStream) Close() error {
	st.stop.Do(func() { close(st.done) })
	return nil
}
