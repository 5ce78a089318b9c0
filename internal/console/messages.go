// ============================================================================
// VoiceAgent - Automated Voice Survey Platform
// ============================================================================
//
// Package:     console
// Description: Message types and the scripted capture feed
// Author:      Naeem Akhtar
// Created:     2026-08-15
// License:     MIT
// ============================================================================

package console

import (
	"context"
	"sync"
	"time"

	"github.com/naeemakhtar23/voiceagent/internal/capture"
	"github.com/naeemakhtar23/voiceagent/internal/survey"
)

// AnswerLine is one asked-and-answered pair shown in the history pane
type AnswerLine struct {
	Number   int    // question number, 1-based
	Question string // question text
	Answer   string // classified answer (yes, no, skipped, ...)
	Raw      string // what was heard or typed
	Typed    bool   // true when the answer was typed, not spoken
}

// Message types for tea.Cmd async operations

// captureStartedMsg is sent when a listen turn has been started
type captureStartedMsg struct {
	err error
}

// captureReadyMsg is sent when the capture session starts listening
type captureReadyMsg struct {
	source capture.ReadySource
}

// captureInterimMsg carries a partial transcript while listening
type captureInterimMsg struct {
	transcript capture.Transcript
}

// captureResolvedMsg is sent when the capture session resolved an answer
type captureResolvedMsg struct {
	res capture.Resolution
}

// captureFailedMsg is sent when the capture session failed
type captureFailedMsg struct {
	fail capture.Failure
}

// outcomeMsg carries the controller's reaction to a submitted answer
type outcomeMsg struct {
	out   survey.Outcome
	raw   string
	typed bool
	err   error
}

// advanceMsg moves the flow past a timed pause (greeting, feedback)
type advanceMsg struct{}

// script doles out one spoken line per listen turn. When the lines run
// out the feed goes silent and the capture session times out, which is
// exactly what a caller who stopped talking looks like.
type script struct {
	mu    sync.Mutex
	lines []string
	pos   int
	delay time.Duration
}

func newScript(lines []string, delay time.Duration) *script {
	if delay <= 0 {
		delay = 400 * time.Millisecond
	}
	return &script{lines: lines, delay: delay}
}

// next returns the next scripted line, or ok=false when exhausted
func (s *script) next() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos >= len(s.lines) {
		return "", false
	}
	line := s.lines[s.pos]
	s.pos++
	return line, true
}

// remaining reports how many scripted lines are left
func (s *script) remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines) - s.pos
}

// factory returns a PipelineFactory that plays one scripted line into
// each new capture session
func (s *script) factory() capture.PipelineFactory {
	return func(sink capture.Sink) capture.Pipeline {
		line, ok := s.next()
		return &scriptFeed{sink: sink, line: line, speak: ok, delay: s.delay}
	}
}

// scriptFeed is a capture.Pipeline that simulates a caller: it reports
// readiness, "speaks" its line as an interim then a final transcript,
// and stays silent when it has nothing to say.
type scriptFeed struct {
	sink  capture.Sink
	line  string
	speak bool
	delay time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	flushCh chan struct{}
	flushed sync.Once
	done    bool
}

const scriptConfidence = 0.92

// Start plays the scripted line on its own schedule
func (f *scriptFeed) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	f.mu.Lock()
	f.cancel = cancel
	f.flushCh = make(chan struct{})
	f.mu.Unlock()

	go f.run(ctx)
	return nil
}

// Flush skips the remaining pauses and delivers the final transcript
// immediately, the way a recognizer finalizes on request
func (f *scriptFeed) Flush() error {
	f.mu.Lock()
	ch := f.flushCh
	f.mu.Unlock()
	if ch != nil {
		f.flushed.Do(func() { close(ch) })
	}
	return nil
}

// Restart is a no-op; the scripted line is not repeated
func (f *scriptFeed) Restart() error { return nil }

// Stop halts the feed
func (f *scriptFeed) Stop() error {
	f.mu.Lock()
	cancel := f.cancel
	f.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return nil
}

func (f *scriptFeed) run(ctx context.Context) {
	// a short pause before readiness, like a device opening
	if !f.pause(ctx, f.delay/4) {
		return
	}
	f.sink.HandleReady()

	if !f.speak {
		// nothing to say: stay silent and let the session time out
		return
	}

	if !f.pause(ctx, f.delay) {
		return
	}
	f.sink.HandleSound()
	f.sink.HandleSpeechStarted()

	if !f.pause(ctx, f.delay) {
		f.finish(ctx)
		return
	}
	f.sink.HandleTranscript(f.line, scriptConfidence, false)

	if !f.pause(ctx, f.delay) {
		f.finish(ctx)
		return
	}
	f.sink.HandleSpeechEnded()

	if !f.pause(ctx, f.delay/2) {
		f.finish(ctx)
		return
	}
	f.finish(ctx)
}

// finish delivers the final transcript exactly once
func (f *scriptFeed) finish(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	f.mu.Lock()
	if f.done {
		f.mu.Unlock()
		return
	}
	f.done = true
	f.mu.Unlock()
	f.sink.HandleTranscript(f.line, scriptConfidence, true)
}

// pause waits for d, a flush, or cancellation. A flush returns false so
// the caller jumps straight to the final transcript.
func (f *scriptFeed) pause(ctx context.Context, d time.Duration) bool {
	f.mu.Lock()
	ch := f.flushCh
	f.mu.Unlock()

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-ch:
		f.finish(ctx)
		return false
	case <-t.C:
		return true
	}
}
