// ============================================================================
// VoiceAgent - Automated Voice Survey Platform
// ============================================================================
//
// Package:     capture
// Description: Answer capture session - event dispatcher and timers
// Author:      Naeem Akhtar
// Created:     2026-08-12
// License:     MIT
// ============================================================================

package capture

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/naeemakhtar23/voiceagent/pkg/core/fault"
	"github.com/naeemakhtar23/voiceagent/pkg/core/logging"
)

// defaultConfidence is assumed when the recognizer reports none
const defaultConfidence = 0.9

// Pipeline is the audio and recognition backend a session controls.
// Flush stops feeding audio so the recognizer finalizes what it holds,
// Restart drops and re-acquires the input stream for one more attempt.
// Implementations must tolerate calls after Stop.
type Pipeline interface {
	Start(ctx context.Context) error
	Flush() error
	Restart() error
	Stop() error
}

// Sink is the event inlet a pipeline feeds. *Session implements it.
type Sink interface {
	HandleReady()
	HandleSound()
	HandleSpeechStarted()
	HandleSpeechEnded()
	HandleTranscript(text string, confidence float64, isFinal bool)
	HandleStreamEnded()
	HandleStreamError(err error)
}

// NopPipeline is a Pipeline that does nothing. Sessions driven purely by
// external events (tests, simulations, telephony webhooks) use it.
type NopPipeline struct{}

// Start implements Pipeline
func (NopPipeline) Start(context.Context) error { return nil }

// Flush implements Pipeline
func (NopPipeline) Flush() error { return nil }

// Restart implements Pipeline
func (NopPipeline) Restart() error { return nil }

// Stop implements Pipeline
func (NopPipeline) Stop() error { return nil }

// Session runs a single answer capture attempt. All events, including
// timer expirations, funnel through one dispatcher guarded by a mutex,
// so handlers never race. Once a terminal outcome is reached the session
// latches and every later event is ignored, which keeps out-of-order
// events from double-resolving an answer.
type Session struct {
	mu  sync.Mutex
	cfg Config
	cb  Callbacks
	log *logging.Logger

	pipeline Pipeline

	state         State
	previousState State
	stateTime     time.Time
	startedAt     time.Time

	ready      readyRace
	graceStage int

	interimText string
	interimConf float64

	resolved bool
	result   *Resolution
	failure  *Failure

	timers [timerCount]*time.Timer
	epochs [timerCount]uint64

	listeners []StateListener
	done      chan struct{}
}

// New creates a capture session with the given timers and callbacks
func New(cfg Config, cb Callbacks) *Session {
	return &Session{
		cfg:       cfg.withDefaults(),
		cb:        cb,
		log:       logging.New("capture"),
		pipeline:  NopPipeline{},
		state:     StateIdle,
		stateTime: time.Now(),
		done:      make(chan struct{}),
	}
}

// SetPipeline sets the audio backend. Must be called before Start.
func (s *Session) SetPipeline(p Pipeline) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p == nil {
		p = NopPipeline{}
	}
	s.pipeline = p
}

// AddListener adds a state change listener. Listeners are invoked outside
// the session lock in registration order.
func (s *Session) AddListener(l StateListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Start begins the capture attempt. The session arms the overall timeout
// and the readiness fallback, then starts the pipeline. Pipeline failures
// are reported through OnFailed, not the return value; Start only errors
// when the session was already started. Cancelling the context aborts the
// session the same way Cancel does.
func (s *Session) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	if s.state != StateIdle {
		state := s.state
		s.mu.Unlock()
		return fault.Newf("capture session already started (state %s)", state).
			WithCode(fault.CodeInvalidInput)
	}
	s.startedAt = time.Now()
	after := s.handleLocked(event{kind: evStart})
	s.mu.Unlock()
	s.run(after)

	go func() {
		select {
		case <-ctx.Done():
			s.Cancel()
		case <-s.done:
		}
	}()

	if err := s.pipeline.Start(ctx); err != nil {
		s.log.Warn("pipeline start failed", "error", err)
		s.dispatch(event{kind: evStreamError, failure: FailureFromError(err), err: err})
	}

	return nil
}

// Cancel aborts the session. The abort is internal: the pipeline is
// released, OnFailed is not invoked and no user-visible error is
// produced. Cancelling a terminal session is a no-op.
func (s *Session) Cancel() {
	s.dispatch(event{kind: evCancel})
}

// HandleReady reports that the recognizer confirmed it is accepting audio
func (s *Session) HandleReady() {
	s.dispatch(event{kind: evReadyExplicit})
}

// HandleSound reports that the input level crossed the audible threshold
func (s *Session) HandleSound() {
	s.dispatch(event{kind: evSoundDetected})
}

// HandleSpeechStarted reports the beginning of a speech segment
func (s *Session) HandleSpeechStarted() {
	s.dispatch(event{kind: evSpeechStarted})
}

// HandleSpeechEnded reports the end of a speech segment
func (s *Session) HandleSpeechEnded() {
	s.dispatch(event{kind: evSpeechEnded})
}

// HandleTranscript feeds a recognition result into the session
func (s *Session) HandleTranscript(text string, confidence float64, isFinal bool) {
	kind := evInterim
	if isFinal {
		kind = evFinal
	}
	s.dispatch(event{kind: kind, text: text, conf: confidence})
}

// HandleStreamEnded reports that the recognition stream closed
func (s *Session) HandleStreamEnded() {
	s.dispatch(event{kind: evStreamEnded})
}

// HandleStreamError reports a pipeline or recognition error
func (s *Session) HandleStreamError(err error) {
	s.dispatch(event{kind: evStreamError, failure: FailureFromError(err), err: err})
}

// State returns the current session state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done returns a channel closed when the session reaches a terminal state
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Outcome returns the terminal result of the session. Exactly one return
// is non-nil once the session is terminal; both are nil before that.
func (s *Session) Outcome() (*Resolution, *Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res *Resolution
	var fail *Failure
	if s.result != nil {
		r := *s.result
		res = &r
	}
	if s.failure != nil {
		f := *s.failure
		fail = &f
	}
	return res, fail
}

// Snapshot describes the observable session state for UIs and event feeds
type Snapshot struct {
	State       State
	Previous    State
	EnteredAt   time.Time
	Ready       bool
	ReadySource ReadySource
	Interim     string
}

// Snapshot returns a copy of the observable session state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		State:       s.state,
		Previous:    s.previousState,
		EnteredAt:   s.stateTime,
		Ready:       s.ready.Won(),
		ReadySource: s.ready.Source(),
		Interim:     s.interimText,
	}
}

// dispatch is the single entry point for all session events. Handlers run
// under the lock and collect follow-up work (callbacks, pipeline calls,
// listener notifications) that runs after the lock is released.
func (s *Session) dispatch(ev event) {
	s.mu.Lock()
	after := s.handleLocked(ev)
	s.mu.Unlock()
	s.run(after)
}

// run executes deferred follow-up work in order
func (s *Session) run(after []func()) {
	for _, fn := range after {
		fn()
	}
}

// handleLocked routes one event to its handler. The resolution latch is
// checked before anything else; stale timer events are dropped by epoch.
func (s *Session) handleLocked(ev event) []func() {
	if s.resolved {
		s.log.Debug("event after resolution ignored",
			"event", ev.kind.String(), "state", s.state.String())
		return nil
	}

	if id, isTimer := timerFor(ev.kind); isTimer && ev.epoch != s.epochs[id] {
		return nil
	}

	var after []func()
	switch ev.kind {
	case evStart:
		s.startLocked(&after)
	case evCancel:
		s.abortLocked(&after)
	case evReadyExplicit:
		s.readyLocked(ReadyExplicit, &after)
	case evSoundDetected:
		s.readyLocked(ReadySound, &after)
	case evFallbackTimer:
		s.readyLocked(ReadyFallback, &after)
	case evSpeechStarted:
		s.speechStartedLocked(&after)
	case evSpeechEnded:
		s.speechEndedLocked()
	case evInterim:
		s.interimLocked(ev.text, ev.conf, &after)
	case evFinal:
		s.finalLocked(ev.text, ev.conf, &after)
	case evSettleTimer:
		s.settleElapsedLocked(&after)
	case evGraceTimer:
		s.graceElapsedLocked(ev.stage, &after)
	case evOverallTimer:
		s.overallElapsedLocked(&after)
	case evStreamEnded:
		s.streamEndedLocked()
	case evStreamError:
		s.streamErrorLocked(ev.failure, ev.err, &after)
	}
	return after
}

// startLocked arms the overall and readiness fallback timers
func (s *Session) startLocked(after *[]func()) {
	s.transitionLocked(StateStarting, after)
	s.armLocked(timerOverall, s.cfg.OverallTimeout, evOverallTimer, 0)
	s.armLocked(timerFallback, s.cfg.ReadyFallback, evFallbackTimer, 0)
	s.log.Debug("capture starting",
		"overallTimeout", s.cfg.OverallTimeout, "readyFallback", s.cfg.ReadyFallback)
}

// readyLocked marks the session as listening if the source wins the
// readiness race. Later signals lose silently.
func (s *Session) readyLocked(source ReadySource, after *[]func()) {
	if s.state != StateStarting {
		return
	}
	if !s.ready.Offer(source) {
		return
	}

	s.disarmLocked(timerFallback)
	if !s.transitionLocked(StateListening, after) {
		return
	}

	s.log.Info("capture ready",
		"source", source.String(),
		"elapsed", time.Since(s.startedAt).Round(time.Millisecond))

	if cb := s.cb.OnReady; cb != nil {
		*after = append(*after, func() { cb(source) })
	}
}

// speechStartedLocked clears any pending grace escalation. Speech can
// double as the readiness signal when it beats the explicit one.
func (s *Session) speechStartedLocked(after *[]func()) {
	if s.state == StateStarting {
		s.readyLocked(ReadySound, after)
	}
	if s.graceStage > 0 {
		s.log.Debug("speech resumed, grace escalation cleared")
	}
	s.graceStage = 0
	s.disarmLocked(timerGrace)
}

// speechEndedLocked arms the first grace stage. The recognizer often
// holds the last fragment until more audio arrives, so silence starts a
// countdown that will force it out.
func (s *Session) speechEndedLocked() {
	if s.state != StateListening {
		return
	}
	s.graceStage = 1
	s.armLocked(timerGrace, s.cfg.GraceInitial, evGraceTimer, 1)
	s.log.Debug("speech ended, grace armed", "delay", s.cfg.GraceInitial)
}

// interimLocked records an interim transcript. Exact single-word answers
// resolve immediately; anything else arms the settle timer and waits for
// the transcript to stop changing.
func (s *Session) interimLocked(text string, conf float64, after *[]func()) {
	if s.state == StateStarting {
		// a transcript implies the recognizer heard sound
		s.readyLocked(ReadySound, after)
	}
	if s.state != StateListening {
		return
	}
	if strings.TrimSpace(text) == "" {
		return
	}

	s.interimText = text
	s.interimConf = conf

	// speech is clearly ongoing
	s.graceStage = 0
	s.disarmLocked(timerGrace)

	if cb := s.cb.OnInterim; cb != nil {
		t := Transcript{Text: text, Confidence: conf}
		*after = append(*after, func() { cb(t) })
	}

	if answer, ok := IsExact(text); ok {
		s.resolveLocked(text, answer, conf, after)
		return
	}

	s.armLocked(timerSettle, s.cfg.InterimSettle, evSettleTimer, 0)
}

// finalLocked classifies a final transcript. Finals are the recognizer's
// settled verdict, so an unmatched final fails immediately as unclear.
func (s *Session) finalLocked(text string, conf float64, after *[]func()) {
	if s.state == StateStarting {
		s.readyLocked(ReadySound, after)
	}
	if s.state != StateListening {
		return
	}
	if strings.TrimSpace(text) == "" {
		return
	}

	if cb := s.cb.OnInterim; cb != nil {
		t := Transcript{Text: text, Confidence: conf, IsFinal: true}
		*after = append(*after, func() { cb(t) })
	}

	if answer, ok := Classify(text); ok {
		s.resolveLocked(text, answer, conf, after)
		return
	}
	s.failLocked(FailureUnclear, nil, after)
}

// settleElapsedLocked classifies the pending interim once it has stopped
// changing for the settle period
func (s *Session) settleElapsedLocked(after *[]func()) {
	if s.state != StateListening || s.interimText == "" {
		return
	}
	if answer, ok := Classify(s.interimText); ok {
		s.resolveLocked(s.interimText, answer, s.interimConf, after)
		return
	}
	s.failLocked(FailureUnclear, nil, after)
}

// graceElapsedLocked escalates after post-speech silence: stage 1 flushes
// the pipeline so held results finalize, stage 2 restarts the input
// stream for one more attempt. The stage 2 delay is the remainder of
// GraceExtended measured from the end of speech.
func (s *Session) graceElapsedLocked(stage int, after *[]func()) {
	if s.state != StateListening {
		return
	}
	p := s.pipeline

	switch stage {
	case 1:
		s.graceStage = 2
		s.armLocked(timerGrace, s.cfg.GraceExtended-s.cfg.GraceInitial, evGraceTimer, 2)
		s.log.Debug("grace stage 1, flushing pipeline")
		*after = append(*after, func() {
			if err := p.Flush(); err != nil {
				s.log.Warn("pipeline flush failed", "error", err)
			}
		})
	case 2:
		s.log.Debug("grace stage 2, restarting pipeline")
		*after = append(*after, func() {
			if err := p.Restart(); err != nil {
				s.log.Warn("pipeline restart failed", "error", err)
			}
		})
	}
}

// overallElapsedLocked closes the capture window. A pending interim gets
// one last classification; otherwise the attempt failed for lack of
// speech.
func (s *Session) overallElapsedLocked(after *[]func()) {
	if s.interimText != "" {
		if answer, ok := Classify(s.interimText); ok {
			s.log.Info("window closed with classifiable interim, accepting",
				"text", s.interimText)
			s.resolveLocked(s.interimText, answer, s.interimConf, after)
			return
		}
		s.failLocked(FailureUnclear, nil, after)
		return
	}
	s.failLocked(FailureNoSpeech, nil, after)
}

// streamEndedLocked treats a closed stream like the end of speech so the
// grace path can flush and restart it. Streams that end after resolution
// are already swallowed by the latch.
func (s *Session) streamEndedLocked() {
	if s.state != StateListening || s.graceStage > 0 {
		return
	}
	s.speechEndedLocked()
}

// streamErrorLocked fails the session, except for intentional aborts
// which stay silent
func (s *Session) streamErrorLocked(kind FailureKind, err error, after *[]func()) {
	if kind == FailureAborted {
		s.abortLocked(after)
		return
	}
	s.failLocked(kind, err, after)
}

// resolveLocked latches the session with an answer
func (s *Session) resolveLocked(text string, answer Answer, conf float64, after *[]func()) {
	s.resolved = true
	s.disarmAllLocked()

	if conf <= 0 {
		conf = defaultConfidence
	}

	s.transitionLocked(StateResolving, after)
	res := Resolution{
		Answer:     answer,
		Text:       text,
		Confidence: conf,
		Elapsed:    time.Since(s.startedAt),
	}
	s.result = &res
	s.transitionLocked(StateResolved, after)

	s.log.Info("answer resolved",
		"answer", string(answer),
		"text", text,
		"confidence", conf,
		"elapsed", res.Elapsed.Round(time.Millisecond))

	p := s.pipeline
	cb := s.cb.OnResolved
	*after = append(*after, func() {
		if err := p.Stop(); err != nil {
			s.log.Debug("pipeline stop", "error", err)
		}
		if cb != nil {
			cb(res)
		}
	})
	close(s.done)
}

// failLocked latches the session with a failure. Unclear classifications
// pass through Resolving first because classification is what failed.
func (s *Session) failLocked(kind FailureKind, cause error, after *[]func()) {
	s.resolved = true
	s.disarmAllLocked()

	if kind == FailureUnclear && s.state == StateListening {
		s.transitionLocked(StateResolving, after)
	}
	s.transitionLocked(StateFailed, after)

	f := Failure{Kind: kind, Message: kind.UserMessage(), Err: cause}
	s.failure = &f

	if cause != nil {
		s.log.Warn("capture failed", "kind", kind.String(), "error", cause)
	} else {
		s.log.Warn("capture failed", "kind", kind.String())
	}

	p := s.pipeline
	cb := s.cb.OnFailed
	*after = append(*after, func() {
		if err := p.Stop(); err != nil {
			s.log.Debug("pipeline stop", "error", err)
		}
		if cb != nil && kind.UserVisible() {
			cb(f)
		}
	})
	close(s.done)
}

// abortLocked latches the session as intentionally cancelled. No failure
// callback fires; the caller asked for this.
func (s *Session) abortLocked(after *[]func()) {
	s.resolved = true
	s.disarmAllLocked()
	s.transitionLocked(StateFailed, after)

	s.failure = &Failure{Kind: FailureAborted}
	s.log.Debug("capture aborted")

	p := s.pipeline
	*after = append(*after, func() {
		if err := p.Stop(); err != nil {
			s.log.Debug("pipeline stop", "error", err)
		}
	})
	close(s.done)
}

// transitionLocked changes the session state if the transition is valid
// and queues the listener notifications
func (s *Session) transitionLocked(to State, after *[]func()) bool {
	from := s.state
	if !isValidTransition(from, to) {
		s.log.Warn("invalid state transition",
			"from", from.String(), "to", to.String())
		return false
	}

	s.previousState = from
	s.state = to
	s.stateTime = time.Now()
	s.log.Debug("state changed", "from", from.String(), "to", to.String())

	listeners := s.listeners
	*after = append(*after, func() {
		for _, l := range listeners {
			l(from, to)
		}
	})
	return true
}

// armLocked schedules a timer event. Re-arming bumps the epoch so an
// already-fired callback from the previous arm is dropped on dispatch.
func (s *Session) armLocked(id timerID, d time.Duration, kind eventKind, stage int) {
	s.epochs[id]++
	epoch := s.epochs[id]
	if s.timers[id] != nil {
		s.timers[id].Stop()
	}
	s.timers[id] = time.AfterFunc(d, func() {
		s.dispatch(event{kind: kind, stage: stage, epoch: epoch})
	})
}

// disarmLocked stops a timer and invalidates its in-flight events
func (s *Session) disarmLocked(id timerID) {
	s.epochs[id]++
	if s.timers[id] != nil {
		s.timers[id].Stop()
		s.timers[id] = nil
	}
}

// disarmAllLocked stops every timer
func (s *Session) disarmAllLocked() {
	for id := timerID(0); id < timerCount; id++ {
		s.disarmLocked(id)
	}
}
