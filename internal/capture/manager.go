// ============================================================================
// VoiceAgent - Automated Voice Survey Platform
// ============================================================================
//
// Package:     capture
// Description: Answer capture session - session serialization
// Author:      Naeem Akhtar
// Created:     2026-08-12
// License:     MIT
// ============================================================================

package capture

import (
	"context"
	"sync"
	"time"

	"github.com/naeemakhtar23/voiceagent/pkg/core/logging"
)

// PipelineFactory builds a fresh pipeline for each session, wired to the
// session's event sink
type PipelineFactory func(sink Sink) Pipeline

// Manager serializes capture sessions over a single exclusive audio
// input. Starting a new session while one is active cancels the old one
// internally and waits out the restart settle so the device is actually
// released before it is re-acquired. Start requests arriving during that
// teardown block until it completes rather than being dropped.
type Manager struct {
	mu          sync.Mutex
	cfg         Config
	log         *logging.Logger
	newPipeline PipelineFactory
	active      *Session
}

// NewManager creates a session manager. A nil factory produces sessions
// with no pipeline, driven purely by external events.
func NewManager(cfg Config, factory PipelineFactory) *Manager {
	if factory == nil {
		factory = func(Sink) Pipeline { return NopPipeline{} }
	}
	return &Manager{
		cfg:         cfg.withDefaults(),
		log:         logging.New("capture-manager"),
		newPipeline: factory,
	}
}

// Start begins a new capture session, replacing any active one. The
// replaced session is aborted without a user-visible failure. Holding the
// lock through the settle pause serializes bursts of start requests.
func (m *Manager) Start(ctx context.Context, cb Callbacks) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prev := m.active; prev != nil && !prev.State().IsTerminal() {
		m.log.Debug("cancelling active session before restart")
		prev.Cancel()
		// give the device a moment to actually release
		time.Sleep(m.cfg.RestartSettle)
	}

	s := New(m.cfg, cb)
	s.SetPipeline(m.newPipeline(s))
	if err := s.Start(ctx); err != nil {
		return nil, err
	}
	m.active = s
	return s, nil
}

// Cancel aborts the active session, if any
func (m *Manager) Cancel() {
	m.mu.Lock()
	s := m.active
	m.mu.Unlock()
	if s != nil {
		s.Cancel()
	}
}

// Active returns the most recently started session, which may already be
// terminal. Nil before the first Start.
func (m *Manager) Active() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}
