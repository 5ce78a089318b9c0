// ============================================================================
// VoiceAgent - Automated Voice Survey Platform
// ============================================================================
//
// Package:     survey
// Description: Demo mode - simulated calls without telephony
// Author:      Naeem Akhtar
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package survey

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/naeemakhtar23/voiceagent/pkg/core/logging"
)

// SimulatorConfig controls the simulated caller
type SimulatorConfig struct {
	// Answers are cycled through the questions
	Answers []string

	// StepDelay is the pause before each simulated answer
	StepDelay time.Duration
}

// SimulatedStep reports one answered question during a simulated call
type SimulatedStep struct {
	QuestionNumber int
	Total          int
	Question       string
	Answer         string
	Confidence     float64
}

// Simulator walks a survey session with scripted answers so the whole
// flow can be demonstrated without telephony or a microphone
type Simulator struct {
	ctrl *Controller
	cfg  SimulatorConfig
	rng  *rand.Rand
	log  *logging.Logger
}

// NewSimulator creates a call simulator driving the given controller
func NewSimulator(ctrl *Controller, cfg SimulatorConfig) *Simulator {
	if len(cfg.Answers) == 0 {
		cfg.Answers = []string{"yes", "no", "yes", "no", "yes"}
	}
	if cfg.StepDelay <= 0 {
		cfg.StepDelay = 600 * time.Millisecond
	}
	return &Simulator{
		ctrl: ctrl,
		cfg:  cfg,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
		log:  logging.New("simulator"),
	}
}

// SimCallSID builds the placeholder call SID recorded for simulated calls
func SimCallSID(callID int64) string {
	return fmt.Sprintf("CA_DEMO_%d_%06d", callID, rand.Intn(900000)+100000)
}

// Run simulates one complete call. Each question is answered after the
// step delay with the next scripted answer and a plausible confidence.
// The optional onStep callback fires after every recorded answer.
func (s *Simulator) Run(ctx context.Context, callID int64, onStep func(SimulatedStep)) (*Results, error) {
	sess := s.ctrl.StartSession(callID)
	s.log.Info("Simulated call started", "session", sess.ID, "call", callID)

	for i := 0; ; i++ {
		if err := s.pause(ctx); err != nil {
			s.ctrl.Abandon(sess.ID)
			return nil, err
		}

		question, number, err := s.ctrl.Question(sess.ID)
		if err != nil {
			return nil, err
		}

		answer := s.cfg.Answers[i%len(s.cfg.Answers)]
		conf := math.Round((0.85+s.rng.Float64()*0.13)*100) / 100

		in := Interpret(answer, "", conf)
		out, err := s.ctrl.Submit(sess.ID, in)
		if err != nil {
			return nil, err
		}

		if onStep != nil {
			onStep(SimulatedStep{
				QuestionNumber: number,
				Total:          out.Total,
				Question:       question,
				Answer:         in.Answer,
				Confidence:     in.Confidence,
			})
		}

		if out.Action == ActionComplete {
			s.log.Info("Simulated call completed",
				"session", sess.ID,
				"yes", out.Results.Summary.Yes,
				"no", out.Results.Summary.No)
			return out.Results, nil
		}
	}
}

// pause waits the step delay or returns early when the context ends
func (s *Simulator) pause(ctx context.Context) error {
	t := time.NewTimer(s.cfg.StepDelay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
