// ============================================================================
// VoiceAgent - Automated Voice Survey Platform
// ============================================================================
//
// Package:     telephony
// Description: Webhook-driven survey call flow
// Author:      Naeem Akhtar
// Created:     2026-08-13
// License:     MIT
// ============================================================================

package telephony

import (
	"context"
	"fmt"

	"github.com/naeemakhtar23/voiceagent/internal/store"
	"github.com/naeemakhtar23/voiceagent/internal/survey"
	"github.com/naeemakhtar23/voiceagent/pkg/core/logging"
)

// Gather tuning. The overall timeout is generous because call audio
// adds latency on top of recognition.
const (
	gatherTimeout   = 15
	gatherNumDigits = 1
)

// Flow renders the TwiML for each step of a survey call. It is
// stateless between webhooks; all call state lives in the store, and
// the current position travels in the webhook query string.
type Flow struct {
	store store.Store
	base  string
	log   *logging.Logger
}

// NewFlow creates a flow renderer. base is the public URL Twilio uses
// to reach this server, without a trailing slash.
func NewFlow(st store.Store, base string) *Flow {
	return &Flow{
		store: st,
		base:  base,
		log:   logging.New("call-flow"),
	}
}

// FlowURL returns the voice flow webhook URL for a call
func (f *Flow) FlowURL(callID int64) string {
	return fmt.Sprintf("%s/api/v1/voice/flow?call_id=%d", f.base, callID)
}

// StatusURL returns the status callback webhook URL
func (f *Flow) StatusURL() string {
	return f.base + "/api/v1/voice/status"
}

func (f *Flow) stepURL(callID int64, question int) string {
	return fmt.Sprintf("%s/api/v1/voice/flow?call_id=%d&q_num=%d", f.base, callID, question)
}

func (f *Flow) answerURL(callID int64, question int) string {
	return fmt.Sprintf("%s/api/v1/voice/answer?call_id=%d&q_num=%d", f.base, callID, question)
}

// Question renders the TwiML for asking question q of the call. Past
// the last question it renders the closing, completes the call and
// archives its results.
func (f *Flow) Question(ctx context.Context, callID int64, q int) string {
	call, err := f.store.GetCall(ctx, callID)
	if err != nil {
		f.log.Error("Voice flow for unknown call", "callID", callID, "error", err)
		return NewTwiML().
			Say("I'm sorry, but I could not find the questions for this call. The call will now end.").
			Hangup().
			Render()
	}

	questions := call.Questions()
	if len(questions) == 0 {
		f.log.Error("Call has no questions", "callID", callID)
		return NewTwiML().
			Say("I'm sorry, but the questions list is empty. The call will now end.").
			Hangup().
			Render()
	}

	t := NewTwiML()

	// Greet on the first question only
	if q == 0 {
		t.Say(survey.DefaultGreeting)
		t.Pause(2)
	}

	if q >= 0 && q < len(questions) {
		f.log.Info("Asking question", "callID", callID, "question", q+1, "total", len(questions))

		t.Say(fmt.Sprintf("Question %d. %s", q+1, questions[q]))
		t.Pause(1)

		// The reprompt sits inside the Gather so it plays before the
		// wait starts
		t.Gather(Gather{
			Input:         "speech dtmf",
			Language:      "en-US",
			SpeechTimeout: "auto",
			Timeout:       gatherTimeout,
			NumDigits:     gatherNumDigits,
			FinishOnKey:   "#",
			Action:        f.answerURL(callID, q),
			Method:        "POST",
			Say:           &Say{Voice: VoiceAlice, Text: survey.DefaultReprompt},
		})

		// Only reached when the Gather times out with no input at all
		t.Say(survey.DefaultNoResponse)
		t.Pause(0.5)
		t.Redirect(f.stepURL(callID, q+1))
		return t.Render()
	}

	// All questions answered
	t.Say(survey.DefaultClosing)
	t.Hangup()

	if err := f.store.CompleteCall(ctx, callID); err != nil {
		f.log.Warn("Could not complete call", "callID", callID, "error", err)
	} else if _, err := f.store.Results(ctx, callID); err != nil {
		f.log.Warn("Could not archive results", "callID", callID, "error", err)
	}
	f.log.Info("Survey completed", "callID", callID, "questions", len(questions))

	return t.Render()
}

// Answer records the input gathered for question q and renders the
// feedback TwiML. Unrecognized input still advances the survey; a
// stalled call annoys the respondent more than a lost answer.
func (f *Flow) Answer(ctx context.Context, callID int64, q int, speech, digits string, confidence float64) string {
	interp := survey.Interpret(speech, digits, confidence)

	f.log.Info("Answer received",
		"callID", callID,
		"question", q+1,
		"intent", interp.Intent.String(),
		"answer", interp.Answer,
		"confidence", interp.Confidence)

	t := NewTwiML()
	t.Say(survey.Feedback(interp.Intent))
	t.Pause(0.5)

	// A repeat request re-asks the same question and records nothing
	if interp.Intent == survey.IntentRepeat {
		t.Redirect(f.stepURL(callID, q))
		return t.Render()
	}

	raw := interp.Raw
	if raw == "" {
		raw = "timeout"
	}
	if err := f.store.SaveAnswer(ctx, callID, q+1, interp.Answer, interp.Confidence, raw); err != nil {
		f.log.Warn("Could not save answer", "callID", callID, "question", q+1, "error", err)
	}

	t.Redirect(f.stepURL(callID, q+1))
	return t.Render()
}

// Status records a provider status callback
func (f *Flow) Status(ctx context.Context, callSID, status string) {
	if callSID == "" {
		return
	}
	f.log.Info("Call status update", "sid", callSID, "status", status)
	if err := f.store.UpdateCallStatus(ctx, callSID, status); err != nil {
		f.log.Warn("Could not update call status", "sid", callSID, "error", err)
	}
}
