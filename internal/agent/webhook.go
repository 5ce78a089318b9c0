// ============================================================================
// VoiceAgent - Automated Voice Survey Platform
// ============================================================================
//
// Package:     agent
// Description: ElevenLabs webhook event handling
// Author:      Naeem Akhtar
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package agent

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/naeemakhtar23/voiceagent/internal/store"
	"github.com/naeemakhtar23/voiceagent/internal/survey"
	"github.com/naeemakhtar23/voiceagent/pkg/core/fault"
	"github.com/naeemakhtar23/voiceagent/pkg/core/logging"
)

// Normalized webhook event kinds
const (
	EventCallStarted   = "call_started"
	EventCallEnded     = "call_ended"
	EventTranscription = "transcription"
)

// Transcription answers get a flat confidence; the agent does not
// report per-utterance scores.
const transcriptionConfidence = 0.8

// Event is a webhook payload from the agent. The API has shipped
// several field spellings over time, so aliases are tolerated.
type Event struct {
	EventType    string `json:"event_type"`
	EventTypeAlt string `json:"eventType"`
	Type         string `json:"type"`

	CallID    string `json:"call_id"`
	CallIDAlt string `json:"callId"`

	Metadata eventMetadata `json:"metadata"`
	Meta     eventMetadata `json:"meta"`

	Transcription transcription `json:"transcription"`
	Data          transcription `json:"data"`
	Text          string        `json:"text"`
}

type eventMetadata struct {
	CallID         string `json:"call_id"`
	CallIDAlt      string `json:"callId"`
	QuestionNum    int    `json:"question_num"`
	QuestionNumAlt int    `json:"questionNum"`
}

type transcription struct {
	Text       string `json:"text"`
	Transcript string `json:"transcript"`
}

// ParseEvent decodes a webhook payload
func ParseEvent(body []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fault.Wrap(err, "decoding webhook event").
			WithCode(fault.CodeInvalidInput)
	}
	return &ev, nil
}

// Kind normalizes the event type, mapping the dotted spellings onto
// the underscored ones
func (e *Event) Kind() string {
	t := firstNonEmpty(e.EventType, e.EventTypeAlt, e.Type)
	switch t {
	case "call.started":
		return EventCallStarted
	case "call.ended":
		return EventCallEnded
	case "transcription.completed":
		return EventTranscription
	default:
		return t
	}
}

// Call returns the survey call id carried in the event, 0 when absent
// or unparseable
func (e *Event) Call() int64 {
	raw := firstNonEmpty(
		e.Metadata.CallID, e.Metadata.CallIDAlt,
		e.Meta.CallID, e.Meta.CallIDAlt,
		e.CallID, e.CallIDAlt,
	)
	if raw == "" {
		return 0
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// TranscriptText returns the transcription text, whichever field
// carried it
func (e *Event) TranscriptText() string {
	return firstNonEmpty(
		e.Transcription.Text, e.Transcription.Transcript,
		e.Data.Text, e.Data.Transcript,
		e.Text,
	)
}

// Question returns the question number the transcription answers
func (e *Event) Question() int {
	for _, n := range []int{
		e.Metadata.QuestionNum, e.Metadata.QuestionNumAlt,
		e.Meta.QuestionNum, e.Meta.QuestionNumAlt,
	} {
		if n > 0 {
			return n
		}
	}
	return 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Webhook applies agent events to the call store
type Webhook struct {
	store store.Store
	log   *logging.Logger
}

// NewWebhook creates a webhook processor
func NewWebhook(st store.Store) *Webhook {
	return &Webhook{
		store: st,
		log:   logging.New("agent-webhook"),
	}
}

// Process applies one event. Unknown kinds and events without a call id
// are logged and dropped; the provider retries on non-200 responses and
// a retry will not make an unknown event knowable.
func (w *Webhook) Process(ctx context.Context, ev *Event) error {
	kind := ev.Kind()
	callID := ev.Call()

	w.log.Info("Agent event", "kind", kind, "callID", callID)

	if callID == 0 {
		w.log.Warn("Agent event without call id", "kind", kind)
		return nil
	}

	switch kind {
	case EventCallStarted:
		if err := w.store.UpdateCallSID(ctx, callID, CallSID(callID)); err != nil {
			w.log.Warn("Could not mark call started", "callID", callID, "error", err)
		}
		return nil

	case EventCallEnded:
		if err := w.store.CompleteCall(ctx, callID); err != nil {
			w.log.Warn("Could not complete call", "callID", callID, "error", err)
			return nil
		}
		if _, err := w.store.Results(ctx, callID); err != nil {
			w.log.Warn("Could not archive results", "callID", callID, "error", err)
		}
		return nil

	case EventTranscription:
		text := ev.TranscriptText()
		if text == "" {
			return nil
		}

		// The agent path only distinguishes yes, no and unclear
		interp := survey.Interpret(text, "", 0)
		answer := interp.Answer
		switch interp.Intent {
		case survey.IntentYes, survey.IntentNo:
		default:
			answer = survey.AnswerUnclear
		}

		q := ev.Question()
		if q == 0 {
			w.log.Warn("Transcription without question number", "callID", callID)
			return nil
		}
		if err := w.store.SaveAnswer(ctx, callID, q, answer, transcriptionConfidence, text); err != nil {
			w.log.Warn("Could not save agent answer",
				"callID", callID, "question", q, "error", err)
		}
		return nil

	default:
		w.log.Debug("Ignoring agent event", "kind", kind)
		return nil
	}
}

// CallSID synthesizes a SID for agent calls; the agent API does not
// expose a Twilio SID
func CallSID(callID int64) string {
	return "EL_" + strconv.FormatInt(callID, 10)
}
