package server

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/naeemakhtar23/voiceagent/internal/agent"
)

// handleVoiceFlow serves the TwiML for the current question. Twilio
// posts here first after the callee answers, then again for every
// Redirect; call_id and q_num travel in the query string.
func (h *Handler) handleVoiceFlow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use POST", "")
		return
	}

	callID, ok := h.callIDParam(w, r)
	if !ok {
		return
	}
	qNum := h.intParam(r, "q_num")

	twiml := h.flow.Question(r.Context(), callID, qNum)
	h.publish(callTopic(callID), "question", map[string]interface{}{
		"call_id": callID, "question_number": qNum + 1,
	})
	h.writeTwiML(w, twiml)
}

// handleVoiceAnswer records the gathered answer and serves the next
// step. Twilio delivers SpeechResult, Digits and Confidence as form
// fields.
func (h *Handler) handleVoiceAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use POST", "")
		return
	}

	callID, ok := h.callIDParam(w, r)
	if !ok {
		return
	}
	qNum := h.intParam(r, "q_num")

	speech := r.FormValue("SpeechResult")
	digits := r.FormValue("Digits")
	confidence, _ := strconv.ParseFloat(r.FormValue("Confidence"), 64)

	twiml := h.flow.Answer(r.Context(), callID, qNum, speech, digits, confidence)
	h.publish(callTopic(callID), "answer", map[string]interface{}{
		"call_id": callID, "question_number": qNum + 1,
		"speech": speech, "digits": digits,
	})
	h.writeTwiML(w, twiml)
}

// handleVoiceStatus consumes Twilio status callbacks
func (h *Handler) handleVoiceStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use POST", "")
		return
	}

	callSID := r.FormValue("CallSid")
	callStatus := r.FormValue("CallStatus")

	h.flow.Status(r.Context(), callSID, callStatus)
	h.publish("calls", "call."+callStatus, map[string]interface{}{
		"call_sid": callSID,
	})
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAgentWebhook consumes events from the conversational agent
// platform. The payload is JSON, either as the request body or in a
// form field named payload.
func (h *Handler) handleAgentWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use POST", "")
		return
	}

	var body []byte
	if ct := r.Header.Get("Content-Type"); strings.HasPrefix(ct, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(ct, "multipart/form-data") {
		body = []byte(r.FormValue("payload"))
	} else {
		var err error
		body, err = io.ReadAll(r.Body)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid_request", "Could not read body", err.Error())
			return
		}
	}

	ev, err := agent.ParseEvent(body)
	if err != nil {
		h.writeFault(w, err)
		return
	}
	if err := h.webhook.Process(r.Context(), ev); err != nil {
		h.writeFault(w, err)
		return
	}

	if callID := ev.Call(); callID > 0 {
		h.publish(callTopic(callID), "agent."+ev.Kind(), map[string]interface{}{
			"call_id": callID, "transcript": ev.TranscriptText(),
		})
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// callIDParam extracts the mandatory call_id parameter from the query
// string or the posted form
func (h *Handler) callIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("call_id")
	if raw == "" {
		raw = r.FormValue("call_id")
	}
	callID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || callID <= 0 {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid call_id", raw)
		return 0, false
	}
	return callID, true
}

// intParam extracts an optional integer parameter, zero when absent
func (h *Handler) intParam(r *http.Request, name string) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		raw = r.FormValue(name)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

// writeTwiML responds with a TwiML document
func (h *Handler) writeTwiML(w http.ResponseWriter, twiml string) {
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(twiml)); err != nil {
		h.logger.Warn("Could not write TwiML response", "error", err)
	}
}
