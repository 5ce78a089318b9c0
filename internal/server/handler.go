package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/naeemakhtar23/voiceagent/internal/agent"
	"github.com/naeemakhtar23/voiceagent/internal/store"
	"github.com/naeemakhtar23/voiceagent/internal/survey"
	"github.com/naeemakhtar23/voiceagent/internal/telephony"
	"github.com/naeemakhtar23/voiceagent/pkg/core/fault"
	"github.com/naeemakhtar23/voiceagent/pkg/core/health"
	"github.com/naeemakhtar23/voiceagent/pkg/core/logging"
	"github.com/naeemakhtar23/voiceagent/pkg/core/version"
)

// Call engines selectable per request
const (
	modeDemo   = "demo"
	modeTwilio = "twilio"
	modeAgent  = "agent"
)

// InitiateCallRequest represents a call initiation request
type InitiateCallRequest struct {
	PhoneNumber string   `json:"phone_number"`
	Questions   []string `json:"questions,omitempty"`
	Engine      string   `json:"engine,omitempty"`
}

// InitiateCallResponse represents the outcome of a call initiation
type InitiateCallResponse struct {
	Success  bool               `json:"success"`
	CallID   int64              `json:"call_id"`
	CallSID  string             `json:"call_sid,omitempty"`
	Message  string             `json:"message"`
	DemoMode bool               `json:"demo_mode,omitempty"`
	Results  *store.CallResults `json:"results,omitempty"`
}

// CallsResponse represents a list of calls
type CallsResponse struct {
	Calls []*store.Call `json:"calls"`
	Total int           `json:"total"`
}

// CallDetailResponse represents one call with its recorded responses
type CallDetailResponse struct {
	Call      *store.Call       `json:"call"`
	Responses []*store.Response `json:"responses"`
}

// StartSessionRequest represents a session creation request
type StartSessionRequest struct {
	QuestionSet string `json:"question_set,omitempty"`
}

// SessionResponse represents an interactive survey session
type SessionResponse struct {
	SessionID      string `json:"session_id"`
	Greeting       string `json:"greeting,omitempty"`
	Question       string `json:"question"`
	QuestionNumber int    `json:"question_number"`
	Total          int    `json:"total_questions"`
}

// AnswerRequest represents a submitted session answer
type AnswerRequest struct {
	Text       string  `json:"text"`
	Digits     string  `json:"digits,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// AnswerResponse represents the outcome of a submitted answer
type AnswerResponse struct {
	Action         string          `json:"action"`
	Answer         string          `json:"answer,omitempty"`
	Feedback       string          `json:"feedback,omitempty"`
	Question       string          `json:"question,omitempty"`
	QuestionNumber int             `json:"question_number,omitempty"`
	Total          int             `json:"total_questions"`
	Results        *survey.Results `json:"results,omitempty"`
}

// QuestionSetInfo represents one loadable question set
type QuestionSetInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Questions   int    `json:"questions"`
	Active      bool   `json:"active"`
}

// QuestionSetsResponse represents the available question sets
type QuestionSetsResponse struct {
	QuestionSets []QuestionSetInfo `json:"question_sets"`
	Total        int               `json:"total"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// Handler handles HTTP requests for the survey API
type Handler struct {
	cfg       Config
	store     store.Store
	dialer    telephony.Dialer
	agent     *agent.Client
	webhook   *agent.Webhook
	survey    *survey.Controller
	sets      *survey.Loader
	flow      *telephony.Flow
	hub       *Hub
	health    *health.Registry
	logger    *logging.Logger
	startTime time.Time
}

// NewHandler creates a new API handler
func NewHandler(cfg Config, deps Deps, flow *telephony.Flow, hub *Hub) *Handler {
	return &Handler{
		cfg:       cfg,
		store:     deps.Store,
		dialer:    deps.Dialer,
		agent:     deps.Agent,
		webhook:   agent.NewWebhook(deps.Store),
		survey:    deps.Survey,
		sets:      deps.Sets,
		flow:      flow,
		hub:       hub,
		logger:    logging.New("handler"),
		startTime: time.Now(),
	}
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Add CORS headers
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	// Route requests
	path := strings.TrimPrefix(r.URL.Path, "/api/v1")
	path = strings.TrimPrefix(path, "/")

	switch {
	case path == "" || path == "/":
		h.handleRoot(w, r)
	case path == "health" || path == "health/":
		h.handleHealth(w, r)
	case path == "version" || path == "version/":
		h.handleVersion(w, r)
	case path == "calls" || path == "calls/":
		h.handleCalls(w, r)
	case strings.HasPrefix(path, "calls/") && strings.HasSuffix(path, "/results"):
		id := strings.TrimSuffix(strings.TrimPrefix(path, "calls/"), "/results")
		h.handleCallResults(w, r, id)
	case strings.HasPrefix(path, "calls/"):
		h.handleCall(w, r, strings.TrimPrefix(path, "calls/"))
	case path == "sessions" || path == "sessions/":
		h.handleSessions(w, r)
	case strings.HasPrefix(path, "sessions/") && strings.HasSuffix(path, "/answers"):
		id := strings.TrimSuffix(strings.TrimPrefix(path, "sessions/"), "/answers")
		h.handleSessionAnswer(w, r, id)
	case strings.HasPrefix(path, "sessions/"):
		h.handleSession(w, r, strings.TrimPrefix(path, "sessions/"))
	case path == "questionsets" || path == "questionsets/":
		h.handleQuestionSets(w, r)
	case path == "voice/flow" || path == "voice/flow/":
		h.handleVoiceFlow(w, r)
	case path == "voice/answer" || path == "voice/answer/":
		h.handleVoiceAnswer(w, r)
	case path == "voice/status" || path == "voice/status/":
		h.handleVoiceStatus(w, r)
	case path == "agent/webhook" || path == "agent/webhook/":
		h.handleAgentWebhook(w, r)
	default:
		h.writeError(w, http.StatusNotFound, "not_found", "Endpoint not found", "")
	}
}

// handleRoot handles the root endpoint
func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":    "VoiceAgent API",
		"version": h.cfg.Version,
		"endpoints": map[string][]string{
			"calls": {
				"POST /api/v1/calls",
				"GET  /api/v1/calls",
				"GET  /api/v1/calls/{id}",
				"GET  /api/v1/calls/{id}/results",
			},
			"sessions": {
				"POST /api/v1/sessions",
				"GET  /api/v1/sessions/{id}",
				"POST /api/v1/sessions/{id}/answers",
				"DELETE /api/v1/sessions/{id}",
				"GET  /api/v1/questionsets",
			},
			"voice": {
				"POST /api/v1/voice/flow",
				"POST /api/v1/voice/answer",
				"POST /api/v1/voice/status",
				"POST /api/v1/agent/webhook",
			},
			"system": {
				"GET  /health",
				"GET  /api/v1/version",
				"GET  /api/v1/events/{topic}",
			},
		},
	}
	h.writeJSON(w, http.StatusOK, info)
}

// handleHealth handles health check requests
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use GET", "")
		return
	}

	if h.health == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
		return
	}

	report := h.health.Check(r.Context())
	status := http.StatusOK
	if report.Status == health.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	h.writeJSON(w, status, report)
}

// handleVersion reports build information
func (h *Handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use GET", "")
		return
	}
	h.writeJSON(w, http.StatusOK, version.Get())
}

// handleCalls dispatches the calls collection endpoint
func (h *Handler) handleCalls(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleInitiateCall(w, r)
	case http.MethodGet:
		h.handleListCalls(w, r)
	default:
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use GET or POST", "")
	}
}

// handleInitiateCall starts an outbound survey call. Without telephony
// configuration the call runs through the demo simulator and the
// results come back in the response.
func (h *Handler) handleInitiateCall(w http.ResponseWriter, r *http.Request) {
	var req InitiateCallRequest
	if err := h.readJSON(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", err.Error())
		return
	}
	if strings.TrimSpace(req.PhoneNumber) == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "phone_number is required", "")
		return
	}

	mode, err := h.callMode(req.Engine)
	if err != nil {
		h.writeFault(w, err)
		return
	}
	if mode == modeTwilio {
		if err := telephony.ValidatePhoneNumber(req.PhoneNumber); err != nil {
			h.writeFault(w, err)
			return
		}
	}

	questions := req.Questions
	if len(questions) == 0 {
		set := h.survey.Set()
		questions = make([]string, set.Len())
		for i, q := range set.Questions {
			questions[i] = q.Text
		}
	}
	if len(questions) == 0 {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "No questions configured", "")
		return
	}

	ctx := r.Context()
	callID, err := h.store.CreateCall(ctx, req.PhoneNumber, questions)
	if err != nil {
		h.writeFault(w, err)
		return
	}
	for i, q := range questions {
		if err := h.store.SaveQuestion(ctx, callID, i+1, q); err != nil {
			h.writeFault(w, err)
			return
		}
	}

	h.logger.Info("Call initiated",
		"call", callID,
		"to", req.PhoneNumber,
		"questions", len(questions),
		"engine", mode,
	)

	switch mode {
	case modeDemo:
		h.runDemoCall(w, r, callID, questions)
	case modeAgent:
		h.runAgentCall(w, r, callID, req.PhoneNumber, questions)
	default:
		h.runTwilioCall(w, r, callID, req.PhoneNumber)
	}
}

// callMode resolves the engine for a call from the request and the
// configured services
func (h *Handler) callMode(engine string) (string, error) {
	switch engine {
	case "", "auto":
		if h.cfg.DemoMode {
			return modeDemo, nil
		}
		if h.dialer != nil {
			return modeTwilio, nil
		}
		if h.agent != nil {
			return modeAgent, nil
		}
		return modeDemo, nil
	case modeDemo:
		return modeDemo, nil
	case modeTwilio:
		if h.dialer == nil {
			return "", fault.New("telephony is not configured").
				WithCode(fault.CodeServiceUnavailable)
		}
		return modeTwilio, nil
	case modeAgent:
		if h.agent == nil {
			return "", fault.New("agent engine is not configured").
				WithCode(fault.CodeServiceUnavailable)
		}
		return modeAgent, nil
	default:
		return "", fault.Newf("unknown engine %q", engine).
			WithCode(fault.CodeInvalidInput)
	}
}

// runDemoCall walks the whole call through the simulator synchronously
// and returns the finished results
func (h *Handler) runDemoCall(w http.ResponseWriter, r *http.Request, callID int64, questions []string) {
	ctx := r.Context()
	topic := callTopic(callID)

	sid := survey.SimCallSID(callID)
	if err := h.store.UpdateCallSID(ctx, callID, sid); err != nil {
		h.writeFault(w, err)
		return
	}
	h.publish(topic, "call.ringing", map[string]interface{}{
		"call_id": callID, "call_sid": sid,
	})

	if err := h.store.UpdateCallStatus(ctx, sid, store.StatusInProgress); err != nil {
		h.writeFault(w, err)
		return
	}
	h.publish(topic, "call.in-progress", map[string]interface{}{
		"call_id": callID,
	})

	sim := h.simulatorFor(questions)
	_, err := sim.Run(ctx, callID, func(step survey.SimulatedStep) {
		if err := h.store.SaveAnswer(ctx, callID, step.QuestionNumber, step.Answer, step.Confidence, step.Answer); err != nil {
			h.logger.Warn("Could not record simulated answer",
				"call", callID, "question", step.QuestionNumber, "error", err)
		}
		h.publish(topic, "answer", step)
	})
	if err != nil {
		if mErr := h.store.MarkFailed(context.Background(), callID); mErr != nil {
			h.logger.Warn("Could not mark call failed", "call", callID, "error", mErr)
		}
		h.writeFault(w, err)
		return
	}

	if err := h.store.CompleteCall(ctx, callID); err != nil {
		h.writeFault(w, err)
		return
	}
	results, err := h.store.Results(ctx, callID)
	if err != nil {
		h.writeFault(w, err)
		return
	}
	h.publish(topic, "call.completed", results.Summary)

	h.writeJSON(w, http.StatusOK, InitiateCallResponse{
		Success:  true,
		CallID:   callID,
		CallSID:  sid,
		Message:  "Demo call completed",
		DemoMode: true,
		Results:  results,
	})
}

// simulatorFor builds a simulator running the given questions on its
// own controller, leaving the shared session controller untouched
func (h *Handler) simulatorFor(questions []string) *survey.Simulator {
	qs := make([]survey.Question, len(questions))
	for i, q := range questions {
		qs[i] = survey.Question{Text: q}
	}
	set := &survey.QuestionSet{ID: "call", Name: "Call questions", Questions: qs}
	set.Defaults()

	return survey.NewSimulator(survey.NewController(set), survey.SimulatorConfig{
		StepDelay: h.cfg.DemoAnswerDelay,
	})
}

// runAgentCall hands the call to the conversational agent platform.
// Progress arrives later through the agent webhook.
func (h *Handler) runAgentCall(w http.ResponseWriter, r *http.Request, callID int64, to string, questions []string) {
	ctx := r.Context()

	webhookURL := h.cfg.PublicURL + "/api/v1/agent/webhook"
	providerID, err := h.agent.InitiateCall(ctx, callID, to, questions, webhookURL)
	if err != nil {
		if mErr := h.store.MarkFailed(context.Background(), callID); mErr != nil {
			h.logger.Warn("Could not mark call failed", "call", callID, "error", mErr)
		}
		h.writeFault(w, err)
		return
	}

	sid := agent.CallSID(callID)
	if err := h.store.UpdateCallSID(ctx, callID, sid); err != nil {
		h.writeFault(w, err)
		return
	}
	h.publish(callTopic(callID), "call.ringing", map[string]interface{}{
		"call_id": callID, "call_sid": sid, "provider_id": providerID,
	})

	h.writeJSON(w, http.StatusOK, InitiateCallResponse{
		Success: true,
		CallID:  callID,
		CallSID: sid,
		Message: "Agent call initiated",
	})
}

// runTwilioCall dials the number and points the call at the TwiML flow
// webhooks
func (h *Handler) runTwilioCall(w http.ResponseWriter, r *http.Request, callID int64, to string) {
	ctx := r.Context()

	sid, err := h.dialer.Dial(to, h.flow.FlowURL(callID), h.flow.StatusURL())
	if err != nil {
		if mErr := h.store.MarkFailed(context.Background(), callID); mErr != nil {
			h.logger.Warn("Could not mark call failed", "call", callID, "error", mErr)
		}
		h.writeFault(w, err)
		return
	}

	if err := h.store.UpdateCallSID(ctx, callID, sid); err != nil {
		h.writeFault(w, err)
		return
	}
	h.publish(callTopic(callID), "call.ringing", map[string]interface{}{
		"call_id": callID, "call_sid": sid,
	})

	h.writeJSON(w, http.StatusOK, InitiateCallResponse{
		Success: true,
		CallID:  callID,
		CallSID: sid,
		Message: "Call initiated",
	})
}

// handleListCalls returns recent calls, newest first
func (h *Handler) handleListCalls(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	calls, err := h.store.ListCalls(ctx)
	if err != nil {
		h.writeFault(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, CallsResponse{Calls: calls, Total: len(calls)})
}

// handleCall returns one call with its recorded responses
func (h *Handler) handleCall(w http.ResponseWriter, r *http.Request, idStr string) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use GET", "")
		return
	}
	callID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid call id", idStr)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	call, err := h.store.GetCall(ctx, callID)
	if err != nil {
		h.writeFault(w, err)
		return
	}
	responses, err := h.store.GetResponses(ctx, callID)
	if err != nil {
		h.writeFault(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, CallDetailResponse{Call: call, Responses: responses})
}

// handleCallResults returns the aggregated results document for a call
func (h *Handler) handleCallResults(w http.ResponseWriter, r *http.Request, idStr string) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use GET", "")
		return
	}
	callID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid call id", idStr)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	results, err := h.store.Results(ctx, callID)
	if err != nil {
		h.writeFault(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, results)
}

// handleSessions starts a new interactive survey session
func (h *Handler) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use POST", "")
		return
	}

	var req StartSessionRequest
	if r.ContentLength > 0 {
		if err := h.readJSON(r, &req); err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", err.Error())
			return
		}
	}

	if req.QuestionSet != "" {
		if h.sets == nil {
			h.writeError(w, http.StatusNotFound, "not_found", "No question sets are configured", "")
			return
		}
		set, ok := h.sets.Get(req.QuestionSet)
		if !ok {
			h.writeError(w, http.StatusNotFound, "not_found", "Question set not found", req.QuestionSet)
			return
		}
		h.survey.SetQuestionSet(set)
	}

	sess := h.survey.StartSession(0)
	question, number, err := h.survey.Question(sess.ID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Could not read first question", err.Error())
		return
	}

	set := h.survey.Set()
	h.writeJSON(w, http.StatusOK, SessionResponse{
		SessionID:      sess.ID,
		Greeting:       set.Greeting,
		Question:       question,
		QuestionNumber: number,
		Total:          set.Len(),
	})
}

// handleSessionAnswer classifies and records one session answer
func (h *Handler) handleSessionAnswer(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use POST", "")
		return
	}

	var req AnswerRequest
	if err := h.readJSON(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", err.Error())
		return
	}

	in := survey.Interpret(req.Text, req.Digits, req.Confidence)
	out, err := h.survey.Submit(id, in)
	if err != nil {
		switch err {
		case survey.ErrSessionNotFound:
			h.writeError(w, http.StatusNotFound, "not_found", "Session not found", id)
		case survey.ErrSessionComplete:
			h.writeError(w, http.StatusConflict, "session_complete", "Session already completed", id)
		default:
			h.writeError(w, http.StatusInternalServerError, "internal_error", "Could not process answer", err.Error())
		}
		return
	}

	resp := AnswerResponse{
		Action:         string(out.Action),
		Answer:         out.PreviousAnswer,
		Feedback:       out.Feedback,
		Question:       out.Question,
		QuestionNumber: out.QuestionNumber,
		Total:          out.Total,
		Results:        out.Results,
	}
	h.publish(id, "session."+resp.Action, resp)
	h.writeJSON(w, http.StatusOK, resp)
}

// handleSession reads or abandons one session
func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		sess, ok := h.survey.GetSession(id)
		if !ok {
			h.writeError(w, http.StatusNotFound, "not_found", "Session not found", id)
			return
		}
		question, number, err := h.survey.Question(id)
		if err != nil {
			h.writeError(w, http.StatusNotFound, "not_found", "Session not found", id)
			return
		}
		h.writeJSON(w, http.StatusOK, SessionResponse{
			SessionID:      sess.ID,
			Question:       question,
			QuestionNumber: number,
			Total:          h.survey.Set().Len(),
		})
	case http.MethodDelete:
		h.survey.Abandon(id)
		h.publish(id, "session.abandoned", nil)
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "abandoned"})
	default:
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use GET or DELETE", "")
	}
}

// handleQuestionSets lists the loaded question sets
func (h *Handler) handleQuestionSets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use GET", "")
		return
	}

	active := h.survey.Set()
	infos := []QuestionSetInfo{}
	if h.sets != nil {
		for _, set := range h.sets.GetAll() {
			infos = append(infos, QuestionSetInfo{
				ID:          set.ID,
				Name:        set.Name,
				Description: set.Description,
				Questions:   set.Len(),
				Active:      set.ID == active.ID,
			})
		}
	}
	if len(infos) == 0 {
		infos = append(infos, QuestionSetInfo{
			ID:          active.ID,
			Name:        active.Name,
			Description: active.Description,
			Questions:   active.Len(),
			Active:      true,
		})
	}
	h.writeJSON(w, http.StatusOK, QuestionSetsResponse{QuestionSets: infos, Total: len(infos)})
}

// Helper methods

func (h *Handler) readJSON(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message, details string) {
	resp := ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	}
	h.writeJSON(w, status, resp)
}

// writeFault maps a classified error onto its HTTP status
func (h *Handler) writeFault(w http.ResponseWriter, err error) {
	code := fault.CodeOf(err)
	h.writeError(w, code.HTTPStatus(), strings.ToLower(code.String()), err.Error(), "")
}

// publish forwards an event to WebSocket subscribers when a hub is wired
func (h *Handler) publish(topic, eventType string, payload interface{}) {
	if h.hub == nil {
		return
	}
	h.hub.Publish(topic, Event{Type: eventType, Payload: payload})
}

// callTopic is the WebSocket topic for one call's events
func callTopic(callID int64) string {
	return strconv.FormatInt(callID, 10)
}
