// ============================================================================
// VoiceAgent - Automated Voice Survey Platform
// ============================================================================
//
// Package:     survey
// Description: Survey session controller - question flow and results
// Author:      Naeem Akhtar
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package survey

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/naeemakhtar23/voiceagent/pkg/core/logging"
)

// Action tells the caller what to do after an answer was processed
type Action string

const (
	// ActionRepeat - Ask the same question again
	ActionRepeat Action = "repeat"

	// ActionNext - Move on to the returned question
	ActionNext Action = "next"

	// ActionComplete - The survey is finished
	ActionComplete Action = "complete"
)

// AnswerRecord is one recorded answer within a session
type AnswerRecord struct {
	QuestionNumber int     `json:"question_number"`
	Question       string  `json:"question"`
	Answer         string  `json:"answer"`
	Confidence     float64 `json:"confidence"`
	Raw            string  `json:"raw_response"`
	AnsweredAt     time.Time
}

// Summary aggregates the answers of a completed survey. Anything that
// is not a clear yes or no, including skips and timeouts, counts as
// unclear.
type Summary struct {
	Total   int `json:"total_questions"`
	Yes     int `json:"yes_count"`
	No      int `json:"no_count"`
	Unclear int `json:"unclear_count"`
}

// Results is the final outcome of a completed survey session
type Results struct {
	SessionID   string         `json:"session_id"`
	CallID      int64          `json:"call_id"`
	Phone       string         `json:"phone_number"`
	Answers     []AnswerRecord `json:"questions"`
	Summary     Summary        `json:"summary"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt time.Time      `json:"completed_at"`
}

// Session is one caller working through the question set
type Session struct {
	ID           string
	CallID       int64
	Phone        string
	Index        int
	Answers      []AnswerRecord
	StartedAt    time.Time
	LastActivity time.Time
	CompletedAt  time.Time
}

// Complete reports whether the session answered every question
func (s *Session) Complete() bool {
	return !s.CompletedAt.IsZero()
}

// Outcome describes what happens after one submitted answer
type Outcome struct {
	Action         Action
	SessionID      string
	Question       string
	QuestionNumber int
	Total          int
	PreviousAnswer string
	Feedback       string
	Results        *Results
}

// Controller runs survey sessions against one question set. Sessions
// live in memory while active and are dropped on completion; durable
// records belong to the store.
type Controller struct {
	mu       sync.Mutex
	set      *QuestionSet
	sessions map[string]*Session
	log      *logging.Logger

	janitorStop chan struct{}
	janitorOn   bool
}

// NewController creates a session controller. A nil set selects the
// built-in demo survey.
func NewController(set *QuestionSet) *Controller {
	if set == nil {
		set = DefaultQuestionSet()
	}
	return &Controller{
		set:      set,
		sessions: make(map[string]*Session),
		log:      logging.New("survey"),
	}
}

// Set returns the active question set
func (c *Controller) Set() *QuestionSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.set
}

// SetQuestionSet swaps the question set. Sessions already in progress
// continue against the new set, so swaps should happen while no
// sessions are active.
func (c *Controller) SetQuestionSet(set *QuestionSet) {
	if set == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set = set
	c.log.Info("Question set changed", "id", set.ID, "questions", len(set.Questions))
}

// StartSession opens a new survey session. The callID ties the session
// to a stored call record; zero means the session is not persisted by
// the caller.
func (c *Controller) StartSession(callID int64) *Session {
	id := uuid.New().String()

	now := time.Now()
	s := &Session{
		ID:           id,
		CallID:       callID,
		Phone:        pseudoNumber(id),
		StartedAt:    now,
		LastActivity: now,
	}

	c.mu.Lock()
	c.sessions[id] = s
	c.mu.Unlock()

	c.log.Info("Survey session started", "session", id, "call", callID)
	return snapshotSession(s)
}

// GetSession returns a copy of an active session
func (c *Controller) GetSession(id string) (*Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[id]
	if !ok {
		return nil, false
	}
	return snapshotSession(s), true
}

// ActiveSessions returns the number of sessions in progress
func (c *Controller) ActiveSessions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

// Question returns the current question text for a session
func (c *Controller) Question(sessionID string) (string, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[sessionID]
	if !ok {
		return "", 0, ErrSessionNotFound
	}
	s.LastActivity = time.Now()
	return c.set.Questions[s.Index].Text, s.Index + 1, nil
}

// Submit processes one interpreted answer. Repeat intents re-ask the
// current question without recording anything; every other intent is
// recorded and the session advances. The session is dropped from the
// active map once complete.
func (c *Controller) Submit(sessionID string, in Interpretation) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[sessionID]
	if !ok {
		return Outcome{}, ErrSessionNotFound
	}
	if s.Complete() {
		return Outcome{}, ErrSessionComplete
	}
	s.LastActivity = time.Now()

	total := len(c.set.Questions)
	if s.Index >= total {
		// the set shrank under a running session, close it out
		s.CompletedAt = time.Now()
		results := buildResults(s)
		delete(c.sessions, s.ID)
		return Outcome{
			Action:    ActionComplete,
			SessionID: s.ID,
			Total:     total,
			Results:   results,
		}, nil
	}
	current := c.set.Questions[s.Index]

	if in.Intent == IntentRepeat {
		return Outcome{
			Action:         ActionRepeat,
			SessionID:      s.ID,
			Question:       current.Text,
			QuestionNumber: s.Index + 1,
			Total:          total,
			Feedback:       Feedback(IntentRepeat),
		}, nil
	}

	s.Answers = append(s.Answers, AnswerRecord{
		QuestionNumber: s.Index + 1,
		Question:       current.Text,
		Answer:         in.Answer,
		Confidence:     in.Confidence,
		Raw:            in.Raw,
		AnsweredAt:     time.Now(),
	})
	c.log.Debug("Answer recorded",
		"session", s.ID, "question", s.Index+1, "answer", in.Answer)

	s.Index++
	if s.Index < total {
		return Outcome{
			Action:         ActionNext,
			SessionID:      s.ID,
			Question:       c.set.Questions[s.Index].Text,
			QuestionNumber: s.Index + 1,
			Total:          total,
			PreviousAnswer: in.Answer,
			Feedback:       Feedback(in.Intent),
		}, nil
	}

	s.CompletedAt = time.Now()
	results := buildResults(s)
	delete(c.sessions, s.ID)

	c.log.Info("Survey session completed",
		"session", s.ID,
		"answers", len(s.Answers),
		"yes", results.Summary.Yes,
		"no", results.Summary.No)

	return Outcome{
		Action:         ActionComplete,
		SessionID:      s.ID,
		Total:          total,
		PreviousAnswer: in.Answer,
		Feedback:       Feedback(in.Intent),
		Results:        results,
	}, nil
}

// Abandon drops a session without completing it, for callers that hang
// up mid-survey
func (c *Controller) Abandon(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.sessions[sessionID]; ok {
		delete(c.sessions, sessionID)
		c.log.Info("Survey session abandoned", "session", sessionID)
	}
}

// ExpireIdle drops sessions that saw no activity for longer than
// maxIdle and returns how many were removed. Clients that vanish
// mid-survey never call Abandon, so someone has to sweep after them.
func (c *Controller) ExpireIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for id, s := range c.sessions {
		if s.LastActivity.Before(cutoff) {
			delete(c.sessions, id)
			n++
			c.log.Info("Survey session expired",
				"session", id, "answered", len(s.Answers), "idle", maxIdle.String())
		}
	}
	return n
}

// StartJanitor sweeps idle sessions on a ticker until StopJanitor is
// called. Safe to call once per controller.
func (c *Controller) StartJanitor(interval, maxIdle time.Duration) {
	c.mu.Lock()
	if c.janitorOn {
		c.mu.Unlock()
		return
	}
	c.janitorOn = true
	c.janitorStop = make(chan struct{})
	stop := c.janitorStop
	c.mu.Unlock()

	if interval <= 0 {
		interval = time.Minute
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.ExpireIdle(maxIdle)
			case <-stop:
				return
			}
		}
	}()
	c.log.Info("Session janitor started", "interval", interval.String(), "max_idle", maxIdle.String())
}

// StopJanitor stops the idle-session sweeper
func (c *Controller) StopJanitor() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.janitorOn {
		close(c.janitorStop)
		c.janitorOn = false
	}
}

// buildResults aggregates a completed session
func buildResults(s *Session) *Results {
	answers := make([]AnswerRecord, len(s.Answers))
	copy(answers, s.Answers)

	return &Results{
		SessionID:   s.ID,
		CallID:      s.CallID,
		Phone:       s.Phone,
		Answers:     answers,
		Summary:     Summarize(answers),
		StartedAt:   s.StartedAt,
		CompletedAt: s.CompletedAt,
	}
}

// Summarize counts answers into the results summary
func Summarize(answers []AnswerRecord) Summary {
	sum := Summary{Total: len(answers)}
	for _, a := range answers {
		switch a.Answer {
		case AnswerYes:
			sum.Yes++
		case AnswerNo:
			sum.No++
		default:
			sum.Unclear++
		}
	}
	return sum
}

// pseudoNumber derives the short placeholder phone number recorded for
// sessions without real telephony, e.g. "VB-3f2a9c01"
func pseudoNumber(sessionID string) string {
	compact := strings.ReplaceAll(sessionID, "-", "")
	if len(compact) > 8 {
		compact = compact[:8]
	}
	return "VB-" + compact
}

// snapshotSession copies a session so callers cannot mutate controller
// state
func snapshotSession(s *Session) *Session {
	cp := *s
	cp.Answers = make([]AnswerRecord, len(s.Answers))
	copy(cp.Answers, s.Answers)
	return &cp
}
