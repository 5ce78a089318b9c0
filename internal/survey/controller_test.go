// ============================================================================
// VoiceAgent - Automated Voice Survey Platform
// ============================================================================
//
// Package:     survey
// Description: Tests for the survey session controller
// Author:      Naeem Akhtar
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package survey

import (
	"strings"
	"testing"
	"time"
)

func testSet() *QuestionSet {
	set := &QuestionSet{
		ID:   "test",
		Name: "Test Survey",
		Questions: []Question{
			{Text: "Do you have health insurance?"},
			{Text: "Are you currently taking any medications?"},
			{Text: "Have you visited a doctor in the last 6 months?"},
		},
	}
	set.Defaults()
	return set
}

func TestController_FullSession(t *testing.T) {
	c := NewController(testSet())
	s := c.StartSession(42)

	if s.ID == "" {
		t.Fatal("session has no id")
	}
	if !strings.HasPrefix(s.Phone, "VB-") || len(s.Phone) != 11 {
		t.Errorf("pseudo number = %q, want VB- plus 8 chars", s.Phone)
	}
	if s.CallID != 42 {
		t.Errorf("call id = %d, want 42", s.CallID)
	}

	q, n, err := c.Question(s.ID)
	if err != nil {
		t.Fatalf("Question() error = %v", err)
	}
	if n != 1 || q != "Do you have health insurance?" {
		t.Errorf("first question = %d %q", n, q)
	}

	// answer 1: yes
	out, err := c.Submit(s.ID, Interpret("yes", "", 0.92))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if out.Action != ActionNext {
		t.Fatalf("action = %s, want next", out.Action)
	}
	if out.QuestionNumber != 2 || out.PreviousAnswer != AnswerYes {
		t.Errorf("outcome = %+v", out)
	}
	if out.Feedback != "You said yes. Thank you." {
		t.Errorf("feedback = %q", out.Feedback)
	}

	// answer 2: no via keypad
	out, err = c.Submit(s.ID, Interpret("", "2", 0))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if out.Action != ActionNext || out.QuestionNumber != 3 {
		t.Errorf("outcome = %+v", out)
	}

	// answer 3: unclear, completes the survey
	out, err = c.Submit(s.ID, Interpret("maybe later", "", 0))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if out.Action != ActionComplete {
		t.Fatalf("action = %s, want complete", out.Action)
	}
	if out.Results == nil {
		t.Fatal("complete outcome has no results")
	}

	sum := out.Results.Summary
	if sum.Total != 3 || sum.Yes != 1 || sum.No != 1 || sum.Unclear != 1 {
		t.Errorf("summary = %+v, want 3/1/1/1", sum)
	}
	if got := out.Results.Answers[1].Confidence; got != 1.0 {
		t.Errorf("keypad answer confidence = %v, want 1.0", got)
	}
	if out.Results.CallID != 42 {
		t.Errorf("results call id = %d", out.Results.CallID)
	}

	// completed sessions are dropped from the active map
	if _, ok := c.GetSession(s.ID); ok {
		t.Error("completed session still active")
	}
	if c.ActiveSessions() != 0 {
		t.Errorf("active sessions = %d, want 0", c.ActiveSessions())
	}
}

func TestController_RepeatDoesNotRecord(t *testing.T) {
	c := NewController(testSet())
	s := c.StartSession(0)

	out, err := c.Submit(s.ID, Interpret("can you repeat that", "", 0))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if out.Action != ActionRepeat {
		t.Fatalf("action = %s, want repeat", out.Action)
	}
	if out.QuestionNumber != 1 || out.Question != "Do you have health insurance?" {
		t.Errorf("repeat outcome = %+v, want the same question back", out)
	}

	// still on question 1, nothing recorded
	got, _ := c.GetSession(s.ID)
	if got.Index != 0 || len(got.Answers) != 0 {
		t.Errorf("session after repeat: index=%d answers=%d, want 0/0", got.Index, len(got.Answers))
	}
}

func TestController_SkipRecordsSkipped(t *testing.T) {
	c := NewController(testSet())
	s := c.StartSession(0)

	out, err := c.Submit(s.ID, Interpret("skip", "", 0))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if out.Action != ActionNext || out.PreviousAnswer != AnswerSkipped {
		t.Errorf("outcome = %+v, want next with skipped", out)
	}

	got, _ := c.GetSession(s.ID)
	if len(got.Answers) != 1 || got.Answers[0].Answer != AnswerSkipped {
		t.Errorf("answers = %+v", got.Answers)
	}
}

func TestController_UnknownSession(t *testing.T) {
	c := NewController(testSet())

	if _, err := c.Submit("nope", Interpret("yes", "", 0)); err != ErrSessionNotFound {
		t.Errorf("Submit() error = %v, want %v", err, ErrSessionNotFound)
	}
	if _, _, err := c.Question("nope"); err != ErrSessionNotFound {
		t.Errorf("Question() error = %v, want %v", err, ErrSessionNotFound)
	}
}

func TestController_Abandon(t *testing.T) {
	c := NewController(testSet())
	s := c.StartSession(0)

	c.Abandon(s.ID)
	if _, ok := c.GetSession(s.ID); ok {
		t.Error("abandoned session still active")
	}

	// abandoning twice is harmless
	c.Abandon(s.ID)
}

func TestController_ExpireIdle(t *testing.T) {
	c := NewController(testSet())
	stale := c.StartSession(0)
	fresh := c.StartSession(0)

	c.mu.Lock()
	c.sessions[stale.ID].LastActivity = time.Now().Add(-15 * time.Minute)
	c.mu.Unlock()

	if n := c.ExpireIdle(10 * time.Minute); n != 1 {
		t.Fatalf("ExpireIdle() = %d, want 1", n)
	}
	if _, ok := c.GetSession(stale.ID); ok {
		t.Error("stale session survived the sweep")
	}
	if _, ok := c.GetSession(fresh.ID); !ok {
		t.Error("active session was swept")
	}
}

func TestController_SubmitRefreshesActivity(t *testing.T) {
	c := NewController(testSet())
	s := c.StartSession(0)

	c.mu.Lock()
	c.sessions[s.ID].LastActivity = time.Now().Add(-15 * time.Minute)
	c.mu.Unlock()

	if _, err := c.Submit(s.ID, Interpret("yes", "", 0.9)); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if n := c.ExpireIdle(10 * time.Minute); n != 0 {
		t.Errorf("ExpireIdle() after Submit = %d, want 0", n)
	}
}

func TestController_JanitorLifecycle(t *testing.T) {
	c := NewController(testSet())

	c.StartJanitor(time.Minute, 10*time.Minute)
	c.StartJanitor(time.Minute, 10*time.Minute) // second start is a no-op
	c.StopJanitor()
	c.StopJanitor() // second stop is harmless

	c.StartJanitor(time.Minute, 10*time.Minute)
	c.StopJanitor()
}

func TestController_SnapshotIsolation(t *testing.T) {
	c := NewController(testSet())
	s := c.StartSession(0)

	if _, err := c.Submit(s.ID, Interpret("yes", "", 0.9)); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	got, _ := c.GetSession(s.ID)
	got.Answers[0].Answer = "tampered"
	got.Index = 99

	fresh, _ := c.GetSession(s.ID)
	if fresh.Answers[0].Answer != AnswerYes || fresh.Index != 1 {
		t.Error("mutating a snapshot changed controller state")
	}
}

func TestSummarize(t *testing.T) {
	answers := []AnswerRecord{
		{Answer: AnswerYes},
		{Answer: AnswerYes},
		{Answer: AnswerNo},
		{Answer: AnswerUnclear},
		{Answer: AnswerSkipped},
		{Answer: AnswerTimeout},
	}
	sum := Summarize(answers)
	// skipped and timeout count as unclear
	if sum.Total != 6 || sum.Yes != 2 || sum.No != 1 || sum.Unclear != 3 {
		t.Errorf("summary = %+v, want 6/2/1/3", sum)
	}
}
