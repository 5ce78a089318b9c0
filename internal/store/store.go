package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/naeemakhtar23/voiceagent/pkg/core/fault"
)

// Call status values. Twilio status callbacks may additionally deliver
// provider statuses (queued, busy, no-answer, canceled) which are stored
// as-is.
const (
	StatusInitiated  = "initiated"
	StatusRinging    = "ringing"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Call is one survey call record
type Call struct {
	ID              int64      `json:"id"`
	PhoneNumber     string     `json:"phone_number"`
	CallSID         string     `json:"call_sid,omitempty"`
	Status          string     `json:"status"`
	QuestionsJSON   string     `json:"-"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	DurationSeconds int64      `json:"duration_seconds"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Questions decodes the question texts stored with the call
func (c *Call) Questions() []string {
	if c.QuestionsJSON == "" {
		return nil
	}
	var entries []struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(c.QuestionsJSON), &entries); err != nil {
		return nil
	}
	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.Text
	}
	return texts
}

// Response is one asked question with its recorded answer
type Response struct {
	QuestionNumber      int      `json:"question_number"`
	QuestionText        string   `json:"question"`
	Answer              string   `json:"answer"`
	Confidence          *float64 `json:"confidence"`
	RawResponse         string   `json:"raw_response"`
	ResponseTimeSeconds float64  `json:"response_time_seconds"`
}

// Summary aggregates the answers of one call. Anything not a clear yes
// or no counts as unclear.
type Summary struct {
	TotalQuestions int `json:"total_questions"`
	YesCount       int `json:"yes_count"`
	NoCount        int `json:"no_count"`
	UnclearCount   int `json:"unclear_count"`
}

// CallResults is the canonical results document generated for a call
// and archived in the call_results table
type CallResults struct {
	CallID          int64      `json:"call_id"`
	PhoneNumber     string     `json:"phone_number"`
	CallSID         string     `json:"call_sid"`
	Status          string     `json:"status"`
	StartedAt       *time.Time `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at"`
	DurationSeconds int64      `json:"duration_seconds"`
	Timestamp       time.Time  `json:"timestamp"`
	Questions       []Response `json:"questions"`
	Summary         Summary    `json:"summary"`
}

// Store is the persistence interface for calls, answers and results
type Store interface {
	// Call lifecycle
	CreateCall(ctx context.Context, phoneNumber string, questions []string) (int64, error)
	UpdateCallSID(ctx context.Context, callID int64, callSID string) error
	UpdateCallStatus(ctx context.Context, callSID, status string) error
	CompleteCall(ctx context.Context, callID int64) error
	MarkFailed(ctx context.Context, callID int64) error
	GetCall(ctx context.Context, callID int64) (*Call, error)
	ListCalls(ctx context.Context) ([]*Call, error)

	// Question and answer records
	SaveQuestion(ctx context.Context, callID int64, questionNumber int, text string) error
	SaveAnswer(ctx context.Context, callID int64, questionNumber int, answer string, confidence float64, raw string) error
	GetResponses(ctx context.Context, callID int64) ([]*Response, error)

	// Results
	Results(ctx context.Context, callID int64) (*CallResults, error)

	Ping(ctx context.Context) error
	Close() error
}

// SQLiteStore implements Store using SQLite
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// Config holds configuration for the SQLite store
type Config struct {
	Path string
}

// DefaultConfig returns default store configuration
func DefaultConfig() Config {
	return Config{
		Path: "./data/voiceagent.db",
	}
}

// New creates a new SQLite-based store
func New(cfg Config) (*SQLiteStore, error) {
	if cfg.Path == "" {
		cfg.Path = DefaultConfig().Path
	}

	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fault.Wrap(err, "creating database directory").
			WithCode(fault.CodeDatabaseError)
	}

	// WAL keeps webhook writes from blocking dashboard reads
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fault.Wrap(err, "opening database").
			WithCode(fault.CodeDatabaseError)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fault.Wrap(err, "initializing schema").
			WithCode(fault.CodeDatabaseError)
	}
	return s, nil
}

// initSchema creates the necessary tables
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Call records
	CREATE TABLE IF NOT EXISTS calls (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		phone_number TEXT NOT NULL,
		call_sid TEXT,
		status TEXT NOT NULL DEFAULT 'initiated',
		questions_json TEXT,
		started_at DATETIME,
		ended_at DATETIME,
		duration_seconds INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	-- Asked questions with their answers
	CREATE TABLE IF NOT EXISTS questions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		call_id INTEGER NOT NULL,
		question_number INTEGER NOT NULL,
		question_text TEXT NOT NULL,
		response TEXT,
		response_confidence REAL,
		raw_response TEXT,
		response_time_seconds REAL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (call_id) REFERENCES calls(id)
	);

	-- Archived results documents
	CREATE TABLE IF NOT EXISTS call_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		call_id INTEGER NOT NULL,
		json_response TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (call_id) REFERENCES calls(id)
	);

	-- Indices for efficient querying
	CREATE INDEX IF NOT EXISTS idx_calls_created ON calls(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_calls_sid ON calls(call_sid);
	CREATE INDEX IF NOT EXISTS idx_questions_call ON questions(call_id, question_number);
	CREATE INDEX IF NOT EXISTS idx_results_call ON call_results(call_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Ping verifies the database connection is alive
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fault.Wrap(err, "pinging database").
			WithCode(fault.CodeDatabaseError)
	}
	return nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateCall records a new outbound call in status initiated and returns
// its identifier
func (s *SQLiteStore) CreateCall(ctx context.Context, phoneNumber string, questions []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]map[string]string, len(questions))
	for i, q := range questions {
		entries[i] = map[string]string{"text": q}
	}
	questionsJSON, err := json.Marshal(entries)
	if err != nil {
		return 0, fault.Wrap(err, "encoding questions").
			WithCode(fault.CodeDatabaseError)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO calls (phone_number, status, questions_json)
		VALUES (?, ?, ?)`,
		phoneNumber, StatusInitiated, string(questionsJSON))
	if err != nil {
		return 0, fault.Wrap(err, "creating call").
			WithCode(fault.CodeDatabaseError)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fault.Wrap(err, "reading call id").
			WithCode(fault.CodeDatabaseError)
	}
	return id, nil
}

// UpdateCallSID attaches the provider call SID once dialing starts and
// moves the call to ringing
func (s *SQLiteStore) UpdateCallSID(ctx context.Context, callID int64, callSID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE calls
		SET call_sid = ?, status = ?, started_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		callSID, StatusRinging, callID)
	if err != nil {
		return fault.Wrap(err, "updating call sid").
			WithCode(fault.CodeDatabaseError)
	}
	return s.requireRow(res, callID)
}

// UpdateCallStatus records a status callback delivered by the provider.
// Lookup is by SID because callbacks carry no internal id.
func (s *SQLiteStore) UpdateCallStatus(ctx context.Context, callSID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		UPDATE calls SET status = ? WHERE call_sid = ?`,
		status, callSID)
	if err != nil {
		return fault.Wrap(err, "updating call status").
			WithCode(fault.CodeDatabaseError)
	}
	return nil
}

// CompleteCall marks the call completed and computes its duration from
// started_at
func (s *SQLiteStore) CompleteCall(ctx context.Context, callID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE calls
		SET status = ?,
		    ended_at = CURRENT_TIMESTAMP,
		    duration_seconds = CAST(
		        strftime('%s', CURRENT_TIMESTAMP) -
		        strftime('%s', COALESCE(started_at, CURRENT_TIMESTAMP))
		        AS INTEGER)
		WHERE id = ?`,
		StatusCompleted, callID)
	if err != nil {
		return fault.Wrap(err, "completing call").
			WithCode(fault.CodeDatabaseError)
	}
	return s.requireRow(res, callID)
}

// MarkFailed closes a call that never connected, such as a rejected
// dial attempt
func (s *SQLiteStore) MarkFailed(ctx context.Context, callID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE calls
		SET status = ?, ended_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		StatusFailed, callID)
	if err != nil {
		return fault.Wrap(err, "marking call failed").
			WithCode(fault.CodeDatabaseError)
	}
	return s.requireRow(res, callID)
}

// GetCall retrieves a single call by id
func (s *SQLiteStore) GetCall(ctx context.Context, callID int64) (*Call, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, phone_number, COALESCE(call_sid, ''), status,
		       COALESCE(questions_json, ''), started_at, ended_at,
		       duration_seconds, created_at
		FROM calls WHERE id = ?`, callID)

	call, err := scanCall(row)
	if err == sql.ErrNoRows {
		return nil, fault.Newf("call %d not found", callID).
			WithCode(fault.CodeNotFound)
	}
	if err != nil {
		return nil, fault.Wrap(err, "getting call").
			WithCode(fault.CodeDatabaseError)
	}
	return call, nil
}

// ListCalls returns all calls, most recent first
func (s *SQLiteStore) ListCalls(ctx context.Context) ([]*Call, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, phone_number, COALESCE(call_sid, ''), status,
		       COALESCE(questions_json, ''), started_at, ended_at,
		       duration_seconds, created_at
		FROM calls ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fault.Wrap(err, "listing calls").
			WithCode(fault.CodeDatabaseError)
	}
	defer rows.Close()

	var calls []*Call
	for rows.Next() {
		call, err := scanCall(rows)
		if err != nil {
			return nil, fault.Wrap(err, "scanning call").
				WithCode(fault.CodeDatabaseError)
		}
		calls = append(calls, call)
	}
	if err := rows.Err(); err != nil {
		return nil, fault.Wrap(err, "iterating calls").
			WithCode(fault.CodeDatabaseError)
	}
	return calls, nil
}

// SaveQuestion records that a question was asked. The answer arrives
// later via SaveAnswer.
func (s *SQLiteStore) SaveQuestion(ctx context.Context, callID int64, questionNumber int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO questions (call_id, question_number, question_text)
		VALUES (?, ?, ?)`,
		callID, questionNumber, text)
	if err != nil {
		return fault.Wrap(err, "saving question").
			WithCode(fault.CodeDatabaseError)
	}
	return nil
}

// SaveAnswer attaches the answer to an already asked question. Response
// time is measured from when the question row was created.
func (s *SQLiteStore) SaveAnswer(ctx context.Context, callID int64, questionNumber int, answer string, confidence float64, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE questions
		SET response = ?,
		    response_confidence = ?,
		    raw_response = ?,
		    response_time_seconds =
		        (julianday(CURRENT_TIMESTAMP) - julianday(created_at)) * 86400.0
		WHERE call_id = ? AND question_number = ?`,
		answer, confidence, raw, callID, questionNumber)
	if err != nil {
		return fault.Wrap(err, "saving answer").
			WithCode(fault.CodeDatabaseError)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fault.Wrap(err, "checking answer update").
			WithCode(fault.CodeDatabaseError)
	}
	if n == 0 {
		return fault.Newf("question %d for call %d not found", questionNumber, callID).
			WithCode(fault.CodeNotFound)
	}
	return nil
}

// GetResponses returns the asked questions of a call in question order
func (s *SQLiteStore) GetResponses(ctx context.Context, callID int64) ([]*Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT question_number, question_text,
		       COALESCE(response, ''), response_confidence,
		       COALESCE(raw_response, ''), COALESCE(response_time_seconds, 0)
		FROM questions
		WHERE call_id = ?
		ORDER BY question_number`, callID)
	if err != nil {
		return nil, fault.Wrap(err, "listing responses").
			WithCode(fault.CodeDatabaseError)
	}
	defer rows.Close()

	var responses []*Response
	for rows.Next() {
		r := &Response{}
		var conf sql.NullFloat64
		if err := rows.Scan(&r.QuestionNumber, &r.QuestionText,
			&r.Answer, &conf, &r.RawResponse, &r.ResponseTimeSeconds); err != nil {
			return nil, fault.Wrap(err, "scanning response").
				WithCode(fault.CodeDatabaseError)
		}
		if conf.Valid {
			c := conf.Float64
			r.Confidence = &c
		}
		responses = append(responses, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fault.Wrap(err, "iterating responses").
			WithCode(fault.CodeDatabaseError)
	}
	return responses, nil
}

// Results builds the canonical results document for a call and archives
// it in call_results. Safe to call repeatedly; each call archives a
// fresh snapshot.
func (s *SQLiteStore) Results(ctx context.Context, callID int64) (*CallResults, error) {
	call, err := s.GetCall(ctx, callID)
	if err != nil {
		return nil, err
	}
	responses, err := s.GetResponses(ctx, callID)
	if err != nil {
		return nil, err
	}

	results := &CallResults{
		CallID:          call.ID,
		PhoneNumber:     call.PhoneNumber,
		CallSID:         call.CallSID,
		Status:          call.Status,
		StartedAt:       call.StartedAt,
		EndedAt:         call.EndedAt,
		DurationSeconds: call.DurationSeconds,
		Timestamp:       time.Now().UTC(),
		Questions:       make([]Response, 0, len(responses)),
		Summary:         Summary{TotalQuestions: len(responses)},
	}
	for _, r := range responses {
		results.Questions = append(results.Questions, *r)
		switch r.Answer {
		case "yes":
			results.Summary.YesCount++
		case "no":
			results.Summary.NoCount++
		default:
			results.Summary.UnclearCount++
		}
	}

	doc, err := json.Marshal(results)
	if err != nil {
		return nil, fault.Wrap(err, "encoding results").
			WithCode(fault.CodeDatabaseError)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO call_results (call_id, json_response)
		VALUES (?, ?)`,
		callID, string(doc))
	if err != nil {
		return nil, fault.Wrap(err, "archiving results").
			WithCode(fault.CodeDatabaseError)
	}
	return results, nil
}

// requireRow converts a zero-row update into a not-found error
func (s *SQLiteStore) requireRow(res sql.Result, callID int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fault.Wrap(err, "checking update").
			WithCode(fault.CodeDatabaseError)
	}
	if n == 0 {
		return fault.Newf("call %d not found", callID).
			WithCode(fault.CodeNotFound)
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCall(row rowScanner) (*Call, error) {
	c := &Call{}
	var started, ended sql.NullTime
	err := row.Scan(&c.ID, &c.PhoneNumber, &c.CallSID, &c.Status,
		&c.QuestionsJSON, &started, &ended, &c.DurationSeconds, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	if started.Valid {
		t := started.Time
		c.StartedAt = &t
	}
	if ended.Valid {
		t := ended.Time
		c.EndedAt = &t
	}
	return c, nil
}
