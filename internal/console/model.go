// ============================================================================
// VoiceAgent - Automated Voice Survey Platform
// ============================================================================
//
// Package:     console
// Description: Local survey console with a text UI. Runs a survey
//              session against the controller the same way a phone call
//              would, with a scripted caller on the capture side and a
//              text input for typed answers.
// Author:      Naeem Akhtar
// Created:     2026-08-15
// License:     MIT
// ============================================================================

package console

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/naeemakhtar23/voiceagent/internal/capture"
	"github.com/naeemakhtar23/voiceagent/internal/survey"
)

// typedConfidence is the confidence assigned to typed answers; what the
// user typed is exactly what they meant
const typedConfidence = 1.0

// greetingPause is how long the greeting stays before the first question
const greetingPause = 2 * time.Second

// phase is where the console flow currently is
type phase int

const (
	phaseGreeting phase = iota
	phaseAsking
	phaseListening
	phaseSummary
)

// Config holds console configuration
type Config struct {
	Set       *survey.QuestionSet // question set to run, default set when nil
	Script    []string            // scripted spoken answers, one per listen turn
	StepDelay time.Duration       // pacing of the scripted caller
	Capture   capture.Config      // capture timing, zero for defaults
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	cc := capture.DefaultConfig()
	// a silent scripted turn should not hang the console for the full
	// phone-grade timeout
	cc.OverallTimeout = 8 * time.Second
	return Config{
		Set:       survey.DefaultQuestionSet(),
		Script:    []string{"yes", "no", "yes please"},
		StepDelay: 400 * time.Millisecond,
		Capture:   cc,
	}
}

// Model is the survey console state
type Model struct {
	cfg Config

	ctrl    *survey.Controller
	manager *capture.Manager
	feed    *script
	events  chan tea.Msg

	spinner spinner.Model
	input   textinput.Model

	phase       phase
	sessionID   string
	question    string
	questionNum int
	total       int

	listening   bool
	readySource string
	interim     string
	feedback    string
	lastErr     string

	history []AnswerLine
	results *survey.Results

	width  int
	height int
}

// New creates a survey console model
func New(cfg Config) Model {
	def := DefaultConfig()
	if cfg.Set == nil {
		cfg.Set = def.Set
	}
	if cfg.StepDelay <= 0 {
		cfg.StepDelay = def.StepDelay
	}
	if cfg.Capture.OverallTimeout <= 0 {
		cfg.Capture = def.Capture
	}

	ti := textinput.New()
	ti.Placeholder = "Type an answer, or press Enter to listen..."
	ti.CharLimit = 200
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = SpinnerStyle

	feed := newScript(cfg.Script, cfg.StepDelay)
	ctrl := survey.NewController(cfg.Set)
	mgr := capture.NewManager(cfg.Capture, feed.factory())

	sess := ctrl.StartSession(0)
	question, num, _ := ctrl.Question(sess.ID)

	return Model{
		cfg:         cfg,
		ctrl:        ctrl,
		manager:     mgr,
		feed:        feed,
		events:      make(chan tea.Msg, 32),
		spinner:     sp,
		input:       ti,
		phase:       phaseGreeting,
		sessionID:   sess.ID,
		question:    question,
		questionNum: num,
		total:       cfg.Set.Len(),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.waitForEvent(),
		advanceAfter(greetingPause),
	)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if !m.listening {
			return m, nil
		}
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case advanceMsg:
		if m.phase == phaseGreeting {
			m.phase = phaseAsking
			m.input.Focus()
			return m, textinput.Blink
		}
		return m, nil

	case captureStartedMsg:
		if msg.err != nil {
			m.listening = false
			m.phase = phaseAsking
			m.lastErr = "Could not start listening: " + msg.err.Error()
			m.input.Focus()
			return m, textinput.Blink
		}
		return m, nil

	case captureReadyMsg:
		m.readySource = msg.source.String()
		return m, m.waitForEvent()

	case captureInterimMsg:
		m.interim = msg.transcript.Text
		return m, m.waitForEvent()

	case captureResolvedMsg:
		m.listening = false
		m.interim = ""
		return m, tea.Batch(m.waitForEvent(), m.submitCapture(msg.res))

	case captureFailedMsg:
		return m.handleCaptureFailure(msg.fail)

	case outcomeMsg:
		return m.handleOutcome(msg)
	}

	if m.phase == phaseAsking {
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleKeyPress handles keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		// intentional abort: cancel whatever runs, show nothing
		m.manager.Cancel()
		m.ctrl.Abandon(m.sessionID)
		return m, tea.Quit

	case "esc":
		if m.phase == phaseListening {
			// back out of the listen turn, keep the survey going
			m.manager.Cancel()
			return m, nil
		}
		m.ctrl.Abandon(m.sessionID)
		return m, tea.Quit

	case "enter":
		switch m.phase {
		case phaseGreeting:
			m.phase = phaseAsking
			m.input.Focus()
			return m, textinput.Blink
		case phaseSummary:
			return m, tea.Quit
		case phaseAsking:
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m.startListening()
			}
			m.input.Reset()
			m.feedback = ""
			m.lastErr = ""
			return m, m.submitTyped(text)
		}
		return m, nil
	}

	if m.phase == phaseGreeting {
		// any key skips the greeting
		m.phase = phaseAsking
		m.input.Focus()
		return m, textinput.Blink
	}

	if m.phase == phaseAsking {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// startListening begins a capture turn fed by the scripted caller
func (m Model) startListening() (tea.Model, tea.Cmd) {
	m.phase = phaseListening
	m.listening = true
	m.interim = ""
	m.feedback = ""
	m.lastErr = ""
	m.readySource = ""
	m.input.Blur()

	mgr := m.manager
	cb := m.captureCallbacks()
	start := func() tea.Msg {
		_, err := mgr.Start(context.Background(), cb)
		return captureStartedMsg{err: err}
	}
	return m, tea.Batch(m.spinner.Tick, start)
}

// captureCallbacks forwards session callbacks into the event channel
func (m Model) captureCallbacks() capture.Callbacks {
	ev := m.events
	return capture.Callbacks{
		OnReady:    func(src capture.ReadySource) { ev <- captureReadyMsg{source: src} },
		OnInterim:  func(t capture.Transcript) { ev <- captureInterimMsg{transcript: t} },
		OnResolved: func(r capture.Resolution) { ev <- captureResolvedMsg{res: r} },
		OnFailed:   func(f capture.Failure) { ev <- captureFailedMsg{fail: f} },
	}
}

// waitForEvent returns a command waiting for the next capture event.
// Exactly one of these is outstanding at any time; every received
// capture message reissues it.
func (m Model) waitForEvent() tea.Cmd {
	ev := m.events
	return func() tea.Msg {
		return <-ev
	}
}

// handleCaptureFailure maps a capture failure onto the survey flow
func (m Model) handleCaptureFailure(fail capture.Failure) (tea.Model, tea.Cmd) {
	m.listening = false
	m.interim = ""
	m.phase = phaseAsking
	m.input.Focus()

	wait := m.waitForEvent()

	switch fail.Kind {
	case capture.FailureAborted:
		// cancelled on purpose, nothing to report
		return m, tea.Batch(wait, textinput.Blink)

	case capture.FailureNoSpeech:
		// silence is an answer: record the timeout and move on
		in := survey.Interpretation{Intent: survey.IntentTimeout, Answer: survey.AnswerTimeout}
		return m, tea.Batch(wait, m.submit(in, "", false))

	case capture.FailureUnclear:
		in := survey.Interpretation{
			Intent:     survey.IntentUnclear,
			Answer:     survey.AnswerUnclear,
			Confidence: 0.3,
		}
		return m, tea.Batch(wait, m.submit(in, "", false))
	}

	// device or service trouble: keep the question, suggest typing
	m.lastErr = fail.Message + " You can type the answer instead."
	return m, tea.Batch(wait, textinput.Blink)
}

// handleOutcome applies the controller's reaction to an answer
func (m Model) handleOutcome(msg outcomeMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.lastErr = msg.err.Error()
		m.phase = phaseAsking
		m.input.Focus()
		return m, textinput.Blink
	}
	out := msg.out

	switch out.Action {
	case survey.ActionRepeat:
		m.feedback = out.Feedback
		m.phase = phaseAsking
		m.input.Focus()
		return m, textinput.Blink

	case survey.ActionNext:
		m.history = append(m.history, AnswerLine{
			Number:   m.questionNum,
			Question: m.question,
			Answer:   out.PreviousAnswer,
			Raw:      msg.raw,
			Typed:    msg.typed,
		})
		m.question = out.Question
		m.questionNum = out.QuestionNumber
		m.feedback = out.Feedback
		m.phase = phaseAsking
		m.input.Focus()
		return m, textinput.Blink

	case survey.ActionComplete:
		m.history = append(m.history, AnswerLine{
			Number:   m.questionNum,
			Question: m.question,
			Answer:   out.PreviousAnswer,
			Raw:      msg.raw,
			Typed:    msg.typed,
		})
		m.results = out.Results
		m.phase = phaseSummary
		return m, nil
	}
	return m, nil
}

// submitTyped classifies a typed answer and submits it
func (m Model) submitTyped(text string) tea.Cmd {
	in := survey.Interpret(text, "", typedConfidence)
	return m.submit(in, text, true)
}

// submitCapture submits a resolved spoken answer
func (m Model) submitCapture(res capture.Resolution) tea.Cmd {
	intent := survey.IntentYes
	answer := survey.AnswerYes
	if res.Answer == capture.AnswerNo {
		intent = survey.IntentNo
		answer = survey.AnswerNo
	}
	in := survey.Interpretation{
		Intent:     intent,
		Answer:     answer,
		Confidence: res.Confidence,
		Raw:        res.Text,
	}
	return m.submit(in, res.Text, false)
}

// submit hands an interpretation to the controller
func (m Model) submit(in survey.Interpretation, raw string, typed bool) tea.Cmd {
	ctrl := m.ctrl
	id := m.sessionID
	return func() tea.Msg {
		out, err := ctrl.Submit(id, in)
		return outcomeMsg{out: out, raw: raw, typed: typed, err: err}
	}
}

// advanceAfter emits an advanceMsg after the given pause
func advanceAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return advanceMsg{}
	})
}

// View renders the console
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	switch m.phase {
	case phaseGreeting:
		b.WriteString(GreetingStyle.Render(m.cfg.Set.Greeting))
		b.WriteString("\n\n")
		b.WriteString(HelpStyle.Render("  Press any key to begin..."))

	case phaseSummary:
		b.WriteString(m.renderHistory())
		b.WriteString(m.renderSummary())

	default:
		b.WriteString(m.renderHistory())
		b.WriteString(m.renderQuestion())
		b.WriteString("\n")
		if m.phase == phaseListening {
			b.WriteString(m.renderListening())
		} else {
			b.WriteString(m.renderInput())
		}
	}

	b.WriteString("\n")
	b.WriteString(m.renderHelpBar())
	return b.String()
}

// renderHeader renders the title panel
func (m Model) renderHeader() string {
	title := LogoStyle.Render(Logo)
	name := m.cfg.Set.Name
	if name == "" {
		name = "Survey"
	}
	sub := SubHeaderStyle.Render(name)
	return TitlePanelStyle.Render(title + "  " + sub)
}

// renderHistory renders the answered questions so far
func (m Model) renderHistory() string {
	if len(m.history) == 0 {
		return ""
	}
	var b strings.Builder
	for _, line := range m.history {
		source := IconMic
		if line.Typed {
			source = IconKeyboard
		}
		b.WriteString(HistoryLineStyle.Render(fmt.Sprintf(
			"%d. %s  %s %s",
			line.Number, line.Question, RenderAnswer(line.Answer), source,
		)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

// renderQuestion renders the current question bubble
func (m Model) renderQuestion() string {
	var b strings.Builder
	b.WriteString(QuestionNumberStyle.Render(fmt.Sprintf("  Question %d of %d", m.questionNum, m.total)))
	b.WriteString("\n")
	b.WriteString(QuestionStyle.Render(IconQuestion + m.question))
	b.WriteString("\n")

	if m.feedback != "" {
		b.WriteString(FeedbackStyle.Render(m.feedback))
		b.WriteString("\n")
	}
	if m.lastErr != "" {
		b.WriteString(ErrorStyle.Render(m.lastErr))
		b.WriteString("\n")
	}
	return b.String()
}

// renderListening renders the spinner line while capturing
func (m Model) renderListening() string {
	var b strings.Builder
	label := "Listening..."
	if m.readySource != "" {
		label = fmt.Sprintf("Listening... (%s)", m.readySource)
	}
	b.WriteString(ListeningStyle.Render(m.spinner.View() + IconMic + label))
	b.WriteString("\n")
	if m.interim != "" {
		b.WriteString(InterimStyle.Render("heard so far: " + m.interim))
		b.WriteString("\n")
	}
	return b.String()
}

// renderInput renders the answer input
func (m Model) renderInput() string {
	style := InputStyle
	if m.input.Focused() {
		style = FocusedInputStyle
	}
	return style.Render(m.input.View()) + "\n"
}

// renderSummary renders the final results box
func (m Model) renderSummary() string {
	if m.results == nil {
		return ""
	}
	s := m.results.Summary
	var b strings.Builder
	b.WriteString(SummaryTitleStyle.Render(IconDone + "Survey complete"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("%s  yes answers\n", SummaryCountStyle.Render(fmt.Sprintf("%3d", s.Yes))))
	b.WriteString(fmt.Sprintf("%s  no answers\n", SummaryCountStyle.Render(fmt.Sprintf("%3d", s.No))))
	b.WriteString(fmt.Sprintf("%s  unclear or skipped\n", SummaryCountStyle.Render(fmt.Sprintf("%3d", s.Unclear))))
	b.WriteString("\n")
	b.WriteString(SubHeaderStyle.Render(m.cfg.Set.Closing))
	return SummaryBoxStyle.Render(b.String()) + "\n"
}

// renderHelpBar renders keyboard hints for the current phase
func (m Model) renderHelpBar() string {
	var hints []string
	switch m.phase {
	case phaseListening:
		hints = []string{
			RenderKeyHint("esc", "stop listening"),
			RenderKeyHint("ctrl+c", "quit"),
		}
	case phaseSummary:
		hints = []string{
			RenderKeyHint("enter", "close"),
			RenderKeyHint("ctrl+c", "quit"),
		}
	default:
		hints = []string{
			RenderKeyHint("enter", "listen"),
			RenderKeyHint("type+enter", "answer"),
			RenderKeyHint("ctrl+c", "quit"),
		}
	}
	return HelpStyle.Render("  " + strings.Join(hints, "   "))
}

// Run starts the survey console
func Run(cfg Config) error {
	p := tea.NewProgram(New(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
