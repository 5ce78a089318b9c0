package capture

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/naeemakhtar23/voiceagent/pkg/core/fault"
)

// testConfig returns tightened timers that keep the required ordering
// (settle < grace initial < grace extended < overall)
func testConfig() Config {
	return Config{
		OverallTimeout: 400 * time.Millisecond,
		GraceInitial:   80 * time.Millisecond,
		GraceExtended:  160 * time.Millisecond,
		InterimSettle:  40 * time.Millisecond,
		ReadyFallback:  30 * time.Millisecond,
		RestartSettle:  20 * time.Millisecond,
		SoundThreshold: 0.01,
	}
}

type fakePipeline struct {
	mu       sync.Mutex
	startErr error
	started  int
	flushes  int
	restarts int
	stops    int
}

func (f *fakePipeline) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started++
	return f.startErr
}

func (f *fakePipeline) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushes++
	return nil
}

func (f *fakePipeline) Restart() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restarts++
	return nil
}

func (f *fakePipeline) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return nil
}

func (f *fakePipeline) counts() (started, flushes, restarts, stops int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started, f.flushes, f.restarts, f.stops
}

type outcomeRecorder struct {
	mu       sync.Mutex
	readies  []ReadySource
	interims []Transcript
	resolved []Resolution
	failed   []Failure
}

func (r *outcomeRecorder) callbacks() Callbacks {
	return Callbacks{
		OnReady: func(src ReadySource) {
			r.mu.Lock()
			r.readies = append(r.readies, src)
			r.mu.Unlock()
		},
		OnInterim: func(t Transcript) {
			r.mu.Lock()
			r.interims = append(r.interims, t)
			r.mu.Unlock()
		},
		OnResolved: func(res Resolution) {
			r.mu.Lock()
			r.resolved = append(r.resolved, res)
			r.mu.Unlock()
		},
		OnFailed: func(f Failure) {
			r.mu.Lock()
			r.failed = append(r.failed, f)
			r.mu.Unlock()
		},
	}
}

func (r *outcomeRecorder) counts() (resolved, failed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.resolved), len(r.failed)
}

func (r *outcomeRecorder) readySources() []ReadySource {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ReadySource(nil), r.readies...)
}

func waitTerminal(t *testing.T, s *Session, timeout time.Duration) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(timeout):
		t.Fatalf("session not terminal after %v (state %s)", timeout, s.State())
	}
}

func TestSession_FastPathExactAnswer(t *testing.T) {
	rec := &outcomeRecorder{}
	s := New(testConfig(), rec.callbacks())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// dispatch is synchronous: an exact single-word answer resolves
	// without waiting for the settle timer
	s.HandleTranscript("yes", 0.87, false)

	if got := s.State(); got != StateResolved {
		t.Fatalf("state = %s, want %s", got, StateResolved)
	}

	res, fail := s.Outcome()
	if fail != nil {
		t.Fatalf("Outcome() failure = %+v, want none", fail)
	}
	if res.Answer != AnswerYes {
		t.Errorf("Answer = %s, want %s", res.Answer, AnswerYes)
	}
	if res.Confidence != 0.87 {
		t.Errorf("Confidence = %v, want 0.87", res.Confidence)
	}

	resolved, failed := rec.counts()
	if resolved != 1 || failed != 0 {
		t.Errorf("callbacks resolved=%d failed=%d, want 1 and 0", resolved, failed)
	}

	// the transcript doubled as the readiness signal
	if srcs := rec.readySources(); len(srcs) != 1 || srcs[0] != ReadySound {
		t.Errorf("ready sources = %v, want [sound]", srcs)
	}
}

func TestSession_InterimSettlesToAnswer(t *testing.T) {
	rec := &outcomeRecorder{}
	s := New(testConfig(), rec.callbacks())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	s.HandleSound()
	s.HandleTranscript("well yes exactly", 0.8, false)

	// not an exact single word, so the session waits for it to settle
	if got := s.State(); got != StateListening {
		t.Fatalf("state after interim = %s, want %s", got, StateListening)
	}

	waitTerminal(t, s, 300*time.Millisecond)

	res, fail := s.Outcome()
	if fail != nil {
		t.Fatalf("Outcome() failure = %+v, want none", fail)
	}
	if res.Answer != AnswerYes {
		t.Errorf("Answer = %s, want %s", res.Answer, AnswerYes)
	}
	if res.Text != "well yes exactly" {
		t.Errorf("Text = %q, want %q", res.Text, "well yes exactly")
	}
}

func TestSession_FinalTranscriptResolvesImmediately(t *testing.T) {
	rec := &outcomeRecorder{}
	s := New(testConfig(), rec.callbacks())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	s.HandleTranscript("no thanks", 0.92, true)

	if got := s.State(); got != StateResolved {
		t.Fatalf("state = %s, want %s", got, StateResolved)
	}
	res, _ := s.Outcome()
	if res == nil || res.Answer != AnswerNo {
		t.Fatalf("Outcome() = %+v, want no answer", res)
	}
}

func TestSession_FinalUnclearFails(t *testing.T) {
	rec := &outcomeRecorder{}
	s := New(testConfig(), rec.callbacks())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	s.HandleTranscript("banana smoothie", 0.9, true)

	if got := s.State(); got != StateFailed {
		t.Fatalf("state = %s, want %s", got, StateFailed)
	}
	_, fail := s.Outcome()
	if fail == nil || fail.Kind != FailureUnclear {
		t.Fatalf("Outcome() failure = %+v, want %s", fail, FailureUnclear)
	}
	if fail.Message == "" {
		t.Error("unclear failure has no user message")
	}

	resolved, failed := rec.counts()
	if resolved != 0 || failed != 1 {
		t.Errorf("callbacks resolved=%d failed=%d, want 0 and 1", resolved, failed)
	}
}

func TestSession_ResolutionLatch(t *testing.T) {
	rec := &outcomeRecorder{}
	s := New(testConfig(), rec.callbacks())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	s.HandleTranscript("yes", 0.9, false)

	// a storm of late and contradictory events must all be ignored
	s.HandleTranscript("no", 0.99, true)
	s.HandleSpeechEnded()
	s.HandleStreamError(errors.New("socket closed"))
	s.HandleStreamEnded()
	s.Cancel()

	// outlive every configured timer
	time.Sleep(500 * time.Millisecond)

	resolved, failed := rec.counts()
	if resolved != 1 {
		t.Errorf("resolved callbacks = %d, want exactly 1", resolved)
	}
	if failed != 0 {
		t.Errorf("failed callbacks = %d, want 0", failed)
	}
	if got := s.State(); got != StateResolved {
		t.Errorf("state = %s, want %s", got, StateResolved)
	}
	res, _ := s.Outcome()
	if res == nil || res.Answer != AnswerYes {
		t.Errorf("Outcome() = %+v, want the first yes to stand", res)
	}
}

func TestSession_OverallTimeoutNoSpeech(t *testing.T) {
	rec := &outcomeRecorder{}
	pipe := &fakePipeline{}
	s := New(testConfig(), rec.callbacks())
	s.SetPipeline(pipe)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	waitTerminal(t, s, time.Second)

	_, fail := s.Outcome()
	if fail == nil || fail.Kind != FailureNoSpeech {
		t.Fatalf("Outcome() failure = %+v, want %s", fail, FailureNoSpeech)
	}

	// readiness fell back to the timer since no signal ever arrived
	if srcs := rec.readySources(); len(srcs) != 1 || srcs[0] != ReadyFallback {
		t.Errorf("ready sources = %v, want [fallback]", srcs)
	}

	if _, _, _, stops := pipe.counts(); stops == 0 {
		t.Error("pipeline was not stopped on timeout")
	}
}

func TestSession_TimeoutAcceptsPendingInterim(t *testing.T) {
	rec := &outcomeRecorder{}
	s := New(testConfig(), rec.callbacks())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// keep refreshing the interim so the settle timer never gets a quiet
	// period; the overall timeout should accept the classifiable text
	deadline := time.Now().Add(600 * time.Millisecond)
	for time.Now().Before(deadline) && !s.State().IsTerminal() {
		s.HandleTranscript("probably yes I would say", 0.7, false)
		time.Sleep(15 * time.Millisecond)
	}
	waitTerminal(t, s, time.Second)

	res, fail := s.Outcome()
	if fail != nil {
		t.Fatalf("Outcome() failure = %+v, want acceptance", fail)
	}
	if res.Answer != AnswerYes {
		t.Errorf("Answer = %s, want %s", res.Answer, AnswerYes)
	}
}

func TestSession_TimeoutUnclearInterim(t *testing.T) {
	rec := &outcomeRecorder{}
	s := New(testConfig(), rec.callbacks())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	deadline := time.Now().Add(600 * time.Millisecond)
	for time.Now().Before(deadline) && !s.State().IsTerminal() {
		s.HandleTranscript("maybe call me tomorrow", 0.7, false)
		time.Sleep(15 * time.Millisecond)
	}
	waitTerminal(t, s, time.Second)

	_, fail := s.Outcome()
	if fail == nil || fail.Kind != FailureUnclear {
		t.Fatalf("Outcome() failure = %+v, want %s", fail, FailureUnclear)
	}
}

func TestSession_GraceEscalation(t *testing.T) {
	rec := &outcomeRecorder{}
	pipe := &fakePipeline{}
	s := New(testConfig(), rec.callbacks())
	s.SetPipeline(pipe)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	s.HandleSound()
	s.HandleSpeechStarted()
	s.HandleSpeechEnded()

	// stage 1 at 80ms flushes, stage 2 at 160ms restarts
	time.Sleep(120 * time.Millisecond)
	if _, flushes, restarts, _ := pipe.counts(); flushes != 1 || restarts != 0 {
		t.Errorf("after stage 1: flushes=%d restarts=%d, want 1 and 0", flushes, restarts)
	}

	time.Sleep(80 * time.Millisecond)
	if _, _, restarts, _ := pipe.counts(); restarts != 1 {
		t.Errorf("after stage 2: restarts=%d, want 1", restarts)
	}

	// still no speech, so the overall timeout closes the window
	waitTerminal(t, s, time.Second)
	_, fail := s.Outcome()
	if fail == nil || fail.Kind != FailureNoSpeech {
		t.Fatalf("Outcome() failure = %+v, want %s", fail, FailureNoSpeech)
	}
}

func TestSession_SpeechResumeClearsGrace(t *testing.T) {
	rec := &outcomeRecorder{}
	pipe := &fakePipeline{}
	s := New(testConfig(), rec.callbacks())
	s.SetPipeline(pipe)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	s.HandleSound()
	s.HandleSpeechEnded()

	time.Sleep(40 * time.Millisecond)
	s.HandleSpeechStarted()

	// past the original stage 1 deadline; resuming speech disarmed it
	time.Sleep(100 * time.Millisecond)
	if _, flushes, _, _ := pipe.counts(); flushes != 0 {
		t.Errorf("flushes = %d after speech resumed, want 0", flushes)
	}

	s.Cancel()
}

func TestSession_CancelIsSilent(t *testing.T) {
	rec := &outcomeRecorder{}
	pipe := &fakePipeline{}
	s := New(testConfig(), rec.callbacks())
	s.SetPipeline(pipe)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	s.Cancel()

	if got := s.State(); got != StateFailed {
		t.Fatalf("state = %s, want %s", got, StateFailed)
	}
	_, fail := s.Outcome()
	if fail == nil || fail.Kind != FailureAborted {
		t.Fatalf("Outcome() failure = %+v, want %s", fail, FailureAborted)
	}

	// an intentional abort never reaches the failure callback
	resolved, failed := rec.counts()
	if resolved != 0 || failed != 0 {
		t.Errorf("callbacks resolved=%d failed=%d, want none", resolved, failed)
	}

	if _, _, _, stops := pipe.counts(); stops != 1 {
		t.Errorf("pipeline stops = %d, want 1", stops)
	}

	// events after the abort are ignored
	s.HandleTranscript("yes", 0.9, false)
	if resolved, _ := rec.counts(); resolved != 0 {
		t.Error("transcript after cancel produced a resolution")
	}
}

func TestSession_ContextCancelAborts(t *testing.T) {
	rec := &outcomeRecorder{}
	s := New(testConfig(), rec.callbacks())

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	cancel()

	waitTerminal(t, s, time.Second)

	_, fail := s.Outcome()
	if fail == nil || fail.Kind != FailureAborted {
		t.Fatalf("Outcome() failure = %+v, want %s", fail, FailureAborted)
	}
	if _, failed := rec.counts(); failed != 0 {
		t.Error("context cancel produced a user-visible failure")
	}
}

func TestSession_ReadinessExplicitWins(t *testing.T) {
	rec := &outcomeRecorder{}
	s := New(testConfig(), rec.callbacks())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	s.HandleReady()

	if got := s.State(); got != StateListening {
		t.Fatalf("state = %s, want %s", got, StateListening)
	}

	// the fallback timer was disarmed; no second ready callback fires
	time.Sleep(60 * time.Millisecond)
	if srcs := rec.readySources(); len(srcs) != 1 || srcs[0] != ReadyExplicit {
		t.Errorf("ready sources = %v, want [explicit]", srcs)
	}

	s.Cancel()
}

func TestSession_ReadinessFallback(t *testing.T) {
	rec := &outcomeRecorder{}
	s := New(testConfig(), rec.callbacks())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	time.Sleep(60 * time.Millisecond)
	if got := s.State(); got != StateListening {
		t.Fatalf("state = %s, want %s after fallback", got, StateListening)
	}
	if srcs := rec.readySources(); len(srcs) != 1 || srcs[0] != ReadyFallback {
		t.Errorf("ready sources = %v, want [fallback]", srcs)
	}

	s.Cancel()
}

func TestSession_PipelineStartFailure(t *testing.T) {
	rec := &outcomeRecorder{}
	pipe := &fakePipeline{
		startErr: fault.New("no usable input device").WithCode(fault.CodeAudioDevice),
	}
	s := New(testConfig(), rec.callbacks())
	s.SetPipeline(pipe)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v, failures should flow through callbacks", err)
	}

	if got := s.State(); got != StateFailed {
		t.Fatalf("state = %s, want %s", got, StateFailed)
	}
	_, fail := s.Outcome()
	if fail == nil || fail.Kind != FailureNoInputDevice {
		t.Fatalf("Outcome() failure = %+v, want %s", fail, FailureNoInputDevice)
	}
}

func TestSession_DoubleStartErrors(t *testing.T) {
	s := New(testConfig(), Callbacks{})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("first Start() error = %v", err)
	}
	if err := s.Start(context.Background()); err == nil {
		t.Error("second Start() succeeded, want error")
	}

	s.Cancel()
	if err := s.Start(context.Background()); err == nil {
		t.Error("Start() after cancel succeeded, want error")
	}
}

func TestSession_StreamEndedTriggersGrace(t *testing.T) {
	rec := &outcomeRecorder{}
	pipe := &fakePipeline{}
	s := New(testConfig(), rec.callbacks())
	s.SetPipeline(pipe)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	s.HandleSound()
	s.HandleStreamEnded()

	time.Sleep(120 * time.Millisecond)
	if _, flushes, _, _ := pipe.counts(); flushes != 1 {
		t.Errorf("flushes = %d after stream end, want 1", flushes)
	}

	s.Cancel()
}

func TestSession_StateListenerOrder(t *testing.T) {
	s := New(testConfig(), Callbacks{})

	var mu sync.Mutex
	var transitions []string
	s.AddListener(func(from, to State) {
		mu.Lock()
		transitions = append(transitions, from.String()+">"+to.String())
		mu.Unlock()
	})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	s.HandleTranscript("yes", 0.9, false)

	want := []string{
		"idle>starting",
		"starting>listening",
		"listening>resolving",
		"resolving>resolved",
	}

	mu.Lock()
	defer mu.Unlock()
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition[%d] = %q, want %q", i, transitions[i], want[i])
		}
	}
}
