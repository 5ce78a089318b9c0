package vad

import (
	"testing"
	"time"
)

func trackerConfig() Config {
	return Config{
		SampleRate:        16000,
		Mode:              2,
		SilenceDuration:   30 * time.Millisecond,
		MinSpeechDuration: 20 * time.Millisecond,
	}
}

func TestTracker_SilenceProducesNoEvents(t *testing.T) {
	tr := NewTracker(trackerConfig())

	for i := 0; i < 5; i++ {
		if ev := tr.Update(false); ev != EventNone {
			t.Fatalf("Update(false) = %s, want none", ev)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if tr.State().Speaking {
		t.Error("State().Speaking = true after pure silence")
	}
}

func TestTracker_SpeechStartAfterDebounce(t *testing.T) {
	tr := NewTracker(trackerConfig())

	// first frame starts the debounce window, no edge yet
	if ev := tr.Update(true); ev != EventNone {
		t.Fatalf("first Update(true) = %s, want none", ev)
	}

	time.Sleep(30 * time.Millisecond)
	if ev := tr.Update(true); ev != EventSpeechStarted {
		t.Fatalf("Update(true) after debounce = %s, want %s", ev, EventSpeechStarted)
	}
	if !tr.State().Speaking {
		t.Error("State().Speaking = false after start edge")
	}

	// the edge fires only once per segment
	if ev := tr.Update(true); ev != EventNone {
		t.Errorf("repeated Update(true) = %s, want none", ev)
	}
}

func TestTracker_SpeechEndAfterSilence(t *testing.T) {
	tr := NewTracker(trackerConfig())

	tr.Update(true)
	time.Sleep(30 * time.Millisecond)
	if ev := tr.Update(true); ev != EventSpeechStarted {
		t.Fatalf("expected start edge, got %s", ev)
	}

	// silence begins; the end edge waits for the threshold
	if ev := tr.Update(false); ev != EventNone {
		t.Fatalf("first Update(false) = %s, want none", ev)
	}
	time.Sleep(40 * time.Millisecond)
	if ev := tr.Update(false); ev != EventSpeechEnded {
		t.Fatalf("Update(false) after threshold = %s, want %s", ev, EventSpeechEnded)
	}
	if tr.State().Speaking {
		t.Error("State().Speaking = true after end edge")
	}
}

func TestTracker_ShortBlipIgnored(t *testing.T) {
	tr := NewTracker(trackerConfig())

	// a single speech frame followed by silence never reaches the debounce
	tr.Update(true)
	if ev := tr.Update(false); ev != EventNone {
		t.Fatalf("Update(false) = %s, want none", ev)
	}

	time.Sleep(40 * time.Millisecond)
	if ev := tr.Update(false); ev != EventNone {
		t.Errorf("blip produced an end edge: %s", ev)
	}
}

func TestTracker_Reset(t *testing.T) {
	tr := NewTracker(trackerConfig())

	tr.Update(true)
	time.Sleep(30 * time.Millisecond)
	tr.Update(true)
	tr.Reset()

	if tr.State().Speaking {
		t.Error("State().Speaking = true after Reset()")
	}

	// a fresh segment needs the debounce again
	if ev := tr.Update(true); ev != EventNone {
		t.Errorf("Update(true) after Reset() = %s, want none", ev)
	}
}

func TestTracker_SetSilenceDuration(t *testing.T) {
	tr := NewTracker(trackerConfig())
	tr.SetSilenceDuration(5 * time.Millisecond)

	tr.Update(true)
	time.Sleep(30 * time.Millisecond)
	tr.Update(true)

	tr.Update(false)
	time.Sleep(10 * time.Millisecond)
	if ev := tr.Update(false); ev != EventSpeechEnded {
		t.Errorf("Update(false) with shortened threshold = %s, want %s", ev, EventSpeechEnded)
	}
}
