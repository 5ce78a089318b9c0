package capture

import "testing"

func TestReadySource_String(t *testing.T) {
	tests := []struct {
		source ReadySource
		want   string
	}{
		{ReadyExplicit, "explicit"},
		{ReadySound, "sound"},
		{ReadyFallback, "fallback"},
		{ReadySource(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.source.String(); got != tt.want {
			t.Errorf("ReadySource(%d).String() = %q, want %q", tt.source, got, tt.want)
		}
	}
}

func TestReadyRace_FirstOfferWins(t *testing.T) {
	var r readyRace

	if r.Won() {
		t.Fatal("race won before any offer")
	}

	if !r.Offer(ReadySound) {
		t.Error("first Offer() = false, want true")
	}
	if !r.Won() {
		t.Error("Won() = false after first offer")
	}
	if r.Source() != ReadySound {
		t.Errorf("Source() = %s, want %s", r.Source(), ReadySound)
	}
	if r.At().IsZero() {
		t.Error("At() is zero after winning offer")
	}

	if r.Offer(ReadyExplicit) {
		t.Error("second Offer() = true, want false")
	}
	if r.Source() != ReadySound {
		t.Errorf("Source() changed to %s after losing offer, want %s", r.Source(), ReadySound)
	}
}

func TestReadyRace_EachSourceCanWin(t *testing.T) {
	for _, source := range []ReadySource{ReadyExplicit, ReadySound, ReadyFallback} {
		var r readyRace
		if !r.Offer(source) {
			t.Errorf("Offer(%s) = false on fresh race, want true", source)
		}
		if r.Source() != source {
			t.Errorf("Source() = %s, want %s", r.Source(), source)
		}
	}
}
