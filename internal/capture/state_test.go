package capture

import "testing"

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "idle"},
		{StateStarting, "starting"},
		{StateListening, "listening"},
		{StateResolving, "resolving"},
		{StateResolved, "resolved"},
		{StateFailed, "failed"},
		{State(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state State
		want  bool
	}{
		{StateIdle, false},
		{StateStarting, false},
		{StateListening, false},
		{StateResolving, false},
		{StateResolved, true},
		{StateFailed, true},
	}

	for _, tt := range tests {
		if got := tt.state.IsTerminal(); got != tt.want {
			t.Errorf("%s.IsTerminal() = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestState_Icon(t *testing.T) {
	for _, s := range []State{StateIdle, StateStarting, StateListening, StateResolving, StateResolved, StateFailed} {
		if s.Icon() == "" || s.Icon() == "?" {
			t.Errorf("%s.Icon() = %q, want a distinct icon", s, s.Icon())
		}
	}
}

func TestIsValidTransition(t *testing.T) {
	tests := []struct {
		name string
		from State
		to   State
		want bool
	}{
		{"idle to starting", StateIdle, StateStarting, true},
		{"idle to failed", StateIdle, StateFailed, true},
		{"idle to listening skips starting", StateIdle, StateListening, false},
		{"starting to listening", StateStarting, StateListening, true},
		{"starting to failed", StateStarting, StateFailed, true},
		{"starting to resolved skips resolving", StateStarting, StateResolved, false},
		{"listening to resolving", StateListening, StateResolving, true},
		{"listening to failed", StateListening, StateFailed, true},
		{"listening back to starting", StateListening, StateStarting, false},
		{"resolving to resolved", StateResolving, StateResolved, true},
		{"resolving to failed", StateResolving, StateFailed, true},
		{"resolved is terminal", StateResolved, StateIdle, false},
		{"resolved cannot fail", StateResolved, StateFailed, false},
		{"failed is terminal", StateFailed, StateIdle, false},
		{"failed cannot resolve", StateFailed, StateResolved, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isValidTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("isValidTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}
