package capture

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/naeemakhtar23/voiceagent/pkg/core/fault"
)

func TestFailureKind_UserVisible(t *testing.T) {
	visible := []FailureKind{
		FailureNoInputDevice,
		FailurePermissionDenied,
		FailureNetworkUnavailable,
		FailureNoSpeech,
		FailureUnclear,
		FailureServiceDown,
	}
	for _, k := range visible {
		if !k.UserVisible() {
			t.Errorf("%s.UserVisible() = false, want true", k)
		}
		if k.UserMessage() == "" {
			t.Errorf("%s.UserMessage() is empty, want an actionable message", k)
		}
	}

	if FailureAborted.UserVisible() {
		t.Error("FailureAborted.UserVisible() = true, want false")
	}
	if FailureAborted.UserMessage() != "" {
		t.Errorf("FailureAborted.UserMessage() = %q, want empty", FailureAborted.UserMessage())
	}
}

func TestFailureKind_Recoverable(t *testing.T) {
	tests := []struct {
		kind FailureKind
		want bool
	}{
		{FailureNoSpeech, true},
		{FailureUnclear, true},
		{FailureNoInputDevice, false},
		{FailurePermissionDenied, false},
		{FailureNetworkUnavailable, false},
		{FailureServiceDown, false},
		{FailureAborted, false},
	}

	for _, tt := range tests {
		if got := tt.kind.Recoverable(); got != tt.want {
			t.Errorf("%s.Recoverable() = %v, want %v", tt.kind, got, tt.want)
		}
	}
}

func TestFailureKind_FaultCode(t *testing.T) {
	tests := []struct {
		kind FailureKind
		want fault.Code
	}{
		{FailureNoInputDevice, fault.CodeAudioDevice},
		{FailurePermissionDenied, fault.CodePermissionDenied},
		{FailureNetworkUnavailable, fault.CodeNetworkError},
		{FailureServiceDown, fault.CodeServiceUnavailable},
		{FailureNoSpeech, fault.CodeInvalidInput},
		{FailureUnclear, fault.CodeInvalidInput},
	}

	for _, tt := range tests {
		if got := tt.kind.FaultCode(); got != tt.want {
			t.Errorf("%s.FaultCode() = %s, want %s", tt.kind, got, tt.want)
		}
	}
}

func TestFailureFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureKind
	}{
		{
			name: "audio device code",
			err:  fault.New("device open failed").WithCode(fault.CodeAudioDevice),
			want: FailureNoInputDevice,
		},
		{
			name: "device busy code",
			err:  fault.New("device busy").WithCode(fault.CodeAudioBusy),
			want: FailureNoInputDevice,
		},
		{
			name: "permission code",
			err:  fault.New("access refused").WithCode(fault.CodePermissionDenied),
			want: FailurePermissionDenied,
		},
		{
			name: "network code",
			err:  fault.New("connection lost").WithCode(fault.CodeNetworkError),
			want: FailureNetworkUnavailable,
		},
		{
			name: "recognizer code",
			err:  fault.New("stream rejected").WithCode(fault.CodeRecognizer),
			want: FailureServiceDown,
		},
		{
			name: "wrapped fault code",
			err:  fault.Wrap(fault.New("dial failed").WithCode(fault.CodeNetworkError), "starting stream"),
			want: FailureNetworkUnavailable,
		},
		{
			name: "net op error",
			err:  &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")},
			want: FailureNetworkUnavailable,
		},
		{
			name: "context cancelled",
			err:  context.Canceled,
			want: FailureAborted,
		},
		{
			name: "plain error",
			err:  errors.New("something broke"),
			want: FailureServiceDown,
		},
		{
			name: "nil",
			err:  nil,
			want: FailureServiceDown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FailureFromError(tt.err); got != tt.want {
				t.Errorf("FailureFromError(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}
