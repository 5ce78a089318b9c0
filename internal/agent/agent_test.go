// ============================================================================
// VoiceAgent - Automated Voice Survey Platform
// ============================================================================
//
// Package:     agent
// Description: ElevenLabs client tests
// Author:      Naeem Akhtar
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/naeemakhtar23/voiceagent/pkg/core/fault"
)

func newAgentServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{
		APIKey:  "test-key",
		AgentID: "agent-1",
		BaseURL: srv.URL,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return srv, c
}

func TestClient_InitiateCall(t *testing.T) {
	var got callRequest
	_, c := newAgentServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/voice-agent/calls" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("xi-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{"call_id": "el-call-42"})
	})

	questions := []string{"Do you have health insurance?", "Are you feeling well?"}
	id, err := c.InitiateCall(context.Background(), 7, "+15551234567", questions,
		"https://example.com/api/v1/agent/webhook")
	if err != nil {
		t.Fatalf("InitiateCall: %v", err)
	}
	if id != "el-call-42" {
		t.Errorf("id = %q, want el-call-42", id)
	}

	if got.AgentID != "agent-1" {
		t.Errorf("agent_id = %q", got.AgentID)
	}
	if got.PhoneNumber != "+15551234567" {
		t.Errorf("phone_number = %q", got.PhoneNumber)
	}
	if got.Metadata["call_id"] != "7" {
		t.Errorf("metadata call_id = %q, want 7", got.Metadata["call_id"])
	}
	if !strings.Contains(got.Context, "Question 1: Do you have health insurance?") {
		t.Errorf("context missing question: %s", got.Context)
	}
	if !strings.Contains(got.Context, "Question 2: Are you feeling well?") {
		t.Errorf("context missing question: %s", got.Context)
	}
	if !strings.Contains(got.Context, "yes/no answers") {
		t.Errorf("context missing instructions: %s", got.Context)
	}
}

func TestClient_InitiateCallNativeTwilio(t *testing.T) {
	var got twilioCallRequest
	srv := httptest.NewServer(func() http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v1/convai/twilio/outbound-call" {
				t.Errorf("path = %s", r.URL.Path)
			}
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Errorf("decoding request: %v", err)
			}
			json.NewEncoder(w).Encode(map[string]string{"call_id": "el-call-9"})
		}
	}())
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{
		APIKey:        "test-key",
		AgentID:       "agent-1",
		BaseURL:       srv.URL,
		PhoneNumberID: "phnum_abc",
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	id, err := c.InitiateCall(context.Background(), 7, "+15551234567",
		[]string{"Do you have health insurance?"}, "https://example.com/hook")
	if err != nil {
		t.Fatalf("InitiateCall: %v", err)
	}
	if id != "el-call-9" {
		t.Errorf("id = %q, want el-call-9", id)
	}

	if got.AgentPhoneNumberID != "phnum_abc" {
		t.Errorf("agent_phone_number_id = %q", got.AgentPhoneNumberID)
	}
	if got.ToNumber != "+15551234567" {
		t.Errorf("to_number = %q", got.ToNumber)
	}
	ctx, _ := got.InitiationData["context"].(string)
	if !strings.Contains(ctx, "Do you have health insurance?") {
		t.Errorf("initiation data missing question: %v", got.InitiationData)
	}
}

func TestClient_InitiateCallIDFallbacks(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"id field", `{"id": "alt-9"}`, "alt-9"},
		{"empty response", `{}`, "7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c := newAgentServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			id, err := c.InitiateCall(context.Background(), 7, "+15551234567",
				[]string{"Q"}, "https://example.com/hook")
			if err != nil {
				t.Fatalf("InitiateCall: %v", err)
			}
			if id != tt.want {
				t.Errorf("id = %q, want %q", id, tt.want)
			}
		})
	}
}

func TestClient_InitiateCallAPIError(t *testing.T) {
	_, c := newAgentServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail": "agent not found"}`, http.StatusUnprocessableEntity)
	})

	_, err := c.InitiateCall(context.Background(), 7, "+15551234567",
		[]string{"Q"}, "https://example.com/hook")
	if !fault.IsCode(err, fault.CodeExternalService) {
		t.Errorf("err = %v, want external-service fault", err)
	}
}

func TestClient_ConfigValidation(t *testing.T) {
	if _, err := NewClient(Config{AgentID: "a"}); !fault.IsCode(err, fault.CodeMissingConfig) {
		t.Errorf("missing api key: err = %v", err)
	}
	if _, err := NewClient(Config{APIKey: "k"}); !fault.IsCode(err, fault.CodeMissingConfig) {
		t.Errorf("missing agent id: err = %v", err)
	}
}
