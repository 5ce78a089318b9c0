// ============================================================================
// VoiceAgent - Automated Voice Survey Platform
// ============================================================================
//
// Package:     recognizer
// Description: Tests for the Deepgram streaming client
// Author:      Naeem Akhtar
// Created:     2026-08-13
// License:     MIT
// ============================================================================

package recognizer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/naeemakhtar23/voiceagent/pkg/core/fault"
)

// newWSServer starts a test server that upgrades and hands the
// connection to the handler
func newWSServer(t *testing.T, handler func(*websocket.Conn)) (*httptest.Server, string) {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		handler(conn)
	}))

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	return srv, wsURL
}

// collect reads events until the channel closes or the deadline passes
func collect(t *testing.T, events <-chan Event, deadline time.Duration) []Event {
	t.Helper()

	var got []Event
	timer := time.NewTimer(deadline)
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return got
			}
			got = append(got, ev)
		case <-timer.C:
			return got
		}
	}
}

func TestDeepgram_StreamEvents(t *testing.T) {
	frames := []string{
		`{"type":"SpeechStarted"}`,
		`{"type":"Results","is_final":false,"channel":{"alternatives":[{"transcript":"yes I","confidence":0.62}]}}`,
		`{"type":"Results","is_final":true,"speech_final":true,"channel":{"alternatives":[{"transcript":"yes I would","confidence":0.94}]}}`,
		`{"type":"UtteranceEnd"}`,
		`{"type":"Metadata"}`,
	}

	srv, wsURL := newWSServer(t, func(conn *websocket.Conn) {
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		// keep the socket open until the client hangs up
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer srv.Close()

	dg := NewDeepgram(DeepgramConfig{URL: wsURL, APIKey: "test-key"})
	stream, err := dg.Open(context.Background(), StreamConfig{
		SampleRate:     16000,
		Channels:       1,
		InterimResults: true,
		VADEvents:      true,
	})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer stream.Close()

	var got []Event
	deadline := time.After(2 * time.Second)
	for len(got) < 4 {
		select {
		case ev := <-stream.Events():
			got = append(got, ev)
		case <-deadline:
			t.Fatalf("timed out after %d events", len(got))
		}
	}

	if got[0].Type != EventSpeechStarted {
		t.Errorf("event 0 = %v, want speech-started", got[0].Type)
	}
	if got[1].Type != EventTranscript || got[1].IsFinal {
		t.Errorf("event 1 = %+v, want interim transcript", got[1])
	}
	if got[1].Text != "yes I" || got[1].Confidence != 0.62 {
		t.Errorf("interim = %q conf %v", got[1].Text, got[1].Confidence)
	}
	if got[2].Type != EventTranscript || !got[2].IsFinal {
		t.Errorf("event 2 = %+v, want final transcript", got[2])
	}
	if got[2].Text != "yes I would" {
		t.Errorf("final text = %q", got[2].Text)
	}
	if got[3].Type != EventUtteranceEnd {
		t.Errorf("event 3 = %v, want utterance-end", got[3].Type)
	}
}

func TestDeepgram_EmptyTranscriptsSkipped(t *testing.T) {
	srv, wsURL := newWSServer(t, func(conn *websocket.Conn) {
		empty := `{"type":"Results","is_final":false,"channel":{"alternatives":[{"transcript":"","confidence":0}]}}`
		real := `{"type":"Results","is_final":false,"channel":{"alternatives":[{"transcript":"hello","confidence":0.8}]}}`
		conn.WriteMessage(websocket.TextMessage, []byte(empty))
		conn.WriteMessage(websocket.TextMessage, []byte(empty))
		conn.WriteMessage(websocket.TextMessage, []byte(real))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer srv.Close()

	dg := NewDeepgram(DeepgramConfig{URL: wsURL, APIKey: "test-key"})
	stream, err := dg.Open(context.Background(), StreamConfig{SampleRate: 16000})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer stream.Close()

	select {
	case ev := <-stream.Events():
		if ev.Type != EventTranscript || ev.Text != "hello" {
			t.Errorf("first event = %+v, want transcript %q", ev, "hello")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event arrived")
	}
}

func TestDeepgram_QueryAndAuth(t *testing.T) {
	checked := make(chan error, 1)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var problems []string
		if q.Get("encoding") != "linear16" {
			problems = append(problems, "encoding="+q.Get("encoding"))
		}
		if q.Get("sample_rate") != "16000" {
			problems = append(problems, "sample_rate="+q.Get("sample_rate"))
		}
		if q.Get("channels") != "1" {
			problems = append(problems, "channels="+q.Get("channels"))
		}
		if q.Get("model") != "nova-2" {
			problems = append(problems, "model="+q.Get("model"))
		}
		if q.Get("interim_results") != "true" {
			problems = append(problems, "interim_results="+q.Get("interim_results"))
		}
		if q.Get("vad_events") != "true" {
			problems = append(problems, "vad_events="+q.Get("vad_events"))
		}
		if q.Get("punctuate") != "true" {
			problems = append(problems, "punctuate="+q.Get("punctuate"))
		}
		if got := r.Header.Get("Authorization"); got != "Token secret-key" {
			problems = append(problems, "auth="+got)
		}
		if len(problems) > 0 {
			checked <- fault.Newf("bad request: %s", strings.Join(problems, ", "))
		} else {
			checked <- nil
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	dg := NewDeepgram(DeepgramConfig{URL: wsURL, APIKey: "secret-key"})
	stream, err := dg.Open(context.Background(), StreamConfig{
		SampleRate:     16000,
		Channels:       1,
		Language:       "en",
		InterimResults: true,
		VADEvents:      true,
	})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer stream.Close()

	if err := <-checked; err != nil {
		t.Error(err)
	}
}

func TestDeepgram_SendDeliversAudio(t *testing.T) {
	audio := make(chan []byte, 1)

	srv, wsURL := newWSServer(t, func(conn *websocket.Conn) {
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if mt == websocket.BinaryMessage {
				audio <- data
				return
			}
		}
	})
	defer srv.Close()

	dg := NewDeepgram(DeepgramConfig{URL: wsURL, APIKey: "test-key"})
	stream, err := dg.Open(context.Background(), StreamConfig{SampleRate: 16000})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer stream.Close()

	pcm := []byte{0x01, 0x02, 0x03, 0x04}
	if err := stream.Send(pcm); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	select {
	case got := <-audio:
		if string(got) != string(pcm) {
			t.Errorf("server received % x, want % x", got, pcm)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("audio never arrived")
	}
}

func TestDeepgram_ControlMessages(t *testing.T) {
	controls := make(chan string, 4)

	srv, wsURL := newWSServer(t, func(conn *websocket.Conn) {
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if mt != websocket.TextMessage {
				continue
			}
			var ctl struct {
				Type string `json:"type"`
			}
			if json.Unmarshal(data, &ctl) == nil {
				controls <- ctl.Type
			}
		}
	})
	defer srv.Close()

	dg := NewDeepgram(DeepgramConfig{URL: wsURL, APIKey: "test-key"})
	stream, err := dg.Open(context.Background(), StreamConfig{SampleRate: 16000})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if err := stream.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if got := waitControl(t, controls); got != "Finalize" {
		t.Errorf("Flush sent %q, want Finalize", got)
	}

	if err := stream.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if got := waitControl(t, controls); got != "CloseStream" {
		t.Errorf("Close sent %q, want CloseStream", got)
	}
}

func waitControl(t *testing.T, controls <-chan string) string {
	t.Helper()
	select {
	case c := <-controls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("no control message arrived")
		return ""
	}
}

func TestDeepgram_MissingAPIKey(t *testing.T) {
	dg := NewDeepgram(DeepgramConfig{})
	_, err := dg.Open(context.Background(), StreamConfig{SampleRate: 16000})
	if err == nil {
		t.Fatal("Open succeeded without an API key")
	}
	if !fault.IsCode(err, fault.CodeInvalidConfig) {
		t.Errorf("error code = %v, want invalid config", fault.CodeOf(err))
	}
}

func TestDeepgram_RejectedHandshake(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	dg := NewDeepgram(DeepgramConfig{URL: wsURL, APIKey: "bad-key"})
	_, err := dg.Open(context.Background(), StreamConfig{SampleRate: 16000})
	if err == nil {
		t.Fatal("Open succeeded against a rejecting server")
	}
	if !fault.IsCode(err, fault.CodeServiceUnavailable) {
		t.Errorf("error code = %v, want service unavailable", fault.CodeOf(err))
	}
}

func TestDeepgram_ServerDropEmitsError(t *testing.T) {
	srv, wsURL := newWSServer(t, func(conn *websocket.Conn) {
		// drop the connection immediately
	})
	defer srv.Close()

	dg := NewDeepgram(DeepgramConfig{URL: wsURL, APIKey: "test-key"})
	stream, err := dg.Open(context.Background(), StreamConfig{SampleRate: 16000})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer stream.Close()

	got := collect(t, stream.Events(), 2*time.Second)
	if len(got) < 2 {
		t.Fatalf("got %d events, want error then closed", len(got))
	}
	if got[0].Type != EventError || got[0].Err == nil {
		t.Errorf("event 0 = %+v, want error event", got[0])
	}
	if got[len(got)-1].Type != EventClosed {
		t.Errorf("last event = %v, want closed", got[len(got)-1].Type)
	}
}

func TestDeepgram_CloseIsQuiet(t *testing.T) {
	srv, wsURL := newWSServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer srv.Close()

	dg := NewDeepgram(DeepgramConfig{URL: wsURL, APIKey: "test-key"})
	stream, err := dg.Open(context.Background(), StreamConfig{SampleRate: 16000})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := stream.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	got := collect(t, stream.Events(), time.Second)
	for _, ev := range got {
		if ev.Type == EventError {
			t.Errorf("deliberate close produced error event: %v", ev.Err)
		}
	}
}
