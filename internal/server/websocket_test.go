package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialEvents(t *testing.T, tsURL, topic string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(tsURL, "http") + "/api/v1/events/" + topic
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dialing %s: %v", wsURL, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// waitForSubscriber blocks until the server side of a freshly dialed
// connection has registered; the handshake completes before that.
func waitForSubscriber(t *testing.T, hub *Hub, topic string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.Subscribers(topic) > 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("no subscriber appeared on topic %s", topic)
}

func TestHub_PublishSubscribe(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	sub := hub.subscribe("42")
	hub.Publish("42", Event{Type: "call.ringing"})
	hub.Publish("other", Event{Type: "ignored"})

	select {
	case ev := <-sub.events:
		if ev.Type != "call.ringing" {
			t.Errorf("event type = %q, want call.ringing", ev.Type)
		}
	default:
		t.Fatal("no event delivered")
	}
	select {
	case ev := <-sub.events:
		t.Fatalf("event from foreign topic: %+v", ev)
	default:
	}
}

func TestHub_SlowSubscriberDrops(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	sub := hub.subscribe("busy")
	for i := 0; i < subscriberBuffer+10; i++ {
		hub.Publish("busy", Event{Type: "tick"})
	}
	if got := len(sub.events); got != subscriberBuffer {
		t.Errorf("buffered events = %d, want %d", got, subscriberBuffer)
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	sub := hub.subscribe("7")
	if got := hub.Subscribers("7"); got != 1 {
		t.Fatalf("subscribers = %d, want 1", got)
	}
	hub.unsubscribe("7", sub)
	if got := hub.Subscribers("7"); got != 0 {
		t.Errorf("subscribers after unsubscribe = %d, want 0", got)
	}

	// Publishing to an empty topic is a no-op
	hub.Publish("7", Event{Type: "tick"})
}

func TestServer_SessionEventStream(t *testing.T) {
	srv, ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/sessions", StartSessionRequest{})
	var sess SessionResponse
	decodeJSON(t, resp, &sess)

	conn := dialEvents(t, ts.URL, sess.SessionID)
	waitForSubscriber(t, srv.hub, sess.SessionID)

	resp = postJSON(t, ts.URL+"/api/v1/sessions/"+sess.SessionID+"/answers",
		AnswerRequest{Text: "yes"})
	resp.Body.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("reading event: %v", err)
	}
	if ev.Type != "session.next" {
		t.Errorf("event type = %q, want session.next", ev.Type)
	}
	if ev.Payload == nil {
		t.Error("event carried no payload")
	}
}

func TestServer_StatusEventFirehose(t *testing.T) {
	srv, ts, st := newTestServer(t)
	ctx := context.Background()

	callID, err := st.CreateCall(ctx, "+15553334444", []string{"Can you hear me?"})
	if err != nil {
		t.Fatalf("CreateCall: %v", err)
	}
	if err := st.UpdateCallSID(ctx, callID, "CA900"); err != nil {
		t.Fatalf("UpdateCallSID: %v", err)
	}

	conn := dialEvents(t, ts.URL, "calls")
	waitForSubscriber(t, srv.hub, "calls")

	resp, err := http.PostForm(ts.URL+"/api/v1/voice/status", url.Values{
		"CallSid":    {"CA900"},
		"CallStatus": {"completed"},
	})
	if err != nil {
		t.Fatalf("POST status: %v", err)
	}
	resp.Body.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("reading event: %v", err)
	}
	if ev.Type != "call.completed" {
		t.Errorf("event type = %q, want call.completed", ev.Type)
	}
}

func TestServer_EventStreamBadTopic(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp := doRequest(t, http.MethodGet, ts.URL+"/api/v1/events/")
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty topic status = %d, want 400", resp.StatusCode)
	}
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	srv, ts, _ := newTestServer(t)

	conn := dialEvents(t, ts.URL, "55")
	waitForSubscriber(t, srv.hub, "55")

	srv.hub.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected close error after hub shutdown")
	}
}
