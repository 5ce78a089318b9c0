// ============================================================================
// VoiceAgent - Automated Voice Survey Platform
// ============================================================================
//
// Package:     recognizer
// Description: Deepgram streaming recognition client
// Author:      Naeem Akhtar
// Created:     2026-08-13
// License:     MIT
// ============================================================================

package recognizer

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/naeemakhtar23/voiceagent/pkg/core/fault"
	"github.com/naeemakhtar23/voiceagent/pkg/core/logging"
)

const (
	// DefaultDeepgramURL is the Deepgram streaming endpoint
	DefaultDeepgramURL = "wss://api.deepgram.com/v1/listen"

	// DefaultModel is used when no model is configured
	DefaultModel = "nova-2"

	// keepAliveInterval keeps the socket open during silence. Deepgram
	// drops streams that stay quiet for more than ten seconds.
	keepAliveInterval = 5 * time.Second

	// eventBuffer is the event channel capacity per stream
	eventBuffer = 32
)

// DeepgramConfig holds the Deepgram connection settings
type DeepgramConfig struct {
	// URL is the streaming endpoint, empty for the public API
	URL string

	// APIKey authenticates the connection
	APIKey string

	// Model is the default model for streams that do not pick one
	Model string

	// Language is the default language hint
	Language string
}

// Deepgram is a Recognizer backed by the Deepgram streaming API
type Deepgram struct {
	cfg DeepgramConfig
	log *logging.Logger
}

// NewDeepgram creates a Deepgram recognizer
func NewDeepgram(cfg DeepgramConfig) *Deepgram {
	if cfg.URL == "" {
		cfg.URL = DefaultDeepgramURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	return &Deepgram{
		cfg: cfg,
		log: logging.New("recognizer"),
	}
}

// Name identifies the engine
func (d *Deepgram) Name() string {
	return "deepgram"
}

// Open dials the streaming endpoint and starts the read loop
func (d *Deepgram) Open(ctx context.Context, sc StreamConfig) (Stream, error) {
	if d.cfg.APIKey == "" {
		return nil, fault.New("recognizer API key is not configured").
			WithCode(fault.CodeInvalidConfig)
	}

	endpoint, err := streamURL(d.cfg, sc)
	if err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	header := http.Header{}
	header.Set("Authorization", "Token "+d.cfg.APIKey)

	d.log.Debug("Connecting to recognition service", "url", redactedURL(endpoint))
	conn, resp, err := dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		code := fault.CodeNetworkError
		if resp != nil && resp.StatusCode >= 400 {
			code = fault.CodeServiceUnavailable
		}
		return nil, fault.Wrap(err, "connecting to recognition service").WithCode(code)
	}

	s := &deepgramStream{
		conn:   conn,
		events: make(chan Event, eventBuffer),
		done:   make(chan struct{}),
		log:    d.log,
	}
	go s.readLoop()
	go s.keepAlive()

	d.log.Info("Recognition stream opened",
		"model", pick(sc.Model, d.cfg.Model),
		"sample_rate", sc.SampleRate)
	return s, nil
}

// streamURL builds the endpoint URL with the stream parameters
func streamURL(cfg DeepgramConfig, sc StreamConfig) (string, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return "", fault.Wrap(err, "parsing recognizer URL").
			WithCode(fault.CodeInvalidConfig)
	}

	q := u.Query()
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(sc.SampleRate))
	q.Set("channels", strconv.Itoa(max(sc.Channels, 1)))
	q.Set("model", pick(sc.Model, cfg.Model))
	q.Set("language", pick(sc.Language, cfg.Language))
	q.Set("punctuate", "true")
	if sc.InterimResults {
		q.Set("interim_results", "true")
	}
	if sc.VADEvents {
		q.Set("vad_events", "true")
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// pick returns the first non-empty value
func pick(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// redactedURL strips the query string for logging
func redactedURL(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}
	u.RawQuery = ""
	return u.String()
}

// deepgramStream is one live connection to the streaming API
type deepgramStream struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool

	events chan Event
	done   chan struct{}
	stop   sync.Once

	log *logging.Logger
}

// deepgramMessage is the wire format of server messages
type deepgramMessage struct {
	Type        string `json:"type"`
	IsFinal     bool   `json:"is_final"`
	SpeechFinal bool   `json:"speech_final"`
	Channel     struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"channel"`
}

// control messages sent to the service
type deepgramControl struct {
	Type string `json:"type"`
}

// Send writes one chunk of PCM audio to the service
func (s *deepgramStream) Send(pcm []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fault.New("recognition stream is closed").
			WithCode(fault.CodeRecognizer)
	}
	if err := s.conn.WriteMessage(websocket.BinaryMessage, pcm); err != nil {
		return fault.Wrap(err, "sending audio").WithCode(fault.CodeNetworkError)
	}
	return nil
}

// Flush asks the service to finalize held results without closing
func (s *deepgramStream) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	if err := s.conn.WriteJSON(deepgramControl{Type: "Finalize"}); err != nil {
		return fault.Wrap(err, "flushing recognition stream").
			WithCode(fault.CodeNetworkError)
	}
	return nil
}

// Events returns the event channel
func (s *deepgramStream) Events() <-chan Event {
	return s.events
}

// Close ends the stream. The service is told to finalize first so a
// trailing transcript can still arrive before the socket drops.
func (s *deepgramStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	_ = s.conn.WriteJSON(deepgramControl{Type: "CloseStream"})
	err := s.conn.Close()
	s.mu.Unlock()

	s.stop.Do(func() { close(s.done) })
	return err
}

// readLoop turns server messages into events until the socket ends
func (s *deepgramStream) readLoop() {
	defer func() {
		s.stop.Do(func() { close(s.done) })
		close(s.events)
	}()

	for {
		var msg deepgramMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()

			if !closed {
				s.events <- Event{
					Type: EventError,
					Err: fault.Wrap(err, "reading recognition stream").
						WithCode(fault.CodeRecognizer),
				}
			}
			s.events <- Event{Type: EventClosed}
			return
		}

		switch msg.Type {
		case "Results":
			if len(msg.Channel.Alternatives) == 0 {
				continue
			}
			alt := msg.Channel.Alternatives[0]
			if alt.Transcript == "" {
				continue
			}
			s.events <- Event{
				Type:       EventTranscript,
				Text:       alt.Transcript,
				Confidence: alt.Confidence,
				IsFinal:    msg.IsFinal || msg.SpeechFinal,
			}
		case "SpeechStarted":
			s.events <- Event{Type: EventSpeechStarted}
		case "UtteranceEnd":
			s.events <- Event{Type: EventUtteranceEnd}
		case "Metadata":
			// sent once at stream end, nothing to forward
		default:
			s.log.Debug("Ignoring unknown stream message", "type", msg.Type)
		}
	}
}

// keepAlive pings the service during silence so it keeps the stream open
func (s *deepgramStream) keepAlive() {
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.closed {
				s.mu.Unlock()
				return
			}
			if err := s.conn.WriteJSON(deepgramControl{Type: "KeepAlive"}); err != nil {
				s.log.Debug("Keepalive write failed", "error", err)
				s.mu.Unlock()
				return
			}
			s.mu.Unlock()
		}
	}
}
