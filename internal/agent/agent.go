// ============================================================================
// VoiceAgent - Automated Voice Survey Platform
// ============================================================================
//
// Package:     agent
// Description: ElevenLabs voice agent call integration
// Author:      Naeem Akhtar
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/naeemakhtar23/voiceagent/pkg/core/fault"
	"github.com/naeemakhtar23/voiceagent/pkg/core/logging"
)

// DefaultBaseURL is the ElevenLabs API root
const DefaultBaseURL = "https://api.elevenlabs.io"

const requestTimeout = 30 * time.Second

// Config holds ElevenLabs voice agent credentials. PhoneNumberID is
// the id of a phone number imported into the agent platform; when set,
// calls go out through the native Twilio outbound endpoint.
type Config struct {
	APIKey        string
	AgentID       string
	BaseURL       string
	PhoneNumberID string
}

// Validate checks that the agent configuration is complete
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fault.New("elevenlabs api key is required").
			WithCode(fault.CodeMissingConfig)
	}
	if c.AgentID == "" {
		return fault.New("elevenlabs agent id is required").
			WithCode(fault.CodeMissingConfig)
	}
	return nil
}

// Client drives survey calls through an ElevenLabs conversational agent.
// Unlike the TwiML flow, the agent runs the conversation itself; we hand
// it the questions as context and collect answers from its webhooks.
type Client struct {
	cfg  Config
	http *http.Client
	log  *logging.Logger
}

// NewClient creates an ElevenLabs agent client
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: requestTimeout},
		log:  logging.New("agent"),
	}, nil
}

// callRequest is the outbound call payload for the voice-agent API
type callRequest struct {
	AgentID     string            `json:"agent_id"`
	PhoneNumber string            `json:"phone_number"`
	Context     string            `json:"context"`
	WebhookURL  string            `json:"webhook_url"`
	Metadata    map[string]string `json:"metadata"`
}

// twilioCallRequest is the payload for the native Twilio outbound
// endpoint
type twilioCallRequest struct {
	AgentID            string                 `json:"agent_id"`
	AgentPhoneNumberID string                 `json:"agent_phone_number_id"`
	ToNumber           string                 `json:"to_number"`
	InitiationData     map[string]interface{} `json:"conversation_initiation_client_data,omitempty"`
}

// callResponse covers the id field variants the API has used
type callResponse struct {
	CallID string `json:"call_id"`
	ID     string `json:"id"`
}

// InitiateCall asks the agent to place a survey call. webhookURL is
// where the agent posts its events. The returned id is the provider's
// call id, falling back to our own when the response omits one.
//
// The native Twilio endpoint needs the imported phone number id;
// without one the older voice-agent calls API is used.
func (c *Client) InitiateCall(ctx context.Context, callID int64, to string, questions []string, webhookURL string) (string, error) {
	var url string
	var payload interface{}

	if c.cfg.PhoneNumberID != "" {
		url = c.cfg.BaseURL + "/v1/convai/twilio/outbound-call"
		payload = twilioCallRequest{
			AgentID:            c.cfg.AgentID,
			AgentPhoneNumberID: c.cfg.PhoneNumberID,
			ToNumber:           to,
			InitiationData: map[string]interface{}{
				"context":     conversationContext(questions),
				"webhook_url": webhookURL,
				"metadata": map[string]string{
					"call_id": strconv.FormatInt(callID, 10),
				},
			},
		}
	} else {
		url = c.cfg.BaseURL + "/v1/voice-agent/calls"
		payload = callRequest{
			AgentID:     c.cfg.AgentID,
			PhoneNumber: to,
			Context:     conversationContext(questions),
			WebhookURL:  webhookURL,
			Metadata: map[string]string{
				"call_id": strconv.FormatInt(callID, 10),
			},
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fault.Wrap(err, "encoding call request").
			WithCode(fault.CodeInternal)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fault.Wrap(err, "building call request").
			WithCode(fault.CodeInternal)
	}
	req.Header.Set("xi-api-key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fault.Wrap(err, "calling elevenlabs").
			WithCode(fault.CodeNetworkError)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fault.Newf("elevenlabs returned %s", resp.Status).
			WithCode(fault.CodeExternalService).
			WithDetail("body", string(snippet))
	}

	var result callResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fault.Wrap(err, "decoding call response").
			WithCode(fault.CodeExternalService)
	}

	id := result.CallID
	if id == "" {
		id = result.ID
	}
	if id == "" {
		id = strconv.FormatInt(callID, 10)
	}

	c.log.Info("Agent call initiated", "callID", callID, "to", to, "providerID", id)
	return id, nil
}

// conversationContext formats the survey questions as agent instructions
func conversationContext(questions []string) string {
	var b strings.Builder
	b.WriteString("You are conducting a survey call. Ask the following questions one by one and wait for yes/no answers:\n\n")
	for i, q := range questions {
		fmt.Fprintf(&b, "Question %d: %s\n", i+1, q)
	}
	b.WriteString("\nAfter each answer, acknowledge it and move to the next question. When all questions are answered, thank the caller and end the call.")
	return b.String()
}
