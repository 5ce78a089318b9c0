// ============================================================================
// VoiceAgent - Automated Voice Survey Platform
// ============================================================================
//
// Package:     telephony
// Description: Outbound call dialing through the Twilio REST API
// Author:      Naeem Akhtar
// Created:     2026-08-13
// License:     MIT
// ============================================================================

package telephony

import (
	twilio "github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/naeemakhtar23/voiceagent/pkg/core/fault"
	"github.com/naeemakhtar23/voiceagent/pkg/core/logging"
)

// Dialer places outbound calls. The production implementation talks to
// Twilio; tests and demo mode substitute their own.
type Dialer interface {
	// Dial places a call to the number and returns the provider call SID.
	// The provider fetches call instructions from flowURL and posts
	// status transitions to statusURL.
	Dial(to, flowURL, statusURL string) (string, error)
}

// Config holds Twilio account credentials and the public webhook base
type Config struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// Validate checks that the credentials are complete
func (c Config) Validate() error {
	if c.AccountSID == "" {
		return fault.New("twilio account sid is required").
			WithCode(fault.CodeMissingConfig)
	}
	if c.AuthToken == "" {
		return fault.New("twilio auth token is required").
			WithCode(fault.CodeMissingConfig)
	}
	if c.FromNumber == "" {
		return fault.New("twilio from number is required").
			WithCode(fault.CodeMissingConfig)
	}
	return nil
}

// TwilioDialer places calls through the Twilio REST API
type TwilioDialer struct {
	client *twilio.RestClient
	from   string
	log    *logging.Logger
}

// NewTwilioDialer creates a dialer for the given account
func NewTwilioDialer(cfg Config) (*TwilioDialer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})

	return &TwilioDialer{
		client: client,
		from:   cfg.FromNumber,
		log:    logging.New("telephony"),
	}, nil
}

// Dial places an outbound call
func (d *TwilioDialer) Dial(to, flowURL, statusURL string) (string, error) {
	params := &openapi.CreateCallParams{}
	params.SetTo(to)
	params.SetFrom(d.from)
	params.SetUrl(flowURL)
	params.SetMethod("POST")
	if statusURL != "" {
		params.SetStatusCallback(statusURL)
		params.SetStatusCallbackMethod("POST")
	}

	resp, err := d.client.Api.CreateCall(params)
	if err != nil {
		return "", fault.Wrap(err, "creating call").
			WithCode(fault.CodeTelephony).
			WithDetail("to", to)
	}
	if resp.Sid == nil {
		return "", fault.New("provider returned no call sid").
			WithCode(fault.CodeTelephony)
	}

	d.log.Info("Call initiated", "sid", *resp.Sid, "to", to)
	return *resp.Sid, nil
}

// ValidatePhoneNumber checks E.164 shape before dialing
func ValidatePhoneNumber(number string) error {
	if number == "" {
		return fault.New("phone number is required").
			WithCode(fault.CodeRequiredField)
	}
	if number[0] != '+' {
		return fault.New("phone number must include country code (e.g. +1234567890)").
			WithCode(fault.CodeInvalidInput)
	}
	if len(number) < 8 || len(number) > 16 {
		return fault.Newf("phone number %q has invalid length", number).
			WithCode(fault.CodeInvalidInput)
	}
	for _, r := range number[1:] {
		if r < '0' || r > '9' {
			return fault.Newf("phone number %q contains invalid characters", number).
				WithCode(fault.CodeInvalidInput)
		}
	}
	return nil
}
