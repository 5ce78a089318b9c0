// ============================================================================
// VoiceAgent - Automated Voice Survey Platform
// ============================================================================
//
// Package:     telephony
// Description: TwiML document model for voice call control
// Author:      Naeem Akhtar
// Created:     2026-08-13
// License:     MIT
// ============================================================================

package telephony

import (
	"encoding/xml"
	"fmt"
)

// VoiceAlice is the voice used for all spoken prompts
const VoiceAlice = "alice"

// TwiML is a <Response> document under construction. Verbs execute in
// document order, so the builder appends.
type TwiML struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []interface{}
}

// Say represents a TwiML <Say> element
type Say struct {
	XMLName xml.Name `xml:"Say"`
	Voice   string   `xml:"voice,attr,omitempty"`
	Text    string   `xml:",chardata"`
}

// Pause represents a TwiML <Pause> element
type Pause struct {
	XMLName xml.Name `xml:"Pause"`
	Length  float64  `xml:"length,attr,omitempty"`
}

// Gather represents a TwiML <Gather> element collecting speech or
// keypad input
type Gather struct {
	XMLName       xml.Name `xml:"Gather"`
	Input         string   `xml:"input,attr,omitempty"`
	Language      string   `xml:"language,attr,omitempty"`
	SpeechTimeout string   `xml:"speechTimeout,attr,omitempty"`
	Timeout       int      `xml:"timeout,attr,omitempty"`
	NumDigits     int      `xml:"numDigits,attr,omitempty"`
	FinishOnKey   string   `xml:"finishOnKey,attr,omitempty"`
	Action        string   `xml:"action,attr,omitempty"`
	Method        string   `xml:"method,attr,omitempty"`
	Say           *Say
}

// Redirect represents a TwiML <Redirect> element
type Redirect struct {
	XMLName xml.Name `xml:"Redirect"`
	Method  string   `xml:"method,attr,omitempty"`
	URL     string   `xml:",chardata"`
}

// Hangup represents a TwiML <Hangup> element
type Hangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// NewTwiML returns an empty response document
func NewTwiML() *TwiML {
	return &TwiML{}
}

// Say appends a spoken prompt
func (t *TwiML) Say(text string) *TwiML {
	t.Verbs = append(t.Verbs, Say{Voice: VoiceAlice, Text: text})
	return t
}

// Pause appends a pause of the given length in seconds
func (t *TwiML) Pause(seconds float64) *TwiML {
	t.Verbs = append(t.Verbs, Pause{Length: seconds})
	return t
}

// Gather appends an input collection element
func (t *TwiML) Gather(g Gather) *TwiML {
	t.Verbs = append(t.Verbs, g)
	return t
}

// Redirect appends a POST redirect to the given webhook URL
func (t *TwiML) Redirect(url string) *TwiML {
	t.Verbs = append(t.Verbs, Redirect{Method: "POST", URL: url})
	return t
}

// Hangup appends a hangup
func (t *TwiML) Hangup() *TwiML {
	t.Verbs = append(t.Verbs, Hangup{})
	return t
}

// Render serializes the document with an XML header
func (t *TwiML) Render() string {
	out, err := xml.Marshal(t)
	if err != nil {
		// Marshaling a static verb tree cannot fail; keep the call
		// alive if it somehow does.
		return xml.Header + fmt.Sprintf("<Response><Say voice=%q>An error occurred.</Say><Hangup></Hangup></Response>", VoiceAlice)
	}
	return xml.Header + string(out)
}
