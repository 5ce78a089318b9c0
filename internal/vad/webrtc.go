// ============================================================================
// VoiceAgent - Automated Voice Survey Platform
// ============================================================================
//
// Package:     vad
// Description: WebRTC VAD implementation
// Author:      Naeem Akhtar
// Created:     2026-08-13
// License:     MIT
// ============================================================================

package vad

import (
	webrtcvad "github.com/maxhawkins/go-webrtcvad"

	"github.com/naeemakhtar23/voiceagent/pkg/core/fault"
)

// WebRTCVAD detects voice activity using the WebRTC VAD
type WebRTCVAD struct {
	vad        *webrtcvad.VAD
	sampleRate int
	mode       int
}

// NewWebRTCVAD creates a WebRTC VAD instance
func NewWebRTCVAD(cfg Config) (*WebRTCVAD, error) {
	v, err := webrtcvad.New()
	if err != nil {
		return nil, fault.Wrap(err, "creating WebRTC VAD").WithCode(fault.CodeAudioDevice)
	}

	mode := cfg.Mode
	if mode < 0 {
		mode = 0
	}
	if mode > 3 {
		mode = 3
	}
	if err := v.SetMode(mode); err != nil {
		return nil, fault.Wrap(err, "setting VAD mode").WithCode(fault.CodeInvalidConfig)
	}

	switch cfg.SampleRate {
	case 8000, 16000, 32000, 48000:
	default:
		return nil, fault.Newf("invalid VAD sample rate %d, must be 8000, 16000, 32000 or 48000", cfg.SampleRate).
			WithCode(fault.CodeInvalidConfig)
	}

	return &WebRTCVAD{
		vad:        v,
		sampleRate: cfg.SampleRate,
		mode:       mode,
	}, nil
}

// Process processes float32 samples and reports whether speech is present
func (w *WebRTCVAD) Process(samples []float32) (bool, error) {
	pcm := make([]int16, len(samples))
	for i, s := range samples {
		if s > 1.0 {
			s = 1.0
		}
		if s < -1.0 {
			s = -1.0
		}
		pcm[i] = int16(s * 32767)
	}
	return w.ProcessInt16(pcm)
}

// ProcessInt16 processes 16-bit samples in 10ms frames and reports speech
// if any frame is active. Short inputs are zero-padded to one frame.
func (w *WebRTCVAD) ProcessInt16(samples []int16) (bool, error) {
	frameSize := w.sampleRate / 100 // 10ms

	if len(samples) < frameSize {
		padded := make([]int16, frameSize)
		copy(padded, samples)
		samples = padded
	}

	for i := 0; i+frameSize <= len(samples); i += frameSize {
		frame := pcmFrameBytes(samples[i : i+frameSize])

		active, err := w.vad.Process(w.sampleRate, frame)
		if err != nil {
			return false, fault.Wrap(err, "VAD processing").WithCode(fault.CodeInternal)
		}
		if active {
			return true, nil
		}
	}

	return false, nil
}

// pcmFrameBytes converts int16 samples to little-endian bytes
func pcmFrameBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		out[i*2] = byte(s)
		out[i*2+1] = byte(s >> 8)
	}
	return out
}

// Close releases resources
func (w *WebRTCVAD) Close() error {
	// the WebRTC VAD has no explicit cleanup
	return nil
}

// SetMode sets the aggressiveness mode (0-3)
func (w *WebRTCVAD) SetMode(mode int) error {
	if mode < 0 || mode > 3 {
		return fault.New("VAD mode must be between 0 and 3").WithCode(fault.CodeValueOutOfRange)
	}
	if err := w.vad.SetMode(mode); err != nil {
		return fault.Wrap(err, "setting VAD mode").WithCode(fault.CodeInternal)
	}
	w.mode = mode
	return nil
}

// Mode returns the current aggressiveness mode
func (w *WebRTCVAD) Mode() int {
	return w.mode
}

// SampleRate returns the configured sample rate
func (w *WebRTCVAD) SampleRate() int {
	return w.sampleRate
}
