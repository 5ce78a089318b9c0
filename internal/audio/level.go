// ============================================================================
// VoiceAgent - Automated Voice Survey Platform
// ============================================================================
//
// Package:     audio
// Description: Signal level measurement and PCM conversion
// Author:      Naeem Akhtar
// Created:     2026-08-13
// License:     MIT
// ============================================================================

package audio

import "math"

// RMS returns the root mean square level of the samples, 0 for silence
// up to 1 for a full-scale signal
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// Peak returns the largest absolute sample value
func Peak(samples []float32) float64 {
	var peak float64
	for _, s := range samples {
		abs := math.Abs(float64(s))
		if abs > peak {
			peak = abs
		}
	}
	return peak
}

// PCM16Bytes converts float32 samples to 16-bit little-endian PCM, the
// wire format the recognizer expects. Samples are clamped to [-1, 1].
func PCM16Bytes(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1.0 {
			s = 1.0
		}
		if s < -1.0 {
			s = -1.0
		}
		v := int16(s * 32767)
		out[i*2] = byte(v)
		out[i*2+1] = byte(v >> 8)
	}
	return out
}
