// ============================================================================
// VoiceAgent - Automated Voice Survey Platform
// ============================================================================
//
// Package:     audio
// Description: Sample buffers for pre-roll and level checks
// Author:      Naeem Akhtar
// Created:     2026-08-13
// License:     MIT
// ============================================================================

package audio

import "sync"

// RingBuffer keeps the most recent samples up to a fixed capacity. Writes
// past capacity overwrite the oldest data. Used to hold pre-roll audio so
// the start of an utterance survives a stream restart.
type RingBuffer struct {
	mu    sync.Mutex
	buf   []float32
	write int
	held  int
}

// NewRingBuffer creates a ring buffer with the given sample capacity
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = DefaultSampleRate / 2
	}
	return &RingBuffer{buf: make([]float32, capacity)}
}

// Write appends samples, overwriting the oldest when full
func (r *RingBuffer) Write(samples []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range samples {
		r.buf[r.write] = s
		r.write = (r.write + 1) % len(r.buf)
		if r.held < len(r.buf) {
			r.held++
		}
	}
}

// Snapshot returns the held samples oldest first without draining
func (r *RingBuffer) Snapshot() []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.copyLocked()
}

// Drain returns the held samples oldest first and empties the buffer
func (r *RingBuffer) Drain() []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.copyLocked()
	r.held = 0
	r.write = 0
	return out
}

func (r *RingBuffer) copyLocked() []float32 {
	out := make([]float32, r.held)
	start := (r.write - r.held + len(r.buf)) % len(r.buf)
	for i := 0; i < r.held; i++ {
		out[i] = r.buf[(start+i)%len(r.buf)]
	}
	return out
}

// Len returns the number of samples currently held
func (r *RingBuffer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.held
}

// Cap returns the buffer capacity
func (r *RingBuffer) Cap() int {
	return len(r.buf)
}

// Clear empties the buffer
func (r *RingBuffer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.held = 0
	r.write = 0
}

// AudioBuffer is a growing buffer for collecting samples, used by the
// microphone check to accumulate a measurement window
type AudioBuffer struct {
	mu      sync.RWMutex
	samples []float32
}

// NewAudioBuffer creates an empty audio buffer
func NewAudioBuffer() *AudioBuffer {
	return &AudioBuffer{
		samples: make([]float32, 0, DefaultSampleRate*5),
	}
}

// Append adds samples to the buffer
func (b *AudioBuffer) Append(samples []float32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.samples = append(b.samples, samples...)
}

// Samples returns a copy of the collected samples
func (b *AudioBuffer) Samples() []float32 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]float32, len(b.samples))
	copy(out, b.samples)
	return out
}

// Len returns the number of collected samples
func (b *AudioBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.samples)
}

// DurationSeconds returns the collected duration at the given sample rate
func (b *AudioBuffer) DurationSeconds(sampleRate float64) float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return float64(len(b.samples)) / sampleRate
}

// Clear empties the buffer
func (b *AudioBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.samples = b.samples[:0]
}

// TrimTo keeps only the newest maxSamples samples
func (b *AudioBuffer) TrimTo(maxSamples int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.samples) > maxSamples {
		b.samples = b.samples[len(b.samples)-maxSamples:]
	}
}
