// ============================================================================
// VoiceAgent - Automated Voice Survey Platform
// ============================================================================
//
// Package:     capture
// Description: Live microphone pipeline - audio, VAD and recognition
// Author:      Naeem Akhtar
// Created:     2026-08-13
// License:     MIT
// ============================================================================

package capture

import (
	"context"
	"sync"

	"github.com/naeemakhtar23/voiceagent/internal/audio"
	"github.com/naeemakhtar23/voiceagent/internal/recognizer"
	"github.com/naeemakhtar23/voiceagent/internal/vad"
	"github.com/naeemakhtar23/voiceagent/pkg/core/fault"
	"github.com/naeemakhtar23/voiceagent/pkg/core/logging"
)

// prerollSeconds of recent audio kept across a stream restart so the
// start of an utterance in progress is not lost
const prerollSeconds = 1

// Microphone is the live pipeline: it owns the exclusive audio device,
// feeds frames through level and VAD detection into the session sink,
// and streams PCM to the recognizer.
type Microphone struct {
	mu   sync.Mutex
	sink Sink
	cfg  Config
	acfg audio.CaptureConfig
	rec  recognizer.Recognizer
	log  *logging.Logger

	cap     *audio.Capture
	det     vad.Detector
	tracker *vad.Tracker
	stream  recognizer.Stream
	preroll *audio.RingBuffer

	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	running    bool
	sendFailed bool
}

// NewMicrophone creates a live pipeline feeding the given sink
func NewMicrophone(sink Sink, cfg Config, acfg audio.CaptureConfig, rec recognizer.Recognizer) *Microphone {
	if acfg.SampleRate <= 0 {
		acfg = audio.DefaultCaptureConfig()
	}
	return &Microphone{
		sink: sink,
		cfg:  cfg.withDefaults(),
		acfg: acfg,
		rec:  rec,
		log:  logging.New("pipeline"),
	}
}

// LivePipelineFactory returns a factory producing one Microphone per
// session, all sharing the recognizer client
func LivePipelineFactory(cfg Config, acfg audio.CaptureConfig, rec recognizer.Recognizer) PipelineFactory {
	return func(sink Sink) Pipeline {
		return NewMicrophone(sink, cfg, acfg, rec)
	}
}

// streamConfig builds the recognizer stream parameters from the audio
// configuration
func (m *Microphone) streamConfig() recognizer.StreamConfig {
	return recognizer.StreamConfig{
		SampleRate:     int(m.acfg.SampleRate),
		Channels:       m.acfg.Channels,
		InterimResults: true,
		VADEvents:      true,
	}
}

// Start opens the recognition stream and the audio device. A successful
// start is the recognizer's readiness confirmation, so the sink hears
// HandleReady before the first frame.
func (m *Microphone) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return fault.New("pipeline already running").WithCode(fault.CodeAudioBusy)
	}
	if m.rec == nil {
		return fault.New("no recognizer configured").WithCode(fault.CodeInvalidConfig)
	}

	m.ctx, m.cancel = context.WithCancel(ctx)

	stream, err := m.rec.Open(m.ctx, m.streamConfig())
	if err != nil {
		m.cancel()
		return err
	}

	capt, err := audio.NewCapture(m.acfg)
	if err != nil {
		stream.Close()
		m.cancel()
		return err
	}
	if err := capt.Start(m.ctx); err != nil {
		stream.Close()
		capt.Close()
		m.cancel()
		return err
	}

	det, err := vad.NewWebRTCVAD(vad.Config{
		SampleRate: int(m.acfg.SampleRate),
		Mode:       vad.DefaultConfig().Mode,
	})
	if err != nil {
		// level-based detection still works without the VAD
		m.log.Warn("VAD unavailable, using level detection only", "error", err)
		det = nil
	}

	m.stream = stream
	m.cap = capt
	m.det = det
	m.tracker = vad.NewTracker(vad.DefaultConfig())
	m.preroll = audio.NewRingBuffer(int(m.acfg.SampleRate) * prerollSeconds)
	m.running = true
	m.sendFailed = false

	m.wg.Add(1)
	go m.frameLoop(m.ctx, capt)
	m.wg.Add(1)
	go m.pumpEvents(stream)

	m.log.Info("live pipeline started",
		"sampleRate", m.acfg.SampleRate,
		"device", m.acfg.DeviceName,
		"engine", m.rec.Name())

	m.sink.HandleReady()
	return nil
}

// frameLoop drains microphone frames until the pipeline stops
func (m *Microphone) frameLoop(ctx context.Context, capt *audio.Capture) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-capt.Frames():
			if !ok {
				return
			}
			m.processFrame(frame)
		}
	}
}

// processFrame runs one frame through level detection, the VAD tracker
// and the recognition stream
func (m *Microphone) processFrame(frame []float32) {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	stream := m.stream
	det := m.det
	tracker := m.tracker
	m.preroll.Write(frame)
	failed := m.sendFailed
	m.mu.Unlock()

	rms := audio.RMS(frame)
	audible := rms >= m.cfg.SoundThreshold
	if audible {
		m.sink.HandleSound()
	}

	// the tracker runs on the frame loop only, no locking needed
	isSpeech := audible
	if det != nil {
		if v, err := det.Process(frame); err == nil {
			isSpeech = v
		}
	}
	switch tracker.Update(isSpeech) {
	case vad.EventSpeechStarted:
		m.sink.HandleSpeechStarted()
	case vad.EventSpeechEnded:
		m.sink.HandleSpeechEnded()
	}

	if stream == nil || failed {
		return
	}
	if err := stream.Send(audio.PCM16Bytes(frame)); err != nil {
		m.mu.Lock()
		first := !m.sendFailed
		m.sendFailed = true
		m.mu.Unlock()
		if first {
			m.log.Warn("audio send failed", "error", err)
			m.sink.HandleStreamError(err)
		}
	}
}

// pumpEvents forwards recognizer events into the sink until the stream
// channel closes
func (m *Microphone) pumpEvents(stream recognizer.Stream) {
	defer m.wg.Done()

	for ev := range stream.Events() {
		switch ev.Type {
		case recognizer.EventTranscript:
			m.sink.HandleTranscript(ev.Text, ev.Confidence, ev.IsFinal)
		case recognizer.EventSpeechStarted:
			m.sink.HandleSpeechStarted()
		case recognizer.EventUtteranceEnd:
			m.sink.HandleSpeechEnded()
		case recognizer.EventError:
			m.sink.HandleStreamError(ev.Err)
		case recognizer.EventClosed:
			m.sink.HandleStreamEnded()
		}
	}
}

// Flush tells the recognizer to finalize what it currently holds
func (m *Microphone) Flush() error {
	m.mu.Lock()
	stream := m.stream
	m.mu.Unlock()

	if stream == nil {
		return nil
	}
	return stream.Flush()
}

// Restart replaces the recognition stream while the microphone keeps
// running. The pre-roll buffer is replayed into the new stream so audio
// from just before the restart is not lost.
func (m *Microphone) Restart() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil
	}

	if m.stream != nil {
		m.stream.Close()
		m.stream = nil
	}

	stream, err := m.rec.Open(m.ctx, m.streamConfig())
	if err != nil {
		m.log.Warn("stream restart failed", "error", err)
		go m.sink.HandleStreamError(err)
		return err
	}

	if samples := m.preroll.Snapshot(); len(samples) > 0 {
		if err := stream.Send(audio.PCM16Bytes(samples)); err != nil {
			m.log.Debug("pre-roll replay failed", "error", err)
		}
	}

	m.stream = stream
	m.sendFailed = false
	m.wg.Add(1)
	go m.pumpEvents(stream)

	m.log.Info("recognition stream restarted")
	return nil
}

// Stop releases the device and the stream. Safe to call more than once.
func (m *Microphone) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	cancel := m.cancel
	capt := m.cap
	stream := m.stream
	det := m.det
	m.stream = nil
	m.cap = nil
	m.det = nil
	m.mu.Unlock()

	cancel()
	if capt != nil {
		if err := capt.Stop(); err != nil {
			m.log.Debug("capture stop", "error", err)
		}
		if err := capt.Close(); err != nil {
			m.log.Debug("capture close", "error", err)
		}
	}
	if stream != nil {
		stream.Close()
	}
	if det != nil {
		det.Close()
	}

	m.wg.Wait()
	m.log.Info("live pipeline stopped")
	return nil
}
