// ============================================================================
// VoiceAgent - Automated Voice Survey Platform
// ============================================================================
//
// Package:     audio
// Description: Microphone capture using PortAudio
// Author:      Naeem Akhtar
// Created:     2026-08-13
// License:     MIT
// ============================================================================

package audio

import (
	"context"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/naeemakhtar23/voiceagent/pkg/core/fault"
)

const (
	// DefaultSampleRate is the capture rate expected by the recognizer
	DefaultSampleRate = 16000

	// DefaultFramesPerBuffer is the default frame size per read
	DefaultFramesPerBuffer = 512

	// DefaultChannels is mono audio
	DefaultChannels = 1
)

// Capture reads microphone input and delivers fixed-size frames on a
// channel. The device is exclusive: one Capture owns one input stream,
// and callers serialize Start/Stop around it.
type Capture struct {
	mu          sync.RWMutex
	stream      *portaudio.Stream
	sampleRate  float64
	bufferSize  int
	channels    int
	deviceName  string
	running     bool
	frames      chan []float32
	initialized bool
}

// CaptureConfig holds configuration for microphone capture
type CaptureConfig struct {
	SampleRate float64
	BufferSize int
	Channels   int
	DeviceName string // empty or "default" selects the system default input
}

// DefaultCaptureConfig returns default capture configuration
func DefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{
		SampleRate: DefaultSampleRate,
		BufferSize: DefaultFramesPerBuffer,
		Channels:   DefaultChannels,
	}
}

// NewCapture creates a capture instance and initializes PortAudio
func NewCapture(cfg CaptureConfig) (*Capture, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fault.Wrap(err, "initializing PortAudio").WithCode(fault.CodeAudioDevice)
	}

	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultFramesPerBuffer
	}
	if cfg.Channels <= 0 {
		cfg.Channels = DefaultChannels
	}

	return &Capture{
		sampleRate:  cfg.SampleRate,
		bufferSize:  cfg.BufferSize,
		channels:    cfg.Channels,
		deviceName:  cfg.DeviceName,
		frames:      make(chan []float32, 100),
		initialized: true,
	}, nil
}

// Start opens the input stream and begins delivering frames
func (c *Capture) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return fault.New("capture already running").WithCode(fault.CodeAudioBusy)
	}

	buffer := make([]float32, c.bufferSize)

	var stream *portaudio.Stream
	var err error

	if c.deviceName != "" && c.deviceName != "default" {
		device, findErr := c.findDeviceByName(c.deviceName)
		if findErr != nil {
			// fall back to the default input when the named device is gone
			stream, err = portaudio.OpenDefaultStream(c.channels, 0, c.sampleRate, c.bufferSize, buffer)
		} else {
			params := portaudio.StreamParameters{
				Input: portaudio.StreamDeviceParameters{
					Device:   device,
					Channels: c.channels,
					Latency:  device.DefaultLowInputLatency,
				},
				SampleRate:      c.sampleRate,
				FramesPerBuffer: c.bufferSize,
			}
			stream, err = portaudio.OpenStream(params, buffer)
		}
	} else {
		stream, err = portaudio.OpenDefaultStream(c.channels, 0, c.sampleRate, c.bufferSize, buffer)
	}

	if err != nil {
		return fault.Wrap(err, "opening input stream").WithCode(fault.CodeAudioDevice)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return fault.Wrap(err, "starting input stream").WithCode(fault.CodeAudioDevice)
	}

	c.stream = stream
	c.running = true

	go c.captureLoop(ctx, buffer)

	return nil
}

// findDeviceByName finds a PortAudio input device by name
func (c *Capture) findDeviceByName(name string) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}

	for _, dev := range devices {
		if dev.Name == name && dev.MaxInputChannels > 0 {
			return dev, nil
		}
	}

	return nil, fault.Newf("input device not found: %s", name).WithCode(fault.CodeAudioDevice)
}

// captureLoop continuously reads frames from the stream
func (c *Capture) captureLoop(ctx context.Context, buffer []float32) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		c.mu.RLock()
		running, stream := c.running, c.stream
		c.mu.RUnlock()
		if !running || stream == nil {
			return
		}

		if err := stream.Read(); err != nil {
			c.mu.RLock()
			stillRunning := c.running
			c.mu.RUnlock()
			if !stillRunning {
				return
			}
			continue
		}

		samples := make([]float32, len(buffer))
		copy(samples, buffer)

		select {
		case c.frames <- samples:
		default:
			// consumer is behind; drop the oldest frame so the newest
			// audio keeps flowing to the recognizer
			select {
			case <-c.frames:
			default:
			}
			select {
			case c.frames <- samples:
			default:
			}
		}
	}
}

// Stop stops the input stream. The capture can be started again.
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil
	}
	c.running = false

	if c.stream != nil {
		c.stream.Stop()
		if err := c.stream.Close(); err != nil {
			c.stream = nil
			return fault.Wrap(err, "closing input stream").WithCode(fault.CodeAudioDevice)
		}
		c.stream = nil
	}

	return nil
}

// Close stops the stream and releases PortAudio
func (c *Capture) Close() error {
	if err := c.Stop(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		if err := portaudio.Terminate(); err != nil {
			return fault.Wrap(err, "terminating PortAudio").WithCode(fault.CodeAudioDevice)
		}
		c.initialized = false
	}

	close(c.frames)
	return nil
}

// Frames returns the channel delivering captured frames
func (c *Capture) Frames() <-chan []float32 {
	return c.frames
}

// IsRunning reports whether the stream is live
func (c *Capture) IsRunning() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.running
}

// SampleRate returns the capture sample rate
func (c *Capture) SampleRate() float64 {
	return c.sampleRate
}

// SetDeviceName selects the input device for the next Start
func (c *Capture) SetDeviceName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deviceName = name
}

// DeviceInfo describes an available input device
type DeviceInfo struct {
	Name              string
	MaxInputChannels  int
	DefaultSampleRate float64
	IsDefault         bool
}

// ListInputDevices returns the available input devices
func ListInputDevices() ([]DeviceInfo, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fault.Wrap(err, "initializing PortAudio").WithCode(fault.CodeAudioDevice)
	}
	defer portaudio.Terminate()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fault.Wrap(err, "listing devices").WithCode(fault.CodeAudioDevice)
	}

	defaultInput, _ := portaudio.DefaultInputDevice()
	var defaultName string
	if defaultInput != nil {
		defaultName = defaultInput.Name
	}

	var inputs []DeviceInfo
	for _, dev := range devices {
		if dev.MaxInputChannels > 0 {
			inputs = append(inputs, DeviceInfo{
				Name:              dev.Name,
				MaxInputChannels:  dev.MaxInputChannels,
				DefaultSampleRate: dev.DefaultSampleRate,
				IsDefault:         dev.Name == defaultName,
			})
		}
	}

	return inputs, nil
}
