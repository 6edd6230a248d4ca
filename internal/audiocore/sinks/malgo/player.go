// Package malgo provides a malgo based soundcard playback consumer
package malgo

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gen2brain/malgo"
	"github.com/google/uuid"
	"github.com/smallnest/ringbuffer"
	"golang.org/x/time/rate"

	"github.com/tphakala/audiomix/internal/audiocore"
	"github.com/tphakala/audiomix/internal/errors"
	"github.com/tphakala/audiomix/internal/logging"
)

// Player defaults
const (
	DefaultBufferMs     = 500
	defaultPeriodFrames = 512
	writeRetryDelay     = 5 * time.Millisecond
	underrunLogInterval = 10 * time.Second
)

// Config contains configuration for the playback device
type Config struct {
	DeviceName string
	// Backend is empty for the platform default or "null"
	Backend  string
	Format   audiocore.AudioFormat
	BufferMs int
}

// Player queues interleaved PCM in a ring buffer that the device callback
// drains. Frames are written by one goroutine while the callback runs on
// the device thread.
type Player struct {
	id     string
	config Config

	// Malgo specific
	ctx    *malgo.AllocatedContext
	device *malgo.Device

	// Ring buffer between Consume and the device callback
	ring    *ringbuffer.RingBuffer
	ringMu  sync.Mutex
	silence []byte

	mu        sync.Mutex
	running   atomic.Bool
	underruns atomic.Int64
	written   atomic.Int64
	logger    *slog.Logger

	// writer side only
	reportedUnderruns int64
	underrunLog       rate.Sometimes
	fullLog           rate.Sometimes
}

// NewPlayer validates config and allocates the ring buffer. The device is
// opened by Start.
func NewPlayer(config Config) (*Player, error) {
	if err := config.Format.Validate(); err != nil {
		return nil, err
	}
	if _, err := DeviceFormat(config.Format.Encoding); err != nil {
		return nil, err
	}
	if config.BufferMs <= 0 {
		config.BufferMs = DefaultBufferMs
	}

	samples := audiocore.NumSamples(config.Format.SampleRate, time.Duration(config.BufferMs)*time.Millisecond)
	size := config.Format.BytesFor(int(samples))

	silence := make([]byte, config.Format.FrameSize())
	audiocore.CodecFor(config.Format.Encoding).SilenceBytes(silence)

	id := uuid.New().String()
	logger := logging.ForService("audiocore")
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{
		id:          id,
		config:      config,
		ring:        ringbuffer.New(size),
		silence:     silence,
		underrunLog: rate.Sometimes{First: 1, Interval: underrunLogInterval},
		fullLog:     rate.Sometimes{First: 1, Interval: time.Second},
		logger: logger.With(
			"component", "malgo_player",
			"player_id", id),
	}, nil
}

// ID returns the player identifier
func (p *Player) ID() string { return p.id }

// Format returns the playback format
func (p *Player) Format() audiocore.AudioFormat { return p.config.Format }

// IsActive reports whether the device is running
func (p *Player) IsActive() bool { return p.running.Load() }

// Underruns returns how many callbacks found too little queued audio
func (p *Player) Underruns() int64 { return p.underruns.Load() }

// Buffered returns the number of queued bytes
func (p *Player) Buffered() int {
	p.ringMu.Lock()
	defer p.ringMu.Unlock()
	return p.ring.Length()
}

// Start opens and starts the playback device
func (p *Player) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running.Load() {
		return errors.Newf("player already running").
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryState).
			Context("player_id", p.id).
			Build()
	}

	backend, err := getBackendForPlatform(p.config.Backend)
	if err != nil {
		return err
	}
	malgoCtx, err := malgo.InitContext([]malgo.Backend{backend}, malgo.ContextConfig{}, nil)
	if err != nil {
		return errors.New(err).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryAudioSink).
			Context("player_id", p.id).
			Context("backend", runtime.GOOS).
			Context("operation", "init_context").
			Build()
	}
	p.ctx = malgoCtx

	format, _ := DeviceFormat(p.config.Format.Encoding)
	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = format
	deviceConfig.Playback.Channels = uint32(p.config.Format.Channels)
	deviceConfig.SampleRate = uint32(p.config.Format.SampleRate)
	deviceConfig.PeriodSizeInFrames = defaultPeriodFrames
	deviceConfig.Alsa.NoMMap = 1

	if p.config.DeviceName != "" && p.config.Backend != "null" {
		devices, err := malgoCtx.Devices(malgo.Playback)
		if err != nil {
			p.releaseContext()
			return errors.New(err).
				Component(audiocore.ComponentAudioCore).
				Category(errors.CategoryAudioSink).
				Context("operation", "enumerate_devices").
				Build()
		}
		info, err := SelectDevice(devices, p.config.DeviceName)
		if err != nil {
			p.releaseContext()
			return err
		}
		deviceConfig.Playback.DeviceID = info.ID.Pointer()
	}

	deviceCallbacks := malgo.DeviceCallbacks{
		Data: p.onSamples,
		Stop: p.onDeviceStop,
	}
	device, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, deviceCallbacks)
	if err != nil {
		p.releaseContext()
		return errors.New(err).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryAudioSink).
			Context("player_id", p.id).
			Context("device_name", p.config.DeviceName).
			Context("operation", "init_device").
			Build()
	}
	p.device = device

	if err := device.Start(); err != nil {
		device.Uninit()
		p.device = nil
		p.releaseContext()
		return errors.New(err).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryAudioSink).
			Context("player_id", p.id).
			Context("operation", "start_device").
			Build()
	}
	p.running.Store(true)

	p.logger.Info("playback started",
		"format", p.config.Format.String(),
		"device", p.config.DeviceName,
		"buffer_ms", p.config.BufferMs)
	return nil
}

func (p *Player) releaseContext() {
	if p.ctx != nil {
		_ = p.ctx.Uninit()
		p.ctx.Free()
		p.ctx = nil
	}
}

// Consume queues frame for playback, waiting while the ring buffer is full.
// The frame must be in the player's format.
func (p *Player) Consume(frame *audiocore.Frame) error {
	if frame.Format != p.config.Format {
		return errors.New(audiocore.ErrIncompatibleFormat).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryValidation).
			Context("expected_format", p.config.Format.String()).
			Context("actual_format", frame.Format.String()).
			Build()
	}
	timeout := 2 * time.Duration(p.config.BufferMs) * time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return p.Write(ctx, frame.Data)
}

// Write queues data, retrying until it fits or ctx ends
func (p *Player) Write(ctx context.Context, data []byte) error {
	if u := p.underruns.Load(); u > p.reportedUnderruns {
		p.underrunLog.Do(func() {
			p.logger.Warn("playback underruns, the device ran out of queued audio",
				"underruns", u,
				"new", u-p.reportedUnderruns)
			p.reportedUnderruns = u
		})
	}

	for len(data) > 0 {
		p.ringMu.Lock()
		n, err := p.ring.Write(data)
		p.ringMu.Unlock()
		data = data[n:]
		p.written.Add(int64(n))
		if len(data) == 0 {
			return nil
		}

		if err != nil && p.logger.Enabled(ctx, slog.LevelDebug) {
			p.fullLog.Do(func() {
				p.logger.Debug("playback buffer full, waiting",
					"pending_bytes", len(data),
					"free", p.ring.Free(),
					"full", errors.Is(err, ringbuffer.ErrIsFull))
			})
		}

		select {
		case <-ctx.Done():
			return errors.New(ctx.Err()).
				Component(audiocore.ComponentAudioCore).
				Category(errors.CategoryResource).
				Context("player_id", p.id).
				Context("pending_bytes", len(data)).
				Context("error", "playback buffer full, dropping samples").
				Build()
		case <-time.After(writeRetryDelay):
		}
	}
	return nil
}

// Drain waits until the device has played every queued byte
func (p *Player) Drain(ctx context.Context) error {
	for p.Buffered() > 0 {
		if !p.running.Load() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(writeRetryDelay):
		}
	}
	return nil
}

// onSamples is called by malgo when the device needs more audio
func (p *Player) onSamples(pOutput, _ []byte, _ uint32) {
	p.ringMu.Lock()
	n, _ := p.ring.Read(pOutput)
	p.ringMu.Unlock()

	if n < len(pOutput) {
		fillSilence(pOutput[n:], p.silence)
		if p.running.Load() && n > 0 {
			p.underruns.Add(1)
		}
	}
}

// fillSilence repeats one silent sample frame over out
func fillSilence(out, silence []byte) {
	for i := 0; i < len(out); i += len(silence) {
		copy(out[i:], silence)
	}
}

// onDeviceStop is called when the device stops
func (p *Player) onDeviceStop() {
	if p.running.Load() {
		p.logger.Warn("playback device stopped unexpectedly")
	}
}

// Stop halts playback and releases the device. Queued audio is discarded.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running.Load() {
		return nil
	}
	p.running.Store(false)

	if p.device != nil {
		_ = p.device.Stop()
		p.device.Uninit()
		p.device = nil
	}
	p.releaseContext()

	p.ringMu.Lock()
	p.ring.Reset()
	p.ringMu.Unlock()

	p.logger.Info("playback stopped",
		"bytes_written", p.written.Load(),
		"underruns", p.underruns.Load())
	return nil
}

// Close stops playback
func (p *Player) Close() error { return p.Stop() }
