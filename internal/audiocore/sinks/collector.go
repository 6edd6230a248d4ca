package sinks

import (
	"sync"

	"github.com/tphakala/audiomix/internal/audiocore"
)

// Collector keeps every consumed frame in memory. It can be used as a
// Consumer behind a Sink or directly as a source listener.
type Collector struct {
	mu     sync.Mutex
	frames []*audiocore.Frame
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{}
}

// Consume stores frame
func (c *Collector) Consume(frame *audiocore.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, frame)
	return nil
}

// OnFrame stores frame
func (c *Collector) OnFrame(frame *audiocore.Frame) error {
	return c.Consume(frame)
}

// Frames returns the collected frames
func (c *Collector) Frames() []*audiocore.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*audiocore.Frame(nil), c.frames...)
}

// NumSamples returns the total number of collected sample frames
func (c *Collector) NumSamples() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, f := range c.frames {
		n += f.NumSamples
	}
	return n
}

// Samples returns every collected sample in order, interleaved
func (c *Collector) Samples() ([]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []float64
	for _, f := range c.frames {
		b, err := audiocore.WrapBuffer(f)
		if err != nil {
			return nil, err
		}
		for b.HasRemaining() {
			v, err := b.Get()
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	}
	return out, nil
}

// Reset discards the collected frames
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = nil
}
