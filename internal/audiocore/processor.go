package audiocore

import (
	"context"
	"log/slog"
	"time"

	"github.com/tphakala/audiomix/internal/errors"
	"github.com/tphakala/audiomix/internal/logging"
)

// AudioProcessor transforms one frame at a time.
type AudioProcessor interface {
	// ID returns a unique identifier for this processor
	ID() string

	// Process transforms a frame. It may modify the frame in place and
	// return it, return a new frame, or return nil to drop the frame.
	Process(ctx context.Context, frame *Frame) (*Frame, error)

	// Reset discards per-stream state such as cached sample offsets or
	// resamplers
	Reset()
}

// TypedProcessor is implemented by processors that report a type label for
// metrics
type TypedProcessor interface {
	Type() string
}

// ProcessorChain runs frames through an ordered list of processors. It is
// built once and then used from a single goroutine.
type ProcessorChain struct {
	processors []AudioProcessor
	logger     *slog.Logger
}

// NewProcessorChain creates an empty processor chain
func NewProcessorChain() *ProcessorChain {
	logger := logging.ForService("audiocore")
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "processor_chain")

	return &ProcessorChain{
		processors: make([]AudioProcessor, 0),
		logger:     logger,
	}
}

// AddProcessor appends a processor to the chain
func (pc *ProcessorChain) AddProcessor(processor AudioProcessor) error {
	if processor == nil {
		return errors.Newf("processor cannot be nil").
			Component(ComponentAudioCore).
			Category(errors.CategoryValidation).
			Build()
	}

	for _, p := range pc.processors {
		if p.ID() == processor.ID() {
			pc.logger.Warn("processor already exists in chain",
				"processor_id", processor.ID())
			return errors.Newf("processor already exists in chain").
				Component(ComponentAudioCore).
				Category(errors.CategoryValidation).
				Context("processor_id", processor.ID()).
				Build()
		}
	}

	pc.processors = append(pc.processors, processor)
	pc.logger.Debug("processor added to chain",
		"processor_id", processor.ID(),
		"chain_length", len(pc.processors))
	return nil
}

// RemoveProcessor removes a processor from the chain
func (pc *ProcessorChain) RemoveProcessor(id string) error {
	for i, p := range pc.processors {
		if p.ID() == id {
			pc.processors = append(pc.processors[:i], pc.processors[i+1:]...)
			pc.logger.Debug("processor removed from chain",
				"processor_id", id,
				"remaining_processors", len(pc.processors))
			return nil
		}
	}

	return errors.New(ErrProcessorNotFound).
		Component(ComponentAudioCore).
		Category(errors.CategoryNotFound).
		Context("processor_id", id).
		Build()
}

// Processors returns a copy of the processors in order
func (pc *ProcessorChain) Processors() []AudioProcessor {
	processors := make([]AudioProcessor, len(pc.processors))
	copy(processors, pc.processors)
	return processors
}

// Len returns the number of processors
func (pc *ProcessorChain) Len() int {
	return len(pc.processors)
}

// Process runs a frame through every processor in order. A processor that
// drops the frame ends the run and Process returns nil, nil.
func (pc *ProcessorChain) Process(ctx context.Context, frame *Frame) (*Frame, error) {
	current := frame
	mc := GetMetrics()

	for _, processor := range pc.processors {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		start := time.Now()
		processed, err := processor.Process(ctx, current)
		typ := processorType(processor)
		if err != nil {
			mc.RecordProcessorError(processor.ID(), typ, err)
			pc.logger.Error("processor failed",
				"processor_id", processor.ID(),
				"error", err)
			return nil, errors.New(err).
				Component(ComponentAudioCore).
				Category(errors.CategoryProcessing).
				Context("processor_id", processor.ID()).
				Context("operation", "process_audio").
				Build()
		}
		mc.RecordProcessorExecution(processor.ID(), typ, time.Since(start))

		if processed == nil {
			mc.RecordProcessorDrop(processor.ID(), typ)
			if pc.logger.Enabled(ctx, slog.LevelDebug) {
				pc.logger.Debug("frame dropped by processor",
					"processor_id", processor.ID(),
					"pts", current.PTS)
			}
			return nil, nil
		}

		current = processed
	}

	return current, nil
}

// Reset resets every processor in the chain
func (pc *ProcessorChain) Reset() {
	for _, p := range pc.processors {
		p.Reset()
	}
}

func processorType(p AudioProcessor) string {
	if tp, ok := p.(TypedProcessor); ok {
		return tp.Type()
	}
	return "unknown"
}
