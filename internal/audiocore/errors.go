package audiocore

import (
	"github.com/tphakala/audiomix/internal/errors"
)

// Component identifier for audiocore errors
const ComponentAudioCore = "audiocore"

// Sentinel errors. Call sites wrap them with the errors builder to attach a
// category and context; match them with errors.Is.
var (
	// ErrBufferUnderflow is returned when reading past the available samples
	ErrBufferUnderflow = errors.NewStd("buffer underflow")

	// ErrBufferOverflow is returned when writing past the buffer limit
	ErrBufferOverflow = errors.NewStd("buffer overflow")

	// ErrBufferClosed is returned by any operation on a closed buffer
	ErrBufferClosed = errors.NewStd("buffer is closed")

	// ErrIncompatibleFormat is returned when two buffers or frames differ in
	// sample rate, encoding or channel count
	ErrIncompatibleFormat = errors.NewStd("incompatible audio format")

	// ErrInvalidAudioFormat is returned when an audio format is invalid
	ErrInvalidAudioFormat = errors.NewStd("invalid audio format")

	// ErrInvalidFrame is returned when a frame's data length does not match
	// its sample count and format
	ErrInvalidFrame = errors.NewStd("invalid audio frame")

	// ErrSourceNotOpen is returned when reading from a source that is not open
	ErrSourceNotOpen = errors.NewStd("audio source is not open")

	// ErrInputActive is returned when linking a mixer input that is in use
	ErrInputActive = errors.NewStd("mixer input has an active audio source")

	// ErrMixerClosed is returned by any operation on a closed mixer
	ErrMixerClosed = errors.NewStd("mixer is closed")

	// ErrProcessorNotFound is returned when removing an unknown processor
	ErrProcessorNotFound = errors.NewStd("processor not found")
)

// bufferError wraps a sentinel as a buffer bounds error.
func bufferError(sentinel error, op string, requested, available int) error {
	return errors.New(sentinel).
		Component(ComponentAudioCore).
		Category(errors.CategoryBuffer).
		Context("operation", op).
		Context("requested", requested).
		Context("available", available).
		Build()
}

// closedError reports an operation on a closed buffer.
func closedError(op string) error {
	return errors.New(ErrBufferClosed).
		Component(ComponentAudioCore).
		Category(errors.CategoryState).
		Context("operation", op).
		Build()
}

// formatError reports a format mismatch. Buffer to buffer transfers report
// CategoryState, frames handed to the FIFO CategoryValidation.
func formatError(op string, category errors.ErrorCategory, want, got AudioFormat) error {
	return errors.New(ErrIncompatibleFormat).
		Component(ComponentAudioCore).
		Category(category).
		Context("operation", op).
		Context("expected_format", want.String()).
		Context("actual_format", got.String()).
		Build()
}
