package audiocore

import (
	"github.com/tphakala/audiomix/internal/errors"
)

// SampleBuffer is a cursor over the samples of one frame. Position and limit
// are counted in sample frames; internally the cursor tracks an element
// index (position × channels + channel) so single sample operations walk the
// channels of a frame in order.
//
// A SampleBuffer is not safe for concurrent use.
type SampleBuffer struct {
	frame    *Frame
	format   AudioFormat
	codec    *Codec
	channels int
	capacity int // sample frames
	limit    int // elements
	index    int // elements
	closed   bool
}

// AllocateBuffer allocates a silent buffer of numSamples sample frames.
// The cursor is at position 0 with the limit at capacity.
func AllocateBuffer(format AudioFormat, numSamples int, pts int64) (*SampleBuffer, error) {
	frame, err := NewFrame(format, numSamples, pts)
	if err != nil {
		return nil, err
	}
	return newSampleBuffer(frame), nil
}

// WrapBuffer returns a buffer over an existing frame. Changes made through
// the buffer are visible in the frame.
func WrapBuffer(frame *Frame) (*SampleBuffer, error) {
	if err := frame.Validate(); err != nil {
		return nil, err
	}
	return newSampleBuffer(frame), nil
}

func newSampleBuffer(frame *Frame) *SampleBuffer {
	b := &SampleBuffer{
		frame:    frame,
		format:   frame.Format,
		codec:    CodecFor(frame.Format.Encoding),
		channels: frame.Format.Channels,
		capacity: frame.NumSamples,
	}
	b.Clear()
	return b
}

// Frame returns the wrapped frame.
func (b *SampleBuffer) Frame() *Frame { return b.frame }

// Format returns the format of the wrapped frame. It stays available after
// Close.
func (b *SampleBuffer) Format() AudioFormat { return b.format }

// Codec returns the numeric policy of the buffer's encoding.
func (b *SampleBuffer) Codec() *Codec { return b.codec }

// IsClosed reports whether Close has been called.
func (b *SampleBuffer) IsClosed() bool { return b.closed }

// Close releases the frame. Closing twice is a no-op; every other operation
// on a closed buffer fails with ErrBufferClosed.
func (b *SampleBuffer) Close() error {
	if b.closed {
		return nil
	}
	b.Clear()
	b.frame = nil
	b.closed = true
	return nil
}

// Capacity returns the number of sample frames in the buffer.
func (b *SampleBuffer) Capacity() int { return b.capacity }

// Channels returns the channel count.
func (b *SampleBuffer) Channels() int { return b.channels }

// Limit returns the limit in sample frames.
func (b *SampleBuffer) Limit() int { return b.limit / b.channels }

// SetLimit sets the limit in sample frames. The position is moved back to
// the new limit when it lies beyond it.
func (b *SampleBuffer) SetLimit(n int) error {
	if b.closed {
		return closedError("set_limit")
	}
	if n < 0 || n > b.capacity {
		return indexError("set_limit", n, b.capacity)
	}
	b.limit = n * b.channels
	if b.index > b.limit {
		b.index = b.limit
	}
	return nil
}

// Position returns the cursor position in sample frames.
func (b *SampleBuffer) Position() int { return b.index / b.channels }

// SetPosition moves the cursor to channel 0 of sample frame n.
func (b *SampleBuffer) SetPosition(n int) error {
	if b.closed {
		return closedError("set_position")
	}
	if n < 0 || n > b.Limit() {
		return indexError("set_position", n, b.Limit())
	}
	b.index = n * b.channels
	return nil
}

// Channel returns the channel of the sample under the cursor.
func (b *SampleBuffer) Channel() int { return b.index % b.channels }

// SetChannel moves the cursor to channel c of the current sample frame.
func (b *SampleBuffer) SetChannel(c int) error {
	if b.closed {
		return closedError("set_channel")
	}
	if c < 0 || c >= b.channels {
		return indexError("set_channel", c, b.channels)
	}
	index := b.index - b.index%b.channels + c
	if index > b.limit {
		return indexError("set_channel", index, b.limit)
	}
	b.index = index
	return nil
}

// Remaining returns the number of whole sample frames between the cursor
// and the limit.
func (b *SampleBuffer) Remaining() int { return (b.limit - b.index) / b.channels }

// HasRemaining reports whether at least one sample is left before the limit.
func (b *SampleBuffer) HasRemaining() bool { return b.index < b.limit }

// remainingElements returns the number of samples left before the limit.
func (b *SampleBuffer) remainingElements() int { return b.limit - b.index }

// Rewind moves the cursor to 0 and keeps the limit.
func (b *SampleBuffer) Rewind() *SampleBuffer {
	b.index = 0
	return b
}

// Flip sets the limit to the cursor and rewinds, turning a filled buffer
// into one ready to be read.
func (b *SampleBuffer) Flip() *SampleBuffer {
	b.limit = b.index
	b.index = 0
	return b
}

// Clear rewinds and sets the limit to capacity, ready to be written.
func (b *SampleBuffer) Clear() *SampleBuffer {
	b.index = 0
	b.limit = b.capacity * b.channels
	return b
}

// SilentSample returns the zero-amplitude sample of the encoding.
func (b *SampleBuffer) SilentSample() float64 { return b.codec.Silence() }

// offset maps an element index to its byte offset in the frame data.
func (b *SampleBuffer) offset(element int) int {
	return elementOffset(b.frame.Format, b.capacity, element)
}

// elementOffset maps an element index (position × channels + channel) of a
// frame holding numSamples sample frames to a byte offset.
func elementOffset(format AudioFormat, numSamples, element int) int {
	size := format.SampleSize()
	if format.IsPlanar() {
		ch := element % format.Channels
		pos := element / format.Channels
		return (ch*numSamples + pos) * size
	}
	return element * size
}

func (b *SampleBuffer) load(element int) float64 {
	return b.codec.load(b.frame.Data[b.offset(element):])
}

func (b *SampleBuffer) store(element int, v float64) {
	b.codec.Store(b.frame.Data[b.offset(element):], v)
}

// Get returns the sample under the cursor and advances.
func (b *SampleBuffer) Get() (float64, error) {
	if b.closed {
		return 0, closedError("get")
	}
	if !b.HasRemaining() {
		return 0, bufferError(ErrBufferUnderflow, "get", 1, 0)
	}
	v := b.load(b.index)
	b.index++
	return v, nil
}

// Put stores v under the cursor and advances. Out of range values are
// clamped to the encoding's range.
func (b *SampleBuffer) Put(v float64) error {
	return b.putChecked("put", v)
}

// MixSample mixes v into the sample under the cursor and advances.
func (b *SampleBuffer) MixSample(v float64) error {
	if b.closed {
		return closedError("mix_sample")
	}
	if !b.HasRemaining() {
		return bufferError(ErrBufferOverflow, "mix_sample", 1, 0)
	}
	b.store(b.index, b.codec.Mix(b.load(b.index), v))
	b.index++
	return nil
}

// Scale multiplies the sample under the cursor by factor and advances.
func (b *SampleBuffer) Scale(factor float64) error {
	if b.closed {
		return closedError("scale")
	}
	if !b.HasRemaining() {
		return bufferError(ErrBufferOverflow, "scale", 1, 0)
	}
	b.store(b.index, b.codec.Scale(b.load(b.index), factor))
	b.index++
	return nil
}

// Silence silences the sample under the cursor and advances.
func (b *SampleBuffer) Silence() error {
	return b.putChecked("silence", b.codec.Silence())
}

func (b *SampleBuffer) putChecked(op string, v float64) error {
	if b.closed {
		return closedError(op)
	}
	if !b.HasRemaining() {
		return bufferError(ErrBufferOverflow, op, 1, 0)
	}
	b.store(b.index, v)
	b.index++
	return nil
}

// ReadInto copies the remaining samples of dst from this buffer. Both
// cursors advance by the number of samples copied.
func (b *SampleBuffer) ReadInto(dst *SampleBuffer) error {
	if err := b.checkPeer("read_into", dst); err != nil {
		return err
	}
	n := dst.remainingElements()
	if b.remainingElements() < n {
		return bufferError(ErrBufferUnderflow, "read_into", n, b.remainingElements())
	}
	copyElements(dst, dst.index, b, b.index, n)
	b.index += n
	dst.index += n
	return nil
}

// WriteFrom copies the remaining samples of src into this buffer. Both
// cursors advance by the number of samples copied.
func (b *SampleBuffer) WriteFrom(src *SampleBuffer) error {
	if err := b.checkPeer("write_from", src); err != nil {
		return err
	}
	n := src.remainingElements()
	if b.remainingElements() < n {
		return bufferError(ErrBufferOverflow, "write_from", n, b.remainingElements())
	}
	copyElements(b, b.index, src, src.index, n)
	b.index += n
	src.index += n
	return nil
}

// Mix mixes the remaining samples of src into this buffer with saturating
// addition. Both cursors advance by the number of samples mixed.
func (b *SampleBuffer) Mix(src *SampleBuffer) error {
	if err := b.checkPeer("mix", src); err != nil {
		return err
	}
	n := src.remainingElements()
	if b.remainingElements() < n {
		return bufferError(ErrBufferOverflow, "mix", n, b.remainingElements())
	}
	for i := 0; i < n; i++ {
		d := b.index + i
		b.store(d, b.codec.Mix(b.load(d), src.load(src.index+i)))
	}
	b.index += n
	src.index += n
	return nil
}

// ScaleAll scales every sample from the cursor to the limit and moves the
// cursor to the limit.
func (b *SampleBuffer) ScaleAll(factor float64) error {
	if b.closed {
		return closedError("scale_all")
	}
	for ; b.index < b.limit; b.index++ {
		b.store(b.index, b.codec.Scale(b.load(b.index), factor))
	}
	return nil
}

// SilenceAll silences every sample from the cursor to the limit.
func (b *SampleBuffer) SilenceAll() error {
	return b.Fill(b.codec.Silence())
}

// Fill stores v in every sample from the cursor to the limit and moves the
// cursor to the limit.
func (b *SampleBuffer) Fill(v float64) error {
	if b.closed {
		return closedError("fill")
	}
	if !b.HasRemaining() {
		return nil
	}
	if !b.frame.Format.IsPlanar() {
		start := b.offset(b.index)
		end := b.offset(b.limit)
		b.codec.Store(b.frame.Data[start:], v)
		// Double the filled prefix until the range is covered
		for filled := b.codec.size; start+filled < end; filled *= 2 {
			copy(b.frame.Data[start+filled:end], b.frame.Data[start:start+filled])
		}
		b.index = b.limit
		return nil
	}
	for ; b.index < b.limit; b.index++ {
		b.store(b.index, v)
	}
	return nil
}

func (b *SampleBuffer) checkPeer(op string, peer *SampleBuffer) error {
	if b.closed {
		return closedError(op)
	}
	if peer == nil {
		return errors.Newf("no sample buffer specified").
			Component(ComponentAudioCore).
			Category(errors.CategoryValidation).
			Context("operation", op).
			Build()
	}
	if peer.closed {
		return closedError(op)
	}
	if b.format != peer.format {
		// the buffers were set up for different streams
		return formatError(op, errors.CategoryState, b.format, peer.format)
	}
	return nil
}

// copyElements copies n samples between two buffers of the same format.
func copyElements(dst *SampleBuffer, dstIndex int, src *SampleBuffer, srcIndex, n int) {
	if n <= 0 {
		return
	}
	if !dst.frame.Format.IsPlanar() {
		size := dst.codec.size
		copy(dst.frame.Data[dstIndex*size:(dstIndex+n)*size], src.frame.Data[srcIndex*size:(srcIndex+n)*size])
		return
	}
	for i := 0; i < n; i++ {
		so := src.offset(srcIndex + i)
		do := dst.offset(dstIndex + i)
		copy(dst.frame.Data[do:do+dst.codec.size], src.frame.Data[so:so+src.codec.size])
	}
}

func indexError(op string, index, size int) error {
	return errors.Newf("index %d out of range [0, %d]", index, size).
		Component(ComponentAudioCore).
		Category(errors.CategoryBuffer).
		Context("operation", op).
		Build()
}
