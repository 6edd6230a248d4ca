package audiocore

import (
	"github.com/tphakala/audiomix/internal/errors"
)

// FifoBuffer is a growable circular queue of PCM samples. It decouples a
// producer emitting frames of arbitrary size from a consumer reading fixed
// amounts. Index and length arguments are counted in sample frames.
//
// Samples are stored interleaved regardless of the format's layout. When a
// write would exceed the capacity, the queue is reallocated to
// max(2×capacity+1, capacity+length+1) sample frames and the unread samples
// are moved to the front.
//
// A FifoBuffer is not safe for concurrent use.
type FifoBuffer struct {
	format AudioFormat
	codec  *Codec
	data   []byte
	alloc  int   // allocated sample frames; capacity is alloc-1
	head   int64 // elements read
	tail   int64 // elements written
	closed bool
	onGrow func(oldCapacity, newCapacity int)
}

// NewFifoBuffer allocates a queue holding up to numSamples-1 sample frames
// before it grows.
func NewFifoBuffer(format AudioFormat, numSamples int) (*FifoBuffer, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if numSamples < 2 {
		return nil, errors.Newf("fifo needs room for at least two samples, got %d", numSamples).
			Component(ComponentAudioCore).
			Category(errors.CategoryValidation).
			Build()
	}
	return &FifoBuffer{
		format: format,
		codec:  CodecFor(format.Encoding),
		data:   make([]byte, format.BytesFor(numSamples)),
		alloc:  numSamples,
	}, nil
}

// OnGrow registers a callback invoked after every reallocation.
func (q *FifoBuffer) OnGrow(fn func(oldCapacity, newCapacity int)) {
	q.onGrow = fn
}

// Format returns the format of queued samples.
func (q *FifoBuffer) Format() AudioFormat { return q.format }

// Capacity returns the number of sample frames the queue holds before it
// grows.
func (q *FifoBuffer) Capacity() int { return q.alloc - 1 }

// Delay returns the number of queued sample frames.
func (q *FifoBuffer) Delay() int {
	return int((q.tail - q.head) / int64(q.format.Channels))
}

// IsClosed reports whether Close has been called.
func (q *FifoBuffer) IsClosed() bool { return q.closed }

// Clear drops all queued samples without reallocating.
func (q *FifoBuffer) Clear() {
	q.head, q.tail = 0, 0
}

// Close releases the queue storage. Closing twice is a no-op.
func (q *FifoBuffer) Close() error {
	if q.closed {
		return nil
	}
	q.Clear()
	q.data = nil
	q.closed = true
	return nil
}

// physical returns the ring length in elements.
func (q *FifoBuffer) physical() int64 {
	return int64(q.Capacity() * q.format.Channels)
}

// Put appends length sample frames of src starting at sample frame index.
func (q *FifoBuffer) Put(src *Frame, index, length int) error {
	if err := q.check("put", src, index, length); err != nil {
		return err
	}
	if length == 0 {
		return nil
	}

	if delay := q.Delay(); delay+length > q.Capacity() {
		q.grow(delay, length)
	}

	ch := q.format.Channels
	srcIndex := index * ch
	n := length * ch
	// Write position is taken after any reallocation
	dstIndex := q.tail % q.physical()
	q.copyIn(int(dstIndex), src, srcIndex, n)
	q.tail += int64(n)
	return nil
}

// Get removes length sample frames from the queue into dst starting at
// sample frame index. It fails with ErrBufferUnderflow when fewer samples
// are queued.
func (q *FifoBuffer) Get(dst *Frame, index, length int) error {
	if err := q.check("get", dst, index, length); err != nil {
		return err
	}
	if delay := q.Delay(); delay < length {
		return bufferError(ErrBufferUnderflow, "fifo_get", length, delay)
	}
	if length == 0 {
		return nil
	}

	ch := q.format.Channels
	n := length * ch
	srcIndex := q.head % q.physical()
	q.copyOut(int(srcIndex), dst, index*ch, n)
	q.head += int64(n)
	return nil
}

// grow reallocates the ring and moves the unread samples to its front.
func (q *FifoBuffer) grow(delay, length int) {
	oldCapacity := q.Capacity()
	alloc := max(oldCapacity*2+1, oldCapacity+length+1)

	size := q.codec.size
	data := make([]byte, q.format.BytesFor(alloc))
	n := delay * q.format.Channels
	start := int(q.head % q.physical())
	q.ringRead(start, n, func(off, count, dst int) {
		copy(data[dst*size:(dst+count)*size], q.data[off*size:(off+count)*size])
	})

	q.data = data
	q.alloc = alloc
	q.head = 0
	q.tail = int64(n)

	if q.onGrow != nil {
		q.onGrow(oldCapacity, q.Capacity())
	}
}

// ringRead walks n elements of the ring from element start, calling fn for
// each contiguous run with the ring offset, run length and running count.
func (q *FifoBuffer) ringRead(start, n int, fn func(off, count, done int)) {
	phys := int(q.physical())
	done := 0
	for done < n {
		count := min(phys-start, n-done)
		fn(start, count, done)
		done += count
		start += count
		if start >= phys {
			start = 0
		}
	}
}

func (q *FifoBuffer) copyIn(dstIndex int, src *Frame, srcIndex, n int) {
	size := q.codec.size
	q.ringRead(dstIndex, n, func(off, count, done int) {
		if !src.Format.IsPlanar() {
			s := (srcIndex + done) * size
			copy(q.data[off*size:(off+count)*size], src.Data[s:s+count*size])
			return
		}
		for i := 0; i < count; i++ {
			so := elementOffset(src.Format, src.NumSamples, srcIndex+done+i)
			copy(q.data[(off+i)*size:(off+i+1)*size], src.Data[so:so+size])
		}
	})
}

func (q *FifoBuffer) copyOut(srcIndex int, dst *Frame, dstIndex, n int) {
	size := q.codec.size
	q.ringRead(srcIndex, n, func(off, count, done int) {
		if !dst.Format.IsPlanar() {
			d := (dstIndex + done) * size
			copy(dst.Data[d:d+count*size], q.data[off*size:(off+count)*size])
			return
		}
		for i := 0; i < count; i++ {
			do := elementOffset(dst.Format, dst.NumSamples, dstIndex+done+i)
			copy(dst.Data[do:do+size], q.data[(off+i)*size:(off+i+1)*size])
		}
	})
}

func (q *FifoBuffer) check(op string, frame *Frame, index, length int) error {
	if q.closed {
		return closedError("fifo_" + op)
	}
	if frame == nil {
		return errors.Newf("no frame specified").
			Component(ComponentAudioCore).
			Category(errors.CategoryValidation).
			Context("operation", "fifo_"+op).
			Build()
	}
	if frame.Format != q.format {
		return formatError("fifo_"+op, errors.CategoryValidation, q.format, frame.Format)
	}
	if index < 0 || index > frame.NumSamples {
		return indexError("fifo_"+op, index, frame.NumSamples)
	}
	if length < 0 || index+length > frame.NumSamples {
		return indexError("fifo_"+op, index+length, frame.NumSamples)
	}
	return nil
}
