// Package audiocore provides the PCM sample model of audiomix: sample
// formats and their numeric policies, frames, a cursor over frame samples,
// a growable FIFO, and the processor chain that filters run in.
//
// # Architecture Overview
//
// The audiocore package and its subpackages consist of:
//
//   - Formats: SampleFormat, AudioFormat and one Codec per encoding
//   - Buffers: Frame, SampleBuffer and FifoBuffer
//   - Processing: ProcessorChain with the filters in audiocore/processors
//   - Resampling: streaming rate, encoding and channel conversion in audiocore/resample
//   - Endpoints: decoders in audiocore/sources, outputs in audiocore/sinks
//   - Mixing: the N input mixer in audiocore/mixer
//
// # Sample Values
//
// Samples are exchanged as float64 in the native domain of their encoding:
// an S16 sample is a whole number in [-32768, 32767], a U8 sample a whole
// number in [0, 255] with silence at 128, an F32 sample a value in [-1, 1].
// Mixing and scaling saturate instead of wrapping.
//
// # Concurrency
//
// The pipeline is single threaded and synchronous. A source emits one frame
// at a time; processors and sinks handle it to completion before the source
// continues. None of the buffer types are safe for concurrent use. Only
// collaborators such as the playback device own goroutines.
//
// # Frame Ownership
//
// A frame belongs to the stage currently holding it. A producer hands a
// frame on and must not touch it afterwards. Processors may modify a frame
// in place.
//
// # Error Handling
//
// All errors use the enhanced error system with component and category
// tagging. Bounds violations wrap ErrBufferUnderflow or ErrBufferOverflow,
// format mismatches wrap ErrIncompatibleFormat:
//
//	if errors.Is(err, audiocore.ErrBufferUnderflow) {
//	    // not enough samples queued
//	}
package audiocore
