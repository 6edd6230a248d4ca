package sinks

import (
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/tphakala/audiomix/internal/audiocore"
	"github.com/tphakala/audiomix/internal/errors"
)

// WAVWriter is a sink encoding frames into a RIFF/WAVE file
type WAVWriter struct {
	*Sink
	path     string
	file     *os.File
	enc      *wav.Encoder
	bitDepth int
	shift    uint
	buf      *audio.IntBuffer
	written  int64
}

// WAVEncoding returns the sample encoding frames are converted to before
// writing bitDepth bit integer PCM
func WAVEncoding(bitDepth int) (audiocore.SampleFormat, error) {
	switch bitDepth {
	case 8:
		return audiocore.FormatU8, nil
	case 16:
		return audiocore.FormatS16, nil
	case 24, 32:
		return audiocore.FormatS32, nil
	default:
		return 0, errors.Newf("unsupported WAV bit depth: %d", bitDepth).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryValidation).
			Context("bit_depth", bitDepth).
			Build()
	}
}

// NewWAVWriter creates path and returns a sink writing integer PCM at the
// rate and channel count of format. The format's encoding is replaced by
// the one matching bitDepth.
func NewWAVWriter(path string, format audiocore.AudioFormat, bitDepth int, opts ...Option) (*WAVWriter, error) {
	enc, err := WAVEncoding(bitDepth)
	if err != nil {
		return nil, err
	}
	target, err := audiocore.NewAudioFormat(format.SampleRate, enc, format.Channels)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.New(err).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryFileIO).
			Context("operation", "create_output_dir").
			Context("path", path).
			Build()
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, errors.New(err).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryFileIO).
			Context("operation", "create_wav").
			Context("path", path).
			Build()
	}

	w := &WAVWriter{
		path:     path,
		file:     file,
		enc:      wav.NewEncoder(file, target.SampleRate, bitDepth, target.Channels, 1),
		bitDepth: bitDepth,
		buf: &audio.IntBuffer{
			Format:         &audio.Format{SampleRate: target.SampleRate, NumChannels: target.Channels},
			SourceBitDepth: bitDepth,
		},
	}
	if bitDepth == 24 {
		w.shift = 8
	}

	sink, err := New(target, ConsumerFunc(w.consume), append([]Option{WithType("wav")}, opts...)...)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	w.Sink = sink
	return w, nil
}

// Path returns the output file path
func (w *WAVWriter) Path() string { return w.path }

// Written returns the number of sample frames written
func (w *WAVWriter) Written() int64 { return w.written }

func (w *WAVWriter) consume(frame *audiocore.Frame) error {
	codec := audiocore.CodecFor(frame.Format.Encoding)
	size := codec.Size()
	n := frame.NumSamples * frame.Format.Channels
	if cap(w.buf.Data) < n {
		w.buf.Data = make([]int, n)
	}
	w.buf.Data = w.buf.Data[:n]
	for i := range n {
		w.buf.Data[i] = int(codec.Load(frame.Data[i*size:])) >> w.shift
	}

	if err := w.enc.Write(w.buf); err != nil {
		return errors.New(err).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryFileIO).
			Context("operation", "write_wav").
			Context("path", w.path).
			Build()
	}
	w.written += int64(frame.NumSamples)
	return nil
}

// Close stops the sink, finalises the WAV header and closes the file
func (w *WAVWriter) Close() error {
	if w.IsClosed() {
		return nil
	}
	_ = w.Sink.Close()

	var headerErr error
	if w.written == 0 {
		// the encoder writes its headers with the first buffer
		w.buf.Data = w.buf.Data[:0]
		headerErr = w.enc.Write(w.buf)
	}
	encErr := errors.Join(headerErr, w.enc.Close())
	fileErr := w.file.Close()
	if err := errors.Join(encErr, fileErr); err != nil {
		return errors.New(err).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryFileIO).
			Context("operation", "close_wav").
			Context("path", w.path).
			Build()
	}
	return nil
}
