package sources

import (
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/jfreymuth/oggvorbis"

	"github.com/tphakala/audiomix/internal/audiocore"
	"github.com/tphakala/audiomix/internal/errors"
)

// oggReader is the part of oggvorbis.Reader the source uses
type oggReader interface {
	SampleRate() int
	Channels() int
	Read([]float32) (int, error)
}

type vorbisDecoder struct {
	path     string
	file     *os.File
	dec      oggReader
	channels int
	buf      []float32
}

// NewVorbisSource creates a source decoding an Ogg Vorbis file to F32
func NewVorbisSource(path string) *DecoderSource {
	return newDecoderSource("vorbis", path, &vorbisDecoder{path: path})
}

func (d *vorbisDecoder) open() (audiocore.AudioFormat, error) {
	file, err := os.Open(d.path)
	if err != nil {
		return audiocore.AudioFormat{}, errors.New(err).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryFileIO).
			Context("operation", "open_vorbis").
			Build()
	}
	d.file = file

	dec, err := oggvorbis.NewReader(file)
	if err != nil {
		return audiocore.AudioFormat{}, err
	}
	d.dec = dec
	return d.format()
}

func (d *vorbisDecoder) format() (audiocore.AudioFormat, error) {
	format, err := audiocore.NewAudioFormat(d.dec.SampleRate(), audiocore.FormatF32, d.dec.Channels())
	if err != nil {
		return audiocore.AudioFormat{}, err
	}
	d.channels = format.Channels
	d.buf = make([]float32, DefaultFrameSamples*format.Channels)
	return format, nil
}

// decode reads up to one frame of interleaved values. The reader returns a
// whole number of sample frames.
func (d *vorbisDecoder) decode() ([]byte, error) {
	n, err := d.dec.Read(d.buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if n == 0 {
		return nil, io.EOF
	}
	n -= n % d.channels

	out := make([]byte, n*4)
	for i, v := range d.buf[:n] {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out, err
}

func (d *vorbisDecoder) describe() streamInfo {
	info := streamInfo{codec: "vorbis", bitDepth: 32}
	if r, ok := d.dec.(*oggvorbis.Reader); ok {
		info.duration = durationOf(r.Length(), r.SampleRate())
	}
	return info
}

func (d *vorbisDecoder) close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file, d.dec = nil, nil
	return err
}
