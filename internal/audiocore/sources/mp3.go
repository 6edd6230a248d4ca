package sources

import (
	"io"
	"os"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/tphakala/audiomix/internal/audiocore"
	"github.com/tphakala/audiomix/internal/errors"
)

// mp3Reader is the part of gomp3.Decoder the source uses
type mp3Reader interface {
	Read([]byte) (int, error)
	SampleRate() int
}

type mp3Decoder struct {
	path string
	file *os.File
	dec  mp3Reader
	buf  []byte
}

// NewMP3Source creates a source decoding an MPEG audio layer III file. The
// decoder always produces 16 bit stereo.
func NewMP3Source(path string) *DecoderSource {
	return newDecoderSource("mp3", path, &mp3Decoder{path: path})
}

func (d *mp3Decoder) open() (audiocore.AudioFormat, error) {
	file, err := os.Open(d.path)
	if err != nil {
		return audiocore.AudioFormat{}, errors.New(err).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryFileIO).
			Context("operation", "open_mp3").
			Build()
	}
	d.file = file

	dec, err := gomp3.NewDecoder(file)
	if err != nil {
		return audiocore.AudioFormat{}, err
	}
	d.dec = dec
	return d.format()
}

func (d *mp3Decoder) format() (audiocore.AudioFormat, error) {
	format, err := audiocore.NewAudioFormat(d.dec.SampleRate(), audiocore.FormatS16, 2)
	if err != nil {
		return audiocore.AudioFormat{}, err
	}
	d.buf = make([]byte, format.BytesFor(DefaultFrameSamples))
	return format, nil
}

func (d *mp3Decoder) decode() ([]byte, error) {
	n, err := io.ReadFull(d.dec, d.buf)
	switch {
	case err == nil:
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		err = io.EOF
	default:
		return nil, err
	}
	n -= n % 4
	if n == 0 {
		return nil, io.EOF
	}
	out := make([]byte, n)
	copy(out, d.buf[:n])
	return out, err
}

func (d *mp3Decoder) describe() streamInfo {
	info := streamInfo{codec: "mp3", bitDepth: 16}
	if dec, ok := d.dec.(*gomp3.Decoder); ok {
		if length := dec.Length(); length > 0 {
			info.duration = durationOf(length/4, dec.SampleRate())
		}
	}
	return info
}

func (d *mp3Decoder) close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file, d.dec = nil, nil
	return err
}
