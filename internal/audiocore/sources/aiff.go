package sources

import (
	"io"
	"os"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"

	"github.com/tphakala/audiomix/internal/audiocore"
	"github.com/tphakala/audiomix/internal/errors"
)

type aiffDecoder struct {
	path  string
	file  *os.File
	dec   *aiff.Decoder
	buf   *audio.IntBuffer
	enc   audiocore.SampleFormat
	shift uint
}

// NewAIFFSource creates a source decoding an uncompressed AIFF file of 8,
// 16, 24 or 32 bits. AIFF samples are signed, so 8 bit data decodes to S8.
func NewAIFFSource(path string) *DecoderSource {
	return newDecoderSource("aiff", path, &aiffDecoder{path: path})
}

func (d *aiffDecoder) open() (audiocore.AudioFormat, error) {
	file, err := os.Open(d.path)
	if err != nil {
		return audiocore.AudioFormat{}, errors.New(err).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryFileIO).
			Context("operation", "open_aiff").
			Build()
	}
	d.file = file

	d.dec = aiff.NewDecoder(file)
	if !d.dec.IsValidFile() {
		return audiocore.AudioFormat{}, errors.Newf("invalid AIFF file: %s", d.path).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryValidation).
			Build()
	}
	d.dec.ReadInfo()
	af := d.dec.Format()
	if af == nil {
		return audiocore.AudioFormat{}, errors.Newf("AIFF file has no common chunk: %s", d.path).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryValidation).
			Build()
	}

	enc, shift, err := wavEncoding(int(d.dec.BitDepth))
	if err != nil {
		return audiocore.AudioFormat{}, err
	}
	if enc == audiocore.FormatU8 {
		enc = audiocore.FormatS8
	}
	format, err := audiocore.NewAudioFormat(af.SampleRate, enc, af.NumChannels)
	if err != nil {
		return audiocore.AudioFormat{}, err
	}
	d.enc, d.shift = enc, shift

	d.buf = &audio.IntBuffer{
		Data:           make([]int, DefaultFrameSamples*format.Channels),
		Format:         af,
		SourceBitDepth: int(d.dec.BitDepth),
	}
	return format, nil
}

func (d *aiffDecoder) decode() ([]byte, error) {
	n, err := d.dec.PCMBuffer(d.buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if n == 0 {
		return nil, io.EOF
	}
	n -= n % d.buf.Format.NumChannels
	return interleave(d.enc, d.buf.Data[:n], d.shift), nil
}

func (d *aiffDecoder) describe() streamInfo {
	info := streamInfo{codec: "pcm_aiff", bitDepth: int(d.dec.BitDepth)}
	if dur, err := d.dec.Duration(); err == nil {
		info.duration = dur
	}
	return info
}

func (d *aiffDecoder) close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file, d.dec = nil, nil
	return err
}
