package sources

import (
	"io"
	"os"

	"github.com/tphakala/flac"

	"github.com/tphakala/audiomix/internal/audiocore"
	"github.com/tphakala/audiomix/internal/errors"
)

type flacDecoder struct {
	path          string
	file          *os.File
	dec           *flac.Decoder
	bitsPerSample int
}

// NewFLACSource creates a source decoding a FLAC file. Each Read emits one
// FLAC block. 24 bit streams are widened to S32.
func NewFLACSource(path string) *DecoderSource {
	return newDecoderSource("flac", path, &flacDecoder{path: path})
}

func (d *flacDecoder) open() (audiocore.AudioFormat, error) {
	file, err := os.Open(d.path)
	if err != nil {
		return audiocore.AudioFormat{}, errors.New(err).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryFileIO).
			Context("operation", "open_flac").
			Build()
	}
	d.file = file

	d.dec, err = flac.NewDecoder(file)
	if err != nil {
		return audiocore.AudioFormat{}, err
	}

	var enc audiocore.SampleFormat
	switch d.dec.BitsPerSample {
	case 8:
		enc = audiocore.FormatS8
	case 16:
		enc = audiocore.FormatS16
	case 24, 32:
		enc = audiocore.FormatS32
	default:
		return audiocore.AudioFormat{}, errors.Newf("unsupported bit depth: %d", d.dec.BitsPerSample).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryValidation).
			Build()
	}
	d.bitsPerSample = d.dec.BitsPerSample
	return audiocore.NewAudioFormat(d.dec.SampleRate, enc, d.dec.NChannels)
}

// decode returns the next block. The decoder yields little endian samples
// of the stream's width, which match S8, S16 and S32 byte for byte; 24 bit
// samples are moved into the top three bytes of a 32 bit word.
func (d *flacDecoder) decode() ([]byte, error) {
	block, err := d.dec.Next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, err
	}
	if d.bitsPerSample != 24 {
		return block, nil
	}

	n := len(block) / 3
	out := make([]byte, n*4)
	for i := range n {
		out[i*4] = 0
		out[i*4+1] = block[i*3]
		out[i*4+2] = block[i*3+1]
		out[i*4+3] = block[i*3+2]
	}
	return out, nil
}

func (d *flacDecoder) describe() streamInfo {
	return streamInfo{
		codec:    "flac",
		bitDepth: d.bitsPerSample,
		duration: durationOf(int64(d.dec.TotalSamples), d.dec.SampleRate),
	}
}

func (d *flacDecoder) close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file, d.dec = nil, nil
	return err
}
