package sources

import (
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/tphakala/audiomix/internal/audiocore"
	"github.com/tphakala/audiomix/internal/errors"
)

// wavFormatFloat is the WAVE format tag of IEEE float data
const wavFormatFloat = 3

type wavDecoder struct {
	path  string
	file  *os.File
	dec   *wav.Decoder
	buf   *audio.IntBuffer
	enc   audiocore.SampleFormat
	shift uint
}

// NewWAVSource creates a source decoding a RIFF/WAVE file with integer PCM
// of 8, 16, 24 or 32 bits. 24 bit data is widened to S32.
func NewWAVSource(path string) *DecoderSource {
	return newDecoderSource("wav", path, &wavDecoder{path: path})
}

// wavEncoding maps a PCM bit depth to the sample encoding it decodes to and
// the shift that widens it.
func wavEncoding(bitDepth int) (audiocore.SampleFormat, uint, error) {
	switch bitDepth {
	case 8:
		return audiocore.FormatU8, 0, nil
	case 16:
		return audiocore.FormatS16, 0, nil
	case 24:
		return audiocore.FormatS32, 8, nil
	case 32:
		return audiocore.FormatS32, 0, nil
	default:
		return 0, 0, errors.Newf("unsupported bit depth: %d", bitDepth).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryValidation).
			Build()
	}
}

func (d *wavDecoder) open() (audiocore.AudioFormat, error) {
	file, err := os.Open(d.path)
	if err != nil {
		return audiocore.AudioFormat{}, errors.New(err).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryFileIO).
			Context("operation", "open_wav").
			Build()
	}
	d.file = file

	d.dec = wav.NewDecoder(file)
	d.dec.ReadInfo()
	if !d.dec.IsValidFile() {
		return audiocore.AudioFormat{}, errors.Newf("invalid WAV file: %s", d.path).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryValidation).
			Build()
	}
	if d.dec.WavAudioFormat == wavFormatFloat {
		return audiocore.AudioFormat{}, errors.Newf("floating point WAV data is not supported: %s", d.path).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryValidation).
			Build()
	}

	enc, shift, err := wavEncoding(int(d.dec.BitDepth))
	if err != nil {
		return audiocore.AudioFormat{}, err
	}
	format, err := audiocore.NewAudioFormat(int(d.dec.SampleRate), enc, int(d.dec.NumChans))
	if err != nil {
		return audiocore.AudioFormat{}, err
	}
	d.enc, d.shift = enc, shift

	d.buf = &audio.IntBuffer{
		Data: make([]int, DefaultFrameSamples*format.Channels),
		Format: &audio.Format{
			SampleRate:  format.SampleRate,
			NumChannels: format.Channels,
		},
		SourceBitDepth: int(d.dec.BitDepth),
	}
	return format, nil
}

func (d *wavDecoder) decode() ([]byte, error) {
	n, err := d.dec.PCMBuffer(d.buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if n == 0 {
		return nil, io.EOF
	}
	// PCMBuffer can stop mid sample frame on a truncated file
	n -= n % d.buf.Format.NumChannels
	return interleave(d.enc, d.buf.Data[:n], d.shift), nil
}

// pcmFrames counts the sample frames in the data chunk. The decoder's own
// Duration is derived from the RIFF size and includes the header chunks.
// A second handle is used so the decoding position is left alone.
func (d *wavDecoder) pcmFrames() (int64, error) {
	file, err := os.Open(d.path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = file.Close() }()

	dec := wav.NewDecoder(file)
	if err := dec.FwdToPCM(); err != nil {
		return 0, err
	}
	blockAlign := int64(d.dec.NumChans) * int64((d.dec.BitDepth+7)/8)
	if blockAlign == 0 {
		return 0, errors.Newf("invalid WAV block alignment").
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryValidation).
			Build()
	}
	return dec.PCMLen() / blockAlign, nil
}

func (d *wavDecoder) describe() streamInfo {
	info := streamInfo{codec: "pcm_wav", bitDepth: int(d.dec.BitDepth)}
	if frames, err := d.pcmFrames(); err == nil {
		info.duration = durationOf(frames, int(d.dec.SampleRate))
	}
	d.dec.ReadMetadata()
	if m := d.dec.Metadata; m != nil {
		info.metadata = map[string]string{}
		for k, v := range map[string]string{
			"title":    m.Title,
			"artist":   m.Artist,
			"comments": m.Comments,
			"genre":    m.Genre,
			"software": m.Software,
		} {
			if v != "" {
				info.metadata[k] = v
			}
		}
	}
	return info
}

func (d *wavDecoder) close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file, d.dec = nil, nil
	return err
}
