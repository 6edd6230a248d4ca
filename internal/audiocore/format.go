package audiocore

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/tphakala/audiomix/internal/errors"
)

// SampleFormat identifies a PCM sample encoding. Planar variants store each
// channel contiguously, the others interleave channels within a frame.
type SampleFormat uint8

const (
	FormatInvalid SampleFormat = iota
	FormatU8
	FormatS8
	FormatU16
	FormatS16
	FormatU32
	FormatS32
	FormatF32
	FormatF64
	FormatU8P
	FormatS8P
	FormatU16P
	FormatS16P
	FormatU32P
	FormatS32P
	FormatF32P
	FormatF64P
)

// planarOffset is the distance between a packed format and its planar variant
const planarOffset = FormatU8P - FormatU8

var sampleFormatNames = map[SampleFormat]string{
	FormatU8:   "u8",
	FormatS8:   "s8",
	FormatU16:  "u16",
	FormatS16:  "s16",
	FormatU32:  "u32",
	FormatS32:  "s32",
	FormatF32:  "f32",
	FormatF64:  "f64",
	FormatU8P:  "u8p",
	FormatS8P:  "s8p",
	FormatU16P: "u16p",
	FormatS16P: "s16p",
	FormatU32P: "u32p",
	FormatS32P: "s32p",
	FormatF32P: "f32p",
	FormatF64P: "f64p",
}

// ParseSampleFormat parses names such as "s16", "F32" or "u8p".
func ParseSampleFormat(name string) (SampleFormat, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	for f, n := range sampleFormatNames {
		if n == lower {
			return f, nil
		}
	}
	return FormatInvalid, errors.New(ErrInvalidAudioFormat).
		Component(ComponentAudioCore).
		Category(errors.CategoryValidation).
		Context("sample_format", name).
		Build()
}

// IsValid reports whether f is one of the defined encodings.
func (f SampleFormat) IsValid() bool {
	return f >= FormatU8 && f <= FormatF64P
}

// IsPlanar reports whether channels are stored one after the other.
func (f SampleFormat) IsPlanar() bool {
	return f >= FormatU8P && f <= FormatF64P
}

// Packed returns the interleaved counterpart of a planar format.
func (f SampleFormat) Packed() SampleFormat {
	if f.IsPlanar() {
		return f - planarOffset
	}
	return f
}

// Planar returns the planar counterpart of an interleaved format.
func (f SampleFormat) Planar() SampleFormat {
	if f.IsValid() && !f.IsPlanar() {
		return f + planarOffset
	}
	return f
}

// Size returns the number of bytes of one sample.
func (f SampleFormat) Size() int {
	switch f.Packed() {
	case FormatU8, FormatS8:
		return 1
	case FormatU16, FormatS16:
		return 2
	case FormatU32, FormatS32, FormatF32:
		return 4
	case FormatF64:
		return 8
	default:
		return 0
	}
}

// Bits returns the sample width in bits.
func (f SampleFormat) Bits() int {
	return f.Size() * 8
}

// IsSigned reports whether the encoding is centered on zero. Float
// encodings are signed.
func (f SampleFormat) IsSigned() bool {
	switch f.Packed() {
	case FormatS8, FormatS16, FormatS32, FormatF32, FormatF64:
		return true
	default:
		return false
	}
}

// IsFloat reports whether samples are IEEE 754 values in [-1, 1].
func (f SampleFormat) IsFloat() bool {
	p := f.Packed()
	return p == FormatF32 || p == FormatF64
}

// ByteOrder returns the byte order of multi byte samples. All supported
// encodings are little endian.
func (f SampleFormat) ByteOrder() binary.ByteOrder {
	return binary.LittleEndian
}

// String returns the short lowercase name of the format.
func (f SampleFormat) String() string {
	if name, ok := sampleFormatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("invalid(%d)", uint8(f))
}

// AudioFormat describes a PCM stream: sample rate, encoding and channel
// count. It is a comparable value type; two formats are equal when all three
// fields match.
type AudioFormat struct {
	SampleRate int          // Sample rate in Hz (e.g., 44100)
	Encoding   SampleFormat // Sample encoding
	Channels   int          // Number of channels (1 for mono, 2 for stereo)
}

// NewAudioFormat validates and returns a format.
func NewAudioFormat(sampleRate int, encoding SampleFormat, channels int) (AudioFormat, error) {
	f := AudioFormat{SampleRate: sampleRate, Encoding: encoding, Channels: channels}
	if err := f.Validate(); err != nil {
		return AudioFormat{}, err
	}
	return f, nil
}

// MustAudioFormat is like NewAudioFormat but panics on invalid input. It is
// meant for package level defaults and tests.
func MustAudioFormat(sampleRate int, encoding SampleFormat, channels int) AudioFormat {
	f, err := NewAudioFormat(sampleRate, encoding, channels)
	if err != nil {
		panic(err)
	}
	return f
}

// Validate checks the sample rate, encoding and channel count.
func (f AudioFormat) Validate() error {
	switch {
	case f.SampleRate < MinSampleRate:
		return errors.New(ErrInvalidAudioFormat).
			Component(ComponentAudioCore).
			Category(errors.CategoryValidation).
			Context("sample_rate", f.SampleRate).
			Context("min_sample_rate", MinSampleRate).
			Build()
	case !f.Encoding.IsValid():
		return errors.New(ErrInvalidAudioFormat).
			Component(ComponentAudioCore).
			Category(errors.CategoryValidation).
			Context("encoding", f.Encoding.String()).
			Build()
	case f.Channels < 1:
		return errors.New(ErrInvalidAudioFormat).
			Component(ComponentAudioCore).
			Category(errors.CategoryValidation).
			Context("channels", f.Channels).
			Build()
	}
	return nil
}

// SampleSize returns the size of one sample in bytes.
func (f AudioFormat) SampleSize() int { return f.Encoding.Size() }

// FrameSize returns the size of one sample frame (all channels) in bytes.
func (f AudioFormat) FrameSize() int { return f.Encoding.Size() * f.Channels }

// IsPlanar reports whether the encoding is planar.
func (f AudioFormat) IsPlanar() bool { return f.Encoding.IsPlanar() }

// BitRate returns the PCM bit rate in bits per second.
func (f AudioFormat) BitRate() int {
	return f.SampleSize() * 8 * f.Channels * f.SampleRate
}

// ByteOrder returns the byte order of the encoding.
func (f AudioFormat) ByteOrder() binary.ByteOrder { return f.Encoding.ByteOrder() }

// Equal reports whether rate, encoding and channel count match.
func (f AudioFormat) Equal(other AudioFormat) bool { return f == other }

// BytesFor returns the byte length of numSamples sample frames.
func (f AudioFormat) BytesFor(numSamples int) int { return numSamples * f.FrameSize() }

// DurationOf returns the playing time of numSamples sample frames.
func (f AudioFormat) DurationOf(numSamples int64) time.Duration {
	if f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(RescaleRound(numSamples, int64(time.Second), int64(f.SampleRate)))
}

// String renders the format as e.g. "44100Hz s16 2ch".
func (f AudioFormat) String() string {
	return fmt.Sprintf("%dHz %s %dch", f.SampleRate, f.Encoding, f.Channels)
}
