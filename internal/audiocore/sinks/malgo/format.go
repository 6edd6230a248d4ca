package malgo

import (
	"github.com/gen2brain/malgo"

	"github.com/tphakala/audiomix/internal/audiocore"
	"github.com/tphakala/audiomix/internal/errors"
)

// DeviceFormat returns the malgo sample format for an interleaved encoding.
// Planar and unsupported encodings fail with a validation error.
func DeviceFormat(enc audiocore.SampleFormat) (malgo.FormatType, error) {
	switch enc {
	case audiocore.FormatU8:
		return malgo.FormatU8, nil
	case audiocore.FormatS16:
		return malgo.FormatS16, nil
	case audiocore.FormatS32:
		return malgo.FormatS32, nil
	case audiocore.FormatF32:
		return malgo.FormatF32, nil
	default:
		return malgo.FormatUnknown, errors.Newf("encoding %s cannot be played back", enc).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryValidation).
			Context("encoding", enc.String()).
			Build()
	}
}

// PlaybackFormat returns the closest format a device can play. Planar data
// is interleaved and encodings without a device counterpart become S16, or
// F32 for F64.
func PlaybackFormat(f audiocore.AudioFormat) audiocore.AudioFormat {
	enc := f.Encoding.Packed()
	switch enc {
	case audiocore.FormatU8, audiocore.FormatS16, audiocore.FormatS32, audiocore.FormatF32:
	case audiocore.FormatF64:
		enc = audiocore.FormatF32
	default:
		enc = audiocore.FormatS16
	}
	f.Encoding = enc
	return f
}

// GetFormatInfo returns information about a malgo format type
func GetFormatInfo(format malgo.FormatType) (bytesPerSample int, name string) {
	switch format {
	case malgo.FormatU8:
		return 1, "U8"
	case malgo.FormatS16:
		return 2, "S16"
	case malgo.FormatS24:
		return 3, "S24"
	case malgo.FormatS32:
		return 4, "S32"
	case malgo.FormatF32:
		return 4, "F32"
	default:
		return 0, "Unknown"
	}
}

// CalculateBufferSize calculates the buffer size in bytes for a format and
// frame count
func CalculateBufferSize(format malgo.FormatType, channels int, frameCount uint32) int {
	bytesPerSample, _ := GetFormatInfo(format)
	return bytesPerSample * channels * int(frameCount)
}
