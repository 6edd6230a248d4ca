package audiocore

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/audiomix/internal/errors"
)

func TestSampleFormatProperties(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		format SampleFormat
		size   int
		signed bool
		float  bool
		planar bool
		packed SampleFormat
		name   string
	}{
		{FormatU8, 1, false, false, false, FormatU8, "u8"},
		{FormatS8, 1, true, false, false, FormatS8, "s8"},
		{FormatU16, 2, false, false, false, FormatU16, "u16"},
		{FormatS16, 2, true, false, false, FormatS16, "s16"},
		{FormatU32, 4, false, false, false, FormatU32, "u32"},
		{FormatS32, 4, true, false, false, FormatS32, "s32"},
		{FormatF32, 4, true, true, false, FormatF32, "f32"},
		{FormatF64, 8, true, true, false, FormatF64, "f64"},
		{FormatS16P, 2, true, false, true, FormatS16, "s16p"},
		{FormatF32P, 4, true, true, true, FormatF32, "f32p"},
		{FormatU8P, 1, false, false, true, FormatU8, "u8p"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.True(t, tc.format.IsValid())
			assert.Equal(t, tc.size, tc.format.Size())
			assert.Equal(t, tc.size*8, tc.format.Bits())
			assert.Equal(t, tc.signed, tc.format.IsSigned())
			assert.Equal(t, tc.float, tc.format.IsFloat())
			assert.Equal(t, tc.planar, tc.format.IsPlanar())
			assert.Equal(t, tc.packed, tc.format.Packed())
			assert.Equal(t, tc.name, tc.format.String())
			assert.Equal(t, binary.LittleEndian, tc.format.ByteOrder())

			parsed, err := ParseSampleFormat(tc.name)
			require.NoError(t, err)
			assert.Equal(t, tc.format, parsed)
		})
	}
}

func TestSampleFormatPlanarRoundTrip(t *testing.T) {
	t.Parallel()

	for f := FormatU8; f <= FormatF64; f++ {
		assert.True(t, f.Planar().IsPlanar(), f.String())
		assert.Equal(t, f, f.Planar().Packed(), f.String())
	}
	assert.False(t, FormatInvalid.IsValid())
	assert.Equal(t, 0, FormatInvalid.Size())
}

func TestParseSampleFormatInvalid(t *testing.T) {
	t.Parallel()

	_, err := ParseSampleFormat("s24")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidAudioFormat))
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))

	f, err := ParseSampleFormat(" F32 ")
	require.NoError(t, err)
	assert.Equal(t, FormatF32, f)
}

func TestNewAudioFormat(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		rate     int
		encoding SampleFormat
		channels int
		wantErr  bool
	}{
		{"cd quality", 44100, FormatS16, 2, false},
		{"minimum rate", 8000, FormatU8, 1, false},
		{"rate too low", 7999, FormatS16, 2, true},
		{"no channels", 44100, FormatS16, 0, true},
		{"invalid encoding", 44100, FormatInvalid, 2, true},
		{"planar float", 48000, FormatF32P, 6, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f, err := NewAudioFormat(tc.rate, tc.encoding, tc.channels)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidAudioFormat))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.rate, f.SampleRate)
		})
	}
}

func TestAudioFormatDerived(t *testing.T) {
	t.Parallel()

	f := MustAudioFormat(44100, FormatS16, 2)
	assert.Equal(t, 2, f.SampleSize())
	assert.Equal(t, 4, f.FrameSize())
	assert.Equal(t, 1411200, f.BitRate())
	assert.False(t, f.IsPlanar())
	assert.Equal(t, 4096, f.BytesFor(1024))
	assert.Equal(t, time.Second, f.DurationOf(44100))
	assert.Equal(t, "44100Hz s16 2ch", f.String())

	assert.True(t, f.Equal(MustAudioFormat(44100, FormatS16, 2)))
	assert.False(t, f.Equal(MustAudioFormat(48000, FormatS16, 2)))
	assert.False(t, f.Equal(MustAudioFormat(44100, FormatS16P, 2)))
	assert.False(t, f.Equal(MustAudioFormat(44100, FormatS16, 1)))

	assert.Equal(t, DefaultFormat(), f)
}

func TestMustAudioFormatPanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { MustAudioFormat(100, FormatS16, 2) })
}

func TestRescaleRound(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		a, b, c int64
		want    int64
	}{
		{"exact", 10, 3, 2, 15},
		{"half rounds up", 1, 1, 2, 1},
		{"below half rounds down", 1, 1, 3, 0},
		{"negative half rounds away", -1, 1, 2, -1},
		{"negative operand b", 5, -3, 2, -8},
		{"one second at 44100", int64(time.Second), 44100, int64(time.Second), 44100},
		{"large product", 1 << 40, 1 << 20, 1 << 30, 1 << 30},
		{"saturates", 1 << 62, 1 << 62, 1, 1<<63 - 1},
		{"zero divisor", 10, 10, 0, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, RescaleRound(tc.a, tc.b, tc.c))
		})
	}
}

func TestSampleConversions(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(44100), NumSamples(44100, time.Second))
	assert.Equal(t, int64(22050), NumSamples(44100, 500*time.Millisecond))
	// 1ms at 44.1kHz is 44.1 samples
	assert.Equal(t, int64(44), NumSamples(44100, time.Millisecond))
	assert.Equal(t, int64(1_000_000), SamplesToMicros(48000, 48000))
	assert.Equal(t, int64(23), SamplesToMicros(1, 44100))
}

func TestFrameConstruction(t *testing.T) {
	t.Parallel()

	f := MustAudioFormat(44100, FormatU8, 2)
	frame, err := NewFrame(f, 16, 100)
	require.NoError(t, err)
	assert.Len(t, frame.Data, 32)
	for _, b := range frame.Data {
		assert.Equal(t, byte(128), b, "unsigned frames are allocated silent")
	}
	assert.Equal(t, int64(116), frame.EndPTS())
	require.NoError(t, frame.Validate())

	clone := frame.Clone()
	clone.Data[0] = 0
	assert.Equal(t, byte(128), frame.Data[0])

	_, err = NewFrame(f, -1, 0)
	require.Error(t, err)

	_, err = WrapFrame(f, make([]byte, 7), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidFrame))

	wrapped, err := WrapFrame(f, make([]byte, 8), 44100)
	require.NoError(t, err)
	assert.Equal(t, 4, wrapped.NumSamples)
	assert.Equal(t, int64(1_000_000), wrapped.TimestampMicros())

	wrapped.NumSamples = 5
	require.Error(t, wrapped.Validate())
	assert.Error(t, (*Frame)(nil).Validate())
}

func TestFrameDuration(t *testing.T) {
	t.Parallel()

	frame, err := NewFrame(MustAudioFormat(8000, FormatS16, 1), 4000, 0)
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, frame.Duration())
}
