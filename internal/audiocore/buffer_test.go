package audiocore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/audiomix/internal/errors"
)

func newTestBuffer(t *testing.T, encoding SampleFormat, channels, numSamples int) *SampleBuffer {
	t.Helper()
	b, err := AllocateBuffer(MustAudioFormat(44100, encoding, channels), numSamples, 0)
	require.NoError(t, err)
	return b
}

func TestSampleBufferCursor(t *testing.T) {
	t.Parallel()

	b := newTestBuffer(t, FormatS16, 2, 8)
	assert.Equal(t, 8, b.Capacity())
	assert.Equal(t, 8, b.Limit())
	assert.Equal(t, 0, b.Position())
	assert.Equal(t, 2, b.Channels())
	assert.Equal(t, 8, b.Remaining())

	require.NoError(t, b.Put(1))
	assert.Equal(t, 0, b.Position())
	assert.Equal(t, 1, b.Channel())
	require.NoError(t, b.Put(2))
	assert.Equal(t, 1, b.Position())
	assert.Equal(t, 0, b.Channel())

	require.NoError(t, b.SetPosition(3))
	assert.Equal(t, 3, b.Position(), "position maps to the first channel of the frame")
	assert.Equal(t, 0, b.Channel())

	require.NoError(t, b.SetChannel(1))
	assert.Equal(t, 3, b.Position())
	assert.Equal(t, 1, b.Channel())
	require.Error(t, b.SetChannel(2))

	require.NoError(t, b.SetPosition(4))
	b.Flip()
	assert.Equal(t, 4, b.Limit())
	assert.Equal(t, 0, b.Position())

	require.Error(t, b.SetPosition(5), "position cannot pass the limit")
	require.Error(t, b.SetLimit(9))
	require.Error(t, b.SetPosition(-1))

	require.NoError(t, b.SetPosition(2))
	require.NoError(t, b.SetLimit(1))
	assert.Equal(t, 1, b.Position(), "position follows a lowered limit")

	b.Clear()
	assert.Equal(t, 8, b.Limit())
	assert.Equal(t, 0, b.Position())

	require.NoError(t, b.SetPosition(5))
	b.Rewind()
	assert.Equal(t, 0, b.Position())
	assert.Equal(t, 8, b.Limit())
}

func TestSampleBufferGetPut(t *testing.T) {
	t.Parallel()

	b := newTestBuffer(t, FormatS16, 1, 3)
	for _, v := range []float64{100, -200, 300} {
		require.NoError(t, b.Put(v))
	}
	err := b.Put(1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBufferOverflow))
	assert.True(t, errors.IsCategory(err, errors.CategoryBuffer))

	b.Flip()
	var got []float64
	for b.HasRemaining() {
		v, err := b.Get()
		require.NoError(t, err)
		got = append(got, v)
	}
	assert.Equal(t, []float64{100, -200, 300}, got)

	_, err = b.Get()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBufferUnderflow))
}

func TestSampleBufferSingleSampleOps(t *testing.T) {
	t.Parallel()

	b := newTestBuffer(t, FormatS16, 1, 3)
	require.NoError(t, b.Fill(1000))
	b.Rewind()

	require.NoError(t, b.MixSample(500))
	require.NoError(t, b.Scale(0.5))
	require.NoError(t, b.Silence())
	assert.False(t, b.HasRemaining())
	require.Error(t, b.MixSample(1))
	require.Error(t, b.Scale(1))
	require.Error(t, b.Silence())

	b.Rewind()
	for _, want := range []float64{1500, 500, 0} {
		v, err := b.Get()
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}
}

func TestSampleBufferSilentScenario(t *testing.T) {
	t.Parallel()

	b := newTestBuffer(t, FormatS16, 2, 1024)
	assert.Equal(t, 0.0, b.SilentSample())
	require.NoError(t, b.Fill(b.SilentSample()))
	assert.Equal(t, b.Limit(), b.Position())

	b.Rewind()
	require.NoError(t, b.ScaleAll(2.0))
	for _, v := range b.Frame().Data {
		assert.Equal(t, byte(0), v)
	}
}

func TestSampleBufferUnsignedAllocationIsSilent(t *testing.T) {
	t.Parallel()

	for _, enc := range []SampleFormat{FormatU8, FormatU16, FormatU32, FormatU16P} {
		b := newTestBuffer(t, enc, 2, 4)
		for b.HasRemaining() {
			v, err := b.Get()
			require.NoError(t, err)
			assert.Equal(t, b.SilentSample(), v, enc.String())
		}
	}
}

func TestSampleBufferBulkOps(t *testing.T) {
	t.Parallel()

	src := newTestBuffer(t, FormatS16, 2, 4)
	require.NoError(t, src.Fill(10000))
	src.Rewind()

	dst := newTestBuffer(t, FormatS16, 2, 4)
	require.NoError(t, dst.Fill(30000))
	dst.Rewind()

	require.NoError(t, dst.Mix(src))
	assert.False(t, src.HasRemaining())
	assert.False(t, dst.HasRemaining())

	dst.Rewind()
	v, err := dst.Get()
	require.NoError(t, err)
	assert.Equal(t, 32767.0, v, "mix saturates")

	// Unity scale leaves samples unchanged
	dst.Rewind()
	require.NoError(t, dst.ScaleAll(1.0))
	dst.Rewind()
	v, err = dst.Get()
	require.NoError(t, err)
	assert.Equal(t, 32767.0, v)

	// Copy two frames from src into dst
	src.Rewind()
	require.NoError(t, src.SetLimit(2))
	dst.Clear()
	require.NoError(t, dst.WriteFrom(src))
	assert.Equal(t, 2, dst.Position())

	// Read needs src to have at least dst.Remaining()
	src.Clear()
	require.NoError(t, src.SetLimit(1))
	dst.Clear()
	err = src.ReadInto(dst)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBufferUnderflow))

	src.Clear()
	dst.Clear()
	require.NoError(t, dst.SetLimit(3))
	require.NoError(t, src.ReadInto(dst))
	assert.Equal(t, 3, src.Position())
	assert.Equal(t, 3, dst.Position())

	// Overflow when the source has more than fits
	src.Clear()
	dst.Clear()
	require.NoError(t, dst.SetLimit(1))
	err = dst.Mix(src)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBufferOverflow))
}

func TestSampleBufferFormatMismatch(t *testing.T) {
	t.Parallel()

	a := newTestBuffer(t, FormatS16, 2, 4)
	b := newTestBuffer(t, FormatS16, 1, 4)
	err := a.Mix(b)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIncompatibleFormat))
	assert.True(t, errors.IsCategory(err, errors.CategoryState))

	c, err := AllocateBuffer(MustAudioFormat(48000, FormatS16, 2), 4, 0)
	require.NoError(t, err)
	for name, err := range map[string]error{
		"write_from": a.WriteFrom(c),
		"read_into":  a.ReadInto(c),
		"mix":        a.Mix(c),
	} {
		assert.True(t, errors.Is(err, ErrIncompatibleFormat), name)
		assert.True(t, errors.IsCategory(err, errors.CategoryState), name)
	}
	require.Error(t, a.Mix(nil))
}

func TestSampleBufferClose(t *testing.T) {
	t.Parallel()

	b := newTestBuffer(t, FormatF32, 1, 4)
	require.NoError(t, b.Close())
	assert.True(t, b.IsClosed())
	require.NoError(t, b.Close(), "double close is a no-op")

	_, err := b.Get()
	assert.True(t, errors.Is(err, ErrBufferClosed))
	assert.True(t, errors.Is(b.Put(0), ErrBufferClosed))
	assert.True(t, errors.Is(b.ScaleAll(1), ErrBufferClosed))
	assert.True(t, errors.Is(b.Fill(0), ErrBufferClosed))
	assert.True(t, errors.Is(b.SetPosition(0), ErrBufferClosed))

	open := newTestBuffer(t, FormatF32, 1, 4)
	assert.True(t, errors.Is(open.Mix(b), ErrBufferClosed))

	// the format outlives the frame
	assert.Nil(t, b.Frame())
	assert.Equal(t, MustAudioFormat(44100, FormatF32, 1), b.Format())
}

func TestSampleBufferPlanarLayout(t *testing.T) {
	t.Parallel()

	b := newTestBuffer(t, FormatS16P, 2, 3)
	// Interleaved cursor order: L0 R0 L1 R1 L2 R2
	for _, v := range []float64{1, -1, 2, -2, 3, -3} {
		require.NoError(t, b.Put(v))
	}

	// Planar storage: L0 L1 L2 R0 R1 R2
	c := CodecFor(FormatS16)
	var stored []float64
	for i := 0; i < 6; i++ {
		stored = append(stored, c.Load(b.Frame().Data[i*2:]))
	}
	assert.Equal(t, []float64{1, 2, 3, -1, -2, -3}, stored)

	// Planar copies preserve channel order
	dst := newTestBuffer(t, FormatS16P, 2, 3)
	b.Rewind()
	require.NoError(t, dst.WriteFrom(b))
	assert.Equal(t, b.Frame().Data, dst.Frame().Data)
}

func TestWrapBuffer(t *testing.T) {
	t.Parallel()

	frame, err := NewFrame(MustAudioFormat(8000, FormatU8, 1), 4, 0)
	require.NoError(t, err)
	b, err := WrapBuffer(frame)
	require.NoError(t, err)
	require.NoError(t, b.Put(255))
	assert.Equal(t, byte(255), frame.Data[0], "writes go to the wrapped frame")
	assert.Same(t, frame, b.Frame())
	assert.Equal(t, frame.Format, b.Format())

	frame.NumSamples = 9
	_, err = WrapBuffer(frame)
	require.Error(t, err)
}
