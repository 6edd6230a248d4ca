package audiocore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/audiomix/internal/errors"
)

// rampFrame returns a frame whose samples count up from start.
func rampFrame(t *testing.T, format AudioFormat, numSamples int, start float64) *Frame {
	t.Helper()
	b, err := AllocateBuffer(format, numSamples, 0)
	require.NoError(t, err)
	v := start
	for b.HasRemaining() {
		require.NoError(t, b.Put(v))
		v++
	}
	return b.Frame()
}

func frameValues(t *testing.T, frame *Frame) []float64 {
	t.Helper()
	b, err := WrapBuffer(frame)
	require.NoError(t, err)
	values := make([]float64, 0, frame.NumSamples*frame.Format.Channels)
	for b.HasRemaining() {
		v, err := b.Get()
		require.NoError(t, err)
		values = append(values, v)
	}
	return values
}

func TestFifoBufferRoundTrip(t *testing.T) {
	t.Parallel()

	format := MustAudioFormat(44100, FormatS16, 2)
	testCases := []struct {
		name string
		n    int
	}{
		{"below capacity", 10},
		{"at capacity", 15},
		{"above capacity", 40},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			fifo, err := NewFifoBuffer(format, 16)
			require.NoError(t, err)
			assert.Equal(t, 15, fifo.Capacity())

			src := rampFrame(t, format, tc.n, 1)
			require.NoError(t, fifo.Put(src, 0, tc.n))
			assert.Equal(t, tc.n, fifo.Delay())

			dst, err := NewFrame(format, tc.n, 0)
			require.NoError(t, err)
			require.NoError(t, fifo.Get(dst, 0, tc.n))
			assert.Equal(t, 0, fifo.Delay())
			assert.Equal(t, frameValues(t, src), frameValues(t, dst))
		})
	}
}

func TestFifoBufferGrowthPreservesUnreadData(t *testing.T) {
	t.Parallel()

	format := MustAudioFormat(8000, FormatS16, 1)
	fifo, err := NewFifoBuffer(format, 8)
	require.NoError(t, err)

	var grown [][2]int
	fifo.OnGrow(func(oldCap, newCap int) { grown = append(grown, [2]int{oldCap, newCap}) })

	// Move head and tail off zero so the live data wraps
	first := rampFrame(t, format, 5, 1)
	require.NoError(t, fifo.Put(first, 0, 5))
	scratch, err := NewFrame(format, 4, 0)
	require.NoError(t, err)
	require.NoError(t, fifo.Get(scratch, 0, 4))
	assert.Equal(t, []float64{1, 2, 3, 4}, frameValues(t, scratch))

	second := rampFrame(t, format, 5, 6)
	require.NoError(t, fifo.Put(second, 0, 5))
	assert.Equal(t, 6, fifo.Delay())
	assert.Empty(t, grown, "6 of 7 samples queued, no growth yet")

	third := rampFrame(t, format, 3, 11)
	preDelay := fifo.Delay()
	require.NoError(t, fifo.Put(third, 0, 3))
	require.Len(t, grown, 1)
	assert.Equal(t, [2]int{7, 14}, grown[0], "capacity doubles plus one allocation")
	assert.Equal(t, preDelay+3, fifo.Delay())

	out, err := NewFrame(format, 9, 0)
	require.NoError(t, err)
	require.NoError(t, fifo.Get(out, 0, 9))
	assert.Equal(t, []float64{5, 6, 7, 8, 9, 10, 11, 12, 13}, frameValues(t, out))
}

func TestFifoBufferGrowsToFitLargeWrite(t *testing.T) {
	t.Parallel()

	format := MustAudioFormat(8000, FormatF32, 1)
	fifo, err := NewFifoBuffer(format, 4)
	require.NoError(t, err)

	src, err := NewFrame(format, 100, 0)
	require.NoError(t, err)
	require.NoError(t, fifo.Put(src, 0, 100))
	// max(2*3+1, 3+100+1) allocated, one less usable
	assert.Equal(t, 103, fifo.Capacity())
	assert.Equal(t, 100, fifo.Delay())
}

func TestFifoBufferPartialRanges(t *testing.T) {
	t.Parallel()

	format := MustAudioFormat(8000, FormatS16, 2)
	fifo, err := NewFifoBuffer(format, 32)
	require.NoError(t, err)

	src := rampFrame(t, format, 6, 1)
	require.NoError(t, fifo.Put(src, 2, 3))
	assert.Equal(t, 3, fifo.Delay())

	dst, err := NewFrame(format, 5, 0)
	require.NoError(t, err)
	require.NoError(t, fifo.Get(dst, 1, 3))
	assert.Equal(t, []float64{0, 0, 5, 6, 7, 8, 9, 10, 0, 0}, frameValues(t, dst))
}

func TestFifoBufferErrors(t *testing.T) {
	t.Parallel()

	format := MustAudioFormat(44100, FormatS16, 2)
	fifo, err := NewFifoBuffer(format, 16)
	require.NoError(t, err)

	dst, err := NewFrame(format, 4, 0)
	require.NoError(t, err)
	err = fifo.Get(dst, 0, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBufferUnderflow))

	mono, err := NewFrame(MustAudioFormat(44100, FormatS16, 1), 4, 0)
	require.NoError(t, err)
	err = fifo.Put(mono, 0, 4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIncompatibleFormat))
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))

	otherRate, err := NewFrame(MustAudioFormat(48000, FormatS16, 2), 4, 0)
	require.NoError(t, err)
	assert.True(t, errors.Is(fifo.Put(otherRate, 0, 4), ErrIncompatibleFormat))

	require.Error(t, fifo.Put(dst, 3, 2), "range past the end of the frame")
	require.Error(t, fifo.Put(dst, -1, 1))
	require.Error(t, fifo.Put(dst, 0, -1))
	require.Error(t, fifo.Put(nil, 0, 0))

	_, err = NewFifoBuffer(format, 1)
	require.Error(t, err)
}

func TestFifoBufferClearAndClose(t *testing.T) {
	t.Parallel()

	format := MustAudioFormat(44100, FormatU8, 1)
	fifo, err := NewFifoBuffer(format, 16)
	require.NoError(t, err)
	assert.Equal(t, format, fifo.Format())

	src := rampFrame(t, format, 5, 100)
	require.NoError(t, fifo.Put(src, 0, 5))
	fifo.Clear()
	assert.Equal(t, 0, fifo.Delay())
	assert.Equal(t, 15, fifo.Capacity(), "clear keeps the allocation")

	require.NoError(t, fifo.Close())
	require.NoError(t, fifo.Close())
	assert.True(t, fifo.IsClosed())
	assert.True(t, errors.Is(fifo.Put(src, 0, 1), ErrBufferClosed))
}

func TestFifoBufferPlanar(t *testing.T) {
	t.Parallel()

	format := MustAudioFormat(8000, FormatS16P, 2)
	fifo, err := NewFifoBuffer(format, 4)
	require.NoError(t, err)

	src := rampFrame(t, format, 5, 1)
	require.NoError(t, fifo.Put(src, 0, 5))

	dst, err := NewFrame(format, 5, 0)
	require.NoError(t, err)
	require.NoError(t, fifo.Get(dst, 0, 5))
	assert.Equal(t, src.Data, dst.Data)
}
