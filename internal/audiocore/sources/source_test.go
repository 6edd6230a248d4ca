package sources

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/audiomix/internal/audiocore"
	"github.com/tphakala/audiomix/internal/errors"
)

type frameRecorder struct {
	frames []*audiocore.Frame
	err    error
}

func (r *frameRecorder) OnFrame(frame *audiocore.Frame) error {
	if r.err != nil {
		return r.err
	}
	r.frames = append(r.frames, frame)
	return nil
}

func (r *frameRecorder) values(t *testing.T) []float64 {
	t.Helper()
	var out []float64
	for _, f := range r.frames {
		b, err := audiocore.WrapBuffer(f)
		require.NoError(t, err)
		for b.HasRemaining() {
			v, err := b.Get()
			require.NoError(t, err)
			out = append(out, v)
		}
	}
	return out
}

// writeWAV writes interleaved integer samples with the go-audio encoder
func writeWAV(t *testing.T, path string, rate, bitDepth, channels int, data []int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	enc := wav.NewEncoder(f, rate, bitDepth, channels, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{SampleRate: rate, NumChannels: channels},
		SourceBitDepth: bitDepth,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())
}

func TestToneSourceReadSequence(t *testing.T) {
	t.Parallel()

	format := audiocore.MustAudioFormat(8000, audiocore.FormatS16, 1)
	src, err := NewToneSource(format, 1000, 10, 4)
	require.NoError(t, err)

	rec := &frameRecorder{}
	require.True(t, src.AddListener(rec))

	_, err = src.Read()
	require.ErrorIs(t, err, audiocore.ErrSourceNotOpen)
	assert.True(t, errors.IsCategory(err, errors.CategoryState))

	require.NoError(t, src.Open())
	require.NoError(t, src.Open(), "open is idempotent")
	assert.Equal(t, format, src.Format())

	for range 3 {
		more, err := src.Read()
		require.NoError(t, err)
		assert.True(t, more)
	}
	more, err := src.Read()
	require.NoError(t, err)
	assert.False(t, more)
	assert.True(t, src.EOF())

	require.Len(t, rec.frames, 3)
	assert.Equal(t, []int{4, 4, 2}, []int{rec.frames[0].NumSamples, rec.frames[1].NumSamples, rec.frames[2].NumSamples})
	assert.Equal(t, []int64{0, 4, 8}, []int64{rec.frames[0].PTS, rec.frames[1].PTS, rec.frames[2].PTS})
	for _, v := range rec.values(t) {
		assert.InDelta(t, 1000.0, v, 0)
	}

	more, err = src.Read()
	require.NoError(t, err)
	assert.False(t, more, "reads after the end keep returning false")

	require.NoError(t, src.Close())
	assert.False(t, src.EOF())
	assert.False(t, src.IsOpen())
	require.NoError(t, src.Close(), "close is idempotent")
}

func TestSourceReopenRestartsStream(t *testing.T) {
	t.Parallel()

	format := audiocore.MustAudioFormat(8000, audiocore.FormatS16, 2)
	src, err := NewToneSource(format, 5, 6, 6)
	require.NoError(t, err)
	rec := &frameRecorder{}
	src.AddListener(rec)

	require.NoError(t, src.Open())
	require.NoError(t, src.ReadAll())
	require.NoError(t, src.Close())
	require.NoError(t, src.Open())
	require.NoError(t, src.ReadAll())

	require.Len(t, rec.frames, 2)
	assert.Equal(t, int64(0), rec.frames[1].PTS)
}

func TestSourceListeners(t *testing.T) {
	t.Parallel()

	format := audiocore.MustAudioFormat(8000, audiocore.FormatS16, 1)
	src, err := NewToneSource(format, 100, 4, 4)
	require.NoError(t, err)

	a, b := &frameRecorder{}, &frameRecorder{}
	assert.False(t, src.AddListener(nil))
	assert.True(t, src.AddListener(a))
	assert.False(t, src.AddListener(a), "duplicate listener")
	assert.True(t, src.AddListener(b))
	assert.Equal(t, 2, src.Listeners())

	require.NoError(t, src.Open())
	require.NoError(t, src.ReadAll())
	require.Len(t, a.frames, 1)
	require.Len(t, b.frames, 1)
	assert.NotSame(t, a.frames[0], b.frames[0], "each listener owns its frame")

	assert.True(t, src.RemoveListener(a))
	assert.False(t, src.RemoveListener(a))
	assert.False(t, src.RemoveListener(nil))
	assert.Equal(t, 1, src.Listeners())
}

func TestSourceListenerError(t *testing.T) {
	t.Parallel()

	format := audiocore.MustAudioFormat(8000, audiocore.FormatS16, 1)
	src, err := NewToneSource(format, 100, 8, 4)
	require.NoError(t, err)
	sentinel := errors.NewStd("listener failed")
	src.AddListener(&frameRecorder{err: sentinel})

	require.NoError(t, src.Open())
	more, err := src.Read()
	assert.False(t, more)
	require.ErrorIs(t, err, sentinel)
}

func TestNewToneSourceValidation(t *testing.T) {
	t.Parallel()

	format := audiocore.MustAudioFormat(8000, audiocore.FormatS16, 1)
	_, err := NewToneSource(format, 0, -1, 4)
	require.Error(t, err)
	_, err = NewToneSource(format, 0, 10, 0)
	require.Error(t, err)
	_, err = NewToneSource(audiocore.AudioFormat{}, 0, 10, 4)
	require.Error(t, err)
}

func TestSineSourceAmplitude(t *testing.T) {
	t.Parallel()

	format := audiocore.MustAudioFormat(8000, audiocore.FormatF32, 1)
	src, err := NewSineSource(format, 1000, 0.5, 8000, 1024)
	require.NoError(t, err)
	rec := &frameRecorder{}
	src.AddListener(rec)
	require.NoError(t, src.Open())
	require.NoError(t, src.ReadAll())

	values := rec.values(t)
	require.Len(t, values, 8000)
	peak := 0.0
	for _, v := range values {
		peak = max(peak, v)
	}
	assert.InDelta(t, 0.5, peak, 1e-6)
	assert.InDelta(t, 0.0, values[0], 1e-9)
}

func TestWAVSourceDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		bitDepth int
		channels int
		data     []int
		encoding audiocore.SampleFormat
		want     []float64
	}{
		{
			name:     "16 bit stereo",
			bitDepth: 16,
			channels: 2,
			data:     []int{100, -100, 32767, -32768, 0, 1},
			encoding: audiocore.FormatS16,
			want:     []float64{100, -100, 32767, -32768, 0, 1},
		},
		{
			name:     "8 bit mono",
			bitDepth: 8,
			channels: 1,
			data:     []int{0, 128, 255, 1},
			encoding: audiocore.FormatU8,
			want:     []float64{0, 128, 255, 1},
		},
		{
			name:     "24 bit widened",
			bitDepth: 24,
			channels: 1,
			data:     []int{1, -1, 8388607},
			encoding: audiocore.FormatS32,
			want:     []float64{256, -256, 8388607 * 256},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "in.wav")
			writeWAV(t, path, 16000, tt.bitDepth, tt.channels, tt.data)

			src := NewWAVSource(path)
			rec := &frameRecorder{}
			src.AddListener(rec)
			require.NoError(t, src.Open())
			defer func() { assert.NoError(t, src.Close()) }()

			assert.Equal(t, audiocore.MustAudioFormat(16000, tt.encoding, tt.channels), src.Format())
			require.NoError(t, src.ReadAll())
			assert.Equal(t, tt.want, rec.values(t))
		})
	}
}

func TestAIFFSourceDecode(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "in.aiff")
	f, err := os.Create(path)
	require.NoError(t, err)
	enc := aiff.NewEncoder(f, 22050, 16, 2)
	data := []int{1000, -1000, 2000, -2000, 32767, -32768}
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{SampleRate: 22050, NumChannels: 2},
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	src, err := Open(path)
	require.NoError(t, err)
	rec := &frameRecorder{}
	src.AddListener(rec)
	require.NoError(t, src.Open())
	defer func() { assert.NoError(t, src.Close()) }()

	assert.Equal(t, audiocore.MustAudioFormat(22050, audiocore.FormatS16, 2), src.Format())
	require.NoError(t, src.ReadAll())
	assert.Equal(t, []float64{1000, -1000, 2000, -2000, 32767, -32768}, rec.values(t))
}

func TestWAVSourceLongFileSplitsFrames(t *testing.T) {
	t.Parallel()

	n := DefaultFrameSamples + 10
	data := make([]int, n)
	for i := range data {
		data[i] = i % 1000
	}
	path := filepath.Join(t.TempDir(), "long.wav")
	writeWAV(t, path, 8000, 16, 1, data)

	src := NewWAVSource(path)
	rec := &frameRecorder{}
	src.AddListener(rec)
	require.NoError(t, src.Open())
	require.NoError(t, src.ReadAll())
	require.NoError(t, src.Close())

	require.Len(t, rec.frames, 2)
	assert.Equal(t, DefaultFrameSamples, rec.frames[0].NumSamples)
	assert.Equal(t, int64(DefaultFrameSamples), rec.frames[1].PTS)
	assert.Equal(t, 10, rec.frames[1].NumSamples)
}

func TestWAVSourceInvalidFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.wav")
	require.NoError(t, os.WriteFile(path, []byte("definitely not riff data"), 0o600))

	src := NewWAVSource(path)
	err := src.Open()
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryAudioSource))
	assert.False(t, src.IsOpen())

	missing := NewWAVSource(filepath.Join(t.TempDir(), "missing.wav"))
	require.Error(t, missing.Open())
}

func TestOpenByExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path    string
		typ     string
		wantErr bool
	}{
		{"a.wav", "wav", false},
		{"a.WAV", "wav", false},
		{"a.flac", "flac", false},
		{"a.mp3", "mp3", false},
		{"a.ogg", "vorbis", false},
		{"a.aiff", "aiff", false},
		{"a.AIF", "aiff", false},
		{"a.opus", "", true},
		{"noext", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			src, err := Open(tt.path)
			assert.Equal(t, !tt.wantErr, IsSupported(tt.path))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.typ, src.Type())
			assert.NotEmpty(t, src.ID())
		})
	}
}

func TestProbeWAV(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "probe.wav")
	writeWAV(t, path, 8000, 16, 2, make([]int, 2000))

	props, err := Probe(path)
	require.NoError(t, err)
	assert.Equal(t, "pcm_wav", props.CodecName)
	assert.Equal(t, audiocore.MustAudioFormat(8000, audiocore.FormatS16, 2), props.Format)
	assert.Equal(t, 8000*16*2, props.BitRate)
	// only the data chunk counts, not the headers
	assert.Equal(t, 125*time.Millisecond, props.Duration)
	assert.Equal(t, time.Duration(0), props.StartTime)
	assert.NotNil(t, props.Metadata)
}

func TestProbeWAVDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		rate     int
		bitDepth int
		channels int
		frames   int
		want     time.Duration
	}{
		{"8 bit mono", 8000, 8, 1, 4000, 500 * time.Millisecond},
		{"16 bit stereo", 8000, 16, 2, 1000, 125 * time.Millisecond},
		{"24 bit stereo", 48000, 24, 2, 4800, 100 * time.Millisecond},
		{"32 bit mono", 16000, 32, 1, 1600, 100 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), "d.wav")
			writeWAV(t, path, tt.rate, tt.bitDepth, tt.channels, make([]int, tt.frames*tt.channels))

			props, err := Probe(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, props.Duration)
		})
	}
}

func TestProbeCache(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "cached.wav")
	writeWAV(t, path, 8000, 16, 1, make([]int, 800))

	pc := NewProbeCache(time.Minute)
	first, err := pc.Probe(path)
	require.NoError(t, err)
	second, err := pc.Probe(path)
	require.NoError(t, err)
	assert.Same(t, first, second)

	hits, misses := pc.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
	assert.Equal(t, 1, pc.Len())

	// A rewritten file gets a new key
	writeWAV(t, path, 8000, 16, 1, make([]int, 1600))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))
	third, err := pc.Probe(path)
	require.NoError(t, err)
	assert.NotSame(t, first, third)

	pc.Flush()
	assert.Equal(t, 0, pc.Len())

	_, err = pc.Probe(filepath.Join(dir, "missing.wav"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileIO))
}

func TestNewInputPropertiesValidation(t *testing.T) {
	t.Parallel()

	format := audiocore.MustAudioFormat(44100, audiocore.FormatS16, 2)
	tests := []struct {
		name     string
		codec    string
		format   audiocore.AudioFormat
		bitRate  int
		duration time.Duration
		wantErr  bool
	}{
		{"valid", "flac", format, 1000, time.Second, false},
		{"zero bit rate", "flac", format, 0, 0, false},
		{"empty codec", "", format, 1000, time.Second, true},
		{"negative bit rate", "flac", format, -1, time.Second, true},
		{"negative duration", "flac", format, 1000, -time.Second, true},
		{"invalid format", "flac", audiocore.AudioFormat{SampleRate: 100}, 1000, time.Second, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			md := map[string]string{"title": "x"}
			props, err := NewInputProperties("in.flac", tt.codec, tt.format, tt.bitRate, 0, tt.duration, md)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			md["title"] = "changed"
			assert.Equal(t, "x", props.Metadata["title"], "metadata is copied")
		})
	}
}
