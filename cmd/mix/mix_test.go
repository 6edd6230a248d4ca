package mix

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/audiomix/internal/conf"
	"github.com/tphakala/audiomix/internal/errors"
)

func writeConstWAV(t *testing.T, dir, name string, value, numSamples int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)

	data := make([]int, numSamples)
	for i := range data {
		data[i] = value
	}
	enc := wav.NewEncoder(f, 8000, 16, 1, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{SampleRate: 8000, NumChannels: 1},
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())
	return path
}

func testSettings(out string, inputs ...string) *conf.Settings {
	s := &conf.Settings{
		Mixer: conf.MixerSettings{
			SampleRate:  8000,
			Encoding:    "s16",
			Channels:    1,
			MaxInputs:   3,
			Duration:    "longest",
			FifoSamples: 1024,
			TickSamples: 100,
		},
		Output: conf.OutputSettings{Type: conf.OutputWAV, Path: out, BitDepth: 16},
	}
	for _, in := range inputs {
		s.Inputs = append(s.Inputs, conf.InputSettings{Path: in})
	}
	return s
}

func readWAV(t *testing.T, path string) []int {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	buf, err := wav.NewDecoder(f).FullPCMBuffer()
	require.NoError(t, err)
	return buf.Data
}

func TestRunMixesToWAV(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := writeConstWAV(t, dir, "a.wav", 10000, 800)
	b := writeConstWAV(t, dir, "b.wav", 20000, 800)
	out := filepath.Join(dir, "out", "mix.wav")

	summary, err := Run(t.Context(), testSettings(out, a, b))
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Inputs)
	assert.Equal(t, int64(800), summary.Samples)
	assert.Equal(t, out, summary.Output)
	assert.False(t, summary.Interrupted)
	assert.InDelta(t, 0.1, summary.Duration.Seconds(), 1e-9)

	data := readWAV(t, out)
	require.Len(t, data, 800)
	assert.Equal(t, 15000, data[0])
	assert.Equal(t, 15000, data[799])
}

func TestRunAppliesInputFilters(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	out := filepath.Join(dir, "mix.wav")
	settings := testSettings(out, writeConstWAV(t, dir, "a.wav", 10000, 200))
	volume := 0.5
	settings.Inputs[0].Volume = &volume

	_, err := Run(t.Context(), settings)
	require.NoError(t, err)
	data := readWAV(t, out)
	require.Len(t, data, 200)
	assert.Equal(t, 5000, data[100])
}

func TestRunNullOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	settings := testSettings("", writeConstWAV(t, dir, "a.wav", 1, 250))
	settings.Output.Type = conf.OutputNull

	summary, err := Run(t.Context(), settings)
	require.NoError(t, err)
	assert.Equal(t, conf.OutputNull, summary.Output)
	// the last tick is padded to a full tick
	assert.Equal(t, int64(300), summary.Samples)
}

func TestRunCancelledStillFinalisesOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	out := filepath.Join(dir, "mix.wav")
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	summary, err := Run(ctx, testSettings(out, writeConstWAV(t, dir, "a.wav", 1, 800)))
	require.NoError(t, err)
	assert.True(t, summary.Interrupted)
	assert.Equal(t, int64(0), summary.Samples)
	_, err = os.Stat(out)
	require.NoError(t, err, "the output file is closed, not abandoned")
}

func TestRunErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := Run(t.Context(), testSettings(filepath.Join(dir, "x.wav")))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))

	_, err = Run(t.Context(), testSettings(filepath.Join(dir, "x.wav"), filepath.Join(dir, "missing.wav")))
	require.Error(t, err)

	_, err = Run(t.Context(), testSettings(filepath.Join(dir, "x.wav"), filepath.Join(dir, "song.xm")))
	require.Error(t, err)

	settings := testSettings("", writeConstWAV(t, dir, "a.wav", 1, 10))
	settings.Output.Type = "cassette"
	_, err = Run(t.Context(), settings)
	require.Error(t, err)
}

func TestCommandWritesSummary(t *testing.T) {
	dir := t.TempDir()
	a := writeConstWAV(t, dir, "a.wav", 100, 100)
	settings := testSettings(filepath.Join(dir, "mix.wav"))
	settings.Mixer.MaxInputs = 1

	cmd := Command(settings)
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{a})
	cmd.SetContext(t.Context())
	require.NoError(t, cmd.Execute())

	assert.Contains(t, stdout.String(), "done: mixed 1 inputs, 100 samples")
	require.Len(t, settings.Inputs, 1)
}
