package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetViper isolates tests from each other; viper state is global.
func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	resetViper(t)

	path := writeConfig(t, "debug: false\n")
	settings, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 44100, settings.Mixer.SampleRate)
	assert.Equal(t, "s16", settings.Mixer.Encoding)
	assert.Equal(t, 2, settings.Mixer.Channels)
	assert.Equal(t, 3, settings.Mixer.MaxInputs)
	assert.InDelta(t, 2.0, settings.Mixer.DropOutTransition, 1e-9)
	assert.Equal(t, "longest", settings.Mixer.Duration)
	assert.Equal(t, 8192, settings.Mixer.FifoSamples)
	assert.Equal(t, OutputWAV, settings.Output.Type)
	assert.Equal(t, 10*time.Minute, settings.Probe.CacheTTL)
	assert.Same(t, settings, GetSettings())
}

func TestLoadInputs(t *testing.T) {
	resetViper(t)

	path := writeConfig(t, `
mixer:
  samplerate: 48000
  duration: shortest
inputs:
  - path: voice.wav
    volume: 1.5
    trim:
      enabled: true
      start: 1s
      duration: 10s
    fadein:
      enabled: true
      duration: 500ms
      curve: qsin
  - path: music.flac
    balance: -0.25
`)
	settings, err := Load(path)
	require.NoError(t, err)

	require.Len(t, settings.Inputs, 2)
	voice := settings.Inputs[0]
	assert.Equal(t, "voice.wav", voice.Path)
	require.NotNil(t, voice.Volume)
	assert.InDelta(t, 1.5, *voice.Volume, 1e-9)
	assert.Nil(t, voice.Balance)
	assert.Equal(t, time.Second, voice.Trim.Start)
	assert.Equal(t, 10*time.Second, voice.Trim.Duration)
	assert.Equal(t, 500*time.Millisecond, voice.FadeIn.Duration)
	assert.Equal(t, "qsin", voice.FadeIn.Curve)

	music := settings.Inputs[1]
	require.NotNil(t, music.Balance)
	assert.InDelta(t, -0.25, *music.Balance, 1e-9)
	assert.Equal(t, 48000, settings.Mixer.SampleRate)
}

func TestLoadRejectsInvalid(t *testing.T) {
	resetViper(t)

	path := writeConfig(t, `
mixer:
  samplerate: 4000
  encoding: s24
inputs:
  - path: a.wav
    volume: 4
`)
	_, err := Load(path)
	require.Error(t, err)

	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 3)
}

func TestEnvOverride(t *testing.T) {
	resetViper(t)
	t.Setenv("AUDIOMIX_MIXER_SAMPLERATE", "22050")

	settings, err := Load(writeConfig(t, "debug: true\n"))
	require.NoError(t, err)
	assert.Equal(t, 22050, settings.Mixer.SampleRate)
	assert.True(t, settings.Debug)
}

func TestEnvValidation(t *testing.T) {
	resetViper(t)
	t.Setenv("AUDIOMIX_MIXER_SAMPLERATE", "100")

	_, err := Load(writeConfig(t, "debug: false\n"))
	require.Error(t, err)
}

func TestSaveYAMLConfigRoundTrip(t *testing.T) {
	resetViper(t)

	volume := 0.5
	settings, err := Load(writeConfig(t, "debug: false\n"))
	require.NoError(t, err)
	settings.Inputs = []InputSettings{{
		Path:   "a.wav",
		Volume: &volume,
		FadeOut: FadeSettings{
			Enabled:  true,
			Start:    3 * time.Second,
			Duration: time.Second,
			Curve:    "exp",
		},
	}}

	out := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, SaveYAMLConfig(out, settings))

	viper.Reset()
	loaded, err := Load(out)
	require.NoError(t, err)
	require.Len(t, loaded.Inputs, 1)
	assert.Equal(t, settings.Inputs[0].FadeOut, loaded.Inputs[0].FadeOut)
	assert.InDelta(t, 0.5, *loaded.Inputs[0].Volume, 1e-9)
}
