// config.go: settings struct for audiomix and the functions to load and save it.
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
	"github.com/tphakala/audiomix/internal/errors"
	"gopkg.in/yaml.v3"
)

// LogConfig defines the configuration for a log file
type LogConfig struct {
	Enabled  bool         `yaml:"enabled"`  // true to enable this log
	Path     string       `yaml:"path"`     // Path to the log file
	Rotation RotationType `yaml:"rotation"` // Type of log rotation
	MaxSize  int64        `yaml:"maxsize"`  // Max size in bytes for RotationSize
}

// RotationType defines different types of log rotations.
type RotationType string

const (
	RotationDaily  RotationType = "daily"
	RotationWeekly RotationType = "weekly"
	RotationSize   RotationType = "size"
)

// MainSettings contains application wide settings
type MainSettings struct {
	Name string    `yaml:"name"` // name of the instance, used in logs and telemetry
	Log  LogConfig `yaml:"log"`
}

// MixerSettings configures the output format and behaviour of the mixer
type MixerSettings struct {
	SampleRate        int     `yaml:"samplerate"`        // output sample rate in Hz
	Encoding          string  `yaml:"encoding"`          // output sample encoding, e.g. s16, f32
	Channels          int     `yaml:"channels"`          // output channel count
	MaxInputs         int     `yaml:"maxinputs"`         // number of input slots
	DropOutTransition float64 `yaml:"dropouttransition"` // seconds to settle loudness after an input stops
	Duration          string  `yaml:"duration"`          // first, shortest or longest
	FifoSamples       int     `yaml:"fifosamples"`       // initial per input FIFO size in samples
	TickSamples       int     `yaml:"ticksamples"`       // samples requested per mixer read
}

// OutputSettings selects where mixed audio goes
type OutputSettings struct {
	Type     string `yaml:"type"`     // wav, playback or null
	Path     string `yaml:"path"`     // output file for the wav type
	BitDepth int    `yaml:"bitdepth"` // wav bit depth
	BufferMs int    `yaml:"bufferms"` // playback queue length in milliseconds
	Device   string `yaml:"device"`   // playback device name, empty for the system default
}

// TrimSettings keeps a window of an input and silences the rest
type TrimSettings struct {
	Enabled bool          `yaml:"enabled"`
	Start   time.Duration `yaml:"start"`
	// Duration 0 keeps everything from Start to the end of the input
	Duration time.Duration `yaml:"duration"`
}

// FadeSettings describes a fade in or fade out
type FadeSettings struct {
	Enabled  bool          `yaml:"enabled"`
	Start    time.Duration `yaml:"start"`
	Duration time.Duration `yaml:"duration"`
	Curve    string        `yaml:"curve"`
}

// InputSettings is one mixer input and its filter settings
type InputSettings struct {
	Path    string       `yaml:"path"`
	Trim    TrimSettings `yaml:"trim"`
	Volume  *float64     `yaml:"volume,omitempty"`  // nil means unity gain
	Balance *float64     `yaml:"balance,omitempty"` // nil means centered
	FadeIn  FadeSettings `yaml:"fadein"`
	FadeOut FadeSettings `yaml:"fadeout"`
}

// ProbeSettings controls the input properties cache
type ProbeSettings struct {
	CacheTTL time.Duration `yaml:"cachettl"`
}

// SentrySettings enables optional error telemetry
type SentrySettings struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
}

// MetricsSettings enables prometheus metrics
type MetricsSettings struct {
	Enabled  bool   `yaml:"enabled"`
	TextFile string `yaml:"textfile"` // node exporter textfile written on exit
}

// Settings contains all configuration options for audiomix.
type Settings struct {
	Debug   bool            `yaml:"debug"`
	Main    MainSettings    `yaml:"main"`
	Mixer   MixerSettings   `yaml:"mixer"`
	Output  OutputSettings  `yaml:"output"`
	Inputs  []InputSettings `yaml:"inputs"`
	Probe   ProbeSettings   `yaml:"probe"`
	Sentry  SentrySettings  `yaml:"sentry"`
	Metrics MetricsSettings `yaml:"metrics"`
}

// settingsInstance is the current settings instance
var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into the
// global settings. An empty configPath searches the default locations; a
// missing config file is not an error, defaults apply.
func Load(configPath string) (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(configPath); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "unmarshal_config").
			Build()
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper(configPath string) error {
	setDefaultConfig()

	if err := bindEnvVars(); err != nil {
		return err
	}

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")

		configPaths, err := GetDefaultConfigPaths()
		if err != nil {
			return fmt.Errorf("error getting default config paths: %w", err)
		}
		for _, path := range configPaths {
			viper.AddConfigPath(path)
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return nil
		}
		return errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "read_config").
			FileContext(configPath, 0).
			Build()
	}

	return nil
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting returns the current settings instance, loading defaults if
// nothing has been loaded yet.
func Setting() *Settings {
	once.Do(func() {
		if GetSettings() == nil {
			if _, err := Load(""); err != nil {
				// Defaults always validate; a failure here means a broken
				// config file in a default location.
				fmt.Fprintf(os.Stderr, "error loading settings: %v\n", err)
				settingsMutex.Lock()
				settingsInstance = &Settings{}
				settingsMutex.Unlock()
			}
		}
	})
	return GetSettings()
}

// SaveYAMLConfig writes settings to configPath as YAML.
// It overwrites the existing file, not preserving comments or structure.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("operation", "create_config_dir").
			Build()
	}

	// Write to a temporary file first so the replace is atomic
	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempFileName := tempFile.Name()
	defer os.Remove(tempFileName)

	if _, err := tempFile.Write(yamlData); err != nil {
		tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	if err := os.Rename(tempFileName, configPath); err != nil {
		// Cross-device rename, fall back to copy
		if err := moveFile(tempFileName, configPath); err != nil {
			return fmt.Errorf("error copying config file: %w", err)
		}
	}

	return nil
}

// MarshalYAML renders settings the same way SaveYAMLConfig writes them.
func MarshalYAML(settings *Settings) ([]byte, error) {
	return yaml.Marshal(settings)
}
