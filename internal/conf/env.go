// env.go - Environment variable configuration and validation for audiomix
package conf

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings with validation
func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", "AUDIOMIX_DEBUG", validateEnvBool},

		{"mixer.samplerate", "AUDIOMIX_MIXER_SAMPLERATE", validateEnvSampleRate},
		{"mixer.encoding", "AUDIOMIX_MIXER_ENCODING", nil},
		{"mixer.channels", "AUDIOMIX_MIXER_CHANNELS", validateEnvPositiveInt},
		{"mixer.duration", "AUDIOMIX_MIXER_DURATION", nil},

		{"output.type", "AUDIOMIX_OUTPUT_TYPE", nil},
		{"output.path", "AUDIOMIX_OUTPUT_PATH", nil},

		{"sentry.enabled", "AUDIOMIX_SENTRY_ENABLED", validateEnvBool},
		{"sentry.dsn", "AUDIOMIX_SENTRY_DSN", nil},
		{"metrics.enabled", "AUDIOMIX_METRICS_ENABLED", validateEnvBool},
	}
}

// bindEnvVars sets up environment variable bindings with validation (internal)
func bindEnvVars() error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		if err := viper.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if value := os.Getenv(binding.EnvVar); value != "" && binding.Validate != nil {
			if err := binding.Validate(value); err != nil {
				return fmt.Errorf("invalid value for %s: %w", binding.EnvVar, err)
			}
		}
	}

	if len(warnings) > 0 {
		slog.Warn("environment binding warnings", "warnings", strings.Join(warnings, "; "))
	}

	return nil
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("must be a boolean, got %q", value)
	}
	return nil
}

func validateEnvPositiveInt(value string) error {
	v, err := strconv.Atoi(value)
	if err != nil || v < 1 {
		return fmt.Errorf("must be a positive integer, got %q", value)
	}
	return nil
}

func validateEnvSampleRate(value string) error {
	v, err := strconv.Atoi(value)
	if err != nil || v < MinSampleRate {
		return fmt.Errorf("must be an integer >= %d, got %q", MinSampleRate, value)
	}
	return nil
}
