// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "audiomix")
	viper.SetDefault("main.log.enabled", false)
	viper.SetDefault("main.log.path", "logs/audiomix.log")
	viper.SetDefault("main.log.rotation", RotationDaily)
	viper.SetDefault("main.log.maxsize", 10485760)

	viper.SetDefault("mixer.samplerate", 44100)
	viper.SetDefault("mixer.encoding", "s16")
	viper.SetDefault("mixer.channels", 2)
	viper.SetDefault("mixer.maxinputs", 3)
	viper.SetDefault("mixer.dropouttransition", 2.0)
	viper.SetDefault("mixer.duration", "longest")
	viper.SetDefault("mixer.fifosamples", 8192)
	viper.SetDefault("mixer.ticksamples", 1024)

	viper.SetDefault("output.type", "wav")
	viper.SetDefault("output.path", "mix.wav")
	viper.SetDefault("output.bitdepth", 16)
	viper.SetDefault("output.bufferms", 500)
	viper.SetDefault("output.device", "")

	viper.SetDefault("probe.cachettl", 10*time.Minute)

	viper.SetDefault("sentry.enabled", false)
	viper.SetDefault("sentry.dsn", "")

	viper.SetDefault("metrics.enabled", false)
	viper.SetDefault("metrics.textfile", "")
}
