package conf

import (
	"github.com/spf13/viper"
)

// setDefaultConfig sets viper defaults for every configuration parameter.
// Values in the config file or environment override these.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	// Main configuration
	viper.SetDefault("main.name", "StreamBridge")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "logs/streambridge.log")
	viper.SetDefault("main.log.rotation", RotationDaily)
	viper.SetDefault("main.log.maxsize", 10*1024*1024)
	viper.SetDefault("main.log.rotationday", "Sunday")

	// Audio output configuration
	viper.SetDefault("audio.platform", "malgo")
	viper.SetDefault("audio.device", "")
	viper.SetDefault("audio.samplerate", 0)

	// Signal generator configuration
	viper.SetDefault("synth.wave", "sine")
	viper.SetDefault("synth.frequency", 440.0)
	viper.SetDefault("synth.sweepfrom", 110.0)
	viper.SetDefault("synth.sweepto", 3520.0)
	viper.SetDefault("synth.gain", 0.5)
	viper.SetDefault("synth.duration", 0.0)

	// Export configuration
	viper.SetDefault("export.enabled", false)
	viper.SetDefault("export.path", "clips/")
	viper.SetDefault("export.bitdepth", 16)

	// Telemetry configuration
	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.dsn", "")

	// Metrics configuration
	viper.SetDefault("metrics.enabled", false)
	viper.SetDefault("metrics.listen", "localhost:8090")
}
