// Package conf loads and provides access to application configuration.
package conf

import (
	"embed"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"

	"github.com/audiograph/streambridge/internal/errors"
)

//go:embed config.yaml
var configFiles embed.FS

// Settings is the root of the application configuration.
type Settings struct {
	Debug bool // true to enable debug level logging

	Main struct {
		Name string    // name of this node, can be used to identify specific streams
		Log  LogConfig // logging configuration
	}

	Audio     AudioSettings     // output stream configuration
	Synth     SynthSettings     // built-in signal generator
	Export    ExportSettings    // WAV capture of rendered audio
	Telemetry TelemetrySettings // error reporting
	Metrics   MetricsSettings   // Prometheus endpoint
}

// Audio platform names accepted in AudioSettings.Platform.
const (
	PlatformMalgo     = "malgo"
	PlatformPortAudio = "portaudio"
	PlatformNull      = "null"
)

// AudioSettings configures the output stream and the platform that renders it.
type AudioSettings struct {
	Platform   string // audio platform to use: malgo, portaudio or null
	Device     string // output device name, empty for system default
	SampleRate int    // requested sample rate in Hz, 0 lets the device decide
}

// Waveform names accepted in SynthSettings.Wave.
const (
	WaveSine  = "sine"
	WaveSweep = "sweep"
)

// SynthSettings configures the built-in test signal generator.
type SynthSettings struct {
	Wave      string  // waveform: sine or sweep
	Frequency float64 // frequency in Hz for sine
	SweepFrom float64 // sweep start frequency in Hz
	SweepTo   float64 // sweep end frequency in Hz
	Gain      float64 // linear output gain, 0.0 to 1.0
	Duration  float64 // playback duration in seconds, 0 for unlimited
}

// ExportSettings configures WAV export of the rendered signal.
type ExportSettings struct {
	Enabled  bool   // export rendered audio to disk
	Path     string // directory for exported files
	BitDepth int    // WAV bit depth: 16, 24 or 32
}

// TelemetrySettings configures the Sentry error reporting integration.
type TelemetrySettings struct {
	Enabled bool   // true to enable telemetry
	Dsn     string // Sentry DSN
}

// MetricsSettings configures the Prometheus metrics endpoint.
type MetricsSettings struct {
	Enabled bool   // true to expose metrics over HTTP
	Listen  string // listen address, e.g. "localhost:8090"
}

// LogConfig defines the configuration for a log file
type LogConfig struct {
	Enabled     bool         // true to enable this log
	Path        string       // Path to the log file
	Rotation    RotationType // Type of log rotation
	MaxSize     int64        // Max size in bytes for RotationSize
	RotationDay string       // Day of the week for RotationWeekly
}

// RotationType defines different types of log rotations.
type RotationType string

const (
	RotationDaily  RotationType = "daily"
	RotationWeekly RotationType = "weekly"
	RotationSize   RotationType = "size"
)

// settingsInstance is the current settings instance
var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a new
// Settings instance and installs it as the active configuration.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}

	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	// function defined in defaults.go
	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found, create config with defaults
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig creates a default config file and writes it to the default config path
func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")
	defaultConfig := getDefaultConfig()

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	fmt.Println("Created default config file at:", configPath)
	return viper.ReadInConfig()
}

// getDefaultConfig reads the default configuration from the embedded config.yaml file.
func getDefaultConfig() string {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}
	return string(data)
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting returns the current settings instance, initializing it if necessary
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			_, err := Load()
			if err != nil {
				log.Fatalf("Error loading settings: %v", err)
			}
		}
	})
	return GetSettings()
}
