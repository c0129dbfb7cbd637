// conf/validate.go

package conf

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateAudioSettings(&settings.Audio); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateSynthSettings(&settings.Synth); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateExportSettings(&settings.Export); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateLogConfig(&settings.Main.Log); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

// validateAudioSettings validates the output stream settings
func validateAudioSettings(settings *AudioSettings) error {
	var errs []string

	validPlatforms := []string{PlatformMalgo, PlatformPortAudio, PlatformNull}
	if !slices.Contains(validPlatforms, settings.Platform) {
		errs = append(errs, fmt.Sprintf("audio platform must be one of %v, got %q", validPlatforms, settings.Platform))
	}

	if settings.SampleRate < 0 {
		errs = append(errs, fmt.Sprintf("audio sample rate must be 0 or positive, got %d", settings.SampleRate))
	}
	if settings.SampleRate != 0 && (settings.SampleRate < 8000 || settings.SampleRate > 192000) {
		errs = append(errs, fmt.Sprintf("audio sample rate must be between 8000 and 192000 Hz, got %d", settings.SampleRate))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// validateSynthSettings validates the signal generator settings
func validateSynthSettings(settings *SynthSettings) error {
	var errs []string

	if settings.Wave != WaveSine && settings.Wave != WaveSweep {
		errs = append(errs, fmt.Sprintf("synth wave must be sine or sweep, got %q", settings.Wave))
	}

	if settings.Frequency <= 0 {
		errs = append(errs, fmt.Sprintf("synth frequency must be positive, got %g", settings.Frequency))
	}

	if settings.SweepFrom <= 0 || settings.SweepTo <= 0 {
		errs = append(errs, "synth sweep frequencies must be positive")
	}

	if settings.Gain < 0 || settings.Gain > 1 {
		errs = append(errs, fmt.Sprintf("synth gain must be between 0.0 and 1.0, got %g", settings.Gain))
	}

	if settings.Duration < 0 {
		errs = append(errs, fmt.Sprintf("synth duration must not be negative, got %g", settings.Duration))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// validateExportSettings validates the WAV export settings
func validateExportSettings(settings *ExportSettings) error {
	var errs []string

	if settings.Enabled && settings.Path == "" {
		errs = append(errs, "export path must be set when export is enabled")
	}

	switch settings.BitDepth {
	case 16, 24, 32:
	default:
		errs = append(errs, fmt.Sprintf("export bit depth must be 16, 24 or 32, got %d", settings.BitDepth))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// validateLogConfig validates the log rotation settings
func validateLogConfig(config *LogConfig) error {
	if !config.Enabled {
		return nil
	}

	var errs []string

	if config.Path == "" {
		errs = append(errs, "log path must be set when logging is enabled")
	}

	switch config.Rotation {
	case RotationDaily, RotationWeekly, RotationSize:
	default:
		errs = append(errs, fmt.Sprintf("log rotation must be daily, weekly or size, got %q", config.Rotation))
	}

	if config.Rotation == RotationSize && config.MaxSize <= 0 {
		errs = append(errs, "log maxsize must be positive for size rotation")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}
