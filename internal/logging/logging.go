// Package logging configures the application's structured loggers.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/audiograph/streambridge/internal/conf"
	"gopkg.in/natefinch/lumberjack.v2"
)

var structuredLogger *slog.Logger
var humanReadableLogger *slog.Logger

// structuredOut is the destination of the structured logger: stdout, or
// stdout mirrored into the rotating log file once InitFromConfig enables it.
var structuredOut io.Writer = os.Stdout

const (
	LevelTrace = slog.Level(-8)
	LevelFatal = slog.Level(12)
)

var levelNames = map[slog.Leveler]string{
	LevelTrace: "TRACE",
	LevelFatal: "FATAL",
}

// replaceLevelNames renames the custom TRACE and FATAL levels in log output.
func replaceLevelNames(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		level := a.Value.Any().(slog.Level)
		levelLabel, exists := levelNames[level]
		if !exists {
			levelLabel = level.String()
		}
		a.Value = slog.StringValue(levelLabel)
	}
	return a
}

func newJSONLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevelNames,
	}))
}

func newTextLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevelNames,
	}))
}

// Init initializes the logging system with structured and human-readable loggers.
// Structured logs go to stdout as JSON, human-readable logs to stderr as text.
func Init() {
	structuredOut = os.Stdout
	structuredLogger = newJSONLogger(structuredOut, slog.LevelDebug)
	humanReadableLogger = newTextLogger(os.Stderr, slog.LevelInfo)
	slog.SetDefault(structuredLogger)
}

// InitFromConfig initializes the loggers and, when file logging is enabled in
// logConf, mirrors the structured JSON output into a log file rotated by
// lumberjack. It returns a close function for the file writer; the function
// is a no-op when file logging is off or its setup failed. On setup failure
// the console loggers from Init are already in place, so the caller can log
// the returned error and continue.
func InitFromConfig(logConf *conf.LogConfig) (func() error, error) {
	Init()

	noop := func() error { return nil }
	if logConf == nil || !logConf.Enabled {
		return noop, nil
	}

	logWriter, err := newRotationWriter(logConf)
	if err != nil {
		return noop, err
	}

	structuredOut = io.MultiWriter(os.Stdout, logWriter)
	structuredLogger = newJSONLogger(structuredOut, slog.LevelDebug)
	slog.SetDefault(structuredLogger)

	return logWriter.Close, nil
}

// newRotationWriter builds the lumberjack writer for the configured log file,
// creating the log directory and mapping the rotation settings onto
// lumberjack's size, age and backup knobs.
func newRotationWriter(logConf *conf.LogConfig) (*lumberjack.Logger, error) {
	// lumberjack does not create directories
	logDir := filepath.Dir(logConf.Path)
	if logDir != "." {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
		}
	}

	logWriter := &lumberjack.Logger{
		Filename: logConf.Path,
		Compress: false,
	}

	maxSizeMB := 100
	maxBackups := 3
	maxAge := 28 // days

	configMaxSizeMB := int(logConf.MaxSize / (1024 * 1024))
	if configMaxSizeMB > 0 {
		maxSizeMB = configMaxSizeMB
	}

	switch logConf.Rotation {
	case conf.RotationDaily:
		maxAge = 1
		maxBackups = 30
	case conf.RotationWeekly:
		maxAge = 7
		maxBackups = 4
	case conf.RotationSize:
		// size-based rotation uses the values derived above
	default:
		slog.Warn("Unknown log rotation type in config, using size-based defaults", "configuredType", logConf.Rotation)
	}

	logWriter.MaxSize = maxSizeMB
	logWriter.MaxBackups = maxBackups
	logWriter.MaxAge = maxAge

	return logWriter, nil
}

// SetLevel rebuilds both loggers with the given minimum level. The structured
// logger keeps the destination chosen at initialization, so a level change
// does not detach the rotating file output.
func SetLevel(level slog.Level) {
	structuredLogger = newJSONLogger(structuredOut, level)
	humanReadableLogger = newTextLogger(os.Stderr, level)
	slog.SetDefault(structuredLogger)
}

// SetOutput redirects logger output, e.g. to capture logs in tests.
func SetOutput(structuredOutput, humanReadableOutput io.Writer) {
	structuredOut = structuredOutput
	structuredLogger = newJSONLogger(structuredOut, slog.LevelDebug)
	humanReadableLogger = newTextLogger(humanReadableOutput, slog.LevelInfo)
	slog.SetDefault(structuredLogger)
}

// Structured returns the globally configured structured (JSON) logger.
// Returns nil if Init() has not been called.
func Structured() *slog.Logger {
	return structuredLogger
}

// HumanReadable returns the globally configured human-readable (Text) logger.
// Returns nil if Init() has not been called.
func HumanReadable() *slog.Logger {
	return humanReadableLogger
}

// ForService creates a new logger instance with the 'service' attribute added.
// It uses the global structured logger as the base.
// Returns nil if Init() has not been called.
func ForService(serviceName string) *slog.Logger {
	if structuredLogger == nil {
		return nil
	}
	return structuredLogger.With("service", serviceName)
}

// Debug logs a debug message using the default slog logger.
func Debug(msg string, args ...any) {
	slog.Debug(msg, args...)
}

// Info logs an info message using the default slog logger.
func Info(msg string, args ...any) {
	slog.Info(msg, args...)
}

// Warn logs a warning message using the default slog logger.
func Warn(msg string, args ...any) {
	slog.Warn(msg, args...)
}

// Error logs an error message using the default slog logger.
func Error(msg string, args ...any) {
	slog.Error(msg, args...)
}
