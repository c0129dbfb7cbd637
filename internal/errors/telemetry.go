package errors

import (
	"strings"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
)

// TelemetryReporter defines the interface for reporting errors to telemetry
type TelemetryReporter interface {
	ReportError(ee *EnhancedError)
	IsEnabled() bool
}

var (
	telemetryReporter TelemetryReporter
	telemetryMutex    sync.RWMutex
)

// SetTelemetryReporter sets the global telemetry reporter.
// Pass nil to disable reporting entirely.
func SetTelemetryReporter(reporter TelemetryReporter) {
	telemetryMutex.Lock()
	defer telemetryMutex.Unlock()
	telemetryReporter = reporter
	hasActiveReporting.Store(reporter != nil && reporter.IsEnabled())
}

// getTelemetryReporter returns the current telemetry reporter
func getTelemetryReporter() TelemetryReporter {
	telemetryMutex.RLock()
	defer telemetryMutex.RUnlock()
	return telemetryReporter
}

// reportToTelemetry sends the error to the configured reporter, at most once
func reportToTelemetry(ee *EnhancedError) {
	reporter := getTelemetryReporter()
	if reporter == nil || !reporter.IsEnabled() {
		return
	}

	if ee.IsReported() {
		return
	}

	reporter.ReportError(ee)
	ee.MarkReported()
}

// SentryReporter reports errors to Sentry with privacy-conscious scrubbing
type SentryReporter struct {
	enabled bool
	mu      sync.RWMutex
}

// NewSentryReporter creates a Sentry-backed telemetry reporter.
// The Sentry SDK must be initialized separately before events will be delivered.
func NewSentryReporter(enabled bool) *SentryReporter {
	return &SentryReporter{enabled: enabled}
}

// IsEnabled returns whether this reporter is active
func (sr *SentryReporter) IsEnabled() bool {
	sr.mu.RLock()
	defer sr.mu.RUnlock()
	return sr.enabled
}

// SetEnabled toggles reporting at runtime
func (sr *SentryReporter) SetEnabled(enabled bool) {
	sr.mu.Lock()
	sr.enabled = enabled
	sr.mu.Unlock()
	telemetryMutex.RLock()
	isCurrent := telemetryReporter == TelemetryReporter(sr)
	telemetryMutex.RUnlock()
	if isCurrent {
		hasActiveReporting.Store(enabled)
	}
}

// ReportError sends an enhanced error to Sentry
func (sr *SentryReporter) ReportError(ee *EnhancedError) {
	if !sr.IsEnabled() {
		return
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", ee.GetComponent())
		scope.SetTag("category", ee.GetCategory())
		if priority := ee.GetPriority(); priority != "" {
			scope.SetTag("priority", priority)
		}
		scope.SetLevel(sentryLevel(ee))

		for key, value := range ee.GetContext() {
			scope.SetContext("error_context", map[string]any{
				key: scrubValue(key, value),
			})
		}

		scope.SetContext("timing", map[string]any{
			"occurred_at": ee.GetTimestamp().Format(time.RFC3339),
		})

		sentry.CaptureException(ee.Err)
	})
}

// sentryLevel maps error categories and priorities to Sentry severity levels
func sentryLevel(ee *EnhancedError) sentry.Level {
	switch ee.GetPriority() {
	case PriorityCritical:
		return sentry.LevelFatal
	case PriorityHigh:
		return sentry.LevelError
	case PriorityLow:
		return sentry.LevelInfo
	}

	switch ee.Category {
	case CategoryStreamHealth, CategoryBootstrap:
		return sentry.LevelError
	case CategoryValidation, CategoryConfiguration:
		return sentry.LevelWarning
	default:
		return sentry.LevelError
	}
}

// scrubValue removes potentially sensitive data from context values.
// File paths and device identifiers stay out of telemetry payloads.
func scrubValue(key string, value any) any {
	str, ok := value.(string)
	if !ok {
		return value
	}

	lowerKey := strings.ToLower(key)
	if strings.Contains(lowerKey, "path") || strings.Contains(lowerKey, "file") {
		return categorizeFilePath(str)
	}
	if strings.Contains(lowerKey, "device") {
		return "[device]"
	}

	return str
}
