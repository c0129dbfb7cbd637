// Package telemetry provides opt-in, privacy-compliant error reporting via
// Sentry. Nothing is sent unless telemetry is explicitly enabled in the
// settings, and events are scrubbed of host and user identifiers before
// they leave the process.
package telemetry

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/audiograph/streambridge/internal/buildinfo"
	"github.com/audiograph/streambridge/internal/conf"
	"github.com/audiograph/streambridge/internal/errors"
	"github.com/audiograph/streambridge/internal/logging"
)

const component = "telemetry"

var initialized atomic.Bool

func getLogger() *slog.Logger {
	if l := logging.ForService("telemetry"); l != nil {
		return l
	}
	return slog.Default()
}

// Init initializes the Sentry SDK and hooks it into the error package so
// enhanced errors are reported automatically. Telemetry is opt-in: when
// disabled this is a no-op and no reporter is installed.
func Init(settings *conf.Settings, build *buildinfo.Context) error {
	log := getLogger()

	if !settings.Telemetry.Enabled {
		log.Info("telemetry is disabled (opt-in required)")
		return nil
	}

	if settings.Telemetry.Dsn == "" {
		return errors.Newf("telemetry enabled but no DSN configured").
			Component(component).
			Category(errors.CategoryConfiguration).
			Build()
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:        settings.Telemetry.Dsn,
		SampleRate: 1.0,
		Debug:      false,

		// Privacy-compliant settings
		AttachStacktrace: false,
		Environment:      "production",
		ServerName:       "", // never leak the hostname

		Release: fmt.Sprintf("streambridge@%s", build.GetVersion()),

		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			return applyPrivacyFilters(event)
		},
	})
	if err != nil {
		return errors.New(err).
			Component(component).
			Category(errors.CategoryConfiguration).
			Context("operation", "sentry-init").
			Build()
	}

	systemID := configureScope(build)
	errors.SetTelemetryReporter(errors.NewSentryReporter(true))
	initialized.Store(true)

	log.Info("telemetry initialized", "system_id", systemID, "release", build.GetVersion())
	return nil
}

// configureScope tags every event with the anonymous system ID and a
// privacy-safe platform description. Returns the system ID for logging.
func configureScope(build *buildinfo.Context) string {
	systemID := build.GetSystemID()
	if systemID == "unknown" {
		if paths, err := conf.GetDefaultConfigPaths(); err == nil && len(paths) > 0 {
			if id, err := LoadOrCreateSystemID(paths[0]); err == nil {
				systemID = id
			} else {
				getLogger().Warn("could not establish system ID", "error", err)
			}
		}
	}

	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("system_id", systemID)
		scope.SetContext("platform", map[string]any{
			"os":         runtime.GOOS,
			"arch":       runtime.GOARCH,
			"num_cpu":    runtime.NumCPU(),
			"go_version": runtime.Version(),
		})
	})

	return systemID
}

// applyPrivacyFilters strips host and user identifiers from an event before
// it is sent. The platform context set by configureScope survives; the
// contexts the SDK collects on its own do not.
func applyPrivacyFilters(event *sentry.Event) *sentry.Event {
	event.User = sentry.User{}
	event.ServerName = ""

	if event.Contexts != nil {
		delete(event.Contexts, "device")
		delete(event.Contexts, "os")
		delete(event.Contexts, "runtime")
	}

	for k := range event.Extra {
		if k != "error_type" && k != "component" {
			delete(event.Extra, k)
		}
	}

	if event.Tags != nil {
		delete(event.Tags, "server_name")
		delete(event.Tags, "hostname")
	}

	return event
}

// Flush blocks until buffered events are delivered or the timeout expires.
// Call on shutdown; a no-op when telemetry was never initialized.
func Flush(timeout time.Duration) {
	if !initialized.Load() {
		return
	}
	sentry.Flush(timeout)
}
