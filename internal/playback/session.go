// Package playback orchestrates live and offline stream sessions: it starts
// a stream on the configured platform, installs the synth processor and runs
// until the signal ends, the user interrupts or the stream dies.
package playback

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/audiograph/streambridge/internal/bridge"
	"github.com/audiograph/streambridge/internal/bridge/platforms"
	"github.com/audiograph/streambridge/internal/buildinfo"
	"github.com/audiograph/streambridge/internal/conf"
	"github.com/audiograph/streambridge/internal/errors"
	"github.com/audiograph/streambridge/internal/export"
	"github.com/audiograph/streambridge/internal/logging"
	"github.com/audiograph/streambridge/internal/observability"
	metricspkg "github.com/audiograph/streambridge/internal/observability/metrics"
	"github.com/audiograph/streambridge/internal/synth"
)

const component = "playback"

const (
	// statusPollInterval is how often the session checks stream health.
	statusPollInterval = 250 * time.Millisecond

	// activationTimeout bounds the wait for the render node to come up
	// before playback falls back to polling.
	activationTimeout = 5 * time.Second
)

func getLogger() *slog.Logger {
	if l := logging.ForService("playback"); l != nil {
		return l
	}
	return slog.Default()
}

// Play runs a live playback session and blocks until it ends. The session
// ends on SIGINT/SIGTERM, when the configured duration has played out, or
// with an error when the stream dies underneath it.
func Play(settings *conf.Settings, build *buildinfo.Context) error {
	log := getLogger()

	platform, err := platforms.New(&settings.Audio)
	if err != nil {
		return err
	}

	quitChan := make(chan struct{})
	stop := sync.OnceFunc(func() { close(quitChan) })
	var wg sync.WaitGroup

	// Metrics are wired before the stream starts so its lifecycle counters
	// are captured from the first event.
	metricsManager := startMetricsEndpoint(&wg, settings, build, quitChan)

	backend, info, err := bridge.StartStream(bridge.Config{SampleRate: settings.Audio.SampleRate}, platform)
	if err != nil {
		stop()
		wg.Wait()
		return err
	}
	defer backend.Close()

	log.Info("playback stream open",
		"stream_id", backend.StreamID(),
		"sample_rate", info.SampleRate,
		"output_channels", info.OutputChannels,
		"block_frames", info.MaxBlockFrames,
		"device", info.OutputDeviceName,
		"platform", settings.Audio.Platform)

	proc, timed, err := synth.FromSettings(&settings.Synth, info.SampleRate)
	if err != nil {
		stop()
		wg.Wait()
		return err
	}

	if settings.Export.Enabled {
		var em *metricspkg.ExportMetrics
		if metricsManager != nil {
			em = metricsManager.Export
		}
		exporter, err := export.New(&settings.Export, info.SampleRate, info.OutputChannels, em)
		if err != nil {
			stop()
			wg.Wait()
			return err
		}
		proc = exporter.Tee(proc)
		exporter.Start(&wg, quitChan)
	}

	backend.InstallProcessor(proc)
	awaitActivation(backend, log)

	monitorSignals(stop, quitChan)

	runErr := runUntilDone(backend, timed, quitChan, stop)

	stop()
	backend.Close()
	wg.Wait()

	return runErr
}

// awaitActivation gives the render node a bounded window to come up so the
// session can log its state. Activation failures are not returned here; the
// poll loop surfaces them as a stream death.
func awaitActivation(backend *bridge.Backend, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), activationTimeout)
	defer cancel()

	switch err := backend.WaitReady(ctx); {
	case err == nil:
		log.Info("render node active", "stream_id", backend.StreamID())
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn("render node still activating, continuing", "stream_id", backend.StreamID())
	default:
		log.Error("render node activation failed", "stream_id", backend.StreamID(), "error", err)
	}
}

// runUntilDone polls stream health and publishes render-side counters until
// the session ends. It returns nil on a clean end and a stream-health error
// when the render side became unreachable.
func runUntilDone(backend *bridge.Backend, timed *synth.Timed, quitChan <-chan struct{}, stop func()) error {
	log := getLogger()

	statusTicker := time.NewTicker(statusPollInterval)
	defer statusTicker.Stop()
	statsTicker := time.NewTicker(metricspkg.StatsPublishInterval)
	defer statsTicker.Stop()

	for {
		select {
		case <-quitChan:
			return nil

		case <-statusTicker.C:
			if err := backend.PollStatus(); err != nil {
				stats := backend.Stats()
				log.Error("stream died unexpectedly",
					"stream_id", backend.StreamID(),
					"blocks_rendered", stats.BlocksRendered,
					"error", err)
				stop()
				return errors.New(err).
					Component(component).
					Category(errors.CategoryStreamHealth).
					Context("stream_id", backend.StreamID()).
					Build()
			}
			if timed != nil && timed.Done() {
				log.Info("configured duration played out", "stream_id", backend.StreamID())
				stop()
				return nil
			}

		case <-statsTicker.C:
			publishStats(backend)
		}
	}
}

// publishStats pushes control-side snapshots of the render counters to the
// metrics gauges.
func publishStats(backend *bridge.Backend) {
	mc := bridge.GetMetrics()
	mc.UpdateRenderStats(backend.StreamID(), backend.Stats())
	mc.UpdateArenaStats(backend.StreamID(), backend.BufferStats())
}

// startMetricsEndpoint initializes the Prometheus registry and serves it when
// the metrics endpoint is enabled. Returns the metrics manager, or nil when
// metrics are disabled or failed to initialize.
func startMetricsEndpoint(wg *sync.WaitGroup, settings *conf.Settings, build *buildinfo.Context, quitChan <-chan struct{}) *observability.Metrics {
	if !settings.Metrics.Enabled {
		return nil
	}

	log := getLogger()

	metricsManager, err := observability.NewMetrics()
	if err != nil {
		log.Error("error initializing metrics, continuing without", "error", err)
		return nil
	}
	bridge.InitMetrics(metricsManager.Bridge)

	endpoint, err := observability.NewEndpoint(settings, metricsManager, build)
	if err != nil {
		log.Error("error initializing metrics endpoint, continuing without", "error", err)
		return metricsManager
	}
	endpoint.Start(wg, quitChan)

	return metricsManager
}

// monitorSignals ends the session on SIGINT or SIGTERM. The watcher itself
// exits when the session ends for any other reason.
func monitorSignals(stop func(), quitChan <-chan struct{}) {
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			getLogger().Info("received shutdown signal", "signal", sig.String())
			stop()
		case <-quitChan:
		}
	}()
}
