package observability

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/audiograph/streambridge/internal/buildinfo"
	"github.com/audiograph/streambridge/internal/conf"
	"github.com/audiograph/streambridge/internal/logging"
	metricspkg "github.com/audiograph/streambridge/internal/observability/metrics"
)

func getLogger() *slog.Logger {
	if l := logging.ForService("observability"); l != nil {
		return l
	}
	return slog.Default()
}

// Endpoint serves the Prometheus-compatible metrics over HTTP.
type Endpoint struct {
	server        *http.Server
	listenAddress string
	metrics       *Metrics
	build         *buildinfo.Context
}

// NewEndpoint creates a new metrics Endpoint from the application settings.
// It returns an error if the metrics endpoint is not enabled.
func NewEndpoint(settings *conf.Settings, metrics *Metrics, build *buildinfo.Context) (*Endpoint, error) {
	if !settings.Metrics.Enabled {
		return nil, fmt.Errorf("metrics endpoint not enabled in settings")
	}

	return &Endpoint{
		listenAddress: settings.Metrics.Listen,
		metrics:       metrics,
		build:         build,
	}, nil
}

// Start runs the HTTP server for the metrics endpoint in its own goroutine
// and shuts it down gracefully when quitChan closes.
func (e *Endpoint) Start(wg *sync.WaitGroup, quitChan <-chan struct{}) {
	log := getLogger()

	mux := http.NewServeMux()
	e.metrics.RegisterHandlers(mux)
	mux.HandleFunc("/healthz", e.healthzHandler)
	mux.HandleFunc("/version", e.versionHandler)

	e.server = &http.Server{
		Addr:    e.listenAddress,
		Handler: mux,
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("metrics endpoint starting", "address", e.listenAddress)
		if err := e.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics HTTP server error", "error", err)
		}
	}()

	go e.gracefulShutdown(quitChan)
}

// gracefulShutdown waits for the quit signal and shuts down the server.
func (e *Endpoint) gracefulShutdown(quitChan <-chan struct{}) {
	log := getLogger()
	<-quitChan
	log.Info("stopping metrics server")
	ctx, cancel := context.WithTimeout(context.Background(), metricspkg.ShutdownTimeout)
	defer cancel()
	if err := e.server.Shutdown(ctx); err != nil {
		log.Error("metrics server shutdown error", "error", err)
	}
}

// GetMetrics returns the Metrics instance associated with this Endpoint.
func (e *Endpoint) GetMetrics() *Metrics {
	return e.metrics
}

func (e *Endpoint) healthzHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

func (e *Endpoint) versionHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "version=%s build_date=%s\n", e.build.GetVersion(), e.build.GetBuildDate())
}
