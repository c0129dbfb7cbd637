package playback

import (
	"context"
	"time"

	"github.com/audiograph/streambridge/internal/bridge"
	"github.com/audiograph/streambridge/internal/bridge/platforms/null"
	"github.com/audiograph/streambridge/internal/conf"
	"github.com/audiograph/streambridge/internal/errors"
	"github.com/audiograph/streambridge/internal/export"
	"github.com/audiograph/streambridge/internal/synth"
)

// drainEveryBlocks is how many blocks are pumped between synchronous drains
// of the export buffer during offline rendering. Must stay well under the
// buffer's capacity in blocks so nothing is ever dropped.
const drainEveryBlocks = 64

// Render produces the configured signal offline, as fast as the encoder can
// take it, and writes it to a WAV file. No audio hardware is touched and the
// export.enabled setting is ignored: writing the file is the whole point.
func Render(settings *conf.Settings) error {
	log := getLogger()

	if settings.Synth.Duration <= 0 {
		return errors.Newf("offline rendering requires a positive synth duration, got %g", settings.Synth.Duration).
			Component(component).
			Category(errors.CategoryValidation).
			Build()
	}

	platform := null.NewManual()
	backend, info, err := bridge.StartStream(bridge.Config{SampleRate: settings.Audio.SampleRate}, platform)
	if err != nil {
		return err
	}
	defer backend.Close()

	ctx, cancel := context.WithTimeout(context.Background(), activationTimeout)
	defer cancel()
	if err := backend.WaitReady(ctx); err != nil {
		return errors.New(err).
			Component(component).
			Category(errors.CategoryBootstrap).
			Context("stream_id", backend.StreamID()).
			Build()
	}

	proc, timed, err := synth.FromSettings(&settings.Synth, info.SampleRate)
	if err != nil {
		return err
	}

	exporter, err := export.New(&settings.Export, info.SampleRate, info.OutputChannels, nil)
	if err != nil {
		return err
	}

	backend.InstallProcessor(exporter.Tee(proc))

	log.Info("offline render started",
		"stream_id", backend.StreamID(),
		"sample_rate", info.SampleRate,
		"duration_seconds", settings.Synth.Duration,
		"path", exporter.Path())
	start := time.Now()

	nctx := platform.Context()
	out := make([]float32, bridge.BlockFrames*info.OutputChannels)

	blocks := 0
	for !timed.Done() {
		if !nctx.Pump(out, bridge.BlockFrames) {
			break
		}
		blocks++
		if blocks%drainEveryBlocks == 0 {
			if err := exporter.Drain(); err != nil {
				return err
			}
		}
	}

	if err := exporter.Drain(); err != nil {
		return err
	}
	if err := exporter.Close(); err != nil {
		return err
	}

	stats := exporter.Stats()
	log.Info("offline render finished",
		"path", exporter.Path(),
		"frames_written", stats.FramesWritten,
		"blocks", blocks,
		"elapsed", time.Since(start).Round(time.Millisecond).String())
	return nil
}
