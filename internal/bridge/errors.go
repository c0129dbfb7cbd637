package bridge

import (
	"fmt"

	"github.com/audiograph/streambridge/internal/errors"
)

// Sentinel errors for the stream lifecycle. Callers match them with
// errors.Is; the enhanced wrappers built below carry context for logging
// and telemetry.
var (
	// ErrInitialization is returned by StartStream when the platform audio
	// context cannot be created. No stream exists after this error.
	ErrInitialization = errors.NewStd("audio context initialization failed")

	// ErrNodeCreation indicates the asynchronous render node activation
	// failed after StartStream already returned. It is logged, never
	// returned from StartStream itself.
	ErrNodeCreation = errors.NewStd("render node creation failed")

	// ErrUnexpectedDrop is returned by PollStatus once the render side has
	// become unreachable. The stream is dead and must be released.
	ErrUnexpectedDrop = errors.NewStd("render side dropped unexpectedly")

	// ErrReceiverGone is returned by Handoff.Send when the receiving side
	// has been torn down.
	ErrReceiverGone = errors.NewStd("handoff receiver is gone")

	// ErrAlreadySent is returned by Handoff.Send after a processor has
	// already been sent through the channel. The channel is single-use.
	ErrAlreadySent = errors.NewStd("processor already sent")
)

// initializationError wraps a platform failure from StartStream.
func initializationError(cause error, requestedRate int) error {
	return errors.New(fmt.Errorf("%w: %w", ErrInitialization, cause)).
		Component(ComponentBridge).
		Category(errors.CategoryPlatform).
		Context("operation", "start-stream").
		Context("requested_sample_rate", requestedRate).
		Build()
}

// nodeCreationError wraps an asynchronous activation failure for logging.
func nodeCreationError(cause error, streamID string) error {
	return errors.New(fmt.Errorf("%w: %w", ErrNodeCreation, cause)).
		Component(ComponentBridge).
		Category(errors.CategoryBootstrap).
		Context("operation", "activate-render-node").
		Context("stream_id", streamID).
		Build()
}

// configError reports an invalid stream configuration.
func configError(msg string, requestedRate int) error {
	return errors.New(fmt.Errorf("%w: %s", ErrInitialization, msg)).
		Component(ComponentBridge).
		Category(errors.CategoryValidation).
		Context("operation", "start-stream").
		Context("requested_sample_rate", requestedRate).
		Build()
}
