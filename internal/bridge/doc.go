// Package bridge connects a control goroutine that builds audio processors
// to a real-time render callback that executes them.
//
// # Architecture Overview
//
// The package is built from five cooperating pieces:
//
//   - Handoff: a one-shot, non-blocking channel that transfers ownership of
//     a Processor from the control side to the render side exactly once.
//   - Liveness: a shared flag the control side lowers on teardown and the
//     render side may observe to stop producing output.
//   - BlockBuffers: fixed-size float32 regions for one block of interleaved
//     input and output frames, allocated once per stream and reclaimed only
//     through an explicit tracked release.
//   - RenderHost: the render-side state machine. It is driven entirely by
//     the platform callback, materializes the processor when one arrives and
//     renders silence until then.
//   - Backend: the control-side object. It opens the platform context,
//     launches the asynchronous render node activation, installs processors
//     and owns teardown.
//
// # Concurrency Model
//
// Exactly two logical threads touch shared state: the control goroutine
// (Backend methods) and the render callback (RenderHost.RenderBlock). The
// render path never blocks, locks or allocates. Every shared structure is
// either single-writer (Liveness), single-producer/single-consumer one-shot
// (Handoff) or phase-owned (BlockBuffers, mutated only by the render side
// once the stream is active).
//
// The platform behind the render callback is abstracted by the Platform,
// PlatformContext and RenderNode interfaces; implementations live in the
// platforms subpackages.
package bridge
