package malgo

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/audiograph/streambridge/internal/bridge"
)

func TestEncodeF32LE(t *testing.T) {
	src := []float32{0.5, -0.5, 1.0, 0.0}
	dst := make([]byte, len(src)*4)

	n := encodeF32LE(dst, src)
	if n != 16 {
		t.Fatalf("encodeF32LE wrote %d bytes, expected 16", n)
	}

	// 0.5 = 0x3F000000, -0.5 = 0xBF000000, 1.0 = 0x3F800000 in IEEE 754
	expected := []byte{
		0x00, 0x00, 0x00, 0x3F,
		0x00, 0x00, 0x00, 0xBF,
		0x00, 0x00, 0x80, 0x3F,
		0x00, 0x00, 0x00, 0x00,
	}
	for i := range expected {
		if dst[i] != expected[i] {
			t.Errorf("byte %d: got 0x%02X, expected 0x%02X", i, dst[i], expected[i])
		}
	}
}

func TestEncodeF32LEShortDestination(t *testing.T) {
	src := []float32{1.0, 2.0, 3.0}
	dst := make([]byte, 8) // room for two samples

	n := encodeF32LE(dst, src)
	if n != 8 {
		t.Fatalf("encodeF32LE wrote %d bytes into an 8 byte buffer", n)
	}

	got := math.Float32frombits(binary.LittleEndian.Uint32(dst[4:]))
	if got != 2.0 {
		t.Errorf("second sample: got %g, expected 2.0", got)
	}
}

func newTestHost(t *testing.T) (*bridge.RenderHost, *bridge.Handoff, *bridge.Liveness) {
	t.Helper()
	buffers, err := bridge.NewBufferArena().AllocateBlock(bridge.StreamInputChannels, bridge.StreamOutputChannels)
	if err != nil {
		t.Fatalf("failed to allocate block buffers: %v", err)
	}
	handoff := bridge.NewHandoff()
	alive := bridge.NewLiveness()
	return bridge.NewRenderHost(handoff, alive, buffers), handoff, alive
}

func TestRenderIntoSilenceWithoutHost(t *testing.T) {
	c := &audioContext{
		scratch: make([]float32, bridge.BlockFrames*bridge.StreamOutputChannels),
	}

	dst := make([]byte, bridge.BlockFrames*bridge.StreamOutputChannels*4)
	for i := range dst {
		dst[i] = 0xAA
	}

	c.renderInto(dst, bridge.BlockFrames)

	for i, b := range dst {
		if b != 0 {
			t.Fatalf("byte %d not zeroed before host is published: 0x%02X", i, b)
		}
	}
}

func TestRenderIntoChunksLargeCallbacks(t *testing.T) {
	host, handoff, _ := newTestHost(t)

	var calls int
	err := handoff.Send(bridge.ProcessorFunc(func(input, output []float32, frames int) {
		calls++
		if frames > bridge.BlockFrames {
			t.Errorf("processor saw %d frames, block limit is %d", frames, bridge.BlockFrames)
		}
		for i := range output {
			output[i] = 0.25
		}
	}))
	if err != nil {
		t.Fatalf("handoff send failed: %v", err)
	}

	c := &audioContext{
		scratch: make([]float32, bridge.BlockFrames*bridge.StreamOutputChannels),
	}
	c.host.Store(host)

	// Two and a half blocks in a single device callback
	frames := bridge.BlockFrames*2 + bridge.BlockFrames/2
	dst := make([]byte, frames*bridge.StreamOutputChannels*4)
	c.renderInto(dst, frames)

	if calls != 3 {
		t.Errorf("expected 3 processor calls, got %d", calls)
	}

	last := math.Float32frombits(binary.LittleEndian.Uint32(dst[len(dst)-4:]))
	if last != 0.25 {
		t.Errorf("last sample: got %g, expected 0.25", last)
	}
}

func TestRenderIntoStopsWhenStreamDies(t *testing.T) {
	host, handoff, alive := newTestHost(t)

	if err := handoff.Send(bridge.ProcessorFunc(func(input, output []float32, frames int) {
		for i := range output {
			output[i] = 1.0
		}
	})); err != nil {
		t.Fatalf("handoff send failed: %v", err)
	}

	c := &audioContext{
		scratch: make([]float32, bridge.BlockFrames*bridge.StreamOutputChannels),
	}
	c.host.Store(host)

	alive.MarkDead()

	frames := bridge.BlockFrames * 2
	dst := make([]byte, frames*bridge.StreamOutputChannels*4)
	c.renderInto(dst, frames)

	if !c.dead.Load() {
		t.Error("context not marked dead after keep-alive went false")
	}

	// The first block still rendered; everything after it is silence.
	tail := dst[bridge.BlockFrames*bridge.StreamOutputChannels*4:]
	for i, b := range tail {
		if b != 0 {
			t.Fatalf("byte %d after dead block not zeroed: 0x%02X", i, b)
		}
	}

	// Later callbacks render pure silence without touching the host.
	c.renderInto(dst, bridge.BlockFrames)
	for i, b := range dst[:bridge.BlockFrames*bridge.StreamOutputChannels*4] {
		if b != 0 {
			t.Fatalf("byte %d rendered after death: 0x%02X", i, b)
		}
	}
}

func TestSelectOutputDeviceNoMatch(t *testing.T) {
	_, err := selectOutputDevice(nil, "no such device")
	if err == nil {
		t.Fatal("expected an error for an unknown device name")
	}
}

func TestEnumerateDevices(t *testing.T) {
	// Mainly ensures the enumeration path does not panic; failure is
	// expected on machines without a sound server.
	devices, err := EnumerateDevices()
	if err != nil {
		t.Logf("EnumerateDevices failed (expected without audio hardware): %v", err)
		return
	}

	for _, device := range devices {
		t.Logf("Device %d: %s (ID: %s, default: %v)", device.Index, device.Name, device.ID, device.IsDefault)
	}
}
