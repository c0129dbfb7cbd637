package errors

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorBuilder(t *testing.T) {
	t.Parallel()

	t.Run("basic error creation", func(t *testing.T) {
		t.Parallel()
		baseErr := NewStd("device init failed")
		ee := New(baseErr).
			Component("platform.malgo").
			Category(CategoryPlatform).
			Build()

		assert.Equal(t, "device init failed", ee.Error())
		assert.Equal(t, "platform.malgo", ee.GetComponent())
		assert.Equal(t, string(CategoryPlatform), ee.GetCategory())
		assert.WithinDuration(t, time.Now(), ee.GetTimestamp(), time.Second)
	})

	t.Run("formatted error", func(t *testing.T) {
		t.Parallel()
		ee := Newf("sample rate %d not supported", 96000).
			Category(CategoryValidation).
			Build()

		assert.Equal(t, "sample rate 96000 not supported", ee.Error())
	})

	t.Run("context data", func(t *testing.T) {
		t.Parallel()
		ee := New(NewStd("handoff rejected")).
			Category(CategoryHandoff).
			Context("stream_id", "abc-123").
			Context("attempt", 2).
			Build()

		ctx := ee.GetContext()
		require.NotNil(t, ctx)
		assert.Equal(t, "abc-123", ctx["stream_id"])
		assert.Equal(t, 2, ctx["attempt"])
	})

	t.Run("timing context", func(t *testing.T) {
		t.Parallel()
		ee := New(NewStd("slow activation")).
			Timing("node-activation", 1500*time.Millisecond).
			Build()

		ctx := ee.GetContext()
		require.NotNil(t, ctx)
		assert.Equal(t, "node-activation", ctx["operation"])
		assert.Equal(t, int64(1500), ctx["duration_ms"])
	})

	t.Run("default category is generic", func(t *testing.T) {
		t.Parallel()
		ee := New(NewStd("something")).Build()
		assert.Equal(t, string(CategoryGeneric), ee.GetCategory())
	})
}

func TestErrorUnwrapping(t *testing.T) {
	t.Parallel()

	sentinel := NewStd("sentinel")
	wrapped := fmt.Errorf("outer: %w", sentinel)
	ee := New(wrapped).Category(CategoryAudio).Build()

	assert.True(t, Is(ee, sentinel))
	assert.Equal(t, wrapped, Unwrap(ee))
}

func TestIsCategory(t *testing.T) {
	t.Parallel()

	ee := New(NewStd("stream dropped")).
		Category(CategoryStreamHealth).
		Build()

	assert.True(t, IsCategory(ee, CategoryStreamHealth))
	assert.False(t, IsCategory(ee, CategoryValidation))

	wrapped := fmt.Errorf("poll: %w", ee)
	assert.True(t, IsCategory(wrapped, CategoryStreamHealth))

	assert.False(t, IsCategory(NewStd("plain"), CategoryStreamHealth))
}

func TestCategoryMatchingViaIs(t *testing.T) {
	t.Parallel()

	a := New(NewStd("first")).Category(CategoryPlatform).Build()
	b := New(NewStd("second")).Category(CategoryPlatform).Build()
	c := New(NewStd("third")).Category(CategoryExport).Build()

	assert.True(t, Is(a, b))
	assert.False(t, Is(a, c))
}

func TestPriorityValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		priority string
		want     string
	}{
		{"critical accepted", PriorityCritical, PriorityCritical},
		{"high accepted", PriorityHigh, PriorityHigh},
		{"invalid falls back to medium", "urgent", PriorityMedium},
		{"empty stays empty", "", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ee := New(NewStd("x")).Priority(tt.priority).Build()
			assert.Equal(t, tt.want, ee.GetPriority())
		})
	}
}

func TestFileError(t *testing.T) {
	t.Parallel()

	ee := FileError(NewStd("write failed"), "/tmp/render/output.wav", 2048)

	assert.Equal(t, string(CategoryFileIO), ee.GetCategory())
	ctx := ee.GetContext()
	require.NotNil(t, ctx)
	assert.Equal(t, "absolute-path", ctx["file_type"])
	assert.Equal(t, "wav", ctx["file_extension"])
	assert.Equal(t, "small", ctx["file_size_category"])
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	ee := ValidationError("gain out of range")
	assert.Equal(t, string(CategoryValidation), ee.GetCategory())
	assert.Equal(t, "gain out of range", ee.Error())
}

func TestComponentDetectionSkippedWithoutReporting(t *testing.T) {
	// Not parallel: mutates the global reporting flag.
	hasActiveReporting.Store(false)

	ee := New(NewStd("no reporting")).Build()
	assert.Equal(t, ComponentUnknown, ee.GetComponent())
}

type recordingReporter struct {
	reported []*EnhancedError
}

func (r *recordingReporter) ReportError(ee *EnhancedError) { r.reported = append(r.reported, ee) }
func (r *recordingReporter) IsEnabled() bool               { return true }

func TestTelemetryReportedOnce(t *testing.T) {
	// Not parallel: swaps the global reporter.
	rec := &recordingReporter{}
	SetTelemetryReporter(rec)
	defer SetTelemetryReporter(nil)

	ee := New(NewStd("dropped")).Category(CategoryStreamHealth).Build()

	require.Len(t, rec.reported, 1)
	assert.True(t, ee.IsReported())

	reportToTelemetry(ee)
	assert.Len(t, rec.reported, 1)
}

func TestCategorizeFileSize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "tiny", categorizeFileSize(512))
	assert.Equal(t, "small", categorizeFileSize(512*1024))
	assert.Equal(t, "medium", categorizeFileSize(5*1024*1024))
	assert.Equal(t, "large", categorizeFileSize(50*1024*1024))
	assert.Equal(t, "very-large", categorizeFileSize(500*1024*1024))
}
