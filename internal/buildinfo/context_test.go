package buildinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextGetters(t *testing.T) {
	t.Parallel()

	ctx := &Context{
		Version:   "v1.2.3",
		BuildDate: "2026-08-01T00:00:00Z",
		SystemID:  "node-42",
	}

	assert.Equal(t, "v1.2.3", ctx.GetVersion())
	assert.Equal(t, "2026-08-01T00:00:00Z", ctx.GetBuildDate())
	assert.Equal(t, "node-42", ctx.GetSystemID())
}

func TestContextUnknownFallbacks(t *testing.T) {
	t.Parallel()

	empty := &Context{}
	assert.Equal(t, "unknown", empty.GetVersion())
	assert.Equal(t, "unknown", empty.GetBuildDate())
	assert.Equal(t, "unknown", empty.GetSystemID())

	var nilCtx *Context
	assert.Equal(t, "unknown", nilCtx.GetVersion())
	assert.Equal(t, "unknown", nilCtx.GetBuildDate())
	assert.Equal(t, "unknown", nilCtx.GetSystemID())
}
