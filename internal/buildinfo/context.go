// Package buildinfo contains build-time metadata separate from user configuration
package buildinfo

// Context contains build-time metadata that is not user-configurable.
// This data is injected at application startup and should not be part
// of the configuration system.
type Context struct {
	// Version holds the Git version tag from build
	Version string

	// BuildDate is the time when the binary was built
	BuildDate string

	// SystemID is a unique system identifier for telemetry
	SystemID string
}

// GetVersion returns the build version string, or "unknown" if unset.
func (c *Context) GetVersion() string {
	if c == nil || c.Version == "" {
		return "unknown"
	}
	return c.Version
}

// GetBuildDate returns the build date string, or "unknown" if unset.
func (c *Context) GetBuildDate() string {
	if c == nil || c.BuildDate == "" {
		return "unknown"
	}
	return c.BuildDate
}

// GetSystemID returns the unique system identifier, or "unknown" if unset.
func (c *Context) GetSystemID() string {
	if c == nil || c.SystemID == "" {
		return "unknown"
	}
	return c.SystemID
}
