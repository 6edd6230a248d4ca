// Package buildinfo holds build-time metadata kept apart from user configuration
package buildinfo

import "fmt"

// UnknownValue is reported for metadata that was not set at build time
const UnknownValue = "unknown"

// BuildInfo provides access to build-time metadata
type BuildInfo interface {
	Version() string
	BuildDate() string
	SystemID() string
}

// Context contains metadata injected at startup through -ldflags
type Context struct {
	version   string
	buildDate string
	systemID  string
}

// NewContext creates a build context. Empty values report UnknownValue.
func NewContext(version, buildDate, systemID string) *Context {
	return &Context{version: version, buildDate: buildDate, systemID: systemID}
}

func valueOr(c *Context, pick func(*Context) string) string {
	if c == nil {
		return UnknownValue
	}
	if v := pick(c); v != "" {
		return v
	}
	return UnknownValue
}

// Version returns the git version tag of the build
func (c *Context) Version() string {
	return valueOr(c, func(c *Context) string { return c.version })
}

// BuildDate returns the time the binary was built
func (c *Context) BuildDate() string {
	return valueOr(c, func(c *Context) string { return c.buildDate })
}

// SystemID returns the identifier attached to telemetry
func (c *Context) SystemID() string {
	return valueOr(c, func(c *Context) string { return c.systemID })
}

// String formats the version line printed by --version
func (c *Context) String() string {
	return fmt.Sprintf("%s (built %s)", c.Version(), c.BuildDate())
}
