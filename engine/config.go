package engine

import (
	"runtime"

	"github.com/anthrosphere/lumen/commandstream"
	"github.com/anthrosphere/lumen/driverapi"
)

// Config is the full configuration surface exposed per-Engine at
// construction: which backend and platform to use, size budgets, the
// job-system thread count, stereo settings, and a feature-flag table,
// built through the same functional-option idiom as the rest of this
// module's constructors.
type Config struct {
	// Backend names the registered driverapi.Driver to open (see
	// driverapi.Lookup). Empty selects the first registered driver.
	Backend string

	// Platform, if non-nil, is an already-open windowing collaborator
	// (e.g. platform/glfwplatform) the Engine attaches a surface
	// through rather than creating one itself.
	Platform any

	// FeatureLevel caps the feature level the engine may request from
	// the driver; the effective level is min(FeatureLevel, driver's).
	FeatureLevel driverapi.FeatureLevel

	// SharedContext is an opaque OS-level context shared with a host
	// application (e.g. an existing EGLContext); passed through to the
	// backend untouched.
	SharedContext any

	// Paused starts the command queue paused.
	Paused bool

	Stream commandstream.Config

	// JobSystemThreadCount is the job-system worker count. 0 selects
	// runtime.NumCPU()-2, minimum 1.
	JobSystemThreadCount int

	StereoscopicType     driverapi.StereoscopicType
	StereoscopicEyeCount int

	GPUContextPriority driverapi.GPUContextPriority

	// FeatureFlags is a name->bool table for flags without a dedicated
	// field, kept backward-compatible with any future named option.
	FeatureFlags map[string]bool
}

// DefaultConfig returns the documented defaults: auto backend, no
// injected platform, FeatureLevel3, unpaused, default command-stream
// budgets, auto job-system thread count, no stereo, default context
// priority.
func DefaultConfig() Config {
	return Config{
		FeatureLevel:         driverapi.FeatureLevel3,
		Stream:               commandstream.DefaultConfig(),
		JobSystemThreadCount: 0,
		StereoscopicType:     driverapi.StereoNone,
		StereoscopicEyeCount: 1,
		GPUContextPriority:   driverapi.ContextPriorityDefault,
		FeatureFlags:         make(map[string]bool),
	}
}

// resolveJobSystemThreadCount applies the "0 => hardware_concurrency -
// 2, min 1" rule from §6.3.
func (c Config) resolveJobSystemThreadCount() int {
	if c.JobSystemThreadCount > 0 {
		return c.JobSystemThreadCount
	}
	n := runtime.NumCPU() - 2
	if n < 1 {
		n = 1
	}
	return n
}

// Option is a functional option for configuring an Engine at
// construction, mirroring EngineBuilderOption.
type Option func(*Config)

// WithBackend selects the registered driver by name.
func WithBackend(name string) Option {
	return func(c *Config) { c.Backend = name }
}

// WithPlatform injects an already-constructed windowing collaborator.
func WithPlatform(platform any) Option {
	return func(c *Config) { c.Platform = platform }
}

// WithFeatureLevel caps the feature level the engine may request.
func WithFeatureLevel(level driverapi.FeatureLevel) Option {
	return func(c *Config) { c.FeatureLevel = level }
}

// WithPaused starts the command queue paused.
func WithPaused(paused bool) Option {
	return func(c *Config) { c.Paused = paused }
}

// WithStreamConfig overrides the command-stream size budgets.
func WithStreamConfig(cfg commandstream.Config) Option {
	return func(c *Config) { c.Stream = cfg }
}

// WithJobSystemThreadCount overrides the job-system worker count. 0
// selects the auto-detected default.
func WithJobSystemThreadCount(n int) Option {
	return func(c *Config) { c.JobSystemThreadCount = n }
}

// WithStereo sets the stereoscopic rendering mode and eye count.
func WithStereo(t driverapi.StereoscopicType, eyeCount int) Option {
	return func(c *Config) {
		c.StereoscopicType = t
		c.StereoscopicEyeCount = eyeCount
	}
}

// WithGPUContextPriority sets the driver scheduling hint.
func WithGPUContextPriority(p driverapi.GPUContextPriority) Option {
	return func(c *Config) { c.GPUContextPriority = p }
}

// WithFeatureFlag sets a named feature flag, for options without a
// dedicated field.
func WithFeatureFlag(name string, enabled bool) Option {
	return func(c *Config) {
		if c.FeatureFlags == nil {
			c.FeatureFlags = make(map[string]bool)
		}
		c.FeatureFlags[name] = enabled
	}
}
