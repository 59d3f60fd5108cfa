package spectral

import (
	"errors"
	"fmt"
	"runtime"
	"time"
)

// Effort selects how much planning work the planned backend performs up
// front. More effort means slower construction and faster first
// transforms of shapes seen in previous runs.
type Effort int

const (
	// EffortFast plans every transform length lazily on first use.
	EffortFast Effort = iota

	// EffortNormal prewarms plans for lengths recorded in the wisdom
	// file in the background.
	EffortNormal

	// EffortSlow prewarms plans for recorded lengths synchronously
	// before the backend is returned.
	EffortSlow
)

func (e Effort) String() string {
	switch e {
	case EffortFast:
		return "fast"
	case EffortNormal:
		return "normal"
	case EffortSlow:
		return "slow"
	default:
		return "unknown"
	}
}

// Default resource parameters.
const (
	// DefaultKeepAlive is how long idle scratch buffers are retained
	// before being released back to the garbage collector.
	DefaultKeepAlive = 30 * time.Second
)

// ErrInvalidConfig indicates invalid backend configuration parameters.
var ErrInvalidConfig = errors.New("invalid spectral configuration")

// Config holds the process-wide transform configuration. It is
// constructed once and passed to New; it is not ambient global state.
type Config struct {
	// Effort is the planning effort level for the planned backend.
	Effort Effort

	// Threads is the number of worker goroutines used per transform
	// call by the planned backend. Zero means use all available CPUs.
	Threads int

	// WisdomPath is the filesystem path of the persisted plan cache.
	// Empty disables persistence.
	WisdomPath string

	// KeepAlive bounds how long idle scratch buffers are cached.
	// Zero means DefaultKeepAlive.
	KeepAlive time.Duration

	// ForceReference disables the planned backend, selecting the
	// reference implementation regardless of availability.
	ForceReference bool
}

// DefaultConfig returns the default transform configuration.
func DefaultConfig() Config {
	return Config{
		Effort:    EffortNormal,
		Threads:   0,
		KeepAlive: DefaultKeepAlive,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Effort < EffortFast || c.Effort > EffortSlow {
		return fmt.Errorf("%w: unknown effort level %d", ErrInvalidConfig, c.Effort)
	}
	if c.Threads < 0 {
		return fmt.Errorf("%w: thread count must be non-negative", ErrInvalidConfig)
	}
	if c.KeepAlive < 0 {
		return fmt.Errorf("%w: keep-alive must be non-negative", ErrInvalidConfig)
	}
	return nil
}

// threads resolves the configured thread count to a concrete worker
// count.
func (c *Config) threads() int {
	if c.Threads > 0 {
		return c.Threads
	}
	return runtime.NumCPU()
}

// keepAlive resolves the configured keep-alive window.
func (c *Config) keepAlive() time.Duration {
	if c.KeepAlive > 0 {
		return c.KeepAlive
	}
	return DefaultKeepAlive
}
