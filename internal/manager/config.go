package manager

import (
	"net/http"

	"github.com/rs/zerolog"
)

// SessionConfig describes the session the manager creates. It is copied at
// construction and never mutated afterwards.
type SessionConfig struct {
	Model             ModelSource
	ExecutionProvider ExecutionProvider
	// BinarySource overrides DefaultBinarySource when non-empty.
	BinarySource string
	MultiThread  bool
	// MaxThreads caps the worker count; nil means hardware concurrency.
	MaxThreads             *int
	PrefetchBinary         bool
	GraphOptimizationLevel GraphOptimizationLevel
	LogID                  string
	LogVerbosityLevel      int
	LogSeverityLevel       int
	DefaultRunOptions      RunOptions
}

func (c SessionConfig) clone() SessionConfig {
	out := c
	if c.MaxThreads != nil {
		n := *c.MaxThreads
		out.MaxThreads = &n
	}
	if c.DefaultRunOptions != nil {
		out.DefaultRunOptions = make(RunOptions, len(c.DefaultRunOptions))
		for k, v := range c.DefaultRunOptions {
			out.DefaultRunOptions[k] = v
		}
	}
	return out
}

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	Engine  Engine
	Session SessionConfig
	// Logger defaults to a disabled logger.
	Logger *zerolog.Logger
	// Publisher defaults to a no-op publisher.
	Publisher EventPublisher
	// HTTPClient is used for binary prefetch; defaults to http.DefaultClient.
	HTTPClient *http.Client
	// HardwareConcurrency reports usable CPUs; defaults to runtime.NumCPU.
	HardwareConcurrency func() int
	// Metrics defaults to the package-level collectors.
	Metrics *Metrics
}

// ResolveBinarySource applies the precedence override > DefaultBinarySource.
func ResolveBinarySource(override string) string {
	if override != "" {
		return override
	}
	return DefaultBinarySource
}

// EffectiveThreads computes the worker count for a multi-threaded session:
// min(maxThreads or hw, hw), never negative, and 0 when hw reports nothing usable.
func EffectiveThreads(maxThreads *int, hw int) int {
	if hw <= 0 {
		return 0
	}
	n := hw
	if maxThreads != nil && *maxThreads < hw {
		n = *maxThreads
	}
	if n < 0 {
		return 0
	}
	return n
}
