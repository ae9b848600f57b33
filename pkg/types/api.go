package types

import (
	"math"
	"math/bits"
)

// Tensor is the JSON form of a dense tensor exchanged over the HTTP API.
type Tensor struct {
	// Element type: float32 (default), float64, int32 or int64.
	// example: float32
	Type string `json:"type,omitempty" example:"float32"`
	// Dimensions, outermost first.
	// example: [1,3]
	Shape []int64 `json:"shape" example:"[1,3]"`
	// Row-major element values. Integer types must hold whole numbers.
	// example: [0.1,0.2,0.3]
	Data []float64 `json:"data" example:"[0.1,0.2,0.3]"`
}

// Elements returns the element count implied by Shape. ok is false when a
// dimension is negative or the count does not fit in an int64.
func (t Tensor) Elements() (n int64, ok bool) {
	total := uint64(1)
	for _, d := range t.Shape {
		if d < 0 {
			return 0, false
		}
		hi, lo := bits.Mul64(total, uint64(d))
		if hi != 0 || lo > math.MaxInt64 {
			return 0, false
		}
		total = lo
	}
	return int64(total), true
}

// RunRequest is the payload for POST /run.
type RunRequest struct {
	// Named model inputs.
	Feeds map[string]Tensor `json:"feeds"`
	// Per-call run options; override the session defaults key by key.
	// example: {"tag":"req-1"}
	Options map[string]any `json:"options,omitempty"`
}

// RunResponse is returned by POST /run.
type RunResponse struct {
	// Named model outputs.
	Outputs map[string]Tensor `json:"outputs"`
	// Wall time spent in the engine, in milliseconds.
	// example: 12
	DurationMs int64 `json:"duration_ms" example:"12"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Manager identifier.
	// example: 01HZX3J8Q2V7W6N4T5R9K0M1PB
	ID string `json:"id"`
	// Lifecycle state: uninitialized, initializing, ready, releasing.
	// example: ready
	State string `json:"state" example:"ready"`
	// Configured execution provider.
	// example: cpu
	ExecutionProvider string `json:"execution_provider" example:"cpu"`
	// Model path, or "<in-memory>".
	Model string `json:"model"`
	// Current engine binary source.
	BinarySource string `json:"binary_source"`
	// Whether runtime binary bytes are installed in the environment.
	BinaryLoaded bool `json:"binary_loaded"`
	// Worker thread count currently set in the environment (0 = engine default).
	// example: 4
	NumThreads int `json:"num_threads" example:"4"`
	// Last error observed by the manager (if any).
	LastError string `json:"last_error,omitempty"`
	// Uptime of the manager in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
