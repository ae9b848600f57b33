package manager

// State represents the lifecycle state of the manager's session.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateInitializing  State = "initializing"
	StateReady         State = "ready"
	StateReleasing     State = "releasing"
)

// ExecutionProvider identifies an engine backend.
type ExecutionProvider string

const (
	ProviderCPU    ExecutionProvider = "cpu"
	ProviderWASM   ExecutionProvider = "wasm"
	ProviderWebGPU ExecutionProvider = "webgpu"
	ProviderWebGL  ExecutionProvider = "webgl"
)

// Supported reports whether the manager accepts p. Only cpu and wasm are.
func (p ExecutionProvider) Supported() bool {
	switch p {
	case ProviderCPU, ProviderWASM:
		return true
	default:
		return false
	}
}

// GraphOptimizationLevel is forwarded to the engine unchanged.
type GraphOptimizationLevel string

const (
	GraphOptimizationDisabled GraphOptimizationLevel = "disabled"
	GraphOptimizationBasic    GraphOptimizationLevel = "basic"
	GraphOptimizationExtended GraphOptimizationLevel = "extended"
	GraphOptimizationAll      GraphOptimizationLevel = "all"
)

// ModelSource identifies the model to load: either a path/URI or in-memory bytes.
// Data takes precedence when both are set.
type ModelSource struct {
	Path string
	Data []byte
}

// String returns a short description suitable for logs.
func (s ModelSource) String() string {
	if len(s.Data) > 0 {
		return "<in-memory>"
	}
	return s.Path
}

// Feeds maps model input names to tensor-like values. The manager never
// inspects them; the engine decides which value types it accepts.
type Feeds map[string]any

// Outputs maps model output names to engine-produced values.
type Outputs map[string]any

// RunOptions is an engine-defined set of per-run knobs.
type RunOptions map[string]any

// Snapshot is a read-only projection of the manager state.
type Snapshot struct {
	ID                string
	State             State
	ExecutionProvider ExecutionProvider
	HasSession        bool
	Err               string
}
