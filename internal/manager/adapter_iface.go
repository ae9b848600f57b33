package manager

import "context"

// Engine abstracts the inference runtime used by the Manager.
// Concrete implementations (e.g., ONNX Runtime) should satisfy this interface.
type Engine interface {
	// Environment returns the engine's process-wide knobs. The manager writes
	// to it before creating sessions; the engine reads it at creation time.
	Environment() *Environment
	// CreateSession loads the model and returns a live session.
	CreateSession(ctx context.Context, model ModelSource, opts CreateOptions) (Session, error)
}

// Session is a live engine session owned by one Manager at a time.
type Session interface {
	// Run performs one inference. Feeds and options are passed through unchanged.
	Run(ctx context.Context, feeds Feeds, opts RunOptions) (Outputs, error)
	// Release destroys the engine-side session.
	Release(ctx context.Context) error
}

// CreateOptions are passed to Engine.CreateSession.
type CreateOptions struct {
	ExecutionProviders     []ExecutionProvider
	GraphOptimizationLevel GraphOptimizationLevel
	LogID                  string
	LogVerbosityLevel      int
	LogSeverityLevel       int
}
