// Package manager owns the lifecycle of a single inference session. It is
// structured into small files by concern:
//
//   - manager.go: core Manager type, constructor, simple getters.
//   - config.go: SessionConfig, ManagerConfig, binary source and thread helpers.
//   - types.go: State, ExecutionProvider, ModelSource, Snapshot.
//   - adapter_iface.go: the Engine and Session interfaces a runtime implements.
//   - environment.go: engine-wide settings written before session creation.
//   - errors.go: error types and helpers (IsNotInitialized, IsInitializationFailed).
//   - init.go, prefetch.go: single-flight Init with optional binary prefetch.
//   - runtime_binary.go: pinned runtime release, archive names and unpacking.
//   - run.go, merge.go: Run with default/per-call option merge.
//   - release.go: Release that clears the handle before engine teardown.
//   - status_report.go, sanity.go: Snapshot/Status reporting and preflight checks.
//   - events.go, metrics.go: lifecycle events and Prometheus collectors.
//
// The ONNX Runtime implementation of Engine lives in internal/ortengine.
// External packages should use public methods only (New/NewWithConfig, Init,
// Run, Release, Status). Internal types are subject to change.
package manager
