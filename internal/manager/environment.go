package manager

import "sync"

// Environment holds engine-wide settings shared by every session created
// through the same engine. Writes are last-writer-wins.
type Environment struct {
	mu           sync.RWMutex
	binarySource string
	binary       []byte
	numThreads   int
}

// EnvironmentSnapshot is a copy of the Environment fields at one point in time.
type EnvironmentSnapshot struct {
	BinarySource string
	Binary       []byte
	NumThreads   int
}

var sharedEnv = &Environment{}

// SharedEnvironment returns the process default Environment. Engines that do
// not need isolation use it so that all managers in the process see the same
// knobs.
func SharedEnvironment() *Environment { return sharedEnv }

func (e *Environment) SetBinarySource(src string) {
	e.mu.Lock()
	e.binarySource = src
	e.mu.Unlock()
}

func (e *Environment) BinarySource() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.binarySource
}

// SetBinary installs runtime binary bytes, bypassing the engine's own fetch.
func (e *Environment) SetBinary(b []byte) {
	e.mu.Lock()
	e.binary = b
	e.mu.Unlock()
}

func (e *Environment) Binary() []byte {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.binary
}

func (e *Environment) SetNumThreads(n int) {
	e.mu.Lock()
	e.numThreads = n
	e.mu.Unlock()
}

func (e *Environment) NumThreads() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.numThreads
}

// Snapshot returns all fields under a single read lock.
func (e *Environment) Snapshot() EnvironmentSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return EnvironmentSnapshot{BinarySource: e.binarySource, Binary: e.binary, NumThreads: e.numThreads}
}
