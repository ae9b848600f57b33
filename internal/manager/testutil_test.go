package manager

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

// fakeEngine is an in-memory Engine used for tests.
type fakeEngine struct {
	env *Environment

	mu          sync.Mutex
	creates     int
	createErr   error
	gate        chan struct{} // when non-nil, CreateSession waits for it to close
	lastModel   ModelSource
	lastOpts    CreateOptions
	envAtCreate EnvironmentSnapshot
	sess        *fakeSession
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{env: &Environment{}, sess: &fakeSession{}}
}

func (f *fakeEngine) Environment() *Environment { return f.env }

func (f *fakeEngine) CreateSession(ctx context.Context, model ModelSource, opts CreateOptions) (Session, error) {
	f.mu.Lock()
	f.creates++
	gate := f.gate
	f.lastModel = model
	f.lastOpts = opts
	f.envAtCreate = f.env.Snapshot()
	err := f.createErr
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return f.sess, nil
}

func (f *fakeEngine) createCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates
}

func (f *fakeEngine) setCreateErr(err error) {
	f.mu.Lock()
	f.createErr = err
	f.mu.Unlock()
}

type fakeSession struct {
	mu           sync.Mutex
	runs         int
	lastFeeds    Feeds
	lastOpts     RunOptions
	runErr       error
	out          Outputs
	releases     int
	releaseErr   error
	releaseGate  chan struct{}
	releaseEnter chan struct{}
}

func (s *fakeSession) Run(ctx context.Context, feeds Feeds, opts RunOptions) (Outputs, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs++
	s.lastFeeds = feeds
	s.lastOpts = opts
	if s.runErr != nil {
		return nil, s.runErr
	}
	return s.out, nil
}

func (s *fakeSession) Release(ctx context.Context) error {
	s.mu.Lock()
	s.releases++
	gate, enter := s.releaseGate, s.releaseEnter
	err := s.releaseErr
	s.mu.Unlock()
	if enter != nil {
		close(enter)
	}
	if gate != nil {
		<-gate
	}
	return err
}

func (s *fakeSession) releaseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releases
}

// newTestManager builds a manager with private metrics and a memory publisher.
func newTestManager(t *testing.T, eng Engine, cfg SessionConfig, hw int) (*Manager, *MemoryPublisher) {
	t.Helper()
	pub := NewMemoryPublisher()
	m, err := NewWithConfig(ManagerConfig{
		Engine:              eng,
		Session:             cfg,
		Publisher:           pub,
		Metrics:             NewMetrics(nil),
		HardwareConcurrency: func() int { return hw },
	})
	if err != nil {
		t.Fatalf("NewWithConfig: %v", err)
	}
	return m, pub
}

func cpuConfig() SessionConfig {
	return SessionConfig{Model: ModelSource{Path: "model.onnx"}, ExecutionProvider: ProviderCPU}
}

func intPtr(n int) *int { return &n }

// testCtx returns a context with a short timeout, canceled on test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return c
}
