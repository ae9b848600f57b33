package manager

import (
	"context"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Manager owns at most one engine session and guards its lifecycle:
// lazy single-flight Init, Run only against a live session, and Release that
// clears the handle before the engine finishes tearing it down.
type Manager struct {
	mu           sync.RWMutex
	id           string
	cfg          SessionConfig
	engine       Engine
	env          *Environment
	session      Session
	initializing bool
	releasing    int
	err          string

	initGroup   singleflight.Group
	log         zerolog.Logger
	publisher   EventPublisher
	httpClient  *http.Client
	concurrency func() int
	metrics     *Metrics
	startTime   time.Time
}

// New validates cfg and returns a manager bound to eng. It points the engine
// environment at the resolved binary source but does not create a session.
func New(eng Engine, cfg SessionConfig) (*Manager, error) {
	// Delegate to NewWithConfig to centralize defaults and option parsing
	return NewWithConfig(ManagerConfig{Engine: eng, Session: cfg})
}

// NewWithConfig constructs a Manager from ManagerConfig. Validation happens
// before any environment write, so a rejected config leaves the engine untouched.
func NewWithConfig(mc ManagerConfig) (*Manager, error) {
	if !mc.Session.ExecutionProvider.Supported() {
		return nil, errInvalidProvider(mc.Session.ExecutionProvider)
	}
	if mc.Engine == nil {
		return nil, invalidConfigurationError{msg: "engine is required"}
	}
	env := mc.Engine.Environment()
	if env == nil {
		return nil, invalidConfigurationError{msg: "engine has no environment"}
	}

	m := &Manager{
		id:          ulid.Make().String(),
		cfg:         mc.Session.clone(),
		engine:      mc.Engine,
		env:         env,
		publisher:   mc.Publisher,
		httpClient:  mc.HTTPClient,
		concurrency: mc.HardwareConcurrency,
		metrics:     mc.Metrics,
		startTime:   time.Now(),
	}
	// Apply defaults if unset
	if m.publisher == nil {
		m.publisher = noopPublisher{}
	}
	if m.httpClient == nil {
		m.httpClient = http.DefaultClient
	}
	if m.concurrency == nil {
		m.concurrency = runtime.NumCPU
	}
	if m.metrics == nil {
		m.metrics = defaultMetrics
	}
	base := zerolog.Nop()
	if mc.Logger != nil {
		base = *mc.Logger
	}
	m.log = base.With().Str("component", "manager").Str("manager_id", m.id).Logger()

	src := ResolveBinarySource(m.cfg.BinarySource)
	env.SetBinarySource(src)
	m.log.Debug().Str("binary_source", src).Str("provider", string(m.cfg.ExecutionProvider)).Msg("manager created")
	return m, nil
}

// ID returns the manager's unique identifier.
func (m *Manager) ID() string { return m.id }

// Config returns a copy of the session configuration.
func (m *Manager) Config() SessionConfig { return m.cfg.clone() }

// Environment returns the engine environment the manager writes to.
func (m *Manager) Environment() *Environment { return m.env }

// Ready reports whether a live session exists.
func (m *Manager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session != nil
}

// Close releases the session, if any, with a background context.
func (m *Manager) Close() error {
	return m.Release(context.Background())
}
