package manager

import (
	"context"
	"errors"
	"time"
)

// Init creates the engine session if none exists. Repeated calls after a
// successful Init are no-ops. Concurrent calls share a single engine creation
// and all observe its result; the first caller's ctx governs that attempt.
//
// Steps, in order:
//  1. Prefetch the runtime binary into the environment when PrefetchBinary is set.
//  2. Set the environment thread count when MultiThread is set.
//  3. Ask the engine for a session.
//
// On failure the manager stays uninitialized and Init may be called again.
func (m *Manager) Init(ctx context.Context) error {
	if m.Ready() {
		return nil
	}
	_, err, _ := m.initGroup.Do("init", func() (any, error) {
		return nil, m.initSession(ctx)
	})
	return err
}

func (m *Manager) initSession(ctx context.Context) error {
	m.mu.Lock()
	if m.session != nil {
		// A previous flight finished between Ready and Do.
		m.mu.Unlock()
		return nil
	}
	m.initializing = true
	m.err = ""
	m.mu.Unlock()

	startTs := time.Now()
	provider := m.cfg.ExecutionProvider
	m.log.Info().Str("provider", string(provider)).Str("model", m.cfg.Model.String()).Msg("init start")
	m.publish(EventInitStart, map[string]any{"provider": string(provider)})

	sess, err := m.createSession(ctx)

	m.mu.Lock()
	m.initializing = false
	if err != nil {
		m.err = err.Error()
	} else {
		m.session = sess
	}
	m.mu.Unlock()
	m.metrics.observeInit(provider, startTs, err)

	durMs := int(time.Since(startTs) / time.Millisecond)
	if err != nil {
		m.log.Error().Err(err).Int("dur_ms", durMs).Msg("init failed")
		m.publish(EventInitError, map[string]any{"error": err.Error(), "dur_ms": durMs})
		return err
	}
	m.log.Info().Int("dur_ms", durMs).Msg("init ready")
	m.publish(EventInitReady, map[string]any{"dur_ms": durMs})
	return nil
}

// createSession performs the environment setup and engine call. It never
// touches m.session; the caller commits the result.
func (m *Manager) createSession(ctx context.Context) (Session, error) {
	cfg := m.cfg
	if cfg.PrefetchBinary && cfg.ExecutionProvider.Supported() {
		url := RuntimeBinaryURL(m.env.BinarySource())
		bin, err := fetchBinary(ctx, m.httpClient, url)
		if err == nil {
			bin, err = UnpackRuntimeBinary(url, bin)
		}
		if err != nil {
			return nil, initializationFailedError{stage: "prefetch", err: err}
		}
		m.env.SetBinary(bin)
		m.log.Debug().Str("url", url).Int("bytes", len(bin)).Msg("runtime binary prefetched")
		m.publish(EventPrefetchDone, map[string]any{"url": url, "bytes": len(bin)})
	}

	if cfg.MultiThread {
		hw := m.concurrency()
		n := EffectiveThreads(cfg.MaxThreads, hw)
		m.env.SetNumThreads(n)
		m.log.Debug().Int("threads", n).Int("hardware_concurrency", hw).Msg("thread count set")
		m.publish(EventThreadsSet, map[string]any{"threads": n, "hardware_concurrency": hw})
	}

	sess, err := m.engine.CreateSession(ctx, cfg.Model, CreateOptions{
		ExecutionProviders:     []ExecutionProvider{cfg.ExecutionProvider},
		GraphOptimizationLevel: cfg.GraphOptimizationLevel,
		LogID:                  cfg.LogID,
		LogVerbosityLevel:      cfg.LogVerbosityLevel,
		LogSeverityLevel:       cfg.LogSeverityLevel,
	})
	if err != nil {
		return nil, initializationFailedError{stage: "create_session", err: err}
	}
	if sess == nil {
		return nil, initializationFailedError{stage: "create_session", err: errors.New("engine returned no session")}
	}
	return sess, nil
}
