package manager

import "context"

// Release drops the session handle and asks the engine to destroy it.
// The handle is cleared before the engine call, so Run issued after Release
// starts sees ErrNotInitialized. Release without a session is a no-op.
// An engine error is returned unchanged; the manager is uninitialized either way.
func (m *Manager) Release(ctx context.Context) error {
	m.mu.Lock()
	sess := m.session
	m.session = nil
	if sess != nil {
		m.releasing++
	}
	m.mu.Unlock()
	if sess == nil {
		return nil
	}

	err := sess.Release(ctx)

	m.mu.Lock()
	m.releasing--
	if err != nil {
		m.err = err.Error()
	}
	m.mu.Unlock()
	m.metrics.observeRelease(err)

	if err != nil {
		m.log.Error().Err(err).Msg("release failed")
		m.publish(EventReleaseError, map[string]any{"error": err.Error()})
		return err
	}
	m.log.Info().Msg("session released")
	m.publish(EventReleaseDone, nil)
	return nil
}
