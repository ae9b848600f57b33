package manager

import (
	"time"

	"sessiond/pkg/types"
)

func (m *Manager) stateLocked() State {
	switch {
	case m.session != nil:
		return StateReady
	case m.initializing:
		return StateInitializing
	case m.releasing > 0:
		return StateReleasing
	default:
		return StateUninitialized
	}
}

// Snapshot returns a read-only view of the manager state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		ID:                m.id,
		State:             m.stateLocked(),
		ExecutionProvider: m.cfg.ExecutionProvider,
		HasSession:        m.session != nil,
		Err:               m.err,
	}
}

// Status builds a detailed status response for /status.
func (m *Manager) Status() types.StatusResponse {
	env := m.env.Snapshot()
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := time.Now()
	return types.StatusResponse{
		ID:                m.id,
		State:             string(m.stateLocked()),
		ExecutionProvider: string(m.cfg.ExecutionProvider),
		Model:             m.cfg.Model.String(),
		BinarySource:      env.BinarySource,
		BinaryLoaded:      len(env.Binary) > 0,
		NumThreads:        env.NumThreads,
		LastError:         m.err,
		UptimeSeconds:     int64(now.Sub(m.startTime) / time.Second),
		ServerTimeUnix:    now.Unix(),
	}
}
