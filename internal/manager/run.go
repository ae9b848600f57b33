package manager

import (
	"context"
	"time"
)

// Run performs one inference against the live session. Options are the
// session defaults overlaid by opts. Engine errors are returned unchanged.
//
// The session reference is captured once; a Release that starts while the
// run is in flight does not interrupt it.
func (m *Manager) Run(ctx context.Context, feeds Feeds, opts RunOptions) (Outputs, error) {
	m.mu.RLock()
	sess := m.session
	m.mu.RUnlock()
	if sess == nil {
		return nil, ErrNotInitialized
	}

	startTs := time.Now()
	out, err := sess.Run(ctx, feeds, MergeRunOptions(m.cfg.DefaultRunOptions, opts))
	m.metrics.observeRun(startTs, err)
	if err != nil {
		m.log.Debug().Err(err).Msg("run failed")
	}
	return out, err
}
