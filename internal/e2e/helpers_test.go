package e2e

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"sessiond/internal/httpapi"
	"sessiond/internal/manager"
	"sessiond/pkg/types"
)

// sumEngine builds sessions that add every feed element-wise into "sum".
type sumEngine struct {
	env      *manager.Environment
	creates  atomic.Int32
	releases atomic.Int32
	gate     chan struct{}
}

func (e *sumEngine) Environment() *manager.Environment { return e.env }

func (e *sumEngine) CreateSession(ctx context.Context, model manager.ModelSource, opts manager.CreateOptions) (manager.Session, error) {
	e.creates.Add(1)
	if e.gate != nil {
		select {
		case <-e.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return &sumSession{eng: e, threads: e.env.NumThreads()}, nil
}

type sumSession struct {
	eng     *sumEngine
	threads int
	once    sync.Once
}

func (s *sumSession) Run(ctx context.Context, feeds manager.Feeds, opts manager.RunOptions) (manager.Outputs, error) {
	var acc types.Tensor
	for _, f := range feeds {
		t := f.(types.Tensor)
		if acc.Data == nil {
			acc = types.Tensor{Type: t.Type, Shape: t.Shape, Data: make([]float64, len(t.Data))}
		}
		for i, v := range t.Data {
			acc.Data[i] += v
		}
	}
	out := manager.Outputs{"sum": acc}
	if scale, ok := opts["scale"].(float64); ok {
		for i := range acc.Data {
			acc.Data[i] *= scale
		}
	}
	return out, nil
}

func (s *sumSession) Release(ctx context.Context) error {
	s.once.Do(func() { s.eng.releases.Add(1) })
	return nil
}

func newServer(t *testing.T, eng *sumEngine, cfg manager.SessionConfig, hw int) (*httptest.Server, *manager.Manager) {
	t.Helper()
	mgr, err := manager.NewWithConfig(manager.ManagerConfig{
		Engine:              eng,
		Session:             cfg,
		Metrics:             manager.NewMetrics(nil),
		HardwareConcurrency: func() int { return hw },
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	srv := httptest.NewServer(httpapi.NewMux(mgr))
	t.Cleanup(srv.Close)
	return srv, mgr
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func httpPostJSON(t *testing.T, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}
