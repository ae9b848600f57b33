package e2e

import (
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"sessiond/internal/manager"
	"sessiond/pkg/types"
)

func cpuSession() manager.SessionConfig {
	return manager.SessionConfig{Model: manager.ModelSource{Path: "sum.onnx"}, ExecutionProvider: manager.ProviderCPU}
}

const sumBody = `{"feeds":{"a":{"shape":[2],"data":[1,2]},"b":{"shape":[2],"data":[10,20]}}}`

// TestE2E_Lifecycle drives init, run, and release over HTTP.
func TestE2E_Lifecycle(t *testing.T) {
	eng := &sumEngine{env: &manager.Environment{}}
	cfg := cpuSession()
	cfg.DefaultRunOptions = manager.RunOptions{"scale": 1.0}
	srv, _ := newServer(t, eng, cfg, 4)

	if resp, _ := httpGet(t, srv.URL+"/readyz"); resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("readyz before init: %d", resp.StatusCode)
	}
	if resp, body := httpPostJSON(t, srv.URL+"/run", []byte(sumBody)); resp.StatusCode != http.StatusConflict {
		t.Fatalf("run before init: %d %s", resp.StatusCode, body)
	}

	resp, body := httpPostJSON(t, srv.URL+"/init", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("init: %d %s", resp.StatusCode, body)
	}
	var st types.StatusResponse
	if err := json.Unmarshal(body, &st); err != nil {
		t.Fatalf("status json: %v", err)
	}
	if st.State != "ready" || st.BinarySource != manager.DefaultBinarySource {
		t.Fatalf("status after init: %+v", st)
	}

	resp, body = httpPostJSON(t, srv.URL+"/run", []byte(sumBody))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("run: %d %s", resp.StatusCode, body)
	}
	var rr types.RunResponse
	if err := json.Unmarshal(body, &rr); err != nil {
		t.Fatalf("run json: %v", err)
	}
	if got := rr.Outputs["sum"].Data; len(got) != 2 || got[0] != 11 || got[1] != 22 {
		t.Fatalf("sum=%v", got)
	}

	// Per-call options override the session defaults.
	resp, body = httpPostJSON(t, srv.URL+"/run", []byte(`{"feeds":{"a":{"shape":[1],"data":[3]}},"options":{"scale":2}}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("run scaled: %d %s", resp.StatusCode, body)
	}
	rr = types.RunResponse{}
	_ = json.Unmarshal(body, &rr)
	if got := rr.Outputs["sum"].Data; len(got) != 1 || got[0] != 6 {
		t.Fatalf("scaled sum=%v", got)
	}

	if resp, body := httpPostJSON(t, srv.URL+"/release", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("release: %d %s", resp.StatusCode, body)
	}
	if resp, _ := httpPostJSON(t, srv.URL+"/run", []byte(sumBody)); resp.StatusCode != http.StatusConflict {
		t.Fatalf("run after release: %d", resp.StatusCode)
	}
	if eng.releases.Load() != 1 {
		t.Fatalf("releases=%d", eng.releases.Load())
	}
}

// TestE2E_ConcurrentInit verifies parallel /init requests share one session creation.
func TestE2E_ConcurrentInit(t *testing.T) {
	eng := &sumEngine{env: &manager.Environment{}, gate: make(chan struct{})}
	srv, mgr := newServer(t, eng, cpuSession(), 4)

	const n = 8
	var wg sync.WaitGroup
	codes := make(chan int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := http.Post(srv.URL+"/init", "application/json", nil)
			if err != nil {
				codes <- 0
				return
			}
			_ = resp.Body.Close()
			codes <- resp.StatusCode
		}()
	}
	deadline := time.Now().Add(2 * time.Second)
	for mgr.Snapshot().State != manager.StateInitializing && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	close(eng.gate)
	wg.Wait()
	close(codes)
	for c := range codes {
		if c != http.StatusOK {
			t.Fatalf("init status=%d", c)
		}
	}
	if got := eng.creates.Load(); got != 1 {
		t.Fatalf("creates=%d", got)
	}
}

// TestE2E_ThreadsClampedInStatus checks the thread count reaches the engine environment.
func TestE2E_ThreadsClampedInStatus(t *testing.T) {
	eng := &sumEngine{env: &manager.Environment{}}
	cfg := cpuSession()
	cfg.MultiThread = true
	max := 64
	cfg.MaxThreads = &max
	srv, _ := newServer(t, eng, cfg, 6)

	if resp, body := httpPostJSON(t, srv.URL+"/init", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("init: %d %s", resp.StatusCode, body)
	}
	_, body := httpGet(t, srv.URL+"/status")
	var st types.StatusResponse
	if err := json.Unmarshal(body, &st); err != nil {
		t.Fatalf("status json: %v", err)
	}
	if st.NumThreads != 6 {
		t.Fatalf("threads=%d", st.NumThreads)
	}
}
