package manager

import (
	"reflect"
	"testing"
)

func TestEventsInitAndRelease(t *testing.T) {
	eng := newFakeEngine()
	cfg := cpuConfig()
	cfg.MultiThread = true
	m, pub := newTestManager(t, eng, cfg, 4)
	ctx := testCtx(t)
	if err := m.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := m.Release(ctx); err != nil {
		t.Fatalf("Release: %v", err)
	}
	want := []string{EventInitStart, EventThreadsSet, EventInitReady, EventReleaseDone}
	if got := pub.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("events=%v want %v", got, want)
	}
	for _, e := range pub.Events() {
		if e.ManagerID != m.ID() {
			t.Fatalf("event %s carries manager id %q", e.Name, e.ManagerID)
		}
		if e.Fields == nil {
			t.Fatalf("event %s has nil fields", e.Name)
		}
	}
	if th := pub.Events()[1].Fields["threads"]; th != 4 {
		t.Fatalf("threads field=%v", th)
	}
}

func TestEventsInitError(t *testing.T) {
	eng := newFakeEngine()
	eng.setCreateErr(errBoom)
	m, pub := newTestManager(t, eng, cpuConfig(), 4)
	_ = m.Init(testCtx(t))
	want := []string{EventInitStart, EventInitError}
	if got := pub.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("events=%v want %v", got, want)
	}
	if msg, _ := pub.Events()[1].Fields["error"].(string); msg == "" {
		t.Fatalf("init_error should carry the error message")
	}
}

func TestEventsReleaseError(t *testing.T) {
	eng := newFakeEngine()
	eng.sess.releaseErr = errBoom
	m, pub := newTestManager(t, eng, cpuConfig(), 4)
	ctx := testCtx(t)
	_ = m.Init(ctx)
	_ = m.Release(ctx)
	names := pub.Names()
	if names[len(names)-1] != EventReleaseError {
		t.Fatalf("events=%v", names)
	}
}

func TestMemoryPublisherEventsIsCopy(t *testing.T) {
	p := NewMemoryPublisher()
	p.Publish(Event{Name: "a"})
	evs := p.Events()
	evs[0].Name = "mutated"
	if p.Names()[0] != "a" {
		t.Fatalf("Events must return a copy")
	}
}
