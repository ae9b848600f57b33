package manager

// Event represents a manager lifecycle event.
// Minimal and stable: name + manager ID and optional fields via key/values.
type Event struct {
	Name      string
	ManagerID string
	Fields    map[string]any
}

// EventPublisher receives events from the manager. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

// Event names published by the manager.
const (
	EventInitStart    = "init_start"
	EventPrefetchDone = "prefetch_done"
	EventThreadsSet   = "threads_set"
	EventInitReady    = "init_ready"
	EventInitError    = "init_error"
	EventReleaseDone  = "release_done"
	EventReleaseError = "release_error"
)

func (m *Manager) publish(name string, fields map[string]any) {
	if fields == nil {
		fields = map[string]any{}
	}
	m.publisher.Publish(Event{Name: name, ManagerID: m.id, Fields: fields})
}
