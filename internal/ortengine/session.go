package ortengine

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	ort "github.com/yalue/onnxruntime_go"

	"sessiond/internal/manager"
	"sessiond/pkg/types"
)

// session adapts a DynamicAdvancedSession to manager.Session. Runs share a
// read lock; Release takes the write lock, so it waits for in-flight runs
// before destroying native state.
type session struct {
	mu          sync.RWMutex
	sess        *ort.DynamicAdvancedSession
	inputNames  []string
	outputNames []string
	log         zerolog.Logger
}

// Run accepts feeds as ort.Value (borrowed, not destroyed) or types.Tensor
// (converted and destroyed after the run). Every model input must be fed.
func (s *session) Run(ctx context.Context, feeds manager.Feeds, opts manager.RunOptions) (manager.Outputs, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sess == nil {
		return nil, errors.New("session destroyed")
	}

	known := make(map[string]struct{}, len(s.inputNames))
	for _, n := range s.inputNames {
		known[n] = struct{}{}
	}
	for name := range feeds {
		if _, ok := known[name]; !ok {
			return nil, fmt.Errorf("unknown feed %q", name)
		}
	}

	inputs := make([]ort.Value, len(s.inputNames))
	var owned []ort.Value
	defer func() {
		for _, v := range owned {
			_ = v.Destroy()
		}
	}()
	for i, name := range s.inputNames {
		f, ok := feeds[name]
		if !ok {
			return nil, fmt.Errorf("missing feed %q", name)
		}
		switch v := f.(type) {
		case ort.Value:
			inputs[i] = v
		case types.Tensor:
			nv, err := newValue(name, v)
			if err != nil {
				return nil, err
			}
			owned = append(owned, nv)
			inputs[i] = nv
		case *types.Tensor:
			nv, err := newValue(name, *v)
			if err != nil {
				return nil, err
			}
			owned = append(owned, nv)
			inputs[i] = nv
		default:
			return nil, fmt.Errorf("feed %q: unsupported value type %T", name, f)
		}
	}

	// nil outputs are allocated by the runtime.
	outputs := make([]ort.Value, len(s.outputNames))
	defer func() {
		for _, v := range outputs {
			if v != nil {
				_ = v.Destroy()
			}
		}
	}()
	// The binding has no run options; only the tag is observed, for logs.
	if tag, ok := opts["tag"]; ok {
		s.log.Debug().Interface("tag", tag).Int("options", len(opts)).Msg("run")
	}
	if err := s.sess.Run(inputs, outputs); err != nil {
		return nil, errors.Wrap(err, "run session")
	}

	out := make(manager.Outputs, len(outputs))
	for i, name := range s.outputNames {
		t, err := fromValue(name, outputs[i])
		if err != nil {
			return nil, err
		}
		out[name] = t
	}
	return out, nil
}

// Release destroys the native session. Calling it twice is a no-op.
func (s *session) Release(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess == nil {
		return nil
	}
	err := s.sess.Destroy()
	s.sess = nil
	return errors.Wrap(err, "destroy session")
}
