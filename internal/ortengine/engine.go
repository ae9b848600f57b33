package ortengine

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	ort "github.com/yalue/onnxruntime_go"

	"sessiond/internal/common/fsutil"
	"sessiond/internal/manager"
)

// Options configures an Engine.
type Options struct {
	// Environment defaults to manager.SharedEnvironment().
	Environment *manager.Environment
	// CacheDir holds downloaded or installed runtime libraries.
	// Defaults to <user cache dir>/sessiond.
	CacheDir string
	// HTTPClient is used for the engine's own library and model downloads.
	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

// Engine creates ONNX Runtime sessions.
type Engine struct {
	env      *manager.Environment
	resolver libraryResolver
	log      zerolog.Logger
}

// New builds an Engine. It does not load the runtime; the first
// CreateSession does.
func New(opts Options) (*Engine, error) {
	dir, err := fsutil.CacheDir(opts.CacheDir, "sessiond")
	if err != nil {
		return nil, err
	}
	env := opts.Environment
	if env == nil {
		env = manager.SharedEnvironment()
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	return &Engine{
		env:      env,
		resolver: libraryResolver{cacheDir: dir, httpClient: opts.HTTPClient},
		log:      log.With().Str("component", "ortengine").Logger(),
	}, nil
}

func (e *Engine) Environment() *manager.Environment { return e.env }

// CreateSession loads the runtime if needed and opens the model.
func (e *Engine) CreateSession(ctx context.Context, model manager.ModelSource, opts manager.CreateOptions) (manager.Session, error) {
	for _, p := range opts.ExecutionProviders {
		if !p.Supported() {
			return nil, errors.Errorf("execution provider %q is not available in this runtime", p)
		}
	}
	env := e.env.Snapshot()
	if err := ensureRuntime(ctx, e.resolver, env, opts.LogSeverityLevel, e.log); err != nil {
		return nil, err
	}

	so, err := ort.NewSessionOptions()
	if err != nil {
		return nil, errors.Wrap(err, "create session options")
	}
	defer so.Destroy()
	if err := applySessionOptions(so, env.NumThreads, opts); err != nil {
		return nil, err
	}

	data, path, err := e.loadModel(ctx, model)
	if err != nil {
		return nil, err
	}
	var ins, outs []ort.InputOutputInfo
	if data != nil {
		ins, outs, err = ort.GetInputOutputInfoWithONNXData(data)
	} else {
		ins, outs, err = ort.GetInputOutputInfo(path)
	}
	if err != nil {
		return nil, errors.Wrap(err, "read model inputs and outputs")
	}
	inNames := ioNames(ins)
	outNames := ioNames(outs)

	var sess *ort.DynamicAdvancedSession
	if data != nil {
		sess, err = ort.NewDynamicAdvancedSessionWithONNXData(data, inNames, outNames, so)
	} else {
		sess, err = ort.NewDynamicAdvancedSession(path, inNames, outNames, so)
	}
	if err != nil {
		return nil, errors.Wrap(err, "create ONNX Runtime session")
	}

	log := e.log.With().Str("log_id", opts.LogID).Logger()
	log.Info().
		Str("model", model.String()).
		Strs("inputs", inNames).
		Strs("outputs", outNames).
		Int("threads", env.NumThreads).
		Int("severity", opts.LogSeverityLevel).
		Int("verbosity", opts.LogVerbosityLevel).
		Msg("session created")
	return &session{sess: sess, inputNames: inNames, outputNames: outNames, log: log}, nil
}

// loadModel returns in-memory model bytes, or a local path to open.
// http(s) model paths are downloaded into memory.
func (e *Engine) loadModel(ctx context.Context, model manager.ModelSource) ([]byte, string, error) {
	if len(model.Data) > 0 {
		return model.Data, "", nil
	}
	if model.Path == "" {
		return nil, "", errors.New("model source is empty")
	}
	if isRemote(model.Path) {
		b, err := e.resolver.download(ctx, model.Path)
		if err != nil {
			return nil, "", errors.Wrap(err, "fetch model")
		}
		return b, "", nil
	}
	p, err := fsutil.ExpandHome(model.Path)
	if err != nil {
		return nil, "", err
	}
	return nil, p, nil
}

// sessionOptions is the part of *ort.SessionOptions CreateSession configures.
type sessionOptions interface {
	SetIntraOpNumThreads(n int) error
	SetGraphOptimizationLevel(level ort.GraphOptimizationLevel) error
	SetLogSeverityLevel(level ort.LoggingLevel) error
}

// applySessionOptions sets per-session knobs. threads <= 0 keeps the
// runtime default. The environment log level is fixed by the first session,
// so severity is also set here on every session.
func applySessionOptions(so sessionOptions, threads int, opts manager.CreateOptions) error {
	if threads > 0 {
		if err := so.SetIntraOpNumThreads(threads); err != nil {
			return errors.Wrap(err, "set intra-op threads")
		}
	}
	if err := so.SetGraphOptimizationLevel(graphLevel(opts.GraphOptimizationLevel)); err != nil {
		return errors.Wrap(err, "set graph optimization level")
	}
	if err := so.SetLogSeverityLevel(loggingLevel(opts.LogSeverityLevel)); err != nil {
		return errors.Wrap(err, "set log severity level")
	}
	return nil
}

func ioNames(infos []ort.InputOutputInfo) []string {
	out := make([]string, 0, len(infos))
	for _, i := range infos {
		out = append(out, i.Name)
	}
	return out
}

// Shutdown destroys the process-wide runtime. Sessions must be released first.
func (e *Engine) Shutdown() error { return shutdownRuntime() }
