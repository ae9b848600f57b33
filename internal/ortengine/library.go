package ortengine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	ort "github.com/yalue/onnxruntime_go"

	"sessiond/internal/common/fsutil"
	"sessiond/internal/manager"
)

// runtimeMu guards process-wide ONNX Runtime initialization.
var (
	runtimeMu     sync.Mutex
	loadedLibrary string
)

// libraryResolver turns an environment snapshot into a shared library path.
type libraryResolver struct {
	cacheDir   string
	httpClient *http.Client
}

func isRemote(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// libraryPlan says where the library lives and, for cached copies, what to
// materialize there.
type libraryPlan struct {
	path  string
	bytes []byte
	url   string
}

func (r libraryResolver) cachePath(key []byte) string {
	sum := sha256.Sum256(key)
	return filepath.Join(r.cacheDir, hex.EncodeToString(sum[:8]), manager.RuntimeBinaryName)
}

// plan decides the library location for env without touching disk or network.
// Installed bytes win over the binary source. A local source is a directory
// or a release archive; archives are unpacked into the cache dir.
func (r libraryResolver) plan(env manager.EnvironmentSnapshot) (libraryPlan, error) {
	if len(env.Binary) > 0 {
		return libraryPlan{path: r.cachePath(env.Binary), bytes: env.Binary}, nil
	}
	src := env.BinarySource
	if src == "" {
		src = manager.DefaultBinarySource
	}
	url := manager.RuntimeBinaryURL(src)
	if !isRemote(src) {
		local, err := fsutil.ExpandHome(strings.TrimPrefix(src, "file://"))
		if err != nil {
			return libraryPlan{}, err
		}
		if url == src {
			return libraryPlan{path: r.cachePath([]byte(local)), url: local}, nil
		}
		return libraryPlan{path: filepath.Join(local, manager.RuntimeBinaryName)}, nil
	}
	return libraryPlan{path: r.cachePath([]byte(url)), url: url}, nil
}

// resolve returns the library path for env, materializing bytes or remote
// sources into the cache dir as needed.
func (r libraryResolver) resolve(ctx context.Context, env manager.EnvironmentSnapshot) (string, error) {
	p, err := r.plan(env)
	if err != nil {
		return "", err
	}
	if p.bytes == nil && p.url == "" {
		return p.path, nil
	}
	if fsutil.PathExists(p.path) {
		return p.path, nil
	}
	data := p.bytes
	if p.url != "" {
		if data, err = r.download(ctx, p.url); err != nil {
			return "", err
		}
		if data, err = manager.UnpackRuntimeBinary(p.url, data); err != nil {
			return "", errors.Wrap(err, "unpack runtime binary")
		}
	}
	if err := fsutil.WriteFileAtomic(p.path, data, 0o755); err != nil {
		return "", errors.Wrap(err, "cache runtime binary")
	}
	return p.path, nil
}

func (r libraryResolver) download(ctx context.Context, url string) ([]byte, error) {
	if !isRemote(url) {
		b, err := os.ReadFile(url)
		return b, errors.Wrapf(err, "read %s", url)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	client := r.httpClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "download %s", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Errorf("download %s: unexpected status %d", url, resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", url)
	}
	return b, nil
}

// ensureRuntime loads the shared library and initializes the ONNX Runtime
// environment if that has not happened yet in this process.
func ensureRuntime(ctx context.Context, r libraryResolver, env manager.EnvironmentSnapshot, severity int, log zerolog.Logger) error {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()

	if ort.IsInitialized() {
		if p, err := r.plan(env); err == nil && p.path != loadedLibrary {
			log.Warn().Str("loaded", loadedLibrary).Str("requested", p.path).Msg("runtime already initialized; binary source change ignored")
		}
		return nil
	}

	lib, err := r.resolve(ctx, env)
	if err != nil {
		return err
	}
	if _, err := os.Stat(lib); err != nil {
		return errors.Wrapf(err, "ONNX Runtime library not found at %s", lib)
	}
	ort.SetSharedLibraryPath(lib)
	if err := ort.InitializeEnvironment(); err != nil {
		return errors.Wrap(err, "initialize ONNX Runtime environment")
	}
	if err := ort.SetEnvironmentLogLevel(loggingLevel(severity)); err != nil {
		log.Warn().Err(err).Msg("set runtime log level")
	}
	loadedLibrary = lib
	log.Info().Str("library", lib).Msg("ONNX Runtime initialized")
	return nil
}

// shutdownRuntime destroys the process-wide ONNX Runtime environment.
func shutdownRuntime() error {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()
	if !ort.IsInitialized() {
		return nil
	}
	loadedLibrary = ""
	return errors.Wrap(ort.DestroyEnvironment(), "destroy ONNX Runtime environment")
}
