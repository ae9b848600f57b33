package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sessiond/internal/manager"
	"sessiond/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Init(ctx context.Context) error
	Run(ctx context.Context, feeds manager.Feeds, opts manager.RunOptions) (manager.Outputs, error)
	Release(ctx context.Context) error
	Status() types.StatusResponse
	Ready() bool
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(corsHandler())
	}
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Status())
	})

	r.Post("/init", func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		if err := svc.Init(ctx); err != nil {
			status := statusFor(err)
			writeJSONError(w, status, err.Error())
			logEnd(r, "init", status, start, err)
			return
		}
		writeJSON(w, http.StatusOK, svc.Status())
		logEnd(r, "init", http.StatusOK, start, nil)
	})

	r.Post("/release", func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		if err := svc.Release(r.Context()); err != nil {
			status := statusFor(err)
			writeJSONError(w, status, err.Error())
			logEnd(r, "release", status, start, err)
			return
		}
		writeJSON(w, http.StatusOK, svc.Status())
		logEnd(r, "release", http.StatusOK, start, nil)
	})

	r.Post("/run", func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		// Content-Type check
		ct := r.Header.Get("Content-Type")
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var req types.RunRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			// Oversized bodies also land here; report them as 400 without size details.
			writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if len(req.Feeds) == 0 {
			writeJSONError(w, http.StatusBadRequest, "feeds are required")
			return
		}
		feeds := make(manager.Feeds, len(req.Feeds))
		for name, t := range req.Feeds {
			n, ok := t.Elements()
			if !ok {
				writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("feed %q: invalid shape %v", name, t.Shape))
				return
			}
			if int64(len(t.Data)) != n {
				writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("feed %q: shape %v needs %d elements, got %d", name, t.Shape, n, len(t.Data)))
				return
			}
			feeds[name] = t
		}

		// Join server base context with request context so shutdown cancels work too.
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		if runTimeout > 0 {
			var tcancel context.CancelFunc
			ctx, tcancel = context.WithTimeout(ctx, runTimeout)
			defer tcancel()
		}
		engineStart := time.Now()
		out, err := svc.Run(ctx, feeds, manager.RunOptions(req.Options))
		if err != nil {
			// If context was canceled (client disconnect), just return.
			if r.Context().Err() != nil {
				return
			}
			status := statusFor(err)
			writeJSONError(w, status, err.Error())
			logEnd(r, "run", status, start, err)
			return
		}
		resp := types.RunResponse{
			Outputs:    make(map[string]types.Tensor, len(out)),
			DurationMs: time.Since(engineStart).Milliseconds(),
		}
		for name, v := range out {
			switch t := v.(type) {
			case types.Tensor:
				resp.Outputs[name] = t
			case *types.Tensor:
				resp.Outputs[name] = *t
			default:
				err := fmt.Errorf("output %q: unsupported value type %T", name, v)
				writeJSONError(w, http.StatusInternalServerError, err.Error())
				logEnd(r, "run", http.StatusInternalServerError, start, err)
				return
			}
		}
		writeJSON(w, http.StatusOK, resp)
		logEnd(r, "run", http.StatusOK, start, nil)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not initialized"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}

func corsHandler() func(http.Handler) http.Handler {
	origins := corsAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	methods := corsAllowedMethods
	if len(methods) == 0 {
		methods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	}
	headers := corsAllowedHeaders
	if len(headers) == 0 {
		headers = []string{"Accept", "Content-Type", "X-Request-Id", "X-Log-Level"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: methods,
		AllowedHeaders: headers,
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	})
}
