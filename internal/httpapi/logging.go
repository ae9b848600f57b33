package httpapi

import (
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// zlog is the structured logger for the HTTP layer. Disabled until SetLogger.
var zlog = zerolog.Nop()

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = l.With().Str("component", "httpapi").Logger() }

func logger() *zerolog.Logger { return &zlog }

// LogLevel controls per-request logging behavior.
type LogLevel int

const (
	LevelOff LogLevel = iota
	LevelError
	LevelInfo
	LevelDebug
)

func parseLevel(s string) LogLevel {
	switch s {
	case "off", "":
		return LevelOff
	case "error":
		return LevelError
	case "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// global default, read once
var defaultLogLevel = parseLevel(os.Getenv("SESSIOND_LOG_REQUESTS"))

func requestLogLevel(r *http.Request) LogLevel {
	// Per-request overrides
	if v := r.URL.Query().Get("log"); v != "" {
		if v == "1" {
			return LevelDebug
		}
		return parseLevel(v)
	}
	if v := r.Header.Get("X-Log-Level"); v != "" {
		return parseLevel(v)
	}
	return defaultLogLevel
}

// logEnd records the outcome of an operation endpoint at the request's level.
// Errors are logged at LevelError and above; successes need LevelInfo.
func logEnd(r *http.Request, op string, status int, start time.Time, err error) {
	lvl := requestLogLevel(r)
	if lvl == LevelOff || (err == nil && lvl < LevelInfo) {
		return
	}
	ev := zlog.Info()
	if err != nil {
		ev = zlog.Warn().Err(err)
	}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		ev = ev.Str("request_id", rid)
	}
	ev.Str("op", op).Int("status", status).Dur("dur", time.Since(start)).Msg("request end")
}
