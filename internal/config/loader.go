package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"sessiond/internal/manager"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are filled by ApplyDefaults.
type Config struct {
	Addr         string `json:"addr" yaml:"addr" toml:"addr"`
	LogLevel     string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat    string `json:"log_format" yaml:"log_format" toml:"log_format"`
	InitOnStart  bool   `json:"init_on_start" yaml:"init_on_start" toml:"init_on_start"`
	MaxBodyBytes int64  `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	CacheDir     string `json:"cache_dir" yaml:"cache_dir" toml:"cache_dir"`

	// RunTimeoutSeconds bounds each POST /run; 0 disables.
	RunTimeoutSeconds int `json:"run_timeout_seconds" yaml:"run_timeout_seconds" toml:"run_timeout_seconds"`

	CORSEnabled        bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSAllowedOrigins []string `json:"cors_allowed_origins" yaml:"cors_allowed_origins" toml:"cors_allowed_origins"`
	CORSAllowedMethods []string `json:"cors_allowed_methods" yaml:"cors_allowed_methods" toml:"cors_allowed_methods"`
	CORSAllowedHeaders []string `json:"cors_allowed_headers" yaml:"cors_allowed_headers" toml:"cors_allowed_headers"`

	Session Session `json:"session" yaml:"session" toml:"session"`
}

// Session is the file form of manager.SessionConfig.
type Session struct {
	Model                  string         `json:"model" yaml:"model" toml:"model"`
	ExecutionProvider      string         `json:"execution_provider" yaml:"execution_provider" toml:"execution_provider"`
	BinarySource           string         `json:"binary_source" yaml:"binary_source" toml:"binary_source"`
	MultiThread            bool           `json:"multi_thread" yaml:"multi_thread" toml:"multi_thread"`
	MaxThreads             *int           `json:"max_threads" yaml:"max_threads" toml:"max_threads"`
	PrefetchBinary         bool           `json:"prefetch_binary" yaml:"prefetch_binary" toml:"prefetch_binary"`
	GraphOptimizationLevel string         `json:"graph_optimization_level" yaml:"graph_optimization_level" toml:"graph_optimization_level"`
	LogID                  string         `json:"log_id" yaml:"log_id" toml:"log_id"`
	LogVerbosityLevel      int            `json:"log_verbosity_level" yaml:"log_verbosity_level" toml:"log_verbosity_level"`
	LogSeverityLevel       *int           `json:"log_severity_level" yaml:"log_severity_level" toml:"log_severity_level"`
	RunOptions             map[string]any `json:"run_options" yaml:"run_options" toml:"run_options"`
}

// Defaults used by ApplyDefaults.
const (
	DefaultAddr         = ":8080"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "console"
	DefaultMaxBodyBytes = 8 << 20

	// DefaultLogSeverityLevel is ONNX Runtime's own default (warning).
	DefaultLogSeverityLevel = 2
)

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// ApplyDefaults fills unspecified service-level fields.
func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.Session.LogSeverityLevel == nil {
		n := DefaultLogSeverityLevel
		c.Session.LogSeverityLevel = &n
	}
}

// SessionConfig converts the session section into a manager.SessionConfig.
// Enum strings are normalized to lower case; unknown graph levels and an
// empty model are rejected here. Provider support, including an absent
// provider, is left to manager.New.
func (c Config) SessionConfig() (manager.SessionConfig, error) {
	s := c.Session
	if strings.TrimSpace(s.Model) == "" {
		return manager.SessionConfig{}, fmt.Errorf("session.model is required")
	}
	level, err := parseGraphLevel(s.GraphOptimizationLevel)
	if err != nil {
		return manager.SessionConfig{}, err
	}
	if s.MaxThreads != nil && *s.MaxThreads < 0 {
		return manager.SessionConfig{}, fmt.Errorf("session.max_threads must be >= 0, got %d", *s.MaxThreads)
	}
	severity := DefaultLogSeverityLevel
	if s.LogSeverityLevel != nil {
		severity = *s.LogSeverityLevel
	}
	return manager.SessionConfig{
		Model:                  manager.ModelSource{Path: s.Model},
		ExecutionProvider:      manager.ExecutionProvider(strings.ToLower(strings.TrimSpace(s.ExecutionProvider))),
		BinarySource:           s.BinarySource,
		MultiThread:            s.MultiThread,
		MaxThreads:             s.MaxThreads,
		PrefetchBinary:         s.PrefetchBinary,
		GraphOptimizationLevel: level,
		LogID:                  s.LogID,
		LogVerbosityLevel:      s.LogVerbosityLevel,
		LogSeverityLevel:       severity,
		DefaultRunOptions:      manager.RunOptions(s.RunOptions),
	}, nil
}

func parseGraphLevel(s string) (manager.GraphOptimizationLevel, error) {
	switch lv := manager.GraphOptimizationLevel(strings.ToLower(strings.TrimSpace(s))); lv {
	case "":
		return "", nil
	case manager.GraphOptimizationDisabled, manager.GraphOptimizationBasic,
		manager.GraphOptimizationExtended, manager.GraphOptimizationAll:
		return lv, nil
	default:
		return "", fmt.Errorf("unknown graph_optimization_level %q", s)
	}
}
