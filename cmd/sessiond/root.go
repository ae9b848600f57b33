package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"sessiond/internal/config"
)

// options mirrors the command-line flags. Flags that were set explicitly
// override values loaded from the config file.
type options struct {
	configPath   string
	addr         string
	logLevel     string
	logFormat    string
	cacheDir     string
	maxBodyBytes int64
	corsOrigins  string
	runTimeout   int

	model          string
	provider       string
	binarySource   string
	multiThread    bool
	maxThreads     int
	prefetchBinary bool
	graphLevel     string
	logSeverity    int
	initOnStart    bool
}

func newRootCmd() *cobra.Command {
	defaultAddr := config.DefaultAddr
	if v := os.Getenv("SESSIOND_ADDR"); v != "" {
		defaultAddr = v
	}
	return newRootCmdWith(&options{}, os.Getenv("SESSIOND_CONFIG"), defaultAddr)
}

// newRootCmdWith builds the command tree bound to o.
func newRootCmdWith(o *options, defaultConfig, defaultAddr string) *cobra.Command {
	root := &cobra.Command{
		Use:           "sessiond",
		Short:         "Serve a single ONNX Runtime inference session over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&o.configPath, "config", defaultConfig, "Path to a .yaml, .json or .toml config file (defaults SESSIOND_CONFIG)")
	pf.StringVar(&o.logLevel, "log-level", config.DefaultLogLevel, "Log level: debug|info|warn|error")
	pf.StringVar(&o.logFormat, "log-format", config.DefaultLogFormat, "Log format: console|json")
	pf.StringVar(&o.cacheDir, "cache-dir", "", "Directory for cached runtime libraries (defaults to the user cache dir)")
	pf.StringVar(&o.model, "model", "", "Path or http(s) URL of the .onnx model")
	pf.StringVar(&o.provider, "provider", "", "Execution provider: cpu|wasm (required)")
	pf.StringVar(&o.binarySource, "binary-source", "", "Directory or URL prefix holding the runtime shared library")
	pf.BoolVar(&o.multiThread, "multi-thread", false, "Run the session with multiple worker threads")
	pf.IntVar(&o.maxThreads, "max-threads", 0, "Upper bound on worker threads when --multi-thread is set (0 = engine default; unset = hardware concurrency)")
	pf.BoolVar(&o.prefetchBinary, "prefetch-binary", false, "Fetch the runtime library before creating the session")
	pf.StringVar(&o.graphLevel, "graph-optimization", "", "Graph optimization level: disabled|basic|extended|all")
	pf.IntVar(&o.logSeverity, "ort-log-severity", config.DefaultLogSeverityLevel, "ONNX Runtime log severity (0 verbose .. 4 fatal)")

	root.AddCommand(newServeCmd(o, defaultAddr), newCheckCmd(o), newVersionCmd())
	return root
}

// resolveConfig layers explicitly set flags over the config file over defaults.
func resolveConfig(cmd *cobra.Command, o *options) (config.Config, error) {
	var cfg config.Config
	if o.configPath != "" {
		c, err := config.Load(o.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config %s: %w", o.configPath, err)
		}
		cfg = c
	}
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}
	if changed("addr") || cfg.Addr == "" {
		cfg.Addr = o.addr
	}
	if changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if changed("log-format") {
		cfg.LogFormat = o.logFormat
	}
	if changed("cache-dir") {
		cfg.CacheDir = o.cacheDir
	}
	if changed("max-body-bytes") {
		cfg.MaxBodyBytes = o.maxBodyBytes
	}
	if changed("cors-origins") {
		cfg.CORSEnabled = true
		cfg.CORSAllowedOrigins = splitCSV(o.corsOrigins)
	}
	if changed("run-timeout-seconds") {
		cfg.RunTimeoutSeconds = o.runTimeout
	}
	if changed("init-on-start") {
		cfg.InitOnStart = o.initOnStart
	}
	if changed("model") {
		cfg.Session.Model = o.model
	}
	if changed("provider") {
		cfg.Session.ExecutionProvider = o.provider
	}
	if changed("binary-source") {
		cfg.Session.BinarySource = o.binarySource
	}
	if changed("multi-thread") {
		cfg.Session.MultiThread = o.multiThread
	}
	if changed("max-threads") {
		n := o.maxThreads
		cfg.Session.MaxThreads = &n
	}
	if changed("prefetch-binary") {
		cfg.Session.PrefetchBinary = o.prefetchBinary
	}
	if changed("graph-optimization") {
		cfg.Session.GraphOptimizationLevel = o.graphLevel
	}
	if changed("ort-log-severity") {
		n := o.logSeverity
		cfg.Session.LogSeverityLevel = &n
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// splitCSV splits a comma-separated list, trimming blanks and dropping empties.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
