package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"sessiond/internal/manager"
	"sessiond/pkg/types"
)

type checkReport struct {
	Sanity manager.SanityReport `json:"sanity"`
	Status types.StatusResponse `json:"status"`
	Events []string             `json:"events"`
	Error  string               `json:"error,omitempty"`
}

func newCheckCmd(o *options) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Create the session once, print its status, and release it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, o)
			if err != nil {
				return err
			}
			log, err := newLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
			if err != nil {
				return err
			}
			pub := manager.NewMemoryPublisher()
			mgr, eng, err := buildManager(cfg, log, pub)
			if err != nil {
				return err
			}
			defer func() { _ = eng.Shutdown() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return runCheck(ctx, mgr, pub, cmd.OutOrStdout())
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "Upper bound for session creation")
	return cmd
}

// lifecycle is the subset of *manager.Manager the check command drives.
type lifecycle interface {
	Init(ctx context.Context) error
	Release(ctx context.Context) error
	Status() types.StatusResponse
	SanityCheck() manager.SanityReport
}

// runCheck runs the sanity checks, performs init, snapshots status, then
// releases. The report is written even when init fails; the init error is returned.
func runCheck(ctx context.Context, m lifecycle, pub *manager.MemoryPublisher, w io.Writer) error {
	rep := checkReport{Sanity: m.SanityCheck()}
	initErr := m.Init(ctx)
	rep.Status = m.Status()
	if initErr != nil {
		rep.Error = initErr.Error()
	}
	releaseErr := m.Release(ctx)
	if pub != nil {
		rep.Events = pub.Names()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return err
	}
	if initErr != nil {
		return fmt.Errorf("check failed: %w", initErr)
	}
	if releaseErr != nil {
		return fmt.Errorf("release failed: %w", releaseErr)
	}
	return nil
}
