package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sessiond/internal/manager"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sessiond %s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "onnxruntime %s\n", manager.RuntimeVersion)
			fmt.Fprintf(cmd.OutOrStdout(), "runtime binaries: %s\n", manager.RuntimeBinaryURL(manager.DefaultBinarySource))
		},
	}
}
