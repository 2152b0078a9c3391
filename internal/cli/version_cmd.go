// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func newVersionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "ollamachat %s\n", Version)
			fmt.Fprintf(a.stdout, "  Commit:     %s\n", GitCommit)
			fmt.Fprintf(a.stdout, "  Built:      %s\n", BuildDate)
			fmt.Fprintf(a.stdout, "  Go version: %s\n", runtime.Version())
			fmt.Fprintf(a.stdout, "  Platform:   %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
