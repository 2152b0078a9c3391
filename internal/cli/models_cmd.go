// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/ollamachat/internal/api"
	"github.com/jeranaias/ollamachat/internal/util"
)

func newModelsCommand(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the models the Chat API offers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			logger, err := a.logger(nil)
			if err != nil {
				return err
			}

			models, err := a.newController(cfg, logger).ListModels(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to fetch models: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(api.ModelsResponse{Models: models})
			}

			fmt.Fprintf(a.stdout, "Connection successful! Found %d models.\n", len(models))
			for _, m := range models {
				marker := " "
				if m.Name == cfg.Chat.DefaultModel {
					marker = "*"
				}
				line := fmt.Sprintf(" %s %s", marker, util.PadRight(m.Name, 32))
				if m.Size > 0 {
					line += " " + util.PadRight(util.FormatBytes(m.Size), 10)
				}
				if m.ModifiedAt != "" {
					line += " " + m.ModifiedAt
				}
				fmt.Fprintln(a.stdout, line)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output in JSON format")
	return cmd
}
