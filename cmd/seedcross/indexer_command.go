// Copyright (c) 2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"github.com/spf13/cobra"

	"github.com/autobrr/seedcross/internal/models"
)

func RunIndexerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "indexer",
		Short: "Indexer operations",
	}

	cmd.AddCommand(runIndexerListCommand())
	cmd.AddCommand(runIndexerEnableCommand(true))
	cmd.AddCommand(runIndexerEnableCommand(false))

	return cmd
}

func runIndexerListCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List configured indexers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd.Context(), configPath)
			if err != nil {
				return err
			}
			defer app.Close()

			indexers, err := models.NewIndexerStore(app.db).List(cmd.Context())
			if err != nil {
				return err
			}

			for _, idx := range indexers {
				state := "disabled"
				if idx.Enabled {
					state = "enabled"
				}
				cmd.Printf("%-30s %-8s %s\n", idx.Name, state, idx.BaseURL)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file or directory")

	return cmd
}

func runIndexerEnableCommand(enable bool) *cobra.Command {
	var configPath string

	use, short := "enable <name>", "Enable an indexer"
	if !enable {
		use, short = "disable <name>", "Disable an indexer"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context(), configPath)
			if err != nil {
				return err
			}
			defer app.Close()

			return models.NewIndexerStore(app.db).SetEnabled(cmd.Context(), args[0], enable)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file or directory")

	return cmd
}
