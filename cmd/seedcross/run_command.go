// Copyright (c) 2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func RunRunCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one cross-seed pass and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := newApp(ctx, configPath)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.verifyClient(ctx); err != nil {
				return err
			}

			summary, err := app.service.Run(ctx)
			if err != nil {
				return err
			}

			cmd.Printf("scanned %d, eligible %d, searched %d, matched %d\n",
				summary.Scanned, summary.Eligible, summary.Searched, summary.Matched)
			cmd.Printf("injected %d, already present %d, saved %d, failed %d\n",
				summary.Injected, summary.AlreadyExists, summary.Saved, summary.Failed)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file or directory")

	return cmd
}
