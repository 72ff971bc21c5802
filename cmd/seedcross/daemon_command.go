// Copyright (c) 2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func RunDaemonCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run cross-seed passes on a schedule",
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

			// A pass still in flight when the next tick fires is not
			// interrupted; the tick is skipped instead.
			var busy atomic.Bool
			runPass := func() {
				if !busy.CompareAndSwap(false, true) {
					log.Warn().Msg("previous pass still running, skipping this tick")
					return
				}
				defer busy.Store(false)

				if _, err := app.service.Run(ctx); err != nil && ctx.Err() == nil {
					log.Error().Err(err).Msg("cross-seed pass failed")
				}
			}

			scheduler := cron.New()
			spec := fmt.Sprintf("@every %s", app.cfg.SearchCadence)
			if _, err := scheduler.AddFunc(spec, runPass); err != nil {
				return fmt.Errorf("schedule passes: %w", err)
			}

			log.Info().Msgf("daemon started, running every %s", app.cfg.SearchCadence)
			scheduler.Start()
			runPass()

			<-ctx.Done()

			log.Info().Msg("shutting down")
			stopCtx := scheduler.Stop()
			<-stopCtx.Done()

			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file or directory")

	return cmd
}
