// Copyright (c) 2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"github.com/spf13/cobra"

	"github.com/autobrr/seedcross/internal/buildinfo"
	"github.com/autobrr/seedcross/internal/update"
)

func RunUpdateCommand() *cobra.Command {
	var checkOnly bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update seedcross to the latest release",
		RunE: func(cmd *cobra.Command, _ []string) error {
			updater := update.NewUpdater(update.Config{
				Repository: "autobrr/seedcross",
				Version:    buildinfo.Version,
			})

			if checkOnly {
				latest, err := updater.LatestVersion(cmd.Context())
				if err != nil {
					return err
				}
				cmd.Printf("current: %s\nlatest:  %s\n", buildinfo.Version, latest)
				return nil
			}

			updated, err := updater.Run(cmd.Context())
			if err != nil {
				return err
			}
			if !updated {
				cmd.Printf("already on the latest version: %s\n", buildinfo.Version)
				return nil
			}
			cmd.Println("updated successfully")
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkOnly, "check", false, "Check for a newer release without installing it")

	return cmd
}
