// Copyright (c) 2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/autobrr/seedcross/internal/buildinfo"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "seedcross",
		Short: "Cross-seeding pipeline for torrent trackers",
		Long: `seedcross scans your torrent directory, searches configured Torznab
indexers for matching releases on other trackers, and injects the matches
into your download client so they seed from the data you already have.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(RunRunCommand())
	rootCmd.AddCommand(RunDaemonCommand())
	rootCmd.AddCommand(RunIndexerCommand())
	rootCmd.AddCommand(RunUpdateCommand())
	rootCmd.AddCommand(RunVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func RunVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Print(buildinfo.String())
		},
	}
}
