// Copyright (c) 2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package update

import (
	"errors"
	"os"
	"runtime"
	"strings"
)

// ErrSelfUpdateUnsupported is returned when the current environment does not
// support self-updates.
var ErrSelfUpdateUnsupported = errors.New("self-update is not supported in this environment")

// CanSelfUpdate reports whether an in-place binary update is safe here.
// Containers get their updates through image pulls, and Windows binaries
// cannot replace themselves while running.
func CanSelfUpdate() error {
	if !isSelfUpdateSupportedPlatform() || isRunningInContainer() {
		return ErrSelfUpdateUnsupported
	}
	return nil
}

// isRunningInContainer tries to detect whether the application is running
// inside a container environment. The heuristics are conservative and based
// on common container markers: /.dockerenv (Docker), /run/.containerenv
// (Podman, other runtimes), and control group identifiers containing
// well-known container keywords.
func isRunningInContainer() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	if _, err := os.Stat("/run/.containerenv"); err == nil {
		return true
	}

	data, err := os.ReadFile("/proc/1/cgroup")
	if err != nil {
		return false
	}

	content := string(data)
	containerIndicators := []string{"docker", "kubepods", "containerd", "libpod"}
	for _, indicator := range containerIndicators {
		if strings.Contains(content, indicator) {
			return true
		}
	}

	return false
}

// isSelfUpdateSupportedPlatform returns true if the current GOOS supports
// in-place updates.
func isSelfUpdateSupportedPlatform() bool {
	return runtime.GOOS != "windows"
}
