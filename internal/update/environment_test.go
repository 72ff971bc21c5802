// Copyright (c) 2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package update

import (
	"runtime"
	"testing"
)

// Windows binaries cannot replace themselves while running; the platform
// guard must never allow it.
func TestWindowsBlockedFromSelfUpdate(t *testing.T) {
	if runtime.GOOS == "windows" && isSelfUpdateSupportedPlatform() {
		t.Fatal("self-update must be unsupported on windows")
	}
	if runtime.GOOS != "windows" && !isSelfUpdateSupportedPlatform() {
		t.Fatalf("self-update should be supported on %s", runtime.GOOS)
	}
}
