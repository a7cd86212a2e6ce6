// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"fmt"
	"os"
	"time"
)

// RunHelperProcess implements the body of the TestHelperProcess test that each
// package using ExecRecorder must declare:
//
//	func TestHelperProcess(t *testing.T) { testutil.RunHelperProcess() }
//
// It reads the scripted behavior from environment variables and terminates the
// process, so it must only ever run inside the re-invoked test binary.
func RunHelperProcess() {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	if os.Getenv("GO_HELPER_HANG") == "1" {
		// Sleep until the CommandContext deadline kills us.
		time.Sleep(time.Minute)
	}

	if stdout := os.Getenv("GO_HELPER_STDOUT"); stdout != "" {
		fmt.Fprint(os.Stdout, stdout)
	}

	if stderr := os.Getenv("GO_HELPER_STDERR"); stderr != "" {
		fmt.Fprint(os.Stderr, stderr)
	}

	exitCode := 0
	if code := os.Getenv("GO_HELPER_EXIT_CODE"); code != "" {
		fmt.Sscanf(code, "%d", &exitCode)
	}

	os.Exit(exitCode)
}
