//go:build windows

package engine

import (
	"os/exec"
	"time"
)

// setProcGroup only bounds the pipe drain on Windows; exec.CommandContext
// already kills the direct child on cancellation.
func setProcGroup(cmd *exec.Cmd) {
	cmd.WaitDelay = 3 * time.Second
}
