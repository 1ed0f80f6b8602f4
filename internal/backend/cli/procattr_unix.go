//go:build unix

package cli

import (
	"os/exec"
	"syscall"
)

// detachFromTerminal puts the child in its own process group so a terminal
// Ctrl+C reaches only qagen, which lets the call finish before saving.
func detachFromTerminal(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
