//go:build !unix

package cli

import "os/exec"

func detachFromTerminal(cmd *exec.Cmd) {}
