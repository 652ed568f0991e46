//go:build !windows

package compiler

import "os/exec"

func hideWindowOnWindows(cmd *exec.Cmd) {}
