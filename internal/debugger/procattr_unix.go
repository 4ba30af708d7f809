//go:build !windows

package debugger

import (
	"os/exec"
	"syscall"
)

// setProcAttr sets platform-specific process attributes for the spawned
// adapter. On Unix the adapter gets its own session so killing it takes
// the whole process tree down with it.
func setProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
