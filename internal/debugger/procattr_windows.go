//go:build windows

package debugger

import (
	"os/exec"
	"syscall"
)

// setProcAttr sets platform-specific process attributes for the spawned
// adapter. On Windows a new process group allows clean termination.
func setProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}
