//go:build windows

package runner

import (
	"os/exec"
	"strconv"
	"syscall"
)

// isolateProcessGroup starts the shell in a new process group and kills the
// whole tree with taskkill on cancellation.
func isolateProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
	cmd.Cancel = func() error {
		return exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(cmd.Process.Pid)).Run()
	}
}
