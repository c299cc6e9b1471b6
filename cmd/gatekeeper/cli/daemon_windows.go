//go:build windows

package cli

import (
	"errors"
	"os"
	"os/exec"
)

// setSysProcAttr is a no-op on Windows. Run the server under a service
// wrapper for production use.
func setSysProcAttr(cmd *exec.Cmd) {}

// isProcessRunning reports whether pid is alive. Windows only supports
// Kill and Interrupt, so an interrupt is sent and ErrProcessDone means dead.
func isProcessRunning(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(os.Interrupt)
	return !errors.Is(err, os.ErrProcessDone)
}

// stopProcess kills the process on Windows (no graceful SIGTERM support).
func stopProcess(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Kill()
}
