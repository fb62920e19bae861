//go:build unix

package supervisor

import (
	"os"
	"os/exec"
	"syscall"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"
)

// setProcessGroup places the child in its own process group so a timeout
// can signal the group as a unit.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killTree forcibly terminates the child's process group, then sweeps any
// descendants that escaped the group (e.g. via setsid).
func killTree(logger *zap.SugaredLogger, pid int) {
	// Snapshot descendants before the group kill; a dead parent can't be
	// asked for its children afterwards.
	var descendants []*process.Process
	if proc, err := process.NewProcess(int32(pid)); err == nil {
		if kids, err := proc.Children(); err == nil {
			descendants = kids
		}
	}

	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil {
		logger.Warnw("Failed to kill process group, killing leader directly",
			"pid", pid,
			"error", err)
		syscall.Kill(pid, syscall.SIGKILL)
	}

	for _, kid := range descendants {
		if running, err := kid.IsRunning(); err == nil && running {
			logger.Debugw("Killing surviving descendant", "pid", kid.Pid)
			kid.Kill()
		}
	}
}

// terminationSignal extracts the signal that killed a child, if any.
func terminationSignal(state *os.ProcessState) (syscall.Signal, bool) {
	ws, ok := state.Sys().(syscall.WaitStatus)
	if !ok || !ws.Signaled() {
		return 0, false
	}
	return ws.Signal(), true
}
