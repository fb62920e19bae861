//go:build windows

package supervisor

import (
	"os"
	"os/exec"
	"syscall"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"
)

func setProcessGroup(cmd *exec.Cmd) {
	// Windows has no process groups in the POSIX sense; descendants are
	// swept individually in killTree.
}

func killTree(logger *zap.SugaredLogger, pid int) {
	if proc, err := process.NewProcess(int32(pid)); err == nil {
		if kids, err := proc.Children(); err == nil {
			for _, kid := range kids {
				if running, err := kid.IsRunning(); err == nil && running {
					logger.Debugw("Killing descendant", "pid", kid.Pid)
					kid.Kill()
				}
			}
		}
	}

	if p, err := os.FindProcess(pid); err == nil {
		p.Kill()
	}
}

func terminationSignal(state *os.ProcessState) (syscall.Signal, bool) {
	return 0, false
}
