//go:build !linux

package runner

import (
	"errors"
	"os"
	"os/exec"

	"github.com/shroukgbr89/parallel/internal/task/cgroup"
)

// configureCommand 非 Linux 平台只能结束直接子进程
func configureCommand(cmd *exec.Cmd, _ *cgroup.Manager) (func(), error) {
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return cmd.Process.Kill()
	}
	return func() {}, nil
}

func waitExit(int) error {
	return errors.ErrUnsupported
}

func killProcessGroup(int) {}

func rusage(state *os.ProcessState) (float64, int64) {
	if state == nil {
		return 0, 0
	}
	return (state.UserTime() + state.SystemTime()).Seconds(), 0
}
