//go:build linux

package runner

import (
	"os"
	"os/exec"
	"syscall"

	"github.com/shroukgbr89/parallel/internal/task/cgroup"

	"golang.org/x/sys/unix"
)

// configureCommand 子进程单独成组，取消时向整个进程组发送 SIGKILL；
// cg 不为空时子进程直接在该 cgroup 中启动
func configureCommand(cmd *exec.Cmd, cg *cgroup.Manager) (func(), error) {
	attr := &syscall.SysProcAttr{Setpgid: true}
	cleanup := func() {}
	if cg != nil {
		f, err := cg.Open()
		if err != nil {
			return nil, err
		}
		attr.UseCgroupFD = true
		attr.CgroupFD = int(f.Fd())
		cleanup = func() { _ = f.Close() }
	}
	cmd.SysProcAttr = attr
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		// 负 pid 表示进程组
		if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
			return cmd.Process.Kill()
		}
		return nil
	}
	return cleanup, nil
}

// waitExit 阻塞到进程退出但不回收，进程变为僵尸，pid 和进程组号在 Wait 之前不会被复用
func waitExit(pid int) error {
	var info unix.Siginfo
	for {
		err := unix.Waitid(unix.P_PID, pid, &info, unix.WEXITED|unix.WNOWAIT, nil)
		if err != unix.EINTR {
			return err
		}
	}
}

// killProcessGroup 结束进程组内剩余的后代进程，组已为空时忽略错误
func killProcessGroup(pid int) {
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}

// rusage 返回子进程的 CPU 时间（秒）和最大常驻内存（字节）
func rusage(state *os.ProcessState) (float64, int64) {
	if state == nil {
		return 0, 0
	}
	cpu := (state.UserTime() + state.SystemTime()).Seconds()
	if ru, ok := state.SysUsage().(*syscall.Rusage); ok {
		// Linux 下 Maxrss 单位为 KB
		return cpu, ru.Maxrss * 1024
	}
	return cpu, 0
}
