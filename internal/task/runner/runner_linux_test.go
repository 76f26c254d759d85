//go:build linux

package runner

import (
	"context"
	"os/exec"
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/shroukgbr89/parallel/internal/constants"
	"github.com/shroukgbr89/parallel/internal/model"

	"github.com/shirou/gopsutil/v4/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exited 进程不存在或已成为僵尸
func exited(pid int32) bool {
	p, err := process.NewProcess(pid)
	if err != nil {
		return true
	}
	status, err := p.Status()
	if err != nil {
		return true
	}
	return slices.Contains(status, process.Zombie)
}

func TestRunBackgroundChildHoldingOutput(t *testing.T) {
	requireTool(t, "python3")
	requireTool(t, "sleep")
	r, root := newTestRunner(t)

	// 主进程立即退出，后台子进程继承了标准输出
	code := "import subprocess\n" +
		"p = subprocess.Popen(['sleep', '20'])\n" +
		"print(p.pid, flush=True)\n"

	start := time.Now()
	result, err := r.Run(context.Background(), model.ExecutionRequest{
		Language:          model.LanguagePython,
		SourceCode:        code,
		ParallelismDegree: 1,
	})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), constants.KillWaitDelay)
	assert.Less(t, result.ExecutionTimeSeconds, 1.0)
	assertNoWorkspaces(t, root)

	pid, err := strconv.ParseInt(strings.TrimSpace(result.Stdout), 10, 32)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return exited(int32(pid)) }, 2*time.Second, 20*time.Millisecond,
		"后台子进程 %d 在执行结束后仍存活", pid)
}

func TestWaitExitKeepsZombie(t *testing.T) {
	requireTool(t, "sleep")

	tests := []struct {
		name string
		args []string
	}{
		{"正常退出", []string{"0"}},
		{"短暂运行", []string{"0.1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := exec.Command("sleep", tt.args...)
			require.NoError(t, cmd.Start())
			pid := cmd.Process.Pid

			require.NoError(t, waitExit(pid))
			// 退出后未被回收，Wait 仍能取得退出状态
			assert.True(t, exited(int32(pid)))
			require.NoError(t, cmd.Wait())
			assert.True(t, cmd.ProcessState.Success())
		})
	}
}
