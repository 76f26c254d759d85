package sampler

import (
	"context"

	"github.com/shirou/gopsutil/v4/process"
)

// ProcessTreeProbe 基于 gopsutil 遍历以 Pid 为根的进程树
type ProcessTreeProbe struct {
	Pid int32
}

// NewProcessTreeProbe 创建进程树探测器
func NewProcessTreeProbe(pid int) *ProcessTreeProbe {
	return &ProcessTreeProbe{Pid: int32(pid)}
}

// Read 读取进程树中每个进程的累计 CPU 时间与常驻内存之和
func (p *ProcessTreeProbe) Read(ctx context.Context) (Reading, error) {
	root, err := process.NewProcessWithContext(ctx, p.Pid)
	if err != nil {
		return Reading{}, err
	}

	reading := Reading{CPUSeconds: make(map[int32]float64)}
	// 根进程读取失败说明已退出，整个读数作废
	if err := addProcess(ctx, root, &reading); err != nil {
		return Reading{}, err
	}

	for _, child := range descendants(ctx, root) {
		// 子进程随时可能退出，单个失败只跳过它
		_ = addProcess(ctx, child, &reading)
	}
	return reading, nil
}

func addProcess(ctx context.Context, proc *process.Process, reading *Reading) error {
	times, err := proc.TimesWithContext(ctx)
	if err != nil {
		return err
	}
	mem, err := proc.MemoryInfoWithContext(ctx)
	if err != nil {
		return err
	}
	reading.CPUSeconds[proc.Pid] = times.User + times.System
	reading.MemoryBytes += mem.RSS
	return nil
}

func descendants(ctx context.Context, root *process.Process) []*process.Process {
	var out []*process.Process
	queue := []*process.Process{root}
	seen := map[int32]bool{root.Pid: true}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		// 没有子进程时返回 ErrorNoChildren
		children, err := cur.ChildrenWithContext(ctx)
		if err != nil {
			continue
		}
		for _, c := range children {
			if seen[c.Pid] {
				continue
			}
			seen[c.Pid] = true
			out = append(out, c)
			queue = append(queue, c)
		}
	}
	return out
}
