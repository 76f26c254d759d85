package cgroup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/shroukgbr89/parallel/internal/constants"
	"github.com/shroukgbr89/parallel/internal/task/sampler"

	"go.uber.org/zap"
)

// ResourceUsage 表示资源使用情况
type ResourceUsage struct {
	CPUUsec    int64 // CPU使用时间（微秒）
	MemCurrent int64 // 当前内存（字节）
	MemPeak    int64 // 内存峰值（字节），内核不支持 memory.peak 时等于 MemCurrent
}

// Manager 单次执行独占的 cgroup v2 节点
type Manager struct {
	cgroupPath string
}

// DetectSelfCgroup 返回当前进程所在的 cgroup v2 目录
func DetectSelfCgroup() (string, error) {
	data, err := os.ReadFile("/proc/self/cgroup")
	if err != nil {
		return "", err
	}
	// cgroup v2: 0::/system.slice/xxx.scope
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		parts := strings.SplitN(line, ":", 3)
		if len(parts) == 3 && parts[0] == "0" {
			return filepath.Join(constants.CgroupRoot, parts[2]), nil
		}
	}
	return "", fmt.Errorf("未找到 cgroup v2 挂载信息")
}

func enableControllers(cgroupPath string) error {
	ctrl := filepath.Join(cgroupPath, "cgroup.subtree_control")
	return os.WriteFile(ctrl, []byte("+cpu +memory"), 0644)
}

// New 在 parent 下创建名为 id 的 cgroup，parent 为空时使用当前进程所在的 cgroup
func New(parent, id string) (*Manager, error) {
	if parent == "" {
		self, err := DetectSelfCgroup()
		if err != nil {
			return nil, err
		}
		parent = self
	}
	// 控制器可能已经开启，失败时继续尝试创建
	if err := enableControllers(parent); err != nil {
		zap.L().Debug("开启 cgroup 控制器失败", zap.String("parent", parent), zap.Error(err))
	}

	path := filepath.Join(parent, constants.WorkspaceDirPrefix+id)
	if err := os.Mkdir(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cgroup: %w", err)
	}
	return &Manager{cgroupPath: path}, nil
}

// Path 返回cgroup路径
func (m *Manager) Path() string {
	return m.cgroupPath
}

// Open 打开 cgroup 目录，用于 SysProcAttr.CgroupFD 让子进程直接在该 cgroup 中启动
func (m *Manager) Open() (*os.File, error) {
	return os.Open(m.cgroupPath)
}

// ReadUsage 读取资源使用情况
func (m *Manager) ReadUsage() (*ResourceUsage, error) {
	cpuStat, err := os.ReadFile(filepath.Join(m.cgroupPath, "cpu.stat"))
	if err != nil {
		return nil, fmt.Errorf("failed to read cpu.stat: %w", err)
	}
	cpuUsec, err := ParseCPUStat(string(cpuStat))
	if err != nil {
		return nil, err
	}

	current, err := readInt(filepath.Join(m.cgroupPath, "memory.current"))
	if err != nil {
		return nil, fmt.Errorf("failed to read memory usage: %w", err)
	}
	peak, err := readInt(filepath.Join(m.cgroupPath, "memory.peak"))
	if err != nil {
		// 如果没有peak文件，使用current
		peak = current
	}

	return &ResourceUsage{
		CPUUsec:    cpuUsec,
		MemCurrent: current,
		MemPeak:    peak,
	}, nil
}

// ParseCPUStat 解析 cpu.stat 中的 usage_usec
func ParseCPUStat(content string) (int64, error) {
	for _, line := range strings.Split(content, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 2 && fields[0] == "usage_usec" {
			return strconv.ParseInt(fields[1], 10, 64)
		}
	}
	return 0, fmt.Errorf("cpu.stat 中没有 usage_usec")
}

func readInt(path string) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
}

// Read 实现 sampler.Probe，整个 cgroup 作为一个整体（键 0）统计 CPU 时间
func (m *Manager) Read(context.Context) (sampler.Reading, error) {
	usage, err := m.ReadUsage()
	if err != nil {
		return sampler.Reading{}, err
	}
	return sampler.Reading{
		CPUSeconds:  map[int32]float64{0: float64(usage.CPUUsec) / 1e6},
		MemoryBytes: uint64(usage.MemCurrent),
	}, nil
}

// Kill 通过 cgroup.kill 结束组内全部进程（内核 5.14+）
func (m *Manager) Kill() error {
	return os.WriteFile(filepath.Join(m.cgroupPath, "cgroup.kill"), []byte("1"), 0644)
}

// ParsePopulated 解析 cgroup.events 中的 populated 字段
func ParsePopulated(content string) (bool, error) {
	for _, line := range strings.Split(content, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 2 && fields[0] == "populated" {
			return fields[1] == "1", nil
		}
	}
	return false, fmt.Errorf("cgroup.events 中没有 populated")
}

// WaitEmpty 轮询 cgroup.events 直到组内没有进程，cgroup 已不存在时直接返回
func (m *Manager) WaitEmpty(ctx context.Context) error {
	ticker := time.NewTicker(constants.CgroupPollInterval)
	defer ticker.Stop()
	for {
		data, err := os.ReadFile(filepath.Join(m.cgroupPath, "cgroup.events"))
		if os.IsNotExist(err) {
			return nil
		}
		if err != nil {
			return err
		}
		populated, err := ParsePopulated(string(data))
		if err != nil {
			return err
		}
		if !populated {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("cgroup 内仍有进程: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// Cleanup 等待组内进程退出后删除 cgroup，内核尚未释放时短暂重试
func (m *Manager) Cleanup() error {
	ctx, cancel := context.WithTimeout(context.Background(), constants.CgroupCleanupTimeout)
	defer cancel()
	if err := m.WaitEmpty(ctx); err != nil {
		return err
	}
	for {
		err := os.Remove(m.cgroupPath)
		if err == nil || os.IsNotExist(err) {
			return nil
		}
		if !errors.Is(err, syscall.EBUSY) {
			return err
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(constants.CgroupPollInterval):
		}
	}
}
