package sampler

import (
	"context"
	"sync"
	"time"

	"github.com/shroukgbr89/parallel/internal/constants"
	"github.com/shroukgbr89/parallel/internal/model"

	"go.uber.org/zap"
)

// Reading 一次探测的原始读数
type Reading struct {
	// CPUSeconds 每个进程（或 cgroup）的累计 CPU 时间，键为 pid
	CPUSeconds  map[int32]float64
	MemoryBytes uint64
}

// TotalCPU 所有进程的累计 CPU 时间之和
func (r Reading) TotalCPU() float64 {
	var total float64
	for _, v := range r.CPUSeconds {
		total += v
	}
	return total
}

// Probe 读取被测进程树当前的资源使用
type Probe interface {
	Read(ctx context.Context) (Reading, error)
}

// Observer 每记录一个采样点回调一次
type Observer func(model.ResourceSample)

// Peak 采样序列的峰值
type Peak struct {
	CPU      float64 `json:"cpu"`
	MemoryMB float64 `json:"memory_mb"`
}

// Add 合并一个采样点
func (p Peak) Add(s model.ResourceSample) Peak {
	if s.CPUPercent > p.CPU {
		p.CPU = s.CPUPercent
	}
	if mb := bytesToMB(s.MemoryBytes); mb > p.MemoryMB {
		p.MemoryMB = mb
	}
	return p
}

// Reduce 计算采样序列的峰值，空序列返回零值
func Reduce(samples []model.ResourceSample) Peak {
	var p Peak
	for _, s := range samples {
		p = p.Add(s)
	}
	return p
}

func bytesToMB(b uint64) float64 {
	return float64(b) / 1024 / 1024
}

// Sampler 按固定间隔采样
type Sampler struct {
	interval time.Duration
	maxKept  int
}

// New 创建采样器，interval 不合法时使用默认值
func New(interval time.Duration) *Sampler {
	if interval < constants.MinSampleInterval || interval > constants.MaxSampleInterval {
		interval = constants.DefaultSampleInterval
	}
	return &Sampler{interval: interval, maxKept: constants.MaxSamplesKept}
}

// Interval 返回采样间隔
func (s *Sampler) Interval() time.Duration {
	return s.interval
}

// Session 一次采样过程
type Session struct {
	probe    Probe
	observer Observer
	interval time.Duration
	maxKept  int
	start    time.Time

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once

	mu      sync.Mutex
	samples []model.ResourceSample
	peak    Peak
}

// Start 开始采样，直到 Stop 或 ctx 结束。observer 可为 nil
func (s *Sampler) Start(ctx context.Context, probe Probe, observer Observer) *Session {
	ctx, cancel := context.WithCancel(ctx)
	ss := &Session{
		probe:    probe,
		observer: observer,
		interval: s.interval,
		maxKept:  s.maxKept,
		start:    time.Now(),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go ss.loop(ctx)
	return ss
}

func (ss *Session) loop(ctx context.Context) {
	defer close(ss.done)

	// 基准读数，首个采样点的 CPU 使用率相对它计算
	prev, err := ss.probe.Read(ctx)
	havePrev := err == nil
	prevAt := time.Now()

	ticker := time.NewTicker(ss.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		cur, err := ss.probe.Read(ctx)
		now := time.Now()
		if err != nil {
			// 进程退出时的最后一次读取会失败，丢弃而不是记为0
			zap.L().Debug("资源采样失败", zap.Error(err))
			continue
		}
		if ctx.Err() != nil {
			return
		}

		sample := model.ResourceSample{
			Offset:      now.Sub(ss.start),
			CPUSeconds:  cur.TotalCPU(),
			MemoryBytes: cur.MemoryBytes,
		}
		if havePrev {
			sample.CPUPercent = cpuPercent(prev, cur, now.Sub(prevAt))
		}
		prev, prevAt, havePrev = cur, now, true
		ss.record(sample)
	}
}

// cpuPercent 只统计两次读数中都存在的进程，避免新进程的历史 CPU 时间被算进本间隔
func cpuPercent(prev, cur Reading, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	var delta float64
	for pid, c := range cur.CPUSeconds {
		p, ok := prev.CPUSeconds[pid]
		if !ok || c < p {
			continue
		}
		delta += c - p
	}
	return delta / elapsed.Seconds() * 100
}

func (ss *Session) record(sample model.ResourceSample) {
	ss.mu.Lock()
	ss.peak = ss.peak.Add(sample)
	if len(ss.samples) < ss.maxKept {
		ss.samples = append(ss.samples, sample)
	}
	ss.mu.Unlock()

	if ss.observer != nil {
		ss.observer(sample)
	}
}

// Stop 停止采样并返回全部采样点，可重复调用。返回后不会再产生采样点
func (ss *Session) Stop() []model.ResourceSample {
	ss.once.Do(ss.cancel)
	<-ss.done

	ss.mu.Lock()
	defer ss.mu.Unlock()
	out := make([]model.ResourceSample, len(ss.samples))
	copy(out, ss.samples)
	return out
}

// Peak 返回已采样的峰值，包括超出保留上限而未保存的采样点
func (ss *Session) Peak() Peak {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.peak
}
