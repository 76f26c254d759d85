package sampler

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/shroukgbr89/parallel/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedProbe 依次返回预设读数，用完后返回错误
type scriptedProbe struct {
	mu       sync.Mutex
	readings []Reading
}

func (p *scriptedProbe) Read(context.Context) (Reading, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.readings) == 0 {
		return Reading{}, errors.New("process exited")
	}
	r := p.readings[0]
	p.readings = p.readings[1:]
	return r, nil
}

func TestReduce(t *testing.T) {
	tests := []struct {
		name    string
		samples []model.ResourceSample
		want    Peak
	}{
		{
			name: "空序列返回零值",
			want: Peak{},
		},
		{
			name: "取最大值",
			samples: []model.ResourceSample{
				{CPUPercent: 50, MemoryBytes: 2 * 1024 * 1024},
				{CPUPercent: 180, MemoryBytes: 1024 * 1024},
				{CPUPercent: 90, MemoryBytes: 4 * 1024 * 1024},
			},
			want: Peak{CPU: 180, MemoryMB: 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Reduce(tt.samples))
		})
	}
}

func TestCPUPercent(t *testing.T) {
	prev := Reading{CPUSeconds: map[int32]float64{1: 1.0, 2: 0.5}}
	cur := Reading{CPUSeconds: map[int32]float64{1: 1.1, 2: 0.6, 3: 5.0}}

	// 进程3 是新出现的，不计入
	got := cpuPercent(prev, cur, 100*time.Millisecond)
	assert.InDelta(t, 200.0, got, 0.001)
	assert.Zero(t, cpuPercent(prev, cur, 0))
}

func TestSessionRecordsUntilProbeFails(t *testing.T) {
	probe := &scriptedProbe{readings: []Reading{
		{CPUSeconds: map[int32]float64{1: 0}, MemoryBytes: 1 << 20},
		{CPUSeconds: map[int32]float64{1: 0.01}, MemoryBytes: 2 << 20},
		{CPUSeconds: map[int32]float64{1: 0.02}, MemoryBytes: 3 << 20},
	}}

	var (
		mu       sync.Mutex
		observed []model.ResourceSample
	)
	s := New(50 * time.Millisecond)
	session := s.Start(context.Background(), probe, func(sample model.ResourceSample) {
		mu.Lock()
		observed = append(observed, sample)
		mu.Unlock()
	})

	time.Sleep(400 * time.Millisecond)
	samples := session.Stop()

	// 基准读数之后的两次读数各产生一个采样点，之后的失败读数被丢弃
	require.Len(t, samples, 2)
	assert.Less(t, samples[0].Offset, samples[1].Offset)
	assert.Equal(t, uint64(3<<20), samples[1].MemoryBytes)
	assert.InDelta(t, 3.0, session.Peak().MemoryMB, 0.001)

	mu.Lock()
	assert.Len(t, observed, 2)
	mu.Unlock()

	// Stop 之后不再产生采样点
	assert.Equal(t, samples, session.Stop())
}

func TestSessionStopBeforeFirstTick(t *testing.T) {
	probe := &scriptedProbe{}
	session := New(time.Second).Start(context.Background(), probe, nil)
	samples := session.Stop()
	assert.Empty(t, samples)
	assert.Equal(t, Peak{}, Reduce(samples))
}

func TestNewInvalidInterval(t *testing.T) {
	tests := []struct {
		name     string
		interval time.Duration
		want     time.Duration
	}{
		{"未配置", 0, 100 * time.Millisecond},
		{"小于时钟滴答精度", 10 * time.Millisecond, 100 * time.Millisecond},
		{"最小间隔", 50 * time.Millisecond, 50 * time.Millisecond},
		{"超过上限", time.Minute, 100 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.interval).Interval())
		})
	}
}

func TestProcessTreeProbeSelf(t *testing.T) {
	probe := NewProcessTreeProbe(os.Getpid())
	reading, err := probe.Read(context.Background())
	require.NoError(t, err)
	assert.Contains(t, reading.CPUSeconds, int32(os.Getpid()))
	assert.Greater(t, reading.MemoryBytes, uint64(0))
}

func TestProcessTreeProbeMissingProcess(t *testing.T) {
	// pid 上限之外的进程不存在
	probe := &ProcessTreeProbe{Pid: 1 << 30}
	_, err := probe.Read(context.Background())
	assert.Error(t, err)
}
