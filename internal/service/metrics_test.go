package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	perrors "github.com/shroukgbr89/parallel/pkg/errors"
)

func TestBenchMetrics_RecordSubmission(t *testing.T) {
	metrics := NewBenchMetrics()

	metrics.RecordSubmission()
	metrics.RecordSubmission()
	metrics.RecordSubmission()

	if metrics.TotalSubmissions != 3 {
		t.Errorf("TotalSubmissions = %d, want 3", metrics.TotalSubmissions)
	}
}

func TestBenchMetrics_RecordSuccess(t *testing.T) {
	metrics := NewBenchMetrics()

	metrics.RecordSuccess(100*time.Millisecond, true)
	metrics.RecordSuccess(200*time.Millisecond, false)
	metrics.RecordSuccess(150*time.Millisecond, true)

	if metrics.SuccessSubmissions != 3 {
		t.Errorf("SuccessSubmissions = %d, want 3", metrics.SuccessSubmissions)
	}
	if metrics.OutputMismatches != 1 {
		t.Errorf("OutputMismatches = %d, want 1", metrics.OutputMismatches)
	}
	if metrics.MaxBenchTime != 200 {
		t.Errorf("MaxBenchTime = %d, want 200", metrics.MaxBenchTime)
	}
	if metrics.MinBenchTime != 100 {
		t.Errorf("MinBenchTime = %d, want 100", metrics.MinBenchTime)
	}
	if metrics.TotalBenchTime != 450 {
		t.Errorf("TotalBenchTime = %d, want 450", metrics.TotalBenchTime)
	}
}

func TestBenchMetrics_RecordFailure(t *testing.T) {
	metrics := NewBenchMetrics()

	metrics.RecordFailure(perrors.NewCompileError("main.cpp:1: error", nil))
	metrics.RecordFailure(&perrors.LegError{Leg: "parallel", Err: perrors.NewExecutionError(3, "boom", nil)})
	metrics.RecordFailure(perrors.NewTimeoutError("运行"))
	metrics.RecordFailure(errors.New("unknown"))

	if metrics.FailedSubmissions != 4 {
		t.Errorf("FailedSubmissions = %d, want 4", metrics.FailedSubmissions)
	}
	if metrics.CompileErrors != 1 {
		t.Errorf("CompileErrors = %d, want 1", metrics.CompileErrors)
	}
	if metrics.RuntimeErrors != 1 {
		t.Errorf("RuntimeErrors = %d, want 1", metrics.RuntimeErrors)
	}
	if metrics.TimeoutErrors != 1 {
		t.Errorf("TimeoutErrors = %d, want 1", metrics.TimeoutErrors)
	}
	if metrics.OtherErrors != 1 {
		t.Errorf("OtherErrors = %d, want 1", metrics.OtherErrors)
	}
}

func TestBenchMetrics_RecordActive(t *testing.T) {
	metrics := NewBenchMetrics()

	if current := metrics.RecordActiveIncrease(); current != 1 {
		t.Errorf("CurrentActive = %d, want 1", current)
	}
	if current := metrics.RecordActiveIncrease(); current != 2 {
		t.Errorf("CurrentActive = %d, want 2", current)
	}
	if metrics.MaxConcurrent != 2 {
		t.Errorf("MaxConcurrent = %d, want 2", metrics.MaxConcurrent)
	}

	metrics.RecordActiveDecrease()
	metrics.RecordActiveDecrease()
	if metrics.CurrentActive != 0 {
		t.Errorf("CurrentActive = %d, want 0", metrics.CurrentActive)
	}
	if metrics.MaxConcurrent != 2 {
		t.Errorf("MaxConcurrent = %d, want 2", metrics.MaxConcurrent)
	}
}

func TestBenchMetrics_GetSnapshot(t *testing.T) {
	metrics := NewBenchMetrics()

	snapshot := metrics.GetSnapshot()
	if snapshot["min_bench_time_ms"].(int64) != 0 {
		t.Errorf("min_bench_time_ms = %v, want 0 before any record", snapshot["min_bench_time_ms"])
	}

	metrics.RecordSubmission()
	metrics.RecordSuccess(100*time.Millisecond, true)
	metrics.RecordSuccess(200*time.Millisecond, true)
	metrics.RecordFailure(perrors.NewCompileError("", nil))
	metrics.RecordGeneration(nil)
	metrics.RecordGeneration(errors.New("upstream"))
	metrics.RecordCacheHit()
	metrics.RecordCacheHit()
	metrics.RecordCacheMiss()

	snapshot = metrics.GetSnapshot()

	if snapshot["total_submissions"].(int64) != 1 {
		t.Errorf("total_submissions = %v, want 1", snapshot["total_submissions"])
	}
	if snapshot["success_submissions"].(int64) != 2 {
		t.Errorf("success_submissions = %v, want 2", snapshot["success_submissions"])
	}
	if snapshot["compile_errors"].(int64) != 1 {
		t.Errorf("compile_errors = %v, want 1", snapshot["compile_errors"])
	}
	if snapshot["generation_errors"].(int64) != 1 {
		t.Errorf("generation_errors = %v, want 1", snapshot["generation_errors"])
	}
	// (100 + 200) / 2
	if snapshot["avg_bench_time_ms"].(int64) != 150 {
		t.Errorf("avg_bench_time_ms = %v, want 150", snapshot["avg_bench_time_ms"])
	}
	cacheHitRate := snapshot["cache_hit_rate"].(float64)
	if cacheHitRate < 66.6 || cacheHitRate > 66.7 {
		t.Errorf("cache_hit_rate = %v, want ~66.67", cacheHitRate)
	}
}

func TestBenchMetrics_Reset(t *testing.T) {
	metrics := NewBenchMetrics()

	metrics.RecordSubmission()
	metrics.RecordSuccess(100*time.Millisecond, false)
	metrics.RecordFailure(perrors.NewTimeoutError("运行"))

	metrics.Reset()

	if metrics.TotalSubmissions != 0 || metrics.SuccessSubmissions != 0 || metrics.FailedSubmissions != 0 {
		t.Errorf("counters not reset: %+v", metrics.GetSnapshot())
	}
	if metrics.TimeoutErrors != 0 || metrics.OutputMismatches != 0 {
		t.Errorf("classification not reset: %+v", metrics.GetSnapshot())
	}
}

// 并发测试
func TestBenchMetrics_Concurrent(t *testing.T) {
	metrics := NewBenchMetrics()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				metrics.RecordSubmission()
				metrics.RecordSuccess(100*time.Millisecond, true)
			}
		}()
	}
	wg.Wait()

	if metrics.TotalSubmissions != 1000 {
		t.Errorf("TotalSubmissions = %d, want 1000", metrics.TotalSubmissions)
	}
	if metrics.SuccessSubmissions != 1000 {
		t.Errorf("SuccessSubmissions = %d, want 1000", metrics.SuccessSubmissions)
	}
}

func BenchmarkBenchMetrics_RecordSuccess(b *testing.B) {
	metrics := NewBenchMetrics()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		metrics.RecordSuccess(100*time.Millisecond, true)
	}
}

func BenchmarkBenchMetrics_GetSnapshot(b *testing.B) {
	metrics := NewBenchMetrics()
	for i := 0; i < 100; i++ {
		metrics.RecordSuccess(100*time.Millisecond, true)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		metrics.GetSnapshot()
	}
}
