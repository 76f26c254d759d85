package dao

import (
	"context"
	"time"

	"github.com/shroukgbr89/parallel/internal/model"

	"gorm.io/gorm"
)

// ComparisonRecord 对比记录，只保存指标，不保存源码
type ComparisonRecord struct {
	ID               int64     `gorm:"primaryKey;autoIncrement:false"`
	Language         string    `gorm:"size:16;index"`
	Cores            int       `gorm:"not null"`
	SerialTime       float64   `gorm:"not null"`
	ParallelTime     float64   `gorm:"not null"`
	SerialCPU        float64   `gorm:"column:serial_cpu"`
	ParallelCPU      float64   `gorm:"column:parallel_cpu"`
	SerialMemoryMB   float64   `gorm:"column:serial_memory_mb"`
	ParallelMemoryMB float64   `gorm:"column:parallel_memory_mb"`
	Speedup          float64   `gorm:"not null"`
	OutputsMatch     bool      `gorm:"not null"`
	CreatedAt        time.Time `gorm:"index"`
}

func (ComparisonRecord) TableName() string {
	return "comparison_records"
}

// NewComparisonRecord 由对比结果生成记录
func NewComparisonRecord(res *model.ComparisonResult) *ComparisonRecord {
	return &ComparisonRecord{
		ID:               res.ID,
		Language:         string(res.Language),
		Cores:            res.Cores,
		SerialTime:       res.Serial.ExecutionTimeSeconds,
		ParallelTime:     res.Parallel.ExecutionTimeSeconds,
		SerialCPU:        res.Serial.PeakCPU,
		ParallelCPU:      res.Parallel.PeakCPU,
		SerialMemoryMB:   res.Serial.PeakMemoryMB,
		ParallelMemoryMB: res.Parallel.PeakMemoryMB,
		Speedup:          res.Speedup,
		OutputsMatch:     res.OutputsMatch,
		CreatedAt:        res.CreatedAt,
	}
}

// ToResult 还原为对比结果（不含输出）
func (r *ComparisonRecord) ToResult() *model.ComparisonResult {
	lang := model.Language(r.Language)
	return &model.ComparisonResult{
		ID:       r.ID,
		Language: lang,
		Cores:    r.Cores,
		Serial: model.ExecutionResult{
			Language:             lang,
			ParallelismDegree:    1,
			ExecutionTimeSeconds: r.SerialTime,
			PeakCPU:              r.SerialCPU,
			PeakMemoryMB:         r.SerialMemoryMB,
		},
		Parallel: model.ExecutionResult{
			Language:             lang,
			ParallelismDegree:    r.Cores,
			ExecutionTimeSeconds: r.ParallelTime,
			PeakCPU:              r.ParallelCPU,
			PeakMemoryMB:         r.ParallelMemoryMB,
		},
		Speedup:      r.Speedup,
		OutputsMatch: r.OutputsMatch,
		CreatedAt:    r.CreatedAt,
	}
}

// ComparisonDAO 对比记录的读写
type ComparisonDAO struct {
	db *gorm.DB
}

func NewComparisonDAO(db *gorm.DB) *ComparisonDAO {
	return &ComparisonDAO{db: db}
}

// Save 保存对比结果
func (d *ComparisonDAO) Save(ctx context.Context, res *model.ComparisonResult) error {
	return d.db.WithContext(ctx).Create(NewComparisonRecord(res)).Error
}

// ListRecent 按时间倒序查询最近的对比记录
func (d *ComparisonDAO) ListRecent(ctx context.Context, limit int) ([]*model.ComparisonResult, error) {
	var records []ComparisonRecord
	err := d.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	out := make([]*model.ComparisonResult, 0, len(records))
	for i := range records {
		out = append(out, records[i].ToResult())
	}
	return out, nil
}
