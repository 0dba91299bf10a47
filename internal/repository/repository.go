package repository

import (
	"context"
	"errors"

	"github.com/Dkijas/EMPA-CELA-sub000/internal/domain"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("not found")

// AssessmentsRepository 已保存评估的存取
type AssessmentsRepository interface {
	// Save 插入新评估（ID 由调用方生成）
	Save(ctx context.Context, a *domain.Assessment) error
	// Get 按 ID 获取，不存在返回 ErrNotFound
	Get(ctx context.Context, id string) (*domain.Assessment, error)
	// ListByPatient 按创建时间倒序，limit <= 0 表示不限
	ListByPatient(ctx context.Context, patientID string, limit int) ([]*domain.Assessment, error)
}

// ProgressionRepository 进展历史：每个患者每个日历日期一行，重复写入覆盖
type ProgressionRepository interface {
	UpsertPoint(ctx context.Context, patientID string, p domain.ProgressionPoint) error
	// DeletePoint 删除某日的点，不存在时不报错
	DeletePoint(ctx context.Context, patientID string, date domain.Date) error
	ListPoints(ctx context.Context, patientID string) ([]domain.ProgressionPoint, error)
}
