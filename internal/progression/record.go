package progression

import (
	"context"

	"github.com/Dkijas/EMPA-CELA-sub000/internal/domain"
)

// PointWriter 进展历史写入端
type PointWriter interface {
	UpsertPoint(ctx context.Context, patientID string, p domain.ProgressionPoint) error
	DeletePoint(ctx context.Context, patientID string, date domain.Date) error
}

// Record 让 date 当天的历史点与当前选择保持一致：有区域时覆盖写入快照，
// 当天已无区域时删除该点。返回是否写入了快照
func Record(ctx context.Context, w PointWriter, patientID string, selected []domain.SelectedArea, date, today domain.Date) (bool, error) {
	if date.IsZero() {
		date = today
	}
	for _, p := range Aggregate(selected, today) {
		if !p.Date.Equal(date.Time) {
			continue
		}
		if err := w.UpsertPoint(ctx, patientID, p); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, w.DeletePoint(ctx, patientID, date)
}
