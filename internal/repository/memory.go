package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Dkijas/EMPA-CELA-sub000/internal/domain"
)

// MemoryAssessmentsRepo DB 未启用时使用
type MemoryAssessmentsRepo struct {
	mu   sync.RWMutex
	byID map[string]*domain.Assessment
}

func NewMemoryAssessmentsRepo() *MemoryAssessmentsRepo {
	return &MemoryAssessmentsRepo{byID: map[string]*domain.Assessment{}}
}

var _ AssessmentsRepository = (*MemoryAssessmentsRepo)(nil)

func (r *MemoryAssessmentsRepo) Save(_ context.Context, a *domain.Assessment) error {
	if a == nil || a.ID == "" || a.PatientID == "" {
		return fmt.Errorf("assessment id and patient_id are required")
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	cp, err := cloneAssessment(a)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.byID[a.ID]; dup {
		return fmt.Errorf("assessment %s already exists", a.ID)
	}
	r.byID[a.ID] = cp
	return nil
}

func (r *MemoryAssessmentsRepo) Get(_ context.Context, id string) (*domain.Assessment, error) {
	r.mu.RLock()
	a, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return cloneAssessment(a)
}

func (r *MemoryAssessmentsRepo) ListByPatient(_ context.Context, patientID string, limit int) ([]*domain.Assessment, error) {
	r.mu.RLock()
	out := []*domain.Assessment{}
	for _, a := range r.byID {
		if a.PatientID == patientID {
			cp, err := cloneAssessment(a)
			if err != nil {
				r.mu.RUnlock()
				return nil, err
			}
			out = append(out, cp)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// 通过 JSON 深拷贝，避免调用方修改内部状态
func cloneAssessment(a *domain.Assessment) (*domain.Assessment, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	var cp domain.Assessment
	if err := json.Unmarshal(b, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

// MemoryProgressionRepo DB 未启用时使用
type MemoryProgressionRepo struct {
	mu     sync.RWMutex
	points map[string]map[domain.Date]domain.ProgressionPoint
}

func NewMemoryProgressionRepo() *MemoryProgressionRepo {
	return &MemoryProgressionRepo{points: map[string]map[domain.Date]domain.ProgressionPoint{}}
}

var _ ProgressionRepository = (*MemoryProgressionRepo)(nil)

func (r *MemoryProgressionRepo) UpsertPoint(_ context.Context, patientID string, p domain.ProgressionPoint) error {
	if patientID == "" || p.Date.IsZero() {
		return fmt.Errorf("patient_id and date are required")
	}
	p.Date = domain.NewDate(p.Date.Time)
	p.Areas = append([]domain.AreaSnapshot(nil), p.Areas...)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.points[patientID] == nil {
		r.points[patientID] = map[domain.Date]domain.ProgressionPoint{}
	}
	r.points[patientID][p.Date] = p
	return nil
}

func (r *MemoryProgressionRepo) DeletePoint(_ context.Context, patientID string, date domain.Date) error {
	if patientID == "" || date.IsZero() {
		return fmt.Errorf("patient_id and date are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.points[patientID], domain.NewDate(date.Time))
	return nil
}

func (r *MemoryProgressionRepo) ListPoints(_ context.Context, patientID string) ([]domain.ProgressionPoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ProgressionPoint, 0, len(r.points[patientID]))
	for _, p := range r.points[patientID] {
		p.Areas = append([]domain.AreaSnapshot(nil), p.Areas...)
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date.Time) })
	return out, nil
}
