package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Dkijas/EMPA-CELA-sub000/internal/domain"
)

// PostgresAssessmentsRepository 评估 Repository 的 PostgreSQL 实现
type PostgresAssessmentsRepository struct {
	db *sql.DB
}

func NewPostgresAssessmentsRepository(db *sql.DB) *PostgresAssessmentsRepository {
	return &PostgresAssessmentsRepository{db: db}
}

// 确保实现了接口
var _ AssessmentsRepository = (*PostgresAssessmentsRepository)(nil)

func (r *PostgresAssessmentsRepository) Save(ctx context.Context, a *domain.Assessment) error {
	if a == nil || a.ID == "" || a.PatientID == "" {
		return fmt.Errorf("assessment id and patient_id are required")
	}
	patient, err := json.Marshal(a.Patient)
	if err != nil {
		return fmt.Errorf("marshal patient: %w", err)
	}
	score, err := json.Marshal(a.Score)
	if err != nil {
		return fmt.Errorf("marshal score: %w", err)
	}
	areas, err := json.Marshal(nonNilAreas(a.Areas))
	if err != nil {
		return fmt.Errorf("marshal areas: %w", err)
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO empa_assessments (
			assessment_id, patient_id, patient, total, tier, scheme, out_of_range, score, areas, created_at
		) VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.PatientID, patient, a.Score.Total, a.Score.Tier, a.Score.Scheme, a.Score.OutOfRange,
		score, areas, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert assessment: %w", err)
	}
	return nil
}

const selectAssessment = `
		SELECT
			assessment_id::text,
			patient_id,
			patient,
			score,
			areas,
			created_at
		FROM empa_assessments`

func (r *PostgresAssessmentsRepository) Get(ctx context.Context, id string) (*domain.Assessment, error) {
	row := r.db.QueryRowContext(ctx, selectAssessment+` WHERE assessment_id = $1::uuid`, id)
	a, err := scanAssessment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	return a, nil
}

func (r *PostgresAssessmentsRepository) ListByPatient(ctx context.Context, patientID string, limit int) ([]*domain.Assessment, error) {
	query := selectAssessment + ` WHERE patient_id = $1 ORDER BY created_at DESC`
	args := []any{patientID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	defer rows.Close()

	out := []*domain.Assessment{}
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assessment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssessment(s rowScanner) (*domain.Assessment, error) {
	var (
		a                      domain.Assessment
		patient, score, areas []byte
	)
	if err := s.Scan(&a.ID, &a.PatientID, &patient, &score, &areas, &a.CreatedAt); err != nil {
		return nil, err
	}
	if err := unmarshalIfPresent(patient, &a.Patient); err != nil {
		return nil, fmt.Errorf("patient: %w", err)
	}
	if err := unmarshalIfPresent(score, &a.Score); err != nil {
		return nil, fmt.Errorf("score: %w", err)
	}
	if err := unmarshalIfPresent(areas, &a.Areas); err != nil {
		return nil, fmt.Errorf("areas: %w", err)
	}
	a.Areas = nonNilAreas(a.Areas)
	return &a, nil
}

func unmarshalIfPresent(b []byte, out any) error {
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, out)
}

func nonNilAreas(in []domain.SelectedArea) []domain.SelectedArea {
	if in == nil {
		return []domain.SelectedArea{}
	}
	return in
}
