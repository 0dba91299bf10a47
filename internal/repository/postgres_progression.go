package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Dkijas/EMPA-CELA-sub000/internal/domain"
)

// PostgresProgressionRepository 进展历史的 PostgreSQL 实现
type PostgresProgressionRepository struct {
	db *sql.DB
}

func NewPostgresProgressionRepository(db *sql.DB) *PostgresProgressionRepository {
	return &PostgresProgressionRepository{db: db}
}

var _ ProgressionRepository = (*PostgresProgressionRepository)(nil)

// UpsertPoint 唯一性约束：patient_id + point_date
func (r *PostgresProgressionRepository) UpsertPoint(ctx context.Context, patientID string, p domain.ProgressionPoint) error {
	if patientID == "" || p.Date.IsZero() {
		return fmt.Errorf("patient_id and date are required")
	}
	areas, err := json.Marshal(p.Areas)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO empa_progression_points (patient_id, point_date, areas, updated_at)
		VALUES ($1, $2::date, $3, NOW())
		ON CONFLICT (patient_id, point_date)
		DO UPDATE SET areas = EXCLUDED.areas,
		              updated_at = NOW()`,
		patientID, p.Date.String(), areas,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert progression point: %w", err)
	}
	return nil
}

func (r *PostgresProgressionRepository) DeletePoint(ctx context.Context, patientID string, date domain.Date) error {
	if patientID == "" || date.IsZero() {
		return fmt.Errorf("patient_id and date are required")
	}
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM empa_progression_points
		WHERE patient_id = $1 AND point_date = $2::date`,
		patientID, date.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to delete progression point: %w", err)
	}
	return nil
}

func (r *PostgresProgressionRepository) ListPoints(ctx context.Context, patientID string) ([]domain.ProgressionPoint, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT to_char(point_date, 'YYYY-MM-DD'), areas
		FROM empa_progression_points
		WHERE patient_id = $1
		ORDER BY point_date ASC`,
		patientID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list progression points: %w", err)
	}
	defer rows.Close()

	out := []domain.ProgressionPoint{}
	for rows.Next() {
		var (
			date  string
			areas []byte
			p     domain.ProgressionPoint
		)
		if err := rows.Scan(&date, &areas); err != nil {
			return nil, fmt.Errorf("failed to scan progression point: %w", err)
		}
		if p.Date, err = domain.ParseDate(date); err != nil {
			return nil, err
		}
		if err := unmarshalIfPresent(areas, &p.Areas); err != nil {
			return nil, fmt.Errorf("progression areas: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
