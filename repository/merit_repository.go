package repository

import (
	"context"

	"casebook-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MeritRepository persists merit results. One row per (case, variant),
// replaced wholesale on every recomputation so retries and duplicate
// triggers converge to the same final state.
type MeritRepository struct {
	db *pgxpool.Pool
}

// NewMeritRepository creates a new merit repository
func NewMeritRepository(db *pgxpool.Pool) *MeritRepository {
	return &MeritRepository{db: db}
}

// Upsert inserts or replaces the merit result for a case and variant
func (r *MeritRepository) Upsert(ctx context.Context, result *models.MeritResult) error {
	query := `
		INSERT INTO merit_results (
			case_id, variant, total_score, band, components,
			strengths, weaknesses, gaps, notes, computed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (case_id, variant) DO UPDATE SET
			total_score = EXCLUDED.total_score,
			band = EXCLUDED.band,
			components = EXCLUDED.components,
			strengths = EXCLUDED.strengths,
			weaknesses = EXCLUDED.weaknesses,
			gaps = EXCLUDED.gaps,
			notes = EXCLUDED.notes,
			computed_at = EXCLUDED.computed_at`

	_, err := r.db.Exec(
		ctx, query,
		result.CaseID,
		result.Variant,
		result.TotalScore,
		result.Band,
		result.Components,
		result.Strengths,
		result.Weaknesses,
		result.Gaps,
		result.Notes,
		result.ComputedAt,
	)

	return err
}

// GetByCaseID retrieves the stored merit result for a case and variant
func (r *MeritRepository) GetByCaseID(ctx context.Context, caseID uuid.UUID, variant models.MeritVariant) (*models.MeritResult, error) {
	result := &models.MeritResult{}
	query := `
		SELECT case_id, variant, total_score, band, components,
			strengths, weaknesses, gaps, notes, computed_at
		FROM merit_results
		WHERE case_id = $1 AND variant = $2`

	err := r.db.QueryRow(ctx, query, caseID, variant).Scan(
		&result.CaseID,
		&result.Variant,
		&result.TotalScore,
		&result.Band,
		&result.Components,
		&result.Strengths,
		&result.Weaknesses,
		&result.Gaps,
		&result.Notes,
		&result.ComputedAt,
	)

	if err != nil {
		return nil, err
	}

	return result, nil
}
