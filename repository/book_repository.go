package repository

import (
	"context"

	"casebook-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BookRepository persists book generation results. One JSONB row per
// case, atomically replaced on regeneration; the result is never
// partially updated in place.
type BookRepository struct {
	db *pgxpool.Pool
}

// NewBookRepository creates a new book repository
func NewBookRepository(db *pgxpool.Pool) *BookRepository {
	return &BookRepository{db: db}
}

// Upsert inserts or replaces the book result for a case
func (r *BookRepository) Upsert(ctx context.Context, result *models.BookGenerationResult) error {
	query := `
		INSERT INTO book_results (case_id, result, generated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (case_id) DO UPDATE SET
			result = EXCLUDED.result,
			generated_at = EXCLUDED.generated_at`

	_, err := r.db.Exec(ctx, query, result.CaseID, result, result.GeneratedAt)
	return err
}

// GetByCaseID retrieves the stored book result for a case
func (r *BookRepository) GetByCaseID(ctx context.Context, caseID uuid.UUID) (*models.BookGenerationResult, error) {
	result := &models.BookGenerationResult{}
	query := `SELECT result FROM book_results WHERE case_id = $1`

	err := r.db.QueryRow(ctx, query, caseID).Scan(result)
	if err != nil {
		return nil, err
	}

	return result, nil
}
