package repository

import (
	"context"

	"casebook-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EvidenceRepository handles database operations for evidence items
type EvidenceRepository struct {
	db *pgxpool.Pool
}

// NewEvidenceRepository creates a new evidence repository
func NewEvidenceRepository(db *pgxpool.Pool) *EvidenceRepository {
	return &EvidenceRepository{db: db}
}

// Create creates a new evidence item
func (r *EvidenceRepository) Create(ctx context.Context, e *models.EvidenceItem) error {
	query := `
		INSERT INTO evidence (
			case_id, file_id, file_name, media_type, description,
			extracted_text, tags, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(
		ctx, query,
		e.CaseID,
		e.FileID,
		e.FileName,
		e.MediaType,
		e.Description,
		e.ExtractedText,
		e.Tags,
		e.Metadata,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)

	return err
}

// GetByID retrieves an evidence item by ID
func (r *EvidenceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.EvidenceItem, error) {
	e := &models.EvidenceItem{}
	query := `
		SELECT id, case_id, file_id, file_name, media_type, description,
			extracted_text, tags, metadata, created_at, updated_at
		FROM evidence
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&e.ID,
		&e.CaseID,
		&e.FileID,
		&e.FileName,
		&e.MediaType,
		&e.Description,
		&e.ExtractedText,
		&e.Tags,
		&e.Metadata,
		&e.CreatedAt,
		&e.UpdatedAt,
	)

	if err != nil {
		return nil, err
	}

	return e, nil
}

// ListByCaseID retrieves all evidence for a case in upload order
func (r *EvidenceRepository) ListByCaseID(ctx context.Context, caseID uuid.UUID) ([]models.EvidenceItem, error) {
	query := `
		SELECT id, case_id, file_id, file_name, media_type, description,
			extracted_text, tags, metadata, created_at, updated_at
		FROM evidence
		WHERE case_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.EvidenceItem
	for rows.Next() {
		var e models.EvidenceItem
		err := rows.Scan(
			&e.ID,
			&e.CaseID,
			&e.FileID,
			&e.FileName,
			&e.MediaType,
			&e.Description,
			&e.ExtractedText,
			&e.Tags,
			&e.Metadata,
			&e.CreatedAt,
			&e.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}

	return items, rows.Err()
}

// UpdateMetadata replaces an item's metadata after re-analysis
func (r *EvidenceRepository) UpdateMetadata(ctx context.Context, id uuid.UUID, metadata models.EvidenceMetadata) error {
	query := `
		UPDATE evidence SET
			metadata = $2,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, metadata)
	return err
}

// Delete deletes an evidence item
func (r *EvidenceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM evidence WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}
