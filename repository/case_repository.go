package repository

import (
	"context"
	"fmt"

	"casebook-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CaseRepository handles database operations for cases
type CaseRepository struct {
	db *pgxpool.Pool
}

// NewCaseRepository creates a new case repository
func NewCaseRepository(db *pgxpool.Pool) *CaseRepository {
	return &CaseRepository{db: db}
}

// Create creates a new case
func (r *CaseRepository) Create(ctx context.Context, c *models.Case) error {
	query := `
		INSERT INTO cases (user_id, status, profile, error_message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(
		ctx, query,
		c.UserID,
		c.Status,
		c.Profile,
		c.ErrorMessage,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)

	return err
}

// GetByID retrieves a case by ID
func (r *CaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Case, error) {
	c := &models.Case{}
	query := `
		SELECT id, user_id, status, profile, error_message,
			created_at, updated_at, completed_at
		FROM cases
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.UserID,
		&c.Status,
		&c.Profile,
		&c.ErrorMessage,
		&c.CreatedAt,
		&c.UpdatedAt,
		&c.CompletedAt,
	)

	if err != nil {
		return nil, err
	}

	return c, nil
}

// Update updates a case's profile and status
func (r *CaseRepository) Update(ctx context.Context, c *models.Case) error {
	query := `
		UPDATE cases SET
			status = $2,
			profile = $3,
			error_message = $4,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRow(
		ctx, query,
		c.ID,
		c.Status,
		c.Profile,
		c.ErrorMessage,
	).Scan(&c.UpdatedAt)

	return err
}

// SetStatus updates only the status and error message of a case.
// Completing a case also stamps completed_at.
func (r *CaseRepository) SetStatus(ctx context.Context, id uuid.UUID, status models.CaseStatus, errorMessage *string) error {
	var query string
	if status == models.CaseStatusComplete {
		query = `
			UPDATE cases SET
				status = $2,
				error_message = $3,
				completed_at = NOW(),
				updated_at = NOW()
			WHERE id = $1`
	} else {
		query = `
			UPDATE cases SET
				status = $2,
				error_message = $3,
				updated_at = NOW()
			WHERE id = $1`
	}

	_, err := r.db.Exec(ctx, query, id, status, errorMessage)
	return err
}

// ListByUserID retrieves cases for a user, optionally filtered by status
func (r *CaseRepository) ListByUserID(ctx context.Context, userID uuid.UUID, status *models.CaseStatus, limit, offset int) ([]*models.Case, error) {
	query := `
		SELECT id, user_id, status, profile, error_message,
			created_at, updated_at, completed_at
		FROM cases
		WHERE user_id = $1`

	args := []interface{}{userID}
	argIndex := 2

	if status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, *status)
		argIndex++
	}

	query += " ORDER BY created_at DESC"

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, limit)
		argIndex++
		if offset > 0 {
			query += fmt.Sprintf(" OFFSET $%d", argIndex)
			args = append(args, offset)
		}
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cases []*models.Case
	for rows.Next() {
		c := &models.Case{}
		err := rows.Scan(
			&c.ID,
			&c.UserID,
			&c.Status,
			&c.Profile,
			&c.ErrorMessage,
			&c.CreatedAt,
			&c.UpdatedAt,
			&c.CompletedAt,
		)
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}

	return cases, rows.Err()
}

// Delete deletes a case
func (r *CaseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM cases WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}
