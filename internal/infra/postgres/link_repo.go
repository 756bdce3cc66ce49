package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/unifin/unifin/internal/engine/record"
	"github.com/unifin/unifin/internal/platform/link"
)

// LinkRepository implements the link repository interface using PostgreSQL
type LinkRepository struct {
	pool *pgxpool.Pool
}

// NewLinkRepository creates a new PostgreSQL link repository
func NewLinkRepository(pool *pgxpool.Pool) *LinkRepository {
	return &LinkRepository{pool: pool}
}

// Create creates a new link
func (r *LinkRepository) Create(ctx context.Context, l *link.Link) error {
	now := time.Now()
	l.CreatedAt = now
	l.UpdatedAt = now

	query := `
		INSERT INTO links (id, user_id, type, source, name, external_ref, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		l.ID,
		l.UserID,
		string(l.Type),
		string(l.Source),
		l.Name,
		l.ExternalRef,
		l.CreatedAt,
		l.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return link.ErrDuplicateLink
		}
		return fmt.Errorf("failed to create link: %w", err)
	}

	return nil
}

// GetByID retrieves a link by ID
func (r *LinkRepository) GetByID(ctx context.Context, id uuid.UUID) (*link.Link, error) {
	query := `
		SELECT id, user_id, type, source, name, external_ref, created_at, updated_at
		FROM links
		WHERE id = $1
	`

	var l link.Link
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&l.ID,
		&l.UserID,
		&l.Type,
		&l.Source,
		&l.Name,
		&l.ExternalRef,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, link.ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	return &l, nil
}

// GetByUserID retrieves all links for a user, oldest first
func (r *LinkRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*link.Link, error) {
	query := `
		SELECT id, user_id, type, source, name, external_ref, created_at, updated_at
		FROM links
		WHERE user_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}
	defer rows.Close()

	var links []*link.Link
	for rows.Next() {
		var l link.Link
		if err := rows.Scan(
			&l.ID,
			&l.UserID,
			&l.Type,
			&l.Source,
			&l.Name,
			&l.ExternalRef,
			&l.CreatedAt,
			&l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, &l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate links: %w", err)
	}

	return links, nil
}

// Delete deletes a link
func (r *LinkRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM links WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}

	if result.RowsAffected() == 0 {
		return link.ErrLinkNotFound
	}

	return nil
}

// ExistsByRef checks if a user already linked the same external reference
func (r *LinkRepository) ExistsByRef(ctx context.Context, userID uuid.UUID, source record.Source, externalRef string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM links
			WHERE user_id = $1 AND source = $2 AND external_ref = $3
		)
	`

	var exists bool
	err := r.pool.QueryRow(ctx, query, userID, string(source), externalRef).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check link existence: %w", err)
	}

	return exists, nil
}
