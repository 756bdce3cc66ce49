package link

import (
	"context"

	"github.com/google/uuid"

	"github.com/unifin/unifin/internal/engine/record"
)

// Repository defines the interface for link persistence operations
type Repository interface {
	// Create creates a new link
	Create(ctx context.Context, l *Link) error

	// GetByID retrieves a link by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Link, error)

	// GetByUserID retrieves all links for a user
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]*Link, error)

	// Delete deletes a link
	Delete(ctx context.Context, id uuid.UUID) error

	// ExistsByRef checks if a user already linked the same external reference
	ExistsByRef(ctx context.Context, userID uuid.UUID, source record.Source, externalRef string) (bool, error)
}

// CacheInvalidator drops any cached snapshot for a user after their linked
// sources change
type CacheInvalidator interface {
	Invalidate(ctx context.Context, userID uuid.UUID) error
}
