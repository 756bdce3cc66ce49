package link

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/unifin/unifin/pkg/logger"
)

// Service provides business logic for link operations
type Service struct {
	repo   Repository
	cache  CacheInvalidator
	logger *logger.Logger
}

// NewService creates a new link service
func NewService(repo Repository, cache CacheInvalidator, log *logger.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: log}
}

// Create creates a new link for a user
func (s *Service) Create(ctx context.Context, l *Link) (*Link, error) {
	// Validate link data
	if err := l.ValidateCreate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	// Check if user already linked the same source reference
	exists, err := s.repo.ExistsByRef(ctx, l.UserID, l.Source, l.ExternalRef)
	if err != nil {
		return nil, fmt.Errorf("failed to check link existence: %w", err)
	}

	if exists {
		return nil, ErrDuplicateLink
	}

	l.ID = uuid.New()

	if err := s.repo.Create(ctx, l); err != nil {
		return nil, fmt.Errorf("failed to create link: %w", err)
	}

	s.invalidateSnapshot(ctx, l.UserID)

	return l, nil
}

// GetByID retrieves a link by ID and validates user ownership
func (s *Service) GetByID(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*Link, error) {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if l.UserID != userID {
		return nil, ErrUnauthorizedAccess
	}

	return l, nil
}

// List retrieves all links for a user
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]*Link, error) {
	links, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}

	return links, nil
}

// Delete deletes a link
func (s *Service) Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	// Verify ownership before deleting
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if l.UserID != userID {
		return ErrUnauthorizedAccess
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}

	s.invalidateSnapshot(ctx, userID)

	return nil
}

// invalidateSnapshot drops the cached snapshot after a link change. A cache
// failure is logged but never blocks the write path.
func (s *Service) invalidateSnapshot(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.WithContext(ctx).Warn("failed to invalidate snapshot cache",
			"user_id", userID.String(),
			"error", err.Error(),
		)
	}
}
