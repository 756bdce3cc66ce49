package link_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/unifin/unifin/internal/engine/record"
	"github.com/unifin/unifin/internal/platform/link"
	"github.com/unifin/unifin/pkg/logger"
)

// MockLinkRepository is a mock implementation of the link Repository
type MockLinkRepository struct {
	mock.Mock
}

func (m *MockLinkRepository) Create(ctx context.Context, l *link.Link) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *MockLinkRepository) GetByID(ctx context.Context, id uuid.UUID) (*link.Link, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*link.Link), args.Error(1)
}

func (m *MockLinkRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*link.Link, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*link.Link), args.Error(1)
}

func (m *MockLinkRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockLinkRepository) ExistsByRef(ctx context.Context, userID uuid.UUID, source record.Source, externalRef string) (bool, error) {
	args := m.Called(ctx, userID, source, externalRef)
	return args.Bool(0), args.Error(1)
}

// MockInvalidator records snapshot cache invalidations
type MockInvalidator struct {
	mock.Mock
}

func (m *MockInvalidator) Invalidate(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func testLogger() *logger.Logger {
	return logger.NewDefault("development")
}

func TestLinkService_Create(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("valid creation invalidates snapshot cache", func(t *testing.T) {
		repo := new(MockLinkRepository)
		cache := new(MockInvalidator)
		svc := link.NewService(repo, cache, testLogger())

		repo.On("ExistsByRef", ctx, userID, record.SourcePlaid, "token-1").Return(false, nil)
		repo.On("Create", ctx, mock.AnythingOfType("*link.Link")).Return(nil)
		cache.On("Invalidate", ctx, userID).Return(nil)

		created, err := svc.Create(ctx, &link.Link{
			UserID:      userID,
			Type:        link.TypeBank,
			Name:        "Checking",
			ExternalRef: "token-1",
		})

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, created.ID)
		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("duplicate reference rejected", func(t *testing.T) {
		repo := new(MockLinkRepository)
		cache := new(MockInvalidator)
		svc := link.NewService(repo, cache, testLogger())

		repo.On("ExistsByRef", ctx, userID, record.SourcePlaid, "token-1").Return(true, nil)

		_, err := svc.Create(ctx, &link.Link{
			UserID:      userID,
			Type:        link.TypeBank,
			Name:        "Checking",
			ExternalRef: "token-1",
		})

		assert.ErrorIs(t, err, link.ErrDuplicateLink)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		cache.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
	})

	t.Run("validation failure skips repository", func(t *testing.T) {
		repo := new(MockLinkRepository)
		svc := link.NewService(repo, nil, testLogger())

		_, err := svc.Create(ctx, &link.Link{
			UserID: userID,
			Type:   link.TypeBank,
			Name:   "",
		})

		assert.ErrorIs(t, err, link.ErrMissingName)
		repo.AssertNotCalled(t, "ExistsByRef", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cache failure does not block creation", func(t *testing.T) {
		repo := new(MockLinkRepository)
		cache := new(MockInvalidator)
		svc := link.NewService(repo, cache, testLogger())

		repo.On("ExistsByRef", ctx, userID, record.SourceBroker, "acct-9").Return(false, nil)
		repo.On("Create", ctx, mock.AnythingOfType("*link.Link")).Return(nil)
		cache.On("Invalidate", ctx, userID).Return(errors.New("redis down"))

		_, err := svc.Create(ctx, &link.Link{
			UserID:      userID,
			Type:        link.TypeBroker,
			Name:        "IRA",
			ExternalRef: "acct-9",
		})

		assert.NoError(t, err)
	})
}

func TestLinkService_GetByID(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	linkID := uuid.New()

	t.Run("owner can read", func(t *testing.T) {
		repo := new(MockLinkRepository)
		svc := link.NewService(repo, nil, testLogger())

		repo.On("GetByID", ctx, linkID).Return(&link.Link{ID: linkID, UserID: userID}, nil)

		got, err := svc.GetByID(ctx, linkID, userID)
		require.NoError(t, err)
		assert.Equal(t, linkID, got.ID)
	})

	t.Run("other user denied", func(t *testing.T) {
		repo := new(MockLinkRepository)
		svc := link.NewService(repo, nil, testLogger())

		repo.On("GetByID", ctx, linkID).Return(&link.Link{ID: linkID, UserID: uuid.New()}, nil)

		_, err := svc.GetByID(ctx, linkID, userID)
		assert.ErrorIs(t, err, link.ErrUnauthorizedAccess)
	})
}

func TestLinkService_Delete(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	linkID := uuid.New()

	t.Run("owner delete invalidates cache", func(t *testing.T) {
		repo := new(MockLinkRepository)
		cache := new(MockInvalidator)
		svc := link.NewService(repo, cache, testLogger())

		repo.On("GetByID", ctx, linkID).Return(&link.Link{ID: linkID, UserID: userID}, nil)
		repo.On("Delete", ctx, linkID).Return(nil)
		cache.On("Invalidate", ctx, userID).Return(nil)

		require.NoError(t, svc.Delete(ctx, linkID, userID))
		cache.AssertExpectations(t)
	})

	t.Run("other user cannot delete", func(t *testing.T) {
		repo := new(MockLinkRepository)
		svc := link.NewService(repo, nil, testLogger())

		repo.On("GetByID", ctx, linkID).Return(&link.Link{ID: linkID, UserID: uuid.New()}, nil)

		err := svc.Delete(ctx, linkID, userID)
		assert.ErrorIs(t, err, link.ErrUnauthorizedAccess)
		repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("missing link", func(t *testing.T) {
		repo := new(MockLinkRepository)
		svc := link.NewService(repo, nil, testLogger())

		repo.On("GetByID", ctx, linkID).Return(nil, link.ErrLinkNotFound)

		err := svc.Delete(ctx, linkID, userID)
		assert.ErrorIs(t, err, link.ErrLinkNotFound)
	})
}

func TestLinkService_List(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	repo := new(MockLinkRepository)
	svc := link.NewService(repo, nil, testLogger())

	repo.On("GetByUserID", ctx, userID).Return([]*link.Link{
		{ID: uuid.New(), UserID: userID, Type: link.TypeWallet},
		{ID: uuid.New(), UserID: userID, Type: link.TypeBank},
	}, nil)

	links, err := svc.List(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, links, 2)
}
