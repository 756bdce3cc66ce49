package user_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/unifin/unifin/internal/platform/user"
	"github.com/unifin/unifin/pkg/logger"
)

// MockUserRepository is a mock implementation of the user Repository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, u *user.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) Exists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestUserService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("successful registration", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := user.NewService(repo, logger.NewDefault("development"))

		repo.On("Exists", ctx, "alice@example.com").Return(false, nil)
		repo.On("Create", ctx, mock.AnythingOfType("*user.User")).Return(nil)

		u, err := svc.Register(ctx, "alice@example.com", "hunter2boat")

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, u.ID)
		assert.Equal(t, "alice@example.com", u.Email)
		assert.NotEmpty(t, u.PasswordHash)
		assert.NotEqual(t, "hunter2boat", u.PasswordHash)
		repo.AssertExpectations(t)
	})

	t.Run("duplicate email", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := user.NewService(repo, logger.NewDefault("development"))

		repo.On("Exists", ctx, "alice@example.com").Return(true, nil)

		_, err := svc.Register(ctx, "alice@example.com", "hunter2boat")
		assert.ErrorIs(t, err, user.ErrUserAlreadyExists)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("invalid email", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := user.NewService(repo, logger.NewDefault("development"))

		repo.On("Exists", ctx, "not-an-email").Return(false, nil)

		_, err := svc.Register(ctx, "not-an-email", "hunter2boat")
		assert.ErrorIs(t, err, user.ErrInvalidEmail)
	})

	t.Run("password too short", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := user.NewService(repo, logger.NewDefault("development"))

		repo.On("Exists", ctx, "bob@example.com").Return(false, nil)

		_, err := svc.Register(ctx, "bob@example.com", "short")
		assert.ErrorIs(t, err, user.ErrPasswordTooShort)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("empty email rejected before repository", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := user.NewService(repo, logger.NewDefault("development"))

		_, err := svc.Register(ctx, "", "hunter2boat")
		assert.ErrorIs(t, err, user.ErrInvalidEmail)
		repo.AssertNotCalled(t, "Exists", mock.Anything, mock.Anything)
	})
}

func TestUserService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("successful login records last login", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := user.NewService(repo, logger.NewDefault("development"))

		stored := &user.User{
			ID:           uuid.New(),
			Email:        "alice@example.com",
			PasswordHash: hashOf(t, "hunter2boat"),
		}
		repo.On("GetByEmail", ctx, "alice@example.com").Return(stored, nil)
		repo.On("Update", ctx, stored).Return(nil)

		u, err := svc.Login(ctx, "alice@example.com", "hunter2boat")

		require.NoError(t, err)
		require.NotNil(t, u.LastLoginAt)
		repo.AssertExpectations(t)
	})

	t.Run("wrong password", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := user.NewService(repo, logger.NewDefault("development"))

		stored := &user.User{
			ID:           uuid.New(),
			Email:        "alice@example.com",
			PasswordHash: hashOf(t, "hunter2boat"),
		}
		repo.On("GetByEmail", ctx, "alice@example.com").Return(stored, nil)

		_, err := svc.Login(ctx, "alice@example.com", "wrong-password")
		assert.ErrorIs(t, err, user.ErrInvalidPassword)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("unknown email reported as bad password", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := user.NewService(repo, logger.NewDefault("development"))

		repo.On("GetByEmail", ctx, "ghost@example.com").Return(nil, user.ErrUserNotFound)

		_, err := svc.Login(ctx, "ghost@example.com", "whatever-pass")
		assert.ErrorIs(t, err, user.ErrInvalidPassword)
	})

	t.Run("last login update failure is not fatal", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := user.NewService(repo, logger.NewDefault("development"))

		stored := &user.User{
			ID:           uuid.New(),
			Email:        "alice@example.com",
			PasswordHash: hashOf(t, "hunter2boat"),
		}
		repo.On("GetByEmail", ctx, "alice@example.com").Return(stored, nil)
		repo.On("Update", ctx, stored).Return(errors.New("db unavailable"))

		_, err := svc.Login(ctx, "alice@example.com", "hunter2boat")
		assert.NoError(t, err)
	})
}
