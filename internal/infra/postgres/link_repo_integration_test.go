//go:build integration

package postgres

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unifin/unifin/internal/engine/record"
	"github.com/unifin/unifin/internal/platform/link"
	"github.com/unifin/unifin/testutil/testdb"
)

var testDB *testdb.TestDB

func TestMain(m *testing.M) {
	ctx := context.Background()

	var err error
	testDB, err = testdb.NewTestDB(ctx)
	if err != nil {
		panic("failed to create test database: " + err.Error())
	}

	code := m.Run()

	testDB.Close(ctx)
	if code != 0 {
		panic("tests failed")
	}
}

func setupLinkTest(t *testing.T) (*LinkRepository, context.Context) {
	ctx := context.Background()
	require.NoError(t, testDB.Reset(ctx))

	return NewLinkRepository(testDB.Pool), ctx
}

// Helper to create a test user
func createTestUser(t *testing.T, ctx context.Context) uuid.UUID {
	userID := uuid.New()
	_, err := testDB.Pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
	`, userID, "test-"+userID.String()[:8]+"@example.com", "hash")
	require.NoError(t, err)
	return userID
}

func newTestLink(userID uuid.UUID, ref string) *link.Link {
	return &link.Link{
		ID:          uuid.New(),
		UserID:      userID,
		Type:        link.TypeBank,
		Source:      record.SourcePlaid,
		Name:        "Checking",
		ExternalRef: ref,
	}
}

func TestLinkRepository_CreateAndGet(t *testing.T) {
	repo, ctx := setupLinkTest(t)
	userID := createTestUser(t, ctx)

	created := newTestLink(userID, "token-1")
	require.NoError(t, repo.Create(ctx, created))

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, link.TypeBank, got.Type)
	assert.Equal(t, record.SourcePlaid, got.Source)
	assert.Equal(t, "token-1", got.ExternalRef)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestLinkRepository_DuplicateRef(t *testing.T) {
	repo, ctx := setupLinkTest(t)
	userID := createTestUser(t, ctx)

	require.NoError(t, repo.Create(ctx, newTestLink(userID, "token-1")))

	err := repo.Create(ctx, newTestLink(userID, "token-1"))
	assert.ErrorIs(t, err, link.ErrDuplicateLink)

	// Same ref under a different user is fine
	otherUser := createTestUser(t, ctx)
	assert.NoError(t, repo.Create(ctx, newTestLink(otherUser, "token-1")))
}

func TestLinkRepository_GetByUserID(t *testing.T) {
	repo, ctx := setupLinkTest(t)
	userID := createTestUser(t, ctx)
	otherUser := createTestUser(t, ctx)

	require.NoError(t, repo.Create(ctx, newTestLink(userID, "token-1")))
	require.NoError(t, repo.Create(ctx, newTestLink(userID, "token-2")))
	require.NoError(t, repo.Create(ctx, newTestLink(otherUser, "token-3")))

	links, err := repo.GetByUserID(ctx, userID)
	require.NoError(t, err)
	require.Len(t, links, 2)
	for _, l := range links {
		assert.Equal(t, userID, l.UserID)
	}
}

func TestLinkRepository_Delete(t *testing.T) {
	repo, ctx := setupLinkTest(t)
	userID := createTestUser(t, ctx)

	l := newTestLink(userID, "token-1")
	require.NoError(t, repo.Create(ctx, l))
	require.NoError(t, repo.Delete(ctx, l.ID))

	_, err := repo.GetByID(ctx, l.ID)
	assert.ErrorIs(t, err, link.ErrLinkNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, l.ID), link.ErrLinkNotFound)
}

func TestLinkRepository_DeleteCascadesWithUser(t *testing.T) {
	repo, ctx := setupLinkTest(t)
	userID := createTestUser(t, ctx)

	l := newTestLink(userID, "token-1")
	require.NoError(t, repo.Create(ctx, l))

	_, err := testDB.Pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	require.NoError(t, err)

	_, err = repo.GetByID(ctx, l.ID)
	assert.ErrorIs(t, err, link.ErrLinkNotFound)
}

func TestLinkRepository_ExistsByRef(t *testing.T) {
	repo, ctx := setupLinkTest(t)
	userID := createTestUser(t, ctx)

	require.NoError(t, repo.Create(ctx, newTestLink(userID, "token-1")))

	exists, err := repo.ExistsByRef(ctx, userID, record.SourcePlaid, "token-1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByRef(ctx, userID, record.SourcePlaid, "token-9")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = repo.ExistsByRef(ctx, uuid.New(), record.SourcePlaid, "token-1")
	require.NoError(t, err)
	assert.False(t, exists)
}
