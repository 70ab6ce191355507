package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/techcorp/gatehouse/internal/models"
	"github.com/techcorp/gatehouse/internal/repositories"
)

func uniqueEmail(suffix string) string {
	return fmt.Sprintf("test-%d-%s@example.com", time.Now().UnixNano(), suffix)
}

func seedUser(t *testing.T, repo *repositories.UserRepository, email string, active bool) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("TestPassword123!"), bcrypt.MinCost)
	require.NoError(t, err)

	user, err := repo.Create(context.Background(), &models.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         "editor",
		IsActive:     active,
	})
	require.NoError(t, err)
	return user
}

func TestUserRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	testDB, err := SetupTestDatabase(ctx)
	require.NoError(t, err)
	defer testDB.Teardown(ctx)

	repo := repositories.NewUserRepository(testDB.DB)

	t.Run("FindActiveByEmail", func(t *testing.T) {
		require.NoError(t, testDB.CleanupTables(ctx))
		email := uniqueEmail("find")
		created := seedUser(t, repo, email, true)

		found, err := repo.FindActiveByEmail(ctx, email)
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
		assert.Equal(t, email, found.Email)
		assert.Equal(t, "editor", found.Role)
		assert.True(t, found.IsActive)
		assert.Nil(t, found.LastLoginAt)
	})

	t.Run("FindActiveByEmail unknown address", func(t *testing.T) {
		_, err := repo.FindActiveByEmail(ctx, uniqueEmail("missing"))
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("FindActiveByEmail skips deactivated accounts", func(t *testing.T) {
		require.NoError(t, testDB.CleanupTables(ctx))
		email := uniqueEmail("inactive")
		seedUser(t, repo, email, false)

		_, err := repo.FindActiveByEmail(ctx, email)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("GetByID", func(t *testing.T) {
		require.NoError(t, testDB.CleanupTables(ctx))
		created := seedUser(t, repo, uniqueEmail("byid"), true)

		found, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.Email, found.Email)

		_, err = repo.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("TouchLastLogin", func(t *testing.T) {
		require.NoError(t, testDB.CleanupTables(ctx))
		created := seedUser(t, repo, uniqueEmail("touch"), true)

		require.NoError(t, repo.TouchLastLogin(ctx, created.ID))

		found, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, found.LastLoginAt)
		assert.WithinDuration(t, time.Now(), *found.LastLoginAt, time.Minute)
	})

	t.Run("Create rejects duplicate email", func(t *testing.T) {
		require.NoError(t, testDB.CleanupTables(ctx))
		email := uniqueEmail("dup")
		seedUser(t, repo, email, true)

		_, err := repo.Create(ctx, &models.User{
			Email:        email,
			PasswordHash: "x",
			Role:         "editor",
			IsActive:     true,
		})
		assert.ErrorIs(t, err, models.ErrConflict)
	})
}
