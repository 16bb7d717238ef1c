// Package testutil provides sqlite-backed fixtures shared by package tests
package testutil

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/freightlink/backend/internal/database"
	"github.com/freightlink/backend/internal/models"
	"github.com/freightlink/backend/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB opens a private in-memory database with every migration applied
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared&_foreign_keys=1", name, uuid.NewString()[:8])

	db, err := database.OpenSQLite(dsn)
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// NewRepository returns a repository over a fresh database
func NewRepository(t *testing.T) *repository.Repository {
	t.Helper()
	return repository.New(NewDB(t))
}

// CreateProfile registers a user and, when points > 0, seeds an opening
// ledger entry so the cached balance matches the ledger
func CreateProfile(t *testing.T, repo *repository.Repository, email, fullName string, points int64) *models.Profile {
	t.Helper()
	ctx := context.Background()

	profile := &models.Profile{Email: email, FullName: fullName}
	require.NoError(t, repo.CreateProfile(ctx, profile))

	if points > 0 {
		entry := &models.PointTransaction{
			UserID:       profile.ID,
			Amount:       points,
			Reason:       models.ReasonOther,
			Metadata:     models.JSON{"note": "opening balance"},
			BalanceAfter: points,
		}
		require.NoError(t, repo.InsertEntry(ctx, entry))
		require.NoError(t, repo.WriteBalance(ctx, profile.ID, points))
		profile.LoyaltyPoints = points
	}
	return profile
}
