package database

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/agegate/internal/models"
)

func TestOpenDefaultsToSQLite(t *testing.T) {
	db, err := Open(Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))
	require.True(t, db.Migrator().HasTable(&models.ConsentRecord{}))
	require.True(t, db.Migrator().HasTable(&models.CacheEntry{}))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "mongodb"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported database driver")
}

func TestAutoMigrateRequiresHandle(t *testing.T) {
	require.Error(t, AutoMigrate(nil))
}
