// Package testutil provides an isolated, migrated database per test.
package testutil

import (
	"testing"

	"rocketcoins/internal/db"
	"rocketcoins/internal/domain"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewDB returns a fresh in-memory sqlite database with every table migrated.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	gdb, err := db.OpenSQLite(dsn, gormlogger.Silent)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

// NewLogger returns a logger that discards output and records entries.
func NewLogger() (*logrus.Logger, *test.Hook) {
	return test.NewNullLogger()
}

// CreateUser inserts a user directly, bypassing the account workflow.
func CreateUser(t testing.TB, gdb *gorm.DB, name string, role domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{
		Name:     name,
		Email:    name + "@rocket.test",
		Password: "x",
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, gdb.Create(u).Error)
	return u
}
