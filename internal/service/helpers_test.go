package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/relation-engine/internal/model"
	"github.com/d60-Lab/relation-engine/internal/repository"
	"github.com/d60-Lab/relation-engine/pkg/database"
)

func setupStore(t testing.TB) *repository.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	return repository.NewStore(db)
}

func mkAccount(t testing.TB, store *repository.Store, name string, privacy model.PrivacyMode) string {
	t.Helper()
	acc, err := store.Accounts.Create(context.Background(), name, privacy)
	require.NoError(t, err)
	return acc.ID
}

var errInjected = errors.New("injected failure")

// failCreatesOn makes every INSERT into table fail, to prove transactions roll back.
func failCreatesOn(t testing.TB, store *repository.Store, table string) {
	t.Helper()
	name := "test:fail_" + table
	err := store.DB().Callback().Create().Before("gorm:create").Register(name, func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			_ = tx.AddError(errInjected)
		}
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.DB().Callback().Create().Remove(name) })
}

// insertFirst runs insert once, in the same transaction, right before the next
// INSERT into table. It stands in for a concurrent writer that committed the
// same row after the workflow's pre-check but before its own insert.
func insertFirst(t testing.TB, store *repository.Store, table string, insert func(tx *gorm.DB) error) {
	t.Helper()
	name := "test:insert_first_" + table
	var armed atomic.Bool
	armed.Store(true)
	err := store.DB().Callback().Create().Before("gorm:create").Register(name, func(tx *gorm.DB) {
		if tx.Statement.Table != table || !armed.CompareAndSwap(true, false) {
			return
		}
		if err := insert(tx.Session(&gorm.Session{NewDB: true})); err != nil {
			_ = tx.AddError(err)
		}
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.DB().Callback().Create().Remove(name)
		require.False(t, armed.Load(), "no insert into %s happened", table)
	})
}

func countRows(t testing.TB, store *repository.Store, m any, where string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, store.DB().Model(m).Where(where, args...).Count(&n).Error)
	return n
}
