package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	dbpkg "github.com/InfiniCruiser/ymca-backend/internal/data/db"
	"github.com/InfiniCruiser/ymca-backend/internal/platform/dbctx"
	"github.com/InfiniCruiser/ymca-backend/internal/platform/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var (
	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
	}
}

// DB returns a freshly migrated database for one test. It is backed by a SQLite
// file under tb.TempDir() unless TEST_POSTGRES_DSN points at a Postgres instance,
// in which case tables are truncated on cleanup.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	if dsn := os.Getenv("TEST_POSTGRES_DSN"); dsn != "" {
		db, err := gorm.Open(postgres.Open(dsn), gormConfig())
		if err != nil {
			tb.Fatalf("open postgres: %v", err)
		}
		if err := dbpkg.AutoMigrateAll(db); err != nil {
			tb.Fatalf("migrate postgres: %v", err)
		}
		tb.Cleanup(func() {
			_ = db.Exec(`TRUNCATE submission, evidence_file, performance_calculation`).Error
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		})
		return db
	}

	db, err := dbpkg.OpenSQLite(filepath.Join(tb.TempDir(), "test.db"), gormConfig())
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	if err := dbpkg.AutoMigrateAll(db); err != nil {
		tb.Fatalf("migrate sqlite: %v", err)
	}
	tb.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}

// DBC wraps tx in a dbctx.Context with a background context.
func DBC(tx *gorm.DB) dbctx.Context {
	return dbctx.Context{Ctx: context.Background(), Tx: tx}
}
