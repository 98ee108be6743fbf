package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/InfiniCruiser/ymca-backend/internal/platform/logger"
)

// NewSQLiteService opens a file-backed SQLite database for local development.
//
// SQLite allows one writer, so the pool is pinned to a single connection; every
// transaction then runs serially, which satisfies the chain's locking needs.
func NewSQLiteService(logg *logger.Logger, path string) (*Service, error) {
	serviceLog := logg.With("service", "SQLiteService")

	db, err := OpenSQLite(path, gormConfig())
	if err != nil {
		return nil, err
	}
	serviceLog.Info("Opened SQLite database", "path", path)
	return &Service{db: db, log: serviceLog, driver: "sqlite"}, nil
}

// OpenSQLite is shared with test helpers that need their own gorm config.
func OpenSQLite(path string, cfg *gorm.Config) (*gorm.DB, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_busy_timeout=5000&_journal_mode=WAL"
	}
	db, err := gorm.Open(sqlite.Open(dsn), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite sql handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}
