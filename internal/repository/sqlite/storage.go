// Package sqlite implements repository.Storage on top of gorm and sqlite.
// It is the default storage for local development, tests use it to avoid docker.
package sqlite

import (
	"context"
	"fmt"
	"strings"

	sqlitedriver "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nkiryanov/microblog/internal/repository"
)

const dsnPrefix = "sqlite://"

func IsSQLiteDSN(dsn string) bool {
	return strings.HasPrefix(dsn, dsnPrefix)
}

// Path to database file from dsn like 'sqlite://app.db'
func PathFromDSN(dsn string) string {
	return strings.TrimPrefix(dsn, dsnPrefix)
}

type Storage struct {
	db *gorm.DB
}

// Open database file, create schema and return storage with function to close it
func Open(path string) (repository.Storage, func() error, error) {
	// Foreign keys are off in sqlite by default
	dsn := path + "?_foreign_keys=on&_busy_timeout=5000"

	db, err := gorm.Open(sqlitedriver.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("cant open sqlite database. Err: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("cant get sqlite connection pool. Err: %w", err)
	}
	// sqlite allows the only writer
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&userRow{}, &postRow{}, &rememberTokenRow{}); err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("error while migrating sqlite schema. Err: %w", err)
	}

	return NewStorage(db), sqlDB.Close, nil
}

func NewStorage(db *gorm.DB) repository.Storage {
	return &Storage{db: db}
}

func (s *Storage) User() repository.UserRepo {
	return &UserRepo{DB: s.db}
}

func (s *Storage) Post() repository.PostRepo {
	return &PostRepo{DB: s.db}
}

func (s *Storage) RememberToken() repository.RememberTokenRepo {
	return &RememberTokenRepo{DB: s.db}
}

func (s *Storage) InTx(ctx context.Context, fn func(repository.Storage) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStorage(tx))
	})
}

func (s *Storage) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
