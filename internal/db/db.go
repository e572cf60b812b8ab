// Package db implements the persistence layer on top of GORM. One
// Repository serves every entity; multi-row mutations run through
// WithTransaction so that callers decide the transaction boundary.
package db

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	e "github.com/incidia/backend/internal/errors"
	"github.com/incidia/backend/internal/models"
)

type Repository struct {
	db *gorm.DB
}

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// NewRepository connects to Postgres and migrates the schema.
func NewRepository(cfg *Config) (*Repository, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Repository{db: db}, nil
}

// NewWithDB wraps an already-open GORM handle. Used by tests.
func NewWithDB(db *gorm.DB) *Repository { return &Repository{db: db} }

// Migrate creates or updates the schema for every entity.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Company{},
		&models.User{},
		&models.License{},
		&models.Device{},
		&models.IncidentType{},
		&models.Incident{},
		&models.MediaFile{},
	)
}

// WithTransaction runs fn against a repository bound to a single
// transaction. fn returning an error rolls everything back.
func (r *Repository) WithTransaction(ctx context.Context, fn func(repo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

// forUpdate appends a row-level write lock on dialects that support
// it. SQLite rejects FOR UPDATE and serializes writers on its own, so
// the clause is only emitted for Postgres.
func (r *Repository) forUpdate(tx *gorm.DB) *gorm.DB {
	if r.db.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// translate maps driver errors onto the service taxonomy. Lock waits
// that hit the statement timeout surface as retryable contention.
func translate(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "55P03") || strings.Contains(msg, "lock timeout") {
		return fmt.Errorf("%w: %v", e.ErrContention, err)
	}
	return err
}

func (r *Repository) Close() error {
	db, err := r.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
