// Package database provides PostgreSQL access: connection management,
// schema migrations and the queries behind the points ledger.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file" // File source driver for migrations
	_ "github.com/lib/pq"                                // PostgreSQL driver
	"go.uber.org/zap"

	"github.com/ahmedtohamy-16/footygateway/internal/config"
)

// Sentinel errors for ledger operations. Callers translate these into
// API responses, they never reach the user as raw strings.
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrUserInactive        = errors.New("user is deactivated")
	ErrInsufficientPoints  = errors.New("insufficient points")
	ErrInvalidReferralCode = errors.New("referral code does not resolve")
	ErrSelfReferral        = errors.New("self-referral is not allowed")
	ErrAlreadyReferred     = errors.New("user already has a referrer")
	ErrDuplicateReferral   = errors.New("referral pair already recorded")
)

// DB wraps the database connection
type DB struct {
	*sql.DB
	logger *zap.Logger
}

// NewDB creates a new database connection with connection pooling
func NewDB(cfg *config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	dsn := cfg.GetDSN()

	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("host", cfg.Host),
		zap.String("port", cfg.Port),
		zap.String("database", cfg.Name),
	)

	return &DB{
		DB:     sqlDB,
		logger: logger,
	}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	db.logger.Info("closing database connection")
	return db.DB.Close()
}

// Health checks the database health
func (db *DB) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	return nil
}

// RunMigrations runs database migrations using golang-migrate library
func (db *DB) RunMigrations(migrationsPath string) error {
	db.logger.Info("running database migrations", zap.String("path", migrationsPath))

	driver, err := postgres.WithInstance(db.DB, &postgres.Config{
		MigrationsTable: "schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("failed to create postgres driver instance: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil {
		// ErrNoChange means the schema is already current.
		if errors.Is(err, migrate.ErrNoChange) {
			db.logger.Info("database schema is already up to date")
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		db.logger.Warn("failed to get migration version", zap.Error(err))
	} else if errors.Is(err, migrate.ErrNilVersion) {
		db.logger.Info("no migrations have been applied yet")
	} else {
		db.logger.Info("database migrations completed successfully",
			zap.Uint("version", version),
			zap.Bool("dirty", dirty),
		)
	}

	return nil
}
