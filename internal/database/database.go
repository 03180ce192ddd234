// Package database owns the connection pool and the per-connection session
// binding that row-level security policies depend on.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"labtrack/internal/config"
	"labtrack/internal/logger"
)

// Manager handles database operations
type Manager struct {
	pool  *pgxpool.Pool
	sqlDB *sql.DB
	db    *gorm.DB
	url   string
}

// NewManager opens the pgx pool and the gorm handle on top of it. Every
// physical connection starts with a deny-by-default session: no lab and no
// administrator flag.
func NewManager(ctx context.Context, cfg *config.Config) (*Manager, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolCfg.MaxConns = cfg.DBMaxConns
	poolCfg.MinConns = cfg.DBMinConns
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, resetSQL, SettingLabID, SettingSystemAdmin)
		return err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	db, err := Open(postgres.New(postgres.Config{Conn: sqlDB}), cfg.Env)
	if err != nil {
		_ = sqlDB.Close()
		pool.Close()
		return nil, err
	}

	return &Manager{pool: pool, sqlDB: sqlDB, db: db, url: cfg.DatabaseURL()}, nil
}

// Open creates a gorm handle with the service's logger, error translation
// and the hard-delete guard installed.
func Open(dialector gorm.Dialector, env string) (*gorm.DB, error) {
	level := gormlogger.Warn
	if env == "development" {
		level = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.NewGormLogger(level, 200*time.Millisecond),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}
	if err := db.Use(GuardPlugin{}); err != nil {
		return nil, fmt.Errorf("failed to install delete guard: %w", err)
	}
	return db, nil
}

// RunMigrations applies pending SQL migrations from dir.
func (m *Manager) RunMigrations(dir string) error {
	return RunMigrations(dir, m.url)
}

// RunMigrations applies pending SQL migrations from dir to the database at url.
func RunMigrations(dir, url string) error {
	log := logger.Get()
	log.Info("Running database migrations...")

	mig, err := migrate.New("file://"+dir, url)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() {
		srcErr, dbErr := mig.Close()
		if srcErr != nil {
			log.Warnf("migrate source close error: %v", srcErr)
		}
		if dbErr != nil {
			log.Warnf("migrate database close error: %v", dbErr)
		}
	}()

	if err := mig.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration failed: %w", err)
	}

	log.Info("Database migrations completed successfully")
	return nil
}

// DB returns the underlying GORM database instance
func (m *Manager) DB() *gorm.DB {
	return m.db
}

// Ping checks that the pool can reach the server.
func (m *Manager) Ping(ctx context.Context) error {
	return m.pool.Ping(ctx)
}

// Close releases the gorm handle and the pool.
func (m *Manager) Close() {
	_ = m.sqlDB.Close()
	m.pool.Close()
}
