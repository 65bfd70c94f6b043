package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/godror/godror"
	"github.com/okamoto/oracle-hr-api/internal/config"
	"go.uber.org/zap"
)

const pingTimeout = 5 * time.Second

// OracleDB represents an Oracle database client
type OracleDB struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOracleDB opens a godror pool and verifies it with a ping.
func NewOracleDB(cfg *config.DatabaseConfig, logger *zap.Logger) (*OracleDB, error) {
	db, err := sql.Open("godror", cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.MaxIdleConns))

	return NewFromDB(db, logger), nil
}

// NewFromDB wraps an already opened pool.
func NewFromDB(db *sql.DB, logger *zap.Logger) *OracleDB {
	return &OracleDB{
		db:     db,
		logger: logger,
	}
}

// Conn checks a single connection out of the pool. The caller must Close it
// to hand it back.
func (o *OracleDB) Conn(ctx context.Context) (*sql.Conn, error) {
	conn, err := o.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return conn, nil
}

// Close closes the database connection
func (o *OracleDB) Close() error {
	o.logger.Info("closing database connection")
	return o.db.Close()
}

// Stats returns database statistics
func (o *OracleDB) Stats() sql.DBStats {
	return o.db.Stats()
}

// HealthCheck performs a health check on the database
func (o *OracleDB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := o.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	stats := o.Stats()
	o.logger.Debug("database health check",
		zap.Int("open_connections", stats.OpenConnections),
		zap.Int("in_use", stats.InUse),
		zap.Int("idle", stats.Idle))

	return nil
}
