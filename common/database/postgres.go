package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Dkijas/EMPA-CELA-sub000/common/config"

	_ "github.com/lib/pq"
)

const defaultPingTimeout = 3 * time.Second

// NewPostgresDB 打开 PostgreSQL 连接池并在超时内完成一次 Ping
func NewPostgresDB(ctx context.Context, cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}

	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Close 关闭数据库连接（允许 nil）
func Close(db *sql.DB) error {
	if db != nil {
		return db.Close()
	}
	return nil
}
