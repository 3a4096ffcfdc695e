package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string

	MaxRetries int
	RetryDelay time.Duration
}

func (c Config) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// NewPostgresDB opens the pool and pings it, retrying while the server starts up.
func NewPostgresDB(ctx context.Context, cfg Config, logger *zap.Logger) (*sql.DB, error) {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 10
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}

	var (
		db  *sql.DB
		err error
	)
	for i := 1; i <= cfg.MaxRetries; i++ {
		logger.Info("connecting to database", zap.Int("attempt", i), zap.Int("max_attempts", cfg.MaxRetries))

		db, err = sql.Open("postgres", cfg.DSN())
		if err == nil {
			err = db.PingContext(ctx)
		}
		if err == nil {
			logger.Info("database connected", zap.String("host", cfg.Host), zap.String("db", cfg.DBName))
			db.SetMaxOpenConns(25)
			db.SetMaxIdleConns(25)
			db.SetConnMaxLifetime(5 * time.Minute)
			return db, nil
		}
		if db != nil {
			_ = db.Close()
		}

		logger.Warn("database not ready", zap.Duration("retry_in", cfg.RetryDelay), zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cfg.RetryDelay):
		}
	}

	return nil, fmt.Errorf("connect database after %d attempts: %w", cfg.MaxRetries, err)
}
