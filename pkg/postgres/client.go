// Package postgres wraps a lib/pq connection pool used for evaluation
// report storage.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/irkit/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/irkit/pkg/resilience"
)

const pingTimeout = 5 * time.Second

type Client struct {
	DB *sql.DB
}

// New builds a pool from cfg and blocks until the server answers, backing
// off while it is still starting. A malformed DSN fails immediately.
func New(ctx context.Context, cfg config.PostgresConfig) (*Client, error) {
	connector, err := pq.NewConnector(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("postgres dsn: %w", err)
	}
	pool := sql.OpenDB(connector)
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	c := &Client{DB: pool}
	backoff := resilience.RetryConfig{MaxAttempts: 4, InitialDelay: 250 * time.Millisecond}
	if err := resilience.Retry(ctx, "postgres-ping", backoff, func() error { return c.Ping(ctx) }); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres unreachable at %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return c, nil
}

// Ping reports whether the server answers within pingTimeout.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return c.DB.PingContext(ctx)
}

func (c *Client) Close() error { return c.DB.Close() }
