package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Config carries the connection and pool parameters for the MySQL pool.
// Pool sizing comes from configuration so operators can match it to the
// deployment instead of recompiling.
type Config struct {
	User string
	Pass string
	Host string
	Port string
	Name string

	MaxConns     int
	ConnLifetime time.Duration
}

// DSN renders the driver connection string. parseTime maps DATETIME
// columns onto time.Time and loc pins every scanned timestamp to UTC; the
// lockout and reset-expiry comparisons depend on that.
func (c Config) DSN() string {
	auth := c.User
	if c.Pass != "" {
		auth = c.User + ":" + c.Pass
	}
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, c.Host, c.Port, c.Name)
}

// Open connects the pool and verifies the server is reachable before the
// rest of startup proceeds. Idle capacity matches MaxConns: the schema
// bootstrap and the per-request query deadlines churn connections, and
// re-dialing under load costs more than the idle sockets.
func Open(cfg Config) (*sql.DB, error) {
	if cfg.MaxConns < 1 {
		cfg.MaxConns = 25
	}
	if cfg.ConnLifetime <= 0 {
		cfg.ConnLifetime = 30 * time.Minute
	}

	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxConns)
	db.SetConnMaxLifetime(cfg.ConnLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
