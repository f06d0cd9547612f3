package database

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Connection wraps the MySQL database handle.
// Note: sql.DB is already thread-safe and manages its own connection pool;
// it must not be wrapped with additional mutexes.
type Connection struct {
	db *sql.DB
}

var (
	instance *Connection
	once     sync.Once
	initErr  error
	tlsOnce  sync.Once // Ensure TLS config is registered only once
)

// GetInstance returns the singleton database connection
func GetInstance() (*Connection, error) {
	once.Do(func() {
		instance, initErr = newConnection()
	})
	return instance, initErr
}

// newConnection creates a new MySQL connection from the environment
func newConnection() (*Connection, error) {
	host := os.Getenv("HELPDESK_DB_HOST")
	port := os.Getenv("HELPDESK_DB_PORT")
	user := os.Getenv("HELPDESK_DB_USER")
	password := os.Getenv("HELPDESK_DB_PASSWORD")
	database := os.Getenv("HELPDESK_DB_NAME")

	if port == "" {
		port = "3306"
	}
	if database == "" {
		database = "helpdesk"
	}

	// Remote hosts (managed MySQL) get TLS; localhost does not
	tlsParam := ""
	if host != "" && host != "127.0.0.1" && host != "localhost" {
		tlsOnce.Do(func() {
			if err := mysql.RegisterTLSConfig("helpdesk", &tls.Config{
				MinVersion: tls.VersionTLS12,
				ServerName: host, // Required for TLS verification
			}); err != nil {
				// Just log as we can't return error from sync.Once
				log.Printf("Failed to register TLS config: %v\n", err)
			}
		})
		tlsParam = "&tls=helpdesk"
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC%s",
		user, password, host, port, database, tlsParam)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// MaxIdleConns matches MaxOpenConns to keep connections alive; a lower
	// idle count churns connections and exhausts ephemeral ports under load
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(50)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(3 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Connection{db: db}, nil
}

// NewWithDB wraps an existing handle (tests use this with sqlmock)
func NewWithDB(db *sql.DB) *Connection {
	return &Connection{db: db}
}

// DB exposes the underlying handle for transactions
func (c *Connection) DB() *sql.DB {
	return c.db
}

// QueryContext executes a SELECT query with context
func (c *Connection) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return c.db.QueryContext(ctx, query, args...)
}

// QueryRowContext executes a SELECT query with context that returns at most one row
func (c *Connection) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return c.db.QueryRowContext(ctx, query, args...)
}

// ExecContext executes a statement with context
func (c *Connection) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return c.db.ExecContext(ctx, query, args...)
}

// BeginTx starts a transaction
func (c *Connection) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return c.db.BeginTx(ctx, nil)
}

// Close closes the underlying handle
func (c *Connection) Close() error {
	return c.db.Close()
}
