// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

package database

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/taxidash/internal/config"
	"github.com/tomtom215/taxidash/internal/logging"
	"github.com/tomtom215/taxidash/internal/metrics"
)

// DB wraps the DuckDB connection used to query the Parquet dataset and the
// zone reference CSVs. Nothing is ever written; the database only hosts
// read_parquet / read_csv_auto scans.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig
}

// New opens DuckDB with the configured thread and memory limits.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	// Extension autoload stays off: read_parquet and read_csv_auto are built in.
	connStr := fmt.Sprintf("%s?threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, numThreads, cfg.MaxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn, cfg: cfg}
	db.configureConnectionPool()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.Ping(ctx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logging.Debug().Int("threads", numThreads).Str("max_memory", cfg.MaxMemory).Msg("DuckDB opened")
	return db, nil
}

// configureConnectionPool sizes the pool so that every partition worker can
// hold a connection at the same time.
func (db *DB) configureConnectionPool() {
	db.conn.SetMaxOpenConns(runtime.NumCPU())
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}

// Conn returns the underlying connection pool. The zones package uses it to
// read the reference CSVs.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Close closes the connection pool.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// Ping checks if the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// queryAndScan executes a query and hands each row to scanner.
func (db *DB) queryAndScan(ctx context.Context, query string, args []interface{}, scanner func(*sql.Rows) error) error {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scanner(rows); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows iteration: %w", err)
	}
	return nil
}

// timedQuery runs queryAndScan and records its duration under operation.
func (db *DB) timedQuery(ctx context.Context, operation, query string, args []interface{}, scanner func(*sql.Rows) error) error {
	start := time.Now()
	err := db.queryAndScan(ctx, query, args, scanner)
	metrics.RecordDBQuery(operation, "trips", time.Since(start), err)
	return err
}
