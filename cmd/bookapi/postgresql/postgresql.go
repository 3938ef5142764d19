// Copyright 2026 PageForge
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package postgresql

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/united-manufacturing-hub/umh-utils/env"
	"go.uber.org/zap"
)

// PgxIface is the slice of pgxpool.Pool the connection uses. Narrowed to
// an interface so the tests can swap in pgxmock.
type PgxIface interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// querier is the statement surface shared by the pool and an open
// transaction, so the store queries are written once.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Connection is the postgres-backed book store.
type Connection struct {
	db          PgxIface
	ownerCache  *lru.ARCCache
	txSupported bool
	lruHits     atomic.Uint64
	lruMisses   atomic.Uint64
}

var conn *Connection
var once sync.Once

// GetOrInit connects to postgres using the POSTGRES_* environment
// variables, runs the schema migration and probes transaction support.
// Fatal on any failure: the service cannot run without its store.
func GetOrInit() *Connection {
	once.Do(func() {
		zap.S().Debugf("Setting up postgresql")
		PQHost, err := env.GetAsString("POSTGRES_HOST", false, "db")
		if err != nil {
			zap.S().Fatalf("Failed to get POSTGRES_HOST from env: %s", err)
		}
		PQPort, err := env.GetAsInt("POSTGRES_PORT", false, 5432)
		if err != nil {
			zap.S().Fatalf("Failed to get POSTGRES_PORT from env: %s", err)
		}
		PQUser, err := env.GetAsString("POSTGRES_USER", true, "")
		if err != nil {
			zap.S().Fatalf("Failed to get POSTGRES_USER from env: %s", err)
		}
		PQPassword, err := env.GetAsString("POSTGRES_PASSWORD", true, "")
		if err != nil {
			zap.S().Fatalf("Failed to get POSTGRES_PASSWORD from env: %s", err)
		}
		PQDBName, err := env.GetAsString("POSTGRES_DATABASE", true, "")
		if err != nil {
			zap.S().Fatalf("Failed to get POSTGRES_DATABASE from env: %s", err)
		}
		PQSSLMode, err := env.GetAsString("POSTGRES_SSL_MODE", false, "require")
		if err != nil {
			zap.S().Fatalf("Failed to get POSTGRES_SSL_MODE from env: %s", err)
		}

		zap.S().Infof("Connecting to %s@%s:%d/%s [%s]", PQUser, PQHost, PQPort, PQDBName, PQSSLMode)

		conString := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			PQHost, PQPort, PQUser, PQPassword, PQDBName, PQSSLMode)

		establishContext, establishContextCncl := get5SecondContext()
		defer establishContextCncl()
		var db *pgxpool.Pool
		db, err = pgxpool.New(establishContext, conString)
		if err != nil {
			zap.S().Fatalf("Failed to open connection to postgres database: %s", err)
		}

		ownerCacheSize, err := env.GetAsInt("OWNER_LRU_CACHE_SIZE", false, 1000)
		if err != nil {
			zap.S().Fatalf("Failed to get OWNER_LRU_CACHE_SIZE from env: %s", err)
		}
		ownerCache, err := lru.NewARC(ownerCacheSize)
		if err != nil {
			zap.S().Fatalf("Failed to create owner cache: %s", err)
		}

		conn = &Connection{
			db:         db,
			ownerCache: ownerCache,
		}
		if !conn.IsAvailable() {
			zap.S().Fatalf("Database is not available!")
		}

		migrateContext, migrateContextCncl := get1MinuteContext()
		defer migrateContextCncl()
		if err = conn.migrate(migrateContext); err != nil {
			zap.S().Fatalf("Failed to migrate database schema: %s", err)
		}

		probeContext, probeContextCncl := get5SecondContext()
		defer probeContextCncl()
		conn.txSupported = conn.probeTransactions(probeContext)
	})
	return conn
}

// IsAvailable pings the database.
func (c *Connection) IsAvailable() bool {
	if c.db == nil {
		return false
	}
	ctx, cncl := get5SecondContext()
	defer cncl()
	if err := c.db.Ping(ctx); err != nil {
		zap.S().Debugf("Failed to ping database: %s", err)
		return false
	}
	return true
}

// Shutdown closes the connection pool.
func (c *Connection) Shutdown() {
	if c.db != nil {
		c.db.Close()
	}
}

// SupportsTransactions reports the result of the startup probe. Selection
// happens once per process, not per call.
func (c *Connection) SupportsTransactions(context.Context) bool {
	return c.txSupported
}

// probeTransactions checks whether the deployment can run multi-statement
// transactions. POSTGRES_DISABLE_TRANSACTIONS forces fallback mode;
// otherwise a two-statement probe transaction is attempted, which fails
// when the pool is reached through a statement-pooling proxy.
func (c *Connection) probeTransactions(ctx context.Context) bool {
	disabled, err := env.GetAsBool("POSTGRES_DISABLE_TRANSACTIONS", false, false)
	if err != nil {
		zap.S().Fatalf("Failed to get POSTGRES_DISABLE_TRANSACTIONS from env: %s", err)
	}
	if disabled {
		zap.S().Warnf("Transactions disabled via POSTGRES_DISABLE_TRANSACTIONS")
		return false
	}

	tx, err := c.db.Begin(ctx)
	if err != nil {
		zap.S().Warnf("Transaction probe failed to begin: %s", err)
		return false
	}
	if _, err = tx.Exec(ctx, `SELECT 1`); err == nil {
		_, err = tx.Exec(ctx, `SELECT 1`)
	}
	if errR := tx.Rollback(ctx); errR != nil && err == nil {
		err = errR
	}
	if err != nil {
		zap.S().Warnf("Transaction probe failed: %s", err)
		return false
	}
	return true
}

func get5SecondContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

func get1MinuteContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 1*time.Minute)
}
