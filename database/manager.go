/*
 * Copyright 2026 craneworks.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

type manager struct {
	config          *Config
	db              *bun.DB
	sqlDB           *sql.DB
	logger          Logger
	mu              sync.RWMutex
	connected       bool
	lastError       error
	reconnectTries  int
	stopHealthCheck chan struct{}
	stopOnce        sync.Once
	healthCheckOnce sync.Once
}

// NewManager returns a Manager backed by Bun. If config is nil, a default
// configuration is used.
func NewManager(config *Config) Manager {
	if config == nil {
		config = &Config{Connection: *DefaultConnectionConfig()}
	}
	return &manager{
		config:          config,
		stopHealthCheck: make(chan struct{}),
	}
}

func (m *manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected && m.db != nil {
		return nil
	}

	var err error
	m.sqlDB, m.db, err = m.createConnection()
	if err != nil {
		m.lastError = err
		return fmt.Errorf("failed to create database connection: %w", err)
	}

	m.configureConnectionPool()

	ctxTimeout, cancel := context.WithTimeout(ctx, m.config.Connection.ConnectTimeout)
	defer cancel()

	if err := m.db.PingContext(ctxTimeout); err != nil {
		m.lastError = err
		return fmt.Errorf("database connection test failed: %w", err)
	}

	m.connected = true
	m.lastError = nil
	m.reconnectTries = 0

	if m.config.Connection.HealthCheckInterval > 0 {
		m.startHealthCheck()
	}

	if m.logger != nil {
		m.logger.Info("Database connected successfully:", "type", m.config.Connection.Type, "host", m.config.Connection.Host)
	}
	return nil
}

func (m *manager) createConnection() (*sql.DB, *bun.DB, error) {
	var sqlDB *sql.DB
	var db *bun.DB
	var err error

	cfg := &m.config.Connection
	if cfg.ConnectTimeout.Seconds() <= 0 {
		cfg.ConnectTimeout = 30 * time.Second
	}

	switch cfg.Type {
	case "mysql":
		sqlDB, db, err = m.createMySQLConnection()
	case "postgres", "postgresql":
		sqlDB, db, err = m.createPostgreSQLConnection()
	case "sqlite", "sqlite3":
		sqlDB, db, err = m.createSQLiteConnection()
	default:
		return nil, nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	if err != nil {
		return nil, nil, err
	}

	if cfg.EnableQueryLog {
		db.AddQueryHook(bundebug.NewQueryHook(
			bundebug.WithVerbose(true),
			bundebug.FromEnv("BUNDEBUG"),
		))
	}

	if cfg.SlowQueryTime > 0 {
		db.AddQueryHook(&slowQueryHook{
			slowTime: cfg.SlowQueryTime,
			logger:   m.logger,
		})
	}

	return sqlDB, db, nil
}

func (m *manager) createMySQLConnection() (*sql.DB, *bun.DB, error) {
	cfg := &m.config.Connection
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%s&readTimeout=%s&writeTimeout=%s",
		cfg.Username,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.ConnectTimeout,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
	)

	sqlDB, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, nil, err
	}

	db := bun.NewDB(sqlDB, mysqldialect.New())
	return sqlDB, db, nil
}

func (m *manager) createPostgreSQLConnection() (*sql.DB, *bun.DB, error) {
	cfg := &m.config.Connection
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s&connect_timeout=%d",
		cfg.Username,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		sslMode,
		int(cfg.ConnectTimeout.Seconds()),
	)

	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, nil, err
	}

	db := bun.NewDB(sqlDB, pgdialect.New())
	return sqlDB, db, nil
}

func (m *manager) createSQLiteConnection() (*sql.DB, *bun.DB, error) {
	cfg := &m.config.Connection
	dsn := cfg.DBName
	if dsn == "" || dsn == ":memory:" {
		dsn = "file::memory:?cache=shared"
	} else {
		dsn = fmt.Sprintf("%s.db", dsn)
	}

	sqlDB, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, nil, err
	}

	db := bun.NewDB(sqlDB, sqlitedialect.New())
	return sqlDB, db, nil
}

func (m *manager) configureConnectionPool() {
	if m.sqlDB == nil {
		return
	}

	cfg := &m.config.Connection
	m.sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	m.sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	m.sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	m.sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
}

// Disconnect permanently shuts the manager down. The health check
// goroutine observes the closed channel even when it is mid-check, so a
// disconnected manager never reconnects itself.
func (m *manager) Disconnect() error {
	m.stopOnce.Do(func() {
		close(m.stopHealthCheck)
	})
	return m.closeConnection()
}

// closeConnection tears down the current connection without stopping the
// health check. Reconnect uses it so monitoring survives the cycle.
func (m *manager) closeConnection() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db != nil {
		err := m.db.Close()
		m.db = nil
		m.sqlDB = nil
		m.connected = false

		if m.logger != nil {
			if err != nil {
				m.logger.Error("Failed to close database connection", "error", err)
			} else {
				m.logger.Info("Database connection closed")
			}
		}

		return err
	}

	return nil
}

func (m *manager) Reconnect(ctx context.Context) error {
	if m.logger != nil {
		m.logger.Info("Attempting to reconnect to the database")
	}

	if err := m.closeConnection(); err != nil {
		if m.logger != nil {
			m.logger.Warn("Error disconnecting existing connection", "error", err)
		}
	}

	return m.Connect(ctx)
}

func (m *manager) Ping(ctx context.Context) error {
	m.mu.RLock()
	db := m.db
	m.mu.RUnlock()

	if db == nil {
		return fmt.Errorf("database not connected")
	}

	return db.PingContext(ctx)
}

func (m *manager) DB() *bun.DB {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.db
}

func (m *manager) SQLDB() *sql.DB {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sqlDB
}

func (m *manager) HealthCheck(ctx context.Context) *HealthStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := time.Now()
	status := &HealthStatus{
		LastCheckTime: start,
		Connected:     m.connected,
	}

	if m.db == nil {
		status.Healthy = false
		status.LastError = "Database not initialized"
		return status
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	err := m.db.PingContext(ctxTimeout)
	status.ResponseTime = time.Since(start)

	if err != nil {
		status.Healthy = false
		status.Connected = false
		status.LastError = err.Error()
		m.lastError = err
	} else {
		status.Healthy = true
		status.Connected = true
		m.lastError = nil
	}

	if m.sqlDB != nil {
		stats := m.sqlDB.Stats()
		status.ActiveConns = stats.InUse
		status.IdleConns = stats.Idle
		status.MaxOpenConns = stats.MaxOpenConnections
	}

	return status
}

func (m *manager) startHealthCheck() {
	m.healthCheckOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(m.config.Connection.HealthCheckInterval)
			defer ticker.Stop()

			for {
				select {
				case <-ticker.C:
					ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
					status := m.HealthCheck(ctx)
					cancel()
					if !status.Healthy && m.config.Connection.EnableReconnect {
						// A check that was in flight when Disconnect ran
						// must not resurrect the connection.
						select {
						case <-m.stopHealthCheck:
							return
						default:
						}
						m.handleReconnect()
					}

				case <-m.stopHealthCheck:
					return
				}
			}
		}()
	})
}

func (m *manager) handleReconnect() {
	if m.reconnectTries >= m.config.Connection.MaxReconnectTries {
		if m.logger != nil {
			m.logger.Error("Max reconnect attempts reached, stopping", "tries", m.reconnectTries)
		}
		return
	}

	m.reconnectTries++
	if m.logger != nil {
		m.logger.Info("Starting database reconnect", "try", m.reconnectTries)
	}

	select {
	case <-m.stopHealthCheck:
		return
	case <-time.After(m.config.Connection.ReconnectInterval):
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.config.Connection.ConnectTimeout)
	defer cancel()

	if err := m.Reconnect(ctx); err != nil {
		if m.logger != nil {
			m.logger.Error("Reconnect failed", "error", err, "try", m.reconnectTries)
		}
	} else {
		m.reconnectTries = 0
		if m.logger != nil {
			m.logger.Info("Reconnect succeeded")
		}
	}
}

func (m *manager) Stats() *DBStats {
	m.mu.RLock()
	sqlDB := m.sqlDB
	m.mu.RUnlock()

	if sqlDB == nil {
		return &DBStats{}
	}

	stats := sqlDB.Stats()
	return &DBStats{
		MaxOpenConns:      stats.MaxOpenConnections,
		OpenConns:         stats.OpenConnections,
		InUse:             stats.InUse,
		Idle:              stats.Idle,
		WaitCount:         stats.WaitCount,
		WaitDuration:      stats.WaitDuration,
		MaxIdleClosed:     stats.MaxIdleClosed,
		MaxIdleTimeClosed: stats.MaxIdleTimeClosed,
		MaxLifetimeClosed: stats.MaxLifetimeClosed,
	}
}

func (m *manager) RunMigrations(ctx context.Context) error {
	db := m.DB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	return NewMigrationManager(db, m.logger).RunMigrations(ctx)
}

func (m *manager) SeedData(ctx context.Context) error {
	db := m.DB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	seeder := NewSeeder(db, m.config.Seed.Environment, m.logger)
	if m.config.Seed.Dir != "" {
		seeder.SetRootDir(m.config.Seed.Dir)
	}
	return seeder.Run(ctx)
}

func (m *manager) SetLogger(logger Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = logger
}
