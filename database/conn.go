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
	"fmt"

	"github.com/uptrace/bun"
)

var (
	globalManager Manager
	globalDB      *bun.DB
)

// Init connects the process-wide database from cfg, optionally running
// migrations and seed data, and returns the Bun handle.
func Init(ctx context.Context, cfg *Config) (*bun.DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}

	manager := NewManager(cfg)
	manager.SetLogger(GetLogger())

	if err := manager.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Migrate.RunOnStartup {
		if err := manager.RunMigrations(ctx); err != nil {
			return nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
	}

	if cfg.Seed.RunOnStartup {
		if err := manager.SeedData(ctx); err != nil {
			return nil, fmt.Errorf("failed to seed database: %w", err)
		}
	}

	globalManager = manager
	globalDB = manager.DB()
	return globalDB, nil
}

// DB returns the global Bun database instance, or nil before Init.
func DB() *bun.DB { return globalDB }

// GetManager returns the global database manager, or nil before Init.
func GetManager() Manager { return globalManager }

// Close closes the global database connection.
func Close() error {
	if globalManager == nil {
		return nil
	}
	err := globalManager.Disconnect()
	globalManager = nil
	globalDB = nil
	return err
}

// Health returns the current database health status.
func Health(ctx context.Context) *HealthStatus {
	if globalManager == nil {
		return &HealthStatus{
			Healthy:   false,
			Connected: false,
			LastError: "Database not initialized",
		}
	}
	return globalManager.HealthCheck(ctx)
}
