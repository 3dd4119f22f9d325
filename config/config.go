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

// Package config resolves process-wide settings once at startup from an
// optional YAML file plus environment variable overrides. The resulting
// Settings value is treated as immutable and passed explicitly to every
// collaborator that needs it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/craneworks/crane/database"
	"github.com/craneworks/crane/logging"
	"github.com/craneworks/crane/types"

	"gopkg.in/yaml.v3"
)

// AppSettings holds the application-level settings.
type AppSettings struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Description string `yaml:"description"`
	Debug       bool   `yaml:"debug"`
	Environment string `yaml:"environment"`
	Port        int    `yaml:"port"`
	APIPrefix   string `yaml:"api_prefix"`
}

// CORSSettings holds the cross-origin policy served by the router.
type CORSSettings struct {
	AllowOrigins     []string `yaml:"allow_origins"`
	AllowCredentials bool     `yaml:"allow_credentials"`
	AllowMethods     []string `yaml:"allow_methods"`
	AllowHeaders     []string `yaml:"allow_headers"`
}

// Settings aggregates every process-wide setting.
type Settings struct {
	App      AppSettings     `yaml:"app"`
	CORS     CORSSettings    `yaml:"cors"`
	Log      logging.Config  `yaml:"log"`
	Database database.Config `yaml:"database"`
}

// Environment returns the normalized runtime environment.
func (s *Settings) Environment() types.Environment {
	return types.ParseEnvironment(s.App.Environment)
}

// Default returns settings suitable for local development.
func Default() *Settings {
	s := &Settings{
		App: AppSettings{
			Name:        "Crane API",
			Version:     "1.0.0",
			Description: "A CRUD API boilerplate",
			Environment: "development",
			Port:        8000,
			APIPrefix:   "/api/v1",
		},
		CORS: CORSSettings{
			AllowOrigins:     []string{"*"},
			AllowCredentials: true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"*"},
		},
		Log: logging.Config{
			Level:  "info",
			Format: "json",
		},
	}
	s.Database.Connection = *database.DefaultConnectionConfig()
	s.Database.Connection.Type = "sqlite"
	s.Database.Connection.DBName = "crane"
	s.Database.Migrate.RunOnStartup = true
	return s
}

// Load builds Settings from defaults, an optional YAML file at path (empty
// path or a missing file is not an error), and environment overrides, in
// that order.
func Load(path string) (*Settings, error) {
	settings := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, settings); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	overrideFromEnv(settings)

	if settings.App.Port < 1 || settings.App.Port > 65535 {
		return nil, fmt.Errorf("invalid port: %d", settings.App.Port)
	}
	return settings, nil
}

// overrideFromEnv applies environment variables on top of file values.
func overrideFromEnv(s *Settings) {
	if name := os.Getenv("APP_NAME"); name != "" {
		s.App.Name = name
	}
	if env := firstEnv("APP_ENV", "ENVIRONMENT"); env != "" {
		s.App.Environment = env
	}
	if port := firstEnv("APP_PORT", "PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			s.App.Port = p
		}
	}
	if debug := os.Getenv("DEBUG"); debug != "" {
		s.App.Debug = debug == "true" || debug == "1"
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		s.Log.Level = level
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		s.Log.Format = format
	}
	if origins := os.Getenv("ALLOW_ORIGINS"); origins != "" {
		s.CORS.AllowOrigins = splitList(origins)
	}

	// Database connection info
	cfg := &s.Database.Connection
	if dbType := os.Getenv("DB_TYPE"); dbType != "" {
		cfg.Type = dbType
	}
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Port = p
		}
	}
	if username := os.Getenv("DB_USERNAME"); username != "" {
		cfg.Username = username
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.Password = password
	}
	if dbname := os.Getenv("DB_NAME"); dbname != "" {
		cfg.DBName = dbname
	}
	if sslmode := os.Getenv("DB_SSLMODE"); sslmode != "" {
		cfg.SSLMode = sslmode
	}
	if maxIdle := os.Getenv("DB_MAX_IDLE_CONNS"); maxIdle != "" {
		if val, err := strconv.Atoi(maxIdle); err == nil {
			cfg.MaxIdleConns = val
		}
	}
	if maxOpen := os.Getenv("DB_MAX_OPEN_CONNS"); maxOpen != "" {
		if val, err := strconv.Atoi(maxOpen); err == nil {
			cfg.MaxOpenConns = val
		}
	}
	if enableQueryLog := os.Getenv("DB_ENABLE_QUERY_LOG"); enableQueryLog != "" {
		cfg.EnableQueryLog = enableQueryLog == "true"
	}
	if migrate := os.Getenv("DB_MIGRATE_ON_STARTUP"); migrate != "" {
		s.Database.Migrate.RunOnStartup = migrate == "true"
	}
	if seed := os.Getenv("DB_SEED_ON_STARTUP"); seed != "" {
		s.Database.Seed.RunOnStartup = seed == "true"
	}
	if seedDir := os.Getenv("DB_SEED_DIR"); seedDir != "" {
		s.Database.Seed.Dir = seedDir
	}
}

// firstEnv returns the first non-empty value among the named variables.
func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
