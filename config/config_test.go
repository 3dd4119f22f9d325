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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/craneworks/crane/types"
)

func TestLoadDefaults(t *testing.T) {
	settings, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if settings.App.Port != 8000 {
		t.Fatalf("unexpected port: %d", settings.App.Port)
	}
	if settings.App.APIPrefix != "/api/v1" {
		t.Fatalf("unexpected prefix: %s", settings.App.APIPrefix)
	}
	if settings.Environment() != types.EnvDevelopment {
		t.Fatalf("unexpected environment: %s", settings.Environment())
	}
	if settings.Database.Connection.Type != "sqlite" {
		t.Fatalf("unexpected database type: %s", settings.Database.Connection.Type)
	}
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err != nil {
		t.Fatalf("load: %v", err)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
app:
  name: Test API
  port: 9001
  environment: production
log:
  level: debug
database:
  connection:
    type: postgres
    host: db.internal
    port: 5432
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	settings, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if settings.App.Name != "Test API" || settings.App.Port != 9001 {
		t.Fatalf("unexpected app settings: %+v", settings.App)
	}
	if settings.Environment() != types.EnvProduction {
		t.Fatalf("unexpected environment: %s", settings.Environment())
	}
	if settings.Log.Level != "debug" {
		t.Fatalf("unexpected log level: %s", settings.Log.Level)
	}
	if settings.Database.Connection.Host != "db.internal" {
		t.Fatalf("unexpected database host: %s", settings.Database.Connection.Host)
	}
	// Defaults not named in the file survive.
	if settings.App.APIPrefix != "/api/v1" {
		t.Fatalf("default prefix lost: %s", settings.App.APIPrefix)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9002")
	t.Setenv("APP_ENV", "production")
	t.Setenv("DB_HOST", "override.internal")
	t.Setenv("DB_TYPE", "mysql")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("ALLOW_ORIGINS", "https://a.example, https://b.example")

	settings, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if settings.App.Port != 9002 {
		t.Fatalf("port override lost: %d", settings.App.Port)
	}
	if settings.Environment() != types.EnvProduction {
		t.Fatalf("environment override lost: %s", settings.Environment())
	}
	if settings.Database.Connection.Host != "override.internal" {
		t.Fatalf("host override lost: %s", settings.Database.Connection.Host)
	}
	if settings.Database.Connection.Type != "mysql" {
		t.Fatalf("type override lost: %s", settings.Database.Connection.Type)
	}
	if settings.Log.Level != "warn" {
		t.Fatalf("log level override lost: %s", settings.Log.Level)
	}
	if len(settings.CORS.AllowOrigins) != 2 || settings.CORS.AllowOrigins[1] != "https://b.example" {
		t.Fatalf("origin override lost: %v", settings.CORS.AllowOrigins)
	}
}

func TestInvalidPortRejected(t *testing.T) {
	t.Setenv("PORT", "70000")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for out-of-range port")
	}
}
