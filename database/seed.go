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
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/uptrace/bun"
)

// Seeder discovers and executes SQL seed files for an environment. Files live
// under <root>/common and <root>/<environment>, are executed in common-first
// order, and within a directory ordered by a numeric filename prefix
// ("01_products.sql").
type Seeder struct {
	db          *bun.DB
	environment string
	rootDir     string
	logger      Logger
}

type seedFile struct {
	path  string
	name  string
	order int
}

// NewSeeder creates a Seeder for the given environment. The default root
// directory is configs/seed.
func NewSeeder(db *bun.DB, environment string, logger Logger) *Seeder {
	if environment == "" {
		environment = "development"
	}
	return &Seeder{
		db:          db,
		environment: environment,
		rootDir:     "configs/seed",
		logger:      logger,
	}
}

// SetRootDir sets the root directory from which seed files are loaded.
func (s *Seeder) SetRootDir(dir string) { s.rootDir = dir }

// Run executes all discovered seed files inside one transaction; a single
// failing statement rolls everything back.
func (s *Seeder) Run(ctx context.Context) error {
	files, err := s.collectFiles()
	if err != nil {
		return fmt.Errorf("failed to collect seed files: %w", err)
	}
	if len(files) == 0 {
		if s.logger != nil {
			s.logger.Info("No seed files found", "root", s.rootDir, "environment", s.environment)
		}
		return nil
	}

	return RunInTx(ctx, s.db, func(ctx context.Context, tx bun.Tx) error {
		for _, file := range files {
			if err := s.executeFile(ctx, tx, file); err != nil {
				return fmt.Errorf("seed file %s: %w", file.name, err)
			}
			if s.logger != nil {
				s.logger.Info("Seed file executed", "file", file.name)
			}
		}
		return nil
	})
}

func (s *Seeder) collectFiles() ([]seedFile, error) {
	var files []seedFile
	for _, sub := range []string{"common", s.environment} {
		dir := filepath.Join(s.rootDir, sub)
		entries, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, err
		}

		var group []seedFile
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
				continue
			}
			group = append(group, seedFile{
				path:  filepath.Join(dir, entry.Name()),
				name:  entry.Name(),
				order: parseFileOrder(entry.Name()),
			})
		}
		sort.Slice(group, func(i, j int) bool { return group[i].order < group[j].order })
		files = append(files, group...)
	}
	return files, nil
}

// parseFileOrder extracts a numeric prefix like "01_" or "002-"; files
// without one sort last in declaration order.
func parseFileOrder(name string) int {
	idx := strings.IndexAny(name, "_-")
	if idx <= 0 {
		return 1 << 30
	}
	n, err := strconv.Atoi(name[:idx])
	if err != nil {
		return 1 << 30
	}
	return n
}

func (s *Seeder) executeFile(ctx context.Context, tx bun.Tx, file seedFile) error {
	content, err := os.ReadFile(file.path)
	if err != nil {
		return err
	}

	for _, stmt := range splitStatements(string(content)) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// splitStatements splits a SQL script on semicolons, dropping comment-only
// lines and empty fragments. Enough for seed data; not a full SQL parser.
func splitStatements(content string) []string {
	var cleaned []string
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		cleaned = append(cleaned, line)
	}

	var statements []string
	for _, stmt := range strings.Split(strings.Join(cleaned, "\n"), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}
