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

package repository_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/craneworks/crane/database"
	"github.com/craneworks/crane/model"
	"github.com/craneworks/crane/repository"
	"github.com/craneworks/crane/types"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// setupDB opens a private in-memory database and creates the products table.
func setupDB(t *testing.T, name string) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	if _, err := db.NewCreateTable().Model((*model.Product)(nil)).IfNotExists().Exec(context.Background()); err != nil {
		t.Fatalf("create table: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedProducts(t *testing.T, db *bun.DB, repo repository.Repository[model.Product], names ...string) []*model.Product {
	t.Helper()
	ctx := context.Background()
	out := make([]*model.Product, 0, len(names))
	for i, name := range names {
		p := &model.Product{Name: name, Description: "seeded", Price: float64(i + 1)}
		if err := repo.Create(ctx, db, p); err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
		out = append(out, p)
	}
	return out
}

func TestCreateAndGet(t *testing.T) {
	db := setupDB(t, "repo_create_get")
	repo := repository.New[model.Product]()
	ctx := context.Background()

	p := &model.Product{
		Name:        "widget",
		Description: "a thing",
		Price:       9.99,
		Attrs:       types.JSONObject{"color": "blue"},
	}
	if err := repo.Create(ctx, db, p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ID == 0 {
		t.Fatal("expected primary key backfill")
	}
	if p.CreatedAt.IsZero() || p.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be stamped")
	}

	got, err := repo.Get(ctx, db, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Name != "widget" || got.Price != 9.99 {
		t.Fatalf("unexpected entity: %+v", got)
	}
	if got.Attrs["color"] != "blue" {
		t.Fatalf("attrs did not round-trip: %+v", got.Attrs)
	}

	byName, err := repo.GetByField(ctx, db, "name", "widget")
	if err != nil {
		t.Fatalf("get by field: %v", err)
	}
	if byName == nil || byName.ID != p.ID {
		t.Fatalf("unexpected entity: %+v", byName)
	}
}

func TestGetAbsentIsNotAnError(t *testing.T) {
	db := setupDB(t, "repo_get_absent")
	repo := repository.New[model.Product]()
	ctx := context.Background()

	got, err := repo.Get(ctx, db, int64(12345))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil entity, got %+v", got)
	}

	byField, err := repo.GetByField(ctx, db, "name", "nothing")
	if err != nil {
		t.Fatalf("get by field: %v", err)
	}
	if byField != nil {
		t.Fatalf("expected nil entity, got %+v", byField)
	}
}

func TestUpdateNamedColumns(t *testing.T) {
	db := setupDB(t, "repo_update")
	repo := repository.New[model.Product]()
	ctx := context.Background()

	p := seedProducts(t, db, repo, "gadget")[0]
	before := p.UpdatedAt

	p.Price = 42.5
	p.Description = "should not be written"
	if err := repo.Update(ctx, db, p, "price"); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := repo.Get(ctx, db, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Price != 42.5 {
		t.Fatalf("price not updated: %v", got.Price)
	}
	if got.Description != "seeded" {
		t.Fatalf("description changed without being named: %q", got.Description)
	}
	if got.UpdatedAt.Before(before) {
		t.Fatal("updated_at was not refreshed")
	}
}

func TestUpdateMissingYieldsNotFound(t *testing.T) {
	db := setupDB(t, "repo_update_missing")
	repo := repository.New[model.Product]()
	ctx := context.Background()

	p := &model.Product{Name: "ghost"}
	p.ID = 9999
	err := repo.Update(ctx, db, p, "name")
	if !database.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	db := setupDB(t, "repo_remove")
	repo := repository.New[model.Product]()
	ctx := context.Background()

	p := seedProducts(t, db, repo, "doomed")[0]

	removed, err := repo.Remove(ctx, db, p.ID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if removed == nil || removed.Name != "doomed" {
		t.Fatalf("unexpected removed entity: %+v", removed)
	}

	got, err := repo.Get(ctx, db, p.ID)
	if err != nil {
		t.Fatalf("get after remove: %v", err)
	}
	if got != nil {
		t.Fatal("entity still present after remove")
	}

	if _, err := repo.Remove(ctx, db, p.ID); !database.IsNotFound(err) {
		t.Fatalf("expected not found on second remove, got %v", err)
	}
}

func TestGetMultiWindowAndFilters(t *testing.T) {
	db := setupDB(t, "repo_get_multi")
	repo := repository.New[model.Product]()
	ctx := context.Background()

	seedProducts(t, db, repo, "a", "b", "c", "d", "e")

	page := types.NewPageParams(1, 2)
	items, err := repo.GetMulti(ctx, db, nil, page)
	if err != nil {
		t.Fatalf("get multi: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	// Window is ordered by primary key, so skip=1 starts at the second row.
	if items[0].Name != "b" || items[1].Name != "c" {
		t.Fatalf("unexpected window: %s, %s", items[0].Name, items[1].Name)
	}

	filtered, err := repo.GetMulti(ctx, db, types.Filters{"name": "d"}, types.DefaultPageParams())
	if err != nil {
		t.Fatalf("get multi filtered: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Name != "d" {
		t.Fatalf("unexpected filtered result: %+v", filtered)
	}

	in, err := repo.GetMulti(ctx, db, types.Filters{"name": []string{"a", "e"}}, types.DefaultPageParams())
	if err != nil {
		t.Fatalf("get multi with slice filter: %v", err)
	}
	if len(in) != 2 {
		t.Fatalf("expected 2 items for slice filter, got %d", len(in))
	}

	empty, err := repo.GetMulti(ctx, db, types.Filters{"name": "zzz"}, types.DefaultPageParams())
	if err != nil {
		t.Fatalf("get multi empty: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", empty)
	}
}

func TestGetMultiRejectsBadWindow(t *testing.T) {
	db := setupDB(t, "repo_bad_window")
	repo := repository.New[model.Product]()
	ctx := context.Background()

	cases := []types.PageParams{
		{Skip: -1, Limit: 10},
		{Skip: 0, Limit: 0},
		{Skip: 0, Limit: types.MaxLimit + 1},
	}
	for _, page := range cases {
		if _, err := repo.GetMulti(ctx, db, nil, page); !database.IsValidation(err) {
			t.Fatalf("page %+v: expected validation error, got %v", page, err)
		}
	}
}

func TestCountAndExists(t *testing.T) {
	db := setupDB(t, "repo_count_exists")
	repo := repository.New[model.Product]()
	ctx := context.Background()

	seeded := seedProducts(t, db, repo, "one", "two")

	total, err := repo.Count(ctx, db, nil)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2, got %d", total)
	}

	ok, err := repo.Exists(ctx, db, types.Filters{"name": "one"})
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !ok {
		t.Fatal("expected exists")
	}

	ok, err = repo.Exists(ctx, db, types.Filters{"name": "three"})
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if ok {
		t.Fatal("expected not exists")
	}

	ok, err = repo.ExistsByID(ctx, db, seeded[0].ID)
	if err != nil {
		t.Fatalf("exists by id: %v", err)
	}
	if !ok {
		t.Fatal("expected id to exist")
	}
}

func TestSearchCaseInsensitive(t *testing.T) {
	db := setupDB(t, "repo_search")
	repo := repository.New[model.Product]()
	ctx := context.Background()

	items := []*model.Product{
		{Name: "Blue Widget", Description: "round"},
		{Name: "red widget", Description: "square"},
		{Name: "green gizmo", Description: "contains WIDGET word"},
		{Name: "plain"},
	}
	for _, p := range items {
		if err := repo.Create(ctx, db, p); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	found, err := repo.Search(ctx, db, "WiDgEt", []string{"name", "description"}, types.DefaultPageParams())
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(found))
	}

	none, err := repo.Search(ctx, db, "missing", []string{"name"}, types.DefaultPageParams())
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no matches, got %d", len(none))
	}
}

func TestDuplicateCreateIsConstraintViolation(t *testing.T) {
	db := setupDB(t, "repo_duplicate")
	repo := repository.New[model.Product]()
	ctx := context.Background()

	seedProducts(t, db, repo, "unique-name")

	err := repo.Create(ctx, db, &model.Product{Name: "unique-name"})
	if !database.IsConstraintViolation(err) {
		t.Fatalf("expected constraint violation, got %v", err)
	}
}

func TestBulkCreateAllOrNothing(t *testing.T) {
	db := setupDB(t, "repo_bulk_create")
	repo := repository.New[model.Product]()
	ctx := context.Background()

	batch := []*model.Product{
		{Name: "alpha"},
		{Name: "beta"},
		{Name: "alpha"}, // duplicate, fails the whole batch
	}
	err := database.RunInTx(ctx, db, func(ctx context.Context, tx bun.Tx) error {
		return repo.BulkCreate(ctx, tx, batch)
	})
	if !database.IsConstraintViolation(err) {
		t.Fatalf("expected constraint violation, got %v", err)
	}

	total, err := repo.Count(ctx, db, nil)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if total != 0 {
		t.Fatalf("expected rollback to persist nothing, found %d rows", total)
	}

	ok := []*model.Product{{Name: "gamma"}, {Name: "delta"}}
	err = database.RunInTx(ctx, db, func(ctx context.Context, tx bun.Tx) error {
		return repo.BulkCreate(ctx, tx, ok)
	})
	if err != nil {
		t.Fatalf("bulk create: %v", err)
	}
	for _, p := range ok {
		if p.ID == 0 {
			t.Fatalf("missing key backfill for %s", p.Name)
		}
	}
}

func TestBulkUpdate(t *testing.T) {
	db := setupDB(t, "repo_bulk_update")
	repo := repository.New[model.Product]()
	ctx := context.Background()

	seeded := seedProducts(t, db, repo, "x", "y")
	seeded[0].Price = 100
	seeded[1].Price = 200

	err := database.RunInTx(ctx, db, func(ctx context.Context, tx bun.Tx) error {
		return repo.BulkUpdate(ctx, tx, seeded, "price")
	})
	if err != nil {
		t.Fatalf("bulk update: %v", err)
	}

	got, err := repo.Get(ctx, db, seeded[1].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Price != 200 {
		t.Fatalf("expected price 200, got %v", got.Price)
	}
}

func TestBulkDeleteMissingKeyRollsBack(t *testing.T) {
	db := setupDB(t, "repo_bulk_delete")
	repo := repository.New[model.Product]()
	ctx := context.Background()

	seeded := seedProducts(t, db, repo, "p1", "p2", "p3")

	err := database.RunInTx(ctx, db, func(ctx context.Context, tx bun.Tx) error {
		_, err := repo.BulkDelete(ctx, tx, []int64{seeded[0].ID, 99999})
		return err
	})
	if !database.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}

	total, err := repo.Count(ctx, db, nil)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected all rows to survive rollback, found %d", total)
	}

	var removed int64
	err = database.RunInTx(ctx, db, func(ctx context.Context, tx bun.Tx) error {
		var err error
		removed, err = repo.BulkDelete(ctx, tx, []int64{seeded[0].ID, seeded[1].ID})
		return err
	})
	if err != nil {
		t.Fatalf("bulk delete: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
}

func TestGetMultiOrdering(t *testing.T) {
	db := setupDB(t, "repo_ordering")
	repo := repository.New[model.Product]()
	ctx := context.Background()

	seedProducts(t, db, repo, "banana", "apple", "cherry")

	byName, err := repo.GetMulti(ctx, db, nil, types.PageParams{Skip: 0, Limit: 10, OrderBy: "name"})
	if err != nil {
		t.Fatalf("get multi: %v", err)
	}
	if len(byName) != 3 || byName[0].Name != "apple" || byName[2].Name != "cherry" {
		t.Fatalf("expected ascending name order, got %+v", names(byName))
	}

	desc, err := repo.GetMulti(ctx, db, nil, types.PageParams{Skip: 0, Limit: 10, OrderBy: "name", OrderDesc: true})
	if err != nil {
		t.Fatalf("get multi: %v", err)
	}
	if desc[0].Name != "cherry" || desc[2].Name != "apple" {
		t.Fatalf("expected descending name order, got %+v", names(desc))
	}

	// No requested order falls back to primary key ascending.
	byID, err := repo.GetMulti(ctx, db, nil, types.PageParams{Skip: 0, Limit: 10})
	if err != nil {
		t.Fatalf("get multi: %v", err)
	}
	if byID[0].Name != "banana" || byID[2].Name != "cherry" {
		t.Fatalf("expected insertion order, got %+v", names(byID))
	}
}

func TestGetMultiRejectsUnknownOrderColumn(t *testing.T) {
	db := setupDB(t, "repo_bad_order")
	repo := repository.New[model.Product]()
	ctx := context.Background()

	seedProducts(t, db, repo, "solo")

	_, err := repo.GetMulti(ctx, db, nil, types.PageParams{Skip: 0, Limit: 10, OrderBy: "name; DROP TABLE products"})
	if !database.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = repo.Search(ctx, db, "solo", []string{"name"}, types.PageParams{Skip: 0, Limit: 10, OrderBy: "nope"})
	if !database.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSearchCountIgnoresWindow(t *testing.T) {
	db := setupDB(t, "repo_search_count")
	repo := repository.New[model.Product]()
	ctx := context.Background()

	seedProducts(t, db, repo, "widget a", "widget b", "widget c", "gizmo")

	window, err := repo.Search(ctx, db, "widget", []string{"name"}, types.PageParams{Skip: 0, Limit: 2})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(window) != 2 {
		t.Fatalf("expected windowed result of 2, got %d", len(window))
	}

	total, err := repo.SearchCount(ctx, db, "widget", []string{"name"})
	if err != nil {
		t.Fatalf("search count: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected 3 matches, got %d", total)
	}

	empty, err := repo.SearchCount(ctx, db, "", []string{"name"})
	if err != nil {
		t.Fatalf("search count: %v", err)
	}
	if empty != 0 {
		t.Fatalf("expected 0 for empty term, got %d", empty)
	}
}

func TestBulkDeleteRepeatedKeys(t *testing.T) {
	db := setupDB(t, "repo_bulk_delete_dup")
	repo := repository.New[model.Product]()
	ctx := context.Background()

	seeded := seedProducts(t, db, repo, "q1", "q2")

	var removed int64
	err := database.RunInTx(ctx, db, func(ctx context.Context, tx bun.Tx) error {
		var err error
		removed, err = repo.BulkDelete(ctx, tx, []int64{seeded[0].ID, seeded[0].ID})
		return err
	})
	if err != nil {
		t.Fatalf("bulk delete: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}

	total, err := repo.Count(ctx, db, nil)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected 1 survivor, got %d", total)
	}
}

func names(items []*model.Product) []string {
	out := make([]string, 0, len(items))
	for _, p := range items {
		out = append(out, p.Name)
	}
	return out
}
