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

package repository

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"strings"
	"unicode"

	"github.com/craneworks/crane/database"
	"github.com/craneworks/crane/types"

	"github.com/uptrace/bun"
)

type baseRepositoryImpl[T any] struct{}

// New returns a generic repository for the entity type T. The instance is
// stateless; all operations run against the bun.IDB given per call.
func New[T any]() Repository[T] {
	return &baseRepositoryImpl[T]{}
}

func (r *baseRepositoryImpl[T]) Get(ctx context.Context, db bun.IDB, id any) (*T, error) {
	var entity T
	err := db.NewSelect().Model(&entity).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, database.WrapError(err)
	}
	return &entity, nil
}

func (r *baseRepositoryImpl[T]) GetByField(ctx context.Context, db bun.IDB, column string, value any) (*T, error) {
	var entity T
	err := db.NewSelect().
		Model(&entity).
		Where("? = ?", bun.Ident(column), value).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, database.WrapError(err)
	}
	return &entity, nil
}

func (r *baseRepositoryImpl[T]) GetMulti(ctx context.Context, db bun.IDB, filters types.Filters, page types.PageParams) ([]*T, error) {
	if !page.Valid() {
		return nil, database.ValidationError("invalid page window: skip=%d limit=%d", page.Skip, page.Limit)
	}

	var entities []*T
	query := db.NewSelect().Model(&entities)
	query = applyFilters(query, filters)
	query, err := applyOrder[T](query, page)
	if err != nil {
		return nil, err
	}
	err = query.
		Offset(page.Skip).
		Limit(page.Limit).
		Scan(ctx)
	if err != nil {
		return nil, database.WrapError(err)
	}
	if entities == nil {
		entities = make([]*T, 0)
	}
	return entities, nil
}

func (r *baseRepositoryImpl[T]) Count(ctx context.Context, db bun.IDB, filters types.Filters) (int, error) {
	var entity T
	query := db.NewSelect().Model(&entity)
	query = applyFilters(query, filters)
	count, err := query.Count(ctx)
	if err != nil {
		return 0, database.WrapError(err)
	}
	return count, nil
}

func (r *baseRepositoryImpl[T]) Exists(ctx context.Context, db bun.IDB, filters types.Filters) (bool, error) {
	var entity T
	query := db.NewSelect().Model(&entity)
	query = applyFilters(query, filters)
	exists, err := query.Exists(ctx)
	if err != nil {
		return false, database.WrapError(err)
	}
	return exists, nil
}

func (r *baseRepositoryImpl[T]) ExistsByID(ctx context.Context, db bun.IDB, id any) (bool, error) {
	var entity T
	exists, err := db.NewSelect().Model(&entity).Where("id = ?", id).Exists(ctx)
	if err != nil {
		return false, database.WrapError(err)
	}
	return exists, nil
}

func (r *baseRepositoryImpl[T]) Search(ctx context.Context, db bun.IDB, term string, columns []string, page types.PageParams) ([]*T, error) {
	if !page.Valid() {
		return nil, database.ValidationError("invalid page window: skip=%d limit=%d", page.Skip, page.Limit)
	}
	if term == "" || len(columns) == 0 {
		return make([]*T, 0), nil
	}

	var entities []*T
	query := searchQuery(db.NewSelect().Model(&entities), term, columns)
	query, err := applyOrder[T](query, page)
	if err != nil {
		return nil, err
	}
	err = query.
		Offset(page.Skip).
		Limit(page.Limit).
		Scan(ctx)
	if err != nil {
		return nil, database.WrapError(err)
	}
	if entities == nil {
		entities = make([]*T, 0)
	}
	return entities, nil
}

func (r *baseRepositoryImpl[T]) SearchCount(ctx context.Context, db bun.IDB, term string, columns []string) (int, error) {
	if term == "" || len(columns) == 0 {
		return 0, nil
	}
	var entity T
	count, err := searchQuery(db.NewSelect().Model(&entity), term, columns).Count(ctx)
	if err != nil {
		return 0, database.WrapError(err)
	}
	return count, nil
}

func (r *baseRepositoryImpl[T]) Create(ctx context.Context, db bun.IDB, entity *T) error {
	_, err := db.NewInsert().Model(entity).Exec(ctx)
	return database.WrapError(err)
}

func (r *baseRepositoryImpl[T]) Update(ctx context.Context, db bun.IDB, entity *T, columns ...string) error {
	query := db.NewUpdate().Model(entity).WherePK()
	if len(columns) > 0 {
		// The append hook refreshes UpdatedAt on the struct; the column
		// must be in the write set for it to reach the database.
		if !containsColumn(columns, "updated_at") {
			columns = append(columns, "updated_at")
		}
		query = query.Column(columns...)
	}

	res, err := query.Exec(ctx)
	if err != nil {
		return database.WrapError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return database.WrapError(err)
	}
	if affected == 0 {
		return &database.StorageError{Sentinel: database.ErrNotFound, Cause: sql.ErrNoRows}
	}
	return nil
}

func (r *baseRepositoryImpl[T]) Remove(ctx context.Context, db bun.IDB, id any) (*T, error) {
	entity, err := r.Get(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, &database.StorageError{Sentinel: database.ErrNotFound, Cause: sql.ErrNoRows}
	}

	var zero T
	res, err := db.NewDelete().Model(&zero).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return nil, database.WrapError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, database.WrapError(err)
	}
	if affected == 0 {
		return nil, &database.StorageError{Sentinel: database.ErrNotFound, Cause: sql.ErrNoRows}
	}
	return entity, nil
}

func (r *baseRepositoryImpl[T]) BulkCreate(ctx context.Context, db bun.IDB, entities []*T) error {
	// One insert per entity so every primary key is backfilled regardless
	// of dialect; atomicity comes from the caller's transaction.
	for _, entity := range entities {
		if err := r.Create(ctx, db, entity); err != nil {
			return err
		}
	}
	return nil
}

func (r *baseRepositoryImpl[T]) BulkUpdate(ctx context.Context, db bun.IDB, entities []*T, columns ...string) error {
	for _, entity := range entities {
		if err := r.Update(ctx, db, entity, columns...); err != nil {
			return err
		}
	}
	return nil
}

func (r *baseRepositoryImpl[T]) BulkDelete(ctx context.Context, db bun.IDB, ids []int64) (int64, error) {
	unique := dedupeIDs(ids)
	if len(unique) == 0 {
		return 0, nil
	}

	var zero T
	res, err := db.NewDelete().
		Model(&zero).
		Where("id IN (?)", bun.In(unique)).
		Exec(ctx)
	if err != nil {
		return 0, database.WrapError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, database.WrapError(err)
	}
	if affected != int64(len(unique)) {
		return affected, &database.StorageError{Sentinel: database.ErrNotFound, Cause: sql.ErrNoRows}
	}
	return affected, nil
}

// applyFilters adds one condition per filter column in sorted order; slice
// values become IN conditions.
func applyFilters(query *bun.SelectQuery, filters types.Filters) *bun.SelectQuery {
	for _, column := range filters.Columns() {
		value := filters[column]
		rv := reflect.ValueOf(value)
		if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			query = query.Where("? IN (?)", bun.Ident(column), bun.In(value))
		} else {
			query = query.Where("? = ?", bun.Ident(column), value)
		}
	}
	return query
}

// searchQuery adds one case-insensitive LIKE condition per column, grouped so
// filters added elsewhere stay ANDed.
func searchQuery(query *bun.SelectQuery, term string, columns []string) *bun.SelectQuery {
	pattern := "%" + strings.ToLower(term) + "%"
	return query.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
		for _, column := range columns {
			q = q.WhereOr("LOWER(?) LIKE ?", bun.Ident(column), pattern)
		}
		return q
	})
}

// applyOrder sorts by the column the caller requested, falling back to the
// primary key. The column must map to a field of the entity; anything else is
// rejected before touching the database.
func applyOrder[T any](query *bun.SelectQuery, page types.PageParams) (*bun.SelectQuery, error) {
	if page.OrderBy == "" {
		return query.Order("id ASC"), nil
	}
	if !hasColumn[T](page.OrderBy) {
		return nil, database.ValidationError("unknown order column: %s", page.OrderBy)
	}
	direction := "ASC"
	if page.OrderDesc {
		direction = "DESC"
	}
	return query.OrderExpr("? ?", bun.Ident(page.OrderBy), bun.Safe(direction)), nil
}

// hasColumn reports whether the entity maps a column with the given name,
// walking embedded structs the way Bun flattens them.
func hasColumn[T any](column string) bool {
	var entity T
	return typeHasColumn(reflect.TypeOf(entity), column)
}

func typeHasColumn(t reflect.Type, column string) bool {
	if t == nil {
		return false
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return false
	}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous {
			if field.Type == reflect.TypeOf(bun.BaseModel{}) {
				continue
			}
			if typeHasColumn(field.Type, column) {
				return true
			}
			continue
		}
		if fieldColumn(field) == column {
			return true
		}
	}
	return false
}

// fieldColumn resolves a field's column name from its bun tag, falling back
// to the snake_case field name the way Bun does.
func fieldColumn(field reflect.StructField) string {
	tag := field.Tag.Get("bun")
	if tag == "-" {
		return ""
	}
	if idx := strings.Index(tag, ","); idx >= 0 {
		tag = tag[:idx]
	}
	if tag != "" {
		return tag
	}
	return toSnake(field.Name)
}

func toSnake(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	unique := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}

func containsColumn(columns []string, name string) bool {
	for _, column := range columns {
		if column == name {
			return true
		}
	}
	return false
}
