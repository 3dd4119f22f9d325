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

	"github.com/craneworks/crane/types"

	"github.com/uptrace/bun"
)

// CrudRepository defines single-record operations for a generic entity type.
// Every operation runs against the bun.IDB supplied by the caller, either
// the connection pool or an open transaction; the repository never begins or
// commits one itself.
type CrudRepository[T any] interface {
	// Get returns the entity with the given primary key, or (nil, nil)
	// when absent. Absence is not an error for reads.
	Get(ctx context.Context, db bun.IDB, id any) (*T, error)

	// GetByField returns the first entity whose column equals value, or
	// (nil, nil) when none matches.
	GetByField(ctx context.Context, db bun.IDB, column string, value any) (*T, error)

	// Create inserts the entity and backfills its primary key and
	// timestamps. A uniqueness violation yields ErrConstraintViolation.
	Create(ctx context.Context, db bun.IDB, entity *T) error

	// Update writes the named columns of the entity identified by its
	// primary key; with no columns it writes all non-key columns. The
	// update timestamp is always refreshed. Yields ErrNotFound when the
	// entity no longer exists.
	Update(ctx context.Context, db bun.IDB, entity *T, columns ...string) error

	// Remove deletes the entity by primary key and returns it, or
	// ErrNotFound when the key is absent.
	Remove(ctx context.Context, db bun.IDB, id any) (*T, error)
}

// QueryRepository defines multi-record read operations.
type QueryRepository[T any] interface {
	// GetMulti returns entities matching the filter set, windowed by page.
	// The window's OrderBy column sorts the result, primary key ascending
	// when unset. An invalid window or unknown order column is rejected
	// with ErrValidation before querying.
	GetMulti(ctx context.Context, db bun.IDB, filters types.Filters, page types.PageParams) ([]*T, error)

	// Count returns the number of entities matching the filter set.
	Count(ctx context.Context, db bun.IDB, filters types.Filters) (int, error)

	// Exists reports whether any entity matches the filter set.
	Exists(ctx context.Context, db bun.IDB, filters types.Filters) (bool, error)

	// ExistsByID reports whether the primary key is present.
	ExistsByID(ctx context.Context, db bun.IDB, id any) (bool, error)

	// Search returns entities whose named columns contain term,
	// case-insensitively, windowed by page. An empty result is valid.
	Search(ctx context.Context, db bun.IDB, term string, columns []string, page types.PageParams) ([]*T, error)

	// SearchCount returns the number of entities Search would match
	// before windowing. An empty term or column list counts zero.
	SearchCount(ctx context.Context, db bun.IDB, term string, columns []string) (int, error)
}

// BulkRepository defines sequence operations. Callers wanting all-or-nothing
// semantics pass an open transaction; a single failing item surfaces its
// error so the whole batch rolls back.
type BulkRepository[T any] interface {
	// BulkCreate inserts the entities in order, backfilling each key.
	BulkCreate(ctx context.Context, db bun.IDB, entities []*T) error

	// BulkUpdate applies Update to each entity; the first ErrNotFound or
	// constraint violation aborts the batch.
	BulkUpdate(ctx context.Context, db bun.IDB, entities []*T, columns ...string) error

	// BulkDelete removes all listed keys and returns the count removed.
	// Repeated keys count once. Any missing key yields ErrNotFound.
	BulkDelete(ctx context.Context, db bun.IDB, ids []int64) (int64, error)
}

// Repository combines single-record, query, and bulk operations for one
// entity type.
type Repository[T any] interface {
	CrudRepository[T]
	QueryRepository[T]
	BulkRepository[T]
}
