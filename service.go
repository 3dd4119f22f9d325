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

package crane

import (
	"context"
	"sync"

	"github.com/craneworks/crane/database"
	"github.com/craneworks/crane/repository"
	"github.com/craneworks/crane/types"

	"github.com/uptrace/bun"
)

// Service is the transactional facade over the generic repository. Reads run
// against the connection pool; every mutating operation runs inside its own
// transaction, and bulk operations are all-or-nothing.
type Service[T any] interface {
	// Get returns a single entity by its identifier, or (nil, nil) when
	// absent.
	Get(ctx context.Context, id any) (*T, error)

	// GetByField returns the first entity whose column equals value, or
	// (nil, nil) when none matches.
	GetByField(ctx context.Context, column string, value any) (*T, error)

	// GetMulti returns a window of entities matching the filter set,
	// together with the total match count.
	GetMulti(ctx context.Context, filters types.Filters, page types.PageParams) (*types.Page[T], error)

	// Search returns a window of entities whose named columns contain
	// term, case-insensitively, together with the total window size.
	Search(ctx context.Context, term string, columns []string, page types.PageParams) (*types.Page[T], error)

	// Count returns the number of entities matching the filter set.
	Count(ctx context.Context, filters types.Filters) (int, error)

	// Exists reports whether any entity matches the filter set.
	Exists(ctx context.Context, filters types.Filters) (bool, error)

	// ExistsByID reports whether the primary key is present.
	ExistsByID(ctx context.Context, id any) (bool, error)

	// Create inserts a new entity, backfilling its key and timestamps.
	Create(ctx context.Context, entity *T) error

	// Update writes the named columns of an existing entity.
	Update(ctx context.Context, entity *T, columns ...string) error

	// Remove deletes an entity by its identifier and returns it.
	Remove(ctx context.Context, id any) (*T, error)

	// BulkCreate inserts the entities in one transaction. A single
	// failure persists nothing.
	BulkCreate(ctx context.Context, entities []*T) error

	// BulkUpdate updates the entities in one transaction.
	BulkUpdate(ctx context.Context, entities []*T, columns ...string) error

	// BulkDelete removes the listed keys in one transaction and returns
	// the count removed. A missing key rolls the whole batch back.
	BulkDelete(ctx context.Context, ids []int64) (int64, error)

	// Repo exposes the underlying repository for callers composing
	// several operations into one transaction of their own.
	Repo() repository.Repository[T]
}

type baseServiceImpl[T any] struct {
	repo repository.Repository[T]
	db   *bun.DB
	once sync.Once
}

// NewService returns a Service backed by the global database connection.
func NewService[T any]() Service[T] {
	return &baseServiceImpl[T]{}
}

// NewServiceWithDB returns a Service bound to an explicit connection, which
// tests use to avoid the global.
func NewServiceWithDB[T any](db *bun.DB) Service[T] {
	return &baseServiceImpl[T]{repo: repository.New[T](), db: db}
}

func (s *baseServiceImpl[T]) conn() *bun.DB {
	s.once.Do(func() {
		if s.db == nil {
			s.db = database.DB()
		}
		if s.repo == nil {
			s.repo = repository.New[T]()
		}
	})
	return s.db
}

func (s *baseServiceImpl[T]) Repo() repository.Repository[T] {
	s.conn()
	return s.repo
}

func (s *baseServiceImpl[T]) Get(ctx context.Context, id any) (*T, error) {
	return s.Repo().Get(ctx, s.conn(), id)
}

func (s *baseServiceImpl[T]) GetByField(ctx context.Context, column string, value any) (*T, error) {
	return s.Repo().GetByField(ctx, s.conn(), column, value)
}

func (s *baseServiceImpl[T]) GetMulti(ctx context.Context, filters types.Filters, page types.PageParams) (*types.Page[T], error) {
	items, err := s.Repo().GetMulti(ctx, s.conn(), filters, page)
	if err != nil {
		return nil, err
	}
	total, err := s.Repo().Count(ctx, s.conn(), filters)
	if err != nil {
		return nil, err
	}
	return &types.Page[T]{Skip: page.Skip, Limit: page.Limit, Total: total, Items: items}, nil
}

func (s *baseServiceImpl[T]) Search(ctx context.Context, term string, columns []string, page types.PageParams) (*types.Page[T], error) {
	items, err := s.Repo().Search(ctx, s.conn(), term, columns, page)
	if err != nil {
		return nil, err
	}
	total, err := s.Repo().SearchCount(ctx, s.conn(), term, columns)
	if err != nil {
		return nil, err
	}
	return &types.Page[T]{Skip: page.Skip, Limit: page.Limit, Total: total, Items: items}, nil
}

func (s *baseServiceImpl[T]) Count(ctx context.Context, filters types.Filters) (int, error) {
	return s.Repo().Count(ctx, s.conn(), filters)
}

func (s *baseServiceImpl[T]) Exists(ctx context.Context, filters types.Filters) (bool, error) {
	return s.Repo().Exists(ctx, s.conn(), filters)
}

func (s *baseServiceImpl[T]) ExistsByID(ctx context.Context, id any) (bool, error) {
	return s.Repo().ExistsByID(ctx, s.conn(), id)
}

func (s *baseServiceImpl[T]) Create(ctx context.Context, entity *T) error {
	return database.RunInTx(ctx, s.conn(), func(ctx context.Context, tx bun.Tx) error {
		return s.repo.Create(ctx, tx, entity)
	})
}

func (s *baseServiceImpl[T]) Update(ctx context.Context, entity *T, columns ...string) error {
	return database.RunInTx(ctx, s.conn(), func(ctx context.Context, tx bun.Tx) error {
		return s.repo.Update(ctx, tx, entity, columns...)
	})
}

func (s *baseServiceImpl[T]) Remove(ctx context.Context, id any) (*T, error) {
	var removed *T
	err := database.RunInTx(ctx, s.conn(), func(ctx context.Context, tx bun.Tx) error {
		var err error
		removed, err = s.repo.Remove(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (s *baseServiceImpl[T]) BulkCreate(ctx context.Context, entities []*T) error {
	return database.RunInTx(ctx, s.conn(), func(ctx context.Context, tx bun.Tx) error {
		return s.repo.BulkCreate(ctx, tx, entities)
	})
}

func (s *baseServiceImpl[T]) BulkUpdate(ctx context.Context, entities []*T, columns ...string) error {
	return database.RunInTx(ctx, s.conn(), func(ctx context.Context, tx bun.Tx) error {
		return s.repo.BulkUpdate(ctx, tx, entities, columns...)
	})
}

func (s *baseServiceImpl[T]) BulkDelete(ctx context.Context, ids []int64) (int64, error) {
	var removed int64
	err := database.RunInTx(ctx, s.conn(), func(ctx context.Context, tx bun.Tx) error {
		var err error
		removed, err = s.repo.BulkDelete(ctx, tx, ids)
		return err
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}
