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

package types

import "sort"

// Pagination limits shared by the API and repository layers.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Filters maps a column name to a required value. A slice value produces an
// IN condition, anything else an equality condition. Columns not present are
// unconstrained.
type Filters map[string]interface{}

// Columns returns the filter column names in sorted order so that generated
// SQL is deterministic.
func (f Filters) Columns() []string {
	if len(f) == 0 {
		return nil
	}
	cols := make([]string, 0, len(f))
	for col := range f {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

// PageParams describes a page window applied after filtering: Skip records to
// pass over and Limit records to return at most. OrderBy names the column to
// sort on; when empty the result is ordered by primary key. The column is
// validated against the entity before querying.
type PageParams struct {
	Skip      int    `json:"skip"`
	Limit     int    `json:"limit"`
	OrderBy   string `json:"order_by,omitempty"`
	OrderDesc bool   `json:"order_desc,omitempty"`
}

// NewPageParams constructs a page window, substituting the default limit when
// limit is zero. It does not validate; see Valid.
func NewPageParams(skip, limit int) PageParams {
	if limit == 0 {
		limit = DefaultLimit
	}
	return PageParams{Skip: skip, Limit: limit}
}

// DefaultPageParams returns the default page window (skip 0, limit 20).
func DefaultPageParams() PageParams {
	return PageParams{Skip: 0, Limit: DefaultLimit}
}

// Valid reports whether the window is inside the allowed bounds:
// skip >= 0 and limit in [1, MaxLimit].
func (p PageParams) Valid() bool {
	return p.Skip >= 0 && p.Limit >= 1 && p.Limit <= MaxLimit
}

// Page holds a page of results along with its window and the total number of
// records matching the filter set.
type Page[T any] struct {
	Skip  int  `json:"skip"`
	Limit int  `json:"limit"`
	Total int  `json:"total"`
	Items []*T `json:"items"`
}

// NewEmptyPage constructs a page container with no items.
func NewEmptyPage[T any](params PageParams) *Page[T] {
	return &Page[T]{Skip: params.Skip, Limit: params.Limit, Items: make([]*T, 0)}
}
