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

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/craneworks/crane/types"

	"github.com/go-chi/chi/v5"
)

// parsePageParams reads skip, limit, order_by and order_desc from the query
// string. Missing values fall back to defaults; out-of-range values are
// rejected rather than clamped.
func parsePageParams(r *http.Request) (types.PageParams, error) {
	page := types.DefaultPageParams()
	q := r.URL.Query()

	if raw := strings.TrimSpace(q.Get("skip")); raw != "" {
		skip, err := strconv.Atoi(raw)
		if err != nil {
			return page, fmt.Errorf("skip must be an integer")
		}
		page.Skip = skip
	}
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return page, fmt.Errorf("limit must be an integer")
		}
		page.Limit = limit
	}
	page.OrderBy = strings.TrimSpace(q.Get("order_by"))
	if raw := strings.TrimSpace(q.Get("order_desc")); raw != "" {
		desc, err := strconv.ParseBool(raw)
		if err != nil {
			return page, fmt.Errorf("order_desc must be a boolean")
		}
		page.OrderDesc = desc
	}
	if !page.Valid() {
		return page, fmt.Errorf("skip must be >= 0 and limit between 1 and %d", types.MaxLimit)
	}
	return page, nil
}

// pathID reads the {id} route parameter as an int64.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("id must be a positive integer")
	}
	return id, nil
}
