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

// Package api exposes the HTTP surface: a chi router with the standard
// middleware stack and resource handlers translating storage errors into
// status codes.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/craneworks/crane/database"
	"github.com/craneworks/crane/logging"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"detail": msg})
}

// writeStorageErr maps the storage error taxonomy onto HTTP status codes.
// Internal causes are logged, never echoed to the client.
func writeStorageErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeErr(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, database.ErrConstraintViolation):
		writeErr(w, http.StatusConflict, "resource conflicts with existing data")
	case errors.Is(err, database.ErrValidation):
		writeErr(w, http.StatusBadRequest, err.Error())
	default:
		logging.S().Errorw("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeErr(w, http.StatusInternalServerError, "internal server error")
	}
}
