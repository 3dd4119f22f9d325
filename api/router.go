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
	"net/http"
	"time"

	"github.com/craneworks/crane/config"
	"github.com/craneworks/crane/database"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

var startedAt = time.Now()

// NewRouter assembles the middleware stack, the service endpoints, and the
// resource routes under the configured API prefix.
func NewRouter(settings *config.Settings) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(processTime)
	r.Use(recovery)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors(settings.CORS))

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"name":        settings.App.Name,
			"version":     settings.App.Version,
			"description": settings.App.Description,
		})
	})
	r.Get("/healthz", healthHandler)

	r.Route(settings.App.APIPrefix, func(r chi.Router) {
		registerProductRoutes(r)
	})

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(startedAt).Round(time.Second).String()
	health := database.Health(r.Context())
	if health == nil || !health.Healthy {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "unhealthy",
			"uptime": uptime,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": uptime,
	})
}
