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
	"encoding/json"
	"net/http"
	"strings"

	"github.com/craneworks/crane"
	"github.com/craneworks/crane/model"
	"github.com/craneworks/crane/types"

	"github.com/go-chi/chi/v5"
)

// productSearchColumns are the columns matched by the search endpoint.
var productSearchColumns = []string{"name", "description"}

type productHandler struct {
	svc crane.Service[model.Product]
}

func registerProductRoutes(r chi.Router) {
	newProductHandler(crane.NewService[model.Product]()).register(r)
}

func newProductHandler(svc crane.Service[model.Product]) *productHandler {
	return &productHandler{svc: svc}
}

func (h *productHandler) register(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/search", h.search)
		r.Post("/bulk", h.bulkCreate)
		r.Post("/bulk-delete", h.bulkDelete)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.replace)
		r.Patch("/{id}", h.update)
		r.Delete("/{id}", h.remove)
	})
}

func (h *productHandler) create(w http.ResponseWriter, r *http.Request) {
	var payload model.ProductCreate
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := payload.Validate(); msg != "" {
		writeErr(w, http.StatusBadRequest, msg)
		return
	}
	entity := payload.Entity()
	if err := h.svc.Create(r.Context(), entity); err != nil {
		writeStorageErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entity)
}

func (h *productHandler) list(w http.ResponseWriter, r *http.Request) {
	page, err := parsePageParams(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	filters := types.Filters{}
	if name := strings.TrimSpace(r.URL.Query().Get("name")); name != "" {
		filters["name"] = name
	}
	result, err := h.svc.GetMulti(r.Context(), filters, page)
	if err != nil {
		writeStorageErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *productHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	entity, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeStorageErr(w, r, err)
		return
	}
	if entity == nil {
		writeErr(w, http.StatusNotFound, "product not found")
		return
	}
	writeJSON(w, http.StatusOK, entity)
}

func (h *productHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	var payload model.ProductUpdate
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := payload.Validate(); msg != "" {
		writeErr(w, http.StatusBadRequest, msg)
		return
	}
	entity, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeStorageErr(w, r, err)
		return
	}
	if entity == nil {
		writeErr(w, http.StatusNotFound, "product not found")
		return
	}
	columns := payload.Apply(entity)
	if len(columns) == 0 {
		writeJSON(w, http.StatusOK, entity)
		return
	}
	if err := h.svc.Update(r.Context(), entity, columns...); err != nil {
		writeStorageErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entity)
}

// replace handles PUT by writing every mutable column from a full payload.
func (h *productHandler) replace(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	var payload model.ProductCreate
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := payload.Validate(); msg != "" {
		writeErr(w, http.StatusBadRequest, msg)
		return
	}
	entity, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeStorageErr(w, r, err)
		return
	}
	if entity == nil {
		writeErr(w, http.StatusNotFound, "product not found")
		return
	}
	entity.Name = strings.TrimSpace(payload.Name)
	entity.Description = payload.Description
	entity.Price = payload.Price
	entity.Attrs = payload.Attrs
	if err := h.svc.Update(r.Context(), entity, "name", "description", "price", "attrs"); err != nil {
		writeStorageErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entity)
}

func (h *productHandler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	entity, err := h.svc.Remove(r.Context(), id)
	if err != nil {
		writeStorageErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entity)
}

func (h *productHandler) search(w http.ResponseWriter, r *http.Request) {
	page, err := parsePageParams(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	term := strings.TrimSpace(r.URL.Query().Get("q"))
	if term == "" {
		writeErr(w, http.StatusBadRequest, "q is required")
		return
	}
	result, err := h.svc.Search(r.Context(), term, productSearchColumns, page)
	if err != nil {
		writeStorageErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *productHandler) bulkCreate(w http.ResponseWriter, r *http.Request) {
	var payloads []model.ProductCreate
	if err := json.NewDecoder(r.Body).Decode(&payloads); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(payloads) == 0 {
		writeErr(w, http.StatusBadRequest, "at least one product is required")
		return
	}
	entities := make([]*model.Product, 0, len(payloads))
	for i := range payloads {
		if msg := payloads[i].Validate(); msg != "" {
			writeErr(w, http.StatusBadRequest, msg)
			return
		}
		entities = append(entities, payloads[i].Entity())
	}
	if err := h.svc.BulkCreate(r.Context(), entities); err != nil {
		writeStorageErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entities)
}

func (h *productHandler) bulkDelete(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		IDs []int64 `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(payload.IDs) == 0 {
		writeErr(w, http.StatusBadRequest, "at least one id is required")
		return
	}
	removed, err := h.svc.BulkDelete(r.Context(), payload.IDs)
	if err != nil {
		writeStorageErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"removed": removed})
}
