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

// Package model declares the persisted entities served by the API, together
// with their request payloads. Entities register themselves with the
// database package so table creation picks them up.
package model

import (
	"strings"

	"github.com/craneworks/crane/database"
	"github.com/craneworks/crane/types"

	"github.com/uptrace/bun"
)

func init() {
	database.RegisterModel(&Product{}, 10)
}

// Product is the sample resource managed by the API.
type Product struct {
	bun.BaseModel `bun:"table:products,alias:p"`
	database.Model

	Name        string           `bun:"name,notnull,unique" json:"name"`
	Description string           `bun:"description" json:"description"`
	Price       float64          `bun:"price,notnull,default:0" json:"price"`
	Attrs       types.JSONObject `bun:"attrs,type:text" json:"attrs,omitempty"`
}

// ProductCreate is the payload accepted when creating a product.
type ProductCreate struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       float64          `json:"price"`
	Attrs       types.JSONObject `json:"attrs"`
}

// Validate reports the first problem with the payload, or empty string.
func (p *ProductCreate) Validate() string {
	if strings.TrimSpace(p.Name) == "" {
		return "name is required"
	}
	if len(p.Name) > 255 {
		return "name must be at most 255 characters"
	}
	if p.Price < 0 {
		return "price must not be negative"
	}
	return ""
}

// Entity builds a new Product from the payload.
func (p *ProductCreate) Entity() *Product {
	return &Product{
		Name:        strings.TrimSpace(p.Name),
		Description: p.Description,
		Price:       p.Price,
		Attrs:       p.Attrs,
	}
}

// ProductUpdate is the payload accepted when updating a product. Nil fields
// are left untouched, so a partial body only changes what it names.
type ProductUpdate struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *float64         `json:"price"`
	Attrs       types.JSONObject `json:"attrs"`
}

// Validate reports the first problem with the payload, or empty string.
func (p *ProductUpdate) Validate() string {
	if p.Name != nil {
		if strings.TrimSpace(*p.Name) == "" {
			return "name must not be empty"
		}
		if len(*p.Name) > 255 {
			return "name must be at most 255 characters"
		}
	}
	if p.Price != nil && *p.Price < 0 {
		return "price must not be negative"
	}
	return ""
}

// Apply copies the set fields onto entity and returns the names of the
// columns that changed.
func (p *ProductUpdate) Apply(entity *Product) []string {
	var columns []string
	if p.Name != nil {
		entity.Name = strings.TrimSpace(*p.Name)
		columns = append(columns, "name")
	}
	if p.Description != nil {
		entity.Description = *p.Description
		columns = append(columns, "description")
	}
	if p.Price != nil {
		entity.Price = *p.Price
		columns = append(columns, "price")
	}
	if p.Attrs != nil {
		entity.Attrs = p.Attrs
		columns = append(columns, "attrs")
	}
	return columns
}
