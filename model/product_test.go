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

package model

import (
	"reflect"
	"strings"
	"testing"
)

func TestProductCreateValidate(t *testing.T) {
	ok := ProductCreate{Name: "widget", Price: 1}
	if msg := ok.Validate(); msg != "" {
		t.Fatalf("unexpected rejection: %s", msg)
	}
	if msg := (&ProductCreate{Name: "  "}).Validate(); msg == "" {
		t.Fatal("blank name accepted")
	}
	if msg := (&ProductCreate{Name: strings.Repeat("x", 256)}).Validate(); msg == "" {
		t.Fatal("overlong name accepted")
	}
	if msg := (&ProductCreate{Name: "widget", Price: -1}).Validate(); msg == "" {
		t.Fatal("negative price accepted")
	}
}

func TestProductCreateEntityTrimsName(t *testing.T) {
	entity := (&ProductCreate{Name: "  widget  ", Price: 2}).Entity()
	if entity.Name != "widget" || entity.Price != 2 {
		t.Fatalf("unexpected entity: %+v", entity)
	}
}

func TestProductUpdateApply(t *testing.T) {
	entity := &Product{Name: "before", Description: "keep", Price: 1}

	name := "after"
	price := 9.5
	payload := ProductUpdate{Name: &name, Price: &price}

	columns := payload.Apply(entity)
	if !reflect.DeepEqual(columns, []string{"name", "price"}) {
		t.Fatalf("unexpected columns: %v", columns)
	}
	if entity.Name != "after" || entity.Price != 9.5 {
		t.Fatalf("fields not applied: %+v", entity)
	}
	if entity.Description != "keep" {
		t.Fatalf("unset field was touched: %q", entity.Description)
	}

	if cols := (&ProductUpdate{}).Apply(entity); cols != nil {
		t.Fatalf("empty payload produced columns: %v", cols)
	}
}

func TestProductUpdateValidate(t *testing.T) {
	blank := "  "
	if msg := (&ProductUpdate{Name: &blank}).Validate(); msg == "" {
		t.Fatal("blank name accepted")
	}
	negative := -0.5
	if msg := (&ProductUpdate{Price: &negative}).Validate(); msg == "" {
		t.Fatal("negative price accepted")
	}
	if msg := (&ProductUpdate{}).Validate(); msg != "" {
		t.Fatalf("empty payload rejected: %s", msg)
	}
}
