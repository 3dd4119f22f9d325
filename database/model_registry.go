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

package database

import (
	"sort"
	"sync"
)

var defaultRegistry = newModelRegistry()

// RegisteredModel is an entity struct registered for automatic table
// creation. Instance returns a struct pointer compatible with Bun; Priority
// controls creation order (lower values first, useful for dependencies).
type RegisteredModel interface {
	Instance() interface{}
	Priority() int
}

type modelRegistry struct {
	models []RegisteredModel
	mutex  sync.RWMutex
}

func newModelRegistry() *modelRegistry {
	return &modelRegistry{models: make([]RegisteredModel, 0)}
}

func (r *modelRegistry) register(model RegisteredModel) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.models = append(r.models, model)
}

func (r *modelRegistry) all() []RegisteredModel {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]RegisteredModel, len(r.models))
	copy(result, r.models)
	sort.Slice(result, func(i, j int) bool {
		return result[i].Priority() < result[j].Priority()
	})
	return result
}

type modelAdapter struct {
	instance interface{}
	priority int
}

func (a *modelAdapter) Instance() interface{} { return a.instance }

func (a *modelAdapter) Priority() int { return a.priority }

// RegisterModel adds an entity struct pointer to the default registry so
// migrations create its table. Typically called from an entity package init.
func RegisterModel(instance interface{}, priority int) {
	defaultRegistry.register(&modelAdapter{instance: instance, priority: priority})
}

// RegisteredModels returns all registered models sorted by ascending priority.
func RegisteredModels() []RegisteredModel {
	return defaultRegistry.all()
}

// RegisteredModelInstances returns the registered struct pointers in
// priority order.
func RegisteredModelInstances() []interface{} {
	models := RegisteredModels()
	instances := make([]interface{}, len(models))
	for i, model := range models {
		instances[i] = model.Instance()
	}
	return instances
}
