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

import "strings"

// Environment identifies the runtime environment the process runs in.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

// ParseEnvironment normalizes free-form environment names. Unknown values
// fall back to development.
func ParseEnvironment(s string) Environment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "production", "prod":
		return EnvProduction
	default:
		return EnvDevelopment
	}
}

// IsProduction reports whether the environment is production.
func (e Environment) IsProduction() bool { return e == EnvProduction }

// IsDevelopment reports whether the environment is development.
func (e Environment) IsDevelopment() bool { return e == EnvDevelopment }

func (e Environment) String() string { return string(e) }
