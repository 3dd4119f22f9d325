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
	"strings"
	"time"

	"github.com/craneworks/crane/config"
	"github.com/craneworks/crane/logging"

	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// requestID tags each request with an identifier, honoring one supplied by
// the client.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	start  time.Time
	status int
	wrote  bool
}

// WriteHeader stamps X-Process-Time just before the status line goes out,
// the last moment a header can still be set.
func (rec *statusRecorder) WriteHeader(code int) {
	if !rec.wrote {
		rec.wrote = true
		rec.status = code
		rec.Header().Set("X-Process-Time", fmt.Sprintf("%.6f", time.Since(rec.start).Seconds()))
	}
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	if !rec.wrote {
		rec.WriteHeader(http.StatusOK)
	}
	return rec.ResponseWriter.Write(b)
}

// processTime measures handler latency, exposes it via X-Process-Time, and
// writes one access log line per request.
func processTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, start: time.Now(), status: http.StatusOK}
		defer func() {
			logging.S().Infow("http_access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"remote", r.RemoteAddr,
				"request_id", w.Header().Get(requestIDHeader),
				"dur", time.Since(rec.start),
			)
		}()
		next.ServeHTTP(rec, r)
	})
}

// recovery converts handler panics into 500 responses with a logged stack.
func recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logging.S().Errorw("handler panic",
					"method", r.Method,
					"path", r.URL.Path,
					"panic", rec,
				)
				writeErr(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// cors applies the configured cross-origin policy and short-circuits
// preflight requests.
func cors(settings config.CORSSettings) func(http.Handler) http.Handler {
	allowAll := len(settings.AllowOrigins) == 1 && settings.AllowOrigins[0] == "*"
	methods := strings.Join(settings.AllowMethods, ", ")
	headers := strings.Join(settings.AllowHeaders, ", ")

	allowed := func(origin string) bool {
		if allowAll {
			return true
		}
		for _, o := range settings.AllowOrigins {
			if strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && allowed(origin) {
				if allowAll && !settings.AllowCredentials {
					w.Header().Set("Access-Control-Allow-Origin", "*")
				} else {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Add("Vary", "Origin")
				}
				if settings.AllowCredentials {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
				if r.Method == http.MethodOptions {
					w.Header().Set("Access-Control-Allow-Methods", methods)
					w.Header().Set("Access-Control-Allow-Headers", headers)
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
