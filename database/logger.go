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
	"sync"

	"github.com/craneworks/crane/logging"
)

// Logger is the logging contract used inside this package. Fields are
// alternating key/value pairs.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

var (
	globalLogger   Logger
	globalLoggerMu sync.RWMutex
)

// InitLogger sets the package logger once; later calls are no-ops.
func InitLogger(log Logger) {
	if log == nil {
		return
	}
	globalLoggerMu.Lock()
	defer globalLoggerMu.Unlock()
	if globalLogger == nil {
		globalLogger = log
	}
}

// GetLogger returns the package logger, installing a zap-backed default on
// first use.
func GetLogger() Logger {
	globalLoggerMu.RLock()
	l := globalLogger
	globalLoggerMu.RUnlock()
	if l != nil {
		return l
	}

	globalLoggerMu.Lock()
	if globalLogger == nil {
		globalLogger = &zapLogger{}
	}
	l = globalLogger
	globalLoggerMu.Unlock()
	return l
}

// zapLogger adapts the process-wide zap sugared logger to the Logger contract.
type zapLogger struct{}

func (l *zapLogger) Debug(msg string, fields ...interface{}) {
	logging.S().Debugw(msg, fields...)
}

func (l *zapLogger) Info(msg string, fields ...interface{}) {
	logging.S().Infow(msg, fields...)
}

func (l *zapLogger) Warn(msg string, fields ...interface{}) {
	logging.S().Warnw(msg, fields...)
}

func (l *zapLogger) Error(msg string, fields ...interface{}) {
	logging.S().Errorw(msg, fields...)
}
