// ============================================================================
// VoiceAgent - Automated Voice Survey Platform
// ============================================================================
//
// Package:     logging
// Description: Structured component loggers with text and JSON output
// Author:      Naeem Akhtar
// Created:     2026-08-12
// License:     MIT
// ============================================================================

package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Format selects the output encoding
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// ParseFormat parses a format name, defaulting to text
func ParseFormat(format string) Format {
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return FormatJSON
	}
	return FormatText
}

// Config holds configuration for creating a logger
type Config struct {
	// Component name, shown in every entry
	Name string

	// Minimum level to emit
	Level Level

	// Output encoding
	Format Format

	// Destination; defaults to stdout
	Output io.Writer
}

// Logger emits structured log entries for one component
type Logger struct {
	mu     sync.Mutex
	name   string
	level  *Level // nil means follow the global level
	format Format
	output io.Writer
	fields map[string]interface{}
}

var (
	globalMu    sync.RWMutex
	globalLevel = LevelInfo
)

// SetGlobalLevel sets the minimum level for all loggers that have not
// pinned their own level with WithLevel
func SetGlobalLevel(level Level) {
	globalMu.Lock()
	globalLevel = level
	globalMu.Unlock()
}

// GlobalLevel returns the current global minimum level
func GlobalLevel() Level {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLevel
}

// New creates a logger for the named component with default settings
func New(name string) *Logger {
	return &Logger{
		name:   name,
		format: FormatText,
		output: os.Stdout,
	}
}

// NewWithConfig creates a logger from an explicit configuration
func NewWithConfig(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	level := cfg.Level
	return &Logger{
		name:   cfg.Name,
		level:  &level,
		format: cfg.Format,
		output: out,
	}
}

// WithLevel returns a copy of the logger pinned to the given level
func (l *Logger) WithLevel(level Level) *Logger {
	clone := l.clone()
	clone.level = &level
	return clone
}

// WithOutput returns a copy of the logger writing to the given writer
func (l *Logger) WithOutput(w io.Writer) *Logger {
	clone := l.clone()
	clone.output = w
	return clone
}

// WithFields returns a copy of the logger that includes the given
// key-value pairs in every entry
func (l *Logger) WithFields(keysAndValues ...interface{}) *Logger {
	clone := l.clone()
	if clone.fields == nil {
		clone.fields = make(map[string]interface{})
	}
	for k, v := range toFields(keysAndValues...) {
		clone.fields[k] = v
	}
	return clone
}

func (l *Logger) clone() *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	clone := &Logger{
		name:   l.name,
		level:  l.level,
		format: l.format,
		output: l.output,
	}
	if len(l.fields) > 0 {
		clone.fields = make(map[string]interface{}, len(l.fields))
		for k, v := range l.fields {
			clone.fields[k] = v
		}
	}
	return clone
}

func (l *Logger) minLevel() Level {
	if l.level != nil {
		return *l.level
	}
	return GlobalLevel()
}

// Debug logs a debug message with key-value pairs
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.log(LevelDebug, msg, keysAndValues...)
}

// Info logs an info message with key-value pairs
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.log(LevelInfo, msg, keysAndValues...)
}

// Warn logs a warning message with key-value pairs
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.log(LevelWarn, msg, keysAndValues...)
}

// Error logs an error message with key-value pairs
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.log(LevelError, msg, keysAndValues...)
}

func (l *Logger) log(level Level, msg string, keysAndValues ...interface{}) {
	if !level.Enabled(l.minLevel()) {
		return
	}

	fields := toFields(keysAndValues...)
	l.mu.Lock()
	defer l.mu.Unlock()

	for k, v := range l.fields {
		if _, set := fields[k]; !set {
			if fields == nil {
				fields = make(map[string]interface{})
			}
			fields[k] = v
		}
	}

	now := time.Now()
	switch l.format {
	case FormatJSON:
		entry := map[string]interface{}{
			"time":      now.Format(time.RFC3339Nano),
			"level":     level.String(),
			"component": l.name,
			"message":   msg,
		}
		for k, v := range fields {
			entry[k] = v
		}
		data, err := json.Marshal(entry)
		if err != nil {
			fmt.Fprintf(l.output, "{\"level\":\"error\",\"message\":\"log marshal failed: %v\"}\n", err)
			return
		}
		l.output.Write(append(data, '\n'))
	default:
		var b strings.Builder
		b.WriteString(now.Format("2006-01-02 15:04:05.000"))
		b.WriteString(" [")
		b.WriteString(level.ShortString())
		b.WriteString("] [")
		b.WriteString(l.name)
		b.WriteString("] ")
		b.WriteString(msg)
		for _, k := range sortedKeys(fields) {
			fmt.Fprintf(&b, " %s=%v", k, fields[k])
		}
		b.WriteByte('\n')
		io.WriteString(l.output, b.String())
	}
}

// toFields converts key-value pairs to a field map; non-string keys and
// a trailing unpaired value are skipped
func toFields(keysAndValues ...interface{}) map[string]interface{} {
	if len(keysAndValues) == 0 {
		return nil
	}
	fields := make(map[string]interface{})
	for i := 0; i < len(keysAndValues)-1; i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}

func sortedKeys(fields map[string]interface{}) []string {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Package-level default logger for code without a component logger

var defaultLogger = New("voiceagent")

// Default returns the package-level logger
func Default() *Logger {
	return defaultLogger
}

// Debug logs a debug message on the default logger
func Debug(msg string, keysAndValues ...interface{}) {
	defaultLogger.Debug(msg, keysAndValues...)
}

// Info logs an info message on the default logger
func Info(msg string, keysAndValues ...interface{}) {
	defaultLogger.Info(msg, keysAndValues...)
}

// Warn logs a warning message on the default logger
func Warn(msg string, keysAndValues ...interface{}) {
	defaultLogger.Warn(msg, keysAndValues...)
}

// Error logs an error message on the default logger
func Error(msg string, keysAndValues ...interface{}) {
	defaultLogger.Error(msg, keysAndValues...)
}
