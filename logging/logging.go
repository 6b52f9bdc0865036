// Package logging provides leveled console logging for the memory and
// persona engine. The persisted JSON documents are the durable record;
// this package exists for real-time monitoring of what the engine did
// with each message.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents log severity.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// levelPriority maps levels to numeric priority for filtering.
var levelPriority = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// Logger provides structured logging to stdout.
type Logger struct {
	mu        sync.Mutex
	output    io.Writer
	minLevel  Level
	component string
	traceID   string
}

// New creates a new Logger.
func New() *Logger {
	return &Logger{
		output:   os.Stdout,
		minLevel: LevelInfo,
	}
}

// WithComponent returns a new logger with the given component name.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		output:    l.output,
		minLevel:  l.minLevel,
		component: component,
		traceID:   l.traceID,
	}
}

// WithTraceID returns a new logger scoped to one message's trace ID.
func (l *Logger) WithTraceID(traceID string) *Logger {
	return &Logger{
		output:    l.output,
		minLevel:  l.minLevel,
		component: l.component,
		traceID:   traceID,
	}
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.minLevel = level
}

// SetOutput sets the output writer (default: stdout).
func (l *Logger) SetOutput(w io.Writer) {
	l.output = w
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	l.log(LevelDebug, msg, fields...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	l.log(LevelInfo, msg, fields...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	l.log(LevelWarn, msg, fields...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	l.log(LevelError, msg, fields...)
}

// formatFields formats a map of fields as key=value pairs.
func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	var parts []string
	for k, v := range fields {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return " " + strings.Join(parts, " ")
}

// log writes a log entry: LEVEL TIMESTAMP [component] message key=value ...
func (l *Logger) log(level Level, msg string, fields ...map[string]interface{}) {
	if levelPriority[level] < levelPriority[l.minLevel] {
		return
	}

	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")

	var fieldStr string
	if len(fields) > 0 && fields[0] != nil {
		fieldStr = formatFields(fields[0])
	}
	if l.traceID != "" {
		fieldStr += " trace=" + l.traceID
	}

	var line string
	if l.component != "" {
		line = fmt.Sprintf("%-5s %s [%s] %s%s\n", level, timestamp, l.component, msg, fieldStr)
	} else {
		line = fmt.Sprintf("%-5s %s %s%s\n", level, timestamp, msg, fieldStr)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.output.Write([]byte(line))
}

// --- Event-derived logging methods ---
// Called by the engine and pipeline after the matching state change.

// FactStored logs a fact that was committed to a user's memory.
func (l *Logger) FactStored(userID, fact string) {
	l.Info("fact_stored", map[string]interface{}{
		"user":  userID,
		"words": len(strings.Fields(fact)),
	})
}

// FactEvicted logs an oldest-first eviction caused by the per-user cap.
func (l *Logger) FactEvicted(userID string, cap int) {
	l.Debug("fact_evicted", map[string]interface{}{
		"user": userID,
		"cap":  cap,
	})
}

// FactDuplicate logs a rejected duplicate fact.
func (l *Logger) FactDuplicate(userID string) {
	l.Debug("fact_duplicate", map[string]interface{}{
		"user": userID,
	})
}

// ExtractionSkipped logs a message the pipeline declined to process.
func (l *Logger) ExtractionSkipped(userID, reason string) {
	l.Debug("extraction_skipped", map[string]interface{}{
		"user":   userID,
		"reason": reason,
	})
}

// GatewayFailure logs a failed generation gateway call.
func (l *Logger) GatewayFailure(op string, err error) {
	l.Error("gateway_failure", map[string]interface{}{
		"op":    op,
		"error": err.Error(),
	})
}

// GatewayCall logs a completed generation round trip.
func (l *Logger) GatewayCall(op string, duration time.Duration) {
	l.Debug("gateway_call", map[string]interface{}{
		"op":       op,
		"duration": duration.String(),
	})
}

// PersonaChanged logs an active-persona switch.
func (l *Logger) PersonaChanged(from, to string) {
	l.Info("persona_changed", map[string]interface{}{
		"from": from,
		"to":   to,
	})
}

// StorageReset logs loudly that a persisted document was unreadable and
// has been reset to its safe default.
func (l *Logger) StorageReset(path string, err error) {
	l.Error("storage_reset", map[string]interface{}{
		"path":  path,
		"error": err.Error(),
	})
}
