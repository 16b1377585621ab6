package logger

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
)

type TestLogEntry struct {
	Severity  string
	Message   string
	Arguments []interface{}
}

// String renders the entry with its arguments applied.
func (e TestLogEntry) String() string {
	return fmt.Sprintf(e.Message, e.Arguments...)
}

type testLogBook struct {
	mu   sync.Mutex
	logs []TestLogEntry
}

// TestLogger records every entry in memory. Loggers derived through With
// and WithPrefix share the same record. Safe for concurrent use.
type TestLogger struct {
	metadata map[string]interface{}
	prefix   string
	book     *testLogBook
	child    Logger
}

var _ Logger = (*TestLogger)(nil)

func (c *TestLogger) WithContext(ctx context.Context) Logger {
	return c
}

// WithPrefix will return a new logger with a prefix prepended to the message
func (c *TestLogger) WithPrefix(prefix string) Logger {
	p := prefix
	if c.prefix != "" {
		p = c.prefix + " " + prefix
	}
	return &TestLogger{metadata: c.metadata, prefix: p, book: c.book, child: c.child}
}

func (c *TestLogger) With(metadata map[string]interface{}) Logger {
	kv := make(map[string]interface{}, len(c.metadata)+len(metadata))
	for k, v := range c.metadata {
		kv[k] = v
	}
	for k, v := range metadata {
		kv[k] = v
	}
	child := c.child
	if child != nil {
		child = child.With(metadata)
	}
	return &TestLogger{metadata: kv, prefix: c.prefix, book: c.book, child: child}
}

func (c *TestLogger) IsLevelEnabled(level LogLevel) bool {
	return true
}

func (c *TestLogger) log(level string, msg string, args ...interface{}) {
	if c.prefix != "" {
		msg = c.prefix + " " + msg
	}
	c.book.mu.Lock()
	c.book.logs = append(c.book.logs, TestLogEntry{level, msg, args})
	c.book.mu.Unlock()
}

// Logs returns a copy of everything logged so far.
func (c *TestLogger) Logs() []TestLogEntry {
	c.book.mu.Lock()
	defer c.book.mu.Unlock()
	out := make([]TestLogEntry, len(c.book.logs))
	copy(out, c.book.logs)
	return out
}

// Find returns the entries of the given severity whose rendered message
// contains substr.
func (c *TestLogger) Find(severity string, substr string) []TestLogEntry {
	var found []TestLogEntry
	for _, e := range c.Logs() {
		if e.Severity == severity && strings.Contains(e.String(), substr) {
			found = append(found, e)
		}
	}
	return found
}

func (c *TestLogger) Trace(msg string, args ...interface{}) {
	c.log("TRACE", msg, args...)
	if c.child != nil {
		c.child.Trace(msg, args...)
	}
}

func (c *TestLogger) Debug(msg string, args ...interface{}) {
	c.log("DEBUG", msg, args...)
	if c.child != nil {
		c.child.Debug(msg, args...)
	}
}

func (c *TestLogger) Info(msg string, args ...interface{}) {
	c.log("INFO", msg, args...)
	if c.child != nil {
		c.child.Info(msg, args...)
	}
}

func (c *TestLogger) Warn(msg string, args ...interface{}) {
	c.log("WARNING", msg, args...)
	if c.child != nil {
		c.child.Warn(msg, args...)
	}
}

func (c *TestLogger) Error(msg string, args ...interface{}) {
	c.log("ERROR", msg, args...)
	if c.child != nil {
		c.child.Error(msg, args...)
	}
}

func (c *TestLogger) Fatal(msg string, args ...interface{}) {
	c.log("FATAL", msg, args...)
	if c.child != nil {
		c.child.Error(msg, args...)
	}
	os.Exit(1)
}

func (c *TestLogger) Stack(next Logger) Logger {
	return &TestLogger{metadata: c.metadata, prefix: c.prefix, book: c.book, child: next}
}

// NewTestLogger returns a new Logger instance useful for testing
func NewTestLogger() *TestLogger {
	return &TestLogger{book: &testLogBook{}}
}
