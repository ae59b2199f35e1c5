package logger

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

type Logger interface {
	Info(action, message, requestID string, details map[string]interface{})
	Debug(action, message, requestID string, details map[string]interface{})
	Warn(action, message, requestID string, details map[string]interface{})
	Error(action, message, requestID string, details map[string]interface{}, err error)
}

type jsonLogger struct {
	service  string
	hostname string
	level    Level
	out      io.Writer
	mu       sync.Mutex
}

func New(service string) Logger {
	return NewWithWriter(service, os.Stdout, LevelInfo)
}

func NewWithWriter(service string, out io.Writer, level Level) Logger {
	hostname, _ := os.Hostname()
	return &jsonLogger{
		service:  service,
		hostname: hostname,
		level:    level,
		out:      out,
	}
}

func (l *jsonLogger) Info(action, message, requestID string, details map[string]interface{}) {
	l.log(LevelInfo, action, message, requestID, details, nil)
}

func (l *jsonLogger) Debug(action, message, requestID string, details map[string]interface{}) {
	l.log(LevelDebug, action, message, requestID, details, nil)
}

func (l *jsonLogger) Warn(action, message, requestID string, details map[string]interface{}) {
	l.log(LevelWarn, action, message, requestID, details, nil)
}

func (l *jsonLogger) Error(action, message, requestID string, details map[string]interface{}, err error) {
	l.log(LevelError, action, message, requestID, details, err)
}

func (l *jsonLogger) log(level Level, action, message, requestID string, details map[string]interface{}, err error) {
	if level < l.level {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level.String(),
		Service:   l.service,
		Hostname:  l.hostname,
		RequestID: requestID,
		Action:    action,
		Message:   message,
		Details:   details,
	}

	if err != nil {
		entry.Error = &ErrorInfo{
			Msg:   err.Error(),
			Chain: describeChain(err),
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if encErr := json.NewEncoder(l.out).Encode(entry); encErr != nil {
		// details held something unencodable; keep the line, drop the details
		entry.Details = map[string]interface{}{"encode_error": encErr.Error()}
		_ = json.NewEncoder(l.out).Encode(entry)
	}
}

// describeChain lists the messages of wrapped errors below the top one.
func describeChain(err error) string {
	var parts []string
	for cause := errors.Unwrap(err); cause != nil && len(parts) < 16; cause = errors.Unwrap(cause) {
		parts = append(parts, cause.Error())
	}
	return strings.Join(parts, " <- ")
}
