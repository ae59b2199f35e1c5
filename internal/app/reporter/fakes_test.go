package reporter

import (
	"context"
	"sync"

	"github.com/YelzhanWeb/errwatch/internal/domain"
	"github.com/YelzhanWeb/errwatch/internal/interfaces"
)

type logLine struct {
	level     string
	action    string
	requestID string
	details   map[string]interface{}
}

type recordingLogger struct {
	mu    sync.Mutex
	lines []logLine
}

func (l *recordingLogger) add(level, action, requestID string, details map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, logLine{level: level, action: action, requestID: requestID, details: details})
}

func (l *recordingLogger) Info(action, message, requestID string, details map[string]interface{}) {
	l.add("INFO", action, requestID, details)
}

func (l *recordingLogger) Debug(action, message, requestID string, details map[string]interface{}) {
	l.add("DEBUG", action, requestID, details)
}

func (l *recordingLogger) Warn(action, message, requestID string, details map[string]interface{}) {
	l.add("WARN", action, requestID, details)
}

func (l *recordingLogger) Error(action, message, requestID string, details map[string]interface{}, err error) {
	l.add("ERROR", action, requestID, details)
}

func (l *recordingLogger) byLevel(level string) []logLine {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []logLine
	for _, line := range l.lines {
		if line.level == level {
			out = append(out, line)
		}
	}
	return out
}

type stubSender struct {
	mu     sync.Mutex
	alerts []domain.AlertRequest
	result string
	err    error
	panic  bool
}

func (s *stubSender) Send(ctx context.Context, alert domain.AlertRequest) (string, error) {
	s.mu.Lock()
	s.alerts = append(s.alerts, alert)
	s.mu.Unlock()
	if s.panic {
		panic("gateway client exploded")
	}
	return s.result, s.err
}

type collectingSink struct {
	mu   sync.Mutex
	msgs []interfaces.ReportMessage
}

func (c *collectingSink) Write(ctx context.Context, msg interfaces.ReportMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
}

type ioError struct{ msg string }

func (e *ioError) Error() string { return e.msg }

type sqlError struct {
	msg   string
	cause error
}

func (e *sqlError) Error() string { return e.msg }
func (e *sqlError) Unwrap() error { return e.cause }

// causeOnly mimics errors that expose their cause via Cause() instead of Unwrap().
type causeOnly struct {
	msg   string
	cause error
}

func (e *causeOnly) Error() string { return e.msg }
func (e *causeOnly) Cause() error  { return e.cause }

type linkError struct{ next error }

func (e *linkError) Error() string { return "link" }
func (e *linkError) Unwrap() error { return e.next }

func deepChain(n int) error {
	var err error = &ioError{msg: "bottom"}
	for i := 0; i < n; i++ {
		err = &linkError{next: err}
	}
	return err
}

type brokenError struct{ detail *string }

func (e *brokenError) Error() string { return *e.detail }

type quotaError struct {
	Tenant string
	Limit  int
}

func (e *quotaError) Error() string { return "quota exceeded for " + e.Tenant }
