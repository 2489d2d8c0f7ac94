package logger

import (
	"sync"

	"github.com/rs/zerolog"
)

// TestLogger captures log messages in memory so tests can assert on them.
// Loggers derived via WithFields record into the same root capture.
type TestLogger struct {
	mu       sync.Mutex
	messages []LogMessage
	fields   map[string]interface{}
	parent   *TestLogger
	zerolog  *zerolog.Logger
}

// LogMessage represents a captured log message
type LogMessage struct {
	Level   string
	Message string
	Fields  map[string]interface{}
}

// NewTestLogger creates a new test logger
func NewTestLogger() *TestLogger {
	nop := zerolog.Nop()
	return &TestLogger{
		fields:  make(map[string]interface{}),
		zerolog: &nop,
	}
}

func (l *TestLogger) root() *TestLogger {
	r := l
	for r.parent != nil {
		r = r.parent
	}
	return r
}

func (l *TestLogger) log(level, msg string, fields map[string]interface{}) {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}

	root := l.root()
	root.mu.Lock()
	defer root.mu.Unlock()
	root.messages = append(root.messages, LogMessage{Level: level, Message: msg, Fields: merged})
}

func (l *TestLogger) Debug(msg string) { l.log("DEBUG", msg, nil) }
func (l *TestLogger) Info(msg string)  { l.log("INFO", msg, nil) }
func (l *TestLogger) Warn(msg string)  { l.log("WARN", msg, nil) }
func (l *TestLogger) Error(msg string) { l.log("ERROR", msg, nil) }
func (l *TestLogger) Fatal(msg string) { l.log("FATAL", msg, nil) }

func (l *TestLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	l.log("DEBUG", msg, fields)
}

func (l *TestLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	l.log("INFO", msg, fields)
}

func (l *TestLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	l.log("WARN", msg, fields)
}

func (l *TestLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.log("ERROR", msg, fields)
}

func (l *TestLogger) FatalWithFields(msg string, fields map[string]interface{}) {
	l.log("FATAL", msg, fields)
}

// WithField returns a logger carrying an extra field
func (l *TestLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithFields returns a logger carrying extra fields
func (l *TestLogger) WithFields(fields map[string]interface{}) Logger {
	child := &TestLogger{
		fields:  make(map[string]interface{}, len(l.fields)+len(fields)),
		parent:  l,
		zerolog: l.zerolog,
	}
	for k, v := range l.fields {
		child.fields[k] = v
	}
	for k, v := range fields {
		child.fields[k] = v
	}
	return child
}

// WithError adds an error field
func (l *TestLogger) WithError(err error) Logger {
	if err == nil {
		return l
	}
	return l.WithField("error", err.Error())
}

// GetZerolog returns a no-op zerolog instance
func (l *TestLogger) GetZerolog() *zerolog.Logger {
	return l.zerolog
}

// Messages returns a copy of all captured messages
func (l *TestLogger) Messages() []LogMessage {
	root := l.root()
	root.mu.Lock()
	defer root.mu.Unlock()

	out := make([]LogMessage, len(root.messages))
	copy(out, root.messages)
	return out
}

// HasMessage reports whether a message with the given level and text was logged
func (l *TestLogger) HasMessage(level, msg string) bool {
	for _, m := range l.Messages() {
		if m.Level == level && m.Message == msg {
			return true
		}
	}
	return false
}

var _ Logger = (*TestLogger)(nil)
